// Package app is the root bubbletea model. It lays out the table sidebar, the
// row grid, the row form and the status bar, and drives an explorer.Session:
// loads run as commands and come back as messages tagged with the selection
// generation they were fetched for.
package app

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/config"
	"github.com/elarabyomar/PFA-sub000/internal/explorer"
	"github.com/elarabyomar/PFA-sub000/internal/export"
	"github.com/elarabyomar/PFA-sub000/internal/form"
	"github.com/elarabyomar/PFA-sub000/internal/history"
	"github.com/elarabyomar/PFA-sub000/internal/logging"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
	"github.com/elarabyomar/PFA-sub000/internal/ui/dialog"
	"github.com/elarabyomar/PFA-sub000/internal/ui/grid"
	"github.com/elarabyomar/PFA-sub000/internal/ui/rowform"
	"github.com/elarabyomar/PFA-sub000/internal/ui/sidebar"
	"github.com/elarabyomar/PFA-sub000/internal/ui/statusbar"
)

const (
	defaultSidebarWidth = 30
	minSidebarWidth     = 15
	maxSidebarWidth     = 60
	statusBarHeight     = 1
	minFormWidth        = 36
	recentLimit         = 8
	tablesTimeout       = 30 * time.Second
)

// confirmDeleteMsg is emitted by the delete confirmation dialog.
type confirmDeleteMsg struct {
	ID  string
	Row schema.Row
}

// Model is the root bubbletea model.
type Model struct {
	// Layout
	width        int
	height       int
	sidebarWidth int
	showSidebar  bool
	focusedPane  Pane

	// Components
	sidebar   sidebar.Model
	grid      grid.Model
	form      rowform.Model
	statusbar statusbar.Model
	confirm   dialog.Model
	help      help.Model
	keyMap    KeyMap

	// State
	session     *explorer.Session
	history     *history.History
	backendName string
	cfg         *config.Config
	exportDir   string
	inflight    int
	showHelp    bool
	quitting    bool
}

// New creates the root model over session. hist may be nil, in which case
// recently opened tables are not tracked.
func New(cfg *config.Config, session *explorer.Session, hist *history.History, backendName string) Model {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	theme.Current = theme.Get(cfg.Theme)

	g := grid.New()
	g.SetMaxColumnWidth(cfg.Results.MaxColumnWidth)

	sb := statusbar.New()
	sb.SetBackend(backendName)

	side := sidebar.New()
	side.SetLoading(true)
	side.Focus()

	return Model{
		sidebarWidth: defaultSidebarWidth,
		showSidebar:  true,
		focusedPane:  PaneSidebar,
		sidebar:      side,
		grid:         g,
		form:         rowform.New(),
		statusbar:    sb,
		help:         help.New(),
		keyMap:       DefaultKeyMap(),
		session:      session,
		history:      hist,
		backendName:  backendName,
		cfg:          cfg,
	}
}

// Init loads the table catalog.
func (m Model) Init() tea.Cmd {
	return m.loadTables()
}

// Update handles all messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case FocusMsg:
		m.setFocus(msg.Pane)
		return m, nil

	// -- Catalog --

	case TablesLoadedMsg:
		m.finish()
		var cmd tea.Cmd
		m.sidebar, cmd = m.sidebar.Update(msg)
		if name, _ := m.session.Table(); name != "" {
			m.sidebar.SetActive(name)
		}
		return m, tea.Batch(cmd, status(fmt.Sprintf("%d tables", len(msg.Tables)), false))

	case TablesErrMsg:
		m.finish()
		m.sidebar.SetLoading(false)
		logging.Error("table catalog failed", "error", msg.Err)
		return m, status("Could not load tables: "+apperr.Message(msg.Err), true)

	case RefreshTablesMsg:
		m.sidebar.SetLoading(true)
		return m, m.start(m.loadTables())

	case SelectTableMsg:
		return m, m.selectTable(msg.Table)

	// -- Table load --

	case StructureLoadedMsg:
		m.finish()
		if !m.session.ApplyStructure(msg.Gen, msg.Structure) {
			return m, nil
		}
		st, _ := m.session.Structure()
		m.grid.SetStructure(st, m.session.Labels())
		m.grid.SetLabelFunc(m.session.LabelFor)
		sel, ok := m.session.Current()
		if !ok {
			return m, nil
		}
		return m, m.start(fetchPage(m.session, sel, 0))

	case StructureErrMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		m.grid.SetError(msg.Err)
		return m, status("Could not load structure: "+apperr.Message(msg.Err), true)

	case MetadataLoadedMsg:
		m.finish()
		if m.session.ApplyMetadata(msg.Gen, msg.Labels, msg.Descriptions) {
			if _, ok := m.session.Structure(); ok {
				m.grid.SetLabels(m.session.Labels())
			}
		}
		return m, nil

	case ResolutionsLoadedMsg:
		m.finish()
		if !m.session.ApplyResolutions(msg.Gen, msg.Resolutions) {
			return m, nil
		}
		m.grid.SetLabelFunc(m.session.LabelFor)
		if msg.Err != nil {
			logging.Warn("foreign key sampling incomplete", "error", msg.Err)
			return m, status("Some references could not be resolved: "+apperr.Message(msg.Err), true)
		}
		return m, nil

	case PageLoadedMsg:
		m.finish()
		if !m.session.ApplyPage(msg.Gen, msg.Page) {
			return m, nil
		}
		m.grid.SetPage(msg.Page)
		m.syncPage()
		return m, nil

	case PageErrMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		m.grid.SetError(msg.Err)
		return m, status("Could not load rows: "+apperr.Message(msg.Err), true)

	case GoToPageMsg:
		return m, m.loadPage(msg.Offset)

	case RefreshPageMsg:
		return m, m.loadPage(m.session.Offset())

	// -- Forms --

	case CreateRowMsg:
		f, err := m.session.BeginCreate()
		if err != nil {
			return m, status(apperr.Message(err), true)
		}
		m.openForm(f)
		return m, nil

	case EditRowMsg:
		f, err := m.session.BeginEdit(msg.Row)
		if err != nil {
			return m, status(apperr.Message(err), true)
		}
		m.openForm(f)
		return m, nil

	case SubmitFormMsg:
		return m, m.submit(msg.Values)

	case PreviewFormMsg:
		res, err := m.session.Preview(msg.Values)
		if err != nil {
			return m, status(apperr.Message(err), true)
		}
		m.form.SetPreview(res.Payload, res.Issues)
		return m, nil

	case CancelFormMsg:
		if m.session.State() == explorer.StateSaving {
			return m, nil
		}
		m.session.Cancel()
		m.closeForm()
		return m, nil

	case SavedMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		m.closeForm()
		m.grid.SetPage(m.session.Page())
		m.syncPage()
		table, _ := m.session.Table()
		text := "Row created in " + table
		if msg.Mode == form.ModeEdit {
			text = "Row updated in " + table
		}
		return m, status(text, false)

	case SaveErrMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		m.form.SetError(msg.Err)
		m.syncState()
		return m, status("Save failed: "+apperr.Message(msg.Err), true)

	// -- Delete --

	case DeleteRowMsg:
		id, err := m.session.RowID(msg.Row)
		if err != nil {
			return m, status(apperr.Message(err), true)
		}
		table, _ := m.session.Table()
		body := fmt.Sprintf("Delete row #%s from %s?\nThis cannot be undone.", id, table)
		m.confirm = dialog.Confirm("Delete row", body, "Delete", confirmDeleteMsg{ID: id, Row: msg.Row})
		m.confirm.SetSize(m.width, m.height)
		m.confirm.Show()
		return m, nil

	case confirmDeleteMsg:
		return m, m.deleteRow(msg)

	case DeletedMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		m.grid.SetPage(m.session.Page())
		m.syncPage()
		return m, status("Deleted row #"+msg.ID, false)

	case DeleteErrMsg:
		m.finish()
		if !m.session.IsCurrent(msg.Gen) {
			return m, nil
		}
		return m, status("Delete failed: "+apperr.Message(msg.Err), true)

	// -- Export --

	case ExportRequestMsg:
		return m, m.exportTable(msg.Path)

	case ExportCompleteMsg:
		m.finish()
		return m, status(fmt.Sprintf("Exported %d rows to %s", msg.RowCount, msg.Path), false)

	case ExportErrMsg:
		m.finish()
		return m, status("Export failed: "+apperr.Message(msg.Err), true)
	}

	// Everything else (status text, spinner ticks, cursor blinks) goes to the
	// components that may own it.
	var cmds []tea.Cmd
	var cmd tea.Cmd
	m.statusbar, cmd = m.statusbar.Update(msg)
	cmds = append(cmds, cmd)
	m.sidebar, cmd = m.sidebar.Update(msg)
	cmds = append(cmds, cmd)
	if m.form.Visible() {
		m.form, cmd = m.form.Update(msg)
		cmds = append(cmds, cmd)
	}
	return m, tea.Batch(cmds...)
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Modal dialog captures everything
	if m.confirm.Visible() {
		var cmd tea.Cmd
		m.confirm, cmd = m.confirm.Update(msg)
		return m, cmd
	}

	if m.showHelp {
		switch msg.String() {
		case "f1", "?", "esc", "q":
			m.showHelp = false
		}
		return m, nil
	}

	if cmd, handled := m.handleGlobalKeys(msg); handled {
		return m, cmd
	}
	return m, m.handleFocusedPaneKey(msg)
}

// handleGlobalKeys processes application-wide keybindings. Keys that are
// also text input are left to the focused pane while it is typing.
func (m *Model) handleGlobalKeys(msg tea.KeyMsg) (tea.Cmd, bool) {
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.quitting = true
		m.session.Close()
		return tea.Quit, true

	case msg.String() == "f1", key.Matches(msg, m.keyMap.Help) && !m.typing():
		m.showHelp = true
		return nil, true

	case key.Matches(msg, m.keyMap.ToggleSidebar):
		m.showSidebar = !m.showSidebar
		if !m.showSidebar && m.focusedPane == PaneSidebar {
			m.setFocus(PaneGrid)
		}
		m.updateLayout()
		return nil, true

	case key.Matches(msg, m.keyMap.RefreshTables):
		m.sidebar.SetLoading(true)
		return m.start(m.loadTables()), true

	case key.Matches(msg, m.keyMap.Export):
		return m.exportTable(""), true

	case key.Matches(msg, m.keyMap.FocusSidebar):
		m.setFocus(PaneSidebar)
		return nil, true

	case key.Matches(msg, m.keyMap.FocusGrid):
		m.setFocus(PaneGrid)
		return nil, true

	case key.Matches(msg, m.keyMap.FocusForm):
		m.setFocus(PaneForm)
		return nil, true

	case key.Matches(msg, m.keyMap.ResizeLeft):
		if m.showSidebar && m.sidebarWidth > minSidebarWidth {
			m.sidebarWidth -= 2
			m.updateLayout()
		}
		return nil, true

	case key.Matches(msg, m.keyMap.ResizeRight):
		if m.showSidebar && m.sidebarWidth < maxSidebarWidth {
			m.sidebarWidth += 2
			m.updateLayout()
		}
		return nil, true
	}

	// The form uses tab to move between fields.
	if m.focusedPane != PaneForm && !m.sidebar.Filtering() {
		switch {
		case key.Matches(msg, m.keyMap.FocusNext):
			m.cycleFocus(1)
			return nil, true
		case key.Matches(msg, m.keyMap.FocusPrev):
			m.cycleFocus(-1)
			return nil, true
		}
	}
	return nil, false
}

func (m *Model) handleFocusedPaneKey(msg tea.KeyMsg) tea.Cmd {
	var cmd tea.Cmd
	switch m.focusedPane {
	case PaneSidebar:
		m.sidebar, cmd = m.sidebar.Update(msg)
	case PaneGrid:
		m.grid, cmd = m.grid.Update(msg)
	case PaneForm:
		m.form, cmd = m.form.Update(msg)
	}
	return cmd
}

// typing reports whether the focused pane is taking text input.
func (m Model) typing() bool {
	return m.focusedPane == PaneForm || m.sidebar.Filtering()
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

// View renders the entire application.
func (m Model) View() string {
	if m.quitting {
		return "Goodbye!\n"
	}
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	th := theme.Current

	main := m.grid.View()
	if m.form.Visible() {
		main = lipgloss.JoinHorizontal(lipgloss.Top, main, m.form.View())
	}

	content := main
	if m.showSidebar {
		content = lipgloss.JoinHorizontal(lipgloss.Top, m.sidebar.View(), main)
	}

	view := lipgloss.JoinVertical(lipgloss.Left, content, m.statusbar.View())

	if m.showHelp {
		view = lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, m.renderHelpScreen(th))
	}
	if m.confirm.Visible() {
		view = m.confirm.Overlay(view, m.width, m.height)
	}
	return view
}

func (m Model) renderHelpScreen(th *theme.Theme) string {
	var b strings.Builder
	b.WriteString(th.DialogTitle.Render("schemadesk - Keyboard Shortcuts"))
	b.WriteString("\n\n")
	b.WriteString(m.help.FullHelpView(m.keyMap.FullHelp()))
	b.WriteString("\n\n")
	b.WriteString(th.MutedText.Render("Sidebar: / filter, enter open table. Form: tab next field, space toggle, / filter options."))
	b.WriteString("\n")
	b.WriteString(th.MutedText.Render("Press ? / F1 / Esc to close"))
	return th.DialogBorder.Render(b.String())
}

// ---------------------------------------------------------------------------
// Layout and focus
// ---------------------------------------------------------------------------

func (m *Model) updateLayout() {
	m.statusbar.SetSize(m.width)
	m.confirm.SetSize(m.width, m.height)
	m.help.Width = m.width - 8

	mainHeight := m.height - statusBarHeight
	if mainHeight < 3 {
		mainHeight = 3
	}
	mainWidth := m.width
	if m.showSidebar {
		m.sidebar.SetSize(m.sidebarWidth, mainHeight)
		mainWidth -= m.sidebarWidth
	}

	gridWidth := mainWidth
	if m.form.Visible() {
		fw := formWidth(mainWidth)
		m.form.SetSize(fw, mainHeight)
		gridWidth -= fw
	}
	m.grid.SetSize(gridWidth, mainHeight)
}

// formWidth splits the main area between the grid and an open form.
func formWidth(mainWidth int) int {
	w := mainWidth * 45 / 100
	if w < minFormWidth {
		w = minFormWidth
	}
	if w > mainWidth {
		w = mainWidth
	}
	return w
}

// panes returns the focusable panes in cycle order.
func (m Model) panes() []Pane {
	var ps []Pane
	if m.showSidebar {
		ps = append(ps, PaneSidebar)
	}
	ps = append(ps, PaneGrid)
	if m.form.Visible() {
		ps = append(ps, PaneForm)
	}
	return ps
}

func (m *Model) cycleFocus(direction int) {
	ps := m.panes()
	idx := 0
	for i, p := range ps {
		if p == m.focusedPane {
			idx = i
			break
		}
	}
	idx = (idx + direction + len(ps)) % len(ps)
	m.setFocus(ps[idx])
}

func (m *Model) setFocus(pane Pane) {
	if pane == PaneSidebar && !m.showSidebar {
		return
	}
	if pane == PaneForm && !m.form.Visible() {
		return
	}
	m.sidebar.Blur()
	m.grid.Blur()
	m.form.Blur()

	m.focusedPane = pane
	switch pane {
	case PaneSidebar:
		m.sidebar.Focus()
	case PaneGrid:
		m.grid.Focus()
	case PaneForm:
		m.form.Focus()
	}
	m.statusbar.SetPane(pane)
}

// ---------------------------------------------------------------------------
// Session plumbing
// ---------------------------------------------------------------------------

// start counts cmds as in flight and keeps the spinner running until each
// has reported back through finish.
func (m *Model) start(cmds ...tea.Cmd) tea.Cmd {
	m.inflight += len(cmds)
	return tea.Batch(append(cmds, m.statusbar.SetLoading(true))...)
}

func (m *Model) finish() {
	if m.inflight > 0 {
		m.inflight--
	}
	if m.inflight == 0 {
		m.statusbar.SetLoading(false)
	}
}

func (m *Model) syncPage() {
	p := m.session.Page()
	m.statusbar.SetPage(m.session.Offset(), len(p.Rows), p.TotalCount, m.session.PageSize())
}

func (m *Model) syncState() {
	m.statusbar.SetState(m.session.State().String())
}

func (m *Model) selectTable(table string) tea.Cmd {
	if m.form.Visible() {
		m.form.Close()
	}
	sel := m.session.Select(table)
	m.touchHistory(table)

	m.sidebar.SetActive(table)
	m.grid.SetTable(table)
	m.grid.SetLoading(true)
	m.statusbar.SetTable(table)
	m.statusbar.SetPage(0, 0, 0, m.session.PageSize())
	m.syncState()
	m.updateLayout()
	m.setFocus(PaneGrid)

	logging.Debug("table selected", "table", table, "gen", sel.Gen)
	return m.start(
		fetchStructure(m.session, sel),
		fetchMetadata(m.session, sel),
		fetchResolutions(m.session, sel),
	)
}

func (m *Model) touchHistory(table string) {
	if m.history == nil {
		return
	}
	if err := m.history.Touch(m.backendName, table, time.Now()); err != nil {
		logging.Warn("history update failed", "table", table, "error", err)
		return
	}
	m.sidebar.SetRecent(recentTables(m.history, m.backendName))
}

func (m *Model) loadPage(offset int) tea.Cmd {
	sel, ok := m.session.Current()
	if !ok {
		return nil
	}
	if _, ok := m.session.Structure(); !ok {
		return nil
	}
	m.grid.SetLoading(true)
	return m.start(fetchPage(m.session, sel, offset))
}

func (m *Model) openForm(f *explorer.Form) {
	table, _ := m.session.Table()
	m.form.Open(table, f.Mode, f.RowID, f.Fields, f.State)
	m.syncState()
	m.updateLayout()
	m.setFocus(PaneForm)
}

func (m *Model) closeForm() {
	m.form.Close()
	m.syncState()
	m.updateLayout()
	m.setFocus(PaneGrid)
}

func (m *Model) submit(values form.State) tea.Cmd {
	f, ok := m.session.Form()
	if !ok {
		return nil
	}
	sel, ok := m.session.Current()
	if !ok {
		return nil
	}
	sess, mode := m.session, f.Mode
	m.form.SetSaving(true)
	m.statusbar.SetState(explorer.StateSaving.String())
	return m.start(func() tea.Msg {
		res, err := sess.Submit(sel.Ctx, values)
		if err != nil {
			return SaveErrMsg{Gen: sel.Gen, Err: err}
		}
		return SavedMsg{Gen: sel.Gen, Mode: mode, Row: res.Row}
	})
}

func (m *Model) deleteRow(msg confirmDeleteMsg) tea.Cmd {
	sel, ok := m.session.Current()
	if !ok {
		return nil
	}
	sess := m.session
	return m.start(func() tea.Msg {
		if err := sess.DeleteRow(sel.Ctx, msg.Row); err != nil {
			return DeleteErrMsg{Gen: sel.Gen, Err: err}
		}
		return DeletedMsg{Gen: sel.Gen, ID: msg.ID}
	})
}

// exportTable streams every row of the selected table to path. An empty
// path writes a timestamped CSV in the export directory.
func (m *Model) exportTable(path string) tea.Cmd {
	table, _ := m.session.Table()
	st, ok := m.session.Structure()
	if table == "" || !ok {
		return status("Open a table to export it", true)
	}
	if path == "" {
		path = filepath.Join(m.exportDir, fmt.Sprintf("%s_%s.csv", table, time.Now().Format("20060102_150405")))
	}
	req := export.Request{
		Table:    table,
		Columns:  st.ColumnNames(),
		PageSize: m.session.PageSize(),
		Format:   export.FormatFromPath(path),
	}
	src := m.session.Rows()
	return m.start(func() tea.Msg {
		n, err := export.File(context.Background(), path, src, req)
		if err != nil {
			return ExportErrMsg{Err: err}
		}
		return ExportCompleteMsg{Path: path, RowCount: n}
	})
}

func (m Model) loadTables() tea.Cmd {
	sess, hist, backendName := m.session, m.history, m.backendName
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), tablesTimeout)
		defer cancel()
		tables, err := sess.ListTables(ctx)
		if err != nil {
			return TablesErrMsg{Err: err}
		}
		return TablesLoadedMsg{Tables: tables, Recent: recentTables(hist, backendName)}
	}
}

func fetchStructure(sess *explorer.Session, sel explorer.Selection) tea.Cmd {
	return func() tea.Msg {
		st, err := sess.FetchStructure(sel)
		if err != nil {
			return StructureErrMsg{Gen: sel.Gen, Err: err}
		}
		return StructureLoadedMsg{Gen: sel.Gen, Structure: st}
	}
}

func fetchMetadata(sess *explorer.Session, sel explorer.Selection) tea.Cmd {
	return func() tea.Msg {
		labels, descriptions := sess.FetchMetadata(sel)
		return MetadataLoadedMsg{Gen: sel.Gen, Labels: labels, Descriptions: descriptions}
	}
}

func fetchResolutions(sess *explorer.Session, sel explorer.Selection) tea.Cmd {
	return func() tea.Msg {
		res, err := sess.FetchResolutions(sel)
		return ResolutionsLoadedMsg{Gen: sel.Gen, Resolutions: res, Err: err}
	}
}

func fetchPage(sess *explorer.Session, sel explorer.Selection, offset int) tea.Cmd {
	return func() tea.Msg {
		p, err := sess.FetchPage(sel, offset)
		if err != nil {
			return PageErrMsg{Gen: sel.Gen, Err: err}
		}
		return PageLoadedMsg{Gen: sel.Gen, Page: p}
	}
}

func recentTables(hist *history.History, backendName string) []string {
	if hist == nil {
		return nil
	}
	entries, err := hist.Recent(backendName, recentLimit)
	if err != nil {
		logging.Warn("history lookup failed", "error", err)
		return nil
	}
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Table
	}
	return names
}

func status(text string, isError bool) tea.Cmd {
	return func() tea.Msg {
		return StatusMsg{Text: text, IsError: isError}
	}
}

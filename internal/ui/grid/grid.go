// Package grid renders one page of table rows. Column headers show display
// labels, foreign-key cells show the label of the referenced row once the
// table's resolutions are in, and NULL cells are styled apart from empty
// strings. Paging and row actions are emitted as messages for the root
// model.
package grid

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

// DefaultMaxColumnWidth caps a column when no width is configured.
const DefaultMaxColumnWidth = 40

const (
	minColumnWidth = 4
	nullText       = "NULL"
	// sampleRows bounds how many rows are measured when sizing columns.
	sampleRows = 100
)

// LabelFunc labels a foreign-key value of column.
type LabelFunc func(column string, value any) string

type column struct {
	name  string
	title string
	width int
	pk    bool
	fk    bool
}

// Model is the row grid component.
type Model struct {
	table     string
	structure schema.Structure
	labels    map[string]string
	labelFor  LabelFunc
	cols      []column
	page      schema.Page
	cursor    int
	viewTop   int
	colOffset int
	maxColW   int
	width     int
	height    int
	focused   bool
	loading   bool
	err       error
}

// New creates an empty grid.
func New() Model {
	return Model{maxColW: DefaultMaxColumnWidth}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles grid key presses.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok || !m.focused {
		return m, nil
	}

	n := len(m.page.Rows)
	switch key.String() {
	case "j", "down":
		if m.cursor < n-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if n > 0 {
			m.cursor = n - 1
		}
	case "h", "left":
		if m.colOffset > 0 {
			m.colOffset--
		}
	case "l", "right":
		if m.colOffset < len(m.cols)-1 {
			m.colOffset++
		}
	case "pgdown", "]":
		if next, ok := m.nextOffset(); ok {
			return m, goTo(next)
		}
	case "pgup", "[":
		if prev, ok := m.prevOffset(); ok {
			return m, goTo(prev)
		}
	case "r":
		return m, func() tea.Msg { return appmsg.RefreshPageMsg{} }
	case "n":
		if m.table != "" {
			return m, func() tea.Msg { return appmsg.CreateRowMsg{} }
		}
	case "enter", "e":
		if row, ok := m.SelectedRow(); ok {
			return m, func() tea.Msg { return appmsg.EditRowMsg{Row: row} }
		}
	case "d", "delete":
		if row, ok := m.SelectedRow(); ok {
			return m, func() tea.Msg { return appmsg.DeleteRowMsg{Row: row} }
		}
	}
	m.updateViewTop()
	return m, nil
}

func goTo(offset int) tea.Cmd {
	return func() tea.Msg { return appmsg.GoToPageMsg{Offset: offset} }
}

func (m Model) pageSize() int {
	if m.page.Limit > 0 {
		return m.page.Limit
	}
	return len(m.page.Rows)
}

func (m Model) nextOffset() (int, bool) {
	size := m.pageSize()
	if size == 0 {
		return 0, false
	}
	next := m.page.Offset + size
	return next, next < m.page.TotalCount
}

func (m Model) prevOffset() (int, bool) {
	if m.page.Offset == 0 {
		return 0, false
	}
	prev := m.page.Offset - m.pageSize()
	if prev < 0 {
		prev = 0
	}
	return prev, true
}

// View renders the grid inside its border.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	th := theme.Current
	contentHeight := m.height - 2
	if contentHeight < 1 {
		contentHeight = 1
	}

	switch {
	case m.table == "":
		return m.wrapBorder(th.MutedText.Render("  Select a table in the sidebar"), contentHeight)
	case m.err != nil:
		return m.wrapBorder(th.ErrorText.Render("  Error: "+m.err.Error()), contentHeight)
	case m.loading && len(m.cols) == 0:
		return m.wrapBorder(th.MutedText.Render("  Loading "+m.table+"..."), contentHeight)
	case len(m.cols) == 0:
		return m.wrapBorder(th.MutedText.Render("  No columns"), contentHeight)
	}

	var sb strings.Builder
	sb.WriteString(m.renderTable(th))
	sb.WriteByte('\n')
	sb.WriteString(m.footer(th))
	return m.wrapBorder(sb.String(), contentHeight)
}

// ---------------------------------------------------------------------------
// Setters
// ---------------------------------------------------------------------------

// SetTable switches to table and clears everything loaded for the previous
// one.
func (m *Model) SetTable(table string) {
	m.table = table
	m.structure = schema.Structure{}
	m.labels = nil
	m.cols = nil
	m.page = schema.Page{}
	m.cursor, m.viewTop, m.colOffset = 0, 0, 0
	m.err = nil
}

// SetStructure sets the columns and their display labels.
func (m *Model) SetStructure(st schema.Structure, labels map[string]string) {
	m.structure = st
	m.labels = labels
	m.resize()
}

// SetLabels replaces the column display labels.
func (m *Model) SetLabels(labels map[string]string) {
	m.labels = labels
	m.resize()
}

// SetLabelFunc sets how foreign-key cells are labelled. A nil func shows
// raw values.
func (m *Model) SetLabelFunc(f LabelFunc) {
	m.labelFor = f
	m.resize()
}

// SetPage displays p. The cursor is kept on the same index when possible.
func (m *Model) SetPage(p schema.Page) {
	m.page = p
	m.loading = false
	m.err = nil
	if m.cursor >= len(p.Rows) {
		m.cursor = len(p.Rows) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
	m.resize()
	m.updateViewTop()
}

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) {
	m.loading = loading
	if loading {
		m.err = nil
	}
}

// SetError shows err instead of the rows.
func (m *Model) SetError(err error) {
	m.err = err
	m.loading = false
}

// SetMaxColumnWidth caps every column at w cells.
func (m *Model) SetMaxColumnWidth(w int) {
	if w < minColumnWidth {
		w = DefaultMaxColumnWidth
	}
	m.maxColW = w
	m.resize()
}

// SetSize updates the component dimensions.
func (m *Model) SetSize(w, h int) {
	m.width = w
	m.height = h
	m.updateViewTop()
}

// Focus gives the grid keyboard focus.
func (m *Model) Focus() { m.focused = true }

// Blur removes keyboard focus.
func (m *Model) Blur() { m.focused = false }

// Focused reports whether the grid has focus.
func (m Model) Focused() bool { return m.focused }

// SelectedRow returns the row under the cursor.
func (m Model) SelectedRow() (schema.Row, bool) {
	if m.cursor < 0 || m.cursor >= len(m.page.Rows) {
		return nil, false
	}
	return m.page.Rows[m.cursor], true
}

// Cursor returns the cursor index within the page.
func (m Model) Cursor() int { return m.cursor }

// Page returns the displayed page.
func (m Model) Page() schema.Page { return m.page }

// ---------------------------------------------------------------------------
// Rendering
// ---------------------------------------------------------------------------

// Cell returns the display text of value in column, and whether it is NULL.
func (m Model) Cell(col string, value any) (string, bool) {
	if value == nil {
		return nullText, true
	}
	var s string
	if c, ok := m.structure.Column(col); ok && c.IsFK && m.labelFor != nil {
		s = m.labelFor(col, value)
	} else {
		s = schema.FormatValue(value)
	}
	return strings.NewReplacer("\r\n", " ", "\n", " ", "\t", " ").Replace(s), false
}

func (m Model) title(name string) string {
	if l := strings.TrimSpace(m.labels[name]); l != "" {
		return l
	}
	return name
}

// resize recomputes column widths from headers and the displayed rows.
func (m *Model) resize() {
	names := m.structure.ColumnNames()
	if len(names) == 0 {
		names = m.page.Columns
	}
	cols := make([]column, len(names))
	for i, name := range names {
		c, _ := m.structure.Column(name)
		cols[i] = column{name: name, title: m.title(name), pk: c.IsPK, fk: c.IsFK}
		w := runewidth.StringWidth(cols[i].title)
		if c.IsPK {
			w += 2
		}
		for j, row := range m.page.Rows {
			if j >= sampleRows {
				break
			}
			text, _ := m.Cell(name, row[name])
			if cw := runewidth.StringWidth(text); cw > w {
				w = cw
			}
		}
		if w < minColumnWidth {
			w = minColumnWidth
		}
		if w > m.maxColW {
			w = m.maxColW
		}
		cols[i].width = w
	}
	m.cols = cols
	if m.colOffset >= len(cols) {
		m.colOffset = 0
	}
}

// visibleColumns returns the columns that fit from colOffset on.
func (m Model) visibleColumns() []column {
	avail := m.contentWidth()
	var out []column
	used := 0
	for _, c := range m.cols[m.colOffset:] {
		cw := c.width + 2
		if used+cw > avail && len(out) > 0 {
			break
		}
		if cw > avail {
			c.width = avail - 2
			if c.width < 1 {
				c.width = 1
			}
			cw = avail
		}
		out = append(out, c)
		used += cw
	}
	return out
}

func (m Model) renderTable(th *theme.Theme) string {
	cols := m.visibleColumns()
	contentW := m.contentWidth()
	visH := m.visibleDataHeight()

	var sb strings.Builder
	sb.WriteString(m.renderHeader(th, cols, contentW))
	sb.WriteByte('\n')
	sb.WriteString(th.MutedText.Render(strings.Repeat("─", contentW)))
	sb.WriteByte('\n')

	if len(m.page.Rows) == 0 {
		text := "  No rows"
		if m.loading {
			text = "  Loading..."
		}
		sb.WriteString(th.MutedText.Render(text))
		for i := 1; i < visH; i++ {
			sb.WriteByte('\n')
		}
		return sb.String()
	}

	for i := 0; i < visH; i++ {
		idx := m.viewTop + i
		if idx < len(m.page.Rows) {
			sb.WriteString(m.renderRow(th, cols, idx, contentW))
		} else {
			sb.WriteString(strings.Repeat(" ", contentW))
		}
		if i < visH-1 {
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func (m Model) renderHeader(th *theme.Theme, cols []column, totalWidth int) string {
	var sb strings.Builder
	used := 0
	for _, c := range cols {
		title := c.title
		if c.pk {
			title = "# " + title
		}
		text := " " + runewidth.FillRight(runewidth.Truncate(title, c.width, "…"), c.width) + " "
		sb.WriteString(th.GridHeader.Render(text))
		used += c.width + 2
	}
	if used < totalWidth {
		sb.WriteString(th.GridHeader.Render(strings.Repeat(" ", totalWidth-used)))
	}
	return sb.String()
}

func (m Model) renderRow(th *theme.Theme, cols []column, idx, totalWidth int) string {
	row := m.page.Rows[idx]
	selected := idx == m.cursor && m.focused

	var sb strings.Builder
	used := 0
	for _, c := range cols {
		text, isNull := m.Cell(c.name, row[c.name])
		text = " " + runewidth.FillRight(runewidth.Truncate(text, c.width, "…"), c.width) + " "

		style := th.GridCell
		switch {
		case selected:
			style = th.GridSelectedRow
		case isNull:
			style = th.GridNull
		case c.pk:
			style = th.GridKey
		case c.fk:
			style = th.GridLabel
		}
		sb.WriteString(style.Render(text))
		used += c.width + 2
	}
	if used < totalWidth {
		pad := strings.Repeat(" ", totalWidth-used)
		if selected {
			pad = th.GridSelectedRow.Render(pad)
		}
		sb.WriteString(pad)
	}
	return sb.String()
}

func (m Model) footer(th *theme.Theme) string {
	parts := []string{fmt.Sprintf("%d of %d rows", len(m.page.Rows), m.page.TotalCount)}
	if size := m.pageSize(); size > 0 && m.page.TotalCount > 0 {
		pages := (m.page.TotalCount + size - 1) / size
		parts = append(parts, fmt.Sprintf("page %d/%d", m.page.Offset/size+1, pages))
	}
	if len(m.cols) > 0 {
		shown := len(m.visibleColumns())
		if shown < len(m.cols) {
			parts = append(parts, fmt.Sprintf("columns %d-%d of %d", m.colOffset+1, m.colOffset+shown, len(m.cols)))
		}
	}
	if m.loading {
		parts = append(parts, "loading...")
	}
	return th.MutedText.Render("  " + strings.Join(parts, " | "))
}

func (m Model) contentWidth() int {
	w := m.width - 2
	if w < 10 {
		w = 10
	}
	return w
}

// visibleDataHeight is the number of row lines between the header and the
// footer.
func (m Model) visibleDataHeight() int {
	h := m.height - 2 - 3 // border, header + rule, footer
	if h < 1 {
		h = 1
	}
	return h
}

func (m *Model) updateViewTop() {
	visH := m.visibleDataHeight()
	if m.cursor < m.viewTop {
		m.viewTop = m.cursor
	}
	if m.cursor >= m.viewTop+visH {
		m.viewTop = m.cursor - visH + 1
	}
	if m.viewTop < 0 {
		m.viewTop = 0
	}
}

func (m Model) wrapBorder(content string, height int) string {
	th := theme.Current
	style := th.UnfocusedBorder
	if m.focused {
		style = th.FocusedBorder
	}
	innerW := m.width - 2
	if innerW < 0 {
		innerW = 0
	}
	return style.Width(innerW).Height(height).Render(lipgloss.NewStyle().MaxWidth(innerW).Render(content))
}

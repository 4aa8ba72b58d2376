// Package sidebar is the table browser: tables grouped by classification,
// a "Recent" group fed from history, and a fuzzy filter.
package sidebar

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/sahilm/fuzzy"

	appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

// useSimpleIcons returns true when running inside Neovim's terminal emulator,
// which has emoji width rendering issues in libvterm.
var useSimpleIcons = os.Getenv("NVIM") != ""

// groupOrder is the display order of classification groups.
var groupOrder = []schema.Classification{
	schema.ClassMaster,
	schema.ClassReference,
	schema.ClassTransactional,
	schema.ClassOther,
}

// NodeKind represents the type of tree node.
type NodeKind int

const (
	NodeGroup NodeKind = iota
	NodeTable
)

// TreeNode represents a node in the table tree.
type TreeNode struct {
	Label    string
	Kind     NodeKind
	Children []*TreeNode
	Expanded bool
	Depth    int

	Table  string
	Class  schema.Classification
	Recent bool
}

// Model is the table browser sidebar.
type Model struct {
	tables  []schema.Table
	recent  []string
	nodes   []*TreeNode
	flat    []*TreeNode // flattened visible nodes
	cursor  int
	offset  int
	width   int
	height  int
	focused bool
	loading bool
	active  string // the open table

	filter    textinput.Model
	filtering bool
}

// New creates a new sidebar.
func New() Model {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.Placeholder = "filter tables"
	ti.CharLimit = 64
	return Model{filter: ti}
}

// Init returns no initial command.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles sidebar messages.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	switch msg := msg.(type) {
	case appmsg.TablesLoadedMsg:
		m.SetTables(msg.Tables, msg.Recent)
		m.loading = false

	case tea.KeyMsg:
		if !m.focused {
			return m, nil
		}
		if m.filtering {
			return m.updateFilter(msg)
		}
		switch msg.String() {
		case "/":
			m.filtering = true
			m.filter.SetValue("")
			cmd := m.filter.Focus()
			return m, cmd
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.ensureVisible()
			}
		case "down", "j":
			if m.cursor < len(m.flat)-1 {
				m.cursor++
				m.ensureVisible()
			}
		case "enter", "right", "l":
			return m, m.toggleOrSelect()
		case "left", "h":
			if m.cursor < len(m.flat) {
				node := m.flat[m.cursor]
				if node.Kind == NodeGroup && node.Expanded {
					node.Expanded = false
					m.flatten()
				}
			}
		case "esc":
			if m.filter.Value() != "" {
				m.clearFilter()
			}
		case "home", "g":
			m.cursor = 0
			m.offset = 0
		case "end", "G":
			m.cursor = len(m.flat) - 1
			m.ensureVisible()
		}
	}

	return m, nil
}

// updateFilter handles keys while the filter input has focus.
func (m Model) updateFilter(msg tea.KeyMsg) (Model, tea.Cmd) {
	switch msg.String() {
	case "esc":
		m.filtering = false
		m.filter.Blur()
		m.clearFilter()
		return m, nil
	case "enter":
		m.filtering = false
		m.filter.Blur()
		if len(m.flat) == 1 {
			m.cursor = 0
			return m, m.toggleOrSelect()
		}
		return m, nil
	case "up", "down":
		m.filtering = false
		m.filter.Blur()
		return m.Update(msg)
	}
	var cmd tea.Cmd
	m.filter, cmd = m.filter.Update(msg)
	m.rebuild()
	return m, cmd
}

// View renders the sidebar.
func (m Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}

	th := theme.Current

	// Account for border (left + right = 2, top + bottom = 2).
	innerW := m.width - 2
	innerH := m.height - 2
	if innerW < 1 {
		innerW = 1
	}
	if innerH < 1 {
		innerH = 1
	}

	title := fmt.Sprintf(" Tables (%d) ", len(m.tables))
	titleStyle := th.SidebarTitle
	if m.focused {
		titleStyle = th.SidebarSelected.PaddingLeft(1)
	}
	header := titleStyle.Width(innerW).Render(title)
	if m.filtering || m.filter.Value() != "" {
		m.filter.Width = innerW - 2
		header += "\n" + th.SidebarFilter.Render(m.filter.View())
	}

	if m.loading {
		content := header + "\n\n  Loading tables..."
		return m.borderStyle().Width(innerW).Height(innerH).Render(content)
	}

	if len(m.flat) == 0 {
		text := "  No tables.\n  Check the backend URL."
		if m.filter.Value() != "" {
			text = "  No match."
		}
		content := header + "\n\n" + th.MutedText.Render(text)
		return m.borderStyle().Width(innerW).Height(innerH).Render(content)
	}

	contentHeight := innerH - lipgloss.Height(header)
	if contentHeight < 1 {
		contentHeight = 1
	}

	var lines []string
	end := m.offset + contentHeight
	if end > len(m.flat) {
		end = len(m.flat)
	}
	for i := m.offset; i < end; i++ {
		lines = append(lines, m.renderNode(m.flat[i], i == m.cursor, innerW, th))
	}

	content := header + "\n" + strings.Join(lines, "\n")
	return m.borderStyle().Width(innerW).Height(innerH).Render(content)
}

func (m Model) renderNode(node *TreeNode, selected bool, width int, th *theme.Theme) string {
	indent := strings.Repeat("  ", node.Depth)

	expandIcon := "  "
	if node.Kind == NodeGroup {
		if node.Expanded {
			expandIcon = "▼ "
		} else {
			expandIcon = "▶ "
		}
	}

	marker := "● "
	if useSimpleIcons {
		marker = "* "
	}
	if node.Kind == NodeGroup {
		marker = ""
	}

	label := node.Label
	if node.Kind == NodeTable && node.Table == m.active {
		label += " ←"
	}

	line := indent + expandIcon + marker + label
	line = runewidth.Truncate(line, width, "…")
	line = runewidth.FillRight(line, width)

	if selected {
		return th.SidebarSelected.Render(line)
	}

	switch {
	case node.Kind == NodeGroup && node.Recent:
		return th.SidebarGroup.Render(line)
	case node.Kind == NodeGroup:
		return th.Class(node.Class).Bold(true).Render(line)
	case !strings.HasPrefix(line, indent+expandIcon+marker):
		return th.SidebarTable.Render(line)
	default:
		prefix := indent + expandIcon
		return th.SidebarTable.Render(prefix) +
			th.Class(node.Class).Render(marker) +
			th.SidebarTable.Render(strings.TrimPrefix(line, prefix+marker))
	}
}

func (m Model) borderStyle() lipgloss.Style {
	th := theme.Current
	if m.focused {
		return th.FocusedBorder
	}
	return th.UnfocusedBorder
}

func (m *Model) toggleOrSelect() tea.Cmd {
	if m.cursor >= len(m.flat) {
		return nil
	}
	node := m.flat[m.cursor]

	if node.Kind == NodeGroup {
		node.Expanded = !node.Expanded
		m.flatten()
		return nil
	}

	table := node.Table
	m.active = table
	return func() tea.Msg {
		return appmsg.SelectTableMsg{Table: table}
	}
}

func (m *Model) flatten() {
	m.flat = nil
	for _, node := range m.nodes {
		m.flattenNode(node)
	}
	if m.cursor >= len(m.flat) {
		m.cursor = len(m.flat) - 1
	}
	if m.cursor < 0 {
		m.cursor = 0
	}
}

func (m *Model) flattenNode(node *TreeNode) {
	m.flat = append(m.flat, node)
	if node.Expanded {
		for _, child := range node.Children {
			m.flattenNode(child)
		}
	}
}

func (m *Model) ensureVisible() {
	contentHeight := m.height - 3
	if m.filtering || m.filter.Value() != "" {
		contentHeight--
	}
	if contentHeight < 1 {
		contentHeight = 1
	}
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+contentHeight {
		m.offset = m.cursor - contentHeight + 1
	}
}

func (m *Model) clearFilter() {
	m.filter.SetValue("")
	m.rebuild()
}

// rebuild regenerates the tree from the tables, the recent list and the
// filter, keeping the expansion state of groups.
func (m *Model) rebuild() {
	expanded := map[string]bool{}
	for _, n := range m.nodes {
		expanded[n.Label] = n.Expanded
	}

	if q := strings.TrimSpace(m.filter.Value()); q != "" {
		m.nodes = filterTables(m.tables, q)
	} else {
		m.nodes = buildTree(m.tables, m.recent)
		for _, n := range m.nodes {
			if e, ok := expanded[n.Label]; ok {
				n.Expanded = e
			}
		}
	}
	m.offset = 0
	m.flatten()
}

// SetTables replaces the table list and the recent tables.
func (m *Model) SetTables(tables []schema.Table, recent []string) {
	m.tables = tables
	m.recent = recent
	m.rebuild()
}

// SetRecent replaces the recent tables.
func (m *Model) SetRecent(recent []string) {
	m.recent = recent
	m.rebuild()
}

// SetActive marks the open table.
func (m *Model) SetActive(table string) { m.active = table }

// Tables returns the table list.
func (m Model) Tables() []schema.Table { return m.tables }

// Filtering reports whether the filter input has focus.
func (m Model) Filtering() bool { return m.filtering }

// SetSize sets the sidebar dimensions.
func (m *Model) SetSize(width, height int) {
	m.width = width
	m.height = height
}

// Focus focuses the sidebar.
func (m *Model) Focus() { m.focused = true }

// Blur unfocuses the sidebar.
func (m *Model) Blur() {
	m.focused = false
	m.filtering = false
	m.filter.Blur()
}

// Focused returns whether the sidebar is focused.
func (m Model) Focused() bool { return m.focused }

// SetLoading sets the loading state.
func (m *Model) SetLoading(loading bool) { m.loading = loading }

func groupLabel(c schema.Classification, n int) string {
	name := strings.ToLower(c.String())
	return fmt.Sprintf("%s%s (%d)", strings.ToUpper(name[:1]), name[1:], n)
}

func buildTree(tables []schema.Table, recent []string) []*TreeNode {
	var nodes []*TreeNode

	classOf := make(map[string]schema.Classification, len(tables))
	for _, t := range tables {
		classOf[t.Name] = t.Classification
	}

	if len(recent) > 0 {
		group := &TreeNode{Kind: NodeGroup, Recent: true, Expanded: true}
		for _, name := range recent {
			class, ok := classOf[name]
			if !ok {
				continue
			}
			group.Children = append(group.Children, &TreeNode{
				Label: name, Kind: NodeTable, Table: name, Class: class, Depth: 1, Recent: true,
			})
		}
		if len(group.Children) > 0 {
			group.Label = fmt.Sprintf("Recent (%d)", len(group.Children))
			nodes = append(nodes, group)
		}
	}

	byClass := make(map[schema.Classification][]schema.Table)
	for _, t := range tables {
		byClass[t.Classification] = append(byClass[t.Classification], t)
	}
	for _, class := range groupOrder {
		ts := byClass[class]
		if len(ts) == 0 {
			continue
		}
		sort.Slice(ts, func(i, j int) bool { return ts[i].Name < ts[j].Name })
		group := &TreeNode{
			Label:    groupLabel(class, len(ts)),
			Kind:     NodeGroup,
			Class:    class,
			Expanded: true,
		}
		for _, t := range ts {
			group.Children = append(group.Children, &TreeNode{
				Label: t.Name, Kind: NodeTable, Table: t.Name, Class: class, Depth: 1,
			})
		}
		nodes = append(nodes, group)
	}

	return nodes
}

// tableNames implements fuzzy.Source over table names.
type tableNames []schema.Table

func (t tableNames) String(i int) string { return strings.ToLower(t[i].Name) }
func (t tableNames) Len() int            { return len(t) }

// filterTables returns the tables matching q as a flat list, best match
// first.
func filterTables(tables []schema.Table, q string) []*TreeNode {
	matches := fuzzy.FindFrom(strings.ToLower(q), tableNames(tables))
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	nodes := make([]*TreeNode, 0, len(matches))
	for _, mt := range matches {
		t := tables[mt.Index]
		nodes = append(nodes, &TreeNode{
			Label: t.Name, Kind: NodeTable, Table: t.Name, Class: t.Classification,
		})
	}
	return nodes
}

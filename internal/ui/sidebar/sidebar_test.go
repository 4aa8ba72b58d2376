package sidebar

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	appmsg "github.com/elarabyomar/PFA-sub000/internal/msg"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
	"github.com/elarabyomar/PFA-sub000/internal/theme"
)

func init() {
	theme.Current = theme.Default()
}

func keyMsg(key string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
}

func specialKeyMsg(keyType tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: keyType}
}

func crmTables() []schema.Table {
	return []schema.Table{
		{Name: "contrats", Classification: schema.ClassMaster},
		{Name: "clients", Classification: schema.ClassMaster},
		{Name: "ref_branches", Classification: schema.ClassReference},
		{Name: "sinistres_log", Classification: schema.ClassTransactional},
		{Name: "parametres", Classification: schema.ClassOther},
	}
}

func loaded(recent ...string) Model {
	m := New()
	m.SetSize(40, 30)
	m.Focus()
	m, _ = m.Update(appmsg.TablesLoadedMsg{Tables: crmTables(), Recent: recent})
	return m
}

func labels(nodes []*TreeNode) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.Label
	}
	return out
}

// selectedTable runs cmd and returns the table it selects.
func selectedTable(t *testing.T, cmd tea.Cmd) string {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	sel, ok := cmd().(appmsg.SelectTableMsg)
	if !ok {
		t.Fatalf("expected SelectTableMsg")
	}
	return sel.Table
}

// ---------------------------------------------------------------------------
// Tree
// ---------------------------------------------------------------------------

func TestNew(t *testing.T) {
	m := New()
	if len(m.nodes) != 0 || len(m.flat) != 0 || m.cursor != 0 || m.focused || m.loading {
		t.Fatalf("unexpected initial state: %+v", m)
	}
}

func TestBuildTree_GroupsByClassification(t *testing.T) {
	nodes := buildTree(crmTables(), nil)

	got := labels(nodes)
	want := []string{"Master (2)", "Reference (1)", "Transactional (1)", "Other (1)"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("groups = %v, want %v", got, want)
	}
	// tables are sorted inside a group
	master := labels(nodes[0].Children)
	if master[0] != "clients" || master[1] != "contrats" {
		t.Errorf("master tables = %v", master)
	}
	for _, n := range nodes {
		if !n.Expanded {
			t.Errorf("group %q should start expanded", n.Label)
		}
	}
}

func TestBuildTree_RecentGroup(t *testing.T) {
	nodes := buildTree(crmTables(), []string{"sinistres_log", "disparue", "clients"})

	if nodes[0].Label != "Recent (2)" || !nodes[0].Recent {
		t.Fatalf("first group = %q", nodes[0].Label)
	}
	recent := nodes[0].Children
	if recent[0].Table != "sinistres_log" || recent[1].Table != "clients" {
		t.Errorf("recent = %v", labels(recent))
	}
	if recent[0].Class != schema.ClassTransactional {
		t.Errorf("recent entry keeps its class: %v", recent[0].Class)
	}
}

func TestBuildTree_Empty(t *testing.T) {
	if nodes := buildTree(nil, []string{"clients"}); len(nodes) != 0 {
		t.Errorf("expected no groups, got %v", labels(nodes))
	}
}

// ---------------------------------------------------------------------------
// Navigation
// ---------------------------------------------------------------------------

func TestNavigation(t *testing.T) {
	m := loaded()
	// flat: Master, clients, contrats, Reference, ref_branches, ...
	m, _ = m.Update(keyMsg("j"))
	if m.cursor != 1 {
		t.Fatalf("cursor = %d", m.cursor)
	}
	_, cmd := m.Update(specialKeyMsg(tea.KeyEnter))
	if got := selectedTable(t, cmd); got != "clients" {
		t.Errorf("selected %q", got)
	}

	m, _ = m.Update(keyMsg("k"))
	m, _ = m.Update(keyMsg("k"))
	if m.cursor != 0 {
		t.Errorf("cursor should stop at 0, got %d", m.cursor)
	}

	m, _ = m.Update(keyMsg("G"))
	if m.cursor != len(m.flat)-1 {
		t.Errorf("G: cursor = %d", m.cursor)
	}
	m, _ = m.Update(keyMsg("g"))
	if m.cursor != 0 {
		t.Errorf("g: cursor = %d", m.cursor)
	}
}

func TestCollapseGroup(t *testing.T) {
	m := loaded()
	before := len(m.flat)

	m, cmd := m.Update(specialKeyMsg(tea.KeyEnter))
	if cmd != nil {
		t.Error("toggling a group should not select anything")
	}
	if len(m.flat) != before-2 {
		t.Errorf("flat = %d after collapse, want %d", len(m.flat), before-2)
	}
	m, _ = m.Update(keyMsg("l"))
	if len(m.flat) != before {
		t.Errorf("flat = %d after expand, want %d", len(m.flat), before)
	}
	m, _ = m.Update(keyMsg("h"))
	if len(m.flat) != before-2 {
		t.Errorf("h should collapse: flat = %d", len(m.flat))
	}
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := loaded()
	m.Blur()
	m, _ = m.Update(keyMsg("j"))
	if m.cursor != 0 {
		t.Error("unfocused sidebar moved")
	}
}

// ---------------------------------------------------------------------------
// Filter
// ---------------------------------------------------------------------------

func TestFilter(t *testing.T) {
	m := loaded("clients")
	m, _ = m.Update(keyMsg("/"))
	if !m.Filtering() {
		t.Fatal("/ should start filtering")
	}
	for _, r := range "sin" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	got := labels(m.flat)
	if len(got) == 0 || got[0] != "sinistres_log" {
		t.Fatalf("filtered = %v", got)
	}
	for _, n := range m.flat {
		if n.Kind != NodeTable {
			t.Errorf("filtered list should be flat, got group %q", n.Label)
		}
	}

	// a single match is opened with enter
	m, _ = m.Update(keyMsg("i"))
	if len(m.flat) != 1 {
		t.Fatalf("filtered = %v", labels(m.flat))
	}
	m, cmd := m.Update(specialKeyMsg(tea.KeyEnter))
	if got := selectedTable(t, cmd); got != "sinistres_log" {
		t.Errorf("selected %q", got)
	}
	if m.Filtering() {
		t.Error("enter should leave the filter input")
	}

	// esc clears the filter
	m, _ = m.Update(specialKeyMsg(tea.KeyEsc))
	if m.filter.Value() != "" || m.flat[0].Label != "Recent (1)" {
		t.Errorf("after esc: %v", labels(m.flat))
	}
}

func TestFilterNoMatch(t *testing.T) {
	m := loaded()
	m, _ = m.Update(keyMsg("/"))
	for _, r := range "zzz" {
		m, _ = m.Update(keyMsg(string(r)))
	}
	if len(m.flat) != 0 {
		t.Errorf("expected no match, got %v", labels(m.flat))
	}
	if !strings.Contains(m.View(), "No match") {
		t.Error("view should say no match")
	}
}

// ---------------------------------------------------------------------------
// View
// ---------------------------------------------------------------------------

func TestView(t *testing.T) {
	m := New()
	if m.View() != "" {
		t.Error("zero-size view should be empty")
	}

	m.SetSize(40, 20)
	m.SetLoading(true)
	if !strings.Contains(m.View(), "Loading tables") {
		t.Error("loading view missing")
	}
	m.SetLoading(false)
	if !strings.Contains(m.View(), "No tables") {
		t.Error("empty view missing")
	}

	m = loaded()
	m.SetActive("contrats")
	v := m.View()
	for _, want := range []string{"Tables (5)", "Master (2)", "ref_branches", "contrats ←"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

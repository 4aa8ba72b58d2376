package grid

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

func contratsStructure() schema.Structure {
	return schema.Structure{
		Columns: []schema.Column{
			{Name: "id", Type: "integer"},
			{Name: "numero", Type: "varchar(20)"},
			{Name: "idClient", Type: "integer", Nullable: true},
			{Name: "dateEffet", Type: "date", Nullable: true},
		},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []schema.ForeignKey{{Column: "idClient", RefTable: "clients", RefColumn: "id"}},
	}.DeriveKeys(nil)
}

func contratsPage(offset, total int) schema.Page {
	return schema.Page{
		Columns: []string{"id", "numero", "idClient", "dateEffet"},
		Rows: []schema.Row{
			{"id": int64(1), "numero": "C-001", "idClient": int64(1), "dateEffet": "2024-01-01"},
			{"id": int64(2), "numero": "C-002", "idClient": nil, "dateEffet": nil},
			{"id": int64(3), "numero": "C-003", "idClient": int64(9), "dateEffet": ""},
		},
		TotalCount: total,
		Limit:      3,
		Offset:     offset,
	}
}

func loaded() Model {
	m := New()
	m.SetSize(120, 20)
	m.Focus()
	m.SetTable("contrats")
	m.SetStructure(contratsStructure(), map[string]string{"numero": "N° de contrat", "idClient": "Client"})
	m.SetLabelFunc(func(col string, v any) string {
		if schema.LooseEqual(v, 1) {
			return "Jean Dupont (1)"
		}
		return schema.FormatValue(v)
	})
	m.SetPage(contratsPage(0, 7))
	return m
}

// emitted runs cmd and returns its message.
func emitted(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	if cmd == nil {
		t.Fatal("expected a command")
	}
	return cmd()
}

// ---------------------------------------------------------------------------
// Cells
// ---------------------------------------------------------------------------

func TestCell(t *testing.T) {
	m := loaded()
	tests := []struct {
		name   string
		col    string
		value  any
		want   string
		isNull bool
	}{
		{"null", "dateEffet", nil, "NULL", true},
		{"empty string is not null", "dateEffet", "", "", false},
		{"fk label", "idClient", int64(1), "Jean Dupont (1)", false},
		{"fk without sample", "idClient", int64(9), "9", false},
		{"plain", "numero", "C-001", "C-001", false},
		{"newlines flattened", "numero", "a\nb", "a b", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, isNull := m.Cell(tt.col, tt.value)
			if got != tt.want || isNull != tt.isNull {
				t.Errorf("Cell() = %q, %v; want %q, %v", got, isNull, tt.want, tt.isNull)
			}
		})
	}
}

func TestCell_NoLabelFunc(t *testing.T) {
	m := loaded()
	m.SetLabelFunc(nil)
	if got, _ := m.Cell("idClient", int64(1)); got != "1" {
		t.Errorf("Cell() = %q, want raw value", got)
	}
}

// ---------------------------------------------------------------------------
// Keys
// ---------------------------------------------------------------------------

func TestNavigation(t *testing.T) {
	m := loaded()
	m, _ = m.Update(keyMsg("j"))
	m, _ = m.Update(keyMsg("j"))
	m, _ = m.Update(keyMsg("j"))
	if m.Cursor() != 2 {
		t.Fatalf("cursor = %d, want 2", m.Cursor())
	}
	m, _ = m.Update(keyMsg("g"))
	if m.Cursor() != 0 {
		t.Errorf("g: cursor = %d", m.Cursor())
	}
	m, _ = m.Update(keyMsg("G"))
	if row, _ := m.SelectedRow(); row["numero"] != "C-003" {
		t.Errorf("G: selected %v", row)
	}
}

func TestPaging(t *testing.T) {
	tests := []struct {
		name   string
		offset int
		total  int
		key    tea.KeyMsg
		want   int
		emits  bool
	}{
		{"next", 0, 7, specialKeyMsg(tea.KeyPgDown), 3, true},
		{"next alias", 3, 7, keyMsg("]"), 6, true},
		{"no next on last page", 6, 7, specialKeyMsg(tea.KeyPgDown), 0, false},
		{"prev", 6, 7, specialKeyMsg(tea.KeyPgUp), 3, true},
		{"no prev on first page", 0, 7, keyMsg("["), 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := loaded()
			m.SetPage(contratsPage(tt.offset, tt.total))
			_, cmd := m.Update(tt.key)
			if !tt.emits {
				if cmd != nil {
					t.Fatalf("unexpected command: %v", cmd())
				}
				return
			}
			got, ok := emitted(t, cmd).(appmsg.GoToPageMsg)
			if !ok || got.Offset != tt.want {
				t.Errorf("emitted %v, want offset %d", got, tt.want)
			}
		})
	}
}

func TestRowActions(t *testing.T) {
	m := loaded()
	m, _ = m.Update(keyMsg("j"))

	_, cmd := m.Update(keyMsg("n"))
	if _, ok := emitted(t, cmd).(appmsg.CreateRowMsg); !ok {
		t.Error("n should open a create form")
	}

	_, cmd = m.Update(specialKeyMsg(tea.KeyEnter))
	edit, ok := emitted(t, cmd).(appmsg.EditRowMsg)
	if !ok || edit.Row["numero"] != "C-002" {
		t.Errorf("enter emitted %v", edit)
	}

	_, cmd = m.Update(keyMsg("d"))
	del, ok := emitted(t, cmd).(appmsg.DeleteRowMsg)
	if !ok || del.Row["id"] != int64(2) {
		t.Errorf("d emitted %v", del)
	}

	_, cmd = m.Update(keyMsg("r"))
	if _, ok := emitted(t, cmd).(appmsg.RefreshPageMsg); !ok {
		t.Error("r should refresh")
	}
}

func TestRowActions_EmptyPage(t *testing.T) {
	m := loaded()
	m.SetPage(schema.Page{Columns: []string{"id"}, Limit: 3})
	for _, k := range []tea.KeyMsg{specialKeyMsg(tea.KeyEnter), keyMsg("d")} {
		if _, cmd := m.Update(k); cmd != nil {
			t.Errorf("%s on an empty page should do nothing", k)
		}
	}
}

func TestUnfocusedIgnoresKeys(t *testing.T) {
	m := loaded()
	m.Blur()
	if _, cmd := m.Update(keyMsg("n")); cmd != nil {
		t.Error("unfocused grid emitted a command")
	}
}

func TestSetPage_ClampsCursor(t *testing.T) {
	m := loaded()
	m, _ = m.Update(keyMsg("G"))
	m.SetPage(schema.Page{Columns: []string{"id"}, Rows: []schema.Row{{"id": 1}}, TotalCount: 1, Limit: 3})
	if m.Cursor() != 0 {
		t.Errorf("cursor = %d", m.Cursor())
	}
}

// ---------------------------------------------------------------------------
// Layout
// ---------------------------------------------------------------------------

func TestColumnScroll(t *testing.T) {
	m := loaded()
	m.SetSize(30, 20)
	if len(m.visibleColumns()) >= len(m.cols) {
		t.Fatal("narrow grid should not show every column")
	}
	m, _ = m.Update(keyMsg("l"))
	if m.visibleColumns()[0].name != "numero" {
		t.Errorf("first visible = %q", m.visibleColumns()[0].name)
	}
	m, _ = m.Update(keyMsg("h"))
	m, _ = m.Update(keyMsg("h"))
	if m.colOffset != 0 {
		t.Errorf("colOffset = %d", m.colOffset)
	}
}

func TestMaxColumnWidth(t *testing.T) {
	m := loaded()
	m.SetMaxColumnWidth(6)
	for _, c := range m.cols {
		if c.width > 6 {
			t.Errorf("column %s width %d", c.name, c.width)
		}
	}
}

func TestView(t *testing.T) {
	m := New()
	if m.View() != "" {
		t.Error("zero-size view should be empty")
	}
	m.SetSize(120, 20)
	if !strings.Contains(m.View(), "Select a table") {
		t.Error("placeholder missing")
	}

	m = loaded()
	v := m.View()
	for _, want := range []string{"N° de contrat", "Client", "# id", "Jean Dupont (1)", "NULL", "3 of 7 rows", "page 1/3"} {
		if !strings.Contains(v, want) {
			t.Errorf("view missing %q", want)
		}
	}

	m.SetError(errFake("backend unreachable"))
	if !strings.Contains(m.View(), "backend unreachable") {
		t.Error("error view missing")
	}
}

type errFake string

func (e errFake) Error() string { return string(e) }

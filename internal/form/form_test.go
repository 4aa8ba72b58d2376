package form

import (
	"strings"
	"testing"

	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

func intp(n int) *int { return &n }

func contratsStructure() schema.Structure {
	return schema.Structure{
		Columns: []schema.Column{
			{Name: "id", Type: "integer"},
			{Name: "idClient", Type: "integer"},
			{Name: "numero", Type: "character varying", MaxLength: intp(30)},
			{Name: "actif", Type: "boolean", Nullable: true},
			{Name: "dateEffet", Type: "timestamp without time zone"},
			{Name: "prime", Type: "numeric(12,2)", Nullable: true},
			{Name: "idLegacy", Type: "integer", Nullable: true},
			{Name: "notes", Type: "text", Nullable: true},
		},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []schema.ForeignKey{{Column: "idClient", RefTable: "clients", RefColumn: "id"}},
	}
}

func newLabeler() *fk.Labeler {
	cache := fk.NewCache()
	cache.Put("contrats", "idClient", fk.Resolution{
		RefTable:  "clients",
		RefColumn: "id",
		Sample: []schema.Row{
			{"id": int64(1), "prenom": "Jeanne", "nom": "Durand"},
			{"id": int64(2), "prenom": "Paul", "nom": "Martin"},
		},
	})
	// resolution without a declared FK still marks the column as a select
	cache.Put("contrats", "idLegacy", fk.Resolution{RefTable: "anciens", RefColumn: "id"})
	return fk.NewLabeler(cache, fk.DefaultRegistry())
}

func byName(fields []Field) map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name()] = f
	}
	return m
}

// --------------------------------------------------------------------------
// Build
// --------------------------------------------------------------------------

func TestBuildCreateMode(t *testing.T) {
	fields := Build(Input{
		Table:     "contrats",
		Mode:      ModeCreate,
		Structure: contratsStructure(),
		Labels:    map[string]string{"numero": "Numéro de police"},
		Labeler:   newLabeler(),
	})
	m := byName(fields)

	if _, ok := m["id"]; ok {
		t.Error("primary key should be omitted in create mode")
	}
	if len(fields) != 7 {
		t.Errorf("fields = %d, want 7", len(fields))
	}

	tests := []struct {
		col    string
		widget WidgetKind
	}{
		{"idClient", WidgetSelect},
		{"numero", WidgetText},
		{"actif", WidgetBoolean},
		{"dateEffet", WidgetDate},
		{"prime", WidgetNumber},
		{"idLegacy", WidgetSelect},
		{"notes", WidgetText},
	}
	for _, tt := range tests {
		if got := m[tt.col].Widget; got != tt.widget {
			t.Errorf("%s widget = %v, want %v", tt.col, got, tt.widget)
		}
	}

	client := m["idClient"]
	if client.OptionCount != 2 || client.Options[1].Label != "Paul Martin (2)" {
		t.Errorf("idClient options = %+v", client.Options)
	}
	if !strings.Contains(client.Info(), "2 options") || !strings.Contains(client.Info(), "required") {
		t.Errorf("Info = %q", client.Info())
	}
	if m["numero"].Label != "Numéro de police" || m["notes"].Label != "notes" {
		t.Error("labels not applied")
	}
	if m["numero"].Helper != "max 30 characters" {
		t.Errorf("helper = %q", m["numero"].Helper)
	}
	if m["dateEffet"].Helper != "date only" {
		t.Errorf("timestamp helper = %q", m["dateEffet"].Helper)
	}
	if m["prime"].SQLType != "numeric(12,2)" || !m["prime"].Nullable {
		t.Error("field should surface sql type and nullability")
	}
}

func TestBuildEditMode(t *testing.T) {
	row := schema.Row{"id": int64(10), "idClient": int64(42), "numero": "AB-1"}
	fields := Build(Input{Table: "contrats", Mode: ModeEdit, Structure: contratsStructure(), Labeler: newLabeler(), Row: row})
	m := byName(fields)

	id, ok := m["id"]
	if !ok || !id.ReadOnly {
		t.Fatalf("edit mode should show the primary key read-only: %+v", id)
	}
	// 42 is not in the sample: kept as an extra option
	client := m["idClient"]
	if client.OptionCount != 3 || client.OptionIndex(42) != 2 || client.Options[2].Label != "42" {
		t.Errorf("idClient options = %+v", client.Options)
	}
	if cols := Editable(fields); len(cols) != len(fields)-1 {
		t.Errorf("Editable = %d columns", len(cols))
	}
}

func TestBuildPrefilledPrimaryKeyInCreateMode(t *testing.T) {
	fields := Build(Input{Table: "codes", Mode: ModeCreate, Structure: schema.Structure{
		Columns:     []schema.Column{{Name: "code", Type: "varchar"}},
		PrimaryKeys: []string{"code"},
	}, Row: schema.Row{"code": "AUTO"}})
	if len(fields) != 1 || fields[0].ReadOnly {
		t.Errorf("a set primary key should stay editable in create mode: %+v", fields)
	}
}

func TestBuildWithoutLabeler(t *testing.T) {
	fields := Build(Input{Table: "contrats", Mode: ModeCreate, Structure: contratsStructure()})
	m := byName(fields)
	if m["idClient"].Widget != WidgetSelect || m["idClient"].OptionCount != 0 {
		t.Errorf("declared FK should still be a select: %+v", m["idClient"])
	}
	if m["idLegacy"].Widget != WidgetNumber {
		t.Error("without a cache idLegacy is a plain number")
	}
}

// --------------------------------------------------------------------------
// Initial
// --------------------------------------------------------------------------

func TestInitial(t *testing.T) {
	fields := Build(Input{Table: "contrats", Mode: ModeEdit, Structure: contratsStructure(), Labeler: newLabeler()})

	t.Run("blank", func(t *testing.T) {
		st := Initial(fields, nil)
		if st["actif"] != nil || st["idClient"] != nil {
			t.Errorf("booleans and selects should start nil: %v", st)
		}
		if st["numero"] != "" || st["prime"] != "" {
			t.Errorf("inputs should start empty: %v", st)
		}
	})

	t.Run("from row", func(t *testing.T) {
		st := Initial(fields, schema.Row{
			"id":        int64(10),
			"idClient":  int64(2),
			"actif":     int64(1),
			"dateEffet": "2024-05-01T00:00:00Z",
			"prime":     1250.5,
			"notes":     nil,
		})
		if st["actif"] != true {
			t.Errorf("actif = %#v", st["actif"])
		}
		if st["dateEffet"] != "2024-05-01" {
			t.Errorf("dateEffet = %#v", st["dateEffet"])
		}
		if st["prime"] != "1250.5" || st["id"] != "10" {
			t.Errorf("prime = %#v id = %#v", st["prime"], st["id"])
		}
		if st["idClient"] != int64(2) {
			t.Errorf("idClient = %#v", st["idClient"])
		}
		if st["notes"] != "" {
			t.Errorf("null text should render empty, got %#v", st["notes"])
		}
	})
}

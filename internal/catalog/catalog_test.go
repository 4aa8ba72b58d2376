package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

type fakeSource struct {
	tables       []schema.Table
	structure    schema.Structure
	labels       map[string]string
	descriptions map[string]string
	err          error
}

func (f *fakeSource) ListTables(context.Context) ([]schema.Table, error) {
	return f.tables, f.err
}

func (f *fakeSource) Structure(context.Context, string) (schema.Structure, error) {
	return f.structure, f.err
}

func (f *fakeSource) Labels(context.Context, string) (map[string]string, error) {
	return f.labels, f.err
}

func (f *fakeSource) Descriptions(context.Context, string) (map[string]string, error) {
	return f.descriptions, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// --------------------------------------------------------------------------
// Catalog
// --------------------------------------------------------------------------

func TestListTablesOrdering(t *testing.T) {
	src := &fakeSource{tables: []schema.Table{
		{Name: "journal", Classification: schema.ClassOther},
		{Name: "sinistres", Classification: schema.ClassTransactional},
		{Name: "ref_statuts", Classification: schema.ClassReference},
		{Name: "societes", Classification: schema.ClassMaster},
		{Name: "clients", Classification: schema.ClassMaster},
	}}
	tables, err := New(src, quietLogger()).ListTables(context.Background())
	if err != nil {
		t.Fatalf("ListTables: %v", err)
	}
	want := []string{"clients", "societes", "ref_statuts", "sinistres", "journal"}
	for i, w := range want {
		if tables[i].Name != w {
			t.Fatalf("order = %v, want %v", tables, want)
		}
	}
}

func TestListTablesUnavailable(t *testing.T) {
	src := &fakeSource{err: errors.New("dial tcp: refused")}
	tables, err := New(src, quietLogger()).ListTables(context.Background())
	if !errors.Is(err, apperr.ErrCatalogUnavailable) {
		t.Errorf("err = %v, want ErrCatalogUnavailable", err)
	}
	if len(tables) != 0 {
		t.Error("tables should be empty on failure")
	}
}

func TestStructureDerivesFlags(t *testing.T) {
	src := &fakeSource{structure: schema.Structure{
		Columns:     []schema.Column{{Name: "id"}, {Name: "idClient"}},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []schema.ForeignKey{{Column: "idClient", RefTable: "clients", RefColumn: "id"}},
	}}
	s, err := New(src, quietLogger()).Structure(context.Background(), "contrats")
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if !s.Columns[0].IsPK || !s.Columns[1].IsFK {
		t.Errorf("flags not derived: %+v", s.Columns)
	}
}

func TestStructureUnavailable(t *testing.T) {
	src := &fakeSource{err: errors.New("500")}
	s, err := New(src, quietLogger()).Structure(context.Background(), "contrats")
	if !errors.Is(err, apperr.ErrStructureUnavailable) {
		t.Errorf("err = %v", err)
	}
	if !s.IsEmpty() {
		t.Error("structure should be empty on failure")
	}
}

// --------------------------------------------------------------------------
// Metadata
// --------------------------------------------------------------------------

func TestLabels(t *testing.T) {
	cols := []string{"nom", "prenom", "optoutEmail"}

	t.Run("partial remote", func(t *testing.T) {
		src := &fakeSource{labels: map[string]string{"nom": "Nom", "prenom": "  "}}
		got := NewMetadata(src, quietLogger()).Labels(context.Background(), "clients", cols)
		want := map[string]string{"nom": "Nom", "prenom": "prenom", "optoutEmail": "optoutEmail"}
		for k, v := range want {
			if got[k] != v {
				t.Errorf("label[%s] = %q, want %q", k, got[k], v)
			}
		}
	})

	t.Run("failure is identity", func(t *testing.T) {
		src := &fakeSource{err: errors.New("timeout")}
		got := NewMetadata(src, quietLogger()).Labels(context.Background(), "clients", cols)
		for _, c := range cols {
			if got[c] != c {
				t.Errorf("label[%s] = %q", c, got[c])
			}
		}
	})
}

func TestDescriptions(t *testing.T) {
	src := &fakeSource{err: errors.New("404")}
	got := NewMetadata(src, quietLogger()).Descriptions(context.Background(), "clients", []string{"nom"})
	if got["nom"] != "Column nom" {
		t.Errorf("description = %q", got["nom"])
	}

	src = &fakeSource{descriptions: map[string]string{"nom": "Nom de famille"}}
	got = NewMetadata(src, quietLogger()).Descriptions(context.Background(), "clients", []string{"nom"})
	if got["nom"] != "Nom de famille" {
		t.Errorf("description = %q", got["nom"])
	}
}

func TestMetadataBeforeColumnsKnown(t *testing.T) {
	src := &fakeSource{labels: map[string]string{"nom": "Nom", "vide": " "}}
	raw := NewMetadata(src, quietLogger()).Labels(context.Background(), "clients", nil)
	if len(raw) != 1 || raw["nom"] != "Nom" {
		t.Errorf("raw labels = %v", raw)
	}

	full := FillLabels([]string{"nom", "prenom"}, raw)
	if full["nom"] != "Nom" || full["prenom"] != "prenom" {
		t.Errorf("filled labels = %v", full)
	}
	desc := FillDescriptions([]string{"nom"}, nil)
	if desc["nom"] != "Column nom" {
		t.Errorf("filled descriptions = %v", desc)
	}
}

package store

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Default DSN for a local PostgreSQL.
// Override with SCHEMADESK_PG_DSN env var.
const defaultPGTestDSN = "postgres://localhost:5432/schemadesk_test?sslmode=disable"

func pgTestDSN() string {
	if dsn := os.Getenv("SCHEMADESK_PG_DSN"); dsn != "" {
		return dsn
	}
	return defaultPGTestDSN
}

func openPGForTest(t *testing.T) *Store {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s, err := Open(ctx, "postgres", pgTestDSN())
	if err != nil {
		t.Skipf("skipping: cannot connect to PostgreSQL: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	for _, stmt := range []string{
		`DROP TABLE IF EXISTS sd_contacts`,
		`DROP TABLE IF EXISTS sd_agences`,
		`CREATE TABLE sd_agences (
			id SERIAL PRIMARY KEY,
			nom VARCHAR(60) NOT NULL,
			actif BOOLEAN DEFAULT true
		)`,
		`COMMENT ON COLUMN sd_agences.nom IS 'Nom commercial'`,
		`CREATE TABLE sd_contacts (
			id SERIAL PRIMARY KEY,
			agence_id INTEGER REFERENCES sd_agences(id)
		)`,
	} {
		if _, err := s.DB().ExecContext(context.Background(), stmt); err != nil {
			t.Fatalf("setup %q: %v", stmt, err)
		}
	}
	t.Cleanup(func() {
		s.DB().Exec(`DROP TABLE IF EXISTS sd_contacts`)
		s.DB().Exec(`DROP TABLE IF EXISTS sd_agences`)
	})
	return s
}

func TestIntegration_PostgresStructure(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()

	st, err := s.Structure(ctx, "sd_agences")
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if pk, ok := st.PrimaryKey(); !ok || pk != "id" {
		t.Errorf("primary key = %q %v", pk, ok)
	}
	nom, _ := st.Column("nom")
	if nom.MaxLength == nil || *nom.MaxLength != 60 || nom.Nullable {
		t.Errorf("nom = %+v", nom)
	}

	contacts, err := s.Structure(ctx, "sd_contacts")
	if err != nil {
		t.Fatalf("Structure: %v", err)
	}
	if fk, ok := contacts.ForeignKey("agence_id"); !ok || fk.RefTable != "sd_agences" {
		t.Errorf("agence_id fk = %+v %v", fk, ok)
	}

	comments, err := s.Comments(ctx, "sd_agences")
	if err != nil {
		t.Fatalf("Comments: %v", err)
	}
	if comments["nom"] != "Nom commercial" {
		t.Errorf("comments = %v", comments)
	}
}

func TestIntegration_PostgresCRUD(t *testing.T) {
	s := openPGForTest(t)
	ctx := context.Background()

	row, err := s.Insert(ctx, "sd_agences", map[string]any{"nom": "Lyon"})
	if err != nil {
		t.Fatalf("Insert: %v", err)
	}
	id := schema.FormatValue(row["id"])
	if id == "" || row["actif"] != true {
		t.Errorf("inserted row = %v", row)
	}

	row, err = s.Update(ctx, "sd_agences", id, map[string]any{"nom": "Lyon Part-Dieu", "actif": false})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if row["nom"] != "Lyon Part-Dieu" || row["actif"] != false {
		t.Errorf("updated row = %v", row)
	}

	p, err := s.Page(ctx, "sd_agences", 10, 0)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.TotalCount != 1 || len(p.Rows) != 1 {
		t.Errorf("page = %+v", p)
	}

	if err := s.Delete(ctx, "sd_agences", id); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := s.Get(ctx, "sd_agences", id); err == nil {
		t.Error("row still readable after delete")
	}
}

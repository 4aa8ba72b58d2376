package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// pagedSource serves rows in pages of the requested size.
type pagedSource struct {
	columns []string
	rows    []schema.Row
	failAt  int // page index that fails, -1 for never
	calls   int
}

func (s *pagedSource) All(ctx context.Context, table string, pageSize int, fn func(schema.Page) error) error {
	if pageSize <= 0 {
		pageSize = 50
	}
	for offset := 0; offset < len(s.rows); offset += pageSize {
		if s.calls == s.failAt {
			return errors.New("backend unreachable")
		}
		s.calls++
		end := offset + pageSize
		if end > len(s.rows) {
			end = len(s.rows)
		}
		p := schema.Page{Columns: s.columns, Rows: s.rows[offset:end], TotalCount: len(s.rows), Limit: pageSize, Offset: offset}
		if err := fn(p); err != nil {
			return err
		}
	}
	return nil
}

func clients(n int) *pagedSource {
	src := &pagedSource{columns: []string{"id", "nom", "actif", "note"}, failAt: -1}
	for i := 1; i <= n; i++ {
		src.rows = append(src.rows, schema.Row{"id": int64(i), "nom": "Client, \"" + string(rune('A'+i-1)) + "\"", "actif": i%2 == 0, "note": nil})
	}
	return src
}

// ---------------------------------------------------------------------------
// Formats
// ---------------------------------------------------------------------------

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"clients.csv", FormatCSV},
		{"clients.JSON", FormatJSON},
		{"clients", FormatCSV},
		{"/tmp/out.json", FormatJSON},
	}
	for _, tt := range tests {
		if got := FormatFromPath(tt.path); got != tt.want {
			t.Errorf("FormatFromPath(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseFormat(t *testing.T) {
	if f, err := ParseFormat("JSON"); err != nil || f != FormatJSON {
		t.Errorf("ParseFormat(JSON) = %v, %v", f, err)
	}
	if f, err := ParseFormat(""); err != nil || f != FormatCSV {
		t.Errorf("ParseFormat(\"\") = %v, %v", f, err)
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("expected error for xlsx")
	}
}

// ---------------------------------------------------------------------------
// CSV
// ---------------------------------------------------------------------------

func TestWriteCSV(t *testing.T) {
	src := clients(5)
	var buf bytes.Buffer
	n, err := Write(context.Background(), &buf, src, Request{Table: "clients", PageSize: 2})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n != 5 {
		t.Errorf("rows = %d, want 5", n)
	}
	if src.calls != 3 {
		t.Errorf("pages fetched = %d, want 3", src.calls)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read CSV: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("records = %d, want header + 5", len(records))
	}
	if strings.Join(records[0], ",") != "id,nom,actif,note" {
		t.Errorf("header = %v", records[0])
	}
	if records[1][1] != `Client, "A"` {
		t.Errorf("quoting lost: %q", records[1][1])
	}
	if records[2][2] != "true" || records[2][3] != "" {
		t.Errorf("row 2 = %v", records[2])
	}
}

func TestWriteCSV_ColumnOrder(t *testing.T) {
	var buf bytes.Buffer
	_, err := Write(context.Background(), &buf, clients(1), Request{Table: "clients", Columns: []string{"nom", "id"}, PageSize: 10})
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	records, _ := csv.NewReader(&buf).ReadAll()
	if strings.Join(records[0], ",") != "nom,id" || records[1][1] != "1" {
		t.Errorf("records = %v", records)
	}
}

func TestWriteCSV_EmptyTable(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(context.Background(), &buf, clients(0), Request{Table: "clients", Columns: []string{"id", "nom"}})
	if err != nil || n != 0 {
		t.Fatalf("Write = %d, %v", n, err)
	}
	if strings.TrimSpace(buf.String()) != "id,nom" {
		t.Errorf("empty export = %q, want header only", buf.String())
	}
}

func TestWriteCSV_SourceError(t *testing.T) {
	src := clients(5)
	src.failAt = 1
	var buf bytes.Buffer
	n, err := Write(context.Background(), &buf, src, Request{Table: "clients", PageSize: 2})
	if err == nil {
		t.Fatal("expected error")
	}
	if n != 2 {
		t.Errorf("rows before failure = %d, want 2", n)
	}
}

// ---------------------------------------------------------------------------
// JSON
// ---------------------------------------------------------------------------

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	n, err := Write(context.Background(), &buf, clients(3), Request{Table: "clients", PageSize: 2, Format: FormatJSON})
	if err != nil || n != 3 {
		t.Fatalf("Write = %d, %v", n, err)
	}

	var objects []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &objects); err != nil {
		t.Fatalf("parse JSON: %v\n%s", err, buf.String())
	}
	if len(objects) != 3 {
		t.Fatalf("objects = %d", len(objects))
	}
	if objects[0]["id"] != float64(1) || objects[1]["actif"] != true {
		t.Errorf("types not kept: %v", objects[:2])
	}
	if v, ok := objects[0]["note"]; !ok || v != nil {
		t.Errorf("note = %v, %v; want explicit null", v, ok)
	}
}

func TestWriteJSON_Empty(t *testing.T) {
	var buf bytes.Buffer
	if _, err := Write(context.Background(), &buf, clients(0), Request{Table: "clients", Format: FormatJSON}); err != nil {
		t.Fatal(err)
	}
	var objects []map[string]any
	if err := json.Unmarshal(buf.Bytes(), &objects); err != nil || len(objects) != 0 {
		t.Errorf("empty export = %q, %v", buf.String(), err)
	}
}

// ---------------------------------------------------------------------------
// Files
// ---------------------------------------------------------------------------

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.csv")
	n, err := File(context.Background(), path, clients(4), Request{Table: "clients", PageSize: 3})
	if err != nil || n != 4 {
		t.Fatalf("File = %d, %v", n, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(data), "\n"); lines != 5 {
		t.Errorf("lines = %d, want 5", lines)
	}
}

func TestFile_InvalidPath(t *testing.T) {
	if _, err := File(context.Background(), "/nonexistent/dir/out.csv", clients(1), Request{Table: "clients"}); err == nil {
		t.Fatal("expected error for invalid path")
	}
}

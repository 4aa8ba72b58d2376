package rows

import (
	"context"
	"errors"
	"testing"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// memSource serves a fixed number of rows with ids 1..n.
type memSource struct {
	n     int
	calls int
	err   error
}

func (m *memSource) Page(_ context.Context, _ string, limit, offset int) (schema.Page, error) {
	m.calls++
	if m.err != nil {
		return schema.Page{}, m.err
	}
	p := schema.Page{Columns: []string{"id"}, TotalCount: m.n}
	for i := offset; i < m.n && i < offset+limit; i++ {
		p.Rows = append(p.Rows, schema.Row{"id": int64(i + 1)})
	}
	return p, nil
}

func TestPageRejectsNegative(t *testing.T) {
	f := New(&memSource{n: 10})
	if _, err := f.Page(context.Background(), "t", -1, 0); err == nil {
		t.Error("negative limit should fail")
	}
	if _, err := f.Page(context.Background(), "t", 10, -5); err == nil {
		t.Error("negative offset should fail")
	}
}

func TestPageBeyondEnd(t *testing.T) {
	p, err := New(&memSource{n: 10}).Page(context.Background(), "t", 50, 500)
	if err != nil {
		t.Fatalf("Page: %v", err)
	}
	if p.Rows == nil || len(p.Rows) != 0 {
		t.Errorf("rows = %v, want empty non-nil", p.Rows)
	}
	if p.TotalCount != 10 {
		t.Errorf("total = %d", p.TotalCount)
	}
}

func TestPageWrapsError(t *testing.T) {
	cause := errors.New("boom")
	_, err := New(&memSource{err: cause}).Page(context.Background(), "t", 1, 0)
	if !errors.Is(err, cause) {
		t.Errorf("err = %v", err)
	}
}

// Paging through offsets 0, 50, 100 of a 137-row table.
func TestPaginationCoversTotal(t *testing.T) {
	f := New(&memSource{n: 137})
	ctx := context.Background()

	var fetched, last int
	seen := map[int64]bool{}
	for _, off := range []int{0, 50, 100} {
		p, err := f.Page(ctx, "contrats", 50, off)
		if err != nil {
			t.Fatalf("Page(%d): %v", off, err)
		}
		if p.TotalCount != 137 {
			t.Fatalf("total = %d", p.TotalCount)
		}
		for _, r := range p.Rows {
			id := r["id"].(int64)
			if seen[id] {
				t.Fatalf("row %d fetched twice", id)
			}
			seen[id] = true
		}
		fetched += len(p.Rows)
		last = len(p.Rows)
	}
	if fetched != 137 || last != 37 {
		t.Errorf("fetched = %d, last page = %d; want 137, 37", fetched, last)
	}
}

func TestAll(t *testing.T) {
	tests := []struct {
		name      string
		n, size   int
		wantPages int
	}{
		{"exact multiple", 100, 50, 2},
		{"remainder", 137, 50, 3},
		{"empty table", 0, 50, 0},
		{"default size", 60, 0, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := &memSource{n: tt.n}
			var pages, rows int
			err := New(src).All(context.Background(), "t", tt.size, func(p schema.Page) error {
				pages++
				rows += len(p.Rows)
				return nil
			})
			if err != nil {
				t.Fatalf("All: %v", err)
			}
			if pages != tt.wantPages || rows != tt.n {
				t.Errorf("pages = %d rows = %d, want %d %d", pages, rows, tt.wantPages, tt.n)
			}
		})
	}
}

func TestAllStopsOnCallbackError(t *testing.T) {
	stop := errors.New("stop")
	src := &memSource{n: 500}
	err := New(src).All(context.Background(), "t", 10, func(schema.Page) error { return stop })
	if !errors.Is(err, stop) {
		t.Errorf("err = %v", err)
	}
	if src.calls != 1 {
		t.Errorf("calls = %d, want 1", src.calls)
	}
}

func TestPageCount(t *testing.T) {
	if PageCount(137, 50) != 3 || PageCount(100, 50) != 2 || PageCount(0, 50) != 0 || PageCount(5, 0) != 0 {
		t.Error("PageCount mismatch")
	}
}

// Package rows fetches table data one page at a time.
package rows

import (
	"context"
	"fmt"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// DefaultPageSize is used when callers pass a non-positive page size to All.
const DefaultPageSize = 50

// Source is the subset of backend.Backend the fetcher needs.
type Source interface {
	Page(ctx context.Context, table string, limit, offset int) (schema.Page, error)
}

// Fetcher reads pages of rows.
type Fetcher struct {
	src Source
}

func New(src Source) *Fetcher {
	return &Fetcher{src: src}
}

// Page returns up to limit rows of table starting at offset. An offset past
// the end yields no rows and no error.
func (f *Fetcher) Page(ctx context.Context, table string, limit, offset int) (schema.Page, error) {
	if limit < 0 || offset < 0 {
		return schema.Page{}, fmt.Errorf("page %s: limit and offset must be non-negative (limit=%d, offset=%d)", table, limit, offset)
	}
	p, err := f.src.Page(ctx, table, limit, offset)
	if err != nil {
		return schema.Page{}, fmt.Errorf("page %s at offset %d: %w", table, offset, err)
	}
	p.Limit, p.Offset = limit, offset
	if p.Rows == nil {
		p.Rows = []schema.Row{}
	}
	if offset >= p.TotalCount && len(p.Rows) > 0 && p.TotalCount > 0 {
		p.Rows = []schema.Row{}
	}
	return p, nil
}

// All walks table page by page until a short or empty page, calling fn for
// each page. It stops at the first error from the source or from fn.
func (f *Fetcher) All(ctx context.Context, table string, pageSize int, fn func(schema.Page) error) error {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	for offset := 0; ; offset += pageSize {
		if err := ctx.Err(); err != nil {
			return err
		}
		p, err := f.Page(ctx, table, pageSize, offset)
		if err != nil {
			return err
		}
		if len(p.Rows) == 0 {
			return nil
		}
		if err := fn(p); err != nil {
			return err
		}
		if len(p.Rows) < pageSize || offset+len(p.Rows) >= p.TotalCount {
			return nil
		}
	}
}

// PageCount returns how many pages of size limit cover total rows.
func PageCount(total, limit int) int {
	if limit <= 0 || total <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

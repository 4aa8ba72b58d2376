// Package catalog wraps the backend's schema endpoints: the table list, per
// table structure, and display metadata (column labels and descriptions).
package catalog

import (
	"context"
	"log/slog"
	"sort"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/backend"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Source is the subset of backend.Backend the catalog needs.
type Source interface {
	ListTables(ctx context.Context) ([]schema.Table, error)
	Structure(ctx context.Context, table string) (schema.Structure, error)
}

var _ Source = (backend.Backend)(nil)

// Catalog lists tables and fetches their structure.
type Catalog struct {
	src Source
	log *slog.Logger
}

// New returns a Catalog reading from src. A nil logger uses slog.Default.
func New(src Source, log *slog.Logger) *Catalog {
	if log == nil {
		log = slog.Default()
	}
	return &Catalog{src: src, log: log}
}

// ListTables returns all tables sorted by classification, then name. On
// failure the error wraps apperr.ErrCatalogUnavailable and callers should
// render an empty list.
func (c *Catalog) ListTables(ctx context.Context) ([]schema.Table, error) {
	tables, err := c.src.ListTables(ctx)
	if err != nil {
		c.log.Warn("listing tables failed", "err", err)
		return nil, apperr.Wrap(apperr.ErrCatalogUnavailable, err)
	}
	sort.SliceStable(tables, func(i, j int) bool {
		if ri, rj := rank(tables[i].Classification), rank(tables[j].Classification); ri != rj {
			return ri < rj
		}
		return tables[i].Name < tables[j].Name
	})
	return tables, nil
}

// Structure returns the columns and keys of table with IsPK/IsFK derived.
// An unknown table yields an empty structure. Failures wrap
// apperr.ErrStructureUnavailable.
func (c *Catalog) Structure(ctx context.Context, table string) (schema.Structure, error) {
	s, err := c.src.Structure(ctx, table)
	if err != nil {
		c.log.Warn("fetching structure failed", "table", table, "err", err)
		return schema.Structure{}, apperr.Wrap(apperr.ErrStructureUnavailable, err)
	}
	return s.DeriveKeys(nil), nil
}

// rank orders classifications MASTER, REFERENCE, TRANSACTIONAL, OTHER.
func rank(c schema.Classification) int {
	if c == schema.ClassOther {
		return int(schema.ClassTransactional) + 1
	}
	return int(c)
}

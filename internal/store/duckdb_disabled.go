//go:build !duckdb

package store

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Masterminds/squirrel"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

var errDuckDBDisabled = errors.New("DuckDB support not compiled in. Rebuild with -tags duckdb")

func init() {
	Register(disabledDuckDB{})
}

// disabledDuckDB keeps "duckdb" a known driver name so the error says how to
// enable it.
type disabledDuckDB struct{}

func (disabledDuckDB) Name() string                            { return "duckdb" }
func (disabledDuckDB) Quote(ident string) string               { return quoteWith(`"`, ident) }
func (disabledDuckDB) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
func (disabledDuckDB) Returning() bool                         { return false }
func (disabledDuckDB) InsertDefaults(t string) string          { return "" }

func (disabledDuckDB) Open(context.Context, string) (*sql.DB, error) {
	return nil, errDuckDBDisabled
}
func (disabledDuckDB) Tables(context.Context, *sql.DB) ([]string, error) {
	return nil, errDuckDBDisabled
}
func (disabledDuckDB) Columns(context.Context, *sql.DB, string) ([]schema.Column, error) {
	return nil, errDuckDBDisabled
}
func (disabledDuckDB) ForeignKeys(context.Context, *sql.DB, string) ([]schema.ForeignKey, error) {
	return nil, errDuckDBDisabled
}
func (disabledDuckDB) Comments(context.Context, *sql.DB, string) (map[string]string, error) {
	return nil, errDuckDBDisabled
}

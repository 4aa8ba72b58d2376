//go:build duckdb

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

func init() {
	Register(&duckdbDialect{})
}

type duckdbDialect struct{}

func (duckdbDialect) Name() string                            { return "duckdb" }
func (duckdbDialect) Quote(ident string) string               { return quoteWith(`"`, ident) }
func (duckdbDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
func (duckdbDialect) Returning() bool                         { return true }
func (duckdbDialect) InsertDefaults(t string) string          { return "INSERT INTO " + t + " DEFAULT VALUES" }

func (duckdbDialect) Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn = strings.TrimPrefix(dsn, "duckdb://")
	db, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, fmt.Errorf("duckdb: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("duckdb: ping: %w", err)
	}
	return db, nil
}

func (duckdbDialect) Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_schema = current_schema()
		   AND table_type = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (duckdbDialect) Columns(ctx context.Context, db *sql.DB, table string) ([]schema.Column, error) {
	query := `SELECT column_name,
			data_type,
			CASE WHEN is_nullable = 'YES' THEN true ELSE false END,
			COALESCE(column_default, ''),
			character_maximum_length,
			numeric_precision,
			numeric_scale,
			CASE WHEN column_name IN (
				SELECT kcu.column_name
				FROM information_schema.table_constraints tc
				JOIN information_schema.key_column_usage kcu
				  ON tc.constraint_name = kcu.constraint_name
				  AND tc.table_schema = kcu.table_schema
				WHERE tc.constraint_type = 'PRIMARY KEY'
				  AND tc.table_schema = current_schema()
				  AND tc.table_name = ?
			) THEN true ELSE false END
		FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = ?
		ORDER BY ordinal_position`
	rows, err := db.QueryContext(ctx, query, table, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			col                      schema.Column
			length, precision, scale sql.NullInt64
		)
		if err := rows.Scan(&col.Name, &col.Type, &col.Nullable, &col.Default, &length, &precision, &scale, &col.IsPK); err != nil {
			return nil, err
		}
		col.MaxLength = intPtr(length)
		if !schema.IsIntegerType(col.Type) {
			col.Precision, col.Scale = intPtr(precision), intPtr(scale)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (duckdbDialect) ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]schema.ForeignKey, error) {
	query := `SELECT
			kcu.column_name,
			kcu2.table_name AS ref_table,
			kcu2.column_name AS ref_column
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON rc.constraint_schema = kcu.constraint_schema
		  AND rc.constraint_name = kcu.constraint_name
		JOIN information_schema.key_column_usage kcu2
		  ON rc.unique_constraint_schema = kcu2.constraint_schema
		  AND rc.unique_constraint_name = kcu2.constraint_name
		  AND kcu.ordinal_position = kcu2.ordinal_position
		WHERE kcu.table_schema = current_schema() AND kcu.table_name = ?
		ORDER BY rc.constraint_name, kcu.ordinal_position`
	rows, err := db.QueryContext(ctx, query, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForeignKeys(rows)
}

func (duckdbDialect) Comments(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT column_name, comment
		 FROM duckdb_columns()
		 WHERE schema_name = current_schema()
		   AND table_name = ?
		   AND comment IS NOT NULL`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPairs(rows)
}

package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

func init() {
	Register(&sqliteDialect{})
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string                            { return "sqlite" }
func (sqliteDialect) Quote(ident string) string               { return quoteWith(`"`, ident) }
func (sqliteDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Question }
func (sqliteDialect) Returning() bool                         { return true }
func (sqliteDialect) InsertDefaults(t string) string          { return "INSERT INTO " + t + " DEFAULT VALUES" }

func (sqliteDialect) Open(ctx context.Context, dsn string) (*sql.DB, error) {
	dsn = normalizeSQLiteDSN(dsn)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	// one connection: in-memory databases are per connection and the
	// foreign_keys pragma is too
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite ping: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite enable foreign keys: %w", err)
	}
	return db, nil
}

// normalizeSQLiteDSN strips common SQLite URI prefixes.
func normalizeSQLiteDSN(dsn string) string {
	switch {
	case dsn == "":
		return ":memory:"
	case strings.HasPrefix(dsn, "sqlite://"):
		return strings.TrimPrefix(dsn, "sqlite://")
	case strings.HasPrefix(dsn, "file:"):
		return strings.TrimPrefix(dsn, "file:")
	}
	return dsn
}

func (sqliteDialect) Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name NOT LIKE 'sqlite_%' ORDER BY name")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		tables = append(tables, name)
	}
	return tables, rows.Err()
}

// Columns uses PRAGMA table_info. Length, precision and scale come from the
// declared type.
func (d sqliteDialect) Columns(ctx context.Context, db *sql.DB, table string) ([]schema.Column, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA table_info("+d.Quote(table)+")")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		col := schema.Column{
			Name:     name,
			Type:     colType,
			Nullable: notNull == 0 && pk == 0,
			IsPK:     pk > 0,
		}
		if dfltValue.Valid {
			col.Default = dfltValue.String
		}
		col.MaxLength, col.Precision, col.Scale = typeParams(colType)
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (d sqliteDialect) ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]schema.ForeignKey, error) {
	rows, err := db.QueryContext(ctx, "PRAGMA foreign_key_list("+d.Quote(table)+")")
	if err != nil {
		return nil, err
	}

	var fks []schema.ForeignKey
	for rows.Next() {
		var (
			id       int
			seq      int
			refTable string
			from     string
			to       sql.NullString
			onUpdate string
			onDelete string
			match    string
		)
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			rows.Close()
			return nil, err
		}
		fks = append(fks, schema.ForeignKey{Column: from, RefTable: refTable, RefColumn: to.String})
	}
	err = rows.Err()
	rows.Close()
	if err != nil {
		return nil, err
	}

	// REFERENCES t without a column targets t's primary key
	for i, fk := range fks {
		if fk.RefColumn != "" {
			continue
		}
		cols, err := d.Columns(ctx, db, fk.RefTable)
		if err != nil {
			return nil, err
		}
		for _, c := range cols {
			if c.IsPK {
				fks[i].RefColumn = c.Name
				break
			}
		}
	}
	return fks, nil
}

func (sqliteDialect) Comments(context.Context, *sql.DB, string) (map[string]string, error) {
	return nil, nil
}

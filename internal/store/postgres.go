package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/Masterminds/squirrel"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

func init() {
	Register(&postgresDialect{})
}

// postgresDialect reads the public schema through pgx's database/sql driver.
type postgresDialect struct{}

func (postgresDialect) Name() string                            { return "postgres" }
func (postgresDialect) Quote(ident string) string               { return quoteWith(`"`, ident) }
func (postgresDialect) Placeholder() squirrel.PlaceholderFormat { return squirrel.Dollar }
func (postgresDialect) Returning() bool                         { return true }
func (postgresDialect) InsertDefaults(t string) string          { return "INSERT INTO " + t + " DEFAULT VALUES" }

func (postgresDialect) Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return db, nil
}

func (postgresDialect) Tables(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT table_name
		 FROM information_schema.tables
		 WHERE table_schema = current_schema()
		   AND table_type   = 'BASE TABLE'
		 ORDER BY table_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanStrings(rows)
}

func (d postgresDialect) Columns(ctx context.Context, db *sql.DB, table string) ([]schema.Column, error) {
	pkSet, err := d.primaryKeyColumns(ctx, db, table)
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx,
		`SELECT column_name,
		        data_type,
		        is_nullable,
		        COALESCE(column_default, ''),
		        character_maximum_length,
		        numeric_precision,
		        numeric_scale
		 FROM information_schema.columns
		 WHERE table_schema = current_schema()
		   AND table_name   = $1
		 ORDER BY ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cols []schema.Column
	for rows.Next() {
		var (
			name, dtype, nullable, dflt string
			length, precision, scale    sql.NullInt64
		)
		if err := rows.Scan(&name, &dtype, &nullable, &dflt, &length, &precision, &scale); err != nil {
			return nil, err
		}
		col := schema.Column{
			Name:      name,
			Type:      dtype,
			Nullable:  nullable == "YES",
			Default:   dflt,
			IsPK:      pkSet[name],
			MaxLength: intPtr(length),
		}
		if !schema.IsIntegerType(dtype) {
			col.Precision, col.Scale = intPtr(precision), intPtr(scale)
		}
		cols = append(cols, col)
	}
	return cols, rows.Err()
}

func (postgresDialect) primaryKeyColumns(ctx context.Context, db *sql.DB, table string) (map[string]bool, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.attname
		 FROM pg_index i
		 JOIN pg_attribute a ON a.attrelid = i.indrelid AND a.attnum = ANY(i.indkey)
		 WHERE i.indrelid = (quote_ident(current_schema()) || '.' || quote_ident($1))::regclass
		   AND i.indisprimary`, table)
	if err != nil {
		return nil, fmt.Errorf("primary keys: %w", err)
	}
	defer rows.Close()

	names, err := scanStrings(rows)
	if err != nil {
		return nil, err
	}
	pk := make(map[string]bool, len(names))
	for _, n := range names {
		pk[n] = true
	}
	return pk, nil
}

func (postgresDialect) ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]schema.ForeignKey, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT kcu.column_name,
		        ccu.table_name  AS ref_table,
		        ccu.column_name AS ref_column
		 FROM information_schema.table_constraints tc
		 JOIN information_schema.key_column_usage kcu
		      ON kcu.constraint_name = tc.constraint_name
		     AND kcu.table_schema    = tc.table_schema
		 JOIN information_schema.constraint_column_usage ccu
		      ON ccu.constraint_name = tc.constraint_name
		     AND ccu.table_schema    = tc.table_schema
		 WHERE tc.constraint_type = 'FOREIGN KEY'
		   AND tc.table_schema    = current_schema()
		   AND tc.table_name      = $1
		 ORDER BY tc.constraint_name, kcu.ordinal_position`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanForeignKeys(rows)
}

func (postgresDialect) Comments(ctx context.Context, db *sql.DB, table string) (map[string]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT a.attname, col_description(a.attrelid, a.attnum)
		 FROM pg_attribute a
		 WHERE a.attrelid = (quote_ident(current_schema()) || '.' || quote_ident($1))::regclass
		   AND a.attnum > 0
		   AND NOT a.attisdropped
		   AND col_description(a.attrelid, a.attnum) IS NOT NULL`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanPairs(rows)
}

// ---------------------------------------------------------------------------
// Scanning helpers shared by the information_schema dialects
// ---------------------------------------------------------------------------

func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func scanPairs(rows *sql.Rows) (map[string]string, error) {
	out := map[string]string{}
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

func scanForeignKeys(rows *sql.Rows) ([]schema.ForeignKey, error) {
	var fks []schema.ForeignKey
	for rows.Next() {
		var fk schema.ForeignKey
		if err := rows.Scan(&fk.Column, &fk.RefTable, &fk.RefColumn); err != nil {
			return nil, err
		}
		fks = append(fks, fk)
	}
	return fks, rows.Err()
}

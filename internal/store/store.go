// Package store is the SQL side of the reference backend: introspection of
// tables, columns and foreign keys, and paged reads and single-row writes
// over any registered dialect.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/Masterminds/squirrel"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

var (
	ErrTableNotFound = errors.New("table not found")
	ErrRowNotFound   = errors.New("row not found")
	ErrUnknownColumn = errors.New("unknown column")
	// ErrNoSingleKey means the table has no primary key or a composite one,
	// so rows cannot be addressed by a single id.
	ErrNoSingleKey = errors.New("table has no single-column primary key")
)

// Dialect supplies the database-specific parts of a Store.
type Dialect interface {
	Name() string
	Open(ctx context.Context, dsn string) (*sql.DB, error)
	Tables(ctx context.Context, db *sql.DB) ([]string, error)
	// Columns returns the columns in ordinal order with IsPK set.
	Columns(ctx context.Context, db *sql.DB, table string) ([]schema.Column, error)
	ForeignKeys(ctx context.Context, db *sql.DB, table string) ([]schema.ForeignKey, error)
	// Comments returns column comments; dialects without them return nil.
	Comments(ctx context.Context, db *sql.DB, table string) (map[string]string, error)
	Quote(ident string) string
	Placeholder() squirrel.PlaceholderFormat
	Returning() bool
	// InsertDefaults is the statement inserting a row of defaults only.
	InsertDefaults(quotedTable string) string
}

var dialects = map[string]Dialect{}

// Register adds a dialect to the registry.
func Register(d Dialect) {
	dialects[d.Name()] = d
}

// Drivers lists the registered dialect names.
func Drivers() []string {
	names := make([]string, 0, len(dialects))
	for n := range dialects {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// NormalizeDriver maps driver aliases to a registered dialect name.
func NormalizeDriver(name string) string {
	switch n := strings.ToLower(strings.TrimSpace(name)); n {
	case "postgresql", "pg", "pgx":
		return "postgres"
	case "sqlite3", "":
		return "sqlite"
	case "mariadb":
		return "mysql"
	default:
		return n
	}
}

// Store reads and writes rows of one database.
type Store struct {
	db      *sql.DB
	dialect Dialect
	qb      squirrel.StatementBuilderType
}

// Open connects to dsn with the named dialect.
func Open(ctx context.Context, driver, dsn string) (*Store, error) {
	d, ok := dialects[NormalizeDriver(driver)]
	if !ok {
		return nil, fmt.Errorf("unsupported driver %q (available: %s)", driver, strings.Join(Drivers(), ", "))
	}
	db, err := d.Open(ctx, dsn)
	if err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		dialect: d,
		qb:      squirrel.StatementBuilder.PlaceholderFormat(d.Placeholder()),
	}, nil
}

func (s *Store) Driver() string { return s.dialect.Name() }

// DB exposes the connection pool, for seeding and tests.
func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *Store) Close() error { return s.db.Close() }

// Tables lists the user tables, sorted by name.
func (s *Store) Tables(ctx context.Context) ([]string, error) {
	names, err := s.dialect.Tables(ctx, s.db)
	if err != nil {
		return nil, fmt.Errorf("%s tables: %w", s.dialect.Name(), err)
	}
	sort.Strings(names)
	return names, nil
}

// Structure returns the columns, primary keys and foreign keys of table.
func (s *Store) Structure(ctx context.Context, table string) (schema.Structure, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return schema.Structure{}, err
	}
	cols, err := s.dialect.Columns(ctx, s.db, table)
	if err != nil {
		return schema.Structure{}, fmt.Errorf("%s columns %s: %w", s.dialect.Name(), table, err)
	}
	fks, err := s.dialect.ForeignKeys(ctx, s.db, table)
	if err != nil {
		return schema.Structure{}, fmt.Errorf("%s foreign keys %s: %w", s.dialect.Name(), table, err)
	}
	st := schema.Structure{Columns: cols, ForeignKeys: fks}
	for _, c := range cols {
		if c.IsPK {
			st.PrimaryKeys = append(st.PrimaryKeys, c.Name)
		}
	}
	return st.DeriveKeys(nil), nil
}

// Comments returns the column comments of table.
func (s *Store) Comments(ctx context.Context, table string) (map[string]string, error) {
	if err := s.requireTable(ctx, table); err != nil {
		return nil, err
	}
	c, err := s.dialect.Comments(ctx, s.db, table)
	if err != nil {
		return nil, fmt.Errorf("%s comments %s: %w", s.dialect.Name(), table, err)
	}
	return c, nil
}

// Page returns up to limit rows of table starting at offset, ordered by the
// primary key when there is one, plus the table's total row count.
func (s *Store) Page(ctx context.Context, table string, limit, offset int) (schema.Page, error) {
	if limit < 0 || offset < 0 {
		return schema.Page{}, fmt.Errorf("limit and offset must not be negative")
	}
	st, err := s.Structure(ctx, table)
	if err != nil {
		return schema.Page{}, err
	}
	qt := s.dialect.Quote(table)

	var total int
	countSQL, args, err := s.qb.Select("COUNT(*)").From(qt).ToSql()
	if err != nil {
		return schema.Page{}, err
	}
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return schema.Page{}, fmt.Errorf("count %s: %w", table, err)
	}

	q := s.qb.Select(s.quoteAll(st.ColumnNames())...).From(qt).
		Limit(uint64(limit)).Offset(uint64(offset))
	if len(st.PrimaryKeys) > 0 {
		q = q.OrderBy(s.quoteAll(st.PrimaryKeys)...)
	}
	rows, err := s.query(ctx, q)
	if err != nil {
		return schema.Page{}, fmt.Errorf("page %s: %w", table, err)
	}
	return schema.Page{
		Columns:    st.ColumnNames(),
		Rows:       rows,
		TotalCount: total,
		Limit:      limit,
		Offset:     offset,
	}, nil
}

// Get returns the row of table whose primary key is id.
func (s *Store) Get(ctx context.Context, table, id string) (schema.Row, error) {
	st, pk, err := s.keyed(ctx, table)
	if err != nil {
		return nil, err
	}
	return s.get(ctx, table, st, pk, keyArg(pk, id))
}

// Insert adds a row and returns it as stored, defaults included.
func (s *Store) Insert(ctx context.Context, table string, values map[string]any) (schema.Row, error) {
	st, err := s.Structure(ctx, table)
	if err != nil {
		return nil, err
	}
	cols, vals, err := s.columnsOf(st, values)
	if err != nil {
		return nil, err
	}
	qt := s.dialect.Quote(table)

	var (
		query string
		args  []any
	)
	if len(cols) == 0 {
		query = s.dialect.InsertDefaults(qt)
	} else {
		query, args, err = s.qb.Insert(qt).Columns(cols...).Values(vals...).ToSql()
		if err != nil {
			return nil, err
		}
	}

	if s.dialect.Returning() {
		rows, err := s.queryRaw(ctx, query+" RETURNING "+strings.Join(s.quoteAll(st.ColumnNames()), ", "), args...)
		if err != nil {
			return nil, fmt.Errorf("insert %s: %w", table, err)
		}
		if len(rows) == 0 {
			return nil, fmt.Errorf("insert %s: no row returned", table)
		}
		return rows[0], nil
	}

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", table, err)
	}
	pk, ok := st.PrimaryKey()
	if !ok {
		return normalizeRow(values), nil
	}
	col, _ := st.Column(pk)
	id, given := values[pk]
	if !given || schema.IsEmptyValue(id) {
		last, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("insert %s: last insert id: %w", table, err)
		}
		id = last
	}
	return s.get(ctx, table, st, col, id)
}

// Update sets the given columns of the row whose primary key is id and
// returns the row as stored.
func (s *Store) Update(ctx context.Context, table, id string, values map[string]any) (schema.Row, error) {
	st, pk, err := s.keyed(ctx, table)
	if err != nil {
		return nil, err
	}
	rest := make(map[string]any, len(values))
	for k, v := range values {
		if k != pk.Name {
			rest[k] = v
		}
	}
	cols, vals, err := s.columnsOf(st, rest)
	if err != nil {
		return nil, err
	}
	key := keyArg(pk, id)
	if len(cols) == 0 {
		return s.get(ctx, table, st, pk, key)
	}

	set := make(map[string]any, len(cols))
	for i, c := range cols {
		set[c] = vals[i]
	}
	query, args, err := s.qb.Update(s.dialect.Quote(table)).SetMap(set).
		Where(squirrel.Eq{s.dialect.Quote(pk.Name): key}).ToSql()
	if err != nil {
		return nil, err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return nil, ErrRowNotFound
	}
	return s.get(ctx, table, st, pk, key)
}

// Delete removes the row whose primary key is id.
func (s *Store) Delete(ctx context.Context, table, id string) error {
	_, pk, err := s.keyed(ctx, table)
	if err != nil {
		return err
	}
	query, args, err := s.qb.Delete(s.dialect.Quote(table)).
		Where(squirrel.Eq{s.dialect.Quote(pk.Name): keyArg(pk, id)}).ToSql()
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("delete %s/%s: %w", table, id, err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrRowNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *Store) requireTable(ctx context.Context, table string) error {
	names, err := s.Tables(ctx)
	if err != nil {
		return err
	}
	if !slices.Contains(names, table) {
		return fmt.Errorf("%w: %s", ErrTableNotFound, table)
	}
	return nil
}

func (s *Store) keyed(ctx context.Context, table string) (schema.Structure, schema.Column, error) {
	st, err := s.Structure(ctx, table)
	if err != nil {
		return st, schema.Column{}, err
	}
	pk, ok := st.PrimaryKey()
	if !ok {
		return st, schema.Column{}, fmt.Errorf("%w: %s", ErrNoSingleKey, table)
	}
	col, _ := st.Column(pk)
	return st, col, nil
}

func (s *Store) get(ctx context.Context, table string, st schema.Structure, pk schema.Column, key any) (schema.Row, error) {
	q := s.qb.Select(s.quoteAll(st.ColumnNames())...).From(s.dialect.Quote(table)).
		Where(squirrel.Eq{s.dialect.Quote(pk.Name): key})
	rows, err := s.query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", table, err)
	}
	if len(rows) == 0 {
		return nil, ErrRowNotFound
	}
	return rows[0], nil
}

// columnsOf validates the keys of values against st and returns quoted
// column names with their values, in column order.
func (s *Store) columnsOf(st schema.Structure, values map[string]any) ([]string, []any, error) {
	for name := range values {
		if _, ok := st.Column(name); !ok {
			return nil, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
		}
	}
	var (
		cols []string
		vals []any
	)
	for _, c := range st.Columns {
		v, ok := values[c.Name]
		if !ok {
			continue
		}
		cols = append(cols, s.dialect.Quote(c.Name))
		vals = append(vals, v)
	}
	return cols, vals, nil
}

func (s *Store) quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = s.dialect.Quote(n)
	}
	return out
}

func (s *Store) query(ctx context.Context, q squirrel.SelectBuilder) ([]schema.Row, error) {
	query, args, err := q.ToSql()
	if err != nil {
		return nil, err
	}
	return s.queryRaw(ctx, query, args...)
}

func (s *Store) queryRaw(ctx context.Context, query string, args ...any) ([]schema.Row, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	out := []schema.Row{}
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make(schema.Row, len(cols))
		for i, c := range cols {
			row[c] = normalizeValue(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// keyArg converts a row id from a URL to the primary key's Go type.
func keyArg(pk schema.Column, id string) any {
	if schema.IsIntegerType(pk.Type) {
		if n, err := strconv.ParseInt(id, 10, 64); err == nil {
			return n
		}
	}
	return id
}

// quoteWith doubles q inside ident and wraps it in q.
func quoteWith(q, ident string) string {
	return q + strings.ReplaceAll(ident, q, q+q) + q
}

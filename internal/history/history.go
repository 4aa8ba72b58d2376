// Package history remembers which tables were opened recently, per backend.
package history

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/elarabyomar/PFA-sub000/internal/config"
)

const createTableSQL = `CREATE TABLE IF NOT EXISTS recent_tables (
	backend    TEXT NOT NULL,
	table_name TEXT NOT NULL,
	opened_at  DATETIME NOT NULL,
	opens      INTEGER NOT NULL DEFAULT 1,
	PRIMARY KEY (backend, table_name)
)`

// Entry is one recently opened table.
type Entry struct {
	Backend  string
	Table    string
	OpenedAt time.Time
	Opens    int64
}

// History provides SQLite-backed storage of recently opened tables.
type History struct {
	db *sql.DB
}

// New opens (or creates) the history database at ConfigDir()/history.db.
func New() (*History, error) {
	dir, err := config.ConfigDir()
	if err != nil {
		return nil, fmt.Errorf("history: config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("history: create dir: %w", err)
	}
	return Open(filepath.Join(dir, "history.db"))
}

// Open opens (or creates) the history database at path and ensures the
// schema exists.
func Open(path string) (*History, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open db: %w", err)
	}
	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: create table: %w", err)
	}
	return &History{db: db}, nil
}

// Touch records that table was opened on backend at the given time.
func (h *History) Touch(backend, table string, at time.Time) error {
	_, err := h.db.Exec(
		`INSERT INTO recent_tables (backend, table_name, opened_at, opens)
		 VALUES (?, ?, ?, 1)
		 ON CONFLICT (backend, table_name)
		 DO UPDATE SET opened_at = excluded.opened_at, opens = opens + 1`,
		backend, table, at.UTC(),
	)
	if err != nil {
		return fmt.Errorf("history touch: %w", err)
	}
	return nil
}

// Recent returns the tables most recently opened on backend, newest first.
func (h *History) Recent(backend string, limit int) ([]Entry, error) {
	rows, err := h.db.Query(
		`SELECT backend, table_name, opened_at, opens
		 FROM recent_tables
		 WHERE backend = ?
		 ORDER BY opened_at DESC, table_name
		 LIMIT ?`,
		backend, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("history recent: %w", err)
	}
	defer rows.Close()

	return scanEntries(rows)
}

// Forget removes one table from the history of backend, e.g. after the
// catalog stopped listing it.
func (h *History) Forget(backend, table string) error {
	if _, err := h.db.Exec(`DELETE FROM recent_tables WHERE backend = ? AND table_name = ?`, backend, table); err != nil {
		return fmt.Errorf("history forget: %w", err)
	}
	return nil
}

// Clear deletes all history entries.
func (h *History) Clear() error {
	if _, err := h.db.Exec(`DELETE FROM recent_tables`); err != nil {
		return fmt.Errorf("history clear: %w", err)
	}
	return nil
}

// Close closes the underlying database connection.
func (h *History) Close() error {
	return h.db.Close()
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Backend, &e.Table, &e.OpenedAt, &e.Opens); err != nil {
			return nil, fmt.Errorf("history scan: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history rows: %w", err)
	}
	return entries, nil
}

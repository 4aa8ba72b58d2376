package history

import (
	"path/filepath"
	"testing"
	"time"
)

func newTestHistory(t *testing.T) *History {
	t.Helper()
	h, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { h.Close() })
	return h
}

func TestNew(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpHome, ".config"))

	h, err := New()
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer h.Close()

	entries, err := h.Recent("http://crm/api", 10)
	if err != nil {
		t.Fatalf("Recent() on new DB error = %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Recent() on new DB = %d entries, want 0", len(entries))
	}
}

func TestTouchAndRecent(t *testing.T) {
	h := newTestHistory(t)
	const be = "http://crm/api"
	base := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

	for i, table := range []string{"clients", "contrats", "sinistres"} {
		if err := h.Touch(be, table, base.Add(time.Duration(i)*time.Minute)); err != nil {
			t.Fatalf("Touch(%s): %v", table, err)
		}
	}
	// reopening moves clients to the front and counts the open
	if err := h.Touch(be, "clients", base.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := h.Touch("http://other/api", "agences", base.Add(2*time.Hour)); err != nil {
		t.Fatal(err)
	}

	entries, err := h.Recent(be, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("len = %d, want 2", len(entries))
	}
	if entries[0].Table != "clients" || entries[0].Opens != 2 {
		t.Errorf("entries[0] = %+v", entries[0])
	}
	if entries[1].Table != "sinistres" {
		t.Errorf("entries[1] = %+v", entries[1])
	}
	if !entries[0].OpenedAt.Equal(base.Add(time.Hour)) {
		t.Errorf("OpenedAt = %v", entries[0].OpenedAt)
	}
}

func TestForgetAndClear(t *testing.T) {
	h := newTestHistory(t)
	const be = "http://crm/api"
	now := time.Now()
	h.Touch(be, "clients", now)
	h.Touch(be, "contrats", now)

	if err := h.Forget(be, "clients"); err != nil {
		t.Fatalf("Forget: %v", err)
	}
	entries, _ := h.Recent(be, 10)
	if len(entries) != 1 || entries[0].Table != "contrats" {
		t.Errorf("after Forget = %+v", entries)
	}

	if err := h.Clear(); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	entries, _ = h.Recent(be, 10)
	if len(entries) != 0 {
		t.Errorf("after Clear = %+v", entries)
	}
}

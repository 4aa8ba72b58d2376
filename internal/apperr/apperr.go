// Package apperr defines the error taxonomy shared by the explorer engine.
// Only persistence rejections are meant to reach the user as an actionable
// message; the rest are degradations that callers log and paper over.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Sentinel errors, matched with errors.Is.
var (
	// ErrCatalogUnavailable means the table list could not be fetched.
	ErrCatalogUnavailable = errors.New("catalog unavailable")
	// ErrStructureUnavailable means a table's structure could not be fetched.
	ErrStructureUnavailable = errors.New("structure unavailable")
	// ErrResolutionPartial means one or more FK columns could not be sampled.
	ErrResolutionPartial = errors.New("foreign key resolution partial")
	// ErrCoercionAmbiguous flags an input that was passed through unconverted.
	ErrCoercionAmbiguous = errors.New("coercion ambiguous")
	// ErrPersistenceRejected means the backend refused a create/update/delete.
	ErrPersistenceRejected = errors.New("persistence rejected")
)

// StatusError is a non-2xx backend response.
type StatusError struct {
	Method  string
	Path    string
	Status  int
	Message string // from the {error|message} body field, if any
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, e.Message)
	}
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
}

// PartialError lists the FK columns whose sample fetch failed, keyed by
// column name.
type PartialError struct {
	Table   string
	Columns map[string]error
}

func (e *PartialError) Error() string {
	cols := e.FailedColumns()
	return fmt.Sprintf("resolve %s: %d column(s) unresolved: %s", e.Table, len(cols), strings.Join(cols, ", "))
}

// FailedColumns returns the failed column names in sorted order.
func (e *PartialError) FailedColumns() []string {
	cols := make([]string, 0, len(e.Columns))
	for c := range e.Columns {
		cols = append(cols, c)
	}
	sort.Strings(cols)
	return cols
}

func (e *PartialError) Unwrap() error {
	return ErrResolutionPartial
}

// CoercionIssue describes a single field that did not convert cleanly.
type CoercionIssue struct {
	Column string
	Value  string
	Reason string
}

func (e *CoercionIssue) Error() string {
	return fmt.Sprintf("column %s: %s (%q)", e.Column, e.Reason, e.Value)
}

func (e *CoercionIssue) Unwrap() error {
	return ErrCoercionAmbiguous
}

// PersistenceError wraps a failed create, update or delete.
type PersistenceError struct {
	Op    string // "create", "update" or "delete"
	Table string
	ID    string
	Err   error
}

func (e *PersistenceError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s %s/%s: %v", e.Op, e.Table, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Table, e.Err)
}

// Is makes errors.Is(err, ErrPersistenceRejected) hold while Unwrap still
// exposes the underlying cause.
func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistenceRejected
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Message returns the text a user should see for err: the backend's own
// message when there is one, the error string otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	return err.Error()
}

// Wrap attaches a sentinel to err, keeping both matchable with errors.Is.
func Wrap(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", sentinel, err)
}

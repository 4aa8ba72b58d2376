package apperr

import (
	"errors"
	"fmt"
	"testing"
)

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(ErrCatalogUnavailable, cause)
	if !errors.Is(err, ErrCatalogUnavailable) {
		t.Error("wrapped error should match sentinel")
	}
	if !errors.Is(err, cause) {
		t.Error("wrapped error should match cause")
	}
	if Wrap(ErrCatalogUnavailable, nil) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestPersistenceError(t *testing.T) {
	status := &StatusError{Method: "PUT", Path: "/tables/clients/rows/7", Status: 422, Message: "email invalide"}
	err := fmt.Errorf("save: %w", &PersistenceError{Op: "update", Table: "clients", ID: "7", Err: status})

	if !errors.Is(err, ErrPersistenceRejected) {
		t.Error("should match ErrPersistenceRejected")
	}
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatal("should unwrap to StatusError")
	}
	if se.Status != 422 {
		t.Errorf("Status = %d, want 422", se.Status)
	}
	if got := Message(err); got != "email invalide" {
		t.Errorf("Message = %q", got)
	}
}

func TestPartialError(t *testing.T) {
	err := &PartialError{Table: "contrats", Columns: map[string]error{
		"idClient":  errors.New("boom"),
		"idAgence":  errors.New("boom"),
		"idProduit": errors.New("boom"),
	}}
	if !errors.Is(err, ErrResolutionPartial) {
		t.Error("should match ErrResolutionPartial")
	}
	cols := err.FailedColumns()
	want := []string{"idAgence", "idClient", "idProduit"}
	for i := range want {
		if cols[i] != want[i] {
			t.Fatalf("FailedColumns = %v, want %v", cols, want)
		}
	}
}

func TestCoercionIssue(t *testing.T) {
	var err error = &CoercionIssue{Column: "dateNaissance", Value: "bientôt", Reason: "unparseable date"}
	if !errors.Is(err, ErrCoercionAmbiguous) {
		t.Error("should match ErrCoercionAmbiguous")
	}
}

func TestMessage(t *testing.T) {
	if Message(nil) != "" {
		t.Error("Message(nil) should be empty")
	}
	if got := Message(&StatusError{Method: "GET", Path: "/x", Status: 500}); got != "GET /x: status 500" {
		t.Errorf("Message = %q", got)
	}
}

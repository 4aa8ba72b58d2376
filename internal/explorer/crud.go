package explorer

import (
	"context"
	"fmt"
	"time"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/audit"
	"github.com/elarabyomar/PFA-sub000/internal/catalog"
	"github.com/elarabyomar/PFA-sub000/internal/coerce"
	"github.com/elarabyomar/PFA-sub000/internal/form"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// State is the editing state of a session.
type State int

const (
	StateBrowsing State = iota
	StateEditing
	StateCreating
	StateSaving
)

func (s State) String() string {
	switch s {
	case StateEditing:
		return "editing"
	case StateCreating:
		return "creating"
	case StateSaving:
		return "saving"
	default:
		return "browsing"
	}
}

// Form is the open create or edit form. Table and Gen pin it to the
// selection it was opened on; its writes always target that table.
type Form struct {
	Table  string
	Gen    uint64
	Mode   form.Mode
	Fields []form.Field
	State  form.State // initial widget values
	RowID  string     // edit mode only
	Row    schema.Row // the row being edited, nil in create mode
}

// SaveResult is the outcome of Submit.
type SaveResult struct {
	Row      schema.Row
	Coercion coerce.Result
}

// State returns the current editing state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Form returns the open form, if any.
func (s *Session) Form() (*Form, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form, s.form != nil
}

// BeginCreate opens a blank create form: Browsing -> Creating.
func (s *Session) BeginCreate() (*Form, error) {
	return s.begin(form.ModeCreate, nil)
}

// BeginEdit opens an edit form for row: Browsing -> Editing. The table must
// have a single-column primary key and row must carry its value.
func (s *Session) BeginEdit(row schema.Row) (*Form, error) {
	return s.begin(form.ModeEdit, row)
}

func (s *Session) begin(mode form.Mode, row schema.Row) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table == "" {
		return nil, ErrNoTable
	}
	if !s.hasStructure {
		return nil, ErrNoStructure
	}
	if s.state != StateBrowsing {
		return nil, fmt.Errorf("cannot open a form while %s", s.state)
	}

	f := &Form{Table: s.table, Gen: s.gen, Mode: mode}
	if mode == form.ModeEdit {
		id, err := rowID(s.structure, row)
		if err != nil {
			return nil, err
		}
		f.RowID = id
		f.Row = row.Clone()
	}

	table := s.table
	st := s.structure.DeriveKeys(func(c string) bool { return s.cache.Has(table, c) })
	f.Fields = form.Build(form.Input{
		Table:        table,
		Mode:         mode,
		Structure:    st,
		Labels:       catalog.FillLabels(st.ColumnNames(), s.labels),
		Descriptions: catalog.FillDescriptions(st.ColumnNames(), s.descriptions),
		Labeler:      s.labeler,
		Row:          f.Row,
	})
	f.State = form.Initial(f.Fields, f.Row)

	s.form = f
	if mode == form.ModeEdit {
		s.state = StateEditing
	} else {
		s.state = StateCreating
	}
	return f, nil
}

// Cancel closes the open form without saving: Editing|Creating -> Browsing.
// It is a no-op while saving.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSaving {
		return
	}
	s.state = StateBrowsing
	s.form = nil
}

// Submit coerces the form values and persists them: Editing|Creating ->
// Saving -> Browsing on success. On failure the session returns to the
// form state it came from and the form stays open.
//
// Empty inputs are omitted when creating, so server defaults apply. When
// editing, an emptied nullable column is sent as null to clear it.
func (s *Session) Submit(ctx context.Context, values form.State) (SaveResult, error) {
	s.mu.Lock()
	if s.state != StateEditing && s.state != StateCreating {
		st := s.state
		s.mu.Unlock()
		return SaveResult{}, fmt.Errorf("nothing to submit while %s", st)
	}
	prev, f := s.state, s.form
	sel := Selection{Table: f.Table, Gen: f.Gen, Ctx: s.ctx}
	s.state = StateSaving
	s.mu.Unlock()

	res := coerceForm(f, values)
	for _, is := range res.Issues {
		s.log.Warn("unvalidated form value", "column", is.Column, "reason", is.Reason)
	}

	var (
		row schema.Row
		err error
	)
	if f.Mode == form.ModeEdit {
		row, err = s.update(ctx, sel, f.RowID, res.Payload)
	} else {
		row, err = s.create(ctx, sel, res.Payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.form != f {
		// a new selection replaced the form while saving
		return SaveResult{Row: row, Coercion: res}, err
	}
	if err != nil {
		s.state = prev
		return SaveResult{Coercion: res}, err
	}
	s.state = StateBrowsing
	s.form = nil
	return SaveResult{Row: row, Coercion: res}, nil
}

// Preview returns the payload Submit would send for values, without
// sending it.
func (s *Session) Preview(values form.State) (coerce.Result, error) {
	s.mu.Lock()
	f := s.form
	s.mu.Unlock()
	if f == nil {
		return coerce.Result{}, fmt.Errorf("no open form")
	}
	return coerceForm(f, values), nil
}

func coerceForm(f *Form, values form.State) coerce.Result {
	opts := coerce.Options{}
	if f.Mode == form.ModeEdit {
		opts = coerce.Options{ExplicitNull: true, SkipPrimaryKeys: true}
	}
	return coerce.Apply(values, form.Editable(f.Fields), opts)
}

// Create inserts a row in the selected table and refreshes the current page.
func (s *Session) Create(ctx context.Context, payload map[string]any) (schema.Row, error) {
	sel, err := s.requireStructure()
	if err != nil {
		return nil, err
	}
	return s.create(ctx, sel, payload)
}

func (s *Session) create(ctx context.Context, sel Selection, payload map[string]any) (schema.Row, error) {
	start := time.Now()
	row, err := s.be.Create(ctx, sel.Table, payload)
	s.record("create", sel.Table, "", payload, start, err)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "create", Table: sel.Table, Err: err}
	}
	s.refreshAfterWrite(ctx, sel)
	return row, nil
}

// Update replaces columns of the row identified by id and refreshes the
// current page. Last write wins.
func (s *Session) Update(ctx context.Context, id string, payload map[string]any) (schema.Row, error) {
	sel, err := s.requireStructure()
	if err != nil {
		return nil, err
	}
	return s.update(ctx, sel, id, payload)
}

func (s *Session) update(ctx context.Context, sel Selection, id string, payload map[string]any) (schema.Row, error) {
	start := time.Now()
	row, err := s.be.Update(ctx, sel.Table, id, payload)
	s.record("update", sel.Table, id, payload, start, err)
	if err != nil {
		return nil, &apperr.PersistenceError{Op: "update", Table: sel.Table, ID: id, Err: err}
	}
	s.refreshAfterWrite(ctx, sel)
	return row, nil
}

// Delete removes the row identified by id and refreshes the current page.
func (s *Session) Delete(ctx context.Context, id string) error {
	sel, err := s.requireStructure()
	if err != nil {
		return err
	}
	return s.delete(ctx, sel, id)
}

func (s *Session) delete(ctx context.Context, sel Selection, id string) error {
	start := time.Now()
	err := s.be.Delete(ctx, sel.Table, id)
	s.record("delete", sel.Table, id, nil, start, err)
	if err != nil {
		return &apperr.PersistenceError{Op: "delete", Table: sel.Table, ID: id, Err: err}
	}
	s.refreshAfterWrite(ctx, sel)
	return nil
}

// DeleteRow deletes row by its primary-key value, in the table selected
// when it is called.
func (s *Session) DeleteRow(ctx context.Context, row schema.Row) error {
	sel, id, err := s.rowTarget(row)
	if err != nil {
		return err
	}
	return s.delete(ctx, sel, id)
}

func (s *Session) rowTarget(row schema.Row) (Selection, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == "" {
		return Selection{}, "", ErrNoTable
	}
	if !s.hasStructure {
		return Selection{}, "", ErrNoStructure
	}
	id, err := rowID(s.structure, row)
	return Selection{Table: s.table, Gen: s.gen, Ctx: s.ctx}, id, err
}

// RowID returns the primary-key value of row as used in row URLs.
func (s *Session) RowID(row schema.Row) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return rowID(s.structure, row)
}

func (s *Session) requireStructure() (Selection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.table == "" {
		return Selection{}, ErrNoTable
	}
	if !s.hasStructure {
		return Selection{}, ErrNoStructure
	}
	return Selection{Table: s.table, Gen: s.gen, Ctx: s.ctx}, nil
}

// refreshAfterWrite reloads the current page at the same offset. A failed
// refresh is logged; the write itself succeeded. Nothing is reloaded once
// another table is selected.
func (s *Session) refreshAfterWrite(ctx context.Context, sel Selection) {
	if !s.IsCurrent(sel.Gen) {
		return
	}
	offset := s.Offset()
	p, err := s.rows.Page(ctx, sel.Table, s.pageSize, offset)
	if err != nil {
		s.log.Warn("refresh after write failed", "table", sel.Table, "offset", offset, "err", err)
		return
	}
	s.ApplyPage(sel.Gen, p)
}

func (s *Session) record(op, table, id string, payload map[string]any, start time.Time, err error) {
	e := audit.Entry{
		Timestamp:  start,
		Op:         op,
		Table:      table,
		RowID:      id,
		Columns:    audit.Keys(payload),
		DurationMS: since(start),
		Backend:    s.auditURL,
	}
	if err != nil {
		e.IsError = true
		e.Error = err.Error()
		s.log.Warn("persistence rejected", "op", describe(op, table, id), "err", err)
	} else {
		s.log.Info("row persisted", "op", describe(op, table, id), "duration_ms", e.DurationMS)
	}
	s.audit.Log(e)
}

func rowID(st schema.Structure, row schema.Row) (string, error) {
	pk, ok := st.PrimaryKey()
	if !ok {
		if len(st.PrimaryKeys) == 0 {
			return "", fmt.Errorf("table has no primary key")
		}
		return "", fmt.Errorf("composite primary keys are not supported")
	}
	v, ok := row[pk]
	if !ok || schema.IsEmptyValue(v) {
		return "", fmt.Errorf("row has no value for primary key %s", pk)
	}
	return schema.FormatValue(v), nil
}

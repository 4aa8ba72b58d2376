// Package form derives edit widgets from column metadata so any table can be
// edited without table-specific code.
package form

import (
	"fmt"
	"strings"

	"github.com/elarabyomar/PFA-sub000/internal/coerce"
	"github.com/elarabyomar/PFA-sub000/internal/fk"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// Mode says whether a form creates a row or edits an existing one.
type Mode int

const (
	ModeCreate Mode = iota
	ModeEdit
)

func (m Mode) String() string {
	if m == ModeEdit {
		return "edit"
	}
	return "create"
}

// WidgetKind is the input control used for a field.
type WidgetKind int

const (
	WidgetText WidgetKind = iota
	WidgetNumber
	WidgetDate
	WidgetBoolean
	WidgetSelect
)

func (w WidgetKind) String() string {
	switch w {
	case WidgetNumber:
		return "number"
	case WidgetDate:
		return "date"
	case WidgetBoolean:
		return "boolean"
	case WidgetSelect:
		return "select"
	default:
		return "text"
	}
}

// Field is one rendered form input.
type Field struct {
	Column      schema.Column
	Label       string
	Description string
	Widget      WidgetKind
	Options     []fk.Option // WidgetSelect only
	ReadOnly    bool
	Helper      string // e.g. the max length of a text column

	SQLType     string
	Nullable    bool
	OptionCount int
}

// Name is the column name the field edits.
func (f Field) Name() string {
	return f.Column.Name
}

// Info summarises the informational metadata shown under a field.
func (f Field) Info() string {
	parts := []string{f.SQLType}
	if f.Nullable {
		parts = append(parts, "nullable")
	} else {
		parts = append(parts, "required")
	}
	if f.Widget == WidgetSelect {
		parts = append(parts, fmt.Sprintf("%d options", f.OptionCount))
	}
	if f.Helper != "" {
		parts = append(parts, f.Helper)
	}
	return strings.Join(parts, " · ")
}

// OptionIndex returns the index of the option whose value loosely equals v,
// or -1.
func (f Field) OptionIndex(v any) int {
	for i, o := range f.Options {
		if schema.LooseEqual(o.Value, v) {
			return i
		}
	}
	return -1
}

// State holds raw widget values keyed by column name.
type State map[string]any

// Clone returns a shallow copy of s.
func (s State) Clone() State {
	out := make(State, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Input is everything Build needs to lay out a form.
type Input struct {
	Table        string
	Mode         Mode
	Structure    schema.Structure
	Labels       map[string]string
	Descriptions map[string]string
	Labeler      *fk.Labeler
	Row          schema.Row // the row being edited; may prefill a create form
}

// Build returns one field per column, in column order. The widget is the
// first match of: omitted primary key (create mode without a value),
// foreign-key select, boolean toggle, date input, number input, text.
func Build(in Input) []Field {
	s := in.Structure
	if in.Labeler != nil {
		cache := in.Labeler.Cache()
		s = s.DeriveKeys(func(col string) bool { return cache.Has(in.Table, col) })
	} else {
		s = s.DeriveKeys(nil)
	}

	fields := make([]Field, 0, len(s.Columns))
	for _, col := range s.Columns {
		value, hasValue := in.Row[col.Name]
		hasValue = hasValue && !schema.IsEmptyValue(value)
		if col.IsPK && in.Mode == ModeCreate && !hasValue {
			continue
		}

		f := Field{
			Column:      col,
			Label:       label(in.Labels, col.Name),
			Description: in.Descriptions[col.Name],
			SQLType:     col.Type,
			Nullable:    col.Nullable,
			ReadOnly:    col.IsPK && in.Mode == ModeEdit,
		}

		switch kind := schema.KindOf(col.Type); {
		case col.IsFK:
			f.Widget = WidgetSelect
			if in.Labeler != nil {
				f.Options = in.Labeler.Options(in.Table, col.Name)
			}
			if hasValue && f.OptionIndex(value) < 0 {
				text := schema.FormatValue(value)
				if in.Labeler != nil {
					text = in.Labeler.LabelFor(in.Table, col.Name, value)
				}
				f.Options = append(f.Options, fk.Option{Value: value, Label: text})
			}
			f.OptionCount = len(f.Options)
		case kind == schema.KindBoolean:
			f.Widget = WidgetBoolean
		case kind == schema.KindDate:
			f.Widget = WidgetDate
			if strings.Contains(strings.ToLower(col.Type), "timestamp") || strings.Contains(strings.ToLower(col.Type), "datetime") {
				f.Helper = "date only"
			}
		case kind == schema.KindNumeric:
			f.Widget = WidgetNumber
		default:
			f.Widget = WidgetText
			if col.MaxLength != nil && *col.MaxLength > 0 {
				f.Helper = fmt.Sprintf("max %d characters", *col.MaxLength)
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// Initial renders row into widget values for fields. A nil row gives the
// blank state of a create form: booleans start as nil, everything else as "".
func Initial(fields []Field, row schema.Row) State {
	st := make(State, len(fields))
	for _, f := range fields {
		v, ok := row[f.Name()]
		switch {
		case f.Widget == WidgetBoolean:
			if ok {
				st[f.Name()] = coerce.Render(f.Column, v)
			} else {
				st[f.Name()] = nil
			}
		case f.Widget == WidgetSelect:
			if ok && !schema.IsEmptyValue(v) {
				st[f.Name()] = v
			} else {
				st[f.Name()] = nil
			}
		case ok:
			st[f.Name()] = coerce.Render(f.Column, v)
		default:
			st[f.Name()] = ""
		}
	}
	return st
}

// Editable returns the column descriptors behind the non read-only fields.
func Editable(fields []Field) []schema.Column {
	cols := make([]schema.Column, 0, len(fields))
	for _, f := range fields {
		if !f.ReadOnly {
			cols = append(cols, f.Column)
		}
	}
	return cols
}

func label(labels map[string]string, col string) string {
	if l := strings.TrimSpace(labels[col]); l != "" {
		return l
	}
	return col
}

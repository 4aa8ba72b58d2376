// Package schema holds the plain data types the explorer passes around:
// table descriptors, column and foreign-key metadata, rows, and pages.
package schema

import "strings"

// Classification groups tables for display purposes only.
type Classification int

const (
	ClassOther Classification = iota
	ClassMaster
	ClassReference
	ClassTransactional
)

func (c Classification) String() string {
	switch c {
	case ClassMaster:
		return "MASTER"
	case ClassReference:
		return "REFERENCE"
	case ClassTransactional:
		return "TRANSACTIONAL"
	default:
		return "OTHER"
	}
}

// ParseClassification maps a wire value to a Classification. Unknown values
// become ClassOther.
func ParseClassification(s string) Classification {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "MASTER":
		return ClassMaster
	case "REFERENCE":
		return ClassReference
	case "TRANSACTIONAL":
		return ClassTransactional
	default:
		return ClassOther
	}
}

// Table describes one relational table.
type Table struct {
	Name           string
	Classification Classification
}

// Column describes a table column.
type Column struct {
	Name      string
	Type      string
	Nullable  bool
	Default   string
	MaxLength *int
	Precision *int
	Scale     *int

	// Derived from the owning Structure; see Structure.DeriveKeys.
	IsPK bool
	IsFK bool
}

// ForeignKey links a column to a column of another table.
type ForeignKey struct {
	Column    string
	RefTable  string
	RefColumn string
}

// Structure is the introspected shape of a table.
type Structure struct {
	Columns     []Column
	PrimaryKeys []string
	ForeignKeys []ForeignKey
}

// DeriveKeys returns a copy of s whose column IsPK/IsFK flags are recomputed
// from the primary-key set and foreign-key list. extraFK, when non-nil, marks
// additional columns as foreign keys (a resolved FK cache entry counts).
func (s Structure) DeriveKeys(extraFK func(column string) bool) Structure {
	pk := make(map[string]bool, len(s.PrimaryKeys))
	for _, name := range s.PrimaryKeys {
		pk[name] = true
	}
	fk := make(map[string]bool, len(s.ForeignKeys))
	for _, f := range s.ForeignKeys {
		fk[f.Column] = true
	}

	out := Structure{
		Columns:     make([]Column, len(s.Columns)),
		PrimaryKeys: append([]string(nil), s.PrimaryKeys...),
		ForeignKeys: append([]ForeignKey(nil), s.ForeignKeys...),
	}
	for i, c := range s.Columns {
		c.IsPK = pk[c.Name]
		c.IsFK = fk[c.Name] || (extraFK != nil && extraFK(c.Name))
		out.Columns[i] = c
	}
	return out
}

// Column looks up a column by name.
func (s Structure) Column(name string) (Column, bool) {
	for _, c := range s.Columns {
		if c.Name == name {
			return c, true
		}
	}
	return Column{}, false
}

// ForeignKey returns the foreign key declared on column, if any.
func (s Structure) ForeignKey(column string) (ForeignKey, bool) {
	for _, f := range s.ForeignKeys {
		if f.Column == column {
			return f, true
		}
	}
	return ForeignKey{}, false
}

// ColumnNames returns the column names in declaration order.
func (s Structure) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// PrimaryKey returns the single primary-key column. ok is false when the
// table has no primary key or a composite one.
func (s Structure) PrimaryKey() (name string, ok bool) {
	if len(s.PrimaryKeys) != 1 {
		return "", false
	}
	return s.PrimaryKeys[0], true
}

// IsEmpty reports whether the structure has no columns.
func (s Structure) IsEmpty() bool {
	return len(s.Columns) == 0
}

// Row maps column names to scalar values (string, number, bool or nil).
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Page is one slice of a table's rows.
type Page struct {
	Columns    []string
	Rows       []Row
	TotalCount int
	Limit      int
	Offset     int
}

package backend

import (
	"encoding/json"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// DefaultReferencedColumn is assumed when a foreign key omits
// referenced_column.
const DefaultReferencedColumn = "id"

// JSON shapes of the table API. The reference server encodes the same types.

type TableJSON struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type TablesResponse struct {
	Tables []TableJSON `json:"tables"`
}

type ColumnJSON struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Nullable  bool   `json:"nullable"`
	MaxLength *int   `json:"max_length"`
	Precision *int   `json:"precision"`
	Scale     *int   `json:"scale"`
	Default   any    `json:"default"`
}

type ForeignKeyJSON struct {
	Column           string `json:"column"`
	ReferencedTable  string `json:"referenced_table"`
	ReferencedColumn string `json:"referenced_column"`
}

type StructureResponse struct {
	Columns     []ColumnJSON     `json:"columns"`
	PrimaryKeys []string         `json:"primary_keys"`
	ForeignKeys []ForeignKeyJSON `json:"foreign_keys"`
	ColumnCount int              `json:"column_count"`
}

type LabelsResponse struct {
	Labels map[string]string `json:"labels"`
}

type DescriptionsResponse struct {
	Descriptions map[string]string `json:"descriptions"`
}

type Pagination struct {
	TotalRows  int `json:"total_rows"`
	TotalPages int `json:"total_pages"`
	Limit      int `json:"limit,omitempty"`
	Offset     int `json:"offset,omitempty"`
}

type PageResponse struct {
	Columns    []string         `json:"columns"`
	Data       []map[string]any `json:"data"`
	Pagination Pagination       `json:"pagination"`
}

type ErrorResponse struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// ToStructure converts the wire structure into a schema.Structure with
// IsPK/IsFK derived.
func (r StructureResponse) ToStructure() schema.Structure {
	s := schema.Structure{
		Columns:     make([]schema.Column, 0, len(r.Columns)),
		PrimaryKeys: append([]string(nil), r.PrimaryKeys...),
		ForeignKeys: make([]schema.ForeignKey, 0, len(r.ForeignKeys)),
	}
	for _, c := range r.Columns {
		s.Columns = append(s.Columns, schema.Column{
			Name:      c.Name,
			Type:      c.Type,
			Nullable:  c.Nullable,
			MaxLength: c.MaxLength,
			Precision: c.Precision,
			Scale:     c.Scale,
			Default:   schema.FormatValue(c.Default),
		})
	}
	for _, f := range r.ForeignKeys {
		ref := f.ReferencedColumn
		if ref == "" {
			ref = DefaultReferencedColumn
		}
		s.ForeignKeys = append(s.ForeignKeys, schema.ForeignKey{
			Column:    f.Column,
			RefTable:  f.ReferencedTable,
			RefColumn: ref,
		})
	}
	return s.DeriveKeys(nil)
}

// FromStructure is the inverse of ToStructure.
func FromStructure(s schema.Structure) StructureResponse {
	r := StructureResponse{
		Columns:     make([]ColumnJSON, 0, len(s.Columns)),
		PrimaryKeys: append([]string{}, s.PrimaryKeys...),
		ForeignKeys: make([]ForeignKeyJSON, 0, len(s.ForeignKeys)),
		ColumnCount: len(s.Columns),
	}
	for _, c := range s.Columns {
		var def any
		if c.Default != "" {
			def = c.Default
		}
		r.Columns = append(r.Columns, ColumnJSON{
			Name:      c.Name,
			Type:      c.Type,
			Nullable:  c.Nullable,
			MaxLength: c.MaxLength,
			Precision: c.Precision,
			Scale:     c.Scale,
			Default:   def,
		})
	}
	for _, f := range s.ForeignKeys {
		r.ForeignKeys = append(r.ForeignKeys, ForeignKeyJSON{
			Column:           f.Column,
			ReferencedTable:  f.RefTable,
			ReferencedColumn: f.RefColumn,
		})
	}
	return r
}

// normalizeRow turns decoder output into row scalars: json.Number becomes
// int64 when integral and float64 otherwise; nested values are kept as
// their JSON text.
func normalizeRow(in map[string]any) schema.Row {
	out := make(schema.Row, len(in))
	for k, v := range in {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return i
		}
		if f, err := val.Float64(); err == nil {
			return f
		}
		return val.String()
	case map[string]any, []any:
		b, err := json.Marshal(val)
		if err != nil {
			return nil
		}
		return string(b)
	default:
		return val
	}
}

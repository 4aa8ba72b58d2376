package schema

import (
	"encoding/json"
	"testing"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		typ  string
		want TypeKind
	}{
		{"boolean", KindBoolean},
		{"BOOL", KindBoolean},
		{"tinyint(1)", KindBoolean},
		{"date", KindDate},
		{"timestamp without time zone", KindDate},
		{"datetime", KindDate},
		{"integer", KindNumeric},
		{"bigint", KindNumeric},
		{"numeric(12,2)", KindNumeric},
		{"decimal", KindNumeric},
		{"double precision", KindNumeric},
		{"real", KindNumeric},
		{"interval", KindText},
		{"point", KindText},
		{"character varying(255)", KindText},
		{"text", KindText},
		{"", KindText},
	}
	for _, tt := range tests {
		t.Run(tt.typ, func(t *testing.T) {
			if got := KindOf(tt.typ); got != tt.want {
				t.Errorf("KindOf(%q) = %v, want %v", tt.typ, got, tt.want)
			}
		})
	}
}

func TestIsIntegerType(t *testing.T) {
	if !IsIntegerType("INTEGER") || !IsIntegerType("bigint") {
		t.Error("integer types not detected")
	}
	if IsIntegerType("numeric(10,2)") || IsIntegerType("interval") {
		t.Error("non-integer types detected as integer")
	}
}

func TestFormatValue(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"whole float", float64(7), "7"},
		{"fraction", 7.25, "7.25"},
		{"int64", int64(42), "42"},
		{"json number", json.Number("12"), "12"},
		{"bool", true, "true"},
		{"bytes", []byte("x"), "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatValue(tt.in); got != tt.want {
				t.Errorf("FormatValue(%v) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLooseEqual(t *testing.T) {
	tests := []struct {
		a, b any
		want bool
	}{
		{7, "7", true},
		{float64(7), json.Number("7"), true},
		{"7.0", 7, true},
		{" 7 ", "7", true},
		{"7", "8", false},
		{"abc", "abc", true},
		{nil, nil, true},
		{nil, "", false},
	}
	for _, tt := range tests {
		if got := LooseEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("LooseEqual(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDeriveKeys(t *testing.T) {
	s := Structure{
		Columns: []Column{
			{Name: "id", Type: "integer", IsFK: true},
			{Name: "idClient", Type: "integer"},
			{Name: "idLegacy", Type: "integer"},
			{Name: "nom", Type: "text", IsPK: true},
		},
		PrimaryKeys: []string{"id"},
		ForeignKeys: []ForeignKey{{Column: "idClient", RefTable: "clients", RefColumn: "id"}},
	}

	got := s.DeriveKeys(func(c string) bool { return c == "idLegacy" })
	want := map[string][2]bool{
		"id":       {true, false},
		"idClient": {false, true},
		"idLegacy": {false, true},
		"nom":      {false, false},
	}
	for _, c := range got.Columns {
		w := want[c.Name]
		if c.IsPK != w[0] || c.IsFK != w[1] {
			t.Errorf("%s: IsPK=%v IsFK=%v, want %v %v", c.Name, c.IsPK, c.IsFK, w[0], w[1])
		}
	}
	if s.Columns[0].IsPK {
		t.Error("DeriveKeys mutated its receiver")
	}
}

func TestPrimaryKey(t *testing.T) {
	if _, ok := (Structure{PrimaryKeys: []string{"a", "b"}}).PrimaryKey(); ok {
		t.Error("composite key should not report a single primary key")
	}
	if name, ok := (Structure{PrimaryKeys: []string{"id"}}).PrimaryKey(); !ok || name != "id" {
		t.Errorf("PrimaryKey = %q, %v", name, ok)
	}
}

func TestParseClassification(t *testing.T) {
	if ParseClassification("reference") != ClassReference {
		t.Error("case-insensitive parse failed")
	}
	if ParseClassification("weird") != ClassOther {
		t.Error("unknown should be OTHER")
	}
	if ClassTransactional.String() != "TRANSACTIONAL" {
		t.Error("String mismatch")
	}
}

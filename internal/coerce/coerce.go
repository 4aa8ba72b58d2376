// Package coerce converts raw form values into a typed payload for the
// backend. It never fails: values it cannot convert are either passed
// through or dropped, and reported as issues.
package coerce

import (
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/elarabyomar/PFA-sub000/internal/apperr"
	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// DateLayout is the wire format for date and timestamp columns.
const DateLayout = "2006-01-02"

// dateLayouts are tried in order when parsing user input.
var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
}

var (
	trueWords  = map[string]bool{"OUI": true, "YES": true, "TRUE": true}
	falseWords = map[string]bool{"NON": true, "NO": true, "FALSE": true}
)

// Options control the empty-value policy.
type Options struct {
	// ExplicitNull sends null for empty values of nullable columns instead
	// of omitting them.
	ExplicitNull bool
	// SkipPrimaryKeys leaves primary-key columns out of the payload.
	SkipPrimaryKeys bool
}

// Result is the outcome of Apply.
type Result struct {
	Payload map[string]any
	Issues  []*apperr.CoercionIssue
}

// Err joins the issues into a single error, nil when there are none.
func (r Result) Err() error {
	if len(r.Issues) == 0 {
		return nil
	}
	errs := make([]error, len(r.Issues))
	for i, is := range r.Issues {
		errs[i] = is
	}
	return errors.Join(errs...)
}

// Apply coerces every column present in state. Columns absent from state
// are left out of the payload. The input map is not modified.
func Apply(state map[string]any, columns []schema.Column, opts Options) Result {
	res := Result{Payload: make(map[string]any, len(state))}
	for _, col := range columns {
		raw, ok := state[col.Name]
		if !ok {
			continue
		}
		if col.IsPK && opts.SkipPrimaryKeys {
			continue
		}
		v, keep, issue := Value(col, raw, opts)
		if issue != nil {
			res.Issues = append(res.Issues, issue)
		}
		if keep {
			res.Payload[col.Name] = v
		}
	}
	return res
}

// Value coerces a single raw value for col. keep is false when the column
// should be omitted from the payload.
func Value(col schema.Column, raw any, opts Options) (v any, keep bool, issue *apperr.CoercionIssue) {
	kind := schema.KindOf(col.Type)
	if kind == schema.KindBoolean {
		return Bool(raw), true, nil
	}

	if schema.IsEmptyValue(raw) {
		if col.Nullable && opts.ExplicitNull {
			return nil, true, nil
		}
		return nil, false, nil
	}

	switch kind {
	case schema.KindDate:
		d, ok := Date(raw)
		if !ok {
			return raw, true, &apperr.CoercionIssue{Column: col.Name, Value: schema.FormatValue(raw), Reason: "unparseable date, sent as is"}
		}
		return d, true, nil
	case schema.KindNumeric:
		n, ok := Number(raw, schema.IsIntegerType(col.Type))
		if !ok {
			return nil, false, &apperr.CoercionIssue{Column: col.Name, Value: schema.FormatValue(raw), Reason: "not a number, omitted"}
		}
		return n, true, nil
	}
	return raw, true, nil
}

// Bool maps OUI/YES/true to true and NON/NO/false to false, case
// insensitively. Anything else, including "", is nil.
func Bool(raw any) any {
	switch v := raw.(type) {
	case bool:
		return v
	case string:
		s := strings.ToUpper(strings.TrimSpace(v))
		switch {
		case trueWords[s]:
			return true
		case falseWords[s]:
			return false
		}
	}
	return nil
}

// Date parses raw as a calendar date and returns it as YYYY-MM-DD.
func Date(raw any) (string, bool) {
	if t, ok := raw.(time.Time); ok {
		return t.Format(DateLayout), true
	}
	s := strings.TrimSpace(schema.FormatValue(raw))
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(DateLayout), true
		}
	}
	return "", false
}

// Number parses raw as a number. Integer columns yield int64 when the value
// is whole; everything else yields float64. A decimal comma is accepted.
func Number(raw any, integer bool) (any, bool) {
	var f float64
	switch v := raw.(type) {
	case int:
		return int64(v), true
	case int64:
		return v, true
	case float64:
		f = v
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		parsed, err := v.Float64()
		if err != nil {
			return nil, false
		}
		f = parsed
	default:
		s := normalizeNumber(schema.FormatValue(raw))
		if integer {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i, true
			}
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
			return nil, false
		}
		f = parsed
	}
	if integer && f == math.Trunc(f) && math.Abs(f) < 1<<53 {
		return int64(f), true
	}
	return f, true
}

func normalizeNumber(s string) string {
	s = strings.TrimSpace(s)
	s = strings.NewReplacer(" ", "", "\u00a0", "", "\u202f", "", "_", "").Replace(s)
	if strings.Contains(s, ",") && !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}

// Render turns a typed value back into the raw form representation that
// Apply accepts. It is the inverse used when a row is loaded into a form.
func Render(col schema.Column, v any) any {
	switch schema.KindOf(col.Type) {
	case schema.KindBoolean:
		switch s := schema.FormatValue(v); s {
		case "1", "t", "T":
			return true
		case "0", "f", "F":
			return false
		default:
			return Bool(s)
		}
	case schema.KindDate:
		if v == nil {
			return ""
		}
		if d, ok := Date(v); ok {
			return d
		}
		s := schema.FormatValue(v)
		if len(s) >= len(DateLayout) {
			if _, err := time.Parse(DateLayout, s[:len(DateLayout)]); err == nil {
				return s[:len(DateLayout)]
			}
		}
		return s
	}
	return schema.FormatValue(v)
}

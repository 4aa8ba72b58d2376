package schema

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// TypeKind is the coarse family of a SQL type.
type TypeKind int

const (
	KindText TypeKind = iota
	KindBoolean
	KindDate
	KindNumeric
)

func (k TypeKind) String() string {
	switch k {
	case KindBoolean:
		return "boolean"
	case KindDate:
		return "date"
	case KindNumeric:
		return "numeric"
	default:
		return "text"
	}
}

// KindOf classifies a SQL type name. Checks run boolean, date, numeric in
// that order; everything else is text.
func KindOf(sqlType string) TypeKind {
	t := strings.ToLower(strings.TrimSpace(sqlType))
	switch {
	case t == "":
		return KindText
	case strings.Contains(t, "bool") || t == "bit" || t == "bit(1)" || t == "tinyint(1)":
		return KindBoolean
	case strings.Contains(t, "date") || strings.Contains(t, "timestamp"):
		return KindDate
	case isNumericType(t):
		return KindNumeric
	}
	return KindText
}

func isNumericType(t string) bool {
	if strings.Contains(t, "interval") || strings.Contains(t, "point") {
		return false
	}
	for _, s := range []string{"int", "numeric", "decimal", "float", "double", "real", "money"} {
		if strings.Contains(t, s) {
			return true
		}
	}
	return false
}

// IsIntegerType reports whether sqlType is an integer family type.
func IsIntegerType(sqlType string) bool {
	t := strings.ToLower(sqlType)
	return KindOf(t) == KindNumeric && strings.Contains(t, "int")
}

// FormatValue renders a scalar the way it is shown to users and compared
// across wire representations. nil renders as the empty string.
func FormatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case json.Number:
		return val.String()
	case bool:
		if val {
			return "true"
		}
		return "false"
	case float64:
		return formatFloat(val)
	case float32:
		return formatFloat(float64(val))
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case int32:
		return strconv.FormatInt(int64(val), 10)
	case uint64:
		return strconv.FormatUint(val, 10)
	case []byte:
		return string(val)
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return ""
		}
		return string(b)
	}
}

func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e15 {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// LooseEqual compares two scalars across string and number representations,
// so 7, 7.0, "7" and json.Number("7") are all equal.
func LooseEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	as, bs := strings.TrimSpace(FormatValue(a)), strings.TrimSpace(FormatValue(b))
	if as == bs {
		return true
	}
	af, aerr := strconv.ParseFloat(as, 64)
	bf, berr := strconv.ParseFloat(bs, 64)
	return aerr == nil && berr == nil && af == bf
}

// IsEmptyValue reports whether v is nil or a blank string.
func IsEmptyValue(v any) bool {
	if v == nil {
		return true
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s) == ""
	}
	return false
}

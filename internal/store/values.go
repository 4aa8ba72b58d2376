package store

import (
	"database/sql"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/elarabyomar/PFA-sub000/internal/schema"
)

// normalizeValue converts a scanned driver value to a JSON scalar.
func normalizeValue(v any) any {
	switch val := v.(type) {
	case nil, string, bool, int64, float64:
		return val
	case []byte:
		if utf8.Valid(val) {
			return string(val)
		}
		return fmt.Sprintf("%x", val)
	case time.Time:
		if val.Hour() == 0 && val.Minute() == 0 && val.Second() == 0 && val.Nanosecond() == 0 {
			return val.Format("2006-01-02")
		}
		return val.Format(time.RFC3339)
	case int:
		return int64(val)
	case int8:
		return int64(val)
	case int16:
		return int64(val)
	case int32:
		return int64(val)
	case uint8:
		return int64(val)
	case uint16:
		return int64(val)
	case uint32:
		return int64(val)
	case uint64:
		return val
	case float32:
		return float64(val)
	case *big.Int:
		return val.String()
	case [16]byte:
		// UUID
		return fmt.Sprintf("%x-%x-%x-%x-%x", val[0:4], val[4:6], val[6:8], val[8:10], val[10:16])
	case fmt.Stringer:
		return val.String()
	default:
		return fmt.Sprintf("%v", v)
	}
}

func normalizeRow(values map[string]any) schema.Row {
	row := make(schema.Row, len(values))
	for k, v := range values {
		row[k] = normalizeValue(v)
	}
	return row
}

// typeParams extracts the length or precision/scale from a declared type
// such as VARCHAR(120) or DECIMAL(10,2).
func typeParams(sqlType string) (length, precision, scale *int) {
	open := strings.Index(sqlType, "(")
	end := strings.LastIndex(sqlType, ")")
	if open < 0 || end <= open {
		return nil, nil, nil
	}
	parts := strings.Split(sqlType[open+1:end], ",")
	nums := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, nil, nil
		}
		nums = append(nums, n)
	}
	switch schema.KindOf(sqlType) {
	case schema.KindText:
		if len(nums) == 1 {
			return &nums[0], nil, nil
		}
	case schema.KindNumeric:
		if schema.IsIntegerType(sqlType) {
			return nil, nil, nil
		}
		precision = &nums[0]
		if len(nums) > 1 {
			scale = &nums[1]
		}
		return nil, precision, scale
	}
	return nil, nil, nil
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

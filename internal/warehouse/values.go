package warehouse

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/civil"
)

// ConvertValue coerces a raw driver value to the canonical Go type of the
// column. Values that cannot be coerced are returned unchanged.
func ConvertValue(columnType ColumnType, value any) any {
	if value == nil {
		return nil
	}
	switch columnType {
	case TypeInt64:
		if v, ok := toInt64(value); ok {
			return v
		}
	case TypeFloat64:
		if v, ok := AsFloat64(value); ok {
			return v
		}
	case TypeNumeric:
		if v, ok := toRat(value); ok {
			return v
		}
	case TypeBool:
		if v, ok := value.(bool); ok {
			return v
		}
	case TypeBytes:
		switch v := value.(type) {
		case []byte:
			return append([]byte(nil), v...)
		case string:
			return []byte(v)
		}
	case TypeString, TypeGeography:
		switch v := value.(type) {
		case string:
			return v
		case []byte:
			return string(v)
		case fmt.Stringer:
			return v.String()
		default:
			return fmt.Sprint(v)
		}
	case TypeTimestamp:
		if v, ok := value.(time.Time); ok {
			return v.UTC()
		}
	case TypeDateTime:
		switch v := value.(type) {
		case time.Time:
			return civil.DateTimeOf(v)
		case civil.DateTime:
			return v
		}
	case TypeDate:
		switch v := value.(type) {
		case time.Time:
			return civil.DateOf(v)
		case civil.Date:
			return v
		}
	case TypeTime:
		switch v := value.(type) {
		case time.Time:
			return civil.TimeOf(v)
		case string:
			if parsed, err := civil.ParseTime(v); err == nil {
				return parsed
			}
		}
	case TypeOther:
		if v, ok := value.([]byte); ok {
			return string(v)
		}
	}
	return value
}

// AsFloat64 reads any numeric cell as a float64.
func AsFloat64(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int64:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int16:
		return float64(v), true
	case int8:
		return float64(v), true
	case uint64:
		return float64(v), true
	case uint32:
		return float64(v), true
	case *big.Rat:
		if v == nil {
			return 0, false
		}
		f, _ := v.Float64()
		return f, true
	case *big.Int:
		if v == nil {
			return 0, false
		}
		f, _ := new(big.Float).SetInt(v).Float64()
		return f, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	case []byte:
		f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func toInt64(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case int16:
		return int64(v), true
	case int8:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint64:
		if v > 1<<63-1 {
			return 0, false
		}
		return int64(v), true
	case *big.Int:
		if v == nil || !v.IsInt64() {
			return 0, false
		}
		return v.Int64(), true
	case []byte:
		parsed, err := strconv.ParseInt(string(v), 10, 64)
		return parsed, err == nil
	case string:
		parsed, err := strconv.ParseInt(v, 10, 64)
		return parsed, err == nil
	default:
		return 0, false
	}
}

func toRat(value any) (*big.Rat, bool) {
	switch v := value.(type) {
	case *big.Rat:
		return v, v != nil
	case float64:
		r := new(big.Rat)
		if r.SetFloat64(v) == nil {
			return nil, false
		}
		return r, true
	case int64:
		return new(big.Rat).SetInt64(v), true
	case string:
		return new(big.Rat).SetString(strings.TrimSpace(v))
	case []byte:
		return new(big.Rat).SetString(strings.TrimSpace(string(v)))
	case fmt.Stringer:
		return new(big.Rat).SetString(v.String())
	default:
		return nil, false
	}
}

// FormatValue renders a cell for terminal output.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return "<null>"
	case string:
		return v
	case []byte:
		return fmt.Sprintf("0x%x", v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *big.Rat:
		if v == nil {
			return "<null>"
		}
		return v.FloatString(9)
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case civil.DateTime:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

package definition

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Truthy mirrors the emptiness rules webform authors rely on: nil, false, 0,
// "", "0" and empty collections are false, everything else is true.
func Truthy(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case string:
		return v != "" && v != "0"
	case int:
		return v != 0
	case int64:
		return v != 0
	case uint64:
		return v != 0
	case float64:
		return v != 0
	case []any:
		return len(v) > 0
	case *Map:
		return v.Len() > 0
	default:
		return true
	}
}

// ToInt converts integer-like values (ints, whole floats, numeric strings).
func ToInt(value any) (int, bool) {
	switch v := value.(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case uint64:
		return int(v), true
	case float64:
		if v == math.Trunc(v) {
			return int(v), true
		}
		return 0, false
	case float32:
		if v == float32(math.Trunc(float64(v))) {
			return int(v), true
		}
		return 0, false
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

// IsInteger reports whether value was declared as an integer literal. Strings
// and booleans never qualify.
func IsInteger(value any) bool {
	switch v := value.(type) {
	case int, int64, uint64:
		return true
	case float64:
		return v == math.Trunc(v)
	default:
		return false
	}
}

// ToString renders scalars as strings. Maps and lists yield "".
func ToString(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		if v {
			return "1"
		}
		return ""
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case *Map, []any:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// StringList flattens a scalar, list or map of scalars into strings. Maps
// contribute their values in declaration order.
func StringList(value any) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if str := ToString(item); str != "" {
				out = append(out, str)
			}
		}
		return out
	case *Map:
		out := make([]string, 0, v.Len())
		v.Each(func(_ string, item any) bool {
			if str := ToString(item); str != "" {
				out = append(out, str)
			}
			return true
		})
		return out
	default:
		if str := ToString(v); str != "" {
			return []string{str}
		}
		return nil
	}
}

package cim

import (
	"fmt"
	"math"
	"strings"
)

// copyValue deep-copies a CIM value. Values are scalars, instance paths or
// arrays thereof.
func copyValue(v any) any {
	switch val := v.(type) {
	case nil:
		return nil
	case *InstancePath:
		return val.DeepCopy()
	case []any:
		out := make([]any, len(val))
		for i, e := range val {
			out[i] = copyValue(e)
		}
		return out
	default:
		// Scalars are value types.
		return v
	}
}

// ValueCompatible reports whether v can hold a value of the declared CIM
// type. A nil value is compatible with every type. Numeric checks are
// tolerant of the concrete Go type so that JSON-decoded numbers pass.
func ValueCompatible(v any, t Type, isArray bool) bool {
	if v == nil {
		return true
	}
	if isArray {
		arr, ok := v.([]any)
		if !ok {
			return false
		}
		for _, e := range arr {
			if !ValueCompatible(e, t, false) {
				return false
			}
		}
		return true
	}
	switch t {
	case TypeBool:
		_, ok := v.(bool)
		return ok
	case TypeString, TypeChar16, TypeDateTime:
		_, ok := v.(string)
		return ok
	case TypeReference:
		switch v.(type) {
		case *InstancePath, string:
			return true
		}
		return false
	default:
		return t.IsNumeric() && isNumericValue(v)
	}
}

func isNumericValue(v any) bool {
	switch v.(type) {
	case int, int8, int16, int32, int64,
		uint, uint8, uint16, uint32, uint64,
		float32, float64:
		return true
	}
	return false
}

// ValueEqual compares two CIM values. Numbers compare by magnitude across
// concrete Go types; strings compare case-sensitively.
func ValueEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if ap, ok := a.(*InstancePath); ok {
		bp, ok := b.(*InstancePath)
		return ok && ap.Equal(bp)
	}
	if aa, ok := a.([]any); ok {
		ba, ok := b.([]any)
		if !ok || len(aa) != len(ba) {
			return false
		}
		for i := range aa {
			if !ValueEqual(aa[i], ba[i]) {
				return false
			}
		}
		return true
	}
	if af, ok := toFloat(a); ok {
		bf, bok := toFloat(b)
		return bok && af == bf
	}
	return a == b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

// keyValueString renders a key-binding value in a canonical, comparable
// form: strings lower-cased (DSP0004 key comparison is case-insensitive),
// integral numbers without a fraction.
func keyValueString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.ToLower(val)
	case bool:
		return fmt.Sprintf("%t", val)
	case *InstancePath:
		return val.Canonical()
	default:
		if f, ok := toFloat(val); ok {
			if f == math.Trunc(f) {
				return fmt.Sprintf("%d", int64(f))
			}
			return fmt.Sprintf("%g", f)
		}
		return fmt.Sprintf("%v", val)
	}
}

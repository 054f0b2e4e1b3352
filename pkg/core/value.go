package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeValue converts decoded JSON scalars into driver-friendly values:
// json.Number becomes int64 when integral and float64 otherwise, and integral
// float64 values become int64. Other values pass through unchanged.
func NormalizeValue(v any) any {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return n
		}
		if f, err := x.Float64(); err == nil {
			return f
		}
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return int64(x)
		}
		return x
	default:
		return v
	}
}

// ParseNumber interprets v as a number. Strings are parsed after trimming;
// booleans, nil and composite values are rejected.
func ParseNumber(v any) (any, bool) {
	switch x := v.(type) {
	case json.Number:
		return NormalizeValue(x), true
	case float64:
		return NormalizeValue(x), true
	case float32:
		return NormalizeValue(float64(x)), true
	case int:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case string:
		s := strings.TrimSpace(x)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f, true
		}
		return nil, false
	default:
		return nil, false
	}
}

// Package coerce converts loosely typed cell values (database scans, spreadsheet
// cells, JSON form fields) into Go scalars without ever failing.
package coerce

import (
	"math"
	"strings"

	"github.com/spf13/cast"
)

// Float parses v as a float64, returning fallback for missing, non-numeric, NaN or infinite input.
func Float(v interface{}, fallback float64) float64 {
	f, ok := parseFloat(v)
	if !ok {
		return fallback
	}
	return f
}

// Int parses v as an int, returning fallback on failure. Fractional strings such as "3.5"
// are rejected while float inputs are truncated.
func Int(v interface{}, fallback int) int {
	v = normalise(v)
	if v == nil {
		return fallback
	}
	if f, isFloat := v.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return fallback
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return fallback
	}
	return i
}

// String renders v as trimmed text. Missing values become the empty string.
func String(v interface{}) string {
	v = normalise(v)
	if v == nil {
		return ""
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// OptionalFloat returns nil when v is missing or non-numeric.
func OptionalFloat(v interface{}) *float64 {
	f, ok := parseFloat(v)
	if !ok {
		return nil
	}
	return &f
}

// OptionalInt returns nil when v is missing or not an integer.
func OptionalInt(v interface{}) *int {
	v = normalise(v)
	if v == nil {
		return nil
	}
	if f, isFloat := v.(float64); isFloat && (math.IsNaN(f) || math.IsInf(f, 0)) {
		return nil
	}
	i, err := cast.ToIntE(v)
	if err != nil {
		return nil
	}
	return &i
}

// OptionalString returns nil when v is missing.
func OptionalString(v interface{}) *string {
	if normalise(v) == nil {
		return nil
	}
	s := String(v)
	return &s
}

func parseFloat(v interface{}) (float64, bool) {
	v = normalise(v)
	if v == nil {
		return 0, false
	}
	f, err := cast.ToFloat64E(v)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// normalise unwraps driver byte slices and treats blank text as missing.
func normalise(v interface{}) interface{} {
	switch typed := v.(type) {
	case nil:
		return nil
	case []byte:
		return normalise(string(typed))
	case string:
		trimmed := strings.TrimSpace(typed)
		if trimmed == "" {
			return nil
		}
		return trimmed
	case *string:
		if typed == nil {
			return nil
		}
		return normalise(*typed)
	case *float64:
		if typed == nil {
			return nil
		}
		return *typed
	case *int:
		if typed == nil {
			return nil
		}
		return *typed
	default:
		return v
	}
}

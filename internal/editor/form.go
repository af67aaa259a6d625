package editor

import (
	"math"

	"github.com/noah-isme/scas-api/pkg/coerce"
)

// Form holds the raw values submitted for a single record, keyed by column name.
type Form map[string]interface{}

type bounds struct {
	lo, hi float64
}

var nonNegative = bounds{lo: 0, hi: math.Inf(1)}

func (b bounds) clampFloat(v float64) float64 {
	return math.Min(math.Max(v, b.lo), b.hi)
}

func (b bounds) clampInt(v int) int {
	return int(b.clampFloat(float64(v)))
}

// text overlays the form value on the existing one.
func (f Form) text(field, existing string) string {
	if raw, ok := f[field]; ok && raw != nil {
		return coerce.String(raw)
	}
	return existing
}

// float parses the form value, then the existing value, then the default, and clamps the result.
func (f Form) float(field string, existing *float64, def float64, b bounds) float64 {
	fallback := def
	if existing != nil {
		fallback = *existing
	}
	value := fallback
	if raw, ok := f[field]; ok {
		value = coerce.Float(raw, fallback)
	}
	return b.clampFloat(value)
}

func (f Form) integer(field string, existing *int, def int, b bounds) int {
	fallback := def
	if existing != nil {
		fallback = *existing
	}
	value := fallback
	if raw, ok := f[field]; ok {
		value = coerce.Int(raw, fallback)
	}
	return b.clampInt(value)
}

// choice keeps the value when it is a recognised option, otherwise the first option.
func (f Form) choice(field, existing string, options []string) string {
	value := f.text(field, existing)
	for _, option := range options {
		if value == option {
			return option
		}
	}
	return options[0]
}

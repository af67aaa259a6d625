package models

import "github.com/noah-isme/scas-api/pkg/coerce"

// Missing holds the required numeric columns whose stored cell was NULL or not a number.
// The zero value means every column is present.
type Missing map[string]struct{}

// MissingColumns builds a Missing set from column names.
func MissingColumns(columns ...string) Missing {
	m := make(Missing, len(columns))
	for _, col := range columns {
		m[col] = struct{}{}
	}
	return m
}

// Has reports whether column had no usable value.
func (m Missing) Has(column string) bool {
	_, ok := m[column]
	return ok
}

// cell returns v, or nil when column is missing so the value persists as NULL.
func (m Missing) cell(column string, v interface{}) interface{} {
	if m.Has(column) {
		return nil
	}
	return v
}

// numericDecoder reads required numerics from a row, remembering the absent ones.
type numericDecoder struct {
	row     Row
	missing Missing
}

func (d *numericDecoder) float(column string) float64 {
	f := coerce.OptionalFloat(d.row[column])
	if f == nil {
		d.mark(column)
		return 0
	}
	return *f
}

func (d *numericDecoder) integer(column string) int {
	i := coerce.OptionalInt(d.row[column])
	if i == nil {
		d.mark(column)
		return 0
	}
	return *i
}

func (d *numericDecoder) mark(column string) {
	if d.missing == nil {
		d.missing = Missing{}
	}
	d.missing[column] = struct{}{}
}

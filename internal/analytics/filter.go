package analytics

import (
	"sort"
	"strconv"

	"github.com/noah-isme/scas-api/internal/models"
)

// Filterable exposes the string form of a record's filter fields.
type Filterable interface {
	FieldValue(field string) (string, bool)
}

// Apply keeps the records matching every active field of the selection.
// Values within a field are OR'ed, fields are AND'ed. Fields the schema lacks and
// fields with no selected values are ignored. Input order is preserved.
func Apply[T Filterable](records []T, schema models.Schema, selection models.Selection) []T {
	active := make(map[string]map[string]struct{}, len(selection))
	for field, values := range selection {
		if len(values) == 0 || !schema.Has(field) {
			continue
		}
		set := make(map[string]struct{}, len(values))
		for _, v := range values {
			set[v] = struct{}{}
		}
		active[field] = set
	}

	out := make([]T, 0, len(records))
	for _, record := range records {
		if matches(record, active) {
			out = append(out, record)
		}
	}
	return out
}

func matches(record Filterable, active map[string]map[string]struct{}) bool {
	for field, allowed := range active {
		value, ok := record.FieldValue(field)
		if !ok {
			return false
		}
		if _, hit := allowed[value]; !hit {
			return false
		}
	}
	return true
}

// Options lists the distinct values of each filter field present in the schema.
// Numeric fields sort numerically, everything else lexically.
func Options[T Filterable](records []T, schema models.Schema, fields []string) models.FilterOptions {
	options := make(models.FilterOptions, len(fields))
	for _, field := range fields {
		if !schema.Has(field) {
			continue
		}
		seen := make(map[string]struct{})
		values := make([]string, 0)
		for _, record := range records {
			value, ok := record.FieldValue(field)
			if !ok || value == "" {
				continue
			}
			if _, dup := seen[value]; dup {
				continue
			}
			seen[value] = struct{}{}
			values = append(values, value)
		}
		sortValues(values)
		options[field] = values
	}
	return options
}

func sortValues(values []string) {
	for _, v := range values {
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			sort.Strings(values)
			return
		}
	}
	sort.SliceStable(values, func(i, j int) bool {
		a, _ := strconv.ParseFloat(values[i], 64)
		b, _ := strconv.ParseFloat(values[j], 64)
		return a < b
	})
}

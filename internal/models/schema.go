package models

// Schema records which columns a loaded collection actually carries.
// It is built once per load so metrics and filters never look up column names row by row.
type Schema struct {
	Entity  Entity
	columns map[string]struct{}
}

// NewSchema builds a schema from the column names returned by the store.
func NewSchema(entity Entity, columns []string) Schema {
	set := make(map[string]struct{}, len(columns))
	for _, col := range columns {
		set[col] = struct{}{}
	}
	return Schema{Entity: entity, columns: set}
}

// FullSchema returns a schema where every declared column is present.
func FullSchema(entity Entity) Schema {
	return NewSchema(entity, entity.Spec().ColumnNames())
}

// Has reports whether the column is present.
func (s Schema) Has(column string) bool {
	_, ok := s.columns[column]
	return ok
}

// MissingOptional lists declared optional columns absent from the collection.
func (s Schema) MissingOptional() []string {
	var missing []string
	for _, col := range s.Entity.Spec().Columns {
		if col.Optional && !s.Has(col.Name) {
			missing = append(missing, col.Name)
		}
	}
	return missing
}

// MissingRequired lists declared required columns absent from the collection.
func (s Schema) MissingRequired() []string {
	var missing []string
	for _, col := range s.Entity.Spec().Columns {
		if !col.Optional && !s.Has(col.Name) {
			missing = append(missing, col.Name)
		}
	}
	return missing
}

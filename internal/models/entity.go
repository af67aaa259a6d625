package models

import (
	"sort"
	"strings"
)

// Entity names one of the three campus collections.
type Entity string

const (
	EntityStudents   Entity = "students"
	EntityFaculty    Entity = "faculty"
	EntityFacilities Entity = "facilities"
)

// ColumnKind describes the storage type of a column.
type ColumnKind string

const (
	KindText    ColumnKind = "TEXT"
	KindInteger ColumnKind = "INTEGER"
	KindReal    ColumnKind = "DOUBLE PRECISION"
)

// Column describes one column of an entity table.
type Column struct {
	Name     string
	Kind     ColumnKind
	Key      bool
	Optional bool
}

// EntitySpec is the static descriptor of an entity collection.
type EntitySpec struct {
	Entity       Entity
	Table        string
	KeyColumn    string
	KeyPrefix    string
	Columns      []Column
	FilterFields []string
}

// Student filter and column names.
const (
	ColStudentID         = "StudentID"
	ColName              = "Name"
	ColProgram           = "Program"
	ColYear              = "Year"
	ColCGPA              = "CGPA"
	ColAttendancePercent = "AttendancePercent"
	ColStatus            = "Status"
	ColGender            = "Gender"
	ColTotalFeeINR       = "TotalFeeINR"
	ColFeePaidINR        = "FeePaidINR"
	ColPendingFeeINR     = "PendingFeeINR"
	ColFeeStatus         = "FeeStatus"
)

// Faculty column names.
const (
	ColFacultyID               = "FacultyID"
	ColDepartment              = "Department"
	ColExperienceYears         = "ExperienceYears"
	ColBaseSalaryINR           = "BaseSalaryINR"
	ColBonusINR                = "BonusINR"
	ColNetPayINR               = "NetPayINR"
	ColTotalHoursPerWeek       = "TotalHoursPerWeek"
	ColClassesHandled          = "ClassesHandled"
	ColStudentsPerClass        = "StudentsPerClass"
	ColQualification           = "Qualification"
	ColIsClassAdvisor          = "IsClassAdvisor"
	ColResearchPapersPublished = "ResearchPapersPublished"
)

// Facility column names.
const (
	ColFacilityID        = "FacilityID"
	ColFacilityType      = "FacilityType"
	ColCapacity          = "Capacity"
	ColAverageDailyUsers = "AverageDailyUsers"
	ColUsageHoursPerDay  = "UsageHoursPerDay"
	ColMaintenanceStatus = "MaintenanceStatus"
	ColLocation          = "Location"
)

var entitySpecs = map[Entity]EntitySpec{
	EntityStudents: {
		Entity:    EntityStudents,
		Table:     "Students",
		KeyColumn: ColStudentID,
		KeyPrefix: "STU",
		Columns: []Column{
			{Name: ColStudentID, Kind: KindText, Key: true},
			{Name: ColName, Kind: KindText},
			{Name: ColProgram, Kind: KindText},
			{Name: ColYear, Kind: KindInteger, Optional: true},
			{Name: ColCGPA, Kind: KindReal},
			{Name: ColAttendancePercent, Kind: KindReal},
			{Name: ColStatus, Kind: KindText},
			{Name: ColGender, Kind: KindText},
			{Name: ColTotalFeeINR, Kind: KindReal, Optional: true},
			{Name: ColFeePaidINR, Kind: KindReal, Optional: true},
			{Name: ColPendingFeeINR, Kind: KindReal, Optional: true},
			{Name: ColFeeStatus, Kind: KindText, Optional: true},
		},
		FilterFields: []string{ColYear, ColProgram, ColStatus},
	},
	EntityFaculty: {
		Entity:    EntityFaculty,
		Table:     "Faculty",
		KeyColumn: ColFacultyID,
		KeyPrefix: "FAC",
		Columns: []Column{
			{Name: ColFacultyID, Kind: KindText, Key: true},
			{Name: ColName, Kind: KindText},
			{Name: ColDepartment, Kind: KindText},
			{Name: ColExperienceYears, Kind: KindReal},
			{Name: ColBaseSalaryINR, Kind: KindReal},
			{Name: ColBonusINR, Kind: KindReal},
			{Name: ColNetPayINR, Kind: KindReal},
			{Name: ColTotalHoursPerWeek, Kind: KindReal},
			{Name: ColClassesHandled, Kind: KindInteger},
			{Name: ColStudentsPerClass, Kind: KindInteger},
			{Name: ColQualification, Kind: KindText},
			{Name: ColIsClassAdvisor, Kind: KindText},
			{Name: ColResearchPapersPublished, Kind: KindInteger, Optional: true},
		},
		FilterFields: []string{ColDepartment},
	},
	EntityFacilities: {
		Entity:    EntityFacilities,
		Table:     "Facilities",
		KeyColumn: ColFacilityID,
		KeyPrefix: "FCL",
		Columns: []Column{
			{Name: ColFacilityID, Kind: KindText, Key: true},
			{Name: ColFacilityType, Kind: KindText},
			{Name: ColCapacity, Kind: KindInteger},
			{Name: ColAverageDailyUsers, Kind: KindInteger},
			{Name: ColUsageHoursPerDay, Kind: KindReal},
			{Name: ColMaintenanceStatus, Kind: KindText},
			{Name: ColLocation, Kind: KindText, Optional: true},
		},
		FilterFields: []string{ColFacilityType, ColMaintenanceStatus},
	},
}

// Entities lists all collections in display order.
func Entities() []Entity {
	return []Entity{EntityStudents, EntityFaculty, EntityFacilities}
}

// ParseEntity resolves a path or query value into an Entity.
func ParseEntity(raw string) (Entity, bool) {
	entity := Entity(strings.ToLower(strings.TrimSpace(raw)))
	_, ok := entitySpecs[entity]
	return entity, ok
}

// Spec returns the descriptor of the entity. Unknown entities yield a zero spec.
func (e Entity) Spec() EntitySpec {
	return entitySpecs[e]
}

// ColumnNames returns the declared column names in declaration order.
func (s EntitySpec) ColumnNames() []string {
	names := make([]string, 0, len(s.Columns))
	for _, col := range s.Columns {
		names = append(names, col.Name)
	}
	return names
}

// Row is a single untyped record keyed by column name.
type Row map[string]interface{}

// Project keeps only the columns listed, returning them in a new Row.
func (r Row) Project(columns []string) Row {
	out := make(Row, len(columns))
	for _, col := range columns {
		if v, ok := r[col]; ok {
			out[col] = v
		}
	}
	return out
}

// Columns returns the row keys ordered by the entity declaration; unknown keys follow alphabetically.
func (r Row) Columns(spec EntitySpec) []string {
	ordered := make([]string, 0, len(r))
	seen := make(map[string]struct{}, len(r))
	for _, col := range spec.Columns {
		if _, ok := r[col.Name]; ok {
			ordered = append(ordered, col.Name)
			seen[col.Name] = struct{}{}
		}
	}
	var extra []string
	for col := range r {
		if _, ok := seen[col]; !ok {
			extra = append(extra, col)
		}
	}
	sort.Strings(extra)
	return append(ordered, extra...)
}

// Table is a full scan of one entity collection in store order.
type Table struct {
	Entity  Entity
	Columns []string
	Rows    []Row
}

// Schema returns the column presence descriptor for the scanned table.
func (t Table) Schema() Schema {
	return NewSchema(t.Entity, t.Columns)
}

// Record is implemented by the typed entity records.
type Record interface {
	Entity() Entity
	Key() string
	Row() Row
}

package models

import "github.com/noah-isme/scas-api/pkg/coerce"

// Class advisor flag values.
const (
	AdvisorYes = "Yes"
	AdvisorNo  = "No"
)

// Faculty is a staff row from the Faculty table.
type Faculty struct {
	FacultyID               string  `json:"FacultyID" validate:"required"`
	Name                    string  `json:"Name"`
	Department              string  `json:"Department"`
	ExperienceYears         float64 `json:"ExperienceYears" validate:"min=0,max=60"`
	BaseSalaryINR           float64 `json:"BaseSalaryINR" validate:"min=0"`
	BonusINR                float64 `json:"BonusINR" validate:"min=0"`
	NetPayINR               float64 `json:"NetPayINR" validate:"min=0"`
	TotalHoursPerWeek       float64 `json:"TotalHoursPerWeek" validate:"min=0"`
	ClassesHandled          int     `json:"ClassesHandled" validate:"min=0"`
	StudentsPerClass        int     `json:"StudentsPerClass" validate:"min=0"`
	Qualification           string  `json:"Qualification"`
	IsClassAdvisor          string  `json:"IsClassAdvisor" validate:"oneof=Yes No"`
	ResearchPapersPublished *int    `json:"ResearchPapersPublished" validate:"omitempty,min=0"`
	Missing                 Missing `json:"-" validate:"-"`
}

// FacultyFromRow decodes a stored row. Unusable pay, hours and class numerics decode
// to zero and are listed in Missing.
func FacultyFromRow(row Row) Faculty {
	d := numericDecoder{row: row}
	f := Faculty{
		FacultyID:               coerce.String(row[ColFacultyID]),
		Name:                    coerce.String(row[ColName]),
		Department:              coerce.String(row[ColDepartment]),
		ExperienceYears:         d.float(ColExperienceYears),
		BaseSalaryINR:           d.float(ColBaseSalaryINR),
		BonusINR:                d.float(ColBonusINR),
		NetPayINR:               d.float(ColNetPayINR),
		TotalHoursPerWeek:       d.float(ColTotalHoursPerWeek),
		ClassesHandled:          d.integer(ColClassesHandled),
		StudentsPerClass:        d.integer(ColStudentsPerClass),
		Qualification:           coerce.String(row[ColQualification]),
		IsClassAdvisor:          coerce.String(row[ColIsClassAdvisor]),
		ResearchPapersPublished: coerce.OptionalInt(row[ColResearchPapersPublished]),
	}
	f.Missing = d.missing
	return f
}

// FacultyFromTable decodes every row of a Faculty scan.
func FacultyFromTable(table Table) []Faculty {
	out := make([]Faculty, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, FacultyFromRow(row))
	}
	return out
}

func (Faculty) Entity() Entity { return EntityFaculty }

func (f Faculty) Key() string { return f.FacultyID }

func (f Faculty) Row() Row {
	return Row{
		ColFacultyID:               f.FacultyID,
		ColName:                    f.Name,
		ColDepartment:              f.Department,
		ColExperienceYears:         f.Missing.cell(ColExperienceYears, f.ExperienceYears),
		ColBaseSalaryINR:           f.Missing.cell(ColBaseSalaryINR, f.BaseSalaryINR),
		ColBonusINR:                f.Missing.cell(ColBonusINR, f.BonusINR),
		ColNetPayINR:               f.Missing.cell(ColNetPayINR, f.NetPayINR),
		ColTotalHoursPerWeek:       f.Missing.cell(ColTotalHoursPerWeek, f.TotalHoursPerWeek),
		ColClassesHandled:          f.Missing.cell(ColClassesHandled, f.ClassesHandled),
		ColStudentsPerClass:        f.Missing.cell(ColStudentsPerClass, f.StudentsPerClass),
		ColQualification:           f.Qualification,
		ColIsClassAdvisor:          f.IsClassAdvisor,
		ColResearchPapersPublished: intOrNil(f.ResearchPapersPublished),
	}
}

// FieldValue returns the string form of a filterable field.
func (f Faculty) FieldValue(field string) (string, bool) {
	switch field {
	case ColDepartment:
		return f.Department, true
	case ColIsClassAdvisor:
		return f.IsClassAdvisor, true
	default:
		return "", false
	}
}

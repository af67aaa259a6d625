package models

import (
	"strconv"

	"github.com/noah-isme/scas-api/pkg/coerce"
)

// Student status, gender and fee status values.
const (
	StudentStatusActive    = "Active"
	StudentStatusGraduated = "Graduated"
	StudentStatusDropped   = "Dropped"

	GenderMale   = "Male"
	GenderFemale = "Female"

	FeeStatusPaid    = "Paid"
	FeeStatusPending = "Pending"
)

// StudentStatuses lists the recognised statuses; the first one is the fallback.
var StudentStatuses = []string{StudentStatusActive, StudentStatusGraduated, StudentStatusDropped}

// Genders lists the recognised genders; the first one is the fallback.
var Genders = []string{GenderMale, GenderFemale}

// Student is a learner row from the Students table.
type Student struct {
	StudentID         string   `json:"StudentID" validate:"required"`
	Name              string   `json:"Name"`
	Program           string   `json:"Program"`
	Year              *int     `json:"Year" validate:"omitempty,min=1,max=4"`
	CGPA              float64  `json:"CGPA" validate:"min=0,max=10"`
	AttendancePercent float64  `json:"AttendancePercent" validate:"min=0,max=100"`
	Status            string   `json:"Status" validate:"oneof=Active Graduated Dropped"`
	Gender            string   `json:"Gender" validate:"oneof=Male Female"`
	TotalFeeINR       *float64 `json:"TotalFeeINR" validate:"omitempty,min=0"`
	FeePaidINR        *float64 `json:"FeePaidINR" validate:"omitempty,min=0"`
	PendingFeeINR     *float64 `json:"PendingFeeINR"`
	FeeStatus         *string  `json:"FeeStatus" validate:"omitempty,oneof=Paid Pending"`
	Missing           Missing  `json:"-" validate:"-"`
}

// StudentFromRow decodes a stored row. NULL or non-numeric CGPA and attendance cells
// decode to zero and are listed in Missing.
func StudentFromRow(row Row) Student {
	d := numericDecoder{row: row}
	s := Student{
		StudentID:         coerce.String(row[ColStudentID]),
		Name:              coerce.String(row[ColName]),
		Program:           coerce.String(row[ColProgram]),
		Year:              coerce.OptionalInt(row[ColYear]),
		CGPA:              d.float(ColCGPA),
		AttendancePercent: d.float(ColAttendancePercent),
		Status:            coerce.String(row[ColStatus]),
		Gender:            coerce.String(row[ColGender]),
		TotalFeeINR:       coerce.OptionalFloat(row[ColTotalFeeINR]),
		FeePaidINR:        coerce.OptionalFloat(row[ColFeePaidINR]),
		PendingFeeINR:     coerce.OptionalFloat(row[ColPendingFeeINR]),
		FeeStatus:         coerce.OptionalString(row[ColFeeStatus]),
	}
	s.Missing = d.missing
	return s
}

// StudentsFromTable decodes every row of a Students scan.
func StudentsFromTable(table Table) []Student {
	out := make([]Student, 0, len(table.Rows))
	for _, row := range table.Rows {
		out = append(out, StudentFromRow(row))
	}
	return out
}

func (Student) Entity() Entity { return EntityStudents }

func (s Student) Key() string { return s.StudentID }

// Row encodes the student for persistence. Missing values become NULL.
func (s Student) Row() Row {
	return Row{
		ColStudentID:         s.StudentID,
		ColName:              s.Name,
		ColProgram:           s.Program,
		ColYear:              intOrNil(s.Year),
		ColCGPA:              s.Missing.cell(ColCGPA, s.CGPA),
		ColAttendancePercent: s.Missing.cell(ColAttendancePercent, s.AttendancePercent),
		ColStatus:            s.Status,
		ColGender:            s.Gender,
		ColTotalFeeINR:       floatOrNil(s.TotalFeeINR),
		ColFeePaidINR:        floatOrNil(s.FeePaidINR),
		ColPendingFeeINR:     floatOrNil(s.PendingFeeINR),
		ColFeeStatus:         stringOrNil(s.FeeStatus),
	}
}

// FieldValue returns the string form of a filterable field.
func (s Student) FieldValue(field string) (string, bool) {
	switch field {
	case ColYear:
		if s.Year == nil {
			return "", false
		}
		return strconv.Itoa(*s.Year), true
	case ColProgram:
		return s.Program, true
	case ColStatus:
		return s.Status, true
	case ColGender:
		return s.Gender, true
	default:
		return "", false
	}
}

func intOrNil(v *int) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func floatOrNil(v *float64) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

func stringOrNil(v *string) interface{} {
	if v == nil {
		return nil
	}
	return *v
}

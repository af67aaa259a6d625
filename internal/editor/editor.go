// Package editor normalises single-record create and edit payloads before they are stored.
package editor

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/scas-api/internal/models"
)

const defaultStudentYear = 4

var (
	yearBounds       = bounds{lo: 1, hi: 4}
	cgpaBounds       = bounds{lo: 0, hi: 10}
	percentBounds    = bounds{lo: 0, hi: 100}
	experienceBounds = bounds{lo: 0, hi: 60}
)

// Editor turns a form overlaid on an optional existing record into a record ready to persist.
// Bad input never fails. It falls back to the existing value, then the field default.
type Editor struct {
	keys     *KeyGenerator
	validate *validator.Validate
}

// New builds an editor. A nil key generator uses the wall clock.
func New(keys *KeyGenerator) *Editor {
	if keys == nil {
		keys = NewKeyGenerator(nil)
	}
	return &Editor{keys: keys, validate: validator.New()}
}

// PrepareStudent builds the student to persist and derives its fee fields.
func (e *Editor) PrepareStudent(existing *models.Student, form Form) models.Student {
	var base models.Student
	if existing != nil {
		base = *existing
	}

	year := form.integer(models.ColYear, base.Year, defaultStudentYear, yearBounds)
	total := form.float(models.ColTotalFeeINR, base.TotalFeeINR, 0, nonNegative)
	paid := form.float(models.ColFeePaidINR, base.FeePaidINR, 0, nonNegative)
	pending, status := DeriveFees(total, paid)

	student := models.Student{
		StudentID:         e.key(existing != nil, base.StudentID, models.EntityStudents),
		Name:              form.text(models.ColName, base.Name),
		Program:           form.text(models.ColProgram, base.Program),
		Year:              &year,
		CGPA:              form.float(models.ColCGPA, &base.CGPA, 0, cgpaBounds),
		AttendancePercent: form.float(models.ColAttendancePercent, &base.AttendancePercent, 0, percentBounds),
		Status:            form.choice(models.ColStatus, base.Status, models.StudentStatuses),
		Gender:            form.choice(models.ColGender, base.Gender, models.Genders),
		TotalFeeINR:       &total,
		FeePaidINR:        &paid,
		PendingFeeINR:     &pending,
		FeeStatus:         &status,
	}
	return student
}

// PrepareFaculty builds the faculty member to persist.
func (e *Editor) PrepareFaculty(existing *models.Faculty, form Form) models.Faculty {
	var base models.Faculty
	if existing != nil {
		base = *existing
	}

	papers := form.integer(models.ColResearchPapersPublished, base.ResearchPapersPublished, 0, nonNegative)
	advisor := models.AdvisorNo
	if form.text(models.ColIsClassAdvisor, base.IsClassAdvisor) == models.AdvisorYes {
		advisor = models.AdvisorYes
	}

	return models.Faculty{
		FacultyID:               e.key(existing != nil, base.FacultyID, models.EntityFaculty),
		Name:                    form.text(models.ColName, base.Name),
		Department:              form.text(models.ColDepartment, base.Department),
		ExperienceYears:         form.float(models.ColExperienceYears, &base.ExperienceYears, 0, experienceBounds),
		BaseSalaryINR:           form.float(models.ColBaseSalaryINR, &base.BaseSalaryINR, 0, nonNegative),
		BonusINR:                form.float(models.ColBonusINR, &base.BonusINR, 0, nonNegative),
		NetPayINR:               form.float(models.ColNetPayINR, &base.NetPayINR, 0, nonNegative),
		TotalHoursPerWeek:       form.float(models.ColTotalHoursPerWeek, &base.TotalHoursPerWeek, 0, nonNegative),
		ClassesHandled:          form.integer(models.ColClassesHandled, &base.ClassesHandled, 0, nonNegative),
		StudentsPerClass:        form.integer(models.ColStudentsPerClass, &base.StudentsPerClass, 0, nonNegative),
		Qualification:           form.text(models.ColQualification, base.Qualification),
		IsClassAdvisor:          advisor,
		ResearchPapersPublished: &papers,
	}
}

// PrepareFacility builds the facility to persist.
func (e *Editor) PrepareFacility(existing *models.Facility, form Form) models.Facility {
	var base models.Facility
	if existing != nil {
		base = *existing
	}

	facility := models.Facility{
		FacilityID:        e.key(existing != nil, base.FacilityID, models.EntityFacilities),
		FacilityType:      form.text(models.ColFacilityType, base.FacilityType),
		Capacity:          form.integer(models.ColCapacity, &base.Capacity, 0, nonNegative),
		AverageDailyUsers: form.integer(models.ColAverageDailyUsers, &base.AverageDailyUsers, 0, nonNegative),
		UsageHoursPerDay:  form.float(models.ColUsageHoursPerDay, &base.UsageHoursPerDay, 0, nonNegative),
		MaintenanceStatus: form.choice(models.ColMaintenanceStatus, base.MaintenanceStatus, models.MaintenanceStatuses),
		Location:          base.Location,
	}
	if raw, ok := form[models.ColLocation]; ok && raw != nil {
		location := form.text(models.ColLocation, "")
		facility.Location = &location
	}
	return facility
}

// Validate runs the struct-tag sanity checks on a prepared record.
func (e *Editor) Validate(record models.Record) error {
	if err := e.validate.Struct(record); err != nil {
		return fmt.Errorf("validate %s record: %w", record.Entity(), err)
	}
	return nil
}

// DeriveFees returns the pending amount and its status. Paid iff nothing is pending.
func DeriveFees(total, paid float64) (float64, string) {
	pending := total - paid
	if pending <= 0 {
		return pending, models.FeeStatusPaid
	}
	return pending, models.FeeStatusPending
}

func (e *Editor) key(exists bool, current string, entity models.Entity) string {
	if exists && current != "" {
		return current
	}
	return e.keys.Next(entity.Spec().KeyPrefix)
}

package analytics

import "github.com/noah-isme/scas-api/internal/models"

// Collections groups the three filtered collections with their schemas.
type Collections struct {
	Students         []models.Student
	StudentSchema    models.Schema
	Faculty          []models.Faculty
	FacultySchema    models.Schema
	Facilities       []models.Facility
	FacilitiesSchema models.Schema
}

// OverallSummary computes every section plus the faculty/student ratio.
func OverallSummary(c Collections, th StudentThresholds) models.OverallKPIs {
	return models.OverallKPIs{
		Students:            StudentSummary(c.Students, c.StudentSchema, th),
		Faculty:             FacultySummary(c.Faculty, c.FacultySchema),
		Facilities:          FacilitySummary(c.Facilities, c.FacilitiesSchema),
		FacultyStudentRatio: FacultyStudentRatio(len(c.Students), len(c.Faculty)),
	}
}

// FacultyStudentRatio is the number of students per faculty member, 0 without faculty.
func FacultyStudentRatio(students, faculty int) float64 {
	return Round2(SafeDiv(float64(students), float64(faculty), 0))
}

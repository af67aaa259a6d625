package analytics

import (
	"strings"

	"github.com/noah-isme/scas-api/internal/models"
)

// FacultySummary computes the faculty KPIs over an already filtered collection.
// Cells listed in a member's Missing set are left out of the averages, totals and extremes.
func FacultySummary(faculty []models.Faculty, schema models.Schema) models.FacultyKPIs {
	total := len(faculty)
	kpis := models.FacultyKPIs{Total: total, MissingColumns: schema.MissingOptional()}

	experience := make([]float64, 0, total)
	salary := make([]float64, 0, total)
	hours := make([]float64, 0, total)
	bonusPercent := make([]float64, 0, total)
	departments := make([]string, 0, total)

	var covered, classes int64
	for _, f := range faculty {
		if !f.Missing.Has(models.ColExperienceYears) {
			experience = append(experience, f.ExperienceYears)
		}
		if !f.Missing.Has(models.ColNetPayINR) {
			salary = append(salary, f.NetPayINR)
		}
		if !f.Missing.Has(models.ColTotalHoursPerWeek) {
			hours = append(hours, f.TotalHoursPerWeek)
		}
		if !f.Missing.Has(models.ColBonusINR) && !f.Missing.Has(models.ColBaseSalaryINR) {
			bonusPercent = append(bonusPercent, SafeDiv(f.BonusINR, f.BaseSalaryINR, 0)*100)
		}
		departments = append(departments, f.Department)

		if !f.Missing.Has(models.ColClassesHandled) {
			classes += int64(f.ClassesHandled)
			if !f.Missing.Has(models.ColStudentsPerClass) {
				covered += int64(f.ClassesHandled) * int64(f.StudentsPerClass)
			}
		}

		if strings.Contains(strings.ToLower(f.Qualification), "phd") {
			kpis.PhDCount++
		}
		if f.IsClassAdvisor == models.AdvisorYes {
			kpis.ClassAdvisors++
		}
	}

	if schema.Has(models.ColExperienceYears) {
		kpis.AverageExperience = Mean(experience)
	}
	if schema.Has(models.ColDepartment) {
		kpis.TopDepartment = Mode(departments)
	}
	if schema.Has(models.ColTotalHoursPerWeek) {
		kpis.TotalHoursPerWeek = int64(Sum(hours))
		kpis.AverageHoursPerWeek = Mean(hours)
	}
	if schema.Has(models.ColClassesHandled) {
		kpis.TotalClasses = classes
		if schema.Has(models.ColStudentsPerClass) {
			kpis.StudentsCovered = covered
			kpis.StudentsPerFaculty = Round2(SafeDiv(float64(covered), float64(total), 0))
		}
	}
	if !schema.Has(models.ColQualification) {
		kpis.PhDCount = 0
	}
	kpis.PhDRate = Rate(kpis.PhDCount, total)
	if !schema.Has(models.ColIsClassAdvisor) {
		kpis.ClassAdvisors = 0
	}

	if schema.Has(models.ColNetPayINR) {
		kpis.AverageSalary = Mean(salary)
		if i := ArgMax(salary); i >= 0 {
			highest := int64(salary[i])
			kpis.MaxSalary = &highest
		}
		if i := ArgMin(salary); i >= 0 {
			lowest := int64(salary[i])
			kpis.MinSalary = &lowest
		}
	}

	if schema.Has(models.ColBonusINR) && schema.Has(models.ColBaseSalaryINR) {
		kpis.AverageBonusPercent = Mean(bonusPercent)
	}

	if schema.Has(models.ColResearchPapersPublished) {
		kpis.TopResearcher, kpis.TopResearcherPapers = topResearcher(faculty)
	}

	return kpis
}

func topResearcher(faculty []models.Faculty) (*string, *int) {
	best := -1
	for i, f := range faculty {
		if f.ResearchPapersPublished == nil {
			continue
		}
		if best < 0 || *f.ResearchPapersPublished > *faculty[best].ResearchPapersPublished {
			best = i
		}
	}
	if best < 0 {
		return nil, nil
	}
	papers := *faculty[best].ResearchPapersPublished
	return stringPtr(faculty[best].Name), &papers
}

// FacultyChartSeries builds the faculty chart series.
func FacultyChartSeries(faculty []models.Faculty, schema models.Schema) models.FacultyCharts {
	charts := models.FacultyCharts{
		ByDepartment:              []models.SeriesPoint{},
		AverageSalaryByDepartment: []models.SeriesPoint{},
		AverageExperienceByDept:   []models.SeriesPoint{},
	}
	if !schema.Has(models.ColDepartment) {
		return charts
	}

	departments := make([]string, 0, len(faculty))
	var salaryDepts, experienceDepts []string
	var salary, experience []float64
	for _, f := range faculty {
		departments = append(departments, f.Department)
		if !f.Missing.Has(models.ColNetPayINR) {
			salaryDepts = append(salaryDepts, f.Department)
			salary = append(salary, f.NetPayINR)
		}
		if !f.Missing.Has(models.ColExperienceYears) {
			experienceDepts = append(experienceDepts, f.Department)
			experience = append(experience, f.ExperienceYears)
		}
	}

	charts.ByDepartment = ValueCounts(departments)
	if schema.Has(models.ColNetPayINR) {
		charts.AverageSalaryByDepartment = GroupMean(salaryDepts, salary)
	}
	if schema.Has(models.ColExperienceYears) {
		charts.AverageExperienceByDept = GroupMean(experienceDepts, experience)
	}
	return charts
}

package analytics

import (
	"fmt"

	"github.com/noah-isme/scas-api/internal/models"
)

// StudentThresholds holds the CGPA cut-offs of the student rates.
type StudentThresholds struct {
	Pass         float64
	AtRisk       float64
	HighAchiever float64
}

// StudentSummary computes the student KPIs over an already filtered collection.
// Averages skip missing cells; the CGPA rates count only present cells but divide by Total.
func StudentSummary(students []models.Student, schema models.Schema, th StudentThresholds) models.StudentKPIs {
	total := len(students)
	kpis := models.StudentKPIs{Total: total, PassThreshold: th.Pass}

	if schema.Has(models.ColCGPA) {
		cgpa := make([]float64, 0, total)
		var pass, atRisk, high int
		for _, s := range students {
			if s.Missing.Has(models.ColCGPA) {
				continue
			}
			cgpa = append(cgpa, s.CGPA)
			if s.CGPA >= th.Pass {
				pass++
			}
			if s.CGPA < th.AtRisk {
				atRisk++
			}
			if s.CGPA >= th.HighAchiever {
				high++
			}
		}
		kpis.AverageCGPA = Mean(cgpa)
		kpis.PassRate = Rate(pass, total)
		kpis.AtRiskRate = Rate(atRisk, total)
		kpis.HighAchieverRate = Rate(high, total)
	}

	if schema.Has(models.ColAttendancePercent) {
		attendance := make([]float64, 0, total)
		for _, s := range students {
			if s.Missing.Has(models.ColAttendancePercent) {
				continue
			}
			attendance = append(attendance, s.AttendancePercent)
		}
		kpis.AverageAttendance = Mean(attendance)
	}

	if schema.Has(models.ColStatus) {
		var graduated, dropped int
		for _, s := range students {
			switch s.Status {
			case models.StudentStatusGraduated:
				graduated++
			case models.StudentStatusDropped:
				dropped++
			}
		}
		kpis.GraduationRate = Rate(graduated, total)
		kpis.DropoutRate = Rate(dropped, total)
	}

	if schema.Has(models.ColProgram) {
		programs := make([]string, 0, total)
		for _, s := range students {
			programs = append(programs, s.Program)
		}
		kpis.TopProgram = Mode(programs)
	}

	if schema.Has(models.ColGender) {
		for _, s := range students {
			switch s.Gender {
			case models.GenderMale:
				kpis.Gender.Male++
			case models.GenderFemale:
				kpis.Gender.Female++
			}
		}
	}
	kpis.Gender.Ratio = fmt.Sprintf("%d : %d", kpis.Gender.Male, kpis.Gender.Female)

	var totalFees, pendingFees float64
	for _, s := range students {
		if s.TotalFeeINR != nil && schema.Has(models.ColTotalFeeINR) {
			totalFees += *s.TotalFeeINR
		}
		if s.PendingFeeINR != nil && schema.Has(models.ColPendingFeeINR) {
			pendingFees += *s.PendingFeeINR
		}
	}
	kpis.TotalFees = int64(totalFees)
	kpis.PendingFees = int64(pendingFees)
	kpis.PendingPercent = Round2(SafeDiv(pendingFees, totalFees, 0) * 100)

	return kpis
}

// StudentChartSeries builds the student chart series.
func StudentChartSeries(students []models.Student, schema models.Schema, bins int) models.StudentCharts {
	charts := models.StudentCharts{
		ByProgram:            []models.SeriesPoint{},
		ByStatus:             []models.SeriesPoint{},
		CGPAHistogram:        []models.HistogramBin{},
		PendingFeesByProgram: []models.SeriesPoint{},
	}

	if schema.Has(models.ColProgram) {
		programs := make([]string, 0, len(students))
		for _, s := range students {
			programs = append(programs, s.Program)
		}
		charts.ByProgram = ValueCounts(programs)

		if schema.Has(models.ColPendingFeeINR) {
			labels := make([]string, 0, len(students))
			values := make([]float64, 0, len(students))
			for _, s := range students {
				if s.PendingFeeINR == nil {
					continue
				}
				labels = append(labels, s.Program)
				values = append(values, *s.PendingFeeINR)
			}
			charts.PendingFeesByProgram = GroupSum(labels, values)
		}
	}

	if schema.Has(models.ColStatus) {
		statuses := make([]string, 0, len(students))
		for _, s := range students {
			statuses = append(statuses, s.Status)
		}
		charts.ByStatus = ValueCounts(statuses)
	}

	if schema.Has(models.ColCGPA) {
		cgpa := make([]float64, 0, len(students))
		for _, s := range students {
			if s.Missing.Has(models.ColCGPA) {
				continue
			}
			cgpa = append(cgpa, s.CGPA)
		}
		charts.CGPAHistogram = Histogram(cgpa, bins)
	}

	return charts
}

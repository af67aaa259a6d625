package models

// GenderSplit pairs the male and female head counts.
type GenderSplit struct {
	Male   int    `json:"male"`
	Female int    `json:"female"`
	Ratio  string `json:"ratio"`
}

// StudentKPIs summarises a filtered student collection.
type StudentKPIs struct {
	Total             int         `json:"total"`
	AverageCGPA       float64     `json:"average_cgpa"`
	AverageAttendance float64     `json:"average_attendance"`
	PassThreshold     float64     `json:"pass_threshold"`
	PassRate          float64     `json:"pass_rate"`
	GraduationRate    float64     `json:"graduation_rate"`
	DropoutRate       float64     `json:"dropout_rate"`
	AtRiskRate        float64     `json:"at_risk_rate"`
	HighAchieverRate  float64     `json:"high_achiever_rate"`
	TopProgram        *string     `json:"top_program"`
	Gender            GenderSplit `json:"gender"`
	TotalFees         int64       `json:"total_fees"`
	PendingFees       int64       `json:"pending_fees"`
	PendingPercent    float64     `json:"pending_percent"`
}

// FacultyKPIs summarises a filtered faculty collection.
type FacultyKPIs struct {
	Total               int      `json:"total"`
	AverageExperience   float64  `json:"average_experience"`
	AverageSalary       float64  `json:"average_salary"`
	TopDepartment       *string  `json:"top_department"`
	TotalHoursPerWeek   int64    `json:"total_hours_per_week"`
	AverageHoursPerWeek float64  `json:"average_hours_per_week"`
	TotalClasses        int64    `json:"total_classes"`
	StudentsCovered     int64    `json:"students_covered"`
	StudentsPerFaculty  float64  `json:"students_per_faculty"`
	PhDCount            int      `json:"phd_count"`
	PhDRate             float64  `json:"phd_rate"`
	ClassAdvisors       int      `json:"class_advisors"`
	MaxSalary           *int64   `json:"max_salary"`
	MinSalary           *int64   `json:"min_salary"`
	AverageBonusPercent float64  `json:"average_bonus_percent"`
	TopResearcher       *string  `json:"top_researcher"`
	TopResearcherPapers *int     `json:"top_researcher_papers,omitempty"`
	MissingColumns      []string `json:"missing_columns,omitempty"`
}

// FacilityKPIs summarises a filtered facility collection.
type FacilityKPIs struct {
	Total                 int     `json:"total"`
	AverageDailyUsers     float64 `json:"average_daily_users"`
	AverageUtilization    float64 `json:"average_utilization"`
	AverageUsageHours     float64 `json:"average_usage_hours"`
	GoodCount             int     `json:"good_count"`
	GoodPercent           float64 `json:"good_percent"`
	NeedsRepairCount      int     `json:"needs_repair_count"`
	NeedsRepairPercent    float64 `json:"needs_repair_percent"`
	UnderMaintenanceCount int     `json:"under_maintenance_count"`
	MostFrequentType      *string `json:"most_frequent_type"`
	HighestUsed           *string `json:"highest_used"`
	TopTypeByUtilization  *string `json:"top_type_by_utilization"`
}

// OverallKPIs combines the three collections with the cross-collection ratio.
type OverallKPIs struct {
	Students            StudentKPIs  `json:"students"`
	Faculty             FacultyKPIs  `json:"faculty"`
	Facilities          FacilityKPIs `json:"facilities"`
	FacultyStudentRatio float64      `json:"faculty_student_ratio"`
}

// SeriesPoint is a single labelled value of a chart series.
type SeriesPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// HistogramBin is one equal-width bucket of a histogram.
type HistogramBin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// StudentCharts carries the student chart series.
type StudentCharts struct {
	ByProgram            []SeriesPoint  `json:"by_program"`
	ByStatus             []SeriesPoint  `json:"by_status"`
	CGPAHistogram        []HistogramBin `json:"cgpa_histogram"`
	PendingFeesByProgram []SeriesPoint  `json:"pending_fees_by_program"`
}

// FacultyCharts carries the faculty chart series.
type FacultyCharts struct {
	ByDepartment              []SeriesPoint `json:"by_department"`
	AverageSalaryByDepartment []SeriesPoint `json:"average_salary_by_department"`
	AverageExperienceByDept   []SeriesPoint `json:"average_experience_by_department"`
}

// FacilityCharts carries the facility chart series.
type FacilityCharts struct {
	ByType            []SeriesPoint `json:"by_type"`
	MaintenanceStatus []SeriesPoint `json:"maintenance_status"`
	UsageHoursByType  []SeriesPoint `json:"usage_hours_by_type"`
	UtilizationByType []SeriesPoint `json:"utilization_by_type"`
}

// Selection maps a filter field to its selected values.
type Selection map[string][]string

// Active reports whether any field carries at least one value.
func (s Selection) Active() bool {
	for _, values := range s {
		if len(values) > 0 {
			return true
		}
	}
	return false
}

// FilterOptions maps a filter field to the distinct values available for it.
type FilterOptions map[string][]string

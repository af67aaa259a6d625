package dto

import "github.com/noah-isme/scas-api/internal/models"

// OverviewResponse is the overall dashboard payload.
type OverviewResponse struct {
	Selection models.Selection   `json:"selection"`
	KPIs      models.OverallKPIs `json:"kpis"`
	NoData    bool               `json:"no_data"`
}

// StudentDashboardResponse carries the filtered student view.
type StudentDashboardResponse struct {
	Selection   models.Selection     `json:"selection"`
	Matched     int                  `json:"matched"`
	NoData      bool                 `json:"no_data"`
	KPIs        models.StudentKPIs   `json:"kpis"`
	Charts      models.StudentCharts `json:"charts"`
	PendingFees []map[string]string  `json:"pending_fees,omitempty"`
	Missing     []string             `json:"missing_columns,omitempty"`
}

// FacultyDashboardResponse carries the filtered faculty view.
type FacultyDashboardResponse struct {
	Selection models.Selection     `json:"selection"`
	Matched   int                  `json:"matched"`
	NoData    bool                 `json:"no_data"`
	KPIs      models.FacultyKPIs   `json:"kpis"`
	Charts    models.FacultyCharts `json:"charts"`
}

// FacilityDashboardResponse carries the filtered facilities view together with the
// consistency issues found over the whole collection.
type FacilityDashboardResponse struct {
	Selection models.Selection      `json:"selection"`
	Matched   int                   `json:"matched"`
	NoData    bool                  `json:"no_data"`
	KPIs      models.FacilityKPIs   `json:"kpis"`
	Charts    models.FacilityCharts `json:"charts"`
	Issues    []models.Issue        `json:"issues"`
	AllClear  bool                  `json:"all_clear"`
	Missing   []string              `json:"missing_columns,omitempty"`
}

// ValidationResponse lists facility consistency issues.
type ValidationResponse struct {
	Issues   []models.Issue `json:"issues"`
	AllClear bool           `json:"all_clear"`
}

// FilterOptionsResponse lists the selectable values per filter field.
type FilterOptionsResponse struct {
	Entity  models.Entity        `json:"entity"`
	Options models.FilterOptions `json:"options"`
}

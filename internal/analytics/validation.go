package analytics

import "github.com/noah-isme/scas-api/internal/models"

// CheckFacilities runs every consistency check over the facilities and returns the failing
// ones in check order. An empty result means all clear. A check never fails on a missing cell.
func CheckFacilities(facilities []models.Facility) []models.Issue {
	checks := []struct {
		kind    models.IssueKind
		message string
		fails   func(models.Facility) bool
	}{
		{
			kind:    models.IssueCapacityExceeded,
			message: "average daily users exceed capacity",
			fails: func(f models.Facility) bool {
				return present(f, models.ColAverageDailyUsers, models.ColCapacity) && f.AverageDailyUsers > f.Capacity
			},
		},
		{
			kind:    models.IssueNegativeUsage,
			message: "usage hours per day are negative",
			fails: func(f models.Facility) bool {
				return present(f, models.ColUsageHoursPerDay) && f.UsageHoursPerDay < 0
			},
		},
		{
			kind:    models.IssueInvalidCapacity,
			message: "capacity must be greater than zero",
			fails: func(f models.Facility) bool {
				return present(f, models.ColCapacity) && f.Capacity <= 0
			},
		},
	}

	issues := make([]models.Issue, 0, len(checks))
	for _, check := range checks {
		var ids []string
		for _, f := range facilities {
			if check.fails(f) {
				ids = append(ids, f.FacilityID)
			}
		}
		if len(ids) == 0 {
			continue
		}
		issues = append(issues, models.Issue{Kind: check.kind, Message: check.message, FacilityIDs: ids})
	}
	return issues
}

func present(f models.Facility, columns ...string) bool {
	for _, col := range columns {
		if f.Missing.Has(col) {
			return false
		}
	}
	return true
}

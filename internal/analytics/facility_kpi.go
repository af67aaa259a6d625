package analytics

import (
	"fmt"
	"math"

	"github.com/noah-isme/scas-api/internal/models"
)

// FacilitySummary computes the facility KPIs over an already filtered collection.
// AverageUtilization is the mean of per-row ratios while TopTypeByUtilization ranks
// types by their ratio of summed users to summed capacity; the two diverge on uneven groups.
func FacilitySummary(facilities []models.Facility, schema models.Schema) models.FacilityKPIs {
	total := len(facilities)
	kpis := models.FacilityKPIs{Total: total}

	users := make([]float64, 0, total)
	utilization := make([]float64, 0, total)
	hours := make([]float64, 0, total)
	types := make([]string, 0, total)
	// byRow keeps one slot per facility so ArgMax indexes back into facilities; NaN marks a missing cell.
	byRow := make([]float64, 0, total)
	for _, f := range facilities {
		if f.Missing.Has(models.ColAverageDailyUsers) {
			byRow = append(byRow, math.NaN())
		} else {
			byRow = append(byRow, float64(f.AverageDailyUsers))
			users = append(users, float64(f.AverageDailyUsers))
			if !f.Missing.Has(models.ColCapacity) {
				utilization = append(utilization, SafeDiv(float64(f.AverageDailyUsers), float64(f.Capacity), 0)*100)
			}
		}
		if !f.Missing.Has(models.ColUsageHoursPerDay) {
			hours = append(hours, f.UsageHoursPerDay)
		}
		types = append(types, f.FacilityType)

		switch f.MaintenanceStatus {
		case models.MaintenanceGood:
			kpis.GoodCount++
		case models.MaintenanceNeedsRepair:
			kpis.NeedsRepairCount++
		case models.MaintenanceUnderMaintenance:
			kpis.UnderMaintenanceCount++
		}
	}

	if schema.Has(models.ColAverageDailyUsers) {
		kpis.AverageDailyUsers = Mean(users)
		if schema.Has(models.ColCapacity) {
			kpis.AverageUtilization = Mean(utilization)
		}
	}
	if schema.Has(models.ColUsageHoursPerDay) {
		kpis.AverageUsageHours = Mean(hours)
	}

	if schema.Has(models.ColMaintenanceStatus) {
		kpis.GoodPercent = Rate(kpis.GoodCount, total)
		kpis.NeedsRepairPercent = Rate(kpis.NeedsRepairCount, total)
	} else {
		kpis.GoodCount, kpis.NeedsRepairCount, kpis.UnderMaintenanceCount = 0, 0, 0
	}

	if schema.Has(models.ColFacilityType) {
		kpis.MostFrequentType = Mode(types)
		if schema.Has(models.ColAverageDailyUsers) {
			if i := ArgMax(byRow); i >= 0 {
				kpis.HighestUsed = stringPtr(fmt.Sprintf("%s (%s)", facilities[i].FacilityType, facilities[i].FacilityID))
			}
			if schema.Has(models.ColCapacity) {
				kpis.TopTypeByUtilization = topTypeByUtilization(facilities)
			}
		}
	}

	return kpis
}

type typeLoad struct {
	users    float64
	capacity float64
}

func groupLoad(facilities []models.Facility) ([]string, map[string]*typeLoad) {
	order := make([]string, 0)
	groups := make(map[string]*typeLoad)
	for _, f := range facilities {
		if f.Missing.Has(models.ColAverageDailyUsers) || f.Missing.Has(models.ColCapacity) {
			continue
		}
		g, ok := groups[f.FacilityType]
		if !ok {
			g = &typeLoad{}
			groups[f.FacilityType] = g
			order = append(order, f.FacilityType)
		}
		g.users += float64(f.AverageDailyUsers)
		g.capacity += float64(f.Capacity)
	}
	return order, groups
}

func topTypeByUtilization(facilities []models.Facility) *string {
	order, groups := groupLoad(facilities)
	if len(order) == 0 {
		return nil
	}
	best := order[0]
	bestRatio := SafeDiv(groups[best].users, groups[best].capacity, 0)
	for _, name := range order[1:] {
		ratio := SafeDiv(groups[name].users, groups[name].capacity, 0)
		if ratio > bestRatio {
			best, bestRatio = name, ratio
		}
	}
	return &best
}

// FacilityChartSeries builds the facility chart series.
func FacilityChartSeries(facilities []models.Facility, schema models.Schema) models.FacilityCharts {
	charts := models.FacilityCharts{
		ByType:            []models.SeriesPoint{},
		MaintenanceStatus: []models.SeriesPoint{},
		UsageHoursByType:  []models.SeriesPoint{},
		UtilizationByType: []models.SeriesPoint{},
	}

	if schema.Has(models.ColMaintenanceStatus) {
		statuses := make([]string, 0, len(facilities))
		for _, f := range facilities {
			statuses = append(statuses, f.MaintenanceStatus)
		}
		charts.MaintenanceStatus = ValueCounts(statuses)
	}

	if !schema.Has(models.ColFacilityType) {
		return charts
	}

	types := make([]string, 0, len(facilities))
	var hourTypes []string
	var hours []float64
	for _, f := range facilities {
		types = append(types, f.FacilityType)
		if !f.Missing.Has(models.ColUsageHoursPerDay) {
			hourTypes = append(hourTypes, f.FacilityType)
			hours = append(hours, f.UsageHoursPerDay)
		}
	}
	charts.ByType = ValueCounts(types)
	if schema.Has(models.ColUsageHoursPerDay) {
		charts.UsageHoursByType = GroupSum(hourTypes, hours)
	}
	if schema.Has(models.ColAverageDailyUsers) && schema.Has(models.ColCapacity) {
		order, groups := groupLoad(facilities)
		for _, name := range order {
			charts.UtilizationByType = append(charts.UtilizationByType, models.SeriesPoint{
				Label: name,
				Value: Round2(SafeDiv(groups[name].users, groups[name].capacity, 0) * 100),
			})
		}
	}
	return charts
}

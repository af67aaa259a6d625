package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/models"
)

func TestValueCountsOrdersByCountThenFirstSeen(t *testing.T) {
	got := ValueCounts([]string{"Lab", "Gym", "Hall", "Gym", "Lab", "Library"})

	assert.Equal(t, []models.SeriesPoint{
		{Label: "Lab", Value: 2},
		{Label: "Gym", Value: 2},
		{Label: "Hall", Value: 1},
		{Label: "Library", Value: 1},
	}, got)
	assert.Empty(t, ValueCounts(nil))
}

func TestGroupSumAndMean(t *testing.T) {
	labels := []string{"CSE", "ECE", "CSE"}
	values := []float64{10, 4, 5}

	assert.Equal(t, []models.SeriesPoint{{Label: "CSE", Value: 15}, {Label: "ECE", Value: 4}}, GroupSum(labels, values))
	assert.Equal(t, []models.SeriesPoint{{Label: "CSE", Value: 7.5}, {Label: "ECE", Value: 4}}, GroupMean(labels, values))
}

func TestHistogram(t *testing.T) {
	bins := Histogram([]float64{0, 2.5, 5, 7.5, 10}, 4)

	require.Len(t, bins, 4)
	assert.Equal(t, models.HistogramBin{Lower: 0, Upper: 2.5, Count: 1}, bins[0])
	assert.Equal(t, models.HistogramBin{Lower: 7.5, Upper: 10, Count: 2}, bins[3])

	total := 0
	for _, b := range bins {
		total += b.Count
	}
	assert.Equal(t, 5, total)
}

func TestHistogramEdgeCases(t *testing.T) {
	assert.Empty(t, Histogram(nil, 20))

	single := Histogram([]float64{7, 7, 7}, 20)
	assert.Equal(t, []models.HistogramBin{{Lower: 7, Upper: 7, Count: 3}}, single)

	assert.Len(t, Histogram([]float64{1, 2}, 0), defaultHistogramBins)
}

func TestHistogramExtremeRangeCollapsesToOneBin(t *testing.T) {
	var bins []models.HistogramBin
	require.NotPanics(t, func() {
		bins = Histogram([]float64{-1e308, 1e308}, 20)
	})

	require.Len(t, bins, 1)
	assert.Equal(t, 2, bins[0].Count)
	assert.Equal(t, -1e308, bins[0].Lower)
	assert.Equal(t, 1e308, bins[0].Upper)
}

func TestHistogramIgnoresNonFiniteValues(t *testing.T) {
	bins := Histogram([]float64{math.NaN(), 0, math.Inf(1), 10, math.Inf(-1)}, 2)

	require.Len(t, bins, 2)
	assert.Equal(t, 1, bins[0].Count)
	assert.Equal(t, 1, bins[1].Count)
	assert.Empty(t, Histogram([]float64{math.NaN()}, 5))
}

func TestEmptyLabelsAreNotCounted(t *testing.T) {
	assert.Equal(t, []models.SeriesPoint{{Label: "Lab", Value: 1}}, ValueCounts([]string{"", "Lab", ""}))
	assert.Empty(t, ValueCounts([]string{"", ""}))
	assert.Equal(t, []models.SeriesPoint{{Label: "CSE", Value: 3}}, GroupMean([]string{"", "CSE"}, []float64{100, 3}))
}

func TestStudentChartSeries(t *testing.T) {
	students := []models.Student{
		{Program: "MBA", Status: "Active", CGPA: 6, PendingFeeINR: floatPtr(100)},
		{Program: "B.Tech", Status: "Active", CGPA: 8, PendingFeeINR: floatPtr(50)},
		{Program: "B.Tech", Status: "Dropped", CGPA: 4},
	}

	charts := StudentChartSeries(students, models.FullSchema(models.EntityStudents), 2)

	assert.Equal(t, []models.SeriesPoint{{Label: "B.Tech", Value: 2}, {Label: "MBA", Value: 1}}, charts.ByProgram)
	assert.Equal(t, []models.SeriesPoint{{Label: "MBA", Value: 100}, {Label: "B.Tech", Value: 50}}, charts.PendingFeesByProgram)
	assert.Equal(t, []models.SeriesPoint{{Label: "Active", Value: 2}, {Label: "Dropped", Value: 1}}, charts.ByStatus)
	assert.Len(t, charts.CGPAHistogram, 2)
}

func TestFacultyChartSeriesWithoutDepartment(t *testing.T) {
	schema := models.NewSchema(models.EntityFaculty, []string{models.ColFacultyID})
	charts := FacultyChartSeries([]models.Faculty{{FacultyID: "F1"}}, schema)

	assert.NotNil(t, charts.ByDepartment)
	assert.Empty(t, charts.ByDepartment)
}

package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

type stubTableReader struct {
	mu     sync.Mutex
	tables map[models.Entity]models.Table
	err    error
	calls  map[models.Entity]int
}

func newStubTableReader(tables ...models.Table) *stubTableReader {
	r := &stubTableReader{tables: map[models.Entity]models.Table{}, calls: map[models.Entity]int{}}
	for _, t := range tables {
		r.tables[t.Entity] = t
	}
	return r
}

func (r *stubTableReader) ReadAll(_ context.Context, entity models.Entity) (models.Table, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[entity]++
	if r.err != nil {
		return models.Table{}, r.err
	}
	if t, ok := r.tables[entity]; ok {
		return t, nil
	}
	return models.Table{Entity: entity, Columns: entity.Spec().ColumnNames(), Rows: []models.Row{}}, nil
}

func studentTable() models.Table {
	return models.Table{
		Entity:  models.EntityStudents,
		Columns: models.EntityStudents.Spec().ColumnNames(),
		Rows: []models.Row{
			{"StudentID": "STU1", "Name": "Anu", "Program": "BSc", "Year": int64(1), "CGPA": 8.0, "AttendancePercent": 90.0,
				"Status": "Active", "Gender": "Female", "TotalFeeINR": 1000.0, "FeePaidINR": 400.0, "PendingFeeINR": 600.0, "FeeStatus": "Pending"},
			{"StudentID": "STU2", "Name": "Bo", "Program": "BA", "Year": int64(2), "CGPA": 5.0, "AttendancePercent": 70.0,
				"Status": "Graduated", "Gender": "Male", "TotalFeeINR": 500.0, "FeePaidINR": 500.0, "PendingFeeINR": 0.0, "FeeStatus": "Paid"},
			{"StudentID": "STU3", "Name": "Cy", "Program": "BSc", "Year": int64(1), "CGPA": 1.5, "AttendancePercent": 40.0,
				"Status": "Dropped", "Gender": "Male", "TotalFeeINR": 800.0, "FeePaidINR": 0.0, "PendingFeeINR": 800.0, "FeeStatus": "Pending"},
		},
	}
}

func facultyTable() models.Table {
	return models.Table{
		Entity:  models.EntityFaculty,
		Columns: []string{"FacultyID", "Name", "Department", "NetPayINR", "Qualification"},
		Rows: []models.Row{
			{"FacultyID": "FAC1", "Name": "Asha", "Department": "CSE", "NetPayINR": 90000.0, "Qualification": "PhD"},
		},
	}
}

func facilityTable() models.Table {
	return models.Table{
		Entity:  models.EntityFacilities,
		Columns: models.EntityFacilities.Spec().ColumnNames(),
		Rows: []models.Row{
			{"FacilityID": "FCL1", "FacilityType": "Lab", "Capacity": int64(50), "AverageDailyUsers": int64(80),
				"UsageHoursPerDay": -2.0, "MaintenanceStatus": "Good", "Location": "Block A"},
			{"FacilityID": "FCL2", "FacilityType": "Hall", "Capacity": int64(100), "AverageDailyUsers": int64(40),
				"UsageHoursPerDay": 6.0, "MaintenanceStatus": "Needs Repair", "Location": nil},
		},
	}
}

func TestDashboardServiceOverview(t *testing.T) {
	reader := newStubTableReader(studentTable(), facultyTable(), facilityTable())
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	resp, hit, err := svc.Overview(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, resp.NoData)
	assert.Equal(t, 3, resp.KPIs.Students.Total)
	assert.Equal(t, 6.0, resp.KPIs.Students.PassThreshold)
	assert.Equal(t, 33.33, resp.KPIs.Students.PassRate)
	assert.Equal(t, 3.0, resp.KPIs.FacultyStudentRatio)
	assert.Equal(t, 2, resp.KPIs.Facilities.Total)
}

func TestDashboardServiceOverviewEmpty(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader()})

	resp, _, err := svc.Overview(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, resp.NoData)
	assert.Zero(t, resp.KPIs.FacultyStudentRatio)
	assert.Nil(t, resp.KPIs.Faculty.MaxSalary)
}

func TestDashboardServiceStudentsFilters(t *testing.T) {
	reader := newStubTableReader(studentTable())
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	resp, _, err := svc.Students(context.Background(), models.Selection{
		"Program": {"BSc"},
		"Name":    {"ignored"},
		"Status":  {},
	})
	require.NoError(t, err)
	assert.Equal(t, models.Selection{"Program": {"BSc"}}, resp.Selection)
	assert.Equal(t, 2, resp.Matched)
	assert.Equal(t, 2.0, resp.KPIs.PassThreshold)
	assert.Equal(t, 50.0, resp.KPIs.PassRate)
	assert.Equal(t, int64(1400), resp.KPIs.PendingFees)
	require.Len(t, resp.PendingFees, 2)
	assert.Equal(t, "STU1", resp.PendingFees[0]["StudentID"])
	assert.Empty(t, resp.Missing)
}

func TestDashboardServiceStudentsNoMatch(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader(studentTable())})

	resp, _, err := svc.Students(context.Background(), models.Selection{"Year": {"4"}})
	require.NoError(t, err)
	assert.True(t, resp.NoData)
	assert.Zero(t, resp.KPIs.AverageCGPA)
	assert.Nil(t, resp.KPIs.TopProgram)
}

func TestDashboardServiceFacultyMissingColumns(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader(facultyTable())})

	resp, _, err := svc.Faculty(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 100.0, resp.KPIs.PhDRate)
	assert.Nil(t, resp.KPIs.TopResearcher)
	assert.Contains(t, resp.KPIs.MissingColumns, "ResearchPapersPublished")
}

func TestDashboardServiceFacilitiesValidationIgnoresFilter(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader(facilityTable()), Metrics: metrics})

	resp, _, err := svc.Facilities(context.Background(), models.Selection{"FacilityType": {"Hall"}})
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Matched)
	assert.False(t, resp.AllClear)
	require.Len(t, resp.Issues, 2)
	assert.Equal(t, models.IssueCapacityExceeded, resp.Issues[0].Kind)
	assert.Equal(t, []string{"FCL1"}, resp.Issues[0].FacilityIDs)
	assert.Equal(t, models.IssueNegativeUsage, resp.Issues[1].Kind)
	assert.Equal(t, 2, metrics.Snapshot().ValidationIssues)
}

func TestDashboardServiceValidateAllClear(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader()})

	resp, err := svc.ValidateFacilities(context.Background())
	require.NoError(t, err)
	assert.True(t, resp.AllClear)
	assert.NotNil(t, resp.Issues)
}

func TestDashboardServiceFilterOptions(t *testing.T) {
	svc := NewDashboardService(DashboardServiceParams{Store: newStubTableReader(studentTable())})

	resp, err := svc.FilterOptions(context.Background(), models.EntityStudents)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, resp.Options["Year"])
	assert.Equal(t, []string{"BA", "BSc"}, resp.Options["Program"])

	_, err = svc.FilterOptions(context.Background(), models.Entity("courses"))
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrUnknownEntity.Code, appErr.Code)
}

func TestDashboardServiceUsesCache(t *testing.T) {
	reader := newStubTableReader(studentTable())
	cache := NewCacheService(newStubCacheRepo(), nil, 0, nil, true)
	svc := NewDashboardService(DashboardServiceParams{Store: reader, Cache: cache})
	ctx := context.Background()

	first, hit, err := svc.Students(ctx, models.Selection{"Program": {"BA"}})
	require.NoError(t, err)
	assert.False(t, hit)

	second, hit, err := svc.Students(ctx, models.Selection{"Program": {"BA"}})
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, first.Matched, second.Matched)
	assert.Equal(t, 1, reader.calls[models.EntityStudents])
}

func TestDashboardServiceStoreError(t *testing.T) {
	reader := newStubTableReader()
	reader.err = errors.New("db down")
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	_, _, err := svc.Faculty(context.Background(), nil)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Status, appErr.Status)
}

func TestDashboardServiceOverviewLoadsEachCollectionOnce(t *testing.T) {
	reader := newStubTableReader(studentTable())
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	resp, hit, err := svc.Overview(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.False(t, resp.NoData)
	for _, entity := range models.Entities() {
		assert.Equal(t, 1, reader.calls[entity], string(entity))
	}

	reader.err = errors.New("db down")
	_, _, err = svc.Overview(context.Background(), nil)
	assert.ErrorIs(t, err, appErrors.ErrInternal)
}

func TestDashboardServiceOverviewAppliesSelectionPerCollection(t *testing.T) {
	reader := newStubTableReader(studentTable(), facultyTable(), facilityTable())
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	selection := models.Selection{
		models.ColProgram:      {"BSc"},
		models.ColFacilityType: {"Lab"},
		"Unknown":              {"x"},
	}
	resp, _, err := svc.Overview(context.Background(), selection)
	require.NoError(t, err)

	assert.Equal(t, models.Selection{models.ColProgram: {"BSc"}, models.ColFacilityType: {"Lab"}}, resp.Selection)
	assert.Equal(t, 2, resp.KPIs.Students.Total)
	assert.Equal(t, 1, resp.KPIs.Faculty.Total)
	assert.Equal(t, 1, resp.KPIs.Facilities.Total)
	assert.Equal(t, 2.0, resp.KPIs.FacultyStudentRatio)

	none, _, err := svc.Overview(context.Background(), models.Selection{models.ColDepartment: {"ECE"}})
	require.NoError(t, err)
	assert.Equal(t, 3, none.KPIs.Students.Total)
	assert.Zero(t, none.KPIs.Faculty.Total)
	assert.Zero(t, none.KPIs.FacultyStudentRatio)

	assert.NotEqual(t, KPICacheKey(ViewOverview, nil), KPICacheKey(ViewOverview, resp.Selection))
}

type gatedReader struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}

	mu      sync.Mutex
	ctxErrs []error
}

func (r *gatedReader) ReadAll(ctx context.Context, entity models.Entity) (models.Table, error) {
	r.once.Do(func() { close(r.started) })
	<-r.release
	r.mu.Lock()
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	r.mu.Unlock()
	return studentTable(), nil
}

func TestDashboardServiceSharedLoadSurvivesCancelledCaller(t *testing.T) {
	reader := &gatedReader{started: make(chan struct{}), release: make(chan struct{})}
	svc := NewDashboardService(DashboardServiceParams{Store: reader})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, _, err := svc.Students(ctx, nil)
		firstErr <- err
	}()
	<-reader.started

	cancel()
	err := <-firstErr
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	type result struct {
		matched int
		err     error
	}
	second := make(chan result, 1)
	go func() {
		resp, _, err := svc.Students(context.Background(), nil)
		if err != nil {
			second <- result{err: err}
			return
		}
		second <- result{matched: resp.Matched}
	}()
	close(reader.release)

	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 3, got.matched)

	reader.mu.Lock()
	defer reader.mu.Unlock()
	for _, ctxErr := range reader.ctxErrs {
		assert.NoError(t, ctxErr)
	}
}

package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/noah-isme/scas-api/internal/analytics"
	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

// Dashboard views, also used as cache key and metric labels.
const (
	ViewOverview   = "overview"
	ViewStudents   = "students"
	ViewFaculty    = "faculty"
	ViewFacilities = "facilities"
)

type tableReader interface {
	ReadAll(ctx context.Context, entity models.Entity) (models.Table, error)
}

// DashboardServiceConfig tunes KPI thresholds and caching.
type DashboardServiceConfig struct {
	CacheTTL         time.Duration
	OverallPassCGPA  float64
	StudentPassCGPA  float64
	AtRiskCGPA       float64
	HighAchieverCGPA float64
	HistogramBins    int
}

// DashboardService loads collections, applies filters and aggregates KPIs for each view.
type DashboardService struct {
	store   tableReader
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     DashboardServiceConfig

	// loads collapses concurrent reads of the same collection into one query.
	loads singleflight.Group
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Store   tableReader
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  DashboardServiceConfig
}

// NewDashboardService constructs a DashboardService with sane defaults.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	cfg := params.Config
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.OverallPassCGPA <= 0 {
		cfg.OverallPassCGPA = 6.0
	}
	if cfg.StudentPassCGPA <= 0 {
		cfg.StudentPassCGPA = 2.0
	}
	if cfg.AtRiskCGPA <= 0 {
		cfg.AtRiskCGPA = 7.0
	}
	if cfg.HighAchieverCGPA <= 0 {
		cfg.HighAchieverCGPA = 3.5
	}
	if cfg.HistogramBins <= 0 {
		cfg.HistogramBins = 20
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		store:   params.Store,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
	}
}

func (s *DashboardService) thresholds(pass float64) analytics.StudentThresholds {
	return analytics.StudentThresholds{Pass: pass, AtRisk: s.cfg.AtRiskCGPA, HighAchiever: s.cfg.HighAchieverCGPA}
}

// Overview returns the KPIs of all three collections. Each collection is narrowed by the
// selection fields it owns; the faculty/student ratio uses the narrowed counts.
func (s *DashboardService) Overview(ctx context.Context, selection models.Selection) (*dto.OverviewResponse, bool, error) {
	selection = scopeSelection("", selection)
	key := KPICacheKey(ViewOverview, selection)
	var cached dto.OverviewResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	var students, faculty, facilities models.Table
	g, gctx := errgroup.WithContext(ctx)
	for entity, dst := range map[models.Entity]*models.Table{
		models.EntityStudents:   &students,
		models.EntityFaculty:    &faculty,
		models.EntityFacilities: &facilities,
	} {
		entity, dst := entity, dst
		g.Go(func() error {
			table, err := s.load(gctx, entity)
			*dst = table
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, false, err
	}

	start := time.Now()
	c := analytics.Collections{
		StudentSchema:    students.Schema(),
		FacultySchema:    faculty.Schema(),
		FacilitiesSchema: facilities.Schema(),
	}
	c.Students = analytics.Apply(models.StudentsFromTable(students), c.StudentSchema,
		scopeSelection(models.EntityStudents, selection))
	c.Faculty = analytics.Apply(models.FacultyFromTable(faculty), c.FacultySchema,
		scopeSelection(models.EntityFaculty, selection))
	c.Facilities = analytics.Apply(models.FacilitiesFromTable(facilities), c.FacilitiesSchema,
		scopeSelection(models.EntityFacilities, selection))
	kpis := analytics.OverallSummary(c, s.thresholds(s.cfg.OverallPassCGPA))
	s.metrics.ObserveKPICompute(ViewOverview, time.Since(start))

	resp := &dto.OverviewResponse{
		Selection: selection,
		KPIs:      kpis,
		NoData:    len(c.Students) == 0 && len(c.Faculty) == 0 && len(c.Facilities) == 0,
	}
	s.persistCache(ctx, key, resp)
	return resp, false, nil
}

// Students returns the student view for the given selection.
func (s *DashboardService) Students(ctx context.Context, selection models.Selection) (*dto.StudentDashboardResponse, bool, error) {
	selection = scopeSelection(models.EntityStudents, selection)
	key := KPICacheKey(ViewStudents, selection)
	var cached dto.StudentDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	table, err := s.load(ctx, models.EntityStudents)
	if err != nil {
		return nil, false, err
	}
	schema := table.Schema()

	start := time.Now()
	filtered := analytics.Apply(models.StudentsFromTable(table), schema, selection)
	resp := &dto.StudentDashboardResponse{
		Selection: selection,
		Matched:   len(filtered),
		NoData:    len(filtered) == 0,
		KPIs:      analytics.StudentSummary(filtered, schema, s.thresholds(s.cfg.StudentPassCGPA)),
		Charts:    analytics.StudentChartSeries(filtered, schema, s.cfg.HistogramBins),
		Missing:   schema.MissingOptional(),
	}
	if analytics.HasPendingFeeColumns(schema) {
		resp.PendingFees = analytics.PendingFeeRows(filtered)
	}
	s.metrics.ObserveKPICompute(ViewStudents, time.Since(start))

	s.persistCache(ctx, key, resp)
	return resp, false, nil
}

// Faculty returns the faculty view for the given selection.
func (s *DashboardService) Faculty(ctx context.Context, selection models.Selection) (*dto.FacultyDashboardResponse, bool, error) {
	selection = scopeSelection(models.EntityFaculty, selection)
	key := KPICacheKey(ViewFaculty, selection)
	var cached dto.FacultyDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	table, err := s.load(ctx, models.EntityFaculty)
	if err != nil {
		return nil, false, err
	}
	schema := table.Schema()

	start := time.Now()
	filtered := analytics.Apply(models.FacultyFromTable(table), schema, selection)
	resp := &dto.FacultyDashboardResponse{
		Selection: selection,
		Matched:   len(filtered),
		NoData:    len(filtered) == 0,
		KPIs:      analytics.FacultySummary(filtered, schema),
		Charts:    analytics.FacultyChartSeries(filtered, schema),
	}
	s.metrics.ObserveKPICompute(ViewFaculty, time.Since(start))

	s.persistCache(ctx, key, resp)
	return resp, false, nil
}

// Facilities returns the facilities view. Consistency issues always cover the whole collection.
func (s *DashboardService) Facilities(ctx context.Context, selection models.Selection) (*dto.FacilityDashboardResponse, bool, error) {
	selection = scopeSelection(models.EntityFacilities, selection)
	key := KPICacheKey(ViewFacilities, selection)
	var cached dto.FacilityDashboardResponse
	if s.tryCache(ctx, key, &cached) {
		return &cached, true, nil
	}

	table, err := s.load(ctx, models.EntityFacilities)
	if err != nil {
		return nil, false, err
	}
	schema := table.Schema()
	all := models.FacilitiesFromTable(table)

	start := time.Now()
	filtered := analytics.Apply(all, schema, selection)
	issues := s.checkFacilities(all)
	resp := &dto.FacilityDashboardResponse{
		Selection: selection,
		Matched:   len(filtered),
		NoData:    len(filtered) == 0,
		KPIs:      analytics.FacilitySummary(filtered, schema),
		Charts:    analytics.FacilityChartSeries(filtered, schema),
		Issues:    issues,
		AllClear:  len(issues) == 0,
		Missing:   schema.MissingOptional(),
	}
	s.metrics.ObserveKPICompute(ViewFacilities, time.Since(start))

	s.persistCache(ctx, key, resp)
	return resp, false, nil
}

// ValidateFacilities runs the consistency checks over the unfiltered facility collection.
func (s *DashboardService) ValidateFacilities(ctx context.Context) (*dto.ValidationResponse, error) {
	table, err := s.load(ctx, models.EntityFacilities)
	if err != nil {
		return nil, err
	}
	issues := s.checkFacilities(models.FacilitiesFromTable(table))
	return &dto.ValidationResponse{Issues: issues, AllClear: len(issues) == 0}, nil
}

// FilterOptions lists the selectable values of each filter field present in the collection.
func (s *DashboardService) FilterOptions(ctx context.Context, entity models.Entity) (*dto.FilterOptionsResponse, error) {
	table, err := s.load(ctx, entity)
	if err != nil {
		return nil, err
	}
	schema := table.Schema()
	fields := entity.Spec().FilterFields

	var options models.FilterOptions
	switch entity {
	case models.EntityStudents:
		options = analytics.Options(models.StudentsFromTable(table), schema, fields)
	case models.EntityFaculty:
		options = analytics.Options(models.FacultyFromTable(table), schema, fields)
	case models.EntityFacilities:
		options = analytics.Options(models.FacilitiesFromTable(table), schema, fields)
	}
	return &dto.FilterOptionsResponse{Entity: entity, Options: options}, nil
}

func (s *DashboardService) checkFacilities(facilities []models.Facility) []models.Issue {
	issues := analytics.CheckFacilities(facilities)
	counts := map[string]int{
		string(models.IssueCapacityExceeded): 0,
		string(models.IssueNegativeUsage):    0,
		string(models.IssueInvalidCapacity):  0,
	}
	for _, issue := range issues {
		counts[string(issue.Kind)] = len(issue.FacilityIDs)
	}
	s.metrics.SetValidationIssues(counts)
	if len(issues) > 0 {
		s.logger.Debug("facility validation issues", zap.Int("checks_failed", len(issues)))
	}
	return issues
}

func (s *DashboardService) load(ctx context.Context, entity models.Entity) (models.Table, error) {
	if _, ok := models.ParseEntity(string(entity)); !ok {
		return models.Table{}, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown entity %q", entity))
	}
	// The shared read must not inherit one caller's cancellation; each caller waits on its own ctx.
	ch := s.loads.DoChan(string(entity), func() (interface{}, error) {
		return s.store.ReadAll(context.WithoutCancel(ctx), entity)
	})
	select {
	case <-ctx.Done():
		return models.Table{}, appErrors.Wrap(ctx.Err(), appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", entity))
	case res := <-ch:
		if res.Err != nil {
			return models.Table{}, appErrors.Wrap(res.Err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s", entity))
		}
		return res.Val.(models.Table), nil
	}
}

func (s *DashboardService) tryCache(ctx context.Context, key string, dest interface{}) bool {
	if s.cache == nil || !s.cache.Enabled() {
		return false
	}
	hit, err := s.cache.Get(ctx, key, dest)
	if err != nil {
		s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return hit
}

func (s *DashboardService) persistCache(ctx context.Context, key string, value interface{}) {
	if s.cache == nil || !s.cache.Enabled() {
		return
	}
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// scopeSelection keeps only the filter fields of the entity and drops empty value sets.
// An empty entity keeps the filter fields of every entity.
func scopeSelection(entity models.Entity, selection models.Selection) models.Selection {
	entities := []models.Entity{entity}
	if entity == "" {
		entities = models.Entities()
	}
	scoped := models.Selection{}
	for _, e := range entities {
		for _, field := range e.Spec().FilterFields {
			if values := selection[field]; len(values) > 0 {
				scoped[field] = values
			}
		}
	}
	return scoped
}

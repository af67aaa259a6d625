package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/editor"
	"github.com/noah-isme/scas-api/internal/models"
	"github.com/noah-isme/scas-api/internal/repository"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
)

type recordStore interface {
	ReadAll(ctx context.Context, entity models.Entity) (models.Table, error)
	Columns(ctx context.Context, entity models.Entity) ([]string, error)
	FindByKey(ctx context.Context, entity models.Entity, key string) (models.Row, error)
	Insert(ctx context.Context, entity models.Entity, columns []string, row models.Row) error
	UpdateByKey(ctx context.Context, entity models.Entity, key string, columns []string, row models.Row) error
}

// RecordService lists, creates and edits single records of any collection.
type RecordService struct {
	store  recordStore
	editor *editor.Editor
	cache  *CacheService
	logger *zap.Logger
}

// NewRecordService constructs a RecordService.
func NewRecordService(store recordStore, ed *editor.Editor, cache *CacheService, logger *zap.Logger) *RecordService {
	if ed == nil {
		ed = editor.New(nil)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{store: store, editor: ed, cache: cache, logger: logger}
}

// List returns the whole collection in store order.
func (s *RecordService) List(ctx context.Context, entity models.Entity) (*dto.RecordListResponse, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	table, err := s.store.ReadAll(ctx, entity)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to list %s", entity))
	}
	return &dto.RecordListResponse{
		Entity:  entity,
		Columns: table.Columns,
		Rows:    table.Rows,
		Count:   len(table.Rows),
	}, nil
}

// Get loads a single record by key.
func (s *RecordService) Get(ctx context.Context, entity models.Entity, key string) (*dto.RecordResponse, error) {
	row, err := s.find(ctx, entity, key)
	if err != nil {
		return nil, err
	}
	return &dto.RecordResponse{Entity: entity, Key: key, Record: row}, nil
}

// Create prepares a new record from the form, synthesising its key, and inserts it.
func (s *RecordService) Create(ctx context.Context, entity models.Entity, form editor.Form) (*dto.RecordResponse, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	record, err := s.prepare(entity, nil, form)
	if err != nil {
		return nil, err
	}
	columns, row, err := s.project(ctx, entity, record)
	if err != nil {
		return nil, err
	}
	if err := s.store.Insert(ctx, entity, columns, row); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return nil, appErrors.Wrap(err, appErrors.ErrConflict.Code, appErrors.ErrConflict.Status,
				fmt.Sprintf("%s record %s already exists", entity, record.Key()))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to create %s record", entity))
	}

	s.cache.InvalidateKPIs(ctx)
	s.logger.Info("record created", zap.String("entity", string(entity)), zap.String("key", record.Key()))
	return &dto.RecordResponse{Entity: entity, Key: record.Key(), Created: true, Record: row}, nil
}

// Update overlays the form on the stored record identified by key and saves it.
func (s *RecordService) Update(ctx context.Context, entity models.Entity, key string, form editor.Form) (*dto.RecordResponse, error) {
	existing, err := s.find(ctx, entity, key)
	if err != nil {
		return nil, err
	}
	record, err := s.prepare(entity, existing, form)
	if err != nil {
		return nil, err
	}
	columns, row, err := s.project(ctx, entity, record)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateByKey(ctx, entity, key, columns, row); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s record %s not found", entity, key))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to update %s record", entity))
	}

	s.cache.InvalidateKPIs(ctx)
	s.logger.Info("record updated", zap.String("entity", string(entity)), zap.String("key", key))
	return &dto.RecordResponse{Entity: entity, Key: key, Record: row}, nil
}

func (s *RecordService) find(ctx context.Context, entity models.Entity, key string) (models.Row, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	if key == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "record key is required")
	}
	row, err := s.store.FindByKey(ctx, entity, key)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("%s record %s not found", entity, key))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to load %s record", entity))
	}
	return row, nil
}

func (s *RecordService) prepare(entity models.Entity, existing models.Row, form editor.Form) (models.Record, error) {
	var record models.Record
	switch entity {
	case models.EntityStudents:
		var base *models.Student
		if existing != nil {
			decoded := models.StudentFromRow(existing)
			base = &decoded
		}
		record = s.editor.PrepareStudent(base, form)
	case models.EntityFaculty:
		var base *models.Faculty
		if existing != nil {
			decoded := models.FacultyFromRow(existing)
			base = &decoded
		}
		record = s.editor.PrepareFaculty(base, form)
	case models.EntityFacilities:
		var base *models.Facility
		if existing != nil {
			decoded := models.FacilityFromRow(existing)
			base = &decoded
		}
		record = s.editor.PrepareFacility(base, form)
	default:
		return nil, appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown entity %q", entity))
	}
	if err := s.editor.Validate(record); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, err.Error())
	}
	return record, nil
}

// project keeps only the columns the stored table has, in store order.
func (s *RecordService) project(ctx context.Context, entity models.Entity, record models.Record) ([]string, models.Row, error) {
	stored, err := s.store.Columns(ctx, entity)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to describe %s", entity))
	}
	full := record.Row()
	columns := make([]string, 0, len(stored))
	for _, col := range stored {
		if _, ok := full[col]; ok {
			columns = append(columns, col)
		}
	}
	if len(columns) == 0 {
		return nil, nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("%s table has no editable columns", entity))
	}
	return columns, full.Project(columns), nil
}

func checkEntity(entity models.Entity) error {
	if _, ok := models.ParseEntity(string(entity)); !ok {
		return appErrors.Clone(appErrors.ErrUnknownEntity, fmt.Sprintf("unknown entity %q", entity))
	}
	return nil
}

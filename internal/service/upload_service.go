package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/models"
	"github.com/noah-isme/scas-api/pkg/coerce"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/jobs"
	"github.com/noah-isme/scas-api/pkg/tabular"
)

// JobTypeArchiveUpload identifies queued raw upload archive writes.
const JobTypeArchiveUpload = "upload.archive"

type tableReplacer interface {
	AddColumns(ctx context.Context, entity models.Entity, columns []string) ([]string, error)
	ReplaceAll(ctx context.Context, entity models.Entity, columns []string, rows []models.Row) (int, error)
}

type blobStore interface {
	Driver() string
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

type jobDispatcher interface {
	Enqueue(job jobs.Job) error
}

// ArchivePayload is the queued description of a raw upload to archive.
type ArchivePayload struct {
	Key         string
	ContentType string
	Data        []byte
}

// UploadServiceConfig bounds uploads.
type UploadServiceConfig struct {
	MaxFileSize int64
	PreviewRows int
}

// UploadService previews and commits whole-collection spreadsheet uploads.
type UploadService struct {
	store   tableReplacer
	archive blobStore
	queue   jobDispatcher
	cache   *CacheService
	metrics *MetricsService
	logger  *zap.Logger
	cfg     UploadServiceConfig
	now     func() time.Time
}

// UploadServiceParams groups constructor dependencies. Archive and Queue are optional.
type UploadServiceParams struct {
	Store   tableReplacer
	Archive blobStore
	Queue   jobDispatcher
	Cache   *CacheService
	Metrics *MetricsService
	Logger  *zap.Logger
	Config  UploadServiceConfig
}

// NewUploadService constructs an UploadService.
func NewUploadService(params UploadServiceParams) *UploadService {
	cfg := params.Config
	if cfg.MaxFileSize <= 0 {
		cfg.MaxFileSize = 10 * 1024 * 1024
	}
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = 5
	}
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UploadService{
		store:   params.Store,
		archive: params.Archive,
		queue:   params.Queue,
		cache:   params.Cache,
		metrics: params.Metrics,
		logger:  logger,
		cfg:     cfg,
		now:     time.Now,
	}
}

// MaxFileSize returns the accepted upload size in bytes.
func (s *UploadService) MaxFileSize() int64 {
	return s.cfg.MaxFileSize
}

// Preview parses the file and returns its headers, row count and leading rows.
func (s *UploadService) Preview(ctx context.Context, entity models.Entity, filename string, data []byte) (*dto.UploadPreviewResponse, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	sheet, err := s.parse(filename, data)
	if err != nil {
		return nil, err
	}

	limit := s.cfg.PreviewRows
	if limit > len(sheet.Rows) {
		limit = len(sheet.Rows)
	}
	rows := make([]map[string]string, 0, limit)
	for _, cells := range sheet.Rows[:limit] {
		row := make(map[string]string, len(sheet.Headers))
		for i, header := range sheet.Headers {
			row[header] = cells[i]
		}
		rows = append(rows, row)
	}

	return &dto.UploadPreviewResponse{
		Entity:   entity,
		Filename: filename,
		Format:   tabular.Format(filename),
		Headers:  sheet.Headers,
		RowCount: len(sheet.Rows),
		Rows:     rows,
		Missing:  models.NewSchema(entity, sheet.Headers).MissingRequired(),
		Unknown:  unknownColumns(entity, sheet.Headers),
	}, nil
}

// Commit replaces the whole collection with the rows of the file, in file order.
// Headers are not validated: undeclared columns are added to the table as text.
func (s *UploadService) Commit(ctx context.Context, entity models.Entity, filename string, data []byte) (*dto.UploadResultResponse, error) {
	if err := checkEntity(entity); err != nil {
		return nil, err
	}
	sheet, err := s.parse(filename, data)
	if err != nil {
		return nil, err
	}
	if len(sheet.Headers) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file has no header row")
	}

	if added, err := s.store.AddColumns(ctx, entity, sheet.Headers); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, fmt.Sprintf("failed to prepare %s table", entity))
	} else if len(added) > 0 {
		s.logger.Info("upload added columns", zap.String("entity", string(entity)), zap.Strings("columns", added))
	}

	rows := buildRows(entity, sheet)
	written, err := s.store.ReplaceAll(ctx, entity, sheet.Headers, rows)
	s.metrics.AddUploadedRows(string(entity), written)
	s.cache.InvalidateKPIs(ctx)
	if err != nil {
		s.logger.Error("upload replace failed",
			zap.String("entity", string(entity)),
			zap.Int("rows_written", written),
			zap.Int("rows_total", len(rows)),
			zap.Error(err),
		)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
			fmt.Sprintf("failed to replace %s after %d of %d rows", entity, written, len(rows)))
	}

	result := &dto.UploadResultResponse{Entity: entity, Filename: filename, RowsWritten: written}
	if s.archive != nil {
		payload := ArchivePayload{
			Key:         s.archiveKey(entity, filename),
			ContentType: contentType(filename),
			Data:        data,
		}
		result.ArchiveKey = payload.Key
		result.Archived = s.dispatchArchive(ctx, payload)
	}

	s.logger.Info("collection replaced",
		zap.String("entity", string(entity)),
		zap.String("filename", filename),
		zap.Int("rows", written),
	)
	return result, nil
}

// HandleArchiveJob is the queue handler writing a raw upload to the archive.
func (s *UploadService) HandleArchiveJob(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(ArchivePayload)
	if !ok {
		return fmt.Errorf("job %s: unexpected payload %T", job.ID, job.Payload)
	}
	return s.putArchive(ctx, payload)
}

func (s *UploadService) dispatchArchive(ctx context.Context, payload ArchivePayload) bool {
	if s.queue != nil {
		err := s.queue.Enqueue(jobs.Job{ID: uuid.NewString(), Type: JobTypeArchiveUpload, Payload: payload})
		if err == nil {
			return true
		}
		s.logger.Warn("archive enqueue failed, writing inline", zap.String("key", payload.Key), zap.Error(err))
	}
	if err := s.putArchive(ctx, payload); err != nil {
		s.logger.Warn("upload archive failed", zap.String("key", payload.Key), zap.Error(err))
		return false
	}
	return true
}

func (s *UploadService) putArchive(ctx context.Context, payload ArchivePayload) error {
	if err := s.archive.Put(ctx, payload.Key, bytes.NewReader(payload.Data), payload.ContentType); err != nil {
		return fmt.Errorf("archive %s to %s: %w", payload.Key, s.archive.Driver(), err)
	}
	s.logger.Debug("upload archived", zap.String("key", payload.Key), zap.String("driver", s.archive.Driver()))
	return nil
}

func (s *UploadService) parse(filename string, data []byte) (tabular.Sheet, error) {
	if int64(len(data)) > s.cfg.MaxFileSize {
		return tabular.Sheet{}, appErrors.ErrPayloadTooLarge
	}
	sheet, err := tabular.Parse(filename, bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) {
			return tabular.Sheet{}, appErrors.Clone(appErrors.ErrUnsupportedFile, "only .csv and .xlsx files are supported")
		}
		return tabular.Sheet{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "failed to read spreadsheet")
	}
	return sheet, nil
}

func (s *UploadService) archiveKey(entity models.Entity, filename string) string {
	now := s.now().UTC()
	return fmt.Sprintf("uploads/%s/%s/%s-%s", entity, now.Format("2006/01/02"), uuid.NewString(), sanitizeFilename(filename))
}

// buildRows maps every cell to its header. Empty cells become NULL and declared numeric
// columns are stored as numbers; unparseable numerics become NULL as well.
func buildRows(entity models.Entity, sheet tabular.Sheet) []models.Row {
	kinds := make(map[string]models.ColumnKind)
	for _, col := range entity.Spec().Columns {
		kinds[col.Name] = col.Kind
	}

	rows := make([]models.Row, 0, len(sheet.Rows))
	for _, cells := range sheet.Rows {
		row := make(models.Row, len(sheet.Headers))
		for i, header := range sheet.Headers {
			row[header] = cellValue(kinds[header], cells[i])
		}
		rows = append(rows, row)
	}
	return rows
}

func cellValue(kind models.ColumnKind, raw string) interface{} {
	cell := strings.TrimSpace(raw)
	if cell == "" {
		return nil
	}
	switch kind {
	case models.KindInteger:
		if v := coerce.OptionalInt(cell); v != nil {
			return *v
		}
		if v := coerce.OptionalFloat(cell); v != nil {
			return int(*v)
		}
		return nil
	case models.KindReal:
		if v := coerce.OptionalFloat(cell); v != nil {
			return *v
		}
		return nil
	default:
		return cell
	}
}

func unknownColumns(entity models.Entity, headers []string) []string {
	declared := make(map[string]struct{})
	for _, name := range entity.Spec().ColumnNames() {
		declared[name] = struct{}{}
	}
	var unknown []string
	for _, header := range headers {
		if _, ok := declared[header]; !ok {
			unknown = append(unknown, header)
		}
	}
	return unknown
}

func contentType(filename string) string {
	switch tabular.Format(filename) {
	case "csv":
		return "text/csv"
	case "xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func sanitizeFilename(raw string) string {
	if raw == "" {
		return "na"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "-", "\\", "-", ":", "-", "..", ".", "__", "_")
	result := replacer.Replace(raw)
	if len(result) > 100 {
		return result[:100]
	}
	return result
}

package service

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/scas-api/internal/analytics"
	"github.com/noah-isme/scas-api/internal/dto"
	"github.com/noah-isme/scas-api/internal/models"
	appErrors "github.com/noah-isme/scas-api/pkg/errors"
	"github.com/noah-isme/scas-api/pkg/export"
)

const (
	pendingFeesBaseName = "pending_fees_report"
	pendingFeesTitle    = "Pending Fees Report"
)

// ReportServiceConfig governs export retention.
type ReportServiceConfig struct {
	ResultTTL       time.Duration
	CleanupInterval time.Duration
}

// RenderedReport is a report ready to stream to the client.
type RenderedReport struct {
	Filename    string
	ContentType string
	Data        []byte
	Rows        int
}

// ReportDownload aggregates resolved download data.
type ReportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ReportService builds the pending fees report and serves persisted exports.
type ReportService struct {
	store    tableReader
	exporter *ExportService
	logger   *zap.Logger
	cfg      ReportServiceConfig
}

// NewReportService constructs the report service.
func NewReportService(store tableReader, exporter *ExportService, logger *zap.Logger, cfg ReportServiceConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	return &ReportService{store: store, exporter: exporter, logger: logger, cfg: cfg}
}

// PendingFees renders the pending fees table of the students matching the selection.
func (s *ReportService) PendingFees(ctx context.Context, selection models.Selection, format models.ExportFormat) (*RenderedReport, error) {
	dataset, err := s.pendingFeesDataset(ctx, selection)
	if err != nil {
		return nil, err
	}
	payload, err := s.exporter.Render(format, dataset, pendingFeesTitle)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pending fees report")
	}
	return &RenderedReport{
		Filename:    fmt.Sprintf("%s.%s", pendingFeesBaseName, format),
		ContentType: format.ContentType(),
		Data:        payload,
		Rows:        len(dataset.Rows),
	}, nil
}

// PersistPendingFees renders the report and stores it behind a signed download link.
func (s *ReportService) PersistPendingFees(ctx context.Context, selection models.Selection, format models.ExportFormat) (*dto.ExportLinkResponse, error) {
	report, err := s.PendingFees(ctx, selection, format)
	if err != nil {
		return nil, err
	}
	result, err := s.exporter.Persist(format, report.Filename, report.Data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store export")
	}
	s.logger.Info("pending fees export stored", zap.String("export_id", result.ID), zap.Int("rows", report.Rows))
	return &dto.ExportLinkResponse{
		ID:        result.ID,
		Format:    string(format),
		Filename:  result.Filename,
		Rows:      report.Rows,
		URL:       result.URL,
		ExpiresAt: result.ExpiresAt,
	}, nil
}

// ResolveDownload validates the token and opens the stored export file.
func (s *ReportService) ResolveDownload(_ context.Context, token string) (*ReportDownload, error) {
	exportID, relPath, expiresAt, err := s.exporter.ParseToken(token, false)
	if err != nil {
		return nil, appErrors.ErrInvalidToken
	}
	if !strings.HasPrefix(relPath, exportID+"/") {
		return nil, appErrors.Clone(appErrors.ErrInvalidToken, "token does not match export")
	}
	file, err := s.exporter.Open(relPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export no longer available")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	filename := path.Base(relPath)
	format := models.ExportFormatCSV
	if strings.HasSuffix(filename, ".pdf") {
		format = models.ExportFormatPDF
	}
	return &ReportDownload{
		File:        file,
		Filename:    filename,
		ContentType: format.ContentType(),
		ExpiresAt:   expiresAt,
	}, nil
}

// StartCleanup boots a goroutine that purges expired exports periodically.
func (s *ReportService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired()
			}
		}
	}()
}

func (s *ReportService) cleanupExpired() {
	deleted, err := s.exporter.Cleanup(s.cfg.ResultTTL)
	if err != nil {
		s.logger.Sugar().Warnw("export cleanup failed", "error", err)
		return
	}
	if len(deleted) > 0 {
		s.logger.Sugar().Infow("expired exports removed", "count", len(deleted))
	}
}

func (s *ReportService) pendingFeesDataset(ctx context.Context, selection models.Selection) (export.Dataset, error) {
	table, err := s.store.ReadAll(ctx, models.EntityStudents)
	if err != nil {
		return export.Dataset{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load students")
	}
	schema := table.Schema()
	if !analytics.HasPendingFeeColumns(schema) {
		return export.Dataset{}, appErrors.Clone(appErrors.ErrValidation, "pending fee columns are not available")
	}
	selection = scopeSelection(models.EntityStudents, selection)
	students := analytics.Apply(models.StudentsFromTable(table), schema, selection)
	return export.Dataset{
		Headers: analytics.PendingFeeColumns,
		Rows:    analytics.PendingFeeRows(students),
	}, nil
}

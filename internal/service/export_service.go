package service

import (
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/scas-api/internal/models"
	"github.com/noah-isme/scas-api/pkg/export"
	"github.com/noah-isme/scas-api/pkg/storage"
)

type fileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ExportConfig tunes export behaviour.
type ExportConfig struct {
	APIPrefix string
	ResultTTL time.Duration
}

// ExportResult captures a persisted export and its signed download link.
type ExportResult struct {
	ID           string
	RelativePath string
	Filename     string
	Token        string
	URL          string
	Format       models.ExportFormat
	ExpiresAt    time.Time
}

// ExportService renders datasets and persists them behind signed download tokens.
type ExportService struct {
	storage fileStorage
	csv     csvRenderer
	pdf     pdfRenderer
	signer  *storage.SignedURLSigner
	logger  *zap.Logger
	cfg     ExportConfig
}

// NewExportService constructs an ExportService.
func NewExportService(storage fileStorage, signer *storage.SignedURLSigner, cfg ExportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ExportService{
		storage: storage,
		csv:     csv,
		pdf:     pdf,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// Render encodes the dataset in the requested format.
func (s *ExportService) Render(format models.ExportFormat, dataset export.Dataset, title string) ([]byte, error) {
	switch format {
	case models.ExportFormatCSV:
		return s.csv.Render(dataset)
	case models.ExportFormatPDF:
		return s.pdf.Render(dataset, title)
	default:
		return nil, fmt.Errorf("unsupported format %s", format)
	}
}

// Persist stores a rendered payload under a fresh export ID and signs a download token for it.
func (s *ExportService) Persist(format models.ExportFormat, filename string, payload []byte) (*ExportResult, error) {
	if s.storage == nil || s.signer == nil {
		return nil, fmt.Errorf("export storage is not configured")
	}
	id := uuid.NewString()
	relPath, err := s.storage.Save(path.Join(id, sanitizeFilename(filename)), payload)
	if err != nil {
		return nil, err
	}

	token, expiresAt, err := s.signer.Generate(id, relPath)
	if err != nil {
		_ = s.storage.Delete(relPath)
		return nil, err
	}
	prefix := strings.TrimRight(s.cfg.APIPrefix, "/")
	if prefix == "" {
		prefix = "/api/v1"
	}

	s.logger.Debug("export persisted", zap.String("export_id", id), zap.String("path", relPath))
	return &ExportResult{
		ID:           id,
		RelativePath: relPath,
		Filename:     path.Base(relPath),
		Token:        token,
		URL:          fmt.Sprintf("%s/exports/%s", prefix, token),
		Format:       format,
		ExpiresAt:    expiresAt,
	}, nil
}

// ParseToken validates download token metadata.
func (s *ExportService) ParseToken(token string, allowExpired bool) (exportID, relPath string, expiresAt time.Time, err error) {
	if s.signer == nil {
		return "", "", time.Time{}, fmt.Errorf("export signer is not configured")
	}
	return s.signer.Parse(token, allowExpired)
}

// Open returns a handle to the stored file.
func (s *ExportService) Open(relPath string) (*os.File, error) {
	return s.storage.Open(relPath)
}

// Cleanup removes files older than ttl (defaults to configured ResultTTL when ttl <= 0).
func (s *ExportService) Cleanup(ttl time.Duration) ([]string, error) {
	if s.storage == nil {
		return nil, nil
	}
	if ttl <= 0 {
		ttl = s.cfg.ResultTTL
	}
	return s.storage.CleanupOlderThan(ttl)
}

package main

import (
	"context"
	"io"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/scas-api/api/swagger"
	"github.com/noah-isme/scas-api/internal/editor"
	"github.com/noah-isme/scas-api/internal/handler"
	"github.com/noah-isme/scas-api/internal/models"
	"github.com/noah-isme/scas-api/internal/repository"
	"github.com/noah-isme/scas-api/internal/server"
	"github.com/noah-isme/scas-api/internal/service"
	"github.com/noah-isme/scas-api/pkg/cache"
	"github.com/noah-isme/scas-api/pkg/config"
	"github.com/noah-isme/scas-api/pkg/database"
	"github.com/noah-isme/scas-api/pkg/export"
	"github.com/noah-isme/scas-api/pkg/jobs"
	"github.com/noah-isme/scas-api/pkg/logger"
	"github.com/noah-isme/scas-api/pkg/storage"
)

// @title SCAS API
// @version 1.0.0
// @description Campus analytics over student, faculty and facility records
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := database.Open(cfg.Database)
	if err != nil {
		logr.Fatal("failed to open record store", zap.String("driver", cfg.Database.Driver), zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()
	recordRepo := repository.NewRecordRepository(db, metricsSvc)
	if cfg.Database.AutoMigrate {
		if err := recordRepo.EnsureSchema(ctx); err != nil {
			logr.Fatal("failed to ensure schema", zap.Error(err))
		}
	}

	var redisClient *redis.Client
	if cfg.Cache.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, KPI caching disabled", zap.Error(err))
			redisClient = nil
		}
	}
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cfg.Cache.Enabled && redisClient != nil)

	archive, err := newArchive(ctx, cfg.Archive)
	if err != nil {
		logr.Fatal("failed to init upload archive", zap.String("driver", cfg.Archive.Driver), zap.Error(err))
	}
	exportStorage, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Fatal("failed to init export storage", zap.Error(err))
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Store:   recordRepo,
		Cache:   cacheSvc,
		Metrics: metricsSvc,
		Logger:  logr,
		Config: service.DashboardServiceConfig{
			CacheTTL:         cfg.Cache.TTL,
			OverallPassCGPA:  cfg.KPI.OverallPassCGPA,
			StudentPassCGPA:  cfg.KPI.StudentPassCGPA,
			AtRiskCGPA:       cfg.KPI.AtRiskCGPA,
			HighAchieverCGPA: cfg.KPI.HighAchieverCGPA,
			HistogramBins:    cfg.KPI.HistogramBins,
		},
	})

	recordSvc := service.NewRecordService(recordRepo, editor.New(editor.NewKeyGenerator(nil)), cacheSvc, logr)

	var uploadSvc *service.UploadService
	archiveQueue := jobs.NewQueue("upload-archive", func(ctx context.Context, job jobs.Job) error {
		return uploadSvc.HandleArchiveJob(ctx, job)
	}, jobs.QueueConfig{
		Workers:    2,
		MaxRetries: 3,
		RetryDelay: 2 * time.Second,
		JobTimeout: time.Minute,
		Logger:     logr,
	})
	uploadSvc = service.NewUploadService(service.UploadServiceParams{
		Store:   recordRepo,
		Archive: archive,
		Queue:   archiveQueue,
		Cache:   cacheSvc,
		Metrics: metricsSvc,
		Logger:  logr,
		Config: service.UploadServiceConfig{
			MaxFileSize: cfg.Uploads.MaxFileSizeBytes,
			PreviewRows: cfg.Uploads.PreviewRows,
		},
	})
	archiveQueue.Start(ctx)

	exportSvc := service.NewExportService(exportStorage, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Exports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter())
	reportSvc := service.NewReportService(recordRepo, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Exports.SignedURLTTL,
		CleanupInterval: time.Hour,
	})
	reportSvc.StartCleanup(ctx)

	checks := map[string]handler.Pinger{"database": recordRepo, "exports": exportStorage}
	if redisClient != nil {
		checks["cache"] = cacheRepo
	}
	if pinger, ok := archive.(handler.Pinger); ok {
		checks["archive"] = pinger
	}

	router := server.NewRouter(cfg, logr, metricsSvc, server.Handlers{
		Dashboard:  handler.NewDashboardHandler(dashboardSvc),
		Students:   handler.NewRecordHandler(recordSvc, models.EntityStudents),
		Faculty:    handler.NewRecordHandler(recordSvc, models.EntityFaculty),
		Facilities: handler.NewRecordHandler(recordSvc, models.EntityFacilities),
		Upload:     handler.NewUploadHandler(uploadSvc),
		Report:     handler.NewReportHandler(reportSvc),
		Metrics:    handler.NewMetricsHandler(metricsSvc, checks),
	})

	srv := server.New(cfg.Port, router, logr)
	srv.OnShutdown("archive queue", closerFunc(func() error {
		archiveQueue.Stop()
		cancel()
		return nil
	}))
	srv.OnShutdown("cache", cacheRepo)
	srv.OnShutdown("record store", db)

	logr.Info("server starting",
		zap.Int("port", cfg.Port),
		zap.String("env", cfg.Env),
		zap.String("db_driver", cfg.Database.Driver),
		zap.Bool("cache", cacheSvc.Enabled()),
		zap.String("archive", archive.Driver()),
	)
	if err := srv.Run(); err != nil {
		logr.Error("server stopped with error", zap.Error(err))
	}
}

type archiveStore interface {
	Driver() string
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
}

func newArchive(ctx context.Context, cfg config.ArchiveConfig) (archiveStore, error) {
	if cfg.Driver == config.ArchiveS3 {
		return storage.NewS3Store(ctx, storage.S3Config{
			Region:          cfg.S3.Region,
			Bucket:          cfg.S3.Bucket,
			Endpoint:        cfg.S3.Endpoint,
			AccessKeyID:     cfg.S3.AccessKeyID,
			SecretAccessKey: cfg.S3.SecretAccessKey,
			PathStyle:       cfg.S3.PathStyle,
		})
	}
	return storage.NewLocalStorage(cfg.StorageDir)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

package server

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/scas-api/internal/handler"
	"github.com/noah-isme/scas-api/internal/middleware"
	"github.com/noah-isme/scas-api/internal/service"
	"github.com/noah-isme/scas-api/pkg/config"
	"github.com/noah-isme/scas-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/scas-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/scas-api/pkg/middleware/requestid"
)

// Handlers bundles every HTTP handler the router mounts.
type Handlers struct {
	Dashboard  *handler.DashboardHandler
	Students   *handler.RecordHandler
	Faculty    *handler.RecordHandler
	Facilities *handler.RecordHandler
	Upload     *handler.UploadHandler
	Report     *handler.ReportHandler
	Metrics    *handler.MetricsHandler
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(cfg *config.Config, logr *zap.Logger, metrics *service.MetricsService, h Handlers) *gin.Engine {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(middleware.WithResponseMeta())

	dashboard := api.Group("/dashboard")
	dashboard.GET("/overview", h.Dashboard.Overview)
	dashboard.GET("/students", h.Dashboard.Students)
	dashboard.GET("/faculty", h.Dashboard.Faculty)
	dashboard.GET("/facilities", h.Dashboard.Facilities)
	dashboard.GET("/filters", h.Dashboard.FilterOptions)

	api.GET("/facilities/validation", h.Dashboard.Validation)

	mountRecords(api.Group("/students"), h.Students)
	mountRecords(api.Group("/faculty"), h.Faculty)
	mountRecords(api.Group("/facilities"), h.Facilities)

	uploads := api.Group("/uploads")
	uploads.POST("/:entity/preview", h.Upload.Preview)
	uploads.POST("/:entity", h.Upload.Commit)

	api.GET("/reports/pending-fees", h.Report.PendingFees)
	api.GET("/exports/:token", h.Report.Download)

	api.GET("/system/metrics", h.Metrics.Summary)

	return r
}

func mountRecords(group *gin.RouterGroup, h *handler.RecordHandler) {
	group.GET("", h.List)
	group.GET("/:id", h.Get)
	group.POST("", h.Create)
	group.PUT("/:id", h.Update)
}

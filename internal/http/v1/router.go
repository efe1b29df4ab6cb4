// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"masterdata/internal/core/capability"
	"masterdata/internal/dashboard"
	"masterdata/internal/descriptor"
	"masterdata/internal/engine"
	"masterdata/internal/http/v1/handlers"
	"masterdata/internal/http/v1/middleware"
	"masterdata/internal/importexport"
	"masterdata/internal/metrics"
	"masterdata/pkg/logger"
)

// RouterConfig wires the router's collaborators.
type RouterConfig struct {
	// Registry holds every registered entity descriptor.
	Registry *descriptor.Registry

	// Capabilities gates module route registration and the import/export
	// facade.
	Capabilities capability.Registry

	// Engine is the generic CRUD engine shared by all entity routes.
	Engine *engine.Service

	// History serves per-record audit trails (nil when auditing is off).
	History handlers.Historian

	// ImportExport is the capability-gated delegate.
	ImportExport *importexport.Delegate

	// DB is pinged by the readiness probe (nil for the in-memory store).
	DB handlers.Pinger

	// Logger for request logging.
	Logger *logger.Logger

	// TokenValidator enables bearer-token auth when non-nil.
	TokenValidator middleware.TokenValidator
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(metrics.Middleware())
	router.Use(middleware.ErrorHandler())

	// Health and metrics (no auth)
	healthHandler := handlers.NewHealthHandler(cfg.DB)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
	}
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	base := handlers.NewBaseHandler()

	// API v1
	api := router.Group("/api/v1")
	if cfg.TokenValidator != nil {
		api.Use(middleware.Auth(cfg.TokenValidator))
	}
	{
		// Generic CRUD routes, one group per enabled module.
		mdHandler := handlers.NewMasterDataHandler(base, cfg.Engine, cfg.History)
		moduleGroups := map[string]*gin.RouterGroup{}
		for _, e := range cfg.Registry.List() {
			if !cfg.Capabilities.Enabled(e.Module) {
				continue
			}
			g, ok := moduleGroups[e.Module]
			if !ok {
				g = api.Group("/" + e.Module)
				moduleGroups[e.Module] = g
			}
			mdHandler.RegisterEntity(g, e)
		}

		// Master-data dashboard and import/export facade.
		masterData := api.Group("/master-data")
		counter := dashboard.Counter(cfg.Engine)
		dashHandler := handlers.NewDashboardHandler(
			base, dashboard.NewAggregator(cfg.Registry, cfg.Capabilities, counter))
		masterData.GET("/dashboard", dashHandler.Get)

		ieHandler := handlers.NewImportExportHandler(base, cfg.ImportExport)
		ieHandler.Register(masterData)

		// Descriptor metadata for generic UIs.
		metaHandler := handlers.NewMetaHandler(base, cfg.Registry)
		api.GET("/meta", metaHandler.List)
		api.GET("/meta/:key", metaHandler.Get)
	}

	return router
}

// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"gestcom/internal/domain/documents"
	"gestcom/internal/domain/reports"
	"gestcom/internal/domain/settings"
	"gestcom/internal/infrastructure/http/v1/handlers"
	"gestcom/internal/infrastructure/http/v1/middleware"
	"gestcom/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	Documents *documents.Service
	Settings  *settings.Service
	Reports   *reports.Service

	// History enables GET /documents/:kind/:id/history when set
	History documents.HistoryReader

	// Idempotency enables X-Idempotency-Key replay when set
	Idempotency middleware.IdempotencyStore

	// Storage names the backend for health output; DB is pinged by /health/ready
	Storage string
	DB      handlers.Pinger
	Version string

	// Debug switches gin to debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	handlers.NewHealthHandler(cfg.Storage, cfg.DB, cfg.Version).RegisterRoutes(router.Group("/health"))

	api := router.Group("/api/v1")
	if cfg.Idempotency != nil {
		api.Use(middleware.Idempotency(cfg.Idempotency))
	}

	base := handlers.NewBaseHandler()
	routes := map[string]RouteRegistrar{
		"/documents": handlers.NewDocumentHandler(base, cfg.Documents, cfg.History),
		"/totals":    handlers.NewTotalsHandler(base, cfg.Documents),
	}
	if cfg.Settings != nil {
		routes["/settings"] = handlers.NewSettingsHandler(base, cfg.Settings)
	}
	if cfg.Reports != nil {
		routes["/reports"] = handlers.NewReportsHandler(base, cfg.Reports)
	}
	Mount(api, routes)

	return router
}

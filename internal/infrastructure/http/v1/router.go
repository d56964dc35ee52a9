// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"stockreturn/internal/core/tenant"
	"stockreturn/internal/infrastructure/http/v1/handlers"
	"stockreturn/internal/infrastructure/http/v1/middleware"
	"stockreturn/pkg/logger"
)

// RouterConfig holds router dependencies.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// Companies resolves X-Tenant-ID (usually the Redis-backed cache)
	Companies tenant.Registry

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	// Idempotency stores replayable POST responses; nil disables the middleware
	Idempotency middleware.IdempotencyStore

	GoodsReturns handlers.GoodsReturnService
	Inventory    handlers.InventoryService

	// Per-return audit trail and register rows
	History   handlers.HistoryReader
	Movements handlers.RecorderMovements

	// Health probes
	Database handlers.DatabaseProbe
	Redis    redis.UniversalClient
	Version  string

	// Debug keeps gin in debug mode
	Debug bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	middleware.SetupValidator()

	if cfg.Logger == nil {
		cfg.Logger = logger.Default()
	}

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	// Health endpoints (no auth, no tenant required)
	healthHandler := handlers.NewHealthHandler(cfg.Database, cfg.Redis, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	v1.Use(middleware.TenantContext(cfg.Companies)) // 1. Resolve company
	v1.Use(middleware.Auth(cfg.JWTValidator))       // 2. Validate JWT against that company
	if cfg.Idempotency != nil {
		v1.Use(middleware.Idempotency(cfg.Idempotency)) // 3. Replay duplicate POSTs
	}

	baseHandler := handlers.NewBaseHandler()
	RegisterGoodsReturnRoutes(v1, handlers.NewGoodsReturnHandler(baseHandler, cfg.GoodsReturns, cfg.History, cfg.Movements))
	RegisterInventoryRoutes(v1, handlers.NewInventoryHandler(baseHandler, cfg.Inventory))

	return router
}

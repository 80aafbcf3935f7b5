package router

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/AdX213/erli-sync/internal/infrastructure/logger"
	"github.com/AdX213/erli-sync/internal/interfaces/http/handler"
	"github.com/AdX213/erli-sync/internal/interfaces/http/middleware"
)

// RouteRegistrar defines the interface for registering routes
type RouteRegistrar interface {
	RegisterRoutes(rg *gin.RouterGroup)
}

// Config holds router configuration
type Config struct {
	// Env decides the gin mode
	Env string
	// CronToken guards the sync-triggering endpoints
	CronToken string
}

// New builds the gin engine with the service's middleware chain and routes.
// Health is open; everything under /sync requires the cron token.
func New(cfg Config, zapLogger *zap.Logger, system *handler.SystemHandler, sync *handler.SyncHandler) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(
		logger.Recovery(zapLogger),
		middleware.RequestID(),
		logger.GinMiddleware(zapLogger),
		middleware.Secure(),
	)

	root := engine.Group("/")
	system.RegisterRoutes(root)

	guarded := engine.Group("/", middleware.CronTokenAuth(cfg.CronToken))
	sync.RegisterRoutes(guarded)

	return engine
}

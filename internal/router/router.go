package router

import (
	"time"

	"github.com/examstack/examhall-backend/internal/config"
	"github.com/examstack/examhall-backend/internal/handler"
	"github.com/examstack/examhall-backend/internal/middleware"
	"github.com/examstack/examhall-backend/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	WS     *handler.WSHandler
	System *handler.SystemHandler
}

// SetupRouter configures the Gin engine. The HTTP surface is deliberately
// small: a health probe and the exam stream endpoint. Management REST lives
// in a separate service.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Health check.
	router.GET("/health", handlers.System.Health)

	// ─── WebSocket Group ───────────────────────────────────────────────
	// Connection attempts are rate limited per IP; a reconnect storm from
	// one client must not starve the upgrader.
	connectLimiter := middleware.NewRateLimiter(cfg.ConnectRateLimit, time.Minute)

	ws := router.Group("/ws/v1")
	ws.Use(connectLimiter.Middleware())
	{
		ws.GET("/exams/stream", handlers.WS.ExamStream)
	}

	return router
}

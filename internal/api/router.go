package api

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/welldanyogia/seatea-inbox/internal/api/handlers"
	"github.com/welldanyogia/seatea-inbox/internal/api/middleware"
	"github.com/welldanyogia/seatea-inbox/internal/logger"
	"github.com/welldanyogia/seatea-inbox/internal/services"
	"github.com/welldanyogia/seatea-inbox/internal/websocket"
	"golang.org/x/time/rate"
	"gorm.io/gorm"
)

// RouterConfig holds dependencies for the router
type RouterConfig struct {
	DB        *gorm.DB
	Service   services.MessageService
	Tokens    middleware.TokenParser
	Hub       *websocket.Hub
	Logger    *slog.Logger
	SecLogger *logger.SecurityLogger
	// Security configuration
	AllowedOrigins []string // Allowed CORS and websocket origins
	Production     bool     // Refuse wildcard origins
	// Limiter is shared so the caller can run its cleanup loop; when nil
	// one is built from RateLimit and RateBurst.
	Limiter   *middleware.IPRateLimiter
	RateLimit float64
	RateBurst int
}

// NewRouter creates and configures the Echo router with all routes
func NewRouter(cfg *RouterConfig) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	limiter := cfg.Limiter
	if limiter == nil {
		rps, burst := cfg.RateLimit, cfg.RateBurst
		if rps <= 0 {
			rps, burst = 10, 20
		}
		limiter = middleware.NewIPRateLimiter(rate.Limit(rps), burst)
	}

	// 1. Recover from panics
	e.Use(middleware.Recover())
	// 2. Request ID before anything logs
	e.Use(middleware.RequestID())
	// 3. Security headers
	e.Use(middleware.SecureHeaders())
	// 4. CORS
	e.Use(middleware.SecureCORS(cfg.AllowedOrigins, cfg.Production))
	// 5. Rate limiting
	e.Use(middleware.RateLimiter(limiter, cfg.SecLogger))
	// 6. Metrics
	e.Use(middleware.Metrics())
	// 7. Request logging
	if cfg.Logger != nil {
		e.Use(middleware.RequestLogger(cfg.Logger))
	}

	healthHandler := handlers.NewHealthHandler(cfg.DB)
	messageHandler := handlers.NewMessageHandler(cfg.Service)

	// Health and metrics routes (no auth required)
	e.GET("/health", healthHandler.Health)
	e.GET("/ready", healthHandler.Ready)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Websocket authenticates with a query token
	if cfg.Hub != nil {
		upgrader := websocket.NewSecureUpgrader(cfg.AllowedOrigins, cfg.SecLogger)
		wsHandler := handlers.NewWSHandler(cfg.Hub, cfg.Tokens, upgrader, cfg.SecLogger, cfg.Logger)
		e.GET("/ws", wsHandler.Handle)
	}

	// API routes
	api := e.Group("/api")
	api.Use(middleware.JWTAuth(cfg.Tokens, cfg.SecLogger))

	messages := api.Group("/messages")
	messages.GET("/conversations", messageHandler.Conversations)
	messages.GET("/unread-count", messageHandler.UnreadCount)
	messages.GET("/conversations/:partner_id", messageHandler.Messages)
	messages.PUT("/conversations/:partner_id/read", messageHandler.MarkRead)
	messages.POST("", messageHandler.Send)

	return e
}

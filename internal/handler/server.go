package handler

import (
	_ "embed"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/hassan123789/mathbot/internal/memory"
)

//go:embed static/index.html
var indexPage []byte

// ServerConfig lists what NewServer needs.
type ServerConfig struct {
	Assistant Assistant
	Sessions  *memory.SessionStore
	Logger    *zap.Logger

	// APIRateLimit caps requests per second per client IP on /api.
	// Zero disables the limit.
	APIRateLimit float64
}

// NewServer builds the echo instance with middleware and routes.
func NewServer(cfg ServerConfig) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = NewRequestValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			fields := []zap.Field{
				zap.String("method", v.Method),
				zap.String("uri", v.URI),
				zap.Int("status", v.Status),
				zap.Duration("latency", v.Latency),
				zap.String("request_id", v.RequestID),
			}
			if v.Error != nil {
				logger.Error("request", append(fields, zap.Error(v.Error))...)
				return nil
			}
			logger.Info("request", fields...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	chatHandler := NewChatHandler(cfg.Assistant)
	sessionHandler := NewSessionHandler(cfg.Assistant, cfg.Sessions, logger.Named("http"))

	e.GET("/", Index)
	e.GET("/health", chatHandler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	if cfg.APIRateLimit > 0 {
		api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(cfg.APIRateLimit))))
	}
	api.POST("/chat", chatHandler.Chat)
	api.POST("/calculate", Calculate)
	api.POST("/sessions", sessionHandler.Create)
	api.GET("/sessions/:id/messages", sessionHandler.Messages)
	api.POST("/sessions/:id/messages", sessionHandler.Ask)
	api.DELETE("/sessions/:id", sessionHandler.Delete)

	return e
}

// Index serves the chat page.
func Index(c echo.Context) error {
	return c.Blob(http.StatusOK, echo.MIMETextHTMLCharsetUTF8, indexPage)
}

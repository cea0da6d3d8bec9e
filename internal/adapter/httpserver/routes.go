package httpserver

import (
	"log/slog"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
)

const maxDeliveryBody = "1M"

func (s *Server) registerRoutes() {
	s.echo.Use(correlationMiddleware)
	s.echo.Use(s.setupRequestLoggerMiddleware())
	s.echo.Use(middleware.Recover())
	if s.observability.HTTP != nil {
		s.echo.Use(s.observability.HTTP.Middleware())
	}
	s.echo.Use(apperrors.Middleware(s.observability.ObserveError))
	s.echo.Use(middleware.SecureWithConfig(middleware.SecureConfig{
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "DENY",
		ReferrerPolicy:     "no-referrer",
	}))

	s.registerHealthRoutes()
	s.registerHubRoutes()
	s.registerChatRoutes()
	s.registerAdminRoutes()

	if s.observability.MetricsHandler != nil {
		s.echo.GET("/metrics", echo.WrapHandler(s.observability.MetricsHandler))
	}
}

func (s *Server) registerHubRoutes() {
	s.echo.GET("/posts", s.handleChallenge)
	s.echo.POST("/posts", s.handleDelivery, middleware.BodyLimit(maxDeliveryBody))
}

func (s *Server) registerChatRoutes() {
	limiter := newRateLimiter(s.config.ChatRateLimit, s.config.ChatRateBurst)
	s.echo.POST("/chat/message", s.handleChatMessage, limiter)
}

func (s *Server) setupRequestLoggerMiddleware() echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogStatus:  true,
		LogURI:     true,
		LogMethod:  true,
		LogLatency: true,
		LogError:   true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
			}
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error)
			}
			slog.InfoContext(c.Request().Context(), "Request", attrs...)
			return nil
		},
	})
}

package httpserver

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pscheid92/buzzbot/internal/adapter/metrics"
	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/chat"
	"github.com/pscheid92/buzzbot/internal/domain"
	"github.com/pscheid92/buzzbot/internal/message"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
)

type chatService interface {
	HandleMessage(ctx context.Context, msg chat.Message) *message.Builder
}

type hubService interface {
	VerifyChallenge(ctx context.Context, mode string, id domain.SubscriptionID) (bool, error)
	Deliver(ctx context.Context, id domain.SubscriptionID, body []byte) (*app.DeliveryReport, error)
}

// adminService is optional; without it or without an AdminToken no admin
// routes are served.
type adminService interface {
	Remove(ctx context.Context, id domain.SubscriptionID) (*domain.Subscription, error)
}

type Config struct {
	Port          string
	ChatRateLimit float64
	ChatRateBurst int
	AdminToken    string
}

// Observability is optional; a zero value serves no /metrics route and
// records nothing.
type Observability struct {
	HTTP           *metrics.HTTPMetrics
	MetricsHandler http.Handler
	ObserveError   apperrors.Observer
}

type Server struct {
	echo   *echo.Echo
	config Config

	chat  chatService
	hub   hubService
	admin adminService

	observability Observability
	healthChecks  []HealthCheck
	startTime     time.Time
}

func NewServer(cfg Config, chat chatService, hub hubService, admin adminService, observability Observability, healthChecks []HealthCheck) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	srv := &Server{
		echo:          e,
		config:        cfg,
		chat:          chat,
		hub:           hub,
		admin:         admin,
		observability: observability,
		healthChecks:  healthChecks,
		startTime:     time.Now(),
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	slog.Info("Starting server", "port", s.config.Port)
	if err := s.echo.Start(":" + s.config.Port); err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.echo.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}

// ServeHTTP exposes the full middleware stack, mainly for tests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.echo.ServeHTTP(w, r)
}

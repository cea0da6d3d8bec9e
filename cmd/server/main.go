package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/failsafe-go/failsafe-go/circuitbreaker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"
	goredis "github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/pscheid92/buzzbot/internal/adapter/activities"
	"github.com/pscheid92/buzzbot/internal/adapter/chatgateway"
	"github.com/pscheid92/buzzbot/internal/adapter/feed"
	"github.com/pscheid92/buzzbot/internal/adapter/httpserver"
	"github.com/pscheid92/buzzbot/internal/adapter/hub"
	"github.com/pscheid92/buzzbot/internal/adapter/memory"
	"github.com/pscheid92/buzzbot/internal/adapter/metrics"
	"github.com/pscheid92/buzzbot/internal/adapter/postgres"
	"github.com/pscheid92/buzzbot/internal/adapter/redis"
	"github.com/pscheid92/buzzbot/internal/app"
	"github.com/pscheid92/buzzbot/internal/domain"
	"github.com/pscheid92/buzzbot/internal/message"
	"github.com/pscheid92/buzzbot/internal/platform/config"
	apperrors "github.com/pscheid92/buzzbot/internal/platform/errors"
	"github.com/pscheid92/buzzbot/internal/platform/logging"
	"github.com/pscheid92/buzzbot/internal/platform/retry"
	"github.com/pscheid92/buzzbot/internal/platform/version"
)

// stores bundles the repositories picked at startup.
type stores struct {
	subscriptions domain.SubscriptionRepository
	tokens        domain.TokenRepository
	healthChecks  []httpserver.HealthCheck
	close         func()
}

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func connectDB(cfg *config.Config, clock clockwork.Clock, infra *metrics.InfraMetrics) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	policy := retry.Policy{
		MaxAttempts:    5,
		InitialBackoff: time.Second,
		MaxBackoff:     10 * time.Second,
		Clock:          clock,
		OnRetry: func(attempt int, err error, backoff time.Duration) {
			slog.Warn("Database not reachable, retrying", "attempt", attempt, "backoff", backoff, "error", err)
		},
	}
	tracer := postgres.NewQueryTracer(infra.ObserveQuery)

	pool, err := retry.Do(ctx, policy, retry.Always, func(ctx context.Context) (*pgxpool.Pool, error) {
		return postgres.Connect(ctx, cfg.DatabaseURL, tracer)
	})
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := postgres.RunMigrationsWithLock(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func setupStores(cfg *config.Config, clock clockwork.Clock, infra *metrics.InfraMetrics) stores {
	if cfg.DatabaseURL == "" {
		slog.Warn("DATABASE_URL not set, subscriptions are kept in memory only")
		return stores{
			subscriptions: memory.NewSubscriptionStore(clock),
			tokens:        memory.NewTokenStore(clock),
			close:         func() {},
		}
	}

	pool := connectDB(cfg, clock, infra)
	return stores{
		subscriptions: postgres.NewSubscriptionRepo(pool),
		tokens:        postgres.NewTokenRepo(pool),
		healthChecks:  []httpserver.HealthCheck{{Name: "postgres", Check: pool.Ping}},
		close:         pool.Close,
	}
}

func setupRedis(cfg *config.Config, infra *metrics.InfraMetrics) *goredis.Client {
	if cfg.RedisURL == "" {
		slog.Info("REDIS_URL not set, delivery de-duplication disabled")
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	breaker := redis.NewCircuitBreakerHook(func(_, to circuitbreaker.State) {
		infra.BreakerTransition("redis", to.String())
	})
	client, err := redis.NewClient(ctx, cfg.RedisURL, redis.NewMetricsHook(infra.ObserveRedis, infra.RedisDialError), breaker)
	if err != nil {
		slog.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	return client
}

func setupNotifier(cfg *config.Config, mode message.Mode, infra *metrics.InfraMetrics) domain.Notifier {
	if cfg.ChatGatewayURL == "" {
		slog.Warn("CHAT_GATEWAY_URL not set, outbound chat messages are only logged")
		return chatgateway.LogNotifier{}
	}
	onState := func(_, to circuitbreaker.State) { infra.BreakerTransition("chat_gateway", to.String()) }
	return chatgateway.NewNotifier(cfg.ChatGatewayURL, mode == message.ModeMarkup, cfg.NotifyTimeout, onState)
}

func runGracefulShutdown(srv *httpserver.Server) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port, "version", version.Get().String())

	registry := metrics.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	botMetrics := metrics.NewBotMetrics(registry)
	infraMetrics := metrics.NewInfraMetrics(registry)

	st := setupStores(cfg, clock, infraMetrics)
	defer st.close()
	healthChecks := st.healthChecks

	var deduper domain.DeliveryDeduper
	if redisClient := setupRedis(cfg, infraMetrics); redisClient != nil {
		defer func() { _ = redisClient.Close() }()
		deduper = redis.NewDeliveryDeduper(redisClient, cfg.DeliveryDedupTTL)
		healthChecks = append(healthChecks, httpserver.HealthCheck{
			Name:  "redis",
			Check: func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
		})
	}

	mode := message.ParseMode(cfg.ChatMessageFormat)

	hubClient := hub.NewClient(cfg.HubTimeout, func(_, to gobreaker.State) {
		infraMetrics.BreakerTransition("hub", to.String())
	})
	tracker := app.NewTracker(st.subscriptions, hubClient, app.TrackerConfig{
		SearchAPIBase:  cfg.SearchAPIBase(),
		HubURL:         cfg.HubURL,
		ServiceBaseURL: cfg.ServiceBaseURL,
	}, botMetrics)

	dispatcher := app.NewDispatcher(tracker, st.tokens, activities.NewPoster(cfg.ActivityAPIURL, cfg.NotifyTimeout), app.DispatcherConfig{
		BotAddress:     cfg.BotAddress,
		ServiceBaseURL: cfg.ServiceBaseURL,
		Version:        version.Get().String(),
		Mode:           mode,
	}, botMetrics)

	delivery := app.NewDelivery(tracker, feed.NewParser(), setupNotifier(cfg, mode, infraMetrics), deduper, mode, clock, botMetrics)

	srv := httpserver.NewServer(
		httpserver.Config{
			Port:          cfg.Port,
			ChatRateLimit: cfg.ChatRateLimit,
			ChatRateBurst: cfg.ChatRateBurst,
			AdminToken:    cfg.AdminToken,
		},
		dispatcher,
		delivery,
		tracker,
		httpserver.Observability{
			HTTP:           httpMetrics,
			MetricsHandler: metrics.Handler(registry),
			ObserveError:   func(t apperrors.Type) { httpMetrics.ObserveError(string(t)) },
		},
		healthChecks,
	)

	done := runGracefulShutdown(srv)

	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go-simpler.org/env"
)

// Message formats understood by the chat transport.
const (
	FormatXHTML = "xhtml"
	FormatPlain = "plain"
)

const minAdminTokenLength = 16

type Config struct {
	AppEnv    string `env:"APP_ENV" default:"development"`
	Port      string `env:"PORT" default:"8080"`
	LogLevel  string `env:"LOG_LEVEL" default:"info"`
	LogFormat string `env:"LOG_FORMAT" default:"text"`

	ServiceBaseURL string `env:"SERVICE_BASE_URL"`
	BotAddress     string `env:"BOT_ADDRESS" default:"buzzbot@appspot.com"`

	HubURL         string `env:"HUB_URL" default:"http://pubsubhubbub.appspot.com/"`
	SearchAPIHost  string `env:"SEARCH_API_HOST" default:"www.googleapis.com"`
	SearchAPIPath  string `env:"SEARCH_API_PATH" default:"/buzz/v1"`
	ActivityAPIURL string `env:"ACTIVITY_API_URL" default:"https://www.googleapis.com/buzz/v1"`

	DatabaseURL    string `env:"DATABASE_URL"`
	RedisURL       string `env:"REDIS_URL"`
	ChatGatewayURL string `env:"CHAT_GATEWAY_URL"`
	AdminToken     string `env:"ADMIN_TOKEN"`

	ChatMessageFormat string `env:"CHAT_MESSAGE_FORMAT" default:"xhtml"`

	HubTimeout    time.Duration `env:"HUB_TIMEOUT" default:"10s"`
	NotifyTimeout time.Duration `env:"NOTIFY_TIMEOUT" default:"10s"`

	ChatRateLimit float64 `env:"CHAT_RATE_LIMIT" default:"5"`
	ChatRateBurst int     `env:"CHAT_RATE_BURST" default:"10"`

	DeliveryDedupTTL time.Duration `env:"DELIVERY_DEDUP_TTL" default:"24h"`
}

func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	var cfg Config
	if err := env.Load(&cfg, nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	cfg.ServiceBaseURL = strings.TrimRight(cfg.ServiceBaseURL, "/")
	return &cfg, nil
}

func validate(cfg *Config) error {
	if cfg.ServiceBaseURL == "" {
		return errors.New("SERVICE_BASE_URL is required")
	}
	if err := requireAbsoluteURL("SERVICE_BASE_URL", cfg.ServiceBaseURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("HUB_URL", cfg.HubURL); err != nil {
		return err
	}
	if err := requireAbsoluteURL("ACTIVITY_API_URL", cfg.ActivityAPIURL); err != nil {
		return err
	}
	if cfg.ChatGatewayURL != "" {
		if err := requireAbsoluteURL("CHAT_GATEWAY_URL", cfg.ChatGatewayURL); err != nil {
			return err
		}
	}

	if cfg.AppEnv == "production" && cfg.DatabaseURL != "" {
		if mode := sslMode(cfg.DatabaseURL); mode == "disable" || mode == "allow" {
			return fmt.Errorf("DATABASE_URL uses sslmode=%s which is not allowed in production", mode)
		}
	}

	if cfg.AdminToken != "" && len(cfg.AdminToken) < minAdminTokenLength {
		return fmt.Errorf("ADMIN_TOKEN must be at least %d characters", minAdminTokenLength)
	}

	if cfg.SearchAPIHost == "" {
		return errors.New("SEARCH_API_HOST must not be empty")
	}

	switch cfg.ChatMessageFormat {
	case FormatXHTML, FormatPlain:
	default:
		return fmt.Errorf("CHAT_MESSAGE_FORMAT must be %q or %q, got %q", FormatXHTML, FormatPlain, cfg.ChatMessageFormat)
	}

	if cfg.ChatRateLimit <= 0 || cfg.ChatRateBurst <= 0 {
		return errors.New("CHAT_RATE_LIMIT and CHAT_RATE_BURST must be positive")
	}

	return nil
}

func requireAbsoluteURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s must be a valid URL: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL", name)
	}
	return nil
}

func sslMode(databaseURL string) string {
	u, err := url.Parse(databaseURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(u.Query().Get("sslmode"))
}

// SearchAPIBase returns the scheme, host and path prefix that topic URLs hang off.
func (c *Config) SearchAPIBase() string {
	return "https://" + c.SearchAPIHost + c.SearchAPIPath
}

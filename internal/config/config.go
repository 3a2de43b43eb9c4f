package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
)

type Config struct {
	DatabaseURL string `env:"DATABASE_URL,required" validate:"required"`

	StripeSecretKey string `env:"STRIPE_SECRET_KEY,required" validate:"required"`

	EkartBaseURL  string `env:"EKART_BASE_URL" envDefault:"https://api.ekartlogistics.com" validate:"required,url"`
	EkartClientID string `env:"EKART_CLIENT_ID,required" validate:"required"`
	EkartUsername string `env:"EKART_USERNAME,required" validate:"required"`
	EkartPassword string `env:"EKART_PASSWORD,required" validate:"required"`

	JWTSecret string `env:"JWT_SECRET,required" validate:"required,min=32"`

	BaseURL string `env:"BASE_URL" validate:"omitempty,url"`

	CacheProvider         string `env:"CACHE_PROVIDER" envDefault:"memory" validate:"omitempty,oneof=memory redis"`
	RedisConnectionString string `env:"REDIS_CONNECTION_STRING" envDefault:"redis://localhost:6379/0" validate:"required_if=CacheProvider redis"`

	ResendAPIKey string `env:"RESEND_API_KEY"`
	EmailFrom    string `env:"EMAIL_FROM" envDefault:"orders@snapkart.in" validate:"omitempty,email"`

	ReconcileInterval time.Duration `env:"RECONCILE_INTERVAL" envDefault:"5m" validate:"min=1m"`

	SentryDSN   string `env:"SENTRY_DSN"`
	Environment string `env:"ENVIRONMENT" envDefault:"development"`

	LogLevel  slog.Level `env:"LOG_LEVEL" envDefault:"INFO"`
	LogFormat string     `env:"LOG_FORMAT" envDefault:"text" validate:"omitempty,oneof=text json"`
	Port      string     `env:"PORT" envDefault:"8080"`
}

var configValidator = validator.New()

func Load() (*Config, error) {
	var cfg Config

	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) validate() error {
	if err := configValidator.Struct(c); err != nil {
		return err
	}

	baseURL := strings.TrimSpace(c.BaseURL)
	if baseURL != "" {
		parsed, err := url.Parse(baseURL)
		if err != nil || parsed.Hostname() == "" {
			return fmt.Errorf("BASE_URL must be a valid absolute URL")
		}
		if !isLocalHost(parsed.Hostname()) && !strings.EqualFold(parsed.Scheme, "https") {
			return fmt.Errorf("BASE_URL must use https outside local development")
		}
	}

	return nil
}

func isLocalHost(host string) bool {
	switch strings.ToLower(strings.TrimSpace(host)) {
	case "localhost", "127.0.0.1", "::1":
		return true
	default:
		return false
	}
}

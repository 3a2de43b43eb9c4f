package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func validConfig() *Config {
	return &Config{
		DatabaseURL:           "postgres://localhost:5432/snapkart",
		StripeSecretKey:       "sk_test_123",
		EkartBaseURL:          "https://api.ekartlogistics.com",
		EkartClientID:         "SNAPKART",
		EkartUsername:         "snapkart",
		EkartPassword:         "secret",
		JWTSecret:             strings.Repeat("s", 32),
		CacheProvider:         "memory",
		RedisConnectionString: "redis://localhost:6379/0",
		EmailFrom:             "orders@snapkart.in",
		ReconcileInterval:     5 * time.Minute,
		LogLevel:              slog.LevelInfo,
		LogFormat:             "text",
		Port:                  "8080",
	}
}

func TestValidateJWTSecretLength(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		wantErr bool
	}{
		{
			name:    "valid 32-byte secret",
			secret:  strings.Repeat("k", 32),
			wantErr: false,
		},
		{
			name:    "invalid short secret",
			secret:  "short",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.JWTSecret = tt.secret

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

func TestValidateCacheProvider(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheProvider = "invalid"

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "CacheProvider") || !strings.Contains(err.Error(), "oneof") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRedisConnectionStringForRedisCache(t *testing.T) {
	t.Parallel()

	cfg := validConfig()
	cfg.CacheProvider = "redis"
	cfg.RedisConnectionString = ""

	err := cfg.validate()
	if err == nil {
		t.Fatalf("expected error, got nil")
	}
	if !strings.Contains(err.Error(), "RedisConnectionString") || !strings.Contains(err.Error(), "required_if") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateBaseURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		baseURL string
		wantErr bool
	}{
		{name: "empty is allowed", baseURL: "", wantErr: false},
		{name: "https url", baseURL: "https://snapkart.in", wantErr: false},
		{name: "http localhost", baseURL: "http://localhost:8080", wantErr: false},
		{name: "http public host rejected", baseURL: "http://snapkart.in", wantErr: true},
		{name: "garbage rejected", baseURL: "not a url", wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validConfig()
			cfg.BaseURL = tt.baseURL

			err := cfg.validate()
			if tt.wantErr && err == nil {
				t.Fatalf("expected error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
		})
	}
}

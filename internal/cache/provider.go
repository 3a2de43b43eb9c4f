package cache

// Package cache provides short-lived caching, used for pincode
// serviceability answers from the carrier.

import (
	"context"
	"fmt"
	"time"
)

type Provider interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

type Config struct {
	Provider              string
	RedisConnectionString string
}

func NewProvider(cfg Config) (Provider, error) {
	switch cfg.Provider {
	case "memory", "":
		return NewMemoryProvider()
	case "redis":
		return NewRedisProvider(cfg.RedisConnectionString)
	default:
		return nil, fmt.Errorf("unsupported cache provider: %s", cfg.Provider)
	}
}

func ServiceabilityKey(pincode string) string {
	return fmt.Sprintf("serviceability:%s", pincode)
}

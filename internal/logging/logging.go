// Package logging builds the process logger and carries request-scoped
// loggers through context.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	sentryslog "github.com/getsentry/sentry-go/slog"
	"github.com/lmittmann/tint"
)

type contextKey string

const loggerKey contextKey = "logger"

// New returns the process logger. Format is "text" (tint) or "json". When
// Sentry is initialized, warn-and-above records are mirrored there.
func New(level slog.Level, format string, sentryEnabled bool) *slog.Logger {
	var base slog.Handler
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "json":
		base = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	default:
		base = tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}

	if sentryEnabled {
		sentryHandler := sentryslog.Option{
			EventLevel: []slog.Level{slog.LevelError},
			LogLevel:   []slog.Level{slog.LevelWarn, slog.LevelError},
		}.NewSentryHandler(context.Background())
		return slog.New(Fanout(base, sentryHandler))
	}
	return slog.New(base)
}

// WithLogger returns a context carrying the provided logger.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey, ensureLogger(logger))
}

// FromContext returns the logger stored in context, the fallback, or a no-op
// logger, in that order.
func FromContext(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return ensureLogger(fallback)
}

func ensureLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

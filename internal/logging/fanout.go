package logging

import (
	"context"
	"errors"
	"io"
	"log/slog"
)

// Fanout returns a handler that forwards each record to every non-nil handler.
func Fanout(handlers ...slog.Handler) slog.Handler {
	kept := make([]slog.Handler, 0, len(handlers))
	for _, h := range handlers {
		if h != nil {
			kept = append(kept, h)
		}
	}
	if len(kept) == 0 {
		return slog.NewTextHandler(io.Discard, nil)
	}
	return fanoutHandler(kept)
}

type fanoutHandler []slog.Handler

func (f fanoutHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range f {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (f fanoutHandler) Handle(ctx context.Context, record slog.Record) error {
	var err error
	for _, h := range f {
		if !h.Enabled(ctx, record.Level) {
			continue
		}
		err = errors.Join(err, h.Handle(ctx, record.Clone()))
	}
	return err
}

func (f fanoutHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := make([]slog.Handler, 0, len(f))
	for _, h := range f {
		next = append(next, h.WithAttrs(attrs))
	}
	return fanoutHandler(next)
}

func (f fanoutHandler) WithGroup(name string) slog.Handler {
	next := make([]slog.Handler, 0, len(f))
	for _, h := range f {
		next = append(next, h.WithGroup(name))
	}
	return fanoutHandler(next)
}

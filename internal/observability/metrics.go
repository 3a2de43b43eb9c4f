package observability

import (
	"context"

	"github.com/getsentry/sentry-go"
)

type meterKey struct{}

// WithMeter attaches a request-scoped meter to the context. Middleware seeds
// it with the request attributes; services downstream record counters against
// it. A nil meter attaches a fresh one, so callers never need to guard.
func WithMeter(ctx context.Context, meter sentry.Meter) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if meter == nil {
		meter = sentry.NewMeter(ctx)
	}
	return context.WithValue(ctx, meterKey{}, meter.WithCtx(ctx))
}

// MeterFromContext returns the attached meter rebound to ctx, so recorded
// values land on the current span. Contexts without a meter get a fresh one
// rather than nil.
func MeterFromContext(ctx context.Context) sentry.Meter {
	if ctx == nil {
		return sentry.NewMeter(context.Background())
	}
	meter, ok := ctx.Value(meterKey{}).(sentry.Meter)
	if !ok || meter == nil {
		meter = sentry.NewMeter(ctx)
	}
	return meter.WithCtx(ctx)
}

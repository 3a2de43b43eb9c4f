package observability

import (
	"context"
	"testing"
)

func TestMeterFromContext(t *testing.T) {
	t.Parallel()

	t.Run("bare context gets a usable meter", func(t *testing.T) {
		t.Parallel()

		meter := MeterFromContext(context.Background())
		if meter == nil {
			t.Fatal("expected a meter, got nil")
		}
		meter.Count("test.counter", 1)
	})

	t.Run("attached meter survives the round trip", func(t *testing.T) {
		t.Parallel()

		ctx := WithMeter(context.Background(), nil)
		meter := MeterFromContext(ctx)
		if meter == nil {
			t.Fatal("expected the attached meter, got nil")
		}
		meter.Count("test.counter", 1)
	})

	t.Run("nil context does not panic", func(t *testing.T) {
		t.Parallel()

		if meter := MeterFromContext(nil); meter == nil {
			t.Fatal("expected a meter, got nil")
		}
	})
}

package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/snapkartapp/snapkart/internal/db"
)

// processingCutoff is how long an order may sit in payment processing before
// the sweep re-queries the gateway for its session state.
const processingCutoff = 30 * time.Minute

type stuckOrderLister interface {
	ListStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*db.Order, error)
	MarkPaid(ctx context.Context, orderID, paymentIntentID string) error
	MarkPaymentFailed(ctx context.Context, orderID string) error
}

// Reconciler settles orders stuck in payment processing. A crash between
// session creation and payment verification can leave an order in processing
// forever; the sweep re-queries the gateway and applies the same transitions
// verification would have.
type Reconciler struct {
	orders   stuckOrderLister
	carts    cartStore
	gateway  paymentGateway
	interval time.Duration
	logger   *slog.Logger
}

func NewReconciler(orders stuckOrderLister, carts cartStore, gateway paymentGateway, interval time.Duration, logger *slog.Logger) *Reconciler {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		orders:   orders,
		carts:    carts,
		gateway:  gateway,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until the context is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.sweep(ctx)
		}
	}
}

func (r *Reconciler) sweep(ctx context.Context) {
	cutoff := time.Now().Add(-processingCutoff)
	orders, err := r.orders.ListStuckProcessing(ctx, cutoff, 100)
	if err != nil {
		r.logger.Error("failed to list stuck orders", "error", err)
		return
	}
	if len(orders) == 0 {
		return
	}
	r.logger.Info("reconciling stuck orders", "count", len(orders))

	for _, order := range orders {
		if err := r.settle(ctx, order); err != nil {
			r.logger.Error("failed to settle stuck order", "error", err, "order_id", order.OrderID)
		}
	}
}

func (r *Reconciler) settle(ctx context.Context, order *db.Order) error {
	if order.StripeSessionID == "" {
		// Crash before the session id was recorded; nothing to query, the
		// payment can never complete.
		return r.orders.MarkPaymentFailed(ctx, order.OrderID)
	}

	status, err := r.gateway.RetrieveSession(ctx, order.StripeSessionID)
	if err != nil {
		return err
	}

	if status.Paid {
		if err := r.orders.MarkPaid(ctx, order.OrderID, status.PaymentIntentID); err != nil && !errors.Is(err, db.ErrInvalidStatusTransition) {
			return err
		}
		if err := r.carts.Clear(ctx, order.CustomerID); err != nil {
			r.logger.Warn("failed to clear cart during reconciliation", "error", err, "order_id", order.OrderID)
		}
		r.logger.Info("reconciled stuck order as paid", "order_id", order.OrderID)
		return nil
	}

	if err := r.orders.MarkPaymentFailed(ctx, order.OrderID); err != nil && !errors.Is(err, db.ErrInvalidStatusTransition) {
		return err
	}
	r.logger.Info("reconciled stuck order as failed", "order_id", order.OrderID)
	return nil
}

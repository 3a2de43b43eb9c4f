package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapkartapp/snapkart/internal/models"
)

var (
	ErrOrderNotFound           = errors.New("order not found")
	ErrInvalidStatusTransition = errors.New("invalid order status transition")
	ErrShipmentExists          = errors.New("order already has a shipment reference")
)

const uniqueViolationCode = "23505"

type OrderStore struct {
	pool *pgxpool.Pool
}

func NewOrderStore(pool *pgxpool.Pool) *OrderStore {
	return &OrderStore{pool: pool}
}

const orderColumns = `
	id, order_id, customer_id, items, address,
	subtotal_paise, discount_paise, shipping_paise, total_paise,
	payment_method, payment_status, status,
	stripe_session_id, stripe_payment_intent_id,
	ekart_tracking_id, ekart_waybill, ekart_response,
	expected_delivery_at, created_at`

// Create persists the order and assigns its identifier. On an order-id
// collision the identifier is re-rolled exactly once.
func (s *OrderStore) Create(ctx context.Context, order *Order) error {
	itemsJSON, err := json.Marshal(order.Items)
	if err != nil {
		return err
	}
	addressJSON, err := json.Marshal(order.Address)
	if err != nil {
		return err
	}

	if order.OrderID == "" {
		order.OrderID = models.NewOrderID()
	}

	for attempt := 0; ; attempt++ {
		err = s.insert(ctx, order, itemsJSON, addressJSON)
		if err == nil {
			return nil
		}
		var pgErr *pgconn.PgError
		if attempt == 0 && errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			order.OrderID = models.NewOrderID()
			continue
		}
		return fmt.Errorf("failed to create order: %w", err)
	}
}

func (s *OrderStore) insert(ctx context.Context, order *Order, itemsJSON, addressJSON []byte) error {
	query := `
		INSERT INTO orders (
			order_id, customer_id, items, address,
			subtotal_paise, discount_paise, shipping_paise, total_paise,
			payment_method, payment_status, status, expected_delivery_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at
	`
	return s.pool.QueryRow(ctx, query,
		order.OrderID,
		order.CustomerID,
		itemsJSON,
		addressJSON,
		order.SubtotalPaise,
		order.DiscountPaise,
		order.ShippingPaise,
		order.TotalPaise,
		string(order.PaymentMethod),
		string(order.PaymentStatus),
		string(order.Status),
		order.ExpectedDeliveryAt,
	).Scan(&order.ID, &order.CreatedAt)
}

func (s *OrderStore) GetByOrderID(ctx context.Context, orderID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE order_id = $1`, orderID)
	return scanOrder(row)
}

func (s *OrderStore) GetByStripeSessionID(ctx context.Context, sessionID string) (*Order, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE stripe_session_id = $1`, sessionID)
	return scanOrder(row)
}

func (s *OrderStore) ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE customer_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, customerID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// ListStuckProcessing returns online orders whose payment has been in
// processing longer than the cutoff, for the reconciliation sweep.
func (s *OrderStore) ListStuckProcessing(ctx context.Context, olderThan time.Time, limit int) ([]*Order, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `
		SELECT `+orderColumns+`
		FROM orders
		WHERE payment_status = 'processing' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	return orders, rows.Err()
}

// MarkPaymentProcessing records the checkout session on a freshly created
// online order. Money columns are never touched after creation.
func (s *OrderStore) MarkPaymentProcessing(ctx context.Context, orderID, sessionID string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, stripe_session_id = $2
		WHERE order_id = $3 AND payment_status = 'pending'
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentProcessing, sessionID, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected payment pending", ErrInvalidStatusTransition)
	}
	return nil
}

// MarkPaymentFailed leaves the order row in a terminal failed state as an
// audit trail rather than deleting it.
func (s *OrderStore) MarkPaymentFailed(ctx context.Context, orderID string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, status = $2
		WHERE order_id = $3 AND payment_status IN ('pending', 'processing')
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentFailed, StatusCancelled, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected payment pending/processing", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) MarkPaid(ctx context.Context, orderID, paymentIntentID string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, status = $2, stripe_payment_intent_id = $3
		WHERE order_id = $4 AND payment_status IN ('pending', 'processing')
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentSuccess, StatusConfirmed, paymentIntentID, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected payment pending/processing", ErrInvalidStatusTransition)
	}
	return nil
}

func (s *OrderStore) ConfirmCOD(ctx context.Context, orderID string) error {
	query := `
		UPDATE orders
		SET payment_status = $1, status = $2
		WHERE order_id = $3 AND status = 'pending'
	`
	cmdTag, err := s.pool.Exec(ctx, query, PaymentPending, StatusConfirmed, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: expected pending", ErrInvalidStatusTransition)
	}
	return nil
}

// SetShipment stores the carrier references. The tracking-id guard in the
// WHERE clause makes shipment creation idempotent at the row level: an
// existing reference is never overwritten.
func (s *OrderStore) SetShipment(ctx context.Context, orderID, trackingID, waybill, rawResponse string) error {
	query := `
		UPDATE orders
		SET ekart_tracking_id = $1, ekart_waybill = $2, ekart_response = $3, status = $4
		WHERE order_id = $5 AND ekart_tracking_id IS NULL
	`
	raw := []byte(rawResponse)
	if !json.Valid(raw) {
		encoded, err := json.Marshal(rawResponse)
		if err != nil {
			return err
		}
		raw = encoded
	}
	cmdTag, err := s.pool.Exec(ctx, query, trackingID, waybill, raw, StatusConfirmed, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return ErrShipmentExists
	}
	return nil
}

func (s *OrderStore) Cancel(ctx context.Context, orderID string) error {
	query := `
		UPDATE orders
		SET status = $1, payment_status = $2
		WHERE order_id = $3 AND status NOT IN ('shipped', 'delivered', 'cancelled')
	`
	cmdTag, err := s.pool.Exec(ctx, query, StatusCancelled, PaymentCancelled, orderID)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return fmt.Errorf("%w: order is shipped, delivered or already cancelled", ErrInvalidStatusTransition)
	}
	return nil
}

type orderScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row orderScanner) (*Order, error) {
	var (
		order       Order
		itemsJSON   []byte
		addressJSON []byte
		sessionID   pgtype.Text
		intentID    pgtype.Text
		trackingID  pgtype.Text
		waybill     pgtype.Text
		rawResponse []byte
	)

	err := row.Scan(
		&order.ID,
		&order.OrderID,
		&order.CustomerID,
		&itemsJSON,
		&addressJSON,
		&order.SubtotalPaise,
		&order.DiscountPaise,
		&order.ShippingPaise,
		&order.TotalPaise,
		&order.PaymentMethod,
		&order.PaymentStatus,
		&order.Status,
		&sessionID,
		&intentID,
		&trackingID,
		&waybill,
		&rawResponse,
		&order.ExpectedDeliveryAt,
		&order.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrOrderNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &order.Items); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(addressJSON, &order.Address); err != nil {
		return nil, err
	}

	if sessionID.Valid {
		order.StripeSessionID = sessionID.String
	}
	if intentID.Valid {
		order.StripePaymentIntentID = intentID.String
	}
	if trackingID.Valid {
		order.EkartTrackingID = trackingID.String
	}
	if waybill.Valid {
		order.EkartWaybill = waybill.String
	}
	if rawResponse != nil {
		order.EkartResponse = string(rawResponse)
	}

	return &order, nil
}

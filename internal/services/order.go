package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/getsentry/sentry-go/attribute"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/snapkartapp/snapkart/internal/cache"
	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/ekart"
	"github.com/snapkartapp/snapkart/internal/email"
	"github.com/snapkartapp/snapkart/internal/logging"
	"github.com/snapkartapp/snapkart/internal/models"
	"github.com/snapkartapp/snapkart/internal/observability"
	"github.com/snapkartapp/snapkart/internal/stripe"
)

// Hardcoded business constants, not configuration.
const (
	discountPercent      = 30
	shippingChargePaise  = int64(2900)
	expectedDeliveryDays = 5
	serviceabilityTTL    = 15 * time.Minute
)

type orderStore interface {
	Create(ctx context.Context, order *db.Order) error
	GetByOrderID(ctx context.Context, orderID string) (*db.Order, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, limit int) ([]*db.Order, error)
	GetByStripeSessionID(ctx context.Context, sessionID string) (*db.Order, error)
	MarkPaymentProcessing(ctx context.Context, orderID, sessionID string) error
	MarkPaymentFailed(ctx context.Context, orderID string) error
	MarkPaid(ctx context.Context, orderID, paymentIntentID string) error
	ConfirmCOD(ctx context.Context, orderID string) error
	SetShipment(ctx context.Context, orderID, trackingID, waybill, rawResponse string) error
	Cancel(ctx context.Context, orderID string) error
}

type cartStore interface {
	GetByCustomer(ctx context.Context, customerID uuid.UUID) (*db.Cart, error)
	Clear(ctx context.Context, customerID uuid.UUID) error
}

type customerGetter interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.Customer, error)
}

type paymentGateway interface {
	CreateCheckoutSession(ctx context.Context, params stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error)
	RetrieveSession(ctx context.Context, sessionID string) (*stripe.SessionStatus, error)
}

type shippingCarrier interface {
	CheckServiceability(ctx context.Context, pincode string) (bool, error)
	CreateShipment(ctx context.Context, order *models.Order) (*ekart.Shipment, error)
	CancelShipment(ctx context.Context, trackingID string) error
	TrackShipment(ctx context.Context, trackingID string) (*ekart.TrackingStatus, error)
}

type serviceabilityCache interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
}

type OrderService struct {
	orders      orderStore
	carts       cartStore
	customers   customerGetter
	gateway     paymentGateway
	carrier     shippingCarrier
	cache       serviceabilityCache
	emailSender email.Sender
	logger      *slog.Logger
}

var addressValidator = validator.New()

func NewOrderService(orders orderStore, carts cartStore, customers customerGetter, gateway paymentGateway, carrier shippingCarrier, cache serviceabilityCache, emailSender email.Sender, logger *slog.Logger) *OrderService {
	if emailSender == nil {
		emailSender = email.NoopSender{}
	}
	return &OrderService{
		orders:      orders,
		carts:       carts,
		customers:   customers,
		gateway:     gateway,
		carrier:     carrier,
		cache:       cache,
		emailSender: emailSender,
		logger:      logger,
	}
}

func (s *OrderService) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, s.logger)
}

type CreateOrderInput struct {
	Address       models.Address
	PaymentMethod models.PaymentMethod
}

type CreateOrderResult struct {
	Order       *models.Order `json:"order"`
	RedirectURL string        `json:"redirect_url,omitempty"`
	Confirmed   bool          `json:"confirmed"`
}

// CreateOrder runs the checkout workflow: address validation, serviceability,
// cart load, payment-method validation, totals, persistence, then the
// online/COD branch. On gateway failure the order persists in a terminal
// failed state as an audit trail.
func (s *OrderService) CreateOrder(ctx context.Context, customer *models.Customer, input CreateOrderInput) (*CreateOrderResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.create",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("CreateOrder"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)
	meter.Count("order.checkout.received", 1, sentry.WithAttributes(
		attribute.String("payment_method", string(input.PaymentMethod)),
	))
	recordFailure := func(reason string) {
		meter.Count("order.checkout.failed", 1, sentry.WithAttributes(
			attribute.String("reason", reason),
		))
	}

	if input.PaymentMethod != models.PaymentMethodOnline && input.PaymentMethod != models.PaymentMethodCOD {
		recordFailure("invalid_payment_method")
		return nil, NewValidationError("payment method must be %q or %q", models.PaymentMethodOnline, models.PaymentMethodCOD)
	}
	if err := addressValidator.Struct(input.Address); err != nil {
		recordFailure("invalid_address")
		return nil, NewValidationError("invalid shipping address: %v", err)
	}

	serviceable, err := s.serviceable(ctx, input.Address.Pincode)
	if err != nil {
		// A carrier failure is rejected the same way as a confirmed negative
		// answer, but logged distinctly so vendor outages stay visible.
		logger.Warn("serviceability check failed, rejecting order", "error", err, "pincode", input.Address.Pincode)
		recordFailure("serviceability_check_failed")
		return nil, ErrNotServiceable
	}
	if !serviceable {
		recordFailure("not_serviceable")
		return nil, ErrNotServiceable
	}

	cart, err := s.carts.GetByCustomer(ctx, customer.ID)
	if err != nil && !errors.Is(err, db.ErrCartNotFound) {
		recordFailure("cart_load_failed")
		return nil, err
	}
	if cart.IsEmpty() {
		recordFailure("empty_cart")
		return nil, ErrEmptyCart
	}

	if mismatched := incompatibleItems(cart.Items, input.PaymentMethod); len(mismatched) > 0 {
		recordFailure("payment_mismatch")
		return nil, &PaymentMismatchError{Method: string(input.PaymentMethod), Items: mismatched}
	}

	order := buildOrder(customer.ID, cart, input)
	if err := s.orders.Create(ctx, order); err != nil {
		recordFailure("order_create_failed")
		return nil, err
	}
	meter.Count("order.created", 1)
	logger.Info("order created", "order_id", order.OrderID, "payment_method", order.PaymentMethod, "total_paise", order.TotalPaise)

	if input.PaymentMethod == models.PaymentMethodCOD {
		return s.confirmCOD(ctx, customer, order)
	}
	return s.startOnlinePayment(ctx, customer, order)
}

func (s *OrderService) confirmCOD(ctx context.Context, customer *models.Customer, order *models.Order) (*CreateOrderResult, error) {
	logger := s.loggerFromContext(ctx)

	if err := s.orders.ConfirmCOD(ctx, order.OrderID); err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentStatusPending
	order.Status = models.OrderStatusConfirmed

	if err := s.carts.Clear(ctx, customer.ID); err != nil {
		logger.Error("failed to clear cart after cod confirmation", "error", err, "order_id", order.OrderID)
	}

	if err := s.emailSender.SendOrderConfirmation(ctx, customer.Email, order); err != nil {
		logger.Warn("failed to send order confirmation email", "error", err, "order_id", order.OrderID)
	}

	observability.MeterFromContext(ctx).Count("order.cod.confirmed", 1)
	return &CreateOrderResult{Order: order, Confirmed: true}, nil
}

func (s *OrderService) startOnlinePayment(ctx context.Context, customer *models.Customer, order *models.Order) (*CreateOrderResult, error) {
	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	session, err := s.gateway.CreateCheckoutSession(ctx, stripe.CheckoutSessionParams{
		OrderID:       order.OrderID,
		Items:         order.Items,
		ShippingPaise: order.ShippingPaise,
		DiscountPaise: order.DiscountPaise,
		CustomerEmail: customer.Email,
		CustomerName:  customer.Name,
	})
	if err != nil {
		meter.Count("checkout.session.failed", 1)
		if markErr := s.orders.MarkPaymentFailed(ctx, order.OrderID); markErr != nil {
			logger.Error("failed to mark order failed after gateway error", "error", markErr, "order_id", order.OrderID)
		}
		order.PaymentStatus = models.PaymentStatusFailed
		order.Status = models.OrderStatusCancelled
		return nil, &GatewayError{Err: err}
	}

	if err := s.orders.MarkPaymentProcessing(ctx, order.OrderID, session.ID); err != nil {
		return nil, err
	}
	order.PaymentStatus = models.PaymentStatusProcessing
	order.StripeSessionID = session.ID

	meter.Count("checkout.session.created", 1)
	return &CreateOrderResult{Order: order, RedirectURL: session.RedirectURL}, nil
}

type VerifyPaymentResult struct {
	Success       bool                 `json:"success"`
	PaymentStatus models.PaymentStatus `json:"payment_status"`
}

// VerifyPayment settles an online order after the client returns from the
// hosted payment page. The order is resolved through the session recorded at
// checkout, so a paid session can only ever settle the order it was created
// for. Shipment creation here is best-effort: payment already succeeded, so a
// carrier failure is logged and swallowed; the shipment can still be created
// through the manual endpoint.
func (s *OrderService) VerifyPayment(ctx context.Context, sessionID, orderID string) (*VerifyPaymentResult, error) {
	span := sentry.StartSpan(
		ctx,
		"service.order.verify_payment",
		sentry.WithOpName("service.order"),
		sentry.WithDescription("VerifyPayment"),
		sentry.WithSpanOrigin(sentry.SpanOriginManual),
	)
	defer span.Finish()
	ctx = span.Context()

	logger := s.loggerFromContext(ctx)
	meter := observability.MeterFromContext(ctx)

	if sessionID == "" {
		return nil, NewValidationError("session_id is required")
	}
	order, err := s.orders.GetByStripeSessionID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if order.OrderID != orderID {
		meter.Count("payment.verify.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "session_mismatch"),
		))
		logger.Warn("checkout session belongs to a different order", "order_id", orderID, "session_order_id", order.OrderID)
		return nil, NewValidationError("checkout session does not belong to this order")
	}

	status, err := s.gateway.RetrieveSession(ctx, sessionID)
	if err != nil {
		meter.Count("payment.verify.failed", 1, sentry.WithAttributes(
			attribute.String("reason", "session_retrieve_failed"),
		))
		return nil, &GatewayError{Err: err}
	}

	if !status.Paid {
		if err := s.orders.MarkPaymentFailed(ctx, order.OrderID); err != nil && !errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, err
		}
		meter.Count("payment.verify.unpaid", 1)
		return &VerifyPaymentResult{Success: false, PaymentStatus: models.PaymentStatusFailed}, nil
	}

	settled := true
	if err := s.orders.MarkPaid(ctx, order.OrderID, status.PaymentIntentID); err != nil {
		if !errors.Is(err, db.ErrInvalidStatusTransition) {
			return nil, err
		}
		// Already settled by a previous verification or the reconciler.
		settled = false
		logger.Info("payment already settled", "order_id", order.OrderID)
	}
	order.PaymentStatus = models.PaymentStatusSuccess
	order.Status = models.OrderStatusConfirmed
	meter.Count("payment.verify.succeeded", 1)

	if settled {
		if err := s.carts.Clear(ctx, order.CustomerID); err != nil {
			logger.Error("failed to clear cart after payment", "error", err, "order_id", order.OrderID)
		}
		s.sendConfirmationEmail(ctx, order)
	}

	if !order.HasShipment() {
		if _, err := s.createShipment(ctx, order); err != nil {
			logger.Warn("shipment creation after payment failed, will be retried manually", "error", err, "order_id", order.OrderID)
		}
	}

	return &VerifyPaymentResult{Success: true, PaymentStatus: models.PaymentStatusSuccess}, nil
}

// sendConfirmationEmail is best-effort; a lapsed customer row or a mail
// provider failure never fails the settlement.
func (s *OrderService) sendConfirmationEmail(ctx context.Context, order *models.Order) {
	if s.customers == nil {
		return
	}
	logger := s.loggerFromContext(ctx)
	customer, err := s.customers.GetByID(ctx, order.CustomerID)
	if err != nil {
		logger.Warn("failed to load customer for confirmation email", "error", err, "order_id", order.OrderID)
		return
	}
	if err := s.emailSender.SendOrderConfirmation(ctx, customer.Email, order); err != nil {
		logger.Warn("failed to send order confirmation email", "error", err, "order_id", order.OrderID)
	}
}

type ShipmentResult struct {
	OrderID    string `json:"order_id"`
	TrackingID string `json:"tracking_id"`
	Waybill    string `json:"waybill"`
}

// CreateShipment registers the order with the carrier. Rejected when the
// order already has a tracking reference; a carrier failure leaves the order
// without one so the call can be retried.
func (s *OrderService) CreateShipment(ctx context.Context, orderID string) (*ShipmentResult, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.HasShipment() {
		return nil, ErrAlreadyShipped
	}
	return s.createShipment(ctx, order)
}

func (s *OrderService) createShipment(ctx context.Context, order *models.Order) (*ShipmentResult, error) {
	shipment, err := s.carrier.CreateShipment(ctx, order)
	if err != nil {
		return nil, &CarrierError{Op: "create shipment", Err: err}
	}

	if err := s.orders.SetShipment(ctx, order.OrderID, shipment.TrackingID, shipment.Waybill, shipment.Raw); err != nil {
		if errors.Is(err, db.ErrShipmentExists) {
			return nil, ErrAlreadyShipped
		}
		return nil, err
	}
	order.EkartTrackingID = shipment.TrackingID
	order.EkartWaybill = shipment.Waybill

	observability.MeterFromContext(ctx).Count("shipment.created", 1)
	s.loggerFromContext(ctx).Info("shipment created", "order_id", order.OrderID, "tracking_id", shipment.TrackingID)

	return &ShipmentResult{
		OrderID:    order.OrderID,
		TrackingID: shipment.TrackingID,
		Waybill:    shipment.Waybill,
	}, nil
}

// CancelOrder cancels an order that is not shipped, delivered, or already
// cancelled. Carrier-side cancellation is best-effort; the order-level
// cancellation is the authoritative action.
func (s *OrderService) CancelOrder(ctx context.Context, orderID string) (*models.Order, error) {
	logger := s.loggerFromContext(ctx)

	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Cancellable() {
		return nil, db.ErrInvalidStatusTransition
	}

	if order.HasShipment() {
		if err := s.carrier.CancelShipment(ctx, order.EkartTrackingID); err != nil {
			logger.Warn("carrier-side cancellation failed, cancelling order anyway", "error", err, "order_id", order.OrderID, "tracking_id", order.EkartTrackingID)
		}
	}

	if err := s.orders.Cancel(ctx, order.OrderID); err != nil {
		return nil, err
	}
	order.Status = models.OrderStatusCancelled
	order.PaymentStatus = models.PaymentStatusCancelled

	observability.MeterFromContext(ctx).Count("order.cancelled", 1)
	return order, nil
}

// Track returns the carrier's view of the order's shipment.
func (s *OrderService) Track(ctx context.Context, orderID string) (*ekart.TrackingStatus, error) {
	order, err := s.orders.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.HasShipment() {
		return nil, ErrNoTracking
	}

	status, err := s.carrier.TrackShipment(ctx, order.EkartTrackingID)
	if err != nil {
		return nil, &CarrierError{Op: "track shipment", Err: err}
	}
	return status, nil
}

func (s *OrderService) GetOrder(ctx context.Context, orderID string) (*models.Order, error) {
	return s.orders.GetByOrderID(ctx, orderID)
}

func (s *OrderService) ListOrders(ctx context.Context, customerID uuid.UUID) ([]*models.Order, error) {
	return s.orders.ListByCustomer(ctx, customerID, 50)
}

// CheckServiceability answers the public serviceability endpoint. Vendor
// failures surface as CarrierError, distinct from a confirmed negative.
func (s *OrderService) CheckServiceability(ctx context.Context, pincode string) (bool, error) {
	if len(pincode) != 6 || !allDigits(pincode) {
		return false, NewValidationError("pincode must be exactly 6 digits")
	}
	serviceable, err := s.serviceable(ctx, pincode)
	if err != nil {
		return false, &CarrierError{Op: "serviceability check", Err: err}
	}
	return serviceable, nil
}

func (s *OrderService) serviceable(ctx context.Context, pincode string) (bool, error) {
	key := ""
	if s.cache != nil {
		key = cache.ServiceabilityKey(pincode)
		if cached, err := s.cache.Get(ctx, key); err == nil {
			return cached == "1", nil
		}
	}

	serviceable, err := s.carrier.CheckServiceability(ctx, pincode)
	if err != nil {
		return false, err
	}

	if s.cache != nil {
		value := "0"
		if serviceable {
			value = "1"
		}
		if err := s.cache.Set(ctx, key, value, serviceabilityTTL); err != nil {
			s.loggerFromContext(ctx).Warn("failed to cache serviceability answer", "error", err, "pincode", pincode)
		}
	}
	return serviceable, nil
}

func buildOrder(customerID uuid.UUID, cart *models.Cart, input CreateOrderInput) *models.Order {
	items := make([]models.OrderItem, 0, len(cart.Items))
	var subtotal int64
	for _, ci := range cart.Items {
		items = append(items, models.OrderItem{
			ProductID:      ci.ProductID,
			Name:           ci.Name,
			ImageURL:       ci.ImageURL,
			UnitPricePaise: ci.UnitPricePaise,
			Quantity:       ci.Quantity,
			LineTotalPaise: ci.LineTotalPaise(),
		})
		subtotal += ci.LineTotalPaise()
	}

	discount := subtotal * discountPercent / 100
	now := time.Now()

	return &models.Order{
		OrderID:            models.NewOrderID(),
		CustomerID:         customerID,
		Items:              items,
		Address:            input.Address,
		SubtotalPaise:      subtotal,
		DiscountPaise:      discount,
		ShippingPaise:      shippingChargePaise,
		TotalPaise:         subtotal - discount + shippingChargePaise,
		PaymentMethod:      input.PaymentMethod,
		PaymentStatus:      models.PaymentStatusPending,
		Status:             models.OrderStatusPending,
		ExpectedDeliveryAt: now.AddDate(0, 0, expectedDeliveryDays),
	}
}

func incompatibleItems(items []models.CartItem, method models.PaymentMethod) []string {
	var names []string
	for _, item := range items {
		switch method {
		case models.PaymentMethodOnline:
			if !item.AllowOnlinePayment {
				names = append(names, item.Name)
			}
		case models.PaymentMethodCOD:
			if !item.AllowCOD {
				names = append(names, item.Name)
			}
		}
	}
	return names
}

func allDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

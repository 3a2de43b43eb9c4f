package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending    PaymentStatus = "pending"
	PaymentStatusProcessing PaymentStatus = "processing"
	PaymentStatusSuccess    PaymentStatus = "success"
	PaymentStatusFailed     PaymentStatus = "failed"
	PaymentStatusCancelled  PaymentStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentMethodOnline PaymentMethod = "online"
	PaymentMethodCOD    PaymentMethod = "cod"
)

// Address is the free-form shipping address captured on the order. Fields are
// stored as given; only pincode and mobile formats are validated at intake.
type Address struct {
	FullName string `json:"full_name" validate:"required"`
	Line1    string `json:"line1" validate:"required"`
	Line2    string `json:"line2"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state" validate:"required"`
	Pincode  string `json:"pincode" validate:"required,len=6,numeric"`
	Mobile   string `json:"mobile" validate:"required,len=10,numeric"`
}

// OrderItem is a by-value snapshot of a cart line taken at order-creation
// time. Later catalog changes never affect it.
type OrderItem struct {
	ProductID      uuid.UUID `json:"product_id"`
	Name           string    `json:"name"`
	ImageURL       string    `json:"image_url"`
	UnitPricePaise int64     `json:"unit_price_paise"`
	Quantity       int       `json:"quantity"`
	LineTotalPaise int64     `json:"line_total_paise"`
}

type Order struct {
	ID         uuid.UUID `json:"id"`
	OrderID    string    `json:"order_id"`
	CustomerID uuid.UUID `json:"customer_id"`

	Items   []OrderItem `json:"items"`
	Address Address     `json:"address"`

	SubtotalPaise int64 `json:"subtotal_paise"`
	DiscountPaise int64 `json:"discount_paise"`
	ShippingPaise int64 `json:"shipping_paise"`
	TotalPaise    int64 `json:"total_paise"`

	PaymentMethod PaymentMethod `json:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	Status        OrderStatus   `json:"status"`

	StripeSessionID       string `json:"stripe_session_id,omitempty"`
	StripePaymentIntentID string `json:"stripe_payment_intent_id,omitempty"`
	EkartTrackingID       string `json:"ekart_tracking_id,omitempty"`
	EkartWaybill          string `json:"ekart_waybill,omitempty"`
	EkartResponse         string `json:"-"`

	ExpectedDeliveryAt time.Time `json:"expected_delivery_at"`
	CreatedAt          time.Time `json:"created_at"`
}

// HasShipment reports whether a carrier reference is attached. A set
// reference is never overwritten.
func (o *Order) HasShipment() bool {
	return o.EkartTrackingID != ""
}

// Cancellable reports whether the order may still be cancelled.
func (o *Order) Cancellable() bool {
	switch o.Status {
	case OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return false
	default:
		return true
	}
}

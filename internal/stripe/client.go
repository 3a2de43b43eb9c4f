// Package stripe wraps the hosted checkout session API used for online
// payments.
package stripe

import (
	"context"
	"fmt"

	"github.com/stripe/stripe-go/v84"

	"github.com/snapkartapp/snapkart/internal/models"
)

type Client struct {
	client  *stripe.Client
	baseURL string
}

func NewClient(secretKey, baseURL string) *Client {
	return &Client{
		client:  stripe.NewClient(secretKey),
		baseURL: baseURL,
	}
}

// CheckoutSessionParams holds what the workflow knows at session-creation
// time: the order snapshot and customer contact details.
type CheckoutSessionParams struct {
	OrderID       string
	Items         []models.OrderItem
	ShippingPaise int64
	DiscountPaise int64
	CustomerEmail string
	CustomerName  string
}

type CheckoutSession struct {
	ID          string
	RedirectURL string
}

type SessionStatus struct {
	Paid            bool
	PaymentIntentID string
}

// CreateCheckoutSession creates a hosted checkout session for an order.
func (c *Client) CreateCheckoutSession(ctx context.Context, params CheckoutSessionParams) (*CheckoutSession, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	lineItems := make([]*stripe.CheckoutSessionCreateLineItemParams, 0, len(params.Items))
	for _, item := range params.Items {
		lineItems = append(lineItems, &stripe.CheckoutSessionCreateLineItemParams{
			PriceData: &stripe.CheckoutSessionCreateLineItemPriceDataParams{
				Currency: stripe.String("inr"),
				ProductData: &stripe.CheckoutSessionCreateLineItemPriceDataProductDataParams{
					Name: stripe.String(item.Name),
				},
				UnitAmount: stripe.Int64(item.UnitPricePaise),
			},
			Quantity: stripe.Int64(int64(item.Quantity)),
		})
	}

	sessionParams := &stripe.CheckoutSessionCreateParams{
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:         stripe.String(c.baseURL + "/payment/success?session_id={CHECKOUT_SESSION_ID}&order_id=" + params.OrderID),
		CancelURL:          stripe.String(c.baseURL + "/payment/cancel?order_id=" + params.OrderID),
		LineItems:          lineItems,
		ShippingOptions: []*stripe.CheckoutSessionCreateShippingOptionParams{
			{
				ShippingRateData: &stripe.CheckoutSessionCreateShippingOptionShippingRateDataParams{
					DisplayName: stripe.String("Shipping"),
					Type:        stripe.String(string(stripe.ShippingRateTypeFixedAmount)),
					FixedAmount: &stripe.CheckoutSessionCreateShippingOptionShippingRateDataFixedAmountParams{
						Amount:   stripe.Int64(params.ShippingPaise),
						Currency: stripe.String("inr"),
					},
				},
			},
		},
		CustomerEmail: stripe.String(params.CustomerEmail),
		Metadata: map[string]string{
			"order_id":      params.OrderID,
			"customer_name": params.CustomerName,
		},
	}

	if params.CustomerEmail == "" {
		sessionParams.CustomerEmail = nil
	}

	if params.DiscountPaise > 0 {
		coupon, err := c.client.V1Coupons.Create(ctx, &stripe.CouponCreateParams{
			AmountOff: stripe.Int64(params.DiscountPaise),
			Currency:  stripe.String("inr"),
			Duration:  stripe.String(string(stripe.CouponDurationOnce)),
			Name:      stripe.String("Order discount"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create discount coupon: %w", err)
		}
		sessionParams.Discounts = []*stripe.CheckoutSessionCreateDiscountParams{
			{Coupon: stripe.String(coupon.ID)},
		}
	}

	sess, err := c.client.V1CheckoutSessions.Create(ctx, sessionParams)
	if err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}

	return &CheckoutSession{ID: sess.ID, RedirectURL: sess.URL}, nil
}

// RetrieveSession returns the payment state of an existing checkout session.
func (c *Client) RetrieveSession(ctx context.Context, sessionID string) (*SessionStatus, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context is required")
	}

	sess, err := c.client.V1CheckoutSessions.Retrieve(ctx, sessionID, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve checkout session: %w", err)
	}

	status := &SessionStatus{
		Paid: sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
	}
	if sess.PaymentIntent != nil {
		status.PaymentIntentID = sess.PaymentIntent.ID
	}
	return status, nil
}

// Package email sends transactional order emails via Resend.
package email

import (
	"context"
	"fmt"
	"strings"

	resend "github.com/resend/resend-go/v3"

	"github.com/snapkartapp/snapkart/internal/models"
)

type Sender interface {
	SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error
}

// ResendSender implements Sender on the Resend API.
type ResendSender struct {
	from   string
	client *resend.Client
}

func NewResendSender(apiKey, from string) *ResendSender {
	return &ResendSender{
		from:   from,
		client: resend.NewClient(apiKey),
	}
}

func (s *ResendSender) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("order is required")
	}
	if to == "" {
		return fmt.Errorf("recipient is required")
	}

	params := &resend.SendEmailRequest{
		From:    s.from,
		To:      []string{to},
		Subject: fmt.Sprintf("Order %s confirmed", order.OrderID),
		Text:    confirmationText(order),
	}

	if _, err := s.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("failed to send order confirmation via resend: %w", err)
	}
	return nil
}

func confirmationText(order *models.Order) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Thanks for your order %s!\n\n", order.OrderID)
	for _, item := range order.Items {
		fmt.Fprintf(&b, "%d x %s — ₹%.2f\n", item.Quantity, item.Name, float64(item.LineTotalPaise)/100)
	}
	fmt.Fprintf(&b, "\nSubtotal: ₹%.2f\n", float64(order.SubtotalPaise)/100)
	fmt.Fprintf(&b, "Discount: -₹%.2f\n", float64(order.DiscountPaise)/100)
	fmt.Fprintf(&b, "Shipping: ₹%.2f\n", float64(order.ShippingPaise)/100)
	fmt.Fprintf(&b, "Total: ₹%.2f\n", float64(order.TotalPaise)/100)
	fmt.Fprintf(&b, "\nExpected delivery: %s\n", order.ExpectedDeliveryAt.Format("02 Jan 2006"))
	return b.String()
}

// NoopSender is used when no email API key is configured.
type NoopSender struct{}

func (NoopSender) SendOrderConfirmation(ctx context.Context, to string, order *models.Order) error {
	return nil
}

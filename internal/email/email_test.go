package email

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/snapkartapp/snapkart/internal/models"
)

func TestConfirmationText(t *testing.T) {
	t.Parallel()

	order := &models.Order{
		OrderID: "OD17000000000001",
		Items: []models.OrderItem{
			{Name: "Backpack", Quantity: 1, LineTotalPaise: 50000},
			{Name: "Running Shoes", Quantity: 2, LineTotalPaise: 50000},
		},
		SubtotalPaise:      100000,
		DiscountPaise:      30000,
		ShippingPaise:      2900,
		TotalPaise:         72900,
		ExpectedDeliveryAt: time.Date(2026, time.September, 5, 0, 0, 0, 0, time.UTC),
	}

	text := confirmationText(order)

	for _, want := range []string{
		"OD17000000000001",
		"1 x Backpack",
		"2 x Running Shoes",
		"Subtotal: ₹1000.00",
		"Discount: -₹300.00",
		"Shipping: ₹29.00",
		"Total: ₹729.00",
		"05 Sep 2026",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("confirmation text missing %q:\n%s", want, text)
		}
	}
}

func TestResendSender_Validation(t *testing.T) {
	t.Parallel()

	sender := NewResendSender("re_test_key", "orders@snapkart.in")

	if err := sender.SendOrderConfirmation(context.Background(), "", &models.Order{}); err == nil {
		t.Error("expected an error for a missing recipient")
	}
	if err := sender.SendOrderConfirmation(context.Background(), "a@example.com", nil); err == nil {
		t.Error("expected an error for a nil order")
	}
}

func TestNoopSender(t *testing.T) {
	t.Parallel()

	if err := (NoopSender{}).SendOrderConfirmation(context.Background(), "a@example.com", &models.Order{}); err != nil {
		t.Errorf("NoopSender error = %v", err)
	}
}

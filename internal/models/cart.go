package models

import (
	"time"

	"github.com/google/uuid"
)

// CartItem snapshots price, name, image and payment-method flags at the time
// the item is added. It is not a live catalog reference.
type CartItem struct {
	ProductID          uuid.UUID `json:"product_id"`
	Name               string    `json:"name"`
	ImageURL           string    `json:"image_url"`
	UnitPricePaise     int64     `json:"unit_price_paise"`
	Quantity           int       `json:"quantity"`
	AllowOnlinePayment bool      `json:"allow_online_payment"`
	AllowCOD           bool      `json:"allow_cod"`
}

func (i CartItem) LineTotalPaise() int64 {
	return i.UnitPricePaise * int64(i.Quantity)
}

// Cart is the single active cart for one customer.
type Cart struct {
	ID            uuid.UUID  `json:"id"`
	CustomerID    uuid.UUID  `json:"customer_id"`
	Items         []CartItem `json:"items"`
	SubtotalPaise int64      `json:"subtotal_paise"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (c *Cart) IsEmpty() bool {
	return c == nil || len(c.Items) == 0
}

// RecomputeSubtotal derives the running total from the item snapshots. Called
// on every cart mutation.
func (c *Cart) RecomputeSubtotal() {
	var total int64
	for _, item := range c.Items {
		total += item.LineTotalPaise()
	}
	c.SubtotalPaise = total
}

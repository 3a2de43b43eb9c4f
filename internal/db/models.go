package db

import "github.com/snapkartapp/snapkart/internal/models"

type Order = models.Order
type OrderItem = models.OrderItem
type OrderStatus = models.OrderStatus
type PaymentStatus = models.PaymentStatus
type PaymentMethod = models.PaymentMethod
type Address = models.Address
type Cart = models.Cart
type CartItem = models.CartItem
type Product = models.Product
type Customer = models.Customer

const (
	StatusPending   = models.OrderStatusPending
	StatusConfirmed = models.OrderStatusConfirmed
	StatusShipped   = models.OrderStatusShipped
	StatusDelivered = models.OrderStatusDelivered
	StatusCancelled = models.OrderStatusCancelled

	PaymentPending    = models.PaymentStatusPending
	PaymentProcessing = models.PaymentStatusProcessing
	PaymentSuccess    = models.PaymentStatusSuccess
	PaymentFailed     = models.PaymentStatusFailed
	PaymentCancelled  = models.PaymentStatusCancelled
)

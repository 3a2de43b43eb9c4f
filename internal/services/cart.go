package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"

	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/logging"
	"github.com/snapkartapp/snapkart/internal/models"
)

type productStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*db.Product, error)
}

type cartSaver interface {
	cartStore
	Save(ctx context.Context, cart *db.Cart) error
}

type CartService struct {
	carts    cartSaver
	products productStore
	logger   *slog.Logger
}

func NewCartService(carts cartSaver, products productStore, logger *slog.Logger) *CartService {
	return &CartService{
		carts:    carts,
		products: products,
		logger:   logger,
	}
}

// Get returns the customer's cart, or an empty one if none exists yet.
func (s *CartService) Get(ctx context.Context, customerID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if errors.Is(err, db.ErrCartNotFound) {
		return &models.Cart{CustomerID: customerID, Items: []models.CartItem{}}, nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem snapshots the product's price, name, image and payment-method flags
// into the cart and recomputes the running total.
func (s *CartService) AddItem(ctx context.Context, customerID, productID uuid.UUID, quantity int) (*models.Cart, error) {
	if quantity <= 0 {
		return nil, NewValidationError("quantity must be positive")
	}

	product, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}

	cart, err := s.Get(ctx, customerID)
	if err != nil {
		return nil, err
	}

	merged := false
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			merged = true
			break
		}
	}
	if !merged {
		cart.Items = append(cart.Items, models.CartItem{
			ProductID:          product.ID,
			Name:               product.Name,
			ImageURL:           product.ImageURL,
			UnitPricePaise:     product.PricePaise,
			Quantity:           quantity,
			AllowOnlinePayment: product.AllowOnlinePayment,
			AllowCOD:           product.AllowCOD,
		})
	}

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	logging.FromContext(ctx, s.logger).Info("cart item added", "customer_id", customerID, "product_id", productID, "quantity", quantity)
	return cart, nil
}

// RemoveItem drops a product line from the cart entirely.
func (s *CartService) RemoveItem(ctx context.Context, customerID, productID uuid.UUID) (*models.Cart, error) {
	cart, err := s.carts.GetByCustomer(ctx, customerID)
	if err != nil {
		return nil, err
	}

	kept := cart.Items[:0]
	for _, item := range cart.Items {
		if item.ProductID != productID {
			kept = append(kept, item)
		}
	}
	cart.Items = kept

	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

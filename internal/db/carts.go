package db

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrCartNotFound = errors.New("cart not found")

type CartStore struct {
	pool *pgxpool.Pool
}

func NewCartStore(pool *pgxpool.Pool) *CartStore {
	return &CartStore{pool: pool}
}

// GetByCustomer returns the customer's single active cart or ErrCartNotFound.
func (s *CartStore) GetByCustomer(ctx context.Context, customerID uuid.UUID) (*Cart, error) {
	var (
		cart      Cart
		itemsJSON []byte
	)
	err := s.pool.QueryRow(ctx, `
		SELECT id, customer_id, items, subtotal_paise, updated_at
		FROM carts
		WHERE customer_id = $1
	`, customerID).Scan(&cart.ID, &cart.CustomerID, &itemsJSON, &cart.SubtotalPaise, &cart.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCartNotFound
	}
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(itemsJSON, &cart.Items); err != nil {
		return nil, err
	}
	return &cart, nil
}

// Save upserts the cart with its recomputed subtotal.
func (s *CartStore) Save(ctx context.Context, cart *Cart) error {
	cart.RecomputeSubtotal()

	itemsJSON, err := json.Marshal(cart.Items)
	if err != nil {
		return err
	}

	return s.pool.QueryRow(ctx, `
		INSERT INTO carts (customer_id, items, subtotal_paise, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (customer_id)
		DO UPDATE SET items = EXCLUDED.items, subtotal_paise = EXCLUDED.subtotal_paise, updated_at = NOW()
		RETURNING id, updated_at
	`, cart.CustomerID, itemsJSON, cart.SubtotalPaise).Scan(&cart.ID, &cart.UpdatedAt)
}

// Clear removes the customer's cart. Clearing an absent cart is not an error.
func (s *CartStore) Clear(ctx context.Context, customerID uuid.UUID) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM carts WHERE customer_id = $1`, customerID)
	return err
}

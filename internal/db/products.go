package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrProductNotFound = errors.New("product not found")

type ProductStore struct {
	pool *pgxpool.Pool
}

func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `
	id, name, description, brand, category, image_url,
	price_paise, stock, allow_online_payment, allow_cod, created_at`

func (s *ProductStore) Create(ctx context.Context, product *Product) error {
	return s.pool.QueryRow(ctx, `
		INSERT INTO products (name, description, brand, category, image_url, price_paise, stock, allow_online_payment, allow_cod)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at
	`,
		product.Name,
		product.Description,
		product.Brand,
		product.Category,
		product.ImageURL,
		product.PricePaise,
		product.Stock,
		product.AllowOnlinePayment,
		product.AllowCOD,
	).Scan(&product.ID, &product.CreatedAt)
}

func (s *ProductStore) GetByID(ctx context.Context, id uuid.UUID) (*Product, error) {
	var p Product
	err := s.pool.QueryRow(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id).Scan(
		&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category, &p.ImageURL,
		&p.PricePaise, &p.Stock, &p.AllowOnlinePayment, &p.AllowCOD, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (s *ProductStore) List(ctx context.Context, limit int) ([]*Product, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var products []*Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Brand, &p.Category, &p.ImageURL,
			&p.PricePaise, &p.Stock, &p.AllowOnlinePayment, &p.AllowCOD, &p.CreatedAt,
		); err != nil {
			return nil, err
		}
		products = append(products, &p)
	}
	return products, rows.Err()
}

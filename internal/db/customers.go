package db

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrCustomerNotFound = errors.New("customer not found")
	ErrEmailTaken       = errors.New("email already registered")
)

type CustomerStore struct {
	pool *pgxpool.Pool
}

func NewCustomerStore(pool *pgxpool.Pool) *CustomerStore {
	return &CustomerStore{pool: pool}
}

func (s *CustomerStore) Create(ctx context.Context, customer *Customer) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO customers (email, name, mobile, password_hash, is_admin)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`,
		strings.ToLower(strings.TrimSpace(customer.Email)),
		customer.Name,
		customer.Mobile,
		customer.PasswordHash,
		customer.IsAdmin,
	).Scan(&customer.ID, &customer.CreatedAt)

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
		return ErrEmailTaken
	}
	return err
}

func (s *CustomerStore) GetByEmail(ctx context.Context, email string) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, mobile, password_hash, is_admin, created_at
		FROM customers
		WHERE email = $1
	`, strings.ToLower(strings.TrimSpace(email))).Scan(
		&c.ID, &c.Email, &c.Name, &c.Mobile, &c.PasswordHash, &c.IsAdmin, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (s *CustomerStore) GetByID(ctx context.Context, id uuid.UUID) (*Customer, error) {
	var c Customer
	err := s.pool.QueryRow(ctx, `
		SELECT id, email, name, mobile, password_hash, is_admin, created_at
		FROM customers
		WHERE id = $1
	`, id).Scan(
		&c.ID, &c.Email, &c.Name, &c.Mobile, &c.PasswordHash, &c.IsAdmin, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrCustomerNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

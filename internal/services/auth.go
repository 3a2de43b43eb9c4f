package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/models"
)

const tokenLifetime = 24 * time.Hour

type customerStore interface {
	Create(ctx context.Context, customer *db.Customer) error
	GetByEmail(ctx context.Context, email string) (*db.Customer, error)
	GetByID(ctx context.Context, id uuid.UUID) (*db.Customer, error)
}

type AuthService struct {
	customers customerStore
	jwtSecret []byte
	logger    *slog.Logger
}

func NewAuthService(customers customerStore, jwtSecret string, logger *slog.Logger) (*AuthService, error) {
	if len(jwtSecret) < 32 {
		return nil, fmt.Errorf("jwt secret must be at least 32 bytes")
	}
	return &AuthService{
		customers: customers,
		jwtSecret: []byte(jwtSecret),
		logger:    logger,
	}, nil
}

type Claims struct {
	CustomerID uuid.UUID `json:"customer_id"`
	Email      string    `json:"email"`
	IsAdmin    bool      `json:"is_admin"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"required"`
	Mobile   string `json:"mobile" validate:"omitempty,len=10,numeric"`
	Password string `json:"password" validate:"required,min=8"`
}

type AuthResult struct {
	Token    string           `json:"token"`
	Customer *models.Customer `json:"customer"`
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	if err := addressValidator.Struct(input); err != nil {
		return nil, NewValidationError("invalid registration: %v", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	customer := &models.Customer{
		Email:        strings.ToLower(strings.TrimSpace(input.Email)),
		Name:         input.Name,
		Mobile:       input.Mobile,
		PasswordHash: string(hash),
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, err
	}

	token, err := s.issueToken(customer)
	if err != nil {
		return nil, err
	}
	s.logger.Info("customer registered", "customer_id", customer.ID)
	return &AuthResult{Token: token, Customer: customer}, nil
}

func (s *AuthService) Login(ctx context.Context, emailAddr, password string) (*AuthResult, error) {
	customer, err := s.customers.GetByEmail(ctx, emailAddr)
	if err != nil {
		if errors.Is(err, db.ErrCustomerNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(customer.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(customer)
	if err != nil {
		return nil, err
	}
	return &AuthResult{Token: token, Customer: customer}, nil
}

// ParseToken validates a bearer token and returns its claims.
func (s *AuthService) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}

// GetCustomer resolves the authenticated customer for request handling.
func (s *AuthService) GetCustomer(ctx context.Context, id uuid.UUID) (*models.Customer, error) {
	return s.customers.GetByID(ctx, id)
}

func (s *AuthService) issueToken(customer *models.Customer) (string, error) {
	now := time.Now()
	claims := Claims{
		CustomerID: customer.ID,
		Email:      customer.Email,
		IsAdmin:    customer.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   customer.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenLifetime)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

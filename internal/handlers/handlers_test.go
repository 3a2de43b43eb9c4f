package handlers

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/models"
	"github.com/snapkartapp/snapkart/internal/services"
)

func testHandlers() *Handlers {
	return &Handlers{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

func TestRespondServiceError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{name: "validation", err: services.NewValidationError("bad input"), wantStatus: http.StatusBadRequest},
		{name: "payment mismatch", err: &services.PaymentMismatchError{Method: "cod", Items: []string{"Gold Necklace"}}, wantStatus: http.StatusBadRequest},
		{name: "not serviceable", err: services.ErrNotServiceable, wantStatus: http.StatusBadRequest},
		{name: "empty cart", err: services.ErrEmptyCart, wantStatus: http.StatusBadRequest},
		{name: "already shipped", err: services.ErrAlreadyShipped, wantStatus: http.StatusBadRequest},
		{name: "no tracking", err: services.ErrNoTracking, wantStatus: http.StatusBadRequest},
		{name: "invalid transition", err: db.ErrInvalidStatusTransition, wantStatus: http.StatusBadRequest},
		{name: "invalid credentials", err: services.ErrInvalidCredentials, wantStatus: http.StatusUnauthorized},
		{name: "email taken", err: db.ErrEmailTaken, wantStatus: http.StatusConflict},
		{name: "order not found", err: db.ErrOrderNotFound, wantStatus: http.StatusNotFound},
		{name: "product not found", err: db.ErrProductNotFound, wantStatus: http.StatusNotFound},
		{name: "gateway failure", err: &services.GatewayError{Err: errors.New("stripe 500")}, wantStatus: http.StatusInternalServerError},
		{name: "carrier failure", err: &services.CarrierError{Op: "track", Err: errors.New("ekart 500")}, wantStatus: http.StatusInternalServerError},
		{name: "unknown", err: errors.New("boom"), wantStatus: http.StatusInternalServerError},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			h := testHandlers()
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/", nil)

			h.respondServiceError(w, r, tc.err)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("content type = %q, want application/json", ct)
			}
		})
	}
}

func TestRespondServiceError_HidesVendorDetail(t *testing.T) {
	t.Parallel()

	h := testHandlers()
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)

	h.respondServiceError(w, r, &services.GatewayError{Err: errors.New("sk_live key rejected by stripe")})

	if strings.Contains(w.Body.String(), "sk_live") {
		t.Errorf("response %q leaks vendor detail", w.Body.String())
	}
}

type stubCustomerStore struct {
	customer *models.Customer
}

func (s *stubCustomerStore) Create(ctx context.Context, customer *db.Customer) error {
	customer.ID = uuid.New()
	s.customer = customer
	return nil
}

func (s *stubCustomerStore) GetByEmail(ctx context.Context, email string) (*db.Customer, error) {
	if s.customer == nil {
		return nil, db.ErrCustomerNotFound
	}
	return s.customer, nil
}

func (s *stubCustomerStore) GetByID(ctx context.Context, id uuid.UUID) (*db.Customer, error) {
	if s.customer == nil {
		return nil, db.ErrCustomerNotFound
	}
	return s.customer, nil
}

const testJWTSecret = "0123456789abcdef0123456789abcdef"

func newAuthedHandlers(t *testing.T, store *stubCustomerStore) (*Handlers, *services.AuthService) {
	t.Helper()
	authService, err := services.NewAuthService(store, testJWTSecret, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("NewAuthService() error = %v", err)
	}
	h := testHandlers()
	h.authService = authService
	return h, authService
}

func registerCustomer(t *testing.T, authService *services.AuthService) *services.AuthResult {
	t.Helper()
	result, err := authService.Register(context.Background(), services.RegisterInput{
		Email:    "asha@example.com",
		Name:     "Asha Rao",
		Password: "correct horse battery",
	})
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return result
}

func TestRequireCustomer(t *testing.T) {
	t.Parallel()

	store := &stubCustomerStore{}
	h, authService := newAuthedHandlers(t, store)
	result := registerCustomer(t, authService)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := claimsFromContext(r.Context())
		if !ok {
			t.Error("claims missing from context")
		} else if claims.CustomerID != result.Customer.ID {
			t.Errorf("claims customer = %v, want %v", claims.CustomerID, result.Customer.ID)
		}
		w.WriteHeader(http.StatusNoContent)
	})

	tests := []struct {
		name       string
		header     string
		wantStatus int
	}{
		{name: "valid token", header: "Bearer " + result.Token, wantStatus: http.StatusNoContent},
		{name: "missing header", header: "", wantStatus: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", wantStatus: http.StatusUnauthorized},
		{name: "garbage token", header: "Bearer not.a.token", wantStatus: http.StatusUnauthorized},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
			if tc.header != "" {
				r.Header.Set("Authorization", tc.header)
			}

			h.RequireCustomer(next).ServeHTTP(w, r)

			if w.Code != tc.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tc.wantStatus)
			}
		})
	}
}

func TestRequireAdmin_RejectsNonAdmin(t *testing.T) {
	t.Parallel()

	store := &stubCustomerStore{}
	h, authService := newAuthedHandlers(t, store)
	result := registerCustomer(t, authService)

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler must not run for a non-admin")
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/products", nil)
	r.Header.Set("Authorization", "Bearer "+result.Token)

	h.RequireAdmin(next).ServeHTTP(w, r)

	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestSecurityHeaders(t *testing.T) {
	t.Parallel()

	h := testHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	h.SecurityHeaders(next).ServeHTTP(w, r)

	if got := w.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := w.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestDecodeJSON_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"email":"a@b.c","bogus":true}`))

	var dst struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(w, r, &dst); err == nil {
		t.Fatal("expected an error for unknown fields")
	}
}

func TestRequestLogger_SetsRequestID(t *testing.T) {
	t.Parallel()

	h := testHandlers()
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	t.Run("generates id", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		h.RequestLogger(next).ServeHTTP(w, r)

		if w.Header().Get("X-Request-ID") == "" {
			t.Error("expected a generated X-Request-ID")
		}
	})

	t.Run("echoes caller id", func(t *testing.T) {
		t.Parallel()

		w := httptest.NewRecorder()
		r := httptest.NewRequest(http.MethodGet, "/health", nil)
		r.Header.Set("X-Request-ID", "req-42")
		h.RequestLogger(next).ServeHTTP(w, r)

		if got := w.Header().Get("X-Request-ID"); got != "req-42" {
			t.Errorf("X-Request-ID = %q, want req-42", got)
		}
	})
}

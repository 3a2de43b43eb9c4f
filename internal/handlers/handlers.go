package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/snapkartapp/snapkart/internal/config"
	"github.com/snapkartapp/snapkart/internal/db"
	"github.com/snapkartapp/snapkart/internal/logging"
	"github.com/snapkartapp/snapkart/internal/services"
)

const maxBodyBytes = 1 << 20 // 1 MB

// Handlers provides the JSON HTTP handlers for the storefront API.
type Handlers struct {
	config       *config.Config
	db           *pgxpool.Pool
	authService  *services.AuthService
	cartService  *services.CartService
	orderService *services.OrderService
	productStore *db.ProductStore
	logger       *slog.Logger
}

type Dependencies struct {
	Config       *config.Config
	DB           *pgxpool.Pool
	AuthService  *services.AuthService
	CartService  *services.CartService
	OrderService *services.OrderService
	ProductStore *db.ProductStore
	Logger       *slog.Logger
}

func New(deps Dependencies) (*Handlers, error) {
	logger := deps.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	if deps.Config == nil {
		return nil, fmt.Errorf("handlers dependencies: config is required")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("handlers dependencies: db is required")
	}
	if deps.AuthService == nil {
		return nil, fmt.Errorf("handlers dependencies: authService is required")
	}
	if deps.CartService == nil {
		return nil, fmt.Errorf("handlers dependencies: cartService is required")
	}
	if deps.OrderService == nil {
		return nil, fmt.Errorf("handlers dependencies: orderService is required")
	}
	if deps.ProductStore == nil {
		return nil, fmt.Errorf("handlers dependencies: productStore is required")
	}

	return &Handlers{
		config:       deps.Config,
		db:           deps.DB,
		authService:  deps.AuthService,
		cartService:  deps.CartService,
		orderService: deps.OrderService,
		productStore: deps.ProductStore,
		logger:       logger.With("component", "handlers"),
	}, nil
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.loggerFromContext(ctx)

	if err := h.db.Ping(ctx); err != nil {
		logger.Error("database health check failed", "error", err)
		http.Error(w, "Database unhealthy", http.StatusServiceUnavailable)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handlers) loggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx, h.logger)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		_ = json.NewEncoder(w).Encode(payload)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps the error taxonomy to HTTP statuses. Vendor
// payloads never reach the client; only taxonomy messages do.
func (h *Handlers) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.loggerFromContext(r.Context())

	var validationErr *services.ValidationError
	var mismatchErr *services.PaymentMismatchError
	var gatewayErr *services.GatewayError
	var carrierErr *services.CarrierError

	switch {
	case errors.As(err, &validationErr):
		respondError(w, http.StatusBadRequest, validationErr.Message)
	case errors.As(err, &mismatchErr):
		respondError(w, http.StatusBadRequest, mismatchErr.Error())
	case errors.Is(err, services.ErrNotServiceable):
		respondError(w, http.StatusBadRequest, "location not serviceable")
	case errors.Is(err, services.ErrEmptyCart):
		respondError(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, services.ErrAlreadyShipped):
		respondError(w, http.StatusBadRequest, "shipment already created for this order")
	case errors.Is(err, services.ErrNoTracking):
		respondError(w, http.StatusBadRequest, "order has no tracking reference yet")
	case errors.Is(err, db.ErrInvalidStatusTransition):
		respondError(w, http.StatusBadRequest, "order cannot change state from its current status")
	case errors.Is(err, services.ErrInvalidCredentials):
		respondError(w, http.StatusUnauthorized, "invalid email or password")
	case errors.Is(err, db.ErrEmailTaken):
		respondError(w, http.StatusConflict, "email already registered")
	case errors.Is(err, db.ErrOrderNotFound):
		respondError(w, http.StatusNotFound, "order not found")
	case errors.Is(err, db.ErrCartNotFound):
		respondError(w, http.StatusNotFound, "cart not found")
	case errors.Is(err, db.ErrProductNotFound):
		respondError(w, http.StatusNotFound, "product not found")
	case errors.Is(err, db.ErrCustomerNotFound):
		respondError(w, http.StatusNotFound, "customer not found")
	case errors.As(err, &gatewayErr):
		logger.Error("payment gateway failure", "error", err)
		respondError(w, http.StatusInternalServerError, "payment gateway error, please try again later")
	case errors.As(err, &carrierErr):
		logger.Error("shipping carrier failure", "error", err)
		respondError(w, http.StatusInternalServerError, "shipping carrier error, please try again later")
	default:
		logger.Error("unhandled service error", "error", err)
		respondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// SecurityHeaders sets baseline security headers for all responses.
func (h *Handlers) SecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		headers := w.Header()
		headers.Set("X-Content-Type-Options", "nosniff")
		headers.Set("X-Frame-Options", "DENY")
		headers.Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/snapkartapp/snapkart/internal/config"
	"github.com/snapkartapp/snapkart/internal/handlers"
)

type Server struct {
	cfg        *config.Config
	logger     *slog.Logger
	handlers   *handlers.Handlers
	httpServer *http.Server
}

func New(cfg *config.Config, logger *slog.Logger, h *handlers.Handlers) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if h == nil {
		return nil, fmt.Errorf("handlers are required")
	}

	s := &Server{
		cfg:      cfg,
		logger:   logger,
		handlers: h,
	}

	router := s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	return s, nil
}

func (s *Server) Run() error {
	s.logger.Info("server starting", "port", s.cfg.Port)

	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Close(ctx context.Context) error {
	if s == nil || s.httpServer == nil {
		return nil
	}

	s.logger.Info("server shutting down")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}

func (s *Server) buildRouter() *mux.Router {
	h := s.handlers

	r := mux.NewRouter()
	r.Use(h.RequestLogger)
	r.Use(h.MetricsContext)
	r.Use(h.SecurityHeaders)

	r.HandleFunc("/health", h.Health).Methods("GET").Name("health")

	api := r.PathPrefix("/api").Subrouter()

	// Public routes
	api.HandleFunc("/auth/register", h.Register).Methods("POST").Name("auth.register")
	api.HandleFunc("/auth/login", h.Login).Methods("POST").Name("auth.login")
	api.HandleFunc("/products", h.ListProducts).Methods("GET").Name("products.list")
	api.HandleFunc("/products/{productID}", h.GetProduct).Methods("GET").Name("products.get")
	api.HandleFunc("/serviceability/{pincode}", h.CheckServiceability).Methods("GET").Name("serviceability.check")

	// Authenticated customer routes
	customer := api.NewRoute().Subrouter()
	customer.Use(h.RequireCustomer)
	customer.HandleFunc("/auth/me", h.Me).Methods("GET").Name("auth.me")
	customer.HandleFunc("/cart", h.GetCart).Methods("GET").Name("cart.get")
	customer.HandleFunc("/cart/items", h.AddCartItem).Methods("POST").Name("cart.items.add")
	customer.HandleFunc("/cart/items/{productID}", h.RemoveCartItem).Methods("DELETE").Name("cart.items.remove")
	customer.HandleFunc("/orders", h.CreateOrder).Methods("POST").Name("orders.create")
	customer.HandleFunc("/orders", h.ListOrders).Methods("GET").Name("orders.list")
	customer.HandleFunc("/orders/{orderID}", h.GetOrder).Methods("GET").Name("orders.get")
	customer.HandleFunc("/orders/{orderID}/cancel", h.CancelOrder).Methods("POST").Name("orders.cancel")
	customer.HandleFunc("/orders/{orderID}/track", h.TrackOrder).Methods("GET").Name("orders.track")
	customer.HandleFunc("/payments/verify", h.VerifyPayment).Methods("POST").Name("payments.verify")

	// Admin-only routes
	api.Handle("/products", h.RequireAdmin(http.HandlerFunc(h.CreateProduct))).Methods("POST").Name("products.create")
	api.Handle("/orders/{orderID}/shipment", h.RequireAdmin(http.HandlerFunc(h.CreateShipment))).Methods("POST").Name("orders.shipment")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"not found"}`))
	})

	return r
}

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/snapkartapp/snapkart/internal/models"
	"github.com/snapkartapp/snapkart/internal/services"
)

func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var input struct {
		Address       models.Address `json:"address"`
		PaymentMethod string         `json:"payment_method"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	customer, err := h.authService.GetCustomer(r.Context(), claims.CustomerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	result, err := h.orderService.CreateOrder(r.Context(), customer, services.CreateOrderInput{
		Address:       input.Address,
		PaymentMethod: models.PaymentMethod(input.PaymentMethod),
	})
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var input struct {
		SessionID string `json:"session_id"`
		OrderID   string `json:"order_id"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.OrderID == "" {
		respondError(w, http.StatusBadRequest, "order_id is required")
		return
	}

	if _, ok := h.ownedOrder(w, r, claims, input.OrderID); !ok {
		return
	}

	result, err := h.orderService.VerifyPayment(r.Context(), input.SessionID, input.OrderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) GetOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	order, ok := h.ownedOrder(w, r, claims, mux.Vars(r)["orderID"])
	if !ok {
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) ListOrders(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orders, err := h.orderService.ListOrders(r.Context(), claims.CustomerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"orders": orders})
}

func (h *Handlers) CreateShipment(w http.ResponseWriter, r *http.Request) {
	result, err := h.orderService.CreateShipment(r.Context(), mux.Vars(r)["orderID"])
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) CancelOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := mux.Vars(r)["orderID"]
	if _, ok := h.ownedOrder(w, r, claims, orderID); !ok {
		return
	}

	order, err := h.orderService.CancelOrder(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, order)
}

func (h *Handlers) TrackOrder(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	orderID := mux.Vars(r)["orderID"]
	if _, ok := h.ownedOrder(w, r, claims, orderID); !ok {
		return
	}

	tracking, err := h.orderService.Track(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, tracking)
}

func (h *Handlers) CheckServiceability(w http.ResponseWriter, r *http.Request) {
	pincode := mux.Vars(r)["pincode"]

	serviceable, err := h.orderService.CheckServiceability(r.Context(), pincode)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"pincode":     pincode,
		"serviceable": serviceable,
	})
}

// ownedOrder loads an order and rejects the request unless the caller owns
// it or is an admin.
func (h *Handlers) ownedOrder(w http.ResponseWriter, r *http.Request, claims *services.Claims, orderID string) (*models.Order, bool) {
	order, err := h.orderService.GetOrder(r.Context(), orderID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return nil, false
	}
	if order.CustomerID != claims.CustomerID && !claims.IsAdmin {
		respondError(w, http.StatusNotFound, "order not found")
		return nil, false
	}
	return order, true
}

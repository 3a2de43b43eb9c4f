package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

func (h *Handlers) GetCart(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	cart, err := h.cartService.Get(r.Context(), claims.CustomerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *Handlers) AddCartItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	var input struct {
		ProductID string `json:"product_id"`
		Quantity  int    `json:"quantity"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	productID, err := uuid.Parse(input.ProductID)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	cart, err := h.cartService.AddItem(r.Context(), claims.CustomerID, productID, input.Quantity)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

func (h *Handlers) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	productID, err := uuid.Parse(mux.Vars(r)["productID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	cart, err := h.cartService.RemoveItem(r.Context(), claims.CustomerID, productID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, cart)
}

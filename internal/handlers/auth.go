package handlers

import (
	"net/http"

	"github.com/snapkartapp/snapkart/internal/services"
)

func (h *Handlers) Register(w http.ResponseWriter, r *http.Request) {
	var input services.RegisterInput
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Register(r.Context(), input)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, result)
}

func (h *Handlers) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.authService.Login(r.Context(), input.Email, input.Password)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

func (h *Handlers) Me(w http.ResponseWriter, r *http.Request) {
	claims, ok := claimsFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "not authenticated")
		return
	}

	customer, err := h.authService.GetCustomer(r.Context(), claims.CustomerID)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, customer)
}

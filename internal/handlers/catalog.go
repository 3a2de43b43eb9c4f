package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/snapkartapp/snapkart/internal/models"
)

const catalogPageSize = 100

func (h *Handlers) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.productStore.List(r.Context(), catalogPageSize)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"products": products})
}

func (h *Handlers) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["productID"])
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.productStore.GetByID(r.Context(), id)
	if err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

func (h *Handlers) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Name               string `json:"name"`
		Description        string `json:"description"`
		Brand              string `json:"brand"`
		Category           string `json:"category"`
		ImageURL           string `json:"image_url"`
		PricePaise         int64  `json:"price_paise"`
		Stock              int    `json:"stock"`
		AllowOnlinePayment bool   `json:"allow_online_payment"`
		AllowCOD           bool   `json:"allow_cod"`
	}
	if err := decodeJSON(w, r, &input); err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if input.Name == "" || input.PricePaise <= 0 {
		respondError(w, http.StatusBadRequest, "name and a positive price are required")
		return
	}
	if !input.AllowOnlinePayment && !input.AllowCOD {
		respondError(w, http.StatusBadRequest, "product must allow at least one payment method")
		return
	}

	product := &models.Product{
		Name:               input.Name,
		Description:        input.Description,
		Brand:              input.Brand,
		Category:           input.Category,
		ImageURL:           input.ImageURL,
		PricePaise:         input.PricePaise,
		Stock:              input.Stock,
		AllowOnlinePayment: input.AllowOnlinePayment,
		AllowCOD:           input.AllowCOD,
	}
	if err := h.productStore.Create(r.Context(), product); err != nil {
		h.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

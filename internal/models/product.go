package models

import (
	"time"

	"github.com/google/uuid"
)

type Product struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	Brand              string    `json:"brand"`
	Category           string    `json:"category"`
	ImageURL           string    `json:"image_url"`
	PricePaise         int64     `json:"price_paise"`
	Stock              int       `json:"stock"`
	AllowOnlinePayment bool      `json:"allow_online_payment"`
	AllowCOD           bool      `json:"allow_cod"`
	CreatedAt          time.Time `json:"created_at"`
}

type Customer struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	Mobile       string    `json:"mobile"`
	PasswordHash string    `json:"-"`
	IsAdmin      bool      `json:"is_admin"`
	CreatedAt    time.Time `json:"created_at"`
}

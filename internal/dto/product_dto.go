package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateProductRequest struct {
	Code         string          `json:"code"          validate:"required,max=50"`
	Name         string          `json:"name"          validate:"required,max=75"`
	Description  *string         `json:"description"   validate:"omitempty,max=255"`
	Category     string          `json:"category"      validate:"max=50"`
	Price        decimal.Decimal `json:"price"         validate:"min=0"`
	InitialStock int             `json:"initial_stock" validate:"min=0"`
}

type UpdatePriceRequest struct {
	Price  decimal.Decimal `json:"price"  validate:"min=0"`
	Reason string          `json:"reason" validate:"max=120"`
}

type ProductResponse struct {
	ID          uint            `json:"id"`
	Code        string          `json:"code"`
	Name        string          `json:"name"`
	Description *string         `json:"description"`
	Category    string          `json:"category"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	Active      bool            `json:"active"`
}

type PriceHistoryResponse struct {
	PriceBefore decimal.Decimal `json:"price_before"`
	PriceAfter  decimal.Decimal `json:"price_after"`
	Reason      string          `json:"reason"`
	CreatedAt   time.Time       `json:"created_at"`
}

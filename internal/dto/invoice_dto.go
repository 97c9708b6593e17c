package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ─── Filter / List ──────────────────────────────────────────────────────────

// InvoiceFilter is bound from the query string of GET /v1/invoices.
type InvoiceFilter struct {
	Query string `form:"q"`
	Page  int    `form:"page,default=1"   validate:"min=1"`
	Limit int    `form:"limit,default=50" validate:"min=1,max=200"`
}

type InvoiceListItem struct {
	ID           uint            `json:"id"`
	Number       string          `json:"number"`
	IssuedAt     time.Time       `json:"issued_at"`
	CustomerID   uint            `json:"customer_id"`
	CustomerName string          `json:"customer_name"`
	Subtotal     decimal.Decimal `json:"subtotal"`
	Tax          decimal.Decimal `json:"tax"`
	Total        decimal.Decimal `json:"total"`
	PaymentTerms string          `json:"payment_terms"`
}

type InvoiceListResponse struct {
	Data  []InvoiceListItem `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}

// ─── Request DTOs ────────────────────────────────────────────────────────────

// InvoiceLineRequest carries no price: unit prices always come from the catalog.
type InvoiceLineRequest struct {
	ProductID uint `json:"product_id"`
	Quantity  int  `json:"quantity"`
}

// CreateInvoiceRequest is the body of POST /v1/invoices. Line-level checks
// (empty list, quantities, unknown products) are done by the invoicing core so
// they are reported the same way regardless of the caller.
type CreateInvoiceRequest struct {
	CustomerID   uint                 `json:"customer_id"   validate:"required"`
	PaymentTerms string               `json:"payment_terms" validate:"max=50"`
	DueDate      *time.Time           `json:"due_date"`
	Lines        []InvoiceLineRequest `json:"lines"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type InvoiceLineResponse struct {
	Position    int             `json:"position"`
	ProductID   uint            `json:"product_id"`
	ProductCode string          `json:"product_code,omitempty"`
	ProductName string          `json:"product_name,omitempty"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
}

type InvoiceResponse struct {
	ID           uint                  `json:"id"`
	Number       string                `json:"number"`
	IssuedAt     time.Time             `json:"issued_at"`
	CustomerID   uint                  `json:"customer_id"`
	Subtotal     decimal.Decimal       `json:"subtotal"`
	Tax          decimal.Decimal       `json:"tax"`
	Total        decimal.Decimal       `json:"total"`
	PaymentTerms string                `json:"payment_terms"`
	DueDate      *time.Time            `json:"due_date"`
	Lines        []InvoiceLineResponse `json:"lines"`
}

type CompanyResponse struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email"`
	LegalID string `json:"legal_id"`
}

// InvoiceDetailResponse is the full read model of GET /v1/invoices/:id.
type InvoiceDetailResponse struct {
	InvoiceResponse
	Customer CustomerResponse `json:"customer"`
	Company  *CompanyResponse `json:"company"`
}

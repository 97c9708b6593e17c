package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Invoice is the immutable header of a sale. Lines are owned by the invoice
// and go away with it; customers and products cannot be deleted while an
// invoice points at them.
type Invoice struct {
	ID           uint            `gorm:"primaryKey"`
	Number       string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	IssuedAt     time.Time       `gorm:"not null;index"`
	CustomerID   uint            `gorm:"not null;index"`
	Subtotal     decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Tax          decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Total        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentTerms string          `gorm:"type:varchar(50);not null"`
	DueDate      *time.Time
	CreatedAt    time.Time

	Lines    []InvoiceDetail `gorm:"foreignKey:InvoiceID;constraint:OnDelete:CASCADE"`
	Customer *Customer       `gorm:"foreignKey:CustomerID;constraint:OnDelete:RESTRICT"`
}

// InvoiceDetail is one line of an invoice. UnitPrice is the catalog price at
// the moment of sale and is never recalculated afterwards.
type InvoiceDetail struct {
	ID        uint            `gorm:"primaryKey"`
	InvoiceID uint            `gorm:"not null;index"`
	Position  int             `gorm:"not null"`
	ProductID uint            `gorm:"not null;index"`
	Quantity  int             `gorm:"not null;check:chk_invoice_details_quantity,quantity >= 1"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Subtotal  decimal.Decimal `gorm:"type:decimal(18,2);not null"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

// InvoiceSequenceName is the counter row used for invoice numbers.
const InvoiceSequenceName = "invoice_number"

// InvoiceSequence backs invoice numbering on databases without native sequences.
type InvoiceSequence struct {
	Name      string `gorm:"type:varchar(30);primaryKey"`
	LastValue int64  `gorm:"not null;default:0"`
}

// InvoiceSummary is a list row: header fields plus the customer's name.
type InvoiceSummary struct {
	ID           uint
	Number       string
	IssuedAt     time.Time
	CustomerID   uint
	CustomerName string
	Subtotal     decimal.Decimal
	Tax          decimal.Decimal
	Total        decimal.Decimal
	PaymentTerms string
}

// InvoiceView is the read-only aggregate handed to display and rendering:
// header, customer, lines with product identity and the issuing company.
type InvoiceView struct {
	Invoice  Invoice
	Customer Customer
	Lines    []InvoiceViewLine
	Company  *CompanyProfile
}

type InvoiceViewLine struct {
	InvoiceDetail
	ProductCode string
	ProductName string
}

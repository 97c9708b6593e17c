package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a catalog entry. Stock is only ever changed through the stock
// ledger, and products are soft-deleted via Active so historical invoices can
// still reference them.
type Product struct {
	ID          uint            `gorm:"primaryKey"`
	Code        string          `gorm:"type:varchar(50);uniqueIndex;not null"`
	Name        string          `gorm:"type:varchar(75);index;not null"`
	Description *string         `gorm:"type:varchar(255)"`
	Category    string          `gorm:"type:varchar(50);not null;default:''"`
	Price       decimal.Decimal `gorm:"type:decimal(12,2);not null;check:chk_products_price,price >= 0"`
	Stock       int             `gorm:"not null;default:0;check:chk_products_stock,stock >= 0"`
	Active      bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

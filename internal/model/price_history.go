package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PriceHistory records every catalog price change. Rows are never updated.
type PriceHistory struct {
	ID          uint            `gorm:"primaryKey"`
	ProductID   uint            `gorm:"not null;index"`
	PriceBefore decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	PriceAfter  decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Reason      string          `gorm:"type:varchar(120);not null;default:'manual'"`
	CreatedAt   time.Time

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (PriceHistory) TableName() string { return "price_history" }

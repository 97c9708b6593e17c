package model

import "time"

type MovementType string

const (
	MovementEntry MovementType = "Entry"
	MovementExit  MovementType = "Exit"
)

// Movement is an append-only audit record of a stock change. Quantity is
// always positive; Type carries the direction.
type Movement struct {
	ID          uint         `gorm:"primaryKey"`
	ProductID   uint         `gorm:"not null;index"`
	Type        MovementType `gorm:"type:varchar(10);not null"`
	Quantity    int          `gorm:"not null;check:chk_stock_movements_quantity,quantity > 0"`
	StockBefore int          `gorm:"not null"`
	StockAfter  int          `gorm:"not null"`
	Date        time.Time    `gorm:"not null;index"`
	Observation string       `gorm:"type:varchar(255)"`

	Product *Product `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT"`
}

func (Movement) TableName() string { return "stock_movements" }

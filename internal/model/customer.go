package model

import "time"

// Customer is referenced by invoices but never mutated by them.
type Customer struct {
	ID             uint    `gorm:"primaryKey"`
	FullName       string  `gorm:"type:varchar(100);index;not null"`
	Identification string  `gorm:"type:varchar(30);uniqueIndex;not null"`
	Address        *string `gorm:"type:varchar(200)"`
	Phone          *string `gorm:"type:varchar(30)"`
	Email          *string `gorm:"type:varchar(120)"`
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

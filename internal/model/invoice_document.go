package model

import "time"

const (
	DocumentPending  = "pending"
	DocumentRendered = "rendered"
	DocumentError    = "error"
)

// InvoiceDocument tracks the rendered PDF of an invoice.
// Status: "pending" | "rendered" | "error"
type InvoiceDocument struct {
	ID        uint   `gorm:"primaryKey"`
	InvoiceID uint   `gorm:"not null;uniqueIndex"`
	Status    string `gorm:"type:varchar(20);not null;default:'pending'"`
	// PDFPath is relative to PDF_STORAGE_PATH
	PDFPath *string `gorm:"column:pdf_path"`
	// Retry fields, driven by the render worker and the retry cron
	RetryCount  int        `gorm:"not null;default:0"`
	NextRetryAt *time.Time `gorm:"index"`
	LastError   *string
	EmailedAt   *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

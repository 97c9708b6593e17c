package repository

import (
	"context"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"gorm.io/gorm"
)

type DocumentRepository interface {
	Create(ctx context.Context, d *model.InvoiceDocument) error
	CreateTx(tx *gorm.DB, d *model.InvoiceDocument) error
	FindByInvoiceID(ctx context.Context, invoiceID uint) (*model.InvoiceDocument, error)
	Update(ctx context.Context, d *model.InvoiceDocument) error
	// ListPendingRetries returns pending documents whose next retry is due.
	ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.InvoiceDocument, error)
}

type documentRepo struct{ db *gorm.DB }

func NewDocumentRepository(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Create(ctx context.Context, d *model.InvoiceDocument) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) CreateTx(tx *gorm.DB, d *model.InvoiceDocument) error {
	return tx.Create(d).Error
}

func (r *documentRepo) FindByInvoiceID(ctx context.Context, invoiceID uint) (*model.InvoiceDocument, error) {
	var d model.InvoiceDocument
	if err := r.db.WithContext(ctx).Where("invoice_id = ?", invoiceID).First(&d).Error; err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *documentRepo) Update(ctx context.Context, d *model.InvoiceDocument) error {
	return r.db.WithContext(ctx).Save(d).Error
}

func (r *documentRepo) ListPendingRetries(ctx context.Context, now time.Time, limit int) ([]model.InvoiceDocument, error) {
	var docs []model.InvoiceDocument
	err := r.db.WithContext(ctx).
		Where("status = ? AND next_retry_at IS NOT NULL AND next_retry_at <= ?", model.DocumentPending, now).
		Order("next_retry_at ASC").
		Limit(limit).
		Find(&docs).Error
	return docs, err
}

package repository

import (
	"context"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"gorm.io/gorm"
)

// MovementFilter defines filters for listing stock movements.
type MovementFilter struct {
	ProductID *uint
	Type      model.MovementType
	Page      int
	Limit     int
}

// MovementRepository is append-only: there is no update or delete.
type MovementRepository interface {
	CreateTx(tx *gorm.DB, m *model.Movement) error
	List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error)
}

type movementRepo struct{ db *gorm.DB }

func NewMovementRepository(db *gorm.DB) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) CreateTx(tx *gorm.DB, m *model.Movement) error {
	return tx.Create(m).Error
}

func (r *movementRepo) List(ctx context.Context, filter MovementFilter) ([]model.Movement, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Movement{})
	if filter.ProductID != nil {
		q = q.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Type != "" {
		q = q.Where("type = ?", filter.Type)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page, limit := normalizePage(filter.Page, filter.Limit)

	var movements []model.Movement
	err := q.Order("date DESC").Order("id DESC").
		Offset((page - 1) * limit).Limit(limit).
		Find(&movements).Error
	return movements, total, err
}

// normalizePage clamps pagination input to sane values.
func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 500 {
		limit = 50
	}
	return page, limit
}

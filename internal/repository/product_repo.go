package repository

import (
	"context"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ProductRepository defines the data access contract for catalog products.
// Services depend on this interface, not on the concrete GORM implementation.
type ProductRepository interface {
	Create(ctx context.Context, p *model.Product) error
	FindByID(ctx context.Context, id uint) (*model.Product, error)
	FindByCode(ctx context.Context, code string) (*model.Product, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error)
	// Search matches active products by name or code.
	Search(ctx context.Context, term string, limit int) ([]model.Product, error)
	SetActive(ctx context.Context, id uint, active bool) error

	// Used inside transactions; callers must pass the tx instance
	CreateTx(tx *gorm.DB, p *model.Product) error
	FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error)
	// FindByIDForUpdateTx reads the row with SELECT … FOR UPDATE where supported.
	FindByIDForUpdateTx(tx *gorm.DB, id uint) (*model.Product, error)
	// AdjustStockTx adds delta to stock only if the result stays non-negative.
	// It reports false when the guard rejected the update.
	AdjustStockTx(tx *gorm.DB, id uint, delta int) (bool, error)
	UpdatePriceTx(tx *gorm.DB, id uint, price decimal.Decimal) error

	// DB exposes the underlying *gorm.DB so services can open transactions.
	DB() *gorm.DB
}

type productRepo struct{ db *gorm.DB }

func NewProductRepository(db *gorm.DB) ProductRepository { return &productRepo{db: db} }

func (r *productRepo) DB() *gorm.DB { return r.db }

func (r *productRepo) Create(ctx context.Context, p *model.Product) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *productRepo) FindByID(ctx context.Context, id uint) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByCode(ctx context.Context, code string) (*model.Product, error) {
	var p model.Product
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDs(ctx context.Context, ids []uint) ([]model.Product, error) {
	var out []model.Product
	if len(ids) == 0 {
		return out, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&out).Error
	return out, err
}

func (r *productRepo) Search(ctx context.Context, term string, limit int) ([]model.Product, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	q := r.db.WithContext(ctx).Where("active = ?", true)
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(name) LIKE ? OR LOWER(code) LIKE ?", like, like)
	}
	var out []model.Product
	err := q.Order("name ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *productRepo) SetActive(ctx context.Context, id uint, active bool) error {
	res := r.db.WithContext(ctx).Model(&model.Product{}).Where("id = ?", id).Update("active", active)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *productRepo) CreateTx(tx *gorm.DB, p *model.Product) error {
	return tx.Create(p).Error
}

func (r *productRepo) FindByIDTx(tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	if err := tx.First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) FindByIDForUpdateTx(tx *gorm.DB, id uint) (*model.Product, error) {
	var p model.Product
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&p, id).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *productRepo) AdjustStockTx(tx *gorm.DB, id uint, delta int) (bool, error) {
	res := tx.Model(&model.Product{}).
		Where("id = ? AND stock + ? >= 0", id, delta).
		Update("stock", gorm.Expr("stock + ?", delta))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *productRepo) UpdatePriceTx(tx *gorm.DB, id uint, price decimal.Decimal) error {
	return tx.Model(&model.Product{}).Where("id = ?", id).Update("price", price).Error
}

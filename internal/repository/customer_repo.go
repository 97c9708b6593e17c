package repository

import (
	"context"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"gorm.io/gorm"
)

type CustomerRepository interface {
	Create(ctx context.Context, c *model.Customer) error
	FindByID(ctx context.Context, id uint) (*model.Customer, error)
	FindByIdentification(ctx context.Context, identification string) (*model.Customer, error)
	Search(ctx context.Context, term string, limit int) ([]model.Customer, error)
	Delete(ctx context.Context, id uint) error
}

type customerRepo struct{ db *gorm.DB }

func NewCustomerRepository(db *gorm.DB) CustomerRepository { return &customerRepo{db: db} }

func (r *customerRepo) Create(ctx context.Context, c *model.Customer) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *customerRepo) FindByID(ctx context.Context, id uint) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) FindByIdentification(ctx context.Context, identification string) (*model.Customer, error) {
	var c model.Customer
	if err := r.db.WithContext(ctx).Where("identification = ?", identification).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *customerRepo) Search(ctx context.Context, term string, limit int) ([]model.Customer, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	q := r.db.WithContext(ctx).Model(&model.Customer{})
	if term = strings.TrimSpace(term); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(full_name) LIKE ? OR LOWER(identification) LIKE ?", like, like)
	}
	var out []model.Customer
	err := q.Order("full_name ASC").Limit(limit).Find(&out).Error
	return out, err
}

func (r *customerRepo) Delete(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&model.Customer{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

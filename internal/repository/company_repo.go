package repository

import (
	"context"
	"errors"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"gorm.io/gorm"
)

type CompanyRepository interface {
	// Get returns the company profile, or nil when none has been configured.
	Get(ctx context.Context) (*model.CompanyProfile, error)
	Save(ctx context.Context, p *model.CompanyProfile) error
}

type companyRepo struct{ db *gorm.DB }

func NewCompanyRepository(db *gorm.DB) CompanyRepository { return &companyRepo{db: db} }

func (r *companyRepo) Get(ctx context.Context) (*model.CompanyProfile, error) {
	var p model.CompanyProfile
	err := r.db.WithContext(ctx).Order("id ASC").First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Save upserts the single profile row.
func (r *companyRepo) Save(ctx context.Context, p *model.CompanyProfile) error {
	if p.ID == 0 {
		existing, err := r.Get(ctx)
		if err != nil {
			return err
		}
		if existing != nil {
			p.ID = existing.ID
		}
	}
	return r.db.WithContext(ctx).Save(p).Error
}

package service

import (
	"context"
	"errors"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"gorm.io/gorm"
)

// CatalogReader resolves products that may be put on a new invoice.
type CatalogReader interface {
	Resolve(ctx context.Context, productID uint) (*model.Product, error)
}

// Catalog is the read side of the product table. Bound to a transaction via
// WithTx it takes row locks, so the stock it reports cannot change before the
// ledger applies its delta.
type Catalog struct {
	repo repository.ProductRepository
	tx   *gorm.DB
}

func NewCatalog(repo repository.ProductRepository) *Catalog {
	return &Catalog{repo: repo}
}

func (c *Catalog) WithTx(tx *gorm.DB) *Catalog {
	return &Catalog{repo: c.repo, tx: tx}
}

// Resolve returns an active product or ErrProductNotFound.
func (c *Catalog) Resolve(ctx context.Context, productID uint) (*model.Product, error) {
	p, err := c.ResolveAny(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !p.Active {
		return nil, ErrProductNotFound
	}
	return p, nil
}

// ResolveAny also returns inactive products, for historical display.
func (c *Catalog) ResolveAny(ctx context.Context, productID uint) (*model.Product, error) {
	var (
		p   *model.Product
		err error
	)
	if c.tx != nil {
		p, err = c.repo.FindByIDForUpdateTx(c.tx, productID)
	} else {
		p, err = c.repo.FindByID(ctx, productID)
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

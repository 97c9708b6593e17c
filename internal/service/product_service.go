package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

const defaultPriceChangeReason = "manual"

// ProductService covers catalog maintenance. Stock only changes through the
// ledger, including the initial stock of a new product.
type ProductService interface {
	Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error)
	Get(ctx context.Context, id uint) (*dto.ProductResponse, error)
	Search(ctx context.Context, term string) ([]dto.ProductResponse, error)
	UpdatePrice(ctx context.Context, id uint, req dto.UpdatePriceRequest) (*dto.ProductResponse, error)
	SetActive(ctx context.Context, id uint, active bool) error
	PriceHistory(ctx context.Context, id uint) ([]dto.PriceHistoryResponse, error)
}

type productService struct {
	repo    repository.ProductRepository
	history repository.PriceHistoryRepository
	ledger  StockLedger
	cache   *ProductCache
}

func NewProductService(
	repo repository.ProductRepository,
	history repository.PriceHistoryRepository,
	ledger StockLedger,
	cache *ProductCache,
) ProductService {
	return &productService{repo: repo, history: history, ledger: ledger, cache: cache}
}

func (s *productService) Create(ctx context.Context, req dto.CreateProductRequest) (*dto.ProductResponse, error) {
	code := strings.TrimSpace(req.Code)
	if _, err := s.repo.FindByCode(ctx, code); err == nil {
		return nil, ErrDuplicateCode
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if req.Price.IsNegative() {
		return nil, newValidation("price", "price must not be negative")
	}

	p := &model.Product{
		Code:        code,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Category:    req.Category,
		Price:       req.Price.Round(2),
		Active:      true,
	}
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		if err := s.repo.CreateTx(tx, p); err != nil {
			return err
		}
		if req.InitialStock > 0 {
			m, err := s.ledger.ApplyDelta(ctx, tx, p.ID, req.InitialStock, "Initial stock")
			if err != nil {
				return err
			}
			p.Stock = m.StockAfter
		}
		return nil
	})
	if err != nil {
		return nil, classifyTxError(err)
	}

	log.Info().Uint("product_id", p.ID).Str("code", p.Code).Int("stock", p.Stock).Msg("product created")
	resp := ProductToResponse(p)
	return &resp, nil
}

func (s *productService) Get(ctx context.Context, id uint) (*dto.ProductResponse, error) {
	p, err := s.cache.Get(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	resp := ProductToResponse(p)
	return &resp, nil
}

func (s *productService) Search(ctx context.Context, term string) ([]dto.ProductResponse, error) {
	products, err := s.repo.Search(ctx, term, 10)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, ProductToResponse(&products[i]))
	}
	return out, nil
}

// UpdatePrice changes the catalog price for future invoices. Issued invoice
// lines keep the price they were sold at.
func (s *productService) UpdatePrice(ctx context.Context, id uint, req dto.UpdatePriceRequest) (*dto.ProductResponse, error) {
	if req.Price.IsNegative() {
		return nil, newValidation("price", "price must not be negative")
	}
	price := req.Price.Round(2)
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultPriceChangeReason
	}

	var updated *model.Product
	err := runTx(ctx, s.repo.DB(), func(tx *gorm.DB) error {
		p, err := s.repo.FindByIDForUpdateTx(tx, id)
		if err != nil {
			return err
		}
		if p.Price.Equal(price) {
			updated = p
			return nil
		}
		if err := s.repo.UpdatePriceTx(tx, id, price); err != nil {
			return err
		}
		if err := s.history.CreateTx(tx, &model.PriceHistory{
			ProductID:   id,
			PriceBefore: p.Price,
			PriceAfter:  price,
			Reason:      reason,
		}); err != nil {
			return err
		}
		p.Price = price
		updated = p
		return nil
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update price: %w", err)
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), id)
	resp := ProductToResponse(updated)
	return &resp, nil
}

// SetActive soft-deletes or restores a product. Inactive products stay
// visible on historical invoices but cannot be sold.
func (s *productService) SetActive(ctx context.Context, id uint, active bool) error {
	err := s.repo.SetActive(ctx, id, active)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrProductNotFound
	}
	if err != nil {
		return err
	}
	s.cache.Invalidate(context.WithoutCancel(ctx), id)
	return nil
}

func (s *productService) PriceHistory(ctx context.Context, id uint) ([]dto.PriceHistoryResponse, error) {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	rows, err := s.history.ListByProduct(ctx, id, 0)
	if err != nil {
		return nil, err
	}
	out := make([]dto.PriceHistoryResponse, 0, len(rows))
	for _, h := range rows {
		out = append(out, dto.PriceHistoryResponse{
			PriceBefore: h.PriceBefore,
			PriceAfter:  h.PriceAfter,
			Reason:      h.Reason,
			CreatedAt:   h.CreatedAt,
		})
	}
	return out, nil
}

package service

import (
	"context"
	"errors"
	"strings"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// MovementService registers manual stock corrections and lists the audit
// trail of a product.
type MovementService interface {
	Register(ctx context.Context, req dto.RegisterMovementRequest) (*dto.MovementResponse, error)
	History(ctx context.Context, productID uint, filter dto.MovementFilter) (*dto.MovementListResponse, error)
}

type movementService struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	ledger    StockLedger
	cache     *ProductCache
}

func NewMovementService(
	products repository.ProductRepository,
	movements repository.MovementRepository,
	ledger StockLedger,
	cache *ProductCache,
) MovementService {
	return &movementService{products: products, movements: movements, ledger: ledger, cache: cache}
}

// Register applies a manual Entry or Exit in its own unit of work. An Exit
// that would take stock below zero fails with *InsufficientStockError.
func (s *movementService) Register(ctx context.Context, req dto.RegisterMovementRequest) (*dto.MovementResponse, error) {
	var delta int
	switch strings.ToLower(req.Type) {
	case "entry":
		delta = req.Quantity
	case "exit":
		delta = -req.Quantity
	default:
		return nil, newValidation("type", "type must be entry or exit")
	}
	if req.Quantity <= 0 {
		return nil, newValidation("quantity", "quantity must be at least 1")
	}

	observation := strings.TrimSpace(req.Observation)
	if observation == "" {
		observation = "Manual adjustment"
	}

	var movement *model.Movement
	err := runTx(ctx, s.products.DB(), func(tx *gorm.DB) error {
		m, err := s.ledger.ApplyDelta(ctx, tx, req.ProductID, delta, observation)
		if err != nil {
			return err
		}
		movement = m
		return nil
	})
	if err != nil {
		return nil, classifyTxError(err)
	}

	s.cache.Invalidate(context.WithoutCancel(ctx), req.ProductID)
	log.Info().
		Uint("product_id", req.ProductID).
		Str("type", string(movement.Type)).
		Int("quantity", movement.Quantity).
		Int("stock_after", movement.StockAfter).
		Msg("manual movement registered")

	resp := MovementToResponse(movement)
	return &resp, nil
}

func (s *movementService) History(ctx context.Context, productID uint, filter dto.MovementFilter) (*dto.MovementListResponse, error) {
	if _, err := s.products.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}
	rows, total, err := s.movements.List(ctx, repository.MovementFilter{
		ProductID: &productID,
		Page:      filter.Page,
		Limit:     filter.Limit,
	})
	if err != nil {
		return nil, err
	}
	resp := &dto.MovementListResponse{
		Data:  make([]dto.MovementResponse, 0, len(rows)),
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}
	for i := range rows {
		resp.Data = append(resp.Data, MovementToResponse(&rows[i]))
	}
	return resp, nil
}

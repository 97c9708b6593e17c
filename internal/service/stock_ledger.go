package service

import (
	"context"
	"errors"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

const maxObservationLen = 255

// StockLedger is the only writer of Product.Stock. Every change it applies is
// paired with exactly one Movement, and both writes ride on the caller's
// transaction.
type StockLedger interface {
	ApplyDelta(ctx context.Context, tx *gorm.DB, productID uint, signedQty int, observation string) (*model.Movement, error)
}

type stockLedger struct {
	products  repository.ProductRepository
	movements repository.MovementRepository
	now       func() time.Time
}

func NewStockLedger(products repository.ProductRepository, movements repository.MovementRepository) StockLedger {
	return &stockLedger{products: products, movements: movements, now: time.Now}
}

func (l *stockLedger) ApplyDelta(ctx context.Context, tx *gorm.DB, productID uint, signedQty int, observation string) (*model.Movement, error) {
	if signedQty == 0 {
		return nil, newValidation("quantity", "quantity must be non-zero")
	}

	_, span := tracer.Start(ctx, "StockLedger.ApplyDelta", trace.WithAttributes(
		attribute.Int64("product.id", int64(productID)),
		attribute.Int("stock.delta", signedQty),
	))
	defer span.End()

	product, err := l.products.FindByIDForUpdateTx(tx, productID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, newValidation("product_id", ErrProductNotFound.Error())
	}
	if err != nil {
		return nil, err
	}

	// The guarded update is what actually enforces stock >= 0 when another
	// transaction got to the row first.
	applied, err := l.products.AdjustStockTx(tx, productID, signedQty)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, &InsufficientStockError{
			ProductID:   product.ID,
			ProductName: product.Name,
			Available:   product.Stock,
			Requested:   -signedQty,
		}
	}

	movement := &model.Movement{
		ProductID:   productID,
		Type:        model.MovementEntry,
		Quantity:    signedQty,
		StockBefore: product.Stock,
		StockAfter:  product.Stock + signedQty,
		Date:        l.now(),
		Observation: truncate(observation, maxObservationLen),
	}
	if signedQty < 0 {
		movement.Type = model.MovementExit
		movement.Quantity = -signedQty
	}
	if err := l.movements.CreateTx(tx, movement); err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int("stock.after", movement.StockAfter))
	return movement, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

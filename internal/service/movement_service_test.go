package service

import (
	"context"
	"testing"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMovementService_RegisterAndHistory(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	p := f.seedProduct(t, "A", "1.00", 3)
	svc := NewMovementService(f.products, f.movements, f.ledger, nil)

	entry, err := svc.Register(ctx, dto.RegisterMovementRequest{ProductID: p.ID, Type: "entry", Quantity: 10, Observation: "supplier delivery"})
	require.NoError(t, err)
	assert.Equal(t, "Entry", entry.Type)
	assert.Equal(t, 13, entry.StockAfter)

	exit, err := svc.Register(ctx, dto.RegisterMovementRequest{ProductID: p.ID, Type: "exit", Quantity: 4})
	require.NoError(t, err)
	assert.Equal(t, "Exit", exit.Type)
	assert.Equal(t, "Manual adjustment", exit.Observation)
	assert.Equal(t, 9, f.stockOf(t, p.ID))

	history, err := svc.History(ctx, p.ID, dto.MovementFilter{Page: 1, Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, int64(2), history.Total)
	require.Len(t, history.Data, 2)
	assert.Equal(t, exit.ID, history.Data[0].ID, "newest first")
}

func TestMovementService_ExitBeyondStock(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "A", "1.00", 3)
	svc := NewMovementService(f.products, f.movements, f.ledger, nil)

	_, err := svc.Register(context.Background(), dto.RegisterMovementRequest{ProductID: p.ID, Type: "exit", Quantity: 4})
	var sErr *InsufficientStockError
	require.ErrorAs(t, err, &sErr)
	assert.Equal(t, 3, f.stockOf(t, p.ID))
}

func TestMovementService_RejectsBadInput(t *testing.T) {
	f := newFixture(t)
	p := f.seedProduct(t, "A", "1.00", 3)
	svc := NewMovementService(f.products, f.movements, f.ledger, nil)
	ctx := context.Background()

	_, err := svc.Register(ctx, dto.RegisterMovementRequest{ProductID: p.ID, Type: "transfer", Quantity: 1})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Register(ctx, dto.RegisterMovementRequest{ProductID: p.ID, Type: "entry", Quantity: 0})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.History(ctx, 404, dto.MovementFilter{Page: 1, Limit: 10})
	assert.ErrorIs(t, err, ErrProductNotFound)
}

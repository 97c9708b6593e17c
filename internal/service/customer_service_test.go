package service

import (
	"context"
	"testing"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_Lifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewCustomerService(repository.NewCustomerRepository(f.db), f.invoices)

	created, err := svc.Create(ctx, dto.CreateCustomerRequest{FullName: "Luis Mora", Identification: "3-0303-0303"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, dto.CreateCustomerRequest{FullName: "Other", Identification: "3-0303-0303"})
	assert.ErrorIs(t, err, ErrDuplicateIdentification)

	found, err := svc.Search(ctx, "mora")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, created.ID, found[0].ID)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, ErrCustomerNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, created.ID), ErrCustomerNotFound)
}

func TestCustomerService_DeleteRefusedWhileInvoiced(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	customer := f.seedCustomer(t)
	p := f.seedProduct(t, "A", "1.00", 5)
	_, err := f.invoiceService(nil, nil, nil).CreateInvoice(ctx, invoiceReq(customer.ID, line(p.ID, 1)))
	require.NoError(t, err)

	svc := NewCustomerService(repository.NewCustomerRepository(f.db), f.invoices)
	assert.ErrorIs(t, svc.Delete(ctx, customer.ID), ErrCustomerInUse)
}

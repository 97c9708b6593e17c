package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/go-redis/redismock/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func cachedProduct() *model.Product {
	return &model.Product{ID: 7, Code: "NB-1", Name: "Notebook", Price: decimal.RequireFromString("10.00"), Stock: 3, Active: true}
}

func TestProductCache_MissLoadsAndStores(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	loads := 0
	cache := NewProductCache(rdb, func(context.Context, uint) (*model.Product, error) {
		loads++
		return cachedProduct(), nil
	}, time.Minute)

	payload, err := json.Marshal(cachedProduct())
	require.NoError(t, err)
	mock.ExpectGet("product:7").RedisNil()
	mock.ExpectSet("product:7", payload, time.Minute).SetVal("OK")

	p, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Notebook", p.Name)
	assert.Equal(t, 1, loads)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCache_HitSkipsLoader(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewProductCache(rdb, func(context.Context, uint) (*model.Product, error) {
		return nil, errors.New("loader must not be called")
	}, time.Minute)

	payload, err := json.Marshal(cachedProduct())
	require.NoError(t, err)
	mock.ExpectGet("product:7").SetVal(string(payload))

	p, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, 3, p.Stock)
	assert.Equal(t, "10.00", p.Price.StringFixed(2))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductCache_RedisErrorFallsBackToLoader(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewProductCache(rdb, func(context.Context, uint) (*model.Product, error) {
		return cachedProduct(), nil
	}, time.Minute)

	payload, err := json.Marshal(cachedProduct())
	require.NoError(t, err)
	mock.ExpectGet("product:7").SetErr(errors.New("connection refused"))
	mock.ExpectSet("product:7", payload, time.Minute).SetErr(errors.New("connection refused"))

	p, err := cache.Get(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, uint(7), p.ID)
}

func TestProductCache_Invalidate(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	cache := NewProductCache(rdb, nil, time.Minute)

	mock.ExpectDel("product:1", "product:2").SetVal(2)
	cache.Invalidate(context.Background(), 1, 2)
	assert.NoError(t, mock.ExpectationsWereMet())

	var nilCache *ProductCache
	assert.NotPanics(t, func() { nilCache.Invalidate(context.Background(), 1) })
}

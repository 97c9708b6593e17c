package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/config"
	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key"

type apiEnv struct {
	engine *gin.Engine
	db     *gorm.DB
	admin  string
	seller string
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_foreign_keys=on", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))

	cfg := &config.Config{
		Env:                    "test",
		JWTSecret:              testSecret,
		RateLimitPerMinute:     1000,
		ProductCacheTTLSeconds: 60,
		OTelServiceName:        "facturacion-test",
		PDFStoragePath:         t.TempDir(),
	}
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	now := time.Date(2025, 1, 14, 10, 30, 0, 0, time.UTC)
	env := &apiEnv{
		engine: New(ctx, cfg, Deps{DB: db, Now: func() time.Time { return now }}),
		db:     db,
	}
	env.admin, err = middleware.IssueToken(testSecret, "u-admin", middleware.RoleAdmin, time.Hour)
	require.NoError(t, err)
	env.seller, err = middleware.IssueToken(testSecret, "u-seller", middleware.RoleSeller, time.Hour)
	require.NoError(t, err)
	return env
}

func (e *apiEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decodeInto(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func (e *apiEnv) createProduct(t *testing.T, code, price string, stock int) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/products", e.admin, map[string]any{
		"code": code, "name": "Product " + code, "price": price, "initial_stock": stock,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID uint `json:"id"`
	}
	decodeInto(t, w, &out)
	return out.ID
}

func (e *apiEnv) createCustomer(t *testing.T) uint {
	t.Helper()
	w := e.do(t, http.MethodPost, "/v1/customers", e.seller, map[string]any{
		"full_name": "Ana Torres", "identification": "1-1111-1111",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var out struct {
		ID uint `json:"id"`
	}
	decodeInto(t, w, &out)
	return out.ID
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestHealth_WithoutRedis(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(t, http.MethodGet, "/health", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var body map[string]any
	decodeInto(t, w, &body)
	assert.Equal(t, "connected", body["db"])
	assert.Equal(t, "disabled", body["redis"])
	assert.Equal(t, "disabled", body["events"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestAuthAndRoles(t *testing.T) {
	env := newAPIEnv(t)

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodGet, "/v1/invoices", "", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/v1/invoices", env.seller, nil).Code)

	w := env.do(t, http.MethodPost, "/v1/products", env.seller, map[string]any{"code": "X", "name": "X", "price": "1.00"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = env.do(t, http.MethodPost, "/v1/movements", env.seller, map[string]any{"product_id": 1, "type": "entry", "quantity": 1})
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestInvoiceLifecycle(t *testing.T) {
	env := newAPIEnv(t)
	p1 := env.createProduct(t, "P-1", "10.00", 10)
	p2 := env.createProduct(t, "P-2", "2.50", 4)
	customer := env.createCustomer(t)

	w := env.do(t, http.MethodPost, "/v1/invoices", env.seller, map[string]any{
		"customer_id":   customer,
		"payment_terms": "Net 30",
		"lines": []map[string]any{
			{"product_id": p1, "quantity": 2},
			{"product_id": p2, "quantity": 2},
		},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created struct {
		ID       uint   `json:"id"`
		Number   string `json:"number"`
		Subtotal string `json:"subtotal"`
		Tax      string `json:"tax"`
		Total    string `json:"total"`
	}
	decodeInto(t, w, &created)
	assert.Equal(t, "F-20250114-000001", created.Number)
	assert.Equal(t, "25", created.Subtotal)
	assert.Equal(t, "3.25", created.Tax)
	assert.Equal(t, "28.25", created.Total)

	// Detail view joins product and customer data.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/invoices/%d", created.ID), env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Customer struct {
			FullName string `json:"full_name"`
		} `json:"customer"`
		Lines []struct {
			ProductCode string `json:"product_code"`
			Position    int    `json:"position"`
		} `json:"lines"`
	}
	decodeInto(t, w, &detail)
	assert.Equal(t, "Ana Torres", detail.Customer.FullName)
	require.Len(t, detail.Lines, 2)
	assert.Equal(t, "P-1", detail.Lines[0].ProductCode)
	assert.Equal(t, 2, detail.Lines[1].Position)

	// Stock went down and the exit is in the product history.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/products/%d", p2), env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var prod struct {
		Stock int `json:"stock"`
	}
	decodeInto(t, w, &prod)
	assert.Equal(t, 2, prod.Stock)

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/products/%d/movements", p2), env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var moves struct {
		Total int64 `json:"total"`
		Data  []struct {
			Type        string `json:"type"`
			Observation string `json:"observation"`
		} `json:"data"`
	}
	decodeInto(t, w, &moves)
	assert.EqualValues(t, 2, moves.Total)
	var sawExit bool
	for _, m := range moves.Data {
		if m.Type == "Exit" {
			sawExit = true
			assert.Contains(t, m.Observation, created.Number)
		}
	}
	assert.True(t, sawExit)

	// Nothing renders without Redis, so the document is still pending.
	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/invoices/%d/pdf", created.ID), env.seller, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	// The customer is now referenced and cannot be removed.
	w = env.do(t, http.MethodDelete, fmt.Sprintf("/v1/customers/%d", customer), env.admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = env.do(t, http.MethodGet, "/v1/invoices?q=Ana", env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var list struct {
		Total int64 `json:"total"`
	}
	decodeInto(t, w, &list)
	assert.EqualValues(t, 1, list.Total)
}

func TestCreateInvoice_Rejections(t *testing.T) {
	env := newAPIEnv(t)
	p := env.createProduct(t, "P-1", "10.00", 1)
	customer := env.createCustomer(t)

	w := env.do(t, http.MethodPost, "/v1/invoices", env.seller, map[string]any{
		"customer_id": customer, "payment_terms": "Cash",
		"lines": []map[string]any{{"product_id": p, "quantity": 2}},
	})
	require.Equal(t, http.StatusConflict, w.Code, w.Body.String())
	var stockErr struct {
		ProductID uint `json:"product_id"`
		Available int  `json:"available"`
		Requested int  `json:"requested"`
	}
	decodeInto(t, w, &stockErr)
	assert.Equal(t, p, stockErr.ProductID)
	assert.Equal(t, 1, stockErr.Available)
	assert.Equal(t, 2, stockErr.Requested)

	w = env.do(t, http.MethodPost, "/v1/invoices", env.seller, map[string]any{
		"customer_id": customer, "payment_terms": "Cash", "lines": []any{},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodPost, "/v1/invoices", env.seller, map[string]any{
		"customer_id": 999, "payment_terms": "Cash",
		"lines": []map[string]any{{"product_id": p, "quantity": 1}},
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var invoices int64
	require.NoError(t, env.db.Table("invoices").Count(&invoices).Error)
	assert.Zero(t, invoices)
}

func TestProductAdministration(t *testing.T) {
	env := newAPIEnv(t)
	p := env.createProduct(t, "P-1", "10.00", 3)

	w := env.do(t, http.MethodPatch, fmt.Sprintf("/v1/products/%d/price", p), env.admin, map[string]any{"price": "12.00", "reason": "supplier increase"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = env.do(t, http.MethodGet, fmt.Sprintf("/v1/products/%d/price-history", p), env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var history []map[string]any
	decodeInto(t, w, &history)
	assert.Len(t, history, 1)

	w = env.do(t, http.MethodPost, "/v1/movements", env.admin, map[string]any{"product_id": p, "type": "exit", "quantity": 5})
	assert.Equal(t, http.StatusConflict, w.Code)
	w = env.do(t, http.MethodPost, "/v1/movements", env.admin, map[string]any{"product_id": p, "type": "entry", "quantity": 5})
	assert.Equal(t, http.StatusCreated, w.Code)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodDelete, fmt.Sprintf("/v1/products/%d", p), env.admin, nil).Code)
	w = env.do(t, http.MethodGet, "/v1/products?q=P-1", env.seller, nil)
	require.Equal(t, http.StatusOK, w.Code)
	var found []map[string]any
	decodeInto(t, w, &found)
	assert.Empty(t, found)

	assert.Equal(t, http.StatusNoContent, env.do(t, http.MethodPatch, fmt.Sprintf("/v1/products/%d/reactivate", p), env.admin, nil).Code)
}

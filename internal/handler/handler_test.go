package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() { gin.SetMode(gin.TestMode) }

// ── Stubs ─────────────────────────────────────────────────────────────────────

type stubInvoiceService struct {
	createFn func(req dto.CreateInvoiceRequest) (*model.Invoice, error)
	doc      *model.InvoiceDocument
	docErr   error
	calls    int
}

func (s *stubInvoiceService) CreateInvoice(_ context.Context, req dto.CreateInvoiceRequest) (*model.Invoice, error) {
	s.calls++
	return s.createFn(req)
}

func (s *stubInvoiceService) GetInvoice(_ context.Context, id uint) (*model.InvoiceView, error) {
	return nil, service.ErrInvoiceNotFound
}

func (s *stubInvoiceService) ListInvoices(_ context.Context, f dto.InvoiceFilter) (*dto.InvoiceListResponse, error) {
	return &dto.InvoiceListResponse{Data: []dto.InvoiceListItem{}, Page: f.Page, Limit: f.Limit}, nil
}

func (s *stubInvoiceService) GetDocument(_ context.Context, _ uint) (*model.InvoiceDocument, error) {
	return s.doc, s.docErr
}

type stubCustomerService struct {
	known map[uint]bool
}

func (s *stubCustomerService) Create(context.Context, dto.CreateCustomerRequest) (*dto.CustomerResponse, error) {
	return nil, service.ErrDuplicateIdentification
}

func (s *stubCustomerService) Get(_ context.Context, id uint) (*dto.CustomerResponse, error) {
	if !s.known[id] {
		return nil, service.ErrCustomerNotFound
	}
	return &dto.CustomerResponse{ID: id, FullName: "Ana Torres"}, nil
}

func (s *stubCustomerService) Search(context.Context, string) ([]dto.CustomerResponse, error) {
	return []dto.CustomerResponse{}, nil
}

func (s *stubCustomerService) Delete(context.Context, uint) error { return service.ErrCustomerInUse }

var (
	_ service.InvoiceService  = (*stubInvoiceService)(nil)
	_ service.CustomerService = (*stubCustomerService)(nil)
)

// ── Helpers ──────────────────────────────────────────────────────────────────

func invoiceRouter(svc service.InvoiceService, pdfDir string) *gin.Engine {
	h := NewInvoicesHandler(svc, &stubCustomerService{known: map[uint]bool{1: true}}, pdfDir)
	r := gin.New()
	r.POST("/invoices", h.Create)
	r.GET("/invoices", h.List)
	r.GET("/invoices/:id", h.Get)
	r.GET("/invoices/:id/pdf", h.DownloadPDF)
	return r
}

func doJSON(r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if s, ok := body.(string); ok {
		buf.WriteString(s)
	} else if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

var validInvoice = dto.CreateInvoiceRequest{
	CustomerID:   1,
	PaymentTerms: "Cash",
	Lines:        []dto.InvoiceLineRequest{{ProductID: 7, Quantity: 2}},
}

// ── Tests ────────────────────────────────────────────────────────────────────

func TestCreateInvoice_Created(t *testing.T) {
	svc := &stubInvoiceService{createFn: func(req dto.CreateInvoiceRequest) (*model.Invoice, error) {
		return &model.Invoice{
			ID:           1,
			Number:       "F-20250114-000001",
			CustomerID:   req.CustomerID,
			PaymentTerms: req.PaymentTerms,
			Subtotal:     decimal.RequireFromString("25.00"),
			Tax:          decimal.RequireFromString("3.25"),
			Total:        decimal.RequireFromString("28.25"),
			Lines: []model.InvoiceDetail{
				{Position: 1, ProductID: 7, Quantity: 2, UnitPrice: decimal.RequireFromString("12.50"), Subtotal: decimal.RequireFromString("25.00")},
			},
		}, nil
	}}

	w := doJSON(invoiceRouter(svc, t.TempDir()), http.MethodPost, "/invoices", validInvoice)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "F-20250114-000001", body["number"])
	assert.Equal(t, "28.25", body["total"])
	assert.Len(t, body["lines"], 1)
}

func TestCreateInvoice_UnknownCustomer(t *testing.T) {
	svc := &stubInvoiceService{}
	req := validInvoice
	req.CustomerID = 99

	w := doJSON(invoiceRouter(svc, t.TempDir()), http.MethodPost, "/invoices", req)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "customer not found", fields["customer_id"])
	assert.Zero(t, svc.calls)
}

func TestCreateInvoice_BindingErrors(t *testing.T) {
	svc := &stubInvoiceService{}
	r := invoiceRouter(svc, t.TempDir())

	w := doJSON(r, http.MethodPost, "/invoices", "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/invoices", map[string]any{"payment_terms": "Cash"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	fields := decode(t, w)["fields"].(map[string]any)
	assert.Equal(t, "required", fields["customer_id"])
	assert.Zero(t, svc.calls)
}

func TestCreateInvoice_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		check  func(t *testing.T, w *httptest.ResponseRecorder)
	}{
		{
			name:   "validation",
			err:    &service.ValidationError{Field: "lines[0].quantity", Detail: "quantity must be at least 1"},
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				fields := decode(t, w)["fields"].(map[string]any)
				assert.Equal(t, "quantity must be at least 1", fields["lines[0].quantity"])
			},
		},
		{
			name:   "insufficient stock",
			err:    &service.InsufficientStockError{ProductID: 7, ProductName: "Mouse", Available: 1, Requested: 2},
			status: http.StatusConflict,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				body := decode(t, w)
				assert.EqualValues(t, 7, body["product_id"])
				assert.EqualValues(t, 1, body["available"])
				assert.EqualValues(t, 2, body["requested"])
			},
		},
		{
			name:   "transaction failure",
			err:    &service.TransactionFailure{Err: errors.New("pq: connection reset")},
			status: http.StatusServiceUnavailable,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.Equal(t, "1", w.Header().Get("Retry-After"))
				assert.NotContains(t, w.Body.String(), "connection reset")
			},
		},
		{
			name:   "unexpected",
			err:    errors.New("boom"),
			status: http.StatusInternalServerError,
			check: func(t *testing.T, w *httptest.ResponseRecorder) {
				assert.NotContains(t, w.Body.String(), "boom")
			},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubInvoiceService{createFn: func(dto.CreateInvoiceRequest) (*model.Invoice, error) {
				return nil, tc.err
			}}
			w := doJSON(invoiceRouter(svc, t.TempDir()), http.MethodPost, "/invoices", validInvoice)
			require.Equal(t, tc.status, w.Code)
			tc.check(t, w)
		})
	}
}

func TestListInvoices_QueryValidation(t *testing.T) {
	r := invoiceRouter(&stubInvoiceService{}, t.TempDir())

	w := doJSON(r, http.MethodGet, "/invoices?limit=500", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodGet, "/invoices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.EqualValues(t, 1, body["page"])
	assert.EqualValues(t, 50, body["limit"])
}

func TestGetInvoice_NotFoundAndBadID(t *testing.T) {
	r := invoiceRouter(&stubInvoiceService{}, t.TempDir())

	assert.Equal(t, http.StatusNotFound, doJSON(r, http.MethodGet, "/invoices/5", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/invoices/abc", nil).Code)
	assert.Equal(t, http.StatusBadRequest, doJSON(r, http.MethodGet, "/invoices/0", nil).Code)
}

func TestDownloadPDF(t *testing.T) {
	dir := t.TempDir()
	name := "F-20250114-000001.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF-1.3"), 0o644))

	now := time.Now()
	svc := &stubInvoiceService{doc: &model.InvoiceDocument{InvoiceID: 1, Status: model.DocumentRendered, PDFPath: &name, UpdatedAt: now}}
	w := doJSON(invoiceRouter(svc, dir), http.MethodGet, "/invoices/1/pdf", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), name)
	assert.Equal(t, "%PDF-1.3", w.Body.String())

	svc = &stubInvoiceService{docErr: service.ErrDocumentNotReady}
	w = doJSON(invoiceRouter(svc, dir), http.MethodGet, "/invoices/1/pdf", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCustomers_DeleteInUse(t *testing.T) {
	h := NewCustomersHandler(&stubCustomerService{})
	r := gin.New()
	r.DELETE("/customers/:id", h.Delete)
	r.POST("/customers", h.Create)

	assert.Equal(t, http.StatusConflict, doJSON(r, http.MethodDelete, "/customers/3", nil).Code)

	w := doJSON(r, http.MethodPost, "/customers", map[string]any{"full_name": "Ana", "identification": "1", "email": "not-an-email"})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, "email", decode(t, w)["fields"].(map[string]any)["email"])

	w = doJSON(r, http.MethodPost, "/customers", map[string]any{"full_name": "Ana", "identification": "1"})
	assert.Equal(t, http.StatusConflict, w.Code)
}

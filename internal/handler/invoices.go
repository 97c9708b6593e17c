package handler

import (
	"errors"
	"net/http"
	"path/filepath"

	"github.com/CJosueA/Sistema-Facturacion/internal/apierror"
	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/service"

	"github.com/gin-gonic/gin"
)

type InvoicesHandler struct {
	svc            service.InvoiceService
	customers      service.CustomerService
	pdfStoragePath string
}

func NewInvoicesHandler(svc service.InvoiceService, customers service.CustomerService, pdfStoragePath string) *InvoicesHandler {
	return &InvoicesHandler{svc: svc, customers: customers, pdfStoragePath: pdfStoragePath}
}

// Create godoc
// @Summary      Issue an invoice
// @Description  Validates the lines, decrements stock and stores the invoice in a single transaction.
// @Description  Unit prices always come from the catalog. Tax is 13% of the subtotal.
// @Tags         invoices
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body body dto.CreateInvoiceRequest true "Invoice request"
// @Success      201  {object} dto.InvoiceResponse
// @Failure      422  {object} apierror.ValidationError
// @Failure      409  {object} apierror.StockError
// @Failure      503  {object} apierror.APIError
// @Router       /v1/invoices [post]
func (h *InvoicesHandler) Create(c *gin.Context) {
	var req dto.CreateInvoiceRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if _, err := h.customers.Get(c.Request.Context(), req.CustomerID); err != nil {
		if errors.Is(err, service.ErrCustomerNotFound) {
			c.JSON(http.StatusUnprocessableEntity, apierror.NewValidation(map[string]string{"customer_id": "customer not found"}))
			return
		}
		respondError(c, err)
		return
	}

	inv, err := h.svc.CreateInvoice(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, service.InvoiceToResponse(inv))
}

// List godoc
// @Summary      List invoices
// @Description  Paginated list, newest first. q matches the invoice number or the customer name.
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        q     query string false "Search term"
// @Param        page  query int    false "Page"  default(1)
// @Param        limit query int    false "Limit" default(50)
// @Success      200 {object} dto.InvoiceListResponse
// @Router       /v1/invoices [get]
func (h *InvoicesHandler) List(c *gin.Context) {
	var filter dto.InvoiceFilter
	if !bindQuery(c, &filter) {
		return
	}
	resp, err := h.svc.ListInvoices(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// Get godoc
// @Summary      Invoice details
// @Tags         invoices
// @Produce      json
// @Security     BearerAuth
// @Param        id  path int true "Invoice ID"
// @Success      200 {object} dto.InvoiceDetailResponse
// @Failure      404 {object} apierror.APIError
// @Router       /v1/invoices/{id} [get]
func (h *InvoicesHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	view, err := h.svc.GetInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, service.InvoiceViewToResponse(view))
}

// DownloadPDF godoc
// @Summary      Download the invoice PDF
// @Tags         invoices
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id  path int true "Invoice ID"
// @Success      200
// @Failure      404 {object} apierror.APIError
// @Failure      409 {object} apierror.APIError "Still being rendered"
// @Router       /v1/invoices/{id}/pdf [get]
func (h *InvoicesHandler) DownloadPDF(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	doc, err := h.svc.GetDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	name := filepath.Base(*doc.PDFPath)
	c.FileAttachment(filepath.Join(h.pdfStoragePath, name), name)
}

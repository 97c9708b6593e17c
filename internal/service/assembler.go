package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/dto"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/shopspring/decimal"
)

// TaxRate is the single VAT rate applied to every invoice.
var TaxRate = decimal.New(13, -2)

const maxPaymentTermsLen = 50

// ComputeTax applies TaxRate to subtotal, rounding half away from zero to cents.
func ComputeTax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(TaxRate).Round(2)
}

// NumberSource hands out invoice sequence values. Values are unique but may
// have gaps when a unit of work rolls back after drawing one.
type NumberSource interface {
	Next(ctx context.Context) (int64, error)
}

type NumberSourceFunc func(ctx context.Context) (int64, error)

func (f NumberSourceFunc) Next(ctx context.Context) (int64, error) { return f(ctx) }

// FormatInvoiceNumber renders the public invoice number, e.g. F-20250114-000042.
func FormatInvoiceNumber(issuedAt time.Time, seq int64) string {
	return fmt.Sprintf("F-%s-%06d", issuedAt.Format("20060102"), seq)
}

// Assembler turns a request into an unsaved invoice. It reads the catalog but
// writes nothing, so it can be exercised without a database.
type Assembler struct {
	now func() time.Time
}

func NewAssembler(now func() time.Time) *Assembler {
	if now == nil {
		now = time.Now
	}
	return &Assembler{now: now}
}

// Build validates req, snapshots catalog prices onto the lines and computes
// totals. Lines keep the order they were requested in.
func (a *Assembler) Build(ctx context.Context, catalog CatalogReader, numbers NumberSource, req dto.CreateInvoiceRequest) (*model.Invoice, error) {
	if len(req.Lines) == 0 {
		return nil, newValidation("lines", "no line items")
	}
	terms := strings.TrimSpace(req.PaymentTerms)
	if terms == "" {
		return nil, newValidation("payment_terms", "payment terms are required")
	}
	if len([]rune(terms)) > maxPaymentTermsLen {
		return nil, newValidation("payment_terms", fmt.Sprintf("payment terms exceed %d characters", maxPaymentTermsLen))
	}

	requested := make(map[uint]int, len(req.Lines))
	for i, line := range req.Lines {
		if line.Quantity <= 0 {
			return nil, newValidation(fmt.Sprintf("lines[%d].quantity", i), "quantity must be at least 1")
		}
		if line.ProductID == 0 {
			return nil, newValidation(fmt.Sprintf("lines[%d].product_id", i), "product id is required")
		}
		requested[line.ProductID] += line.Quantity
	}

	issuedAt := a.now()
	if req.DueDate != nil && req.DueDate.Before(startOfDay(issuedAt)) {
		return nil, newValidation("due_date", "due date is before the issue date")
	}

	// Ascending id order keeps row locks in a stable order across concurrent units of work.
	ids := make([]uint, 0, len(requested))
	for id := range requested {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	products := make(map[uint]*model.Product, len(ids))
	for _, id := range ids {
		p, err := catalog.Resolve(ctx, id)
		if errors.Is(err, ErrProductNotFound) {
			return nil, newValidation(lineField(req.Lines, id, "product_id"), fmt.Sprintf("product %d not found", id))
		}
		if err != nil {
			return nil, err
		}
		if requested[id] > p.Stock {
			return nil, &InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Available:   p.Stock,
				Requested:   requested[id],
			}
		}
		products[id] = p
	}

	inv := &model.Invoice{
		IssuedAt:     issuedAt,
		CustomerID:   req.CustomerID,
		PaymentTerms: terms,
		DueDate:      req.DueDate,
		Lines:        make([]model.InvoiceDetail, 0, len(req.Lines)),
	}
	subtotal := decimal.Zero
	for i, line := range req.Lines {
		p := products[line.ProductID]
		lineSubtotal := p.Price.Mul(decimal.NewFromInt(int64(line.Quantity)))
		inv.Lines = append(inv.Lines, model.InvoiceDetail{
			Position:  i + 1,
			ProductID: p.ID,
			Quantity:  line.Quantity,
			UnitPrice: p.Price,
			Subtotal:  lineSubtotal,
		})
		subtotal = subtotal.Add(lineSubtotal)
	}
	inv.Subtotal = subtotal
	inv.Tax = ComputeTax(subtotal)
	inv.Total = subtotal.Add(inv.Tax)

	seq, err := numbers.Next(ctx)
	if err != nil {
		return nil, err
	}
	inv.Number = FormatInvoiceNumber(issuedAt, seq)
	return inv, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// lineField names the first line that requested productID.
func lineField(lines []dto.InvoiceLineRequest, productID uint, field string) string {
	for i, l := range lines {
		if l.ProductID == productID {
			return fmt.Sprintf("lines[%d].%s", i, field)
		}
	}
	return "lines"
}

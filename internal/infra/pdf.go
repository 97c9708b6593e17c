package infra

// pdf.go renders an invoice (header, customer, lines, totals) to an A4 PDF
// with go-pdf/fpdf. Files are written as storagePath/invoice_{number}.pdf.

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"

	"github.com/go-pdf/fpdf"
)

// InvoiceFileName is the file name used for an invoice's PDF.
func InvoiceFileName(number string) string {
	return fmt.Sprintf("invoice_%s.pdf", number)
}

// GenerateInvoicePDF writes the PDF for view into storagePath (created if
// needed) and returns the file name relative to storagePath.
func GenerateInvoicePDF(view *model.InvoiceView, storagePath string) (string, error) {
	if err := os.MkdirAll(storagePath, 0o755); err != nil {
		return "", fmt.Errorf("pdf: create storage dir: %w", err)
	}

	inv := view.Invoice
	fileName := InvoiceFileName(inv.Number)

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 30

	// ── Company header ────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 16)
	companyName := "Invoice"
	if view.Company != nil && view.Company.Name != "" {
		companyName = view.Company.Name
	}
	pdf.CellFormat(contentW, 8, tr(companyName), "", 1, "L", false, 0, "")
	if c := view.Company; c != nil {
		pdf.SetFont("Helvetica", "", 9)
		for _, line := range []string{c.Address, c.Phone, c.Email, c.LegalID} {
			if line != "" {
				pdf.CellFormat(contentW, 5, tr(line), "", 1, "L", false, 0, "")
			}
		}
	}
	pdf.Ln(4)

	// ── Invoice info ──────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(contentW/2, 6, tr("Invoice "+inv.Number), "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(contentW/2, 6, "Issued: "+inv.IssuedAt.Format("02/01/2006 15:04"), "", 1, "R", false, 0, "")
	pdf.CellFormat(contentW/2, 5, tr("Payment terms: "+inv.PaymentTerms), "", 0, "L", false, 0, "")
	due := ""
	if inv.DueDate != nil {
		due = "Due: " + inv.DueDate.Format("02/01/2006")
	}
	pdf.CellFormat(contentW/2, 5, due, "", 1, "R", false, 0, "")
	pdf.Ln(3)

	// ── Customer ──────────────────────────────────────────────────────────────
	pdf.SetFont("Helvetica", "B", 9)
	pdf.CellFormat(contentW, 5, "Bill to", "B", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	cust := view.Customer
	pdf.CellFormat(contentW, 5, tr(cust.FullName+" ("+cust.Identification+")"), "", 1, "L", false, 0, "")
	for _, p := range []*string{cust.Address, cust.Phone, cust.Email} {
		if p != nil && *p != "" {
			pdf.CellFormat(contentW, 5, tr(*p), "", 1, "L", false, 0, "")
		}
	}
	pdf.Ln(4)

	// ── Lines ─────────────────────────────────────────────────────────────────
	colCode := contentW * 0.15
	colName := contentW * 0.43
	colQty := contentW * 0.10
	colPrice := contentW * 0.16
	colSub := contentW * 0.16

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(230, 230, 230)
	pdf.CellFormat(colCode, 6, "Code", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colName, 6, "Product", "1", 0, "L", true, 0, "")
	pdf.CellFormat(colQty, 6, "Qty", "1", 0, "C", true, 0, "")
	pdf.CellFormat(colPrice, 6, "Unit price", "1", 0, "R", true, 0, "")
	pdf.CellFormat(colSub, 6, "Subtotal", "1", 1, "R", true, 0, "")

	pdf.SetFont("Helvetica", "", 9)
	for _, l := range view.Lines {
		name := l.ProductName
		if len(name) > 45 {
			name = name[:44] + "..."
		}
		pdf.CellFormat(colCode, 6, tr(l.ProductCode), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colName, 6, tr(name), "1", 0, "L", false, 0, "")
		pdf.CellFormat(colQty, 6, fmt.Sprintf("%d", l.Quantity), "1", 0, "C", false, 0, "")
		pdf.CellFormat(colPrice, 6, l.UnitPrice.StringFixed(2), "1", 0, "R", false, 0, "")
		pdf.CellFormat(colSub, 6, l.Subtotal.StringFixed(2), "1", 1, "R", false, 0, "")
	}
	pdf.Ln(3)

	// ── Totals ────────────────────────────────────────────────────────────────
	labelW := colCode + colName + colQty + colPrice
	pdf.CellFormat(labelW, 6, "Subtotal", "", 0, "R", false, 0, "")
	pdf.CellFormat(colSub, 6, inv.Subtotal.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.CellFormat(labelW, 6, "Tax (13%)", "", 0, "R", false, 0, "")
	pdf.CellFormat(colSub, 6, inv.Tax.StringFixed(2), "", 1, "R", false, 0, "")
	pdf.SetFont("Helvetica", "B", 10)
	pdf.CellFormat(labelW, 7, "TOTAL", "", 0, "R", false, 0, "")
	pdf.CellFormat(colSub, 7, inv.Total.StringFixed(2), "", 1, "R", false, 0, "")

	if err := pdf.OutputFileAndClose(filepath.Join(storagePath, fileName)); err != nil {
		return "", fmt.Errorf("pdf: write file: %w", err)
	}
	return fileName, nil
}

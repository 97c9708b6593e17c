package worker

// render_worker.go
// Processes render jobs from QueueRender: loads the invoice view, writes the
// PDF with fpdf, marks the InvoiceDocument rendered and, when the customer has
// an email address, enqueues the email job.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/infra"
	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"
)

// EmailEnqueuer is the part of the Dispatcher the render worker needs.
type EmailEnqueuer interface {
	EnqueueEmail(ctx context.Context, payload EmailJobPayload) error
}

type RenderWorker struct {
	invoices       repository.InvoiceRepository
	documents      repository.DocumentRepository
	emails         EmailEnqueuer
	pdfStoragePath string
	render         func(view *model.InvoiceView, storagePath string) (string, error)
}

func NewRenderWorker(
	invoices repository.InvoiceRepository,
	documents repository.DocumentRepository,
	emails EmailEnqueuer,
	pdfStoragePath string,
) *RenderWorker {
	return &RenderWorker{
		invoices:       invoices,
		documents:      documents,
		emails:         emails,
		pdfStoragePath: pdfStoragePath,
		render:         infra.GenerateInvoicePDF,
	}
}

// Process renders one invoice. Render failures are recorded on the document
// and left to the retry cron; only jobs that can never succeed return an error.
func (w *RenderWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload RenderJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("render: invalid payload: %w", err)
	}
	if payload.InvoiceID == 0 {
		return errors.New("render: missing invoice_id")
	}

	ctx, span := tracer.Start(ctx, "RenderWorker.Process", trace.WithAttributes(
		attribute.Int64("invoice.id", int64(payload.InvoiceID)),
	))
	defer span.End()

	doc, err := w.documents.FindByInvoiceID(ctx, payload.InvoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		doc = &model.InvoiceDocument{InvoiceID: payload.InvoiceID, Status: model.DocumentPending}
		if err := w.documents.Create(ctx, doc); err != nil {
			return fmt.Errorf("render: create document: %w", err)
		}
	} else if err != nil {
		return fmt.Errorf("render: load document: %w", err)
	}
	if doc.Status == model.DocumentRendered {
		log.Debug().Uint("invoice_id", payload.InvoiceID).Msg("render_worker: already rendered")
		return nil
	}

	view, err := w.invoices.LoadView(ctx, payload.InvoiceID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("render: invoice %d not found", payload.InvoiceID)
	}
	if err != nil {
		w.recordFailure(ctx, doc, err)
		return nil
	}

	fileName, err := w.render(view, w.pdfStoragePath)
	if err != nil {
		w.recordFailure(ctx, doc, err)
		return nil
	}

	doc.Status = model.DocumentRendered
	doc.PDFPath = &fileName
	doc.NextRetryAt = nil
	doc.LastError = nil
	if err := w.documents.Update(ctx, doc); err != nil {
		return fmt.Errorf("render: update document: %w", err)
	}
	log.Info().Str("number", view.Invoice.Number).Str("pdf", fileName).Msg("render_worker: PDF generated")

	if email := view.Customer.Email; email != nil && *email != "" && doc.EmailedAt == nil && w.emails != nil {
		job := EmailJobPayload{
			InvoiceID: payload.InvoiceID,
			ToEmail:   *email,
			Subject:   "Invoice " + view.Invoice.Number,
			Body: fmt.Sprintf("Dear %s,\n\nPlease find attached invoice %s.\nTotal: %s\n",
				view.Customer.FullName, view.Invoice.Number, view.Invoice.Total.StringFixed(2)),
			PDFPath: filepath.Join(w.pdfStoragePath, fileName),
		}
		if err := w.emails.EnqueueEmail(ctx, job); err != nil {
			log.Warn().Err(err).Str("number", view.Invoice.Number).Msg("render_worker: failed to enqueue email")
		}
	}
	return nil
}

// recordFailure keeps the document pending and schedules the next look by
// the retry cron.
func (w *RenderWorker) recordFailure(ctx context.Context, doc *model.InvoiceDocument, cause error) {
	msg := cause.Error()
	next := clock().Add(computeRetryBackoff(doc.RetryCount))
	doc.LastError = &msg
	doc.NextRetryAt = &next
	if err := w.documents.Update(ctx, doc); err != nil {
		log.Error().Err(err).Uint("invoice_id", doc.InvoiceID).Msg("render_worker: failed to record failure")
	}
	log.Warn().
		Err(cause).
		Uint("invoice_id", doc.InvoiceID).
		Int("retry_count", doc.RetryCount).
		Time("next_retry_at", next).
		Msg("render_worker: render failed, retry scheduled")
}

// computeRetryBackoff returns 30s, 1m, 2m, 4m … capped at 10m.
func computeRetryBackoff(retryCount int) time.Duration {
	const maxBackoff = 10 * time.Minute
	if retryCount < 0 {
		retryCount = 0
	}
	if retryCount > 5 {
		return maxBackoff
	}
	d := 30 * time.Second << uint(retryCount)
	if d > maxBackoff {
		return maxBackoff
	}
	return d
}

package worker

// email_worker.go
// Processes email jobs from QueueEmail: sends the invoice PDF to the
// customer via SMTP and stamps the document as emailed.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/rs/zerolog/log"
)

// EmailJobPayload is the job envelope sent to QueueEmail.
type EmailJobPayload struct {
	InvoiceID uint   `json:"invoice_id"`
	ToEmail   string `json:"to_email"`
	Subject   string `json:"subject"`
	Body      string `json:"body"`
	PDFPath   string `json:"pdf_path"`
}

// InvoiceSender is satisfied by *infra.Mailer.
type InvoiceSender interface {
	Enabled() bool
	SendInvoice(to, subject, body, pdfPath string) error
}

type EmailWorker struct {
	mailer    InvoiceSender
	documents repository.DocumentRepository
	attempts  int
}

func NewEmailWorker(mailer InvoiceSender, documents repository.DocumentRepository) *EmailWorker {
	return &EmailWorker{mailer: mailer, documents: documents, attempts: 3}
}

// Process sends the email with the PDF attached. SMTP errors are retried
// with backoff before the job is handed to the DLQ.
func (w *EmailWorker) Process(ctx context.Context, raw json.RawMessage) error {
	var payload EmailJobPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return fmt.Errorf("email: invalid payload: %w", err)
	}
	if payload.ToEmail == "" {
		log.Warn().Uint("invoice_id", payload.InvoiceID).Msg("email_worker: empty to_email, skipping")
		return nil
	}
	if !w.mailer.Enabled() {
		log.Debug().Uint("invoice_id", payload.InvoiceID).Msg("email_worker: smtp not configured, skipping")
		return nil
	}

	err := withRetry(ctx, w.attempts, func(attempt int) error {
		if err := w.mailer.SendInvoice(payload.ToEmail, payload.Subject, payload.Body, payload.PDFPath); err != nil {
			log.Warn().Err(err).Int("attempt", attempt+1).Str("to", payload.ToEmail).Msg("email_worker: send failed")
			return err
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("email: send to %s: %w", payload.ToEmail, err)
	}

	if payload.InvoiceID != 0 && w.documents != nil {
		doc, err := w.documents.FindByInvoiceID(ctx, payload.InvoiceID)
		if err == nil {
			now := clock()
			doc.EmailedAt = &now
			err = w.documents.Update(ctx, doc)
		}
		if err != nil {
			log.Warn().Err(err).Uint("invoice_id", payload.InvoiceID).Msg("email_worker: sent but not stamped")
		}
	}
	log.Info().Str("to", payload.ToEmail).Uint("invoice_id", payload.InvoiceID).Msg("email_worker: invoice sent")
	return nil
}

// withRetry calls fn up to maxAttempts times with exponential backoff.
// Backoff schedule: attempt 1 = immediate, 2 = 1s, 3 = 2s.
// Returns nil if any attempt succeeds; last error otherwise.
func withRetry(ctx context.Context, maxAttempts int, fn func(attempt int) error) error {
	if maxAttempts < 1 {
		return errors.New("withRetry: maxAttempts must be positive")
	}
	var lastErr error
	for i := 0; i < maxAttempts; i++ {
		if i > 0 {
			wait := time.Duration(1<<uint(i-1)) * time.Second
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}
		if err := fn(i); err != nil {
			lastErr = err
			continue
		}
		return nil
	}
	return lastErr
}

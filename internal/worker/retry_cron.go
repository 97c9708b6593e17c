package worker

// retry_cron.go
// Background goroutine that re-enqueues render jobs for documents stuck in
// status='pending' whose next_retry_at has passed: render failures, and
// invoices whose first enqueue never reached Redis.

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/CJosueA/Sistema-Facturacion/internal/model"
	"github.com/CJosueA/Sistema-Facturacion/internal/repository"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	retryTickInterval = 30 * time.Second
	retryBatchSize    = 10
	// MaxRenderRetries is how many times the cron re-enqueues a document
	// before giving up on it.
	MaxRenderRetries = 3
)

// RenderEnqueuer is the part of the Dispatcher the cron needs.
type RenderEnqueuer interface {
	EnqueueInvoiceRender(ctx context.Context, invoiceID uint) error
}

// RetryCronConfig holds all dependencies for the retry goroutine.
type RetryCronConfig struct {
	Documents  repository.DocumentRepository
	Dispatcher RenderEnqueuer
	RDB        *redis.Client
}

// StartRetryCron launches a background goroutine that ticks every 30s and
// re-enqueues due documents. It respects the context for graceful shutdown.
func StartRetryCron(ctx context.Context, cfg RetryCronConfig) {
	go func() {
		ticker := time.NewTicker(retryTickInterval)
		defer ticker.Stop()

		log.Info().Msg("retry_cron: started")

		for {
			select {
			case <-ctx.Done():
				log.Info().Msg("retry_cron: shutting down")
				return
			case <-ticker.C:
				processRetries(ctx, cfg)
			}
		}
	}()
}

func processRetries(ctx context.Context, cfg RetryCronConfig) {
	now := clock()
	docs, err := cfg.Documents.ListPendingRetries(ctx, now, retryBatchSize)
	if err != nil {
		log.Error().Err(err).Msg("retry_cron: failed to query pending retries")
		return
	}
	if len(docs) == 0 {
		return
	}

	log.Info().Int("count", len(docs)).Msg("retry_cron: processing pending documents")

	for i := range docs {
		doc := &docs[i]

		if doc.RetryCount >= MaxRenderRetries {
			giveUp(ctx, cfg, doc)
			continue
		}

		doc.RetryCount++
		next := now.Add(computeRetryBackoff(doc.RetryCount))
		doc.NextRetryAt = &next
		if err := cfg.Documents.Update(ctx, doc); err != nil {
			log.Error().Err(err).Uint("invoice_id", doc.InvoiceID).Msg("retry_cron: failed to update document")
			continue
		}

		if err := cfg.Dispatcher.EnqueueInvoiceRender(ctx, doc.InvoiceID); err != nil {
			log.Warn().Err(err).Uint("invoice_id", doc.InvoiceID).Msg("retry_cron: enqueue failed")
			continue
		}
		log.Info().
			Uint("invoice_id", doc.InvoiceID).
			Int("retry_count", doc.RetryCount).
			Msg("retry_cron: render re-enqueued")
	}
}

func giveUp(ctx context.Context, cfg RetryCronConfig, doc *model.InvoiceDocument) {
	reason := fmt.Sprintf("max retries (%d) exceeded", MaxRenderRetries)
	if doc.LastError != nil {
		reason += ": " + *doc.LastError
	}
	doc.Status = model.DocumentError
	doc.NextRetryAt = nil
	if err := cfg.Documents.Update(ctx, doc); err != nil {
		log.Error().Err(err).Uint("invoice_id", doc.InvoiceID).Msg("retry_cron: failed to mark document as error")
		return
	}

	log.Error().
		Uint("invoice_id", doc.InvoiceID).
		Int("retries", doc.RetryCount).
		Msg("retry_cron: max retries exceeded, moving to error/DLQ")

	payload, _ := json.Marshal(RenderJobPayload{InvoiceID: doc.InvoiceID})
	SendToDLQ(ctx, cfg.RDB, DLQEntry{
		OriginalQueue: QueueRender,
		JobType:       JobRender,
		Payload:       payload,
		Reason:        reason,
		Attempts:      doc.RetryCount,
	})
}

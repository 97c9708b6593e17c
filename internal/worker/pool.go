package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
)

const (
	QueueRender = "jobs:render"
	QueueEmail  = "jobs:email"

	JobRender = "render"
	JobEmail  = "email"
)

var tracer = otel.Tracer("github.com/CJosueA/Sistema-Facturacion/internal/worker")

// clock is swapped in tests.
var clock = time.Now

// Job is the generic envelope for all async tasks.
type Job struct {
	ID      string          `json:"id"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// RenderJobPayload asks for the PDF of a committed invoice.
type RenderJobPayload struct {
	InvoiceID uint `json:"invoice_id"`
}

// Handler processes one job payload. A returned error sends the job to the DLQ.
type Handler func(ctx context.Context, payload json.RawMessage) error

// Dispatcher enqueues async jobs into Redis lists.
// The worker pool dequeues them via BRPOP.
type Dispatcher struct {
	rdb   *redis.Client
	newID func() string
}

func NewDispatcher(rdb *redis.Client) *Dispatcher {
	return &Dispatcher{rdb: rdb, newID: uuid.NewString}
}

// EnqueueInvoiceRender pushes a PDF render job for invoiceID.
func (d *Dispatcher) EnqueueInvoiceRender(ctx context.Context, invoiceID uint) error {
	return d.enqueue(ctx, QueueRender, JobRender, RenderJobPayload{InvoiceID: invoiceID})
}

// EnqueueEmail pushes an email job to Redis.
func (d *Dispatcher) EnqueueEmail(ctx context.Context, payload EmailJobPayload) error {
	return d.enqueue(ctx, QueueEmail, JobEmail, payload)
}

func (d *Dispatcher) enqueue(ctx context.Context, queue, jobType string, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	job := Job{ID: d.newID(), Type: jobType, Payload: data}
	encoded, err := json.Marshal(job)
	if err != nil {
		return err
	}
	if err := d.rdb.LPush(ctx, queue, encoded).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", jobType, err)
	}
	return nil
}

// StartWorkerPool launches numWorkers goroutines consuming every queue that
// has a handler. Each goroutine blocks on BRPOP, zero CPU when idle.
func StartWorkerPool(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, numWorkers int) {
	queues := make([]string, 0, len(handlers))
	for jobType := range handlers {
		queues = append(queues, queueFor(jobType))
	}
	for i := 0; i < numWorkers; i++ {
		go runWorker(ctx, rdb, handlers, queues, i)
	}
	log.Info().Strs("queues", queues).Msgf("worker pool started with %d workers", numWorkers)
}

func queueFor(jobType string) string {
	switch jobType {
	case JobRender:
		return QueueRender
	case JobEmail:
		return QueueEmail
	default:
		return "jobs:" + jobType
	}
}

func runWorker(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, queues []string, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Msgf("worker %d shutting down", id)
			return
		default:
			// Blocking pop, waits up to 5s then loops to check ctx
			result, err := rdb.BRPop(ctx, 5*time.Second, queues...).Result()
			if err != nil {
				continue // timeout or context cancelled
			}
			if len(result) < 2 {
				continue
			}
			processJob(ctx, rdb, handlers, result[0], result[1])
		}
	}
}

func processJob(ctx context.Context, rdb *redis.Client, handlers map[string]Handler, queue, raw string) {
	var job Job
	if err := json.Unmarshal([]byte(raw), &job); err != nil {
		log.Error().Str("queue", queue).Err(err).Msg("failed to unmarshal job")
		SendToDLQ(ctx, rdb, DLQEntry{OriginalQueue: queue, Payload: json.RawMessage(quoteRaw(raw)), Reason: "malformed envelope", Attempts: 1})
		return
	}

	handler, ok := handlers[job.Type]
	if !ok {
		log.Error().Str("queue", queue).Str("type", job.Type).Msg("no handler for job type")
		SendToDLQ(ctx, rdb, DLQEntry{OriginalQueue: queue, JobID: job.ID, JobType: job.Type, Payload: job.Payload, Reason: "unknown job type", Attempts: 1})
		return
	}

	start := clock()
	if err := handler(ctx, job.Payload); err != nil {
		log.Error().Err(err).Str("job_id", job.ID).Str("type", job.Type).Msg("job failed")
		SendToDLQ(ctx, rdb, DLQEntry{OriginalQueue: queue, JobID: job.ID, JobType: job.Type, Payload: job.Payload, Reason: err.Error(), Attempts: 1})
		return
	}
	log.Info().Str("job_id", job.ID).Str("type", job.Type).Dur("took", clock().Sub(start)).Msg("job done")
}

// quoteRaw keeps an undecodable envelope inspectable inside a JSON entry.
func quoteRaw(raw string) []byte {
	b, _ := json.Marshal(raw)
	return b
}

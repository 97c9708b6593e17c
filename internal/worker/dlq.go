package worker

// dlq.go: Dead Letter Queue
// Jobs that fail or exceed the retry budget are kept here for manual
// inspection. One Redis list per source queue: dlq:{original_queue}

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const (
	DLQPrefix = "dlq:"
	// dlqMaxLen bounds each list; the oldest entries are dropped first.
	dlqMaxLen = 1000
)

// DLQEntry wraps a failed job with metadata for debugging.
type DLQEntry struct {
	OriginalQueue string          `json:"original_queue"`
	JobID         string          `json:"job_id,omitempty"`
	JobType       string          `json:"job_type"`
	Payload       json.RawMessage `json:"payload"`
	Reason        string          `json:"reason"`
	FailedAt      string          `json:"failed_at"` // ISO 8601
	Attempts      int             `json:"attempts"`
}

// SendToDLQ pushes a failed job to the dead letter queue. Errors are logged,
// never returned: the job is already lost to the normal flow.
func SendToDLQ(ctx context.Context, rdb *redis.Client, entry DLQEntry) {
	if rdb == nil {
		log.Error().Str("queue", entry.OriginalQueue).Str("reason", entry.Reason).Msg("dlq: no redis client, entry dropped")
		return
	}
	entry.FailedAt = clock().UTC().Format(time.RFC3339)

	data, err := json.Marshal(entry)
	if err != nil {
		log.Error().Err(err).Str("queue", entry.OriginalQueue).Msg("dlq: failed to marshal entry")
		return
	}

	dlqKey := DLQPrefix + entry.OriginalQueue
	pipe := rdb.TxPipeline()
	pipe.LPush(ctx, dlqKey, data)
	pipe.LTrim(ctx, dlqKey, 0, dlqMaxLen-1)
	if _, err := pipe.Exec(ctx); err != nil {
		log.Error().Err(err).Str("dlq_key", dlqKey).Msg("dlq: failed to push to DLQ")
		return
	}

	log.Warn().
		Str("queue", entry.OriginalQueue).
		Str("job_type", entry.JobType).
		Str("reason", entry.Reason).
		Int("attempts", entry.Attempts).
		Msg("dlq: job moved to dead letter queue")
}

// DLQLength returns the number of entries in a DLQ for monitoring.
func DLQLength(ctx context.Context, rdb *redis.Client, queue string) (int64, error) {
	return rdb.LLen(ctx, DLQPrefix+queue).Result()
}

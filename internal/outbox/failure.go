package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DLQWriter persists failed events for investigation.
type DLQWriter struct {
	pool      *pgxpool.Pool
	baseDelay time.Duration
}

// NewDLQWriter initialises a writer backed by the provided connection pool.
// baseDelay is the first step of the retry backoff.
func NewDLQWriter(pool *pgxpool.Pool, baseDelay time.Duration) *DLQWriter {
	if baseDelay <= 0 {
		baseDelay = time.Minute
	}
	return &DLQWriter{pool: pool, baseDelay: baseDelay}
}

// Write records a failed outbox message in the DLQ alongside the supplied reason.
// The message's attempt count becomes the entry's retry count. A first failure
// is eligible for retry at once, later ones wait out the backoff.
func (w *DLQWriter) Write(ctx context.Context, msg Message, reason string) error {
	_, err := w.pool.Exec(ctx,
		`INSERT INTO outbox_dlq (event_id, event_type, topic, payload, reason, aggregate_type, aggregate_id, schema_subject, partition_key, retry_count, last_attempt_at, next_retry_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10, NOW(), NOW() + $11 * INTERVAL '1 second')`,
		msg.EventID, msg.EventType, msg.Topic, msg.Payload, reason, msg.AggregateType, msg.AggregateID, msg.SchemaSubject, msg.PartitionKey,
		msg.Attempts, w.retryDelay(msg.Attempts).Seconds(),
	)
	return err
}

func (w *DLQWriter) retryDelay(attempts int) time.Duration {
	if attempts <= 0 {
		return 0
	}
	return backoffDelay(w.baseDelay, attempts)
}

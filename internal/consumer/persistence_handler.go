package consumer

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// PersistenceHandler appends consumed events to the exercise_event_log audit table.
type PersistenceHandler struct {
	pool *pgxpool.Pool
}

// NewPersistenceHandler constructs a handler backed by the provided pool.
func NewPersistenceHandler(pool *pgxpool.Pool) *PersistenceHandler {
	return &PersistenceHandler{pool: pool}
}

// Handle stores the event. Redelivered records with a known position are ignored.
func (h *PersistenceHandler) Handle(ctx context.Context, msg Message) error {
	receivedAt := msg.Timestamp
	if receivedAt.IsZero() {
		receivedAt = time.Now().UTC()
	}

	tag, err := h.pool.Exec(ctx,
		`INSERT INTO exercise_event_log (event_type, aggregate_id, schema_id, schema_subject, topic, partition, record_offset, payload, received_at)
         VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
         ON CONFLICT ON CONSTRAINT exercise_event_log_position_key DO NOTHING`,
		msg.EventType,
		msg.AggregateID,
		msg.SchemaID,
		msg.SchemaSubject,
		msg.Topic,
		msg.Partition,
		msg.Offset,
		msg.Payload,
		receivedAt,
	)
	if err != nil {
		return err
	}
	recordStored(msg, tag.RowsAffected() == 1)
	return nil
}

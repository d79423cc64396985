package outbox

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	dlqRequeuedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "dlq",
		Name:      "messages_requeued_total",
		Help:      "DLQ entries put back into the outbox, labeled by event type.",
	}, []string{"event_type"})

	dlqQuarantinedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "dlq",
		Name:      "messages_quarantined_total",
		Help:      "DLQ entries quarantined after exhausting retries.",
	}, []string{"event_type"})

	dlqRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "dlq",
		Name:      "retry_scheduled_total",
		Help:      "DLQ entries pushed back because they could not be requeued.",
	}, []string{"event_type"})

	dlqAttemptsHistogram = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "dlq",
		Name:      "entry_attempts",
		Help:      "Delivery attempts an entry had used up when the manager handled it.",
		Buckets:   prometheus.LinearBuckets(0, 1, 10),
	}, []string{"event_type"})

	dlqBacklogGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "dlq",
		Name:      "queued_messages",
		Help:      "Entries waiting in the DLQ, labeled by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(dlqRequeuedCounter, dlqQuarantinedCounter, dlqRetryCounter, dlqAttemptsHistogram, dlqBacklogGauge)
}

func recordDLQRequeued(entry dlqEntry) {
	dlqRequeuedCounter.WithLabelValues(entry.EventType).Inc()
	dlqAttemptsHistogram.WithLabelValues(entry.EventType).Observe(float64(entry.RetryCount))
}

func recordDLQQuarantined(entry dlqEntry) {
	dlqQuarantinedCounter.WithLabelValues(entry.EventType).Inc()
	dlqAttemptsHistogram.WithLabelValues(entry.EventType).Observe(float64(entry.RetryCount))
}

func recordDLQRetry(entry dlqEntry) {
	dlqRetryCounter.WithLabelValues(entry.EventType).Inc()
}

// updateBacklogGauge reports the open entries per event type. Known event
// types without entries read zero.
func updateBacklogGauge(ctx context.Context, pool *pgxpool.Pool) {
	rows, err := pool.Query(ctx, `SELECT event_type, COUNT(*) FROM outbox_dlq WHERE quarantined_at IS NULL GROUP BY event_type`)
	if err != nil {
		return
	}
	defer rows.Close()

	backlog := make(map[string]int, len(schemaCatalog))
	for eventType := range schemaCatalog {
		backlog[eventType] = 0
	}
	for rows.Next() {
		var eventType string
		var count int
		if err := rows.Scan(&eventType, &count); err != nil {
			return
		}
		backlog[eventType] = count
	}
	if rows.Err() != nil {
		return
	}

	dlqBacklogGauge.Reset()
	for eventType, count := range backlog {
		dlqBacklogGauge.WithLabelValues(eventType).Set(float64(count))
	}
}

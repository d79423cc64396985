package outbox

import "github.com/prometheus/client_golang/prometheus"

var (
	deliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_delivered_total",
		Help:      "Outbox events published to Kafka, labeled by event type.",
	}, []string{"event_type"})

	redeliveredCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_redelivered_total",
		Help:      "Outbox events published after at least one trip through the DLQ.",
	}, []string{"event_type"})

	failedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_failed_total",
		Help:      "Outbox events whose delivery failed, labeled by event type.",
	}, []string{"event_type"})

	batchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "batch_duration_seconds",
		Help:      "Time spent delivering and marking a claimed outbox batch.",
		Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10),
	})

	dlqCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "outbox",
		Name:      "events_dlq_total",
		Help:      "Outbox events written to the dead-letter queue, labeled by event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(deliveredCounter, redeliveredCounter, failedCounter, batchDuration, dlqCounter)
}

func recordDelivered(messages []Message) {
	for _, msg := range messages {
		deliveredCounter.WithLabelValues(msg.EventType).Inc()
		if msg.Attempts > 0 {
			redeliveredCounter.WithLabelValues(msg.EventType).Inc()
		}
	}
}

func recordFailed(messages []Message) {
	for _, msg := range messages {
		failedCounter.WithLabelValues(msg.EventType).Inc()
	}
}

func recordDeadLettered(msg Message) {
	dlqCounter.WithLabelValues(msg.EventType).Inc()
}

package consumer

import "github.com/prometheus/client_golang/prometheus"

var (
	storedCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "consumer",
		Name:      "events_stored_total",
		Help:      "Events appended to the exercise event log, labeled by event type.",
	}, []string{"event_type"})

	duplicateCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "consumer",
		Name:      "events_duplicate_total",
		Help:      "Redelivered events already present in the exercise event log.",
	}, []string{"event_type"})

	handlerRetryCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "consumer",
		Name:      "handler_retries_total",
		Help:      "Failed attempts to handle an event, labeled by event type.",
	}, []string{"event_type"})

	decodeErrorCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "consumer",
		Name:      "decode_errors_total",
		Help:      "Records skipped because they could not be decoded, per topic.",
	}, []string{"topic"})

	lastEventGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "consumer",
		Name:      "last_event_timestamp_seconds",
		Help:      "Unix timestamp of the most recent committed event per event type.",
	}, []string{"event_type"})
)

func init() {
	prometheus.MustRegister(storedCounter, duplicateCounter, handlerRetryCounter, decodeErrorCounter, lastEventGauge)
}

func recordProcessed(msg Message) {
	if !msg.Timestamp.IsZero() {
		lastEventGauge.WithLabelValues(msg.EventType).Set(float64(msg.Timestamp.Unix()))
	}
}

func recordStored(msg Message, inserted bool) {
	if inserted {
		storedCounter.WithLabelValues(msg.EventType).Inc()
		return
	}
	duplicateCounter.WithLabelValues(msg.EventType).Inc()
}

func recordHandlerError(msg Message) {
	handlerRetryCounter.WithLabelValues(msg.EventType).Inc()
}

func recordDecodeError(topic string) {
	decodeErrorCounter.WithLabelValues(topic).Inc()
}

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	exercisePersistGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "last_exercise_persisted_timestamp_seconds",
		Help:      "Unix timestamp of the most recent exercise entry persisted.",
	})
	exercisesCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "exercises_created_total",
		Help:      "Number of exercise entries persisted.",
	})
	usersCreatedCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "persistence",
		Name:      "users_created_total",
		Help:      "Number of users registered.",
	})
	requestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, labeled by route template, method and status code.",
	}, []string{"route", "method", "status"})
	requestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "exercise_tracker",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "Time spent serving HTTP requests, labeled by route template.",
		Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
	}, []string{"route"})
)

func init() {
	prometheus.MustRegister(exercisePersistGauge, exercisesCreatedCounter, usersCreatedCounter, requestCounter, requestDuration)
}

// RecordExercisePersisted updates the persistence watermark gauge.
func RecordExercisePersisted(ts time.Time) {
	exercisesCreatedCounter.Inc()
	if ts.IsZero() {
		return
	}
	exercisePersistGauge.Set(float64(ts.Unix()))
}

// RecordUserCreated counts a newly registered user.
func RecordUserCreated() {
	usersCreatedCounter.Inc()
}

// ObserveRequest records one served HTTP request.
func ObserveRequest(route, method string, status int, elapsed time.Duration) {
	requestCounter.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	requestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

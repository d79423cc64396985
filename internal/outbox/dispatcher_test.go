package outbox

import (
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/require"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/events"
)

type fakeWriter struct {
	err    error
	topics []string
	writes map[string][]kafka.Message
}

func (w *fakeWriter) WriteMessages(_ context.Context, topic string, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	if w.writes == nil {
		w.writes = make(map[string][]kafka.Message)
	}
	w.topics = append(w.topics, topic)
	w.writes[topic] = append(w.writes[topic], msgs...)
	return nil
}

type fakeRegistry struct {
	ids   map[string]int
	calls int
	err   error
}

func (r *fakeRegistry) EnsureSchema(_ context.Context, subject, _ string) (int, error) {
	r.calls++
	if r.err != nil {
		return 0, r.err
	}
	return r.ids[subject], nil
}

func newTestDispatcher(writer messageWriter, registry schemaRegistrar) *Dispatcher {
	d := NewDispatcher(nil, writer, registry, time.Second, 10)
	d.now = func() time.Time { return time.Date(2023, time.May, 1, 12, 0, 0, 0, time.UTC) }
	return d
}

func userMessage(id int64, userID string) Message {
	return Message{
		EventID:       id,
		AggregateType: "user",
		AggregateID:   userID,
		EventType:     events.TypeUserCreated,
		Topic:         events.TopicUsers,
		SchemaSubject: events.TopicUsers + "-value",
		PartitionKey:  userID,
		Payload:       json.RawMessage(`{"user_id":"` + userID + `"}`),
	}
}

func exerciseMessage(id int64, exerciseID, userID string) Message {
	return Message{
		EventID:       id,
		AggregateType: "exercise",
		AggregateID:   exerciseID,
		EventType:     events.TypeExerciseLogged,
		Topic:         events.TopicExercises,
		SchemaSubject: events.TopicExercises + "-value",
		PartitionKey:  userID,
		Payload:       json.RawMessage(`{"exercise_id":"` + exerciseID + `"}`),
	}
}

func TestDeliverGroupsByTopicAndFramesPayload(t *testing.T) {
	writer := &fakeWriter{}
	registry := &fakeRegistry{ids: map[string]int{
		events.TopicUsers + "-value":     7,
		events.TopicExercises + "-value": 9,
	}}
	d := newTestDispatcher(writer, registry)

	err := d.deliver(context.Background(), []Message{
		userMessage(1, "u-1"),
		exerciseMessage(2, "e-1", "u-1"),
		exerciseMessage(3, "e-2", "u-1"),
	})
	require.NoError(t, err)

	require.Equal(t, []string{events.TopicUsers, events.TopicExercises}, writer.topics)
	require.Len(t, writer.writes[events.TopicExercises], 2)

	record := writer.writes[events.TopicExercises][0]
	require.Equal(t, "u-1", string(record.Key))
	require.Equal(t, byte(0), record.Value[0])
	require.Equal(t, uint32(9), binary.BigEndian.Uint32(record.Value[1:5]))
	require.JSONEq(t, `{"exercise_id":"e-1"}`, string(record.Value[5:]))
	require.Equal(t, []kafka.Header{
		{Key: events.HeaderEventType, Value: []byte(events.TypeExerciseLogged)},
		{Key: events.HeaderSchemaSubject, Value: []byte(events.TopicExercises + "-value")},
		{Key: events.HeaderAggregateID, Value: []byte("e-1")},
	}, record.Headers)

	// One lookup per subject, the rest come from the cache.
	require.Equal(t, 2, registry.calls)
}

func TestDeliverRejectsUnknownEventType(t *testing.T) {
	d := newTestDispatcher(&fakeWriter{}, &fakeRegistry{})

	msg := userMessage(1, "u-1")
	msg.EventType = "user.deleted"
	err := d.deliver(context.Background(), []Message{msg})
	require.ErrorContains(t, err, "no schema metadata for event_type=user.deleted")
}

func TestDeliverPropagatesFailures(t *testing.T) {
	registryErr := errors.New("registry down")
	d := newTestDispatcher(&fakeWriter{}, &fakeRegistry{err: registryErr})
	require.ErrorIs(t, d.deliver(context.Background(), []Message{userMessage(1, "u-1")}), registryErr)

	writeErr := errors.New("broker unavailable")
	d = newTestDispatcher(&fakeWriter{err: writeErr}, &fakeRegistry{ids: map[string]int{}})
	err := d.deliver(context.Background(), []Message{userMessage(1, "u-1")})
	require.ErrorIs(t, err, writeErr)
	require.ErrorContains(t, err, events.TopicUsers)
}

func TestEncodeWireFormat(t *testing.T) {
	frame := encodeWireFormat(258, []byte("{}"))
	require.Equal(t, []byte{0, 0, 0, 1, 2, '{', '}'}, frame)
}

func TestBackoffDelay(t *testing.T) {
	m := NewDLQManager(nil, 0, 0)
	require.Equal(t, 5, m.maxRetries)

	require.Equal(t, time.Minute, m.baseDelay)

	require.Equal(t, time.Minute, backoffDelay(time.Minute, 1))
	require.Equal(t, 2*time.Minute, backoffDelay(time.Minute, 2))
	require.Equal(t, 16*time.Minute, backoffDelay(time.Minute, 5))
	require.Equal(t, time.Hour, backoffDelay(time.Minute, 7))
	require.Equal(t, time.Hour, backoffDelay(time.Minute, 64))
	require.Equal(t, time.Minute, backoffDelay(time.Minute, 0))
}

func TestDLQWriterDelaysRepeatedFailures(t *testing.T) {
	w := NewDLQWriter(nil, 10*time.Second)
	require.Zero(t, w.retryDelay(0))
	require.Equal(t, 10*time.Second, w.retryDelay(1))
	require.Equal(t, 40*time.Second, w.retryDelay(3))

	d := NewDispatcher(nil, &fakeWriter{}, &fakeRegistry{}, time.Second, 10, WithRetryBackoff(5*time.Second))
	require.Equal(t, 5*time.Second, d.dlq.baseDelay)
}

func TestSchemaCatalogCoversEvents(t *testing.T) {
	for _, eventType := range []string{events.TypeUserCreated, events.TypeExerciseLogged} {
		entry, ok := schemaCatalog[eventType]
		require.True(t, ok, eventType)
		require.True(t, json.Valid([]byte(entry.Schema)), eventType)
	}
}

func TestDeliveryMetricsFollowEventTypes(t *testing.T) {
	first := userMessage(1, "u-1")
	retried := exerciseMessage(2, "ex-1", "u-1")
	retried.Attempts = 2

	delivered := testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeExerciseLogged))
	redelivered := testutil.ToFloat64(redeliveredCounter.WithLabelValues(events.TypeExerciseLogged))
	firstRedelivered := testutil.ToFloat64(redeliveredCounter.WithLabelValues(events.TypeUserCreated))

	recordDelivered([]Message{first, retried})

	require.Equal(t, delivered+1, testutil.ToFloat64(deliveredCounter.WithLabelValues(events.TypeExerciseLogged)))
	require.Equal(t, redelivered+1, testutil.ToFloat64(redeliveredCounter.WithLabelValues(events.TypeExerciseLogged)))
	require.Equal(t, firstRedelivered, testutil.ToFloat64(redeliveredCounter.WithLabelValues(events.TypeUserCreated)))
}

func TestDLQCounterIsRegistered(t *testing.T) {
	recordDeadLettered(Message{EventType: "metrics.test"})

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)

	var found *dto.MetricFamily
	for _, family := range families {
		if family.GetName() == "exercise_tracker_outbox_events_dlq_total" {
			found = family
		}
	}
	require.NotNil(t, found)
	require.Equal(t, dto.MetricType_COUNTER, found.GetType())

	var value float64
	for _, metric := range found.GetMetric() {
		for _, label := range metric.GetLabel() {
			if label.GetName() == "event_type" && label.GetValue() == "metrics.test" {
				value = metric.GetCounter().GetValue()
			}
		}
	}
	require.Equal(t, 1.0, value)
}

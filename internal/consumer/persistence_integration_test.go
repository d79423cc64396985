//go:build integration

package consumer

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/events"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence"
)

func TestPersistenceHandlerStoresEventOnce(t *testing.T) {
	ctx := context.Background()
	pool := setupPostgres(t, ctx)

	handler := NewPersistenceHandler(pool)

	payload := json.RawMessage(`{"exercise_id":"ex-1","user_id":"u-1"}`)
	msg := Message{
		EventType:     events.TypeExerciseLogged,
		AggregateID:   "ex-1",
		SchemaID:      42,
		SchemaSubject: events.TopicExercises + "-value",
		Topic:         events.TopicExercises,
		Partition:     0,
		Offset:        5,
		Payload:       payload,
		Timestamp:     time.Now().UTC(),
	}

	stored := testutil.ToFloat64(storedCounter.WithLabelValues(events.TypeExerciseLogged))
	duplicates := testutil.ToFloat64(duplicateCounter.WithLabelValues(events.TypeExerciseLogged))

	require.NoError(t, handler.Handle(ctx, msg))
	require.NoError(t, handler.Handle(ctx, msg))

	require.Equal(t, stored+1, testutil.ToFloat64(storedCounter.WithLabelValues(events.TypeExerciseLogged)))
	require.Equal(t, duplicates+1, testutil.ToFloat64(duplicateCounter.WithLabelValues(events.TypeExerciseLogged)))

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM exercise_event_log`).Scan(&count))
	require.Equal(t, 1, count)

	var storedPayload []byte
	require.NoError(t, pool.QueryRow(ctx, `SELECT payload FROM exercise_event_log LIMIT 1`).Scan(&storedPayload))
	require.JSONEq(t, string(payload), string(storedPayload))
}

func setupPostgres(t *testing.T, ctx context.Context) *pgxpool.Pool {
	t.Helper()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercise"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	var pool *pgxpool.Pool
	require.Eventually(t, func() bool {
		pool, err = pgxpool.New(ctx, connStr)
		if err != nil {
			return false
		}
		if pool.Ping(ctx) != nil {
			pool.Close()
			return false
		}
		return true
	}, 30*time.Second, time.Second)
	t.Cleanup(pool.Close)

	require.NoError(t, persistence.MigratePostgres(ctx, pool))
	return pool
}

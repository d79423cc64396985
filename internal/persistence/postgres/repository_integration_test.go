//go:build integration

package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/require"
	postgrescontainer "github.com/testcontainers/testcontainers-go/modules/postgres"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/events"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/migrate"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/storetest"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	ctx := context.Background()

	pg, err := postgrescontainer.Run(ctx, "postgres:16-alpine",
		postgrescontainer.WithDatabase("exercise"),
		postgrescontainer.WithUsername("tracker"),
		postgrescontainer.WithPassword("tracker"),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pg.Terminate(ctx) })

	connStr, err := pg.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)
	require.NoError(t, waitForDatabase(ctx, connStr))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	db := stdlib.OpenDBFromPool(pool)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrate.Postgres(ctx, db))

	return pool
}

func reset(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE exercises, users, outbox RESTART IDENTITY`)
	require.NoError(t, err)
}

func TestRepositoryContract(t *testing.T) {
	pool := startPostgres(t)

	storetest.Run(t, func(t *testing.T) domain.Store {
		reset(t, pool)
		return NewRepository(pool)
	})
}

func TestRepositoryWritesOutboxEvents(t *testing.T) {
	ctx := context.Background()
	pool := startPostgres(t)
	repo := NewRepository(pool, WithOutbox(true))

	user, err := repo.CreateUser(ctx, "alice")
	require.NoError(t, err)
	_, err = repo.CreateExercise(ctx, domain.Exercise{
		UserID:      user.ID,
		Description: "run",
		Duration:    30,
		Date:        storetest.Day(t, "2023-05-01"),
	})
	require.NoError(t, err)

	_, err = repo.CreateUser(ctx, "alice")
	require.ErrorIs(t, err, domain.ErrUsernameTaken)

	rows, err := pool.Query(ctx, `SELECT event_type, topic, partition_key FROM outbox ORDER BY event_id`)
	require.NoError(t, err)
	defer rows.Close()

	type outboxRow struct{ eventType, topic, key string }
	var got []outboxRow
	for rows.Next() {
		var r outboxRow
		require.NoError(t, rows.Scan(&r.eventType, &r.topic, &r.key))
		got = append(got, r)
	}
	require.NoError(t, rows.Err())
	require.Equal(t, []outboxRow{
		{events.TypeUserCreated, events.TopicUsers, user.ID},
		{events.TypeExerciseLogged, events.TopicExercises, user.ID},
	}, got)
}

func waitForDatabase(ctx context.Context, connStr string) error {
	deadline := time.Now().Add(30 * time.Second)
	for {
		pool, err := pgxpool.New(ctx, connStr)
		if err == nil {
			err = pool.Ping(ctx)
			pool.Close()
			if err == nil {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return err
		}
		time.Sleep(time.Second)
	}
}

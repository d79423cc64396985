// Package persistence selects and opens the configured store backend.
package persistence

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/memory"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/migrate"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/postgres"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence/sqlite"
)

// Backend is an opened store. Pool is set only for the postgres driver and is
// shared with the outbox dispatcher.
type Backend struct {
	Store domain.Store
	Pool  *pgxpool.Pool
}

// Close releases the store and any pooled connections.
func (b Backend) Close() error {
	if b.Store == nil {
		return nil
	}
	return b.Store.Close()
}

// Open builds the backend named by cfg.StoreDriver.
func Open(ctx context.Context, cfg config.Config) (Backend, error) {
	logger := zerolog.Ctx(ctx)

	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn().Msg("using in-memory store, data is lost on restart")
		return Backend{Store: memory.NewStore()}, nil

	case config.DriverSQLite:
		store, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return Backend{}, err
		}
		logger.Info().Str("path", cfg.SQLitePath).Msg("sqlite store ready")
		return Backend{Store: store}, nil

	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.PostgresURL)
		if err != nil {
			return Backend{}, fmt.Errorf("connect to postgres: %w", err)
		}
		if err := pool.Ping(ctx); err != nil {
			pool.Close()
			return Backend{}, fmt.Errorf("ping postgres: %w", err)
		}
		if cfg.MigrateOnStart {
			if err := MigratePostgres(ctx, pool); err != nil {
				pool.Close()
				return Backend{}, err
			}
		}
		repo := postgres.NewRepository(pool, postgres.WithOutbox(cfg.OutboxEnabled))
		logger.Info().Bool("outbox", cfg.OutboxEnabled).Msg("postgres store ready")
		return Backend{Store: repo, Pool: pool}, nil
	}
	return Backend{}, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
}

// MigratePostgres applies the embedded PostgreSQL migrations through pool.
func MigratePostgres(ctx context.Context, pool *pgxpool.Pool) error {
	db := stdlib.OpenDBFromPool(pool)
	defer db.Close()
	if err := migrate.Postgres(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

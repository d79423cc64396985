// Package migrate applies the embedded schema migrations with goose.
package migrate

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"github.com/rs/zerolog"
)

//go:embed migrations
var migrationsFS embed.FS

// Postgres brings a PostgreSQL database up to the latest schema.
func Postgres(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, goose.DialectPostgres, "migrations/postgres")
}

// SQLite brings a SQLite database up to the latest schema.
func SQLite(ctx context.Context, db *sql.DB) error {
	return up(ctx, db, goose.DialectSQLite3, "migrations/sqlite")
}

func up(ctx context.Context, db *sql.DB, dialect goose.Dialect, dir string) error {
	if db == nil {
		return fmt.Errorf("sql db is required")
	}
	fsys, err := fs.Sub(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("open migrations %s: %w", dir, err)
	}
	provider, err := goose.NewProvider(dialect, db, fsys)
	if err != nil {
		return fmt.Errorf("create migration provider: %w", err)
	}
	results, err := provider.Up(ctx)
	if err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}

	logger := zerolog.Ctx(ctx)
	for _, result := range results {
		logger.Info().
			Str("dialect", string(dialect)).
			Str("migration", result.Source.Path).
			Dur("duration", result.Duration).
			Msg("migration applied")
	}
	return nil
}

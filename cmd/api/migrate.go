package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations for the configured store",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := setUp()
		if err != nil {
			return err
		}
		if cfg.StoreDriver == config.DriverMemory {
			log.Warn().Msg("memory store has no schema, nothing to migrate")
			return nil
		}

		cfg.MigrateOnStart = true
		ctx := log.Logger.WithContext(cmd.Context())
		backend, err := persistence.Open(ctx, cfg)
		if err != nil {
			return err
		}
		log.Info().Str("driver", cfg.StoreDriver).Msg("migrations complete")
		return backend.Close()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

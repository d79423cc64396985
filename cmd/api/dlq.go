package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/outbox"
)

var dlqOnce bool

var dlqCmd = &cobra.Command{
	Use:   "dlq",
	Short: "Re-queue failed outbox events and quarantine exhausted ones",
	RunE:  runDLQ,
}

func init() {
	dlqCmd.Flags().BoolVar(&dlqOnce, "once", false, "process a single batch and exit")
	rootCmd.AddCommand(dlqCmd)
}

func runDLQ(cmd *cobra.Command, _ []string) error {
	cfg, err := setUp()
	if err != nil {
		return err
	}
	if cfg.StoreDriver != config.DriverPostgres {
		return fmt.Errorf("dlq requires STORE_DRIVER=%s", config.DriverPostgres)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	pool, err := pgxpool.New(ctx, cfg.PostgresURL)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	manager := outbox.NewDLQManager(pool, cfg.DLQMaxRetries, cfg.DLQBaseDelay)
	if dlqOnce {
		processed, err := manager.RunOnce(ctx, cfg.DLQBatchSize)
		log.Info().Int("requeued", processed).Msg("dlq batch processed")
		return err
	}

	metricsSrv := &http.Server{Addr: cfg.MetricsAddress, Handler: promhttp.Handler()}
	go func() {
		log.Info().Str("address", cfg.MetricsAddress).Msg("dlq manager metrics listening")
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error().Err(err).Msg("metrics server error")
		}
	}()

	ticker := time.NewTicker(cfg.DLQPollInterval)
	defer ticker.Stop()
	log.Info().Dur("interval", cfg.DLQPollInterval).Int("max_retries", cfg.DLQMaxRetries).Msg("dlq manager started")

	for {
		select {
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
			defer cancel()
			return metricsSrv.Shutdown(shutdownCtx)
		case <-ticker.C:
			processed, err := manager.RunOnce(ctx, cfg.DLQBatchSize)
			if err != nil {
				log.Error().Err(err).Msg("dlq manager error")
			} else if processed > 0 {
				log.Info().Int("requeued", processed).Msg("dlq manager processed entries")
			}
		}
	}
}

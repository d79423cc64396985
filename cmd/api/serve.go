package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/api"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/domain"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/outbox"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/persistence"
	httptransport "github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/transport/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server for handling API requests",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := setUp()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = log.Logger.WithContext(ctx)

	backend, err := persistence.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer func() {
		if err := backend.Close(); err != nil {
			log.Error().Err(err).Msg("closing store failed")
		}
	}()

	waitOutbox := startOutbox(ctx, cfg, backend)

	service := domain.NewService(backend.Store)
	router := api.NewRouter(api.NewHandler(service), cfg.StaticDir)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	handler := api.WithLogger(log.Logger)(api.CORS(cfg.CORSOrigin)(router))
	serverCfg := httptransport.ServerConfigFrom(cfg)
	server := httptransport.NewServer(serverCfg, handler)

	err = httptransport.Serve(ctx, server, serverCfg.ShutdownTimeout)
	stop()
	waitOutbox()
	return err
}

// startOutbox launches the outbox dispatcher when enabled and returns a
// function that blocks until it has drained.
func startOutbox(ctx context.Context, cfg config.Config, backend persistence.Backend) func() {
	if !cfg.OutboxEnabled || backend.Pool == nil {
		return func() {}
	}

	producer := outbox.NewKafkaProducer(cfg.KafkaBrokers)
	registry := outbox.NewSchemaRegistryClient(cfg.SchemaRegistryURL)
	dispatcher := outbox.NewDispatcher(backend.Pool, producer, registry,
		cfg.OutboxPollInterval, cfg.OutboxBatchSize,
		outbox.WithLogger(log.With().Str("component", "outbox").Logger()),
		outbox.WithRetryBackoff(cfg.DLQBaseDelay),
	)
	go dispatcher.Start(ctx)

	return func() {
		dispatcher.Wait()
		if err := producer.Close(); err != nil {
			log.Error().Err(err).Msg("closing kafka producer failed")
		}
	}
}

// Package httptransport builds and runs the HTTP server.
package httptransport

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
)

// ServerConfig contains tunables for the HTTP server.
type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// ServerConfigFrom extracts the server tunables from the service configuration.
func ServerConfigFrom(cfg config.Config) ServerConfig {
	return ServerConfig{
		Address:         cfg.HTTPAddress,
		ReadTimeout:     cfg.ReadTimeout,
		WriteTimeout:    cfg.WriteTimeout,
		IdleTimeout:     cfg.IdleTimeout,
		ShutdownTimeout: cfg.ShutdownTimeout,
	}
}

// NewServer creates *http.Server with provided handler.
func NewServer(cfg ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         cfg.Address,
		Handler:      handler,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}
}

// Serve runs server until ctx is cancelled, then shuts it down within timeout.
func Serve(ctx context.Context, server *http.Server, timeout time.Duration) error {
	logger := zerolog.Ctx(ctx)
	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("address", server.Addr).Msg("http server listening")
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}
	logger.Info().Msg("http server stopped")
	return nil
}

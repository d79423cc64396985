package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/config"
	"github.com/JordanHoffman/fcc-api-micro-exercise-project/internal/observability"
)

var logLevel string

var rootCmd = &cobra.Command{
	Use:          "exercise-tracker",
	Short:        "Exercise tracker API",
	Long:         `Exercise tracker records users and their exercise sessions and serves filtered exercise logs over HTTP.`,
	SilenceUsage: true,
	RunE:         runServe,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "",
		"sets the log level, overriding LOG_LEVEL")
}

// setUp loads configuration and installs the global logger.
func setUp() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	observability.SetLogging(level)
	log.Debug().Str("driver", cfg.StoreDriver).Msg("configuration loaded")
	return cfg, nil
}

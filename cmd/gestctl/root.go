package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"gestcom/internal/app"
	"gestcom/pkg/logger"
)

var version = "dev"

func newRootCmd() *cobra.Command {
	var envFile string

	root := &cobra.Command{
		Use:   "gestctl",
		Short: "gestctl operates the gestcom document service",
		Long: `gestctl computes document totals, inspects and adjusts reference
counters, seeds default settings and applies the database schema.

Storage is selected with STORAGE (memory or postgres) and DATABASE_URL,
read from the environment or an optional .env file.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&envFile, "env-file", "", "load environment from this file instead of .env")

	load := func(cmd *cobra.Command) (*app.App, error) {
		var files []string
		if envFile != "" {
			files = append(files, envFile)
		}
		cfg, err := app.LoadConfig(files...)
		if err != nil {
			return nil, err
		}
		log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true, Service: "gestctl"})
		if err != nil {
			return nil, err
		}
		logger.SetDefault(log)
		return app.New(cmd.Context(), cfg, log)
	}

	root.AddCommand(
		newTotalsCmd(),
		newReferenceCmd(load),
		newSeedCmd(load),
		newMigrateCmd(load),
		newHistoryCmd(load),
	)
	return root
}

// loader opens the configured application for commands that need storage.
type loader func(cmd *cobra.Command) (*app.App, error)

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

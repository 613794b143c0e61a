package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tablescope/internal/config"
	"tablescope/internal/database"
	"tablescope/internal/logging"
	"tablescope/internal/server"
)

var cpath string

// app is the per-command runtime: configuration, logger and an open pool.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	pool   *pgxpool.Pool
	svc    *server.Services
}

func newRootCmd() *cobra.Command {
	cobra.EnableCommandSorting = false
	rootCmd := &cobra.Command{
		Use:           "tablescope",
		Short:         "Browse a PostgreSQL schema: tables, rows and foreign-key relationships",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&cpath,
		"config", "config.yaml", "path to an optional YAML config file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(tablesCmd())
	rootCmd.AddCommand(browseCmd())
	rootCmd.AddCommand(schemaCmd())
	rootCmd.AddCommand(analyzeCmd())

	return rootCmd
}

// setup loads configuration and connects to the database.
func setup(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cpath)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.IsDevelopment(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	pool, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &app{
		cfg:    cfg,
		logger: logger,
		pool:   pool,
		svc:    server.NewServices(cfg, pool, logger),
	}, nil
}

func (a *app) close() {
	a.pool.Close()
	_ = a.logger.Sync()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

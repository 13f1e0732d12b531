package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fastygo/projecthub/internal/config"
	pgInfra "github.com/fastygo/projecthub/internal/infrastructure/postgres"
	"github.com/fastygo/projecthub/pkg/logger"
	"github.com/fastygo/projecthub/repository/sqlite"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			zapLogger, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = zapLogger.Sync() }()
			return migrate(cmd.Context(), cfg, zapLogger)
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config, zapLogger *zap.Logger) error {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return pgInfra.RunMigrations(cfg, true, zapLogger)
	default:
		// Opening the SQLite file applies its schema.
		db, err := sqlite.Open(ctx, cfg.Database.SQLitePath)
		if err != nil {
			return err
		}
		zapLogger.Info("sqlite schema ready", zap.String("path", cfg.Database.SQLitePath))
		return db.Close()
	}
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
	})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return zapLogger.With(zap.String("app", cfg.AppName), zap.String("env", cfg.Environment)), nil
}

package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/config"
	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/logging"
)

var (
	cfgFile string
	version = "dev"
)

var rootCmd = &cobra.Command{
	Use:          "calibration-portal",
	Short:        "Calibration report portal",
	Long:         "REST API for lab reference data and calibration reports, backed by PostgreSQL.",
	SilenceUsage: true,
}

// Execute runs the root command. It is called once by main.main.
func Execute(ctx context.Context, buildVersion string) error {
	if ctx == nil {
		return errors.New("context is required")
	}
	if buildVersion != "" {
		version = buildVersion
	}
	rootCmd.Version = version
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultPath, "Config file path")
}

// app holds what every subcommand needs: configuration, the root logger
// and an open connection pool.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	db     *database.DB
}

// withApp loads configuration, builds the logger and connects to Postgres
// before handing off to run. Everything is released when run returns.
func withApp(run func(cmd *cobra.Command, a *app) error) func(cmd *cobra.Command, args []string) error {
	return func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile, version)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		logger, err := logging.NewLogger(cfg.Env, cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		logger = logger.With(zap.String("command", cmd.Name()))
		logger.Info("Configuration loaded",
			zap.String("config_file", cfgFile),
			zap.String("env", cfg.Env),
			zap.String("version", cfg.Version),
			zap.String("database", logging.SanitizeConnectionString(cfg.Database.ConnectionString())))

		db, err := database.NewConnection(cmd.Context(), &database.Config{
			URL:            cfg.Database.ConnectionString(),
			MaxConnections: cfg.Database.MaxConnections,
		}, logger)
		if err != nil {
			logger.Error("Failed to connect to database", zap.String("error", logging.SanitizeError(err)))
			return fmt.Errorf("connect to database: %w", err)
		}
		defer db.Close()

		return run(cmd, &app{cfg: cfg, logger: logger, db: db})
	}
}

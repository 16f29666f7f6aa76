package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/config"
	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/handlers"
	"github.com/ekaya-inc/calibration-portal/pkg/middleware"
	"github.com/ekaya-inc/calibration-portal/pkg/repositories"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

var skipMigrations bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Apply migrations and run the HTTP API",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		if !skipMigrations {
			if err := database.RunMigrations(a.db.OpenSQL(), a.cfg.MigrationsPath, a.logger); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		return serve(ctx, a.cfg, newRouter(a.cfg, a.db, a.logger), a.logger)
	}),
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&skipMigrations, "skip-migrations", false, "Start without applying pending migrations")
}

// newRouter wires repositories, services and handlers onto one mux and
// wraps it in the shared middleware stack.
func newRouter(cfg *config.Config, db *database.DB, logger *zap.Logger) http.Handler {
	personnelRepo := repositories.NewPersonnelRepository()
	sensorRepo := repositories.NewSensorRepository()
	equipmentRepo := repositories.NewEquipmentRepository()
	reportRepo := repositories.NewReportRepository()

	personnelService := services.NewPersonnelService(personnelRepo, logger)
	sensorService := services.NewSensorService(sensorRepo, reportRepo, logger)
	equipmentService := services.NewEquipmentService(equipmentRepo, logger)
	reportService := services.NewReportService(reportRepo, equipmentRepo, logger)

	withConn := handlers.ConnectionMiddleware(database.WithConnection(db, logger))

	mux := http.NewServeMux()
	handlers.NewHealthHandler(cfg, logger).RegisterRoutes(mux)
	handlers.NewPersonnelHandler(personnelService, logger).RegisterRoutes(mux, withConn)
	handlers.NewSensorHandler(sensorService, logger).RegisterRoutes(mux, withConn)
	handlers.NewEquipmentHandler(equipmentService, logger).RegisterRoutes(mux, withConn)
	handlers.NewReportHandler(reportService, logger).RegisterRoutes(mux, withConn)

	return middleware.Chain(mux,
		middleware.Recover(logger),
		middleware.RequestID,
		middleware.RequestLogger(logger),
		middleware.CORS([]string{cfg.FrontendURL}),
	)
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for at most cfg.ShutdownTimeout.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	server := &http.Server{
		Addr:              cfg.ListenAddr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting calibration-portal",
			zap.String("addr", server.Addr),
			zap.String("base_url", cfg.BaseURL),
			zap.String("version", cfg.Version),
			zap.Bool("tls", cfg.TLSCertPath != ""))

		var err error
		if cfg.TLSCertPath != "" {
			err = server.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down", zap.Duration("timeout", cfg.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return <-errCh
}

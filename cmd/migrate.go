package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/database"
)

var (
	migrateRollback    int
	migrateStatus bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and exit",
	RunE: withApp(func(cmd *cobra.Command, a *app) error {
		switch {
		case migrateStatus:
			v, dirty, err := database.MigrationVersion(a.db.OpenSQL(), a.cfg.MigrationsPath, a.logger)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty: %t)\n", v, dirty)
			return err
		case migrateRollback > 0:
			return database.RollbackMigrations(a.db.OpenSQL(), a.cfg.MigrationsPath, migrateRollback, a.logger)
		}

		if err := database.RunMigrations(a.db.OpenSQL(), a.cfg.MigrationsPath, a.logger); err != nil {
			return err
		}
		a.logger.Info("Migrations applied", zap.String("path", a.cfg.MigrationsPath))
		return nil
	}),
}

func init() {
	rootCmd.AddCommand(migrateCmd)

	migrateCmd.Flags().IntVar(&migrateRollback, "rollback", 0, "Roll back this many migrations instead of applying")
	migrateCmd.Flags().BoolVar(&migrateStatus, "status", false, "Print the current schema version")
}

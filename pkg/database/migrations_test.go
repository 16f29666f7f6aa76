//go:build integration

package database_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/database"
	"github.com/ekaya-inc/calibration-portal/pkg/testhelpers"
)

func Test_Migrations_Idempotent(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	path := testhelpers.MigrationsPath()

	// Already applied by the helper; a second run is a no-op.
	require.NoError(t, database.RunMigrations(portalDB.DB.OpenSQL(), path, zap.NewNop()))

	version, dirty, err := database.MigrationVersion(portalDB.DB.OpenSQL(), path, zap.NewNop())
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)
}

func Test_Migrations_MeasurementPageConstraint(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "calibration_reports")
	ctx := context.Background()

	var reportID int64
	require.NoError(t, portalDB.DB.Pool.QueryRow(ctx,
		"INSERT INTO calibration_reports (report_number) VALUES ('R') RETURNING id").Scan(&reportID))

	_, err := portalDB.DB.Pool.Exec(ctx,
		"INSERT INTO report_measurements (report_id, page_number, row_order) VALUES ($1, 5, 1)", reportID)
	require.Error(t, err, "only pages 3 and 4 carry measurements")

	_, err = portalDB.DB.Pool.Exec(ctx,
		"INSERT INTO report_measurements (report_id, page_number, row_order) VALUES ($1, 3, 0)", reportID)
	require.Error(t, err, "row order starts at 1")
}

func Test_WithScope_ReleasesConnection(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)

	before := portalDB.DB.Pool.Stat().AcquiredConns()

	ctx, cleanup, err := database.WithScope(context.Background(), portalDB.DB)
	require.NoError(t, err)

	scope, ok := database.GetScope(ctx)
	require.True(t, ok)
	require.NotNil(t, scope.Conn)
	assert.Equal(t, before+1, portalDB.DB.Pool.Stat().AcquiredConns())

	cleanup()
	assert.Equal(t, before, portalDB.DB.Pool.Stat().AcquiredConns())
}

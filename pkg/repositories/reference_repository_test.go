//go:build integration

package repositories

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/testhelpers"
)

func TestPersonnelRepository_CRUD(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "personnel")
	ctx := portalDB.Context(t)
	repo := NewPersonnelRepository()

	zed := &models.Personnel{Name: "Zed Diver", Role: "Technician"}
	amy := &models.Personnel{Name: "Amy Lab", Email: "amy@example.com"}
	require.NoError(t, repo.Create(ctx, zed))
	require.NoError(t, repo.Create(ctx, amy))

	list, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Amy Lab", list[0].Name, "ordered by name")

	amy.Role = "Metrologist"
	require.NoError(t, repo.Update(ctx, amy))
	got, err := repo.GetByID(ctx, amy.ID)
	require.NoError(t, err)
	assert.Equal(t, "Metrologist", got.Role)
	assert.Equal(t, "amy@example.com", got.Email)

	require.NoError(t, repo.Delete(ctx, zed.ID))
	_, err = repo.GetByID(ctx, zed.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, zed.ID), apperrors.ErrNotFound)
	assert.ErrorIs(t, repo.Update(ctx, &models.Personnel{ID: zed.ID, Name: "x"}), apperrors.ErrNotFound)
}

func TestPersonnelRepository_ListEmpty(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "personnel")
	ctx := portalDB.Context(t)

	list, err := NewPersonnelRepository().List(ctx)
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestSensorRepository_DuplicateSerial(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "sensors")
	ctx := portalDB.Context(t)
	repo := NewSensorRepository()

	first := &models.Sensor{SensorName: "CTD", SerialNumber: "DUP-1"}
	require.NoError(t, repo.Create(ctx, first))

	err := repo.Create(ctx, &models.Sensor{SensorName: "CTD 2", SerialNumber: "DUP-1"})
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	second := &models.Sensor{SensorName: "CTD 2", SerialNumber: "DUP-2"}
	require.NoError(t, repo.Create(ctx, second))
	second.SerialNumber = "DUP-1"
	assert.ErrorIs(t, repo.Update(ctx, second), apperrors.ErrConflict)
}

func TestSensorRepository_GetBySerialNumber(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "sensors")
	ctx := portalDB.Context(t)
	repo := NewSensorRepository()

	s := &models.Sensor{SensorName: "Thermistor", SerialNumber: "TH/42", SensorType: "temperature"}
	require.NoError(t, repo.Create(ctx, s))

	got, err := repo.GetBySerialNumber(ctx, "TH/42")
	require.NoError(t, err)
	assert.Equal(t, s.ID, got.ID)
	assert.Equal(t, "temperature", got.SensorType)

	_, err = repo.GetBySerialNumber(ctx, "nope")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestEquipmentRepository_GetByIDs(t *testing.T) {
	portalDB := testhelpers.GetPortalDB(t)
	portalDB.Truncate(t, "test_equipment")
	ctx := portalDB.Context(t)
	repo := NewEquipmentRepository()

	a := &models.Equipment{Instrument: "Bath"}
	b := &models.Equipment{Instrument: "Anemometer"}
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	got, err := repo.GetByIDs(ctx, []int64{a.ID, 999, b.ID})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, a.ID, got[0].ID, "request order is kept")
	assert.Equal(t, b.ID, got[1].ID)

	empty, err := repo.GetByIDs(ctx, []int64{})
	require.NoError(t, err)
	assert.Empty(t, empty)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Anemometer", list[0].Instrument)
}

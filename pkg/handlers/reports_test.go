package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
)

func newReportMux(svc *mockReportService) *http.ServeMux {
	mux := http.NewServeMux()
	NewReportHandler(svc, zap.NewNop()).RegisterRoutes(mux, passthrough)
	return mux
}

func TestReportHandler_Create_DecodesFlatBody(t *testing.T) {
	svc := &mockReportService{}
	mux := newReportMux(svc)

	body := `{
		"report_number": "CR-2024-001",
		"sensor_id": "7",
		"test_date": "2024-03-05",
		"status": "draft",
		"page3_as_received_g": -9.98,
		"page3_measurements": [{"inst_temp": 1.0, "reference_conductivity": "0.0", "inst_freq": "2900.1", "predicted_conductivity": "", "residual": ""}],
		"page4_measurements": []
	}`
	rec := serve(mux, http.MethodPost, "/api/reports", body)

	require.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, svc.received)
	assert.Equal(t, "CR-2024-001", svc.received.ReportNumber)
	require.NotNil(t, svc.received.SensorID)
	assert.Equal(t, int64(7), *svc.received.SensorID)
	assert.Equal(t, "-9.98", svc.received.AsReceived.Coefficients.G)
	require.Len(t, svc.received.AsReceived.Measurements, 1)
	assert.Equal(t, "1.0", svc.received.AsReceived.Measurements[0].InstTemp)

	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.EqualValues(t, 1, got["id"])
	assert.Equal(t, []any{}, got["page4_measurements"])
}

func TestReportHandler_Create_FailureCarriesDetails(t *testing.T) {
	svc := &mockReportService{err: errors.New(`invalid input syntax for type date: "tomorrow"`)}
	mux := newReportMux(svc)

	rec := serve(mux, http.MethodPost, "/api/reports", `{"test_date":"tomorrow"}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Failed to create report", body.Error)
	assert.Contains(t, body.Details, "tomorrow")
}

func TestReportHandler_Create_InvalidStatus(t *testing.T) {
	svc := &mockReportService{err: apperrors.NewValidationError("status", "Invalid status")}
	mux := newReportMux(svc)

	rec := serve(mux, http.MethodPost, "/api/reports", `{"status":"archived"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReportHandler_Create_MalformedJSON(t *testing.T) {
	svc := &mockReportService{}
	mux := newReportMux(svc)

	rec := serve(mux, http.MethodPost, "/api/reports", `{"report_number":`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, svc.received)
}

func TestReportHandler_Update(t *testing.T) {
	svc := &mockReportService{}
	mux := newReportMux(svc)

	rec := serve(mux, http.MethodPut, "/api/reports/12", `{"report_number":"CR-2","status":"completed"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ReportStatusCompleted, svc.received.Status)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.EqualValues(t, 12, got["id"])
}

func TestReportHandler_Update_NotFound(t *testing.T) {
	mux := newReportMux(&mockReportService{err: apperrors.ErrNotFound})

	rec := serve(mux, http.MethodPut, "/api/reports/12", `{}`)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Report not found", decodeErrorBody(t, rec).Error)
}

func TestReportHandler_Update_FailureCarriesDetails(t *testing.T) {
	mux := newReportMux(&mockReportService{err: errors.New("deadlock detected")})

	rec := serve(mux, http.MethodPut, "/api/reports/12", `{}`)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeErrorBody(t, rec)
	assert.Equal(t, "Failed to update report", body.Error)
	assert.Equal(t, "deadlock detected", body.Details)
}

func TestReportHandler_Get(t *testing.T) {
	report := &models.Report{ID: 3, ReportNumber: "CR-3"}
	report.Normalize()
	mux := newReportMux(&mockReportService{report: report})

	rec := serve(mux, http.MethodGet, "/api/reports/3", "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, "CR-3", got["report_number"])
	assert.Equal(t, []any{}, got["selected_equipment"])
}

func TestReportHandler_Get_NotFound(t *testing.T) {
	mux := newReportMux(&mockReportService{err: apperrors.ErrNotFound})

	rec := serve(mux, http.MethodGet, "/api/reports/3", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Report not found", decodeErrorBody(t, rec).Error)
}

func TestReportHandler_List_EmptyIsArray(t *testing.T) {
	mux := newReportMux(&mockReportService{})

	rec := serve(mux, http.MethodGet, "/api/reports", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestReportHandler_Delete(t *testing.T) {
	mux := newReportMux(&mockReportService{})

	rec := serve(mux, http.MethodDelete, "/api/reports/3", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Report deleted successfully"}`, rec.Body.String())
}

func TestReportHandler_Delete_NotFound(t *testing.T) {
	mux := newReportMux(&mockReportService{err: apperrors.ErrNotFound})

	rec := serve(mux, http.MethodDelete, "/api/reports/3", "")

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

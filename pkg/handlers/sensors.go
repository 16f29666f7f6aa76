package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

const msgDuplicateSerial = "Sensor with this serial number already exists"

// SensorHandler handles /api/sensors requests.
type SensorHandler struct {
	service services.SensorService
	logger  *zap.Logger
}

// NewSensorHandler creates a new sensor handler.
func NewSensorHandler(service services.SensorService, logger *zap.Logger) *SensorHandler {
	return &SensorHandler{service: service, logger: logger}
}

// RegisterRoutes registers the sensor routes on the given mux.
//
// /api/sensors/serial/{serialNumber} and /api/sensors/{id}/last-calibration
// overlap as ServeMux patterns, so both are served by Lookup.
func (h *SensorHandler) RegisterRoutes(mux *http.ServeMux, withConn ConnectionMiddleware) {
	base := "/api/sensors"

	mux.HandleFunc("GET "+base, withConn(h.List))
	mux.HandleFunc("GET "+base+"/{id}", withConn(h.Get))
	mux.HandleFunc("GET "+base+"/{key}/{sub}", withConn(h.Lookup))
	mux.HandleFunc("POST "+base, withConn(h.Create))
	mux.HandleFunc("PUT "+base+"/{id}", withConn(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", withConn(h.Delete))
}

// Lookup handles GET /api/sensors/serial/{serialNumber} and
// GET /api/sensors/{id}/last-calibration.
func (h *SensorHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	key, sub := r.PathValue("key"), r.PathValue("sub")
	switch {
	case key == "serial":
		r.SetPathValue("serialNumber", sub)
		h.GetBySerialNumber(w, r)
	case sub == "last-calibration":
		r.SetPathValue("id", key)
		h.LastCalibration(w, r)
	default:
		writeErrorResponse(w, h.logger, http.StatusNotFound, "Not found", "")
	}
}

// List handles GET /api/sensors
func (h *SensorHandler) List(w http.ResponseWriter, r *http.Request) {
	sensors, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch sensors", "")
		return
	}
	if sensors == nil {
		sensors = []*models.Sensor{}
	}
	writeJSON(w, h.logger, http.StatusOK, sensors)
}

// Get handles GET /api/sensors/{id}
func (h *SensorHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	sensor, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch sensor", "Sensor not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sensor)
}

// GetBySerialNumber handles GET /api/sensors/serial/{serialNumber}
func (h *SensorHandler) GetBySerialNumber(w http.ResponseWriter, r *http.Request) {
	serial := r.PathValue("serialNumber")

	sensor, err := h.service.GetBySerialNumber(r.Context(), serial)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch sensor", "Sensor not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, sensor)
}

// LastCalibration handles GET /api/sensors/{id}/last-calibration
func (h *SensorHandler) LastCalibration(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	last, err := h.service.LastCalibration(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch last calibration", "No previous calibration found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, last)
}

// Create handles POST /api/sensors
func (h *SensorHandler) Create(w http.ResponseWriter, r *http.Request) {
	var sensor models.Sensor
	if !decodeJSON(w, r, h.logger, &sensor) {
		return
	}

	created, err := h.service.Create(r.Context(), &sensor)
	if errors.Is(err, apperrors.ErrConflict) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, msgDuplicateSerial, "")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create sensor", "")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, created)
}

// Update handles PUT /api/sensors/{id}
func (h *SensorHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var sensor models.Sensor
	if !decodeJSON(w, r, h.logger, &sensor) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, &sensor)
	if errors.Is(err, apperrors.ErrConflict) {
		writeErrorResponse(w, h.logger, http.StatusBadRequest, msgDuplicateSerial, "")
		return
	}
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update sensor", "Sensor not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, updated)
}

// Delete handles DELETE /api/sensors/{id}
func (h *SensorHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete sensor", "Sensor not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.MessageResponse{Message: "Sensor deleted successfully"})
}

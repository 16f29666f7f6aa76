package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

// EquipmentHandler handles /api/equipment requests.
type EquipmentHandler struct {
	service services.EquipmentService
	logger  *zap.Logger
}

// NewEquipmentHandler creates a new equipment handler.
func NewEquipmentHandler(service services.EquipmentService, logger *zap.Logger) *EquipmentHandler {
	return &EquipmentHandler{service: service, logger: logger}
}

// RegisterRoutes registers the equipment routes on the given mux.
func (h *EquipmentHandler) RegisterRoutes(mux *http.ServeMux, withConn ConnectionMiddleware) {
	base := "/api/equipment"

	mux.HandleFunc("GET "+base, withConn(h.List))
	mux.HandleFunc("GET "+base+"/{id}", withConn(h.Get))
	mux.HandleFunc("POST "+base+"/batch", withConn(h.Batch))
	mux.HandleFunc("POST "+base, withConn(h.Create))
	mux.HandleFunc("PUT "+base+"/{id}", withConn(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", withConn(h.Delete))
}

// List handles GET /api/equipment
func (h *EquipmentHandler) List(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch equipment", "")
		return
	}
	if items == nil {
		items = []*models.Equipment{}
	}
	writeJSON(w, h.logger, http.StatusOK, items)
}

// Get handles GET /api/equipment/{id}
func (h *EquipmentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	item, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch equipment", "Equipment not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, item)
}

// Batch handles POST /api/equipment/batch
func (h *EquipmentHandler) Batch(w http.ResponseWriter, r *http.Request) {
	var req models.EquipmentBatchRequest
	if !decodeJSON(w, r, h.logger, &req) {
		return
	}

	items, err := h.service.Batch(r.Context(), &req)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch equipment", "")
		return
	}
	if items == nil {
		items = []*models.Equipment{}
	}
	writeJSON(w, h.logger, http.StatusOK, items)
}

// Create handles POST /api/equipment
func (h *EquipmentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var item models.Equipment
	if !decodeJSON(w, r, h.logger, &item) {
		return
	}

	created, err := h.service.Create(r.Context(), &item)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create equipment", "")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, created)
}

// Update handles PUT /api/equipment/{id}
func (h *EquipmentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var item models.Equipment
	if !decodeJSON(w, r, h.logger, &item) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, &item)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update equipment", "Equipment not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, updated)
}

// Delete handles DELETE /api/equipment/{id}
func (h *EquipmentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete equipment", "Equipment not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.MessageResponse{Message: "Equipment deleted successfully"})
}

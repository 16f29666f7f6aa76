package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

// PersonnelHandler handles /api/personnel requests.
type PersonnelHandler struct {
	service services.PersonnelService
	logger  *zap.Logger
}

// NewPersonnelHandler creates a new personnel handler.
func NewPersonnelHandler(service services.PersonnelService, logger *zap.Logger) *PersonnelHandler {
	return &PersonnelHandler{service: service, logger: logger}
}

// RegisterRoutes registers the personnel routes on the given mux.
func (h *PersonnelHandler) RegisterRoutes(mux *http.ServeMux, withConn ConnectionMiddleware) {
	base := "/api/personnel"

	mux.HandleFunc("GET "+base, withConn(h.List))
	mux.HandleFunc("GET "+base+"/{id}", withConn(h.Get))
	mux.HandleFunc("POST "+base, withConn(h.Create))
	mux.HandleFunc("PUT "+base+"/{id}", withConn(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", withConn(h.Delete))
}

// List handles GET /api/personnel
func (h *PersonnelHandler) List(w http.ResponseWriter, r *http.Request) {
	people, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch personnel", "")
		return
	}
	if people == nil {
		people = []*models.Personnel{}
	}
	writeJSON(w, h.logger, http.StatusOK, people)
}

// Get handles GET /api/personnel/{id}
func (h *PersonnelHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	p, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch personnel", "Personnel not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, p)
}

// Create handles POST /api/personnel
func (h *PersonnelHandler) Create(w http.ResponseWriter, r *http.Request) {
	var p models.Personnel
	if !decodeJSON(w, r, h.logger, &p) {
		return
	}

	created, err := h.service.Create(r.Context(), &p)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create personnel", "")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, created)
}

// Update handles PUT /api/personnel/{id}
func (h *PersonnelHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var p models.Personnel
	if !decodeJSON(w, r, h.logger, &p) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, &p)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update personnel", "Personnel not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, updated)
}

// Delete handles DELETE /api/personnel/{id}
func (h *PersonnelHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete personnel", "Personnel not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.MessageResponse{Message: "Personnel deleted successfully"})
}

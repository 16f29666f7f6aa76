package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/models"
	"github.com/ekaya-inc/calibration-portal/pkg/services"
)

// ReportHandler handles /api/reports requests.
type ReportHandler struct {
	service services.ReportService
	logger  *zap.Logger
}

// NewReportHandler creates a new report handler.
func NewReportHandler(service services.ReportService, logger *zap.Logger) *ReportHandler {
	return &ReportHandler{service: service, logger: logger}
}

// RegisterRoutes registers the report routes on the given mux.
func (h *ReportHandler) RegisterRoutes(mux *http.ServeMux, withConn ConnectionMiddleware) {
	base := "/api/reports"

	mux.HandleFunc("GET "+base, withConn(h.List))
	mux.HandleFunc("GET "+base+"/{id}", withConn(h.Get))
	mux.HandleFunc("POST "+base, withConn(h.Create))
	mux.HandleFunc("PUT "+base+"/{id}", withConn(h.Update))
	mux.HandleFunc("DELETE "+base+"/{id}", withConn(h.Delete))
}

// List handles GET /api/reports
func (h *ReportHandler) List(w http.ResponseWriter, r *http.Request) {
	reports, err := h.service.List(r.Context())
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch reports", "")
		return
	}
	if reports == nil {
		reports = []*models.ReportSummary{}
	}
	writeJSON(w, h.logger, http.StatusOK, reports)
}

// Get handles GET /api/reports/{id}
func (h *ReportHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	report, err := h.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to fetch report", "Report not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, report)
}

// Create handles POST /api/reports
func (h *ReportHandler) Create(w http.ResponseWriter, r *http.Request) {
	var report models.Report
	if !decodeJSON(w, r, h.logger, &report) {
		return
	}

	created, err := h.service.Create(r.Context(), &report)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to create report", "")
		return
	}
	writeJSON(w, h.logger, http.StatusCreated, created)
}

// Update handles PUT /api/reports/{id}
// The body replaces the stored report, including both measurement tables.
func (h *ReportHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	var report models.Report
	if !decodeJSON(w, r, h.logger, &report) {
		return
	}

	updated, err := h.service.Update(r.Context(), id, &report)
	if err != nil {
		writeServiceError(w, h.logger, err, "Failed to update report", "Report not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, updated)
}

// Delete handles DELETE /api/reports/{id}
func (h *ReportHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := ParseID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, h.logger, err, "Failed to delete report", "Report not found")
		return
	}
	writeJSON(w, h.logger, http.StatusOK, models.MessageResponse{Message: "Report deleted successfully"})
}

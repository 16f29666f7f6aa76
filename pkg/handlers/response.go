package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/ekaya-inc/calibration-portal/pkg/apperrors"
	"github.com/ekaya-inc/calibration-portal/pkg/logging"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 4 << 20

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ErrorResponse writes a JSON error response and returns any encoding error.
// details is omitted from the body when empty.
func ErrorResponse(w http.ResponseWriter, statusCode int, message, details string) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(ErrorBody{Error: message, Details: details})
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// writeJSON is WriteJSON with the encoding error logged.
func writeJSON(w http.ResponseWriter, logger *zap.Logger, statusCode int, data interface{}) {
	if err := WriteJSON(w, statusCode, data); err != nil {
		logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeErrorResponse is ErrorResponse with the encoding error logged.
func writeErrorResponse(w http.ResponseWriter, logger *zap.Logger, statusCode int, message, details string) {
	if err := ErrorResponse(w, statusCode, message, details); err != nil {
		logger.Error("Failed to write error response", zap.Error(err))
	}
}

// writeServiceError maps a service error onto the HTTP error contract:
// validation failures are 400 with the field message, ErrNotFound is 404
// with notFound, anything else is 500 with failure and sanitized details.
func writeServiceError(w http.ResponseWriter, logger *zap.Logger, err error, failure, notFound string) {
	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		writeErrorResponse(w, logger, http.StatusBadRequest, verr.Message, "")
	case errors.Is(err, apperrors.ErrNotFound) && notFound != "":
		writeErrorResponse(w, logger, http.StatusNotFound, notFound, "")
	default:
		logger.Error(failure, zap.Error(err))
		writeErrorResponse(w, logger, http.StatusInternalServerError, failure, logging.SanitizeError(err))
	}
}

// decodeJSON reads the request body into v. On failure it writes a 400 and
// returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeErrorResponse(w, logger, http.StatusBadRequest, "Invalid request body",
			fmt.Sprintf("failed to decode JSON: %v", err))
		return false
	}
	return true
}

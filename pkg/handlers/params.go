package handlers

import (
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// ParseID extracts the numeric {id} path parameter.
// Returns the id and true on success, or 0 and false after writing a 400.
func ParseID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (int64, bool) {
	return parseInt64(w, r, "id", logger)
}

func parseInt64(w http.ResponseWriter, r *http.Request, pathParam string, logger *zap.Logger) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue(pathParam), 10, 64)
	if err != nil || id <= 0 {
		writeErrorResponse(w, logger, http.StatusBadRequest, "Invalid ID", "")
		return 0, false
	}
	return id, true
}

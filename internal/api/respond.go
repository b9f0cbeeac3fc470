package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"academydb/internal/logger"
	"academydb/internal/service"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error.Printf("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unclassified errors are logged and collapsed to a generic 500.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrFieldsRequired),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrEmailTaken),
		errors.Is(err, service.ErrInvalidRole),
		errors.Is(err, service.ErrInvalidRefresh),
		errors.Is(err, service.ErrUnsupportedDriver):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotAssigned):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrInstanceNotFound),
		errors.Is(err, service.ErrQueryNotFound),
		errors.Is(err, service.ErrStudentNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	default:
		logger.Error.Printf("internal error: %v", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

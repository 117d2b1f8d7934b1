package internal

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"plant-maint-api/internal/gateway"
	"plant-maint-api/internal/sheet"
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: store transport
// failures become a blocking 502 telling the user to retry later, missing
// rows 404, everything else 500.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, sheet.ErrUnavailable):
		s.Log.Error("table store unavailable", zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": "the table store is unavailable; wait a moment and retry",
			"code":  "STORE_UNAVAILABLE",
		})
	case errors.Is(err, gateway.ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{
			"error": "not found",
			"code":  "NOT_FOUND",
		})
	default:
		s.Log.Error("request failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{
			"error": err.Error(),
			"code":  "INTERNAL",
		})
	}
}

// writeValidationError rejects bad user input; no write is attempted.
func writeValidationError(w http.ResponseWriter, field, message string) {
	writeJSON(w, http.StatusBadRequest, map[string]string{
		"error": message,
		"field": field,
		"code":  "VALIDATION_FAILED",
	})
}

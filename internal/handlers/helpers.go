package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"dose-tracker/internal/service"
)

// writeJSON encodes v as the JSON response body
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Failed to encode response: %v", err)
	}
}

// serviceError maps service errors onto HTTP status codes
func serviceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, service.ErrNameRequired),
		errors.Is(err, service.ErrInvalidTimesPerDay),
		errors.Is(err, service.ErrInvalidTotalDoses),
		errors.Is(err, service.ErrInvalidReminderHours),
		errors.Is(err, service.ErrInvalidTheme):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		log.Printf("Internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

package handlers

import (
	"encoding/json"
	"net/http"

	"dose-tracker/internal/models"
	"dose-tracker/internal/service"
)

// ThemeResponse carries the persisted theme preference
type ThemeResponse struct {
	Theme models.Theme `json:"theme"`
}

// HandleGetTheme returns the persisted light/dark preference
func HandleGetTheme(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		theme, err := svc.Theme()
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ThemeResponse{Theme: theme})
	}
}

// HandleSetTheme persists the light/dark preference
func HandleSetTheme(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ThemeResponse
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		if err := svc.SetTheme(req.Theme); err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, ThemeResponse{Theme: req.Theme})
	}
}

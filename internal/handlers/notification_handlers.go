package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"dose-tracker/internal/notify"
)

// HandleListNotifications returns recent reminders, newest first
func HandleListNotifications(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := 50
		if v := r.URL.Query().Get("limit"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > 500 {
				http.Error(w, "Invalid limit", http.StatusBadRequest)
				return
			}
			limit = n
		}

		reminders, err := notifier.Recent(limit)
		if err != nil {
			log.Printf("Failed to list reminders: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		if reminders == nil {
			reminders = []notify.Reminder{}
		}

		writeJSON(w, http.StatusOK, reminders)
	}
}

// HandleMarkNotificationRead marks one reminder as read
func HandleMarkNotificationRead(notifier *notify.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := notifier.MarkRead(chi.URLParam(r, "id")); err != nil {
			log.Printf("Failed to mark reminder read: %v", err)
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

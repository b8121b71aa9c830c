package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"dose-tracker/internal/service"
)

// MedicationRequest is the request body for creating or updating a
// medication. total_doses of -1 means indefinite.
type MedicationRequest struct {
	Name          string  `json:"name"`
	TimesPerDay   int     `json:"times_per_day"`
	TotalDoses    int     `json:"total_doses"`
	ReminderHours float64 `json:"reminder_hours"`
}

func (r MedicationRequest) params() service.MedicationParams {
	return service.MedicationParams{
		Name:          r.Name,
		TimesPerDay:   r.TimesPerDay,
		TotalDoses:    r.TotalDoses,
		ReminderHours: r.ReminderHours,
	}
}

// HandleListMedications returns all medications, sorted by name
func HandleListMedications(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, svc.List())
	}
}

// HandleCreateMedication creates a new medication with an empty dose log
func HandleCreateMedication(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		med, err := svc.Create(req.params())
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, med)
	}
}

// HandleGetMedication returns one medication by ID
func HandleGetMedication(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := svc.Get(chi.URLParam(r, "id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, med)
	}
}

// HandleUpdateMedication replaces the mutable fields of a medication
func HandleUpdateMedication(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req MedicationRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		med, err := svc.Update(chi.URLParam(r, "id"), req.params())
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, med)
	}
}

// HandleDeleteMedication removes a medication and its dose log
func HandleDeleteMedication(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := svc.Delete(chi.URLParam(r, "id")); err != nil {
			serviceError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleGetSummary returns the display projection for one medication
func HandleGetSummary(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sum, err := svc.Summarize(chi.URLParam(r, "id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, sum)
	}
}

// HandleRecordDose marks a dose taken now
func HandleRecordDose(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := svc.RecordDose(chi.URLParam(r, "id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, med)
	}
}

// HandleUndoDose removes the most recent dose event. Undo with an empty log
// succeeds without changing anything.
func HandleUndoDose(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		med, err := svc.UndoDose(chi.URLParam(r, "id"))
		if err != nil {
			serviceError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, med)
	}
}

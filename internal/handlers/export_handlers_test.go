package handlers

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"dose-tracker/internal/models"
	"dose-tracker/internal/notify"
	"dose-tracker/internal/service"
)

func TestHandleExportCSVDoses(t *testing.T) {
	env := setupTestEnv(t)
	med := createTestMedication(t, env, "Ibuprofen", 20)
	if _, err := env.svc.RecordDose(med.ID); err != nil {
		t.Fatalf("Failed to record dose: %v", err)
	}
	if _, err := env.svc.RecordDose(med.ID); err != nil {
		t.Fatalf("Failed to record dose: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/export/csv", nil)
	rr := httptest.NewRecorder()
	HandleExportCSV(env.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "text/csv" {
		t.Errorf("Content-Type = %q, want text/csv", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); !strings.Contains(cd, "attachment") {
		t.Errorf("Content-Disposition = %q, want attachment", cd)
	}

	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 dose rows, got %d rows", len(records))
	}
	if records[0][0] != "medication" || records[0][1] != "taken_at" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][0] != "Ibuprofen" {
		t.Errorf("row medication = %q, want Ibuprofen", records[1][0])
	}
	if _, err := time.Parse(time.RFC3339, records[1][1]); err != nil {
		t.Errorf("taken_at %q is not RFC3339: %v", records[1][1], err)
	}
}

func TestHandleExportCSVMedications(t *testing.T) {
	env := setupTestEnv(t)
	if _, err := env.svc.Create(service.MedicationParams{
		Name:        "Vitamin D",
		TimesPerDay: 1,
		TotalDoses:  models.TotalDosesIndefinite,
	}); err != nil {
		t.Fatalf("Failed to create medication: %v", err)
	}
	createTestMedication(t, env, "Ibuprofen", 20)

	req := httptest.NewRequest("GET", "/api/export/csv?type=medications", nil)
	rr := httptest.NewRecorder()
	HandleExportCSV(env.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	records, err := csv.NewReader(rr.Body).ReadAll()
	if err != nil {
		t.Fatalf("Failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header + 2 medication rows, got %d rows", len(records))
	}

	// Sorted by name: Ibuprofen first, then Vitamin D.
	if records[1][0] != "Ibuprofen" || records[1][2] != "20" {
		t.Errorf("unexpected Ibuprofen row: %v", records[1])
	}
	if records[2][0] != "Vitamin D" || records[2][2] != "indefinite" || records[2][5] != "indefinite" {
		t.Errorf("unexpected Vitamin D row: %v", records[2])
	}
}

func TestHandleExportPDF(t *testing.T) {
	env := setupTestEnv(t)
	med := createTestMedication(t, env, "Ibuprofen", 20)
	if _, err := env.svc.RecordDose(med.ID); err != nil {
		t.Fatalf("Failed to record dose: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/export/pdf", nil)
	rr := httptest.NewRecorder()
	HandleExportPDF(env.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200\nBody: %s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("Content-Type = %q, want application/pdf", ct)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Error("response body does not look like a PDF")
	}
}

func TestHandleExportPDFEmpty(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest("GET", "/api/export/pdf", nil)
	rr := httptest.NewRecorder()
	HandleExportPDF(env.svc).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 with no medications", rr.Code)
	}
	if !bytes.HasPrefix(rr.Body.Bytes(), []byte("%PDF")) {
		t.Error("response body does not look like a PDF")
	}
}

func TestHandleListNotifications(t *testing.T) {
	env := setupTestEnv(t)
	if _, err := env.notifier.FireNow("Ibuprofen"); err != nil {
		t.Fatalf("Failed to fire reminder: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	rr := httptest.NewRecorder()
	HandleListNotifications(env.notifier).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}

	var reminders []notify.Reminder
	if err := json.NewDecoder(rr.Body).Decode(&reminders); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 reminder, got %d", len(reminders))
	}
	if reminders[0].Title != "Ibuprofen" {
		t.Errorf("reminder title = %q, want Ibuprofen", reminders[0].Title)
	}
}

func TestHandleListNotificationsEmpty(t *testing.T) {
	env := setupTestEnv(t)

	req := httptest.NewRequest("GET", "/api/notifications", nil)
	rr := httptest.NewRecorder()
	HandleListNotifications(env.notifier).ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rr.Code)
	}
	// Empty list serializes as [], not null.
	if got := strings.TrimSpace(rr.Body.String()); got != "[]" {
		t.Errorf("body = %q, want []", got)
	}
}

func TestHandleListNotificationsInvalidLimit(t *testing.T) {
	env := setupTestEnv(t)

	for _, limit := range []string{"0", "-1", "abc", "1000"} {
		req := httptest.NewRequest("GET", "/api/notifications?limit="+limit, nil)
		rr := httptest.NewRecorder()
		HandleListNotifications(env.notifier).ServeHTTP(rr, req)

		if rr.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: status = %d, want 400", limit, rr.Code)
		}
	}
}

func TestHandleMarkNotificationRead(t *testing.T) {
	env := setupTestEnv(t)
	h, err := env.notifier.FireNow("Ibuprofen")
	if err != nil {
		t.Fatalf("Failed to fire reminder: %v", err)
	}

	req := withURLParam(httptest.NewRequest("PUT", "/api/notifications/"+string(h)+"/read", nil), "id", string(h))
	rr := httptest.NewRecorder()
	HandleMarkNotificationRead(env.notifier).ServeHTTP(rr, req)

	if rr.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rr.Code)
	}

	reminders, err := env.notifier.Recent(10)
	if err != nil {
		t.Fatalf("Failed to list reminders: %v", err)
	}
	if len(reminders) != 1 || !reminders[0].IsRead {
		t.Errorf("reminder should be marked read: %+v", reminders)
	}
}

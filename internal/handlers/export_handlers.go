package handlers

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/jung-kurt/gofpdf/v2"

	"dose-tracker/internal/ledger"
	"dose-tracker/internal/models"
	"dose-tracker/internal/service"
)

// HandleExportCSV writes the dose history of every medication as CSV.
// ?type=medications exports the medication list instead of the dose log.
func HandleExportCSV(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		meds := svc.List()

		var buf bytes.Buffer
		cw := csv.NewWriter(&buf)

		var err error
		if r.URL.Query().Get("type") == "medications" {
			err = writeMedicationsCSV(cw, meds)
		} else {
			err = writeDosesCSV(cw, meds)
		}
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to generate CSV: %v", err), http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("dose-history-%s.csv", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Write(buf.Bytes())
	}
}

func writeDosesCSV(cw *csv.Writer, meds []models.Medication) error {
	if err := cw.Write([]string{"medication", "taken_at"}); err != nil {
		return err
	}
	for _, med := range meds {
		for _, d := range med.DoseLogs {
			if err := cw.Write([]string{med.Name, d.At.Format(time.RFC3339)}); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func writeMedicationsCSV(cw *csv.Writer, meds []models.Medication) error {
	header := []string{"name", "times_per_day", "total_doses", "reminder_hours", "doses_taken", "remaining", "complete", "created_at"}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, med := range meds {
		total := strconv.Itoa(med.TotalDoses)
		remaining := strconv.Itoa(ledger.Remaining(med))
		if med.Indefinite() {
			total = "indefinite"
			remaining = "indefinite"
		}
		row := []string{
			med.Name,
			strconv.Itoa(med.TimesPerDay),
			total,
			strconv.FormatFloat(med.ReminderHours, 'f', -1, 64),
			strconv.Itoa(len(med.DoseLogs)),
			remaining,
			strconv.FormatBool(ledger.IsComplete(med)),
			med.CreatedAt.Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// HandleExportPDF generates a PDF report of every medication and its recent
// dose history.
func HandleExportPDF(svc *service.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pdfBytes, err := generatePDF(svc.List(), time.Now())
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to generate PDF: %v", err), http.StatusInternalServerError)
			return
		}

		filename := fmt.Sprintf("dose-history-%s.pdf", time.Now().Format("2006-01-02"))
		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
		w.Header().Set("Content-Length", strconv.Itoa(len(pdfBytes)))
		w.Write(pdfBytes)
	}
}

// recentDosesInPDF caps per-medication dose lines so one long-running
// medication cannot flood the report.
const recentDosesInPDF = 10

func generatePDF(meds []models.Medication, now time.Time) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Dose Tracker Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(0, 10, "Dose Tracker - Medication Report")
	pdf.Ln(8)
	pdf.SetFont("Helvetica", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Generated %s", now.Format("January 2, 2006 15:04")))
	pdf.Ln(10)

	for _, med := range meds {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.Cell(0, 7, med.Name)
		pdf.Ln(6)

		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 5, medicationConfigLine(med))
		pdf.Ln(5)
		pdf.Cell(0, 5, medicationProgressLine(med, now))
		pdf.Ln(6)

		if len(med.DoseLogs) > 0 {
			pdf.SetFont("Helvetica", "I", 9)
			pdf.Cell(0, 5, "Recent doses:")
			pdf.Ln(5)
			pdf.SetFont("Helvetica", "", 9)
			for i, d := range med.DoseLogs {
				if i >= recentDosesInPDF {
					pdf.Cell(0, 5, fmt.Sprintf("... and %d more", len(med.DoseLogs)-recentDosesInPDF))
					pdf.Ln(5)
					break
				}
				pdf.Cell(0, 5, d.At.Format("Jan 2, 2006 15:04"))
				pdf.Ln(4)
			}
		}
		pdf.Ln(5)
	}

	if len(meds) == 0 {
		pdf.SetFont("Helvetica", "", 10)
		pdf.Cell(0, 6, "No medications tracked.")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func medicationConfigLine(med models.Medication) string {
	total := "indefinite"
	if !med.Indefinite() {
		total = fmt.Sprintf("%d total", med.TotalDoses)
	}
	reminder := "no reminder"
	if med.ReminderEnabled() {
		reminder = fmt.Sprintf("reminder every %gh", med.ReminderHours)
	}
	return fmt.Sprintf("%dx per day, %s, %s", med.TimesPerDay, total, reminder)
}

func medicationProgressLine(med models.Medication, now time.Time) string {
	taken := len(med.DoseLogs)
	today := ledger.DosesToday(med, now)
	if med.Indefinite() {
		return fmt.Sprintf("%d taken (%d today)", taken, today)
	}
	if ledger.IsComplete(med) {
		if over := ledger.Overage(med); over > 0 {
			return fmt.Sprintf("complete, %d extra taken (%d today)", over, today)
		}
		return fmt.Sprintf("complete (%d today)", today)
	}
	return fmt.Sprintf("%d taken, %d left (%d today)", taken, ledger.Remaining(med), today)
}

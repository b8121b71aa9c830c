// Package ledger holds the pure dose-ledger operations: the two mutations
// that change a medication's dose log and the derivations the UI reads.
// Every function is total and operates on medication values, returning new
// values instead of mutating shared state.
package ledger

import (
	"fmt"
	"time"

	"dose-tracker/internal/models"
)

// RemainingIndefinite is returned by Remaining for medications with no
// lifetime dose limit.
const RemainingIndefinite = -1

// RecordDose returns med with a dose event at now prepended to its log.
// There is no precondition: doses past TotalDoses are tracked as overage,
// never blocked.
func RecordDose(med models.Medication, now time.Time) models.Medication {
	logs := make([]models.DoseEvent, 0, len(med.DoseLogs)+1)
	logs = append(logs, models.DoseEvent{At: now})
	logs = append(logs, med.DoseLogs...)
	med.DoseLogs = logs
	return med
}

// UndoDose returns med with its most recent dose event removed. Undo on an
// empty log is a silent no-op, not an error.
func UndoDose(med models.Medication) models.Medication {
	if len(med.DoseLogs) == 0 {
		return med
	}
	med.DoseLogs = med.DoseLogs[1:]
	return med
}

// Remaining returns how many doses are left before the configured total, never
// negative. Indefinite medications always report RemainingIndefinite.
func Remaining(med models.Medication) int {
	if med.Indefinite() {
		return RemainingIndefinite
	}
	if left := med.TotalDoses - len(med.DoseLogs); left > 0 {
		return left
	}
	return 0
}

// IsComplete reports whether a bounded medication has reached its total.
// Indefinite medications are never complete.
func IsComplete(med models.Medication) bool {
	if med.Indefinite() {
		return false
	}
	return len(med.DoseLogs) >= med.TotalDoses
}

// Overage returns how many doses were taken past the configured total, or 0
// for incomplete or indefinite medications.
func Overage(med models.Medication) int {
	if med.Indefinite() || len(med.DoseLogs) < med.TotalDoses {
		return 0
	}
	return len(med.DoseLogs) - med.TotalDoses
}

// DosesToday counts dose events at or after local midnight of the day
// containing now. The log is small, so this is recomputed on demand rather
// than cached; the day boundary moves with the wall clock.
func DosesToday(med models.Medication, now time.Time) int {
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	count := 0
	for _, d := range med.DoseLogs {
		if !d.At.Before(start) {
			count++
		}
	}
	return count
}

// LastDose returns the most recent dose event, if any.
func LastDose(med models.Medication) (models.DoseEvent, bool) {
	if len(med.DoseLogs) == 0 {
		return models.DoseEvent{}, false
	}
	return med.DoseLogs[0], true
}

// ElapsedSince renders the time elapsed between t and now for display:
// hours+minutes past one hour, minutes+seconds past one minute, plain seconds
// below that.
func ElapsedSince(t, now time.Time) string {
	s := int(now.Sub(t).Seconds())
	if s < 0 {
		s = 0
	}
	h := s / 3600
	m := (s % 3600) / 60
	sec := s % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %ds", m, sec)
	}
	return fmt.Sprintf("%ds", sec)
}

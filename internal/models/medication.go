package models

import "time"

// TotalDosesIndefinite is the sentinel TotalDoses value for a medication with
// no upper bound on lifetime doses.
const TotalDosesIndefinite = -1

// DoseEvent records one instant a dose was marked taken. Events carry no
// identity beyond their position in the log; two events may share a timestamp.
type DoseEvent struct {
	At time.Time `json:"at"`
}

// Medication represents one tracked dosing regimen.
//
// DoseLogs is ordered newest-first. Insertion always prepends, so the ordering
// holds by construction and is never re-sorted.
type Medication struct {
	ID            string      `json:"id"`
	Name          string      `json:"name"`
	TimesPerDay   int         `json:"times_per_day"`
	TotalDoses    int         `json:"total_doses"`
	ReminderHours float64     `json:"reminder_hours"`
	DoseLogs      []DoseEvent `json:"dose_logs"`
	CreatedAt     time.Time   `json:"created_at"`
}

// Indefinite reports whether the medication has no lifetime dose limit.
func (m *Medication) Indefinite() bool {
	return m.TotalDoses == TotalDosesIndefinite
}

// ReminderEnabled reports whether a reminder interval is configured.
func (m *Medication) ReminderEnabled() bool {
	return m.ReminderHours > 0
}

// Clone returns a deep copy so callers can hand out medication values without
// sharing the underlying dose log slice.
func (m *Medication) Clone() Medication {
	out := *m
	if m.DoseLogs != nil {
		out.DoseLogs = make([]DoseEvent, len(m.DoseLogs))
		copy(out.DoseLogs, m.DoseLogs)
	}
	return out
}

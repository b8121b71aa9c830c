// Package scheduler keeps each medication's pending reminder consistent with
// its reminder interval and dose history. It guarantees at most one pending
// reminder per medication: scheduling always supersedes the previous handle.
package scheduler

import (
	"log"
	"sync"
	"time"

	"dose-tracker/internal/ledger"
	"dose-tracker/internal/models"
)

// Handle identifies one scheduled notification at the backend. It is opaque to
// the scheduler.
type Handle string

// Backend is the platform notification primitive: one-shot alerts after a
// delay, immediate alerts, and cancellation by handle. Implementations clamp
// the delay to whole seconds, minimum one.
type Backend interface {
	Schedule(title string, delay time.Duration) (Handle, error)
	Cancel(h Handle) error
	FireNow(title string) (Handle, error)
}

// Scheduler reacts to ledger mutations by scheduling, superseding, and
// canceling reminders. Pending handles live only in memory, keyed by
// medication ID; they are not part of the persisted medication record.
type Scheduler struct {
	mu      sync.Mutex
	backend Backend
	pending map[string]Handle
	now     func() time.Time
}

func New(backend Backend) *Scheduler {
	return &Scheduler{
		backend: backend,
		pending: make(map[string]Handle),
		now:     time.Now,
	}
}

// DoseRecorded supersedes any pending reminder and schedules a new one at
// reminderHours past the just-recorded dose. With no interval configured it
// only cancels.
func (s *Scheduler) DoseRecorded(med models.Medication) {
	s.reschedule(med)
}

// DoseUndone cancels the reminder when the log became empty, otherwise
// reschedules relative to the new most recent dose so no stale timer is left
// counting from the removed event.
func (s *Scheduler) DoseUndone(med models.Medication) {
	s.reschedule(med)
}

// MedicationEdited re-derives the reminder from the new settings: interval
// zeroed cancels; a non-zero interval reschedules from the last dose. With no
// dose history there is nothing to count from, so nothing is scheduled.
func (s *Scheduler) MedicationEdited(med models.Medication) {
	s.reschedule(med)
}

// MedicationDeleted cancels any pending reminder and discards the
// per-medication state.
func (s *Scheduler) MedicationDeleted(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelLocked(id)
}

// HasPending reports whether a reminder is outstanding for the medication.
func (s *Scheduler) HasPending(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.pending[id]
	return ok
}

// reschedule is the single reaction rule: cancel whatever is pending, then
// schedule from the last dose if an interval is configured and a dose exists.
func (s *Scheduler) reschedule(med models.Medication) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cancelLocked(med.ID)

	if !med.ReminderEnabled() {
		return
	}
	last, ok := ledger.LastDose(med)
	if !ok {
		return
	}

	interval := time.Duration(med.ReminderHours * float64(time.Hour))
	delay := last.At.Add(interval).Sub(s.now())

	h, err := s.backend.Schedule(med.Name, delay)
	if err != nil {
		// Best effort: a missed reminder never fails the ledger mutation
		// that triggered it.
		log.Printf("Failed to schedule reminder for %s: %v", med.Name, err)
		return
	}
	s.pending[med.ID] = h
}

func (s *Scheduler) cancelLocked(id string) {
	h, ok := s.pending[id]
	if !ok {
		return
	}
	delete(s.pending, id)
	if err := s.backend.Cancel(h); err != nil {
		log.Printf("Failed to cancel reminder %s: %v", h, err)
	}
}

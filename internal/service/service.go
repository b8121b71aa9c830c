// Package service owns the in-memory medication collection and applies every
// mutation to it synchronously, then dispatches the side effects of each
// mutation (reminder scheduling, persistence) asynchronously in mutation
// order. Side effects never block or roll back the mutation that caused them.
package service

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"dose-tracker/internal/ledger"
	"dose-tracker/internal/models"
	"dose-tracker/internal/scheduler"
)

var (
	ErrNotFound             = errors.New("medication not found")
	ErrNameRequired         = errors.New("name is required")
	ErrInvalidTimesPerDay   = errors.New("times_per_day must be at least 1")
	ErrInvalidTotalDoses    = errors.New("total_doses must be at least 1, or -1 for indefinite")
	ErrInvalidReminderHours = errors.New("reminder_hours must not be negative")
	ErrInvalidTheme         = errors.New("theme must be light or dark")
)

// Store is the persistence boundary: load once at startup, save the whole
// collection after every mutation.
type Store interface {
	LoadMedications() ([]models.Medication, error)
	SaveMedications([]models.Medication) error
	Theme() (models.Theme, error)
	SaveTheme(models.Theme) error
}

// MedicationParams carries the mutable fields for create and update.
type MedicationParams struct {
	Name          string
	TimesPerDay   int
	TotalDoses    int
	ReminderHours float64
}

// Summary is the read-only projection the UI consumes for one medication.
type Summary struct {
	Remaining     int        `json:"remaining"` // -1 when indefinite
	Indefinite    bool       `json:"indefinite"`
	DosesToday    int        `json:"doses_today"`
	TimesPerDay   int        `json:"times_per_day"`
	Complete      bool       `json:"complete"`
	Overage       int        `json:"overage"`
	LastDoseAt    *time.Time `json:"last_dose_at,omitempty"`
	SinceLastDose string     `json:"since_last_dose,omitempty"`
}

type Service struct {
	store Store
	sched *scheduler.Scheduler
	now   func() time.Time

	mu   sync.Mutex
	meds []models.Medication

	effects chan func()
	done    chan struct{}
}

// New loads the persisted collection and starts the effects worker.
func New(store Store, sched *scheduler.Scheduler) (*Service, error) {
	meds, err := store.LoadMedications()
	if err != nil {
		return nil, err
	}

	s := &Service{
		store:   store,
		sched:   sched,
		now:     time.Now,
		meds:    meds,
		effects: make(chan func(), 256),
		done:    make(chan struct{}),
	}
	go s.runEffects()
	return s, nil
}

func (s *Service) runEffects() {
	defer close(s.done)
	for fn := range s.effects {
		fn()
	}
}

// Close drains the pending side effects and stops the worker.
func (s *Service) Close() {
	close(s.effects)
	<-s.done
}

// List returns the collection sorted by name, the order the original client
// rendered.
func (s *Service) List() []models.Medication {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Medication, 0, len(s.meds))
	for i := range s.meds {
		out = append(out, s.meds[i].Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// Get returns one medication by ID.
func (s *Service) Get(id string) (models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Medication{}, ErrNotFound
	}
	return s.meds[i].Clone(), nil
}

// Summarize returns the display projection for one medication.
func (s *Service) Summarize(id string) (Summary, error) {
	med, err := s.Get(id)
	if err != nil {
		return Summary{}, err
	}

	now := s.now()
	sum := Summary{
		Remaining:   ledger.Remaining(med),
		Indefinite:  med.Indefinite(),
		DosesToday:  ledger.DosesToday(med, now),
		TimesPerDay: med.TimesPerDay,
		Complete:    ledger.IsComplete(med),
		Overage:     ledger.Overage(med),
	}
	if last, ok := ledger.LastDose(med); ok {
		at := last.At
		sum.LastDoseAt = &at
		sum.SinceLastDose = ledger.ElapsedSince(last.At, now)
	}
	return sum, nil
}

// Create adds a new medication with an empty dose log. Identity (ID and
// CreatedAt) is assigned here and never changes.
func (s *Service) Create(p MedicationParams) (models.Medication, error) {
	if err := validate(p); err != nil {
		return models.Medication{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	med := models.Medication{
		ID:            uuid.NewString(),
		Name:          strings.TrimSpace(p.Name),
		TimesPerDay:   p.TimesPerDay,
		TotalDoses:    p.TotalDoses,
		ReminderHours: p.ReminderHours,
		DoseLogs:      []models.DoseEvent{},
		CreatedAt:     s.now(),
	}
	s.meds = append(s.meds, med)

	s.persistLocked()
	return med.Clone(), nil
}

// Update replaces the mutable fields of a medication. The dose log and
// identity are untouched.
func (s *Service) Update(id string, p MedicationParams) (models.Medication, error) {
	if err := validate(p); err != nil {
		return models.Medication{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Medication{}, ErrNotFound
	}

	s.meds[i].Name = strings.TrimSpace(p.Name)
	s.meds[i].TimesPerDay = p.TimesPerDay
	s.meds[i].TotalDoses = p.TotalDoses
	s.meds[i].ReminderHours = p.ReminderHours

	updated := s.meds[i].Clone()
	s.enqueueLocked(func() { s.sched.MedicationEdited(updated) })
	s.persistLocked()
	return updated, nil
}

// Delete removes a medication and its whole dose log, and cancels any pending
// reminder for it.
func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return ErrNotFound
	}
	s.meds = append(s.meds[:i], s.meds[i+1:]...)

	s.enqueueLocked(func() { s.sched.MedicationDeleted(id) })
	s.persistLocked()
	return nil
}

// RecordDose appends a dose-taken event at the current instant. Always
// succeeds for a known medication; doses past the total count as overage.
func (s *Service) RecordDose(id string) (models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Medication{}, ErrNotFound
	}

	s.meds[i] = ledger.RecordDose(s.meds[i], s.now())

	updated := s.meds[i].Clone()
	s.enqueueLocked(func() { s.sched.DoseRecorded(updated) })
	s.persistLocked()
	return updated, nil
}

// UndoDose removes the most recent dose event. Undo on an empty log changes
// nothing and dispatches no side effects.
func (s *Service) UndoDose(id string) (models.Medication, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := s.indexLocked(id)
	if i < 0 {
		return models.Medication{}, ErrNotFound
	}
	if len(s.meds[i].DoseLogs) == 0 {
		return s.meds[i].Clone(), nil
	}

	s.meds[i] = ledger.UndoDose(s.meds[i])

	updated := s.meds[i].Clone()
	s.enqueueLocked(func() { s.sched.DoseUndone(updated) })
	s.persistLocked()
	return updated, nil
}

// Theme returns the persisted theme preference.
func (s *Service) Theme() (models.Theme, error) {
	return s.store.Theme()
}

// SetTheme validates and persists the theme preference.
func (s *Service) SetTheme(theme models.Theme) error {
	if !theme.Valid() {
		return ErrInvalidTheme
	}
	return s.store.SaveTheme(theme)
}

// Flush blocks until every side effect enqueued so far has run.
func (s *Service) Flush() {
	done := make(chan struct{})
	s.effects <- func() { close(done) }
	<-done
}

// indexLocked returns the position of id in the collection, or -1.
func (s *Service) indexLocked(id string) int {
	for i := range s.meds {
		if s.meds[i].ID == id {
			return i
		}
	}
	return -1
}

// persistLocked snapshots the collection and enqueues the save. Enqueueing
// while the mutation lock is held keeps side effects in mutation order.
func (s *Service) persistLocked() {
	snapshot := make([]models.Medication, 0, len(s.meds))
	for i := range s.meds {
		snapshot = append(snapshot, s.meds[i].Clone())
	}
	s.enqueueLocked(func() {
		if err := s.store.SaveMedications(snapshot); err != nil {
			log.Printf("Failed to save medications: %v", err)
		}
	})
}

func (s *Service) enqueueLocked(fn func()) {
	s.effects <- fn
}

func validate(p MedicationParams) error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrNameRequired
	}
	if p.TimesPerDay < 1 {
		return ErrInvalidTimesPerDay
	}
	if p.TotalDoses < 1 && p.TotalDoses != models.TotalDosesIndefinite {
		return ErrInvalidTotalDoses
	}
	if p.ReminderHours < 0 {
		return ErrInvalidReminderHours
	}
	return nil
}

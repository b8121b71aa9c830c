// Package notify is the platform notification backend: one-shot alerts
// scheduled N seconds out, backed by the reminders table and delivered by an
// in-process dispatcher. Callers treat every operation as fire-and-forget.
package notify

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"dose-tracker/internal/database"
	"dose-tracker/internal/scheduler"
)

// reminderBody matches the fixed body the original client attached to every
// reminder.
const reminderBody = "Time to take your dose"

// Reminder statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
	StatusCanceled  = "canceled"
)

// Service schedules, cancels, and delivers reminders. It implements
// scheduler.Backend.
type Service struct {
	db   *database.DB
	now  func() time.Time
	wake chan struct{}

	mu      sync.Mutex
	stop    chan struct{}
	stopped chan struct{}
}

func New(db *database.DB) *Service {
	return &Service{
		db:   db,
		now:  time.Now,
		wake: make(chan struct{}, 1),
	}
}

// Schedule inserts a pending reminder due after delay, clamped to whole
// seconds with a one second minimum, and returns its handle.
func (s *Service) Schedule(title string, delay time.Duration) (scheduler.Handle, error) {
	seconds := int64(delay / time.Second)
	if seconds < 1 {
		seconds = 1
	}

	id := uuid.NewString()
	deliverAt := s.now().Add(time.Duration(seconds) * time.Second)

	query := `
		INSERT INTO reminders (id, title, body, deliver_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, id, title, reminderBody, deliverAt, StatusPending, s.now())
	if err != nil {
		return "", fmt.Errorf("failed to schedule reminder: %w", err)
	}

	s.notifyDispatcher()
	return scheduler.Handle(id), nil
}

// Cancel marks a pending reminder canceled. Canceling a handle that already
// fired or was superseded is a no-op.
func (s *Service) Cancel(h scheduler.Handle) error {
	query := `UPDATE reminders SET status = ? WHERE id = ? AND status = ?`
	_, err := s.db.Exec(query, StatusCanceled, string(h), StatusPending)
	if err != nil {
		return fmt.Errorf("failed to cancel reminder: %w", err)
	}
	return nil
}

// FireNow records an immediately delivered reminder.
func (s *Service) FireNow(title string) (scheduler.Handle, error) {
	id := uuid.NewString()
	now := s.now()

	query := `
		INSERT INTO reminders (id, title, body, deliver_at, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`
	_, err := s.db.Exec(query, id, title, reminderBody, now, StatusDelivered, now)
	if err != nil {
		return "", fmt.Errorf("failed to fire reminder: %w", err)
	}

	log.Printf("Reminder: %s - %s", title, reminderBody)
	return scheduler.Handle(id), nil
}

// Start launches the dispatcher goroutine. Stop shuts it down.
func (s *Service) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.stopped = make(chan struct{})
	go s.run(s.stop, s.stopped)
}

func (s *Service) Stop() {
	s.mu.Lock()
	stop, stopped := s.stop, s.stopped
	s.stop, s.stopped = nil, nil
	s.mu.Unlock()

	if stop != nil {
		close(stop)
		<-stopped
	}
}

func (s *Service) notifyDispatcher() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// run delivers due reminders, sleeping until the next pending one. A schedule
// call wakes it early so a short delay never waits out a long timer.
func (s *Service) run(stop, stopped chan struct{}) {
	defer close(stopped)

	for {
		if _, err := s.DeliverDue(s.now()); err != nil {
			log.Printf("Failed to deliver due reminders: %v", err)
		}

		wait := time.Minute
		if next, ok, err := s.nextDeliverAt(); err != nil {
			log.Printf("Failed to read next reminder time: %v", err)
		} else if ok {
			if until := next.Sub(s.now()); until < wait {
				wait = until
			}
		}
		if wait < time.Second {
			wait = time.Second
		}

		timer := time.NewTimer(wait)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
		case <-timer.C:
		}
	}
}

// DeliverDue marks every pending reminder due at or before now as delivered
// and logs it. Returns how many fired.
func (s *Service) DeliverDue(now time.Time) (int, error) {
	rows, err := s.db.Query(
		`SELECT id, title, body FROM reminders WHERE status = ? AND deliver_at <= ?`,
		StatusPending, now,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to query due reminders: %w", err)
	}
	defer rows.Close()

	type due struct {
		id, title, body string
	}
	var dueList []due
	for rows.Next() {
		var d due
		if err := rows.Scan(&d.id, &d.title, &d.body); err != nil {
			return 0, fmt.Errorf("failed to scan reminder: %w", err)
		}
		dueList = append(dueList, d)
	}
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("error iterating reminders: %w", err)
	}

	delivered := 0
	for _, d := range dueList {
		result, err := s.db.Exec(
			`UPDATE reminders SET status = ? WHERE id = ? AND status = ?`,
			StatusDelivered, d.id, StatusPending,
		)
		if err != nil {
			log.Printf("Failed to mark reminder %s delivered: %v", d.id, err)
			continue
		}
		if n, _ := result.RowsAffected(); n == 0 {
			continue
		}
		log.Printf("Reminder: %s - %s", d.title, d.body)
		delivered++
	}

	return delivered, nil
}

func (s *Service) nextDeliverAt() (time.Time, bool, error) {
	var next time.Time
	err := s.db.QueryRow(
		`SELECT deliver_at FROM reminders WHERE status = ? ORDER BY deliver_at LIMIT 1`,
		StatusPending,
	).Scan(&next)
	if err == sql.ErrNoRows {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	return next, true, nil
}

// Reminder is one row of reminder history.
type Reminder struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	DeliverAt time.Time `json:"deliver_at"`
	Status    string    `json:"status"`
	IsRead    bool      `json:"is_read"`
	CreatedAt time.Time `json:"created_at"`
}

// Recent returns the most recent reminders, newest first.
func (s *Service) Recent(limit int) ([]Reminder, error) {
	rows, err := s.db.Query(
		`SELECT id, title, body, deliver_at, status, is_read, created_at
		 FROM reminders ORDER BY deliver_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []Reminder
	for rows.Next() {
		var r Reminder
		if err := rows.Scan(&r.ID, &r.Title, &r.Body, &r.DeliverAt, &r.Status, &r.IsRead, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan reminder: %w", err)
		}
		reminders = append(reminders, r)
	}

	return reminders, rows.Err()
}

// MarkRead marks a delivered reminder read.
func (s *Service) MarkRead(id string) error {
	_, err := s.db.Exec(`UPDATE reminders SET is_read = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to mark reminder read: %w", err)
	}
	return nil
}

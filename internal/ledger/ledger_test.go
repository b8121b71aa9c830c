package ledger

import (
	"testing"
	"time"

	"dose-tracker/internal/models"
)

func boundedMed(total int) models.Medication {
	return models.Medication{
		ID:          "med-1",
		Name:        "Amoxicillin",
		TimesPerDay: 3,
		TotalDoses:  total,
		DoseLogs:    []models.DoseEvent{},
		CreatedAt:   time.Now(),
	}
}

func indefiniteMed() models.Medication {
	return boundedMed(models.TotalDosesIndefinite)
}

func TestRecordDoseBoundedCounts(t *testing.T) {
	const total = 5
	med := boundedMed(total)
	now := time.Now()

	for k := 1; k <= total+2; k++ {
		med = RecordDose(med, now)

		wantRemaining := total - k
		if wantRemaining < 0 {
			wantRemaining = 0
		}
		if got := Remaining(med); got != wantRemaining {
			t.Errorf("after %d doses: Remaining = %d, want %d", k, got, wantRemaining)
		}
		if got, want := IsComplete(med), k >= total; got != want {
			t.Errorf("after %d doses: IsComplete = %v, want %v", k, got, want)
		}
	}
}

func TestRecordDosePrependsNewestFirst(t *testing.T) {
	med := boundedMed(10)
	t0 := time.Now()
	med = RecordDose(med, t0)
	med = RecordDose(med, t0.Add(time.Minute))

	if len(med.DoseLogs) != 2 {
		t.Fatalf("expected 2 dose logs, got %d", len(med.DoseLogs))
	}
	if !med.DoseLogs[0].At.After(med.DoseLogs[1].At) {
		t.Error("dose logs should be ordered newest first")
	}
}

func TestIndefiniteNeverCompletes(t *testing.T) {
	med := indefiniteMed()
	now := time.Now()

	for i := 0; i < 100; i++ {
		med = RecordDose(med, now)
	}

	if got := Remaining(med); got != RemainingIndefinite {
		t.Errorf("Remaining = %d, want RemainingIndefinite", got)
	}
	if IsComplete(med) {
		t.Error("indefinite medication should never be complete")
	}
	if got := Overage(med); got != 0 {
		t.Errorf("Overage = %d, want 0 for indefinite medication", got)
	}
}

func TestUndoDoseEmptyIsNoOp(t *testing.T) {
	med := boundedMed(3)
	got := UndoDose(med)

	if len(got.DoseLogs) != 0 {
		t.Errorf("expected empty dose logs, got %d entries", len(got.DoseLogs))
	}
	if got.ID != med.ID || got.Name != med.Name {
		t.Error("undo on empty ledger should leave medication unchanged")
	}
}

func TestRecordThenUndoRestoresLedger(t *testing.T) {
	med := boundedMed(3)
	now := time.Now()
	med = RecordDose(med, now)
	med = RecordDose(med, now.Add(time.Minute))

	before := len(med.DoseLogs)
	med = RecordDose(med, now.Add(2*time.Minute))
	med = UndoDose(med)

	if len(med.DoseLogs) != before {
		t.Errorf("record followed by undo should restore length %d, got %d", before, len(med.DoseLogs))
	}
	if !med.DoseLogs[0].At.Equal(now.Add(time.Minute)) {
		t.Error("undo should remove exactly the most recent event")
	}
}

func TestOverageScenario(t *testing.T) {
	med := boundedMed(3)
	med.ReminderHours = 0
	now := time.Now()

	for i := 0; i < 3; i++ {
		med = RecordDose(med, now)
	}

	if got := Remaining(med); got != 0 {
		t.Errorf("Remaining = %d, want 0", got)
	}
	if !IsComplete(med) {
		t.Error("expected medication to be complete after 3 of 3 doses")
	}
	if got := Overage(med); got != 0 {
		t.Errorf("Overage = %d, want 0", got)
	}

	med = RecordDose(med, now)

	if got := Overage(med); got != 1 {
		t.Errorf("Overage = %d, want 1 after a 4th dose", got)
	}
	if !IsComplete(med) {
		t.Error("medication should stay complete after overage")
	}
}

func TestDosesTodayMidnightBoundary(t *testing.T) {
	// now is just past midnight; a dose at 23:59:59 yesterday must not count.
	now := time.Date(2024, 3, 15, 0, 0, 1, 0, time.Local)
	yesterday := time.Date(2024, 3, 14, 23, 59, 59, 0, time.Local)
	midnight := time.Date(2024, 3, 15, 0, 0, 0, 0, time.Local)

	med := boundedMed(30)
	med.DoseLogs = []models.DoseEvent{
		{At: now},
		{At: midnight},
		{At: yesterday},
	}

	if got := DosesToday(med, now); got != 2 {
		t.Errorf("DosesToday = %d, want 2 (midnight is inclusive, yesterday excluded)", got)
	}
}

func TestDosesTodayEmptyLedger(t *testing.T) {
	med := boundedMed(3)
	if got := DosesToday(med, time.Now()); got != 0 {
		t.Errorf("DosesToday = %d, want 0", got)
	}
}

func TestLastDose(t *testing.T) {
	med := boundedMed(3)

	if _, ok := LastDose(med); ok {
		t.Error("LastDose should report no dose for an empty ledger")
	}

	first := time.Now()
	second := first.Add(time.Hour)
	med = RecordDose(med, first)
	med = RecordDose(med, second)

	last, ok := LastDose(med)
	if !ok {
		t.Fatal("LastDose should find the most recent dose")
	}
	if !last.At.Equal(second) {
		t.Errorf("LastDose at %v, want %v", last.At, second)
	}
}

func TestElapsedSince(t *testing.T) {
	now := time.Now()

	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"seconds only", 42 * time.Second, "42s"},
		{"zero", 0, "0s"},
		{"minutes and seconds", 5*time.Minute + 10*time.Second, "5m 10s"},
		{"just under an hour", 59*time.Minute + 59*time.Second, "59m 59s"},
		{"hours and minutes", 3*time.Hour + 12*time.Minute + 30*time.Second, "3h 12m"},
		{"exactly one hour", time.Hour, "1h 0m"},
		{"future timestamp clamps to zero", -time.Minute, "0s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ElapsedSince(now.Add(-tt.elapsed), now); got != tt.want {
				t.Errorf("ElapsedSince = %q, want %q", got, tt.want)
			}
		})
	}
}

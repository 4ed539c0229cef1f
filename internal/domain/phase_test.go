package domain

import (
	"errors"
	"testing"
)

func boundedPhase(t *testing.T) *Phase {
	t.Helper()
	phase, err := NewPhase("phase-1", "schedule-1", "Summer", "2024-06-01", "2024-08-31", nil)
	if err != nil {
		t.Fatalf("failed to build phase: %v", err)
	}
	return phase
}

func TestNewPhase_Validation(t *testing.T) {
	t.Parallel()

	if _, err := NewPhase("", "schedule-1", "Summer", "", "", nil); !errors.Is(err, ErrPhaseIDRequired) {
		t.Fatalf("expected ErrPhaseIDRequired, got %v", err)
	}
	if _, err := NewPhase("phase-1", "", "Summer", "", "", nil); !errors.Is(err, ErrPhaseScheduleIDRequired) {
		t.Fatalf("expected ErrPhaseScheduleIDRequired, got %v", err)
	}
	if _, err := NewPhase("phase-1", "schedule-1", "Summer", "2024-08-31", "2024-06-01", nil); !errors.Is(err, ErrPhaseDateOrder) {
		t.Fatalf("expected ErrPhaseDateOrder, got %v", err)
	}
	if _, err := NewPhase("phase-1", "schedule-1", "Summer", "2024-06-01", "2024-06-01", nil); !errors.Is(err, ErrPhaseDateOrder) {
		t.Fatalf("equal bounds must be rejected, got %v", err)
	}
	if _, err := NewPhase("phase-1", "schedule-1", "Summer", "junk", "", nil); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestPhase_IsActive_InclusiveBounds(t *testing.T) {
	t.Parallel()

	phase := boundedPhase(t)

	cases := []struct {
		date string
		want bool
	}{
		{"2024-05-31", false},
		{"2024-06-01", true},
		{"2024-07-15", true},
		{"2024-08-31", true},
		{"2024-09-01", false},
	}
	for _, tc := range cases {
		got, err := phase.IsActive(tc.date)
		if err != nil {
			t.Fatalf("IsActive(%s): %v", tc.date, err)
		}
		if got != tc.want {
			t.Errorf("IsActive(%s) = %v, want %v", tc.date, got, tc.want)
		}
	}

	if _, err := phase.IsActive("2024-6-1"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestPhase_IsActive_PartialBounds(t *testing.T) {
	t.Parallel()

	openEnd, err := NewPhase("phase-1", "schedule-1", "Onward", "2024-06-01", "", nil)
	if err != nil {
		t.Fatalf("failed to build phase: %v", err)
	}
	if active, _ := openEnd.IsActive("2030-01-01"); !active {
		t.Fatal("phase without an end date must remain active indefinitely")
	}
	if active, _ := openEnd.IsActive("2024-05-31"); active {
		t.Fatal("phase must not be active before its start date")
	}

	openStart, err := NewPhase("phase-2", "schedule-1", "Until", "", "2024-08-31", nil)
	if err != nil {
		t.Fatalf("failed to build phase: %v", err)
	}
	if active, _ := openStart.IsActive("2020-01-01"); !active {
		t.Fatal("phase without a start date must cover the past")
	}

	unbounded, err := NewPhase("phase-3", "schedule-1", "Always", "", "", nil)
	if err != nil {
		t.Fatalf("failed to build phase: %v", err)
	}
	if !unbounded.Unbounded() {
		t.Fatal("expected Unbounded to report true")
	}
	if active, _ := unbounded.IsActive("1999-12-31"); !active {
		t.Fatal("unbounded phase must be active on every date")
	}
}

func TestPhase_EntryMutations(t *testing.T) {
	t.Parallel()

	phase := boundedPhase(t)
	gym, err := NewEntry("entry-1", "Gym", 1, 18*60, 60)
	if err != nil {
		t.Fatalf("failed to build entry: %v", err)
	}
	phase.AddEntry(gym)

	updated := gym
	updated.Name = "Weights"
	if err := phase.UpdateEntry(0, updated); err != nil {
		t.Fatalf("UpdateEntry: %v", err)
	}
	if phase.Entries[0].Name != "Weights" {
		t.Fatalf("entry not updated: %+v", phase.Entries[0])
	}

	if err := phase.UpdateEntry(1, updated); !errors.Is(err, ErrEntryIndexOutOfRange) {
		t.Fatalf("expected ErrEntryIndexOutOfRange, got %v", err)
	}
	if err := phase.RemoveEntry(-1); !errors.Is(err, ErrEntryIndexOutOfRange) {
		t.Fatalf("expected ErrEntryIndexOutOfRange, got %v", err)
	}

	invalid := updated
	invalid.DurationMinutes = 7
	if err := phase.UpdateEntry(0, invalid); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}

	if err := phase.RemoveEntry(0); err != nil {
		t.Fatalf("RemoveEntry: %v", err)
	}
	if len(phase.Entries) != 0 {
		t.Fatalf("expected empty entries, got %d", len(phase.Entries))
	}
}

func TestPhase_UpdateDateRange_AtomicOnFailure(t *testing.T) {
	t.Parallel()

	phase := boundedPhase(t)

	if err := phase.UpdateDateRange("2024-09-01", "2024-07-01"); !errors.Is(err, ErrPhaseDateOrder) {
		t.Fatalf("expected ErrPhaseDateOrder, got %v", err)
	}
	if phase.StartDate != "2024-06-01" || phase.EndDate != "2024-08-31" {
		t.Fatalf("bounds must be unchanged after a rejected update: %+v", phase)
	}

	if err := phase.UpdateDateRange("2024-07-01", ""); err != nil {
		t.Fatalf("UpdateDateRange: %v", err)
	}
	if phase.StartDate != "2024-07-01" || phase.EndDate != "" {
		t.Fatalf("bounds not applied: %+v", phase)
	}
}

package persistence

import (
	"testing"

	"github.com/example/weekly-planner/internal/domain"
)

func TestOverrideRowRejectsCorruptVariant(t *testing.T) {
	t.Parallel()

	// A SKIP row that somehow gained a payload must not come back as a
	// valid override.
	row := OverrideRow{
		ID:          "override-1",
		ScheduleID:  "schedule-1",
		Date:        "2024-07-01",
		Type:        "SKIP",
		BaseEntryID: "entry-1",
		Data:        []byte(`{"name":"ghost"}`),
	}
	if _, err := OverrideFromRow(row); err == nil {
		t.Fatal("expected error for skip row with payload")
	}
}

func TestOverrideRowSkipStoresNull(t *testing.T) {
	t.Parallel()

	skip, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-1")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	row, err := OverrideToRow(skip)
	if err != nil {
		t.Fatalf("OverrideToRow: %v", err)
	}
	if row.Data != nil {
		t.Fatalf("skip payload should be nil, got %s", row.Data)
	}
}

func TestAssembleScheduleRestoresPhaseOrder(t *testing.T) {
	t.Parallel()

	row := ScheduleRow{ID: "schedule-1", OwnerID: "user-1", Name: "Training", TimeZone: "UTC", ICalURL: "/ical/tok"}
	phases := []PhaseRow{
		{ID: "phase-1", ScheduleID: "schedule-1", Name: "Base", Position: 0},
		{ID: "phase-2", ScheduleID: "schedule-1", Name: "Summer", StartDate: "2024-06-01", EndDate: "2024-08-31", Position: 1},
	}
	entries := map[string][]EntryRow{
		"phase-1": {{ID: "entry-1", PhaseID: "phase-1", Name: "Gym", DayOfWeek: 1, StartTimeMinutes: 18 * 60, DurationMinutes: 60}},
	}

	schedule, err := AssembleSchedule(row, []string{"user-2"}, phases, entries)
	if err != nil {
		t.Fatalf("AssembleSchedule: %v", err)
	}

	if len(schedule.Phases) != 2 || schedule.Phases[0].ID != "phase-1" || schedule.Phases[1].ID != "phase-2" {
		t.Fatalf("phase order lost: %#v", schedule.Phases)
	}
	if len(schedule.Phases[0].Entries) != 1 || schedule.Phases[0].Entries[0].ID != "entry-1" {
		t.Fatalf("entries lost: %#v", schedule.Phases[0].Entries)
	}
	if !schedule.IsAccessibleBy("user-2") {
		t.Error("shares lost during assembly")
	}
}

func TestAssembleScheduleRejectsCorruptRow(t *testing.T) {
	t.Parallel()

	row := ScheduleRow{ID: "schedule-1", OwnerID: "user-1", Name: "Training", TimeZone: "Not/AZone", ICalURL: "/ical/tok"}
	if _, err := AssembleSchedule(row, nil, nil, nil); err == nil {
		t.Fatal("expected error for invalid stored time zone")
	}
}

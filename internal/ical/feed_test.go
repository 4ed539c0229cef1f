package ical

import (
	"strings"
	"testing"
	"time"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
)

func testSchedule(t *testing.T) *domain.Schedule {
	t.Helper()
	schedule, err := domain.NewSchedule("schedule-1", "user-1", "Training", "UTC", "/ical/tok", nil)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	entry, err := domain.NewEntry("entry-gym", "Gym", 1, 18*60, 60)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	schedule.AddEntry(entry)
	return schedule
}

func TestRenderProducesEventsPerMaterializedEntry(t *testing.T) {
	t.Parallel()

	schedule := testSchedule(t)
	overrides := []domain.Override(nil)
	days, order, err := calendar.MaterializeForRange(schedule, "2024-07-01", "2024-07-14", overrides)
	if err != nil {
		t.Fatalf("MaterializeForRange: %v", err)
	}

	gen := NewGenerator("https://planner.example.com", 90)
	gen.now = func() time.Time { return time.Date(2024, 7, 1, 12, 0, 0, 0, time.UTC) }

	out, err := gen.Render(schedule, days, order)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}

	// Two Mondays in the window.
	if got := strings.Count(out, "BEGIN:VEVENT"); got != 2 {
		t.Fatalf("expected 2 events, got %d\n%s", got, out)
	}
	if !strings.Contains(out, "SUMMARY:Gym") {
		t.Errorf("missing summary in output:\n%s", out)
	}
	if !strings.Contains(out, "X-WR-CALNAME:Training") {
		t.Errorf("missing calendar name in output:\n%s", out)
	}
	if !strings.Contains(out, "UID:schedule-1-entry-gym-2024-07-01@weekly-planner") {
		t.Errorf("missing deterministic UID in output:\n%s", out)
	}
}

func TestRenderLinksBackToSchedulePage(t *testing.T) {
	t.Parallel()

	schedule := testSchedule(t)
	days, order, err := calendar.MaterializeForRange(schedule, "2024-07-01", "2024-07-01", nil)
	if err != nil {
		t.Fatalf("MaterializeForRange: %v", err)
	}

	gen := NewGenerator("https://planner.example.com/", 30)
	out, err := gen.Render(schedule, days, order)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "https://planner.example.com/schedule/schedule-1") {
		t.Errorf("description missing schedule link:\n%s", out)
	}

	bare := NewGenerator("", 30)
	out, err = bare.Render(schedule, days, order)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(out, "/schedule/schedule-1") {
		t.Errorf("unexpected link without a base URL:\n%s", out)
	}
}

func TestRenderUsesScheduleTimeZone(t *testing.T) {
	t.Parallel()

	schedule, err := domain.NewSchedule("schedule-2", "user-1", "Tokyo", "Asia/Tokyo", "/ical/tok2", nil)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	entry, err := domain.NewEntry("entry-run", "Run", 3, 7*60, 45)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	schedule.AddEntry(entry)

	days, order, err := calendar.MaterializeForRange(schedule, "2024-07-03", "2024-07-03", nil)
	if err != nil {
		t.Fatalf("MaterializeForRange: %v", err)
	}

	gen := NewGenerator("https://planner.example.com", 30)
	out, err := gen.Render(schedule, days, order)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if !strings.Contains(out, "X-WR-TIMEZONE:Asia/Tokyo") {
		t.Errorf("missing timezone property:\n%s", out)
	}
}

func TestRenderRejectsUnknownTimeZone(t *testing.T) {
	t.Parallel()

	schedule := testSchedule(t)
	schedule.TimeZone = "Mars/Olympus"

	gen := NewGenerator("https://planner.example.com", 30)
	if _, err := gen.Render(schedule, nil, nil); err == nil {
		t.Fatal("expected error for unknown time zone")
	}
}

func TestFeedRangeExtendsToBoundedPhases(t *testing.T) {
	t.Parallel()

	phase, err := domain.NewPhase("phase-summer", "schedule-3", "Summer", "2024-06-01", "2024-08-31", nil)
	if err != nil {
		t.Fatalf("NewPhase: %v", err)
	}
	schedule, err := domain.NewSchedule("schedule-3", "user-1", "Seasonal", "UTC", "/ical/tok3", []*domain.Phase{phase})
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}

	gen := NewGenerator("https://planner.example.com", 30)
	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	start, end := gen.FeedRange(schedule, reference)
	if start != "2024-06-01" {
		t.Errorf("start = %s, want 2024-06-01", start)
	}
	if end != "2024-08-31" {
		t.Errorf("end = %s, want 2024-08-31", end)
	}
}

func TestFeedRangeFallsBackToHorizon(t *testing.T) {
	t.Parallel()

	schedule := testSchedule(t)

	gen := NewGenerator("https://planner.example.com", 30)
	reference := time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC)

	start, end := gen.FeedRange(schedule, reference)
	if start != "2024-07-01" {
		t.Errorf("start = %s, want 2024-07-01", start)
	}
	if end != "2024-07-31" {
		t.Errorf("end = %s, want 2024-07-31", end)
	}
}

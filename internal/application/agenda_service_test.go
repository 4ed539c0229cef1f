package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/weekly-planner/internal/domain"
)

func newTestAgendaService(store *scheduleStoreStub, overrides *overrideStoreStub) *AgendaService {
	return NewAgendaService(store, overrides, nil)
}

func TestAgendaService_GetDay_AppliesOverrides(t *testing.T) {
	t.Parallel()

	schedule := gymFixture(t)
	skip, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-gym")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	svc := newTestAgendaService(&scheduleStoreStub{schedule: schedule}, newOverrideStoreStub(skip))

	day, err := svc.GetDay(context.Background(), Principal{UserID: "user-1"}, "schedule-1", "2024-07-01")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(day.Entries) != 0 {
		t.Fatalf("skip should empty the Monday agenda, got %+v", day.Entries)
	}

	// The following Monday is untouched.
	next, err := svc.GetDay(context.Background(), Principal{UserID: "user-1"}, "schedule-1", "2024-07-08")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(next.Entries) != 1 {
		t.Fatalf("expected recurring entry on 2024-07-08, got %+v", next.Entries)
	}
}

func TestAgendaService_GetRange_IncludesEmptyDays(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(&scheduleStoreStub{schedule: gymFixture(t)}, newOverrideStoreStub())

	days, err := svc.GetRange(context.Background(), AgendaParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		StartDate:  "2024-07-01",
		EndDate:    "2024-07-07",
	})
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(days) != 7 {
		t.Fatalf("expected 7 days, got %d", len(days))
	}
	if days[0].Date != "2024-07-01" || days[6].Date != "2024-07-07" {
		t.Fatalf("unexpected date bounds: %s, %s", days[0].Date, days[6].Date)
	}
	if len(days[1].Entries) != 0 {
		t.Errorf("Tuesday should be empty, got %+v", days[1].Entries)
	}
}

func TestAgendaService_GetRange_AnnotatesConflicts(t *testing.T) {
	t.Parallel()

	schedule := gymFixture(t)
	// Overlaps the Monday 18:00-19:00 gym entry by 30 minutes.
	name := "Errand"
	start := 18*60 + 30
	duration := 60
	oneTime, err := domain.NewOneTimeOverride("override-1", "schedule-1", "2024-07-01", name, start, duration)
	if err != nil {
		t.Fatalf("NewOneTimeOverride: %v", err)
	}
	svc := newTestAgendaService(&scheduleStoreStub{schedule: schedule}, newOverrideStoreStub(oneTime))

	day, err := svc.GetDay(context.Background(), Principal{UserID: "user-1"}, "schedule-1", "2024-07-01")
	if err != nil {
		t.Fatalf("GetDay: %v", err)
	}
	if len(day.Warnings) != 1 {
		t.Fatalf("expected one conflict warning, got %+v", day.Warnings)
	}
	warning := day.Warnings[0]
	if warning.OverlapFrom != 18*60+30 || warning.OverlapTo != 19*60 {
		t.Errorf("overlap window = %d-%d, want 1110-1140", warning.OverlapFrom, warning.OverlapTo)
	}
}

func TestAgendaService_GetRange_ValidatesDates(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(&scheduleStoreStub{schedule: gymFixture(t)}, newOverrideStoreStub())

	_, err := svc.GetRange(context.Background(), AgendaParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		StartDate:  "2024-13-01",
		EndDate:    "2024-07-07",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["startDate"]; !ok {
		t.Fatalf("expected startDate validation error, got %v", vErr.FieldErrors)
	}
}

func TestAgendaService_GetRange_CapsRangeLength(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(&scheduleStoreStub{schedule: gymFixture(t)}, newOverrideStoreStub())

	_, err := svc.GetRange(context.Background(), AgendaParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		StartDate:  "2024-01-01",
		EndDate:    "2026-01-01",
	})
	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if _, ok := vErr.FieldErrors["endDate"]; !ok {
		t.Fatalf("expected endDate validation error, got %v", vErr.FieldErrors)
	}
}

func TestAgendaService_GetRange_DeniesStrangers(t *testing.T) {
	t.Parallel()

	svc := newTestAgendaService(&scheduleStoreStub{schedule: gymFixture(t)}, newOverrideStoreStub())

	_, err := svc.GetRange(context.Background(), AgendaParams{
		Principal:  Principal{UserID: "user-9"},
		ScheduleID: "schedule-1",
		StartDate:  "2024-07-01",
		EndDate:    "2024-07-07",
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}
}

func TestAgendaService_GetRange_ServesCachedResultUntilInvalidated(t *testing.T) {
	t.Parallel()

	schedule := gymFixture(t)
	overrides := newOverrideStoreStub()
	svc := newTestAgendaService(&scheduleStoreStub{schedule: schedule}, overrides)

	params := AgendaParams{
		Principal:  Principal{UserID: "user-1"},
		ScheduleID: "schedule-1",
		StartDate:  "2024-07-01",
		EndDate:    "2024-07-01",
	}

	first, err := svc.GetRange(context.Background(), params)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(first[0].Entries) != 1 {
		t.Fatalf("expected gym entry, got %+v", first[0].Entries)
	}

	// A new skip is not visible until the cache is dropped.
	skip, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-gym")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	if err := overrides.CreateOverride(context.Background(), skip); err != nil {
		t.Fatalf("CreateOverride: %v", err)
	}

	cached, err := svc.GetRange(context.Background(), params)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(cached[0].Entries) != 1 {
		t.Fatalf("expected cached agenda to still show the entry, got %+v", cached[0].Entries)
	}

	svc.Invalidate("schedule-1")

	fresh, err := svc.GetRange(context.Background(), params)
	if err != nil {
		t.Fatalf("GetRange: %v", err)
	}
	if len(fresh[0].Entries) != 0 {
		t.Fatalf("expected skip to apply after invalidation, got %+v", fresh[0].Entries)
	}
}

package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

func buildSchedule(t *testing.T, id, owner string) *domain.Schedule {
	t.Helper()
	schedule, err := domain.NewSchedule(id, owner, "Training", "UTC", "/ical/"+id, nil)
	if err != nil {
		t.Fatalf("NewSchedule: %v", err)
	}
	entry, err := domain.NewEntry("entry-"+id, "Gym", 1, 18*60, 60)
	if err != nil {
		t.Fatalf("NewEntry: %v", err)
	}
	schedule.AddEntry(entry)
	return schedule
}

func TestStore_ScheduleRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	schedule := buildSchedule(t, "schedule-1", "user-1")
	if err := store.CreateSchedule(ctx, schedule); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	if err := store.CreateSchedule(ctx, schedule); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}

	fetched, err := store.GetSchedule(ctx, "schedule-1")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if fetched.Name != "Training" || len(fetched.Phases) != 1 {
		t.Fatalf("unexpected schedule: %#v", fetched)
	}
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	if err := store.CreateSchedule(ctx, buildSchedule(t, "schedule-1", "user-1")); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}

	first, err := store.GetSchedule(ctx, "schedule-1")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	first.Name = "Mutated"
	first.Phases[0].Entries[0].Name = "Mutated Entry"

	second, err := store.GetSchedule(ctx, "schedule-1")
	if err != nil {
		t.Fatalf("GetSchedule: %v", err)
	}
	if second.Name != "Training" || second.Phases[0].Entries[0].Name != "Gym" {
		t.Fatalf("store leaked internal state: %#v", second)
	}
}

func TestStore_ListSchedulesForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	owned := buildSchedule(t, "schedule-1", "user-1")
	shared := buildSchedule(t, "schedule-2", "user-2")
	shared.ShareWithUser("user-1")
	unrelated := buildSchedule(t, "schedule-3", "user-2")
	for _, s := range []*domain.Schedule{owned, shared, unrelated} {
		if err := store.CreateSchedule(ctx, s); err != nil {
			t.Fatalf("CreateSchedule %s: %v", s.ID, err)
		}
	}

	visible, err := store.ListSchedulesForUser(ctx, "user-1")
	if err != nil {
		t.Fatalf("ListSchedulesForUser: %v", err)
	}
	if len(visible) != 2 {
		t.Fatalf("expected 2 schedules, got %d", len(visible))
	}
}

func TestStore_DeleteScheduleCascadesOverrides(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	if err := store.CreateSchedule(ctx, buildSchedule(t, "schedule-1", "user-1")); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	skip, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-schedule-1")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	if err := store.CreateOverride(ctx, skip); err != nil {
		t.Fatalf("CreateOverride: %v", err)
	}

	if err := store.DeleteSchedule(ctx, "schedule-1"); err != nil {
		t.Fatalf("DeleteSchedule: %v", err)
	}
	if _, err := store.GetOverride(ctx, "override-1"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected override to cascade away, got %v", err)
	}
}

func TestStore_OverrideUniquenessPerEntryAndDate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	if err := store.CreateSchedule(ctx, buildSchedule(t, "schedule-1", "user-1")); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	first, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-schedule-1")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	if err := store.CreateOverride(ctx, first); err != nil {
		t.Fatalf("CreateOverride: %v", err)
	}
	second, err := domain.NewSkipOverride("override-2", "schedule-1", "2024-07-01", "entry-schedule-1")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	if err := store.CreateOverride(ctx, second); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate, got %v", err)
	}
}

func TestStore_ListOverridesInRangeSorted(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	if err := store.CreateSchedule(ctx, buildSchedule(t, "schedule-1", "user-1")); err != nil {
		t.Fatalf("CreateSchedule: %v", err)
	}
	for _, date := range []string{"2024-07-07", "2024-06-30", "2024-07-01"} {
		oneTime, err := domain.NewOneTimeOverride("override-"+date, "schedule-1", date, "Errand", 10*60, 30)
		if err != nil {
			t.Fatalf("NewOneTimeOverride: %v", err)
		}
		if err := store.CreateOverride(ctx, oneTime); err != nil {
			t.Fatalf("CreateOverride: %v", err)
		}
	}

	inRange, err := store.ListOverridesInRange(ctx, "schedule-1", "2024-07-01", "2024-07-07")
	if err != nil {
		t.Fatalf("ListOverridesInRange: %v", err)
	}
	if len(inRange) != 2 || inRange[0].Date != "2024-07-01" || inRange[1].Date != "2024-07-07" {
		t.Fatalf("unexpected range result: %#v", inRange)
	}
}

func TestStore_UserAndSessionLifecycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	user := domain.User{ID: "user-1", Email: "anna@example.com", DisplayName: "Anna"}
	if err := store.CreateUser(ctx, user, "hash-1"); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if err := store.CreateUser(ctx, domain.User{ID: "user-2", Email: "anna@example.com"}, "h"); !errors.Is(err, persistence.ErrDuplicate) {
		t.Fatalf("expected ErrDuplicate for email, got %v", err)
	}

	_, hash, err := store.GetPasswordHashByEmail(ctx, "anna@example.com")
	if err != nil {
		t.Fatalf("GetPasswordHashByEmail: %v", err)
	}
	if hash != "hash-1" {
		t.Fatalf("hash = %s", hash)
	}

	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	session := domain.Session{ID: "session-1", UserID: "user-1", Token: "tok", ExpiresAt: now.Add(time.Hour)}
	if _, err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	revoked, err := store.RevokeSession(ctx, "tok", now)
	if err != nil {
		t.Fatalf("RevokeSession: %v", err)
	}
	if revoked.RevokedAt == nil {
		t.Fatal("RevokedAt not set")
	}

	// Deleting the user removes their sessions.
	if err := store.DeleteUser(ctx, "user-1"); err != nil {
		t.Fatalf("DeleteUser: %v", err)
	}
	if _, err := store.GetSession(ctx, "tok"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected session gone with user, got %v", err)
	}
}

func TestStore_DeleteExpiredSessions(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := NewStore()

	now := time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC)
	if _, err := store.CreateSession(ctx, domain.Session{ID: "s1", UserID: "u", Token: "live", ExpiresAt: now.Add(time.Hour)}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if _, err := store.CreateSession(ctx, domain.Session{ID: "s2", UserID: "u", Token: "dead", ExpiresAt: now.Add(-time.Hour)}); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	if err := store.DeleteExpiredSessions(ctx, now); err != nil {
		t.Fatalf("DeleteExpiredSessions: %v", err)
	}
	if _, err := store.GetSession(ctx, "live"); err != nil {
		t.Fatalf("live session should remain: %v", err)
	}
	if _, err := store.GetSession(ctx, "dead"); !errors.Is(err, persistence.ErrNotFound) {
		t.Fatalf("expected expired session removed, got %v", err)
	}
}

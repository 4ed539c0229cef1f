package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/example/weekly-planner/internal/domain"
)

func newTestPool(t *testing.T) *ConnectionPool {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "planner.db")
	pool, err := NewConnectionPool(Config{DSN: dsn})
	if err != nil {
		t.Fatalf("failed to open pool: %v", err)
	}
	t.Cleanup(func() {
		_ = pool.Close()
	})

	if err := Migrate(context.Background(), pool); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return pool
}

func fixedClock() func() time.Time {
	return func() time.Time { return time.Date(2024, 7, 1, 9, 0, 0, 0, time.UTC) }
}

// seedUser inserts an owner row so schedule foreign keys hold.
func seedUser(t *testing.T, pool *ConnectionPool, id, email string) {
	t.Helper()
	repo := NewUserRepository(pool, fixedClock())
	user := domain.User{ID: id, Email: email, DisplayName: "Test User"}
	if err := repo.CreateUser(context.Background(), user, "hash"); err != nil {
		t.Fatalf("seed user %s: %v", id, err)
	}
}

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

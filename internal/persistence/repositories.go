package persistence

import (
	"context"
	"time"

	"github.com/example/weekly-planner/internal/domain"
)

// ScheduleRepository stores schedule aggregates: the schedule row, its share
// list, and its phases with their ordered entries.
type ScheduleRepository interface {
	CreateSchedule(ctx context.Context, schedule *domain.Schedule) error
	UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error
	GetSchedule(ctx context.Context, id string) (*domain.Schedule, error)
	GetScheduleByFeedToken(ctx context.Context, token string) (*domain.Schedule, error)
	ListSchedulesForUser(ctx context.Context, userID string) ([]*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// OverrideRepository stores date-scoped schedule overrides.
type OverrideRepository interface {
	CreateOverride(ctx context.Context, override domain.Override) error
	UpdateOverride(ctx context.Context, override domain.Override) error
	GetOverride(ctx context.Context, id string) (domain.Override, error)
	ListOverrides(ctx context.Context, scheduleID string) ([]domain.Override, error)
	ListOverridesInRange(ctx context.Context, scheduleID, startDate, endDate string) ([]domain.Override, error)
	FindOverrideByEntryAndDate(ctx context.Context, scheduleID, baseEntryID, date string) (domain.Override, error)
	CountOverridesForEntry(ctx context.Context, baseEntryID string) (int, error)
	DeleteOverride(ctx context.Context, id string) error
	DeleteOverridesForEntry(ctx context.Context, baseEntryID string) error
}

// UserRepository exposes CRUD operations for user accounts.
type UserRepository interface {
	CreateUser(ctx context.Context, user domain.User, passwordHash string) error
	UpdateUser(ctx context.Context, user domain.User) error
	UpdatePassword(ctx context.Context, userID, passwordHash string) error
	GetUser(ctx context.Context, id string) (domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (domain.User, error)
	GetPasswordHashByEmail(ctx context.Context, email string) (domain.User, string, error)
	ListUsers(ctx context.Context) ([]domain.User, error)
	DeleteUser(ctx context.Context, id string) error
}

// SessionRepository stores authentication session state.
type SessionRepository interface {
	CreateSession(ctx context.Context, session domain.Session) (domain.Session, error)
	GetSession(ctx context.Context, token string) (domain.Session, error)
	RevokeSession(ctx context.Context, token string, revokedAt time.Time) (domain.Session, error)
	DeleteExpiredSessions(ctx context.Context, reference time.Time) error
}

// Package memory provides a map-backed implementation of the persistence
// repositories. It backs unit tests and local experimentation; the SQLite
// package is the production store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// Store holds every repository's state behind one mutex.
type Store struct {
	mu             sync.RWMutex
	schedules      map[string]*domain.Schedule
	overrides      map[string]domain.Override
	users          map[string]domain.User
	passwordHashes map[string]string
	sessions       map[string]domain.Session
}

// NewStore returns an empty in-memory store.
func NewStore() *Store {
	return &Store{
		schedules:      make(map[string]*domain.Schedule),
		overrides:      make(map[string]domain.Override),
		users:          make(map[string]domain.User),
		passwordHashes: make(map[string]string),
		sessions:       make(map[string]domain.Session),
	}
}

// --- persistence.ScheduleRepository ---

// CreateSchedule stores a new schedule aggregate.
func (s *Store) CreateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.schedules {
		if existing.ICalURL == schedule.ICalURL {
			return persistence.ErrDuplicate
		}
	}
	s.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

// UpdateSchedule replaces a stored aggregate.
func (s *Store) UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[schedule.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.schedules[schedule.ID] = cloneSchedule(schedule)
	return nil
}

// GetSchedule retrieves a schedule by id.
func (s *Store) GetSchedule(ctx context.Context, id string) (*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	schedule, ok := s.schedules[id]
	if !ok {
		return nil, persistence.ErrNotFound
	}
	return cloneSchedule(schedule), nil
}

// GetScheduleByFeedToken retrieves the schedule whose iCal URL matches.
func (s *Store) GetScheduleByFeedToken(ctx context.Context, token string) (*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, schedule := range s.schedules {
		if schedule.ICalURL == token {
			return cloneSchedule(schedule), nil
		}
	}
	return nil, persistence.ErrNotFound
}

// ListSchedulesForUser returns schedules the user owns or has been shared.
func (s *Store) ListSchedulesForUser(ctx context.Context, userID string) ([]*domain.Schedule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var schedules []*domain.Schedule
	for _, schedule := range s.schedules {
		if schedule.IsAccessibleBy(userID) {
			schedules = append(schedules, cloneSchedule(schedule))
		}
	}
	sort.Slice(schedules, func(i, j int) bool {
		if schedules[i].Name == schedules[j].Name {
			return schedules[i].ID < schedules[j].ID
		}
		return schedules[i].Name < schedules[j].Name
	})
	return schedules, nil
}

// DeleteSchedule removes a schedule and its overrides.
func (s *Store) DeleteSchedule(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.schedules[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.schedules, id)
	for overrideID, override := range s.overrides {
		if override.ScheduleID == id {
			delete(s.overrides, overrideID)
		}
	}
	return nil
}

// --- persistence.OverrideRepository ---

// CreateOverride stores a new override.
func (s *Store) CreateOverride(ctx context.Context, override domain.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[override.ID]; ok {
		return persistence.ErrDuplicate
	}
	if override.BaseEntryID != "" {
		for _, existing := range s.overrides {
			if existing.ScheduleID == override.ScheduleID &&
				existing.BaseEntryID == override.BaseEntryID &&
				existing.Date == override.Date {
				return persistence.ErrDuplicate
			}
		}
	}
	s.overrides[override.ID] = cloneOverride(override)
	return nil
}

// UpdateOverride replaces a stored override.
func (s *Store) UpdateOverride(ctx context.Context, override domain.Override) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[override.ID]; !ok {
		return persistence.ErrNotFound
	}
	s.overrides[override.ID] = cloneOverride(override)
	return nil
}

// GetOverride retrieves an override by id.
func (s *Store) GetOverride(ctx context.Context, id string) (domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	override, ok := s.overrides[id]
	if !ok {
		return domain.Override{}, persistence.ErrNotFound
	}
	return cloneOverride(override), nil
}

// ListOverrides returns a schedule's overrides ordered by date then id.
func (s *Store) ListOverrides(ctx context.Context, scheduleID string) ([]domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overrides []domain.Override
	for _, override := range s.overrides {
		if override.ScheduleID == scheduleID {
			overrides = append(overrides, cloneOverride(override))
		}
	}
	sortOverrides(overrides)
	return overrides, nil
}

// ListOverridesInRange returns overrides dated inside the inclusive range.
func (s *Store) ListOverridesInRange(ctx context.Context, scheduleID, startDate, endDate string) ([]domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var overrides []domain.Override
	for _, override := range s.overrides {
		if override.ScheduleID == scheduleID && override.Date >= startDate && override.Date <= endDate {
			overrides = append(overrides, cloneOverride(override))
		}
	}
	sortOverrides(overrides)
	return overrides, nil
}

// FindOverrideByEntryAndDate locates the override targeting an entry on a date.
func (s *Store) FindOverrideByEntryAndDate(ctx context.Context, scheduleID, baseEntryID, date string) (domain.Override, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if baseEntryID == "" {
		return domain.Override{}, persistence.ErrNotFound
	}
	for _, override := range s.overrides {
		if override.ScheduleID == scheduleID && override.BaseEntryID == baseEntryID && override.Date == date {
			return cloneOverride(override), nil
		}
	}
	return domain.Override{}, persistence.ErrNotFound
}

// CountOverridesForEntry reports how many overrides reference the entry.
func (s *Store) CountOverridesForEntry(ctx context.Context, baseEntryID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if baseEntryID == "" {
		return 0, nil
	}
	count := 0
	for _, override := range s.overrides {
		if override.BaseEntryID == baseEntryID {
			count++
		}
	}
	return count, nil
}

// DeleteOverride removes an override by id.
func (s *Store) DeleteOverride(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.overrides[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.overrides, id)
	return nil
}

// DeleteOverridesForEntry removes every override referencing the entry.
func (s *Store) DeleteOverridesForEntry(ctx context.Context, baseEntryID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if baseEntryID == "" {
		return nil
	}
	for id, override := range s.overrides {
		if override.BaseEntryID == baseEntryID {
			delete(s.overrides, id)
		}
	}
	return nil
}

// --- persistence.UserRepository ---

// CreateUser stores a new user.
func (s *Store) CreateUser(ctx context.Context, user domain.User, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; ok {
		return persistence.ErrDuplicate
	}
	for _, existing := range s.users {
		if existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	s.passwordHashes[user.ID] = passwordHash
	return nil
}

// UpdateUser updates an existing user's profile fields.
func (s *Store) UpdateUser(ctx context.Context, user domain.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return persistence.ErrNotFound
	}
	for id, existing := range s.users {
		if id != user.ID && existing.Email == user.Email {
			return persistence.ErrDuplicate
		}
	}
	s.users[user.ID] = user
	return nil
}

// UpdatePassword replaces the stored hash for a user.
func (s *Store) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[userID]; !ok {
		return persistence.ErrNotFound
	}
	s.passwordHashes[userID] = passwordHash
	return nil
}

// GetUser retrieves a user by id.
func (s *Store) GetUser(ctx context.Context, id string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return domain.User{}, persistence.ErrNotFound
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, nil
		}
	}
	return domain.User{}, persistence.ErrNotFound
}

// GetPasswordHashByEmail retrieves a user and their stored password hash.
func (s *Store) GetPasswordHashByEmail(ctx context.Context, email string) (domain.User, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return user, s.passwordHashes[user.ID], nil
		}
	}
	return domain.User{}, "", persistence.ErrNotFound
}

// ListUsers returns every user ordered by display name then id.
func (s *Store) ListUsers(ctx context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		users = append(users, user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].DisplayName == users[j].DisplayName {
			return users[i].ID < users[j].ID
		}
		return users[i].DisplayName < users[j].DisplayName
	})
	return users, nil
}

// DeleteUser removes a user and their sessions.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return persistence.ErrNotFound
	}
	delete(s.users, id)
	delete(s.passwordHashes, id)
	for token, session := range s.sessions {
		if session.UserID == id {
			delete(s.sessions, token)
		}
	}
	return nil
}

// --- persistence.SessionRepository ---

// CreateSession stores a new session keyed by token.
func (s *Store) CreateSession(ctx context.Context, session domain.Session) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[session.Token]; ok {
		return domain.Session{}, persistence.ErrDuplicate
	}
	s.sessions[session.Token] = session
	return session, nil
}

// GetSession retrieves a session by token.
func (s *Store) GetSession(ctx context.Context, token string) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, persistence.ErrNotFound
	}
	return session, nil
}

// RevokeSession marks a session revoked.
func (s *Store) RevokeSession(ctx context.Context, token string, revokedAt time.Time) (domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[token]
	if !ok {
		return domain.Session{}, persistence.ErrNotFound
	}
	stamp := revokedAt
	session.RevokedAt = &stamp
	session.UpdatedAt = revokedAt
	s.sessions[token] = session
	return session, nil
}

// DeleteExpiredSessions purges sessions that expired before reference.
func (s *Store) DeleteExpiredSessions(ctx context.Context, reference time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for token, session := range s.sessions {
		if session.ExpiresAt.Before(reference) {
			delete(s.sessions, token)
		}
	}
	return nil
}

func sortOverrides(overrides []domain.Override) {
	sort.Slice(overrides, func(i, j int) bool {
		if overrides[i].Date == overrides[j].Date {
			return overrides[i].ID < overrides[j].ID
		}
		return overrides[i].Date < overrides[j].Date
	})
}

func cloneSchedule(schedule *domain.Schedule) *domain.Schedule {
	cloned := *schedule
	cloned.SharedUserIDs = append([]string(nil), schedule.SharedUserIDs...)
	cloned.Phases = make([]*domain.Phase, len(schedule.Phases))
	for i, phase := range schedule.Phases {
		clonedPhase := *phase
		clonedPhase.Entries = append([]domain.Entry(nil), phase.Entries...)
		cloned.Phases[i] = &clonedPhase
	}
	return &cloned
}

func cloneOverride(override domain.Override) domain.Override {
	if override.Data == nil {
		return override
	}
	data := *override.Data
	if override.Data.Name != nil {
		name := *override.Data.Name
		data.Name = &name
	}
	if override.Data.StartTimeMinutes != nil {
		start := *override.Data.StartTimeMinutes
		data.StartTimeMinutes = &start
	}
	if override.Data.DurationMinutes != nil {
		duration := *override.Data.DurationMinutes
		data.DurationMinutes = &duration
	}
	override.Data = &data
	return override
}

package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// ScheduleStore captures the persistence interactions needed by the service.
type ScheduleStore interface {
	CreateSchedule(ctx context.Context, schedule *domain.Schedule) error
	UpdateSchedule(ctx context.Context, schedule *domain.Schedule) error
	GetSchedule(ctx context.Context, id string) (*domain.Schedule, error)
	ListSchedulesForUser(ctx context.Context, userID string) ([]*domain.Schedule, error)
	DeleteSchedule(ctx context.Context, id string) error
}

// OverrideReferences exposes the override lookups entry mutations depend on.
type OverrideReferences interface {
	CountOverridesForEntry(ctx context.Context, baseEntryID string) (int, error)
}

// UserDirectory exposes user existence checks for sharing.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (domain.User, error)
}

// ScheduleService orchestrates validation and persistence for schedule,
// phase, and entry operations.
type ScheduleService struct {
	schedules      ScheduleStore
	overrides      OverrideReferences
	users          UserDirectory
	idGenerator    func() string
	tokenGenerator func() string
	now            func() time.Time
	logger         *slog.Logger
}

// NewScheduleService wires dependencies for schedule operations. The token
// generator mints iCal feed tokens, which must be unguessable.
func NewScheduleService(schedules ScheduleStore, overrides OverrideReferences, users UserDirectory, idGenerator, tokenGenerator func() string, now func() time.Time) *ScheduleService {
	return NewScheduleServiceWithLogger(schedules, overrides, users, idGenerator, tokenGenerator, now, nil)
}

// NewScheduleServiceWithLogger constructs a ScheduleService with a specified logger.
func NewScheduleServiceWithLogger(schedules ScheduleStore, overrides OverrideReferences, users UserDirectory, idGenerator, tokenGenerator func() string, now func() time.Time, logger *slog.Logger) *ScheduleService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if tokenGenerator == nil {
		tokenGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &ScheduleService{
		schedules:      schedules,
		overrides:      overrides,
		users:          users,
		idGenerator:    idGenerator,
		tokenGenerator: tokenGenerator,
		now:            now,
		logger:         defaultLogger(logger),
	}
}

func (s *ScheduleService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "ScheduleService", operation, attrs...)
}

// CreateSchedule validates the request and persists a new schedule with its
// synthesized default phase.
func (s *ScheduleService) CreateSchedule(ctx context.Context, params CreateScheduleParams) (*domain.Schedule, error) {
	if s == nil {
		return nil, fmt.Errorf("ScheduleService is nil")
	}
	logger := s.loggerWith(ctx, "CreateSchedule", "user_id", params.Principal.UserID)

	input := params.Input
	vErr := &ValidationError{}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		vErr.add("name", "name is required")
	}
	timeZone := strings.TrimSpace(input.TimeZone)
	if timeZone == "" {
		timeZone = "UTC"
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	schedule, err := domain.NewSchedule(
		s.idGenerator(),
		params.Principal.UserID,
		name,
		timeZone,
		"/ical/"+s.tokenGenerator(),
		nil,
	)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTimeZone) {
			vErr.add("timeZone", "unknown IANA time zone")
			return nil, vErr
		}
		return nil, err
	}

	if err := s.schedules.CreateSchedule(ctx, schedule); err != nil {
		err = mapRepoError(err)
		logger.ErrorContext(ctx, "schedule creation failed", "error", err, "error_kind", ErrorKind(err))
		return nil, err
	}

	logger.InfoContext(ctx, "schedule created", "schedule_id", schedule.ID)
	return schedule, nil
}

// GetSchedule loads a schedule the principal can access.
func (s *ScheduleService) GetSchedule(ctx context.Context, principal Principal, scheduleID string) (*domain.Schedule, error) {
	return s.loadAccessible(ctx, principal, scheduleID, false)
}

// ListSchedules enumerates the schedules visible to the principal.
func (s *ScheduleService) ListSchedules(ctx context.Context, principal Principal) ([]*domain.Schedule, error) {
	schedules, err := s.schedules.ListSchedulesForUser(ctx, principal.UserID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return schedules, nil
}

// UpdateSchedule renames a schedule or changes its time zone. Shared users
// may edit; only deletion and sharing stay owner-only.
func (s *ScheduleService) UpdateSchedule(ctx context.Context, params UpdateScheduleParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	vErr := &ValidationError{}
	if name := strings.TrimSpace(params.Input.Name); name != "" {
		schedule.UpdateName(name)
	}
	if tz := strings.TrimSpace(params.Input.TimeZone); tz != "" {
		if err := schedule.UpdateTimeZone(tz); err != nil {
			vErr.add("timeZone", "unknown IANA time zone")
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// DeleteSchedule removes a schedule and everything under it. Owner only.
func (s *ScheduleService) DeleteSchedule(ctx context.Context, principal Principal, scheduleID string) error {
	logger := s.loggerWith(ctx, "DeleteSchedule", "schedule_id", scheduleID)

	if _, err := s.loadAccessible(ctx, principal, scheduleID, true); err != nil {
		return err
	}
	if err := s.schedules.DeleteSchedule(ctx, scheduleID); err != nil {
		return mapRepoError(err)
	}
	logger.InfoContext(ctx, "schedule deleted")
	return nil
}

// ShareSchedule grants another user access. Owner only; sharing with the
// owner or an already-shared user is a no-op.
func (s *ScheduleService) ShareSchedule(ctx context.Context, params ShareScheduleParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, true)
	if err != nil {
		return nil, err
	}

	if params.UserID == schedule.OwnerID {
		return schedule, nil
	}
	if s.users != nil {
		if _, err := s.users.GetUser(ctx, params.UserID); err != nil {
			if errors.Is(err, persistence.ErrNotFound) {
				vErr := &ValidationError{}
				vErr.add("userId", "user does not exist")
				return nil, vErr
			}
			return nil, err
		}
	}

	schedule.ShareWithUser(params.UserID)
	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// UnshareSchedule revokes a user's access. Owner only.
func (s *ScheduleService) UnshareSchedule(ctx context.Context, params ShareScheduleParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, true)
	if err != nil {
		return nil, err
	}

	schedule.UnshareWithUser(params.UserID)
	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// CreatePhase appends a phase to a schedule.
func (s *ScheduleService) CreatePhase(ctx context.Context, params CreatePhaseParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	phase, err := domain.NewPhase(
		s.idGenerator(),
		schedule.ID,
		strings.TrimSpace(params.Input.Name),
		params.Input.StartDate,
		params.Input.EndDate,
		nil,
	)
	if err != nil {
		return nil, phaseValidationError(err)
	}

	schedule.AddPhase(phase)
	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// UpdatePhase renames a phase or moves its activity window.
func (s *ScheduleService) UpdatePhase(ctx context.Context, params UpdatePhaseParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	phase, ok := schedule.FindPhaseByID(params.PhaseID)
	if !ok {
		return nil, ErrNotFound
	}

	if name := strings.TrimSpace(params.Input.Name); name != "" {
		phase.UpdateName(name)
	}
	if err := phase.UpdateDateRange(params.Input.StartDate, params.Input.EndDate); err != nil {
		return nil, phaseValidationError(err)
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// DeletePhase removes a phase. The schedule's last phase cannot be removed,
// and a phase whose entries are still referenced by overrides cannot be
// removed either.
func (s *ScheduleService) DeletePhase(ctx context.Context, principal Principal, scheduleID, phaseID string) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, principal, scheduleID, false)
	if err != nil {
		return nil, err
	}

	phase, ok := schedule.FindPhaseByID(phaseID)
	if !ok {
		return nil, ErrNotFound
	}
	for _, entry := range phase.Entries {
		if err := s.ensureEntryUnreferenced(ctx, entry.ID); err != nil {
			return nil, err
		}
	}

	if err := schedule.RemovePhase(phaseID); err != nil {
		switch {
		case errors.Is(err, domain.ErrLastPhase):
			vErr := &ValidationError{}
			vErr.add("phaseId", "a schedule must keep at least one phase")
			return nil, vErr
		case errors.Is(err, domain.ErrPhaseNotFound):
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// CreateEntry appends a weekly entry to a phase. An empty PhaseID targets the
// schedule's default phase, preserving the pre-phase API shape.
func (s *ScheduleService) CreateEntry(ctx context.Context, params CreateEntryParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	entry, err := domain.NewEntry(
		s.idGenerator(),
		strings.TrimSpace(params.Input.Name),
		params.Input.DayOfWeek,
		params.Input.StartTimeMinutes,
		params.Input.DurationMinutes,
	)
	if err != nil {
		return nil, entryValidationError(err)
	}

	if params.PhaseID == "" {
		schedule.AddEntry(entry)
	} else {
		phase, ok := schedule.FindPhaseByID(params.PhaseID)
		if !ok {
			return nil, ErrNotFound
		}
		phase.AddEntry(entry)
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// UpdateEntry replaces the entry at a position within a phase. The entry
// keeps its identity so overrides targeting it stay attached.
func (s *ScheduleService) UpdateEntry(ctx context.Context, params UpdateEntryParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	phase, err := s.resolvePhase(schedule, params.PhaseID)
	if err != nil {
		return nil, err
	}
	if params.Index < 0 || params.Index >= len(phase.Entries) {
		return nil, indexValidationError()
	}

	entry := domain.Entry{
		ID:               phase.Entries[params.Index].ID,
		Name:             strings.TrimSpace(params.Input.Name),
		DayOfWeek:        params.Input.DayOfWeek,
		StartTimeMinutes: params.Input.StartTimeMinutes,
		DurationMinutes:  params.Input.DurationMinutes,
	}
	if err := phase.UpdateEntry(params.Index, entry); err != nil {
		return nil, entryValidationError(err)
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

// RemoveEntry deletes the entry at a position within a phase. Entries still
// referenced by overrides cannot be removed.
func (s *ScheduleService) RemoveEntry(ctx context.Context, params RemoveEntryParams) (*domain.Schedule, error) {
	schedule, err := s.loadAccessible(ctx, params.Principal, params.ScheduleID, false)
	if err != nil {
		return nil, err
	}

	phase, err := s.resolvePhase(schedule, params.PhaseID)
	if err != nil {
		return nil, err
	}
	if params.Index < 0 || params.Index >= len(phase.Entries) {
		return nil, indexValidationError()
	}

	if err := s.ensureEntryUnreferenced(ctx, phase.Entries[params.Index].ID); err != nil {
		return nil, err
	}

	if err := phase.RemoveEntry(params.Index); err != nil {
		return nil, indexValidationError()
	}

	if err := s.schedules.UpdateSchedule(ctx, schedule); err != nil {
		return nil, mapRepoError(err)
	}
	return schedule, nil
}

func (s *ScheduleService) resolvePhase(schedule *domain.Schedule, phaseID string) (*domain.Phase, error) {
	if phaseID == "" {
		phase, ok := schedule.DefaultPhase()
		if !ok {
			return nil, ErrNotFound
		}
		return phase, nil
	}
	phase, ok := schedule.FindPhaseByID(phaseID)
	if !ok {
		return nil, ErrNotFound
	}
	return phase, nil
}

func (s *ScheduleService) ensureEntryUnreferenced(ctx context.Context, entryID string) error {
	if s.overrides == nil || entryID == "" {
		return nil
	}
	count, err := s.overrides.CountOverridesForEntry(ctx, entryID)
	if err != nil {
		return mapRepoError(err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d override(s) target entry %s", ErrEntryReferenced, count, entryID)
	}
	return nil
}

// loadAccessible loads a schedule and checks the principal's rights.
// Shared users can read and edit; ownerOnly gates deletion and sharing.
func (s *ScheduleService) loadAccessible(ctx context.Context, principal Principal, scheduleID string, ownerOnly bool) (*domain.Schedule, error) {
	if s == nil || s.schedules == nil {
		return nil, fmt.Errorf("schedule store not configured")
	}
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}

	if ownerOnly {
		if schedule.OwnerID != principal.UserID && !principal.IsAdmin {
			return nil, ErrUnauthorized
		}
		return schedule, nil
	}
	if !schedule.IsAccessibleBy(principal.UserID) && !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return schedule, nil
}

func phaseValidationError(err error) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, domain.ErrPhaseDateOrder):
		vErr.add("dates", "start date must be before end date")
	case errors.Is(err, domain.ErrInvalidDate):
		vErr.add("dates", "dates must be valid YYYY-MM-DD strings")
	default:
		return err
	}
	return vErr
}

func entryValidationError(err error) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, domain.ErrEntryNameRequired):
		vErr.add("name", "name is required")
	case errors.Is(err, domain.ErrInvalidDayOfWeek):
		vErr.add("dayOfWeek", "day of week must be between 0 and 6")
	case errors.Is(err, domain.ErrInvalidStartTime):
		vErr.add("startTimeMinutes", "start time must be between 0 and 1439")
	case errors.Is(err, domain.ErrInvalidDuration):
		vErr.add("durationMinutes", "duration must be a positive multiple of 15")
	case errors.Is(err, domain.ErrEntryIndexOutOfRange):
		vErr.add("index", "entry index out of range")
	default:
		return err
	}
	return vErr
}

func indexValidationError() error {
	vErr := &ValidationError{}
	vErr.add("index", "entry index out of range")
	return vErr
}

func mapRepoError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	}
	return err
}

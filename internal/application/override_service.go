package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/persistence"
)

// OverrideStore captures the persistence interactions for overrides.
type OverrideStore interface {
	CreateOverride(ctx context.Context, override domain.Override) error
	UpdateOverride(ctx context.Context, override domain.Override) error
	GetOverride(ctx context.Context, id string) (domain.Override, error)
	ListOverrides(ctx context.Context, scheduleID string) ([]domain.Override, error)
	ListOverridesInRange(ctx context.Context, scheduleID, startDate, endDate string) ([]domain.Override, error)
	FindOverrideByEntryAndDate(ctx context.Context, scheduleID, baseEntryID, date string) (domain.Override, error)
	DeleteOverride(ctx context.Context, id string) error
}

// OverrideService manages date-scoped exceptions to a schedule's weekly
// recurrence.
type OverrideService struct {
	schedules   ScheduleStore
	overrides   OverrideStore
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewOverrideService wires dependencies for override operations.
func NewOverrideService(schedules ScheduleStore, overrides OverrideStore, idGenerator func() string, now func() time.Time) *OverrideService {
	return NewOverrideServiceWithLogger(schedules, overrides, idGenerator, now, nil)
}

// NewOverrideServiceWithLogger constructs an OverrideService with a specified logger.
func NewOverrideServiceWithLogger(schedules ScheduleStore, overrides OverrideStore, idGenerator func() string, now func() time.Time, logger *slog.Logger) *OverrideService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &OverrideService{
		schedules:   schedules,
		overrides:   overrides,
		idGenerator: idGenerator,
		now:         now,
		logger:      defaultLogger(logger),
	}
}

func (s *OverrideService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "OverrideService", operation, attrs...)
}

// CreateOverride records an exception for a date. A SKIP or MODIFY aimed at
// an entry that already has an override on that date replaces it, so callers
// can flip a skip into a modification without deleting first.
func (s *OverrideService) CreateOverride(ctx context.Context, params CreateOverrideParams) (domain.Override, error) {
	logger := s.loggerWith(ctx, "CreateOverride", "schedule_id", params.ScheduleID, "date", params.Input.Date)

	schedule, err := s.accessibleSchedule(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return domain.Override{}, err
	}

	override, err := s.buildOverride(schedule, s.idGenerator(), params.Input)
	if err != nil {
		return domain.Override{}, err
	}

	if override.BaseEntryID != "" {
		existing, err := s.overrides.FindOverrideByEntryAndDate(ctx, schedule.ID, override.BaseEntryID, override.Date)
		switch {
		case err == nil:
			override.ID = existing.ID
			if err := s.overrides.UpdateOverride(ctx, override); err != nil {
				return domain.Override{}, mapRepoError(err)
			}
			logger.InfoContext(ctx, "override replaced", "override_id", override.ID, "type", string(override.Type))
			return override, nil
		case errors.Is(err, persistence.ErrNotFound):
			// fall through to insert
		default:
			return domain.Override{}, mapRepoError(err)
		}
	}

	if err := s.overrides.CreateOverride(ctx, override); err != nil {
		return domain.Override{}, mapRepoError(err)
	}
	logger.InfoContext(ctx, "override created", "override_id", override.ID, "type", string(override.Type))
	return override, nil
}

// UpdateOverride replaces an override's fields, keeping its identity.
func (s *OverrideService) UpdateOverride(ctx context.Context, params UpdateOverrideParams) (domain.Override, error) {
	schedule, err := s.accessibleSchedule(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return domain.Override{}, err
	}

	existing, err := s.overrides.GetOverride(ctx, params.OverrideID)
	if err != nil {
		return domain.Override{}, mapRepoError(err)
	}
	if existing.ScheduleID != schedule.ID {
		return domain.Override{}, ErrNotFound
	}

	override, err := s.buildOverride(schedule, existing.ID, params.Input)
	if err != nil {
		return domain.Override{}, err
	}
	if err := s.overrides.UpdateOverride(ctx, override); err != nil {
		return domain.Override{}, mapRepoError(err)
	}
	return override, nil
}

// DeleteOverride removes an override, restoring the underlying recurrence.
func (s *OverrideService) DeleteOverride(ctx context.Context, principal Principal, scheduleID, overrideID string) error {
	schedule, err := s.accessibleSchedule(ctx, principal, scheduleID)
	if err != nil {
		return err
	}

	existing, err := s.overrides.GetOverride(ctx, overrideID)
	if err != nil {
		return mapRepoError(err)
	}
	if existing.ScheduleID != schedule.ID {
		return ErrNotFound
	}
	if err := s.overrides.DeleteOverride(ctx, overrideID); err != nil {
		return mapRepoError(err)
	}
	return nil
}

// ListOverrides returns a schedule's overrides ordered by date.
func (s *OverrideService) ListOverrides(ctx context.Context, principal Principal, scheduleID string) ([]domain.Override, error) {
	if _, err := s.accessibleSchedule(ctx, principal, scheduleID); err != nil {
		return nil, err
	}
	overrides, err := s.overrides.ListOverrides(ctx, scheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	return overrides, nil
}

// ValidateOverride reports the conflicts the candidate override would
// introduce on its date, without persisting anything.
func (s *OverrideService) ValidateOverride(ctx context.Context, params ValidateOverrideParams) (OverrideValidation, error) {
	schedule, err := s.accessibleSchedule(ctx, params.Principal, params.ScheduleID)
	if err != nil {
		return OverrideValidation{}, err
	}

	candidate, err := s.buildOverride(schedule, "dry-run", params.Input)
	if err != nil {
		return OverrideValidation{}, err
	}

	existing, err := s.overrides.ListOverridesInRange(ctx, schedule.ID, candidate.Date, candidate.Date)
	if err != nil {
		return OverrideValidation{}, mapRepoError(err)
	}
	// Drop any stored override the candidate would replace, so validation
	// reflects the post-write calendar.
	kept := existing[:0]
	for _, override := range existing {
		if candidate.BaseEntryID != "" && override.BaseEntryID == candidate.BaseEntryID {
			continue
		}
		kept = append(kept, override)
	}

	conflicts, err := calendar.ValidateOverrideForDate(schedule, candidate.Date, kept, candidate)
	if err != nil {
		return OverrideValidation{}, err
	}
	return OverrideValidation{Valid: len(conflicts) == 0, Conflicts: conflicts}, nil
}

// buildOverride translates caller input into a validated domain override.
func (s *OverrideService) buildOverride(schedule *domain.Schedule, id string, input OverrideInput) (domain.Override, error) {
	vErr := &ValidationError{}

	switch input.Type {
	case domain.OverrideSkip:
		if err := s.ensureEntryExists(schedule, input.BaseEntryID, vErr); err != nil {
			return domain.Override{}, err
		}
		override, err := domain.NewSkipOverride(id, schedule.ID, input.Date, input.BaseEntryID)
		if err != nil {
			return domain.Override{}, overrideValidationError(err)
		}
		return override, nil

	case domain.OverrideModify:
		if err := s.ensureEntryExists(schedule, input.BaseEntryID, vErr); err != nil {
			return domain.Override{}, err
		}
		override, err := domain.NewModifyOverride(id, schedule.ID, input.Date, input.BaseEntryID, domain.OverrideData{
			Name:             input.Name,
			StartTimeMinutes: input.StartTimeMinutes,
			DurationMinutes:  input.DurationMinutes,
		})
		if err != nil {
			return domain.Override{}, overrideValidationError(err)
		}
		return override, nil

	case domain.OverrideOneTime:
		if input.Name == nil || input.StartTimeMinutes == nil || input.DurationMinutes == nil {
			vErr.add("data", "one-time overrides need name, start time, and duration")
			return domain.Override{}, vErr
		}
		override, err := domain.NewOneTimeOverride(id, schedule.ID, input.Date, *input.Name, *input.StartTimeMinutes, *input.DurationMinutes)
		if err != nil {
			return domain.Override{}, overrideValidationError(err)
		}
		return override, nil
	}

	vErr.add("type", "type must be SKIP, MODIFY, or ONE_TIME")
	return domain.Override{}, vErr
}

// ensureEntryExists rejects overrides aimed at entries the schedule does not
// contain. Overrides may outlive their entry in storage, but new ones must
// target something real.
func (s *OverrideService) ensureEntryExists(schedule *domain.Schedule, entryID string, vErr *ValidationError) error {
	if entryID == "" {
		vErr.add("baseEntryId", "base entry id is required")
		return vErr
	}
	if _, ok := schedule.PhaseOwning(entryID); !ok {
		vErr.add("baseEntryId", "entry does not exist in this schedule")
		return vErr
	}
	return nil
}

// accessibleSchedule loads a schedule for a principal who can read or edit
// it. Overrides carry no owner-only operations; anyone the schedule is
// shared with may manage them.
func (s *OverrideService) accessibleSchedule(ctx context.Context, principal Principal, scheduleID string) (*domain.Schedule, error) {
	if s == nil || s.schedules == nil || s.overrides == nil {
		return nil, fmt.Errorf("override service not configured")
	}
	schedule, err := s.schedules.GetSchedule(ctx, scheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !schedule.IsAccessibleBy(principal.UserID) && !principal.IsAdmin {
		return nil, ErrUnauthorized
	}
	return schedule, nil
}

func overrideValidationError(err error) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		vErr.add("date", "date must be a valid YYYY-MM-DD string")
	case errors.Is(err, domain.ErrOverrideBaseEntryRequired):
		vErr.add("baseEntryId", "base entry id is required for this type")
	case errors.Is(err, domain.ErrOverrideBaseEntryForbidden):
		vErr.add("baseEntryId", "one-time overrides must not reference an entry")
	case errors.Is(err, domain.ErrOverrideDataRequired), errors.Is(err, domain.ErrOverrideDataIncomplete):
		vErr.add("data", "override data is incomplete for this type")
	case errors.Is(err, domain.ErrOverrideDataForbidden):
		vErr.add("data", "skip overrides must not carry data")
	case errors.Is(err, domain.ErrOverrideDataEmpty):
		vErr.add("data", "modify overrides must change at least one field")
	case errors.Is(err, domain.ErrInvalidStartTime):
		vErr.add("startTimeMinutes", "start time must be between 0 and 1439")
	case errors.Is(err, domain.ErrInvalidDuration):
		vErr.add("durationMinutes", "duration must be a positive multiple of 15")
	default:
		return err
	}
	return vErr
}

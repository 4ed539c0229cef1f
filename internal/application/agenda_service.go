package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
)

// AgendaService materializes schedules into concrete per-date agendas and
// annotates them with conflict warnings.
type AgendaService struct {
	schedules ScheduleStore
	overrides OverrideStore
	cache     *agendaCache
	logger    *slog.Logger
}

// NewAgendaService wires dependencies for agenda queries.
func NewAgendaService(schedules ScheduleStore, overrides OverrideStore, now func() time.Time) *AgendaService {
	return NewAgendaServiceWithLogger(schedules, overrides, now, nil)
}

// NewAgendaServiceWithLogger constructs an AgendaService with a specified logger.
func NewAgendaServiceWithLogger(schedules ScheduleStore, overrides OverrideStore, now func() time.Time, logger *slog.Logger) *AgendaService {
	return &AgendaService{
		schedules: schedules,
		overrides: overrides,
		cache:     newAgendaCache(30*time.Second, 128, now),
		logger:    defaultLogger(logger),
	}
}

// maxAgendaRangeDays caps a single range query; a year covers every UI view.
const maxAgendaRangeDays = 366

// GetDay materializes a single date.
func (s *AgendaService) GetDay(ctx context.Context, principal Principal, scheduleID, date string) (AgendaDay, error) {
	days, err := s.GetRange(ctx, AgendaParams{
		Principal:  principal,
		ScheduleID: scheduleID,
		StartDate:  date,
		EndDate:    date,
	})
	if err != nil {
		return AgendaDay{}, err
	}
	if len(days) != 1 {
		return AgendaDay{}, fmt.Errorf("expected one agenda day, got %d", len(days))
	}
	return days[0], nil
}

// GetRange materializes every date of the inclusive range in order. Days
// without instances appear with empty entries so callers can render a full
// week or month grid.
func (s *AgendaService) GetRange(ctx context.Context, params AgendaParams) ([]AgendaDay, error) {
	if s == nil || s.schedules == nil || s.overrides == nil {
		return nil, fmt.Errorf("agenda service not configured")
	}
	logger := serviceLogger(ctx, s.logger, "AgendaService", "GetRange",
		"schedule_id", params.ScheduleID, "start_date", params.StartDate, "end_date", params.EndDate)

	if err := validateAgendaRange(params.StartDate, params.EndDate); err != nil {
		return nil, err
	}

	schedule, err := s.schedules.GetSchedule(ctx, params.ScheduleID)
	if err != nil {
		return nil, mapRepoError(err)
	}
	if !schedule.IsAccessibleBy(params.Principal.UserID) && !params.Principal.IsAdmin {
		return nil, ErrUnauthorized
	}

	cacheKey := buildAgendaCacheKey(schedule.ID, params.StartDate, params.EndDate)
	if days, ok := s.cache.Get(cacheKey); ok {
		return days, nil
	}

	overrides, err := s.overrides.ListOverridesInRange(ctx, schedule.ID, params.StartDate, params.EndDate)
	if err != nil {
		return nil, mapRepoError(err)
	}

	byDate, dates, err := calendar.MaterializeForRange(schedule, params.StartDate, params.EndDate, overrides)
	if err != nil {
		return nil, agendaValidationError(err)
	}

	days := make([]AgendaDay, 0, len(dates))
	for _, date := range dates {
		entries := byDate[date]
		days = append(days, AgendaDay{
			Date:     date,
			Entries:  entries,
			Warnings: toConflictWarnings(date, calendar.FindConflicts(entries)),
		})
	}

	s.cache.Store(cacheKey, days)
	logger.DebugContext(ctx, "agenda materialized", "days", len(days))
	return days, nil
}

// Invalidate drops cached agendas of a schedule after a mutation.
func (s *AgendaService) Invalidate(scheduleID string) {
	if s == nil {
		return
	}
	s.cache.InvalidateSchedule(scheduleID)
}

func toConflictWarnings(date string, pairs []calendar.ConflictPair) []ConflictWarning {
	if len(pairs) == 0 {
		return nil
	}
	warnings := make([]ConflictWarning, 0, len(pairs))
	for _, pair := range pairs {
		from := pair.First.StartTimeMinutes
		if pair.Second.StartTimeMinutes > from {
			from = pair.Second.StartTimeMinutes
		}
		to := pair.First.EndTimeMinutes()
		if pair.Second.EndTimeMinutes() < to {
			to = pair.Second.EndTimeMinutes()
		}
		warnings = append(warnings, ConflictWarning{
			Date:        date,
			FirstID:     pair.First.ID,
			FirstName:   pair.First.Name,
			SecondID:    pair.Second.ID,
			SecondName:  pair.Second.Name,
			OverlapFrom: from,
			OverlapTo:   to,
		})
	}
	return warnings
}

func validateAgendaRange(startDate, endDate string) error {
	vErr := &ValidationError{}
	start, err := domain.ParseDate(startDate)
	if err != nil {
		vErr.add("startDate", "start date must be a valid YYYY-MM-DD string")
	}
	end, err := domain.ParseDate(endDate)
	if err != nil {
		vErr.add("endDate", "end date must be a valid YYYY-MM-DD string")
	}
	if vErr.HasErrors() {
		return vErr
	}
	if end.Sub(start) > maxAgendaRangeDays*24*time.Hour {
		vErr.add("endDate", fmt.Sprintf("range must not exceed %d days", maxAgendaRangeDays))
		return vErr
	}
	return nil
}

func agendaValidationError(err error) error {
	if err == nil {
		return nil
	}
	vErr := &ValidationError{}
	if errors.Is(err, domain.ErrInvalidDate) {
		vErr.add("date", "date must be a valid YYYY-MM-DD string")
		return vErr
	}
	return err
}

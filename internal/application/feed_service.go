package application

import (
	"context"
	"log/slog"
	"time"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
)

// FeedScheduleStore resolves schedules from their opaque feed tokens.
type FeedScheduleStore interface {
	GetScheduleByFeedToken(ctx context.Context, token string) (*domain.Schedule, error)
}

// FeedService serves the unauthenticated iCal export. Access control is the
// token itself; a token that resolves grants read access to that one schedule.
type FeedService struct {
	schedules FeedScheduleStore
	overrides OverrideStore
	generator FeedGenerator
	logger    *slog.Logger
}

// FeedGenerator is the rendering dependency of the feed service.
type FeedGenerator interface {
	FeedRange(schedule *domain.Schedule, reference time.Time) (string, string)
	Render(schedule *domain.Schedule, days map[string][]calendar.MaterializedEntry, order []string) (string, error)
}

// NewFeedService wires dependencies for feed rendering.
func NewFeedService(schedules FeedScheduleStore, overrides OverrideStore, generator FeedGenerator) *FeedService {
	return NewFeedServiceWithLogger(schedules, overrides, generator, nil)
}

// NewFeedServiceWithLogger constructs a FeedService with a specified logger.
func NewFeedServiceWithLogger(schedules FeedScheduleStore, overrides OverrideStore, generator FeedGenerator, logger *slog.Logger) *FeedService {
	return &FeedService{
		schedules: schedules,
		overrides: overrides,
		generator: generator,
		logger:    defaultLogger(logger),
	}
}

func (s *FeedService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "FeedService", operation, attrs...)
}

// RenderFeed resolves the token and serializes the schedule's materialized
// window as an iCalendar document.
func (s *FeedService) RenderFeed(ctx context.Context, params FeedParams) (string, error) {
	logger := s.loggerWith(ctx, "RenderFeed")

	schedule, err := s.schedules.GetScheduleByFeedToken(ctx, "/ical/"+params.Token)
	if err != nil {
		mapped := mapRepoError(err)
		logger.Warn("feed token did not resolve", "error_kind", ErrorKind(mapped))
		return "", mapped
	}

	start, end := s.generator.FeedRange(schedule, params.Reference)
	overrides, err := s.overrides.ListOverridesInRange(ctx, schedule.ID, start, end)
	if err != nil {
		mapped := mapRepoError(err)
		logger.Error("loading overrides failed", "error_kind", ErrorKind(mapped))
		return "", mapped
	}

	days, order, err := calendar.MaterializeForRange(schedule, start, end, overrides)
	if err != nil {
		logger.Error("materialization failed", "error_kind", ErrorKind(err))
		return "", err
	}

	out, err := s.generator.Render(schedule, days, order)
	if err != nil {
		logger.Error("rendering failed", "error_kind", ErrorKind(err))
		return "", err
	}
	logger.Info("feed rendered", "schedule_id", schedule.ID, "start_date", start, "end_date", end)
	return out, nil
}

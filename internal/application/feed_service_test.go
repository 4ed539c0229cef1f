package application

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/example/weekly-planner/internal/domain"
	"github.com/example/weekly-planner/internal/ical"
	"github.com/example/weekly-planner/internal/persistence"
)

type feedScheduleStoreStub struct {
	schedule *domain.Schedule
}

func (s *feedScheduleStoreStub) GetScheduleByFeedToken(ctx context.Context, token string) (*domain.Schedule, error) {
	if s.schedule == nil || s.schedule.ICalURL != token {
		return nil, persistence.ErrNotFound
	}
	return s.schedule, nil
}

func TestFeedService_RenderFeed(t *testing.T) {
	t.Parallel()

	schedule := gymFixture(t)
	svc := NewFeedService(
		&feedScheduleStoreStub{schedule: schedule},
		newOverrideStoreStub(),
		ical.NewGenerator("https://planner.example.com", 14),
	)

	out, err := svc.RenderFeed(context.Background(), FeedParams{
		Token:     "tok",
		Reference: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RenderFeed: %v", err)
	}

	if !strings.Contains(out, "BEGIN:VCALENDAR") {
		t.Fatalf("not an iCalendar document:\n%s", out)
	}
	if !strings.Contains(out, "SUMMARY:Gym") {
		t.Errorf("missing recurring entry:\n%s", out)
	}
}

func TestFeedService_RenderFeed_AppliesOverrides(t *testing.T) {
	t.Parallel()

	schedule := gymFixture(t)
	skip, err := domain.NewSkipOverride("override-1", "schedule-1", "2024-07-01", "entry-gym")
	if err != nil {
		t.Fatalf("NewSkipOverride: %v", err)
	}
	svc := NewFeedService(
		&feedScheduleStoreStub{schedule: schedule},
		newOverrideStoreStub(skip),
		ical.NewGenerator("https://planner.example.com", 7),
	)

	out, err := svc.RenderFeed(context.Background(), FeedParams{
		Token:     "tok",
		Reference: time.Date(2024, 7, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("RenderFeed: %v", err)
	}
	if strings.Contains(out, "2024-07-01") && strings.Contains(out, "UID:schedule-1-entry-gym-2024-07-01") {
		t.Errorf("skipped date should not appear in feed:\n%s", out)
	}
	// The next Monday survives.
	if !strings.Contains(out, "UID:schedule-1-entry-gym-2024-07-08") {
		t.Errorf("expected following Monday in feed:\n%s", out)
	}
}

func TestFeedService_RenderFeed_UnknownToken(t *testing.T) {
	t.Parallel()

	svc := NewFeedService(&feedScheduleStoreStub{}, newOverrideStoreStub(), ical.NewGenerator("https://planner.example.com", 7))

	_, err := svc.RenderFeed(context.Background(), FeedParams{Token: "missing"})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

// Package ical renders materialized schedule days as an iCalendar feed.
package ical

import (
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
)

const productID = "-//Weekly Planner//Feed//EN"

// Generator builds iCalendar documents from materialized entries.
type Generator struct {
	// HorizonDays bounds the feed span when a schedule has no bounded
	// phases to derive a range from.
	HorizonDays int

	baseURL string
	now     func() time.Time
}

// NewGenerator returns a Generator with the given horizon. A horizon of
// zero or less falls back to 90 days. Event descriptions link back to the
// schedule page under baseURL; an empty baseURL omits the link.
func NewGenerator(baseURL string, horizonDays int) *Generator {
	if horizonDays <= 0 {
		horizonDays = 90
	}
	return &Generator{
		HorizonDays: horizonDays,
		baseURL:     strings.TrimRight(baseURL, "/"),
		now:         time.Now,
	}
}

// FeedRange computes the date window the feed should cover. Bounded
// phases extend the window, unbounded schedules fall back to the
// horizon starting at the reference day.
func (g *Generator) FeedRange(schedule *domain.Schedule, reference time.Time) (string, string) {
	start := domain.FormatDate(reference)
	end := domain.FormatDate(reference.AddDate(0, 0, g.HorizonDays))

	for _, phase := range schedule.Phases {
		if phase.StartDate != "" && phase.StartDate < start {
			start = phase.StartDate
		}
		if phase.EndDate != "" && phase.EndDate > end {
			end = phase.EndDate
		}
	}
	return start, end
}

// Render serializes the materialized days of a schedule as an
// iCalendar document. Days must come from MaterializeForRange so that
// ordering within each day is already stable.
func (g *Generator) Render(schedule *domain.Schedule, days map[string][]calendar.MaterializedEntry, order []string) (string, error) {
	loc, err := time.LoadLocation(schedule.TimeZone)
	if err != nil {
		return "", fmt.Errorf("load time zone %q: %w", schedule.TimeZone, err)
	}

	cal := ics.NewCalendar()
	cal.SetProductId(productID)
	cal.SetMethod(ics.MethodPublish)
	cal.SetXWRCalName(schedule.Name)
	cal.SetXWRTimezone(schedule.TimeZone)

	stamp := g.now().UTC()
	for _, date := range order {
		for _, entry := range days[date] {
			start, err := entryStart(date, entry.StartTimeMinutes, loc)
			if err != nil {
				return "", err
			}
			event := cal.AddEvent(eventUID(schedule.ID, entry, date))
			event.SetSummary(entry.Name)
			event.SetStartAt(start)
			event.SetEndAt(start.Add(time.Duration(entry.DurationMinutes) * time.Minute))
			event.SetDtStampTime(stamp)
			if desc := g.eventDescription(schedule, entry); desc != "" {
				event.SetDescription(desc)
			}
		}
	}
	return cal.Serialize(), nil
}

func entryStart(date string, minutes int, loc *time.Location) (time.Time, error) {
	day, err := domain.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(day.Year(), day.Month(), day.Day(), minutes/60, minutes%60, 0, 0, loc), nil
}

func eventUID(scheduleID string, entry calendar.MaterializedEntry, date string) string {
	return fmt.Sprintf("%s-%s-%s@weekly-planner", scheduleID, entry.ID, date)
}

func (g *Generator) eventDescription(schedule *domain.Schedule, entry calendar.MaterializedEntry) string {
	label := ""
	if entry.IsOverride {
		switch entry.OverrideType {
		case domain.OverrideModify:
			label = "Adjusted occurrence"
		case domain.OverrideOneTime:
			label = "One-time entry"
		}
	}
	if label == "" {
		if phase, ok := schedule.FindPhaseByID(entry.PhaseID); ok {
			if phase.StartDate == "" && phase.EndDate == "" {
				label = phase.Name
			} else {
				label = fmt.Sprintf("%s (%s to %s)", phase.Name, orOpen(phase.StartDate), orOpen(phase.EndDate))
			}
		}
	}

	if g.baseURL == "" {
		return label
	}
	link := g.baseURL + "/schedule/" + schedule.ID
	if label == "" {
		return link
	}
	return label + "\n" + link
}

func orOpen(date string) string {
	if date == "" {
		return "open"
	}
	return date
}

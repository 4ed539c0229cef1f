// Package calendar resolves a schedule's phases, entries, and overrides into
// the concrete instances that occur on a given date. Every function here is a
// pure transformation of its inputs: no storage access, no shared state, and
// no failure modes beyond input validation.
package calendar

import (
	"sort"

	"github.com/example/weekly-planner/internal/domain"
)

// MaterializedEntry is one concrete, date-stamped occurrence. ID carries the
// base entry id for unmodified recurring instances and the override id for
// MODIFY and ONE_TIME instances.
type MaterializedEntry struct {
	ID               string
	Name             string
	DayOfWeek        int
	StartTimeMinutes int
	DurationMinutes  int
	Date             string
	IsOverride       bool
	OverrideType     domain.OverrideType
	BaseEntryID      string
	PhaseID          string
}

// EndTimeMinutes returns the exclusive end offset of the instance.
func (m MaterializedEntry) EndTimeMinutes() int {
	return m.StartTimeMinutes + m.DurationMinutes
}

// MaterializeForDate computes the instances occurring on one ISO date.
//
// Recurring candidates come from every phase active on the date, filtered to
// the date's weekday. Overrides are filtered to the exact date, so callers may
// pass a wider set without affecting correctness. SKIP overrides suppress
// their target instance, MODIFY overrides replace fields with per-field
// fallback to the base entry, and ONE_TIME overrides inject standalone
// instances. Candidates without a persisted id are dropped; they cannot be
// targeted by overrides. Overrides whose base entry no longer exists simply
// never match.
//
// The result is sorted ascending by start time; ties keep recurring instances
// ahead of one-time instances in their emission order.
func MaterializeForDate(schedule *domain.Schedule, date string, overrides []domain.Override) ([]MaterializedEntry, error) {
	dayOfWeek, err := domain.DayOfWeek(date)
	if err != nil {
		return nil, err
	}

	activeEntries, err := schedule.ActiveEntriesForDate(date)
	if err != nil {
		return nil, err
	}

	relevant := make([]domain.Override, 0, len(overrides))
	for _, override := range overrides {
		if override.AppliesTo(date) {
			relevant = append(relevant, override)
		}
	}

	materialized := make([]MaterializedEntry, 0, len(activeEntries))

	for _, entry := range activeEntries {
		if entry.DayOfWeek != dayOfWeek {
			continue
		}
		if entry.ID == "" {
			continue
		}

		if _, skipped := findOverrideFor(relevant, domain.OverrideSkip, entry.ID); skipped {
			continue
		}

		phaseID := ""
		if phase, ok := schedule.PhaseOwning(entry.ID); ok {
			phaseID = phase.ID
		}

		if modify, ok := findOverrideFor(relevant, domain.OverrideModify, entry.ID); ok {
			materialized = append(materialized, applyModify(entry, modify, date, phaseID))
			continue
		}

		materialized = append(materialized, MaterializedEntry{
			ID:               entry.ID,
			Name:             entry.Name,
			DayOfWeek:        entry.DayOfWeek,
			StartTimeMinutes: entry.StartTimeMinutes,
			DurationMinutes:  entry.DurationMinutes,
			Date:             date,
			PhaseID:          phaseID,
		})
	}

	for _, override := range relevant {
		if override.Type != domain.OverrideOneTime || override.Data == nil {
			continue
		}
		materialized = append(materialized, MaterializedEntry{
			ID:               override.ID,
			Name:             *override.Data.Name,
			DayOfWeek:        dayOfWeek,
			StartTimeMinutes: *override.Data.StartTimeMinutes,
			DurationMinutes:  *override.Data.DurationMinutes,
			Date:             date,
			IsOverride:       true,
			OverrideType:     domain.OverrideOneTime,
		})
	}

	sort.SliceStable(materialized, func(i, j int) bool {
		return materialized[i].StartTimeMinutes < materialized[j].StartTimeMinutes
	})

	return materialized, nil
}

// MaterializeForRange materializes every date from startDate to endDate
// inclusive. The returned map holds one key per date, days without instances
// included with an empty slice; the returned slice lists the keys in date
// order. A start after the end yields an empty result.
func MaterializeForRange(schedule *domain.Schedule, startDate, endDate string, overrides []domain.Override) (map[string][]MaterializedEntry, []string, error) {
	dates, err := domain.DatesBetween(startDate, endDate)
	if err != nil {
		return nil, nil, err
	}

	byDate := make(map[string][]MaterializedEntry, len(dates))
	for _, date := range dates {
		entries, err := MaterializeForDate(schedule, date, overrides)
		if err != nil {
			return nil, nil, err
		}
		byDate[date] = entries
	}

	return byDate, dates, nil
}

func findOverrideFor(overrides []domain.Override, overrideType domain.OverrideType, entryID string) (domain.Override, bool) {
	for _, override := range overrides {
		if override.Type == overrideType && override.BaseEntryID == entryID {
			return override, true
		}
	}
	return domain.Override{}, false
}

func applyModify(entry domain.Entry, override domain.Override, date, phaseID string) MaterializedEntry {
	name := entry.Name
	start := entry.StartTimeMinutes
	duration := entry.DurationMinutes

	if override.Data.Name != nil {
		name = *override.Data.Name
	}
	if override.Data.StartTimeMinutes != nil {
		start = *override.Data.StartTimeMinutes
	}
	if override.Data.DurationMinutes != nil {
		duration = *override.Data.DurationMinutes
	}

	return MaterializedEntry{
		ID:               override.ID,
		Name:             name,
		DayOfWeek:        entry.DayOfWeek,
		StartTimeMinutes: start,
		DurationMinutes:  duration,
		Date:             date,
		IsOverride:       true,
		OverrideType:     domain.OverrideModify,
		BaseEntryID:      entry.ID,
		PhaseID:          phaseID,
	}
}

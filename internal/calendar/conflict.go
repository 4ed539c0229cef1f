package calendar

import "github.com/example/weekly-planner/internal/domain"

// ConflictPair reports two instances on the same date whose time ranges
// overlap. Intervals are half-open, so an entry ending exactly when another
// starts does not conflict.
type ConflictPair struct {
	First  MaterializedEntry
	Second MaterializedEntry
}

// FindConflicts returns every overlapping pair among the given instances.
// The input is assumed to be a single date's materialization; callers holding
// a range check each date separately.
func FindConflicts(entries []MaterializedEntry) []ConflictPair {
	indexes := findConflictIndexes(entries)
	if len(indexes) == 0 {
		return nil
	}

	pairs := make([]ConflictPair, 0, len(indexes))
	for _, pair := range indexes {
		pairs = append(pairs, ConflictPair{First: entries[pair[0]], Second: entries[pair[1]]})
	}
	return pairs
}

// ValidateOverrideForDate reports the instances that would be in conflict on
// the date if the candidate override were applied. An empty result means the
// override introduces no overlap. The conflicts are data, not an error; the
// error return covers invalid input only.
func ValidateOverrideForDate(schedule *domain.Schedule, date string, existing []domain.Override, candidate domain.Override) ([]MaterializedEntry, error) {
	combined := make([]domain.Override, 0, len(existing)+1)
	combined = append(combined, existing...)
	combined = append(combined, candidate)

	entries, err := MaterializeForDate(schedule, date, combined)
	if err != nil {
		return nil, err
	}

	indexes := findConflictIndexes(entries)
	if len(indexes) == 0 {
		return nil, nil
	}

	seen := make(map[int]bool, len(entries))
	conflicted := make([]MaterializedEntry, 0, len(indexes))
	for _, pair := range indexes {
		for _, i := range []int{pair[0], pair[1]} {
			if !seen[i] {
				seen[i] = true
				conflicted = append(conflicted, entries[i])
			}
		}
	}
	return conflicted, nil
}

func findConflictIndexes(entries []MaterializedEntry) [][2]int {
	var indexes [][2]int
	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.StartTimeMinutes < b.EndTimeMinutes() && a.EndTimeMinutes() > b.StartTimeMinutes {
				indexes = append(indexes, [2]int{i, j})
			}
		}
	}
	return indexes
}

package domain

import "errors"

var (
	// ErrEntryNameRequired indicates an entry was constructed without a display name.
	ErrEntryNameRequired = errors.New("domain: entry name is required")
	// ErrInvalidDayOfWeek indicates a weekday outside 0 (Sunday) through 6 (Saturday).
	ErrInvalidDayOfWeek = errors.New("domain: day of week must be between 0 (Sunday) and 6 (Saturday)")
	// ErrInvalidStartTime indicates a start offset outside 0 through 1439 minutes.
	ErrInvalidStartTime = errors.New("domain: start time must be between 0 and 1439 minutes")
	// ErrInvalidDuration indicates a duration that is not a positive multiple of 15 minutes.
	ErrInvalidDuration = errors.New("domain: duration must be a positive multiple of 15 minutes")
)

// Entry is a named weekly time-block within a phase. Entries are immutable
// values; replacing one means constructing a new Entry.
//
// ID is empty for entries that have not been persisted yet. Only persisted
// entries can be targeted by overrides.
type Entry struct {
	ID               string
	Name             string
	DayOfWeek        int
	StartTimeMinutes int
	DurationMinutes  int
}

// NewEntry constructs a validated weekly time-block.
func NewEntry(id, name string, dayOfWeek, startTimeMinutes, durationMinutes int) (Entry, error) {
	entry := Entry{
		ID:               id,
		Name:             name,
		DayOfWeek:        dayOfWeek,
		StartTimeMinutes: startTimeMinutes,
		DurationMinutes:  durationMinutes,
	}
	if err := entry.Validate(); err != nil {
		return Entry{}, err
	}
	return entry, nil
}

// Validate re-checks the entry invariants, for records rehydrated from storage.
func (e Entry) Validate() error {
	if e.Name == "" {
		return ErrEntryNameRequired
	}
	if e.DayOfWeek < 0 || e.DayOfWeek > 6 {
		return ErrInvalidDayOfWeek
	}
	if e.StartTimeMinutes < 0 || e.StartTimeMinutes > 1439 {
		return ErrInvalidStartTime
	}
	if e.DurationMinutes <= 0 || e.DurationMinutes%15 != 0 {
		return ErrInvalidDuration
	}
	return nil
}

// EndTimeMinutes returns the exclusive end offset of the block.
func (e Entry) EndTimeMinutes() int {
	return e.StartTimeMinutes + e.DurationMinutes
}

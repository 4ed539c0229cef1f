package domain

import "errors"

var (
	// ErrPhaseIDRequired indicates a phase was constructed without an identifier.
	ErrPhaseIDRequired = errors.New("domain: phase must have an id")
	// ErrPhaseScheduleIDRequired indicates a phase was constructed without its owning schedule.
	ErrPhaseScheduleIDRequired = errors.New("domain: phase must have a schedule id")
	// ErrPhaseDateOrder indicates a bounded phase whose start date is not strictly before its end date.
	ErrPhaseDateOrder = errors.New("domain: phase start date must be before end date")
	// ErrEntryIndexOutOfRange indicates an entry mutation referenced a position that does not exist.
	ErrEntryIndexOutOfRange = errors.New("domain: entry index out of range")
)

// Phase is a date-bounded container of recurring weekly entries. An empty
// StartDate or EndDate means the phase is unbounded in that direction.
type Phase struct {
	ID         string
	ScheduleID string
	Name       string
	StartDate  string
	EndDate    string
	Entries    []Entry
}

// NewPhase constructs a validated phase. The entries slice is copied.
func NewPhase(id, scheduleID, name, startDate, endDate string, entries []Entry) (*Phase, error) {
	phase := &Phase{
		ID:         id,
		ScheduleID: scheduleID,
		Name:       name,
		StartDate:  startDate,
		EndDate:    endDate,
		Entries:    append([]Entry(nil), entries...),
	}
	if err := phase.Validate(); err != nil {
		return nil, err
	}
	return phase, nil
}

// Validate re-checks the phase invariants, for records rehydrated from storage.
func (p *Phase) Validate() error {
	if p.ID == "" {
		return ErrPhaseIDRequired
	}
	if p.ScheduleID == "" {
		return ErrPhaseScheduleIDRequired
	}
	if err := validateDateRange(p.StartDate, p.EndDate); err != nil {
		return err
	}
	for _, entry := range p.Entries {
		if err := entry.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// IsActive reports whether the phase covers the given ISO date. Bounds are
// inclusive on both ends; a missing bound is treated as unbounded. Comparison
// is plain string comparison, which is ordering-correct for fixed-width ISO
// dates.
func (p *Phase) IsActive(date string) (bool, error) {
	if !ValidDate(date) {
		return false, ErrInvalidDate
	}
	if p.StartDate != "" && date < p.StartDate {
		return false, nil
	}
	if p.EndDate != "" && date > p.EndDate {
		return false, nil
	}
	return true, nil
}

// ActiveEntries returns the phase's entries when it is active on date, and an
// empty slice otherwise.
func (p *Phase) ActiveEntries(date string) ([]Entry, error) {
	active, err := p.IsActive(date)
	if err != nil {
		return nil, err
	}
	if !active {
		return nil, nil
	}
	return append([]Entry(nil), p.Entries...), nil
}

// AddEntry appends an entry to the phase.
func (p *Phase) AddEntry(entry Entry) {
	p.Entries = append(p.Entries, entry)
}

// RemoveEntry deletes the entry at the given position. Unlike the historic
// behavior of silently ignoring bad indices, an out-of-range position is an
// explicit error.
func (p *Phase) RemoveEntry(index int) error {
	if index < 0 || index >= len(p.Entries) {
		return ErrEntryIndexOutOfRange
	}
	p.Entries = append(p.Entries[:index], p.Entries[index+1:]...)
	return nil
}

// UpdateEntry replaces the entry at the given position.
func (p *Phase) UpdateEntry(index int, entry Entry) error {
	if index < 0 || index >= len(p.Entries) {
		return ErrEntryIndexOutOfRange
	}
	if err := entry.Validate(); err != nil {
		return err
	}
	p.Entries[index] = entry
	return nil
}

// UpdateName replaces the phase label.
func (p *Phase) UpdateName(name string) {
	p.Name = name
}

// UpdateDateRange replaces the activity window. The update is atomic: on a
// validation failure the phase keeps its previous bounds.
func (p *Phase) UpdateDateRange(startDate, endDate string) error {
	if err := validateDateRange(startDate, endDate); err != nil {
		return err
	}
	p.StartDate = startDate
	p.EndDate = endDate
	return nil
}

// Unbounded reports whether the phase carries no date bounds at all.
func (p *Phase) Unbounded() bool {
	return p.StartDate == "" && p.EndDate == ""
}

func validateDateRange(startDate, endDate string) error {
	if startDate != "" && !ValidDate(startDate) {
		return ErrInvalidDate
	}
	if endDate != "" && !ValidDate(endDate) {
		return ErrInvalidDate
	}
	if startDate != "" && endDate != "" && startDate >= endDate {
		return ErrPhaseDateOrder
	}
	return nil
}

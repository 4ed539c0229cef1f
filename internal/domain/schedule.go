package domain

import (
	"errors"
	"time"
)

// DefaultPhaseName labels the phase synthesized for schedules that predate the
// phase data model. The legacy flat-entry accessors operate on this phase.
const DefaultPhaseName = "Default Phase"

var (
	// ErrScheduleIDRequired indicates a schedule was constructed without an identifier.
	ErrScheduleIDRequired = errors.New("domain: schedule must have an id")
	// ErrScheduleOwnerRequired indicates a schedule was constructed without an owner.
	ErrScheduleOwnerRequired = errors.New("domain: schedule must have an owner")
	// ErrScheduleFeedTokenRequired indicates a schedule was constructed without an iCal feed token.
	ErrScheduleFeedTokenRequired = errors.New("domain: schedule must have an ical feed token")
	// ErrInvalidTimeZone indicates a time zone that is not a recognized IANA identifier.
	ErrInvalidTimeZone = errors.New("domain: time zone must be a recognized IANA identifier")
)

// Schedule is the aggregate root: an ordered collection of phases plus
// ownership and sharing metadata. A schedule always holds at least one phase;
// constructing one with no phases synthesizes an unbounded default phase.
type Schedule struct {
	ID            string
	OwnerID       string
	SharedUserIDs []string
	Name          string
	TimeZone      string
	ICalURL       string
	Phases        []*Phase
}

// NewSchedule constructs a validated schedule aggregate.
func NewSchedule(id, ownerID, name, timeZone, icalURL string, phases []*Phase) (*Schedule, error) {
	schedule := &Schedule{
		ID:       id,
		OwnerID:  ownerID,
		Name:     name,
		TimeZone: timeZone,
		ICalURL:  icalURL,
		Phases:   append([]*Phase(nil), phases...),
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	if len(schedule.Phases) == 0 {
		schedule.Phases = append(schedule.Phases, schedule.newDefaultPhase())
	}
	return schedule, nil
}

// Validate re-checks the schedule invariants, for aggregates rehydrated from
// storage. The never-empty phase invariant is not re-checked here; rehydration
// goes through NewSchedule which restores it.
func (s *Schedule) Validate() error {
	if s.ID == "" {
		return ErrScheduleIDRequired
	}
	if s.OwnerID == "" {
		return ErrScheduleOwnerRequired
	}
	if s.ICalURL == "" {
		return ErrScheduleFeedTokenRequired
	}
	if _, err := time.LoadLocation(s.TimeZone); err != nil || s.TimeZone == "" {
		return ErrInvalidTimeZone
	}
	for _, phase := range s.Phases {
		if err := phase.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Location resolves the schedule's IANA time zone.
func (s *Schedule) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return nil, ErrInvalidTimeZone
	}
	return loc, nil
}

// IsAccessibleBy reports whether the user owns the schedule or appears in its
// share list.
func (s *Schedule) IsAccessibleBy(userID string) bool {
	if userID == s.OwnerID {
		return true
	}
	for _, id := range s.SharedUserIDs {
		if id == userID {
			return true
		}
	}
	return false
}

// ShareWithUser grants a user access. Adding an already-shared user is a no-op.
func (s *Schedule) ShareWithUser(userID string) {
	for _, id := range s.SharedUserIDs {
		if id == userID {
			return
		}
	}
	s.SharedUserIDs = append(s.SharedUserIDs, userID)
}

// UnshareWithUser revokes a user's access. Removing an unknown user is a no-op.
func (s *Schedule) UnshareWithUser(userID string) {
	kept := make([]string, 0, len(s.SharedUserIDs))
	for _, id := range s.SharedUserIDs {
		if id != userID {
			kept = append(kept, id)
		}
	}
	s.SharedUserIDs = kept
}

// UpdateName replaces the display name.
func (s *Schedule) UpdateName(name string) {
	s.Name = name
}

// UpdateTimeZone replaces the IANA time zone after validating it.
func (s *Schedule) UpdateTimeZone(timeZone string) error {
	if timeZone == "" {
		return ErrInvalidTimeZone
	}
	if _, err := time.LoadLocation(timeZone); err != nil {
		return ErrInvalidTimeZone
	}
	s.TimeZone = timeZone
	return nil
}

// ActivePhasesForDate returns the phases whose activity window covers date, in
// phase order.
func (s *Schedule) ActivePhasesForDate(date string) ([]*Phase, error) {
	if !ValidDate(date) {
		return nil, ErrInvalidDate
	}
	active := make([]*Phase, 0, len(s.Phases))
	for _, phase := range s.Phases {
		ok, err := phase.IsActive(date)
		if err != nil {
			return nil, err
		}
		if ok {
			active = append(active, phase)
		}
	}
	return active, nil
}

// ActiveEntriesForDate flattens the entries of every phase active on date.
// Order is phase order then each phase's own entry order; sorting by start
// time is the materializer's job, not the aggregate's.
func (s *Schedule) ActiveEntriesForDate(date string) ([]Entry, error) {
	phases, err := s.ActivePhasesForDate(date)
	if err != nil {
		return nil, err
	}
	entries := make([]Entry, 0)
	for _, phase := range phases {
		entries = append(entries, phase.Entries...)
	}
	return entries, nil
}

// FindPhaseByID locates a phase within the aggregate.
func (s *Schedule) FindPhaseByID(id string) (*Phase, bool) {
	for _, phase := range s.Phases {
		if phase.ID == id {
			return phase, true
		}
	}
	return nil, false
}

// PhaseOwning locates the phase containing the entry with the given id.
// First match wins; entry ids are not expected to repeat across phases.
func (s *Schedule) PhaseOwning(entryID string) (*Phase, bool) {
	if entryID == "" {
		return nil, false
	}
	for _, phase := range s.Phases {
		for _, entry := range phase.Entries {
			if entry.ID == entryID {
				return phase, true
			}
		}
	}
	return nil, false
}

// AddPhase appends a phase to the aggregate.
func (s *Schedule) AddPhase(phase *Phase) {
	s.Phases = append(s.Phases, phase)
}

// RemovePhase deletes a phase by id. The last remaining phase cannot be
// removed; the aggregate's never-empty invariant holds.
func (s *Schedule) RemovePhase(id string) error {
	if len(s.Phases) <= 1 {
		return ErrLastPhase
	}
	for i, phase := range s.Phases {
		if phase.ID == id {
			s.Phases = append(s.Phases[:i], s.Phases[i+1:]...)
			return nil
		}
	}
	return ErrPhaseNotFound
}

var (
	// ErrLastPhase indicates an attempt to remove a schedule's only phase.
	ErrLastPhase = errors.New("domain: cannot remove the last phase of a schedule")
	// ErrPhaseNotFound indicates the referenced phase does not belong to the schedule.
	ErrPhaseNotFound = errors.New("domain: phase not found")
)

// DefaultPhase returns the phase that the legacy flat-entry accessors operate
// on: the first phase with no date bounds, or failing that the first phase
// named "Default Phase".
func (s *Schedule) DefaultPhase() (*Phase, bool) {
	for _, phase := range s.Phases {
		if phase.Unbounded() {
			return phase, true
		}
	}
	for _, phase := range s.Phases {
		if phase.Name == DefaultPhaseName {
			return phase, true
		}
	}
	return nil, false
}

// Entries is a legacy accessor returning the default phase's entries. New code
// should address entries through their phase.
func (s *Schedule) Entries() []Entry {
	phase, ok := s.DefaultPhase()
	if !ok {
		return nil
	}
	return append([]Entry(nil), phase.Entries...)
}

// AddEntry is a legacy accessor that appends an entry to the default phase,
// synthesizing one when the schedule has no unbounded phase. It exists so the
// pre-phase single-list mental model keeps working.
func (s *Schedule) AddEntry(entry Entry) {
	phase, ok := s.DefaultPhase()
	if !ok {
		phase = s.newDefaultPhase()
		s.Phases = append(s.Phases, phase)
	}
	phase.AddEntry(entry)
}

// RemoveEntry is a legacy accessor removing an entry from the default phase by
// position.
func (s *Schedule) RemoveEntry(index int) error {
	phase, ok := s.DefaultPhase()
	if !ok {
		return ErrEntryIndexOutOfRange
	}
	return phase.RemoveEntry(index)
}

// UpdateEntry is a legacy accessor replacing an entry of the default phase by
// position.
func (s *Schedule) UpdateEntry(index int, entry Entry) error {
	phase, ok := s.DefaultPhase()
	if !ok {
		return ErrEntryIndexOutOfRange
	}
	return phase.UpdateEntry(index, entry)
}

func (s *Schedule) newDefaultPhase() *Phase {
	return &Phase{
		ID:         s.ID + ":default",
		ScheduleID: s.ID,
		Name:       DefaultPhaseName,
	}
}

package application

import (
	"time"

	"github.com/example/weekly-planner/internal/calendar"
	"github.com/example/weekly-planner/internal/domain"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID  string
	IsAdmin bool
}

// ScheduleInput captures caller provided schedule fields.
type ScheduleInput struct {
	Name     string
	TimeZone string
}

// CreateScheduleParams wraps the data required to create a schedule.
type CreateScheduleParams struct {
	Principal Principal
	Input     ScheduleInput
}

// UpdateScheduleParams wraps the data required to update schedule metadata.
type UpdateScheduleParams struct {
	Principal  Principal
	ScheduleID string
	Input      ScheduleInput
}

// PhaseInput captures caller provided phase fields. Empty dates mean the
// phase is unbounded on that side.
type PhaseInput struct {
	Name      string
	StartDate string
	EndDate   string
}

// CreatePhaseParams wraps the data required to add a phase to a schedule.
type CreatePhaseParams struct {
	Principal  Principal
	ScheduleID string
	Input      PhaseInput
}

// UpdatePhaseParams wraps the data required to update a phase.
type UpdatePhaseParams struct {
	Principal  Principal
	ScheduleID string
	PhaseID    string
	Input      PhaseInput
}

// EntryInput captures caller provided weekly entry fields.
type EntryInput struct {
	Name             string
	DayOfWeek        int
	StartTimeMinutes int
	DurationMinutes  int
}

// CreateEntryParams wraps the data required to add an entry to a phase.
type CreateEntryParams struct {
	Principal  Principal
	ScheduleID string
	PhaseID    string
	Input      EntryInput
}

// UpdateEntryParams wraps the data required to replace an entry by position.
type UpdateEntryParams struct {
	Principal  Principal
	ScheduleID string
	PhaseID    string
	Index      int
	Input      EntryInput
}

// RemoveEntryParams wraps the data required to remove an entry by position.
type RemoveEntryParams struct {
	Principal  Principal
	ScheduleID string
	PhaseID    string
	Index      int
}

// OverrideInput captures caller provided override fields. Which fields are
// required depends on the override type.
type OverrideInput struct {
	Date             string
	Type             domain.OverrideType
	BaseEntryID      string
	Name             *string
	StartTimeMinutes *int
	DurationMinutes  *int
}

// CreateOverrideParams wraps the data required to record an override.
type CreateOverrideParams struct {
	Principal  Principal
	ScheduleID string
	Input      OverrideInput
}

// UpdateOverrideParams wraps the data required to update an override.
type UpdateOverrideParams struct {
	Principal  Principal
	ScheduleID string
	OverrideID string
	Input      OverrideInput
}

// AgendaDay is a single date's materialized entries with conflict warnings.
type AgendaDay struct {
	Date     string
	Entries  []calendar.MaterializedEntry
	Warnings []ConflictWarning
}

// ConflictWarning describes two overlapping instances surfaced to callers.
type ConflictWarning struct {
	Date        string
	FirstID     string
	FirstName   string
	SecondID    string
	SecondName  string
	OverlapFrom int
	OverlapTo   int
}

// AgendaParams wraps the data required to materialize a date range.
type AgendaParams struct {
	Principal  Principal
	ScheduleID string
	StartDate  string
	EndDate    string
}

// UserInput captures caller provided user attributes.
type UserInput struct {
	Email       string
	DisplayName string
	Password    string
	IsAdmin     bool
}

// CreateUserParams wraps the data required to create a user.
type CreateUserParams struct {
	Principal Principal
	Input     UserInput
}

// UpdateUserParams wraps the data required to update a user.
type UpdateUserParams struct {
	Principal Principal
	UserID    string
	Input     UserInput
}

// UserCredentials models the authentication attributes persisted for a user.
type UserCredentials struct {
	User         domain.User
	PasswordHash string
}

// AuthenticateParams captures the data required to authenticate a user.
type AuthenticateParams struct {
	Email    string
	Password string
}

// AuthenticateResult captures the outcome of a successful authentication attempt.
type AuthenticateResult struct {
	User    domain.User
	Session domain.Session
}

// ShareScheduleParams wraps the data required to grant schedule access.
type ShareScheduleParams struct {
	Principal  Principal
	ScheduleID string
	UserID     string
}

// ValidateOverrideParams wraps the data for a dry-run conflict check.
type ValidateOverrideParams struct {
	Principal  Principal
	ScheduleID string
	Input      OverrideInput
}

// OverrideValidation is the outcome of a dry-run conflict check. Conflicts are
// data, not errors; an empty slice means the override applies cleanly.
type OverrideValidation struct {
	Valid     bool
	Conflicts []calendar.MaterializedEntry
}

// FeedParams identifies an iCal feed request by its opaque token.
type FeedParams struct {
	Token     string
	Reference time.Time
}

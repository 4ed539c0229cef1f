package domain

import "errors"

// OverrideType discriminates the three exception variants.
type OverrideType string

const (
	// OverrideSkip suppresses one recurring instance of a base entry.
	OverrideSkip OverrideType = "SKIP"
	// OverrideModify alters one recurring instance of a base entry.
	OverrideModify OverrideType = "MODIFY"
	// OverrideOneTime injects a standalone instance independent of any entry.
	OverrideOneTime OverrideType = "ONE_TIME"
)

var (
	// ErrOverrideIDRequired indicates an override was constructed without an identifier.
	ErrOverrideIDRequired = errors.New("domain: override must have an id")
	// ErrOverrideScheduleIDRequired indicates an override was constructed without its schedule.
	ErrOverrideScheduleIDRequired = errors.New("domain: override must have a schedule id")
	// ErrInvalidOverrideType indicates an unknown override variant.
	ErrInvalidOverrideType = errors.New("domain: override type must be SKIP, MODIFY, or ONE_TIME")
	// ErrOverrideBaseEntryRequired indicates a SKIP or MODIFY override without a base entry reference.
	ErrOverrideBaseEntryRequired = errors.New("domain: SKIP and MODIFY overrides must reference a base entry")
	// ErrOverrideBaseEntryForbidden indicates a ONE_TIME override carrying a base entry reference.
	ErrOverrideBaseEntryForbidden = errors.New("domain: ONE_TIME overrides must not reference a base entry")
	// ErrOverrideDataRequired indicates a MODIFY or ONE_TIME override without payload data.
	ErrOverrideDataRequired = errors.New("domain: override data is required for this variant")
	// ErrOverrideDataForbidden indicates a SKIP override carrying payload data.
	ErrOverrideDataForbidden = errors.New("domain: SKIP overrides must not carry override data")
	// ErrOverrideDataEmpty indicates a MODIFY override that modifies no fields.
	ErrOverrideDataEmpty = errors.New("domain: MODIFY overrides must set at least one field")
	// ErrOverrideDataIncomplete indicates a ONE_TIME override missing name, start, or duration.
	ErrOverrideDataIncomplete = errors.New("domain: ONE_TIME overrides must set name, start time, and duration")
)

// OverrideData is the variant payload: partial for MODIFY (nil fields fall
// back to the base entry), complete for ONE_TIME.
type OverrideData struct {
	Name             *string
	StartTimeMinutes *int
	DurationMinutes  *int
}

// Override is a dated exception to a schedule's weekly recurrence. Use the
// variant constructors; they make the required/forbidden field matrix
// impossible to get wrong. Validate covers records rehydrated from storage.
type Override struct {
	ID          string
	ScheduleID  string
	Date        string
	Type        OverrideType
	BaseEntryID string
	Data        *OverrideData
}

// NewSkipOverride suppresses the recurring instance of baseEntryID on date.
func NewSkipOverride(id, scheduleID, date, baseEntryID string) (Override, error) {
	override := Override{
		ID:          id,
		ScheduleID:  scheduleID,
		Date:        date,
		Type:        OverrideSkip,
		BaseEntryID: baseEntryID,
	}
	if err := override.Validate(); err != nil {
		return Override{}, err
	}
	return override, nil
}

// NewModifyOverride alters the recurring instance of baseEntryID on date.
// At least one field of data must be set; unset fields keep the base entry's
// values during materialization.
func NewModifyOverride(id, scheduleID, date, baseEntryID string, data OverrideData) (Override, error) {
	override := Override{
		ID:          id,
		ScheduleID:  scheduleID,
		Date:        date,
		Type:        OverrideModify,
		BaseEntryID: baseEntryID,
		Data:        &data,
	}
	if err := override.Validate(); err != nil {
		return Override{}, err
	}
	return override, nil
}

// NewOneTimeOverride injects a standalone instance on date.
func NewOneTimeOverride(id, scheduleID, date, name string, startTimeMinutes, durationMinutes int) (Override, error) {
	override := Override{
		ID:         id,
		ScheduleID: scheduleID,
		Date:       date,
		Type:       OverrideOneTime,
		Data: &OverrideData{
			Name:             &name,
			StartTimeMinutes: &startTimeMinutes,
			DurationMinutes:  &durationMinutes,
		},
	}
	if err := override.Validate(); err != nil {
		return Override{}, err
	}
	return override, nil
}

// Validate checks the common fields and the variant-specific field matrix.
func (o Override) Validate() error {
	if o.ID == "" {
		return ErrOverrideIDRequired
	}
	if o.ScheduleID == "" {
		return ErrOverrideScheduleIDRequired
	}
	if !ValidDate(o.Date) {
		return ErrInvalidDate
	}

	switch o.Type {
	case OverrideSkip:
		if o.BaseEntryID == "" {
			return ErrOverrideBaseEntryRequired
		}
		if o.Data != nil {
			return ErrOverrideDataForbidden
		}
	case OverrideModify:
		if o.BaseEntryID == "" {
			return ErrOverrideBaseEntryRequired
		}
		if o.Data == nil {
			return ErrOverrideDataRequired
		}
		if o.Data.Name == nil && o.Data.StartTimeMinutes == nil && o.Data.DurationMinutes == nil {
			return ErrOverrideDataEmpty
		}
		if o.Data.Name != nil && *o.Data.Name == "" {
			return ErrOverrideDataIncomplete
		}
		return o.Data.validateTimes()
	case OverrideOneTime:
		if o.BaseEntryID != "" {
			return ErrOverrideBaseEntryForbidden
		}
		if o.Data == nil {
			return ErrOverrideDataRequired
		}
		if o.Data.Name == nil || *o.Data.Name == "" || o.Data.StartTimeMinutes == nil || o.Data.DurationMinutes == nil {
			return ErrOverrideDataIncomplete
		}
		return o.Data.validateTimes()
	default:
		return ErrInvalidOverrideType
	}
	return nil
}

// AppliesTo reports whether the override targets the given ISO date.
func (o Override) AppliesTo(date string) bool {
	return o.Date == date
}

func (d *OverrideData) validateTimes() error {
	if d.StartTimeMinutes != nil {
		start := *d.StartTimeMinutes
		if start < 0 || start > 1439 {
			return ErrInvalidStartTime
		}
	}
	if d.DurationMinutes != nil {
		duration := *d.DurationMinutes
		if duration <= 0 || duration%15 != 0 {
			return ErrInvalidDuration
		}
	}
	return nil
}

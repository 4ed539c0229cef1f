package persistence

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/example/weekly-planner/internal/domain"
)

// ScheduleRow is the flat storage form of a schedule aggregate's root record.
type ScheduleRow struct {
	ID        string
	OwnerID   string
	Name      string
	TimeZone  string
	ICalURL   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PhaseRow is the storage form of a phase. Positions keep phase order stable
// across reloads; empty date strings mean unbounded.
type PhaseRow struct {
	ID         string
	ScheduleID string
	Name       string
	StartDate  string
	EndDate    string
	Position   int
}

// EntryRow is the storage form of a weekly entry, ordered within its phase.
type EntryRow struct {
	ID               string
	PhaseID          string
	Name             string
	DayOfWeek        int
	StartTimeMinutes int
	DurationMinutes  int
	Position         int
}

// OverrideRow is the storage form of an override. The variant payload travels
// as a JSON blob; SKIP rows store NULL.
type OverrideRow struct {
	ID          string
	ScheduleID  string
	Date        string
	Type        string
	BaseEntryID string
	Data        []byte
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type overridePayload struct {
	Name             *string `json:"name,omitempty"`
	StartTimeMinutes *int    `json:"startTimeMinutes,omitempty"`
	DurationMinutes  *int    `json:"durationMinutes,omitempty"`
}

// EncodeOverrideData serializes an override payload for storage. A nil
// payload encodes as nil, which the SQLite layer stores as NULL.
func EncodeOverrideData(data *domain.OverrideData) ([]byte, error) {
	if data == nil {
		return nil, nil
	}
	blob, err := json.Marshal(overridePayload{
		Name:             data.Name,
		StartTimeMinutes: data.StartTimeMinutes,
		DurationMinutes:  data.DurationMinutes,
	})
	if err != nil {
		return nil, fmt.Errorf("encode override data: %w", err)
	}
	return blob, nil
}

// DecodeOverrideData deserializes a stored override payload.
func DecodeOverrideData(blob []byte) (*domain.OverrideData, error) {
	if len(blob) == 0 {
		return nil, nil
	}
	var payload overridePayload
	if err := json.Unmarshal(blob, &payload); err != nil {
		return nil, fmt.Errorf("decode override data: %w", err)
	}
	return &domain.OverrideData{
		Name:             payload.Name,
		StartTimeMinutes: payload.StartTimeMinutes,
		DurationMinutes:  payload.DurationMinutes,
	}, nil
}

// OverrideToRow converts a domain override to its storage form.
func OverrideToRow(override domain.Override) (OverrideRow, error) {
	blob, err := EncodeOverrideData(override.Data)
	if err != nil {
		return OverrideRow{}, err
	}
	return OverrideRow{
		ID:          override.ID,
		ScheduleID:  override.ScheduleID,
		Date:        override.Date,
		Type:        string(override.Type),
		BaseEntryID: override.BaseEntryID,
		Data:        blob,
	}, nil
}

// OverrideFromRow rebuilds a domain override from its storage form and
// re-checks the variant invariants.
func OverrideFromRow(row OverrideRow) (domain.Override, error) {
	data, err := DecodeOverrideData(row.Data)
	if err != nil {
		return domain.Override{}, err
	}
	override := domain.Override{
		ID:          row.ID,
		ScheduleID:  row.ScheduleID,
		Date:        row.Date,
		Type:        domain.OverrideType(row.Type),
		BaseEntryID: row.BaseEntryID,
		Data:        data,
	}
	if err := override.Validate(); err != nil {
		return domain.Override{}, fmt.Errorf("invalid stored override %s: %w", row.ID, err)
	}
	return override, nil
}

// AssembleSchedule rebuilds a schedule aggregate from its stored rows. Phase
// and entry slices must already be sorted by position.
func AssembleSchedule(row ScheduleRow, sharedUserIDs []string, phaseRows []PhaseRow, entryRows map[string][]EntryRow) (*domain.Schedule, error) {
	phases := make([]*domain.Phase, 0, len(phaseRows))
	for _, phaseRow := range phaseRows {
		entries := make([]domain.Entry, 0, len(entryRows[phaseRow.ID]))
		for _, entryRow := range entryRows[phaseRow.ID] {
			entries = append(entries, domain.Entry{
				ID:               entryRow.ID,
				Name:             entryRow.Name,
				DayOfWeek:        entryRow.DayOfWeek,
				StartTimeMinutes: entryRow.StartTimeMinutes,
				DurationMinutes:  entryRow.DurationMinutes,
			})
		}
		phases = append(phases, &domain.Phase{
			ID:         phaseRow.ID,
			ScheduleID: phaseRow.ScheduleID,
			Name:       phaseRow.Name,
			StartDate:  phaseRow.StartDate,
			EndDate:    phaseRow.EndDate,
			Entries:    entries,
		})
	}

	schedule, err := domain.NewSchedule(row.ID, row.OwnerID, row.Name, row.TimeZone, row.ICalURL, phases)
	if err != nil {
		return nil, fmt.Errorf("invalid stored schedule %s: %w", row.ID, err)
	}
	schedule.SharedUserIDs = append([]string(nil), sharedUserIDs...)
	return schedule, nil
}

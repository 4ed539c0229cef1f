package domain

import (
	"errors"
	"testing"
)

func stringPtr(s string) *string { return &s }
func minutesPtr(n int) *int      { return &n }

func TestNewSkipOverride(t *testing.T) {
	t.Parallel()

	override, err := NewSkipOverride("override-1", "schedule-1", "2024-06-03", "entry-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.Type != OverrideSkip || override.Data != nil {
		t.Fatalf("unexpected override: %+v", override)
	}
	if !override.AppliesTo("2024-06-03") || override.AppliesTo("2024-06-04") {
		t.Fatal("override must apply to exactly its date")
	}

	if _, err := NewSkipOverride("override-1", "schedule-1", "2024-06-03", ""); !errors.Is(err, ErrOverrideBaseEntryRequired) {
		t.Fatalf("expected ErrOverrideBaseEntryRequired, got %v", err)
	}
	if _, err := NewSkipOverride("override-1", "schedule-1", "June 3rd", "entry-1"); !errors.Is(err, ErrInvalidDate) {
		t.Fatalf("expected ErrInvalidDate, got %v", err)
	}
}

func TestNewModifyOverride(t *testing.T) {
	t.Parallel()

	override, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{
		StartTimeMinutes: minutesPtr(19 * 60),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.Data == nil || override.Data.Name != nil {
		t.Fatalf("unexpected payload: %+v", override.Data)
	}

	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{}); !errors.Is(err, ErrOverrideDataEmpty) {
		t.Fatalf("expected ErrOverrideDataEmpty, got %v", err)
	}
	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "", OverrideData{Name: stringPtr("x")}); !errors.Is(err, ErrOverrideBaseEntryRequired) {
		t.Fatalf("expected ErrOverrideBaseEntryRequired, got %v", err)
	}
	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{Name: stringPtr("")}); !errors.Is(err, ErrOverrideDataIncomplete) {
		t.Fatalf("expected ErrOverrideDataIncomplete for empty name, got %v", err)
	}
	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{StartTimeMinutes: minutesPtr(1500)}); !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("expected ErrInvalidStartTime, got %v", err)
	}
	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{DurationMinutes: minutesPtr(50)}); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestNewOneTimeOverride(t *testing.T) {
	t.Parallel()

	override, err := NewOneTimeOverride("override-1", "schedule-1", "2024-06-03", "Dentist", 10*60, 30)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if override.BaseEntryID != "" {
		t.Fatalf("one-time override must not reference a base entry: %+v", override)
	}

	if _, err := NewOneTimeOverride("override-1", "schedule-1", "2024-06-03", "", 10*60, 30); !errors.Is(err, ErrOverrideDataIncomplete) {
		t.Fatalf("expected ErrOverrideDataIncomplete, got %v", err)
	}
	if _, err := NewOneTimeOverride("override-1", "schedule-1", "2024-06-03", "Dentist", -1, 30); !errors.Is(err, ErrInvalidStartTime) {
		t.Fatalf("expected ErrInvalidStartTime, got %v", err)
	}
	if _, err := NewOneTimeOverride("override-1", "schedule-1", "2024-06-03", "Dentist", 10*60, 0); !errors.Is(err, ErrInvalidDuration) {
		t.Fatalf("expected ErrInvalidDuration, got %v", err)
	}
}

func TestOverride_Validate_RehydratedRecords(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		override Override
		want     error
	}{
		{
			name:     "missing id",
			override: Override{ScheduleID: "s", Date: "2024-06-03", Type: OverrideSkip, BaseEntryID: "e"},
			want:     ErrOverrideIDRequired,
		},
		{
			name:     "missing schedule",
			override: Override{ID: "o", Date: "2024-06-03", Type: OverrideSkip, BaseEntryID: "e"},
			want:     ErrOverrideScheduleIDRequired,
		},
		{
			name:     "unknown type",
			override: Override{ID: "o", ScheduleID: "s", Date: "2024-06-03", Type: "CANCEL"},
			want:     ErrInvalidOverrideType,
		},
		{
			name:     "skip with payload",
			override: Override{ID: "o", ScheduleID: "s", Date: "2024-06-03", Type: OverrideSkip, BaseEntryID: "e", Data: &OverrideData{Name: stringPtr("x")}},
			want:     ErrOverrideDataForbidden,
		},
		{
			name:     "one-time with base entry",
			override: Override{ID: "o", ScheduleID: "s", Date: "2024-06-03", Type: OverrideOneTime, BaseEntryID: "e", Data: &OverrideData{Name: stringPtr("x"), StartTimeMinutes: minutesPtr(600), DurationMinutes: minutesPtr(30)}},
			want:     ErrOverrideBaseEntryForbidden,
		},
		{
			name:     "modify without payload",
			override: Override{ID: "o", ScheduleID: "s", Date: "2024-06-03", Type: OverrideModify, BaseEntryID: "e"},
			want:     ErrOverrideDataRequired,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if err := tc.override.Validate(); !errors.Is(err, tc.want) {
				t.Fatalf("expected %v, got %v", tc.want, err)
			}
		})
	}
}

func TestOverride_ModifyStartTimeOffGridAllowed(t *testing.T) {
	t.Parallel()

	// Start times only need to fall inside the day; the quarter-hour grid
	// applies to durations.
	if _, err := NewModifyOverride("override-1", "schedule-1", "2024-06-03", "entry-1", OverrideData{
		StartTimeMinutes: minutesPtr(10*60 + 7),
	}); err != nil {
		t.Fatalf("off-grid start time must be accepted: %v", err)
	}
}

package domain

import (
	"errors"
	"time"
)

const dateLayout = "2006-01-02"

// ErrInvalidDate indicates a date string is not a valid YYYY-MM-DD calendar date.
var ErrInvalidDate = errors.New("domain: date must be a valid YYYY-MM-DD calendar date")

// ParseDate parses and validates an ISO calendar date string.
//
// The format is strict: fixed-width YYYY-MM-DD, and the date must exist on the
// calendar (2024-02-30 is rejected). Validity of the fixed-width form is what
// makes plain string comparison safe for date ordering elsewhere in the package.
func ParseDate(value string) (time.Time, error) {
	if len(value) != len(dateLayout) {
		return time.Time{}, ErrInvalidDate
	}
	parsed, err := time.ParseInLocation(dateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, ErrInvalidDate
	}
	// time.Parse normalizes out-of-range components; round-trip to catch them.
	if parsed.Format(dateLayout) != value {
		return time.Time{}, ErrInvalidDate
	}
	return parsed, nil
}

// FormatDate renders a time as an ISO calendar date.
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// ValidDate reports whether value is a valid ISO calendar date.
func ValidDate(value string) bool {
	_, err := ParseDate(value)
	return err == nil
}

// DayOfWeek returns the weekday of an ISO date as an integer where 0 is Sunday.
func DayOfWeek(date string) (int, error) {
	parsed, err := ParseDate(date)
	if err != nil {
		return 0, err
	}
	return int(parsed.Weekday()), nil
}

// NextDate returns the ISO date one calendar day after date.
// The input must already be validated.
func NextDate(date string) string {
	parsed, err := ParseDate(date)
	if err != nil {
		return date
	}
	return FormatDate(parsed.AddDate(0, 0, 1))
}

// DatesBetween enumerates every ISO date from start to end inclusive in
// ascending order. An empty slice is returned when start is after end.
func DatesBetween(start, end string) ([]string, error) {
	first, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	last, err := ParseDate(end)
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0)
	for current := first; !current.After(last); current = current.AddDate(0, 0, 1) {
		dates = append(dates, FormatDate(current))
	}
	return dates, nil
}

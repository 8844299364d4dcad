package model

import (
	"fmt"
	"time"
)

const (
	// DateLayout is the storage and wire format of calendar dates.
	DateLayout = "2006-01-02"
	// ClockLayout is the storage and wire format of day start/end times.
	ClockLayout = "15:04"
)

// ParseDate parses a YYYY-MM-DD calendar date as midnight UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParseClock parses an HH:MM time of day.
func ParseClock(s string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q: expected HH:MM", s)
	}
	return t, nil
}

// ClockBefore reports whether HH:MM value a is strictly earlier than b.
// Both values must already be valid.
func ClockBefore(a, b string) bool {
	ta, errA := ParseClock(a)
	tb, errB := ParseClock(b)
	if errA != nil || errB != nil {
		return false
	}
	return ta.Before(tb)
}

// DaysApart returns the number of calendar days from a to b.
func DaysApart(a, b string) (int, error) {
	ta, err := ParseDate(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDate(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// DateInRange reports whether date falls within [start, end] inclusive.
// All values are YYYY-MM-DD, so lexical comparison is chronological.
func DateInRange(date, start, end string) bool {
	return date >= start && date <= end
}

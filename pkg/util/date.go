package util

import (
	"fmt"
	"strconv"
	"time"
)

// DayFormat is the canonical layout for calendar dates in file names,
// coverage documents, and API payloads.
const DayFormat = "2006-01-02"

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// Day truncates t to its UTC calendar day (midnight UTC).
func Day(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight time.
func ParseDay(s string) (time.Time, error) {
	t, err := time.Parse(DayFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse day %q: %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDay renders t's UTC calendar day as YYYY-MM-DD.
func FormatDay(t time.Time) string {
	return t.UTC().Format(DayFormat)
}

// AddDays shifts a day value by n calendar days.
func AddDays(t time.Time, n int) time.Time {
	return Day(t).AddDate(0, 0, n)
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return Day(a).Equal(Day(b))
}

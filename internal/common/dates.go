package common

import (
	"strings"
	"time"
)

// dateFormats are tried in order; first match wins. The model returns dates
// in several shapes depending on which source it quoted.
var dateFormats = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"20060102",
}

// ParseFlexibleDate parses a calendar date from loosely-formatted model output.
// Returns nil when the value is empty or matches none of the known formats.
func ParseFlexibleDate(value string) *time.Time {
	text := strings.TrimSpace(value)
	if text == "" {
		return nil
	}
	for _, format := range dateFormats {
		if t, err := time.Parse(format, text); err == nil {
			return &t
		}
	}
	return nil
}

// BeforeDay reports whether a falls on an earlier calendar day than b.
// The comparison ignores clock time and location, so a parsed UTC-midnight
// date can be safely compared against a local wall-clock time.
func BeforeDay(a, b time.Time) bool {
	if a.Year() != b.Year() {
		return a.Year() < b.Year()
	}
	return a.YearDay() < b.YearDay()
}

// DaysBetween returns the whole days from start to end.
func DaysBetween(start, end time.Time) int {
	return int(end.Sub(start).Hours() / 24)
}

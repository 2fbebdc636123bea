package internal

import (
	"fmt"
	"strings"
	"time"
)

// Accepted time-of-day layouts, tried in order.
var timeOfDayLayouts = []string{
	"3:04 PM", // 12-hour with space
	"15:04",   // 24-hour
	"3:04PM",  // 12-hour without space
	"3 PM",    // hour only
}

// ParseTimeOfDay parses a human time-of-day string ("9:00 AM", "21:00",
// "9:00am", "9 AM") into an hour and minute. Unrecognized input is
// normalized once (periods stripped, am/pm uppercased with a space inserted)
// and retried before failing with ErrInvalidTimeFormat.
func ParseTimeOfDay(raw string) (hour, minute int, err error) {
	s := strings.TrimSpace(raw)
	if t, ok := parseTimeLayouts(s); ok {
		return t.Hour(), t.Minute(), nil
	}
	if t, ok := parseTimeLayouts(normalizeTimeOfDay(s)); ok {
		return t.Hour(), t.Minute(), nil
	}
	return 0, 0, fmt.Errorf("%w: %q", ErrInvalidTimeFormat, raw)
}

func parseTimeLayouts(s string) (time.Time, bool) {
	for _, layout := range timeOfDayLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// normalizeTimeOfDay cleans up common typos: "9:00 a.m." -> "9:00 AM",
// "9:00pm" -> "9:00 PM".
func normalizeTimeOfDay(s string) string {
	s = strings.ReplaceAll(s, ".", "")
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, suffix := range []string{"AM", "PM"} {
		if strings.HasSuffix(s, suffix) {
			head := strings.TrimSpace(strings.TrimSuffix(s, suffix))
			return head + " " + suffix
		}
	}
	return s
}

// FormatTimeOfDay renders an hour and minute in the canonical 12-hour
// display form, e.g. (9, 0) -> "9:00 AM".
func FormatTimeOfDay(hour, minute int) string {
	return time.Date(0, time.January, 1, hour, minute, 0, 0, time.UTC).Format("3:04 PM")
}

// MinutesOfDay returns the minutes since midnight of t's wall clock.
func MinutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// FormatMinutesOfDay renders minutes since midnight as a 12-hour display
// string.
func FormatMinutesOfDay(minutes int) string {
	return FormatTimeOfDay(minutes/60, minutes%60)
}

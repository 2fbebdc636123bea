package internal

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseTimeOfDay_Formats(t *testing.T) {
	cases := []struct {
		raw    string
		hour   int
		minute int
	}{
		{"9:00 AM", 9, 0},
		{"12:30 PM", 12, 30},
		{"12:30 AM", 0, 30},
		{"21:00", 21, 0},
		{"9:00", 9, 0},
		{"9:00PM", 21, 0},
		{"9 AM", 9, 0},
		{"9:00 a.m.", 9, 0},
		{"9:00pm", 21, 0},
		{"  8:15 AM  ", 8, 15},
	}
	for _, c := range cases {
		hour, minute, err := ParseTimeOfDay(c.raw)
		assert.NoError(t, err, c.raw)
		assert.Equal(t, c.hour, hour, c.raw)
		assert.Equal(t, c.minute, minute, c.raw)
	}
}

func TestParseTimeOfDay_Invalid(t *testing.T) {
	for _, raw := range []string{"", "noon", "25:00", "9h30"} {
		_, _, err := ParseTimeOfDay(raw)
		assert.Error(t, err, raw)
		assert.True(t, errors.Is(err, ErrInvalidTimeFormat), raw)
	}
}

func TestFormatTimeOfDay_RoundTrip(t *testing.T) {
	// 24-hour input renders as the equivalent 12-hour display string.
	hour, minute, err := ParseTimeOfDay("09:00")
	assert.NoError(t, err)
	assert.Equal(t, "9:00 AM", FormatTimeOfDay(hour, minute))

	hour, minute, err = ParseTimeOfDay("21:05")
	assert.NoError(t, err)
	assert.Equal(t, "9:05 PM", FormatTimeOfDay(hour, minute))

	// Canonical display strings survive a parse/format cycle unchanged.
	for _, s := range []string{"12:00 AM", "6:30 AM", "12:00 PM", "11:59 PM"} {
		hour, minute, err := ParseTimeOfDay(s)
		assert.NoError(t, err)
		assert.Equal(t, s, FormatTimeOfDay(hour, minute))
	}
}

func TestMinutesOfDayHelpers(t *testing.T) {
	assert.Equal(t, "9:28 AM", FormatMinutesOfDay(9*60+28))
	assert.Equal(t, "12:00 AM", FormatMinutesOfDay(0))
	assert.Equal(t, "11:59 PM", FormatMinutesOfDay(23*60+59))
}

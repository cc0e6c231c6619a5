package contract

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, time.November, 3, 10, 0, 0, 0, time.UTC)

func TestParseRelativeTime(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		expected    time.Time
		expectError bool
	}{
		{name: "plural months mixed case", input: "3 MoNtHs AgO", expected: fixedNow.AddDate(0, -3, 0)},
		{name: "singular week", input: "1 Week Ago", expected: fixedNow.AddDate(0, 0, -7)},
		{name: "days upper case", input: "10 DAYS AGO", expected: fixedNow.AddDate(0, 0, -10)},
		{name: "minutes", input: "90 minutes ago", expected: fixedNow.Add(-90 * time.Minute)},
		{name: "missing ago", input: "2 years", expectError: true},
		{name: "bad unit", input: "4 decades ago", expectError: true},
		{name: "non-numeric", input: "one year ago", expectError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRelativeTime(tt.input, fixedNow)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseLookbackDuration(t *testing.T) {
	const day = 24 * time.Hour

	tests := []struct {
		name      string
		input     string
		want      time.Duration
		expectErr bool
	}{
		{"go duration", "5m", 5 * time.Minute, false},
		{"go hours", "720h", 30 * day, false},
		{"5 minutes", "5 minutes", 5 * time.Minute, false},
		{"1 hour", "1 hour", time.Hour, false},
		{"7 days", "7 days", 7 * day, false},
		{"4 weeks", "4 weeks", 28 * day, false},
		{"1 month approx", "1 month", 30 * day, false},
		{"1 year approx", "1 year", 365 * day, false},
		{"mixed case", "3 MoNtHs", 90 * day, false},
		{"extra space", " 1  day ", day, false},
		{"zero go duration", "0s", 0, true},
		{"negative go duration", "-5m", 0, true},
		{"zero quantity", "0 days", 0, true},
		{"missing unit", "3", 0, true},
		{"invalid unit", "3 decades", 0, true},
		{"non-integer quantity", "1.5 days", 0, true},
		{"empty string", "", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLookbackDuration(tt.input)
			if tt.expectErr {
				assert.Error(t, err, "input: %q", tt.input)
				return
			}
			require.NoError(t, err, "input: %q", tt.input)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseTimeInput(t *testing.T) {
	got, err := ParseTimeInput("2025-04-09T01:35:51Z", fixedNow, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 9, 1, 35, 51, 0, time.UTC), got)

	got, err = ParseTimeInput("2025-04-09", fixedNow, false)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), got)

	got, err = ParseTimeInput("2025-04-12", fixedNow, true)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2025, 4, 12, 23, 59, 59, 999999999, time.UTC), got)

	got, err = ParseTimeInput("2 days ago", fixedNow, true)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.AddDate(0, 0, -2), got)

	_, err = ParseTimeInput("last tuesday", fixedNow, false)
	assert.Error(t, err)
}

func TestDaysBetween(t *testing.T) {
	days := DaysBetween(time.Date(2025, 4, 9, 13, 0, 0, 0, time.UTC), time.Date(2025, 4, 12, 1, 0, 0, 0, time.UTC))
	require.Len(t, days, 4)
	assert.Equal(t, time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC), days[0])
	assert.Equal(t, time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC), days[3])

	assert.Len(t, DaysBetween(fixedNow, fixedNow), 1)
	assert.Empty(t, DaysBetween(fixedNow, fixedNow.AddDate(0, 0, -1)))
}

// FuzzParseRelativeTime checks the parser never panics and never returns a future time.
func FuzzParseRelativeTime(f *testing.F) {
	for _, seed := range []string{"1 year ago", "2 months ago", "3 weeks ago", "4 days ago", "5 hours ago", "0 minutes ago"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		got, err := ParseRelativeTime(input, fixedNow)
		if err == nil && got.After(fixedNow) {
			t.Fatalf("%q resolved to the future: %s", input, got)
		}
	})
}

// FuzzParseLookbackDuration checks accepted durations are always positive.
func FuzzParseLookbackDuration(f *testing.F) {
	for _, seed := range []string{"1 year", "2 months", "5m", "0 years", "-1h"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, input string) {
		d, err := ParseLookbackDuration(input)
		if err == nil && d <= 0 {
			t.Fatalf("%q accepted as non-positive duration %s", input, d)
		}
	})
}

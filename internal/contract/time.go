package contract

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// maxRelativeValue bounds N in relative forms so the arithmetic cannot overflow.
const maxRelativeValue = 10000

// relativeTimeRe captures "N [units] ago", e.g. "2 weeks ago" or "3 days ago".
var relativeTimeRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?\s+ago$`)

// ParseRelativeTime converts strings like "2 weeks ago" into a time.Time in the past.
func ParseRelativeTime(s string, now time.Time) (time.Time, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	matches := relativeTimeRe.FindStringSubmatch(s)
	if len(matches) == 0 {
		return time.Time{}, fmt.Errorf("invalid relative time format: %s", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil || value > maxRelativeValue {
		return time.Time{}, fmt.Errorf("relative time value out of range: %s", matches[1])
	}
	switch matches[2] {
	case "year":
		return now.AddDate(-value, 0, 0), nil
	case "month":
		return now.AddDate(0, -value, 0), nil
	case "week":
		return now.AddDate(0, 0, -7*value), nil
	case "day":
		return now.AddDate(0, 0, -value), nil
	case "hour":
		return now.Add(time.Duration(-value) * time.Hour), nil
	default: // minute
		return now.Add(time.Duration(-value) * time.Minute), nil
	}
}

// lookbackDurationRe captures "N [units]".
var lookbackDurationRe = regexp.MustCompile(`^(\d+)\s+(year|month|week|day|hour|minute)s?$`)

// ParseLookbackDuration converts strings like "30 days" or "5m" into a time.Duration.
// Go duration syntax is tried first, then the human-readable form.
// Months are 30 days and years are 365 days.
func ParseLookbackDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	if d, err := time.ParseDuration(s); err == nil {
		if d <= 0 {
			return 0, errors.New("duration must be positive")
		}
		return d, nil
	}

	s = strings.ToLower(s)
	matches := lookbackDurationRe.FindStringSubmatch(strings.Join(strings.Fields(s), " "))
	if len(matches) == 0 {
		return 0, fmt.Errorf("invalid duration format: %q", s)
	}

	value, err := strconv.Atoi(matches[1])
	if err != nil || value > maxRelativeValue {
		return 0, fmt.Errorf("duration value out of range: %s", matches[1])
	}
	const day = 24 * time.Hour
	var d time.Duration
	switch matches[2] {
	case "year":
		d = time.Duration(value) * 365 * day
	case "month":
		d = time.Duration(value) * 30 * day
	case "week":
		d = time.Duration(value) * 7 * day
	case "day":
		d = time.Duration(value) * day
	case "hour":
		d = time.Duration(value) * time.Hour
	default: // minute
		d = time.Duration(value) * time.Minute
	}

	if d == 0 {
		return 0, errors.New("duration must be positive")
	}
	return d, nil
}

// ParseTimeInput accepts RFC3339, a bare date, or a relative "N units ago" form.
// A bare date resolves to midnight UTC, or to the last instant of that day when
// endOfDay is set, so that inclusive windows cover the whole date.
func ParseTimeInput(s string, now time.Time, endOfDay bool) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(schema.DateLayout, s); err == nil {
		if endOfDay {
			return t.Add(24*time.Hour - time.Nanosecond), nil
		}
		return t, nil
	}
	t, err := ParseRelativeTime(s, now)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid time %q. Expected RFC3339, YYYY-MM-DD or 'N [units] ago'", s)
	}
	return t.UTC(), nil
}

// DaysBetween lists the UTC calendar days from start to end, inclusive.
func DaysBetween(start, end time.Time) []time.Time {
	var days []time.Time
	for d := schema.StartOfDay(start); !d.After(schema.StartOfDay(end)); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

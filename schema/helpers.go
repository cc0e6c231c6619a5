package schema

import (
	"math"
	"time"
)

// TimestampLayout is the fixed UTC layout used in every serialized report.
const TimestampLayout = "2006-01-02T15:04:05Z"

// DateLayout is the layout of report dates and storage keys.
const DateLayout = "2006-01-02"

// FormatTimestamp renders t in UTC with a trailing "Z".
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// FormatTimestampPtr is FormatTimestamp for optional timestamps.
func FormatTimestampPtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := FormatTimestamp(*t)
	return &s
}

// FormatDate renders the UTC calendar date of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// StartOfDay truncates t to midnight UTC.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// Round2 rounds to two decimal places, half away from zero.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// Apportion splits scale units across counts in proportion to count/total so
// that the parts sum to exactly scale. Leftover units go to the largest
// fractional remainders, ties broken by position.
func Apportion(counts []int, total, scale int) []int {
	parts := make([]int, len(counts))
	if total <= 0 {
		return parts
	}
	remainders := make([]int, len(counts))
	assigned := 0
	for i, c := range counts {
		parts[i] = c * scale / total
		remainders[i] = c * scale % total
		assigned += parts[i]
	}
	for left := scale - assigned; left > 0; left-- {
		best := -1
		for i, r := range remainders {
			if r > 0 && (best < 0 || r > remainders[best]) {
				best = i
			}
		}
		if best < 0 {
			break
		}
		parts[best]++
		remainders[best] = 0
	}
	return parts
}

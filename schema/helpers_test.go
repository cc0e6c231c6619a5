package schema

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestApportion(t *testing.T) {
	tests := []struct {
		name   string
		counts []int
		total  int
		want   []int
	}{
		{"even split", []int{1, 1}, 2, []int{5000, 5000}},
		{"thirds", []int{1, 1, 1}, 3, []int{3334, 3333, 3333}},
		{"largest remainder", []int{1, 2}, 3, []int{3333, 6667}},
		{"single bucket", []int{0, 7, 0}, 7, []int{0, 10000, 0}},
		{"zero total", []int{0, 0}, 0, []int{0, 0}},
		{"degraded day", []int{273, 6, 3, 0}, 282, []int{9681, 213, 106, 0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apportion(tt.counts, tt.total, 10000)
			assert.Equal(t, tt.want, got)
			if tt.total > 0 {
				sum := 0
				for _, v := range got {
					sum += v
				}
				assert.Equal(t, 10000, sum)
			}
		})
	}
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 96.81, Round2(273.0/282.0*100))
	assert.Equal(t, 98.94, Round2(279.0/282.0*100))
	assert.Equal(t, 0.0, Round2(0.004))
	assert.Equal(t, 0.01, Round2(0.005))
}

func TestFormatTimestamp(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	at := time.Date(2025, 4, 12, 20, 41, 18, 500, loc)
	assert.Equal(t, "2025-04-12T18:41:18Z", FormatTimestamp(at))
	assert.Equal(t, "2025-04-12", FormatDate(at))
	assert.Nil(t, FormatTimestampPtr(nil))
	assert.Equal(t, "2025-04-12T18:41:18Z", *FormatTimestampPtr(&at))
	assert.Equal(t, time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC), StartOfDay(at))
}

func TestWindow(t *testing.T) {
	start := time.Date(2025, 4, 9, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 4, 12, 23, 59, 59, 0, time.UTC)

	assert.NoError(t, Window{}.Validate())
	assert.NoError(t, Window{Start: start, End: end}.Validate())
	assert.True(t, errors.Is(Window{Start: end, End: start}.Validate(), ErrInvalidWindow))
	assert.True(t, errors.Is(Window{End: end}.Validate(), ErrInvalidWindow))

	w := Window{Start: start, End: end}
	assert.True(t, w.Contains(start))
	assert.True(t, w.Contains(end))
	assert.False(t, w.Contains(end.Add(time.Second)))
	assert.True(t, Window{}.Contains(end.Add(time.Hour)))
}

func TestCountWarnings(t *testing.T) {
	c := CountWarnings([]Warning{
		{Kind: WarnMalformedRecord},
		{Kind: WarnMalformedRecord},
		{Kind: WarnUnresolvedReference},
		{Kind: WarnNegativeLeadTime},
		{Kind: WarnEmptyInput},
	})
	assert.Equal(t, WarningCounts{MalformedRecords: 2, UnresolvedReferences: 1, NegativeLeadTimes: 1, EmptyInput: 1}, c)
	assert.Equal(t, 5, c.Total())
}

func TestHealthStatus(t *testing.T) {
	assert.Equal(t, "green", HealthHealthy.String())
	assert.Equal(t, "yellow", HealthDegraded.String())
	assert.Equal(t, "red", HealthUnhealthy.String())
	assert.Equal(t, "no_data", HealthNoData.String())
	assert.False(t, HealthStatus(4).Valid())
	assert.False(t, HealthStatus(-1).Valid())
}

// Package uptime turns a discretized health signal into uptime percentages,
// the longest contiguous outage and an overall environment status.
package uptime

import (
	"fmt"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// Status thresholds, in percent.
const (
	operationalUptime    = 99.9
	degradedAvailability = 95.0
)

// ComputeUptime counts samples per status and derives the four percentages.
// The denominator is the number of valid samples, or 1 when there are none,
// so an empty sequence yields 0% everywhere.
func ComputeUptime(samples []schema.HealthSample) (schema.UptimeResult, []schema.Warning) {
	valid, warnings := splitMalformed(samples)

	var r schema.UptimeResult
	r.Total = len(valid)
	for _, s := range valid {
		switch s.Status {
		case schema.HealthHealthy:
			r.Healthy++
		case schema.HealthDegraded:
			r.Degraded++
		case schema.HealthUnhealthy:
			r.Unhealthy++
		default:
			r.NoData++
		}
	}

	denom := float64(max(r.Total, 1))
	r.UptimePct = float64(r.Healthy) / denom * 100
	r.AvailabilityPct = float64(r.Healthy+r.Degraded) / denom * 100
	r.OutagePct = float64(r.Unhealthy) / denom * 100
	r.NoDataPct = float64(r.NoData) / denom * 100
	return r, warnings
}

// FindLongestOutage scans once for the longest run of consecutive Unhealthy
// samples. A run still open at the last sample is closed there.
// Duration is run length times the nominal interval; gaps between samples are
// not measured.
func FindLongestOutage(samples []schema.HealthSample, interval time.Duration) (schema.OutageWindow, error) {
	if interval <= 0 {
		return schema.OutageWindow{}, fmt.Errorf("%w: %s", schema.ErrInvalidInterval, interval)
	}

	var (
		best             schema.OutageWindow
		runStart, runEnd time.Time
		runLength        int
	)
	closeRun := func() {
		if runLength > best.SampleCount {
			start, end := runStart, runEnd
			best = schema.OutageWindow{Start: &start, End: &end, SampleCount: runLength}
		}
		runLength = 0
	}

	for _, s := range samples {
		if s.Timestamp.IsZero() || !s.Status.Valid() {
			continue
		}
		if s.Status != schema.HealthUnhealthy {
			closeRun()
			continue
		}
		if runLength == 0 {
			runStart = s.Timestamp
		}
		runEnd = s.Timestamp
		runLength++
	}
	closeRun()

	best.Minutes = float64(best.SampleCount) * interval.Minutes()
	return best, nil
}

// ClassifyStatus evaluates one window's aggregates with no history.
func ClassifyStatus(uptimePct, availabilityPct float64) schema.EnvironmentStatus {
	switch {
	case uptimePct >= operationalUptime:
		return schema.StatusOperational
	case availabilityPct >= degradedAvailability:
		return schema.StatusDegraded
	default:
		return schema.StatusPartial
	}
}

// Analyze runs the whole availability pipeline over one sample sequence.
// Status is classified from the unrounded percentages, so a day reported as
// 99.9% uptime may still be Degraded.
func Analyze(samples []schema.HealthSample, interval time.Duration) (schema.AvailabilityResult, error) {
	outage, err := FindLongestOutage(samples, interval)
	if err != nil {
		return schema.AvailabilityResult{}, err
	}
	up, warnings := ComputeUptime(samples)

	result := schema.AvailabilityResult{
		Uptime:        up,
		LongestOutage: outage,
		Status:        ClassifyStatus(up.UptimePct, up.AvailabilityPct),
	}
	if up.Total == 0 {
		result.NoData = true
		warnings = append(warnings, schema.Warning{
			Kind:    schema.WarnEmptyInput,
			Subject: "health samples",
			Detail:  "no usable health samples in the window",
		})
	}
	result.Warnings = warnings
	return result, nil
}

// splitMalformed drops samples without a timestamp or with an out-of-domain
// status, with one warning each.
func splitMalformed(samples []schema.HealthSample) ([]schema.HealthSample, []schema.Warning) {
	valid := make([]schema.HealthSample, 0, len(samples))
	var warnings []schema.Warning
	for i, s := range samples {
		var detail string
		switch {
		case s.Timestamp.IsZero():
			detail = "missing or unparseable timestamp"
		case !s.Status.Valid():
			detail = fmt.Sprintf("status %d outside 0..3", int(s.Status))
		}
		if detail != "" {
			warnings = append(warnings, schema.Warning{
				Kind:    schema.WarnMalformedRecord,
				Subject: fmt.Sprintf("sample %d", i),
				Detail:  detail,
			})
			continue
		}
		valid = append(valid, s)
	}
	return valid, warnings
}

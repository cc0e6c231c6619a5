package dora

import (
	"fmt"

	"github.com/huangsam/dorametrics/schema"
)

// Tier thresholds.
const (
	eliteFrequency  = 1.0        // deployments per day, exclusive
	highFrequency   = 1.0 / 7.0  // at least weekly
	mediumFrequency = 1.0 / 30.0 // at least monthly

	eliteLeadTime      = 60.0    // one hour
	eliteAboveLeadTime = 1440.0  // one day
	highLeadTime       = 10080.0 // one week
	mediumLeadTime     = 43200.0 // thirty days

	eliteFailureRate  = 15.0
	highFailureRate   = 30.0
	mediumFailureRate = 45.0
)

// ClassifyFrequency maps deployments per day to a tier.
func ClassifyFrequency(perDay float64) schema.Tier {
	switch {
	case perDay > eliteFrequency:
		return schema.TierElite
	case perDay >= highFrequency:
		return schema.TierHigh
	case perDay >= mediumFrequency:
		return schema.TierMedium
	default:
		return schema.TierLow
	}
}

// ClassifyLeadTime maps an average lead time in minutes to a tier.
// Sub-hour and sub-day lead times are kept apart even though both are Elite.
func ClassifyLeadTime(minutes float64) schema.Tier {
	switch {
	case minutes < eliteLeadTime:
		return schema.TierElite
	case minutes < eliteAboveLeadTime:
		return schema.TierEliteAboveThreshold
	case minutes < highLeadTime:
		return schema.TierHigh
	case minutes < mediumLeadTime:
		return schema.TierMedium
	default:
		return schema.TierLow
	}
}

// ClassifyFailureRate maps a change failure percentage to a tier.
func ClassifyFailureRate(pct float64) schema.Tier {
	switch {
	case pct <= eliteFailureRate:
		return schema.TierElite
	case pct <= highFailureRate:
		return schema.TierHigh
	case pct <= mediumFailureRate:
		return schema.TierMedium
	default:
		return schema.TierLow
	}
}

// DaySpan is the inclusive number of calendar days (UTC) covered by the window, at least 1.
func DaySpan(w schema.Window) int {
	if w.IsZero() {
		return 1
	}
	days := int(schema.StartOfDay(w.End).Sub(schema.StartOfDay(w.Start)).Hours()/24) + 1
	return max(days, 1)
}

// InferWindow returns [earliest, latest] over the usable build timestamps.
func InferWindow(builds []schema.BuildRecord) schema.Window {
	var w schema.Window
	for _, b := range builds {
		if b.Timestamp.IsZero() {
			continue
		}
		if w.Start.IsZero() || b.Timestamp.Before(w.Start) {
			w.Start = b.Timestamp
		}
		if w.End.IsZero() || b.Timestamp.After(w.End) {
			w.End = b.Timestamp
		}
	}
	return w
}

// DeploymentFrequency counts successful builds inside the window and divides
// by its inclusive day span. A zero window is inferred from the builds.
func DeploymentFrequency(builds []schema.BuildRecord, window schema.Window) (schema.FrequencyResult, []schema.Warning, error) {
	if err := window.Validate(); err != nil {
		return schema.FrequencyResult{}, nil, err
	}

	valid, warnings := splitMalformed(builds)
	if window.IsZero() {
		window = InferWindow(valid)
	}

	deployments := 0
	for _, b := range valid {
		if b.Result == schema.BuildSuccess && window.Contains(b.Timestamp) {
			deployments++
		}
	}

	days := DaySpan(window)
	perDay := float64(deployments) / float64(days)
	return schema.FrequencyResult{
		Window:      window,
		Days:        days,
		Deployments: deployments,
		PerDay:      perDay,
		Tier:        ClassifyFrequency(perDay),
	}, warnings, nil
}

// LeadTime averages, over successful builds traceable to a pull request, the
// time from the pull request's first commit to the deployment.
// Untraceable builds are excluded and reported. Negative lead times are
// reported as anomalies and kept out of the average.
func LeadTime(builds []schema.BuildRecord, commits []schema.CommitRecord, prs []schema.PullRequestRecord) (schema.LeadTimeResult, []schema.Warning) {
	idx := newRecordIndex(commits, prs)
	valid, warnings := splitMalformed(builds)
	warnings = append(warnings, idx.warnings...)

	var result schema.LeadTimeResult
	var totalMinutes float64

	for _, b := range valid {
		if b.Result != schema.BuildSuccess {
			continue
		}
		pr, first, warn := idx.resolve(b)
		if warn != nil {
			result.Excluded++
			warnings = append(warnings, *warn)
			continue
		}

		sample := schema.LeadTimeSample{
			PRNumber:        pr,
			BuildNumber:     b.BuildNumber,
			CommitID:        b.CommitID,
			FirstCommitTime: first,
			DeploymentTime:  b.Timestamp,
			LeadTime:        b.Timestamp.Sub(first),
		}
		if sample.LeadTime < 0 {
			result.Anomalies = append(result.Anomalies, sample)
			warnings = append(warnings, schema.Warning{
				Kind:    schema.WarnNegativeLeadTime,
				Subject: fmt.Sprintf("build %s#%d", b.JobName, b.BuildNumber),
				Detail:  fmt.Sprintf("deployed %.1f minutes before first commit of pull request #%d", -sample.Minutes(), pr),
			})
			continue
		}

		result.Samples = append(result.Samples, sample)
		totalMinutes += sample.Minutes()
	}

	if len(result.Samples) == 0 {
		result.Tier = schema.TierNoData
		return result, warnings
	}

	result.AverageMinutes = totalMinutes / float64(len(result.Samples))
	result.Tier = ClassifyLeadTime(result.AverageMinutes)
	return result, warnings
}

// ChangeFailureRate is failed builds over all builds, as a percentage.
// With no builds the rate is 0 and the tier is No Data.
func ChangeFailureRate(builds []schema.BuildRecord) (schema.FailureRateResult, []schema.Warning) {
	valid, warnings := splitMalformed(builds)

	var result schema.FailureRateResult
	result.Total = len(valid)
	for _, b := range valid {
		if b.Result == schema.BuildFailure {
			result.Failed++
		}
	}
	if result.Total == 0 {
		result.Tier = schema.TierNoData
		return result, warnings
	}
	result.Percentage = 100 * float64(result.Failed) / float64(result.Total)
	result.Tier = ClassifyFailureRate(result.Percentage)
	return result, warnings
}

// splitMalformed separates builds that cannot be placed in time or have an
// unknown result from the rest, with one warning per rejected build.
func splitMalformed(builds []schema.BuildRecord) ([]schema.BuildRecord, []schema.Warning) {
	valid := make([]schema.BuildRecord, 0, len(builds))
	var warnings []schema.Warning
	for _, b := range builds {
		var detail string
		switch {
		case b.Timestamp.IsZero():
			detail = "missing or unparseable timestamp"
		default:
			if _, ok := schema.ValidBuildResults[b.Result]; !ok {
				detail = fmt.Sprintf("unknown result %q", b.Result)
			}
		}
		if detail != "" {
			warnings = append(warnings, schema.Warning{
				Kind:    schema.WarnMalformedRecord,
				Subject: fmt.Sprintf("build %s#%d", b.JobName, b.BuildNumber),
				Detail:  detail,
			})
			continue
		}
		valid = append(valid, b)
	}
	return valid, warnings
}

// Package dora computes the DORA delivery metrics: deployment frequency,
// lead time for changes and change failure rate.
//
// Every function is a pure transformation over the records it is given.
package dora

import (
	"github.com/huangsam/dorametrics/schema"
)

// Analyze computes all three delivery metrics over one window.
// A zero window is inferred from the build timestamps. Builds outside the
// window are ignored by every metric.
func Analyze(records schema.RecordSet, window schema.Window) (schema.DeliveryResult, error) {
	if err := window.Validate(); err != nil {
		return schema.DeliveryResult{}, err
	}

	valid, warnings := splitMalformed(records.Builds)
	if window.IsZero() {
		window = InferWindow(valid)
	}

	inScope := make([]schema.BuildRecord, 0, len(valid))
	for _, b := range valid {
		if window.Contains(b.Timestamp) {
			inScope = append(inScope, b)
		}
	}

	freq, _, err := DeploymentFrequency(inScope, window)
	if err != nil {
		return schema.DeliveryResult{}, err
	}
	lead, leadWarnings := LeadTime(inScope, records.Commits, records.PullRequests)
	cfr, _ := ChangeFailureRate(inScope)
	warnings = append(warnings, leadWarnings...)

	result := schema.DeliveryResult{
		Frequency:   freq,
		LeadTime:    lead,
		FailureRate: cfr,
	}
	if len(inScope) == 0 {
		result.NoData = true
		warnings = append(warnings, schema.Warning{
			Kind:    schema.WarnEmptyInput,
			Subject: "builds",
			Detail:  "no usable builds in the analysis window",
		})
	}
	result.Warnings = warnings
	return result, nil
}

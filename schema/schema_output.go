package schema

// ReportMeta identifies what an availability report is about.
type ReportMeta struct {
	ReportID        string
	Date            string
	EnvironmentName string
	ApplicationName string
}

// NewAvailabilityReport converts an analyzer result into its serialized form.
// Percentages are rounded to two decimals.
func NewAvailabilityReport(meta ReportMeta, r AvailabilityResult) AvailabilityReport {
	u := r.Uptime
	return AvailabilityReport{
		ReportID:        meta.ReportID,
		Date:            meta.Date,
		EnvironmentName: meta.EnvironmentName,
		ApplicationName: meta.ApplicationName,
		Metrics: AvailabilityMetrics{
			TotalDataPoints:                u.Total,
			UptimePercentage:               Round2(u.UptimePct),
			AvailabilityPercentage:         Round2(u.AvailabilityPct),
			OutagePercentage:               Round2(u.OutagePct),
			LongestContinuousOutageMinutes: Round2(r.LongestOutage.Minutes),
			OutageStartTime:                FormatTimestampPtr(r.LongestOutage.Start),
			OutageEndTime:                  FormatTimestampPtr(r.LongestOutage.End),
		},
		Status:          r.Status,
		StatusBreakdown: newStatusBreakdown(u),
		NoData:          r.NoData,
		Warnings:        CountWarnings(r.Warnings),
	}
}

// newStatusBreakdown apportions the four shares so they add up to exactly 100
// for non-empty input, using the largest remainder at two-decimal resolution.
func newStatusBreakdown(u UptimeResult) StatusBreakdown {
	if u.Total == 0 {
		return StatusBreakdown{}
	}
	shares := Apportion([]int{u.Healthy, u.Degraded, u.Unhealthy, u.NoData}, u.Total, 10000)
	return StatusBreakdown{
		GreenPercentage:  float64(shares[0]) / 100,
		YellowPercentage: float64(shares[1]) / 100,
		RedPercentage:    float64(shares[2]) / 100,
		NoDataPercentage: float64(shares[3]) / 100,
	}
}

// NewDeliveryReport converts an analyzer result into its serialized form.
func NewDeliveryReport(reportID string, r DeliveryResult) DeliveryReport {
	report := DeliveryReport{
		ReportID:            reportID,
		DeploymentFrequency: Round2(r.Frequency.PerDay),
		LeadTimeMinutes:     Round2(r.LeadTime.AverageMinutes),
		ChangeFailureRate:   Round2(r.FailureRate.Percentage),
		PerformanceLevels: PerformanceLevels{
			DeploymentFrequency: r.Frequency.Tier,
			LeadTime:            r.LeadTime.Tier,
			ChangeFailureRate:   r.FailureRate.Tier,
		},
		Details: DeliveryDetails{
			WindowDays:            r.Frequency.Days,
			SuccessfulDeployments: r.Frequency.Deployments,
			TotalBuilds:           r.FailureRate.Total,
			FailedBuilds:          r.FailureRate.Failed,
			ExcludedFromLeadTime:  r.LeadTime.Excluded,
			LeadTimeSamples:       toLeadTimeEntries(r.LeadTime.Samples),
			LeadTimeAnomalies:     toLeadTimeEntries(r.LeadTime.Anomalies),
		},
		NoData:   r.NoData,
		Warnings: CountWarnings(r.Warnings),
	}
	if !r.Frequency.Window.IsZero() {
		report.WindowStart = FormatTimestamp(r.Frequency.Window.Start)
		report.WindowEnd = FormatTimestamp(r.Frequency.Window.End)
	}
	if report.Details.LeadTimeSamples == nil {
		report.Details.LeadTimeSamples = []LeadTimeEntry{}
	}
	return report
}

func toLeadTimeEntries(samples []LeadTimeSample) []LeadTimeEntry {
	if len(samples) == 0 {
		return nil
	}
	out := make([]LeadTimeEntry, len(samples))
	for i, s := range samples {
		out[i] = LeadTimeEntry{
			PRNumber:        s.PRNumber,
			BuildNumber:     s.BuildNumber,
			FirstCommitTime: FormatTimestamp(s.FirstCommitTime),
			DeploymentTime:  FormatTimestamp(s.DeploymentTime),
			LeadTimeMinutes: Round2(s.Minutes()),
		}
	}
	return out
}

package schema

import "time"

// FrequencyResult is the deployment frequency for one window.
type FrequencyResult struct {
	Window      Window  // effective window (explicit or inferred)
	Days        int     // inclusive day span, at least 1
	Deployments int     // successful builds inside the window
	PerDay      float64 // Deployments / Days
	Tier        Tier
}

// LeadTimeSample is the lead time of one deployed build traced to a pull request.
type LeadTimeSample struct {
	PRNumber        int           `json:"pr_number"`
	BuildNumber     int           `json:"build_number"`
	CommitID        string        `json:"commit_id"`
	FirstCommitTime time.Time     `json:"first_commit_time"`
	DeploymentTime  time.Time     `json:"deployment_time"`
	LeadTime        time.Duration `json:"-"`
}

// Minutes returns the lead time as fractional minutes.
func (s LeadTimeSample) Minutes() float64 {
	return s.LeadTime.Minutes()
}

// LeadTimeResult is the averaged lead time for changes.
type LeadTimeResult struct {
	AverageMinutes float64
	Tier           Tier
	Samples        []LeadTimeSample // non-negative samples that contributed to the average
	Anomalies      []LeadTimeSample // negative samples, surfaced but not averaged
	Excluded       int              // successful builds that could not be traced to a PR
}

// FailureRateResult is the change failure rate over all builds in scope.
type FailureRateResult struct {
	Total      int
	Failed     int
	Percentage float64
	Tier       Tier
}

// DeliveryResult is the full output of the delivery metrics analyzer.
type DeliveryResult struct {
	Frequency   FrequencyResult
	LeadTime    LeadTimeResult
	FailureRate FailureRateResult
	Warnings    []Warning
	NoData      bool
}

// UptimeResult holds per-status counts and derived percentages.
type UptimeResult struct {
	Total           int // number of valid samples (may be 0)
	Healthy         int
	Degraded        int
	Unhealthy       int
	NoData          int
	UptimePct       float64 // healthy / total
	AvailabilityPct float64 // (healthy + degraded) / total
	OutagePct       float64 // unhealthy / total
	NoDataPct       float64 // nodata / total
}

// OutageWindow is the longest run of consecutive Unhealthy samples.
// Start and End are nil when no outage was seen.
type OutageWindow struct {
	Start       *time.Time
	End         *time.Time
	SampleCount int
	Minutes     float64
}

// AvailabilityResult is the full output of the availability analyzer.
type AvailabilityResult struct {
	Uptime        UptimeResult
	LongestOutage OutageWindow
	Status        EnvironmentStatus
	Warnings      []Warning
	NoData        bool
}

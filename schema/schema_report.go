package schema

// AvailabilityMetrics is the "metrics" object of an availability report.
type AvailabilityMetrics struct {
	TotalDataPoints                int     `json:"total_data_points"`
	UptimePercentage               float64 `json:"uptime_percentage"`
	AvailabilityPercentage         float64 `json:"availability_percentage"`
	OutagePercentage               float64 `json:"outage_percentage"`
	LongestContinuousOutageMinutes float64 `json:"longest_continuous_outage_minutes"`
	OutageStartTime                *string `json:"outage_start_time"`
	OutageEndTime                  *string `json:"outage_end_time"`
}

// StatusBreakdown is the share of samples in each health state. The four shares
// are apportioned to sum to exactly 100, so a share may differ by 0.01 from
// the independently rounded percentage in AvailabilityMetrics.
type StatusBreakdown struct {
	GreenPercentage  float64 `json:"green_percentage"`
	YellowPercentage float64 `json:"yellow_percentage"`
	RedPercentage    float64 `json:"red_percentage"`
	NoDataPercentage float64 `json:"no_data_percentage"`
}

// AvailabilityReport is the serialized availability report for one environment and day.
type AvailabilityReport struct {
	ReportID        string              `json:"report_id,omitempty"`
	Date            string              `json:"date"`
	EnvironmentName string              `json:"environment_name"`
	ApplicationName string              `json:"application_name"`
	Metrics         AvailabilityMetrics `json:"metrics"`
	Status          EnvironmentStatus   `json:"status"`
	StatusBreakdown StatusBreakdown     `json:"status_breakdown"`
	NoData          bool                `json:"no_data"`
	Warnings        WarningCounts       `json:"warnings"`
}

// PerformanceLevels holds the tier for each DORA metric.
type PerformanceLevels struct {
	DeploymentFrequency Tier `json:"deployment_frequency"`
	LeadTime            Tier `json:"lead_time"`
	ChangeFailureRate   Tier `json:"change_failure_rate"`
}

// LeadTimeEntry is one serialized lead time sample.
type LeadTimeEntry struct {
	PRNumber        int     `json:"pr_number"`
	BuildNumber     int     `json:"build_number"`
	FirstCommitTime string  `json:"first_commit_time"`
	DeploymentTime  string  `json:"deployment_time"`
	LeadTimeMinutes float64 `json:"lead_time_minutes"`
}

// DeliveryDetails carries the counts behind the headline delivery numbers.
type DeliveryDetails struct {
	WindowDays            int             `json:"window_days"`
	SuccessfulDeployments int             `json:"successful_deployments"`
	TotalBuilds           int             `json:"total_builds"`
	FailedBuilds          int             `json:"failed_builds"`
	ExcludedFromLeadTime  int             `json:"excluded_from_lead_time"`
	LeadTimeSamples       []LeadTimeEntry `json:"lead_time_samples"`
	LeadTimeAnomalies     []LeadTimeEntry `json:"lead_time_anomalies,omitempty"`
}

// DeliveryReport is the serialized DORA delivery report for one window.
type DeliveryReport struct {
	ReportID            string            `json:"report_id,omitempty"`
	WindowStart         string            `json:"window_start"`
	WindowEnd           string            `json:"window_end"`
	DeploymentFrequency float64           `json:"deployment_frequency"`
	LeadTimeMinutes     float64           `json:"lead_time_minutes"`
	ChangeFailureRate   float64           `json:"change_failure_rate"`
	PerformanceLevels   PerformanceLevels `json:"performance_levels"`
	Details             DeliveryDetails   `json:"details"`
	NoData              bool              `json:"no_data"`
	Warnings            WarningCounts     `json:"warnings"`
}

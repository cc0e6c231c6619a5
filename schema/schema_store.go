package schema

import "time"

// ReportRunRecord represents a row from the dorametrics_report_runs table.
type ReportRunRecord struct {
	AnalysisID    int64
	ReportID      string
	ReportKind    string
	StartTime     time.Time
	EndTime       *time.Time
	RunDurationMs *int32
	TotalReports  int32
	ConfigParams  *string
}

// AvailabilityRecord represents a row from the dorametrics_availability_reports table.
type AvailabilityRecord struct {
	AnalysisID             int64
	ReportDate             string
	EnvironmentName        string
	ApplicationName        string
	TotalDataPoints        int32
	UptimePercentage       float64
	AvailabilityPercentage float64
	OutagePercentage       float64
	NoDataPercentage       float64
	LongestOutageMinutes   float64
	OutageStartTime        *string
	OutageEndTime          *string
	Status                 string
	WarningCount           int32
}

// DeliveryRecord represents a row from the dorametrics_delivery_reports table.
type DeliveryRecord struct {
	AnalysisID            int64
	WindowStart           string
	WindowEnd             string
	DeploymentFrequency   float64
	LeadTimeMinutes       float64
	ChangeFailureRate     float64
	FrequencyTier         string
	LeadTimeTier          string
	FailureRateTier       string
	SuccessfulDeployments int32
	TotalBuilds           int32
	WarningCount          int32
}

// NewAvailabilityRecord flattens a report into a storage row.
func NewAvailabilityRecord(analysisID int64, r AvailabilityReport) AvailabilityRecord {
	return AvailabilityRecord{
		AnalysisID:             analysisID,
		ReportDate:             r.Date,
		EnvironmentName:        r.EnvironmentName,
		ApplicationName:        r.ApplicationName,
		TotalDataPoints:        int32(r.Metrics.TotalDataPoints),
		UptimePercentage:       r.Metrics.UptimePercentage,
		AvailabilityPercentage: r.Metrics.AvailabilityPercentage,
		OutagePercentage:       r.Metrics.OutagePercentage,
		NoDataPercentage:       r.StatusBreakdown.NoDataPercentage,
		LongestOutageMinutes:   r.Metrics.LongestContinuousOutageMinutes,
		OutageStartTime:        r.Metrics.OutageStartTime,
		OutageEndTime:          r.Metrics.OutageEndTime,
		Status:                 string(r.Status),
		WarningCount:           int32(r.Warnings.Total()),
	}
}

// NewDeliveryRecord flattens a report into a storage row.
func NewDeliveryRecord(analysisID int64, r DeliveryReport) DeliveryRecord {
	return DeliveryRecord{
		AnalysisID:            analysisID,
		WindowStart:           r.WindowStart,
		WindowEnd:             r.WindowEnd,
		DeploymentFrequency:   r.DeploymentFrequency,
		LeadTimeMinutes:       r.LeadTimeMinutes,
		ChangeFailureRate:     r.ChangeFailureRate,
		FrequencyTier:         string(r.PerformanceLevels.DeploymentFrequency),
		LeadTimeTier:          string(r.PerformanceLevels.LeadTime),
		FailureRateTier:       string(r.PerformanceLevels.ChangeFailureRate),
		SuccessfulDeployments: int32(r.Details.SuccessfulDeployments),
		TotalBuilds:           int32(r.Details.TotalBuilds),
		WarningCount:          int32(r.Warnings.Total()),
	}
}

// Package parquet exports stored report runs and report rows to Parquet files
// using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/dorametrics/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun is one report run. Maps to the dorametrics_report_runs table.
type ReportRun struct {
	AnalysisID    int64      `parquet:"analysis_id,snappy"`
	ReportID      string     `parquet:"report_id,snappy"`
	ReportKind    string     `parquet:"report_kind,snappy,dict"`
	StartTime     time.Time  `parquet:"start_time,snappy"`
	EndTime       *time.Time `parquet:"end_time,optional,snappy"`
	RunDurationMs *int32     `parquet:"run_duration_ms,optional,snappy"`
	TotalReports  int32      `parquet:"total_reports,snappy"`

	// ConfigParams is the JSON-encoded run configuration
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// AvailabilityRow is one environment-day. Maps to the dorametrics_availability_reports table.
type AvailabilityRow struct {
	AnalysisID             int64   `parquet:"analysis_id,snappy"`
	ReportDate             string  `parquet:"report_date,snappy"`
	EnvironmentName        string  `parquet:"environment_name,snappy,dict"`
	ApplicationName        string  `parquet:"application_name,snappy,dict"`
	TotalDataPoints        int32   `parquet:"total_data_points,snappy"`
	UptimePercentage       float64 `parquet:"uptime_percentage,snappy"`
	AvailabilityPercentage float64 `parquet:"availability_percentage,snappy"`
	OutagePercentage       float64 `parquet:"outage_percentage,snappy"`
	NoDataPercentage       float64 `parquet:"no_data_percentage,snappy"`
	LongestOutageMinutes   float64 `parquet:"longest_outage_minutes,snappy"`
	OutageStartTime        *string `parquet:"outage_start_time,optional,snappy"`
	OutageEndTime          *string `parquet:"outage_end_time,optional,snappy"`
	Status                 string  `parquet:"status,snappy,dict"`
	WarningCount           int32   `parquet:"warning_count,snappy"`
}

// DeliveryRow is one delivery window. Maps to the dorametrics_delivery_reports table.
type DeliveryRow struct {
	AnalysisID            int64   `parquet:"analysis_id,snappy"`
	WindowStart           string  `parquet:"window_start,snappy"`
	WindowEnd             string  `parquet:"window_end,snappy"`
	DeploymentFrequency   float64 `parquet:"deployment_frequency,snappy"`
	LeadTimeMinutes       float64 `parquet:"lead_time_minutes,snappy"`
	ChangeFailureRate     float64 `parquet:"change_failure_rate,snappy"`
	FrequencyTier         string  `parquet:"frequency_tier,snappy,dict"`
	LeadTimeTier          string  `parquet:"lead_time_tier,snappy,dict"`
	FailureRateTier       string  `parquet:"failure_rate_tier,snappy,dict"`
	SuccessfulDeployments int32   `parquet:"successful_deployments,snappy"`
	TotalBuilds           int32   `parquet:"total_builds,snappy"`
	WarningCount          int32   `parquet:"warning_count,snappy"`
}

// writeParquet writes rows to a new file, with the schema inferred from T's struct tags.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// WriteReportRunsParquet writes report runs to a Parquet file.
func WriteReportRunsParquet(data []ReportRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteAvailabilityParquet writes availability rows to a Parquet file.
func WriteAvailabilityParquet(data []AvailabilityRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteDeliveryParquet writes delivery rows to a Parquet file.
func WriteDeliveryParquet(data []DeliveryRow, outputPath string) error {
	return writeParquet(data, outputPath)
}

// ConvertReportRunRecords converts stored runs for Parquet export.
func ConvertReportRunRecords(records []schema.ReportRunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, record := range records {
		result[i] = ReportRun{
			AnalysisID:    record.AnalysisID,
			ReportID:      record.ReportID,
			ReportKind:    record.ReportKind,
			StartTime:     record.StartTime,
			EndTime:       record.EndTime,
			RunDurationMs: record.RunDurationMs,
			TotalReports:  record.TotalReports,
			ConfigParams:  record.ConfigParams,
		}
	}
	return result
}

// ConvertAvailabilityRecords converts stored availability rows for Parquet export.
func ConvertAvailabilityRecords(records []schema.AvailabilityRecord) []AvailabilityRow {
	result := make([]AvailabilityRow, len(records))
	for i, r := range records {
		result[i] = AvailabilityRow(r)
	}
	return result
}

// ConvertDeliveryRecords converts stored delivery rows for Parquet export.
func ConvertDeliveryRecords(records []schema.DeliveryRecord) []DeliveryRow {
	result := make([]DeliveryRow, len(records))
	for i, r := range records {
		result[i] = DeliveryRow(r)
	}
	return result
}

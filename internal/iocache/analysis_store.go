package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
)

// Table names for report tracking.
const (
	reportRunsTable         = "dorametrics_report_runs"
	availabilityReportTable = "dorametrics_availability_reports"
	deliveryReportTable     = "dorametrics_delivery_reports"
)

// analysisTables lists every analysis table, parents first.
var analysisTables = []string{reportRunsTable, availabilityReportTable, deliveryReportTable}

var availabilityColumns = []string{
	"analysis_id", "report_date", "environment_name", "application_name", "total_data_points",
	"uptime_percentage", "availability_percentage", "outage_percentage", "no_data_percentage",
	"longest_outage_minutes", "outage_start_time", "outage_end_time", "status", "warning_count",
}

var deliveryColumns = []string{
	"analysis_id", "window_start", "window_end", "deployment_frequency", "lead_time_minutes",
	"change_failure_rate", "frequency_tier", "lead_time_tier", "failure_rate_tier",
	"successful_deployments", "total_builds", "warning_count",
}

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
// NoneBackend yields a store that records nothing.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	if backend == schema.NoneBackend {
		return &AnalysisStoreImpl{backend: backend}, nil
	}

	db, err := openDB(backend, connStr, contract.GetAnalysisDBFilePath())
	if err != nil {
		return nil, fmt.Errorf("analysis store: %w", err)
	}
	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}
	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables replays the initial migration, which only uses IF NOT EXISTS.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	stmts, err := initialStatements(backend)
	if err != nil {
		return err
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// insertQuery builds an INSERT for the given table and columns.
func (as *AnalysisStoreImpl) insertQuery(table string, columns []string) string {
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		quoteTableName(table, as.backend), strings.Join(columns, ", "), placeholders(as.backend, len(columns)))
}

// BeginAnalysis creates a new report run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(kind schema.ReportKind, reportID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	columns := []string{"report_id", "report_kind", "start_time", "config_params"}
	args := []any{reportID, string(kind), formatTime(startTime, as.backend), string(configJSON)}

	var analysisID int64
	if as.backend == schema.PostgreSQLBackend {
		err = as.db.QueryRow(as.insertQuery(reportRunsTable, columns)+" RETURNING analysis_id", args...).Scan(&analysisID)
	} else {
		var result sql.Result
		result, err = as.db.Exec(as.insertQuery(reportRunsTable, columns), args...)
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert report run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis stamps the run with its end time, duration and report count.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalReports int) error {
	if as.db == nil {
		return nil
	}

	quoted := quoteTableName(reportRunsTable, as.backend)
	var start timeScanner
	query := fmt.Sprintf("SELECT start_time FROM %s WHERE analysis_id = %s", quoted, placeholder(as.backend, 1))
	if err := as.db.QueryRow(query, analysisID).Scan(&start); err != nil {
		return fmt.Errorf("failed to get start_time for run %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(start.Time).Milliseconds()
	update := fmt.Sprintf("UPDATE %s SET end_time = %s, run_duration_ms = %s, total_reports = %s WHERE analysis_id = %s",
		quoted,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3), placeholder(as.backend, 4))
	if _, err := as.db.Exec(update, formatTime(endTime, as.backend), durationMs, totalReports, analysisID); err != nil {
		return fmt.Errorf("failed to update report run: %w", err)
	}
	return nil
}

// RecordAvailabilityReport stores one availability row.
func (as *AnalysisStoreImpl) RecordAvailabilityReport(analysisID int64, report schema.AvailabilityReport) error {
	if as.db == nil {
		return nil
	}
	r := schema.NewAvailabilityRecord(analysisID, report)
	_, err := as.db.Exec(as.insertQuery(availabilityReportTable, availabilityColumns),
		r.AnalysisID, r.ReportDate, r.EnvironmentName, r.ApplicationName, r.TotalDataPoints,
		r.UptimePercentage, r.AvailabilityPercentage, r.OutagePercentage, r.NoDataPercentage,
		r.LongestOutageMinutes, r.OutageStartTime, r.OutageEndTime, r.Status, r.WarningCount)
	if err != nil {
		return fmt.Errorf("failed to insert availability report: %w", err)
	}
	return nil
}

// RecordDeliveryReport stores one delivery row.
func (as *AnalysisStoreImpl) RecordDeliveryReport(analysisID int64, report schema.DeliveryReport) error {
	if as.db == nil {
		return nil
	}
	r := schema.NewDeliveryRecord(analysisID, report)
	_, err := as.db.Exec(as.insertQuery(deliveryReportTable, deliveryColumns),
		r.AnalysisID, r.WindowStart, r.WindowEnd, r.DeploymentFrequency, r.LeadTimeMinutes,
		r.ChangeFailureRate, r.FrequencyTier, r.LeadTimeTier, r.FailureRateTier,
		r.SuccessfulDeployments, r.TotalBuilds, r.WarningCount)
	if err != nil {
		return fmt.Errorf("failed to insert delivery report: %w", err)
	}
	return nil
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns run counts, the run time range and per-table row counts.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := quoteTableName(reportRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		var last, oldest timeScanner
		row := as.db.QueryRow(fmt.Sprintf("SELECT analysis_id, start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID, &last); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		status.LastRunTime = last.Time

		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs))
		if err := row.Scan(&oldest); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		status.OldestRunTime = oldest.Time

		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_reports), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalReports); err != nil {
			return status, fmt.Errorf("failed to get total reports: %w", err)
		}
	}

	for _, table := range analysisTables {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllReportRuns retrieves all report runs, oldest first.
func (as *AnalysisStoreImpl) GetAllReportRuns() ([]schema.ReportRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, report_id, report_kind, start_time, end_time, run_duration_ms, total_reports, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(reportRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query report runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.ReportRunRecord
	for rows.Next() {
		var record schema.ReportRunRecord
		var start, end timeScanner
		if err := rows.Scan(&record.AnalysisID, &record.ReportID, &record.ReportKind, &start, &end,
			&record.RunDurationMs, &record.TotalReports, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan report run: %w", err)
		}
		record.StartTime = start.Time
		record.EndTime = end.Ptr()
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating report runs: %w", err)
	}
	return results, nil
}

// GetAllAvailabilityRecords retrieves all availability rows.
func (as *AnalysisStoreImpl) GetAllAvailabilityRecords() ([]schema.AvailabilityRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY analysis_id, report_date, environment_name",
		strings.Join(availabilityColumns, ", "), quoteTableName(availabilityReportTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query availability reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AvailabilityRecord
	for rows.Next() {
		var r schema.AvailabilityRecord
		if err := rows.Scan(&r.AnalysisID, &r.ReportDate, &r.EnvironmentName, &r.ApplicationName, &r.TotalDataPoints,
			&r.UptimePercentage, &r.AvailabilityPercentage, &r.OutagePercentage, &r.NoDataPercentage,
			&r.LongestOutageMinutes, &r.OutageStartTime, &r.OutageEndTime, &r.Status, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("failed to scan availability report: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating availability reports: %w", err)
	}
	return results, nil
}

// GetAllDeliveryRecords retrieves all delivery rows.
func (as *AnalysisStoreImpl) GetAllDeliveryRecords() ([]schema.DeliveryRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY analysis_id, window_start",
		strings.Join(deliveryColumns, ", "), quoteTableName(deliveryReportTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query delivery reports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.DeliveryRecord
	for rows.Next() {
		var r schema.DeliveryRecord
		if err := rows.Scan(&r.AnalysisID, &r.WindowStart, &r.WindowEnd, &r.DeploymentFrequency, &r.LeadTimeMinutes,
			&r.ChangeFailureRate, &r.FrequencyTier, &r.LeadTimeTier, &r.FailureRateTier,
			&r.SuccessfulDeployments, &r.TotalBuilds, &r.WarningCount); err != nil {
			return nil, fmt.Errorf("failed to scan delivery report: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating delivery reports: %w", err)
	}
	return results, nil
}

package parquet

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/dorametrics/schema"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// readAll reads every row of a Parquet file written by this package.
func readAll[T any](t *testing.T, path string) []T {
	t.Helper()
	file, err := os.Open(path)
	require.NoError(t, err)
	defer func() { _ = file.Close() }()

	reader := parquet.NewGenericReader[T](file)
	defer func() { _ = reader.Close() }()

	rows := make([]T, reader.NumRows())
	n, err := reader.Read(rows)
	if err != nil && err != io.EOF {
		require.NoError(t, err)
	}
	return rows[:n]
}

func TestStructTags(t *testing.T) {
	cases := map[string]struct {
		schema  *parquet.Schema
		columns []string
	}{
		"report runs": {
			parquet.SchemaOf(new(ReportRun)),
			[]string{"analysis_id", "report_id", "report_kind", "start_time", "end_time", "run_duration_ms", "total_reports", "config_params"},
		},
		"availability": {
			parquet.SchemaOf(new(AvailabilityRow)),
			[]string{"report_date", "environment_name", "uptime_percentage", "outage_start_time", "status", "warning_count"},
		},
		"delivery": {
			parquet.SchemaOf(new(DeliveryRow)),
			[]string{"window_start", "deployment_frequency", "lead_time_minutes", "change_failure_rate", "failure_rate_tier"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			for _, col := range tc.columns {
				_, ok := tc.schema.Lookup(col)
				assert.True(t, ok, "column %s should exist", col)
			}
		})
	}
}

func TestWriteReportRunsParquet(t *testing.T) {
	end := time.Date(2025, 4, 13, 1, 0, 2, 0, time.UTC)
	duration := int32(2000)
	params := `{"kind":"availability"}`
	records := []schema.ReportRunRecord{
		{AnalysisID: 1, ReportID: "a1", ReportKind: "availability", StartTime: end.Add(-2 * time.Second), EndTime: &end, RunDurationMs: &duration, TotalReports: 1, ConfigParams: &params},
		{AnalysisID: 2, ReportID: "d1", ReportKind: "delivery", StartTime: end},
	}

	path := filepath.Join(t.TempDir(), "runs.parquet")
	require.NoError(t, WriteReportRunsParquet(ConvertReportRunRecords(records), path))

	rows := readAll[ReportRun](t, path)
	require.Len(t, rows, 2)
	assert.Equal(t, "a1", rows[0].ReportID)
	require.NotNil(t, rows[0].EndTime)
	assert.WithinDuration(t, end, *rows[0].EndTime, time.Nanosecond)
	require.NotNil(t, rows[0].ConfigParams)
	assert.Equal(t, params, *rows[0].ConfigParams)
	assert.Nil(t, rows[1].EndTime)
	assert.Nil(t, rows[1].RunDurationMs)
}

func TestWriteAvailabilityParquet(t *testing.T) {
	start, end := "2025-04-12T08:50:00Z", "2025-04-12T09:00:00Z"
	records := []schema.AvailabilityRecord{
		{AnalysisID: 1, ReportDate: "2025-04-12", EnvironmentName: "prod-env", ApplicationName: "shop", TotalDataPoints: 282,
			UptimePercentage: 96.81, AvailabilityPercentage: 98.94, OutagePercentage: 1.06, LongestOutageMinutes: 15,
			OutageStartTime: &start, OutageEndTime: &end, Status: "Partial Outage", WarningCount: 0},
		{AnalysisID: 1, ReportDate: "2025-04-13", EnvironmentName: "prod-env", ApplicationName: "shop", Status: "Operational"},
	}

	path := filepath.Join(t.TempDir(), "availability.parquet")
	require.NoError(t, WriteAvailabilityParquet(ConvertAvailabilityRecords(records), path))

	rows := readAll[AvailabilityRow](t, path)
	require.Len(t, rows, 2)
	assert.InDelta(t, 96.81, rows[0].UptimePercentage, 1e-9)
	require.NotNil(t, rows[0].OutageStartTime)
	assert.Equal(t, start, *rows[0].OutageStartTime)
	assert.Nil(t, rows[1].OutageStartTime)
	assert.Equal(t, "Operational", rows[1].Status)
}

func TestWriteDeliveryParquet(t *testing.T) {
	records := []schema.DeliveryRecord{{
		AnalysisID: 3, WindowStart: "2025-04-07T00:00:00Z", WindowEnd: "2025-04-10T23:59:59Z",
		DeploymentFrequency: 1.25, LeadTimeMinutes: 111, ChangeFailureRate: 28.57,
		FrequencyTier: "Elite", LeadTimeTier: "Elite (slightly above threshold)", FailureRateTier: "Medium",
		SuccessfulDeployments: 5, TotalBuilds: 7,
	}}

	path := filepath.Join(t.TempDir(), "delivery.parquet")
	require.NoError(t, WriteDeliveryParquet(ConvertDeliveryRecords(records), path))

	rows := readAll[DeliveryRow](t, path)
	require.Len(t, rows, 1)
	assert.Equal(t, DeliveryRow(records[0]), rows[0])
}

func TestWriteParquet_EmptyData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.parquet")
	require.NoError(t, WriteReportRunsParquet(nil, path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0), "footer is still written")
	assert.Empty(t, readAll[ReportRun](t, path))
}

func TestWriteParquet_BadPath(t *testing.T) {
	err := WriteDeliveryParquet(nil, filepath.Join(t.TempDir(), "missing", "out.parquet"))
	assert.Error(t, err)
}

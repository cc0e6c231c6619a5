package outwriter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func testConfig(out schema.OutputMode) *contract.Config {
	return &contract.Config{
		Precision:    2,
		Output:       out,
		Width:        160,
		Workers:      2,
		RecordSource: schema.CSVRecords,
		HealthFeed:   schema.CSVFeed,
	}
}

func sampleDelivery() schema.DeliveryReport {
	return schema.DeliveryReport{
		WindowStart:         "2025-04-07T00:00:00Z",
		WindowEnd:           "2025-04-10T23:59:59Z",
		DeploymentFrequency: 1.25,
		LeadTimeMinutes:     111,
		ChangeFailureRate:   28.57,
		PerformanceLevels: schema.PerformanceLevels{
			DeploymentFrequency: schema.TierElite,
			LeadTime:            schema.TierEliteAboveThreshold,
			ChangeFailureRate:   schema.TierHigh,
		},
		Details: schema.DeliveryDetails{
			WindowDays:            4,
			SuccessfulDeployments: 5,
			TotalBuilds:           7,
			FailedBuilds:          2,
			LeadTimeSamples: []schema.LeadTimeEntry{
				{PRNumber: 42, BuildNumber: 101, FirstCommitTime: "2025-04-07T07:42:00Z", DeploymentTime: "2025-04-07T10:00:00Z", LeadTimeMinutes: 138},
			},
			LeadTimeAnomalies: []schema.LeadTimeEntry{
				{PRNumber: 44, BuildNumber: 104, LeadTimeMinutes: -5},
			},
		},
		Warnings: schema.WarningCounts{NegativeLeadTimes: 1},
	}
}

func sampleAvailability(date string) schema.AvailabilityReport {
	return schema.AvailabilityReport{
		Date:            date,
		EnvironmentName: "prod-env",
		ApplicationName: "shop",
		Metrics: schema.AvailabilityMetrics{
			TotalDataPoints:                288,
			UptimePercentage:               96.88,
			AvailabilityPercentage:         98.96,
			OutagePercentage:               1.04,
			LongestContinuousOutageMinutes: 15,
			OutageStartTime:                strPtr(date + "T08:50:00Z"),
			OutageEndTime:                  strPtr(date + "T09:00:00Z"),
		},
		Status:          schema.StatusPartial,
		StatusBreakdown: schema.StatusBreakdown{GreenPercentage: 96.88, YellowPercentage: 2.08, RedPercentage: 1.04},
	}
}

func TestWriteDeliveryTable(t *testing.T) {
	cfg := testConfig(schema.TextOut)
	fmtFloat := floatFormatter(cfg.Precision)

	var buf bytes.Buffer
	require.NoError(t, writeDeliveryTable(&buf, sampleDelivery(), cfg, fmtFloat, time.Second))
	out := buf.String()

	assert.Contains(t, out, "2025-04-07T00:00:00Z .. 2025-04-10T23:59:59Z")
	assert.Contains(t, out, "1.25")
	assert.Contains(t, out, "Elite (slightly above threshold)")
	assert.Contains(t, out, "#42")
	assert.Contains(t, out, "(anomaly)")
	assert.Contains(t, out, "5 successful of 7 builds (2 failed)")
	assert.Contains(t, out, "1 negative lead times")
	assert.NotContains(t, out, "🚀")

	cfg.UseEmojis = true
	buf.Reset()
	empty := schema.DeliveryReport{NoData: true}
	require.NoError(t, writeDeliveryTable(&buf, empty, cfg, fmtFloat, time.Second))
	assert.Contains(t, buf.String(), "🚀")
	assert.Contains(t, buf.String(), "inferred from builds")
	assert.Contains(t, buf.String(), "No build data")
}

func TestWriteDeliveryCSV(t *testing.T) {
	fmtFloat := floatFormatter(2)
	var buf bytes.Buffer
	require.NoError(t, writeDeliveryCSV(&buf, sampleDelivery(), fmtFloat))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, []string{"window_start", "window_end", "metric", "value", "level"}, records[0])
	assert.Equal(t, "lead_time_minutes", records[2][2])
	assert.Equal(t, "111.00", records[2][3])
	assert.Equal(t, "High", records[3][4])
}

func TestWriteDeliveryReport_JSONFile(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	cfg.OutputFile = filepath.Join(t.TempDir(), "delivery.json")
	require.NoError(t, WriteDeliveryReport(sampleDelivery(), cfg, time.Second))

	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, 28.57, decoded["change_failure_rate"])
	assert.Contains(t, decoded, "performance_levels")
}

func TestWriteAvailabilityTable(t *testing.T) {
	cfg := testConfig(schema.TextOut)
	fmtFloat := floatFormatter(cfg.Precision)

	var buf bytes.Buffer
	report := sampleAvailability("2025-04-12")
	report.Warnings.MalformedRecords = 3
	require.NoError(t, writeAvailabilityTable(&buf, []schema.AvailabilityReport{report}, cfg, fmtFloat, time.Second))
	out := buf.String()
	assert.Contains(t, out, "Partial Outage")
	assert.Contains(t, out, "96.88")
	assert.Contains(t, out, "Longest outage: 2025-04-12T08:50:00Z .. 2025-04-12T09:00:00Z")
	assert.Contains(t, out, "3 samples skipped")
	assert.Contains(t, out, "Showing 1 reports")

	buf.Reset()
	nodata := schema.AvailabilityReport{Date: "2025-04-13", Status: schema.StatusPartial, NoData: true}
	require.NoError(t, writeAvailabilityTable(&buf, []schema.AvailabilityReport{report, nodata}, cfg, fmtFloat, time.Second))
	assert.Contains(t, buf.String(), "(no data)")
	assert.NotContains(t, buf.String(), "Longest outage:")
}

func TestWriteAvailabilityCSV(t *testing.T) {
	fmtFloat := floatFormatter(2)
	var buf bytes.Buffer
	reports := []schema.AvailabilityReport{sampleAvailability("2025-04-12"), {Date: "2025-04-13", Status: schema.StatusOperational}}
	require.NoError(t, writeAvailabilityCSV(&buf, reports, fmtFloat))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Len(t, records[0], 15)
	assert.Equal(t, "2025-04-12T08:50:00Z", records[1][8])
	assert.Equal(t, "", records[2][8])
	assert.Equal(t, "Operational", records[2][10])
}

func TestWriteAvailabilityReports_JSONShape(t *testing.T) {
	cfg := testConfig(schema.JSONOut)
	dir := t.TempDir()

	cfg.OutputFile = filepath.Join(dir, "one.json")
	require.NoError(t, WriteAvailabilityReports([]schema.AvailabilityReport{sampleAvailability("2025-04-12")}, cfg, 0))
	data, err := os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	var single map[string]any
	require.NoError(t, json.Unmarshal(data, &single), "a single report is an object")

	cfg.OutputFile = filepath.Join(dir, "many.json")
	require.NoError(t, WriteAvailabilityReports(nil, cfg, 0))
	data, err = os.ReadFile(cfg.OutputFile)
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(data))
}

func TestHelpers(t *testing.T) {
	assert.Equal(t, "abcdefg", truncate("abcdefg", 10))
	assert.Equal(t, "abcd...", truncate("abcdefghij", 7))
	assert.Equal(t, 10, getMaxNameWidth(&contract.Config{Width: 20}))
	assert.Equal(t, 40, getMaxNameWidth(&contract.Config{Width: 400}))

	cfg := &contract.Config{}
	assert.Equal(t, "High", tierLabel(schema.TierHigh, cfg))
	assert.Equal(t, "Operational", statusLabel(schema.StatusOperational, cfg))
	assert.Equal(t, "x", heading("🚀", "x", cfg))
	assert.Equal(t, "", ptrOrEmpty(nil))
}

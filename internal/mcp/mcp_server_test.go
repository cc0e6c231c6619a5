package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	mcp_internal "github.com/huangsam/dorametrics/internal/mcp"
	"github.com/huangsam/dorametrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func baseConfig(t *testing.T) *contract.Config {
	dir := t.TempDir()
	builds := writeFile(t, dir, "builds.csv", `Job_Name,Build_Number,Result,Timestamp,Duration,Commit_ID,Branch
deploy,1,SUCCESS,2025-04-07T10:00:00Z,60,abc,main
deploy,2,SUCCESS,2025-04-08T10:00:00Z,60,def,main
deploy,3,FAILURE,2025-04-09T10:00:00Z,60,ghi,main
`)
	health := writeFile(t, dir, "health.csv", `timestamp,status
2025-04-07T00:00:00Z,1
2025-04-07T00:05:00Z,2
2025-04-08T00:00:00Z,1
`)
	return &contract.Config{
		Workers:         2,
		Precision:       2,
		Output:          schema.TextOut,
		RecordSource:    schema.CSVRecords,
		BuildsFile:      builds,
		HealthFeed:      schema.CSVFeed,
		HealthFile:      health,
		EnvironmentName: "prod",
		ApplicationName: "shop",
		Interval:        5 * time.Minute,
		Publish:         true,
	}
}

func call(t *testing.T, cfg *contract.Config, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	s := mcp_internal.NewMCPServer(cfg, nil)
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	res, err := tool.Handler(context.Background(), mcp.CallToolRequest{
		Params: mcp.CallToolParams{Name: name, Arguments: args},
	})
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	return res
}

func text(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestGetDeliveryMetrics(t *testing.T) {
	cfg := baseConfig(t)
	res := call(t, cfg, "get_delivery_metrics", map[string]any{"start": "2025-04-07", "end": "2025-04-09"})
	require.False(t, res.IsError, text(res))

	var report schema.DeliveryReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
	assert.Equal(t, 3, report.Details.TotalBuilds)
	assert.Equal(t, 2, report.Details.SuccessfulDeployments)
	assert.Equal(t, 3, report.Details.WindowDays)
	assert.True(t, cfg.Publish, "the base config is not modified")
}

func TestGetAvailabilityReport(t *testing.T) {
	cfg := baseConfig(t)

	res := call(t, cfg, "get_availability_report", map[string]any{"date": "2025-04-07", "environment": "staging"})
	require.False(t, res.IsError, text(res))
	var report schema.AvailabilityReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &report))
	assert.Equal(t, "2025-04-07", report.Date)
	assert.Equal(t, "staging", report.EnvironmentName)
	assert.Equal(t, 2, report.Metrics.TotalDataPoints)
	assert.InDelta(t, 100.0, report.Metrics.AvailabilityPercentage, 0.001)

	res = call(t, cfg, "get_availability_report", map[string]any{"date": "2025-04-07", "end_date": "2025-04-08"})
	require.False(t, res.IsError, text(res))
	var reports []schema.AvailabilityReport
	require.NoError(t, json.Unmarshal([]byte(text(res)), &reports))
	assert.Len(t, reports, 2)
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	cfg := baseConfig(t)

	t.Run("get_delivery_metrics inverted window", func(t *testing.T) {
		res := call(t, cfg, "get_delivery_metrics", map[string]any{"start": "2025-04-09", "end": "2025-04-01"})
		assert.True(t, res.IsError, "The response should indicate an error state")
		assert.Contains(t, text(res), "invalid time window")
	})

	t.Run("get_delivery_metrics bad start", func(t *testing.T) {
		res := call(t, cfg, "get_delivery_metrics", map[string]any{"start": "last tuesday"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "invalid start")
	})

	t.Run("get_availability_report end_date without date", func(t *testing.T) {
		res := call(t, cfg, "get_availability_report", map[string]any{"end_date": "2025-04-08"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "end_date requires date")
	})

	t.Run("get_availability_report missing health file", func(t *testing.T) {
		noFeed := baseConfig(t)
		noFeed.HealthFile = ""
		res := call(t, noFeed, "get_availability_report", map[string]any{"date": "2025-04-07"})
		assert.True(t, res.IsError)
		assert.Contains(t, text(res), "availability report unavailable")
	})
}

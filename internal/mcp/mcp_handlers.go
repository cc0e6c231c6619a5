package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/dorametrics/core"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	baseCfg *contract.Config
	mgr     contract.CacheManager
}

// requestConfig clones the base config for one call. Tool calls never publish.
func (h *toolHandler) requestConfig() *contract.Config {
	cfg := h.baseCfg.Clone()
	cfg.Publish = false
	return cfg
}

func (h *toolHandler) handleGetDeliveryMetrics(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig()
	start := request.GetString("start", "")
	end := request.GetString("end", "")
	lookback := request.GetString("lookback", "")

	if err := contract.RevalidateTimeRange(cfg, start, end, "", lookback, time.Now().UTC()); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid time window: %v", err)), nil
	}

	runner, err := core.NewRunner(ctx, cfg, h.mgr, nil, schema.DeliveryReportKind)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("delivery metrics unavailable: %v", err)), nil
	}
	defer func() { _ = runner.Close() }()

	report, err := runner.RunDelivery(core.WithTrigger(ctx, core.TriggerMCP), cfg)
	if report == nil {
		return mcp.NewToolResultError(fmt.Sprintf("delivery analysis failed: %v", err)), nil
	}

	jsonData, _ := json.MarshalIndent(report, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

func (h *toolHandler) handleGetAvailabilityReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cfg := h.requestConfig()
	date := request.GetString("date", "")
	endDate := request.GetString("end_date", "")
	if env := request.GetString("environment", ""); env != "" {
		cfg.EnvironmentName = env
	}
	if app := request.GetString("application", ""); app != "" {
		cfg.ApplicationName = app
	}

	var err error
	if endDate != "" {
		if date == "" {
			return mcp.NewToolResultError("end_date requires date"), nil
		}
		err = contract.RevalidateTimeRange(cfg, date, endDate, "", "", time.Now().UTC())
	} else {
		err = contract.RevalidateTimeRange(cfg, "", "", date, "", time.Now().UTC())
	}
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid report dates: %v", err)), nil
	}

	runner, err := core.NewRunner(ctx, cfg, h.mgr, nil, schema.AvailabilityReportKind)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("availability report unavailable: %v", err)), nil
	}
	defer func() { _ = runner.Close() }()

	reports, err := runner.RunAvailability(core.WithTrigger(ctx, core.TriggerMCP), cfg)
	if len(reports) == 0 {
		if err == nil {
			err = errors.New("no reports produced")
		}
		return mcp.NewToolResultError(fmt.Sprintf("availability analysis failed: %v", err)), nil
	}

	var payload any = reports
	if len(reports) == 1 {
		payload = reports[0]
	}
	jsonData, _ := json.MarshalIndent(payload, "", "  ")
	return mcp.NewToolResultText(string(jsonData)), nil
}

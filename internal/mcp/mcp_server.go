// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the dorametrics MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"DORA Metrics Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: get_delivery_metrics ---
	s.AddTool(mcp.NewTool("get_delivery_metrics",
		mcp.WithDescription("Compute DORA delivery metrics (deployment frequency, lead time, change failure rate) for a time window."),
		mcp.WithString("start", mcp.Description("Window start as RFC3339, YYYY-MM-DD or 'N days ago'. Omit to infer from the builds.")),
		mcp.WithString("end", mcp.Description("Window end, inclusive. Defaults to now when start is set.")),
		mcp.WithString("lookback", mcp.Description("Trailing window ending now (e.g. '30 days'). Used when start is omitted.")),
	), h.handleGetDeliveryMetrics)

	// --- 2. Tool: get_availability_report ---
	s.AddTool(mcp.NewTool("get_availability_report",
		mcp.WithDescription("Compute uptime, availability and the longest outage of an environment for one UTC day or a range of days."),
		mcp.WithString("date", mcp.Description("Report day as YYYY-MM-DD or 'N days ago'. Defaults to yesterday.")),
		mcp.WithString("end_date", mcp.Description("Last day of a multi-day range starting at date.")),
		mcp.WithString("environment", mcp.Description("Environment name. Defaults to the configured environment.")),
		mcp.WithString("application", mcp.Description("Application name. Defaults to the configured application.")),
	), h.handleGetAvailabilityReport)

	return s
}

// StartMCPServer starts the dorametrics MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}

// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/stationqc/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the StationQC MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.StoreManager) *server.MCPServer {
	s := server.NewMCPServer(
		"StationQC Gap Filling Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: interpolate_series ---
	s.AddTool(mcp.NewTool("interpolate_series",
		mcp.WithDescription("Fill the gaps of a single hourly series from its neighbors, a spline and a model, without touching any store."),
		mcp.WithString("series", mcp.Description(`JSON object with "center", "model" and "neighbors" arrays (null marks a missing hour) and "max_offset". Each neighbor has "slope", "offset", "sigma" and "observed".`), mcp.Required()),
		mcp.WithBoolean("akima_first", mcp.Description("Try the spline before the neighbor blend.")),
		mcp.WithNumber("extra_data", mcp.Description("Margin in hours at both ends that is never filled. Defaults to 3.")),
		mcp.WithNumber("neighbor_cap", mcp.Description("Most neighbors used per hour. Defaults to 5.")),
	), h.handleInterpolateSeries)

	// --- 2. Tool: fill_gaps ---
	s.AddTool(mcp.NewTool("fill_gaps",
		mcp.WithDescription("Plan and run gap filling against the configured series store."),
		mcp.WithString("start", mcp.Description("Window start (RFC3339, '2006-01-02T15' or 'N days ago').")),
		mcp.WithString("end", mcp.Description("Window end (RFC3339, '2006-01-02T15' or 'N days ago').")),
		mcp.WithString("station", mcp.Description("Comma-separated station ids (defaults to all stations).")),
		mcp.WithString("param", mcp.Description("Comma-separated parameter ids (defaults to all configured parameters).")),
		mcp.WithBoolean("dry_run", mcp.Description("Compute the fills without writing them. Defaults to true.")),
	), h.handleFillGaps)

	// --- 3. Tool: get_run_status ---
	s.AddTool(mcp.NewTool("get_run_status",
		mcp.WithDescription("Report the state of the run tracking store."),
	), h.handleGetRunStatus)

	return s
}

// StartMCPServer starts the StationQC MCP server.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.StoreManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}

// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/huangsam/filepulse/core"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerVersion is reported to MCP clients during initialization.
const ServerVersion = "1.0.0"

// NewMCPServer initializes and configures the FilePulse MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(svc *core.Service) *server.MCPServer {
	s := server.NewMCPServer(
		"FilePulse Report Server",
		ServerVersion,
		server.WithLogging(),
	)

	h := &toolHandler{svc: svc}

	// --- 1. Tool: generate_report ---
	s.AddTool(mcp.NewTool("generate_report",
		mcp.WithDescription("Scan folders for neglected files, render a PDF neglect report and archive it."),
		mcp.WithString("folders", mcp.Description("Comma separated folders to scan (defaults to the configured folders).")),
		mcp.WithString("output_dir", mcp.Description("Directory the report is written to (defaults to the configured output directory).")),
	), h.handleGenerateReport)

	// --- 2. Tool: list_reports ---
	s.AddTool(mcp.NewTool("list_reports",
		mcp.WithDescription("List archived neglect reports, newest first."),
		mcp.WithNumber("limit", mcp.Description("Limit the number of reports returned.")),
	), h.handleListReports)

	// --- 3. Tool: classify_age ---
	s.AddTool(mcp.NewTool("classify_age",
		mcp.WithDescription("Classify a neglect age in days into the red, amber or green band using the configured thresholds."),
		mcp.WithNumber("age_days", mcp.Description("Days since the last content change."), mcp.Required()),
	), h.handleClassifyAge)

	// --- 4. Tool: get_schedule ---
	s.AddTool(mcp.NewTool("get_schedule",
		mcp.WithDescription("Show the recurring report schedule and the next fire time."),
	), h.handleGetSchedule)

	return s
}

// StartMCPServer starts the FilePulse MCP server on stdio.
func StartMCPServer(_ context.Context, svc *core.Service) error {
	s := NewMCPServer(svc)
	return server.ServeStdio(s)
}

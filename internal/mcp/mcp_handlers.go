package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
)

// toolHandler holds common dependencies for MCP tool handlers.
type toolHandler struct {
	svc *core.Service
}

func jsonResult(v any) *mcp.CallToolResult {
	jsonData, _ := json.MarshalIndent(v, "", "  ")
	return mcp.NewToolResultText(string(jsonData))
}

func (h *toolHandler) handleGenerateReport(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	req := core.GenerateRequest{
		Folders:   contract.SplitList(request.GetString("folders", "")),
		OutputDir: request.GetString("output_dir", ""),
		Trigger:   schema.MCPTrigger,
	}

	res, err := h.svc.Generate(ctx, req)
	switch {
	case errors.Is(err, core.ErrNoFolders), errors.Is(err, core.ErrNoFiles):
		return mcp.NewToolResultError(err.Error()), nil
	case errors.Is(err, core.ErrGenerationInProgress):
		return mcp.NewToolResultError("a report is already being generated; try again shortly"), nil
	case err != nil:
		return mcp.NewToolResultError(fmt.Sprintf("report generation failed: %v", err)), nil
	}
	return jsonResult(res.Summary()), nil
}

func (h *toolHandler) handleListReports(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	entries, err := h.svc.Archive().List()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list reports: %v", err)), nil
	}
	if l := request.GetInt("limit", 0); l > 0 && l < len(entries) {
		entries = entries[:l]
	}
	return jsonResult(schema.EnrichArchive(entries)), nil
}

func (h *toolHandler) handleClassifyAge(_ context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	days, err := request.RequireFloat("age_days")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if days < 0 {
		return mcp.NewToolResultError("age_days must not be negative"), nil
	}
	return jsonResult(h.svc.Classify(days)), nil
}

func (h *toolHandler) handleGetSchedule(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(h.svc.ScheduleStatus()), nil
}

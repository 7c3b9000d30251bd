package mcp_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/internal/archive"
	mcp_internal "github.com/huangsam/filepulse/internal/mcp"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/internal/render"
	"github.com/huangsam/filepulse/internal/settings"
	"github.com/huangsam/filepulse/schema"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) (*core.Service, string) {
	t.Helper()
	base := t.TempDir()
	folder := filepath.Join(base, "watched")
	require.NoError(t, os.MkdirAll(folder, 0o755))
	stale := filepath.Join(folder, "stale.txt")
	require.NoError(t, os.WriteFile(stale, []byte("stale"), 0o644))
	old := time.Now().Add(-16 * 24 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	store := settings.Load(filepath.Join(base, "data", "config.json"), nil)
	require.NoError(t, store.SetOutputDir(filepath.Join(base, "out")))
	arch := archive.NewStore(filepath.Join(base, "Reports"), nil)
	scanner := core.NewScanner(nil, nil, nil)
	svc := core.NewService(core.ServiceDeps{
		Settings:  store,
		Archive:   arch,
		Scanner:   scanner,
		Assembler: core.NewAssembler(scanner, render.NewPDFRenderer(nil), arch, nil, 1, nil),
		Notifier:  &notify.MockNotifier{},
		Location:  time.UTC,
	})
	return svc, folder
}

func callTool(t *testing.T, s *server.MCPServer, name string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	tool := s.GetTool(name)
	require.NotNil(t, tool, "Tool %s should exist", name)

	req := mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	}
	res, err := tool.Handler(context.Background(), req)
	require.NoError(t, err, "The MCP handler should not return a raw error for tool logic failures")
	require.NotNil(t, res)
	return res
}

func resultText(res *mcp.CallToolResult) string {
	return res.Content[0].(mcp.TextContent).Text
}

func TestMCPServerTools(t *testing.T) {
	svc, _ := newTestService(t)
	s := mcp_internal.NewMCPServer(svc)

	for _, name := range []string{"generate_report", "list_reports", "classify_age", "get_schedule"} {
		assert.NotNil(t, s.GetTool(name), "Tool %s should exist", name)
	}
	assert.Nil(t, s.GetTool("get_files_hotspots"))
}

func TestMCPServerHandlers_ValidationErrors(t *testing.T) {
	svc, _ := newTestService(t)
	s := mcp_internal.NewMCPServer(svc)

	tests := []struct {
		name string
		tool string
		args map[string]any
		want string
	}{
		{"classify_age missing age", "classify_age", map[string]any{}, "age_days"},
		{"classify_age negative age", "classify_age", map[string]any{"age_days": -1.0}, "must not be negative"},
		{"generate_report without folders", "generate_report", map[string]any{}, "no folders selected"},
		{"generate_report empty folder", "generate_report", map[string]any{"folders": t.TempDir()}, "no files found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := callTool(t, s, tt.tool, tt.args)
			assert.True(t, res.IsError, "The response should indicate an error state")
			assert.Contains(t, resultText(res), tt.want)
		})
	}
}

func TestMCPClassifyAge(t *testing.T) {
	svc, _ := newTestService(t)
	s := mcp_internal.NewMCPServer(svc)

	res := callTool(t, s, "classify_age", map[string]any{"age_days": 5.5})
	require.False(t, res.IsError)

	var got schema.Classification
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &got))
	assert.Equal(t, schema.AmberBand, got.Band)
	assert.Equal(t, "Amber", got.State)
	assert.Equal(t, "5 days 12 h", got.Neglect)
	assert.Equal(t, schema.DefaultThresholds(), got.Thresholds)
}

func TestMCPGenerateAndListReports(t *testing.T) {
	svc, folder := newTestService(t)
	s := mcp_internal.NewMCPServer(svc)

	res := callTool(t, s, "list_reports", nil)
	require.False(t, res.IsError)
	assert.JSONEq(t, "[]", resultText(res))

	res = callTool(t, s, "generate_report", map[string]any{"folders": folder})
	require.False(t, res.IsError, resultText(res))

	var summary schema.GenerateSummary
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &summary))
	assert.Equal(t, 1, summary.TotalFiles)
	assert.Equal(t, 1, summary.Counts[schema.RedBand])
	assert.FileExists(t, summary.ReportPath)
	assert.FileExists(t, summary.ArchivedPath)

	res = callTool(t, s, "list_reports", map[string]any{"limit": 5.0})
	require.False(t, res.IsError)
	var listed []schema.EnrichedArchiveEntry
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &listed))
	require.Len(t, listed, 1)
	assert.Equal(t, 1, listed[0].Rank)
	assert.Equal(t, summary.ArchivedPath, listed[0].Path)
}

func TestMCPGetSchedule(t *testing.T) {
	svc, _ := newTestService(t)
	s := mcp_internal.NewMCPServer(svc)

	res := callTool(t, s, "get_schedule", nil)
	require.False(t, res.IsError)

	var status schema.ScheduleStatus
	require.NoError(t, json.Unmarshal([]byte(resultText(res)), &status))
	assert.False(t, status.Active)
	assert.Equal(t, "UTC", status.Timezone)
	assert.Empty(t, status.Jobs)
}

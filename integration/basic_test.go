//go:build basic

package integration

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestGenerateArchivesReport runs a generation against the SQLite history and
// checks that the report lands in both the output and archive directories.
func TestGenerateArchivesReport(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, nil, "generate", ws.folder, "--output-dir", ws.outputDir, "--output", "json")
	require.NoError(t, err)

	var summary struct {
		ReportPath   string         `json:"report_path"`
		ArchivedPath string         `json:"archived_path"`
		TotalFiles   int            `json:"total_files"`
		Counts       map[string]int `json:"counts"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &summary), out)
	assert.Equal(t, 2, summary.TotalFiles)
	assert.Equal(t, 1, summary.Counts["red"])
	assert.Equal(t, 1, summary.Counts["green"])
	assert.FileExists(t, summary.ReportPath)
	assert.FileExists(t, summary.ArchivedPath)
	assert.Equal(t, ws.outputDir, filepath.Dir(summary.ReportPath))

	out, err = ws.run(t, nil, "archive", "list", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, filepath.Base(summary.ArchivedPath))

	_, err = ws.run(t, nil, "history", "status")
	require.NoError(t, err)
	assert.FileExists(t, filepath.Join(ws.dataDir, "history.db"))
}

// TestGenerateEmptyFolderFails checks the CLI exit status for an empty scan.
func TestGenerateEmptyFolderFails(t *testing.T) {
	ws := newWorkspace(t)
	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.MkdirAll(empty, 0o755))

	_, err := ws.run(t, nil, "generate", empty, "--output-dir", ws.outputDir)
	assert.Error(t, err)
	entries, _ := os.ReadDir(ws.outputDir)
	assert.Empty(t, entries)
}

// TestThresholdsRoundTrip persists custom thresholds and reads them back.
func TestThresholdsRoundTrip(t *testing.T) {
	ws := newWorkspace(t)

	_, err := ws.run(t, nil, "thresholds", "set", "--red", "30-60", "--amber", "10-29", "--green", "0-9")
	require.NoError(t, err)

	out, err := ws.run(t, nil, "thresholds", "show", "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, "30")
	assert.Contains(t, out, "60")

	_, err = ws.run(t, nil, "thresholds", "set", "--red", "5-20", "--amber", "4-14", "--green", "0-3")
	assert.Error(t, err, "overlapping ranges are rejected")
}

// TestClassify checks the one-shot classifier command.
func TestClassify(t *testing.T) {
	ws := newWorkspace(t)

	out, err := ws.run(t, nil, "classify", "--age-days", "16.2")
	require.NoError(t, err)
	assert.Contains(t, out, "16 days 04 h")
}

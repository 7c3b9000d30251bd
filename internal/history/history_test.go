package history

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSQLiteStore(t *testing.T) (contract.RunStore, string) {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store, dbPath
}

func seedRun(t *testing.T, store contract.RunStore, start time.Time) int64 {
	t.Helper()
	id, err := store.BeginRun(start, schema.ManualTrigger)
	require.NoError(t, err)
	require.Positive(t, id)

	files := []schema.RunFileRecord{
		{RunID: id, FilePath: "/data/b.txt", SizeBytes: 10, ModifiedAt: start.Add(-2 * time.Hour), Owner: "bob", AgeDays: 0.1, Band: "green"},
		{RunID: id, FilePath: "/data/a.txt", SizeBytes: 1536, ModifiedAt: start.Add(-18 * 24 * time.Hour), Owner: "alice", AgeDays: 18, Band: "red"},
	}
	require.NoError(t, store.RecordFiles(id, files))
	require.NoError(t, store.EndRun(id, schema.RunSummary{
		EndTime:      start.Add(2 * time.Second),
		TotalFiles:   2,
		Counts:       map[schema.Band]int{schema.RedBand: 1, schema.GreenBand: 1},
		ArtifactPath: "/archive/report.pdf",
	}))
	return id
}

func TestRunStore_SQLiteRoundTrip(t *testing.T) {
	store, _ := newSQLiteStore(t)
	start := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	id := seedRun(t, store, start)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, id, run.RunID)
	assert.True(t, start.Equal(run.StartTime))
	assert.Equal(t, "manual", run.Trigger)
	assert.Equal(t, 2, run.TotalFiles)
	assert.Equal(t, 1, run.RedCount)
	assert.Equal(t, 0, run.AmberCount)
	assert.Equal(t, 1, run.GreenCount)
	require.NotNil(t, run.EndTime)
	assert.True(t, start.Add(2*time.Second).Equal(*run.EndTime))
	require.NotNil(t, run.DurationMs)
	assert.Equal(t, int64(2000), *run.DurationMs)
	require.NotNil(t, run.ArtifactPath)
	assert.Equal(t, "/archive/report.pdf", *run.ArtifactPath)

	files, err := store.GetRunFiles(id)
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "/data/a.txt", files[0].FilePath, "files are ordered by path")
	assert.Equal(t, "alice", files[0].Owner)
	assert.Equal(t, "red", files[0].Band)
	assert.True(t, start.Add(-18*24*time.Hour).Equal(files[0].ModifiedAt))
}

func TestRunStore_UnfinishedRun(t *testing.T) {
	store, _ := newSQLiteStore(t)
	_, err := store.BeginRun(time.Now(), schema.ScheduledTrigger)
	require.NoError(t, err)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Nil(t, runs[0].EndTime)
	assert.Nil(t, runs[0].DurationMs)
	assert.Nil(t, runs[0].ArtifactPath)
	assert.Equal(t, "scheduled", runs[0].Trigger)
}

func TestRunStore_EndRunUnknownID(t *testing.T) {
	store, _ := newSQLiteStore(t)
	err := store.EndRun(42, schema.RunSummary{EndTime: time.Now()})
	assert.Error(t, err)
}

func TestRunStore_Status(t *testing.T) {
	store, _ := newSQLiteStore(t)

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.True(t, status.Connected)
	assert.Zero(t, status.TotalRuns)

	first := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	seedRun(t, store, first)
	last := seedRun(t, store, first.Add(24*time.Hour))

	status, err = store.GetStatus()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", status.Backend)
	assert.Equal(t, int64(2), status.TotalRuns)
	assert.Equal(t, last, status.LastRunID)
	assert.True(t, first.Equal(status.OldestRunTime))
	assert.True(t, first.Add(24*time.Hour).Equal(status.LastRunTime))
	assert.Equal(t, int64(4), status.TotalFilesSeen)
	assert.Equal(t, int64(2), status.TableSizes[runsTable])
	assert.Equal(t, int64(4), status.TableSizes[filesTable])

	all, err := store.GetRunFiles(0)
	require.NoError(t, err)
	assert.Len(t, all, 4)
}

func TestRunStore_NoneBackend(t *testing.T) {
	store, err := NewRunStore(schema.NoneBackend, "")
	require.NoError(t, err)

	id, err := store.BeginRun(time.Now(), schema.ManualTrigger)
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.NoError(t, store.EndRun(id, schema.RunSummary{}))
	assert.NoError(t, store.RecordFiles(id, []schema.RunFileRecord{{FilePath: "x"}}))

	status, err := store.GetStatus()
	require.NoError(t, err)
	assert.False(t, status.Connected)

	runs, err := store.GetAllRuns()
	require.NoError(t, err)
	assert.Empty(t, runs)
	assert.NoError(t, store.Close())
}

func TestRunStore_UnsupportedBackend(t *testing.T) {
	_, err := NewRunStore(schema.DatabaseBackend("oracle"), "")
	assert.ErrorContains(t, err, "unsupported backend")
}

func TestMigrateHistory_NoneBackend(t *testing.T) {
	err := MigrateHistory(schema.NoneBackend, "", -1)
	assert.ErrorContains(t, err, "migrations are not supported")
}

func TestMigrateHistory_SQLite(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "migrate.db")

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	_, err := os.Stat(dbPath)
	require.NoError(t, err)

	// Already at the latest version
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 2))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 0))
	assert.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, 3))

	// Migrated tables are usable by the store
	store, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()
	seedRun(t, store, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
}

func TestMigrateHistory_ExistingTables(t *testing.T) {
	store, dbPath := newSQLiteStore(t)
	seedRun(t, store, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))
	require.NoError(t, store.Close())

	require.NoError(t, MigrateHistory(schema.SQLiteBackend, dbPath, -1))

	reopened, err := NewRunStore(schema.SQLiteBackend, dbPath)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	runs, err := reopened.GetAllRuns()
	require.NoError(t, err)
	assert.Len(t, runs, 1, "migrating existing tables keeps their rows")
}

func TestClearHistory(t *testing.T) {
	tests := []struct {
		name    string
		backend schema.DatabaseBackend
		path    func(t *testing.T) string
		wantErr bool
	}{
		{
			name:    "sqlite removes the file",
			backend: schema.SQLiteBackend,
			path: func(t *testing.T) string {
				_, p := newSQLiteStore(t)
				return p
			},
		},
		{
			name:    "sqlite missing file is fine",
			backend: schema.SQLiteBackend,
			path:    func(t *testing.T) string { return filepath.Join(t.TempDir(), "absent.db") },
		},
		{
			name:    "sqlite requires a path",
			backend: schema.SQLiteBackend,
			path:    func(t *testing.T) string { return "" },
			wantErr: true,
		},
		{
			name:    "none is a no-op",
			backend: schema.NoneBackend,
			path:    func(t *testing.T) string { return "" },
		},
		{
			name:    "unknown backend",
			backend: schema.DatabaseBackend("oracle"),
			path:    func(t *testing.T) string { return "" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.path(t)
			err := ClearHistory(tt.backend, p, "")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			if p != "" {
				_, statErr := os.Stat(p)
				assert.True(t, os.IsNotExist(statErr))
			}
		})
	}
}

func TestExecuteExport(t *testing.T) {
	store, _ := newSQLiteStore(t)
	seedRun(t, store, time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC))

	base := filepath.Join(t.TempDir(), "export")
	var out bytes.Buffer
	require.NoError(t, ExecuteExport(&out, store, base))

	for _, suffix := range []string{RunsExportSuffix, FilesExportSuffix} {
		info, err := os.Stat(base + suffix)
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
	assert.Contains(t, out.String(), "Exported 1 runs")
	assert.Contains(t, out.String(), "Exported 2 file records")
}

func TestExecuteExport_Errors(t *testing.T) {
	empty, _ := newSQLiteStore(t)
	failing := &MockRunStore{}
	failing.On("GetStatus").Return(schema.HistoryStatus{}, errors.New("boom"))

	tests := []struct {
		name   string
		store  contract.RunStore
		output string
		want   string
	}{
		{"missing output", empty, "", "--output-file is required"},
		{"nil store", nil, "out", "not initialized"},
		{"no runs", empty, filepath.Join(t.TempDir(), "out"), "no run history"},
		{"status failure", failing, filepath.Join(t.TempDir(), "out"), "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ExecuteExport(&bytes.Buffer{}, tt.store, tt.output)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestStoreManager(t *testing.T) {
	mgr := &StoreManager{}
	assert.Nil(t, mgr.GetRunStore())

	store := &MockRunStore{}
	mgr.runs = store
	assert.Same(t, store, mgr.GetRunStore())
}

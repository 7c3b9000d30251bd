// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/filepulse/schema"
)

// ReportMeta carries the document-level data a renderer needs besides rows.
type ReportMeta struct {
	Title       string
	GeneratedAt time.Time
	Thresholds  schema.ThresholdSet
}

// Renderer turns classified rows into a report artifact at dest.
// Implementations must not leave a usable file behind when they fail;
// callers remove dest on error regardless.
type Renderer interface {
	Render(ctx context.Context, dest string, rows []schema.ReportRow, meta ReportMeta) error
}

// Attachment is a file sent along with an email.
type Attachment struct {
	Path     string // Absolute path read at send time
	Filename string // Name shown to the recipient; defaults to the base of Path
}

// EmailMessage is one outgoing email.
type EmailMessage struct {
	APIKey      string
	From        string
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Notifier delivers email messages.
type Notifier interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// ArchiveStore defines the operations on the local report archive.
// This allows the archive to be mocked for testing.
type ArchiveStore interface {
	// Ensure creates the archive directory and an empty index if absent.
	Ensure() (string, error)

	// SaveCopy copies src into the archive and records an index entry.
	SaveCopy(src, titleHint string) (string, error)

	// List returns entries newest first, rebuilding from disk if needed.
	List() ([]schema.ArchiveEntry, error)

	// RebuildFromDisk reconstructs the index from the report files present.
	RebuildFromDisk() ([]schema.ArchiveEntry, error)

	// Delete removes an archived report by absolute path or bare name.
	Delete(pathOrName string) (bool, error)

	// Latest returns the newest entry.
	Latest() (schema.ArchiveEntry, bool, error)

	// Status summarizes the archive contents.
	Status() (schema.ArchiveStatus, error)
}

// SettingsReader exposes a consistent copy of the current settings.
type SettingsReader interface {
	Snapshot() schema.Settings
}

// HistoryManager defines the interface for managing the run history store.
type HistoryManager interface {
	GetRunStore() RunStore
}

// RunStore defines the interface for tracking report runs and their files.
type RunStore interface {
	// BeginRun creates a new run and returns its unique ID
	BeginRun(startTime time.Time, trigger schema.Trigger) (int64, error)

	// EndRun updates the run with completion data
	EndRun(runID int64, summary schema.RunSummary) error

	// RecordFiles stores the classified files of a run
	RecordFiles(runID int64, files []schema.RunFileRecord) error

	// GetStatus returns status information about the run store
	GetStatus() (schema.HistoryStatus, error)

	// GetAllRuns returns every stored run, oldest first
	GetAllRuns() ([]schema.RunRecord, error)

	// GetRunFiles returns the files recorded for a run
	GetRunFiles(runID int64) ([]schema.RunFileRecord, error)

	// Close closes the underlying connection
	Close() error
}

// SettingsStore is the single validated writer of the persisted settings.
type SettingsStore interface {
	SettingsReader
	Subscribe(fn func(schema.Settings))
	SetThresholds(t schema.ThresholdSet) error
	SetRecipients(raw string) error
	SetAPIKey(key string) error
	SetSchedule(spec schema.ScheduleSpec) error
	ClearSchedule() error
	SetFolders(folders []string) error
	SetOutputDir(dir string) error
}

// JobFunc is the callback of a scheduled job. Returned errors are logged.
type JobFunc func(ctx context.Context) error

// JobScheduler registers named recurring jobs.
type JobScheduler interface {
	ScheduleJob(id string, fn JobFunc, startDate, hhmm string, freq schema.Frequency) bool
	RemoveJob(id string) bool
	NextFireTime(id string) (time.Time, bool)
	Jobs() []schema.JobInfo
	Location() *time.Location
}

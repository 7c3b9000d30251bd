// Package schema has models and constants for all parts of filepulse.
package schema

import (
	"encoding/json"
	"fmt"
	"time"
)

// FileRecord is one regular file observed during a scan.
type FileRecord struct {
	Path      string    `json:"path"`       // Absolute path to the file
	SizeBytes int64     `json:"size_bytes"` // Size in bytes
	Modified  time.Time `json:"modified"`   // Last content change, UTC
	Owner     string    `json:"owner"`      // Owner identity or UnknownOwner
	Name      string    `json:"name"`       // Base file name
}

// UnknownOwner is used when the platform cannot resolve file ownership.
const UnknownOwner = "Unknown"

// Range is an inclusive span of whole days. It is persisted as a
// two-element JSON array.
type Range struct {
	Start int
	End   int
}

// Contains reports whether day lies within the range.
func (r Range) Contains(day int) bool {
	return r.Start <= day && day <= r.End
}

// Overlaps reports whether two ranges share at least one day.
func (r Range) Overlaps(o Range) bool {
	return r.End >= o.Start && o.End >= r.Start
}

// Valid reports whether the range is within [0, MaxRangeDay] and ordered.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.Start <= r.End && r.End <= MaxRangeDay
}

// String formats the range as "start-end".
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// MarshalJSON encodes the range as [start, end].
func (r Range) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{r.Start, r.End})
}

// UnmarshalJSON decodes the range from [start, end].
func (r *Range) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("range must have exactly 2 elements, got %d", len(pair))
	}
	r.Start, r.End = pair[0], pair[1]
	return nil
}

// ThresholdSet holds the three inclusive day ranges used for classification.
type ThresholdSet struct {
	Red   Range `json:"red"`
	Amber Range `json:"amber"`
	Green Range `json:"green"`
}

// DefaultThresholds returns red 15-20, amber 4-14 and green 0-3.
func DefaultThresholds() ThresholdSet {
	return ThresholdSet{Red: DefaultRed, Amber: DefaultAmber, Green: DefaultGreen}
}

// ScheduleSpec describes the recurring report job. A nil field means no
// active schedule.
type ScheduleSpec struct {
	Date      *string    `json:"date"`      // YYYY-MM-DD
	Time      *string    `json:"time"`      // HH:MM, 24h
	Frequency *Frequency `json:"frequency"` // one of AllFrequencies
}

// Active reports whether every field of the schedule is set.
func (s ScheduleSpec) Active() bool {
	return s.Date != nil && s.Time != nil && s.Frequency != nil
}

// ArchiveEntry is one row of the archive index.
type ArchiveEntry struct {
	Timestamp    int64  `json:"ts"`            // When archived, epoch seconds
	Name         string `json:"name"`          // File name inside the archive
	Title        string `json:"title"`         // Display title
	Size         int64  `json:"size"`          // Bytes
	Path         string `json:"path"`          // Absolute path of the archived copy
	OriginalName string `json:"original_name"` // Name of the source file
}

// ArchivedAt returns the archive timestamp as a time.
func (e ArchiveEntry) ArchivedAt() time.Time {
	return time.Unix(e.Timestamp, 0).UTC()
}

// ReportRow is one display row of a neglect report.
type ReportRow struct {
	File        FileRecord `json:"file"`
	AgeDays     float64    `json:"age_days"`
	Band        Band       `json:"band"`
	DisplayPath string     `json:"display_path"` // truncated path
	Size        string     `json:"size"`         // human readable size
	ModifiedAt  string     `json:"modified_at"`  // TimestampLayout
	Neglect     string     `json:"neglect"`      // "D days HH h"
	State       string     `json:"state"`        // "Red", "Amber", "Green" or "—"
}

// RunRecord is one report generation stored in the history backend.
type RunRecord struct {
	RunID        int64      `json:"run_id"`
	StartTime    time.Time  `json:"start_time"`
	EndTime      *time.Time `json:"end_time,omitempty"`
	DurationMs   *int64     `json:"duration_ms,omitempty"`
	Trigger      string     `json:"trigger"`
	TotalFiles   int        `json:"total_files"`
	RedCount     int        `json:"red_count"`
	AmberCount   int        `json:"amber_count"`
	GreenCount   int        `json:"green_count"`
	NoneCount    int        `json:"none_count"`
	ArtifactPath *string    `json:"artifact_path,omitempty"`
}

// RunFileRecord is one classified file of a stored run.
type RunFileRecord struct {
	RunID      int64     `json:"run_id"`
	FilePath   string    `json:"file_path"`
	SizeBytes  int64     `json:"size_bytes"`
	ModifiedAt time.Time `json:"modified_at"`
	Owner      string    `json:"owner"`
	AgeDays    float64   `json:"age_days"`
	Band       string    `json:"band"`
}

// RunSummary carries the end-of-run figures recorded for a generation.
type RunSummary struct {
	EndTime      time.Time
	TotalFiles   int
	Counts       map[Band]int
	ArtifactPath string
}

// HistoryStatus holds status information about the history store.
type HistoryStatus struct {
	Backend        string           `json:"backend"`
	Connected      bool             `json:"connected"`
	TotalRuns      int64            `json:"total_runs"`
	LastRunID      int64            `json:"last_run_id"`
	LastRunTime    time.Time        `json:"last_run_time"`
	OldestRunTime  time.Time        `json:"oldest_run_time"`
	TotalFilesSeen int64            `json:"total_files_seen"`
	TableSizes     map[string]int64 `json:"table_sizes"`
}

// ArchiveStatus summarizes the report archive.
type ArchiveStatus struct {
	Root       string    `json:"root"`
	Reports    int       `json:"reports"`
	TotalBytes int64     `json:"total_bytes"`
	Newest     time.Time `json:"newest"`
	Oldest     time.Time `json:"oldest"`
}

// JobInfo describes a registered scheduler job.
type JobInfo struct {
	ID        string    `json:"id"`
	Frequency Frequency `json:"frequency"`
	Time      string    `json:"time"`
	StartDate string    `json:"start_date,omitempty"`
	NextFire  time.Time `json:"next_fire"`
}

// Generation states reported by GenerationStatus.
const (
	GenerationIdle    = "idle"
	GenerationRunning = "running"
	GenerationDone    = "done"
	GenerationEmpty   = "empty"
	GenerationFailed  = "failed"
)

// GenerationStatus is a snapshot of the latest background generation.
type GenerationStatus struct {
	JobID        string       `json:"job_id,omitempty"`
	State        string       `json:"state"`
	Trigger      Trigger      `json:"trigger,omitempty"`
	Progress     Progress     `json:"progress"`
	StartedAt    *time.Time   `json:"started_at,omitempty"`
	FinishedAt   *time.Time   `json:"finished_at,omitempty"`
	ReportPath   string       `json:"report_path,omitempty"`
	ArchivedPath string       `json:"archived_path,omitempty"`
	Counts       map[Band]int `json:"counts,omitempty"`
	Error        string       `json:"error,omitempty"`
}

// Progress is one scanner progress event.
type Progress struct {
	Done  int `json:"done"`
	Total int `json:"total"`
}

// Settings is the persisted user configuration.
type Settings struct {
	Recipients string       `json:"recipients"` // comma separated
	APIKey     string       `json:"api_key"`
	Thresholds ThresholdSet `json:"thresholds"`
	Schedule   ScheduleSpec `json:"schedule"`
	Folders    []string     `json:"folders"`
	OutputDir  string       `json:"output_dir"`
}

// DefaultSettings returns the settings used when no file exists.
func DefaultSettings() Settings {
	return Settings{
		Thresholds: DefaultThresholds(),
		Folders:    []string{},
	}
}

// Clone returns a deep copy of the settings.
func (s Settings) Clone() Settings {
	out := s
	out.Folders = append([]string{}, s.Folders...)
	if s.Schedule.Date != nil {
		out.Schedule.Date = StrPtr(*s.Schedule.Date)
	}
	if s.Schedule.Time != nil {
		out.Schedule.Time = StrPtr(*s.Schedule.Time)
	}
	if s.Schedule.Frequency != nil {
		f := *s.Schedule.Frequency
		out.Schedule.Frequency = &f
	}
	return out
}

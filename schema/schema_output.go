package schema

import "time"

// EnrichedArchiveEntry adds presentation data to an ArchiveEntry.
type EnrichedArchiveEntry struct {
	Rank      int    `json:"rank"`
	SizeLabel string `json:"size_label"`
	Created   string `json:"created"`
	ArchiveEntry
}

// EnrichArchive adds rank, size label and creation time to archive entries.
// Entries are expected newest first.
func EnrichArchive(entries []ArchiveEntry) []EnrichedArchiveEntry {
	output := make([]EnrichedArchiveEntry, len(entries))
	for i, e := range entries {
		output[i] = EnrichedArchiveEntry{
			Rank:         i + 1,
			SizeLabel:    FormatSize(e.Size, 1),
			Created:      e.ArchivedAt().Format(time.DateTime),
			ArchiveEntry: e,
		}
	}
	return output
}

// ScheduleStatus is the presentation view of the persisted schedule and
// the jobs registered with the scheduler.
type ScheduleStatus struct {
	Active    bool      `json:"active"`
	Date      string    `json:"date,omitempty"`
	Time      string    `json:"time,omitempty"`
	Frequency Frequency `json:"frequency,omitempty"`
	Timezone  string    `json:"timezone"`
	Jobs      []JobInfo `json:"jobs"`
}

// NewScheduleStatus builds the view of spec in the named time zone.
func NewScheduleStatus(spec ScheduleSpec, timezone string, jobs []JobInfo) ScheduleStatus {
	out := ScheduleStatus{Active: spec.Active(), Timezone: timezone, Jobs: jobs}
	if out.Jobs == nil {
		out.Jobs = []JobInfo{}
	}
	if spec.Date != nil {
		out.Date = *spec.Date
	}
	if spec.Time != nil {
		out.Time = *spec.Time
	}
	if spec.Frequency != nil {
		out.Frequency = *spec.Frequency
	}
	return out
}

// Classification is the result of classifying a single neglect age.
type Classification struct {
	AgeDays    float64      `json:"age_days"`
	Band       Band         `json:"band"`
	State      string       `json:"state"`
	Neglect    string       `json:"neglect"`
	Thresholds ThresholdSet `json:"thresholds"`
}

// GenerateSummary is the presentation view of a finished generation.
type GenerateSummary struct {
	ReportPath   string       `json:"report_path"`
	ArchivedPath string       `json:"archived_path"`
	RunID        int64        `json:"run_id,omitempty"`
	TotalFiles   int          `json:"total_files"`
	Counts       map[Band]int `json:"counts"`
	DurationMs   int64        `json:"duration_ms"`
}

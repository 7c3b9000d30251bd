// Package outwriter has output and writer logic.
package outwriter

import (
	"time"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteRows prints classified report rows using the configured output format.
func (ow *OutWriter) WriteRows(rows []schema.ReportRow, total int, cfg *contract.Config, duration time.Duration) error {
	return PrintReportRows(rows, total, cfg, duration)
}

// WriteGenerateSummary prints the outcome of a report generation.
func (ow *OutWriter) WriteGenerateSummary(summary schema.GenerateSummary, cfg *contract.Config) error {
	return PrintGenerateSummary(summary, cfg)
}

// WriteArchive prints the archive listing using the configured output format.
func (ow *OutWriter) WriteArchive(entries []schema.ArchiveEntry, cfg *contract.Config) error {
	return PrintArchive(entries, cfg)
}

// WriteArchiveStatus prints the archive summary using the configured output format.
func (ow *OutWriter) WriteArchiveStatus(status schema.ArchiveStatus, cfg *contract.Config) error {
	return PrintArchiveStatus(status, cfg)
}

// WriteSchedule prints the schedule using the configured output format.
func (ow *OutWriter) WriteSchedule(status schema.ScheduleStatus, cfg *contract.Config) error {
	return PrintSchedule(status, cfg)
}

// WriteThresholds prints the classification ranges using the configured output format.
func (ow *OutWriter) WriteThresholds(set schema.ThresholdSet, cfg *contract.Config) error {
	return PrintThresholds(set, cfg)
}

// WriteClassification prints a single classification using the configured output format.
func (ow *OutWriter) WriteClassification(c schema.Classification, cfg *contract.Config) error {
	return PrintClassification(c, cfg)
}

// WriteHistoryStatus prints history store status using the configured output format.
func (ow *OutWriter) WriteHistoryStatus(status schema.HistoryStatus, cfg *contract.Config) error {
	return PrintHistoryStatus(status, cfg)
}

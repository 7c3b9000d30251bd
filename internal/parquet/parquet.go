// Package parquet exports filepulse run history to Parquet files using
// github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"os"
	"time"

	"github.com/huangsam/filepulse/schema"
	"github.com/parquet-go/parquet-go"
)

// ReportRun is one report generation.
// This struct maps to the filepulse_report_runs database table.
type ReportRun struct {
	RunID int64 `parquet:"run_id,snappy"`

	// StartTime is when the generation began (TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is nil for runs that never finished
	EndTime    *time.Time `parquet:"end_time,optional,snappy"`
	DurationMs *int64     `parquet:"duration_ms,optional,snappy"`

	// Trigger names what started the run
	Trigger string `parquet:"trigger,snappy,dict"`

	TotalFiles int32 `parquet:"total_files,snappy"`
	RedCount   int32 `parquet:"red_count,snappy"`
	AmberCount int32 `parquet:"amber_count,snappy"`
	GreenCount int32 `parquet:"green_count,snappy"`
	NoneCount  int32 `parquet:"none_count,snappy"`

	// ArtifactPath is the archived PDF (nullable)
	ArtifactPath *string `parquet:"artifact_path,optional,snappy"`
}

// RunFile is one classified file of a run.
// This struct maps to the filepulse_run_files database table.
type RunFile struct {
	RunID      int64     `parquet:"run_id,snappy"`
	FilePath   string    `parquet:"file_path,snappy"`
	SizeBytes  int64     `parquet:"size_bytes,snappy"`
	ModifiedAt time.Time `parquet:"modified_at,snappy"`
	Owner      string    `parquet:"owner,snappy,dict"`
	AgeDays    float64   `parquet:"age_days,snappy"`
	Band       string    `parquet:"band,snappy,dict"`
}

// WriteRunsParquet writes report runs to a Parquet file.
func WriteRunsParquet(data []ReportRun, outputPath string) error {
	return writeParquet(data, outputPath)
}

// WriteRunFilesParquet writes run files to a Parquet file.
func WriteRunFilesParquet(data []RunFile, outputPath string) error {
	return writeParquet(data, outputPath)
}

// writeParquet writes rows with a schema inferred from the struct tags of T.
func writeParquet[T any](data []T, outputPath string) error {
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()

	writer := parquet.NewGenericWriter[T](file)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	// Close flushes the footer; a failure here leaves an unreadable file
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return file.Sync()
}

// ConvertRunRecords converts schema.RunRecord to ReportRun for Parquet export.
func ConvertRunRecords(records []schema.RunRecord) []ReportRun {
	result := make([]ReportRun, len(records))
	for i, r := range records {
		result[i] = ReportRun{
			RunID:        r.RunID,
			StartTime:    r.StartTime,
			EndTime:      r.EndTime,
			DurationMs:   r.DurationMs,
			Trigger:      r.Trigger,
			TotalFiles:   int32(r.TotalFiles),
			RedCount:     int32(r.RedCount),
			AmberCount:   int32(r.AmberCount),
			GreenCount:   int32(r.GreenCount),
			NoneCount:    int32(r.NoneCount),
			ArtifactPath: r.ArtifactPath,
		}
	}
	return result
}

// ConvertRunFileRecords converts schema.RunFileRecord to RunFile for Parquet export.
func ConvertRunFileRecords(records []schema.RunFileRecord) []RunFile {
	result := make([]RunFile, len(records))
	for i, r := range records {
		result[i] = RunFile{
			RunID:      r.RunID,
			FilePath:   r.FilePath,
			SizeBytes:  r.SizeBytes,
			ModifiedAt: r.ModifiedAt,
			Owner:      r.Owner,
			AgeDays:    r.AgeDays,
			Band:       r.Band,
		}
	}
	return result
}

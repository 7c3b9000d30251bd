package history

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/parquet"
)

// Suffixes appended to the export base path.
const (
	RunsExportSuffix  = ".runs.parquet"
	FilesExportSuffix = ".run_files.parquet"
)

// ExecuteExport writes every stored run and run file to two Parquet files
// named after outputFile.
func ExecuteExport(w io.Writer, store contract.RunStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("run history is not initialized")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get history status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no run history found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(w, "Total file records: %d\n", status.TableSizes[filesTable])

	runs, err := store.GetAllRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve runs: %w", err)
	}
	files, err := store.GetRunFiles(0)
	if err != nil {
		return fmt.Errorf("failed to retrieve run files: %w", err)
	}

	runsFile := outputFile + RunsExportSuffix
	if err := parquet.WriteRunsParquet(parquet.ConvertRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d runs to: %s\n", len(runs), runsFile)

	filesFile := outputFile + FilesExportSuffix
	if err := parquet.WriteRunFilesParquet(parquet.ConvertRunFileRecords(files), filesFile); err != nil {
		return fmt.Errorf("failed to write run files: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d file records to: %s\n", len(files), filesFile)

	return nil
}

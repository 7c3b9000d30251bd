package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/huangsam/filepulse/core/algo"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/metrics"
	"github.com/huangsam/filepulse/schema"
)

// Errors returned by the Assembler.
var (
	ErrGenerationInProgress = errors.New("a report generation is already in progress")
	ErrNoFiles              = errors.New("no files found in the selected folders")
)

// ReportTitle is the document title of every neglect report.
const ReportTitle = "File Neglect Report"

// reportNameLayout produces report_YYYYMMDD_HHMMSS.pdf names.
const reportNameLayout = "report_20060102_150405"

// GenerateRequest describes one report generation.
type GenerateRequest struct {
	Folders    []string
	Thresholds schema.ThresholdSet
	Now        time.Time // zero means time.Now()
	OutputDir  string    // empty means the working directory
	Trigger    schema.Trigger
	TitleHint  string
	Progress   ProgressFunc
}

// GenerateResult is the outcome of a successful generation.
type GenerateResult struct {
	ReportPath   string // Rendered file in the output directory
	ArchivedPath string // Copy stored in the archive
	Rows         []schema.ReportRow
	Counts       map[schema.Band]int
	RunID        int64
	Duration     time.Duration
}

// Summary returns the presentation view of the result.
func (r *GenerateResult) Summary() schema.GenerateSummary {
	return schema.GenerateSummary{
		ReportPath:   r.ReportPath,
		ArchivedPath: r.ArchivedPath,
		RunID:        r.RunID,
		TotalFiles:   len(r.Rows),
		Counts:       r.Counts,
		DurationMs:   r.Duration.Milliseconds(),
	}
}

// Assembler scans folders, classifies the files, renders the report and
// archives it. At most one generation runs at a time.
type Assembler struct {
	mu        sync.Mutex
	running   atomic.Bool
	scanner   *Scanner
	renderer  contract.Renderer
	archive   contract.ArchiveStore
	history   contract.HistoryManager
	precision int
	logger    *slog.Logger
}

// NewAssembler wires the report pipeline. history may be nil.
func NewAssembler(scanner *Scanner, renderer contract.Renderer, archive contract.ArchiveStore, history contract.HistoryManager, precision int, logger *slog.Logger) *Assembler {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	if precision < 1 {
		precision = contract.DefaultPrecision
	}
	return &Assembler{
		scanner:   scanner,
		renderer:  renderer,
		archive:   archive,
		history:   history,
		precision: precision,
		logger:    logger,
	}
}

// Busy reports whether a generation is currently running.
func (a *Assembler) Busy() bool {
	return a.running.Load()
}

// Generate runs the full pipeline. It returns ErrGenerationInProgress when
// another generation holds the lock and ErrNoFiles when the scan found
// nothing. A render failure leaves no file behind and archives nothing.
func (a *Assembler) Generate(ctx context.Context, req GenerateRequest) (*GenerateResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	trigger := req.Trigger
	if trigger == "" {
		trigger = schema.ManualTrigger
	}
	if !a.mu.TryLock() {
		metrics.ObserveGeneration(string(trigger), metrics.OutcomeBusy, 0)
		return nil, ErrGenerationInProgress
	}
	defer a.mu.Unlock()
	a.running.Store(true)
	metrics.GenerationInProgress.Set(1)
	defer func() {
		a.running.Store(false)
		metrics.GenerationInProgress.Set(0)
	}()

	start := time.Now()
	now := req.Now
	if now.IsZero() {
		now = start
	}
	now = now.UTC()

	runID := a.beginRun(start, trigger)

	records := a.scanner.Scan(req.Folders, req.Progress)
	metrics.FilesScanned.Add(float64(len(records)))
	if len(records) == 0 {
		a.endRun(runID, schema.RunSummary{EndTime: time.Now()})
		metrics.ObserveGeneration(string(trigger), metrics.OutcomeEmpty, time.Since(start))
		return nil, ErrNoFiles
	}

	rows := BuildRows(records, req.Thresholds, now, a.precision)
	counts := algo.CountBands(rows)

	dest, err := a.render(ctx, req, rows, now)
	if err != nil {
		a.endRun(runID, schema.RunSummary{EndTime: time.Now(), TotalFiles: len(rows), Counts: counts})
		metrics.ObserveGeneration(string(trigger), metrics.OutcomeFailure, time.Since(start))
		return nil, err
	}

	archived, err := a.archive.SaveCopy(dest, req.TitleHint)
	if err != nil {
		a.endRun(runID, schema.RunSummary{EndTime: time.Now(), TotalFiles: len(rows), Counts: counts})
		metrics.ObserveGeneration(string(trigger), metrics.OutcomeFailure, time.Since(start))
		return nil, fmt.Errorf("failed to archive report: %w", err)
	}

	a.recordFiles(runID, rows)
	a.endRun(runID, schema.RunSummary{
		EndTime:      time.Now(),
		TotalFiles:   len(rows),
		Counts:       counts,
		ArtifactPath: archived,
	})

	elapsed := time.Since(start)
	metrics.ObserveGeneration(string(trigger), metrics.OutcomeSuccess, elapsed)
	bandCounts := make(map[string]int, len(counts))
	for b, n := range counts {
		bandCounts[string(b)] = n
	}
	metrics.SetBandCounts(bandCounts)

	a.logger.Info("Report generated",
		"report", dest, "archived", archived, "files", len(rows),
		"red", counts[schema.RedBand], "amber", counts[schema.AmberBand],
		"green", counts[schema.GreenBand], "duration", elapsed)

	return &GenerateResult{
		ReportPath:   dest,
		ArchivedPath: archived,
		Rows:         rows,
		Counts:       counts,
		RunID:        runID,
		Duration:     elapsed,
	}, nil
}

// ReportFileName returns the file name of a report generated at t.
func ReportFileName(t time.Time) string {
	return t.Format(reportNameLayout) + ".pdf"
}

// render writes the PDF into the output directory, removing any partial
// file on failure.
func (a *Assembler) render(ctx context.Context, req GenerateRequest, rows []schema.ReportRow, now time.Time) (string, error) {
	outDir := req.OutputDir
	if outDir == "" {
		outDir = "."
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}
	dest, err := filepath.Abs(filepath.Join(outDir, ReportFileName(now)))
	if err != nil {
		return "", err
	}

	meta := contract.ReportMeta{Title: ReportTitle, GeneratedAt: now, Thresholds: req.Thresholds}
	if err := a.renderer.Render(ctx, dest, rows, meta); err != nil {
		if rmErr := os.Remove(dest); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
			a.logger.Warn("Failed to remove partial report", "path", dest, "error", rmErr)
		}
		a.logger.Error("Error generating PDF", "path", dest, "error", err)
		return "", fmt.Errorf("failed to render report: %w", err)
	}
	return dest, nil
}

func (a *Assembler) runStore() contract.RunStore {
	if a.history == nil {
		return nil
	}
	return a.history.GetRunStore()
}

func (a *Assembler) beginRun(start time.Time, trigger schema.Trigger) int64 {
	store := a.runStore()
	if store == nil {
		return 0
	}
	id, err := store.BeginRun(start, trigger)
	if err != nil {
		a.logger.Warn("Run tracking initialization failed", "error", err)
		return 0
	}
	return id
}

func (a *Assembler) endRun(runID int64, summary schema.RunSummary) {
	store := a.runStore()
	if store == nil || runID <= 0 {
		return
	}
	if err := store.EndRun(runID, summary); err != nil {
		a.logger.Warn("Failed to finalize run tracking", "run", runID, "error", err)
	}
}

func (a *Assembler) recordFiles(runID int64, rows []schema.ReportRow) {
	store := a.runStore()
	if store == nil || runID <= 0 {
		return
	}
	files := make([]schema.RunFileRecord, len(rows))
	for i, r := range rows {
		files[i] = schema.RunFileRecord{
			RunID:      runID,
			FilePath:   r.File.Path,
			SizeBytes:  r.File.SizeBytes,
			ModifiedAt: r.File.Modified,
			Owner:      r.File.Owner,
			AgeDays:    r.AgeDays,
			Band:       string(r.Band),
		}
	}
	if err := store.RecordFiles(runID, files); err != nil {
		a.logger.Warn("Failed to record run files", "run", runID, "error", err)
	}
}

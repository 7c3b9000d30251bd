package cmd

import (
	"fmt"
	"time"

	"github.com/huangsam/filepulse/core"
	"github.com/huangsam/filepulse/core/algo"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// generateCmd renders and archives a neglect report.
var generateCmd = &cobra.Command{
	Use:   "generate [folders...]",
	Short: "Scan folders and produce an archived PDF neglect report.",
	Long: `Scan the given folders, classify every file by how long it has gone
unchanged and render the result into a PDF report.

The report is written to --output-dir (or the configured output directory)
and a copy is stored in the report archive. Without folder arguments the
folders configured for the scheduled job are scanned.

Examples:
  # Report on two folders
  filepulse generate ~/Projects ~/Documents/contracts

  # Write the PDF somewhere specific
  filepulse generate ~/Projects --output-dir ~/Desktop

  # Print the summary as JSON
  filepulse generate ~/Projects --output json`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		svc := newService()
		progress, finish := progressPrinter()
		res, err := svc.Generate(rootCtx, core.GenerateRequest{
			Folders:   cfg.Folders,
			OutputDir: cfg.OutputDir,
			Trigger:   schema.ManualTrigger,
			TitleHint: viper.GetString("title"),
			Progress:  progress,
		})
		finish()
		if err != nil {
			contract.LogFatal("Cannot generate report", err)
		}
		if err := ow.WriteGenerateSummary(res.Summary(), cfg); err != nil {
			contract.LogFatal("Cannot print report summary", err)
		}
	},
}

// previewCmd classifies files without rendering a report.
var previewCmd = &cobra.Command{
	Use:   "preview [folders...]",
	Short: "Show the most neglected files without writing a report.",
	Long: `Scan the given folders and list files ranked by neglect age.

Nothing is rendered or archived. Use --band to keep only some urgency bands
and --limit to cap the number of rows.

Examples:
  # Top 20 neglected files
  filepulse preview ~/Projects --limit 20

  # Only red and amber files, as CSV
  filepulse preview ~/Projects --band red,amber --output csv --output-file neglect.csv`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		svc := newService()
		start := time.Now()
		progress, finish := progressPrinter()
		rows, err := svc.Preview(cfg.Folders, progress)
		finish()
		if err != nil {
			contract.LogFatal("Cannot preview folders", err)
		}
		total := len(rows)
		rows = algo.RankRows(algo.FilterBands(rows, cfg.Bands), cfg.ResultLimit)
		if err := ow.WriteRows(rows, total, cfg, time.Since(start)); err != nil {
			contract.LogFatal("Cannot print preview", err)
		}
	},
}

// classifyCmd classifies a single neglect age.
var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Show which urgency band a neglect age falls into.",
	Long: `Classify a neglect age in days with the configured thresholds.

Days are floored before the lookup, so 15.9 days counts as day 15. Ages
outside every range have no band.

Examples:
  filepulse classify --age-days 16.5
  filepulse classify --age-days 3 --output json`,
	PreRunE: configSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		days := viper.GetFloat64("age-days")
		if days < 0 {
			contract.LogFatal("Cannot classify age", fmt.Errorf("--age-days must not be negative (received %v)", days))
		}
		svc := newService()
		if err := ow.WriteClassification(svc.Classify(days), cfg); err != nil {
			contract.LogFatal("Cannot print classification", err)
		}
	},
}

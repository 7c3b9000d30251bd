package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/history"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// historySetup loads minimal configuration needed for history operations.
// It does not open the log file or scan anything.
func historySetup() error {
	if err := resolveConfig(nil); err != nil {
		return err
	}
	if err := history.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		return err
	}
	return nil
}

// historySetupWrapper wraps historySetup to provide PreRunE for history commands.
func historySetupWrapper(_ *cobra.Command, _ []string) error {
	return historySetup()
}

// historyMigrateSetupWrapper only resolves the configuration, so migrations
// can run on a fresh database before any table exists.
func historyMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return resolveConfig(nil)
}

// historyCmd groups the run history commands.
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Manage the run history of report generations",
	Long: `Manage the log of report generations.

Each generation records its start and end time, trigger, band counts and
archived artifact, along with the classified files. The history is a plain
record for auditing and export; reports never depend on it.

Supported backends: SQLite (default), MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show history statistics
  export  - Export runs and files to Parquet
  clear   - Remove all history
  migrate - Run database schema migrations

Examples:
  filepulse history status
  filepulse history export --output-file filepulse-history`,
}

// historyStatusCmd shows history status.
var historyStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Display run history statistics and connection details",
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		store := history.Manager.GetRunStore()
		if store == nil {
			contract.LogFatal("Failed to get history status", errors.New("run history is not initialized"))
		}
		status, err := store.GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get history status", err)
		}
		if err := ow.WriteHistoryStatus(status, cfg); err != nil {
			contract.LogFatal("Cannot print history status", err)
		}
	},
}

// historyClearCmd clears the run history.
var historyClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all stored runs",
	Long: `Delete all stored runs and their classified files.

WARNING: This action cannot be undone. Consider exporting data first.

Examples:
  filepulse history export --output-file backup
  filepulse history clear`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ClearHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, cfg.HistoryDBConnect); err != nil {
			contract.LogFatal("Failed to clear run history", err)
		}
		fmt.Println("Run history cleared successfully.")
	},
}

// historyExportCmd exports the run history to Parquet files.
var historyExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export runs and files to Parquet for analytics tools",
	Long: `Export the stored run history to two Parquet files:
<output-file>` + history.RunsExportSuffix + ` and <output-file>` + history.FilesExportSuffix + `.

Requires: --output-file parameter

Examples:
  filepulse history export --output-file filepulse
  duckdb -c "SELECT band, count(*) FROM read_parquet('filepulse` + history.FilesExportSuffix + `') GROUP BY band"`,
	PreRunE: historySetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := history.ExecuteExport(os.Stdout, history.Manager.GetRunStore(), cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export run history", err)
		}
	},
}

// historyMigrateCmd runs database migrations for the run history.
var historyMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the run history.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  filepulse history migrate

  # Migrate to specific version
  filepulse history migrate --target-version 2

  # Rollback to initial state
  filepulse history migrate --target-version 0`,
	PreRunE: historyMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if cfg.HistoryBackend == schema.NoneBackend {
			contract.LogFatal("Failed to run migrations", errors.New("history backend is none"))
		}
		targetVersion := viper.GetInt("target-version")
		if err := history.MigrateHistory(cfg.HistoryBackend, cfg.HistoryDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}

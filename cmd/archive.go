package cmd

import (
	"fmt"

	"github.com/huangsam/filepulse/internal/archive"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/spf13/cobra"
)

// archiveCmd groups the report archive commands.
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Manage archived neglect reports",
	Long: `Manage the archive of generated reports.

Every generated report is copied into the archive directory and listed in
its index.json. When the index goes missing or becomes unreadable it is
rebuilt from the report files on disk.

Subcommands:
  list      - List archived reports, newest first
  delete    - Remove a report by file name or absolute path
  rebuild   - Reconstruct the index from the files on disk
  status    - Show archive totals
  open-path - Print the archive directory

Examples:
  filepulse archive list --limit 10
  filepulse archive delete report_20240601_091500.pdf`,
}

// archiveListCmd lists archived reports.
var archiveListCmd = &cobra.Command{
	Use:     "list",
	Short:   "List archived reports, newest first",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		entries, err := archive.NewStore(cfg.ArchiveDir, logger).List()
		if err != nil {
			contract.LogFatal("Cannot list archive", err)
		}
		if cfg.ResultLimit > 0 && len(entries) > cfg.ResultLimit {
			entries = entries[:cfg.ResultLimit]
		}
		if err := ow.WriteArchive(entries, cfg); err != nil {
			contract.LogFatal("Cannot print archive", err)
		}
	},
}

// archiveDeleteCmd removes one archived report.
var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <name-or-path>",
	Short: "Remove an archived report and its index entry",
	Long: `Remove an archived report by bare file name or by absolute path.

Only files inside the archive directory can be removed. Deleting a report
that is already gone is not an error.

Examples:
  filepulse archive delete report_20240601_091500.pdf`,
	Args:    cobra.ExactArgs(1),
	PreRunE: func(cmd *cobra.Command, _ []string) error { return sharedSetupWrapper(cmd, nil) },
	Run: func(_ *cobra.Command, args []string) {
		removed, err := archive.NewStore(cfg.ArchiveDir, logger).Delete(args[0])
		if err != nil {
			contract.LogFatal("Cannot delete report", err)
		}
		if removed {
			fmt.Printf("Deleted %s\n", args[0])
		} else {
			fmt.Printf("Nothing to delete for %s\n", args[0])
		}
	},
}

// archiveRebuildCmd rebuilds the archive index.
var archiveRebuildCmd = &cobra.Command{
	Use:     "rebuild",
	Short:   "Reconstruct the archive index from the report files on disk",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		entries, err := archive.NewStore(cfg.ArchiveDir, logger).RebuildFromDisk()
		if err != nil {
			contract.LogFatal("Cannot rebuild archive index", err)
		}
		fmt.Printf("Archive index rebuilt with %d reports.\n", len(entries))
	},
}

// archiveStatusCmd shows archive totals.
var archiveStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the number, size and age range of archived reports",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := archive.NewStore(cfg.ArchiveDir, logger).Status()
		if err != nil {
			contract.LogFatal("Cannot read archive status", err)
		}
		if err := ow.WriteArchiveStatus(status, cfg); err != nil {
			contract.LogFatal("Cannot print archive status", err)
		}
	},
}

// archiveOpenPathCmd prints the archive directory, creating it if needed.
var archiveOpenPathCmd = &cobra.Command{
	Use:     "open-path",
	Short:   "Print the archive directory, creating it if needed",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		root, err := archive.NewStore(cfg.ArchiveDir, logger).Ensure()
		if err != nil {
			contract.LogFatal("Cannot prepare archive directory", err)
		}
		fmt.Println(root)
	},
}

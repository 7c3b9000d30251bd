package cmd

import (
	"fmt"

	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/scheduler"
	"github.com/huangsam/filepulse/internal/settings"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// scheduleCmd groups the recurring report commands.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Manage the recurring report email",
	Long: `Manage the schedule of the recurring report email.

A schedule has a start date, a time of day and a frequency. Frequencies:
Hourly, Daily, Every 2 days, Every 3 days, Weekly (Mondays), Fortnightly,
Monthly (1st), Every 6 months, Yearly. Times are interpreted in --timezone.

Scheduled jobs only fire while "filepulse daemon" or "filepulse serve" runs.
When folders are configured the report is regenerated before sending;
otherwise the latest archived report is sent.

Examples:
  filepulse schedule enable --date 2024-06-03 --time 09:15 --frequency Weekly --folders ~/Projects
  filepulse schedule status
  filepulse schedule disable`,
}

// scheduleEnableCmd validates and stores a schedule.
var scheduleEnableCmd = &cobra.Command{
	Use:     "enable",
	Short:   "Validate and store the report schedule",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		freq, err := schema.ParseFrequency(viper.GetString("frequency"))
		if err != nil {
			contract.LogFatal("Invalid schedule", err)
		}
		spec := schema.ScheduleSpec{
			Date:      schema.StrPtr(viper.GetString("date")),
			Time:      schema.StrPtr(viper.GetString("time")),
			Frequency: &freq,
		}
		svc := newService()
		folders := contract.SplitList(viper.GetString("folders"))
		if err := saveSchedule(svc.Settings(), spec, folders, cfg.OutputDir); err != nil {
			contract.LogFatal("Cannot save schedule", err)
		}

		sched := scheduler.Start(cfg.Timezone, logger)
		defer sched.Shutdown(false)
		svc.AttachScheduler(sched)
		if err := ow.WriteSchedule(svc.ScheduleStatus(), cfg); err != nil {
			contract.LogFatal("Cannot print schedule", err)
		}
	},
}

// saveSchedule stores the scan folders, the output directory and the
// schedule. The schedule and the notifier configuration are checked first
// so a rejected schedule writes nothing.
func saveSchedule(store contract.SettingsStore, spec schema.ScheduleSpec, folders []string, outputDir string) error {
	if err := settings.ValidateSchedule(spec); err != nil {
		return err
	}
	if err := settings.CheckNotifier(store.Snapshot()); err != nil {
		return err
	}
	if len(folders) > 0 {
		expanded := make([]string, len(folders))
		for i, f := range folders {
			expanded[i] = contract.ExpandHome(f)
		}
		if err := store.SetFolders(expanded); err != nil {
			return fmt.Errorf("failed to save folders: %w", err)
		}
	}
	if outputDir != "" {
		if err := store.SetOutputDir(outputDir); err != nil {
			return fmt.Errorf("failed to save output directory: %w", err)
		}
	}
	return store.SetSchedule(spec)
}

// scheduleDisableCmd clears the schedule.
var scheduleDisableCmd = &cobra.Command{
	Use:     "disable",
	Short:   "Turn the report schedule off",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := newService().Settings().ClearSchedule(); err != nil {
			contract.LogFatal("Cannot clear schedule", err)
		}
		fmt.Println("Schedule disabled.")
	},
}

// scheduleStatusCmd shows the stored schedule and its next fire time.
var scheduleStatusCmd = &cobra.Command{
	Use:     "status",
	Short:   "Show the stored schedule and its next fire time",
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		svc := newService()
		sched := scheduler.Start(cfg.Timezone, logger)
		defer sched.Shutdown(false)
		svc.AttachScheduler(sched)
		if err := ow.WriteSchedule(svc.ScheduleStatus(), cfg); err != nil {
			contract.LogFatal("Cannot print schedule", err)
		}
	},
}

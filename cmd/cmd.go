// Package cmd defines the command-line interface for filepulse.
package cmd

import (
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(previewCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(archiveCmd)
	rootCmd.AddCommand(thresholdsCmd)
	rootCmd.AddCommand(emailCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(daemonCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(versionCmd)

	// Add the archive subcommands to the parent archive command
	archiveCmd.AddCommand(archiveListCmd)
	archiveCmd.AddCommand(archiveDeleteCmd)
	archiveCmd.AddCommand(archiveRebuildCmd)
	archiveCmd.AddCommand(archiveStatusCmd)
	archiveCmd.AddCommand(archiveOpenPathCmd)

	// Add the settings subcommands to their parents
	thresholdsCmd.AddCommand(thresholdsShowCmd)
	thresholdsCmd.AddCommand(thresholdsSetCmd)
	emailCmd.AddCommand(emailRecipientsCmd)
	emailCmd.AddCommand(emailAPIKeyCmd)
	emailCmd.AddCommand(emailTestCmd)
	scheduleCmd.AddCommand(scheduleEnableCmd)
	scheduleCmd.AddCommand(scheduleDisableCmd)
	scheduleCmd.AddCommand(scheduleStatusCmd)

	// Add the history subcommands to the parent history command
	historyCmd.AddCommand(historyStatusCmd)
	historyCmd.AddCommand(historyClearCmd)
	historyCmd.AddCommand(historyExportCmd)
	historyCmd.AddCommand(historyMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().String("data-dir", "", "Directory for settings, logs and the history database (default: user config dir)")
	rootCmd.PersistentFlags().String("archive-dir", "", "Report archive directory (default: ~/Documents/FilePulse/Reports)")
	rootCmd.PersistentFlags().String("exclude", "", "Comma-separated list of path prefixes or patterns to ignore")
	rootCmd.PersistentFlags().String("band", "", "Comma-separated bands to keep in listings: red, amber, green, none")
	rootCmd.PersistentFlags().IntP("limit", "l", contract.DefaultPreviewLimit, "Number of rows to display (0 = all)")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for sizes and ages")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory generated reports are written to")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("log-level", contract.DefaultLogLevel, "Log level: debug or info or warn or error")
	rootCmd.PersistentFlags().String("log-format", contract.DefaultLogFormat, "Log format: text or json")
	rootCmd.PersistentFlags().String("timezone", contract.DefaultTimezone, "IANA time zone of the schedule")
	rootCmd.PersistentFlags().String("history-backend", string(schema.SQLiteBackend), "History backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("history-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of generateCmd to Viper
	generateCmd.Flags().String("title", "", "Title hint stored in the archive index")
	if err := viper.BindPFlags(generateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding generate flags", err)
	}

	// Bind all flags of classifyCmd to Viper
	classifyCmd.Flags().Float64("age-days", 0, "Neglect age in days to classify")
	_ = classifyCmd.MarkFlagRequired("age-days")
	if err := viper.BindPFlags(classifyCmd.Flags()); err != nil {
		contract.LogFatal("Error binding classify flags", err)
	}

	// Bind all flags of thresholdsSetCmd to Viper
	thresholdsSetCmd.Flags().String("red", "", "Red range as start-end, e.g. 15-20")
	thresholdsSetCmd.Flags().String("amber", "", "Amber range as start-end, e.g. 4-14")
	thresholdsSetCmd.Flags().String("green", "", "Green range as start-end, e.g. 0-3")
	if err := viper.BindPFlags(thresholdsSetCmd.Flags()); err != nil {
		contract.LogFatal("Error binding thresholds flags", err)
	}

	// Bind all flags of emailTestCmd to Viper
	emailTestCmd.Flags().String("to", "", "Comma-separated recipients (default: configured recipients)")
	if err := viper.BindPFlags(emailTestCmd.Flags()); err != nil {
		contract.LogFatal("Error binding email test flags", err)
	}

	// Bind all flags of scheduleEnableCmd to Viper
	scheduleEnableCmd.Flags().String("date", "", "First day the schedule may fire (YYYY-MM-DD)")
	scheduleEnableCmd.Flags().String("time", "", "Time of day in 24h HH:MM")
	scheduleEnableCmd.Flags().String("frequency", string(schema.Weekly), "How often the report is sent")
	scheduleEnableCmd.Flags().String("folders", "", "Comma-separated folders to rescan before each send")
	_ = scheduleEnableCmd.MarkFlagRequired("date")
	_ = scheduleEnableCmd.MarkFlagRequired("time")
	if err := viper.BindPFlags(scheduleEnableCmd.Flags()); err != nil {
		contract.LogFatal("Error binding schedule flags", err)
	}

	// Bind all flags of serveCmd to Viper
	serveCmd.Flags().String("addr", contract.DefaultAddr, "Listen address of the HTTP API")
	if err := viper.BindPFlags(serveCmd.Flags()); err != nil {
		contract.LogFatal("Error binding serve flags", err)
	}

	// Bind all flags of historyMigrateCmd to Viper
	historyMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(historyMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding history migrate flags", err)
	}
}

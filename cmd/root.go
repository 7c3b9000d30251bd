package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/history"
	"github.com/huangsam/filepulse/internal/outwriter"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// All linker flags will be set by goreleaser infra at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is the root context for all operations.
var rootCtx = context.Background()

// cfg will hold the validated, final configuration.
var cfg = &contract.Config{}

// input holds the raw, unvalidated configuration from all sources (file, env, flags).
// Viper will unmarshal into this struct.
var input = &contract.ConfigRawInput{}

// ow renders command results in the configured output format.
var ow = outwriter.NewOutWriter()

// logger is the process logger, ready after sharedSetup.
var logger = contract.DiscardLogger()

// logCloser releases the log file on exit.
var logCloser io.Closer

// rootCmd is the command-line entrypoint for all other commands.
var rootCmd = &cobra.Command{
	Use:                "filepulse",
	Short:              "Monitor folders for neglected files and send scheduled reports.",
	Long:               `FilePulse classifies the files in your folders by how long they have gone unchanged and turns the result into archived PDF reports.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	setConfigFile()

	// Set environment variable prefix
	viper.SetEnvPrefix("FILEPULSE")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv() // Read in environment variables that match

	// Set defaults in Viper
	viper.SetDefault("limit", contract.DefaultPreviewLimit)
	viper.SetDefault("precision", contract.DefaultPrecision)
	viper.SetDefault("output", schema.TextOut)
	viper.SetDefault("timezone", contract.DefaultTimezone)
	viper.SetDefault("history-backend", schema.SQLiteBackend)
	viper.SetDefault("history-db-connect", "")
	viper.SetDefault("log-level", contract.DefaultLogLevel)
	viper.SetDefault("log-format", contract.DefaultLogFormat)
	viper.SetDefault("addr", contract.DefaultAddr)
	viper.SetDefault("color", "yes")
}

// setConfigFile points viper at --config or the default .filepulse.yaml.
func setConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(".filepulse") // Name of config file (without extension)
	viper.SetConfigType("yaml")       // We'll use YAML format
	viper.AddConfigPath(".")          // Look in the current directory
	viper.AddConfigPath("$HOME")      // Look in the home directory
}

// loadConfigFile handles config file loading logic common to all setup functions.
func loadConfigFile() error {
	setConfigFile()
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return fmt.Errorf("error reading config file: %w", err)
		}
		// Config file not found, which is fine; we'll use defaults/env/flags.
	}
	return nil
}

// resolveConfig merges file, env and flags into cfg. Positional args are
// the folders to scan.
func resolveConfig(args []string) error {
	// 1. Read config file. This merges defaults, file, env, and flags.
	if err := loadConfigFile(); err != nil {
		return err
	}

	// 2. Unmarshal all resolved values from Viper into our raw input struct.
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// 3. Handle positional arguments (which Viper doesn't do).
	input.Folders = args

	// 4. Run all validation and complex parsing.
	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}
	color.NoColor = color.NoColor || !cfg.UseColors
	return nil
}

// sharedSetup validates the configuration, opens the log file and the run
// history. Every command that touches folders, settings or reports uses it.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := resolveConfig(args); err != nil {
		return err
	}

	l, closer, err := contract.SetupLogger(cfg.LogPath, cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	logger, logCloser = l, closer
	logger.Debug("Configuration resolved",
		"data_dir", cfg.DataDir, "archive_dir", cfg.ArchiveDir, "timezone", cfg.Timezone.String(),
		"history_backend", cfg.HistoryBackend)

	// Run history is supplementary, so a broken database only disables it.
	if err := history.InitHistory(cfg.HistoryBackend, cfg.HistoryDBConnect); err != nil {
		logger.Warn("Run history disabled", "error", err)
		contract.LogWarn("Run history disabled", err)
	}
	return nil
}

// sharedSetupWrapper wraps sharedSetup to provide context for Cobra's PreRunE.
func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// configSetupWrapper only resolves the configuration. Commands that do not
// write logs or history use it.
func configSetupWrapper(_ *cobra.Command, args []string) error {
	return resolveConfig(args)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// Close releases the run history and the log file.
func Close() {
	history.CloseHistory()
	if logCloser != nil {
		_ = logCloser.Close()
	}
}

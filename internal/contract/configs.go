package contract

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // zone database for hosts without one

	"github.com/huangsam/filepulse/schema"
)

// Default values for configuration.
const (
	DefaultPrecision    = 1
	DefaultPreviewLimit = 500
	MaxResultLimit      = 100000
	DefaultTimezone     = "Asia/Kolkata"
	DefaultAddr         = "127.0.0.1:8040"
	DefaultLogLevel     = "info"
	DefaultLogFormat    = "text"
	AppDirName          = "FilePulse"
)

// File names inside the data directory.
const (
	SettingsFileName  = "config.json"
	LogFileName       = "app.log"
	HistoryDBFileName = "history.db"
)

// Config holds the runtime configuration for the CLI, daemon and server.
// This struct remains the "final, validated" config.
type Config struct {
	Folders     []string // Absolute folders to scan
	Excludes    []string
	Bands       map[schema.Band]struct{} // Bands to keep in listings (empty = all)
	ResultLimit int                      // Rows shown in previews (0 = all)
	Precision   int
	Output      schema.OutputMode
	OutputFile  string
	OutputDir   string // Where freshly generated reports are written
	Width       int    // Terminal width override (0 = auto-detect)
	UseColors   bool

	DataDir      string
	ArchiveDir   string
	SettingsPath string
	LogPath      string
	LogLevel     slog.Level
	LogFormat    string

	Timezone *time.Location
	Addr     string

	HistoryBackend   schema.DatabaseBackend
	HistoryDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	Folders []string

	// --- Fields from rootCmd.PersistentFlags() ---
	DataDir          string `mapstructure:"data-dir"`
	ArchiveDir       string `mapstructure:"archive-dir"`
	Exclude          string `mapstructure:"exclude"`
	Band             string `mapstructure:"band"`
	Limit            int    `mapstructure:"limit"`
	Precision        int    `mapstructure:"precision"`
	Output           string `mapstructure:"output"`
	OutputFile       string `mapstructure:"output-file"`
	Width            int    `mapstructure:"width"`
	Color            string `mapstructure:"color"`
	LogLevel         string `mapstructure:"log-level"`
	LogFormat        string `mapstructure:"log-format"`
	Timezone         string `mapstructure:"timezone"`
	HistoryBackend   string `mapstructure:"history-backend"`
	HistoryDBConnect string `mapstructure:"history-db-connect"`

	// --- Fields from generateCmd.Flags() ---
	OutputDir string `mapstructure:"output-dir"`

	// --- Fields from serveCmd.Flags() ---
	Addr string `mapstructure:"addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Folders = slices.Clone(c.Folders)
	clone.Excludes = slices.Clone(c.Excludes)
	if c.Bands != nil {
		clone.Bands = make(map[schema.Band]struct{}, len(c.Bands))
		for b := range c.Bands {
			clone.Bands[b] = struct{}{}
		}
	}
	return &clone
}

// ProcessAndValidate performs all parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processPaths(cfg, input); err != nil {
		return err
	}
	if err := processTimezone(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return nil
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL and PostgreSQL backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("history-db-connect is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	}
	return nil
}

// validateBackendConfigs validates the history backend configuration.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	backend := strings.ToLower(strings.TrimSpace(input.HistoryBackend))
	if backend == "" {
		backend = string(schema.SQLiteBackend)
	}
	cfg.HistoryBackend = schema.DatabaseBackend(backend)
	if _, ok := schema.ValidDatabaseBackends[cfg.HistoryBackend]; !ok {
		return fmt.Errorf("invalid history backend '%s'. must be sqlite, mysql, postgresql, none", input.HistoryBackend)
	}
	cfg.HistoryDBConnect = input.HistoryDBConnect
	if cfg.HistoryBackend == schema.SQLiteBackend && cfg.HistoryDBConnect == "" {
		cfg.HistoryDBConnect = GetHistoryDBFilePath(cfg.DataDir)
	}
	return ValidateDatabaseConnectionString(cfg.HistoryBackend, cfg.HistoryDBConnect)
}

// validateSimpleInputs processes and validates all non-path related fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.Addr = input.Addr
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. ResultLimit Validation ---
	if input.Limit < 0 || input.Limit > MaxResultLimit {
		return fmt.Errorf("limit must be between 0 and %d (received %d)", MaxResultLimit, input.Limit)
	}
	cfg.ResultLimit = input.Limit

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > 2 {
		return fmt.Errorf("precision must be 1 or 2 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	// --- 3. Band Filter ---
	cfg.Bands = make(map[schema.Band]struct{})
	for _, b := range SplitList(input.Band) {
		band := schema.Band(strings.ToLower(b))
		if !slices.Contains(schema.AllBands, band) {
			return fmt.Errorf("invalid band '%s'. must be red, amber, green, none", b)
		}
		cfg.Bands[band] = struct{}{}
	}

	// --- 4. Logging ---
	level, err := ParseLogLevel(input.LogLevel)
	if err != nil {
		return err
	}
	cfg.LogLevel = level
	cfg.LogFormat = strings.ToLower(input.LogFormat)
	if cfg.LogFormat == "" {
		cfg.LogFormat = DefaultLogFormat
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return fmt.Errorf("invalid log format '%s'. must be text, json", input.LogFormat)
	}

	// --- 5. Excludes Processing ---
	cfg.Excludes = SplitList(input.Exclude)

	return nil
}

// processPaths resolves the data, archive and output directories and the
// positional folders to absolute paths.
func processPaths(cfg *Config, input *ConfigRawInput) error {
	dataDir := input.DataDir
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	archiveDir := input.ArchiveDir
	if archiveDir == "" {
		archiveDir = DefaultArchiveDir()
	}
	var err error
	if cfg.DataDir, err = filepath.Abs(ExpandHome(dataDir)); err != nil {
		return fmt.Errorf("invalid data directory '%s': %w", dataDir, err)
	}
	if cfg.ArchiveDir, err = filepath.Abs(ExpandHome(archiveDir)); err != nil {
		return fmt.Errorf("invalid archive directory '%s': %w", archiveDir, err)
	}
	cfg.SettingsPath = filepath.Join(cfg.DataDir, SettingsFileName)
	cfg.LogPath = filepath.Join(cfg.DataDir, LogFileName)

	if input.OutputDir != "" {
		abs, err := filepath.Abs(ExpandHome(input.OutputDir))
		if err != nil {
			return fmt.Errorf("invalid output directory '%s': %w", input.OutputDir, err)
		}
		cfg.OutputDir = abs
	}

	cfg.Folders = nil
	for _, folder := range input.Folders {
		abs, err := filepath.Abs(ExpandHome(folder))
		if err != nil {
			return fmt.Errorf("invalid folder '%s': %w", folder, err)
		}
		if !slices.Contains(cfg.Folders, abs) {
			cfg.Folders = append(cfg.Folders, abs)
		}
	}
	return nil
}

// processTimezone loads the scheduler time zone.
func processTimezone(cfg *Config, input *ConfigRawInput) error {
	name := strings.TrimSpace(input.Timezone)
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", input.Timezone, err)
	}
	cfg.Timezone = loc
	return nil
}

// DefaultDataDir returns the per-user application data directory.
func DefaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return ".filepulse"
	}
	return filepath.Join(base, AppDirName)
}

// DefaultArchiveDir returns the report archive directory under the user's
// documents folder.
func DefaultArchiveDir() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".filepulse", "Reports")
	}
	return filepath.Join(homeDir, "Documents", AppDirName, "Reports")
}

// GetHistoryDBFilePath returns the path to the SQLite DB file for run history.
func GetHistoryDBFilePath(dataDir string) string {
	if dataDir == "" {
		dataDir = DefaultDataDir()
	}
	return filepath.Join(dataDir, HistoryDBFileName)
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}

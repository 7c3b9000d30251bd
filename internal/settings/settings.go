// Package settings owns the persisted user settings. Store is the single
// writer: every change is validated, written to disk and only then made
// visible to readers and subscribers.
package settings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/huangsam/filepulse/internal/contract"
	"github.com/huangsam/filepulse/internal/notify"
	"github.com/huangsam/filepulse/internal/scheduler"
	"github.com/huangsam/filepulse/schema"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
)

// Validation errors returned by the setters.
var (
	ErrInvalidThresholds = errors.New("invalid thresholds")
	ErrInvalidRecipients = errors.New("invalid recipients")
	ErrInvalidSchedule   = errors.New("invalid schedule")
	ErrNotifierMissing   = errors.New("configure an API key and at least one recipient before enabling a schedule")
)

// Store holds the current settings and persists every change.
type Store struct {
	mu      sync.RWMutex
	writeMu sync.Mutex
	path    string
	current schema.Settings
	subs    []func(schema.Settings)
	logger  *slog.Logger
}

var _ contract.SettingsStore = &Store{} // Compile-time check

// Load reads the settings file at path. A missing file yields defaults; a
// malformed one yields defaults and an error log. Keys absent from the file
// keep their default values.
func Load(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = contract.DiscardLogger()
	}
	s := &Store{path: path, current: schema.DefaultSettings(), logger: logger}

	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		logger.Info("No config file found, using defaults", "path", path)
		return s
	}

	loaded, err := read(path)
	if err != nil {
		logger.Error("Error loading config", "path", path, "error", err)
		return s
	}
	if err := ValidateThresholds(loaded.Thresholds); err != nil {
		logger.Error("Stored thresholds are invalid, using defaults", "path", path, "error", err)
		loaded.Thresholds = schema.DefaultThresholds()
	}
	s.current = loaded
	logger.Info("Configuration loaded successfully", "path", path)
	return s
}

// read decodes the settings file through a dedicated viper instance.
func read(path string) (schema.Settings, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("json")

	def := schema.DefaultSettings()
	v.SetDefault("recipients", def.Recipients)
	v.SetDefault("api_key", def.APIKey)
	v.SetDefault("thresholds.red", []int{def.Thresholds.Red.Start, def.Thresholds.Red.End})
	v.SetDefault("thresholds.amber", []int{def.Thresholds.Amber.Start, def.Thresholds.Amber.End})
	v.SetDefault("thresholds.green", []int{def.Thresholds.Green.Start, def.Thresholds.Green.End})
	v.SetDefault("folders", []string{})
	v.SetDefault("output_dir", "")

	if err := v.ReadInConfig(); err != nil {
		return def, err
	}

	var out schema.Settings
	err := v.Unmarshal(&out, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "json"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(rangeHook, dc.DecodeHook)
	})
	if err != nil {
		return def, err
	}
	if out.Folders == nil {
		out.Folders = []string{}
	}
	return out, nil
}

// rangeHook decodes a two element list into a schema.Range.
func rangeHook(_ reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf(schema.Range{}) {
		return data, nil
	}
	rv := reflect.ValueOf(data)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return data, nil
	}
	if rv.Len() != 2 {
		return nil, fmt.Errorf("range must have exactly 2 elements, got %d", rv.Len())
	}
	start, err := cast.ToIntE(rv.Index(0).Interface())
	if err != nil {
		return nil, err
	}
	end, err := cast.ToIntE(rv.Index(1).Interface())
	if err != nil {
		return nil, err
	}
	return schema.Range{Start: start, End: end}, nil
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() schema.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Subscribe registers fn to receive the new settings after each successful
// change. Callbacks run synchronously on the writer's goroutine.
func (s *Store) Subscribe(fn func(schema.Settings)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// ValidateThresholds checks that every range is within [0, 365], ordered,
// and disjoint from the others. Gaps between ranges are allowed.
func ValidateThresholds(t schema.ThresholdSet) error {
	named := []struct {
		name string
		r    schema.Range
	}{{"red", t.Red}, {"amber", t.Amber}, {"green", t.Green}}

	for _, n := range named {
		if !n.r.Valid() {
			return fmt.Errorf("%w: %s range %s must satisfy 0 <= start <= end <= %d",
				ErrInvalidThresholds, n.name, n.r, schema.MaxRangeDay)
		}
	}
	for i := range named {
		for j := i + 1; j < len(named); j++ {
			if named[i].r.Overlaps(named[j].r) {
				return fmt.Errorf("%w: %s range %s overlaps %s range %s",
					ErrInvalidThresholds, named[i].name, named[i].r, named[j].name, named[j].r)
			}
		}
	}
	return nil
}

// ValidateSchedule checks the date, time and frequency of a schedule.
func ValidateSchedule(spec schema.ScheduleSpec) error {
	if !spec.Active() {
		return fmt.Errorf("%w: date, time and frequency are required", ErrInvalidSchedule)
	}
	if strings.TrimSpace(*spec.Date) == "" {
		return fmt.Errorf("%w: date is required", ErrInvalidSchedule)
	}
	if _, err := scheduler.ParseStartDate(*spec.Date, nil); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if _, _, err := scheduler.ParseClock(*spec.Time); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSchedule, err)
	}
	if _, ok := schema.ValidFrequencies[*spec.Frequency]; !ok {
		return fmt.Errorf("%w: invalid frequency %q", ErrInvalidSchedule, *spec.Frequency)
	}
	return nil
}

// CheckNotifier returns ErrNotifierMissing unless cfg carries an API key
// and at least one valid recipient.
func CheckNotifier(cfg schema.Settings) error {
	if cfg.APIKey == "" || len(notify.ValidateEmailList(cfg.Recipients)) == 0 {
		return ErrNotifierMissing
	}
	return nil
}

// SetThresholds validates and stores new threshold ranges.
func (s *Store) SetThresholds(t schema.ThresholdSet) error {
	if err := ValidateThresholds(t); err != nil {
		return err
	}
	return s.update(func(cfg *schema.Settings) error {
		cfg.Thresholds = t
		return nil
	})
}

// SetRecipients stores a comma separated recipient list. Every non-empty
// entry must be a valid address; an empty list is allowed.
func (s *Store) SetRecipients(raw string) error {
	if bad := notify.InvalidEmails(raw); len(bad) > 0 {
		return fmt.Errorf("%w: %s", ErrInvalidRecipients, strings.Join(bad, ", "))
	}
	normalized := strings.Join(notify.ValidateEmailList(raw), ", ")
	return s.update(func(cfg *schema.Settings) error {
		cfg.Recipients = normalized
		return nil
	})
}

// SetAPIKey stores the email API key.
func (s *Store) SetAPIKey(key string) error {
	key = strings.TrimSpace(key)
	return s.update(func(cfg *schema.Settings) error {
		cfg.APIKey = key
		return nil
	})
}

// SetSchedule validates and activates a schedule. An API key and at least
// one valid recipient must already be configured.
func (s *Store) SetSchedule(spec schema.ScheduleSpec) error {
	if err := ValidateSchedule(spec); err != nil {
		return err
	}
	spec = schema.Settings{Schedule: spec}.Clone().Schedule
	trimmed := strings.TrimSpace(*spec.Time)
	spec.Time = &trimmed
	return s.update(func(cfg *schema.Settings) error {
		if err := CheckNotifier(*cfg); err != nil {
			return err
		}
		cfg.Schedule = spec
		return nil
	})
}

// ClearSchedule deactivates the schedule.
func (s *Store) ClearSchedule() error {
	return s.update(func(cfg *schema.Settings) error {
		cfg.Schedule = schema.ScheduleSpec{}
		return nil
	})
}

// SetFolders stores the folders the scheduled job scans. Paths are made
// absolute and duplicates dropped.
func (s *Store) SetFolders(folders []string) error {
	out := make([]string, 0, len(folders))
	for _, f := range folders {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		abs, err := filepath.Abs(contract.ExpandHome(f))
		if err != nil {
			return fmt.Errorf("invalid folder '%s': %w", f, err)
		}
		if !slices.Contains(out, abs) {
			out = append(out, abs)
		}
	}
	return s.update(func(cfg *schema.Settings) error {
		cfg.Folders = out
		return nil
	})
}

// SetOutputDir stores where manual reports are written. Empty means the
// working directory.
func (s *Store) SetOutputDir(dir string) error {
	dir = strings.TrimSpace(dir)
	if dir != "" {
		abs, err := filepath.Abs(contract.ExpandHome(dir))
		if err != nil {
			return fmt.Errorf("invalid output directory '%s': %w", dir, err)
		}
		dir = abs
	}
	return s.update(func(cfg *schema.Settings) error {
		cfg.OutputDir = dir
		return nil
	})
}

// update applies mutate to a copy, persists it and swaps it in. Memory is
// untouched when mutate or the write fails.
func (s *Store) update(mutate func(*schema.Settings) error) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()

	next := s.Snapshot()
	if err := mutate(&next); err != nil {
		return err
	}
	if err := s.persist(next); err != nil {
		s.logger.Error("Error saving config", "path", s.path, "error", err)
		return err
	}

	s.mu.Lock()
	s.current = next
	subs := slices.Clone(s.subs)
	s.mu.Unlock()

	s.logger.Info("Configuration saved successfully", "path", s.path)
	for _, fn := range subs {
		fn(next.Clone())
	}
	return nil
}

func (s *Store) persist(cfg schema.Settings) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return contract.WriteFileAtomic(s.path, data)
}

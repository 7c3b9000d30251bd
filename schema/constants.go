package schema

// Custom string types for type safety.
type (
	// Band represents the urgency band of a file's neglect age.
	Band string

	// Frequency represents a recurring schedule frequency.
	Frequency string

	// OutputMode represents the format of the output.
	OutputMode string

	// Trigger represents what started a report generation.
	Trigger string

	// DatabaseBackend represents the database backend for run history.
	DatabaseBackend string
)

// All urgency bands supported.
const (
	RedBand   Band = "red"
	AmberBand Band = "amber"
	GreenBand Band = "green"
	NoneBand  Band = "none" // neglect age outside every configured range
)

// All schedule frequencies supported. The string values are persisted
// in the settings file and must not change.
const (
	Hourly         Frequency = "Hourly"
	Daily          Frequency = "Daily"
	EveryTwoDays   Frequency = "Every 2 days"
	EveryThreeDays Frequency = "Every 3 days"
	Weekly         Frequency = "Weekly"
	Fortnightly    Frequency = "Fortnightly"
	Monthly        Frequency = "Monthly"
	EverySixMonths Frequency = "Every 6 months"
	Yearly         Frequency = "Yearly"
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All generation triggers supported.
const (
	ManualTrigger    Trigger = "manual"
	ScheduledTrigger Trigger = "scheduled"
	APITrigger       Trigger = "api"
	MCPTrigger       Trigger = "mcp"
)

// All history backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// AllBands lists the bands in evaluation order followed by the gap band.
var AllBands = []Band{RedBand, AmberBand, GreenBand, NoneBand}

// AllFrequencies lists every recognized frequency in display order.
var AllFrequencies = []Frequency{
	Hourly, Daily, EveryTwoDays, EveryThreeDays, Weekly,
	Fortnightly, Monthly, EverySixMonths, Yearly,
}

// ValidFrequencies lists all valid schedule frequencies.
var ValidFrequencies = map[Frequency]struct{}{
	Hourly:         {},
	Daily:          {},
	EveryTwoDays:   {},
	EveryThreeDays: {},
	Weekly:         {},
	Fortnightly:    {},
	Monthly:        {},
	EverySixMonths: {},
	Yearly:         {},
}

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid history backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// Threshold defaults, in inclusive days.
var (
	DefaultRed   = Range{Start: 15, End: 20}
	DefaultAmber = Range{Start: 4, End: 14}
	DefaultGreen = Range{Start: 0, End: 3}
)

// MaxRangeDay is the upper bound of any threshold range.
const MaxRangeDay = 365

// Layouts used for schedule fields and report timestamps.
const (
	DateLayout      = "2006-01-02"
	ClockLayout     = "15:04"
	TimestampLayout = "2006-01-02 15:04 UTC"
)

package contract

import (
	"fmt"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// Default values for configuration.
const (
	DefaultPrecision   = 2
	DefaultInterval    = 5 * time.Minute
	DefaultRegion      = "us-east-1"
	DefaultNATSSubject = "dorametrics"
	DefaultCron        = "0 1 * * *"
	DefaultLookback    = 30 * 24 * time.Hour
	MaxReportDays      = 366
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// Config holds the runtime configuration for all commands.
// This struct remains the "final, validated" config.
type Config struct {
	// Delivery window. Zero means infer from the build records.
	Window schema.Window
	// Lookback is the trailing window used by scheduled delivery reports.
	Lookback time.Duration
	// ReportDates are the UTC days an availability run covers, oldest first.
	ReportDates []time.Time

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Width      int // Terminal width override (0 = auto-detect)
	UseColors  bool
	UseEmojis  bool
	LogLevel   string

	RecordSource     schema.RecordSourceKind
	BuildsFile       string
	CommitsFile      string
	PullRequestsFile string

	GitHubOwner       string
	GitHubRepo        string
	GitHubToken       string // Please use env var as this is plaintext
	GitHubEnvironment string

	HealthFeed      schema.HealthFeedKind
	HealthFile      string
	EnvironmentName string
	ApplicationName string
	Interval        time.Duration

	AWSRegion          string
	AWSEndpoint        string
	AWSAccessKeyID     string
	AWSSecretAccessKey string // Please use env var as this is plaintext

	Publish     bool
	S3Bucket    string
	S3Prefix    string
	S3PathStyle bool
	NATSURL     string
	NATSSubject string
	ReportDir   string

	Cron        string
	MetricsAddr string

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// --- Fields from rootCmd.PersistentFlags() ---
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Precision         int    `mapstructure:"precision"`
	Width             int    `mapstructure:"width"`
	Workers           int    `mapstructure:"workers"`
	Color             string `mapstructure:"color"`
	Emoji             string `mapstructure:"emoji"`
	LogLevel          string `mapstructure:"log-level"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`

	// --- Time window ---
	Start    string `mapstructure:"start"`
	End      string `mapstructure:"end"`
	Date     string `mapstructure:"date"`
	Lookback string `mapstructure:"lookback"`

	// --- Delivery records ---
	RecordSource      string `mapstructure:"record-source"`
	BuildsFile        string `mapstructure:"builds-file"`
	CommitsFile       string `mapstructure:"commits-file"`
	PullRequestsFile  string `mapstructure:"pull-requests-file"`
	GitHubOwner       string `mapstructure:"github-owner"`
	GitHubRepo        string `mapstructure:"github-repo"`
	GitHubToken       string `mapstructure:"github-token"`
	GitHubEnvironment string `mapstructure:"github-environment"`

	// --- Health feed ---
	HealthFeed         string `mapstructure:"health-feed"`
	HealthFile         string `mapstructure:"health-file"`
	Environment        string `mapstructure:"environment"`
	Application        string `mapstructure:"application"`
	Interval           string `mapstructure:"interval"`
	AWSRegion          string `mapstructure:"aws-region"`
	AWSEndpoint        string `mapstructure:"aws-endpoint"`
	AWSAccessKeyID     string `mapstructure:"aws-access-key-id"`
	AWSSecretAccessKey string `mapstructure:"aws-secret-access-key"`

	// --- Report sinks ---
	Publish     bool   `mapstructure:"publish"`
	S3Bucket    string `mapstructure:"s3-bucket"`
	S3Prefix    string `mapstructure:"s3-prefix"`
	S3PathStyle bool   `mapstructure:"s3-path-style"`
	NATSURL     string `mapstructure:"nats-url"`
	NATSSubject string `mapstructure:"nats-subject"`
	ReportDir   string `mapstructure:"report-dir"`

	// --- Fields from scheduleCmd.Flags() ---
	Cron        string `mapstructure:"cron"`
	MetricsAddr string `mapstructure:"metrics-addr"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	clone.ReportDates = slices.Clone(c.ReportDates)
	return &clone
}

// HasSinks reports whether any report sink is configured.
func (c *Config) HasSinks() bool {
	return c.S3Bucket != "" || c.NATSURL != "" || c.ReportDir != ""
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	return ProcessAndValidateAt(cfg, input, time.Now().UTC())
}

// ProcessAndValidateAt is ProcessAndValidate with an explicit clock for relative times.
func ProcessAndValidateAt(cfg *Config, input *ConfigRawInput, now time.Time) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	if err := processTimeRange(cfg, input, now); err != nil {
		return err
	}
	if err := processSources(cfg, input); err != nil {
		return err
	}
	if err := processSinks(cfg, input); err != nil {
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
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' for host:port specification")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
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

// validateSimpleInputs processes and validates output and runtime fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	cfg.OutputFile = input.OutputFile
	cfg.Width = input.Width
	cfg.LogLevel = strings.ToLower(input.LogLevel)

	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	if input.Precision < 1 || input.Precision > 4 {
		return fmt.Errorf("precision must be between 1 and 4 (received %d)", input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json", input.Output)
	}

	cfg.Cron = strings.TrimSpace(input.Cron)
	cfg.MetricsAddr = strings.TrimSpace(input.MetricsAddr)
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidDatabaseBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return fmt.Errorf("cache backend: %w", err)
	}

	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidDatabaseBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("analysis backend: %w", err)
	}

	// Cache and analysis must not share one SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath && cacheDBPath != ":memory:" {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}
	return nil
}

// processTimeRange resolves the delivery window and the availability report dates.
//
// Delivery: no --start, --end or --lookback leaves the window zero so it is
// inferred from the records. --lookback alone means the trailing window ending now.
// Availability: --date wins, then each day of --start..--end, then yesterday.
func processTimeRange(cfg *Config, input *ConfigRawInput, now time.Time) error {
	cfg.Window = schema.Window{}
	cfg.Lookback = DefaultLookback

	var lookbackSet bool
	if strings.TrimSpace(input.Lookback) != "" {
		lookback, err := ParseLookbackDuration(input.Lookback)
		if err != nil {
			return fmt.Errorf("invalid lookback: %w", err)
		}
		cfg.Lookback = lookback
		lookbackSet = true
	}

	var start, end time.Time
	if input.Start != "" {
		t, err := ParseTimeInput(input.Start, now, false)
		if err != nil {
			return fmt.Errorf("invalid start: %w", err)
		}
		start = t
	}
	if input.End != "" {
		t, err := ParseTimeInput(input.End, now, true)
		if err != nil {
			return fmt.Errorf("invalid end: %w", err)
		}
		end = t
	}

	switch {
	case start.IsZero() && end.IsZero() && lookbackSet:
		end = now
		start = now.Add(-cfg.Lookback)
	case !start.IsZero() && end.IsZero():
		end = now
	case start.IsZero() && !end.IsZero():
		if !lookbackSet {
			return fmt.Errorf("--end requires --start or --lookback")
		}
		start = end.Add(-cfg.Lookback)
	}

	if !start.IsZero() && start.After(end) {
		return fmt.Errorf("start time (%s) cannot be after end time (%s)", schema.FormatTimestamp(start), schema.FormatTimestamp(end))
	}
	cfg.Window = schema.Window{Start: start, End: end}

	switch {
	case input.Date != "":
		t, err := ParseTimeInput(input.Date, now, false)
		if err != nil {
			return fmt.Errorf("invalid date: %w", err)
		}
		cfg.ReportDates = []time.Time{schema.StartOfDay(t)}
	case input.Start != "" || input.End != "":
		cfg.ReportDates = DaysBetween(start, end)
	default:
		cfg.ReportDates = []time.Time{schema.StartOfDay(now).AddDate(0, 0, -1)}
	}
	if len(cfg.ReportDates) > MaxReportDays {
		return fmt.Errorf("availability range covers %d days, at most %d are allowed", len(cfg.ReportDates), MaxReportDays)
	}
	return nil
}

// processSources validates where records and health samples come from.
func processSources(cfg *Config, input *ConfigRawInput) error {
	cfg.RecordSource = schema.RecordSourceKind(strings.ToLower(input.RecordSource))
	if _, ok := schema.ValidRecordSources[cfg.RecordSource]; !ok {
		return fmt.Errorf("invalid record source '%s'. must be csv, github", input.RecordSource)
	}
	cfg.BuildsFile = input.BuildsFile
	cfg.CommitsFile = input.CommitsFile
	cfg.PullRequestsFile = input.PullRequestsFile
	cfg.GitHubOwner = strings.TrimSpace(input.GitHubOwner)
	cfg.GitHubRepo = strings.TrimSpace(input.GitHubRepo)
	cfg.GitHubToken = input.GitHubToken
	cfg.GitHubEnvironment = input.GitHubEnvironment

	cfg.HealthFeed = schema.HealthFeedKind(strings.ToLower(input.HealthFeed))
	if _, ok := schema.ValidHealthFeeds[cfg.HealthFeed]; !ok {
		return fmt.Errorf("invalid health feed '%s'. must be csv, cloudwatch", input.HealthFeed)
	}
	cfg.HealthFile = input.HealthFile
	cfg.EnvironmentName = strings.TrimSpace(input.Environment)
	cfg.ApplicationName = strings.TrimSpace(input.Application)

	cfg.Interval = DefaultInterval
	if strings.TrimSpace(input.Interval) != "" {
		interval, err := ParseLookbackDuration(input.Interval)
		if err != nil {
			return fmt.Errorf("invalid interval: %w", err)
		}
		if interval < time.Minute {
			return fmt.Errorf("interval must be at least one minute (received %s)", interval)
		}
		cfg.Interval = interval
	}

	cfg.AWSRegion = input.AWSRegion
	if cfg.AWSRegion == "" {
		cfg.AWSRegion = DefaultRegion
	}
	cfg.AWSEndpoint = input.AWSEndpoint
	cfg.AWSAccessKeyID = input.AWSAccessKeyID
	cfg.AWSSecretAccessKey = input.AWSSecretAccessKey
	if (cfg.AWSAccessKeyID == "") != (cfg.AWSSecretAccessKey == "") {
		return fmt.Errorf("aws-access-key-id and aws-secret-access-key must be set together")
	}
	return nil
}

// processSinks validates where finished reports are published.
func processSinks(cfg *Config, input *ConfigRawInput) error {
	cfg.Publish = input.Publish
	cfg.S3Bucket = strings.TrimSpace(input.S3Bucket)
	cfg.S3Prefix = strings.Trim(input.S3Prefix, "/")
	cfg.S3PathStyle = input.S3PathStyle
	cfg.NATSURL = strings.TrimSpace(input.NATSURL)
	cfg.NATSSubject = strings.Trim(input.NATSSubject, ". ")
	if cfg.NATSSubject == "" {
		cfg.NATSSubject = DefaultNATSSubject
	}
	if strings.ContainsAny(cfg.NATSSubject, "*> ") {
		return fmt.Errorf("nats-subject must be a literal subject without wildcards (received %q)", input.NATSSubject)
	}
	cfg.ReportDir = input.ReportDir

	if cfg.Publish && !cfg.HasSinks() {
		return fmt.Errorf("--publish requires at least one of --s3-bucket, --nats-url, --report-dir")
	}
	return nil
}

// RevalidateTimeRange re-resolves the delivery window and availability dates
// of an already validated config, for callers that take time inputs per request.
func RevalidateTimeRange(cfg *Config, start, end, date, lookback string, now time.Time) error {
	input := &ConfigRawInput{Start: start, End: end, Date: date, Lookback: lookback}
	return processTimeRange(cfg, input, now)
}

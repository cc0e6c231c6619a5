package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching.
	DatabaseBackend string

	// BuildResult is the outcome of a single CI build.
	BuildResult string

	// PRState is the lifecycle state of a pull request.
	PRState string

	// Tier is a DORA performance level.
	Tier string

	// EnvironmentStatus is the overall classification of an availability window.
	EnvironmentStatus string

	// RecordSourceKind selects where build/commit/PR records come from.
	RecordSourceKind string

	// HealthFeedKind selects where health samples come from.
	HealthFeedKind string

	// ReportKind distinguishes the two report families.
	ReportKind string

	// WarningKind classifies a non-fatal data problem found during analysis.
	WarningKind string
)

// All output modes supported.
const (
	CSVOut  OutputMode = "csv"
	TextOut OutputMode = "text" // default
	JSONOut OutputMode = "json"
)

// All cache backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	NoneBackend       DatabaseBackend = "none"
)

// All build results supported.
const (
	BuildSuccess  BuildResult = "SUCCESS"
	BuildFailure  BuildResult = "FAILURE"
	BuildAborted  BuildResult = "ABORTED"
	BuildUnstable BuildResult = "UNSTABLE"
)

// All pull request states supported.
const (
	PROpen   PRState = "OPEN"
	PRMerged PRState = "MERGED"
	PRClosed PRState = "CLOSED"
)

// Performance tiers, best first.
const (
	TierElite               Tier = "Elite"
	TierEliteAboveThreshold Tier = "Elite (slightly above threshold)"
	TierHigh                Tier = "High"
	TierMedium              Tier = "Medium"
	TierLow                 Tier = "Low"
	TierNoData              Tier = "No Data"
)

// Environment statuses.
const (
	StatusOperational EnvironmentStatus = "Operational"
	StatusDegraded    EnvironmentStatus = "Degraded Performance"
	StatusPartial     EnvironmentStatus = "Partial Outage"
)

// Record sources supported.
const (
	CSVRecords    RecordSourceKind = "csv" // default
	GitHubRecords RecordSourceKind = "github"
)

// Health feeds supported.
const (
	CSVFeed        HealthFeedKind = "csv" // default
	CloudWatchFeed HealthFeedKind = "cloudwatch"
)

// Report kinds.
const (
	DeliveryReportKind     ReportKind = "delivery"
	AvailabilityReportKind ReportKind = "availability"
)

// Warning kinds. None of these abort an analysis.
const (
	WarnMalformedRecord     WarningKind = "malformed_record"
	WarnUnresolvedReference WarningKind = "unresolved_reference"
	WarnEmptyInput          WarningKind = "empty_input"
	WarnNegativeLeadTime    WarningKind = "negative_lead_time"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:  {},
	TextOut: {},
	JSONOut: {},
}

// ValidDatabaseBackends lists all valid database backends.
var ValidDatabaseBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidBuildResults lists all valid build results.
var ValidBuildResults = map[BuildResult]struct{}{
	BuildSuccess:  {},
	BuildFailure:  {},
	BuildAborted:  {},
	BuildUnstable: {},
}

// ValidPRStates lists all valid pull request states.
var ValidPRStates = map[PRState]struct{}{
	PROpen:   {},
	PRMerged: {},
	PRClosed: {},
}

// ValidRecordSources lists all valid record sources.
var ValidRecordSources = map[RecordSourceKind]struct{}{
	CSVRecords:    {},
	GitHubRecords: {},
}

// ValidHealthFeeds lists all valid health feeds.
var ValidHealthFeeds = map[HealthFeedKind]struct{}{
	CSVFeed:        {},
	CloudWatchFeed: {},
}

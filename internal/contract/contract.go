// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// RecordSource supplies the build, commit and pull request relations for a window.
// This allows the delivery analysis to be tested without a CI server or GitHub.
type RecordSource interface {
	// FetchRecords returns every record relevant to the window. A zero window means all records.
	FetchRecords(ctx context.Context, window schema.Window) (schema.RecordSet, error)
}

// HealthFeed supplies discretized health samples for one environment.
type HealthFeed interface {
	// FetchSamples returns samples in [query.Start, query.End), ordered by timestamp.
	FetchSamples(ctx context.Context, query schema.HealthQuery) ([]schema.HealthSample, error)
}

// ReportSink accepts a complete, already-serialized report and the key it is stored under.
type ReportSink interface {
	Deliver(ctx context.Context, key string, payload []byte) error
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetRecordStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking report runs and storing report rows.
type AnalysisStore interface {
	// BeginAnalysis creates a new report run and returns its unique ID
	BeginAnalysis(kind schema.ReportKind, reportID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the report run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalReports int) error

	// RecordAvailabilityReport stores one availability report row
	RecordAvailabilityReport(analysisID int64, report schema.AvailabilityReport) error

	// RecordDeliveryReport stores one delivery report row
	RecordDeliveryReport(analysisID int64, report schema.DeliveryReport) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllReportRuns returns every recorded run, oldest first
	GetAllReportRuns() ([]schema.ReportRunRecord, error)

	// GetAllAvailabilityRecords returns every stored availability row
	GetAllAvailabilityRecords() ([]schema.AvailabilityRecord, error)

	// GetAllDeliveryRecords returns every stored delivery row
	GetAllDeliveryRecords() ([]schema.DeliveryRecord, error)

	// Close closes the underlying connection
	Close() error
}

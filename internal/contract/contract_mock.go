package contract

import (
	"context"

	"github.com/huangsam/dorametrics/schema"
	"github.com/stretchr/testify/mock"
)

// MockRecordSource is a mock implementation of RecordSource for testing.
type MockRecordSource struct {
	mock.Mock
}

var _ RecordSource = &MockRecordSource{} // Compile-time check

// FetchRecords implements the RecordSource interface.
func (m *MockRecordSource) FetchRecords(ctx context.Context, window schema.Window) (schema.RecordSet, error) {
	args := m.Called(ctx, window)
	return args.Get(0).(schema.RecordSet), args.Error(1)
}

// MockHealthFeed is a mock implementation of HealthFeed for testing.
type MockHealthFeed struct {
	mock.Mock
}

var _ HealthFeed = &MockHealthFeed{} // Compile-time check

// FetchSamples implements the HealthFeed interface.
func (m *MockHealthFeed) FetchSamples(ctx context.Context, query schema.HealthQuery) ([]schema.HealthSample, error) {
	args := m.Called(ctx, query)
	samples, _ := args.Get(0).([]schema.HealthSample)
	return samples, args.Error(1)
}

// MockReportSink is a mock implementation of ReportSink for testing.
type MockReportSink struct {
	mock.Mock
}

var _ ReportSink = &MockReportSink{} // Compile-time check

// Deliver implements the ReportSink interface.
func (m *MockReportSink) Deliver(ctx context.Context, key string, payload []byte) error {
	args := m.Called(ctx, key, payload)
	return args.Error(0)
}

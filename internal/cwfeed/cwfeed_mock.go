package cwfeed

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/mock"
)

// MockMetricDataAPI is a mock implementation of MetricDataAPI for testing.
type MockMetricDataAPI struct {
	mock.Mock
}

var _ MetricDataAPI = &MockMetricDataAPI{} // Compile-time check

// GetMetricData implements the MetricDataAPI interface.
func (m *MockMetricDataAPI) GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*cloudwatch.GetMetricDataOutput)
	return out, args.Error(1)
}

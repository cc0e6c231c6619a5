package cwfeed

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/huangsam/dorametrics/core/uptime"
	"github.com/huangsam/dorametrics/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var start = time.Date(2025, 4, 12, 0, 0, 0, 0, time.UTC)

func query(d time.Duration) schema.HealthQuery {
	return schema.HealthQuery{
		EnvironmentName: "prod-env",
		ApplicationName: "shop",
		Start:           start,
		End:             start.Add(d),
		Interval:        5 * time.Minute,
	}
}

func page(token *string, offsets []int, values []float64) *cloudwatch.GetMetricDataOutput {
	stamps := make([]time.Time, len(offsets))
	for i, m := range offsets {
		stamps[i] = start.Add(time.Duration(m) * time.Minute)
	}
	return &cloudwatch.GetMetricDataOutput{
		NextToken: token,
		MetricDataResults: []types.MetricDataResult{{
			Id:         aws.String(queryID),
			Timestamps: stamps,
			Values:     values,
		}},
	}
}

func TestMapHealthValue(t *testing.T) {
	tests := map[float64]schema.HealthStatus{
		0:  schema.HealthHealthy,
		1:  schema.HealthHealthy,
		5:  schema.HealthNoData,
		10: schema.HealthNoData,
		15: schema.HealthDegraded,
		20: schema.HealthDegraded,
		25: schema.HealthUnhealthy,
		7:  schema.HealthStatus(-1),
	}
	for v, want := range tests {
		assert.Equal(t, want, MapHealthValue(v), "value %v", v)
	}
}

func TestFetchSamples(t *testing.T) {
	ctx := context.Background()
	api := &MockMetricDataAPI{}

	api.On("GetMetricData", ctx, mock.MatchedBy(func(in *cloudwatch.GetMetricDataInput) bool {
		return in.NextToken == nil
	})).Return(page(aws.String("next"), []int{0, 5}, []float64{0, 25}), nil).Once()
	api.On("GetMetricData", ctx, mock.MatchedBy(func(in *cloudwatch.GetMetricDataInput) bool {
		return aws.ToString(in.NextToken) == "next"
	})).Return(page(nil, []int{10, 20, 21}, []float64{25, 15, 25}), nil).Once()

	samples, err := NewFeed(api).FetchSamples(ctx, query(30*time.Minute))
	require.NoError(t, err)

	want := []schema.HealthStatus{
		schema.HealthHealthy,
		schema.HealthUnhealthy,
		schema.HealthUnhealthy,
		schema.HealthNoData, // gap at minute 15
		schema.HealthUnhealthy,
		schema.HealthNoData,
	}
	require.Len(t, samples, len(want))
	for i, s := range samples {
		assert.Equal(t, want[i], s.Status, "slot %d", i)
		assert.Equal(t, start.Add(time.Duration(i)*5*time.Minute), s.Timestamp)
	}
	api.AssertExpectations(t)

	result, err := uptime.Analyze(samples, 5*time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 10.0, result.LongestOutage.Minutes)
}

func TestFetchSamples_RequestShape(t *testing.T) {
	ctx := context.Background()
	api := &MockMetricDataAPI{}
	api.On("GetMetricData", ctx, mock.MatchedBy(func(in *cloudwatch.GetMetricDataInput) bool {
		q := in.MetricDataQueries[0]
		return aws.ToString(q.MetricStat.Metric.Namespace) == "AWS/ElasticBeanstalk" &&
			aws.ToString(q.MetricStat.Metric.MetricName) == "EnvironmentHealth" &&
			aws.ToString(q.MetricStat.Metric.Dimensions[0].Value) == "prod-env" &&
			aws.ToString(q.MetricStat.Stat) == "Maximum" &&
			aws.ToInt32(q.MetricStat.Period) == 300
	})).Return(&cloudwatch.GetMetricDataOutput{}, nil)

	samples, err := NewFeed(api).FetchSamples(ctx, query(24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, samples, 288)
	for _, s := range samples {
		assert.Equal(t, schema.HealthNoData, s.Status)
	}
}

func TestFetchSamples_Errors(t *testing.T) {
	ctx := context.Background()
	feed := NewFeed(&MockMetricDataAPI{})

	_, err := feed.FetchSamples(ctx, schema.HealthQuery{EnvironmentName: "e", Interval: time.Minute})
	assert.ErrorIs(t, err, schema.ErrInvalidWindow)

	q := query(time.Hour)
	q.Interval = 10 * time.Second
	_, err = feed.FetchSamples(ctx, q)
	assert.ErrorIs(t, err, schema.ErrInvalidInterval)

	q = query(time.Hour)
	q.EnvironmentName = ""
	_, err = feed.FetchSamples(ctx, q)
	assert.Error(t, err)

	api := &MockMetricDataAPI{}
	api.On("GetMetricData", ctx, mock.Anything).Return(nil, errors.New("throttled"))
	_, err = NewFeed(api).FetchSamples(ctx, query(time.Hour))
	assert.ErrorContains(t, err, "throttled")
}

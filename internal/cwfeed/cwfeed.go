// Package cwfeed reads Elastic Beanstalk environment health from CloudWatch.
package cwfeed

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/huangsam/dorametrics/internal/awsconf"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
)

const (
	namespace  = "AWS/ElasticBeanstalk"
	metricName = "EnvironmentHealth"
	dimension  = "EnvironmentName"
	statistic  = "Maximum"
	queryID    = "health"
)

// Elastic Beanstalk enhanced health values as published in EnvironmentHealth.
const (
	ebOK       = 0
	ebInfo     = 1
	ebUnknown  = 5
	ebNoData   = 10
	ebWarning  = 15
	ebDegraded = 20
	ebSevere   = 25
)

// MetricDataAPI is the subset of the CloudWatch client used by Feed.
type MetricDataAPI interface {
	GetMetricData(ctx context.Context, params *cloudwatch.GetMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.GetMetricDataOutput, error)
}

// Feed implements contract.HealthFeed over CloudWatch metrics.
type Feed struct {
	client MetricDataAPI
}

var _ contract.HealthFeed = &Feed{}

// NewFeed wraps an existing CloudWatch client.
func NewFeed(client MetricDataAPI) *Feed {
	return &Feed{client: client}
}

// New builds a CloudWatch client from AWS options.
func New(ctx context.Context, opts awsconf.Options) (*Feed, error) {
	cfg, err := awsconf.Load(ctx, opts)
	if err != nil {
		return nil, err
	}
	return NewFeed(cloudwatch.NewFromConfig(cfg)), nil
}

// FetchSamples returns one sample per interval in [Start, End). Periods without
// a datapoint become NoData so the series is regular.
func (f *Feed) FetchSamples(ctx context.Context, query schema.HealthQuery) ([]schema.HealthSample, error) {
	if query.Start.IsZero() || query.End.IsZero() || !query.Start.Before(query.End) {
		return nil, errors.Join(schema.ErrInvalidWindow, errors.New("cloudwatch queries need a bounded time range"))
	}
	if query.Interval < time.Minute {
		return nil, errors.Join(schema.ErrInvalidInterval, fmt.Errorf("cloudwatch period must be at least a minute, got %s", query.Interval))
	}
	if query.EnvironmentName == "" {
		return nil, errors.New("environment name is required for the cloudwatch health feed")
	}

	input := &cloudwatch.GetMetricDataInput{
		StartTime: aws.Time(query.Start),
		EndTime:   aws.Time(query.End),
		ScanBy:    types.ScanByTimestampAscending,
		MetricDataQueries: []types.MetricDataQuery{{
			Id: aws.String(queryID),
			MetricStat: &types.MetricStat{
				Metric: &types.Metric{
					Namespace:  aws.String(namespace),
					MetricName: aws.String(metricName),
					Dimensions: []types.Dimension{{
						Name:  aws.String(dimension),
						Value: aws.String(query.EnvironmentName),
					}},
				},
				Period: aws.Int32(int32(query.Interval / time.Second)),
				Stat:   aws.String(statistic),
			},
			ReturnData: aws.Bool(true),
		}},
	}

	observed := make(map[int64]schema.HealthStatus)
	paginator := cloudwatch.NewGetMetricDataPaginator(f.client, input)
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get metric data for %s: %w", query.EnvironmentName, err)
		}
		for _, result := range page.MetricDataResults {
			if aws.ToString(result.Id) != queryID {
				continue
			}
			for i, ts := range result.Timestamps {
				if i >= len(result.Values) {
					break
				}
				slot := slotIndex(query.Start, ts, query.Interval)
				if slot < 0 {
					continue
				}
				status := MapHealthValue(result.Values[i])
				// Keep the worst value if two datapoints land in one slot
				if prev, ok := observed[slot]; !ok || status > prev {
					observed[slot] = status
				}
			}
		}
	}

	samples := fillGaps(query, observed)
	contract.Logger().Debug().
		Str("environment", query.EnvironmentName).
		Int("datapoints", len(observed)).
		Int("samples", len(samples)).
		Msg("Loaded health samples from CloudWatch")
	return samples, nil
}

// MapHealthValue folds an EnvironmentHealth value into a health status.
// Unknown values map to an invalid status so the analyzer counts them.
func MapHealthValue(v float64) schema.HealthStatus {
	switch int(math.Round(v)) {
	case ebOK, ebInfo:
		return schema.HealthHealthy
	case ebWarning, ebDegraded:
		return schema.HealthDegraded
	case ebSevere:
		return schema.HealthUnhealthy
	case ebUnknown, ebNoData:
		return schema.HealthNoData
	default:
		return schema.HealthStatus(-1)
	}
}

func slotIndex(start, ts time.Time, interval time.Duration) int64 {
	if ts.Before(start) {
		return -1
	}
	return int64(ts.Sub(start) / interval)
}

func fillGaps(query schema.HealthQuery, observed map[int64]schema.HealthStatus) []schema.HealthSample {
	slots := int64(query.End.Sub(query.Start) / query.Interval)
	if query.End.Sub(query.Start)%query.Interval != 0 {
		slots++
	}
	samples := make([]schema.HealthSample, 0, slots)
	for i := range slots {
		status, ok := observed[i]
		if !ok {
			status = schema.HealthNoData
		}
		samples = append(samples, schema.HealthSample{
			Timestamp: query.Start.Add(time.Duration(i) * query.Interval).UTC(),
			Status:    status,
		})
	}
	return samples
}

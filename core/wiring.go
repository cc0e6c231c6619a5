package core

import (
	"context"
	"errors"
	"fmt"

	"github.com/huangsam/dorametrics/internal/awsconf"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/cwfeed"
	"github.com/huangsam/dorametrics/internal/ghsource"
	"github.com/huangsam/dorametrics/internal/ingest"
	"github.com/huangsam/dorametrics/internal/sink"
	"github.com/huangsam/dorametrics/schema"
)

// NewRecordSource builds the configured delivery record source. GitHub reads
// go through the record cache when one is configured.
func NewRecordSource(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (contract.RecordSource, error) {
	switch cfg.RecordSource {
	case schema.GitHubRecords:
		src, err := ghsource.NewSource(ghsource.NewAPI(ctx, cfg.GitHubToken), cfg.GitHubOwner, cfg.GitHubRepo, cfg.GitHubEnvironment)
		if err != nil {
			return nil, err
		}
		var store contract.CacheStore
		if mgr != nil {
			store = mgr.GetRecordStore()
		}
		return ghsource.NewCachedSource(src, store), nil
	case schema.CSVRecords, "":
		src, err := ingest.NewCSVSource(cfg.BuildsFile, cfg.CommitsFile, cfg.PullRequestsFile)
		if err != nil {
			return nil, err
		}
		return src, nil
	default:
		return nil, fmt.Errorf("unsupported record source %q", cfg.RecordSource)
	}
}

// NewHealthFeed builds the configured health feed.
func NewHealthFeed(ctx context.Context, cfg *contract.Config) (contract.HealthFeed, error) {
	switch cfg.HealthFeed {
	case schema.CloudWatchFeed:
		feed, err := cwfeed.New(ctx, awsOptions(cfg))
		if err != nil {
			return nil, err
		}
		return feed, nil
	case schema.CSVFeed, "":
		feed, err := ingest.NewCSVFeed(cfg.HealthFile)
		if err != nil {
			return nil, err
		}
		return feed, nil
	default:
		return nil, fmt.Errorf("unsupported health feed %q", cfg.HealthFeed)
	}
}

// NewSink fans reports out to every configured destination.
// Without --publish the result is an empty MultiSink.
func NewSink(ctx context.Context, cfg *contract.Config) (*sink.MultiSink, error) {
	if !cfg.Publish {
		return sink.NewMultiSink(), nil
	}

	var sinks []contract.ReportSink
	closeAll := func() { _ = sink.NewMultiSink(sinks...).Close() }

	if cfg.ReportDir != "" {
		fs, err := sink.NewFileSink(cfg.ReportDir)
		if err != nil {
			return nil, err
		}
		sinks = append(sinks, fs)
	}
	if cfg.S3Bucket != "" {
		s3, err := sink.NewS3SinkFromOptions(ctx, awsOptions(cfg), cfg.S3Bucket, cfg.S3Prefix, cfg.S3PathStyle)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, s3)
	}
	if cfg.NATSURL != "" {
		ns, err := sink.DialNATS(cfg.NATSURL, cfg.NATSSubject)
		if err != nil {
			closeAll()
			return nil, err
		}
		sinks = append(sinks, ns)
	}
	if len(sinks) == 0 {
		return nil, errors.New("publishing is enabled but no report sink is configured")
	}
	return sink.NewMultiSink(sinks...), nil
}

func awsOptions(cfg *contract.Config) awsconf.Options {
	return awsconf.Options{
		Region:          cfg.AWSRegion,
		Endpoint:        cfg.AWSEndpoint,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}
}

// Package core runs delivery and availability reports end to end: it fetches
// input, analyzes it, records the run and publishes the result.
package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/huangsam/dorametrics/core/dora"
	"github.com/huangsam/dorametrics/core/uptime"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/sink"
	"github.com/huangsam/dorametrics/internal/telemetry"
	"github.com/huangsam/dorametrics/schema"
)

// ErrPublish marks a report that was computed but could not be delivered to every sink.
var ErrPublish = errors.New("report publishing failed")

// Runner holds the collaborators a report run needs. Nil fields disable the
// matching step, except Records and Feed which the respective run requires.
type Runner struct {
	Records contract.RecordSource
	Feed    contract.HealthFeed
	Sink    contract.ReportSink
	Store   contract.AnalysisStore
	Metrics *telemetry.Recorder
	NewID   func() string
	Now     func() time.Time
}

// NewRunner wires a Runner for the given report kinds from configuration.
func NewRunner(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, metrics *telemetry.Recorder, kinds ...schema.ReportKind) (*Runner, error) {
	r := &Runner{Metrics: metrics, NewID: newReportID, Now: time.Now}
	if mgr != nil {
		r.Store = mgr.GetAnalysisStore()
	}

	for _, kind := range kinds {
		switch kind {
		case schema.DeliveryReportKind:
			records, err := NewRecordSource(ctx, cfg, mgr)
			if err != nil {
				return nil, fmt.Errorf("failed to configure record source: %w", err)
			}
			r.Records = records
		case schema.AvailabilityReportKind:
			feed, err := NewHealthFeed(ctx, cfg)
			if err != nil {
				return nil, fmt.Errorf("failed to configure health feed: %w", err)
			}
			r.Feed = feed
		}
	}

	out, err := NewSink(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure report sinks: %w", err)
	}
	if out.Len() > 0 {
		r.Sink = out
	}
	return r, nil
}

// Close releases sink connections.
func (r *Runner) Close() error {
	if c, ok := r.Sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// RunDelivery computes the delivery report for cfg.Window. A non-nil report
// with an error wrapping ErrPublish means only publishing failed.
func (r *Runner) RunDelivery(ctx context.Context, cfg *contract.Config) (*schema.DeliveryReport, error) {
	report, err := r.runDelivery(ctx, cfg)
	r.Metrics.CountRun(schema.DeliveryReportKind, err)
	return report, err
}

func (r *Runner) runDelivery(ctx context.Context, cfg *contract.Config) (*schema.DeliveryReport, error) {
	if r.Records == nil {
		return nil, errors.New("no record source configured")
	}
	reportID := r.NewID()
	analysisID := r.beginRun(ctx, cfg, schema.DeliveryReportKind, reportID)
	var completed int
	defer func() { r.endRun(analysisID, completed) }()

	records, err := r.Records.FetchRecords(ctx, cfg.Window)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch delivery records: %w", err)
	}
	result, err := dora.Analyze(records, cfg.Window)
	if err != nil {
		return nil, err
	}
	logWarnings(schema.DeliveryReportKind, "", result.Warnings)

	report := schema.NewDeliveryReport(reportID, result)
	if analysisID != 0 {
		if err := r.Store.RecordDeliveryReport(analysisID, report); err != nil {
			logTrackingError("RecordDeliveryReport", reportID, err)
		}
	}
	completed = 1
	r.Metrics.ObserveDelivery(report)

	key := deliveryKey(result.Frequency.Window)
	if err := r.publish(ctx, key, report); err != nil {
		return &report, err
	}
	return &report, nil
}

// RunAvailability computes one availability report per cfg.ReportDates entry,
// oldest first. Days whose samples cannot be fetched are left out and their
// errors joined into the returned error.
func (r *Runner) RunAvailability(ctx context.Context, cfg *contract.Config) ([]schema.AvailabilityReport, error) {
	reports, err := r.runAvailability(ctx, cfg)
	r.Metrics.CountRun(schema.AvailabilityReportKind, err)
	return reports, err
}

func (r *Runner) runAvailability(ctx context.Context, cfg *contract.Config) ([]schema.AvailabilityReport, error) {
	if r.Feed == nil {
		return nil, errors.New("no health feed configured")
	}
	if cfg.Interval <= 0 {
		return nil, schema.ErrInvalidInterval
	}
	if len(cfg.ReportDates) == 0 {
		return nil, errors.New("no report dates to analyze")
	}

	runID := r.NewID()
	analysisID := r.beginRun(ctx, cfg, schema.AvailabilityReportKind, runID)
	var completed int
	defer func() { r.endRun(analysisID, completed) }()
	days := r.analyzeDays(ctx, cfg)

	var reports []schema.AvailabilityReport
	var errs []error
	for _, d := range days {
		if d.err != nil {
			errs = append(errs, d.err)
			continue
		}
		reports = append(reports, d.report)
	}
	if len(reports) == 0 {
		return nil, errors.Join(errs...)
	}

	for _, report := range reports {
		if analysisID != 0 {
			if err := r.Store.RecordAvailabilityReport(analysisID, report); err != nil {
				logTrackingError("RecordAvailabilityReport", report.Date, err)
			}
		}
		key := sink.AvailabilityKey(report.ApplicationName, report.EnvironmentName, report.Date)
		if err := r.publish(ctx, key, report); err != nil {
			errs = append(errs, err)
		}
	}
	completed = len(reports)
	r.Metrics.ObserveAvailability(reports[len(reports)-1])

	return reports, errors.Join(errs...)
}

type dayResult struct {
	report schema.AvailabilityReport
	err    error
}

// analyzeDays fans the report dates out over cfg.Workers goroutines.
// Results keep the order of cfg.ReportDates.
func (r *Runner) analyzeDays(ctx context.Context, cfg *contract.Config) []dayResult {
	results := make([]dayResult, len(cfg.ReportDates))
	indexes := make(chan int, len(cfg.ReportDates))
	for i := range cfg.ReportDates {
		indexes <- i
	}
	close(indexes)

	var wg sync.WaitGroup
	for range max(1, min(cfg.Workers, len(cfg.ReportDates))) {
		wg.Go(func() {
			for i := range indexes {
				report, err := r.analyzeDay(ctx, cfg, cfg.ReportDates[i])
				results[i] = dayResult{report: report, err: err}
			}
		})
	}
	wg.Wait()
	return results
}

func (r *Runner) analyzeDay(ctx context.Context, cfg *contract.Config, day time.Time) (schema.AvailabilityReport, error) {
	day = schema.StartOfDay(day)
	date := schema.FormatDate(day)
	query := schema.HealthQuery{
		EnvironmentName: cfg.EnvironmentName,
		ApplicationName: cfg.ApplicationName,
		Start:           day,
		End:             day.Add(24 * time.Hour),
		Interval:        cfg.Interval,
	}

	samples, err := r.Feed.FetchSamples(ctx, query)
	if err != nil {
		return schema.AvailabilityReport{}, fmt.Errorf("failed to fetch health samples for %s: %w", date, err)
	}
	result, err := uptime.Analyze(samples, cfg.Interval)
	if err != nil {
		return schema.AvailabilityReport{}, fmt.Errorf("failed to analyze %s: %w", date, err)
	}
	logWarnings(schema.AvailabilityReportKind, date, result.Warnings)

	return schema.NewAvailabilityReport(schema.ReportMeta{
		ReportID:        r.NewID(),
		Date:            date,
		EnvironmentName: cfg.EnvironmentName,
		ApplicationName: cfg.ApplicationName,
	}, result), nil
}

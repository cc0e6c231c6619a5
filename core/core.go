package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/outwriter"
	"github.com/huangsam/dorametrics/internal/scheduler"
	"github.com/huangsam/dorametrics/internal/telemetry"
	"github.com/huangsam/dorametrics/schema"
)

// ExecutorFunc defines the function signature for executing a command.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteDelivery computes the delivery report and prints it.
// It serves as the main entry point for the 'delivery' command.
func ExecuteDelivery(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	runner, err := NewRunner(ctx, cfg, mgr, nil, schema.DeliveryReportKind)
	if err != nil {
		return err
	}
	defer closeRunner(runner)

	report, runErr := runner.RunDelivery(ctx, cfg)
	if report == nil {
		return runErr
	}
	if err := outwriter.NewOutWriter().WriteDelivery(*report, cfg, time.Since(start)); err != nil {
		return err
	}
	return runErr
}

// ExecuteAvailability computes one availability report per requested day and prints them.
// It serves as the main entry point for the 'availability' command.
func ExecuteAvailability(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	start := time.Now()
	runner, err := NewRunner(ctx, cfg, mgr, nil, schema.AvailabilityReportKind)
	if err != nil {
		return err
	}
	defer closeRunner(runner)

	reports, runErr := runner.RunAvailability(ctx, cfg)
	if len(reports) == 0 {
		return runErr
	}
	if err := outwriter.NewOutWriter().WriteAvailability(reports, cfg, time.Since(start)); err != nil {
		return err
	}
	return runErr
}

// ExecuteSchedule runs every configured report on cfg.Cron until ctx is done,
// serving Prometheus metrics on cfg.MetricsAddr when set.
func ExecuteSchedule(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	kinds := ScheduledKinds(cfg)
	if len(kinds) == 0 {
		return errors.New("nothing to schedule: configure a record source or a health feed")
	}

	metrics := telemetry.NewRecorder(nil)
	runner, err := NewRunner(ctx, cfg, mgr, metrics, kinds...)
	if err != nil {
		return err
	}
	defer closeRunner(runner)

	ctx = WithTrigger(ctx, TriggerSchedule)
	sched, err := scheduler.New(cfg.Cron, ScheduledJobs(runner, cfg, time.Now)...)
	if err != nil {
		return err
	}

	serveErr := make(chan error, 1)
	if cfg.MetricsAddr != "" {
		go func() { serveErr <- metrics.Serve(ctx, cfg.MetricsAddr) }()
	}

	if err := sched.Start(ctx); err != nil {
		return err
	}
	defer sched.Stop()
	contract.Logger().Info().
		Str("cron", cfg.Cron).
		Time("next_run", sched.NextRun()).
		Msg("Waiting for next run")

	select {
	case <-ctx.Done():
		contract.Logger().Info().Msg("Scheduler stopping")
		return nil
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("metrics server failed: %w", err)
		}
		<-ctx.Done()
		return nil
	}
}

// ScheduledKinds lists the reports whose inputs are configured.
func ScheduledKinds(cfg *contract.Config) []schema.ReportKind {
	var kinds []schema.ReportKind
	if cfg.RecordSource == schema.GitHubRecords || cfg.BuildsFile != "" {
		kinds = append(kinds, schema.DeliveryReportKind)
	}
	if cfg.HealthFeed == schema.CloudWatchFeed || cfg.HealthFile != "" {
		kinds = append(kinds, schema.AvailabilityReportKind)
	}
	return kinds
}

// ScheduledJobs builds one job per configured report. Each tick reports on
// yesterday for availability and on the trailing cfg.Lookback ending at
// midnight for delivery, both in UTC.
func ScheduledJobs(runner *Runner, cfg *contract.Config, now func() time.Time) []scheduler.Job {
	var jobs []scheduler.Job
	if runner.Records != nil {
		jobs = append(jobs, scheduler.Job{
			Name: string(schema.DeliveryReportKind),
			Run: func(ctx context.Context) error {
				tick := cfg.Clone()
				end := schema.StartOfDay(now().UTC())
				tick.Window = schema.Window{Start: end.Add(-cfg.Lookback), End: end.Add(-time.Nanosecond)}
				report, err := runner.RunDelivery(ctx, tick)
				if report != nil {
					contract.Logger().Info().
						Str("report_id", report.ReportID).
						Float64("deployment_frequency", report.DeploymentFrequency).
						Float64("lead_time_minutes", report.LeadTimeMinutes).
						Float64("change_failure_rate", report.ChangeFailureRate).
						Msg("Delivery report completed")
				}
				return err
			},
		})
	}
	if runner.Feed != nil {
		jobs = append(jobs, scheduler.Job{
			Name: string(schema.AvailabilityReportKind),
			Run: func(ctx context.Context) error {
				tick := cfg.Clone()
				tick.ReportDates = []time.Time{schema.StartOfDay(now().UTC()).AddDate(0, 0, -1)}
				reports, err := runner.RunAvailability(ctx, tick)
				for _, r := range reports {
					contract.Logger().Info().
						Str("report_id", r.ReportID).
						Str("date", r.Date).
						Str("status", string(r.Status)).
						Float64("uptime_percentage", r.Metrics.UptimePercentage).
						Msg("Availability report completed")
				}
				return err
			},
		})
	}
	return jobs
}

func closeRunner(r *Runner) {
	if err := r.Close(); err != nil {
		contract.LogWarn("Failed to close report sinks", err)
	}
}

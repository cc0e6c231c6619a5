package core

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/sink"
	"github.com/huangsam/dorametrics/schema"
)

// newReportID returns a random UUID identifying one report.
func newReportID() string {
	return uuid.NewString()
}

// publish serializes the report once and hands it to the sink.
func (r *Runner) publish(ctx context.Context, key string, report any) error {
	if r.Sink == nil {
		return nil
	}
	payload, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, key, err)
	}
	if err := r.Sink.Deliver(ctx, key, payload); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrPublish, key, err)
	}
	contract.Logger().Info().Str("key", key).Int("bytes", len(payload)).Msg("Published report")
	return nil
}

// beginRun records the start of a run. Zero means the run is not tracked.
func (r *Runner) beginRun(ctx context.Context, cfg *contract.Config, kind schema.ReportKind, reportID string) int64 {
	if r.Store == nil {
		return 0
	}
	analysisID, err := r.Store.BeginAnalysis(kind, reportID, r.Now(), runParams(ctx, cfg, kind))
	if err != nil {
		logTrackingError("BeginAnalysis", reportID, err)
		return 0
	}
	return analysisID
}

func (r *Runner) endRun(analysisID int64, total int) {
	if analysisID == 0 {
		return
	}
	if err := r.Store.EndAnalysis(analysisID, r.Now(), total); err != nil {
		logTrackingError("EndAnalysis", fmt.Sprint(analysisID), err)
	}
}

// runParams captures the inputs that shaped a run.
func runParams(ctx context.Context, cfg *contract.Config, kind schema.ReportKind) map[string]any {
	params := map[string]any{
		"trigger": triggerFromContext(ctx),
		"publish": cfg.Publish,
	}
	switch kind {
	case schema.DeliveryReportKind:
		params["record_source"] = string(cfg.RecordSource)
		if !cfg.Window.IsZero() {
			params["window_start"] = schema.FormatTimestamp(cfg.Window.Start)
			params["window_end"] = schema.FormatTimestamp(cfg.Window.End)
		}
		if cfg.RecordSource == schema.GitHubRecords {
			params["github_repo"] = cfg.GitHubOwner + "/" + cfg.GitHubRepo
		}
	case schema.AvailabilityReportKind:
		params["health_feed"] = string(cfg.HealthFeed)
		params["environment"] = cfg.EnvironmentName
		params["application"] = cfg.ApplicationName
		params["interval"] = cfg.Interval.String()
		params["days"] = len(cfg.ReportDates)
	}
	return params
}

// deliveryKey names a delivery report by its inclusive date range.
func deliveryKey(w schema.Window) string {
	if w.IsZero() {
		return sink.DeliveryKey("none", "none")
	}
	return sink.DeliveryKey(schema.FormatDate(w.Start), schema.FormatDate(w.End))
}

func logWarnings(kind schema.ReportKind, subject string, warnings []schema.Warning) {
	if len(warnings) == 0 {
		return
	}
	counts := schema.CountWarnings(warnings)
	contract.Logger().Warn().
		Str("kind", string(kind)).
		Str("subject", subject).
		Int("malformed_records", counts.MalformedRecords).
		Int("unresolved_references", counts.UnresolvedReferences).
		Int("negative_lead_times", counts.NegativeLeadTimes).
		Int("empty_input", counts.EmptyInput).
		Msg("Analysis completed with data warnings")
	for _, w := range warnings {
		contract.Logger().Debug().
			Str("warning", string(w.Kind)).
			Str("subject", w.Subject).
			Msg(w.Detail)
	}
}

// logTrackingError logs analysis store failures without disrupting the run.
func logTrackingError(operation, subject string, err error) {
	contract.LogWarn(fmt.Sprintf("Analysis tracking failed for %s on %s", operation, subject), err)
}

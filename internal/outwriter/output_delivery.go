package outwriter

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteDeliveryReport outputs a delivery report, dispatching based on the output format configured.
func WriteDeliveryReport(report schema.DeliveryReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := floatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, report)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDeliveryCSV(w, report, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDeliveryTable(w, report, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

// writeDeliveryTable prints the headline metrics followed by the lead time samples.
func writeDeliveryTable(w io.Writer, r schema.DeliveryReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	window := "inferred from builds"
	if r.WindowStart != "" {
		window = r.WindowStart + " .. " + r.WindowEnd
	}
	if _, err := fmt.Fprintf(w, "%s (%s)\n", heading("🚀", "DORA delivery metrics", cfg), window); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.Header([]string{"Metric", "Value", "Level"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.PerColumn = []tw.Align{tw.AlignLeft, tw.AlignRight, tw.AlignLeft}
	})
	rows := [][]string{
		{"Deployment frequency (per day)", fmtFloat(r.DeploymentFrequency), tierLabel(r.PerformanceLevels.DeploymentFrequency, cfg)},
		{"Lead time for changes (min)", fmtFloat(r.LeadTimeMinutes), tierLabel(r.PerformanceLevels.LeadTime, cfg)},
		{"Change failure rate (%)", fmtFloat(r.ChangeFailureRate), tierLabel(r.PerformanceLevels.ChangeFailureRate, cfg)},
	}
	if err := table.Bulk(rows); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	d := r.Details
	if len(d.LeadTimeSamples) > 0 || len(d.LeadTimeAnomalies) > 0 {
		samples := tablewriter.NewWriter(w)
		samples.Header([]string{"PR", "Build", "First Commit", "Deployed", "Lead (min)"})
		samples.Configure(func(c *tablewriter.Config) {
			c.Row.Alignment.Global = tw.AlignRight
		})
		var data [][]string
		for _, s := range d.LeadTimeSamples {
			data = append(data, leadTimeRow(s, fmtFloat))
		}
		for _, s := range d.LeadTimeAnomalies {
			row := leadTimeRow(s, fmtFloat)
			row[4] += " (anomaly)"
			data = append(data, row)
		}
		if err := samples.Bulk(data); err != nil {
			return err
		}
		if err := samples.Render(); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Window: %d days, %d successful of %d builds (%d failed), %d excluded from lead time\n",
		d.WindowDays, d.SuccessfulDeployments, d.TotalBuilds, d.FailedBuilds, d.ExcludedFromLeadTime); err != nil {
		return err
	}
	if total := r.Warnings.Total(); total > 0 {
		if _, err := fmt.Fprintf(w, "%s: %d malformed, %d unresolved, %d negative lead times\n",
			heading("⚠️ ", "Warnings", cfg), r.Warnings.MalformedRecords, r.Warnings.UnresolvedReferences, r.Warnings.NegativeLeadTimes); err != nil {
			return err
		}
	}
	if r.NoData {
		if _, err := fmt.Fprintln(w, "No build data in the window; levels reflect empty input."); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v. Record source: %s\n", duration, cfg.RecordSource)
	return err
}

func leadTimeRow(s schema.LeadTimeEntry, fmtFloat func(float64) string) []string {
	return []string{
		"#" + strconv.Itoa(s.PRNumber),
		strconv.Itoa(s.BuildNumber),
		s.FirstCommitTime,
		s.DeploymentTime,
		fmtFloat(s.LeadTimeMinutes),
	}
}

// writeDeliveryCSV writes one row per metric so the file stays flat.
func writeDeliveryCSV(w io.Writer, r schema.DeliveryReport, fmtFloat func(float64) string) error {
	header := []string{"window_start", "window_end", "metric", "value", "level"}
	return writeCSV(w, header, [][]string{
		{r.WindowStart, r.WindowEnd, "deployment_frequency", fmtFloat(r.DeploymentFrequency), string(r.PerformanceLevels.DeploymentFrequency)},
		{r.WindowStart, r.WindowEnd, "lead_time_minutes", fmtFloat(r.LeadTimeMinutes), string(r.PerformanceLevels.LeadTime)},
		{r.WindowStart, r.WindowEnd, "change_failure_rate", fmtFloat(r.ChangeFailureRate), string(r.PerformanceLevels.ChangeFailureRate)},
	})
}

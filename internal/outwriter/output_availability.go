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

// WriteAvailabilityReports outputs availability reports, dispatching based on the output format configured.
// JSON output is a single object for one report and an array otherwise.
func WriteAvailabilityReports(reports []schema.AvailabilityReport, cfg *contract.Config, duration time.Duration) error {
	fmtFloat := floatFormatter(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			if len(reports) == 1 {
				return writeJSON(w, reports[0])
			}
			if reports == nil {
				reports = []schema.AvailabilityReport{}
			}
			return writeJSON(w, reports)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAvailabilityCSV(w, reports, fmtFloat)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeAvailabilityTable(w, reports, cfg, fmtFloat, duration)
		}, "Wrote table")
	}
	return nil
}

func writeAvailabilityTable(w io.Writer, reports []schema.AvailabilityReport, cfg *contract.Config, fmtFloat func(float64) string, duration time.Duration) error {
	if _, err := fmt.Fprintln(w, heading("📈", "Environment availability", cfg)); err != nil {
		return err
	}

	nameWidth := getMaxNameWidth(cfg)
	table := tablewriter.NewWriter(w)
	table.Header([]string{"Date", "Application", "Environment", "Uptime %", "Avail %", "Outage %", "Longest (min)", "Status"})
	table.Configure(func(c *tablewriter.Config) {
		c.Row.Alignment.Global = tw.AlignRight
	})

	var data [][]string
	var warnings int
	for _, r := range reports {
		m := r.Metrics
		status := statusLabel(r.Status, cfg)
		if r.NoData {
			status += " (no data)"
		}
		data = append(data, []string{
			r.Date,
			truncate(r.ApplicationName, nameWidth),
			truncate(r.EnvironmentName, nameWidth),
			fmtFloat(m.UptimePercentage),
			fmtFloat(m.AvailabilityPercentage),
			fmtFloat(m.OutagePercentage),
			fmtFloat(m.LongestContinuousOutageMinutes),
			status,
		})
		warnings += r.Warnings.Total()
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	// Outage windows only matter on a single-day view
	if len(reports) == 1 && reports[0].Metrics.OutageStartTime != nil {
		m := reports[0].Metrics
		if _, err := fmt.Fprintf(w, "Longest outage: %s .. %s\n", ptrOrEmpty(m.OutageStartTime), ptrOrEmpty(m.OutageEndTime)); err != nil {
			return err
		}
	}
	if warnings > 0 {
		if _, err := fmt.Fprintf(w, "%s: %d samples skipped as malformed\n", heading("⚠️ ", "Warnings", cfg), warnings); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Showing %d reports. Analysis completed in %v with %d workers. Health feed: %s\n",
		len(reports), duration, cfg.Workers, cfg.HealthFeed)
	return err
}

func writeAvailabilityCSV(w io.Writer, reports []schema.AvailabilityReport, fmtFloat func(float64) string) error {
	header := []string{
		"date",
		"application_name",
		"environment_name",
		"total_data_points",
		"uptime_percentage",
		"availability_percentage",
		"outage_percentage",
		"longest_continuous_outage_minutes",
		"outage_start_time",
		"outage_end_time",
		"status",
		"green_percentage",
		"yellow_percentage",
		"red_percentage",
		"no_data_percentage",
	}
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		m, b := r.Metrics, r.StatusBreakdown
		rows = append(rows, []string{
			r.Date,
			r.ApplicationName,
			r.EnvironmentName,
			strconv.Itoa(m.TotalDataPoints),
			fmtFloat(m.UptimePercentage),
			fmtFloat(m.AvailabilityPercentage),
			fmtFloat(m.OutagePercentage),
			fmtFloat(m.LongestContinuousOutageMinutes),
			ptrOrEmpty(m.OutageStartTime),
			ptrOrEmpty(m.OutageEndTime),
			string(r.Status),
			fmtFloat(b.GreenPercentage),
			fmtFloat(b.YellowPercentage),
			fmtFloat(b.RedPercentage),
			fmtFloat(b.NoDataPercentage),
		})
	}
	return writeCSV(w, header, rows)
}

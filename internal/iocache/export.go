package iocache

import (
	"errors"
	"fmt"
	"io"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/internal/parquet"
)

// ExecuteAnalysisExport writes every stored run and report row to three Parquet files
// named after outputFile. Progress lines go to w.
func ExecuteAnalysisExport(store contract.AnalysisStore, outputFile string, w io.Writer) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis store is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(w, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(w, "Total report runs: %d\n", status.TotalRuns)

	runs, err := store.GetAllReportRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve report runs: %w", err)
	}
	availability, err := store.GetAllAvailabilityRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve availability reports: %w", err)
	}
	delivery, err := store.GetAllDeliveryRecords()
	if err != nil {
		return fmt.Errorf("failed to retrieve delivery reports: %w", err)
	}

	runsFile := outputFile + ".report_runs.parquet"
	if err := parquet.WriteReportRunsParquet(parquet.ConvertReportRunRecords(runs), runsFile); err != nil {
		return fmt.Errorf("failed to write report runs: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d report runs to: %s\n", len(runs), runsFile)

	availabilityFile := outputFile + ".availability_reports.parquet"
	if err := parquet.WriteAvailabilityParquet(parquet.ConvertAvailabilityRecords(availability), availabilityFile); err != nil {
		return fmt.Errorf("failed to write availability reports: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d availability rows to: %s\n", len(availability), availabilityFile)

	deliveryFile := outputFile + ".delivery_reports.parquet"
	if err := parquet.WriteDeliveryParquet(parquet.ConvertDeliveryRecords(delivery), deliveryFile); err != nil {
		return fmt.Errorf("failed to write delivery reports: %w", err)
	}
	_, _ = fmt.Fprintf(w, "Exported %d delivery rows to: %s\n", len(delivery), deliveryFile)
	return nil
}

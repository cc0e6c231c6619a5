package cmd

import (
	"github.com/huangsam/dorametrics/core"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/spf13/cobra"
)

// availabilityCmd computes daily availability reports.
var availabilityCmd = &cobra.Command{
	Use:   "availability",
	Short: "Show uptime, availability and the longest outage per day.",
	Long: `Compute availability reports for one UTC day or a range of days.

Health samples come from a CSV export or from the Elastic Beanstalk
EnvironmentHealth metric in CloudWatch. Each day is reported separately;
without --date, --start or --end the report covers yesterday.

Reports:
- Uptime (healthy share) and availability (healthy or degraded share)
- A green/yellow/red/no-data breakdown that sums to 100
- The longest continuous outage and its bounds
- An overall status: Operational, Degraded Performance or Partial Outage

Examples:
  # Yesterday from CloudWatch
  dorametrics availability --health-feed cloudwatch --environment shop-prod --application shop

  # One week from a CSV export, four days at a time
  dorametrics availability --health-file health.csv --start 2025-04-01 --end 2025-04-07 --workers 4

  # Publish reports to a directory and NATS
  dorametrics availability --date "1 day ago" --publish --report-dir reports --nats-url nats://localhost:4222`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAvailability(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run availability analysis", err)
		}
	},
}

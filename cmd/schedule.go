package cmd

import (
	"github.com/huangsam/dorametrics/core"
	"github.com/spf13/cobra"
)

// scheduleCmd runs the reports on a cron schedule.
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Run the reports on a cron schedule and expose Prometheus metrics.",
	Long: `Run every configured report on a cron schedule until interrupted.

On each tick:
- The availability report covers the previous UTC day
- The delivery report covers --lookback ending at midnight UTC
- Reports go to every configured sink

A report is scheduled when its input is configured: --builds-file or
--record-source github for delivery, --health-file or --health-feed
cloudwatch for availability.

Examples:
  # Daily at 01:00 UTC, publishing to S3 and serving metrics
  dorametrics schedule --cron "0 1 * * *" --health-feed cloudwatch \
    --environment shop-prod --s3-bucket reports --metrics-addr :9090`,
	PreRunE: sharedSetupWrapper,
	RunE: func(_ *cobra.Command, _ []string) error {
		if cfg.HasSinks() {
			cfg.Publish = true
		}
		return core.ExecuteSchedule(rootCtx, cfg, cacheManager)
	},
}

package cmd

import (
	"github.com/huangsam/dorametrics/core"
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/spf13/cobra"
)

// deliveryCmd computes the DORA delivery metrics.
var deliveryCmd = &cobra.Command{
	Use:   "delivery",
	Short: "Show deployment frequency, lead time and change failure rate.",
	Long: `Compute the DORA delivery metrics over a time window.

Builds, commits and pull requests come from CSV exports or from GitHub
deployments and pull requests. Without --start, --end or --lookback the
window is inferred from the builds.

Reports:
- Deployment frequency (successful builds per day)
- Lead time for changes (first PR commit to deployment)
- Change failure rate (failed builds over all builds)
- A performance tier for each metric

Examples:
  # Metrics for the builds in a CSV export
  dorametrics delivery --builds-file builds.csv --commits-file commits.csv --pull-requests-file prs.csv

  # The last 30 days of GitHub deployments to production
  dorametrics delivery --record-source github --github-owner acme --github-repo shop \
    --github-environment production --lookback "30 days"

  # Publish the JSON report to S3
  dorametrics delivery --output json --publish --s3-bucket reports`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDelivery(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run delivery analysis", err)
		}
	},
}

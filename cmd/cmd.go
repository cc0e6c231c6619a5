// Package cmd defines the command-line interface for dorametrics.
package cmd

import (
	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(deliveryCmd)
	rootCmd.AddCommand(availabilityCmd)
	rootCmd.AddCommand(scheduleCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(mcpCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	flags := rootCmd.PersistentFlags()
	flags.String("config", "", "Path to config file")
	flags.String("output", string(schema.TextOut), "Output format: text or csv or json")
	flags.String("output-file", "", "Optional path to write output to")
	flags.Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	flags.Int("workers", contract.DefaultWorkers, "Number of concurrent workers")
	flags.Int("width", 0, "Terminal width override (0 = auto-detect)")
	flags.String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	flags.String("emoji", "no", "Enable emoji headings in output (yes/no/true/false/1/0)")
	flags.String("log-level", "info", "Log level: debug or info or warn or error")
	flags.String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or none")
	flags.String("cache-db-connect", "", "Database connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname)")
	flags.String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	flags.String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")

	// Time window
	flags.String("start", "", "Start date in ISO8601 or time ago")
	flags.String("end", "", "End date in ISO8601 or time ago (inclusive)")
	flags.String("date", "", "Single availability report day in ISO8601 or time ago")
	flags.String("lookback", "", "Trailing window such as '30 days' (default 30 days for schedule)")

	// Delivery records
	flags.String("record-source", string(schema.CSVRecords), "Record source: csv or github")
	flags.String("builds-file", "", "CSV of CI builds")
	flags.String("commits-file", "", "CSV of commits")
	flags.String("pull-requests-file", "", "CSV of pull requests")
	flags.String("github-owner", "", "GitHub repository owner")
	flags.String("github-repo", "", "GitHub repository name")
	flags.String("github-token", "", "GitHub token (prefer DORAMETRICS_GITHUB_TOKEN)")
	flags.String("github-environment", "", "Only count deployments to this GitHub environment")

	// Health feed
	flags.String("health-feed", string(schema.CSVFeed), "Health feed: csv or cloudwatch")
	flags.String("health-file", "", "CSV of health samples")
	flags.String("environment", "", "Environment name")
	flags.String("application", "", "Application name")
	flags.String("interval", contract.DefaultInterval.String(), "Sampling interval such as 5m or '5 minutes'")
	flags.String("aws-region", contract.DefaultRegion, "AWS region for CloudWatch and S3")
	flags.String("aws-endpoint", "", "AWS endpoint override (e.g., LocalStack)")
	flags.String("aws-access-key-id", "", "Static AWS access key (prefer the default credential chain)")
	flags.String("aws-secret-access-key", "", "Static AWS secret key (prefer DORAMETRICS_AWS_SECRET_ACCESS_KEY)")

	// Report sinks
	flags.Bool("publish", false, "Publish finished reports to the configured sinks")
	flags.String("s3-bucket", "", "S3 bucket for published reports")
	flags.String("s3-prefix", "", "Key prefix inside the S3 bucket")
	flags.Bool("s3-path-style", false, "Use path-style S3 addressing")
	flags.String("nats-url", "", "NATS server URL for report notifications")
	flags.String("nats-subject", contract.DefaultNATSSubject, "NATS subject prefix")
	flags.String("report-dir", "", "Directory for published report files")
	if err := viper.BindPFlags(flags); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of scheduleCmd to Viper
	scheduleCmd.Flags().String("cron", contract.DefaultCron, "Standard cron expression, evaluated in UTC")
	scheduleCmd.Flags().String("metrics-addr", "", "Address to serve Prometheus /metrics on (e.g., :9090)")
	if err := viper.BindPFlags(scheduleCmd.Flags()); err != nil {
		contract.LogFatal("Error binding schedule flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}

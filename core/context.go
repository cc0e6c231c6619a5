package core

import "context"

// Context keys for run options
type contextKey string

const triggerKey contextKey = "trigger"

// Triggers recorded with each report run.
const (
	TriggerCLI      = "cli"
	TriggerSchedule = "schedule"
	TriggerMCP      = "mcp"
)

// WithTrigger marks what started the run so it is stored with the run record.
func WithTrigger(ctx context.Context, trigger string) context.Context {
	return context.WithValue(ctx, triggerKey, trigger)
}

// triggerFromContext returns the run trigger, defaulting to the CLI.
func triggerFromContext(ctx context.Context) string {
	val := ctx.Value(triggerKey)
	if val == nil {
		return TriggerCLI
	}
	trigger, ok := val.(string)
	if !ok || trigger == "" {
		return TriggerCLI
	}
	return trigger
}

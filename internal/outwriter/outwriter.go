// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WriteDelivery prints a delivery report using the configured output format.
func (ow *OutWriter) WriteDelivery(report schema.DeliveryReport, cfg *contract.Config, duration time.Duration) error {
	return WriteDeliveryReport(report, cfg, duration)
}

// WriteAvailability prints availability reports using the configured output format.
func (ow *OutWriter) WriteAvailability(reports []schema.AvailabilityReport, cfg *contract.Config, duration time.Duration) error {
	return WriteAvailabilityReports(reports, cfg, duration)
}

// getMaxNameWidth calculates the maximum width for environment and application
// names in table output based on terminal width.
func getMaxNameWidth(cfg *contract.Config) int {
	termWidth := cfg.Width
	if termWidth <= 0 {
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Date + five numeric columns + status with borders/padding
	available := (termWidth - 95) / 2
	if available < 10 {
		return 10
	}
	if available > 40 {
		return 40
	}
	return available
}

// truncate shortens s to width runes, marking the cut with an ellipsis.
func truncate(s string, width int) string {
	runes := []rune(s)
	if len(runes) <= width || width < 4 {
		return s
	}
	return string(runes[:width-3]) + "..."
}

func tierLabel(tier schema.Tier, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorTier(tier)
	}
	return string(tier)
}

func statusLabel(status schema.EnvironmentStatus, cfg *contract.Config) string {
	if cfg.UseColors {
		return contract.GetColorStatus(status)
	}
	return string(status)
}

func heading(emoji, text string, cfg *contract.Config) string {
	if cfg.UseEmojis {
		return emoji + " " + text
	}
	return text
}

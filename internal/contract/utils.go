package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/huangsam/dorametrics/schema"
)

// Color variables for console output.
var (
	EliteColor  = color.New(color.FgGreen, color.Bold) // best tier or healthy environment
	HighColor   = color.New(color.FgCyan)              // good, not best
	MediumColor = color.New(color.FgYellow)            // needs attention
	LowColor    = color.New(color.FgRed, color.Bold)   // worst tier or outage
	NoDataColor = color.New(color.FgHiBlack)
)

// GetColorTier returns a colored tier label for console output (table).
func GetColorTier(tier schema.Tier) string {
	text := string(tier)
	switch tier {
	case schema.TierElite, schema.TierEliteAboveThreshold:
		return EliteColor.Sprint(text)
	case schema.TierHigh:
		return HighColor.Sprint(text)
	case schema.TierMedium:
		return MediumColor.Sprint(text)
	case schema.TierLow:
		return LowColor.Sprint(text)
	default:
		return NoDataColor.Sprint(text)
	}
}

// GetColorStatus returns a colored environment status for console output.
func GetColorStatus(status schema.EnvironmentStatus) string {
	text := string(status)
	switch status {
	case schema.StatusOperational:
		return EliteColor.Sprint(text)
	case schema.StatusDegraded:
		return MediumColor.Sprint(text)
	default:
		return LowColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means os.Stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".dorametrics_cache.db"
	}
	return filepath.Join(homeDir, ".dorametrics_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".dorametrics_analysis.db"
	}
	return filepath.Join(homeDir, ".dorametrics_analysis.db")
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// Package schema has configs, models and global variables for all parts of dorametrics.
package schema

import (
	"errors"
	"time"
)

// Structural errors. These are the only failures that abort an analysis.
var (
	ErrInvalidWindow   = errors.New("invalid analysis window")
	ErrInvalidInterval = errors.New("sampling interval must be positive")
)

// HealthStatus is a discretized point-in-time health observation.
type HealthStatus int

// Health statuses in ordinal order.
const (
	HealthNoData    HealthStatus = 0
	HealthHealthy   HealthStatus = 1
	HealthDegraded  HealthStatus = 2
	HealthUnhealthy HealthStatus = 3
)

// Valid reports whether the status is one of the four known values.
func (s HealthStatus) Valid() bool {
	return s >= HealthNoData && s <= HealthUnhealthy
}

// String returns the color name used in status breakdowns.
func (s HealthStatus) String() string {
	switch s {
	case HealthNoData:
		return "no_data"
	case HealthHealthy:
		return "green"
	case HealthDegraded:
		return "yellow"
	case HealthUnhealthy:
		return "red"
	default:
		return "invalid"
	}
}

// BuildRecord is one CI build event. It is the source of truth for deployments.
type BuildRecord struct {
	JobName       string        `json:"job_name"`
	BuildNumber   int           `json:"build_number"`
	Result        BuildResult   `json:"result"`
	Timestamp     time.Time     `json:"timestamp"` // zero when the source value could not be parsed
	Duration      time.Duration `json:"duration"`
	TriggeredBy   string        `json:"triggered_by"`
	CommitID      string        `json:"commit_id"`
	CommitMessage string        `json:"commit_message"`
	Branch        string        `json:"branch"`
}

// CommitRecord is one source-control commit.
type CommitRecord struct {
	Hash      string    `json:"hash"`
	Author    string    `json:"author"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Tag       string    `json:"tag"` // branch-or-PR tag, e.g. "PR-42"
}

// PullRequestRecord is one pull request.
type PullRequestRecord struct {
	Number       int        `json:"number"`
	Title        string     `json:"title"`
	State        PRState    `json:"state"`
	CreatedAt    time.Time  `json:"created_at"`
	MergedAt     *time.Time `json:"merged_at,omitempty"`
	ClosedAt     *time.Time `json:"closed_at,omitempty"`
	Author       string     `json:"author"`
	SourceBranch string     `json:"source_branch"`
}

// HealthSample is a (timestamp, status) pair from the health feed.
type HealthSample struct {
	Timestamp time.Time    `json:"timestamp"`
	Status    HealthStatus `json:"status"`
}

// RecordSet bundles the three delivery relations fetched for one window.
type RecordSet struct {
	Builds       []BuildRecord
	Commits      []CommitRecord
	PullRequests []PullRequestRecord
}

// Window is an inclusive analysis window. A zero Window means "infer from data".
type Window struct {
	Start time.Time
	End   time.Time
}

// IsZero reports whether the window should be inferred.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Validate checks the window is structurally sound.
func (w Window) Validate() error {
	if w.IsZero() {
		return nil
	}
	if w.Start.IsZero() || w.End.IsZero() {
		return errors.Join(ErrInvalidWindow, errors.New("both start and end must be set"))
	}
	if w.Start.After(w.End) {
		return errors.Join(ErrInvalidWindow, errors.New("start is after end"))
	}
	return nil
}

// Contains reports whether t falls within the window (inclusive on both ends).
// A zero window contains everything.
func (w Window) Contains(t time.Time) bool {
	if w.IsZero() {
		return true
	}
	return !t.Before(w.Start) && !t.After(w.End)
}

// HealthQuery describes which samples a HealthFeed should return.
type HealthQuery struct {
	EnvironmentName string
	ApplicationName string
	Start           time.Time // inclusive
	End             time.Time // exclusive
	Interval        time.Duration
}

// Warning is a non-fatal data problem attached to a report.
type Warning struct {
	Kind    WarningKind `json:"kind"`
	Subject string      `json:"subject"`
	Detail  string      `json:"detail"`
}

// WarningCounts tallies warnings by kind for the report summary.
type WarningCounts struct {
	MalformedRecords     int `json:"malformed_records"`
	UnresolvedReferences int `json:"unresolved_references"`
	NegativeLeadTimes    int `json:"negative_lead_times"`
	EmptyInput           int `json:"empty_input"`
}

// Total is the number of warnings across all kinds.
func (c WarningCounts) Total() int {
	return c.MalformedRecords + c.UnresolvedReferences + c.NegativeLeadTimes + c.EmptyInput
}

// CountWarnings builds WarningCounts from a warning list.
func CountWarnings(warnings []Warning) WarningCounts {
	var c WarningCounts
	for _, w := range warnings {
		switch w.Kind {
		case WarnMalformedRecord:
			c.MalformedRecords++
		case WarnUnresolvedReference:
			c.UnresolvedReferences++
		case WarnNegativeLeadTime:
			c.NegativeLeadTimes++
		case WarnEmptyInput:
			c.EmptyInput++
		}
	}
	return c
}

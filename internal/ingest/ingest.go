// Package ingest loads build, commit, pull request and health records from CSV exports.
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/huangsam/dorametrics/schema"
)

// ErrMissingColumn is returned when a CSV header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// timestampLayouts are tried in order. Layouts without a zone are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
}

// ParseTimestamp parses a timestamp field. Unparseable input yields the zero time,
// which the analyzers report as a malformed record.
func ParseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// parseOptionalTimestamp returns nil for an empty or unparseable field.
func parseOptionalTimestamp(s string) *time.Time {
	t := ParseTimestamp(s)
	if t.IsZero() {
		return nil
	}
	return &t
}

// parseDuration accepts Go duration syntax or a bare integer of milliseconds.
func parseDuration(s string) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Duration(ms) * time.Millisecond
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return 0
}

// table is a CSV body with a case-insensitive header index.
type table struct {
	columns map[string]int
	rows    [][]string
}

// readTable reads a whole CSV document and checks the required columns exist.
func readTable(r io.Reader, required ...string) (*table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty document", ErrMissingColumn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	t := &table{columns: make(map[string]int, len(header))}
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := t.columns[name]; !seen {
			t.columns[name] = i
		}
	}
	for _, name := range required {
		if _, ok := t.columns[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
	}

	t.rows, err = reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	return t, nil
}

// get returns the trimmed field for a column, or "" when absent.
func (t *table) get(row []string, column string) string {
	i, ok := t.columns[column]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// ReadBuilds parses build records. Required columns: job_name, build_number, result, timestamp.
// Duration is milliseconds or a Go duration string.
func ReadBuilds(r io.Reader) ([]schema.BuildRecord, error) {
	t, err := readTable(r, "job_name", "build_number", "result", "timestamp")
	if err != nil {
		return nil, err
	}
	builds := make([]schema.BuildRecord, 0, len(t.rows))
	for _, row := range t.rows {
		number, _ := strconv.Atoi(t.get(row, "build_number"))
		builds = append(builds, schema.BuildRecord{
			JobName:       t.get(row, "job_name"),
			BuildNumber:   number,
			Result:        schema.BuildResult(strings.ToUpper(t.get(row, "result"))),
			Timestamp:     ParseTimestamp(t.get(row, "timestamp")),
			Duration:      parseDuration(t.get(row, "duration")),
			TriggeredBy:   t.get(row, "triggered_by"),
			CommitID:      t.get(row, "commit_id"),
			CommitMessage: t.get(row, "commit_message"),
			Branch:        t.get(row, "branch"),
		})
	}
	return builds, nil
}

// ReadCommits parses commit records. Required columns: hash, timestamp, tag.
func ReadCommits(r io.Reader) ([]schema.CommitRecord, error) {
	t, err := readTable(r, "hash", "timestamp", "tag")
	if err != nil {
		return nil, err
	}
	commits := make([]schema.CommitRecord, 0, len(t.rows))
	for _, row := range t.rows {
		commits = append(commits, schema.CommitRecord{
			Hash:      t.get(row, "hash"),
			Author:    t.get(row, "author"),
			Timestamp: ParseTimestamp(t.get(row, "timestamp")),
			Message:   t.get(row, "message"),
			Tag:       t.get(row, "tag"),
		})
	}
	return commits, nil
}

// ReadPullRequests parses pull request records. Required columns: number, created_at.
func ReadPullRequests(r io.Reader) ([]schema.PullRequestRecord, error) {
	t, err := readTable(r, "number", "created_at")
	if err != nil {
		return nil, err
	}
	prs := make([]schema.PullRequestRecord, 0, len(t.rows))
	for _, row := range t.rows {
		number, _ := strconv.Atoi(strings.TrimPrefix(t.get(row, "number"), "#"))
		prs = append(prs, schema.PullRequestRecord{
			Number:       number,
			Title:        t.get(row, "title"),
			State:        schema.PRState(strings.ToUpper(t.get(row, "state"))),
			CreatedAt:    ParseTimestamp(t.get(row, "created_at")),
			MergedAt:     parseOptionalTimestamp(t.get(row, "merged_at")),
			ClosedAt:     parseOptionalTimestamp(t.get(row, "closed_at")),
			Author:       t.get(row, "author"),
			SourceBranch: t.get(row, "source_branch"),
		})
	}
	return prs, nil
}

// ReadHealthSamples parses health samples. Required columns: timestamp, status.
// A status outside 0..3 is kept as-is so the analyzer can flag it.
func ReadHealthSamples(r io.Reader) ([]schema.HealthSample, error) {
	t, err := readTable(r, "timestamp", "status")
	if err != nil {
		return nil, err
	}
	samples := make([]schema.HealthSample, 0, len(t.rows))
	for _, row := range t.rows {
		status, err := strconv.Atoi(t.get(row, "status"))
		if err != nil {
			status = -1
		}
		samples = append(samples, schema.HealthSample{
			Timestamp: ParseTimestamp(t.get(row, "timestamp")),
			Status:    schema.HealthStatus(status),
		})
	}
	return samples, nil
}

// readFile opens path and hands it to read.
func readFile[T any](path string, read func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	out, err := read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

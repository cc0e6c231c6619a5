package ingest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
)

// CSVSource reads delivery records from CSV exports on disk.
// Only the builds file is required; commits and pull requests enable lead time.
type CSVSource struct {
	buildsPath  string
	commitsPath string
	prsPath     string
}

var _ contract.RecordSource = &CSVSource{}

// NewCSVSource creates a source over the given files. Empty optional paths are skipped.
func NewCSVSource(buildsPath, commitsPath, prsPath string) (*CSVSource, error) {
	if buildsPath == "" {
		return nil, errors.New("a builds file is required for the csv record source")
	}
	return &CSVSource{buildsPath: buildsPath, commitsPath: commitsPath, prsPath: prsPath}, nil
}

// FetchRecords loads every record. The window is applied by the analyzer because
// lead time needs commits from before the window starts.
func (s *CSVSource) FetchRecords(ctx context.Context, _ schema.Window) (schema.RecordSet, error) {
	var records schema.RecordSet
	if err := ctx.Err(); err != nil {
		return records, err
	}

	builds, err := readFile(s.buildsPath, ReadBuilds)
	if err != nil {
		return records, err
	}
	records.Builds = builds

	if s.commitsPath != "" {
		if records.Commits, err = readFile(s.commitsPath, ReadCommits); err != nil {
			return records, err
		}
	}
	if s.prsPath != "" {
		if records.PullRequests, err = readFile(s.prsPath, ReadPullRequests); err != nil {
			return records, err
		}
	}

	contract.Logger().Debug().
		Int("builds", len(records.Builds)).
		Int("commits", len(records.Commits)).
		Int("pull_requests", len(records.PullRequests)).
		Msg("Loaded delivery records from CSV")
	return records, nil
}

// CSVFeed serves health samples from a CSV export. The file is parsed once and
// shared by concurrent callers.
type CSVFeed struct {
	path string

	once    sync.Once
	samples []schema.HealthSample
	anchors []time.Time
	err     error
}

var _ contract.HealthFeed = &CSVFeed{}

// NewCSVFeed creates a feed over a health sample file.
func NewCSVFeed(path string) (*CSVFeed, error) {
	if path == "" {
		return nil, errors.New("a health file is required for the csv health feed")
	}
	return &CSVFeed{path: path}, nil
}

// FetchSamples returns samples in [query.Start, query.End) in file order.
// Rows whose timestamp could not be parsed are returned with a zero timestamp
// alongside the row they are anchored to, so the analyzer reports them as
// malformed exactly once. Unbounded queries return every row.
func (f *CSVFeed) FetchSamples(ctx context.Context, query schema.HealthQuery) ([]schema.HealthSample, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.once.Do(func() {
		f.samples, f.err = readFile(f.path, ReadHealthSamples)
		if f.err == nil {
			f.anchors = anchorTimestamps(f.samples)
		}
	})
	if f.err != nil {
		return nil, f.err
	}
	if query.Start.IsZero() && query.End.IsZero() {
		return append([]schema.HealthSample(nil), f.samples...), nil
	}

	var out []schema.HealthSample
	var unparsed int
	for i, sample := range f.samples {
		at := f.anchors[i]
		if !at.IsZero() {
			if !query.Start.IsZero() && at.Before(query.Start) {
				continue
			}
			if !query.End.IsZero() && !at.Before(query.End) {
				continue
			}
		}
		if sample.Timestamp.IsZero() {
			unparsed++
		}
		out = append(out, sample)
	}
	if unparsed > 0 {
		contract.Logger().Warn().Str("file", f.path).Int("rows", unparsed).
			Time("start", query.Start).
			Msg("Health rows without a parseable timestamp")
	}
	return out, nil
}

// anchorTimestamps places every row on the timeline. Parsed rows keep their own
// timestamp; unparsed rows take the nearest parsed timestamp above them, or
// below them when none precedes. A file without any parsed timestamp leaves
// every anchor zero, which matches every query.
func anchorTimestamps(samples []schema.HealthSample) []time.Time {
	anchors := make([]time.Time, len(samples))
	var last time.Time
	for i, s := range samples {
		if !s.Timestamp.IsZero() {
			last = s.Timestamp
		}
		anchors[i] = last
	}
	var next time.Time
	for i := len(samples) - 1; i >= 0; i-- {
		if !samples[i].Timestamp.IsZero() {
			next = samples[i].Timestamp
		}
		if anchors[i].IsZero() {
			anchors[i] = next
		}
	}
	return anchors
}

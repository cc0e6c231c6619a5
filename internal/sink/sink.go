// Package sink delivers serialized reports to files, S3 and NATS JetStream.
package sink

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/huangsam/dorametrics/schema"
)

// AvailabilityKey is where a daily availability report is stored.
func AvailabilityKey(application, environment, date string) string {
	return fmt.Sprintf("%s/%s/%s/%s.json", schema.AvailabilityReportKind, keyPart(application), keyPart(environment), date)
}

// DeliveryKey is where a delivery report for [start, end] is stored.
func DeliveryKey(start, end string) string {
	return fmt.Sprintf("%s/%s_%s.json", schema.DeliveryReportKind, start, end)
}

// keyPart keeps user-supplied names from introducing extra path segments.
func keyPart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "default"
	}
	return strings.NewReplacer("/", "_", "\\", "_", "..", "_").Replace(s)
}

// FileSink writes each report to <dir>/<key>.
type FileSink struct {
	dir string
}

var _ contract.ReportSink = &FileSink{}

// NewFileSink creates a sink rooted at dir.
func NewFileSink(dir string) (*FileSink, error) {
	if dir == "" {
		return nil, errors.New("report directory is required")
	}
	return &FileSink{dir: dir}, nil
}

// Deliver writes the payload through a temp file so readers never see a partial report.
func (s *FileSink) Deliver(ctx context.Context, key string, payload []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsLocal(key) {
		return fmt.Errorf("report key %q escapes the report directory", key)
	}
	path := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create temp report: %w", err)
	}
	defer func() { _ = os.Remove(tmp.Name()) }()
	if _, err := tmp.Write(payload); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}

	contract.Logger().Debug().Str("path", path).Int("bytes", len(payload)).Msg("Wrote report file")
	return nil
}

// MultiSink fans a report out to several sinks. Every sink is attempted.
type MultiSink struct {
	sinks []contract.ReportSink
}

var _ contract.ReportSink = &MultiSink{}

// NewMultiSink combines sinks, skipping nil entries.
func NewMultiSink(sinks ...contract.ReportSink) *MultiSink {
	m := &MultiSink{}
	for _, s := range sinks {
		if s != nil {
			m.sinks = append(m.sinks, s)
		}
	}
	return m
}

// Len is the number of wrapped sinks.
func (m *MultiSink) Len() int {
	return len(m.sinks)
}

// Deliver implements contract.ReportSink and joins the failures of all sinks.
func (m *MultiSink) Deliver(ctx context.Context, key string, payload []byte) error {
	var errs []error
	for _, s := range m.sinks {
		if err := s.Deliver(ctx, key, payload); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", s, err))
		}
	}
	return errors.Join(errs...)
}

// Close releases sinks that hold connections.
func (m *MultiSink) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.(io.Closer); ok {
			errs = append(errs, c.Close())
		}
	}
	return errors.Join(errs...)
}

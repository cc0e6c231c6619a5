package sink

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/nats-io/nats.go"
)

// AsyncPublisher is the subset of nats.JetStreamContext used by NATSSink.
type AsyncPublisher interface {
	PublishAsync(subj string, data []byte, opts ...nats.PubOpt) (nats.PubAckFuture, error)
}

// NATSSink publishes reports to JetStream on <subject>.<kind>.<environment>.
type NATSSink struct {
	js      AsyncPublisher
	nc      *nats.Conn
	subject string
}

var _ contract.ReportSink = &NATSSink{}

// NewNATSSink wraps an existing JetStream context.
func NewNATSSink(js AsyncPublisher, subject string) (*NATSSink, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	return &NATSSink{js: js, subject: subject}, nil
}

// DialNATS connects to the server with reconnects enabled and returns a sink over JetStream.
func DialNATS(url, subject string) (*NATSSink, error) {
	log := contract.Logger()
	nc, err := nats.Connect(url,
		nats.Name("dorametrics"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(10),
		nats.ReconnectWait(2*time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				log.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to get JetStream context: %w", err)
	}

	sink, err := NewNATSSink(js, subject)
	if err != nil {
		nc.Close()
		return nil, err
	}
	sink.nc = nc
	return sink, nil
}

// Subject derives the publish subject from a report key such as
// "availability/shop/prod-env/2025-04-12.json".
func (s *NATSSink) Subject(key string) string {
	parts := strings.Split(key, "/")
	kind := subjectToken(parts[0])
	env := "all"
	if len(parts) == 4 {
		env = subjectToken(parts[2])
	}
	return s.subject + "." + kind + "." + env
}

// subjectToken replaces characters that carry meaning in NATS subjects.
func subjectToken(s string) string {
	s = strings.NewReplacer(".", "_", "*", "_", ">", "_", " ", "_").Replace(s)
	if s == "" {
		return "_"
	}
	return s
}

// Deliver publishes and waits for the stream acknowledgement.
func (s *NATSSink) Deliver(ctx context.Context, key string, payload []byte) error {
	subject := s.Subject(key)
	future, err := s.js.PublishAsync(subject, payload)
	if err != nil {
		return fmt.Errorf("failed to publish report to %s: %w", subject, err)
	}

	select {
	case ack := <-future.Ok():
		contract.Logger().Debug().Str("subject", subject).Str("stream", ack.Stream).Uint64("seq", ack.Sequence).
			Msg("Report published")
		return nil
	case err := <-future.Err():
		return fmt.Errorf("report publish to %s was not acknowledged: %w", subject, err)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close drains the connection when the sink owns one.
func (s *NATSSink) Close() error {
	if s.nc == nil {
		return nil
	}
	return s.nc.Drain()
}

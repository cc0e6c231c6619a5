package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	noop := Job{Name: "noop", Run: func(context.Context) error { return nil }}

	_, err := New("not a cron", noop)
	assert.ErrorContains(t, err, "invalid cron schedule")

	_, err = New("0 1 * * *")
	assert.Error(t, err)

	s, err := New("0 1 * * *", noop)
	require.NoError(t, err)
	assert.False(t, s.IsRunning())
	assert.True(t, s.NextRun().IsZero())
}

func TestTick(t *testing.T) {
	var order []string
	s, err := New("@daily",
		Job{Name: "availability", Run: func(context.Context) error {
			order = append(order, "availability")
			return errors.New("feed down")
		}},
		Job{Name: "delivery", Run: func(context.Context) error {
			order = append(order, "delivery")
			return nil
		}},
	)
	require.NoError(t, err)

	s.Tick(context.Background())
	assert.Equal(t, []string{"availability", "delivery"}, order, "a failing job does not stop the next")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	order = nil
	s.Tick(ctx)
	assert.Empty(t, order)
}

func TestStartStop(t *testing.T) {
	s, err := New("0 1 * * *", Job{Name: "noop", Run: func(context.Context) error { return nil }})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, s.Start(ctx))
	require.NoError(t, s.Start(ctx), "second start is a no-op")
	assert.True(t, s.IsRunning())

	next := s.NextRun()
	assert.Equal(t, 1, next.UTC().Hour())
	assert.Equal(t, 0, next.UTC().Minute())

	cancel()
	assert.Eventually(t, func() bool { return !s.IsRunning() }, time.Second, 10*time.Millisecond)
}

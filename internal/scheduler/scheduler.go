// Package scheduler triggers report runs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/huangsam/dorametrics/internal/contract"
	"github.com/robfig/cron/v3"
)

// Job is one named unit of work run on every tick.
type Job struct {
	Name string
	Run  func(ctx context.Context) error
}

// Scheduler runs its jobs in order on each tick of a standard cron expression.
type Scheduler struct {
	expr string
	jobs []Job
	cron *cron.Cron

	mu      sync.Mutex
	running bool
}

// New validates the cron expression and prepares a scheduler. Nothing runs until Start.
func New(expr string, jobs ...Job) (*Scheduler, error) {
	if _, err := cron.ParseStandard(expr); err != nil {
		return nil, fmt.Errorf("invalid cron schedule %q: %w", expr, err)
	}
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no jobs to schedule")
	}
	return &Scheduler{
		expr: expr,
		jobs: jobs,
		cron: cron.New(cron.WithLocation(time.UTC), cron.WithChain(cron.SkipIfStillRunning(cron.DefaultLogger))),
	}, nil
}

// Start registers the tick and begins scheduling. The scheduler stops when ctx is done.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return nil
	}

	if _, err := s.cron.AddFunc(s.expr, func() { s.Tick(ctx) }); err != nil {
		return fmt.Errorf("failed to schedule reports: %w", err)
	}
	s.cron.Start()
	s.running = true
	contract.Logger().Info().Str("schedule", s.expr).Int("jobs", len(s.jobs)).Msg("Scheduler started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Tick runs every job once. A failing job is logged and does not stop the others.
func (s *Scheduler) Tick(ctx context.Context) {
	for _, job := range s.jobs {
		if ctx.Err() != nil {
			return
		}
		start := time.Now()
		if err := job.Run(ctx); err != nil {
			contract.Logger().Error().Err(err).Str("job", job.Name).Msg("Scheduled report failed")
			continue
		}
		contract.Logger().Info().Str("job", job.Name).Dur("took", time.Since(start)).Msg("Scheduled report completed")
	}
}

// Stop halts scheduling and waits for a running tick to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return
	}
	<-s.cron.Stop().Done()
	s.running = false
	contract.Logger().Info().Msg("Scheduler stopped")
}

// IsRunning reports whether the scheduler has been started and not stopped.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// NextRun returns the next scheduled tick, or the zero time when not started.
func (s *Scheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

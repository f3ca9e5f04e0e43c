package services

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"fintrack/internal/log"
)

// Clock abstracts wall-clock access so the scheduler can be driven
// deterministically in tests without waiting for real midnights.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

func (systemClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// SystemClock returns a Clock backed by the real wall clock.
func SystemClock() Clock { return systemClock{} }

// Scheduler fires one materialization pass per calendar day at midnight in
// its configured location. It alternates between two states: idle, waiting
// for the next trigger, and running, executing a pass. The transition back
// to idle is unconditional; a pass never fails atomically.
//
// There is no cross-process coordination and no catch-up: a midnight missed
// while the process is down is skipped, and two scheduler processes may
// both materialize the same template on the same day.
type Scheduler struct {
	processor *RecurringProcessor
	clock     Clock
	loc       *time.Location
	running   atomic.Bool
}

// NewScheduler creates a scheduler. A nil clock means the system clock; a
// nil location means the process-local timezone.
func NewScheduler(processor *RecurringProcessor, clock Clock, loc *time.Location) *Scheduler {
	if clock == nil {
		clock = systemClock{}
	}
	if loc == nil {
		loc = time.Local
	}
	return &Scheduler{
		processor: processor,
		clock:     clock,
		loc:       loc,
	}
}

// NextRun returns the first midnight in the scheduler's location strictly
// after the given instant.
func (s *Scheduler) NextRun(after time.Time) time.Time {
	y, m, d := after.In(s.loc).Date()
	return time.Date(y, m, d+1, 0, 0, 0, 0, s.loc)
}

// Run blocks, triggering one pass per midnight until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	for {
		now := s.clock.Now()
		next := s.NextRun(now)
		slog.InfoContext(ctx, "Scheduler idle",
			log.FieldComponent, log.ComponentScheduler,
			"next_run", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-s.clock.After(next.Sub(now)):
			s.TriggerNow(ctx)
		}
	}
}

// TriggerNow runs a single pass immediately and returns its summary. It is
// the manual counterpart of the midnight trigger, exposed for operational
// use. A pass-level failure is logged and abandoned; the scheduler simply
// waits for the next trigger.
func (s *Scheduler) TriggerNow(ctx context.Context) PassSummary {
	s.running.Store(true)
	defer s.running.Store(false)

	summary, err := s.processor.RunPass(ctx, s.clock.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Recurring pass abandoned",
			log.FieldRunID, summary.RunID,
			log.FieldError, err)
	}
	return summary
}

// Running reports whether a pass is currently executing.
func (s *Scheduler) Running() bool { return s.running.Load() }

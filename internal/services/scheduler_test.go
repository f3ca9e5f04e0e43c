package services

import (
	"context"
	"testing"
	"time"

	"fintrack/internal/core"
)

// fakeClock drives the scheduler without real waits: Now is fixed and After
// fires whenever the test sends on the trigger channel.
type fakeClock struct {
	now     time.Time
	trigger chan time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(time.Duration) <-chan time.Time { return c.trigger }

func TestSchedulerNextRun(t *testing.T) {
	s := NewScheduler(nil, nil, time.UTC)

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{
			name:  "mid-day",
			after: time.Date(2024, 2, 5, 15, 30, 0, 0, time.UTC),
			want:  time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "exactly midnight rolls to next day",
			after: time.Date(2024, 2, 5, 0, 0, 0, 0, time.UTC),
			want:  time.Date(2024, 2, 6, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "month boundary",
			after: time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC),
			want:  time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:  "year boundary",
			after: time.Date(2024, 12, 31, 12, 0, 0, 0, time.UTC),
			want:  time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.NextRun(tt.after); !got.Equal(tt.want) {
				t.Fatalf("NextRun(%s) = %s, want %s", tt.after, got, tt.want)
			}
		})
	}
}

func TestSchedulerNextRun_ConvertsToLocation(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	s := NewScheduler(nil, nil, loc)

	// 23:00 UTC is already 01:00 the next day in UTC+2, so the next local
	// midnight is the day after.
	after := time.Date(2024, 2, 5, 23, 0, 0, 0, time.UTC)
	want := time.Date(2024, 2, 7, 0, 0, 0, 0, loc)
	if got := s.NextRun(after); !got.Equal(want) {
		t.Fatalf("NextRun(%s) = %s, want %s", after, got, want)
	}
}

func TestSchedulerTriggerNow(t *testing.T) {
	store := newFakeStore()
	tpl := rentTemplate()
	tpl.Frequency = core.Daily
	store.templates = []core.Transaction{tpl}

	clock := &fakeClock{now: time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)}
	s := NewScheduler(NewRecurringProcessor(store, nil, 0), clock, time.UTC)

	summary := s.TriggerNow(context.Background())
	if summary.Created != 1 {
		t.Fatalf("summary = %+v, want 1 created", summary)
	}
	if s.Running() {
		t.Error("scheduler must return to idle after a pass")
	}
}

func TestSchedulerTriggerNow_PassFailureReturnsToIdle(t *testing.T) {
	store := newFakeStore()
	store.listErr = context.DeadlineExceeded

	clock := &fakeClock{now: time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC)}
	s := NewScheduler(NewRecurringProcessor(store, nil, 0), clock, time.UTC)

	summary := s.TriggerNow(context.Background())
	if summary.Created != 0 {
		t.Fatalf("summary = %+v, want nothing created", summary)
	}
	if s.Running() {
		t.Error("scheduler must be idle after an abandoned pass")
	}
}

func TestSchedulerRun_FiresOnTrigger(t *testing.T) {
	store := newFakeStore()
	tpl := rentTemplate()
	tpl.Frequency = core.Daily
	store.templates = []core.Transaction{tpl}

	clock := &fakeClock{
		now:     time.Date(2024, 2, 5, 9, 0, 0, 0, time.UTC),
		trigger: make(chan time.Time),
	}
	s := NewScheduler(NewRecurringProcessor(store, nil, 0), clock, time.UTC)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	clock.trigger <- clock.now.Add(15 * time.Hour)

	deadline := time.After(2 * time.Second)
	for store.createdCount() == 0 {
		select {
		case <-deadline:
			t.Fatal("pass did not run after trigger")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Run returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancellation")
	}
}

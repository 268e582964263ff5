package history

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingPurger struct {
	calls atomic.Int32
	days  atomic.Int32
	err   error
}

func (p *countingPurger) PurgeOlderThan(_ context.Context, days int) (int64, error) {
	p.calls.Add(1)
	p.days.Store(int32(days))
	return 3, p.err
}

func waitForCalls(t *testing.T, p *countingPurger, n int32, within time.Duration) {
	t.Helper()
	deadline := time.After(within)
	for p.calls.Load() < n {
		select {
		case <-deadline:
			t.Fatalf("purge ran %d times, want at least %d", p.calls.Load(), n)
		case <-time.After(10 * time.Millisecond):
		}
	}
}

func TestStartPurgeScheduler_RunsImmediatelyAndOnTick(t *testing.T) {
	p := &countingPurger{}
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- StartPurgeScheduler(ctx, p, PurgeConfig{RetentionDays: 30, Schedule: "@every 1s"})
	}()

	waitForCalls(t, p, 1, time.Second)
	waitForCalls(t, p, 2, 3*time.Second)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("StartPurgeScheduler: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scheduler did not stop after cancel")
	}
	if p.days.Load() != 30 {
		t.Errorf("retention days = %d, want 30", p.days.Load())
	}
}

func TestStartPurgeScheduler_SurvivesErrors(t *testing.T) {
	p := &countingPurger{err: errors.New("connection reset")}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- StartPurgeScheduler(ctx, p, PurgeConfig{Schedule: "@every 1s"})
	}()

	waitForCalls(t, p, 2, 3*time.Second)
	cancel()
	<-done
}

func TestStartPurgeScheduler_InvalidSchedule(t *testing.T) {
	p := &countingPurger{}
	err := StartPurgeScheduler(context.Background(), p, PurgeConfig{Schedule: "whenever"})
	if err == nil {
		t.Fatal("expected error for invalid schedule")
	}
	if p.calls.Load() != 0 {
		t.Error("purge should not run with an invalid schedule")
	}
}

func TestPurgeConfigDefaults(t *testing.T) {
	cfg := PurgeConfig{}.withDefaults()
	if cfg.RetentionDays != 365 {
		t.Errorf("RetentionDays = %d, want 365", cfg.RetentionDays)
	}
	if cfg.Schedule != "@daily" {
		t.Errorf("Schedule = %q, want @daily", cfg.Schedule)
	}
}

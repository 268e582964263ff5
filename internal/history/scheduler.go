package history

// scheduler.go runs the retention purge of check history in the background.
// It runs once at start and then on every cron tick until its context is
// cancelled. A failed purge is logged and retried on the next tick.

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Purger deletes history older than a number of days.
type Purger interface {
	PurgeOlderThan(ctx context.Context, days int) (int64, error)
}

// PurgeConfig holds configuration for the purge scheduler.
// Zero values fall back to the defaults.
type PurgeConfig struct {
	RetentionDays int    // Days to keep (default: 365)
	Schedule      string // Cron expression (default: @daily)
}

func (c PurgeConfig) withDefaults() PurgeConfig {
	if c.RetentionDays <= 0 {
		c.RetentionDays = 365
	}
	if c.Schedule == "" {
		c.Schedule = "@daily"
	}
	return c
}

// StartPurgeScheduler blocks, purging old runs immediately and then on every
// tick of the schedule, until ctx is cancelled. Call it in its own goroutine.
func StartPurgeScheduler(ctx context.Context, p Purger, cfg PurgeConfig) error {
	cfg = cfg.withDefaults()

	c := cron.New()
	if _, err := c.AddFunc(cfg.Schedule, func() { runPurgeJob(ctx, p, cfg) }); err != nil {
		slog.Error("invalid history purge schedule", "schedule", cfg.Schedule, "error", err)
		return fmt.Errorf("purge schedule %q: %w", cfg.Schedule, err)
	}

	slog.Info("history purge scheduler started",
		"retention_days", cfg.RetentionDays,
		"schedule", cfg.Schedule,
	)

	runPurgeJob(ctx, p, cfg)
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	slog.Info("history purge scheduler stopped")
	return nil
}

func runPurgeJob(ctx context.Context, p Purger, cfg PurgeConfig) {
	if ctx.Err() != nil {
		return
	}
	start := time.Now()
	purged, err := p.PurgeOlderThan(ctx, cfg.RetentionDays)
	if err != nil {
		slog.Error("history purge failed", "error", err)
		return
	}
	slog.Info("purged check history",
		"runs_purged", purged,
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

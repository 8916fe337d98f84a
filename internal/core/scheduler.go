package core

// scheduler.go provides the background refresh job.
//
// The upstream datasets are republished periodically. When a refresh
// interval is configured the scheduler re-runs the load cycle on a ticker so
// the published snapshot follows upstream without a restart. A failed
// refresh is logged and the previous snapshot keeps serving.

import (
	"context"
	"log/slog"
	"time"
)

// StartRefreshScheduler reloads the dataset every interval until ctx is
// cancelled. It does not load immediately; callers load once at startup.
// A non-positive interval returns at once.
func (s *Service) StartRefreshScheduler(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	slog.Info("refresh scheduler started", "interval", interval.String())

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.runRefreshJob(ctx)
		}
	}
}

// runRefreshJob performs one scheduled reload.
func (s *Service) runRefreshJob(ctx context.Context) {
	slog.Debug("refresh job started")
	start := time.Now()

	snap, err := s.Reload(ContextWithTrigger(ctx, TriggerScheduler))
	if err != nil {
		// Reload already logged the cause.
		slog.Warn("refresh job failed, keeping previous snapshot",
			"duration_ms", time.Since(start).Milliseconds(),
		)
		return
	}

	slog.Info("refresh job completed",
		"load_id", snap.LoadID.String(),
		"duration_ms", time.Since(start).Milliseconds(),
	)
}

// Package scheduler drives periodic aggregation runs. Windows are aligned
// to the interval so reruns and restarts process the same boundaries, and a
// cache checkpoint prevents double-processing a window that already
// completed.
package scheduler

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

const (
	// checkpointKey stores the RFC3339 end of the last successfully
	// aggregated window.
	checkpointKey = "cloudpulse:aggregation:last_window_end"
	checkpointTTL = 24 * time.Hour

	defaultInterval = time.Hour
)

// Scheduler ticks at a fixed interval and triggers one aggregation run per
// aligned window. A nil cache disables checkpointing; every tick then runs.
type Scheduler struct {
	service  ports.AggregationService
	cache    ports.Cache
	interval time.Duration
	log      *zap.Logger

	now func() time.Time
}

func New(service ports.AggregationService, cache ports.Cache, interval time.Duration, log *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Scheduler{
		service:  service,
		cache:    cache,
		interval: interval,
		log:      log,
		now:      time.Now,
	}
}

// Start blocks until ctx is cancelled, running one tick immediately and then
// once per interval.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info("Scheduler started", zap.Duration("interval", s.interval))

	s.Tick(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.log.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.Tick(ctx)
		}
	}
}

// Tick runs aggregation for the most recent completed window, unless the
// checkpoint shows that window was already processed. The checkpoint is only
// advanced on success, so a failed window is retried on the next tick.
func (s *Scheduler) Tick(ctx context.Context) {
	end := s.now().UTC().Truncate(s.interval)
	window, err := domain.NewTimeWindow(end.Add(-s.interval), end)
	if err != nil {
		s.log.Error("Failed to build scheduled window", zap.Error(err))
		return
	}

	if s.alreadyProcessed(ctx, end) {
		s.log.Debug("Window already processed, skipping",
			zap.Time("window_end", end),
		)
		return
	}

	result, err := s.service.Run(ctx, window)
	if err != nil {
		s.log.Error("Scheduled aggregation run failed",
			zap.Time("window_end", end),
			zap.Error(err),
		)
		return
	}

	s.checkpoint(ctx, end)
	s.log.Info("Scheduled aggregation run completed",
		zap.String("run_id", result.RunID),
		zap.Time("window_end", end),
		zap.Int("aggregations", result.AggregationCount),
	)
}

func (s *Scheduler) alreadyProcessed(ctx context.Context, end time.Time) bool {
	if s.cache == nil {
		return false
	}
	value, err := s.cache.Get(ctx, checkpointKey)
	if err != nil {
		// A missing or unreachable checkpoint means we run; reruns are
		// idempotent.
		return false
	}
	last, err := time.Parse(time.RFC3339, value)
	if err != nil {
		s.log.Warn("Discarding unparsable checkpoint", zap.String("value", value))
		return false
	}
	return !last.Before(end)
}

func (s *Scheduler) checkpoint(ctx context.Context, end time.Time) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Set(ctx, checkpointKey, end.Format(time.RFC3339), checkpointTTL); err != nil {
		s.log.Warn("Failed to persist checkpoint", zap.Error(err))
	}
}

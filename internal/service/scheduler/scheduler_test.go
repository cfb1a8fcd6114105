package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/mocks"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

var schedulerNow = time.Date(2026, 8, 24, 14, 22, 0, 0, time.UTC)

type runRecorder struct {
	windows []domain.TimeWindow
	err     error
}

func (r *runRecorder) Run(ctx context.Context, window domain.TimeWindow) (*domain.RunResult, error) {
	r.windows = append(r.windows, window)
	if r.err != nil {
		return &domain.RunResult{Status: domain.RunStatusFailure}, r.err
	}
	return &domain.RunResult{
		RunID:           "run-1",
		Status:          domain.RunStatusSuccess,
		ProcessedWindow: window,
	}, nil
}

func (r *runRecorder) DefaultWindow() domain.TimeWindow {
	return domain.DefaultWindow(schedulerNow)
}

func (r *runRecorder) LatestRun() *domain.RunResult { return nil }

func newTestScheduler(recorder *runRecorder, cache ports.Cache) *Scheduler {
	s := New(recorder, cache, time.Hour, zap.NewNop())
	s.now = func() time.Time { return schedulerNow }
	return s
}

func TestTick_RunsAlignedWindow(t *testing.T) {
	recorder := &runRecorder{}
	s := newTestScheduler(recorder, mocks.NewMockCache())

	s.Tick(context.Background())

	if len(recorder.windows) != 1 {
		t.Fatalf("expected 1 run, got %d", len(recorder.windows))
	}
	want := domain.TimeWindow{
		Start: time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC),
	}
	if !recorder.windows[0].Start.Equal(want.Start) || !recorder.windows[0].End.Equal(want.End) {
		t.Errorf("expected window %v, got %v", want, recorder.windows[0])
	}
}

func TestTick_ChecksCheckpointBeforeRunning(t *testing.T) {
	recorder := &runRecorder{}
	cache := mocks.NewMockCache()
	windowEnd := time.Date(2026, 8, 24, 14, 0, 0, 0, time.UTC)
	if err := cache.Set(context.Background(), "cloudpulse:aggregation:last_window_end",
		windowEnd.Format(time.RFC3339), time.Hour); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}
	s := newTestScheduler(recorder, cache)

	s.Tick(context.Background())

	if len(recorder.windows) != 0 {
		t.Errorf("expected run to be skipped for checkpointed window, got %d runs", len(recorder.windows))
	}
}

func TestTick_StaleCheckpointDoesNotSkip(t *testing.T) {
	recorder := &runRecorder{}
	cache := mocks.NewMockCache()
	previousEnd := time.Date(2026, 8, 24, 13, 0, 0, 0, time.UTC)
	if err := cache.Set(context.Background(), "cloudpulse:aggregation:last_window_end",
		previousEnd.Format(time.RFC3339), time.Hour); err != nil {
		t.Fatalf("failed to seed checkpoint: %v", err)
	}
	s := newTestScheduler(recorder, cache)

	s.Tick(context.Background())

	if len(recorder.windows) != 1 {
		t.Errorf("expected run for the new window, got %d runs", len(recorder.windows))
	}
}

func TestTick_SuccessAdvancesCheckpoint(t *testing.T) {
	recorder := &runRecorder{}
	cache := mocks.NewMockCache()
	s := newTestScheduler(recorder, cache)

	s.Tick(context.Background())

	value, err := cache.Get(context.Background(), "cloudpulse:aggregation:last_window_end")
	if err != nil {
		t.Fatalf("expected checkpoint to exist: %v", err)
	}
	if value != "2026-08-24T14:00:00Z" {
		t.Errorf("expected checkpoint 2026-08-24T14:00:00Z, got %s", value)
	}
}

func TestTick_FailureLeavesCheckpointUntouched(t *testing.T) {
	recorder := &runRecorder{err: errors.New("rollup write failed")}
	cache := mocks.NewMockCache()
	s := newTestScheduler(recorder, cache)

	s.Tick(context.Background())

	if _, err := cache.Get(context.Background(), "cloudpulse:aggregation:last_window_end"); err == nil {
		t.Error("expected no checkpoint after a failed run")
	}
	// The same window is retried on the next tick.
	s.Tick(context.Background())
	if len(recorder.windows) != 2 {
		t.Errorf("expected retry of failed window, got %d runs", len(recorder.windows))
	}
}

func TestTick_NilCacheAlwaysRuns(t *testing.T) {
	recorder := &runRecorder{}
	s := newTestScheduler(recorder, nil)

	s.Tick(context.Background())
	s.Tick(context.Background())

	if len(recorder.windows) != 2 {
		t.Errorf("expected 2 runs without checkpointing, got %d", len(recorder.windows))
	}
}

package ports

import (
	"context"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
)

// AggregationService runs the windowed aggregation engine.
type AggregationService interface {
	// Run aggregates the given window. Per-item listing/fetch/parse errors
	// are absorbed into the result's failure counts; only a rollup
	// persistence failure is returned as an error (alongside a failure
	// result).
	Run(ctx context.Context, window domain.TimeWindow) (*domain.RunResult, error)
	// DefaultWindow is the window used when the caller supplies none:
	// the hour preceding now.
	DefaultWindow() domain.TimeWindow
	// LatestRun returns the most recent run result, or nil before the
	// first run.
	LatestRun() *domain.RunResult
}

// IngestService validates, enriches and persists one raw telemetry record.
type IngestService interface {
	// ProcessRecord returns the object key the record was stored under.
	ProcessRecord(ctx context.Context, payload []byte) (string, error)
}

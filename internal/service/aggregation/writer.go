package aggregation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

// ResultWriter assembles the per-window rollup document and persists it
// under the planner's deterministic key.
type ResultWriter struct {
	store   ports.ObjectStore
	planner KeyPlanner
	log     *zap.Logger
}

func NewResultWriter(store ports.ObjectStore, log *zap.Logger) *ResultWriter {
	return &ResultWriter{
		store: store,
		log:   log,
	}
}

// Write persists the rollup and returns its key together with the embedded
// summary. A persistence failure is fatal for the run and is returned to
// the caller unretried; since the write is the run's last step no partial
// rollup is left behind. An empty aggregate set still produces a (empty)
// rollup document.
func (w *ResultWriter) Write(ctx context.Context, aggregates []domain.DeviceAggregate, window domain.TimeWindow, processedAt time.Time) (string, domain.SummaryStats, error) {
	if aggregates == nil {
		aggregates = []domain.DeviceAggregate{}
	}

	summary := domain.SummaryStats{
		ProcessingWindow: domain.ProcessingWindow{
			StartTime:     window.Start,
			EndTime:       window.End,
			DurationHours: window.DurationHours(),
		},
		ProcessedAt: processedAt,
	}

	doc := domain.RollupDocument{
		Aggregations: aggregates,
		SummaryStats: summary,
		Metadata: domain.RollupMetadata{
			TotalSensors: len(aggregates),
			ProcessedAt:  processedAt,
		},
	}

	body, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", summary, fmt.Errorf("marshal rollup document: %w", err)
	}

	key := w.planner.RollupKey(window.End)
	if err := w.store.Put(ctx, key, body, "application/json"); err != nil {
		return "", summary, fmt.Errorf("store rollup at %s: %w", key, err)
	}

	w.log.Info("Stored rollup document",
		zap.String("key", key),
		zap.Int("aggregations", len(aggregates)),
	)
	return key, summary, nil
}

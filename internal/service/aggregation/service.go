package aggregation

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/observability/telemetry"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

// Engine orchestrates one aggregation run: plan partition prefixes,
// discover object keys, load and group readings, aggregate per device and
// persist the rollup. A run has no mutable state shared with other runs;
// aside from the single rollup write it is a pure function of the window
// and the store contents.
type Engine struct {
	planner    KeyPlanner
	discovery  *ObjectDiscovery
	loader     *RecordLoader
	aggregator *Aggregator
	writer     *ResultWriter
	log        *zap.Logger
	tracer     trace.Tracer

	// now is swapped out in tests to pin processed_at.
	now func() time.Time

	mu      sync.RWMutex
	lastRun *domain.RunResult
}

// Options tunes the engine. Zero values fall back to defaults.
type Options struct {
	// Workers bounds the object fetch pool.
	Workers int
	// ZScoreThreshold is the outlier threshold in standard deviations.
	ZScoreThreshold float64
}

func NewEngine(store ports.ObjectStore, opts Options, log *zap.Logger) *Engine {
	detector := NewAnomalyDetector(opts.ZScoreThreshold)
	return &Engine{
		discovery:  NewObjectDiscovery(store, log),
		loader:     NewRecordLoader(store, opts.Workers, log),
		aggregator: NewAggregator(detector),
		writer:     NewResultWriter(store, log),
		log:        log,
		tracer:     otel.Tracer("aggregation"),
		now:        time.Now,
	}
}

// DefaultWindow implements ports.AggregationService.
func (e *Engine) DefaultWindow() domain.TimeWindow {
	return domain.DefaultWindow(e.now())
}

// LatestRun implements ports.AggregationService.
func (e *Engine) LatestRun() *domain.RunResult {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.lastRun
}

// Run aggregates the given window. Listing, fetch and parse errors are
// absorbed into the result's failure counts and the run continues; only a
// failure to persist the rollup is returned as an error. Discovering zero
// objects is a successful run with zero aggregates.
func (e *Engine) Run(ctx context.Context, window domain.TimeWindow) (*domain.RunResult, error) {
	if err := window.Validate(); err != nil {
		return nil, err
	}

	runID := uuid.New().String()
	started := e.now()

	ctx, span := e.tracer.Start(ctx, "aggregation.run",
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("window.start", window.Start.Format(time.RFC3339)),
			attribute.String("window.end", window.End.Format(time.RFC3339)),
		))
	defer span.End()

	e.log.Info("Starting aggregation run",
		zap.String("run_id", runID),
		zap.Time("window_start", window.Start),
		zap.Time("window_end", window.End),
	)

	prefixes := e.planner.PartitionPrefixes(window)

	_, discoverSpan := e.tracer.Start(ctx, "aggregation.discover")
	keys, listFailures := e.discovery.Discover(ctx, prefixes)
	discoverSpan.SetAttributes(attribute.Int("keys", len(keys)))
	discoverSpan.End()

	if len(keys) == 0 {
		e.log.Warn("No objects found for window",
			zap.String("run_id", runID),
			zap.Int("prefixes", len(prefixes)),
		)
	}

	_, loadSpan := e.tracer.Start(ctx, "aggregation.load")
	group, loadFailures := e.loader.Load(ctx, keys)
	loadSpan.SetAttributes(attribute.Int("devices", len(group)))
	loadSpan.End()

	// Sensor order is fixed so the rollup document is reproducible.
	sensorIDs := make([]string, 0, len(group))
	for id := range group {
		sensorIDs = append(sensorIDs, id)
	}
	sort.Strings(sensorIDs)

	processedAt := e.now()
	anomalies := 0
	aggregates := make([]domain.DeviceAggregate, 0, len(sensorIDs))
	for _, id := range sensorIDs {
		agg := e.aggregator.Aggregate(id, group[id], window, processedAt)
		anomalies += agg.Anomalies.Total
		aggregates = append(aggregates, agg)
	}

	result := &domain.RunResult{
		RunID:            runID,
		ProcessedWindow:  window,
		AggregationCount: len(aggregates),
		ListFailures:     listFailures,
		LoadFailures:     loadFailures,
	}

	_, writeSpan := e.tracer.Start(ctx, "aggregation.write")
	key, summary, err := e.writer.Write(ctx, aggregates, window, processedAt)
	writeSpan.End()

	result.SummaryStats = summary
	if err != nil {
		result.Status = domain.RunStatusFailure
		result.Error = err.Error()
		e.finishRun(result, started)
		e.log.Error("Aggregation run failed",
			zap.String("run_id", runID),
			zap.Error(err),
		)
		return result, err
	}

	result.Status = domain.RunStatusSuccess
	result.RollupKey = key
	e.finishRun(result, started)

	telemetry.DevicesAggregated.Set(float64(len(aggregates)))
	telemetry.AnomaliesFlaggedTotal.Add(float64(anomalies))

	e.log.Info("Aggregation run completed",
		zap.String("run_id", runID),
		zap.Int("aggregations", result.AggregationCount),
		zap.Int("list_failures", listFailures),
		zap.Int("load_failures", loadFailures),
		zap.Int("anomalies", anomalies),
		zap.String("rollup_key", key),
	)
	return result, nil
}

func (e *Engine) finishRun(result *domain.RunResult, started time.Time) {
	telemetry.AggregationRunsTotal.WithLabelValues(string(result.Status)).Inc()
	telemetry.AggregationRunDuration.Observe(e.now().Sub(started).Seconds())

	e.mu.Lock()
	e.lastRun = result
	e.mu.Unlock()
}

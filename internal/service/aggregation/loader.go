package aggregation

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/internal/observability/telemetry"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

const defaultLoaderWorkers = 8

// RecordLoader fetches and parses discovered objects into readings grouped
// by sensor id. Fetches run on a bounded worker pool; results are merged
// back in discovery order so the grouping is deterministic regardless of
// fetch completion order.
type RecordLoader struct {
	store   ports.ObjectStore
	breaker *gobreaker.CircuitBreaker
	workers int
	log     *zap.Logger
}

func NewRecordLoader(store ports.ObjectStore, workers int, log *zap.Logger) *RecordLoader {
	if workers <= 0 {
		workers = defaultLoaderWorkers
	}

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "object-store-get",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 10 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Object store circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &RecordLoader{
		store:   store,
		breaker: cb,
		workers: workers,
		log:     log,
	}
}

// Load fetches each key, parses the body into a reading and buckets the
// successes by sensor id, preserving discovery order within each bucket.
// Fetch and parse failures are logged, counted and skipped; they never
// abort the run. A sensor with zero successfully parsed readings does not
// appear in the returned group. The second return value is the number of
// skipped objects.
func (l *RecordLoader) Load(ctx context.Context, keys []string) (domain.DeviceGroup, int) {
	group := make(domain.DeviceGroup)
	if len(keys) == 0 {
		return group, 0
	}

	// Each worker writes only to its own index, so the slice needs no lock
	// and the subsequent fold sees readings in discovery order.
	loaded := make([]*domain.Reading, len(keys))
	var failures atomic.Int64

	jobs := make(chan int)
	var wg sync.WaitGroup

	workers := l.workers
	if workers > len(keys) {
		workers = len(keys)
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				reading, ok := l.fetchOne(ctx, keys[i])
				if !ok {
					failures.Add(1)
					continue
				}
				loaded[i] = reading
			}
		}()
	}

	for i := range keys {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, r := range loaded {
		if r == nil {
			continue
		}
		group[r.SensorID] = append(group[r.SensorID], *r)
	}

	return group, int(failures.Load())
}

func (l *RecordLoader) fetchOne(ctx context.Context, key string) (*domain.Reading, bool) {
	result, err := l.breaker.Execute(func() (interface{}, error) {
		return l.store.Get(ctx, key)
	})
	if err != nil {
		l.log.Warn("Failed to fetch object",
			zap.String("key", key),
			zap.Error(err),
		)
		telemetry.LoadFailuresTotal.WithLabelValues("fetch").Inc()
		return nil, false
	}
	body := result.([]byte)

	reading, err := domain.ParseReading(body)
	if err != nil {
		l.log.Warn("Failed to parse object",
			zap.String("key", key),
			zap.Error(err),
		)
		telemetry.LoadFailuresTotal.WithLabelValues("parse").Inc()
		return nil, false
	}

	telemetry.ReadingsLoadedTotal.Inc()
	return &reading, true
}

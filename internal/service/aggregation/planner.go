// Package aggregation implements the time-windowed aggregation and
// anomaly-detection engine: it discovers raw records belonging to a window,
// groups them by sensor, computes per-channel summary statistics, counts
// z-score outliers and persists an idempotent rollup artifact.
package aggregation

import (
	"fmt"
	"time"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
)

// Key layout shared with the ingest enricher.
const (
	sensorDataPrefix     = "sensor-data"
	aggregatedDataPrefix = "aggregated-data"
)

// KeyPlanner maps time windows onto the store's partitioning convention.
type KeyPlanner struct{}

// PartitionPrefixes returns the hour-bucket prefixes touched by the window,
// in chronological order, inclusive of both endpoints' buckets. Iteration
// strides by exactly one hour so duplicates are impossible; a window inside
// a single hour yields exactly one prefix.
//
// Prefix granularity is per hour: a sub-hour window still pulls every
// object in the containing hour partition, and readings are not re-filtered
// by their own timestamp after listing. This is a deliberate approximation
// of the partitioning scheme, not a bug.
func (KeyPlanner) PartitionPrefixes(window domain.TimeWindow) []string {
	start := window.Start.UTC().Truncate(time.Hour)
	end := window.End.UTC()

	var prefixes []string
	for t := start; !t.After(end); t = t.Add(time.Hour) {
		prefixes = append(prefixes, fmt.Sprintf("%s/%s/hour=%s/",
			sensorDataPrefix, t.Format("2006/01/02"), t.Format("15")))
	}
	return prefixes
}

// RollupKey is the deterministic output key for a window ending at
// windowEnd. Reruns for the same window end collide and overwrite, which
// makes the rollup idempotent by construction.
func (KeyPlanner) RollupKey(windowEnd time.Time) string {
	end := windowEnd.UTC()
	return fmt.Sprintf("%s/%s/hour=%s/aggregated-%s.json",
		aggregatedDataPrefix, end.Format("2006/01/02"), end.Format("15"),
		end.Format("20060102-150405"))
}

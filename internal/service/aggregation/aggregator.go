package aggregation

import (
	"time"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/pkg/statmath"
)

// Aggregator computes per-device summary statistics over one window's
// readings.
type Aggregator struct {
	detector *AnomalyDetector
}

func NewAggregator(detector *AnomalyDetector) *Aggregator {
	return &Aggregator{detector: detector}
}

// Aggregate builds the rollup entry for one device. Statistics for each
// channel are computed over only the readings that carry that channel;
// channels absent from every reading are omitted rather than zero-filled.
// RecordCount covers all readings regardless of their channel sets, and the
// quality summary counts a missing score as 0 per the ingest contract.
func (a *Aggregator) Aggregate(sensorID string, readings []domain.Reading, window domain.TimeWindow, processedAt time.Time) domain.DeviceAggregate {
	agg := domain.DeviceAggregate{
		SensorID:    sensorID,
		Window:      window,
		RecordCount: len(readings),
		Channels:    make(map[string]domain.ChannelStats),
		Quality:     summarizeQuality(readings),
		Anomalies:   a.detector.Detect(readings),
		ProcessedAt: processedAt,
	}

	for name, values := range channelValues(readings) {
		agg.Channels[name] = channelStats(values)
	}

	return agg
}

func channelStats(values []float64) domain.ChannelStats {
	// channelValues only emits non-empty slices, so Mean cannot fail here.
	avg, _ := statmath.Mean(values)

	stats := domain.ChannelStats{
		Avg: avg,
		Min: values[0],
		Max: values[0],
		Std: statmath.PopulationStdDev(values),
	}
	for _, v := range values {
		if v < stats.Min {
			stats.Min = v
		}
		if v > stats.Max {
			stats.Max = v
		}
	}
	return stats
}

func summarizeQuality(readings []domain.Reading) domain.QualitySummary {
	var summary domain.QualitySummary
	if len(readings) == 0 {
		return summary
	}

	var sum float64
	for _, r := range readings {
		sum += r.QualityScore
		if r.QualityScore > domain.HighQualityThreshold {
			summary.HighQualityCount++
		}
		if r.QualityScore < domain.LowQualityThreshold {
			summary.LowQualityCount++
		}
	}
	summary.AvgScore = sum / float64(len(readings))
	return summary
}

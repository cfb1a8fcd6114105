package aggregation

import (
	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
	"github.com/cloudpulse/telemetry-pipeline/pkg/statmath"
)

// AnomalyDetector counts z-score outliers per channel over a device's
// readings within one window.
type AnomalyDetector struct {
	threshold float64
}

func NewAnomalyDetector(threshold float64) *AnomalyDetector {
	if threshold <= 0 {
		threshold = statmath.DefaultZScoreThreshold
	}
	return &AnomalyDetector{threshold: threshold}
}

// Detect runs the outlier test independently for each channel present in
// the reading set, over only the values that carry that channel. Channels
// with fewer than two values have zero standard deviation and never flag.
func (d *AnomalyDetector) Detect(readings []domain.Reading) domain.AnomalyReport {
	report := domain.AnomalyReport{
		PerChannel: make(map[string]int),
	}

	for name, values := range channelValues(readings) {
		count := statmath.ZScoreOutliers(values, d.threshold)
		report.PerChannel[name] = count
		report.Total += count
	}

	return report
}

// channelValues collects, per channel name, the values of every reading
// that carries that channel, in reading order.
func channelValues(readings []domain.Reading) map[string][]float64 {
	values := make(map[string][]float64)
	for _, r := range readings {
		for name, v := range r.Channels {
			values[name] = append(values[name], v)
		}
	}
	return values
}

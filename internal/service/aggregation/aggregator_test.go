package aggregation

import (
	"math"
	"testing"
	"time"

	"github.com/cloudpulse/telemetry-pipeline/internal/domain"
)

func testReading(sensorID string, channels map[string]float64, score float64) domain.Reading {
	return domain.Reading{
		SensorID:     sensorID,
		Channels:     channels,
		QualityScore: score,
	}
}

func testAggregator() *Aggregator {
	return NewAggregator(NewAnomalyDetector(0))
}

func TestAggregate_ChannelStats(t *testing.T) {
	readings := []domain.Reading{
		testReading("temp_001", map[string]float64{"temperature": 20.0, "humidity": 40.0}, 1.0),
		testReading("temp_001", map[string]float64{"temperature": 21.0, "humidity": 42.0}, 1.0),
		testReading("temp_001", map[string]float64{"temperature": 70.0, "humidity": 41.0}, 1.0),
	}
	window := domain.DefaultWindow(time.Now())

	agg := testAggregator().Aggregate("temp_001", readings, window, time.Now())

	if agg.RecordCount != 3 {
		t.Errorf("expected record count 3, got %d", agg.RecordCount)
	}

	temp, ok := agg.Channels["temperature"]
	if !ok {
		t.Fatal("expected temperature channel stats")
	}
	if math.Abs(temp.Avg-37.0) > 1e-9 {
		t.Errorf("expected temperature avg 37.0, got %v", temp.Avg)
	}
	if temp.Min != 20.0 || temp.Max != 70.0 {
		t.Errorf("expected min/max 20/70, got %v/%v", temp.Min, temp.Max)
	}
	// Population std: sqrt((17^2+16^2+33^2)/3).
	wantStd := math.Sqrt((289.0 + 256.0 + 1089.0) / 3.0)
	if math.Abs(temp.Std-wantStd) > 1e-9 {
		t.Errorf("expected temperature std %v, got %v", wantStd, temp.Std)
	}
	if temp.Min > temp.Avg || temp.Avg > temp.Max {
		t.Errorf("expected min <= avg <= max, got %v/%v/%v", temp.Min, temp.Avg, temp.Max)
	}

	if _, ok := agg.Channels["humidity"]; !ok {
		t.Error("expected humidity channel stats")
	}
}

func TestAggregate_HeterogeneousChannelsOmitAbsent(t *testing.T) {
	readings := []domain.Reading{
		testReading("temp_009", map[string]float64{"temperature": 18.0}, 0.9),
		testReading("temp_009", map[string]float64{"temperature": 19.0}, 0.9),
	}
	window := domain.DefaultWindow(time.Now())

	agg := testAggregator().Aggregate("temp_009", readings, window, time.Now())

	if _, ok := agg.Channels["temperature"]; !ok {
		t.Error("expected temperature entry")
	}
	if _, ok := agg.Channels["humidity"]; ok {
		t.Error("expected no humidity entry for readings without humidity")
	}
}

func TestAggregate_ChannelStatsOverPresentValuesOnly(t *testing.T) {
	readings := []domain.Reading{
		testReading("s", map[string]float64{"temperature": 10.0, "humidity": 50.0}, 1.0),
		testReading("s", map[string]float64{"temperature": 20.0}, 1.0),
		testReading("s", map[string]float64{"temperature": 30.0}, 1.0),
	}
	window := domain.DefaultWindow(time.Now())

	agg := testAggregator().Aggregate("s", readings, window, time.Now())

	if agg.RecordCount != 3 {
		t.Errorf("expected record count 3 irrespective of channel sets, got %d", agg.RecordCount)
	}
	hum := agg.Channels["humidity"]
	if hum.Avg != 50.0 || hum.Min != 50.0 || hum.Max != 50.0 || hum.Std != 0 {
		t.Errorf("expected humidity stats over the single present value, got %+v", hum)
	}
}

func TestAggregate_QualitySummary(t *testing.T) {
	readings := []domain.Reading{
		testReading("s", map[string]float64{"temperature": 20}, 0.9),  // high
		testReading("s", map[string]float64{"temperature": 20}, 0.85), // high
		testReading("s", map[string]float64{"temperature": 20}, 0.6),  // neither
		testReading("s", map[string]float64{"temperature": 20}, 0.3),  // low
		testReading("s", map[string]float64{"temperature": 20}, 0),    // low (missing score)
	}
	window := domain.DefaultWindow(time.Now())

	agg := testAggregator().Aggregate("s", readings, window, time.Now())

	if agg.Quality.HighQualityCount != 2 {
		t.Errorf("expected 2 high-quality readings, got %d", agg.Quality.HighQualityCount)
	}
	if agg.Quality.LowQualityCount != 2 {
		t.Errorf("expected 2 low-quality readings, got %d", agg.Quality.LowQualityCount)
	}
	wantAvg := (0.9 + 0.85 + 0.6 + 0.3 + 0) / 5.0
	if math.Abs(agg.Quality.AvgScore-wantAvg) > 1e-9 {
		t.Errorf("expected avg score %v, got %v", wantAvg, agg.Quality.AvgScore)
	}
}

func TestAggregate_ThresholdsAreExclusive(t *testing.T) {
	readings := []domain.Reading{
		testReading("s", map[string]float64{"temperature": 20}, 0.8), // exactly at high threshold
		testReading("s", map[string]float64{"temperature": 20}, 0.5), // exactly at low threshold
	}
	window := domain.DefaultWindow(time.Now())

	agg := testAggregator().Aggregate("s", readings, window, time.Now())

	if agg.Quality.HighQualityCount != 0 {
		t.Errorf("score of exactly 0.8 must not count as high, got %d", agg.Quality.HighQualityCount)
	}
	if agg.Quality.LowQualityCount != 0 {
		t.Errorf("score of exactly 0.5 must not count as low, got %d", agg.Quality.LowQualityCount)
	}
}

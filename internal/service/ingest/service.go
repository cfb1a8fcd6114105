// Package ingest validates, enriches and persists raw telemetry records as
// they arrive from the message queue. Each accepted record becomes one JSON
// object in the store, keyed by hour partition and sensor, which is the
// layout the aggregation engine discovers against.
package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/observability/telemetry"
	"github.com/cloudpulse/telemetry-pipeline/internal/ports"
)

// Quality score penalties. The score starts at 1.0 and is floored at 0.
const (
	extremeTemperaturePenalty  = 0.3
	unusualTemperaturePenalty  = 0.1
	invalidHumidityPenalty     = 0.4
	staleTimestampPenalty      = 0.2
	unparsableTimestampPenalty = 0.1

	staleAfter = time.Hour
)

// incomingReading is the wire shape accepted from producers. Pointer fields
// distinguish a missing value from a legitimate zero.
type incomingReading struct {
	SensorID     string   `json:"sensor_id"`
	Temperature  *float64 `json:"temperature"`
	Humidity     *float64 `json:"humidity"`
	Timestamp    string   `json:"timestamp,omitempty"`
	Location     string   `json:"location,omitempty"`
	BatteryLevel *float64 `json:"battery_level,omitempty"`
}

// EnrichedRecord is what gets persisted for every accepted reading. Field
// names are a published contract with downstream consumers.
type EnrichedRecord struct {
	SensorID              string   `json:"sensor_id"`
	Temperature           float64  `json:"temperature"`
	Humidity              float64  `json:"humidity"`
	Timestamp             string   `json:"timestamp,omitempty"`
	Location              string   `json:"location,omitempty"`
	BatteryLevel          *float64 `json:"battery_level,omitempty"`
	ProcessedTimestamp    string   `json:"processed_timestamp"`
	TemperatureCelsius    float64  `json:"temperature_celsius"`
	TemperatureFahrenheit float64  `json:"temperature_fahrenheit"`
	DataQualityScore      float64  `json:"data_quality_score"`
	PartitionDate         string   `json:"partition_date"`
	PartitionHour         string   `json:"partition_hour"`
}

// BatchResult summarizes one batch of records.
type BatchResult struct {
	ProcessedCount int      `json:"processed_count"`
	FailedCount    int      `json:"failed_count"`
	StoredKeys     []string `json:"stored_keys,omitempty"`
}

// Service implements ports.IngestService.
type Service struct {
	store ports.ObjectStore
	log   *zap.Logger

	// now is swapped out in tests to pin partition keys and staleness.
	now func() time.Time
}

func NewService(store ports.ObjectStore, log *zap.Logger) *Service {
	return &Service{
		store: store,
		log:   log,
		now:   time.Now,
	}
}

// ProcessRecord validates and enriches a single raw payload and persists it.
// It returns the object key the record was stored under.
func (s *Service) ProcessRecord(ctx context.Context, payload []byte) (string, error) {
	record, err := s.enrich(payload)
	if err != nil {
		telemetry.RecordsIngestedTotal.WithLabelValues("rejected").Inc()
		return "", err
	}

	key := s.objectKey(record)
	body, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		telemetry.RecordsIngestedTotal.WithLabelValues("rejected").Inc()
		return "", fmt.Errorf("failed to encode record: %w", err)
	}

	if err := s.store.Put(ctx, key, body, "application/json"); err != nil {
		telemetry.RecordsIngestedTotal.WithLabelValues("store_error").Inc()
		return "", fmt.Errorf("failed to store record: %w", err)
	}

	telemetry.RecordsIngestedTotal.WithLabelValues("stored").Inc()
	s.log.Debug("Stored telemetry record",
		zap.String("sensor_id", record.SensorID),
		zap.String("key", key),
		zap.Float64("quality_score", record.DataQualityScore),
	)
	return key, nil
}

// ProcessBatch processes each payload independently. A failing record is
// counted and skipped; it never aborts the rest of the batch.
func (s *Service) ProcessBatch(ctx context.Context, payloads [][]byte) BatchResult {
	result := BatchResult{}
	for i, payload := range payloads {
		key, err := s.ProcessRecord(ctx, payload)
		if err != nil {
			result.FailedCount++
			s.log.Error("Failed to process record",
				zap.Int("index", i),
				zap.Error(err),
			)
			continue
		}
		result.ProcessedCount++
		result.StoredKeys = append(result.StoredKeys, key)
	}
	s.log.Info("Batch processing complete",
		zap.Int("processed", result.ProcessedCount),
		zap.Int("failed", result.FailedCount),
	)
	return result
}

func (s *Service) enrich(payload []byte) (*EnrichedRecord, error) {
	var in incomingReading
	if err := json.Unmarshal(payload, &in); err != nil {
		return nil, fmt.Errorf("invalid record payload: %w", err)
	}

	if in.SensorID == "" {
		return nil, fmt.Errorf("missing required field: sensor_id")
	}
	if in.Temperature == nil {
		return nil, fmt.Errorf("missing required field: temperature")
	}
	if in.Humidity == nil {
		return nil, fmt.Errorf("missing required field: humidity")
	}
	if *in.Humidity < 0 || *in.Humidity > 100 {
		return nil, fmt.Errorf("humidity must be between 0 and 100, got %g", *in.Humidity)
	}

	now := s.now().UTC()
	return &EnrichedRecord{
		SensorID:              in.SensorID,
		Temperature:           *in.Temperature,
		Humidity:              *in.Humidity,
		Timestamp:             in.Timestamp,
		Location:              in.Location,
		BatteryLevel:          in.BatteryLevel,
		ProcessedTimestamp:    now.Format(time.RFC3339Nano),
		TemperatureCelsius:    *in.Temperature,
		TemperatureFahrenheit: (*in.Temperature*9)/5 + 32,
		DataQualityScore:      s.qualityScore(in, now),
		PartitionDate:         now.Format("2006/01/02"),
		PartitionHour:         now.Format("15"),
	}, nil
}

// qualityScore grades a reading on plausibility. Penalties stack and the
// result never drops below zero.
func (s *Service) qualityScore(in incomingReading, now time.Time) float64 {
	score := 1.0

	temp := *in.Temperature
	switch {
	case temp < -50 || temp > 70:
		score -= extremeTemperaturePenalty
	case temp < -20 || temp > 50:
		score -= unusualTemperaturePenalty
	}

	humidity := *in.Humidity
	if humidity < 0 || humidity > 100 {
		score -= invalidHumidityPenalty
	}

	if in.Timestamp != "" {
		recorded, err := time.Parse(time.RFC3339, in.Timestamp)
		switch {
		case err != nil:
			score -= unparsableTimestampPenalty
		case now.Sub(recorded) > staleAfter:
			score -= staleTimestampPenalty
		}
	}

	if score < 0 {
		return 0
	}
	return score
}

// objectKey builds the hour-partitioned key the aggregation engine lists by.
// Colons and dots in the timestamp are replaced so the key stays portable.
func (s *Service) objectKey(record *EnrichedRecord) string {
	ts := strings.NewReplacer(":", "-", ".", "-").Replace(record.ProcessedTimestamp)
	return fmt.Sprintf("sensor-data/%s/hour=%s/sensor_id=%s/%s.json",
		record.PartitionDate, record.PartitionHour, record.SensorID, ts)
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/cloudpulse/telemetry-pipeline/internal/mocks"
)

var ingestNow = time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)

func newTestService(store *mocks.InMemoryObjectStore) *Service {
	svc := NewService(store, zap.NewNop())
	svc.now = func() time.Time { return ingestNow }
	return svc
}

func payload(t *testing.T, fields map[string]interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(fields)
	if err != nil {
		t.Fatalf("failed to marshal payload: %v", err)
	}
	return data
}

func TestProcessRecord_EnrichesAndStores(t *testing.T) {
	store := mocks.NewInMemoryObjectStore()
	svc := newTestService(store)

	key, err := svc.ProcessRecord(context.Background(), payload(t, map[string]interface{}{
		"sensor_id":   "temp_001",
		"temperature": 22.5,
		"humidity":    45.0,
		"timestamp":   ingestNow.Add(-time.Minute).Format(time.RFC3339),
		"location":    "warehouse_a",
	}))
	if err != nil {
		t.Fatalf("process failed: %v", err)
	}

	wantPrefix := "sensor-data/2026/08/24/hour=14/sensor_id=temp_001/"
	if !strings.HasPrefix(key, wantPrefix) {
		t.Errorf("expected key under %s, got %s", wantPrefix, key)
	}
	if strings.ContainsAny(strings.TrimSuffix(key, ".json"), ":.") {
		t.Errorf("expected colons and dots replaced in key, got %s", key)
	}

	body, err := store.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("failed to read back record: %v", err)
	}
	var record EnrichedRecord
	if err := json.Unmarshal(body, &record); err != nil {
		t.Fatalf("stored record is not valid JSON: %v", err)
	}
	if record.TemperatureCelsius != 22.5 {
		t.Errorf("expected temperature_celsius 22.5, got %v", record.TemperatureCelsius)
	}
	if math.Abs(record.TemperatureFahrenheit-72.5) > 1e-9 {
		t.Errorf("expected temperature_fahrenheit 72.5, got %v", record.TemperatureFahrenheit)
	}
	if record.DataQualityScore != 1.0 {
		t.Errorf("expected perfect quality score, got %v", record.DataQualityScore)
	}
	if record.PartitionDate != "2026/08/24" || record.PartitionHour != "14" {
		t.Errorf("unexpected partition fields: %s / %s", record.PartitionDate, record.PartitionHour)
	}
}

func TestProcessRecord_RejectsMissingRequiredFields(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	cases := []struct {
		name   string
		fields map[string]interface{}
	}{
		{"missing sensor_id", map[string]interface{}{"temperature": 20.0, "humidity": 40.0}},
		{"missing temperature", map[string]interface{}{"sensor_id": "temp_001", "humidity": 40.0}},
		{"missing humidity", map[string]interface{}{"sensor_id": "temp_001", "temperature": 20.0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ProcessRecord(context.Background(), payload(t, tc.fields)); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestProcessRecord_RejectsOutOfRangeHumidity(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	for _, humidity := range []float64{-1, 100.5} {
		_, err := svc.ProcessRecord(context.Background(), payload(t, map[string]interface{}{
			"sensor_id":   "temp_001",
			"temperature": 20.0,
			"humidity":    humidity,
		}))
		if err == nil {
			t.Errorf("expected rejection for humidity %g", humidity)
		}
	}
}

func TestProcessRecord_RejectsMalformedPayload(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	if _, err := svc.ProcessRecord(context.Background(), []byte("{nope")); err == nil {
		t.Error("expected parse error")
	}
}

func TestQualityScore_TemperaturePenalties(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	cases := []struct {
		name string
		temp float64
		want float64
	}{
		{"normal", 22.0, 1.0},
		{"unusual high", 55.0, 0.9},
		{"unusual low", -30.0, 0.9},
		{"extreme high", 80.0, 0.7},
		{"extreme low", -60.0, 0.7},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := incomingReading{Temperature: &tc.temp, Humidity: f64(40)}
			got := svc.qualityScore(in, ingestNow)
			if math.Abs(got-tc.want) > 1e-9 {
				t.Errorf("expected score %v, got %v", tc.want, got)
			}
		})
	}
}

func TestQualityScore_TimestampPenalties(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	base := incomingReading{Temperature: f64(20), Humidity: f64(40)}

	fresh := base
	fresh.Timestamp = ingestNow.Add(-30 * time.Minute).Format(time.RFC3339)
	if got := svc.qualityScore(fresh, ingestNow); got != 1.0 {
		t.Errorf("fresh timestamp: expected 1.0, got %v", got)
	}

	stale := base
	stale.Timestamp = ingestNow.Add(-2 * time.Hour).Format(time.RFC3339)
	if got := svc.qualityScore(stale, ingestNow); math.Abs(got-0.8) > 1e-9 {
		t.Errorf("stale timestamp: expected 0.8, got %v", got)
	}

	garbage := base
	garbage.Timestamp = "yesterday-ish"
	if got := svc.qualityScore(garbage, ingestNow); math.Abs(got-0.9) > 1e-9 {
		t.Errorf("unparsable timestamp: expected 0.9, got %v", got)
	}
}

func TestQualityScore_NeverNegative(t *testing.T) {
	svc := newTestService(mocks.NewInMemoryObjectStore())

	in := incomingReading{
		Temperature: f64(200),
		Humidity:    f64(150),
		Timestamp:   "not a time",
	}
	if got := svc.qualityScore(in, ingestNow); got < 0 {
		t.Errorf("expected floor at 0, got %v", got)
	}
}

func TestProcessBatch_FailuresDoNotAbort(t *testing.T) {
	store := mocks.NewInMemoryObjectStore()
	svc := newTestService(store)

	payloads := [][]byte{
		payload(t, map[string]interface{}{"sensor_id": "temp_001", "temperature": 20.0, "humidity": 40.0}),
		[]byte("{broken"),
		payload(t, map[string]interface{}{"sensor_id": "temp_002", "temperature": 21.0, "humidity": 41.0}),
	}
	result := svc.ProcessBatch(context.Background(), payloads)

	if result.ProcessedCount != 2 {
		t.Errorf("expected 2 processed, got %d", result.ProcessedCount)
	}
	if result.FailedCount != 1 {
		t.Errorf("expected 1 failed, got %d", result.FailedCount)
	}
	if store.Len() != 2 {
		t.Errorf("expected 2 stored objects, got %d", store.Len())
	}
}

func TestProcessRecord_StoreFailurePropagates(t *testing.T) {
	wantErr := errors.New("store down")
	store := &mocks.MockObjectStore{
		PutFunc: func(ctx context.Context, key string, body []byte, contentType string) error {
			return wantErr
		},
	}
	svc := NewService(store, zap.NewNop())

	_, err := svc.ProcessRecord(context.Background(), []byte(`{"sensor_id":"temp_001","temperature":20,"humidity":40}`))
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected store error, got %v", err)
	}
}

func f64(v float64) *float64 { return &v }

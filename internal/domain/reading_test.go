package domain

import (
	"errors"
	"testing"
	"time"
)

func TestParseReading_FullRecord(t *testing.T) {
	body := []byte(`{
		"sensor_id": "temp_001",
		"temperature": 21.5,
		"humidity": 44.0,
		"timestamp": "2026-08-24T09:15:00Z",
		"data_quality_score": 0.9,
		"temperature_fahrenheit": 70.7,
		"location": "Building_A_Floor_1"
	}`)

	r, err := ParseReading(body)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if r.SensorID != "temp_001" {
		t.Errorf("expected sensor id 'temp_001', got '%s'", r.SensorID)
	}
	if got := r.Channels["temperature"]; got != 21.5 {
		t.Errorf("expected temperature 21.5, got %v", got)
	}
	if got := r.Channels["humidity"]; got != 44.0 {
		t.Errorf("expected humidity 44.0, got %v", got)
	}
	// Enrichment extras must not leak into the channel set.
	if len(r.Channels) != 2 {
		t.Errorf("expected 2 channels, got %d", len(r.Channels))
	}
	if r.QualityScore != 0.9 {
		t.Errorf("expected quality score 0.9, got %v", r.QualityScore)
	}
	want := time.Date(2026, 8, 24, 9, 15, 0, 0, time.UTC)
	if !r.Timestamp.Equal(want) {
		t.Errorf("expected timestamp %v, got %v", want, r.Timestamp)
	}
}

func TestParseReading_PartialChannels(t *testing.T) {
	r, err := ParseReading([]byte(`{"sensor_id":"temp_002","temperature":18.0}`))
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !r.HasChannel("temperature") {
		t.Error("expected temperature channel to be present")
	}
	if r.HasChannel("humidity") {
		t.Error("expected humidity channel to be absent")
	}
	if r.QualityScore != 0 {
		t.Errorf("expected default quality score 0, got %v", r.QualityScore)
	}
}

func TestParseReading_MalformedBody(t *testing.T) {
	if _, err := ParseReading([]byte(`{not json`)); err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestParseReading_MissingSensorID(t *testing.T) {
	_, err := ParseReading([]byte(`{"temperature": 20.0}`))
	if !errors.Is(err, ErrMissingSensorID) {
		t.Fatalf("expected ErrMissingSensorID, got %v", err)
	}
}

func TestTimeWindow_Validate(t *testing.T) {
	now := time.Now()
	if _, err := NewTimeWindow(now, now.Add(-time.Minute)); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow for inverted window, got %v", err)
	}
	if _, err := NewTimeWindow(now, now); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("expected ErrInvalidWindow for empty window, got %v", err)
	}
	if _, err := NewTimeWindow(now.Add(-time.Hour), now); err != nil {
		t.Errorf("expected valid window, got %v", err)
	}
}

func TestDefaultWindow(t *testing.T) {
	now := time.Date(2026, 8, 24, 14, 30, 0, 0, time.UTC)
	w := DefaultWindow(now)
	if !w.End.Equal(now) {
		t.Errorf("expected end %v, got %v", now, w.End)
	}
	if w.Duration() != time.Hour {
		t.Errorf("expected 1h window, got %v", w.Duration())
	}
	if w.DurationHours() != 1.0 {
		t.Errorf("expected 1.0 duration hours, got %v", w.DurationHours())
	}
}

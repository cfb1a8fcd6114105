package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrMissingSensorID is returned when a stored record carries no sensor id.
var ErrMissingSensorID = errors.New("reading has no sensor_id")

// Reading is one validated telemetry record as produced by the ingest
// enricher. Channels holds only the numeric measurements actually present
// in the stored object; readings with heterogeneous channel sets are legal.
// Immutable once loaded.
type Reading struct {
	SensorID     string
	Channels     map[string]float64
	Timestamp    time.Time
	QualityScore float64
}

// HasChannel reports whether the reading carries the named measurement.
func (r Reading) HasChannel(name string) bool {
	_, ok := r.Channels[name]
	return ok
}

// DeviceGroup maps a sensor id to its readings in discovery order. It is
// built once per aggregation run by the record loader and discarded after
// the run; devices with zero successfully parsed readings never appear.
type DeviceGroup map[string][]Reading

// readingDoc is the wire shape of a stored record. Pointer fields
// distinguish absent channels from zero values; extra fields added by the
// enricher (Fahrenheit conversion, partition hints) are ignored.
type readingDoc struct {
	SensorID         string   `json:"sensor_id"`
	Temperature      *float64 `json:"temperature"`
	Humidity         *float64 `json:"humidity"`
	Timestamp        string   `json:"timestamp"`
	DataQualityScore *float64 `json:"data_quality_score"`
}

// ParseReading decodes a stored object body into a Reading. The quality
// score defaults to 0 when absent, matching the ingest contract. A missing
// or unparsable timestamp leaves Timestamp zero; the aggregation window is
// resolved at the partition level, not per record.
func ParseReading(body []byte) (Reading, error) {
	var doc readingDoc
	if err := json.Unmarshal(body, &doc); err != nil {
		return Reading{}, fmt.Errorf("decode reading: %w", err)
	}
	if doc.SensorID == "" {
		return Reading{}, ErrMissingSensorID
	}

	r := Reading{
		SensorID: doc.SensorID,
		Channels: make(map[string]float64, 2),
	}
	if doc.Temperature != nil {
		r.Channels["temperature"] = *doc.Temperature
	}
	if doc.Humidity != nil {
		r.Channels["humidity"] = *doc.Humidity
	}
	if doc.DataQualityScore != nil {
		r.QualityScore = *doc.DataQualityScore
	}
	if doc.Timestamp != "" {
		if ts, err := time.Parse(time.RFC3339, doc.Timestamp); err == nil {
			r.Timestamp = ts.UTC()
		}
	}
	return r, nil
}

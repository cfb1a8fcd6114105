package domain

import "time"

// ChannelStats summarizes one numeric channel over a device's readings.
type ChannelStats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Std float64 `json:"std"`
}

// Quality score thresholds applied by the quality summary.
const (
	HighQualityThreshold = 0.8
	LowQualityThreshold  = 0.5
)

// QualitySummary summarizes the data_quality_score distribution of a
// device's readings within a window.
type QualitySummary struct {
	AvgScore         float64 `json:"avg_score"`
	HighQualityCount int     `json:"high_quality_count"`
	LowQualityCount  int     `json:"low_quality_count"`
}

// AnomalyReport holds per-channel z-score outlier counts. Channels with a
// zero count are still listed so consumers can tell "checked, none found"
// from "channel absent".
type AnomalyReport struct {
	PerChannel map[string]int `json:"per_channel"`
	Total      int            `json:"total_anomalies"`
}

// DeviceAggregate is the per-device, per-window rollup entry. One is built
// per device per run and never mutated after construction.
type DeviceAggregate struct {
	SensorID    string                  `json:"sensor_id"`
	Window      TimeWindow              `json:"aggregation_window"`
	RecordCount int                     `json:"record_count"`
	Channels    map[string]ChannelStats `json:"channels"`
	Quality     QualitySummary          `json:"data_quality"`
	Anomalies   AnomalyReport           `json:"anomaly_detection"`
	ProcessedAt time.Time               `json:"processed_timestamp"`
}

// ProcessingWindow describes the processed window in the rollup summary.
type ProcessingWindow struct {
	StartTime     time.Time `json:"start_time"`
	EndTime       time.Time `json:"end_time"`
	DurationHours float64   `json:"duration_hours"`
}

// SummaryStats is the run-level summary embedded in the rollup document
// and echoed in the run result.
type SummaryStats struct {
	ProcessingWindow ProcessingWindow `json:"processing_window"`
	ProcessedAt      time.Time        `json:"processed_timestamp"`
}

// RollupMetadata carries document-level bookkeeping.
type RollupMetadata struct {
	TotalSensors int       `json:"total_sensors"`
	ProcessedAt  time.Time `json:"processing_timestamp"`
}

// RollupDocument is the artifact persisted once per successful run, keyed
// deterministically by window end. Reruns for the same window overwrite the
// prior artifact.
type RollupDocument struct {
	Aggregations []DeviceAggregate `json:"aggregations"`
	SummaryStats SummaryStats      `json:"summary_stats"`
	Metadata     RollupMetadata    `json:"metadata"`
}

// RunStatus is the terminal state of one aggregation run.
type RunStatus string

const (
	RunStatusSuccess RunStatus = "success"
	RunStatusFailure RunStatus = "failure"
)

// RunResult is the structured outcome returned to the engine's caller.
// ListFailures and LoadFailures count per-item errors that were absorbed
// during the run; they keep data loss observable even when the run itself
// reports success.
type RunResult struct {
	RunID            string       `json:"run_id"`
	Status           RunStatus    `json:"status"`
	ProcessedWindow  TimeWindow   `json:"processed_window"`
	AggregationCount int          `json:"aggregation_count"`
	SummaryStats     SummaryStats `json:"summary_stats"`
	RollupKey        string       `json:"rollup_key,omitempty"`
	ListFailures     int          `json:"list_failures"`
	LoadFailures     int          `json:"load_failures"`
	Error            string       `json:"error,omitempty"`
}

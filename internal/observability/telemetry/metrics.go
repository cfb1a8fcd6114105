package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pipeline throughput
	RecordsIngestedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudpulse_records_ingested_total",
		Help: "Raw telemetry records processed by the ingestor",
	}, []string{"status"})

	ReadingsLoadedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cloudpulse_readings_loaded_total",
		Help: "Stored readings successfully fetched and parsed during aggregation runs",
	})

	LoadFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudpulse_load_failures_total",
		Help: "Per-item failures absorbed during aggregation runs",
	}, []string{"stage"}) // list, fetch, parse

	// Aggregation runs
	AggregationRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudpulse_aggregation_runs_total",
		Help: "Aggregation runs by terminal status",
	}, []string{"status"})

	AggregationRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cloudpulse_aggregation_run_duration_seconds",
		Help:    "Wall-clock duration of aggregation runs",
		Buckets: prometheus.DefBuckets,
	})

	DevicesAggregated = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "cloudpulse_devices_aggregated",
		Help: "Devices aggregated in the most recent run",
	})

	AnomaliesFlaggedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cloudpulse_anomalies_flagged_total",
		Help: "Readings flagged as z-score outliers across all runs",
	})

	// Producer side
	QueuePublishesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "cloudpulse_queue_publishes_total",
		Help: "Simulator publishes to the telemetry queue",
	}, []string{"status"})
)

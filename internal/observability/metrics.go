package observability

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/push"
)

// pushJobName groups this job's metrics on the Pushgateway; successive runs
// overwrite the previous run's series.
const pushJobName = "weather_archiver"

var (
	registry *prometheus.Registry

	// Weather API call rate. Watch for: error vs success ratio per run.
	WeatherFetchesTotal *prometheus.CounterVec

	// Weather API latency per request. Watch for: p95 > 2s (upstream degradation).
	WeatherFetchDuration *prometheus.HistogramVec

	// S3 upload rate. Watch for: failures = records lost from the archive.
	RecordUploadsTotal *prometheus.CounterVec

	// S3 upload latency per record.
	RecordUploadDuration prometheus.Histogram

	// Local file writes. Failures here are best-effort losses only.
	LocalSavesTotal *prometheus.CounterVec

	// Cities skipped this run. Watch for: skipped == configured means every
	// city failed (bad key, upstream outage).
	CitiesSkippedTotal prometheus.Counter

	// Wall-clock duration of the whole batch.
	RunDurationSeconds prometheus.Gauge
)

func init() {
	registry = prometheus.NewRegistry()

	registry.MustRegister(
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)

	WeatherFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "weatherFetchesTotal",
			Help: "Total number of weather API calls",
		},
		[]string{"status"},
	)
	WeatherFetchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "weatherFetchDurationSeconds",
			Help:    "Weather API latency in seconds (per request)",
			Buckets: []float64{.1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"status"},
	)
	RecordUploadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recordUploadsTotal",
			Help: "Total number of records uploaded to object storage",
		},
		[]string{"status"},
	)
	RecordUploadDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "recordUploadDurationSeconds",
			Help:    "Object storage upload latency in seconds (per record)",
			Buckets: prometheus.DefBuckets,
		},
	)
	LocalSavesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "localSavesTotal",
			Help: "Total number of records written to the local directory",
		},
		[]string{"status"},
	)
	CitiesSkippedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "citiesSkippedTotal",
			Help: "Cities skipped this run because fetch or upload failed",
		},
	)
	RunDurationSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "runDurationSeconds",
			Help: "Wall-clock duration of the batch run in seconds",
		},
	)

	registry.MustRegister(
		WeatherFetchesTotal, WeatherFetchDuration,
		RecordUploadsTotal, RecordUploadDuration,
		LocalSavesTotal,
		CitiesSkippedTotal, RunDurationSeconds,
	)
}

// PushMetrics ships the run's metrics to a Pushgateway. A batch process
// exits before any scraper could reach it, so push is the only delivery
// path; an empty gatewayURL disables it.
func PushMetrics(ctx context.Context, gatewayURL string) error {
	if gatewayURL == "" {
		return nil
	}
	if err := push.New(gatewayURL, pushJobName).Gatherer(registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push metrics: %w", err)
	}
	return nil
}

// Package metrics records the outcome of a scrape run as a node-exporter
// textfile.
package metrics

import (
	"time"

	"github.com/morikuni/failure/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/travelwarn/travelwarn/api"
)

// ErrorCode defines error types for metrics export
type ErrorCode string

const (
	ErrWriteMetrics ErrorCode = "WriteMetricsError"
)

func (c ErrorCode) ErrorCode() string {
	return string(c)
}

const namespace = "travelwarn"

// Run holds the gauges for one run on a private registry.
type Run struct {
	registry *prometheus.Registry

	records   prometheus.Gauge
	countries prometheus.Gauge
	success   prometheus.Gauge
	lastRun   prometheus.Gauge
	duration  prometheus.Gauge
}

// New creates the gauges and registers them.
func New() *Run {
	r := &Run{
		registry: prometheus.NewRegistry(),
		records: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_fetched",
			Help:      "Raw records fetched from the collector in the last run",
		}),
		countries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "countries",
			Help:      "Country entries written in the last run",
		}),
		success: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_success",
			Help:      "1 if the last run wrote a snapshot, 0 otherwise",
		}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix timestamp of the last run",
		}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Wall time of the last run",
		}),
	}
	r.registry.MustRegister(r.records, r.countries, r.success, r.lastRun, r.duration)
	return r
}

// Observe sets the gauges from a run summary. runErr is the error returned by
// the run, if any.
func (r *Run) Observe(sum api.Summary, runErr error, at time.Time) {
	r.records.Set(float64(sum.Records))
	r.countries.Set(float64(sum.Countries))
	r.duration.Set(sum.Duration.Seconds())
	r.lastRun.Set(float64(at.Unix()))
	if runErr == nil {
		r.success.Set(1)
	} else {
		r.success.Set(0)
	}
}

// WriteFile writes the gauges to path in the text exposition format.
func (r *Run) WriteFile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return failure.Wrap(err, failure.WithCode(ErrWriteMetrics),
			failure.Message("Failed to write metrics file"),
			failure.Context{"path": path},
		)
	}
	return nil
}

// Gatherer exposes the registry, mainly for tests.
func (r *Run) Gatherer() prometheus.Gatherer {
	return r.registry
}

// Record observes a run and writes it to path in one step. An empty path is a no-op.
func Record(path string, sum api.Summary, runErr error) error {
	if path == "" {
		return nil
	}
	r := New()
	r.Observe(sum, runErr, time.Now())
	return r.WriteFile(path)
}

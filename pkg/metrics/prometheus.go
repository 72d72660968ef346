package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	seriesTotal    *prometheus.CounterVec
	splitsTotal    *prometheus.CounterVec
	anomaliesFound prometheus.Counter
	errorsTotal    *prometheus.CounterVec
	latency        *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		seriesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demand_series_processed_total",
				Help: "Total number of series processed by batch runs",
			},
			[]string{"status"},
		),
		splitsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demand_backtest_splits_total",
				Help: "Total number of backtest splits evaluated",
			},
			[]string{"outcome"},
		),
		anomaliesFound: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "demand_anomalies_flagged_total",
				Help: "Total number of observations flagged as anomalous",
			},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "demand_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "demand_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordSeries records a processed series by terminal status.
func (r *Recorder) RecordSeries(status string) {
	r.seriesTotal.WithLabelValues(status).Inc()
}

// RecordSplit records an evaluated backtest split by outcome.
func (r *Recorder) RecordSplit(outcome string) {
	r.splitsTotal.WithLabelValues(outcome).Inc()
}

// RecordAnomalies records the number of flagged observations.
func (r *Recorder) RecordAnomalies(n int) {
	r.anomaliesFound.Add(float64(n))
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	fetchesTotal     *prometheus.CounterVec
	cacheOutcomes    *prometheus.CounterVec
	rowsAdded        *prometheus.CounterVec
	modelCalls       *prometheus.CounterVec
	modelLatency     *prometheus.HistogramVec
	forecastDuration prometheus.Histogram
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		fetchesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kronos_fetches_total",
				Help: "Total number of upstream data fetches by source and outcome",
			},
			[]string{"source", "outcome"},
		),
		cacheOutcomes: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kronos_cache_outcomes_total",
				Help: "Cache lookup outcomes (hit, stale, miss, stale_served)",
			},
			[]string{"outcome"},
		),
		rowsAdded: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kronos_rows_added_total",
				Help: "Rows of history added to the cache per symbol",
			},
			[]string{"symbol"},
		),
		modelCalls: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "kronos_model_calls_total",
				Help: "Forecasting model calls by outcome",
			},
			[]string{"outcome"},
		),
		modelLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "kronos_model_call_duration_seconds",
				Help:    "Duration of forecasting model calls in seconds",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),
		forecastDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "kronos_forecast_duration_seconds",
				Help:    "End-to-end forecast request duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
			},
		),
	}
}

// RecordFetch records one upstream fetch attempt.
func (r *Recorder) RecordFetch(source, outcome string) {
	r.fetchesTotal.WithLabelValues(source, outcome).Inc()
}

// RecordCacheOutcome records a cache lookup outcome.
func (r *Recorder) RecordCacheOutcome(outcome string) {
	r.cacheOutcomes.WithLabelValues(outcome).Inc()
}

// RecordRowsAdded records rows merged into a symbol's cached history.
func (r *Recorder) RecordRowsAdded(symbol string, n int) {
	if n <= 0 {
		return
	}
	r.rowsAdded.WithLabelValues(symbol).Add(float64(n))
}

// RecordModelCall records one model call and its latency.
func (r *Recorder) RecordModelCall(outcome string, seconds float64) {
	r.modelCalls.WithLabelValues(outcome).Inc()
	r.modelLatency.WithLabelValues(outcome).Observe(seconds)
}

// RecordForecastDuration records the end-to-end pipeline duration.
func (r *Recorder) RecordForecastDuration(seconds float64) {
	r.forecastDuration.Observe(seconds)
}

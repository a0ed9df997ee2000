package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	slicesWritten    *prometheus.CounterVec
	providerRequests *prometheus.CounterVec
	errorsTotal      *prometheus.CounterVec
	opDuration       *prometheus.HistogramVec
	coverageDays     *prometheus.GaugeVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		slicesWritten: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snowroll_slices_written_total",
				Help: "Total number of daily slices persisted",
			},
			[]string{"op", "symbol"},
		),
		providerRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snowroll_provider_requests_total",
				Help: "Total number of provider fetches issued",
			},
			[]string{"op"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "snowroll_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		opDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "snowroll_operation_duration_seconds",
				Help:    "Duration of ingestion operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		coverageDays: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "snowroll_coverage_days",
				Help: "Inclusive day span between a symbol's earliest and latest coverage",
			},
			[]string{"symbol"},
		),
	}
}

// RecordSliceWritten records one persisted daily slice.
func (r *Recorder) RecordSliceWritten(op, symbol string) {
	r.slicesWritten.WithLabelValues(op, symbol).Inc()
}

// RecordProviderRequest records one provider fetch.
func (r *Recorder) RecordProviderRequest(op string) {
	r.providerRequests.WithLabelValues(op).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordOpDuration records operation latency in seconds.
func (r *Recorder) RecordOpDuration(op string, seconds float64) {
	r.opDuration.WithLabelValues(op).Observe(seconds)
}

// RecordCoverageDays records the current coverage span for a symbol.
func (r *Recorder) RecordCoverageDays(symbol string, days float64) {
	r.coverageDays.WithLabelValues(symbol).Set(days)
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder records scoring run metrics using Prometheus.
// A nil *Recorder is valid and records nothing.
type Recorder struct {
	datesTotal       *prometheus.CounterVec
	securityFailures *prometheus.CounterVec
	signalsTotal     *prometheus.CounterVec
	crossSection     prometheus.Gauge
	dateLatency      prometheus.Histogram
	sinkErrors       *prometheus.CounterVec
}

// New creates a recorder registered on the default registry.
func New() *Recorder {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates a recorder registered on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Recorder {
	f := promauto.With(reg)
	return &Recorder{
		datesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorflow_dates_total",
				Help: "Evaluation dates processed, by outcome",
			},
			[]string{"outcome"},
		),
		securityFailures: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorflow_security_failures_total",
				Help: "Securities excluded from a date's cross-section",
			},
			[]string{"reason"},
		),
		signalsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorflow_signals_total",
				Help: "Scored records published, by signal",
			},
			[]string{"signal"},
		),
		crossSection: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "factorflow_cross_section_size",
				Help: "Valid securities in the last ranked cross-section",
			},
		),
		dateLatency: f.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "factorflow_date_duration_seconds",
				Help:    "Time to score one evaluation date",
				Buckets: prometheus.DefBuckets,
			},
		),
		sinkErrors: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "factorflow_sink_errors_total",
				Help: "Publish failures, by sink",
			},
			[]string{"sink"},
		),
	}
}

// RecordDate records a processed date ("ranked", "skipped" or "cancelled").
func (r *Recorder) RecordDate(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.datesTotal.WithLabelValues(outcome).Inc()
	r.dateLatency.Observe(d.Seconds())
}

// RecordSecurityFailure records one excluded security.
func (r *Recorder) RecordSecurityFailure(reason string) {
	if r == nil {
		return
	}
	r.securityFailures.WithLabelValues(reason).Inc()
}

// RecordSignal records n records published with the given signal.
func (r *Recorder) RecordSignal(signal string, n int) {
	if r == nil || n == 0 {
		return
	}
	r.signalsTotal.WithLabelValues(signal).Add(float64(n))
}

// RecordCrossSection sets the size of the last ranked cross-section.
func (r *Recorder) RecordCrossSection(n int) {
	if r == nil {
		return
	}
	r.crossSection.Set(float64(n))
}

// RecordSinkError records a publish failure.
func (r *Recorder) RecordSinkError(sink string) {
	if r == nil {
		return
	}
	r.sinkErrors.WithLabelValues(sink).Inc()
}

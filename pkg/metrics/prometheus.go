package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	cycleLatency  *prometheus.HistogramVec
	signalsTotal  *prometheus.CounterVec
	errorsTotal   *prometheus.CounterVec
	deliveries    *prometheus.CounterVec
	activeSymbols prometheus.Gauge
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		cycleLatency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "tradepulse_cycle_duration_seconds",
				Help:    "Duration of one signal cycle per symbol",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"symbol"},
		),
		signalsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_signals_total",
				Help: "Signal cycles by outcome",
			},
			[]string{"symbol", "outcome"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		deliveries: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "tradepulse_deliveries_total",
				Help: "Messages delivered to live connections",
			},
			[]string{"type"},
		),
		activeSymbols: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "tradepulse_active_symbols",
				Help: "Symbols with at least one subscriber or follower",
			},
		),
	}
}

// RecordCycleLatency records one cycle duration.
func (r *Recorder) RecordCycleLatency(symbol string, seconds float64) {
	r.cycleLatency.WithLabelValues(symbol).Observe(seconds)
}

// RecordSignal records a cycle outcome (broadcast, neutral, low_confidence, risk_rejected).
func (r *Recorder) RecordSignal(symbol, outcome string) {
	r.signalsTotal.WithLabelValues(symbol, outcome).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordDelivery records n delivered frames of one message type.
func (r *Recorder) RecordDelivery(msgType string, n int) {
	r.deliveries.WithLabelValues(msgType).Add(float64(n))
}

// RecordActiveSymbols updates the active-set gauge.
func (r *Recorder) RecordActiveSymbols(n int) {
	r.activeSymbols.Set(float64(n))
}

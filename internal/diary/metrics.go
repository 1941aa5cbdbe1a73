package diary

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a [Store].
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	ops      *prometheus.CounterVec
	duration *prometheus.HistogramVec
	skipped  prometheus.Counter
	entries  prometheus.Gauge
}

// NewMetrics creates the store collectors and registers them with reg.
// The gate's queue length is exported as diary_gate_waiting.
func NewMetrics(reg prometheus.Registerer, gate *Gate) *Metrics {
	m := &Metrics{
		ops: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "diary_store_operations_total",
				Help: "Store operations by kind and result.",
			},
			[]string{"op", "result"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "diary_store_operation_duration_seconds",
				Help:    "Store operation latency including time queued on the gate.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"op"},
		),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "diary_store_skipped_lines_total",
			Help: "Malformed data file lines dropped while decoding.",
		}),
		entries: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "diary_store_entries",
			Help: "Entries in the data file as of the last operation.",
		}),
	}

	reg.MustRegister(m.ops, m.duration, m.skipped, m.entries)

	if gate != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(
			prometheus.GaugeOpts{
				Name: "diary_gate_waiting",
				Help: "Operations queued on the data file gate.",
			},
			func() float64 { return float64(gate.Waiting()) },
		))
	}

	return m
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	if m == nil {
		return
	}

	result := "ok"
	if err != nil {
		result = "error"
	}

	m.ops.WithLabelValues(op, result).Inc()
	m.duration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) loaded(count, skipped int) {
	if m == nil {
		return
	}

	m.entries.Set(float64(count))

	if skipped > 0 {
		m.skipped.Add(float64(skipped))
	}
}

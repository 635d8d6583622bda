package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PayrollMetrics counts payslip computations and times batch runs.
type PayrollMetrics struct {
	payslipsComputed *prometheus.CounterVec
	batchDuration    prometheus.Histogram
}

// NewPayrollMetrics registers the payroll collectors on registerer.
// A nil registerer falls back to the process-wide default.
func NewPayrollMetrics(registerer prometheus.Registerer) *PayrollMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	payslipsComputed := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "payroll_payslips_computed_total",
		Help: "Payslip computations by outcome (ok, configuration, resolution, validation, internal).",
	}, []string{"outcome"})
	batchDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "payroll_batch_duration_seconds",
		Help:    "Wall time of payslip batch runs.",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	})

	registerer.MustRegister(payslipsComputed, batchDuration)

	return &PayrollMetrics{
		payslipsComputed: payslipsComputed,
		batchDuration:    batchDuration,
	}
}

// ObservePayslip records one computation outcome.
func (m *PayrollMetrics) ObservePayslip(outcome string) {
	if m == nil {
		return
	}
	m.payslipsComputed.WithLabelValues(outcome).Inc()
}

// ObserveBatch records the duration of a batch that started at start.
func (m *PayrollMetrics) ObserveBatch(start time.Time) {
	if m == nil {
		return
	}
	m.batchDuration.Observe(time.Since(start).Seconds())
}

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// SweepMetrics tracks background status sweeps.
type SweepMetrics struct {
	runs      *prometheus.CounterVec
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewSweepMetrics() (*SweepMetrics, error) {
	return newSweepMetrics(prometheus.DefaultRegisterer)
}

func newSweepMetrics(reg prometheus.Registerer) (*SweepMetrics, error) {
	runs, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gstbook_sweep_runs_total",
		Help: "Sweep executions by job and outcome.",
	}, []string{"job", "outcome"}))
	if err != nil {
		return nil, err
	}
	processed, err := registerOrReuse(reg, prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gstbook_sweep_documents_total",
		Help: "Documents moved by a sweep.",
	}, []string{"job"}))
	if err != nil {
		return nil, err
	}
	duration, err := registerOrReuse(reg, prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gstbook_sweep_duration_seconds",
		Help:    "Sweep wall time.",
		Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 30},
	}, []string{"job"}))
	if err != nil {
		return nil, err
	}
	return &SweepMetrics{runs: runs, processed: processed, duration: duration}, nil
}

func (m *SweepMetrics) Observe(job string, processed int, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.runs.WithLabelValues(job, outcome).Inc()
	m.processed.WithLabelValues(job).Add(float64(processed))
	m.duration.WithLabelValues(job).Observe(elapsed.Seconds())
}

package optimizer

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	metricsNamespace = "qgd"
	subsystem        = "optimizer"
)

// Metrics groups the optimizer instruments. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	iterationsTotal     prometheus.Counter
	randomizationsTotal prometheus.Counter
	runsTotal           *prometheus.CounterVec
	runDuration         prometheus.Histogram
	bestCost            prometheus.Gauge
}

// NewMetrics registers the optimizer instruments on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		iterationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "iterations_total",
			Help:      "Total number of optimizer iterations",
		}),
		randomizationsTotal: f.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "randomizations_total",
			Help:      "Total number of perturbations of the incumbent parameters",
		}),
		runsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: subsystem,
				Name:      "runs_total",
				Help:      "Total number of optimizer runs by final state",
			},
			[]string{"state"}, // state: "CONVERGED", "EXHAUSTED"
		),
		runDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "run_duration_seconds",
			Help:      "Wall time of one optimizer run",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 10, 30, 60, 300},
		}),
		bestCost: f.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: subsystem,
			Name:      "best_cost",
			Help:      "Best cost reached by the most recent run",
		}),
	}
}

func (m *Metrics) iteration() {
	if m != nil {
		m.iterationsTotal.Inc()
	}
}

func (m *Metrics) randomization() {
	if m != nil {
		m.randomizationsTotal.Inc()
	}
}

func (m *Metrics) finish(state State, best float64, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.runsTotal.WithLabelValues(state.String()).Inc()
	m.runDuration.Observe(elapsed.Seconds())
	m.bestCost.Set(best)
}

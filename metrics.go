package synth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const ResultLabel = "result"

// Metrics counts solver work. A nil *Metrics records nothing.
type Metrics struct {
	SolverChecks       *prometheus.CounterVec
	ProgramsFound      prometheus.Counter
	RejectedPrograms   prometheus.Counter
	CheckDuration      prometheus.Histogram
	synthesisDurations *prometheus.SummaryVec
}

// NewMetrics creates the collectors and registers them with reg when reg
// is not nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		SolverChecks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synth_solver_checks_total",
				Help: "Monotonic count of solver checks by result",
			},
			[]string{ResultLabel},
		),
		ProgramsFound: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "synth_programs_found_total",
				Help: "Monotonic count of decoded programs that satisfy their specification",
			},
		),
		RejectedPrograms: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "synth_rejected_programs_total",
				Help: "Monotonic count of decoded programs blocked after failing concrete verification",
			},
		),
		CheckDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "synth_solver_check_duration_seconds",
				Help:    "The duration of a single solver check",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
			},
		),
		synthesisDurations: prometheus.NewSummaryVec(
			prometheus.SummaryOpts{
				Name:       "synth_synthesis_duration_seconds",
				Help:       "The duration of a whole synthesis by outcome",
				Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
			},
			[]string{ResultLabel},
		),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range m.Collectors() {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) Collectors() []prometheus.Collector {
	return []prometheus.Collector{m.SolverChecks, m.ProgramsFound, m.RejectedPrograms, m.CheckDuration, m.synthesisDurations}
}

func (m *Metrics) observeCheck(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.SolverChecks.WithLabelValues(result).Inc()
	m.CheckDuration.Observe(d.Seconds())
}

func (m *Metrics) programFound() {
	if m == nil {
		return
	}
	m.ProgramsFound.Inc()
}

func (m *Metrics) programRejected() {
	if m == nil {
		return
	}
	m.RejectedPrograms.Inc()
}

func (m *Metrics) observeSynthesis(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.synthesisDurations.WithLabelValues(result).Observe(d.Seconds())
}

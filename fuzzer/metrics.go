package fuzzer

import (
	"github.com/prometheus/client_golang/prometheus"

	"alma.local/valobs/feedback"
)

// metrics tracks execution outcomes of an InProcessFuzzer.
type metrics struct {
	executions *prometheus.CounterVec
	unhashable prometheus.Counter
}

func newMetrics() *metrics {
	return &metrics{
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "valobs_executions_total",
				Help: "Executions run by the in-process fuzzer, by exit kind",
			},
			[]string{"exit"},
		),
		unhashable: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "valobs_observer_hash_unavailable_total",
				Help: "Observer hash reads that had no canonical encoding",
			},
		),
	}
}

func (m *metrics) register(reg prometheus.Registerer) error {
	if err := reg.Register(m.executions); err != nil {
		return err
	}
	return reg.Register(m.unhashable)
}

func (m *metrics) observe(sig feedback.RuntimeSignature) {
	m.executions.WithLabelValues(sig.Exit.String()).Inc()
	m.unhashable.Add(float64(len(sig.Unhashable)))
}

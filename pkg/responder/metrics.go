package responder

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts responder activity. A nil *Metrics records nothing.
type Metrics struct {
	inputs        *prometheus.CounterVec
	presentations *prometheus.CounterVec
	preemptions   *prometheus.CounterVec
}

// NewMetrics registers the responder counters with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		inputs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "npc_responder_inputs_total",
			Help: "Player inputs by outcome",
		}, []string{"responder", "outcome"}),
		presentations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "npc_responder_presentations_total",
			Help: "Audio and subtitle presentations started",
		}, []string{"responder"}),
		preemptions: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "npc_responder_preemptions_total",
			Help: "Presentations cut short by a newer one",
		}, []string{"responder"}),
	}
}

func (m *Metrics) observeInput(responder string, outcome Outcome) {
	if m == nil {
		return
	}
	m.inputs.WithLabelValues(responder, outcome.String()).Inc()
}

func (m *Metrics) observePresentation(responder string, preempted bool) {
	if m == nil {
		return
	}
	m.presentations.WithLabelValues(responder).Inc()
	if preempted {
		m.preemptions.WithLabelValues(responder).Inc()
	}
}

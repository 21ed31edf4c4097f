package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/switchyard-io/switchyard/pkg/domain"
)

// Metrics implements registry lifecycle hooks backed by prometheus
// collectors. Construct with NewMetrics and pass Hooks() to the registry.
type Metrics struct {
	transitions    *prometheus.CounterVec
	listenerPanics *prometheus.CounterVec
	machines       prometheus.Gauge
}

// NewMetrics registers the collectors with reg (use
// prometheus.DefaultRegisterer for the global registry).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		transitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "transitions_total",
			Help:      "Event deliveries per machine, by result (matched or missed).",
		}, []string{"machine", "result"}),
		listenerPanics: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "switchyard",
			Name:      "listener_panics_total",
			Help:      "Listener panics contained during state change notification.",
		}, []string{"machine"}),
		machines: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "switchyard",
			Name:      "machines_registered",
			Help:      "Number of machines currently registered.",
		}),
	}
}

// Hooks returns lifecycle hooks that feed the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnTransition: func(ev *domain.TransitionEvent) {
			m.transitions.WithLabelValues(ev.MachineID, "matched").Inc()
		},
		OnNoMatch: func(ev *domain.TransitionEvent) {
			m.transitions.WithLabelValues(ev.MachineID, "missed").Inc()
		},
		OnListenerPanic: func(ev *domain.ListenerPanicEvent) {
			m.listenerPanics.WithLabelValues(ev.MachineID).Inc()
		},
		OnRegister: func(string) {
			m.machines.Inc()
		},
		OnUnregister: func(string) {
			m.machines.Dec()
		},
	}
}

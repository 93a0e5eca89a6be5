package webstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/multierr"
)

// Metrics counts facade operations per backend. A nil *Metrics records
// nothing.
type Metrics struct {
	ops            *prometheus.CounterVec
	decodeFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		ops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webstore",
			Name:      "operations_total",
			Help:      "Facade operations by backend and operation.",
		}, []string{"backend", "op"}),
		decodeFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "webstore",
			Name:      "decode_failures_total",
			Help:      "Stored values that could not be decoded.",
		}, []string{"backend"}),
	}
	if reg == nil {
		return m, nil
	}
	err := multierr.Combine(
		reg.Register(m.ops),
		reg.Register(m.decodeFailures),
	)
	if err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Metrics) op(b Backend, op string) {
	if m == nil {
		return
	}
	m.ops.WithLabelValues(b.String(), op).Inc()
}

func (m *Metrics) decodeFailure(b Backend) {
	if m == nil {
		return
	}
	m.decodeFailures.WithLabelValues(b.String()).Inc()
}

package notification

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts dispatcher activity. A nil *Metrics records nothing.
type Metrics struct {
	published  *prometheus.CounterVec
	dropped    prometheus.Counter
	deliveries *prometheus.CounterVec
}

// NewMetrics registers the dispatcher collectors on reg, or on the default
// registerer when reg is nil.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "notifications",
			Name:      "published_total",
			Help:      "Events accepted by the dispatcher queue.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "notifications",
			Name:      "dropped_total",
			Help:      "Events dropped after waiting too long for room in a full queue.",
		}),
		deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "notifications",
			Name:      "deliveries_total",
			Help:      "Delivery attempts per sink after retries, by result.",
		}, []string{"sink", "result"}),
	}

	var err error
	if m.published, err = register(reg, m.published); err != nil {
		return nil, err
	}
	if m.dropped, err = register(reg, m.dropped); err != nil {
		return nil, err
	}
	if m.deliveries, err = register(reg, m.deliveries); err != nil {
		return nil, err
	}
	return m, nil
}

// register adds c to reg, reusing an identical collector registered earlier.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, fmt.Errorf("register notification metric: %w", err)
	}
	return c, nil
}

func (m *Metrics) recordPublished(t EventType) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) recordDropped() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) recordDelivery(sink string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "failed"
	}
	m.deliveries.WithLabelValues(sink, result).Inc()
}

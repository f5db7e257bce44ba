package services

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/yigit/facultycredits/internal/app/models"
)

// LedgerMetrics counts committed transitions and lost compare-and-swap races.
// A nil *LedgerMetrics records nothing.
type LedgerMetrics struct {
	created     *prometheus.CounterVec
	transitions *prometheus.CounterVec
	conflicts   *prometheus.CounterVec
}

// NewLedgerMetrics registers the ledger collectors on reg, or on the default
// registerer when reg is nil.
func NewLedgerMetrics(reg prometheus.Registerer) (*LedgerMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &LedgerMetrics{
		created: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "ledger",
			Name:      "entries_created_total",
			Help:      "Ledger entries created, by kind.",
		}, []string{"kind"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "ledger",
			Name:      "transitions_total",
			Help:      "Committed entry status transitions.",
		}, []string{"from", "to"}),
		conflicts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "credits",
			Subsystem: "ledger",
			Name:      "conflicts_total",
			Help:      "Operations rejected because the entry changed between read and write.",
		}, []string{"operation"}),
	}

	for i, vec := range []**prometheus.CounterVec{&m.created, &m.transitions, &m.conflicts} {
		if err := reg.Register(*vec); err != nil {
			are, ok := err.(prometheus.AlreadyRegisteredError)
			if !ok {
				return nil, fmt.Errorf("register ledger metric %d: %w", i, err)
			}
			existing, ok := are.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				return nil, fmt.Errorf("register ledger metric %d: %w", i, err)
			}
			*vec = existing
		}
	}
	return m, nil
}

// MustNewLedgerMetrics is NewLedgerMetrics that panics on error
func MustNewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	m, err := NewLedgerMetrics(reg)
	if err != nil {
		panic(err)
	}
	return m
}

func (m *LedgerMetrics) recordCreated(kind models.EntryKind) {
	if m == nil {
		return
	}
	m.created.WithLabelValues(string(kind)).Inc()
}

func (m *LedgerMetrics) recordTransition(from, to models.EntryStatus) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(string(from), string(to)).Inc()
}

func (m *LedgerMetrics) recordConflict(operation string) {
	if m == nil {
		return
	}
	m.conflicts.WithLabelValues(operation).Inc()
}

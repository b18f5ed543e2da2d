// Package metrics exposes ledger activity to Prometheus.
package metrics

import (
	"time"

	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/SscSPs/study_coins/internal/core/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// LedgerMetrics implements ports.LedgerMetrics with Prometheus collectors.
type LedgerMetrics struct {
	// mutations counts credits and debits.
	// Labels: kind (CREDIT, DEBIT), outcome (ok, replayed, or an error kind)
	mutations *prometheus.CounterVec

	// mutationLatency measures a mutation from validation to commit.
	// Labels: kind
	mutationLatency *prometheus.HistogramVec

	// lockWait measures time spent waiting for the account lock.
	lockWait prometheus.Histogram
}

var _ ports.LedgerMetrics = (*LedgerMetrics)(nil)

// NewLedgerMetrics registers the ledger collectors with reg.
func NewLedgerMetrics(reg prometheus.Registerer) *LedgerMetrics {
	factory := promauto.With(reg)
	return &LedgerMetrics{
		mutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "study_coins",
			Subsystem: "ledger",
			Name:      "mutations_total",
			Help:      "Total ledger mutations by kind and outcome",
		}, []string{"kind", "outcome"}),
		mutationLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "study_coins",
			Subsystem: "ledger",
			Name:      "mutation_duration_seconds",
			Help:      "Ledger mutation latency in seconds",
			Buckets:   []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}, []string{"kind"}),
		lockWait: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "study_coins",
			Subsystem: "ledger",
			Name:      "lock_wait_seconds",
			Help:      "Time spent waiting for an account lock",
			Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}),
	}
}

func (m *LedgerMetrics) ObserveMutation(kind domain.EntryKind, outcome string, elapsed time.Duration) {
	m.mutations.WithLabelValues(string(kind), outcome).Inc()
	m.mutationLatency.WithLabelValues(string(kind)).Observe(elapsed.Seconds())
}

func (m *LedgerMetrics) ObserveLockWait(elapsed time.Duration) {
	m.lockWait.Observe(elapsed.Seconds())
}

package metrics

import (
	"testing"
	"time"

	"github.com/SscSPs/study_coins/internal/core/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestLedgerMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewLedgerMetrics(reg)

	m.ObserveMutation(domain.Debit, "ok", 3*time.Millisecond)
	m.ObserveMutation(domain.Debit, "ok", 5*time.Millisecond)
	m.ObserveMutation(domain.Debit, "INSUFFICIENT_BALANCE", time.Millisecond)
	m.ObserveMutation(domain.Credit, "replayed", time.Millisecond)
	m.ObserveLockWait(time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.mutations.WithLabelValues("DEBIT", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("DEBIT", "INSUFFICIENT_BALANCE")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.mutations.WithLabelValues("CREDIT", "replayed")))
	assert.Equal(t, 3, testutil.CollectAndCount(m.mutations))
	assert.Equal(t, 1, testutil.CollectAndCount(m.lockWait))
}

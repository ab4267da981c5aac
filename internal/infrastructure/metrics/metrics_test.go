package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.ObserveOperation("reward_tracker", "daily_login", "ok", time.Millisecond)
	m.SetCustodyBalance("reward_tracker", "HTO", 1)
	m.IncReconcileMismatch("reward_tracker")
	m.IncOutbox("sent")
	assert.Nil(t, m.Registry())
	assert.NotNil(t, m.Handler())
}

func TestCountersRecord(t *testing.T) {
	m := New()
	m.ObserveOperation("exchange_escrow", "purchase_nft", "ok", time.Millisecond)
	m.ObserveOperation("exchange_escrow", "purchase_nft", "ok", time.Millisecond)
	m.IncReconcileMismatch("exchange_escrow")
	m.SetCustodyBalance("exchange_escrow", "HTO", 0.5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.operations.WithLabelValues("exchange_escrow", "purchase_nft", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.reconcileMismatch.WithLabelValues("exchange_escrow")))
	assert.Equal(t, 0.5, testutil.ToFloat64(m.custodyBalance.WithLabelValues("exchange_escrow", "HTO")))
}

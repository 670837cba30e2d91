package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.RequestCreated()
	m.RequestCreated()
	m.TransitionObserved("approve", "ok", 12*time.Millisecond)
	m.TransitionObserved("approve", "invalid_transition", time.Millisecond)
	m.MessageRelayed("verification.created", "delivered")
	m.ObserveHTTP("GET", "/api/requests/{id}", 200, time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsCreated))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Transitions.WithLabelValues("approve", "invalid_transition")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RelayedMessages.WithLabelValues("verification.created", "delivered")))

	n, err := testutil.GatherAndCount(reg, "addressme_transition_duration_seconds", "addressme_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	m.RequestCreated()
	m.TransitionObserved("claim", "ok", time.Millisecond)
	m.MessageRelayed("t", "failed")
	m.ObserveHTTP("GET", "/", 200, time.Millisecond)
}

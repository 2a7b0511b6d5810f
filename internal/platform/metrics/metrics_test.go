package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestObserveAction(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveAction("accept", "ok")
	m.ObserveAction("accept", "ok")
	m.ObserveAction("accept", "EXCHANGE_NOT_PENDING")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.transitions.WithLabelValues("accept", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transitions.WithLabelValues("accept", "EXCHANGE_NOT_PENDING")))
}

func TestObserveHTTPAndRetries(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveHTTP("POST", 409, 5*time.Millisecond)
	m.ObserveTxRetry()

	assert.Equal(t, 1.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("POST", "409")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.txRetries))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveAction("cancel", "ok")
		m.ObserveTxRetry()
		m.ObserveHTTP("GET", 200, time.Millisecond)
	})
}

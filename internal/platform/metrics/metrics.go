// Package metrics holds the prometheus collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	transitions  *prometheus.CounterVec
	txRetries    prometheus.Counter
	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookswap",
			Name:      "exchange_actions_total",
			Help:      "Exchange actions by action and outcome code.",
		}, []string{"action", "outcome"}),
		txRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "bookswap",
			Name:      "db_tx_retries_total",
			Help:      "Transactions replayed after a serialization failure or deadlock.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "bookswap",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method and status code.",
		}, []string{"method", "code"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "bookswap",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
	}
	reg.MustRegister(m.transitions, m.txRetries, m.httpRequests, m.httpDuration)
	return m
}

// ObserveAction counts one exchange action. outcome is "ok" or an error code.
func (m *Metrics) ObserveAction(action, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(action, outcome).Inc()
}

func (m *Metrics) ObserveTxRetry() {
	if m == nil {
		return
	}
	m.txRetries.Inc()
}

func (m *Metrics) ObserveHTTP(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method).Observe(d.Seconds())
}

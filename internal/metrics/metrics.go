// metrics описывает метрики Prometheus сервиса авторизации.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "auth"

// Результаты операций для счётчика auth_operations_total.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
	ResultError   = "error"
)

// Metrics — набор метрик. Nil-указатель допустим: все методы становятся no-op.
type Metrics struct {
	operations  *prometheus.CounterVec
	cacheLookup *prometheus.CounterVec
	httpLatency *prometheus.HistogramVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Auth use cases by operation and result.",
		}, []string{"op", "result"}),
		cacheLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_cache_lookups_total",
			Help:      "Session cache lookups by outcome (hit/miss).",
		}, []string{"outcome"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route, method and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}

	reg.MustRegister(m.operations, m.cacheLookup, m.httpLatency)

	return m
}

// Operation учитывает результат операции op.
func (m *Metrics) Operation(op, result string) {
	if m == nil {
		return
	}

	m.operations.WithLabelValues(op, result).Inc()
}

// CacheLookup учитывает попадание или промах кэша сессий.
func (m *Metrics) CacheLookup(hit bool) {
	if m == nil {
		return
	}

	outcome := "miss"
	if hit {
		outcome = "hit"
	}

	m.cacheLookup.WithLabelValues(outcome).Inc()
}

// ObserveHTTP записывает длительность обработки запроса.
func (m *Metrics) ObserveHTTP(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}

	m.httpLatency.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}

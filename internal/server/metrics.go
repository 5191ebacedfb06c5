package server

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// metrics holds the collectors of one Server. Each Server owns its registry
// so several can coexist in a process.
type metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	explored  *prometheus.HistogramVec
	bloomAdds prometheus.Counter
	limited   prometheus.Counter
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "algokit_http_requests_total",
			Help: "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "algokit_http_request_duration_seconds",
			Help:    "HTTP request latency by route",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		explored: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "algokit_path_explored_nodes",
			Help:    "Frontier pops per grid search",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"algorithm"}),
		bloomAdds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "algokit_bloom_items_added_total",
			Help: "Items added to the membership filter",
		}),
		limited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "algokit_http_rate_limited_total",
			Help: "Requests rejected by the rate limiter",
		}),
	}
	m.registry.MustRegister(m.requests, m.latency, m.explored, m.bloomAdds, m.limited)
	return m
}

func (m *metrics) observeRequest(route string, code int, d time.Duration) {
	m.requests.WithLabelValues(route, statusLabel(code)).Inc()
	m.latency.WithLabelValues(route).Observe(d.Seconds())
}

func statusLabel(code int) string {
	switch {
	case code >= 500:
		return "5xx"
	case code >= 400:
		return "4xx"
	case code >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Package metrics holds the service's Prometheus registry and collectors.
//
// A private registry is used so tests can build as many instances as they
// like. All recording methods are safe on a nil *Metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "accounts"

// Metrics contains the custom collectors.
type Metrics struct {
	registry *prometheus.Registry

	AuthEvents         *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	ListingNotModified prometheus.Counter
}

// New creates a registry with Go and process collectors plus the custom ones.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		AuthEvents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_events_total",
				Help:      "Authentication events by event and outcome",
			},
			[]string{"event", "outcome"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "HTTP requests by method, route pattern and status code",
			},
			[]string{"method", "route", "code"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency by method and route pattern",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		ListingNotModified: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "listing_not_modified_total",
				Help:      "Account listings answered with 304 Not Modified",
			},
		),
	}

	reg.MustRegister(m.AuthEvents, m.HTTPRequests, m.HTTPDuration, m.ListingNotModified)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RegisterRevocationGauge exports the revocation registry size, sampled at scrape time.
func (m *Metrics) RegisterRevocationGauge(size func() int) {
	if m == nil || size == nil {
		return
	}
	m.registry.MustRegister(prometheus.NewGaugeFunc(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "revoked_tokens",
			Help:      "Tokens currently held in the revocation registry",
		},
		func() float64 { return float64(size()) },
	))
}

// ObserveAuth counts one authentication event ("register", "login", "logout", "guard", "delete").
func (m *Metrics) ObserveAuth(event, outcome string) {
	if m == nil {
		return
	}
	m.AuthEvents.WithLabelValues(event, outcome).Inc()
}

// ObserveHTTP records one served request. route should be a pattern, not a raw path.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveNotModified counts a 304 listing response.
func (m *Metrics) ObserveNotModified() {
	if m == nil {
		return
	}
	m.ListingNotModified.Inc()
}

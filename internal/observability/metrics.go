package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exposes prometheus instrumentation for the queue engine.
type Metrics struct {
	registry *prometheus.Registry

	ticketsCreated   *prometheus.CounterVec
	ticketsCompleted *prometheus.CounterVec
	ticketsNoShow    *prometheus.CounterVec
	tokenCollisions  prometheus.Counter
	serviceDuration  prometheus.Histogram
	requestTotal     *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
}

// NewMetrics initializes the registry and collectors.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		ticketsCreated: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_tickets_created_total",
			Help: "Tickets created, by category.",
		}, []string{"category"}),
		ticketsCompleted: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_tickets_completed_total",
			Help: "Tickets completed, by category.",
		}, []string{"category"}),
		ticketsNoShow: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "queue_tickets_no_show_total",
			Help: "Tickets placed on hold as no-show, by category.",
		}, []string{"category"}),
		tokenCollisions: factory.NewCounter(prometheus.CounterOpts{
			Name: "queue_token_collisions_total",
			Help: "Token allocation collision retries.",
		}),
		serviceDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "queue_service_duration_seconds",
			Help:    "Time from serving start to completion.",
			Buckets: prometheus.ExponentialBuckets(15, 2, 10),
		}),
		requestTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by path, method and status.",
		}, []string{"path", "method", "status"}),
		requestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path", "method"}),
	}
}

// Handler serves the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest tracks a completed HTTP request.
func (m *Metrics) RecordRequest(path, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestTotal.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.requestDuration.WithLabelValues(path, method).Observe(duration.Seconds())
}

// RecordTicketCreated counts a routed check-in.
func (m *Metrics) RecordTicketCreated(categoryID string) {
	if m == nil {
		return
	}
	m.ticketsCreated.WithLabelValues(categoryID).Inc()
}

// RecordTicketCompleted counts a completion and its service duration.
func (m *Metrics) RecordTicketCompleted(categoryID string, serviceDuration time.Duration) {
	if m == nil {
		return
	}
	m.ticketsCompleted.WithLabelValues(categoryID).Inc()
	if serviceDuration > 0 {
		m.serviceDuration.Observe(serviceDuration.Seconds())
	}
}

// RecordTicketNoShow counts a hold transition.
func (m *Metrics) RecordTicketNoShow(categoryID string) {
	if m == nil {
		return
	}
	m.ticketsNoShow.WithLabelValues(categoryID).Inc()
}

// RecordTokenCollision counts one collision retry in the allocator.
func (m *Metrics) RecordTokenCollision() {
	if m == nil {
		return
	}
	m.tokenCollisions.Inc()
}

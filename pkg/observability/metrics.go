package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the delivery service.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	EventsTotal        *prometheus.CounterVec
	DeliveriesTotal    *prometheus.CounterVec
	RetriesTotal       prometheus.Counter
	DeliveryDuration   prometheus.Histogram
	WebhooksRegistered prometheus.Gauge
	WebhooksActive     prometheus.Gauge
}

// NewMetrics creates and registers all delivery metrics on the given
// registry. Passing nil creates a private registry.
func NewMetrics(registry *prometheus.Registry) *Metrics {
	if registry == nil {
		registry = prometheus.NewRegistry()
	}

	m := &Metrics{
		registry: registry,
		EventsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_events_total",
				Help: "Total number of domain events dispatched",
			},
			[]string{"event"},
		),
		DeliveriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "dispatch_deliveries_total",
				Help: "Total number of webhook deliveries by terminal status",
			},
			[]string{"status"},
		),
		RetriesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "dispatch_delivery_retries_total",
				Help: "Total number of delivery retry transitions",
			},
		),
		DeliveryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "dispatch_delivery_duration_seconds",
				Help:    "End-to-end delivery duration including retries",
				Buckets: prometheus.DefBuckets,
			},
		),
		WebhooksRegistered: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_webhooks_registered",
				Help: "Number of registered webhooks",
			},
		),
		WebhooksActive: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "dispatch_webhooks_active",
				Help: "Number of active webhooks",
			},
		),
	}

	registry.MustRegister(
		m.EventsTotal,
		m.DeliveriesTotal,
		m.RetriesTotal,
		m.DeliveryDuration,
		m.WebhooksRegistered,
		m.WebhooksActive,
	)
	return m
}

// Handler returns an HTTP handler exposing the metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveEvent records a dispatched event.
func (m *Metrics) ObserveEvent(event string) {
	if m == nil {
		return
	}
	m.EventsTotal.WithLabelValues(event).Inc()
}

// ObserveDelivery records a delivery's terminal status and duration.
func (m *Metrics) ObserveDelivery(status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.DeliveriesTotal.WithLabelValues(status).Inc()
	m.DeliveryDuration.Observe(duration.Seconds())
}

// ObserveRetries records retry transitions performed by a delivery.
func (m *Metrics) ObserveRetries(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.RetriesTotal.Add(float64(count))
}

// SetWebhookCounts updates the registered/active webhook gauges.
func (m *Metrics) SetWebhookCounts(total, active int) {
	if m == nil {
		return
	}
	m.WebhooksRegistered.Set(float64(total))
	m.WebhooksActive.Set(float64(active))
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "employee_timeline"

// Outcome label values for dispatch metrics.
const (
	OutcomeSent           = "sent"
	OutcomeRateLimited    = "rate_limited"
	OutcomeUnregistered   = "unregistered"
	OutcomeMissingVar     = "missing_variable"
	OutcomeRenderFailed   = "render_failed"
	OutcomeDeliveryFailed = "delivery_failed"
	OutcomeError          = "error"
)

// Metrics holds the Prometheus collectors of the notification pipeline.
type Metrics struct {
	Dispatches       *prometheus.CounterVec
	DispatchDuration *prometheus.HistogramVec
	BusPublished     *prometheus.CounterVec
	BusDropped       *prometheus.CounterVec
	HubClients       prometheus.Gauge
	HubMessages      *prometheus.CounterVec
	HubDropped       prometheus.Counter
	KafkaEvents      *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Tests pass a fresh
// prometheus.NewRegistry() so constructions don't collide.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Dispatches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "dispatcher",
				Name:      "dispatches_total",
				Help:      "Notification dispatch attempts by event type, provider and outcome",
			},
			[]string{"event_type", "provider", "outcome"},
		),
		DispatchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "dispatcher",
				Name:      "dispatch_duration_seconds",
				Help:      "Time spent rendering and delivering a notification",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"provider"},
		),
		BusPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "event_bus",
				Name:      "published_total",
				Help:      "Domain events published by type",
			},
			[]string{"event_type"},
		),
		BusDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "event_bus",
				Name:      "dropped_total",
				Help:      "Domain events dropped because a subscriber queue was full",
			},
			[]string{"subscriber"},
		),
		HubClients: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "realtime",
				Name:      "connected_clients",
				Help:      "Currently connected realtime clients",
			},
		),
		HubMessages: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "realtime",
				Name:      "messages_total",
				Help:      "Realtime messages queued for delivery by message type",
			},
			[]string{"type"},
		),
		HubDropped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "realtime",
				Name:      "dropped_total",
				Help:      "Realtime messages dropped because the hub queue was full",
			},
		),
		KafkaEvents: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "kafka",
				Name:      "events_total",
				Help:      "Domain events consumed from Kafka by outcome",
			},
			[]string{"outcome"},
		),
		gatherer: reg,
	}
}

// NewNop returns metrics bound to a private registry.
func NewNop() *Metrics {
	return New(prometheus.NewRegistry())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

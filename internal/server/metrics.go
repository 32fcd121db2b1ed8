package server

import (
	"net/http"

	"github.com/Tyrowin/roomchat/internal/room"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "roomchat"

// Metrics exposes relay counters on a private Prometheus registry. Gauges
// read the room registry at scrape time rather than tracking their own count.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	frames    *prometheus.CounterVec
	dropped   prometheus.Counter
	delivered prometheus.Counter
	evicted   prometheus.Counter
}

// NewMetrics registers the relay collectors, reading gauges from rooms.
func NewMetrics(rooms *room.Registry) *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		frames: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "inbound_frames_total",
			Help:      "Inbound frames by outcome.",
		}, []string{"type"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deliveries_skipped_total",
			Help:      "Per-recipient sends skipped during a broadcast.",
		}),
		delivered: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "deliveries_total",
			Help:      "Per-recipient sends queued during a broadcast.",
		}),
		evicted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "evictions_total",
			Help:      "Connections removed after a broadcast found them closed.",
		}),
	}

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.frames, m.dropped, m.delivered, m.evicted,
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "connections",
			Help:      "Admitted connections.",
		}, func() float64 { return float64(rooms.Len()) }),
		prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Name:      "rooms",
			Help:      "Rooms with at least one member.",
		}, func() float64 { return float64(rooms.RoomCount()) }),
	)
	return m
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

func (m *Metrics) frame(kind string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(kind).Inc()
}

func (m *Metrics) broadcast(result room.BroadcastResult) {
	if m == nil {
		return
	}
	m.delivered.Add(float64(result.Delivered))
	m.dropped.Add(float64(result.Skipped))
}

func (m *Metrics) eviction() {
	if m == nil {
		return
	}
	m.evicted.Inc()
}

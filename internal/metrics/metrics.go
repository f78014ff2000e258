package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

const (
	ChannelSSE    = "sse"
	ChannelSocket = "socket"
	ChannelPush   = "push"
	ChannelBroker = "broker"

	OutcomeDelivered = "delivered"
	OutcomeNoTarget  = "no_target"
	OutcomeDropped   = "dropped"
	OutcomeFailed    = "failed"
)

// Metrics groups the collectors of the delivery path. Each instance owns its
// registry so tests can build as many as they like.
type Metrics struct {
	Registry *prometheus.Registry

	NotificationsCreated prometheus.Counter
	Deliveries           *prometheus.CounterVec
	SSEConnections       prometheus.Gauge
	SocketConnections    prometheus.Gauge
}

func New() *Metrics {
	m := &Metrics{
		Registry: prometheus.NewRegistry(),
		NotificationsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "notifications_created_total",
			Help: "Notifications persisted by the notifier.",
		}),
		Deliveries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notification_deliveries_total",
			Help: "Delivery attempts by channel and outcome.",
		}, []string{"channel", "outcome"}),
		SSEConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sse_connections",
			Help: "Open server-sent event streams.",
		}),
		SocketConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "socket_connections",
			Help: "Open websocket connections.",
		}),
	}
	m.Registry.MustRegister(
		m.NotificationsCreated,
		m.Deliveries,
		m.SSEConnections,
		m.SocketConnections,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Delivery(channel, outcome string) {
	m.Deliveries.WithLabelValues(channel, outcome).Inc()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	OrdersCreated prometheus.Counter
	Transitions   *prometheus.CounterVec // label: to_status
	Notifications *prometheus.CounterVec // label: channel (durable|live)
	WSConnections prometheus.Gauge
}

func New(service string, reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		OrdersCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: service,
			Name:      "orders_created_total",
			Help:      "Total number of orders created.",
		}),
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: service,
			Name:      "status_transitions_total",
			Help:      "Successful order status transitions.",
		}, []string{"to_status"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "delivery",
			Subsystem: service,
			Name:      "notifications_published_total",
			Help:      "Notification deliveries by channel.",
		}, []string{"channel"}),
		WSConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "delivery",
			Subsystem: service,
			Name:      "ws_connections",
			Help:      "Currently bound websocket connections.",
		}),
	}
	reg.MustRegister(m.OrdersCreated, m.Transitions, m.Notifications, m.WSConnections)
	return m
}

func Handler() http.Handler {
	return promhttp.Handler()
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"evsense/backend/services/dashboard-service/internal/battery"
	"evsense/backend/services/dashboard-service/internal/poller"
)

// Metrics holds dashboard collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	polls     *prometheus.CounterVec
	discarded *prometheus.CounterVec
	alerts    *prometheus.CounterVec
	soc       prometheus.Gauge
	soh       prometheus.Gauge
	dte       prometheus.Gauge
	wsClients prometheus.Gauge
}

// New registers collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		polls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_feed_polls_total",
			Help: "Completed feed polls, by feed and outcome.",
		}, []string{"feed", "outcome"}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_feed_discarded_total",
			Help: "Poll results dropped because a newer request superseded them or the feed stopped.",
		}, []string{"feed"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dashboard_alerts_fired_total",
			Help: "Alerts raised, by alert name.",
		}, []string{"alert"}),
		soc: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_battery_soc_percent",
			Help: "Published state of charge.",
		}),
		soh: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_battery_soh_percent",
			Help: "Published state of health.",
		}),
		dte: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_distance_to_empty_km",
			Help: "Published distance to empty.",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "dashboard_ws_clients",
			Help: "Connected websocket clients.",
		}),
	}
	m.registry.MustRegister(
		m.polls,
		m.discarded,
		m.alerts,
		m.soc,
		m.soh,
		m.dte,
		m.wsClients,
		prometheus.NewGoCollector(),
	)
	return m
}

// ObservePoll records a delivered poll outcome.
func (m *Metrics) ObservePoll(feed string, kind poller.Kind) {
	m.polls.WithLabelValues(feed, kind.String()).Inc()
}

// ObserveDiscard records a dropped poll outcome.
func (m *Metrics) ObserveDiscard(feed string) {
	m.discarded.WithLabelValues(feed).Inc()
}

// AlertFired records a raised alert.
func (m *Metrics) AlertFired(name string) {
	m.alerts.WithLabelValues(name).Inc()
}

// ObserveStatus mirrors the published status.
func (m *Metrics) ObserveStatus(s battery.BatteryStatus) {
	m.soc.Set(float64(s.SOC))
	m.soh.Set(s.SOH)
	m.dte.Set(float64(s.DistanceToEmpty))
}

// ClientConnected and ClientDisconnected track websocket clients.
func (m *Metrics) ClientConnected() {
	m.wsClients.Inc()
}

func (m *Metrics) ClientDisconnected() {
	m.wsClients.Dec()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

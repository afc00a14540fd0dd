package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Ingest sources.
const (
	SourceHTTP = "http"
	SourceMQTT = "mqtt"
)

// Metrics holds sensor-service collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	samplesReceived *prometheus.CounterVec
	samplesInvalid  *prometheus.CounterVec
	storeFailures   prometheus.Counter
	lastVoltage     prometheus.Gauge
	lastTemperature prometheus.Gauge
}

// New registers collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		samplesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensor_samples_received_total",
			Help: "Samples accepted, by ingest source.",
		}, []string{"source"}),
		samplesInvalid: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sensor_samples_invalid_total",
			Help: "Samples rejected by decoding or validation, by ingest source.",
		}, []string{"source"}),
		storeFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sensor_store_failures_total",
			Help: "Errors writing to the latest store or history.",
		}),
		lastVoltage: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensor_last_voltage_volts",
			Help: "Voltage of the most recent accepted sample.",
		}),
		lastTemperature: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sensor_last_temperature_celsius",
			Help: "Temperature of the most recent accepted sample.",
		}),
	}
	m.registry.MustRegister(
		m.samplesReceived,
		m.samplesInvalid,
		m.storeFailures,
		m.lastVoltage,
		m.lastTemperature,
		prometheus.NewGoCollector(),
	)
	return m
}

// Accepted records a stored sample.
func (m *Metrics) Accepted(source string, voltage, temperature float64) {
	m.samplesReceived.WithLabelValues(source).Inc()
	m.lastVoltage.Set(voltage)
	m.lastTemperature.Set(temperature)
}

// Rejected records an invalid payload.
func (m *Metrics) Rejected(source string) {
	m.samplesInvalid.WithLabelValues(source).Inc()
}

// StoreFailed records a storage error.
func (m *Metrics) StoreFailed() {
	m.storeFailures.Inc()
}

// Handler exposes the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the appliance's Prometheus collectors. A nil *Metrics is a no-op.
type Metrics struct {
	registry        *prometheus.Registry
	rebuildsTotal   *prometheus.CounterVec
	droppedCommands *prometheus.CounterVec
	actuatorLevel   *prometheus.GaugeVec
	nextAlarm       prometheus.Gauge
	clockSynced     prometheus.Gauge
	climate         *prometheus.GaugeVec
}

// New creates the collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rebuildsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solarium_schedule_rebuilds_total",
			Help: "Schedule rebuilds by trigger.",
		}, []string{"trigger"}),
		droppedCommands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "solarium_dropped_commands_total",
			Help: "Actuator commands dropped because the queue was full.",
		}, []string{"kind"}),
		actuatorLevel: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solarium_actuator_level",
			Help: "Current actuator output (0-255, RGB reports the average pixel brightness).",
		}, []string{"kind"}),
		nextAlarm: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solarium_next_alarm_timestamp_seconds",
			Help: "Unix time of the next schedule point, 0 when unset.",
		}),
		clockSynced: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "solarium_clock_synced",
			Help: "1 when the wall clock passed the plausibility check.",
		}),
		climate: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "solarium_climate",
			Help: "Latest one-minute climate averages.",
		}, []string{"quantity"}),
	}

	m.registry.MustRegister(
		m.rebuildsTotal,
		m.droppedCommands,
		m.actuatorLevel,
		m.nextAlarm,
		m.clockSynced,
		m.climate,
	)

	return m
}

// Handler exposes the registry for scraping
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry returns the underlying registry, mainly for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) Rebuilt(trigger string) {
	if m == nil {
		return
	}
	m.rebuildsTotal.WithLabelValues(trigger).Inc()
}

func (m *Metrics) Dropped(kind string) {
	if m == nil {
		return
	}
	m.droppedCommands.WithLabelValues(kind).Inc()
}

func (m *Metrics) ActuatorLevel(kind string, level float64) {
	if m == nil {
		return
	}
	m.actuatorLevel.WithLabelValues(kind).Set(level)
}

func (m *Metrics) NextAlarm(unix int64) {
	if m == nil {
		return
	}
	m.nextAlarm.Set(float64(unix))
}

func (m *Metrics) ClockSynced(ok bool) {
	if m == nil {
		return
	}
	if ok {
		m.clockSynced.Set(1)
	} else {
		m.clockSynced.Set(0)
	}
}

func (m *Metrics) Climate(pressure, temperature, humidity float64) {
	if m == nil {
		return
	}
	m.climate.WithLabelValues("pressure").Set(pressure)
	m.climate.WithLabelValues("temperature").Set(temperature)
	m.climate.WithLabelValues("humidity").Set(humidity)
}

// Package metrics exposes plant readings and event counters to Prometheus.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sweeney/plantwatch/internal/logic"
)

const namespace = "plantwatch"

// Metrics holds the collectors. It has its own registry so several instances
// can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	saturation *prometheus.GaugeVec
	moisture   *prometheus.GaugeVec
	light      prometheus.Gauge
	alarm      *prometheus.GaugeVec
	events     *prometheus.CounterVec
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		saturation: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "saturation_ratio",
				Help:      "Calibrated soil saturation, 0 dry to 1 wet.",
			},
			[]string{"channel"},
		),
		moisture: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "moisture_hertz",
				Help:      "Raw moisture probe pulse frequency.",
			},
			[]string{"channel"},
		),
		light: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "light_lux",
				Help:      "Ambient light level.",
			},
		),
		alarm: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alarm_state",
				Help:      "1 for the current alarm state, 0 for the others.",
			},
			[]string{"state"},
		),
		events: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "events_total",
				Help:      "Plant events by type and channel.",
			},
			[]string{"type", "channel"},
		),
	}

	m.registry.MustRegister(m.saturation, m.moisture, m.light, m.alarm, m.events)
	return m
}

// LogValues updates the reading gauges. It lets Metrics act as a logic.RecordSink.
func (m *Metrics) LogValues(rec logic.Record) {
	ch := strconv.Itoa(rec.Channel)
	m.saturation.WithLabelValues(ch).Set(rec.Saturation)
	m.moisture.WithLabelValues(ch).Set(rec.Moisture)
}

// ObserveEvents counts events.
func (m *Metrics) ObserveEvents(events ...logic.Event) {
	for _, e := range events {
		m.events.WithLabelValues(string(e.Type), strconv.Itoa(e.Channel)).Inc()
	}
}

// SetLight records the ambient light level.
func (m *Metrics) SetLight(lux float64) {
	m.light.Set(lux)
}

// SetAlarmState marks s as the active alarm state.
func (m *Metrics) SetAlarmState(s logic.AlarmState) {
	for _, st := range []logic.AlarmState{logic.AlarmIdle, logic.AlarmTriggered, logic.AlarmSleeping} {
		v := 0.0
		if st == s {
			v = 1
		}
		m.alarm.WithLabelValues(string(st)).Set(v)
	}
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

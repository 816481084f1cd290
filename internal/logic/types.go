// Package logic contains the watering decision engine and the alarm state machine.
// It talks to hardware only through the small interfaces below and never sleeps:
// time is always passed in as a time.Time.
package logic

import (
	"errors"
	"math"
	"time"
)

// ErrEmptyWindow is returned when a moving average is requested before any sample.
var ErrEmptyWindow = errors.New("logic: reading window is empty")

// Sensor is a calibrated soil moisture probe.
type Sensor interface {
	// Moisture returns the raw pulse frequency in Hz. Zero means no reading yet.
	Moisture() float64
	// Saturation returns the calibrated moisture in [0,1], 1 = fully wet.
	Saturation() float64
	// Active reports whether the probe produced a plausible reading recently.
	Active() bool
	// History returns recent saturation values, newest first.
	History() []float64
	SetWetPoint(hz float64)
	SetDryPoint(hz float64)
}

// Pump doses water. Dose must return immediately; the pump stops on its own.
// It returns false if the dose was refused (another pump is already running).
type Pump interface {
	Dose(speed float64, d time.Duration) bool
}

// Piezo makes a short tone without blocking the caller.
type Piezo interface {
	Beep(frequency float64, d time.Duration)
}

// RecordSink receives one reading-log record per channel tick.
type RecordSink interface {
	LogValues(rec Record)
}

// Reading is a single sample taken from a Sensor.
type Reading struct {
	Moisture   float64 // raw frequency, Hz
	Saturation float64 // 0..1
}

// Record is a reading-log entry.
type Record struct {
	Time       time.Time `json:"time"`
	Channel    int       `json:"channel"`
	Moisture   float64   `json:"moisture"`
	Saturation float64   `json:"saturation"`
	Watered    bool      `json:"watered"`
	Light      float64   `json:"light"`
	WetPoint   float64   `json:"wet_point"`
	DryPoint   float64   `json:"dry_point"`
	AutoWater  bool      `json:"auto_water"`
}

// SaturationPercent returns the saturation scaled to 0..100.
func (r Record) SaturationPercent() float64 {
	return r.Saturation * 100
}

// EventType names something worth publishing.
type EventType string

const (
	EventWatered     EventType = "WATERED"
	EventAlarmOn     EventType = "ALARM_ON"
	EventAlarmOff    EventType = "ALARM_OFF"
	EventSensorFault EventType = "SENSOR_FAULT"
	EventBeep        EventType = "BEEP"
)

// Event is a notable transition produced by a channel or the alarm.
// Channel is 0 for alarm events.
type Event struct {
	Timestamp  time.Time
	Type       EventType
	Channel    int
	Moisture   float64
	Saturation float64
}

// EventCounts tracks the number of each event type since startup.
type EventCounts struct {
	Doses  int
	Alarms int
	Faults int
	Beeps  int
}

// Add counts events by type.
func (c *EventCounts) Add(events ...Event) {
	for _, e := range events {
		switch e.Type {
		case EventWatered:
			c.Doses++
		case EventAlarmOn:
			c.Alarms++
		case EventSensorFault:
			c.Faults++
		case EventBeep:
			c.Beeps++
		}
	}
}

// HeartbeatData contains information for a heartbeat event.
type HeartbeatData struct {
	Timestamp time.Time
	Uptime    time.Duration
	Counts    EventCounts
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}

// clamp01 limits v to [0,1]. NaN, from a probe with no calibration span,
// becomes 0.
func clamp01(v float64) float64 {
	if v < 0 || math.IsNaN(v) {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Package status provides a thread-safe status tracker for the plantwatch daemon.
// It is written by the tick loop and read by HTTP handlers and MQTT heartbeats.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/plantwatch/internal/logic"
)

// NetworkInfo contains network state. This is a local copy to avoid
// importing internal/mqtt from status.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
}

// ChannelStatus is the display state of one channel.
type ChannelStatus struct {
	ID          int
	Enabled     bool
	AutoWater   bool
	Active      bool
	Alarm       bool
	ShouldWater bool
	Moisture    float64
	Saturation  float64
	WarnLevel   float64
	WaterLevel  float64
	LastDose    time.Time
	Color       logic.Color
}

// ChannelStatusOf captures the current state of c. An enabled channel reports
// the sample its last Update acted on, so the probe is not read twice per tick.
// A disabled channel takes no samples and reports the probe directly.
func ChannelStatusOf(c *logic.Channel) ChannelStatus {
	cfg := c.Config()
	s := c.Sensor()
	r := c.LastReading()
	if !cfg.Enabled {
		r = logic.Reading{Moisture: s.Moisture(), Saturation: s.Saturation()}
	}
	sat := r.Saturation
	return ChannelStatus{
		ID:          c.ID(),
		Enabled:     cfg.Enabled,
		AutoWater:   cfg.AutoWater,
		Active:      s.Active(),
		Alarm:       c.Alarm(),
		ShouldWater: c.ShouldWater(),
		Moisture:    r.Moisture,
		Saturation:  sat,
		WarnLevel:   cfg.WarnLevel,
		WaterLevel:  cfg.WaterLevel,
		LastDose:    c.LastDose(),
		Color:       logic.IndicatorColor(sat),
	}
}

// AlarmStatus is the display state of the alarm.
type AlarmStatus struct {
	State      logic.AlarmState
	Enabled    bool
	Interval   float64
	SleepUntil time.Time // zero unless snoozed
}

// AlarmStatusOf captures the state of a at now.
func AlarmStatusOf(a *logic.Alarm, now time.Time) AlarmStatus {
	cfg := a.Config()
	st := AlarmStatus{
		State:    a.State(now),
		Enabled:  cfg.Enabled,
		Interval: cfg.Interval,
	}
	if until, ok := a.SleepUntil(); ok {
		st.SleepUntil = until
	}
	return st
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type and safe to use after the lock is released.
type Snapshot struct {
	Channels      []ChannelStatus
	Alarm         AlarmStatus
	Light         float64
	LightsOut     bool
	Counts        logic.EventCounts
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Channel returns the status of channel id.
func (s Snapshot) Channel(id int) (ChannelStatus, bool) {
	for _, c := range s.Channels {
		if c.ID == id {
			return c, true
		}
	}
	return ChannelStatus{}, false
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
	now  func() time.Time
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			StartTime: startTime,
			Config:    cfg,
		},
		now: time.Now,
	}
}

// Update sets channel and alarm state, light and event counts.
// Called from runLoop on every tick.
func (t *Tracker) Update(channels []ChannelStatus, alarm AlarmStatus, light float64, lightsOut bool, counts logic.EventCounts) {
	cs := append([]ChannelStatus(nil), channels...)
	t.mu.Lock()
	t.snap.Channels = cs
	t.snap.Alarm = alarm
	t.snap.Light = light
	t.snap.LightsOut = lightsOut
	t.snap.Counts = counts
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Channels = append([]ChannelStatus(nil), t.snap.Channels...)
	t.mu.RUnlock()
	s.Now = t.now()
	return s
}

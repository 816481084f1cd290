package status

import (
	"encoding/json"
	"time"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event         string        `json:"event,omitempty"`
	Reason        string        `json:"reason,omitempty"`
	Channels      []ChannelJSON `json:"channels"`
	Alarm         AlarmJSON     `json:"alarm"`
	Light         LightJSON     `json:"light"`
	UptimeSeconds int64         `json:"uptime_seconds"`
	StartTime     string        `json:"start_time"`
	Timestamp     string        `json:"timestamp"`
	MQTT          MQTTStatus    `json:"mqtt"`
	Counts        CountsJSON    `json:"event_counts"`
	Network       *NetworkJSON  `json:"network,omitempty"`
	Config        ConfigJSON    `json:"config"`
}

// ChannelJSON is the JSON representation of one channel.
type ChannelJSON struct {
	ID            int     `json:"id"`
	Enabled       bool    `json:"enabled"`
	AutoWater     bool    `json:"auto_water"`
	Active        bool    `json:"active"`
	Alarm         bool    `json:"alarm"`
	MoistureHz    float64 `json:"moisture_hz"`
	SaturationPct float64 `json:"saturation_pct"`
	WarnLevelPct  float64 `json:"warn_level_pct"`
	WaterLevelPct float64 `json:"water_level_pct"`
	LastWatered   string  `json:"last_watered"`
	Color         string  `json:"color"`
}

// AlarmJSON is the JSON representation of the alarm.
type AlarmJSON struct {
	State           string  `json:"state"`
	Enabled         bool    `json:"enabled"`
	IntervalSeconds float64 `json:"interval_seconds"`
	SleepUntil      string  `json:"sleep_until,omitempty"`
}

// LightJSON reports the ambient light.
type LightJSON struct {
	Lux       float64 `json:"lux"`
	LightsOut bool    `json:"lights_out"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	Doses  int `json:"doses"`
	Alarms int `json:"alarms"`
	Faults int `json:"faults"`
	Beeps  int `json:"beeps"`
}

// NetworkJSON is the JSON representation of network info.
type NetworkJSON struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	PollMs      int64  `json:"poll_ms"`
	HeartbeatMs int64  `json:"heartbeat_ms"`
	Broker      string `json:"broker"`
	HTTPAddr    string `json:"http_addr"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func buildInner(snap Snapshot) StatusInner {
	channels := make([]ChannelJSON, len(snap.Channels))
	for i, c := range snap.Channels {
		channels[i] = ChannelJSON{
			ID:            c.ID,
			Enabled:       c.Enabled,
			AutoWater:     c.AutoWater,
			Active:        c.Active,
			Alarm:         c.Alarm,
			MoistureHz:    c.Moisture,
			SaturationPct: c.Saturation * 100,
			WarnLevelPct:  c.WarnLevel * 100,
			WaterLevelPct: c.WaterLevel * 100,
			LastWatered:   formatTime(c.LastDose),
			Color:         c.Color.Hex(),
		}
	}

	state := string(snap.Alarm.State)
	if state == "" {
		state = "UNKNOWN"
	}

	return StatusInner{
		Channels: channels,
		Alarm: AlarmJSON{
			State:           state,
			Enabled:         snap.Alarm.Enabled,
			IntervalSeconds: snap.Alarm.Interval,
			SleepUntil:      formatTime(snap.Alarm.SleepUntil),
		},
		Light:         LightJSON{Lux: snap.Light, LightsOut: snap.LightsOut},
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     formatTime(snap.StartTime),
		Timestamp:     formatTime(snap.Now),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			Doses:  snap.Counts.Doses,
			Alarms: snap.Counts.Alarms,
			Faults: snap.Counts.Faults,
			Beeps:  snap.Counts.Beeps,
		},
		Config: ConfigJSON{
			PollMs:      snap.Config.PollMs,
			HeartbeatMs: snap.Config.HeartbeatMs,
			Broker:      snap.Config.Broker,
			HTTPAddr:    snap.Config.HTTPAddr,
		},
	}
}

func buildNetwork(snap Snapshot, inner *StatusInner) {
	if snap.Network != nil {
		inner.Network = &NetworkJSON{
			Type:       snap.Network.Type,
			IP:         snap.Network.IP,
			Status:     snap.Network.Status,
			Gateway:    snap.Network.Gateway,
			WifiStatus: snap.Network.WifiStatus,
			SSID:       snap.Network.SSID,
		}
	}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	buildNetwork(snap, &inner)

	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	buildNetwork(snap, &inner)

	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}

package status

import (
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/sweeney/plantwatch/internal/gpio"
	"github.com/sweeney/plantwatch/internal/logic"
)

var start = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

func TestNewTracker(t *testing.T) {
	cfg := Config{PollMs: 100, Broker: "tcp://localhost:1883", HTTPAddr: ":80"}
	tr := NewTracker(start, cfg)

	snap := tr.Snapshot()
	if !snap.StartTime.Equal(start) {
		t.Errorf("StartTime: got %v, want %v", snap.StartTime, start)
	}
	if snap.Config.HTTPAddr != ":80" {
		t.Errorf("Config.HTTPAddr: got %q, want %q", snap.Config.HTTPAddr, ":80")
	}
	if len(snap.Channels) != 0 {
		t.Errorf("expected no channels initially, got %d", len(snap.Channels))
	}
	if snap.MQTTConnected {
		t.Error("expected MQTTConnected=false initially")
	}
}

func TestUpdateAndSnapshot(t *testing.T) {
	tr := NewTracker(start, Config{})

	tr.Update(
		[]ChannelStatus{{ID: 1, Saturation: 0.3}, {ID: 2, Saturation: 0.8}},
		AlarmStatus{State: logic.AlarmTriggered, Enabled: true},
		3.5, true,
		logic.EventCounts{Doses: 3, Beeps: 1},
	)

	snap := tr.Snapshot()
	c, ok := snap.Channel(2)
	if !ok || c.Saturation != 0.8 {
		t.Errorf("channel 2: got %+v, %v", c, ok)
	}
	if _, ok := snap.Channel(3); ok {
		t.Error("channel 3 should not exist")
	}
	if snap.Alarm.State != logic.AlarmTriggered {
		t.Errorf("Alarm.State: got %q", snap.Alarm.State)
	}
	if snap.Light != 3.5 || !snap.LightsOut {
		t.Errorf("light: got %v lightsOut=%v", snap.Light, snap.LightsOut)
	}
	if snap.Counts.Doses != 3 {
		t.Errorf("Counts.Doses: got %d, want 3", snap.Counts.Doses)
	}
}

func TestSnapshotIsCopy(t *testing.T) {
	tr := NewTracker(start, Config{})
	channels := []ChannelStatus{{ID: 1, Saturation: 0.3}}
	tr.Update(channels, AlarmStatus{}, 0, false, logic.EventCounts{})

	channels[0].Saturation = 0.9
	snap1 := tr.Snapshot()
	snap1.Channels[0].Saturation = 0.5

	snap2 := tr.Snapshot()
	if snap2.Channels[0].Saturation != 0.3 {
		t.Errorf("tracker state leaked through a slice, got %v", snap2.Channels[0].Saturation)
	}
}

func TestSnapshotUsesClock(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.now = func() time.Time { return start.Add(90 * time.Second) }

	snap := tr.Snapshot()
	if snap.Uptime() != 90*time.Second {
		t.Errorf("Uptime: got %v, want 90s", snap.Uptime())
	}
}

func TestSetMQTTConnectedAndNetwork(t *testing.T) {
	tr := NewTracker(start, Config{})
	tr.SetMQTTConnected(true)
	tr.SetNetwork(&NetworkInfo{Type: "wifi", IP: "192.168.1.42"})

	snap := tr.Snapshot()
	if !snap.MQTTConnected {
		t.Error("expected MQTTConnected=true")
	}
	if snap.Network == nil || snap.Network.IP != "192.168.1.42" {
		t.Errorf("unexpected network %+v", snap.Network)
	}
}

func TestChannelStatusOf(t *testing.T) {
	sensor := &gpio.FakeMoisture{}
	sensor.Set(14, 0)
	cfg := logic.DefaultChannelConfig()
	cfg.Enabled = true
	c := logic.NewChannel(1, sensor, &gpio.FakePump{}, cfg, start)
	c.Update(start, 0)

	st := ChannelStatusOf(c)
	if st.ID != 1 || !st.Enabled || !st.Active {
		t.Errorf("unexpected status %+v", st)
	}
	if !st.Alarm {
		t.Error("expected alarm with saturation below warn level")
	}
	if st.Color != logic.ColorRed {
		t.Errorf("expected red for dry soil, got %v", st.Color)
	}
	if !st.LastDose.Equal(start) {
		t.Errorf("LastDose: got %v, want %v", st.LastDose, start)
	}
}

func TestChannelStatusOfReportsLastSample(t *testing.T) {
	sensor := &gpio.FakeMoisture{}
	sensor.Set(12, 0.4)
	cfg := logic.DefaultChannelConfig()
	cfg.Enabled = true
	c := logic.NewChannel(1, sensor, &gpio.FakePump{}, cfg, start)
	c.Update(start, 0)

	// The probe moves on after the tick; status keeps what the policy saw.
	sensor.Set(20, 0.9)
	st := ChannelStatusOf(c)
	if st.Moisture != 12 || st.Saturation != 0.4 {
		t.Errorf("got %v Hz %v, want 12 Hz 0.4", st.Moisture, st.Saturation)
	}

	c.SetEnabled(false)
	st = ChannelStatusOf(c)
	if st.Moisture != 20 || st.Saturation != 0.9 {
		t.Errorf("disabled channel: got %v Hz %v, want 20 Hz 0.9", st.Moisture, st.Saturation)
	}
}

func TestAlarmStatusOf(t *testing.T) {
	a := logic.NewAlarm(&gpio.FakePiezo{}, logic.DefaultAlarmConfig(), start)
	a.Sleep(start, time.Minute)

	st := AlarmStatusOf(a, start.Add(time.Second))
	if st.State != logic.AlarmSleeping {
		t.Errorf("State: got %q, want SLEEPING", st.State)
	}
	if !st.SleepUntil.Equal(start.Add(time.Minute)) {
		t.Errorf("SleepUntil: got %v", st.SleepUntil)
	}

	a.CancelSleep()
	st = AlarmStatusOf(a, start.Add(time.Second))
	if !st.SleepUntil.IsZero() {
		t.Errorf("expected zero SleepUntil after cancel, got %v", st.SleepUntil)
	}
}

func testSnapshot() Snapshot {
	return Snapshot{
		Channels: []ChannelStatus{{
			ID: 1, Enabled: true, AutoWater: true, Active: true,
			Moisture: 12, Saturation: 0.25, WarnLevel: 0.5, WaterLevel: 0.4,
			LastDose: start.Add(5 * time.Minute),
			Color:    logic.ColorRed,
		}},
		Alarm:         AlarmStatus{State: logic.AlarmIdle, Enabled: true, Interval: 10},
		Light:         120,
		Counts:        logic.EventCounts{Doses: 5, Alarms: 2, Faults: 1, Beeps: 4},
		StartTime:     start,
		Now:           start.Add(15 * time.Minute),
		MQTTConnected: true,
		Config:        Config{PollMs: 100, HeartbeatMs: 900000, Broker: "tcp://localhost:1883", HTTPAddr: ":80"},
	}
}

func TestFormatJSON(t *testing.T) {
	data := FormatJSON(testSnapshot())

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}

	s := parsed.Status
	if len(s.Channels) != 1 {
		t.Fatalf("expected 1 channel, got %d", len(s.Channels))
	}
	ch := s.Channels[0]
	if ch.SaturationPct != 25 || ch.WarnLevelPct != 50 || ch.WaterLevelPct != 40 {
		t.Errorf("unexpected percentages %+v", ch)
	}
	if ch.Color != "#f7003f" {
		t.Errorf("Color: got %q, want #f7003f", ch.Color)
	}
	if ch.LastWatered != "2026-01-01T00:05:00Z" {
		t.Errorf("LastWatered: got %q", ch.LastWatered)
	}
	if s.Alarm.State != "IDLE" || s.Alarm.SleepUntil != "" {
		t.Errorf("unexpected alarm %+v", s.Alarm)
	}
	if s.UptimeSeconds != 900 {
		t.Errorf("UptimeSeconds: got %d, want 900", s.UptimeSeconds)
	}
	if s.Counts.Doses != 5 || s.Counts.Beeps != 4 {
		t.Errorf("unexpected counts %+v", s.Counts)
	}
	if s.Event != "" || s.Reason != "" {
		t.Error("web format should not carry event or reason")
	}
}

func TestFormatJSONUnknownAlarmState(t *testing.T) {
	data := FormatJSON(Snapshot{StartTime: start, Now: start.Add(time.Second)})

	var parsed StatusJSON
	json.Unmarshal(data, &parsed)

	if parsed.Status.Alarm.State != "UNKNOWN" {
		t.Errorf("Alarm.State: got %q, want UNKNOWN", parsed.Status.Alarm.State)
	}
	if parsed.Status.Channels == nil {
		t.Error("channels should encode as an empty list")
	}
}

func TestFormatStatusEvent(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected event/reason %q/%q", parsed.Status.Event, parsed.Status.Reason)
	}
}

func TestFormatStatusEventOmitsReasonWhenEmpty(t *testing.T) {
	data := FormatStatusEvent(testSnapshot(), "STARTUP", "")

	var raw map[string]interface{}
	json.Unmarshal(data, &raw)
	status := raw["status"].(map[string]interface{})
	if _, exists := status["reason"]; exists {
		t.Error("reason should be omitted when empty")
	}
	if _, exists := status["network"]; exists {
		t.Error("network should be omitted when nil")
	}
	if status["event"] != "STARTUP" {
		t.Errorf("event: got %v, want STARTUP", status["event"])
	}
}

func TestFormatJSONWithNetwork(t *testing.T) {
	snap := testSnapshot()
	snap.Network = &NetworkInfo{Type: "wifi", IP: "192.168.1.42", Status: "connected", SSID: "MyNet"}

	var parsed StatusJSON
	json.Unmarshal(FormatJSON(snap), &parsed)

	if parsed.Status.Network == nil {
		t.Fatal("expected Network in JSON")
	}
	if parsed.Status.Network.SSID != "MyNet" {
		t.Errorf("Network.SSID: got %q, want MyNet", parsed.Status.Network.SSID)
	}
}

func TestConcurrentAccess(t *testing.T) {
	tr := NewTracker(start, Config{})
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			tr.Update([]ChannelStatus{{ID: 1}}, AlarmStatus{}, float64(i), false, logic.EventCounts{Doses: i})
			tr.SetMQTTConnected(i%2 == 0)
			tr.SetNetwork(&NetworkInfo{IP: "1.2.3.4"})
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			snap := tr.Snapshot()
			_ = snap.Uptime()
		}
	}()

	wg.Wait()
}

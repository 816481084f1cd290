package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/plantwatch/internal/logic"
)

func TestFormatPayloadExactJSON(t *testing.T) {
	event := logic.Event{
		Timestamp:  time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Type:       logic.EventWatered,
		Channel:    2,
		Moisture:   12.5,
		Saturation: 0.25,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"plant":{"timestamp":"2026-02-02T22:18:12Z","event":"WATERED","channel":2,"moisture_hz":12.5,"saturation_pct":25}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadAllEventTypes(t *testing.T) {
	tests := []struct {
		eventType   logic.EventType
		channel     int
		wantChannel bool
	}{
		{logic.EventWatered, 1, true},
		{logic.EventAlarmOn, 2, true},
		{logic.EventAlarmOff, 3, true},
		{logic.EventSensorFault, 1, true},
		{logic.EventBeep, 0, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.eventType), func(t *testing.T) {
			payload, err := FormatPayload(logic.Event{
				Timestamp: time.Now(),
				Type:      tt.eventType,
				Channel:   tt.channel,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed map[string]map[string]interface{}
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			plant := parsed["plant"]
			if plant["event"] != string(tt.eventType) {
				t.Errorf("event: got %v, want %s", plant["event"], tt.eventType)
			}
			if _, ok := plant["channel"]; ok != tt.wantChannel {
				t.Errorf("channel present = %v, want %v", ok, tt.wantChannel)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	event := logic.Event{
		Timestamp: time.Date(2026, 6, 1, 9, 0, 0, 0, loc),
		Type:      logic.EventWatered,
		Channel:   1,
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var parsed Payload
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Plant.Timestamp != "2026-06-01T07:00:00Z" {
		t.Errorf("expected UTC timestamp, got %s", parsed.Plant.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "garden/plantwatch/events" {
		t.Errorf("unexpected topic: %s", Topic)
	}
	if TopicSystem != "garden/plantwatch/system" {
		t.Errorf("unexpected system topic: %s", TopicSystem)
	}
}

func TestWillPayloadFormat(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 8, 30, 0, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "MQTT_DISCONNECT",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T08:30:00Z","event":"SHUTDOWN","reason":"MQTT_DISCONNECT"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadOmitsEmptyReason(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 10, 14, 30, 0, 0, time.UTC),
		Event:     "RECONNECTED",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-10T14:30:00Z","event":"RECONNECTED"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatSystemPayloadRawPayload(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("expected raw payload passthrough, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	events := []logic.Event{
		{Timestamp: time.Now(), Type: logic.EventAlarmOn, Channel: 1},
		{Timestamp: time.Now(), Type: logic.EventWatered, Channel: 1},
		{Timestamp: time.Now(), Type: logic.EventBeep},
	}
	for _, e := range events {
		if err := f.Publish(e); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if len(f.Events) != 3 || len(f.Payloads) != 3 {
		t.Fatalf("expected 3 events and payloads, got %d/%d", len(f.Events), len(f.Payloads))
	}
	for i, e := range events {
		if f.Events[i].Type != e.Type {
			t.Errorf("event %d: got %s, want %s", i, f.Events[i].Type, e.Type)
		}
	}
	if got := f.EventsOfType(logic.EventWatered); len(got) != 1 {
		t.Errorf("expected 1 WATERED event, got %d", len(got))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("broker down")
	f.PublishSystemError = errors.New("broker down")

	if err := f.Publish(logic.Event{Type: logic.EventWatered}); err == nil {
		t.Error("expected publish error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected publish system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("failed publishes should not be recorded")
	}
}

func TestFakePublisherSystemEvents(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Timestamp: time.Now(), Event: "HEARTBEAT"})

	names := f.SystemEventNames()
	if len(names) != 2 || names[0] != "STARTUP" || names[1] != "HEARTBEAT" {
		t.Errorf("unexpected system events %v", names)
	}
	if !f.SystemEvents[0].Retained || f.SystemEvents[1].Retained {
		t.Error("retained flag not preserved")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()
	f.Publish(logic.Event{Type: logic.EventWatered})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Connected = true
	f.Close()

	f.Reset()

	if len(f.Events) != 0 || len(f.SystemEvents) != 0 || f.Closed || f.IsConnected() {
		t.Error("expected everything cleared after reset")
	}

	f.Publish(logic.Event{Type: logic.EventBeep})
	if len(f.Events) != 1 {
		t.Errorf("expected fake usable after reset, got %d events", len(f.Events))
	}
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = NopPublisher{}
	if err := p.Publish(logic.Event{Type: logic.EventWatered}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{Event: "STARTUP"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if p.(ConnectionStatus).IsConnected() {
		t.Error("nop publisher should report disconnected")
	}
}

// Package mqtt publishes plant events and daemon lifecycle events.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/plantwatch/internal/logic"
)

// Topic is the MQTT topic for plant events.
const Topic = "garden/plantwatch/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "garden/plantwatch/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a plant event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event logic.Event) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Plant PlantPayload `json:"plant"`
}

// PlantPayload contains the plant event details. Channel is omitted for
// alarm-wide events.
type PlantPayload struct {
	Timestamp     string  `json:"timestamp"`
	Event         string  `json:"event"`
	Channel       int     `json:"channel,omitempty"`
	MoistureHz    float64 `json:"moisture_hz"`
	SaturationPct float64 `json:"saturation_pct"`
}

// FormatPayload creates the JSON payload for a plant event.
func FormatPayload(event logic.Event) ([]byte, error) {
	payload := Payload{
		Plant: PlantPayload{
			Timestamp:     event.Timestamp.UTC().Format(time.RFC3339),
			Event:         string(event.Type),
			Channel:       event.Channel,
			MoistureHz:    event.Moisture,
			SaturationPct: event.Saturation * 100,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events (LWT, RECONNECTED) that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}

// NopPublisher drops everything. It is used when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(logic.Event) error { return nil }

// PublishSystem discards the event.
func (NopPublisher) PublishSystem(SystemEvent) error { return nil }

// Close does nothing.
func (NopPublisher) Close() error { return nil }

// IsConnected always reports false.
func (NopPublisher) IsConnected() bool { return false }

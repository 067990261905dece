// Package mqtt publishes door command outcomes and daemon lifecycle events,
// with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/garage-door/internal/door"
)

// Topic is the MQTT topic for door command events.
const Topic = "garage/door/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "garage/door/system"

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a door command event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event CommandEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// CommandEvent is a dispatched door command.
type CommandEvent struct {
	Timestamp time.Time
	Outcome   door.Outcome
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
	Door DoorPayload `json:"door"`
}

// DoorPayload contains the command event details.
type DoorPayload struct {
	Timestamp string `json:"timestamp"`
	Command   string `json:"command"`
	State     string `json:"state,omitempty"`
	Pulsed    bool   `json:"pulsed"`
	Message   string `json:"message"`
}

// FormatPayload creates the JSON payload for a command event.
func FormatPayload(event CommandEvent) ([]byte, error) {
	payload := Payload{
		Door: DoorPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Command:   string(event.Outcome.Command),
			State:     string(event.Outcome.State),
			Pulsed:    event.Outcome.Pulsed,
			Message:   event.Outcome.Message,
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

package mqtt

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/sweeney/garage-door/internal/door"
)

func TestFormatPayload(t *testing.T) {
	event := CommandEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Outcome: door.Outcome{
			Command: door.CommandClose,
			State:   door.StateOpen,
			Pulsed:  true,
			Message: door.MsgClosing,
		},
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"door":{"timestamp":"2026-02-02T22:18:12Z","command":"CLOSE","state":"OPEN","pulsed":true,"message":"Door is closing"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", payload, expected)
	}
}

func TestFormatPayloadOperateOmitsState(t *testing.T) {
	event := CommandEvent{
		Timestamp: time.Date(2026, 2, 2, 22, 18, 12, 0, time.UTC),
		Outcome:   door.Outcome{Command: door.CommandOperate, Pulsed: true, Message: door.MsgOperateSent},
	}

	payload, err := FormatPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var raw map[string]map[string]interface{}
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if _, exists := raw["door"]["state"]; exists {
		t.Error("state should be omitted for OPERATE")
	}
	if raw["door"]["pulsed"] != true {
		t.Errorf("pulsed: got %v, want true", raw["door"]["pulsed"])
	}
}

func TestFormatPayloadAllCommands(t *testing.T) {
	tests := []struct {
		outcome     door.Outcome
		wantCommand string
		wantPulsed  bool
	}{
		{door.Outcome{Command: door.CommandOpen, State: door.StateOpen, Message: door.MsgAlreadyOpen}, "OPEN", false},
		{door.Outcome{Command: door.CommandOpen, State: door.StateClosed, Pulsed: true, Message: door.MsgOpening}, "OPEN", true},
		{door.Outcome{Command: door.CommandClose, State: door.StateFlashing, Message: door.MsgAlreadyClosed}, "CLOSE", false},
		{door.Outcome{Command: door.CommandOperate, Pulsed: true, Message: door.MsgOperateSent}, "OPERATE", true},
	}

	for _, tt := range tests {
		t.Run(tt.outcome.Message, func(t *testing.T) {
			payload, err := FormatPayload(CommandEvent{Timestamp: time.Now(), Outcome: tt.outcome})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			var parsed Payload
			if err := json.Unmarshal(payload, &parsed); err != nil {
				t.Fatalf("invalid JSON: %v", err)
			}
			if parsed.Door.Command != tt.wantCommand {
				t.Errorf("command: got %s, want %s", parsed.Door.Command, tt.wantCommand)
			}
			if parsed.Door.Pulsed != tt.wantPulsed {
				t.Errorf("pulsed: got %v, want %v", parsed.Door.Pulsed, tt.wantPulsed)
			}
			if parsed.Door.Message != tt.outcome.Message {
				t.Errorf("message: got %q, want %q", parsed.Door.Message, tt.outcome.Message)
			}
		})
	}
}

func TestFormatPayloadTimezoneConversion(t *testing.T) {
	loc := time.FixedZone("CET", 3600)
	event := CommandEvent{
		Timestamp: time.Date(2026, 2, 2, 23, 0, 0, 0, loc),
		Outcome:   door.Outcome{Command: door.CommandOperate, Pulsed: true, Message: door.MsgOperateSent},
	}

	payload, _ := FormatPayload(event)
	var parsed Payload
	json.Unmarshal(payload, &parsed)

	if parsed.Door.Timestamp != "2026-02-02T22:00:00Z" {
		t.Errorf("timestamp should be UTC, got %s", parsed.Door.Timestamp)
	}
}

func TestTopics(t *testing.T) {
	if Topic != "garage/door/events" {
		t.Errorf("unexpected topic: got %s", Topic)
	}
	if TopicSystem != "garage/door/system" {
		t.Errorf("unexpected system topic: got %s", TopicSystem)
	}
}

func TestFormatSystemPayloadExactJSON(t *testing.T) {
	event := SystemEvent{
		Timestamp: time.Date(2026, 2, 3, 10, 30, 45, 0, time.UTC),
		Event:     "SHUTDOWN",
		Reason:    "SIGTERM",
	}

	payload, err := FormatSystemPayload(event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	expected := `{"system":{"timestamp":"2026-02-03T10:30:45Z","event":"SHUTDOWN","reason":"SIGTERM"}}`
	if string(payload) != expected {
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadOmitsReason(t *testing.T) {
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
		t.Errorf("unexpected payload:\ngot:  %s\nwant: %s", string(payload), expected)
	}
}

func TestFormatSystemPayloadRaw(t *testing.T) {
	raw := []byte(`{"status":{"event":"HEARTBEAT"}}`)
	payload, err := FormatSystemPayload(SystemEvent{Event: "HEARTBEAT", RawPayload: raw})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(payload) != string(raw) {
		t.Errorf("raw payload should pass through, got %s", payload)
	}
}

func TestFakePublisher(t *testing.T) {
	f := NewFakePublisher()

	event := CommandEvent{
		Timestamp: time.Now(),
		Outcome:   door.Outcome{Command: door.CommandOperate, Pulsed: true, Message: door.MsgOperateSent},
	}

	if err := f.Publish(event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(f.Events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.Events))
	}
	if f.Events[0].Outcome.Command != door.CommandOperate {
		t.Errorf("unexpected command: %s", f.Events[0].Outcome.Command)
	}
	if len(f.Payloads) != 1 {
		t.Fatalf("expected 1 payload, got %d", len(f.Payloads))
	}
}

func TestFakePublisherErrors(t *testing.T) {
	f := NewFakePublisher()
	f.PublishError = errors.New("simulated error")
	f.PublishSystemError = errors.New("simulated system error")

	if err := f.Publish(CommandEvent{}); err == nil {
		t.Error("expected error")
	}
	if err := f.PublishSystem(SystemEvent{Event: "STARTUP"}); err == nil {
		t.Error("expected system error")
	}
	if len(f.Events) != 0 || len(f.SystemEvents) != 0 {
		t.Error("expected nothing recorded on error")
	}
}

func TestFakePublisherRecordsRetainedFlag(t *testing.T) {
	f := NewFakePublisher()

	f.PublishSystem(SystemEvent{Event: "STARTUP", Retained: true})
	f.PublishSystem(SystemEvent{Event: "HEARTBEAT"})

	if !f.SystemEvents[0].Retained {
		t.Error("STARTUP should be retained")
	}
	if f.SystemEvents[1].Retained {
		t.Error("HEARTBEAT should not be retained")
	}
}

func TestFakePublisherReset(t *testing.T) {
	f := NewFakePublisher()

	f.Publish(CommandEvent{Timestamp: time.Now()})
	f.PublishSystem(SystemEvent{Event: "STARTUP"})
	f.Close()
	f.Connected = true
	f.PublishError = errors.New("error")

	f.Reset()

	if len(f.Events) != 0 || len(f.Payloads) != 0 {
		t.Error("events should be cleared")
	}
	if len(f.SystemEvents) != 0 || len(f.SystemPayloads) != 0 {
		t.Error("system events should be cleared")
	}
	if f.Closed || f.Connected {
		t.Error("flags should be reset")
	}
	if f.PublishError != nil {
		t.Error("error should be cleared")
	}
}

func TestNoopPublisher(t *testing.T) {
	var p Publisher = NoopPublisher{}
	if err := p.Publish(CommandEvent{}); err != nil {
		t.Errorf("Publish: %v", err)
	}
	if err := p.PublishSystem(SystemEvent{}); err != nil {
		t.Errorf("PublishSystem: %v", err)
	}
	if (NoopPublisher{}).IsConnected() {
		t.Error("noop publisher should never report connected")
	}
}

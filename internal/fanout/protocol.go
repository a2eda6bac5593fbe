package fanout

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/charleschow/fairodds/internal/events"
)

// Envelope is the wire format for events sent over the fanout WebSocket.
type Envelope struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	MatchID   string          `json:"match_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes an Event into a JSON-encoded Envelope.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	env := Envelope{
		Type:      string(evt.Type),
		ID:        evt.ID,
		MatchID:   evt.MatchID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	}
	return json.Marshal(env)
}

// UnmarshalEvent deserializes a JSON Envelope back into a typed Event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		ID:        env.ID,
		Type:      events.EventType(env.Type),
		MatchID:   env.MatchID,
		Timestamp: env.Timestamp,
	}

	switch evt.Type {
	case events.EventMatchStarted, events.EventMatchRestarted:
		var ms events.MatchStartedEvent
		if err := json.Unmarshal(env.Payload, &ms); err != nil {
			return evt, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		evt.Payload = ms
	case events.EventMinuteRecorded:
		var mr events.MinuteRecordedEvent
		if err := json.Unmarshal(env.Payload, &mr); err != nil {
			return evt, fmt.Errorf("unmarshal minute_recorded: %w", err)
		}
		evt.Payload = mr
	case events.EventValueFlagged:
		var vf events.ValueFlaggedEvent
		if err := json.Unmarshal(env.Payload, &vf); err != nil {
			return evt, fmt.Errorf("unmarshal value_flagged: %w", err)
		}
		evt.Payload = vf
	case events.EventMatchClosed:
		var mc events.MatchClosedEvent
		if err := json.Unmarshal(env.Payload, &mc); err != nil {
			return evt, fmt.Errorf("unmarshal match_closed: %w", err)
		}
		evt.Payload = mc
	default:
		return evt, fmt.Errorf("unknown event type: %s", env.Type)
	}

	return evt, nil
}

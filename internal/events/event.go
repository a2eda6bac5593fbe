package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is the envelope that flows through the event bus.
// Every domain event (match start, recorded minute, value flag) is wrapped in one.
type Event struct {
	ID        string
	Type      EventType
	MatchID   string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	EventMatchStarted   EventType = "match_started"
	EventMatchRestarted EventType = "match_restarted"
	EventMinuteRecorded EventType = "minute_recorded"
	EventValueFlagged   EventType = "value_flagged"
	EventMatchClosed    EventType = "match_closed"
)

var AllTypes = []EventType{
	EventMatchStarted,
	EventMatchRestarted,
	EventMinuteRecorded,
	EventValueFlagged,
	EventMatchClosed,
}

// New stamps an envelope with a fresh ID and the current time.
func New(t EventType, matchID string, payload any) Event {
	return Event{
		ID:        uuid.NewString(),
		Type:      t,
		MatchID:   matchID,
		Timestamp: time.Now().UTC(),
		Payload:   payload,
	}
}

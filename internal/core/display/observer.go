package display

import (
	"io"
	"os"
	"sync"

	"github.com/charleschow/fairodds/internal/core/state/game"
)

// Observer implements game.MatchObserver and prints a match card for
// every session event.
type Observer struct {
	mu sync.Mutex // serializes writes from different match goroutines
	w  io.Writer
}

// NewObserver prints to w, or stderr when w is nil.
func NewObserver(w io.Writer) *Observer {
	if w == nil {
		w = os.Stderr
	}
	return &Observer{w: w}
}

func (o *Observer) OnMatchEvent(mc *game.MatchContext, eventType string) {
	if mc.State == nil {
		return
	}
	h := Header{EventType: eventType, MatchID: mc.ID, Home: mc.Home, Away: mc.Away}

	o.mu.Lock()
	defer o.mu.Unlock()
	if eventType == "value_flagged" {
		PrintState(o.w, h, mc.State, mc.LastVerdict)
		return
	}
	PrintState(o.w, h, mc.State, nil)
}

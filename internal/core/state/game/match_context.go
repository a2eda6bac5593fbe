package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/strategy"
	"github.com/charleschow/fairodds/internal/telemetry"
)

var (
	ErrClosed    = errors.New("match session closed")
	ErrInboxFull = errors.New("match inbox full")
)

const inboxSize = 256

// MatchContext is the single source of truth for one match session.
//
// All state mutations are serialized through an inbox channel: one
// goroutine drains it, so no mutexes are needed on State or the other
// session fields. Any goroutine that wants to read or write the session
// sends a closure via Send or Do. The closure runs on the match's own
// goroutine.
type MatchContext struct {
	ID        string
	Preset    string
	CreatedAt time.Time

	// Labels as entered, tidied for display.
	Home string
	Away string
	// Normalized labels used as journal keys.
	HomeKey string
	AwayKey string

	State *match.State

	// LastRecord is the record produced by the most recent accepted
	// submission. Nil right after start or restart.
	LastRecord *match.LogRecord

	// LastVerdict is set before observers are notified of a value flag.
	LastVerdict *strategy.Verdict

	// Restarts counts how many times the session was reseeded.
	Restarts int

	// Closing is set by the first close; the store removal follows.
	Closing bool

	observers []MatchObserver

	mu     sync.RWMutex // guards closed against sends racing Close
	closed bool
	inbox  chan func()
	stop   chan struct{}
}

// MatchObserver receives notifications when match state changes.
// Implementations run on the match's goroutine and may read mc fields directly.
type MatchObserver interface {
	OnMatchEvent(mc *MatchContext, eventType string)
}

func NewMatchContext(id, preset string, st *match.State) *MatchContext {
	mc := &MatchContext{
		ID:        id,
		Preset:    preset,
		CreatedAt: time.Now().UTC(),
		State:     st,
		inbox:     make(chan func(), inboxSize),
		stop:      make(chan struct{}),
	}
	go mc.run()
	return mc
}

func (mc *MatchContext) run() {
	defer close(mc.stop)
	for fn := range mc.inbox {
		fn()
	}
}

// Send enqueues a closure without waiting for it to run. It drops the
// closure when the inbox is full so a stuck match never blocks its caller.
func (mc *MatchContext) Send(fn func()) error {
	mc.mu.RLock()
	defer mc.mu.RUnlock()
	if mc.closed {
		return ErrClosed
	}
	select {
	case mc.inbox <- fn:
		return nil
	default:
		telemetry.Metrics.InboxOverflows.Inc()
		telemetry.Warnf("match %s: inbox full (cap=%d), dropping closure", mc.ID, cap(mc.inbox))
		return ErrInboxFull
	}
}

// Do runs fn on the match goroutine and waits for its result.
// Must not be called from the match goroutine itself.
//
// ctx bounds the wait for an inbox slot and is checked again when the
// closure is dequeued. Once fn has started, Do waits for it to finish, so
// a returned ctx error always means fn never ran.
func (mc *MatchContext) Do(ctx context.Context, fn func() error) error {
	done := make(chan error, 1)
	wrapped := func() {
		if err := ctx.Err(); err != nil {
			done <- err
			return
		}
		done <- fn()
	}

	mc.mu.RLock()
	if mc.closed {
		mc.mu.RUnlock()
		return ErrClosed
	}
	select {
	case mc.inbox <- wrapped:
	case <-ctx.Done():
		mc.mu.RUnlock()
		return ctx.Err()
	}
	mc.mu.RUnlock()

	// Close drains the inbox before run returns, so done is always written.
	return <-done
}

// AddObserver registers an observer that will be notified on match events.
// Must be called before the match starts receiving submissions.
func (mc *MatchContext) AddObserver(o MatchObserver) {
	mc.observers = append(mc.observers, o)
}

// Notify calls all registered observers with the given event type.
// Must be called from the match's goroutine (inside a Send or Do closure).
func (mc *MatchContext) Notify(eventType string) {
	for _, o := range mc.observers {
		o.OnMatchEvent(mc, eventType)
	}
}

// Close shuts down the match goroutine and waits for it to drain.
// Safe to call more than once.
func (mc *MatchContext) Close() {
	mc.mu.Lock()
	if mc.closed {
		mc.mu.Unlock()
		<-mc.stop
		return
	}
	mc.closed = true
	close(mc.inbox)
	mc.mu.Unlock()
	<-mc.stop
}

// Submitted returns the number of accepted submissions.
// Must be called from the match's goroutine.
func (mc *MatchContext) Submitted() int {
	if mc.State == nil {
		return 0
	}
	return len(mc.State.Log)
}

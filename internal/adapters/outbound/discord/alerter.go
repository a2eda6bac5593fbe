package discord

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/charleschow/fairodds/internal/core/strategy"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/telemetry"
)

// Alerter turns bus events into webhook posts. Posts run off the
// publisher's goroutine so a slow webhook never stalls a match.
type Alerter struct {
	notifier   *Notifier
	strongOnly bool
	timeout    time.Duration

	sf   singleflight.Group
	mu   sync.Mutex
	sent map[string]bool // one post per (match, minute, tier)
	wg   sync.WaitGroup
}

func NewAlerter(n *Notifier, strongOnly bool) *Alerter {
	return &Alerter{
		notifier:   n,
		strongOnly: strongOnly,
		timeout:    10 * time.Second,
		sent:       make(map[string]bool),
	}
}

// Register subscribes the alerter to the events it posts.
func (a *Alerter) Register(bus *events.Bus) {
	bus.Subscribe(events.EventValueFlagged, a.Handle)
	bus.Subscribe(events.EventMatchRestarted, a.Handle)
	bus.Subscribe(events.EventMatchClosed, a.Handle)
}

func (a *Alerter) Handle(e events.Event) error {
	if !a.notifier.Enabled() {
		return nil
	}
	switch p := e.Payload.(type) {
	case events.ValueFlaggedEvent:
		if a.strongOnly && p.Tier != string(strategy.TierStrong) {
			return nil
		}
		key := fmt.Sprintf("%s:%d:%s", p.MatchID, p.Minute, p.Tier)
		if !a.claim(key) {
			return nil
		}
		a.post(key, func(ctx context.Context) error { return a.notifier.ValueAlert(ctx, p) })
	case events.MatchStartedEvent:
		// A restart keeps the match ID but replays minutes from kickoff.
		if e.Type == events.EventMatchRestarted {
			a.forget(p.MatchID)
		}
	case events.MatchClosedEvent:
		a.forget(p.MatchID)
		a.post("closed:"+p.MatchID, func(ctx context.Context) error { return a.notifier.MatchClosed(ctx, p) })
	}
	return nil
}

// Wait blocks until every in-flight post has finished.
func (a *Alerter) Wait() { a.wg.Wait() }

func (a *Alerter) claim(key string) bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sent[key] {
		return false
	}
	a.sent[key] = true
	return true
}

func (a *Alerter) forget(matchID string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	prefix := matchID + ":"
	for k := range a.sent {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(a.sent, k)
		}
	}
}

func (a *Alerter) post(key string, fn func(context.Context) error) {
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		_, err, _ := a.sf.Do(key, func() (any, error) {
			ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
			defer cancel()
			return nil, fn(ctx)
		})
		if err != nil {
			telemetry.Warnf("discord: %s: %v", key, err)
			return
		}
		telemetry.Metrics.AlertsSent.Inc()
	}()
}

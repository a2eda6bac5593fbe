package store

import (
	"sort"
	"sync"

	"github.com/charleschow/fairodds/internal/core/state/game"
)

// MatchStore is a thread-safe map of all active match contexts keyed by
// match ID.
//
// The store's RWMutex protects the map itself (lookups, inserts, deletes).
// It does NOT protect the MatchContext contents; each MatchContext
// serializes its own state mutations through its inbox channel.
type MatchStore struct {
	mu      sync.RWMutex
	matches map[string]*game.MatchContext
}

func New() *MatchStore {
	return &MatchStore{
		matches: make(map[string]*game.MatchContext),
	}
}

func (s *MatchStore) Get(id string) (*game.MatchContext, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mc, ok := s.matches[id]
	return mc, ok
}

func (s *MatchStore) Put(mc *game.MatchContext) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[mc.ID] = mc
}

// Delete removes a match from the store and shuts down its goroutine.
// Reports whether the match existed.
func (s *MatchStore) Delete(id string) bool {
	s.mu.Lock()
	mc, ok := s.matches[id]
	delete(s.matches, id)
	s.mu.Unlock()

	if ok {
		mc.Close()
	}
	return ok
}

// All returns a snapshot of all match contexts, oldest first.
func (s *MatchStore) All() []*game.MatchContext {
	s.mu.RLock()
	out := make([]*game.MatchContext, 0, len(s.matches))
	for _, mc := range s.matches {
		out = append(out, mc)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (s *MatchStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.matches)
}

// CloseAll removes and shuts down every match.
func (s *MatchStore) CloseAll() {
	s.mu.Lock()
	all := s.matches
	s.matches = make(map[string]*game.MatchContext)
	s.mu.Unlock()

	for _, mc := range all {
		mc.Close()
	}
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/core/state/match"
)

func newContext(t *testing.T, id string) *game.MatchContext {
	t.Helper()
	st, err := match.StartMatch(odds.MarketOdds{Home: 2.2, Draw: 3.2, Away: 3.2}, match.Classic())
	require.NoError(t, err)
	return game.NewMatchContext(id, "classic", st)
}

func TestMatchStore_PutGetDelete(t *testing.T) {
	s := New()
	mc := newContext(t, "a")
	s.Put(mc)

	got, ok := s.Get("a")
	require.True(t, ok)
	assert.Same(t, mc, got)
	assert.Equal(t, 1, s.Len())

	assert.True(t, s.Delete("a"))
	assert.False(t, s.Delete("a"))
	_, ok = s.Get("a")
	assert.False(t, ok)

	err := mc.Do(context.Background(), func() error { return nil })
	assert.ErrorIs(t, err, game.ErrClosed, "delete closes the session")
}

func TestMatchStore_IsolatesMatches(t *testing.T) {
	s := New()
	a, b := newContext(t, "a"), newContext(t, "b")
	s.Put(a)
	s.Put(b)
	defer s.CloseAll()

	ctx := context.Background()
	require.NoError(t, a.Do(ctx, func() error {
		_, err := a.State.Submit(match.EventInput{Minute: 5, Shots: 3})
		return err
	}))

	var bLog int
	require.NoError(t, b.Do(ctx, func() error {
		bLog = len(b.State.Log)
		return nil
	}))
	assert.Zero(t, bLog)
	assert.Len(t, s.All(), 2)
}

func TestMatchStore_CloseAll(t *testing.T) {
	s := New()
	s.Put(newContext(t, "a"))
	s.Put(newContext(t, "b"))
	s.CloseAll()
	assert.Zero(t, s.Len())
	assert.Empty(t, s.All())
}

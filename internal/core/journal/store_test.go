package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/events"
)

func openTestStore(t *testing.T, maxRows int64) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "nested", "journal.db"), maxRows)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestStore_InsertAndQueryMinutes(t *testing.T) {
	s := openTestStore(t, 0)

	require.NoError(t, s.InsertMatch(MatchRow{Ts: time.Now(), MatchID: "m1", EventType: "match_started", Preset: "classic", HomeTeam: "A", AwayTeam: "B"}))
	_, err := s.InsertMinute(MinuteRow{Ts: time.Now(), MatchID: "m1", Seq: 1, Minute: 5, Shots: 2, TotalEG: 1.7210526, FairOdd: f64Ptr(4.7123456)})
	require.NoError(t, err)
	_, err = s.InsertMinute(MinuteRow{Ts: time.Now(), MatchID: "m1", Seq: 2, Minute: 9, Shots: 1, Tier: "strong_value", LiveOdd: f64Ptr(50)})
	require.NoError(t, err)

	rows, err := s.Minutes("m1")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, 5, rows[0].Minute)
	assert.InDelta(t, 1.72105, rows[0].TotalEG, 1e-9)
	require.NotNil(t, rows[0].FairOdd)
	assert.InDelta(t, 4.71235, *rows[0].FairOdd, 1e-9)
	assert.Nil(t, rows[0].LiveOdd)
	assert.Nil(t, rows[1].FairOdd)
	assert.Equal(t, "strong_value", rows[1].Tier)
	assert.Equal(t, int64(2), s.Count())

	ms, err := s.Matches(10)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "m1", ms[0].MatchID)
	assert.Equal(t, 2, ms[0].Minutes)
	assert.Equal(t, "match_started", ms[0].LastEvent)
}

func TestStore_EvictsOldestMinutes(t *testing.T) {
	s := openTestStore(t, 20)
	for i := 1; i <= 25; i++ {
		_, err := s.InsertMinute(MinuteRow{Ts: time.Now(), MatchID: "m1", Seq: i, Minute: i})
		require.NoError(t, err)
	}
	assert.LessOrEqual(t, s.Count(), int64(21))

	rows, err := s.Minutes("m1")
	require.NoError(t, err)
	assert.Equal(t, int(s.Count()), len(rows))
	assert.Equal(t, 25, rows[len(rows)-1].Minute)
	assert.Greater(t, rows[0].Minute, 1)
}

func TestStore_ReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	s, err := OpenStore(path, 0)
	require.NoError(t, err)
	_, err = s.InsertMinute(MinuteRow{Ts: time.Now(), MatchID: "m1", Seq: 1, Minute: 2})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = OpenStore(path, 0)
	require.NoError(t, err)
	defer s.Close()
	assert.Equal(t, int64(1), s.Count())
}

func TestObserver_WritesLifecycleAndMinutes(t *testing.T) {
	s := openTestStore(t, 0)
	st, err := match.StartMatch(odds.MarketOdds{Home: 2.2, Draw: 3.2, Away: 3.2}, match.Classic())
	require.NoError(t, err)
	mc := game.NewMatchContext("m1", "classic", st)
	defer mc.Close()
	mc.Home, mc.Away = "Lions", "Tigers"
	mc.HomeKey, mc.AwayKey = "lions", "tigers"

	obs := NewObserver(s)
	obs.OnMatchEvent(mc, string(events.EventMatchStarted))

	rec, err := st.Submit(match.EventInput{Minute: 5, Shots: 2, LiveOdd: 50})
	require.NoError(t, err)
	mc.LastRecord = &rec
	obs.OnMatchEvent(mc, string(events.EventMinuteRecorded))
	obs.OnMatchEvent(mc, string(events.EventMatchClosed))
	obs.OnMatchEvent(mc, "something_else")

	rows, err := s.Minutes("m1")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Seq)
	require.NotNil(t, rows[0].ValueRatio)
	require.NotNil(t, rows[0].FairOdd)
	assert.InDelta(t, rec.FairOdd, *rows[0].FairOdd, 1e-5)

	ms, err := s.Matches(10)
	require.NoError(t, err)
	require.Len(t, ms, 1)
	assert.Equal(t, "match_closed", ms[0].LastEvent)
	assert.Equal(t, "Lions", ms[0].HomeTeam)
}

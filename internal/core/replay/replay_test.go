package replay

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/match"
)

var standardOdds = odds.MarketOdds{Home: 2.20, Draw: 3.20, Away: 3.20}

func TestRun_AppliesEveryRow(t *testing.T) {
	s, err := match.StartMatch(standardOdds, match.Classic())
	require.NoError(t, err)

	rows := []match.EventInput{
		{Minute: 5, Shots: 2},
		{Minute: 12, Shots: 1, Attacks: 3},
		{Minute: 30, GoalsHome: 1},
	}
	res, err := Run(s, rows)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, s.Log, res.Records)
	assert.InDelta(t, 1.721, res.Records[0].TotalEG, 0.001)
	assert.Equal(t, 30, s.Minute)
}

func TestRun_StopsAtFirstRejection(t *testing.T) {
	s, err := match.StartMatch(standardOdds, match.Classic())
	require.NoError(t, err)

	rows := []match.EventInput{
		{Minute: 5, Shots: 2},
		{Minute: 4, Shots: 1},
		{Minute: 10, Shots: 1},
	}
	res, err := Run(s, rows)
	require.Error(t, err)
	assert.ErrorIs(t, err, match.ErrOutOfOrderMinute)

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	assert.Equal(t, 1, rowErr.Index)
	assert.Equal(t, 1, res.Applied)
	assert.Len(t, s.Log, 1)
	assert.Equal(t, 5, s.Minute)
}

func TestReadCSV(t *testing.T) {
	data := "minute,shots,home_shots,away_shots,attacks,corners,goals_home,goals_away,live_odd\n" +
		"5,2,0,0,0,0,0,0,\n" +
		"12, 1, , ,3,1,0,0,4.50\n"
	rows, err := ReadCSV(strings.NewReader(data))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, match.EventInput{Minute: 5, Shots: 2}, rows[0])
	assert.Equal(t, match.EventInput{Minute: 12, Shots: 1, Attacks: 3, Corners: 1, LiveOdd: 4.5}, rows[1])
}

func TestReadCSV_PartialHeader(t *testing.T) {
	rows, err := ReadCSV(strings.NewReader("Minute,Home_Shots,notes\n1,2,early press\n"))
	require.NoError(t, err)
	assert.Equal(t, []match.EventInput{{Minute: 1, HomeShots: 2}}, rows)
}

func TestReadCSV_Errors(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"empty", ""},
		{"no minute column", "shots\n2\n"},
		{"bad int", "minute,shots\n5,two\n"},
		{"bad live odd", "minute,live_odd\n5,x\n"},
		{"ragged row", "minute,shots\n5,1,9\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.data))
			assert.ErrorIs(t, err, ErrBadCSV)
		})
	}
}

func TestWriteCSV_RoundTripsInputs(t *testing.T) {
	s, err := match.StartMatch(standardOdds, match.Classic())
	require.NoError(t, err)
	rows := []match.EventInput{{Minute: 5, Shots: 2}, {Minute: 8, Attacks: 2, GoalsAway: 1, LiveOdd: 3.1}}
	res, err := Run(s, rows)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, res.Records))

	back, err := ReadCSV(&buf)
	require.NoError(t, err)
	assert.Equal(t, rows, back)
}

const sampleScript = `
name: demo
home: Lions
away: Tigers
preset: sequential
line: 1.5
odds: {home: 2.20, draw: 3.20, away: 3.20}
rows:
  - {minute: 1, home_shots: 1}
  - {minute: 2, attacks: 4}
  - {minute: 3, away_shots: 2, goals_away: 1}
`

func TestScript_Play(t *testing.T) {
	sc, err := ParseScript([]byte(sampleScript))
	require.NoError(t, err)
	assert.Equal(t, "Lions", sc.Home)
	assert.Len(t, sc.Rows, 3)

	s, res, err := sc.Play(match.DefaultPresets())
	require.NoError(t, err)
	assert.Equal(t, 3, res.Applied)
	assert.Equal(t, 1.5, s.Policy.Line)
	assert.Equal(t, "0 x 1", s.Score())
	assert.Equal(t, 4, s.Minute)
}

func TestLoadScript_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "match.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleScript), 0o644))

	sc, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, "demo", sc.Name)

	_, err = LoadScript(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestScript_UnknownPreset(t *testing.T) {
	sc := Script{Preset: "turbo", Odds: standardOdds}
	_, _, err := sc.Play(match.DefaultPresets())
	assert.ErrorIs(t, err, ErrUnknownPreset)
}

func TestSampleScript_PlaysToEnd(t *testing.T) {
	sc, err := LoadScript(filepath.Join("..", "..", "..", "config", "sample_match.yaml"))
	require.NoError(t, err)

	st, res, err := sc.Play(match.DefaultPresets())
	require.NoError(t, err)
	assert.Equal(t, len(sc.Rows), res.Applied)
	assert.Equal(t, 88, st.Minute)
	assert.Equal(t, "1 x 1", st.Score())
	assert.InDelta(t, st.HomeEG+st.AwayEG, st.TotalEG, 1e-12)
}

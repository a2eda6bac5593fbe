package journal

import (
	"database/sql"
	"fmt"
	"time"
)

// MatchSummary is one session as seen by the journal.
type MatchSummary struct {
	MatchID   string
	Preset    string
	HomeTeam  string
	AwayTeam  string
	StartedAt time.Time
	Minutes   int
	LastEvent string
}

// Matches lists journaled sessions, most recently started first.
func (s *Store) Matches(limit int) ([]MatchSummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT ms.match_id, ms.preset, ms.home_team, ms.away_team, MIN(ms.ts),
			(SELECT COUNT(*) FROM match_minutes mm WHERE mm.match_id = ms.match_id),
			(SELECT event_type FROM match_sessions last WHERE last.match_id = ms.match_id ORDER BY last.id DESC LIMIT 1)
		FROM match_sessions ms
		GROUP BY ms.match_id
		ORDER BY MIN(ms.id) DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("journal matches: %w", err)
	}
	defer rows.Close()

	var out []MatchSummary
	for rows.Next() {
		var m MatchSummary
		var ts string
		if err := rows.Scan(&m.MatchID, &m.Preset, &m.HomeTeam, &m.AwayTeam, &ts, &m.Minutes, &m.LastEvent); err != nil {
			return nil, fmt.Errorf("journal matches scan: %w", err)
		}
		m.StartedAt, _ = time.Parse(time.RFC3339Nano, ts)
		out = append(out, m)
	}
	return out, rows.Err()
}

// Minutes returns the minute rows of one match in submission order.
func (s *Store) Minutes(matchID string) ([]MinuteRow, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(`
		SELECT ts, match_id, seq, minute, shots, home_shots, away_shots, attacks, corners,
			goals_home, goals_away, delta_home, delta_away, home_eg, away_eg, total_eg,
			line, probability, fair_odd, live_odd, value_ratio, tier
		FROM match_minutes WHERE match_id = ? ORDER BY id ASC`, matchID)
	if err != nil {
		return nil, fmt.Errorf("journal minutes: %w", err)
	}
	defer rows.Close()

	var out []MinuteRow
	for rows.Next() {
		var r MinuteRow
		var ts string
		var prob, fair, live, ratio sql.NullFloat64
		var tier sql.NullString
		if err := rows.Scan(&ts, &r.MatchID, &r.Seq, &r.Minute, &r.Shots, &r.HomeShots, &r.AwayShots,
			&r.Attacks, &r.Corners, &r.GoalsHome, &r.GoalsAway, &r.DeltaHome, &r.DeltaAway,
			&r.HomeEG, &r.AwayEG, &r.TotalEG, &r.Line, &prob, &fair, &live, &ratio, &tier); err != nil {
			return nil, fmt.Errorf("journal minutes scan: %w", err)
		}
		r.Ts, _ = time.Parse(time.RFC3339Nano, ts)
		r.Probability = nullPtr(prob)
		r.FairOdd = nullPtr(fair)
		r.LiveOdd = nullPtr(live)
		r.ValueRatio = nullPtr(ratio)
		r.Tier = tier.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	return &n.Float64
}

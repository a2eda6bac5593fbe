// Package journal keeps an append-only SQLite audit copy of every match
// session. Sessions are never rebuilt from it.
package journal

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/charleschow/fairodds/internal/telemetry"

	_ "modernc.org/sqlite"
)

const evictPct = 0.10 // evict oldest 10% of minute rows when over the cap

func round5(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := math.Round(*v*100000) / 100000
	return &r
}

func f64Ptr(v float64) *float64 { return &v }

// MatchRow records a session lifecycle event (start, restart, close).
type MatchRow struct {
	Ts            time.Time
	MatchID       string
	EventType     string
	Preset        string
	HomeTeam      string
	AwayTeam      string
	NormHome      string
	NormAway      string
	HomeOdd       float64
	DrawOdd       float64
	AwayOdd       float64
	HomeShare     float64
	DrawShare     float64
	AwayShare     float64
	ImpliedSum    float64
	MarginWarning bool
	HomeGoals     int
	AwayGoals     int
	Minute        int
}

// MinuteRow records one accepted submission. Nil pointers are written
// as SQL NULL.
type MinuteRow struct {
	Ts        time.Time
	MatchID   string
	Seq       int
	Minute    int
	Shots     int
	HomeShots int
	AwayShots int
	Attacks   int
	Corners   int
	GoalsHome int
	GoalsAway int
	DeltaHome float64
	DeltaAway float64
	HomeEG    float64
	AwayEG    float64
	TotalEG   float64
	Line      float64

	Probability *float64
	FairOdd     *float64
	LiveOdd     *float64
	ValueRatio  *float64
	Tier        string
}

// Store is the journal database. Minute rows are capped at maxRows when
// maxRows > 0; the oldest 10% are evicted once the cap is exceeded.
type Store struct {
	db       *sql.DB
	mu       sync.Mutex
	maxRows  int64
	rowCount int64
}

func OpenStore(path string, maxRows int64) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create journal dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`CREATE TABLE IF NOT EXISTS match_sessions (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			ts             TEXT    NOT NULL,
			match_id       TEXT    NOT NULL,
			event_type     TEXT    NOT NULL,
			preset         TEXT,
			home_team      TEXT,
			away_team      TEXT,
			norm_home      TEXT,
			norm_away      TEXT,
			home_odd       REAL,
			draw_odd       REAL,
			away_odd       REAL,
			home_share     REAL,
			draw_share     REAL,
			away_share     REAL,
			implied_sum    REAL,
			margin_warning INTEGER,
			home_goals     INTEGER,
			away_goals     INTEGER,
			minute         INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS match_minutes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			ts          TEXT    NOT NULL,
			match_id    TEXT    NOT NULL,
			seq         INTEGER NOT NULL,
			minute      INTEGER NOT NULL,
			shots       INTEGER,
			home_shots  INTEGER,
			away_shots  INTEGER,
			attacks     INTEGER,
			corners     INTEGER,
			goals_home  INTEGER,
			goals_away  INTEGER,
			delta_home  REAL,
			delta_away  REAL,
			home_eg     REAL,
			away_eg     REAL,
			total_eg    REAL,
			line        REAL,
			probability REAL,
			fair_odd    REAL,
			live_odd    REAL,
			value_ratio REAL,
			tier        TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ms_match_id ON match_sessions(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mm_match_id ON match_minutes(match_id)`,
		`CREATE INDEX IF NOT EXISTS idx_mm_ts ON match_minutes(ts)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init schema (%s): %w", stmt, err)
		}
	}

	var count int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM match_minutes`).Scan(&count); err != nil {
		db.Close()
		return nil, fmt.Errorf("read row count: %w", err)
	}

	telemetry.Infof("Opened match journal  path=%s  minute_rows=%d  max_rows=%d", path, count, maxRows)

	return &Store{db: db, maxRows: maxRows, rowCount: count}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) InsertMatch(row MatchRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO match_sessions (
			ts, match_id, event_type, preset, home_team, away_team, norm_home, norm_away,
			home_odd, draw_odd, away_odd, home_share, draw_share, away_share,
			implied_sum, margin_warning, home_goals, away_goals, minute
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		row.Ts.UTC().Format(time.RFC3339Nano),
		row.MatchID,
		row.EventType,
		row.Preset,
		row.HomeTeam,
		row.AwayTeam,
		row.NormHome,
		row.NormAway,
		row.HomeOdd,
		row.DrawOdd,
		row.AwayOdd,
		round5(f64Ptr(row.HomeShare)),
		round5(f64Ptr(row.DrawShare)),
		round5(f64Ptr(row.AwayShare)),
		round5(f64Ptr(row.ImpliedSum)),
		row.MarginWarning,
		row.HomeGoals,
		row.AwayGoals,
		row.Minute,
	)
	if err != nil {
		return fmt.Errorf("journal match insert: %w", err)
	}
	return nil
}

// InsertMinute stores a minute row synchronously. The caller (match
// goroutine) is already serialized per match; the mutex covers writes
// from different matches.
func (s *Store) InsertMinute(row MinuteRow) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO match_minutes (
			ts, match_id, seq, minute, shots, home_shots, away_shots, attacks, corners,
			goals_home, goals_away, delta_home, delta_away, home_eg, away_eg, total_eg,
			line, probability, fair_odd, live_odd, value_ratio, tier
		) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		row.Ts.UTC().Format(time.RFC3339Nano),
		row.MatchID,
		row.Seq,
		row.Minute,
		row.Shots,
		row.HomeShots,
		row.AwayShots,
		row.Attacks,
		row.Corners,
		row.GoalsHome,
		row.GoalsAway,
		round5(f64Ptr(row.DeltaHome)),
		round5(f64Ptr(row.DeltaAway)),
		round5(f64Ptr(row.HomeEG)),
		round5(f64Ptr(row.AwayEG)),
		round5(f64Ptr(row.TotalEG)),
		row.Line,
		round5(row.Probability),
		round5(row.FairOdd),
		row.LiveOdd,
		round5(row.ValueRatio),
		row.Tier,
	)
	if err != nil {
		return 0, fmt.Errorf("journal minute insert: %w", err)
	}

	id, _ := res.LastInsertId()
	s.rowCount++
	if s.maxRows > 0 && s.rowCount > s.maxRows {
		s.evict()
	}
	return id, nil
}

// evict deletes the oldest 10% of minute rows by id.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := int64(float64(s.rowCount) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}
	res, err := s.db.Exec(
		`DELETE FROM match_minutes WHERE id IN (
			SELECT id FROM match_minutes ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("journal evict: %v", err)
		return
	}
	n, _ := res.RowsAffected()
	s.rowCount -= n
	telemetry.Debugf("journal evicted %d minute rows, %d remain", n, s.rowCount)
}

// Count returns the number of minute rows.
func (s *Store) Count() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rowCount
}

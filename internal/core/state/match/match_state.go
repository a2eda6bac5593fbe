package match

import (
	"fmt"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/strategy"
	"github.com/charleschow/fairodds/internal/core/strategy/overunder"
)

// EventInput is one minute's observed counts. Shots are unattributed;
// HomeShots/AwayShots are per side. LiveOdd is optional (0 = not given).
type EventInput struct {
	Minute    int     `yaml:"minute" json:"minute"`
	Shots     int     `yaml:"shots" json:"shots"`
	HomeShots int     `yaml:"home_shots" json:"home_shots"`
	AwayShots int     `yaml:"away_shots" json:"away_shots"`
	Attacks   int     `yaml:"attacks" json:"attacks"`
	Corners   int     `yaml:"corners" json:"corners"`
	GoalsHome int     `yaml:"goals_home" json:"goals_home"`
	GoalsAway int     `yaml:"goals_away" json:"goals_away"`
	LiveOdd   float64 `yaml:"live_odd,omitempty" json:"live_odd,omitempty"`
}

func (in EventInput) validate() error {
	counts := []struct {
		name string
		v    int
	}{
		{"minute", in.Minute},
		{"shots", in.Shots},
		{"home_shots", in.HomeShots},
		{"away_shots", in.AwayShots},
		{"attacks", in.Attacks},
		{"corners", in.Corners},
		{"goals_home", in.GoalsHome},
		{"goals_away", in.GoalsAway},
	}
	for _, c := range counts {
		if c.v < 0 {
			return fmt.Errorf("%s=%d: %w", c.name, c.v, ErrInvalidEvent)
		}
	}
	return nil
}

func (in EventInput) totalShots() int { return in.Shots + in.HomeShots + in.AwayShots }
func (in EventInput) goals() int      { return in.GoalsHome + in.GoalsAway }

func (in EventInput) isEmpty(rule SignalRule) bool {
	switch rule {
	case SignalAny:
		return in.totalShots() == 0 && in.Attacks == 0 && in.Corners == 0 && in.goals() == 0
	case SignalShotOrGoal:
		return in.totalShots() == 0 && in.goals() == 0
	}
	return false
}

// LogRecord is the immutable history entry for one accepted submission.
type LogRecord struct {
	EventInput

	DeltaHome float64 `json:"delta_home"`
	DeltaAway float64 `json:"delta_away"`
	HomeEG    float64 `json:"home_eg"`
	AwayEG    float64 `json:"away_eg"`
	TotalEG   float64 `json:"total_eg"`
	HomeGoals int     `json:"home_goals"`
	AwayGoals int     `json:"away_goals"`

	// Projection at the post-update minute pointer.
	NextMinute   int     `json:"next_minute"`
	Line         float64 `json:"line"`
	Probability  float64 `json:"probability"`
	FairOdd      float64 `json:"fair_odd"`
	OddAvailable bool    `json:"odd_available"`

	// Set only when the submission carried a live odd and a fair odd existed.
	ValueRatio float64       `json:"value_ratio,omitempty"`
	Tier       strategy.Tier `json:"tier,omitempty"`
}

// State is one match's running expected-goals picture. It is not safe for
// concurrent use; the session layer serializes access.
type State struct {
	Policy Policy          `json:"policy"`
	Odds   odds.MarketOdds `json:"odds"`

	Minute    int `json:"minute"`
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`

	HomeEG  float64 `json:"home_eg"`
	AwayEG  float64 `json:"away_eg"`
	TotalEG float64 `json:"total_eg"`

	BaseHomeShare float64 `json:"base_home_share"`
	BaseDrawShare float64 `json:"base_draw_share"`
	BaseAwayShare float64 `json:"base_away_share"`
	ImpliedSum    float64 `json:"implied_sum"`
	MarginWarning bool    `json:"margin_warning"`

	Started bool        `json:"started"`
	Log     []LogRecord `json:"log"`
}

// StartMatch seeds a fresh state from pre-match 1X2 odds.
func StartMatch(mo odds.MarketOdds, p Policy) (*State, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := mo.Validate(); err != nil {
		return nil, err
	}
	norm, err := odds.RemoveVig3(mo)
	if err != nil {
		return nil, fmt.Errorf("normalize: %w", ErrInvalidOdds)
	}

	s := &State{
		Policy:        p,
		Odds:          mo,
		Minute:        p.KickoffMinute,
		HomeEG:        odds.BaseExpectedGoals(norm.Home),
		AwayEG:        odds.BaseExpectedGoals(norm.Away),
		BaseHomeShare: norm.Home,
		BaseDrawShare: norm.Draw,
		BaseAwayShare: norm.Away,
		ImpliedSum:    norm.Sum,
		MarginWarning: norm.MarginWarning,
		Started:       true,
		Log:           []LogRecord{},
	}
	s.TotalEG = s.HomeEG + s.AwayEG
	return s, nil
}

// Shares returns the fractions used to split unattributed events.
func (s *State) Shares() (home, away float64) {
	if s.TotalEG <= 0 {
		return 0.5, 0.5
	}
	return s.HomeEG / s.TotalEG, s.AwayEG / s.TotalEG
}

// Project prices the over at the current minute pointer.
func (s *State) Project(line float64) (overunder.Projection, error) {
	if s == nil || !s.Started {
		return overunder.Projection{}, ErrNotStarted
	}
	return overunder.ProjectFairOdd(s.TotalEG, s.Minute, line, s.Policy.Projection)
}

// Evaluate compares a live over odd against the current fair odd.
func (s *State) Evaluate(line, liveOdd float64, th strategy.Thresholds) (overunder.Projection, strategy.Verdict, error) {
	proj, err := s.Project(line)
	if err != nil {
		return proj, strategy.Verdict{}, err
	}
	v, err := th.Evaluate(proj.FairOdd, liveOdd)
	if err != nil {
		return proj, strategy.Verdict{}, err
	}
	return proj, v, nil
}

// Snapshot returns a copy that shares no memory with s.
func (s *State) Snapshot() State {
	cp := *s
	cp.Log = make([]LogRecord, len(s.Log))
	copy(cp.Log, s.Log)
	return cp
}

// Score formats the scoreline as "H x A".
func (s *State) Score() string {
	return fmt.Sprintf("%d x %d", s.HomeGoals, s.AwayGoals)
}

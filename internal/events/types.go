package events

// MatchStartedEvent is published when a match is started or restarted.
type MatchStartedEvent struct {
	MatchID       string  `json:"match_id"`
	Home          string  `json:"home"`
	Away          string  `json:"away"`
	Preset        string  `json:"preset"`
	HomeOdd       float64 `json:"home_odd"`
	DrawOdd       float64 `json:"draw_odd"`
	AwayOdd       float64 `json:"away_odd"`
	HomeShare     float64 `json:"home_share"`
	DrawShare     float64 `json:"draw_share"`
	AwayShare     float64 `json:"away_share"`
	HomeEG        float64 `json:"home_eg"`
	AwayEG        float64 `json:"away_eg"`
	Minute        int     `json:"minute"`
	MarginWarning bool    `json:"margin_warning,omitempty"`
}

// MinuteRecordedEvent carries one accepted submission and the state after it.
type MinuteRecordedEvent struct {
	MatchID    string `json:"match_id"`
	Home       string `json:"home"`
	Away       string `json:"away"`
	Seq        int    `json:"seq"` // 1-based position in the match log
	Minute     int    `json:"minute"`
	NextMinute int    `json:"next_minute"`

	Shots     int `json:"shots"`
	HomeShots int `json:"home_shots"`
	AwayShots int `json:"away_shots"`
	Attacks   int `json:"attacks"`
	Corners   int `json:"corners"`
	GoalsHome int `json:"goals_home"`
	GoalsAway int `json:"goals_away"`

	HomeGoals int     `json:"home_goals"`
	AwayGoals int     `json:"away_goals"`
	DeltaHome float64 `json:"delta_home"`
	DeltaAway float64 `json:"delta_away"`
	HomeEG    float64 `json:"home_eg"`
	AwayEG    float64 `json:"away_eg"`
	TotalEG   float64 `json:"total_eg"`

	Line         float64 `json:"line"`
	Probability  float64 `json:"probability"`
	FairOdd      float64 `json:"fair_odd"`
	OddAvailable bool    `json:"odd_available"`
	LiveOdd      float64 `json:"live_odd,omitempty"`
	ValueRatio   float64 `json:"value_ratio,omitempty"`
	Tier         string  `json:"tier,omitempty"`
}

// ValueFlaggedEvent is published when a live odd clears a value threshold.
type ValueFlaggedEvent struct {
	MatchID string  `json:"match_id"`
	Home    string  `json:"home"`
	Away    string  `json:"away"`
	Minute  int     `json:"minute"`
	Line    float64 `json:"line"`
	FairOdd float64 `json:"fair_odd"`
	LiveOdd float64 `json:"live_odd"`
	Ratio   float64 `json:"ratio"`
	EdgePct float64 `json:"edge_pct"`
	Tier    string  `json:"tier"`
}

// MatchClosedEvent is published when a session is discarded.
type MatchClosedEvent struct {
	MatchID   string `json:"match_id"`
	Minute    int    `json:"minute"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
	Submitted int    `json:"submitted"`
}

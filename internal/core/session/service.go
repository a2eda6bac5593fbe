// Package session owns the set of live match sessions. Each session is
// a game.MatchContext; the service routes requests onto the right match
// goroutine and fans results out to observers and the event bus.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/state/store"
	"github.com/charleschow/fairodds/internal/core/strategy"
	"github.com/charleschow/fairodds/internal/core/strategy/overunder"
	"github.com/charleschow/fairodds/internal/core/teams"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/telemetry"
)

var (
	ErrNotFound      = errors.New("match not found")
	ErrUnknownPreset = errors.New("unknown policy preset")
	ErrInvalidLine   = errors.New("line must be a positive finite number")
)

type Config struct {
	Presets       match.Presets
	DefaultPreset string // used when a request names no preset
	Thresholds    strategy.Thresholds
	Aliases       map[string]string
}

func DefaultConfig() Config {
	return Config{
		Presets:       match.DefaultPresets(),
		DefaultPreset: "classic",
		Thresholds:    strategy.DefaultThresholds(),
	}
}

type Service struct {
	cfg       Config
	store     *store.MatchStore
	bus       *events.Bus
	observers []game.MatchObserver
}

func NewService(cfg Config, st *store.MatchStore, bus *events.Bus, observers ...game.MatchObserver) *Service {
	if cfg.Presets == nil {
		cfg.Presets = match.DefaultPresets()
	}
	if cfg.Thresholds == (strategy.Thresholds{}) {
		cfg.Thresholds = strategy.DefaultThresholds()
	}
	return &Service{cfg: cfg, store: st, bus: bus, observers: observers}
}

// StartRequest opens a new session.
type StartRequest struct {
	Home   string          `json:"home"`
	Away   string          `json:"away"`
	Preset string          `json:"preset"`
	Line   float64         `json:"line,omitempty"` // overrides the preset line
	Odds   odds.MarketOdds `json:"odds"`
}

// View is a consistent copy of one session.
type View struct {
	ID        string      `json:"id"`
	Home      string      `json:"home"`
	Away      string      `json:"away"`
	Preset    string      `json:"preset"`
	CreatedAt time.Time   `json:"created_at"`
	Restarts  int         `json:"restarts"`
	State     match.State `json:"state"`
}

// Summary is a one-line session listing.
type Summary struct {
	ID        string  `json:"id"`
	Home      string  `json:"home"`
	Away      string  `json:"away"`
	Preset    string  `json:"preset"`
	Minute    int     `json:"minute"`
	Score     string  `json:"score"`
	TotalEG   float64 `json:"total_eg"`
	Submitted int     `json:"submitted"`
}

// Evaluation is a projection plus the value verdict for one live odd.
type Evaluation struct {
	Projection overunder.Projection `json:"projection"`
	Verdict    strategy.Verdict     `json:"verdict"`
}

func (s *Service) policyFor(preset string, line float64) (match.Policy, error) {
	if preset == "" {
		preset = s.cfg.DefaultPreset
	}
	p, ok := s.cfg.Presets.Get(preset)
	if !ok {
		return match.Policy{}, fmt.Errorf("%q: %w", preset, ErrUnknownPreset)
	}
	if line < 0 || !odds.Finite(line) {
		return match.Policy{}, ErrInvalidLine
	}
	if line > 0 {
		p.Line = line
	}
	return p, nil
}

// Start validates odds, seeds a fresh state and registers the session.
func (s *Service) Start(ctx context.Context, req StartRequest) (View, error) {
	p, err := s.policyFor(req.Preset, req.Line)
	if err != nil {
		return View{}, err
	}
	st, err := match.StartMatch(req.Odds, p)
	if err != nil {
		return View{}, err
	}

	mc := game.NewMatchContext(uuid.NewString(), p.Name, st)
	mc.Home = teams.Display(req.Home, "Home")
	mc.Away = teams.Display(req.Away, "Away")
	mc.HomeKey = teams.Key(mc.Home, s.cfg.Aliases)
	mc.AwayKey = teams.Key(mc.Away, s.cfg.Aliases)
	for _, o := range s.observers {
		mc.AddObserver(o)
	}
	s.store.Put(mc)

	telemetry.Metrics.MatchesStarted.Inc()
	telemetry.Metrics.ActiveMatches.Set(int64(s.store.Len()))
	if st.MarginWarning {
		telemetry.Warnf("match %s: implied 1X2 sum %.4f outside [%.1f, %.1f]",
			mc.ID, st.ImpliedSum, odds.MarginSumLow, odds.MarginSumHigh)
	}

	var v View
	err = mc.Do(ctx, func() error {
		mc.Notify(string(events.EventMatchStarted))
		s.publish(events.EventMatchStarted, mc.ID, startedPayload(mc))
		v = viewOf(mc)
		return nil
	})
	return v, err
}

// Submit applies one minute of events to the match.
func (s *Service) Submit(ctx context.Context, id string, in match.EventInput) (match.LogRecord, error) {
	mc, err := s.lookup(id)
	if err != nil {
		return match.LogRecord{}, err
	}

	var rec match.LogRecord
	start := time.Now()
	err = mc.Do(ctx, func() error {
		r, err := mc.State.SubmitWith(in, s.cfg.Thresholds)
		if err != nil {
			return err
		}
		rec = r
		mc.LastRecord = &r
		mc.Notify(string(events.EventMinuteRecorded))
		s.publish(events.EventMinuteRecorded, mc.ID, minutePayload(mc, r))

		if r.Tier != "" && r.Tier != strategy.TierNone {
			v := strategy.Verdict{
				LiveOdd: r.LiveOdd,
				FairOdd: r.FairOdd,
				Ratio:   r.ValueRatio,
				EdgePct: (r.ValueRatio - 1) * 100,
				Tier:    r.Tier,
			}
			s.flagValue(mc, r.Minute, r.Line, v)
		}
		return nil
	})
	telemetry.Metrics.SubmitLatency.Record(time.Since(start))
	if err != nil {
		telemetry.Metrics.EventsRejected.Inc()
		return match.LogRecord{}, err
	}
	telemetry.Metrics.EventsAccepted.Inc()
	return rec, nil
}

// Project prices the over at the match's current minute.
func (s *Service) Project(ctx context.Context, id string, line float64) (overunder.Projection, error) {
	mc, err := s.lookup(id)
	if err != nil {
		return overunder.Projection{}, err
	}
	var proj overunder.Projection
	err = mc.Do(ctx, func() error {
		l, err := s.lineFor(mc, line)
		if err != nil {
			return err
		}
		proj, err = mc.State.Project(l)
		return err
	})
	telemetry.Metrics.Projections.Inc()
	return proj, err
}

// Evaluate compares a live over odd against the current fair odd.
func (s *Service) Evaluate(ctx context.Context, id string, line, liveOdd float64) (Evaluation, error) {
	mc, err := s.lookup(id)
	if err != nil {
		return Evaluation{}, err
	}
	var ev Evaluation
	err = mc.Do(ctx, func() error {
		l, err := s.lineFor(mc, line)
		if err != nil {
			return err
		}
		proj, v, err := mc.State.Evaluate(l, liveOdd, s.cfg.Thresholds)
		ev.Projection = proj
		if err != nil {
			return err
		}
		ev.Verdict = v
		if v.HasValue() {
			s.flagValue(mc, mc.State.Minute, l, v)
		}
		return nil
	})
	telemetry.Metrics.Projections.Inc()
	return ev, err
}

// Restart reseeds the session from new odds, discarding state and log.
// The session keeps its ID, labels and policy.
func (s *Service) Restart(ctx context.Context, id string, mo odds.MarketOdds) (View, error) {
	mc, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	var v View
	err = mc.Do(ctx, func() error {
		st, err := match.StartMatch(mo, mc.State.Policy)
		if err != nil {
			return err
		}
		mc.State = st
		mc.LastRecord = nil
		mc.LastVerdict = nil
		mc.Restarts++
		mc.Notify(string(events.EventMatchRestarted))
		s.publish(events.EventMatchRestarted, mc.ID, startedPayload(mc))
		v = viewOf(mc)
		return nil
	})
	if err == nil {
		telemetry.Metrics.MatchesRestarted.Inc()
	}
	return v, err
}

func (s *Service) Get(ctx context.Context, id string) (View, error) {
	mc, err := s.lookup(id)
	if err != nil {
		return View{}, err
	}
	var v View
	err = mc.Do(ctx, func() error {
		v = viewOf(mc)
		return nil
	})
	return v, err
}

// List summarises every session, oldest first. Sessions that close while
// listing are skipped.
func (s *Service) List(ctx context.Context) []Summary {
	all := s.store.All()
	out := make([]Summary, 0, len(all))
	for _, mc := range all {
		var sum Summary
		err := mc.Do(ctx, func() error {
			sum = Summary{
				ID:        mc.ID,
				Home:      mc.Home,
				Away:      mc.Away,
				Preset:    mc.Preset,
				Minute:    mc.State.Minute,
				Score:     mc.State.Score(),
				TotalEG:   mc.State.TotalEG,
				Submitted: mc.Submitted(),
			}
			return nil
		})
		if err == nil {
			out = append(out, sum)
		}
	}
	return out
}

// Close discards a session. Of concurrent callers only the first
// publishes match_closed; the rest see ErrNotFound.
func (s *Service) Close(ctx context.Context, id string) error {
	mc, err := s.lookup(id)
	if err != nil {
		return err
	}
	err = mc.Do(ctx, func() error {
		if mc.Closing {
			return fmt.Errorf("%s: %w", id, ErrNotFound)
		}
		mc.Closing = true
		mc.Notify(string(events.EventMatchClosed))
		s.publish(events.EventMatchClosed, mc.ID, events.MatchClosedEvent{
			MatchID:   mc.ID,
			Minute:    mc.State.Minute,
			HomeGoals: mc.State.HomeGoals,
			AwayGoals: mc.State.AwayGoals,
			Submitted: mc.Submitted(),
		})
		return nil
	})
	if errors.Is(err, game.ErrClosed) {
		return fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if err != nil {
		return err
	}
	s.store.Delete(id)
	telemetry.Metrics.ActiveMatches.Set(int64(s.store.Len()))
	return nil
}

// Shutdown closes every session without publishing close events.
func (s *Service) Shutdown() {
	s.store.CloseAll()
	telemetry.Metrics.ActiveMatches.Set(0)
}

func (s *Service) lookup(id string) (*game.MatchContext, error) {
	mc, ok := s.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	return mc, nil
}

func (s *Service) lineFor(mc *game.MatchContext, line float64) (float64, error) {
	switch {
	case line < 0 || !odds.Finite(line):
		return 0, ErrInvalidLine
	case line == 0:
		return mc.State.Policy.Line, nil
	}
	return line, nil
}

// flagValue runs on the match goroutine.
func (s *Service) flagValue(mc *game.MatchContext, minute int, line float64, v strategy.Verdict) {
	mc.LastVerdict = &v
	telemetry.Metrics.ValueFlags.Inc()
	mc.Notify(string(events.EventValueFlagged))
	s.publish(events.EventValueFlagged, mc.ID, events.ValueFlaggedEvent{
		MatchID: mc.ID,
		Home:    mc.Home,
		Away:    mc.Away,
		Minute:  minute,
		Line:    line,
		FairOdd: v.FairOdd,
		LiveOdd: v.LiveOdd,
		Ratio:   v.Ratio,
		EdgePct: v.EdgePct,
		Tier:    string(v.Tier),
	})
}

func (s *Service) publish(t events.EventType, matchID string, payload any) {
	if s.bus == nil {
		return
	}
	s.bus.Publish(events.New(t, matchID, payload))
}

func viewOf(mc *game.MatchContext) View {
	return View{
		ID:        mc.ID,
		Home:      mc.Home,
		Away:      mc.Away,
		Preset:    mc.Preset,
		CreatedAt: mc.CreatedAt,
		Restarts:  mc.Restarts,
		State:     mc.State.Snapshot(),
	}
}

func startedPayload(mc *game.MatchContext) events.MatchStartedEvent {
	st := mc.State
	return events.MatchStartedEvent{
		MatchID:       mc.ID,
		Home:          mc.Home,
		Away:          mc.Away,
		Preset:        mc.Preset,
		HomeOdd:       st.Odds.Home,
		DrawOdd:       st.Odds.Draw,
		AwayOdd:       st.Odds.Away,
		HomeShare:     st.BaseHomeShare,
		DrawShare:     st.BaseDrawShare,
		AwayShare:     st.BaseAwayShare,
		HomeEG:        st.HomeEG,
		AwayEG:        st.AwayEG,
		Minute:        st.Minute,
		MarginWarning: st.MarginWarning,
	}
}

func minutePayload(mc *game.MatchContext, r match.LogRecord) events.MinuteRecordedEvent {
	return events.MinuteRecordedEvent{
		MatchID:      mc.ID,
		Home:         mc.Home,
		Away:         mc.Away,
		Seq:          mc.Submitted(),
		Minute:       r.Minute,
		NextMinute:   r.NextMinute,
		Shots:        r.Shots,
		HomeShots:    r.HomeShots,
		AwayShots:    r.AwayShots,
		Attacks:      r.Attacks,
		Corners:      r.Corners,
		GoalsHome:    r.GoalsHome,
		GoalsAway:    r.GoalsAway,
		HomeGoals:    r.HomeGoals,
		AwayGoals:    r.AwayGoals,
		DeltaHome:    r.DeltaHome,
		DeltaAway:    r.DeltaAway,
		HomeEG:       r.HomeEG,
		AwayEG:       r.AwayEG,
		TotalEG:      r.TotalEG,
		Line:         r.Line,
		Probability:  r.Probability,
		FairOdd:      r.FairOdd,
		OddAvailable: r.OddAvailable,
		LiveOdd:      r.LiveOdd,
		ValueRatio:   r.ValueRatio,
		Tier:         string(r.Tier),
	}
}

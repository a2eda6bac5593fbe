package journal

import (
	"time"

	"github.com/charleschow/fairodds/internal/core/state/game"
	"github.com/charleschow/fairodds/internal/events"
	"github.com/charleschow/fairodds/internal/telemetry"
)

// Observer implements game.MatchObserver. It writes lifecycle rows on
// start, restart and close, and a minute row per accepted submission.
type Observer struct {
	store *Store
}

func NewObserver(store *Store) *Observer {
	return &Observer{store: store}
}

func (o *Observer) OnMatchEvent(mc *game.MatchContext, eventType string) {
	if o.store == nil || mc.State == nil {
		return
	}

	var err error
	switch events.EventType(eventType) {
	case events.EventMatchStarted, events.EventMatchRestarted, events.EventMatchClosed:
		err = o.store.InsertMatch(buildMatchRow(mc, eventType))
	case events.EventMinuteRecorded:
		if mc.LastRecord == nil {
			return
		}
		_, err = o.store.InsertMinute(buildMinuteRow(mc))
	default:
		return
	}
	if err != nil {
		telemetry.Metrics.JournalErrors.Inc()
		telemetry.Warnf("journal: %s for match %s: %v", eventType, mc.ID, err)
		return
	}
	telemetry.Metrics.JournalWrites.Inc()
}

func buildMatchRow(mc *game.MatchContext, eventType string) MatchRow {
	st := mc.State
	return MatchRow{
		Ts:            time.Now(),
		MatchID:       mc.ID,
		EventType:     eventType,
		Preset:        mc.Preset,
		HomeTeam:      mc.Home,
		AwayTeam:      mc.Away,
		NormHome:      mc.HomeKey,
		NormAway:      mc.AwayKey,
		HomeOdd:       st.Odds.Home,
		DrawOdd:       st.Odds.Draw,
		AwayOdd:       st.Odds.Away,
		HomeShare:     st.BaseHomeShare,
		DrawShare:     st.BaseDrawShare,
		AwayShare:     st.BaseAwayShare,
		ImpliedSum:    st.ImpliedSum,
		MarginWarning: st.MarginWarning,
		HomeGoals:     st.HomeGoals,
		AwayGoals:     st.AwayGoals,
		Minute:        st.Minute,
	}
}

func buildMinuteRow(mc *game.MatchContext) MinuteRow {
	r := mc.LastRecord
	row := MinuteRow{
		Ts:          time.Now(),
		MatchID:     mc.ID,
		Seq:         mc.Submitted(),
		Minute:      r.Minute,
		Shots:       r.Shots,
		HomeShots:   r.HomeShots,
		AwayShots:   r.AwayShots,
		Attacks:     r.Attacks,
		Corners:     r.Corners,
		GoalsHome:   r.GoalsHome,
		GoalsAway:   r.GoalsAway,
		DeltaHome:   r.DeltaHome,
		DeltaAway:   r.DeltaAway,
		HomeEG:      r.HomeEG,
		AwayEG:      r.AwayEG,
		TotalEG:     r.TotalEG,
		Line:        r.Line,
		Probability: f64Ptr(r.Probability),
		Tier:        string(r.Tier),
	}
	if r.OddAvailable {
		row.FairOdd = f64Ptr(r.FairOdd)
	}
	if r.LiveOdd > 0 {
		row.LiveOdd = f64Ptr(r.LiveOdd)
	}
	if r.Tier != "" {
		row.ValueRatio = f64Ptr(r.ValueRatio)
	}
	return row
}

package match

import (
	"fmt"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/strategy"
)

// Submit folds one minute of events into the state and appends a history
// record. Every check runs before any field is touched, so a rejected
// submission leaves the state exactly as it was.
func (s *State) Submit(in EventInput) (LogRecord, error) {
	return s.SubmitWith(in, strategy.DefaultThresholds())
}

// SubmitWith is Submit with explicit value thresholds for the live odd.
func (s *State) SubmitWith(in EventInput, th strategy.Thresholds) (LogRecord, error) {
	if s == nil || !s.Started {
		return LogRecord{}, ErrNotStarted
	}
	if err := in.validate(); err != nil {
		return LogRecord{}, err
	}
	if err := s.checkMinute(in.Minute); err != nil {
		return LogRecord{}, err
	}
	if in.isEmpty(s.Policy.Signal) {
		return LogRecord{}, ErrEmptySubmission
	}
	if !odds.Finite(in.LiveOdd) || (in.LiveOdd != 0 && in.LiveOdd <= 1.0) {
		return LogRecord{}, fmt.Errorf("live odd %v: %w", in.LiveOdd, ErrInvalidOdds)
	}

	dHome, dAway := s.attribute(in)

	s.HomeEG += dHome
	s.AwayEG += dAway
	s.TotalEG = s.HomeEG + s.AwayEG
	s.HomeGoals += in.GoalsHome
	s.AwayGoals += in.GoalsAway

	switch s.Policy.MinuteAdvance {
	case AdvanceToNext:
		s.Minute = in.Minute + 1
	default:
		s.Minute = in.Minute
	}

	rec := LogRecord{
		EventInput: in,
		DeltaHome:  dHome,
		DeltaAway:  dAway,
		HomeEG:     s.HomeEG,
		AwayEG:     s.AwayEG,
		TotalEG:    s.TotalEG,
		HomeGoals:  s.HomeGoals,
		AwayGoals:  s.AwayGoals,
		NextMinute: s.Minute,
		Line:       s.Policy.Line,
	}

	// ErrNoOddAvailable is the only failure once the state is started; the
	// record keeps OddAvailable=false in that case.
	if proj, err := s.Project(s.Policy.Line); err == nil {
		rec.Probability = proj.Probability
		rec.FairOdd = proj.FairOdd
		rec.OddAvailable = true
	} else {
		rec.Probability = proj.Probability
	}

	if in.LiveOdd != 0 && rec.OddAvailable {
		if v, verr := th.Evaluate(rec.FairOdd, in.LiveOdd); verr == nil {
			rec.ValueRatio = v.Ratio
			rec.Tier = v.Tier
		}
	}

	s.Log = append(s.Log, rec)
	return rec, nil
}

func (s *State) checkMinute(minute int) error {
	switch s.Policy.Sequencing {
	case SequenceExact:
		if minute != s.Minute {
			return fmt.Errorf("got minute %d, expected %d: %w", minute, s.Minute, ErrOutOfOrderMinute)
		}
	default:
		if minute <= s.Minute {
			return fmt.Errorf("got minute %d, must be after %d: %w", minute, s.Minute, ErrOutOfOrderMinute)
		}
	}
	if s.Policy.MatchLength > 0 && minute > s.Policy.MatchLength {
		return fmt.Errorf("minute %d > %d: %w", minute, s.Policy.MatchLength, ErrMatchLengthExceeded)
	}
	return nil
}

// attribute computes the EG credit for each side. Events without a side
// are split by the pre-update shares.
func (s *State) attribute(in EventInput) (dHome, dAway float64) {
	w := s.Policy.Weights
	shareHome, shareAway := s.Shares()

	shared := float64(in.Attacks)*w.Attack + float64(in.Corners)*w.Corner
	switch s.Policy.ShotAttribution {
	case ShotsDirect:
		shared += float64(in.Shots) * w.Shot
		dHome = float64(in.HomeShots) * w.Shot
		dAway = float64(in.AwayShots) * w.Shot
	default:
		shared += float64(in.totalShots()) * w.Shot
	}

	dHome += float64(in.GoalsHome) * w.Goal
	dAway += float64(in.GoalsAway) * w.Goal

	dHome += shared * shareHome
	dAway += shared * shareAway
	return dHome, dAway
}

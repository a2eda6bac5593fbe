package match

import (
	"fmt"
	"sort"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/strategy/overunder"
)

// Sequencing decides which submitted minutes are accepted.
type Sequencing string

const (
	// SequenceStrictGreater accepts any minute after the current one.
	SequenceStrictGreater Sequencing = "strict_greater"
	// SequenceExact accepts only the current minute.
	SequenceExact Sequencing = "exact"
)

// MinuteAdvance decides where the minute pointer lands after a submission.
type MinuteAdvance string

const (
	AdvanceToSubmitted MinuteAdvance = "submitted"
	AdvanceToNext      MinuteAdvance = "next"
)

// ShotAttribution decides how shots on goal are credited.
type ShotAttribution string

const (
	// ShotsPooled splits every shot by the current EG share.
	ShotsPooled ShotAttribution = "pooled"
	// ShotsDirect credits per-side shots to that side. Unattributed shots
	// are still split by share.
	ShotsDirect ShotAttribution = "direct"
)

// SignalRule decides what counts as an empty submission.
type SignalRule string

const (
	SignalNone       SignalRule = "none"
	SignalAny        SignalRule = "any"
	SignalShotOrGoal SignalRule = "shot_or_goal"
)

// Weights are the per-event EG increments.
type Weights struct {
	Shot   float64 `yaml:"shot" json:"shot"`
	Attack float64 `yaml:"attack" json:"attack"`
	Corner float64 `yaml:"corner" json:"corner"`

	// Goal is zero by default: EG tracks attacking tendency and goals
	// neither add to nor drain it unless an operator opts in.
	Goal float64 `yaml:"goal" json:"goal"`
}

// Policy collects every knob that differed between match formats.
type Policy struct {
	Name            string           `yaml:"name" json:"name"`
	Sequencing      Sequencing       `yaml:"sequencing" json:"sequencing"`
	MinuteAdvance   MinuteAdvance    `yaml:"minute_advance" json:"minute_advance"`
	ShotAttribution ShotAttribution  `yaml:"shot_attribution" json:"shot_attribution"`
	Signal          SignalRule       `yaml:"signal" json:"signal"`
	Weights         Weights          `yaml:"weights" json:"weights"`
	MatchLength     int              `yaml:"match_length" json:"match_length"` // 0 = unlimited
	KickoffMinute   int              `yaml:"kickoff_minute" json:"kickoff_minute"`
	Line            float64          `yaml:"line" json:"line"`
	Projection      overunder.Params `yaml:"projection" json:"projection"`
}

// Validate checks enum values and numeric ranges.
func (p Policy) Validate() error {
	switch p.Sequencing {
	case SequenceStrictGreater, SequenceExact:
	default:
		return fmt.Errorf("sequencing %q: %w", p.Sequencing, ErrInvalidPolicy)
	}
	switch p.MinuteAdvance {
	case AdvanceToSubmitted, AdvanceToNext:
	default:
		return fmt.Errorf("minute_advance %q: %w", p.MinuteAdvance, ErrInvalidPolicy)
	}
	switch p.ShotAttribution {
	case ShotsPooled, ShotsDirect:
	default:
		return fmt.Errorf("shot_attribution %q: %w", p.ShotAttribution, ErrInvalidPolicy)
	}
	switch p.Signal {
	case SignalNone, SignalAny, SignalShotOrGoal:
	default:
		return fmt.Errorf("signal %q: %w", p.Signal, ErrInvalidPolicy)
	}
	w := p.Weights
	pp := p.Projection
	if !odds.Finite(w.Shot, w.Attack, w.Corner, w.Goal, p.Line, pp.Slope, pp.ProbFloor, pp.ProbCeil) {
		return fmt.Errorf("weights, line and projection params must be finite: %w", ErrInvalidPolicy)
	}
	if w.Shot < 0 || w.Attack < 0 || w.Corner < 0 || w.Goal < 0 {
		return fmt.Errorf("weights must be non-negative: %w", ErrInvalidPolicy)
	}
	if p.MatchLength < 0 || p.KickoffMinute < 0 {
		return fmt.Errorf("match_length and kickoff_minute must be non-negative: %w", ErrInvalidPolicy)
	}
	if p.MatchLength > 0 && p.KickoffMinute > p.MatchLength {
		return fmt.Errorf("kickoff_minute %d beyond match_length %d: %w", p.KickoffMinute, p.MatchLength, ErrInvalidPolicy)
	}
	if p.Line <= 0 {
		return fmt.Errorf("line %.2f: %w", p.Line, ErrInvalidPolicy)
	}
	if pp.Slope <= 0 {
		return fmt.Errorf("projection slope %.2f: %w", pp.Slope, ErrInvalidPolicy)
	}
	if pp.ProbFloor < 0 || pp.ProbCeil > 1 || pp.ProbFloor > pp.ProbCeil {
		return fmt.Errorf("probability band [%.2f, %.2f]: %w", pp.ProbFloor, pp.ProbCeil, ErrInvalidPolicy)
	}
	if pp.Cutoff < 0 {
		return fmt.Errorf("projection cutoff %d: %w", pp.Cutoff, ErrInvalidPolicy)
	}
	return nil
}

// Classic is the single-form calculator: any later minute, pooled shots,
// a shot or goal required per submission.
func Classic() Policy {
	return Policy{
		Name:            "classic",
		Sequencing:      SequenceStrictGreater,
		MinuteAdvance:   AdvanceToSubmitted,
		ShotAttribution: ShotsPooled,
		Signal:          SignalShotOrGoal,
		Weights:         Weights{Shot: 0.15, Attack: 0.05, Corner: 0.02},
		MatchLength:     90,
		KickoffMinute:   1,
		Line:            overunder.DefaultLine,
		Projection:      overunder.DefaultParams(),
	}
}

// Sequential walks the match minute by minute with per-side shots.
func Sequential() Policy {
	return Policy{
		Name:            "sequential",
		Sequencing:      SequenceExact,
		MinuteAdvance:   AdvanceToNext,
		ShotAttribution: ShotsDirect,
		Signal:          SignalAny,
		Weights:         Weights{Shot: 0.15, Attack: 0.025, Corner: 0.02},
		MatchLength:     90,
		KickoffMinute:   1,
		Line:            overunder.DefaultLine,
		Projection:      overunder.DefaultParams(),
	}
}

// Sprint is the shortened 11 minute virtual format. It is still projected
// against a 90 minute reference, so the remaining factor snaps to zero at
// the cutoff.
func Sprint() Policy {
	return Policy{
		Name:            "sprint",
		Sequencing:      SequenceExact,
		MinuteAdvance:   AdvanceToNext,
		ShotAttribution: ShotsDirect,
		Signal:          SignalAny,
		Weights:         Weights{Shot: 0.15, Attack: 0.0125, Corner: 0.02},
		MatchLength:     11,
		KickoffMinute:   1,
		Line:            overunder.DefaultLine,
		Projection: overunder.Params{
			Cutoff:    11,
			Slope:     1.5,
			ProbFloor: 0.01,
			ProbCeil:  0.99,
		},
	}
}

// Presets maps preset name -> policy.
type Presets map[string]Policy

// DefaultPresets returns the built-in policies.
func DefaultPresets() Presets {
	return Presets{
		"classic":    Classic(),
		"sequential": Sequential(),
		"sprint":     Sprint(),
	}
}

// Get looks up a preset by name. An empty name resolves to classic.
func (ps Presets) Get(name string) (Policy, bool) {
	if name == "" {
		name = "classic"
	}
	p, ok := ps[name]
	return p, ok
}

// Names returns preset names in sorted order.
func (ps Presets) Names() []string {
	out := make([]string, 0, len(ps))
	for n := range ps {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

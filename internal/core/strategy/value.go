package strategy

import (
	"fmt"

	"github.com/charleschow/fairodds/internal/core/odds"
)

// Tier classifies how much a live odd beats the model's fair odd.
type Tier string

const (
	TierStrong   Tier = "strong_value"
	TierMarginal Tier = "marginal_value"
	TierNone     Tier = "no_value"
)

// Label returns a human-readable tier name.
func (t Tier) Label() string {
	switch t {
	case TierStrong:
		return "strong value"
	case TierMarginal:
		return "marginal value"
	default:
		return "no value"
	}
}

// ErrInvalidOdds is shared with the odds package so callers match one sentinel.
var ErrInvalidOdds = odds.ErrInvalidOdds

// Thresholds are exclusive lower bounds on the value ratio.
type Thresholds struct {
	Strong   float64 `yaml:"strong" json:"strong"`
	Marginal float64 `yaml:"marginal" json:"marginal"`
}

func DefaultThresholds() Thresholds {
	return Thresholds{Strong: 1.05, Marginal: 1.01}
}

// Verdict is the result of comparing a live odd against a fair odd.
type Verdict struct {
	LiveOdd float64 `json:"live_odd"`
	FairOdd float64 `json:"fair_odd"`
	Ratio   float64 `json:"ratio"`
	EdgePct float64 `json:"edge_pct"` // (ratio - 1) * 100
	Tier    Tier    `json:"tier"`
}

// EvaluateValue classifies liveOdd/fairOdd with the default thresholds.
func EvaluateValue(fairOdd, liveOdd float64) (Verdict, error) {
	return DefaultThresholds().Evaluate(fairOdd, liveOdd)
}

// Evaluate classifies liveOdd/fairOdd. First matching tier wins.
func (th Thresholds) Evaluate(fairOdd, liveOdd float64) (Verdict, error) {
	if !odds.Finite(liveOdd, fairOdd) {
		return Verdict{}, fmt.Errorf("live %v / fair %v: %w", liveOdd, fairOdd, ErrInvalidOdds)
	}
	if liveOdd <= 1.0 {
		return Verdict{}, fmt.Errorf("live odd %.2f: %w", liveOdd, ErrInvalidOdds)
	}
	if fairOdd <= 0 {
		return Verdict{}, fmt.Errorf("fair odd %.2f: %w", fairOdd, ErrInvalidOdds)
	}

	ratio := liveOdd / fairOdd
	v := Verdict{
		LiveOdd: liveOdd,
		FairOdd: fairOdd,
		Ratio:   ratio,
		EdgePct: (ratio - 1) * 100,
	}
	switch {
	case ratio > th.Strong:
		v.Tier = TierStrong
	case ratio > th.Marginal:
		v.Tier = TierMarginal
	default:
		v.Tier = TierNone
	}
	return v, nil
}

// HasValue is true for any tier above TierNone.
func (v Verdict) HasValue() bool { return v.Tier != TierNone && v.Tier != "" }

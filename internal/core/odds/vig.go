package odds

import (
	"errors"
	"fmt"
	"math"
)

// Margin band outside which a 1X2 book is considered unusually priced.
const (
	MarginSumLow  = 0.9
	MarginSumHigh = 1.1
)

var (
	ErrInvalidOdds     = errors.New("odds must be greater than 1.0")
	ErrZeroProbability = errors.New("implied probabilities sum to zero")
)

// MarketOdds holds pre-match decimal 1X2 odds for one match.
type MarketOdds struct {
	Home float64 `json:"home" yaml:"home"`
	Draw float64 `json:"draw" yaml:"draw"`
	Away float64 `json:"away" yaml:"away"`
}

// Finite reports whether every value is a real number (not NaN or ±Inf).
func Finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Validate rejects any odd at or below 1.0, and any non-finite odd.
func (m MarketOdds) Validate() error {
	switch {
	case !Finite(m.Home, m.Draw, m.Away):
		return fmt.Errorf("odds %v/%v/%v: %w", m.Home, m.Draw, m.Away, ErrInvalidOdds)
	case m.Home <= 1.0:
		return fmt.Errorf("home odd %.2f: %w", m.Home, ErrInvalidOdds)
	case m.Draw <= 1.0:
		return fmt.Errorf("draw odd %.2f: %w", m.Draw, ErrInvalidOdds)
	case m.Away <= 1.0:
		return fmt.Errorf("away odd %.2f: %w", m.Away, ErrInvalidOdds)
	}
	return nil
}

// Implied returns the raw (margin-inclusive) implied probabilities.
func (m MarketOdds) Implied() (home, draw, away float64) {
	return ImpliedProbability(m.Home), ImpliedProbability(m.Draw), ImpliedProbability(m.Away)
}

// Normalized holds vig-free 1X2 shares.
type Normalized struct {
	Home          float64
	Draw          float64
	Away          float64
	Sum           float64 // raw implied sum before normalization
	MarginWarning bool    // Sum outside [MarginSumLow, MarginSumHigh]
}

// ImpliedProbability converts a decimal odd to its implied probability.
// Odds at or below 1.0 carry no information and return 0.
func ImpliedProbability(odd float64) float64 {
	if odd <= 1.0 {
		return 0
	}
	return 1.0 / odd
}

// NormalizeThreeWay strips the bookmaker's overround from implied 1X2
// probabilities. The margin warning is advisory; normalization always
// proceeds while the sum is positive.
func NormalizeThreeWay(pHome, pDraw, pAway float64) (Normalized, error) {
	total := pHome + pDraw + pAway
	if total <= 0 {
		return Normalized{}, ErrZeroProbability
	}
	return Normalized{
		Home:          pHome / total,
		Draw:          pDraw / total,
		Away:          pAway / total,
		Sum:           total,
		MarginWarning: total < MarginSumLow || total > MarginSumHigh,
	}, nil
}

// RemoveVig3 converts three-way decimal odds to fair probabilities.
func RemoveVig3(m MarketOdds) (Normalized, error) {
	if err := m.Validate(); err != nil {
		return Normalized{}, err
	}
	h, d, a := m.Implied()
	return NormalizeThreeWay(h, d, a)
}

// Overround returns how far the implied sum exceeds 1.0 (negative for an underround book).
func Overround(pHome, pDraw, pAway float64) float64 {
	return pHome + pDraw + pAway - 1.0
}

// BaseExpectedGoals maps a normalized win probability to a pre-match
// expected-goals seed. A 50% side (fair odd 2.0) is anchored at 1.0.
func BaseExpectedGoals(pWin float64) float64 {
	return 2.0 * pWin
}

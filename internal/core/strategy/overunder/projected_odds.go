package overunder

import (
	"errors"
	"math"

	"github.com/charleschow/fairodds/internal/core/odds"
)

// ReferenceLength is the full-match length every projection decays
// against, even for shortened simulated formats.
const ReferenceLength = 90.0

// DefaultLine is the goal line analysed when the caller does not pick one.
const DefaultLine = 2.5

var (
	ErrNoOddAvailable = errors.New("no fair odd available")
	ErrInvalidInput   = errors.New("projection input is not a finite number")
)

// Params controls the logistic projection.
type Params struct {
	// Cutoff is the minute at which the remaining factor snaps to zero.
	// Zero disables the cutoff and lets the factor decay to zero at 90.
	Cutoff    int     `yaml:"cutoff" json:"cutoff"`
	Slope     float64 `yaml:"slope" json:"slope"`
	ProbFloor float64 `yaml:"prob_floor" json:"prob_floor"`
	ProbCeil  float64 `yaml:"prob_ceil" json:"prob_ceil"`
}

// DefaultParams matches the full-length 90 minute format.
func DefaultParams() Params {
	return Params{
		Cutoff:    90,
		Slope:     1.5,
		ProbFloor: 0.05,
		ProbCeil:  0.95,
	}
}

// Projection is the result of one fair-odd query.
type Projection struct {
	Line            float64 `json:"line"`
	Minute          int     `json:"minute"`
	RemainingFactor float64 `json:"remaining_factor"`
	AdjustedEG      float64 `json:"adjusted_eg"`
	RawProbability  float64 `json:"raw_probability"`
	Probability     float64 `json:"probability"`
	FairOdd         float64 `json:"fair_odd"`
}

// UnderFairOdd returns the fair odd of the complementary under outcome.
func (p Projection) UnderFairOdd() float64 {
	if p.Probability >= 1 {
		return 0
	}
	return 1.0 / (1.0 - p.Probability)
}

// RemainingFactor returns the share of the reference match still to play.
// Kickoff (minute 0) never decays.
func RemainingFactor(minute int, p Params) float64 {
	if minute == 0 {
		return 1.0
	}
	if p.Cutoff > 0 && minute >= p.Cutoff {
		return 0.0
	}
	return clamp((ReferenceLength-float64(minute))/ReferenceLength, 0, 1)
}

// OverProbability maps time-adjusted EG to P(total > line) through a
// logistic centred on the line. Unclamped.
func OverProbability(adjustedEG, line, slope float64) float64 {
	return 1.0 / (1.0 + math.Exp(-(adjustedEG-line)*slope))
}

// ProjectFairOdd projects accumulated EG onto the over side of line.
// Pure: identical inputs always yield identical output.
func ProjectFairOdd(totalEG float64, minute int, line float64, p Params) (Projection, error) {
	if !odds.Finite(totalEG, line, p.Slope, p.ProbFloor, p.ProbCeil) {
		return Projection{Line: line, Minute: minute}, ErrInvalidInput
	}
	factor := RemainingFactor(minute, p)
	adjusted := totalEG * factor

	raw := OverProbability(adjusted, line, p.Slope)
	prob := clamp(raw, p.ProbFloor, p.ProbCeil)

	proj := Projection{
		Line:            line,
		Minute:          minute,
		RemainingFactor: factor,
		AdjustedEG:      adjusted,
		RawProbability:  raw,
		Probability:     prob,
	}

	if math.Round(prob*10000) == 0 {
		return proj, ErrNoOddAvailable
	}
	proj.FairOdd = 1.0 / prob
	return proj, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

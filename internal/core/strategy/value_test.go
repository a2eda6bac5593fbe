package strategy

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluateValue(t *testing.T) {
	tests := []struct {
		name      string
		liveOdd   float64
		fairOdd   float64
		wantRatio float64
		wantTier  Tier
	}{
		{"strong", 2.0, 1.9, 1.0526, TierStrong},
		{"marginal", 2.0, 1.98, 1.0101, TierMarginal},
		{"none", 2.0, 2.05, 0.9756, TierNone},
		{"exactly fair", 2.0, 2.0, 1.0, TierNone},
		{"long odds strong", 15.0, 11.93, 1.2573, TierStrong},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := EvaluateValue(tt.fairOdd, tt.liveOdd)
			require.NoError(t, err)
			assert.InDelta(t, tt.wantRatio, v.Ratio, 1e-4)
			assert.Equal(t, tt.wantTier, v.Tier)
			assert.InDelta(t, (v.Ratio-1)*100, v.EdgePct, 1e-12)
		})
	}
}

func TestEvaluateValueBoundariesAreExclusive(t *testing.T) {
	th := Thresholds{Strong: 1.05, Marginal: 1.01}

	v, err := th.Evaluate(1.0, 1.05)
	require.NoError(t, err)
	assert.Equal(t, TierMarginal, v.Tier, "ratio equal to strong bound is not strong")

	v, err = th.Evaluate(2.0, 2.02)
	require.NoError(t, err)
	assert.Equal(t, TierNone, v.Tier, "ratio equal to marginal bound is not marginal")
	assert.False(t, v.HasValue())
}

func TestEvaluateValueRejectsBadOdds(t *testing.T) {
	_, err := EvaluateValue(2.0, 1.0)
	assert.ErrorIs(t, err, ErrInvalidOdds)

	_, err = EvaluateValue(0, 2.0)
	assert.ErrorIs(t, err, ErrInvalidOdds)

	for _, bad := range []float64{math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err = EvaluateValue(2.0, bad)
		assert.ErrorIs(t, err, ErrInvalidOdds, "live %v", bad)
		_, err = EvaluateValue(bad, 2.0)
		assert.ErrorIs(t, err, ErrInvalidOdds, "fair %v", bad)
	}
}

func TestTierLabel(t *testing.T) {
	assert.Equal(t, "strong value", TierStrong.Label())
	assert.Equal(t, "marginal value", TierMarginal.Label())
	assert.Equal(t, "no value", TierNone.Label())
}

package odds

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestImpliedProbability(t *testing.T) {
	tests := []struct {
		name string
		odd  float64
		want float64
	}{
		{"even money", 2.0, 0.5},
		{"favourite", 1.25, 0.8},
		{"longshot", 10.0, 0.1},
		{"exactly one", 1.0, 0},
		{"below one", 0.5, 0},
		{"negative", -3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, ImpliedProbability(tt.odd), 1e-12)
		})
	}
}

func TestImpliedProbabilityIsReciprocal(t *testing.T) {
	for _, o := range []float64{1.01, 1.5, 2.2, 3.2, 7.77, 101} {
		assert.Equal(t, 1/o, ImpliedProbability(o), "odd %.2f", o)
	}
}

func TestNormalizeThreeWayScenario(t *testing.T) {
	m := MarketOdds{Home: 2.20, Draw: 3.20, Away: 3.20}
	h, d, a := m.Implied()
	assert.InDelta(t, 0.4545, h, 1e-4)
	assert.InDelta(t, 0.3125, d, 1e-4)
	assert.InDelta(t, 0.3125, a, 1e-4)

	n, err := NormalizeThreeWay(h, d, a)
	require.NoError(t, err)
	assert.InDelta(t, 1.0795, n.Sum, 1e-4)
	assert.InDelta(t, 0.4210, n.Home, 1e-4)
	assert.InDelta(t, 0.2895, n.Away, 1e-4)
	assert.False(t, n.MarginWarning)
	assert.InDelta(t, 1.0, n.Home+n.Draw+n.Away, 1e-12)
	assert.LessOrEqual(t, n.Home+n.Away, 1.0)

	assert.InDelta(t, 0.8420, BaseExpectedGoals(n.Home), 1e-3)
	assert.InDelta(t, 0.5790, BaseExpectedGoals(n.Away), 1e-3)
}

func TestNormalizeThreeWayMarginWarning(t *testing.T) {
	tests := []struct {
		name     string
		odds     MarketOdds
		wantWarn bool
	}{
		{"fair book", MarketOdds{3, 3, 3}, false},
		{"heavy margin", MarketOdds{1.6, 2.5, 2.5}, true},
		{"underround", MarketOdds{4, 4, 4}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := RemoveVig3(tt.odds)
			require.NoError(t, err)
			assert.Equal(t, tt.wantWarn, n.MarginWarning)
			assert.InDelta(t, 1.0, n.Home+n.Draw+n.Away, 1e-9)
		})
	}
}

func TestNormalizeThreeWayZeroSum(t *testing.T) {
	_, err := NormalizeThreeWay(0, 0, 0)
	assert.ErrorIs(t, err, ErrZeroProbability)
}

func TestMarketOddsValidate(t *testing.T) {
	assert.NoError(t, MarketOdds{1.01, 1.01, 1.01}.Validate())
	for _, m := range []MarketOdds{{1.0, 3, 3}, {2, 0.9, 3}, {2, 3, 1}, {math.NaN(), 3, 3}, {2, math.Inf(1), 3}} {
		assert.ErrorIs(t, m.Validate(), ErrInvalidOdds)
	}
	_, err := RemoveVig3(MarketOdds{1.0, 3, 3})
	assert.ErrorIs(t, err, ErrInvalidOdds)
}

func TestFinite(t *testing.T) {
	assert.True(t, Finite())
	assert.True(t, Finite(0, -1.5, 2.2))
	assert.False(t, Finite(1, math.NaN()))
	assert.False(t, Finite(math.Inf(-1)))
}

func TestOverround(t *testing.T) {
	assert.InDelta(t, 0.0795, Overround(1/2.2, 1/3.2, 1/3.2), 1e-4)
	assert.InDelta(t, 0, Overround(0.5, 0.25, 0.25), 1e-12)
}

package match

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPresets_Valid(t *testing.T) {
	ps := DefaultPresets()
	assert.Equal(t, []string{"classic", "sequential", "sprint"}, ps.Names())
	for _, name := range ps.Names() {
		p, ok := ps.Get(name)
		assert.True(t, ok)
		assert.NoError(t, p.Validate(), name)
		assert.Equal(t, name, p.Name)
	}

	p, ok := ps.Get("")
	assert.True(t, ok)
	assert.Equal(t, "classic", p.Name)

	_, ok = ps.Get("turbo")
	assert.False(t, ok)
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(p *Policy)
	}{
		{"bad sequencing", func(p *Policy) { p.Sequencing = "sometimes" }},
		{"bad advance", func(p *Policy) { p.MinuteAdvance = "" }},
		{"bad attribution", func(p *Policy) { p.ShotAttribution = "random" }},
		{"bad signal", func(p *Policy) { p.Signal = "loud" }},
		{"negative weight", func(p *Policy) { p.Weights.Corner = -0.01 }},
		{"negative length", func(p *Policy) { p.MatchLength = -1 }},
		{"kickoff past length", func(p *Policy) { p.KickoffMinute = 95 }},
		{"zero line", func(p *Policy) { p.Line = 0 }},
		{"nan line", func(p *Policy) { p.Line = math.NaN() }},
		{"infinite line", func(p *Policy) { p.Line = math.Inf(1) }},
		{"nan weight", func(p *Policy) { p.Weights.Shot = math.NaN() }},
		{"nan slope", func(p *Policy) { p.Projection.Slope = math.NaN() }},
		{"nan floor", func(p *Policy) { p.Projection.ProbFloor = math.NaN() }},
		{"zero slope", func(p *Policy) { p.Projection.Slope = 0 }},
		{"inverted band", func(p *Policy) { p.Projection.ProbFloor, p.Projection.ProbCeil = 0.9, 0.1 }},
		{"ceil above one", func(p *Policy) { p.Projection.ProbCeil = 1.2 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Classic()
			tt.mutate(&p)
			assert.ErrorIs(t, p.Validate(), ErrInvalidPolicy)
		})
	}
}

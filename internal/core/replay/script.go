package replay

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/match"
)

var ErrUnknownPreset = errors.New("unknown policy preset")

// Script is a complete recorded match: pre-match odds plus minute rows.
type Script struct {
	Name   string             `yaml:"name"`
	Home   string             `yaml:"home"`
	Away   string             `yaml:"away"`
	Preset string             `yaml:"preset"`
	Line   float64            `yaml:"line"`
	Odds   odds.MarketOdds    `yaml:"odds"`
	Rows   []match.EventInput `yaml:"rows"`
}

func LoadScript(path string) (Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Script{}, fmt.Errorf("read script: %w", err)
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (Script, error) {
	var sc Script
	if err := yaml.Unmarshal(data, &sc); err != nil {
		return Script{}, fmt.Errorf("parse script: %w", err)
	}
	return sc, nil
}

// Policy resolves the script's preset, applying its line override.
func (sc Script) Policy(presets match.Presets) (match.Policy, error) {
	p, ok := presets.Get(sc.Preset)
	if !ok {
		return match.Policy{}, fmt.Errorf("%q: %w", sc.Preset, ErrUnknownPreset)
	}
	if sc.Line > 0 {
		p.Line = sc.Line
	}
	return p, nil
}

// Play starts a fresh match from the script and replays its rows.
func (sc Script) Play(presets match.Presets) (*match.State, Result, error) {
	p, err := sc.Policy(presets)
	if err != nil {
		return nil, Result{}, err
	}
	s, err := match.StartMatch(sc.Odds, p)
	if err != nil {
		return nil, Result{}, err
	}
	res, err := Run(s, sc.Rows)
	return s, res, err
}

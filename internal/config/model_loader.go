package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/charleschow/fairodds/internal/core/odds"
	"github.com/charleschow/fairodds/internal/core/state/match"
	"github.com/charleschow/fairodds/internal/core/strategy"
)

// Model is the tunable part of the calculator, loaded from YAML.
type Model struct {
	DefaultPreset string
	Presets       match.Presets
	Thresholds    strategy.Thresholds
	Aliases       map[string]string
}

type modelFile struct {
	DefaultPreset string               `yaml:"default_preset"`
	Thresholds    *strategy.Thresholds `yaml:"thresholds"`
	Aliases       map[string]string    `yaml:"aliases"`
	Presets       map[string]yaml.Node `yaml:"presets"`
}

// presetHeader names the built-in policy a preset entry starts from.
type presetHeader struct {
	Base string `yaml:"base"`
}

func DefaultModel() Model {
	return Model{
		DefaultPreset: "classic",
		Presets:       match.DefaultPresets(),
		Thresholds:    strategy.DefaultThresholds(),
	}
}

func LoadModel(path string) (Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Model{}, fmt.Errorf("read model: %w", err)
	}
	return ParseModel(data)
}

// ParseModel overlays the YAML document on the built-in presets. A preset
// entry only lists the fields it changes; it starts from the preset named
// by `base`, or the built-in of the same name, or classic.
func ParseModel(data []byte) (Model, error) {
	var mf modelFile
	if err := yaml.Unmarshal(data, &mf); err != nil {
		return Model{}, fmt.Errorf("parse model: %w", err)
	}

	m := DefaultModel()
	builtins := match.DefaultPresets()
	for name, node := range mf.Presets {
		var hdr presetHeader
		if err := node.Decode(&hdr); err != nil {
			return Model{}, fmt.Errorf("preset %s: %w", name, err)
		}
		base := hdr.Base
		if base == "" {
			base = name
		}
		p, ok := builtins[base]
		if !ok {
			if hdr.Base != "" {
				return Model{}, fmt.Errorf("preset %s: unknown base %q", name, hdr.Base)
			}
			p = builtins["classic"]
		}
		if err := node.Decode(&p); err != nil {
			return Model{}, fmt.Errorf("preset %s: %w", name, err)
		}
		p.Name = name
		if err := p.Validate(); err != nil {
			return Model{}, fmt.Errorf("preset %s: %w", name, err)
		}
		m.Presets[name] = p
	}

	if mf.Thresholds != nil {
		if !odds.Finite(mf.Thresholds.Strong, mf.Thresholds.Marginal) || mf.Thresholds.Marginal <= 0 || mf.Thresholds.Strong < mf.Thresholds.Marginal {
			return Model{}, fmt.Errorf("thresholds: strong %.4f must be >= marginal %.4f > 0",
				mf.Thresholds.Strong, mf.Thresholds.Marginal)
		}
		m.Thresholds = *mf.Thresholds
	}
	if mf.DefaultPreset != "" {
		if _, ok := m.Presets[mf.DefaultPreset]; !ok {
			return Model{}, fmt.Errorf("default_preset %q not defined", mf.DefaultPreset)
		}
		m.DefaultPreset = mf.DefaultPreset
	}
	m.Aliases = mf.Aliases
	return m, nil
}

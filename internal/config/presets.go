package config

import "sort"

var Presets = map[string]func() *Config{
	"original": DefaultConfig,
	"quick": func() *Config {
		cfg := DefaultConfig()
		cfg.Budget = 10
		cfg.Experiments[2].Neurons = 100
		return cfg
	},
	"sine-only": func() *Config {
		cfg := DefaultConfig()
		cfg.Experiments = []ExperimentConfig{{Policy: PolicySine}}
		return cfg
	},
	"noise-sweep": func() *Config {
		cfg := DefaultConfig()
		cfg.Experiments = []ExperimentConfig{
			{Policy: PolicySine},
			{Policy: PolicyNoisySine, NoiseStd: 0.1},
			{Policy: PolicyNoisySine, NoiseStd: 0.3},
			{Policy: PolicyNoisySine, NoiseStd: 0.6},
			{Policy: PolicyNoisySine, NoiseStd: 1.0},
		}
		return cfg
	},
	"open-loop-lif": func() *Config {
		cfg := DefaultConfig()
		cfg.Experiments = []ExperimentConfig{
			{Policy: PolicySine},
			{Policy: PolicyLIF, Neurons: DefaultNeurons, NoiseStd: DefaultNoiseStd},
			{Policy: PolicyLIF, Neurons: DefaultNeurons, NoiseStd: DefaultNoiseStd, ClosedLoop: true},
		}
		return cfg
	},
}

func GetPreset(name string) *Config {
	fn, ok := Presets[name]
	if !ok {
		return nil
	}
	return fn()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

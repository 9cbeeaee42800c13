package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

const (
	DefaultFrequency  = 0.9
	DefaultBudget     = 62.0
	DefaultDt         = 0.001
	DefaultSettleTime = 2.0
	DefaultNoiseStd   = 0.3
	DefaultNeurons    = 200
	DefaultDataDir    = ".gaitbench"
)

// Policy tags understood by the experiment registry.
const (
	PolicySine      = "sine"
	PolicyNoisySine = "noisy_sine"
	PolicyLIF       = "lif"
)

var ErrInvalid = errors.New("config: invalid")

type Config struct {
	Frequency    float64            `yaml:"frequency" toml:"frequency"`
	Budget       float64            `yaml:"budget" toml:"budget"`
	Dt           float64            `yaml:"dt" toml:"dt"`
	SettleTime   float64            `yaml:"settle_time" toml:"settle_time"`
	Integrator   string             `yaml:"integrator" toml:"integrator"`
	Seed         uint64             `yaml:"seed" toml:"seed"`
	SaveCSV      bool               `yaml:"save_csv" toml:"save_csv"`
	DisplayGraph bool               `yaml:"display_graph" toml:"display_graph"`
	Preview      bool               `yaml:"preview" toml:"preview"`
	OutputDir    string             `yaml:"output_dir" toml:"output_dir"`
	ChartFile    string             `yaml:"chart_file" toml:"chart_file"`
	Store        bool               `yaml:"store" toml:"store"`
	DataDir      string             `yaml:"data_dir" toml:"data_dir"`
	LogLevel     string             `yaml:"log_level" toml:"log_level"`
	Experiments  []ExperimentConfig `yaml:"experiments" toml:"experiments"`
}

type ExperimentConfig struct {
	Label        string  `yaml:"label" toml:"label"`
	Policy       string  `yaml:"policy" toml:"policy"`
	NoiseStd     float64 `yaml:"noise_std" toml:"noise_std"`
	Seed         uint64  `yaml:"seed" toml:"seed"`
	Neurons      int     `yaml:"neurons" toml:"neurons"`
	ClosedLoop   bool    `yaml:"closed_loop" toml:"closed_loop"`
	FeedbackGain float64 `yaml:"feedback_gain" toml:"feedback_gain"`
	Disabled     bool    `yaml:"disabled" toml:"disabled"`
}

func DefaultConfig() *Config {
	return &Config{
		Frequency:    DefaultFrequency,
		Budget:       DefaultBudget,
		Dt:           DefaultDt,
		SettleTime:   DefaultSettleTime,
		Integrator:   "rk4",
		DisplayGraph: true,
		Preview:      true,
		OutputDir:    ".",
		Store:        true,
		DataDir:      DefaultDataDir,
		LogLevel:     "info",
		Experiments: []ExperimentConfig{
			{Policy: PolicySine},
			{Policy: PolicyNoisySine, NoiseStd: DefaultNoiseStd},
			{Policy: PolicyLIF, NoiseStd: DefaultNoiseStd, Neurons: DefaultNeurons, ClosedLoop: true},
		},
	}
}

// Load reads a config file over the defaults. Files ending in .toml are
// decoded as TOML, everything else as YAML.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	// An experiments list in the file replaces the defaults wholesale.
	defaults := cfg.Experiments
	cfg.Experiments = nil

	if isTOML(path) {
		_, err = toml.Decode(string(data), cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	if cfg.Experiments == nil {
		cfg.Experiments = defaults
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		defer f.Close()
		return toml.NewEncoder(f).Encode(cfg)
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Enabled returns the experiments that are not disabled, in order.
func (c *Config) Enabled() []ExperimentConfig {
	out := make([]ExperimentConfig, 0, len(c.Experiments))
	for _, e := range c.Experiments {
		if !e.Disabled {
			out = append(out, e)
		}
	}
	return out
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if !(c.Budget > 0) {
		return fmt.Errorf("%w: budget must be positive, got %g", ErrInvalid, c.Budget)
	}
	if !(c.Frequency > 0) {
		return fmt.Errorf("%w: frequency must be positive, got %g", ErrInvalid, c.Frequency)
	}
	if c.SettleTime < 0 {
		return fmt.Errorf("%w: settle_time must not be negative", ErrInvalid)
	}
	if len(c.Enabled()) == 0 {
		return fmt.Errorf("%w: no experiments enabled", ErrInvalid)
	}
	for i, e := range c.Experiments {
		switch e.Policy {
		case PolicySine, PolicyNoisySine, PolicyLIF:
		default:
			return fmt.Errorf("%w: experiment %d: unknown policy %q", ErrInvalid, i, e.Policy)
		}
		if e.NoiseStd < 0 {
			return fmt.Errorf("%w: experiment %d: noise_std must not be negative", ErrInvalid, i)
		}
	}
	return nil
}

// SetNoise overrides the noise level of every noisy experiment.
func (c *Config) SetNoise(std float64) {
	for i := range c.Experiments {
		if c.Experiments[i].Policy != PolicySine {
			c.Experiments[i].NoiseStd = std
		}
	}
}

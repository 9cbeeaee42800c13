package experiment

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/san-kum/gaitbench/internal/config"
	"github.com/san-kum/gaitbench/internal/neural"
	"github.com/san-kum/gaitbench/internal/signal"
)

// Env carries the run-wide settings a factory may need.
type Env struct {
	Frequency float64
	Seed      uint64
}

// Factory builds the policy for one configured experiment.
type Factory func(env Env, index int, exp config.ExperimentConfig) (Policy, error)

type Registry struct {
	factories map[string]Factory
	labels    map[string]func(exp config.ExperimentConfig) string
}

func NewRegistry() *Registry {
	r := &Registry{
		factories: make(map[string]Factory),
		labels:    make(map[string]func(config.ExperimentConfig) string),
	}

	r.Register(config.PolicySine,
		func(env Env, _ int, _ config.ExperimentConfig) (Policy, error) {
			return NewStepPolicy(config.PolicySine, signal.NewSinusoid(env.Frequency)), nil
		},
		func(config.ExperimentConfig) string { return "Pure Sinusoid" })

	r.Register(config.PolicyNoisySine,
		func(env Env, index int, exp config.ExperimentConfig) (Policy, error) {
			sampler := signal.NewGaussian(exp.NoiseStd, seedFor(env, index, exp))
			return NewStepPolicy(config.PolicyNoisySine, signal.NewNoisySinusoid(env.Frequency, sampler)), nil
		},
		func(exp config.ExperimentConfig) string { return "Noisy Sinusoid (" + formatNoise(exp.NoiseStd) + ")" })

	r.Register(config.PolicyLIF,
		func(env Env, index int, exp config.ExperimentConfig) (Policy, error) {
			cfg := neural.DefaultOscillatorConfig()
			cfg.Weight = env.Frequency
			cfg.NoiseStd = exp.NoiseStd
			cfg.ClosedLoop = exp.ClosedLoop
			if exp.FeedbackGain != 0 {
				cfg.FeedbackGain = exp.FeedbackGain
			}
			if exp.Neurons > 0 {
				cfg.Ensemble.Neurons = exp.Neurons
			}
			seed := seedFor(env, index, exp)
			cfg.Ensemble.Seed = seed

			osc, err := neural.NewOscillator(cfg, signal.NewGaussian(exp.NoiseStd, seed+1))
			if err != nil {
				return nil, err
			}
			model := ModelFunc(func(sim Simulator, budget, dt float64) error {
				return osc.Run(sim, budget, dt)
			})
			return NewModelPolicy(config.PolicyLIF, model), nil
		},
		func(exp config.ExperimentConfig) string { return "Nengo LIF (" + formatNoise(exp.NoiseStd) + ")" })

	return r
}

// Register adds or replaces the factory for a policy tag.
func (r *Registry) Register(tag string, fn Factory, label func(config.ExperimentConfig) string) {
	r.factories[tag] = fn
	if label != nil {
		r.labels[tag] = label
	}
}

func (r *Registry) Build(env Env, index int, exp config.ExperimentConfig) (Spec, error) {
	fn, ok := r.factories[exp.Policy]
	if !ok {
		return Spec{}, fmt.Errorf("%w: unknown policy: %s", ErrConfig, exp.Policy)
	}
	policy, err := fn(env, index, exp)
	if err != nil {
		return Spec{}, fmt.Errorf("%w: experiment %d: %v", ErrConfig, index, err)
	}
	label := exp.Label
	if label == "" {
		if lf, ok := r.labels[exp.Policy]; ok {
			label = lf(exp)
		} else {
			label = exp.Policy
		}
	}
	return Spec{Label: label, Policy: policy}, nil
}

// BuildAll builds every enabled experiment of cfg in order. Disabled
// entries are skipped and do not take an index.
func (r *Registry) BuildAll(cfg *config.Config) ([]Spec, error) {
	env := Env{Frequency: cfg.Frequency, Seed: cfg.Seed}
	enabled := cfg.Enabled()
	specs := make([]Spec, 0, len(enabled))
	for i, exp := range enabled {
		spec, err := r.Build(env, i, exp)
		if err != nil {
			return nil, err
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func seedFor(env Env, index int, exp config.ExperimentConfig) uint64 {
	if exp.Seed != 0 {
		return exp.Seed
	}
	return env.Seed + uint64(index)
}

func formatNoise(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

package neural

import (
	"fmt"
	"math"

	"github.com/san-kum/gaitbench/internal/dynamo"
	"github.com/san-kum/gaitbench/internal/signal"
)

// Plant is the stepped simulator the oscillator drives.
type Plant interface {
	Step(dt float64, cmd dynamo.Control) error
	Elapsed() float64
}

// Sensor is implemented by plants that expose their actuator state.
type Sensor interface {
	ActuatorLengths() []float64
}

type OscillatorConfig struct {
	Weight   float64
	Synapse  float64
	Kick     float64
	KickTime float64
	// Damping pulls the represented state onto the unit circle (1/s).
	Damping      float64
	NoiseStd     float64
	ClosedLoop   bool
	FeedbackGain float64
	Ensemble     EnsembleConfig
}

func DefaultOscillatorConfig() OscillatorConfig {
	return OscillatorConfig{
		Weight:       0.9,
		Synapse:      0.1,
		Kick:         1.0,
		KickTime:     0.1,
		Damping:      1.0,
		NoiseStd:     0,
		FeedbackGain: 0.1,
		Ensemble:     DefaultEnsembleConfig(),
	}
}

// Oscillator is a recurrently connected LIF ensemble generating the gait
// phase. It owns its stepping loop when run against a Plant.
type Oscillator struct {
	cfg   OscillatorConfig
	ens   *Ensemble
	noise signal.Sampler

	recurrent [2]float64
	readout   [2]float64
	t         float64
}

func NewOscillator(cfg OscillatorConfig, noise signal.Sampler) (*Oscillator, error) {
	if cfg.Synapse <= 0 {
		return nil, fmt.Errorf("neural: synapse time constant must be positive, got %g", cfg.Synapse)
	}
	cfg.Ensemble.Dims = 2
	omega := 2 * math.Pi * cfg.Weight / 6
	tau := cfg.Synapse

	// Columns 0-1 feed back (tau*f(x) + x for dx/dt = f(x)); columns 2-3 read out x.
	fn := func(x []float64) []float64 {
		r2 := x[0]*x[0] + x[1]*x[1]
		radial := cfg.Damping * (1 - r2)
		dx0 := -omega*x[1] + radial*x[0]
		dx1 := omega*x[0] + radial*x[1]
		return []float64{x[0] + tau*dx0, x[1] + tau*dx1, x[0], x[1]}
	}

	ens, err := NewEnsemble(cfg.Ensemble, fn)
	if err != nil {
		return nil, err
	}
	return &Oscillator{cfg: cfg, ens: ens, noise: noise}, nil
}

func (o *Oscillator) Reset() {
	o.ens.Reset()
	o.recurrent = [2]float64{}
	o.readout = [2]float64{}
	o.t = 0
}

// step advances the network by dt. feedback is the measured length of
// actuator 0 and only drives the network when closed is set.
func (o *Oscillator) step(dt, feedback float64, closed bool) dynamo.Control {
	in := []float64{o.recurrent[0], o.recurrent[1]}
	if o.t < o.cfg.KickTime {
		in[0] += o.cfg.Kick
	}
	if closed {
		in[0] += o.cfg.FeedbackGain * (feedback/signal.GaitTable[0] - o.readout[0])
	}

	var noise signal.Sampler
	if o.cfg.NoiseStd > 0 {
		noise = o.noise
	}
	out := o.ens.Step(dt, in, noise)

	alpha := -math.Expm1(-dt / o.cfg.Synapse)
	for d := 0; d < 2; d++ {
		o.recurrent[d] += (out[d] - o.recurrent[d]) * alpha
		o.readout[d] += (out[d+2] - o.readout[d]) * alpha
	}
	o.t += dt

	return signal.Apply(signal.Clamp(o.readout[0], -1, 1))
}

// Run resets the network and co-simulates it with plant for round(budget/dt)
// steps.
func (o *Oscillator) Run(plant Plant, budget, dt float64) error {
	if !(dt > 0) || !(budget > 0) {
		return fmt.Errorf("%w: budget %g dt %g", dynamo.ErrParameterBounds, budget, dt)
	}
	o.Reset()

	sensor, _ := plant.(Sensor)
	steps := int(math.Round(budget / dt))
	for i := 0; i < steps; i++ {
		feedback, closed := 0.0, false
		if o.cfg.ClosedLoop && sensor != nil {
			// An empty read-out runs this step open loop.
			if lengths := sensor.ActuatorLengths(); len(lengths) > 0 {
				feedback, closed = lengths[0], true
			}
		}
		if err := plant.Step(dt, o.step(dt, feedback, closed)); err != nil {
			return fmt.Errorf("oscillator step %d: %w", i, err)
		}
	}
	return nil
}

package neural

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"

	"github.com/san-kum/gaitbench/internal/signal"
	"gonum.org/v1/gonum/mat"
)

var ErrSolve = errors.New("neural: decoder solve failed")

type EnsembleConfig struct {
	Neurons     int
	Dims        int
	TauRC       float64
	TauRef      float64
	MaxRateLo   float64
	MaxRateHi   float64
	InterceptLo float64
	InterceptHi float64
	EvalPoints  int
	// Reg is the L2 regularisation as a fraction of the peak firing rate.
	Reg  float64
	Seed uint64
}

func DefaultEnsembleConfig() EnsembleConfig {
	return EnsembleConfig{
		Neurons:     200,
		Dims:        2,
		TauRC:       0.02,
		TauRef:      0.002,
		MaxRateLo:   200,
		MaxRateHi:   400,
		InterceptLo: -1,
		InterceptHi: 0.9,
		EvalPoints:  1000,
		Reg:         0.1,
		Seed:        1,
	}
}

// Function is a target the decoders approximate over the unit ball.
type Function func(x []float64) []float64

// Ensemble is a population of LIF neurons with solved decoders.
type Ensemble struct {
	cfg      EnsembleConfig
	encoders [][]float64
	gain     []float64
	bias     []float64
	decoders *mat.Dense
	outDims  int

	voltage    []float64
	refractory []float64
}

// NewEnsemble samples neuron parameters and solves decoders for fn.
func NewEnsemble(cfg EnsembleConfig, fn Function) (*Ensemble, error) {
	if cfg.Neurons <= 0 || cfg.Dims <= 0 {
		return nil, fmt.Errorf("neural: ensemble needs neurons and dims, got %d/%d", cfg.Neurons, cfg.Dims)
	}
	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))

	e := &Ensemble{
		cfg:        cfg,
		encoders:   make([][]float64, cfg.Neurons),
		gain:       make([]float64, cfg.Neurons),
		bias:       make([]float64, cfg.Neurons),
		voltage:    make([]float64, cfg.Neurons),
		refractory: make([]float64, cfg.Neurons),
	}

	for j := 0; j < cfg.Neurons; j++ {
		e.encoders[j] = unitVector(rng, cfg.Dims)
		maxRate := cfg.MaxRateLo + rng.Float64()*(cfg.MaxRateHi-cfg.MaxRateLo)
		intercept := cfg.InterceptLo + rng.Float64()*(cfg.InterceptHi-cfg.InterceptLo)
		e.gain[j], e.bias[j] = e.gainBias(maxRate, intercept)
	}

	points := make([][]float64, cfg.EvalPoints)
	for s := range points {
		points[s] = ballPoint(rng, cfg.Dims)
	}
	if err := e.solve(points, fn); err != nil {
		return nil, err
	}
	return e, nil
}

func (e *Ensemble) gainBias(maxRate, intercept float64) (float64, float64) {
	jMax := 1 / (1 - math.Exp((e.cfg.TauRef-1/maxRate)/e.cfg.TauRC))
	gain := (jMax - 1) / (1 - intercept)
	return gain, 1 - gain*intercept
}

// Rate is the steady-state LIF firing rate for input current j.
func (e *Ensemble) Rate(j float64) float64 {
	if j <= 1 {
		return 0
	}
	return 1 / (e.cfg.TauRef + e.cfg.TauRC*math.Log1p(1/(j-1)))
}

func (e *Ensemble) current(j int, x []float64) float64 {
	dot := 0.0
	for d, v := range x {
		dot += e.encoders[j][d] * v
	}
	return e.gain[j]*dot + e.bias[j]
}

func (e *Ensemble) solve(points [][]float64, fn Function) error {
	s, n := len(points), e.cfg.Neurons
	a := mat.NewDense(s, n, nil)
	peak := 0.0
	for i, x := range points {
		for j := 0; j < n; j++ {
			r := e.Rate(e.current(j, x))
			a.Set(i, j, r)
			peak = math.Max(peak, r)
		}
	}

	e.outDims = len(fn(points[0]))
	y := mat.NewDense(s, e.outDims, nil)
	for i, x := range points {
		y.SetRow(i, fn(x))
	}

	sigma := e.cfg.Reg * peak
	var gram mat.Dense
	gram.Mul(a.T(), a)
	for j := 0; j < n; j++ {
		gram.Set(j, j, gram.At(j, j)+float64(s)*sigma*sigma)
	}

	var rhs mat.Dense
	rhs.Mul(a.T(), y)

	var dec mat.Dense
	if err := dec.Solve(&gram, &rhs); err != nil {
		return fmt.Errorf("%w: %v", ErrSolve, err)
	}
	e.decoders = &dec
	return nil
}

// Decode evaluates the decoded function from steady-state rates at x.
func (e *Ensemble) Decode(x []float64) []float64 {
	out := make([]float64, e.outDims)
	for j := 0; j < e.cfg.Neurons; j++ {
		r := e.Rate(e.current(j, x))
		if r == 0 {
			continue
		}
		for d := range out {
			out[d] += r * e.decoders.At(j, d)
		}
	}
	return out
}

func (e *Ensemble) Reset() {
	for j := range e.voltage {
		e.voltage[j] = 0
		e.refractory[j] = 0
	}
}

// Step advances the spiking neurons by dt with input x and returns the
// instantaneous decoded output. noise, when non-nil, is added to every
// neuron's input current.
func (e *Ensemble) Step(dt float64, x []float64, noise signal.Sampler) []float64 {
	out := make([]float64, e.outDims)
	tau := e.cfg.TauRC

	for j := 0; j < e.cfg.Neurons; j++ {
		cur := e.current(j, x)
		if noise != nil {
			cur += noise.Sample()
		}

		e.refractory[j] -= dt
		delta := signal.Clamp(dt-e.refractory[j], 0, dt)
		v := e.voltage[j] + (cur-e.voltage[j])*-math.Expm1(-delta/tau)
		if v < 0 {
			v = 0
		}
		if v > 1 {
			tSpike := dt + tau*math.Log1p(-(v-1)/(cur-1))
			e.refractory[j] = e.cfg.TauRef + tSpike
			v = 0
			for d := range out {
				out[d] += e.decoders.At(j, d) / dt
			}
		}
		e.voltage[j] = v
	}
	return out
}

func unitVector(rng *rand.Rand, dims int) []float64 {
	for {
		v := make([]float64, dims)
		norm := 0.0
		for d := range v {
			v[d] = rng.NormFloat64()
			norm += v[d] * v[d]
		}
		if norm > 0 {
			norm = math.Sqrt(norm)
			for d := range v {
				v[d] /= norm
			}
			return v
		}
	}
}

func ballPoint(rng *rand.Rand, dims int) []float64 {
	v := unitVector(rng, dims)
	r := math.Pow(rng.Float64(), 1/float64(dims))
	for d := range v {
		v[d] *= r
	}
	return v
}

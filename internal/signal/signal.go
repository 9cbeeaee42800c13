// Package signal generates open-loop actuator commands as pure functions of
// simulated time.
package signal

import (
	"math"

	"github.com/san-kum/gaitbench/internal/dynamo"
)

// GaitTable maps the shared oscillator phase onto the eight actuators.
// Antagonist cables are driven in counter-phase.
var GaitTable = [8]float64{1.1, -1.1, -1.1, 1.1, 1.1, -1.1, -1.1, 1.1}

// Generator produces one command vector for elapsed simulated time t.
type Generator interface {
	Command(t float64) dynamo.Control
	Width() int
}

// Period returns the oscillation period in seconds for weight w.
func Period(w float64) float64 {
	return 6 / w
}

// Apply scales the gait table by phase.
func Apply(phase float64) dynamo.Control {
	u := make(dynamo.Control, len(GaitTable))
	for i, k := range GaitTable {
		u[i] = k * phase
	}
	return u
}

func argument(w, t float64) float64 {
	return 2 * math.Pi * (w / 6) * t
}

// Sinusoid is the deterministic baseline gait.
type Sinusoid struct {
	Weight float64
}

func NewSinusoid(w float64) *Sinusoid {
	return &Sinusoid{Weight: w}
}

func (s *Sinusoid) Command(t float64) dynamo.Control {
	return Apply(math.Sin(argument(s.Weight, t)))
}

func (s *Sinusoid) Width() int { return len(GaitTable) }

// NoisySinusoid perturbs the sine argument with one clamped noise draw per
// call. All actuators share the draw.
type NoisySinusoid struct {
	Weight  float64
	Sampler Sampler
}

func NewNoisySinusoid(w float64, sampler Sampler) *NoisySinusoid {
	return &NoisySinusoid{Weight: w, Sampler: sampler}
}

func (n *NoisySinusoid) Command(t float64) dynamo.Control {
	noise := Clamp(n.Sampler.Sample(), -1, 1)
	return Apply(math.Sin(argument(n.Weight, t) + noise))
}

func (n *NoisySinusoid) Width() int { return len(GaitTable) }

func Clamp(v, lo, hi float64) float64 {
	if v > hi {
		return hi
	}
	if v < lo {
		return lo
	}
	return v
}

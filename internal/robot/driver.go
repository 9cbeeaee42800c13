package robot

import (
	"fmt"
	"math"

	"github.com/san-kum/gaitbench/internal/dynamo"
)

type DriverConfig struct {
	// SettleTime is how long the body rests under zero command after a
	// reset before the clock starts.
	SettleTime float64
	SettleDt   float64
}

func DefaultDriverConfig() DriverConfig {
	return DriverConfig{
		SettleTime: 2.0,
		SettleDt:   0.001,
	}
}

// Driver owns one simulated body and steps it with a fixed timestep. It is
// not safe for concurrent use.
type Driver struct {
	body    *Body
	integ   dynamo.Integrator
	cfg     DriverConfig
	x       dynamo.State
	t       float64
	steps   int
	history []dynamo.Vec3
}

func NewDriver(body *Body, integ dynamo.Integrator, cfg DriverConfig) *Driver {
	d := &Driver{
		body:  body,
		integ: integ,
		cfg:   cfg,
	}
	d.Reset()
	return d
}

func (d *Driver) NumActuators() int { return NumActuators }

// Reset re-initialises the body, lets it settle, and zeroes the clock and
// history.
func (d *Driver) Reset() {
	d.x = d.body.InitialState()
	d.settle()
	d.t = 0
	d.steps = 0
	d.history = d.history[:0]
}

func (d *Driver) settle() {
	if d.cfg.SettleTime <= 0 || d.cfg.SettleDt <= 0 {
		return
	}
	idle := make(dynamo.Control, NumActuators)
	n := int(math.Round(d.cfg.SettleTime / d.cfg.SettleDt))
	t := -d.cfg.SettleTime
	for i := 0; i < n; i++ {
		d.x = d.integ.Step(d.body, d.x, idle, t, d.cfg.SettleDt)
		t += d.cfg.SettleDt
	}
}

// Step advances the body by dt under cmd and records one position sample.
func (d *Driver) Step(dt float64, cmd dynamo.Control) error {
	if len(cmd) != NumActuators {
		return fmt.Errorf("%w: got %d commands, want %d", dynamo.ErrDimensionMismatch, len(cmd), NumActuators)
	}
	if !(dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrParameterBounds, dt)
	}

	next := d.integ.Step(d.body, d.x, cmd, d.t, dt)
	if !next.IsValid() {
		return &dynamo.SimulationError{
			Step:    d.steps,
			Time:    d.t,
			State:   next,
			Wrapped: dynamo.ErrInvalidState,
		}
	}

	d.x = next
	d.t += dt
	d.steps++
	d.history = append(d.history, d.body.CenterOfMass(d.x))
	return nil
}

func (d *Driver) Elapsed() float64 { return d.t }

// History returns a copy of the positions recorded since the last reset.
func (d *Driver) History() []dynamo.Vec3 {
	out := make([]dynamo.Vec3, len(d.history))
	copy(out, d.history)
	return out
}

// ActuatorLengths returns the current cable deviations.
func (d *Driver) ActuatorLengths() []float64 {
	out := make([]float64, NumActuators)
	copy(out, d.x[:NumActuators])
	return out
}

package experiment

import (
	"fmt"

	"github.com/san-kum/gaitbench/internal/dynamo"
	"github.com/san-kum/gaitbench/internal/signal"
)

// Simulator is the stepped body the harness drives.
type Simulator interface {
	Reset()
	Step(dt float64, cmd dynamo.Control) error
	Elapsed() float64
	History() []dynamo.Vec3
	NumActuators() int
}

// Policy produces one full run on sim: it resets sim and steps it until
// the budget is spent.
type Policy interface {
	Name() string
	Run(sim Simulator, budget, dt float64) error
}

// StepPolicy pulls one command per step from a time-based generator.
type StepPolicy struct {
	name string
	gen  signal.Generator
}

func NewStepPolicy(name string, gen signal.Generator) *StepPolicy {
	return &StepPolicy{name: name, gen: gen}
}

func (p *StepPolicy) Name() string { return p.name }

func (p *StepPolicy) Width() int { return p.gen.Width() }

// Run steps while elapsed < budget, so the last step may overshoot the
// budget by less than dt.
func (p *StepPolicy) Run(sim Simulator, budget, dt float64) error {
	sim.Reset()
	for sim.Elapsed() < budget {
		if err := sim.Step(dt, p.gen.Command(sim.Elapsed())); err != nil {
			return err
		}
	}
	return nil
}

// Model is an external controller that owns its stepping loop.
type Model interface {
	Run(sim Simulator, budget, dt float64) error
}

// ModelFunc adapts a function to Model.
type ModelFunc func(sim Simulator, budget, dt float64) error

func (f ModelFunc) Run(sim Simulator, budget, dt float64) error {
	return f(sim, budget, dt)
}

// ModelPolicy delegates the whole run to a Model. Panics inside the model
// are returned as errors wrapping ErrModelPanic.
type ModelPolicy struct {
	name  string
	model Model
}

func NewModelPolicy(name string, model Model) *ModelPolicy {
	return &ModelPolicy{name: name, model: model}
}

func (p *ModelPolicy) Name() string { return p.name }

func (p *ModelPolicy) Run(sim Simulator, budget, dt float64) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrModelPanic, r)
		}
	}()
	sim.Reset()
	return p.model.Run(sim, budget, dt)
}

package experiment

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/san-kum/gaitbench/internal/dynamo"
)

// Observer receives progress after every successful step.
type Observer interface {
	OnStep(index int, label string, elapsed, budget float64)
}

// Lifecycle is implemented by observers that also want start and finish
// notifications.
type Lifecycle interface {
	OnStart(index int, label string)
	OnFinish(outcome Outcome)
}

// ResultSink receives each completed result as soon as it is available.
type ResultSink interface {
	Add(result Result)
}

type Config struct {
	Budget float64
	Dt     float64
}

// Runner executes experiments one at a time against a single simulator.
type Runner struct {
	sim       Simulator
	cfg       Config
	logger    *slog.Logger
	observers []Observer
	sinks     []ResultSink
}

func NewRunner(sim Simulator, cfg Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		sim:       sim,
		cfg:       cfg,
		logger:    logger,
		observers: make([]Observer, 0),
	}
}

func (r *Runner) AddObserver(o Observer) { r.observers = append(r.observers, o) }

func (r *Runner) AddSink(s ResultSink) { r.sinks = append(r.sinks, s) }

// Validate checks the run configuration and every spec without running
// anything.
func (r *Runner) Validate(specs []Spec) error {
	if !(r.cfg.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrConfig, r.cfg.Dt)
	}
	if !(r.cfg.Budget > 0) {
		return fmt.Errorf("%w: budget must be positive, got %g", ErrConfig, r.cfg.Budget)
	}
	if len(specs) == 0 {
		return fmt.Errorf("%w: no experiments configured", ErrConfig)
	}
	for i, spec := range specs {
		if spec.Label == "" {
			return fmt.Errorf("%w: experiment %d has no label", ErrConfig, i)
		}
		if spec.Policy == nil {
			return fmt.Errorf("%w: experiment %d (%s) has no policy", ErrConfig, i, spec.Label)
		}
		if w, ok := spec.Policy.(interface{ Width() int }); ok && w.Width() != r.sim.NumActuators() {
			return fmt.Errorf("%w: experiment %d (%s): %d commands for %d actuators: %w",
				ErrConfig, i, spec.Label, w.Width(), r.sim.NumActuators(), dynamo.ErrDimensionMismatch)
		}
	}
	return nil
}

// Run validates specs, then runs them sequentially. A failing experiment is
// logged and omitted from the results; only configuration errors and
// context cancellation between experiments are returned.
func (r *Runner) Run(ctx context.Context, specs []Spec) (*Report, error) {
	if err := r.Validate(specs); err != nil {
		return nil, err
	}

	report := &Report{
		Results:  make([]Result, 0, len(specs)),
		Outcomes: make([]Outcome, 0, len(specs)),
	}

	for i, spec := range specs {
		select {
		case <-ctx.Done():
			return report, ctx.Err()
		default:
		}

		r.notifyStart(i, spec.Label)
		r.logger.Info("experiment started", "index", i, "experiment", spec.Label, "policy", spec.Policy.Name())

		start := time.Now()
		result, err := r.runOne(i, spec)
		outcome := Outcome{
			Index:  i,
			Label:  spec.Label,
			Policy: spec.Policy.Name(),
			Status: Completed,
			Wall:   time.Since(start),
		}

		if err != nil {
			outcome.Status = Failed
			outcome.Err = &RunError{Index: i, Label: spec.Label, Err: err}
			r.logger.Error("experiment failed", "index", i, "experiment", spec.Label, "error", err)
		} else {
			report.Results = append(report.Results, result)
			for _, sink := range r.sinks {
				sink.Add(result)
			}
			r.logger.Info("experiment completed",
				"index", i,
				"experiment", spec.Label,
				"samples", len(result.Trajectory),
				"elapsed", result.Elapsed,
				"wall", outcome.Wall.Round(time.Millisecond))
		}

		report.Outcomes = append(report.Outcomes, outcome)
		r.notifyFinish(outcome)
	}

	return report, nil
}

func (r *Runner) runOne(index int, spec Spec) (result Result, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrModelPanic, p)
		}
	}()

	var sim Simulator = &observedSimulator{
		Simulator: r.sim,
		runner:    r,
		index:     index,
		label:     spec.Label,
		lastLog:   -1,
	}
	if s, ok := r.sim.(actuatorSensor); ok {
		sim = &sensedSimulator{Simulator: sim, sensor: s}
	}
	if err := spec.Policy.Run(sim, r.cfg.Budget, r.cfg.Dt); err != nil {
		return Result{}, err
	}

	history := r.sim.History()
	return Result{
		Index:      index,
		Label:      spec.Label,
		Policy:     spec.Policy.Name(),
		Trajectory: Project(history),
		Elapsed:    r.sim.Elapsed(),
		Steps:      len(history),
	}, nil
}

func (r *Runner) notifyStart(index int, label string) {
	for _, o := range r.observers {
		if lc, ok := o.(Lifecycle); ok {
			lc.OnStart(index, label)
		}
	}
}

func (r *Runner) notifyFinish(outcome Outcome) {
	for _, o := range r.observers {
		if lc, ok := o.(Lifecycle); ok {
			lc.OnFinish(outcome)
		}
	}
}

// observedSimulator reports progress for both pull and push policies.
type observedSimulator struct {
	Simulator
	runner  *Runner
	index   int
	label   string
	lastLog int
}

func (s *observedSimulator) Step(dt float64, cmd dynamo.Control) error {
	if err := s.Simulator.Step(dt, cmd); err != nil {
		return err
	}
	elapsed := s.Simulator.Elapsed()
	for _, o := range s.runner.observers {
		o.OnStep(s.index, s.label, elapsed, s.runner.cfg.Budget)
	}
	if sec := int(math.Floor(elapsed)); sec > s.lastLog {
		s.lastLog = sec
		s.runner.logger.Debug("simulation time", "experiment", s.label, "elapsed", sec)
	}
	return nil
}

type actuatorSensor interface {
	ActuatorLengths() []float64
}

// sensedSimulator exposes the actuator read-out of simulators that have one.
type sensedSimulator struct {
	Simulator
	sensor actuatorSensor
}

func (s *sensedSimulator) ActuatorLengths() []float64 { return s.sensor.ActuatorLengths() }

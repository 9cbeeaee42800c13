package experiment_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/gaitbench/internal/config"
	"github.com/san-kum/gaitbench/internal/dynamo"
	"github.com/san-kum/gaitbench/internal/experiment"
	"github.com/san-kum/gaitbench/internal/integrators"
	"github.com/san-kum/gaitbench/internal/logging"
	"github.com/san-kum/gaitbench/internal/robot"
	"github.com/san-kum/gaitbench/internal/signal"
)

// fakeSim moves along x by the first command component each step.
type fakeSim struct {
	t       float64
	x       float64
	resets  int
	history []dynamo.Vec3
	failAt  int
}

func (s *fakeSim) Reset() {
	s.resets++
	s.t, s.x = 0, 0
	s.history = nil
}

func (s *fakeSim) Step(dt float64, cmd dynamo.Control) error {
	if len(cmd) != s.NumActuators() {
		return dynamo.ErrDimensionMismatch
	}
	if s.failAt > 0 && len(s.history) == s.failAt {
		return &dynamo.SimulationError{Step: s.failAt, Time: s.t, Wrapped: dynamo.ErrInvalidState}
	}
	s.t += dt
	s.x += cmd[0] * dt
	s.history = append(s.history, dynamo.Vec3{X: s.x, Z: s.t})
	return nil
}

func (s *fakeSim) Elapsed() float64        { return s.t }
func (s *fakeSim) History() []dynamo.Vec3 { return append([]dynamo.Vec3(nil), s.history...) }
func (s *fakeSim) NumActuators() int       { return robot.NumActuators }

type countingObserver struct {
	steps    int
	started  []string
	finished []experiment.Outcome
	last     float64
}

func (o *countingObserver) OnStep(_ int, _ string, elapsed, _ float64) {
	o.steps++
	o.last = elapsed
}

func (o *countingObserver) OnStart(_ int, label string) { o.started = append(o.started, label) }

func (o *countingObserver) OnFinish(out experiment.Outcome) { o.finished = append(o.finished, out) }

func sine(w float64) experiment.Spec {
	return experiment.Spec{Label: "Pure Sinusoid", Policy: experiment.NewStepPolicy("sine", signal.NewSinusoid(w))}
}

func failing(err error) experiment.Spec {
	return experiment.Spec{
		Label: "broken",
		Policy: experiment.NewModelPolicy("broken", experiment.ModelFunc(
			func(sim experiment.Simulator, budget, dt float64) error { return err },
		)),
	}
}

var _ = Describe("Runner", func() {
	var (
		sim    *fakeSim
		runner *experiment.Runner
		ctx    context.Context
	)

	BeforeEach(func() {
		sim = &fakeSim{}
		ctx = context.Background()
		runner = experiment.NewRunner(sim, experiment.Config{Budget: 1.1, Dt: 0.25}, logging.Discard())
	})

	Describe("step policies", func() {
		It("steps until elapsed reaches the budget", func() {
			report, err := runner.Run(ctx, []experiment.Spec{sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Results).To(HaveLen(1))

			res := report.Results[0]
			Expect(res.Trajectory).To(HaveLen(5))
			Expect(res.Steps).To(Equal(5))
			Expect(res.Elapsed).To(BeNumerically(">=", 1.1))
			Expect(res.Elapsed).To(BeNumerically("<", 1.1+0.25))
		})

		It("takes exactly budget/dt steps when dt divides the budget", func() {
			runner = experiment.NewRunner(sim, experiment.Config{Budget: 1, Dt: 0.25}, logging.Discard())
			report, err := runner.Run(ctx, []experiment.Spec{sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Results[0].Trajectory).To(HaveLen(4))
			Expect(report.Results[0].Elapsed).To(Equal(1.0))
		})

		It("produces the reference sample count for a 62 second run", func() {
			runner = experiment.NewRunner(sim, experiment.Config{Budget: 62, Dt: 0.001}, logging.Discard())
			report, err := runner.Run(ctx, []experiment.Spec{sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(len(report.Results[0].Trajectory)).To(BeNumerically(">=", 62000))
			Expect(len(report.Results[0].Trajectory)).To(BeNumerically("<=", 62001))
		})

		It("resets the simulator before every experiment", func() {
			report, err := runner.Run(ctx, []experiment.Spec{sine(0.9), sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(sim.resets).To(Equal(2))
			Expect(report.Results[0].Trajectory[0]).To(Equal(report.Results[1].Trajectory[0]))
			Expect(report.Results[1].Index).To(Equal(1))
		})
	})

	Describe("failure isolation", func() {
		It("skips a failing model and keeps the others", func() {
			specs := []experiment.Spec{sine(0.9), failing(errors.New("model exploded")), sine(0.9)}
			report, err := runner.Run(ctx, specs)
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Results).To(HaveLen(2))
			Expect(report.Results[0].Index).To(Equal(0))
			Expect(report.Results[1].Index).To(Equal(2))

			failures := report.Failures()
			Expect(failures).To(HaveLen(1))
			Expect(failures[0].Status).To(Equal(experiment.Failed))

			var runErr *experiment.RunError
			Expect(errors.As(failures[0].Err, &runErr)).To(BeTrue())
			Expect(runErr.Index).To(Equal(1))
		})

		It("recovers a panicking model", func() {
			panicky := experiment.Spec{
				Label: "panics",
				Policy: experiment.NewModelPolicy("panics", experiment.ModelFunc(
					func(experiment.Simulator, float64, float64) error { panic("boom") },
				)),
			}
			report, err := runner.Run(ctx, []experiment.Spec{panicky, sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Results).To(HaveLen(1))
			Expect(report.Failures()[0].Err).To(MatchError(experiment.ErrModelPanic))
		})

		It("reports simulator faults with the step that failed", func() {
			sim.failAt = 2
			report, err := runner.Run(ctx, []experiment.Spec{sine(0.9)})
			Expect(err).NotTo(HaveOccurred())
			Expect(report.Results).To(BeEmpty())

			var simErr *dynamo.SimulationError
			Expect(errors.As(report.Failures()[0].Err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(Equal(2))
			Expect(report.Failures()[0].Err).To(MatchError(dynamo.ErrInvalidState))
		})
	})

	Describe("configuration errors", func() {
		It("rejects a non-positive dt before running anything", func() {
			runner = experiment.NewRunner(sim, experiment.Config{Budget: 1, Dt: 0}, logging.Discard())
			_, err := runner.Run(ctx, []experiment.Spec{sine(0.9)})
			Expect(err).To(MatchError(experiment.ErrConfig))
			Expect(sim.resets).To(BeZero())
		})

		It("rejects an empty experiment list", func() {
			_, err := runner.Run(ctx, nil)
			Expect(err).To(MatchError(experiment.ErrConfig))
		})

		It("rejects a missing label", func() {
			spec := sine(0.9)
			spec.Label = ""
			_, err := runner.Run(ctx, []experiment.Spec{sine(0.9), spec})
			Expect(err).To(MatchError(experiment.ErrConfig))
			Expect(sim.resets).To(BeZero())
		})
	})

	Describe("actuator sensing", func() {
		sensed := func(seen *bool) experiment.Spec {
			return experiment.Spec{
				Label: "sensing",
				Policy: experiment.NewModelPolicy("sensing", experiment.ModelFunc(
					func(sim experiment.Simulator, budget, dt float64) error {
						_, *seen = sim.(interface{ ActuatorLengths() []float64 })
						return nil
					},
				)),
			}
		}

		It("hides the sensor when the simulator has none", func() {
			seen := true
			_, err := runner.Run(ctx, []experiment.Spec{sensed(&seen)})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(BeFalse())
		})

		It("forwards the sensor of a sensing simulator", func() {
			driver := robot.NewDriver(robot.NewBody(robot.DefaultBodyParams()), integrators.NewRK4(), robot.DriverConfig{})
			runner := experiment.NewRunner(driver, experiment.Config{Budget: 0.5, Dt: 0.0625}, logging.Discard())
			seen := false
			_, err := runner.Run(ctx, []experiment.Spec{sensed(&seen)})
			Expect(err).NotTo(HaveOccurred())
			Expect(seen).To(BeTrue())
		})
	})

	Describe("observers", func() {
		It("sees every step and every lifecycle event", func() {
			obs := &countingObserver{}
			runner.AddObserver(obs)

			_, err := runner.Run(ctx, []experiment.Spec{sine(0.9), failing(errors.New("nope"))})
			Expect(err).NotTo(HaveOccurred())
			Expect(obs.steps).To(Equal(5))
			Expect(obs.last).To(Equal(1.25))
			Expect(obs.started).To(Equal([]string{"Pure Sinusoid", "broken"}))
			Expect(obs.finished).To(HaveLen(2))
			Expect(obs.finished[1].Status).To(Equal(experiment.Failed))
		})
	})

	It("stops between experiments once the context is cancelled", func() {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		report, err := runner.Run(cctx, []experiment.Spec{sine(0.9)})
		Expect(err).To(MatchError(context.Canceled))
		Expect(report.Results).To(BeEmpty())
	})
})

var _ = Describe("Registry", func() {
	var reg *experiment.Registry

	BeforeEach(func() {
		reg = experiment.NewRegistry()
	})

	It("lists the built-in policies", func() {
		Expect(reg.List()).To(Equal([]string{"lif", "noisy_sine", "sine"}))
	})

	It("labels experiments by policy and noise", func() {
		specs, err := reg.BuildAll(config.DefaultConfig())
		Expect(err).NotTo(HaveOccurred())
		Expect(specs).To(HaveLen(3))
		Expect(specs[0].Label).To(Equal("Pure Sinusoid"))
		Expect(specs[1].Label).To(Equal("Noisy Sinusoid (0.3)"))
		Expect(specs[2].Label).To(Equal("Nengo LIF (0.3)"))
	})

	It("keeps an explicit label", func() {
		spec, err := reg.Build(experiment.Env{Frequency: 0.9}, 0, config.ExperimentConfig{Label: "baseline", Policy: config.PolicySine})
		Expect(err).NotTo(HaveOccurred())
		Expect(spec.Label).To(Equal("baseline"))
	})

	It("rejects an unknown policy as a configuration error", func() {
		_, err := reg.Build(experiment.Env{Frequency: 0.9}, 0, config.ExperimentConfig{Policy: "cpg"})
		Expect(err).To(MatchError(experiment.ErrConfig))
	})

	It("skips disabled experiments", func() {
		cfg := config.DefaultConfig()
		cfg.Experiments[1].Disabled = true
		specs, err := reg.BuildAll(cfg)
		Expect(err).NotTo(HaveOccurred())
		Expect(specs).To(HaveLen(2))
		Expect(specs[1].Label).To(Equal("Nengo LIF (0.3)"))
	})

	It("gives differently seeded noisy runs equal length but different paths", func() {
		sim := &fakeSim{}
		runner := experiment.NewRunner(sim, experiment.Config{Budget: 1, Dt: 0.01}, logging.Discard())
		env := experiment.Env{Frequency: 0.9}

		a, err := reg.Build(env, 0, config.ExperimentConfig{Policy: config.PolicyNoisySine, NoiseStd: 0.3, Seed: 1})
		Expect(err).NotTo(HaveOccurred())
		b, err := reg.Build(env, 1, config.ExperimentConfig{Policy: config.PolicyNoisySine, NoiseStd: 0.3, Seed: 2})
		Expect(err).NotTo(HaveOccurred())

		report, err := runner.Run(context.Background(), []experiment.Spec{a, b})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Results).To(HaveLen(2))
		Expect(report.Results[0].Trajectory).To(HaveLen(len(report.Results[1].Trajectory)))
		Expect(report.Results[0].Trajectory).NotTo(Equal(report.Results[1].Trajectory))
	})

	It("runs a closed-loop neural model on a simulator without actuator sensing", func() {
		sim := &fakeSim{}
		runner := experiment.NewRunner(sim, experiment.Config{Budget: 0.5, Dt: 0.0625}, logging.Discard())

		spec, err := reg.Build(experiment.Env{Frequency: 0.9}, 0, config.ExperimentConfig{
			Policy:     config.PolicyLIF,
			Neurons:    20,
			ClosedLoop: true,
		})
		Expect(err).NotTo(HaveOccurred())

		report, err := runner.Run(context.Background(), []experiment.Spec{spec})
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failures()).To(BeEmpty())
		Expect(report.Results).To(HaveLen(1))
		Expect(report.Results[0].Trajectory).To(HaveLen(8))
	})
})

var _ = Describe("End to end on the robot driver", func() {
	It("runs the sinusoid and the neural model against the same body", func() {
		driver := robot.NewDriver(robot.NewBody(robot.DefaultBodyParams()), integrators.NewRK4(), robot.DriverConfig{})
		runner := experiment.NewRunner(driver, experiment.Config{Budget: 0.5, Dt: 0.0625}, logging.Discard())

		cfg := config.DefaultConfig()
		cfg.Experiments[2].Neurons = 50
		specs, err := experiment.NewRegistry().BuildAll(cfg)
		Expect(err).NotTo(HaveOccurred())

		report, err := runner.Run(context.Background(), specs)
		Expect(err).NotTo(HaveOccurred())
		Expect(report.Failures()).To(BeEmpty())
		Expect(report.Results).To(HaveLen(3))
		for _, res := range report.Results {
			Expect(res.Trajectory).To(HaveLen(8))
		}
	})
})

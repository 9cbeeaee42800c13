package experiment

import (
	"errors"
	"fmt"
	"time"

	"github.com/san-kum/gaitbench/internal/dynamo"
)

var (
	// ErrConfig marks configuration errors, which abort the harness before
	// any experiment runs.
	ErrConfig = errors.New("experiment: invalid configuration")

	// ErrModelPanic wraps a panic raised by a policy or simulator.
	ErrModelPanic = errors.New("experiment: collaborator panicked")
)

// Point is a centre-of-mass sample projected onto the ground plane.
type Point struct {
	X float64
	Z float64
}

type Trajectory []Point

// Project keeps the ground-plane components of each sample.
func Project(history []dynamo.Vec3) Trajectory {
	tr := make(Trajectory, len(history))
	for i, p := range history {
		tr[i] = Point{X: p.X, Z: p.Z}
	}
	return tr
}

// Spec is one configured experiment.
type Spec struct {
	Label  string
	Policy Policy
}

type Status int

const (
	NotStarted Status = iota
	Running
	Completed
	Failed
)

func (s Status) String() string {
	switch s {
	case NotStarted:
		return "not started"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is a completed experiment. Index is the experiment's position in
// the configured list.
type Result struct {
	Index      int
	Label      string
	Policy     string
	Trajectory Trajectory
	Elapsed    float64
	Steps      int
}

// Outcome records how one experiment ended.
type Outcome struct {
	Index  int
	Label  string
	Policy string
	Status Status
	Err    error
	Wall   time.Duration
}

// RunError is a collaborator fault confined to one experiment.
type RunError struct {
	Index int
	Label string
	Err   error
}

func (e *RunError) Error() string {
	return fmt.Sprintf("experiment %d (%s): %v", e.Index, e.Label, e.Err)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// Report holds results in execution order and the outcome of every
// experiment, including failed ones.
type Report struct {
	Results  []Result
	Outcomes []Outcome
}

func (r *Report) Failures() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if o.Status == Failed {
			out = append(out, o)
		}
	}
	return out
}

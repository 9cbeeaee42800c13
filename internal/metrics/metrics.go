package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/gaitbench/internal/analysis"
	"github.com/san-kum/gaitbench/internal/experiment"
)

// Metric accumulates a scalar over a trajectory, one sample at a time.
type Metric interface {
	Name() string
	Observe(p experiment.Point, t float64)
	Value() float64
	Reset()
}

func Defaults() []Metric {
	return []Metric{
		NewNetDisplacement(),
		NewPathLength(),
		NewStraightness(),
		NewHeading(),
		NewMeanSpeed(),
		NewCadence(),
	}
}

// Evaluate feeds tr through every metric, with sample i at time (i+1)*dt,
// and returns the values by name.
func Evaluate(tr experiment.Trajectory, dt float64, ms ...Metric) map[string]float64 {
	if len(ms) == 0 {
		ms = Defaults()
	}
	out := make(map[string]float64, len(ms))
	for _, m := range ms {
		m.Reset()
		for i, p := range tr {
			m.Observe(p, float64(i+1)*dt)
		}
		out[m.Name()] = m.Value()
	}
	return out
}

func dist(a, b experiment.Point) float64 {
	return floats.Distance([]float64{a.X, a.Z}, []float64{b.X, b.Z}, 2)
}

// NetDisplacement is the distance from the first to the last sample.
type NetDisplacement struct {
	first, last experiment.Point
	seen        bool
}

func NewNetDisplacement() *NetDisplacement { return &NetDisplacement{} }

func (m *NetDisplacement) Name() string { return "displacement" }

func (m *NetDisplacement) Observe(p experiment.Point, _ float64) {
	if !m.seen {
		m.first, m.seen = p, true
	}
	m.last = p
}

func (m *NetDisplacement) Value() float64 {
	if !m.seen {
		return 0
	}
	return dist(m.first, m.last)
}

func (m *NetDisplacement) Reset() { *m = NetDisplacement{} }

type PathLength struct {
	prev  experiment.Point
	seen  bool
	total float64
}

func NewPathLength() *PathLength { return &PathLength{} }

func (m *PathLength) Name() string { return "path_length" }

func (m *PathLength) Observe(p experiment.Point, _ float64) {
	if m.seen {
		m.total += dist(m.prev, p)
	}
	m.prev, m.seen = p, true
}

func (m *PathLength) Value() float64 { return m.total }

func (m *PathLength) Reset() { *m = PathLength{} }

// Straightness is net displacement over path length, 1 for a straight line.
type Straightness struct {
	net  NetDisplacement
	path PathLength
}

func NewStraightness() *Straightness { return &Straightness{} }

func (m *Straightness) Name() string { return "straightness" }

func (m *Straightness) Observe(p experiment.Point, t float64) {
	m.net.Observe(p, t)
	m.path.Observe(p, t)
}

func (m *Straightness) Value() float64 {
	l := m.path.Value()
	if l == 0 {
		return 0
	}
	return m.net.Value() / l
}

func (m *Straightness) Reset() {
	m.net.Reset()
	m.path.Reset()
}

// Heading is the direction of net travel in degrees, measured from +X
// towards +Z.
type Heading struct {
	net NetDisplacement
}

func NewHeading() *Heading { return &Heading{} }

func (m *Heading) Name() string { return "heading_deg" }

func (m *Heading) Observe(p experiment.Point, t float64) { m.net.Observe(p, t) }

func (m *Heading) Value() float64 {
	if !m.net.seen {
		return 0
	}
	dx := m.net.last.X - m.net.first.X
	dz := m.net.last.Z - m.net.first.Z
	if dx == 0 && dz == 0 {
		return 0
	}
	return math.Atan2(dz, dx) * 180 / math.Pi
}

func (m *Heading) Reset() { m.net.Reset() }

type MeanSpeed struct {
	path PathLength
	t0   float64
	t1   float64
	seen bool
}

func NewMeanSpeed() *MeanSpeed { return &MeanSpeed{} }

func (m *MeanSpeed) Name() string { return "mean_speed" }

func (m *MeanSpeed) Observe(p experiment.Point, t float64) {
	if !m.seen {
		m.t0, m.seen = t, true
	}
	m.t1 = t
	m.path.Observe(p, t)
}

func (m *MeanSpeed) Value() float64 {
	span := m.t1 - m.t0
	if span <= 0 {
		return 0
	}
	return m.path.Value() / span
}

func (m *MeanSpeed) Reset() { *m = MeanSpeed{} }

// Cadence is the dominant frequency of the ground speed, in Hz.
type Cadence struct {
	prev   experiment.Point
	prevT  float64
	seen   bool
	speeds []float64
	dts    []float64
}

func NewCadence() *Cadence { return &Cadence{} }

func (m *Cadence) Name() string { return "cadence_hz" }

func (m *Cadence) Observe(p experiment.Point, t float64) {
	if m.seen && t > m.prevT {
		m.speeds = append(m.speeds, dist(m.prev, p)/(t-m.prevT))
		m.dts = append(m.dts, t-m.prevT)
	}
	m.prev, m.prevT, m.seen = p, t, true
}

func (m *Cadence) Value() float64 {
	if len(m.speeds) < 2 {
		return 0
	}
	return analysis.DominantFrequency(m.speeds, stat.Mean(m.dts, nil))
}

func (m *Cadence) Reset() { *m = Cadence{} }

// Deviation is the mean point-wise distance between two trajectories over
// their common prefix. It is NaN when either is empty.
func Deviation(ref, other experiment.Trajectory) float64 {
	n := min(len(ref), len(other))
	if n == 0 {
		return math.NaN()
	}
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		d[i] = dist(ref[i], other[i])
	}
	return stat.Mean(d, nil)
}

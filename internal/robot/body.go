package robot

import (
	"fmt"
	"math"

	"github.com/san-kum/gaitbench/internal/dynamo"
)

// NumActuators is the number of cable actuators on the body.
const NumActuators = 8

// State layout: cable deviations first, then shell kinematics.
const (
	idxX   = NumActuators
	idxZ   = NumActuators + 1
	idxPX  = NumActuators + 2
	idxPZ  = NumActuators + 3
	idxYaw = NumActuators + 4
	idxY   = NumActuators + 5
	idxVY  = NumActuators + 6

	stateDim = NumActuators + 7
)

// Arms are the ground-plane pull directions of each cable in the body frame
// (x forward, z left).
var Arms = [NumActuators][2]float64{
	{1.0, 0.2},
	{-0.6, 0.5},
	{-0.8, -0.3},
	{0.9, -0.1},
	{0.7, 0.4},
	{-1.0, 0.1},
	{-0.5, -0.6},
	{0.8, -0.2},
}

type BodyParams struct {
	ShellMass   float64
	PayloadMass float64
	// ActuatorTau is the time constant of each cable actuator in seconds.
	ActuatorTau [NumActuators]float64
	// ArmGain converts cable deviation into payload offset (m per unit).
	ArmGain          float64
	FrictionForward  float64
	FrictionBackward float64
	FrictionLateral  float64
	YawGain          float64
	RestHeight       float64
	DropHeight       float64
	HeightStiffness  float64
	HeightDamping    float64
	BobGain          float64
}

func DefaultBodyParams() BodyParams {
	return BodyParams{
		ShellMass:        15.0,
		PayloadMass:      6.0,
		ActuatorTau:      [NumActuators]float64{0.04, 0.05, 0.06, 0.07, 0.04, 0.05, 0.06, 0.07},
		ArmGain:          0.02,
		FrictionForward:  40.0,
		FrictionBackward: 160.0,
		FrictionLateral:  120.0,
		YawGain:          5.0,
		RestHeight:       0.9,
		DropHeight:       1.0,
		HeightStiffness:  400.0,
		HeightDamping:    40.0,
		BobGain:          0.5,
	}
}

// Body implements dynamo.System for the tensegrity robot.
type Body struct {
	p BodyParams
}

func NewBody(p BodyParams) *Body {
	return &Body{p: p}
}

func (b *Body) StateDim() int   { return stateDim }
func (b *Body) ControlDim() int { return NumActuators }

// Validate reports parameters that would make the dynamics meaningless.
func (b *Body) Validate() error {
	if b.p.ShellMass <= 0 || b.p.PayloadMass < 0 {
		return fmt.Errorf("%w: masses must be positive", dynamo.ErrParameterBounds)
	}
	for i, tau := range b.p.ActuatorTau {
		if tau <= 0 {
			return fmt.Errorf("%w: actuator %d time constant %g", dynamo.ErrParameterBounds, i, tau)
		}
	}
	return nil
}

// InitialState places the body at the origin, at drop height, with slack cables.
func (b *Body) InitialState() dynamo.State {
	x := make(dynamo.State, stateDim)
	x[idxY] = b.p.DropHeight
	return x
}

func (b *Body) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	dx := make(dynamo.State, stateDim)

	var ox, oz, wx, wz float64
	for i := 0; i < NumActuators; i++ {
		cmd := 0.0
		if i < len(u) {
			cmd = u[i]
		}
		dl := (cmd - x[i]) / b.p.ActuatorTau[i]
		dx[i] = dl

		ox += x[i] * Arms[i][0]
		oz += x[i] * Arms[i][1]
		wx += dl * Arms[i][0]
		wz += dl * Arms[i][1]
	}
	g := b.p.ArmGain
	ox, oz, wx, wz = ox*g, oz*g, wx*g, wz*g

	yaw := x[idxYaw]
	sin, cos := math.Sin(yaw), math.Cos(yaw)
	wwx := cos*wx - sin*wz
	wwz := sin*wx + cos*wz

	total := b.p.ShellMass + b.p.PayloadMass
	vx := (x[idxPX] - b.p.PayloadMass*wwx) / total
	vz := (x[idxPZ] - b.p.PayloadMass*wwz) / total

	vf := vx*cos + vz*sin
	vl := -vx*sin + vz*cos
	cf := b.p.FrictionForward
	if vf < 0 {
		cf = b.p.FrictionBackward
	}
	ff := -cf * vf
	fl := -b.p.FrictionLateral * vl

	dx[idxX] = vx
	dx[idxZ] = vz
	dx[idxPX] = ff*cos - fl*sin
	dx[idxPZ] = ff*sin + fl*cos
	dx[idxYaw] = b.p.YawGain * (ox*wz - oz*wx)

	target := b.p.RestHeight + b.p.BobGain*math.Hypot(ox, oz)
	dx[idxY] = x[idxVY]
	dx[idxVY] = -b.p.HeightStiffness*(x[idxY]-target) - b.p.HeightDamping*x[idxVY]

	return dx
}

// CenterOfMass returns the world position of the combined shell and payload.
func (b *Body) CenterOfMass(x dynamo.State) dynamo.Vec3 {
	var ox, oz float64
	for i := 0; i < NumActuators; i++ {
		ox += x[i] * Arms[i][0]
		oz += x[i] * Arms[i][1]
	}
	ox, oz = ox*b.p.ArmGain, oz*b.p.ArmGain

	sin, cos := math.Sin(x[idxYaw]), math.Cos(x[idxYaw])
	share := b.p.PayloadMass / (b.p.ShellMass + b.p.PayloadMass)
	return dynamo.Vec3{
		X: x[idxX] + share*(cos*ox-sin*oz),
		Y: x[idxY],
		Z: x[idxZ] + share*(sin*ox+cos*oz),
	}
}

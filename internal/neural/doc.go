// Package neural implements a spiking oscillator controller.
//
// An [Ensemble] of leaky integrate-and-fire neurons represents a 2-D state.
// Its decoders are solved offline by regularised least squares over rate
// tuning curves. The [Oscillator] wires the ensemble back onto itself through
// a low-pass synapse so the represented state rotates at the gait frequency
// with a stable unit radius, then maps the first dimension through the gait
// table onto the robot's actuators.
package neural

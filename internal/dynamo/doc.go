// Package dynamo provides the core simulation primitives shared by the
// robot body, the controllers and the experiment harness.
//
// The package defines:
//
//   - [State]: vector representing system state
//   - [Control]: actuator command vector
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: numerical stepper interface
//   - [Vec3]: a point in the simulated world (Y is up)
//
// # Example
//
//	body := robot.NewBody(robot.DefaultBodyParams())
//	integ := integrators.NewRK4()
//	x = integ.Step(body, x, u, t, dt)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT safe for concurrent use.
package dynamo

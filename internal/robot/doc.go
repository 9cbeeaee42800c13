// Package robot simulates a reduced-order SUPERball-style tensegrity robot
// and exposes it through a fixed-timestep [Driver].
//
// The body is not a full rod-and-cable model. It keeps the parts that matter
// for comparing gaits: eight first-order cable actuators, an internal payload
// whose offset follows the cable lengths, momentum exchange between payload
// and shell, anisotropic ground friction and a height spring. Periodic cable
// commands therefore produce net rolling motion on the ground plane.
package robot

// Package dynamo provides core primitives for integrating dynamical systems.
//
// The package defines the fundamental interfaces and types shared by the
// flight model and the numerical integrators:
//
//   - [State]: vector representing system state
//   - [Control]: vector of control inputs
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator interface
//   - [InterpolatingIntegrator]: integrator whose control varies linearly over a step
//
// # Example
//
//	model := glide.NewModel(params)
//	rk := integrators.NewRK4()
//	next := rk.StepInterpolated(model, x, u0, u1, t, dt)
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Use one
// integrator per goroutine.
package dynamo

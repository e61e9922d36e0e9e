// Package dynamo provides core simulation primitives for first-order
// thermal and control processes.
//
// The package defines the fundamental interfaces and types shared by the
// integrators, the physical models and the environments built on them:
//
//   - [State]: vector representing process state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [Integrator]: fixed-step numerical integrator
//   - [AdaptiveIntegrator]: error-controlled integrator
//   - [Metric] and [Observer]: per-step hooks used by environments
//
// # Example
//
//	can := physics.NewThermalCan(physics.VacCanParams(), ambient)
//	integ := integrators.NewRK4()
//	x, err := integrators.Advance(integ, can, x0, u, t0, 10, dynamo.DefaultConfig())
//
// # Thread Safety
//
// Integrators keep scratch buffers and are NOT thread-safe. Each
// environment owns its own integrator instance.
package dynamo

// Package physics implements the linear shallow-water model integrated by
// the simulation engine.
//
// [ShallowWater] advances a [dynamo.State] one step on the Arakawa C-grid of
// a [mesh.Mesh] using forward-backward time stepping:
//
//   - momentum at every open face from the committed elevation gradient,
//     wind stress and semi-implicit bottom friction
//   - finite-volume continuity from the updated face transports
//   - relaxation of open-boundary cells toward rest
//
// Closed-basin volume is conserved to round-off because fluxes telescope.
//
// # Stability
//
// The scheme is stable while the Courant number
// dt*sqrt(g*H)*sqrt(1/dx² + 1/dy²) stays below one on every wet cell:
//
//	w := physics.NewShallowWater(m, physics.DefaultParams(), nil)
//	dt := w.MaxStableDt(0.8)
package physics

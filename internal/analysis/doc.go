// Package analysis derives renderable diagnostics and spectra from engine
// snapshots.
//
//   - [Extract]: cell-centered field (elevation, speed, u, v, vorticity,
//     depth) from a state
//   - [Gauge]: tide gauge recording elevation at one cell every step
//   - [DominantPeriod]: strongest oscillation period of a time series, used
//     to estimate basin seiche periods
//
// # Seiche Detection
//
//	g, _ := analysis.NewGauge(m, i, j)
//	simulator.AddObserver(g)
//	// ... run ...
//	period, err := g.Period()
package analysis

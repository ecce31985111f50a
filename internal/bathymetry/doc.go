// Package bathymetry ingests seabed elevation data and exposes it as an
// immutable [Grid] with a land/sea mask.
//
// Data arrives through a [Provider]. [Load] falls back to [DefaultBasin]
// when no provider is configured or the provider reports no data, so a run
// always has something to simulate. [NetCDF] reads GEBCO-style files.
package bathymetry

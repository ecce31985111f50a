// Package viz provides terminal views of ocean simulation runs.
//
//   - [FieldMap]: half-block color map of a cell-centered field
//   - [Plot]: asciigraph line chart of a diagnostic series
//   - [WatchModel]: Bubble Tea view following a run in progress
//   - [RenderPanel]: lipgloss summary panels for results and stored runs
//
// # Key Bindings
//
//	q, ctrl+c - Cancel the run and quit
//	p         - Toggle the field preview
package viz

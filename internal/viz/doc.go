// Package viz renders solver output for the terminal.
//
//   - [RenderSolution]: lipgloss-styled solution table
//   - [ResidualPlot], [ValuePlot]: asciigraph charts of a run
//   - [Progress]: Bubble Tea model that follows a solve sweep by sweep
//
// # Key Bindings
//
//	q, Ctrl+C - leave the progress view
package viz

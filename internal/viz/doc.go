// Package viz renders simulation output for the terminal.
//
// Time series go through asciigraph ([PlotSeries]) sized to the terminal. Phase
// portraits are drawn on a braille [Canvas] where every cell holds 2x4 dots.
// Colors come from the active [Theme]; lipgloss styles in styles.go are shared
// with the interactive viewer.
package viz

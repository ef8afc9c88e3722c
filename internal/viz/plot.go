package viz

import (
	"os"

	"github.com/guptarohit/asciigraph"
	"golang.org/x/term"
)

type PlotOptions struct {
	// Width of the plot area in columns; zero fits the terminal.
	Width   int
	Height  int
	Caption string
	Theme   *Theme
}

// axisMargin is the room asciigraph takes for the value labels.
const axisMargin = 14

// TermWidth reports the width of the terminal on stdout, or fallback when
// stdout is not a terminal.
func TermWidth(fallback int) int {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return fallback
	}
	w, _, err := term.GetSize(fd)
	if err != nil || w <= 0 {
		return fallback
	}
	return w
}

// PlotSeries draws every series on one set of axes, each in its own theme
// color and labelled in a legend when names are given. Empty series are
// skipped; it returns "" when none remain.
func PlotSeries(names []string, series [][]float64, opts PlotOptions) string {
	var data [][]float64
	var legends []string
	for i, s := range series {
		if len(s) == 0 {
			continue
		}
		data = append(data, s)
		if i < len(names) {
			legends = append(legends, names[i])
		}
	}
	if len(data) == 0 {
		return ""
	}

	width := opts.Width
	if width <= 0 {
		width = max(TermWidth(80)-axisMargin, 20)
	}
	height := opts.Height
	if height <= 0 {
		height = 10
	}
	theme := CurrentTheme
	if opts.Theme != nil {
		theme = *opts.Theme
	}

	options := []asciigraph.Option{
		asciigraph.Width(width),
		asciigraph.Height(height),
		asciigraph.SeriesColors(theme.SeriesColors(len(data))...),
	}
	if opts.Caption != "" {
		options = append(options, asciigraph.Caption(opts.Caption))
	}
	if len(legends) == len(data) && len(data) > 1 {
		options = append(options, asciigraph.SeriesLegends(legends...))
	}
	return asciigraph.PlotMany(data, options...)
}

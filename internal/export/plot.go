package export

import (
	"fmt"
	"path/filepath"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

const (
	figWidth  = 7 * vg.Inch
	figHeight = 4 * vg.Inch
)

// Formats lists the file extensions SeriesPlot can write.
var Formats = []string{".svg", ".png", ".pdf", ".eps"}

// SeriesPlot draws one line per column against times and saves it to path.
// The image format follows the extension.
func SeriesPlot(path, title, ylabel string, names []string, times []float64, columns [][]float64) error {
	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, f := range Formats {
		supported = supported || f == ext
	}
	if !supported {
		return fmt.Errorf("export: unsupported image format %q", ext)
	}
	if len(names) != len(columns) {
		return fmt.Errorf("export: %d names for %d columns", len(names), len(columns))
	}

	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = "time"
	p.Y.Label.Text = ylabel
	p.Add(plotter.NewGrid())

	for i, col := range columns {
		if len(col) != len(times) {
			return fmt.Errorf("export: column %s has %d rows, want %d", names[i], len(col), len(times))
		}
		xys := make(plotter.XYs, len(times))
		for t := range times {
			xys[t].X = times[t]
			xys[t].Y = col[t]
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("export: %s: %w", names[i], err)
		}
		line.Color = plotutil.Color(i)
		line.Dashes = plotutil.Dashes(i / len(plotutil.DefaultColors))
		p.Add(line)
		p.Legend.Add(names[i], line)
	}
	p.Legend.Top = true

	return p.Save(figWidth, figHeight, path)
}

package export

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/kinsim/internal/viz"
)

func TestCanvasToSVG(t *testing.T) {
	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)

	var buf bytes.Buffer
	require.NoError(t, CanvasToSVG(&buf, c, 10, "#000000", "#00ff00"))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Contains(t, out, `width="40" height="40"`)
	assert.Equal(t, 2, strings.Count(out, "<circle"))
	assert.Contains(t, out, `<circle cx="5.0" cy="5.0" r="4.0"/>`)
	assert.Contains(t, out, `<circle cx="35.0" cy="35.0" r="4.0"/>`)

	assert.Error(t, CanvasToSVG(&buf, nil, 1, "", ""))
}

func TestSeriesPlot(t *testing.T) {
	dir := t.TempDir()
	times := []float64{0, 1, 2, 3}
	cols := [][]float64{{1, 0.5, 0.25, 0.125}, {0, 0.5, 0.75, 0.875}}

	path := filepath.Join(dir, "iso.svg")
	require.NoError(t, SeriesPlot(path, "isomerization", "concentration", []string{"A", "B"}, times, cols))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "<svg")

	png := filepath.Join(dir, "iso.png")
	require.NoError(t, SeriesPlot(png, "isomerization", "concentration", []string{"A", "B"}, times, cols))
	info, err := os.Stat(png)
	require.NoError(t, err)
	assert.Positive(t, info.Size())
}

func TestSeriesPlotErrors(t *testing.T) {
	dir := t.TempDir()
	times := []float64{0, 1}

	assert.Error(t, SeriesPlot(filepath.Join(dir, "x.gif"), "", "", []string{"A"}, times, [][]float64{{1, 2}}))
	assert.Error(t, SeriesPlot(filepath.Join(dir, "x.svg"), "", "", []string{"A", "B"}, times, [][]float64{{1, 2}}))
	assert.Error(t, SeriesPlot(filepath.Join(dir, "x.svg"), "", "", []string{"A"}, times, [][]float64{{1}}))
}

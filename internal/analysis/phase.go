package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/kinsim/internal/trajectory"
)

type Point struct{ X, Y float64 }

// PhasePortrait holds one species plotted against another over a run.
type PhasePortrait struct {
	XIndex, YIndex int
	Points         []Point
}

// NewPhasePortrait pairs species x and y at every stored step. It returns
// nil for an index outside the network.
func NewPhasePortrait(st *trajectory.Store, x, y int) *PhasePortrait {
	last := st.Last()
	if last == nil || x < 0 || y < 0 || x >= last.Species.Cols() || y >= last.Species.Cols() {
		return nil
	}
	_, xs := st.Series(x)
	_, ys := st.Series(y)
	p := &PhasePortrait{XIndex: x, YIndex: y, Points: make([]Point, len(xs))}
	for k := range xs {
		p.Points[k] = Point{X: xs[k], Y: ys[k]}
	}
	return p
}

// ToASCII draws the portrait on a width×height character canvas.
func (p *PhasePortrait) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width <= 0 || height <= 0 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			canvas[row][col] = '│'
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			canvas[row][col] = '─'
		}
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/rangeY*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

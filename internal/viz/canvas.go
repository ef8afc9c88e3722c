package viz

import (
	"math"
	"strings"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleEmpty = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set turns on the dot at sub-pixel (x, y). The canvas is Width*2 by
// Height*4 sub-pixels with y growing downwards.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

// Get reports whether the dot at sub-pixel (x, y) is on.
func (c *Canvas) Get(x, y int) bool {
	if x < 0 || y < 0 {
		return false
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return false
	}
	return c.Grid[row][col]&rune(pixelMap[y%4][x%2]) != 0
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleEmpty
		}
	}
}

// DrawLine draws a line using Bresenham's algorithm
func (c *Canvas) DrawLine(x0, y0, x1, y1 int) {
	dx := absInt(x1 - x0)
	dy := absInt(y1 - y0)
	sx := -1
	if x0 < x1 {
		sx = 1
	}
	sy := -1
	if y0 < y1 {
		sy = 1
	}
	err := dx - dy

	for {
		c.Set(x0, y0)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x0 += sx
		}
		if e2 < dx {
			err += dx
			y0 += sy
		}
	}
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// PlotXY connects consecutive (xs[k], ys[k]) points on a w×h cell canvas,
// scaled to the data bounds. It returns the canvas and the bounds used.
func PlotXY(xs, ys []float64, w, h int) (c *Canvas, minX, maxX, minY, maxY float64) {
	c = NewCanvas(w, h)
	n := min(len(xs), len(ys))
	if n == 0 || w <= 0 || h <= 0 {
		return c, 0, 0, 0, 0
	}

	minX, maxX = math.Inf(1), math.Inf(-1)
	minY, maxY = math.Inf(1), math.Inf(-1)
	for k := 0; k < n; k++ {
		minX, maxX = math.Min(minX, xs[k]), math.Max(maxX, xs[k])
		minY, maxY = math.Min(minY, ys[k]), math.Max(maxY, ys[k])
	}
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}

	px := func(x float64) int { return int(math.Round((x - minX) / rangeX * float64(w*2-1))) }
	py := func(y float64) int { return h*4 - 1 - int(math.Round((y-minY)/rangeY*float64(h*4-1))) }

	x0, y0 := px(xs[0]), py(ys[0])
	c.Set(x0, y0)
	for k := 1; k < n; k++ {
		x1, y1 := px(xs[k]), py(ys[k])
		c.DrawLine(x0, y0, x1, y1)
		x0, y0 = x1, y1
	}
	return c, minX, maxX, minY, maxY
}

func absInt(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

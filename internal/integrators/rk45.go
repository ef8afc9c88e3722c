package integrators

import (
	"context"

	"github.com/san-kum/kinsim/internal/trajectory"
)

// Runge-Kutta-Fehlberg 4(5) tableau.
var (
	fehlbergStages = [][]float64{
		{0.25},
		{0.09375, 0.28125},
		{1932.0 / 2197.0, -7200.0 / 2197.0, 7296.0 / 2197.0},
		{439.0 / 216.0, -8.0, 3680.0 / 513.0, -845.0 / 4104.0},
		{-8.0 / 27.0, 2.0, -3544.0 / 2565.0, 1859.0 / 4104.0, -0.275},
	}

	// fifth-order weights
	fehlbergHigh = []float64{16.0 / 135.0, 0, 6656.0 / 12825.0, 28561.0 / 56430.0, -0.18, 2.0 / 55.0}
	// embedded fourth-order weights
	fehlbergLow = []float64{25.0 / 216.0, 0, 1408.0 / 2565.0, 2197.0 / 4104.0, -0.2, 0}
)

// RK45 advances with the fifth-order Fehlberg solution on a uniform grid.
type RK45 struct {
	w workspace
}

func NewRK45() *RK45 {
	return &RK45{}
}

func (r *RK45) Method() Method { return MethodRK45 }

func (r *RK45) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	return runFixed(ctx, c, tr, &r.w, 6, func(c *Context, w *workspace, x0, x1, e0, e1 []float64, h, tf float64) int {
		clamped := fehlbergEval(c, w, x0, h, tf)
		accumulate(e1, e0, fehlbergHigh, w.ke)
		return clamped + c.combine(x1, x0, fehlbergHigh, w.k, tf)
	})
}

// fehlbergEval evaluates all six stages into w.k and w.ke. Forced species
// take their value at tf in every stage.
func fehlbergEval(c *Context, w *workspace, x0 []float64, h, tf float64) int {
	clamped := 0
	w.slope(c, x0, h, 0)
	for s, a := range fehlbergStages {
		clamped += c.combine(w.x, x0, a, w.k, tf)
		w.slope(c, w.x, h, s+1)
	}
	return clamped
}

package integrators

import (
	"context"

	"github.com/san-kum/kinsim/internal/trajectory"
)

// RK4 is the classical four-stage Runge-Kutta method.
type RK4 struct {
	w workspace
}

func NewRK4() *RK4 {
	return &RK4{}
}

func (r *RK4) Method() Method { return MethodRK4 }

func (r *RK4) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	return runFixed(ctx, c, tr, &r.w, 4, rk4Step)
}

var (
	rk4Stages = [][]float64{
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	}
	rk4Weights = []float64{1.0 / 6.0, 1.0 / 3.0, 1.0 / 3.0, 1.0 / 6.0}
)

func rk4Step(c *Context, w *workspace, x0, x1, e0, e1 []float64, h, tf float64) int {
	clamped := 0
	w.slope(c, x0, h, 0)
	for s, a := range rk4Stages {
		clamped += c.combine(w.x, x0, a, w.k, tf)
		w.slope(c, w.x, h, s+1)
	}
	accumulate(e1, e0, rk4Weights, w.ke)
	return clamped + c.combine(x1, x0, rk4Weights, w.k, tf)
}

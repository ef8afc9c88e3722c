package integrators

import (
	"context"

	"github.com/san-kum/kinsim/internal/trajectory"
)

// Euler is the explicit first-order method x[t] = x[t-1] + h·f(x[t-1]).
type Euler struct {
	w workspace
}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Method() Method { return MethodEuler }

func (e *Euler) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	return runFixed(ctx, c, tr, &e.w, 1, eulerStep)
}

var eulerWeights = []float64{1}

func eulerStep(c *Context, w *workspace, x0, x1, e0, e1 []float64, h, tf float64) int {
	w.slope(c, x0, h, 0)
	accumulate(e1, e0, eulerWeights, w.ke)
	return c.combine(x1, x0, eulerWeights, w.k, tf)
}

// ModifiedEuler is Heun's predictor-corrector method.
type ModifiedEuler struct {
	w workspace
}

func NewModifiedEuler() *ModifiedEuler {
	return &ModifiedEuler{}
}

func (m *ModifiedEuler) Method() Method { return MethodModifiedEuler }

func (m *ModifiedEuler) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	return runFixed(ctx, c, tr, &m.w, 2, modifiedEulerStep)
}

var heunWeights = []float64{0.5, 0.5}

func modifiedEulerStep(c *Context, w *workspace, x0, x1, e0, e1 []float64, h, tf float64) int {
	w.slope(c, x0, h, 0)
	clamped := c.combine(w.x, x0, eulerWeights, w.k[:1], tf)
	w.slope(c, w.x, h, 1)
	accumulate(e1, e0, heunWeights, w.ke)
	return clamped + c.combine(x1, x0, heunWeights, w.k, tf)
}

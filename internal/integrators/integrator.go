// Package integrators advances reaction networks through one integration
// window at a time.
//
// Every method reads row 0 of a [trajectory.Trajectory] (already seeded) and
// fills rows 1..Top. Free species follow their rate equation and are clamped
// at zero after every stage. Held species repeat their previous value.
// Forced species take the value of the network's pulse schedule: fixed-step
// methods sample it at the committed step time, the adaptive method at the
// trial time of the step being attempted.
package integrators

import (
	"context"
	"fmt"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/san-kum/kinsim/internal/jacobian"
	"github.com/san-kum/kinsim/internal/trajectory"
)

type Integrator interface {
	Method() Method
	Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error)
}

// Stats summarizes the work done for one window.
type Stats struct {
	Accepted         int
	Rejected         int
	Evaluations      int
	NewtonIterations int
	Clamped          int
	// Truncated is set when an adaptive window stopped short of its end.
	Truncated bool
	Reached   float64
}

// Context carries the network-wide state shared by every window of a run.
type Context struct {
	Net      *chem.Network
	Eval     *chem.Evaluator
	RunStart float64
	Window   int

	forced   int
	schedule *forcing.Schedule
	jac      *jacobian.Prepared
}

func NewContext(net *chem.Network, runStart float64) *Context {
	return &Context{
		Net:      net,
		Eval:     chem.NewEvaluator(net),
		RunStart: runStart,
		forced:   net.Forced(),
		schedule: net.Schedule(),
	}
}

// Jacobian prepares the symbolic Jacobian on first use.
func (c *Context) Jacobian() *jacobian.Prepared {
	if c.jac == nil {
		c.jac = jacobian.Prepare(c.Net)
	}
	return c.jac
}

// ForcedValue returns the forced species' concentration at absolute time t.
func (c *Context) ForcedValue(t float64) float64 {
	return c.schedule.Value(t-c.RunStart, c.Net.Species[c.forced].Initial)
}

// combine writes base + Σ coefs[k]·ks[k] into dst for free species, clamping
// at zero. Held species copy base, forced species take their value at tf.
// It returns the number of clamped components.
func (c *Context) combine(dst, base []float64, coefs []float64, ks [][]float64, tf float64) int {
	clamped := 0
	for i := range dst {
		switch c.Net.Species[i].Fix {
		case chem.Free:
			v := base[i]
			for k, coef := range coefs {
				if coef != 0 {
					v += coef * ks[k][i]
				}
			}
			if v < 0 {
				v = 0
				clamped++
			}
			dst[i] = v
		case chem.Held:
			dst[i] = base[i]
		default:
			dst[i] = c.ForcedValue(tf)
		}
	}
	return clamped
}

// accumulate writes base + Σ coefs[k]·ks[k] into dst without clamping.
// It is a no-op on a nil dst when extents are not tracked.
func accumulate(dst, base []float64, coefs []float64, ks [][]float64) {
	if dst == nil {
		return
	}
	for i := range dst {
		v := base[i]
		for k, coef := range coefs {
			if coef != 0 {
				v += coef * ks[k][i]
			}
		}
		dst[i] = v
	}
}

// workspace holds stage buffers shared by the explicit methods.
type workspace struct {
	k     [][]float64
	ke    [][]float64
	x     []float64
	rate  []float64
	vfor  []float64
	vbak  []float64
	evals int
}

func (w *workspace) ensure(n, m, stages int) {
	if len(w.k) == stages && len(w.x) == n && len(w.vfor) == m {
		return
	}
	w.k = make([][]float64, stages)
	w.ke = make([][]float64, stages)
	for s := range w.k {
		w.k[s] = make([]float64, n)
		w.ke[s] = make([]float64, m)
	}
	w.x = make([]float64, n)
	w.rate = make([]float64, n)
	w.vfor = make([]float64, m)
	w.vbak = make([]float64, m)
}

// slope stores h·f(x) into k[s] and h·(vfor-vbak) into ke[s].
func (w *workspace) slope(c *Context, x []float64, h float64, s int) {
	c.Eval.Eval(x, w.vfor, w.vbak, w.rate)
	w.evals++
	for i, r := range w.rate {
		w.k[s][i] = h * r
	}
	for r := range w.vfor {
		w.ke[s][r] = h * (w.vfor[r] - w.vbak[r])
	}
}

func checkWindow(tr *trajectory.Trajectory) error {
	if tr.Steps < 1 || !(tr.End > tr.Start) {
		return fmt.Errorf("%w: %d steps over [%g, %g]", ErrInvalidWindow, tr.Steps, tr.Start, tr.End)
	}
	return nil
}

// fillHeld repeats held species down every row before integration.
func fillHeld(c *Context, tr *trajectory.Trajectory) {
	for i, s := range c.Net.Species {
		if s.Fix != chem.Held {
			continue
		}
		v := tr.Species.At(0, i)
		for t := 1; t < tr.Species.Rows(); t++ {
			tr.Species.Set(t, i, v)
		}
	}
}

// explicitStep computes row t from row t-1 of a uniform window.
type explicitStep func(c *Context, w *workspace, x0, x1, e0, e1 []float64, h, tf float64) int

// runFixed drives a fixed-step explicit method over a whole window.
func runFixed(ctx context.Context, c *Context, tr *trajectory.Trajectory, w *workspace, stages int, step explicitStep) (Stats, error) {
	var st Stats
	if err := checkWindow(tr); err != nil {
		return st, err
	}
	w.ensure(c.Net.NumSpecies(), c.Net.NumReactions(), stages)
	w.evals = 0
	fillHeld(c, tr)

	h := tr.Dt
	for t := 1; t <= tr.Steps; t++ {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		default:
		}

		var e0, e1 []float64
		if tr.Extents != nil {
			e0, e1 = tr.Extents.Row(t-1), tr.Extents.Row(t)
		}
		tf := tr.Start + float64(t)*h
		st.Clamped += step(c, w, tr.Species.Row(t-1), tr.Species.Row(t), e0, e1, h, tf)
		st.Accepted++
	}
	st.Evaluations = w.evals
	st.Reached = tr.End
	tr.Finish(tr.Steps)
	return st, nil
}

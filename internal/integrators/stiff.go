package integrators

import (
	"context"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/jacobian"
	"github.com/san-kum/kinsim/internal/linalg"
	"github.com/san-kum/kinsim/internal/trajectory"
)

type NewtonOptions struct {
	// Tolerance bounds the largest component change between iterates.
	Tolerance     float64 `yaml:"tol" toml:"tol" json:"tol"`
	MaxIterations int     `yaml:"max_iter" toml:"max_iter" json:"max_iter"`
}

func DefaultNewtonOptions() NewtonOptions {
	return NewtonOptions{Tolerance: 1e-3, MaxIterations: 100}
}

// Stiff takes one implicit Euler step then second-order backward
// differentiation steps, each solved by Newton iteration on (I - γhJ)δ = -F.
type Stiff struct {
	opts NewtonOptions

	n     int
	jac   *linalg.Dense
	iter  *linalg.Dense
	gauss *linalg.Gauss
	rate  []float64
	rhs   []float64
	base  []float64
	delta []float64
	flux  []float64
}

func NewStiff(opts NewtonOptions) *Stiff {
	def := DefaultNewtonOptions()
	if opts.Tolerance <= 0 {
		opts.Tolerance = def.Tolerance
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = def.MaxIterations
	}
	return &Stiff{opts: opts}
}

func (s *Stiff) Method() Method { return MethodStiff }

func (s *Stiff) Options() NewtonOptions { return s.opts }

func (s *Stiff) ensure(n, m int) {
	if s.n == n && len(s.flux) == m {
		return
	}
	s.n = n
	s.jac = linalg.NewDense(n)
	s.iter = linalg.NewDense(n)
	s.gauss = linalg.NewGauss(n)
	s.rate = make([]float64, n)
	s.rhs = make([]float64, n)
	s.base = make([]float64, n)
	s.delta = make([]float64, n)
	s.flux = make([]float64, m)
}

func (s *Stiff) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	var st Stats
	if err := checkWindow(tr); err != nil {
		return st, err
	}
	n, m := c.Net.NumSpecies(), c.Net.NumReactions()
	s.ensure(n, m)
	fillHeld(c, tr)
	jp := c.Jacobian()
	h := tr.Dt

	for t := 1; t <= tr.Steps; t++ {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		tf := tr.Start + float64(t)*h
		y := tr.Species.Row(t)
		prev := tr.Species.Row(t - 1)

		// BDF1: y - y0 - h·f(y) = 0
		// BDF2: y - 4/3·y1 + 1/3·y0 - 2/3·h·f(y) = 0
		gamma := 1.0
		if t == 1 {
			copy(s.base, prev)
		} else {
			gamma = 2.0 / 3.0
			older := tr.Species.Row(t - 2)
			for i := range s.base {
				s.base[i] = 4.0/3.0*prev[i] - 1.0/3.0*older[i]
			}
		}

		for i, sp := range c.Net.Species {
			switch {
			case sp.Fix == chem.Free:
				y[i] = prev[i]
			case sp.Fix.Forced():
				y[i] = c.ForcedValue(tf)
			}
		}

		its, converged, err := s.newton(c, jp, y, gamma*h)
		st.NewtonIterations += its
		st.Evaluations += its
		if err != nil {
			return st, fmt.Errorf("window %d step %d (t=%.6g): %w", c.Window, t, tf, err)
		}
		if !converged {
			return st, &NonConvergenceError{Window: c.Window, Step: t, Time: tf, Iterations: its}
		}
		for i := range y {
			if c.Net.Free(i) && y[i] < 0 {
				y[i] = 0
				st.Clamped++
			}
		}

		if tr.Extents != nil {
			s.extents(c, tr, t, h)
		}
		st.Accepted++
	}
	st.Reached = tr.End
	tr.Finish(tr.Steps)
	return st, nil
}

// newton iterates y toward F(y) = y - base - gh·f(y) = 0 in place.
func (s *Stiff) newton(c *Context, jp *jacobian.Prepared, y []float64, gh float64) (int, bool, error) {
	for it := 1; it <= s.opts.MaxIterations; it++ {
		c.Eval.Derive(y, s.rate)
		jp.Evaluate(y, s.jac)
		s.iter.SetIdentityMinus(gh, s.jac)
		for i := range y {
			if c.Net.Free(i) {
				s.rhs[i] = -(y[i] - s.base[i] - gh*s.rate[i])
			} else {
				s.iter.SetIdentityRow(i)
				s.rhs[i] = 0
			}
		}
		if err := s.gauss.Factor(s.iter); err != nil {
			return it, false, err
		}
		if err := s.gauss.Solve(s.rhs, s.delta); err != nil {
			return it, false, err
		}
		floats.Add(y, s.delta)
		if floats.Norm(s.delta, math.Inf(1)) < s.opts.Tolerance {
			return it, true, nil
		}
	}
	return s.opts.MaxIterations, false, nil
}

// extents applies the same backward differentiation to reaction extents,
// using the net fluxes at the converged state.
func (s *Stiff) extents(c *Context, tr *trajectory.Trajectory, t int, h float64) {
	c.Eval.NetFlux(tr.Species.Row(t), s.flux)
	e := tr.Extents.Row(t)
	e1 := tr.Extents.Row(t - 1)
	if t == 1 {
		for r := range e {
			e[r] = e1[r] + h*s.flux[r]
		}
		return
	}
	e0 := tr.Extents.Row(t - 2)
	for r := range e {
		e[r] = 4.0/3.0*e1[r] - 1.0/3.0*e0[r] + 2.0/3.0*h*s.flux[r]
	}
}

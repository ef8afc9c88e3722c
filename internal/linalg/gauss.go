package linalg

import (
	"errors"
	"fmt"
	"math"
)

var ErrSingular = errors.New("linalg: singular system")

// PivotTolerance is the smallest scaled pivot |a[p][k]|/scale[p] accepted
// before a system is reported singular.
var PivotTolerance = 1e-14

// Gauss holds the factorization of one matrix: elimination multipliers
// stored in place of the eliminated entries, the row scale factors and the
// pivot order. Rows are never moved; index[k] names the pivot row of step k.
type Gauss struct {
	n     int
	a     *Dense
	index []int
	scale []float64
	work  []float64
}

func NewGauss(n int) *Gauss {
	return &Gauss{
		n:     n,
		index: make([]int, n),
		scale: make([]float64, n),
		work:  make([]float64, n),
	}
}

// Factor eliminates a in place. a must stay untouched until the last Solve.
func (g *Gauss) Factor(a *Dense) error {
	n := a.N()
	if n != g.n {
		return fmt.Errorf("linalg: matrix is %dx%d, solver sized for %d", n, n, g.n)
	}
	g.a = a

	for i := 0; i < n; i++ {
		g.index[i] = i
		smax := 0.0
		for _, v := range a.Row(i) {
			smax = math.Max(smax, math.Abs(v))
		}
		if smax == 0 || math.IsNaN(smax) {
			return fmt.Errorf("%w: row %d is zero", ErrSingular, i+1)
		}
		g.scale[i] = smax
	}

	for k := 0; k < n; k++ {
		rmax := 0.0
		j := k
		for i := k; i < n; i++ {
			p := g.index[i]
			r := math.Abs(a.At(p, k)) / g.scale[p]
			if r > rmax {
				rmax = r
				j = i
			}
		}
		if !(rmax > PivotTolerance) {
			return fmt.Errorf("%w: pivot %d is %g", ErrSingular, k+1, rmax)
		}
		g.index[j], g.index[k] = g.index[k], g.index[j]

		pk := g.index[k]
		pivot := a.At(pk, k)
		for i := k + 1; i < n; i++ {
			p := g.index[i]
			mult := a.At(p, k) / pivot
			a.Set(p, k, mult)
			if mult == 0 {
				continue
			}
			for c := k + 1; c < n; c++ {
				a.Add(p, c, -mult*a.At(pk, c))
			}
		}
	}
	return nil
}

// Solve writes the solution of A·x = b into x using the last factorization.
// b is not modified.
func (g *Gauss) Solve(b, x []float64) error {
	if g.a == nil {
		return errors.New("linalg: solve before factor")
	}
	n := g.n
	a := g.a
	w := g.work
	copy(w, b)

	for k := 0; k < n-1; k++ {
		pk := g.index[k]
		for i := k + 1; i < n; i++ {
			p := g.index[i]
			w[p] -= a.At(p, k) * w[pk]
		}
	}

	for i := n - 1; i >= 0; i-- {
		p := g.index[i]
		sum := w[p]
		for j := i + 1; j < n; j++ {
			sum -= a.At(p, j) * x[j]
		}
		x[i] = sum / a.At(p, i)
	}

	for i := 0; i < n; i++ {
		if math.IsNaN(x[i]) || math.IsInf(x[i], 0) {
			return fmt.Errorf("%w: non-finite solution component %d", ErrSingular, i+1)
		}
	}
	return nil
}

// SolveDense factors a copy of a and solves for b. It is a convenience for
// one-shot systems.
func SolveDense(a *Dense, b []float64) ([]float64, error) {
	work := NewDense(a.N())
	work.CopyFrom(a)
	g := NewGauss(a.N())
	if err := g.Factor(work); err != nil {
		return nil, err
	}
	x := make([]float64, a.N())
	if err := g.Solve(b, x); err != nil {
		return nil, err
	}
	return x, nil
}

package integrators

import (
	"context"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/trajectory"
)

type AdaptiveOptions struct {
	// EpsMax is the largest accepted local error; larger steps are halved.
	EpsMax float64 `yaml:"eps_max" toml:"eps_max" json:"eps_max"`
	// EpsMin is the error below which the next step doubles.
	EpsMin      float64 `yaml:"eps_min" toml:"eps_min" json:"eps_min"`
	InitialStep float64 `yaml:"h_init" toml:"h_init" json:"h_init"`
	MaxStep     float64 `yaml:"h_max" toml:"h_max" json:"h_max"`
	// MaxSteps lowers the cap on accepted steps per window below the
	// window's declared step count. Zero keeps the declared count.
	MaxSteps int `yaml:"max_steps" toml:"max_steps" json:"max_steps"`
	// MaxIterations caps trial steps per window. Zero means twice the
	// nominal step count.
	MaxIterations int `yaml:"max_iterations" toml:"max_iterations" json:"max_iterations"`
	// EndTolerance is relative to the window end time.
	EndTolerance float64 `yaml:"end_tolerance" toml:"end_tolerance" json:"end_tolerance"`
}

func DefaultAdaptiveOptions() AdaptiveOptions {
	return AdaptiveOptions{
		EpsMax:       1e-6,
		EpsMin:       1e-13,
		InitialStep:  0.001,
		MaxStep:      0.25,
		EndTolerance: 5e-6,
	}
}

// finalAttempts is how many rejected steps clipped to the window end are
// tolerated before the clipped step is accepted regardless of its error.
const finalAttempts = 2

// Adaptive is the Fehlberg method with step doubling and halving. Accepted
// steps land at non-uniform times, recorded in the trajectory.
type Adaptive struct {
	opts   AdaptiveOptions
	w      workspace
	hi, lo []float64
}

func NewAdaptive(opts AdaptiveOptions) *Adaptive {
	def := DefaultAdaptiveOptions()
	if opts.EpsMax <= 0 {
		opts.EpsMax = def.EpsMax
	}
	if opts.EpsMin < 0 {
		opts.EpsMin = def.EpsMin
	}
	if opts.InitialStep <= 0 {
		opts.InitialStep = def.InitialStep
	}
	if opts.MaxStep <= 0 {
		opts.MaxStep = def.MaxStep
	}
	if opts.EndTolerance <= 0 {
		opts.EndTolerance = def.EndTolerance
	}
	return &Adaptive{opts: opts}
}

func (a *Adaptive) Method() Method { return MethodRK45Adaptive }

func (a *Adaptive) Options() AdaptiveOptions { return a.opts }

func (a *Adaptive) Integrate(ctx context.Context, c *Context, tr *trajectory.Trajectory) (Stats, error) {
	var st Stats
	if err := checkWindow(tr); err != nil {
		return st, err
	}
	n, m := c.Net.NumSpecies(), c.Net.NumReactions()
	a.w.ensure(n, m, 6)
	a.w.evals = 0
	if len(a.hi) != n {
		a.hi = make([]float64, n)
		a.lo = make([]float64, n)
	}

	maxIter := a.opts.MaxIterations
	if maxIter <= 0 {
		maxIter = 2 * tr.Steps
	}
	tol := a.opts.EndTolerance * math.Abs(tr.End)
	if tr.End == 0 {
		tol = a.opts.EndTolerance * (tr.End - tr.Start)
	}

	maxAccepted := tr.Steps
	if a.opts.MaxSteps > 0 {
		maxAccepted = min(maxAccepted, a.opts.MaxSteps)
	}

	t := tr.Start
	h := math.Min(a.opts.InitialStep, tr.End-tr.Start)
	row := 0
	clippedRejects := 0
	tr.Adaptive = true

	for iter := 0; ; iter++ {
		if t >= tr.End-tol {
			st.Reached = t
			break
		}
		if iter >= maxIter || st.Accepted >= maxAccepted {
			st.Truncated = true
			break
		}
		if err := ctx.Err(); err != nil {
			tr.Finish(row)
			return st, err
		}

		clipped := false
		if t+h > tr.End {
			h = tr.End - t
			clipped = true
		}
		tc := t + h
		x0 := tr.Species.Row(row)

		st.Clamped += fehlbergEval(c, &a.w, x0, h, tc)
		st.Clamped += c.combine(a.hi, x0, fehlbergHigh, a.w.k, tc)
		c.combine(a.lo, x0, fehlbergLow, a.w.k, tc)
		eps := floats.Distance(a.hi, a.lo, math.Inf(1))

		if !(eps <= a.opts.EpsMax) {
			st.Rejected++
			if clipped {
				clippedRejects++
			}
			if !clipped || clippedRejects < finalAttempts {
				h /= 2
				continue
			}
		}

		if err := tr.Grow(row + 1); err != nil {
			st.Truncated = true
			break
		}
		row++
		copy(tr.Species.Row(row), a.hi)
		if tr.Extents != nil {
			accumulate(tr.Extents.Row(row), tr.Extents.Row(row-1), fehlbergHigh, a.w.ke)
		}
		tr.Times[row] = tc
		t = tc
		st.Accepted++
		st.Reached = t

		if eps < a.opts.EpsMin {
			h = math.Min(2*h, a.opts.MaxStep)
		}
	}

	st.Evaluations = a.w.evals
	tr.Finish(row)
	return st, nil
}

package sim

import (
	"fmt"
	"time"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/trajectory"
)

type Config struct {
	Method integrators.Method
	Start  float64
	End    float64
	// Steps is applied to every window, not spread across them.
	Steps int
	// Diagnostics enables reaction extent tracking.
	Diagnostics bool
	// MaxRows caps the rows an adaptive window may grow to. Zero is unlimited.
	MaxRows       int
	ValidateState bool
	Integrator    integrators.Options
}

func DefaultConfig() Config {
	return Config{
		Method:        integrators.MethodRK4,
		Start:         0,
		End:           10,
		Steps:         1000,
		Diagnostics:   true,
		ValidateState: true,
		Integrator:    integrators.DefaultOptions(),
	}
}

// Warning is a non-fatal condition. Adaptive windows that stop short of
// their end time produce one.
type Warning struct {
	Window         int
	Achieved       float64
	Requested      float64
	AchievedSteps  int
	RequestedSteps int
}

func (w Warning) String() string {
	return fmt.Sprintf("window %d stopped at t=%.6g of %.6g after %d of %d steps",
		w.Window, w.Achieved, w.Requested, w.AchievedSteps, w.RequestedSteps)
}

type Result struct {
	Network  *chem.Network
	Config   Config
	Windows  []Window
	Store    *trajectory.Store
	Stats    []integrators.Stats
	Warnings []Warning
	Metrics  map[string]float64
	Elapsed  time.Duration
}

// Totals sums the per-window statistics.
func (r *Result) Totals() integrators.Stats {
	var t integrators.Stats
	for _, s := range r.Stats {
		t.Accepted += s.Accepted
		t.Rejected += s.Rejected
		t.Evaluations += s.Evaluations
		t.NewtonIterations += s.NewtonIterations
		t.Clamped += s.Clamped
		t.Truncated = t.Truncated || s.Truncated
		t.Reached = s.Reached
	}
	return t
}

// Metric accumulates a scalar over the windows of one run.
type Metric interface {
	Name() string
	Observe(net *chem.Network, tr *trajectory.Trajectory)
	Value() float64
	Reset()
}

// Observer is notified after every completed window.
type Observer interface {
	OnWindow(tr *trajectory.Trajectory, st integrators.Stats)
}

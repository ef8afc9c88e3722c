package metrics

import (
	"sync"

	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// Effort totals solver work over the windows of a run. It is safe to share
// across an ensemble.
type Effort struct {
	mu      sync.Mutex
	totals  integrators.Stats
	windows int
}

func NewEffort() *Effort { return &Effort{} }

func (e *Effort) OnWindow(tr *trajectory.Trajectory, st integrators.Stats) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.windows++
	e.totals.Accepted += st.Accepted
	e.totals.Rejected += st.Rejected
	e.totals.Evaluations += st.Evaluations
	e.totals.NewtonIterations += st.NewtonIterations
	e.totals.Clamped += st.Clamped
	e.totals.Truncated = e.totals.Truncated || st.Truncated
}

func (e *Effort) Totals() (integrators.Stats, int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.totals, e.windows
}

// Values flattens the totals for reporting.
func (e *Effort) Values() map[string]float64 {
	st, windows := e.Totals()
	return map[string]float64{
		"windows":           float64(windows),
		"accepted_steps":    float64(st.Accepted),
		"rejected_steps":    float64(st.Rejected),
		"evaluations":       float64(st.Evaluations),
		"newton_iterations": float64(st.NewtonIterations),
		"clamped":           float64(st.Clamped),
	}
}

func (e *Effort) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.totals = integrators.Stats{}
	e.windows = 0
}

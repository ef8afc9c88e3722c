package sim

import (
	"errors"
	"fmt"

	"github.com/san-kum/kinsim/internal/integrators"
)

var (
	ErrInvalidConfig = errors.New("sim: invalid config")
	ErrInvalidState  = errors.New("sim: state is not finite")
)

// SimulationError locates a fatal failure inside a run. Step is the failing
// step within the window, or zero when the failure is not tied to one.
type SimulationError struct {
	Window int
	Step   int
	Time   float64
	Err    error
}

func (e *SimulationError) Error() string {
	if e.Step > 0 {
		return fmt.Sprintf("sim: window %d step %d at t=%.6g: %v", e.Window, e.Step, e.Time, e.Err)
	}
	return fmt.Sprintf("sim: window %d at t=%.6g: %v", e.Window, e.Time, e.Err)
}

// failure locates an integrator error, preferring the step and time a
// non-convergence error carries.
func failure(w Window, err error) *SimulationError {
	se := &SimulationError{Window: w.Index, Time: w.Start, Err: err}
	var nc *integrators.NonConvergenceError
	if errors.As(err, &nc) {
		se.Step = nc.Step
		se.Time = nc.Time
	}
	return se
}

func (e *SimulationError) Unwrap() error { return e.Err }

package integrators

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownMethod indicates an unrecognized method name or code.
	ErrUnknownMethod = errors.New("integrators: unknown method")

	// ErrNonConvergence indicates the Newton iteration exceeded its cap.
	ErrNonConvergence = errors.New("integrators: newton iteration did not converge")

	// ErrInvalidWindow indicates a window with no steps or a non-positive length.
	ErrInvalidWindow = errors.New("integrators: invalid window")
)

// NonConvergenceError reports where the stiff solver gave up.
type NonConvergenceError struct {
	Window     int
	Step       int
	Time       float64
	Iterations int
}

func (e *NonConvergenceError) Error() string {
	return fmt.Sprintf("%v: window %d step %d (t=%.6g) after %d iterations",
		ErrNonConvergence, e.Window, e.Step, e.Time, e.Iterations)
}

func (e *NonConvergenceError) Unwrap() error {
	return ErrNonConvergence
}

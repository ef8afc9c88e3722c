// Package forcing evaluates externally imposed concentration profiles.
//
// A [Schedule] describes a repeating cycle of pulses that starts after an
// offset measured from the true start of a run. Each pulse has a duration and
// a target concentration. A trapezoid schedule ramps linearly from the
// previous level to each target; a rectangle schedule jumps to it.
package forcing

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrNoPulses = errors.New("forcing: schedule has no pulses")
	ErrDuration = errors.New("forcing: pulse duration must be positive")
	ErrStart    = errors.New("forcing: start offset must be non-negative")
	ErrShape    = errors.New("forcing: unknown pulse shape")
)

type Shape int

const (
	Trapezoid Shape = iota
	Rectangle
)

func (s Shape) String() string {
	switch s {
	case Trapezoid:
		return "trapezoid"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("shape(%d)", int(s))
	}
}

// ParseShape accepts the names printed by String.
func ParseShape(name string) (Shape, error) {
	switch name {
	case "trapezoid", "trap", "ramp":
		return Trapezoid, nil
	case "rectangle", "rect", "square":
		return Rectangle, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrShape, name)
}

type Pulse struct {
	Duration float64 `json:"duration" yaml:"duration" toml:"duration"`
	Target   float64 `json:"target" yaml:"target" toml:"target"`
}

// Schedule is the pulse program of one forced species. Base is the level the
// first pulse starts from; a rectangle schedule also holds it before Start.
type Schedule struct {
	Shape  Shape
	Start  float64
	Base   float64
	Pulses []Pulse
}

func (s *Schedule) Validate() error {
	if s.Shape != Trapezoid && s.Shape != Rectangle {
		return fmt.Errorf("%w: %d", ErrShape, int(s.Shape))
	}
	if len(s.Pulses) == 0 {
		return ErrNoPulses
	}
	if s.Start < 0 || math.IsNaN(s.Start) || math.IsInf(s.Start, 0) {
		return fmt.Errorf("%w: got %g", ErrStart, s.Start)
	}
	for k, p := range s.Pulses {
		if !(p.Duration > 0) || math.IsInf(p.Duration, 0) {
			return fmt.Errorf("%w: pulse %d has duration %g", ErrDuration, k+1, p.Duration)
		}
	}
	return nil
}

func (s *Schedule) CycleLength() float64 {
	total := 0.0
	for _, p := range s.Pulses {
		total += p.Duration
	}
	return total
}

// Slope returns the ramp rate of pulse k in concentration per unit time.
func (s *Schedule) Slope(k int) float64 {
	prev := s.Base
	if k > 0 {
		prev = s.Pulses[k-1].Target
	}
	return (s.Pulses[k].Target - prev) / s.Pulses[k].Duration
}

// Value returns the forced concentration at elapsed time since the run start.
// initial is the species' own initial concentration, held by a trapezoid
// schedule until Start.
func (s *Schedule) Value(elapsed, initial float64) float64 {
	if elapsed <= s.Start {
		if s.Shape == Trapezoid {
			return initial
		}
		return s.Base
	}

	cycle := s.CycleLength()
	in := math.Mod(elapsed-s.Start, cycle)
	if in == 0 {
		// a cycle boundary closes the last pulse instead of reopening the first
		in = cycle
	}

	segStart := 0.0
	prev := s.Base
	last := len(s.Pulses) - 1
	for k, p := range s.Pulses {
		segEnd := segStart + p.Duration
		if in <= segEnd || k == last {
			if s.Shape == Rectangle {
				return p.Target
			}
			return prev + s.Slope(k)*(in-segStart)
		}
		segStart = segEnd
		prev = p.Target
	}
	return prev
}

// Durations lists the pulse durations of one cycle in order.
func (s *Schedule) Durations() []float64 {
	out := make([]float64, len(s.Pulses))
	for k, p := range s.Pulses {
		out[k] = p.Duration
	}
	return out
}

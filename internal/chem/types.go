package chem

import (
	"fmt"
	"math"

	"github.com/san-kum/kinsim/internal/forcing"
)

// State is a concentration snapshot indexed by species.
type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// FixMode says how a species' concentration evolves.
type FixMode int

const (
	Free FixMode = iota
	Held
	Trapezoid
	Rectangle
)

// Legacy input codes for fix modes.
const (
	codeFree      = 0
	codeHeld      = 1
	codeTrapezoid = 10
	codeRectangle = 20
)

func FixModeFromCode(code int) (FixMode, error) {
	switch code {
	case codeFree:
		return Free, nil
	case codeHeld:
		return Held, nil
	case codeTrapezoid:
		return Trapezoid, nil
	case codeRectangle:
		return Rectangle, nil
	}
	return 0, fmt.Errorf("chem: unknown fix code %d", code)
}

func (m FixMode) Code() int {
	switch m {
	case Held:
		return codeHeld
	case Trapezoid:
		return codeTrapezoid
	case Rectangle:
		return codeRectangle
	default:
		return codeFree
	}
}

func (m FixMode) Forced() bool { return m == Trapezoid || m == Rectangle }

func (m FixMode) String() string {
	switch m {
	case Free:
		return "free"
	case Held:
		return "held"
	case Trapezoid:
		return "trapezoid"
	case Rectangle:
		return "rectangle"
	default:
		return fmt.Sprintf("fix(%d)", int(m))
	}
}

// Shape maps a forced fix mode onto its pulse shape.
func (m FixMode) Shape() forcing.Shape {
	if m == Rectangle {
		return forcing.Rectangle
	}
	return forcing.Trapezoid
}

func ParseFixMode(name string) (FixMode, error) {
	switch name {
	case "", "free":
		return Free, nil
	case "held", "fixed", "hold":
		return Held, nil
	case "trapezoid":
		return Trapezoid, nil
	case "rectangle":
		return Rectangle, nil
	}
	return 0, fmt.Errorf("chem: unknown fix mode %q", name)
}

type Kinetics int

const (
	MassAction Kinetics = iota
	MichaelisMenten
)

const (
	codeMassAction      = 1
	codeMichaelisMenten = 11
)

func KineticsFromCode(code int) (Kinetics, error) {
	switch code {
	case codeMassAction:
		return MassAction, nil
	case codeMichaelisMenten:
		return MichaelisMenten, nil
	}
	return 0, fmt.Errorf("chem: unknown kinetics code %d", code)
}

func (k Kinetics) Code() int {
	if k == MichaelisMenten {
		return codeMichaelisMenten
	}
	return codeMassAction
}

func (k Kinetics) String() string {
	if k == MichaelisMenten {
		return "michaelis-menten"
	}
	return "mass-action"
}

func ParseKinetics(name string) (Kinetics, error) {
	switch name {
	case "", "mass-action", "mass_action", "ma":
		return MassAction, nil
	case "michaelis-menten", "michaelis_menten", "mm":
		return MichaelisMenten, nil
	}
	return 0, fmt.Errorf("chem: unknown kinetics %q", name)
}

type Species struct {
	Name     string
	Initial  float64
	Fix      FixMode
	Schedule *forcing.Schedule
}

// Reaction holds resolved participants. Kf2 and Kb2 are only read for
// Michaelis-Menten kinetics, where Inputs[0] and Outputs[0] are the enzyme.
type Reaction struct {
	Label    string
	Kf, Kb   float64
	Kf2, Kb2 float64
	Kinetics Kinetics
	Inputs   []int
	Outputs  []int
}

// Stoich returns the net stoichiometric coefficient of species i: the count
// among outputs minus the count among inputs.
func (r *Reaction) Stoich(i int) int {
	n := 0
	for _, p := range r.Outputs {
		if p == i {
			n++
		}
	}
	for _, p := range r.Inputs {
		if p == i {
			n--
		}
	}
	return n
}

// Enzyme returns the enzyme index of a Michaelis-Menten reaction, or -1.
func (r *Reaction) Enzyme() int {
	if r.Kinetics != MichaelisMenten || len(r.Inputs) == 0 {
		return -1
	}
	return r.Inputs[0]
}

// Substrates returns the inputs that enter the forward mass-action product.
func (r *Reaction) Substrates() []int {
	if r.Kinetics == MichaelisMenten && len(r.Inputs) > 0 {
		return r.Inputs[1:]
	}
	return r.Inputs
}

// Products returns the outputs that enter the backward mass-action product.
func (r *Reaction) Products() []int {
	if r.Kinetics == MichaelisMenten && len(r.Outputs) > 0 {
		return r.Outputs[1:]
	}
	return r.Outputs
}

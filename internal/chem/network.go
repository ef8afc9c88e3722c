package chem

import (
	"fmt"
	"math"

	"github.com/san-kum/kinsim/internal/forcing"
)

// Limits caps network size. Zero fields mean unlimited.
type Limits struct {
	MaxSpecies      int
	MaxReactions    int
	MaxParticipants int
}

type Network struct {
	Species   []Species
	Reactions []Reaction

	index  map[string]int
	forced int
}

func (n *Network) NumSpecies() int   { return len(n.Species) }
func (n *Network) NumReactions() int { return len(n.Reactions) }

// Index maps a species name to its 0-based index. Names are compared after
// NormalizeName.
func (n *Network) Index(name string) (int, error) {
	i, ok := n.index[NormalizeName(name)]
	if !ok {
		return -1, fmt.Errorf("%w: %q", ErrUnknownSpecies, name)
	}
	return i, nil
}

// Forced returns the index of the externally forced species, or -1.
func (n *Network) Forced() int { return n.forced }

// Schedule returns the pulse schedule of the forced species, or nil.
func (n *Network) Schedule() *forcing.Schedule {
	if n.forced < 0 {
		return nil
	}
	return n.Species[n.forced].Schedule
}

func (n *Network) InitialState() State {
	x := make(State, len(n.Species))
	for i, s := range n.Species {
		x[i] = s.Initial
	}
	return x
}

func (n *Network) Names() []string {
	names := make([]string, len(n.Species))
	for i, s := range n.Species {
		names[i] = s.Name
	}
	return names
}

// Labels returns the reaction labels, numbering unlabelled reactions r1, r2...
func (n *Network) Labels() []string {
	labels := make([]string, len(n.Reactions))
	for i, r := range n.Reactions {
		labels[i] = r.Label
		if labels[i] == "" {
			labels[i] = fmt.Sprintf("r%d", i+1)
		}
	}
	return labels
}

// Free reports whether species i is governed by its rate equation.
func (n *Network) Free(i int) bool { return n.Species[i].Fix == Free }

// WithRates returns a copy of n with the rate constants of reaction r
// replaced. Species and the other reactions are shared with n.
func (n *Network) WithRates(r int, kf, kb float64) (*Network, error) {
	if r < 0 || r >= len(n.Reactions) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownReaction, r+1)
	}
	for _, k := range []float64{kf, kb} {
		if !(k >= 0) || math.IsInf(k, 0) {
			return nil, fmt.Errorf("%w: %g", ErrInvalidRate, k)
		}
	}
	out := *n
	out.Reactions = append([]Reaction(nil), n.Reactions...)
	out.Reactions[r].Kf, out.Reactions[r].Kb = kf, kb
	return &out, nil
}

// WithInitial returns a copy of n with the initial concentration of species
// i replaced.
func (n *Network) WithInitial(i int, c float64) (*Network, error) {
	if i < 0 || i >= len(n.Species) {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSpecies, i+1)
	}
	if !(c >= 0) || math.IsInf(c, 0) {
		return nil, fmt.Errorf("%w: %g", ErrInvalidConcentration, c)
	}
	out := *n
	out.Species = append([]Species(nil), n.Species...)
	out.Species[i].Initial = c
	return &out, nil
}

// ReactionSpec describes a reaction by participant names.
type ReactionSpec struct {
	Label    string
	Kf, Kb   float64
	Kf2, Kb2 float64
	Kinetics Kinetics
	Inputs   []string
	Outputs  []string
}

// Builder assembles a Network, resolving participant names once.
type Builder struct {
	limits    Limits
	species   []Species
	reactions []ReactionSpec
}

func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithLimits(l Limits) *Builder {
	b.limits = l
	return b
}

func (b *Builder) AddSpecies(name string, initial float64, fix FixMode) *Builder {
	b.species = append(b.species, Species{Name: name, Initial: initial, Fix: fix})
	return b
}

// AddForcedSpecies adds a species driven by sched. The fix mode follows the
// schedule's shape.
func (b *Builder) AddForcedSpecies(name string, initial float64, sched *forcing.Schedule) *Builder {
	fix := Trapezoid
	if sched != nil && sched.Shape == forcing.Rectangle {
		fix = Rectangle
	}
	b.species = append(b.species, Species{Name: name, Initial: initial, Fix: fix, Schedule: sched})
	return b
}

func (b *Builder) AddReaction(spec ReactionSpec) *Builder {
	b.reactions = append(b.reactions, spec)
	return b
}

func (b *Builder) Build() (*Network, error) {
	if b.limits.MaxSpecies > 0 && len(b.species) > b.limits.MaxSpecies {
		return nil, fmt.Errorf("%w: %d species (max %d)", ErrCapacity, len(b.species), b.limits.MaxSpecies)
	}
	if b.limits.MaxReactions > 0 && len(b.reactions) > b.limits.MaxReactions {
		return nil, fmt.Errorf("%w: %d reactions (max %d)", ErrCapacity, len(b.reactions), b.limits.MaxReactions)
	}

	net := &Network{
		Species:   make([]Species, len(b.species)),
		Reactions: make([]Reaction, 0, len(b.reactions)),
		index:     make(map[string]int, len(b.species)),
		forced:    -1,
	}

	for i, s := range b.species {
		key := NormalizeName(s.Name)
		if key == "" {
			return nil, &ConfigError{Table: "species", Index: i, Err: ErrEmptyName}
		}
		if _, dup := net.index[key]; dup {
			return nil, &ConfigError{Table: "species", Index: i, Name: s.Name, Err: ErrDuplicateSpecies}
		}
		if !(s.Initial >= 0) || math.IsInf(s.Initial, 0) {
			return nil, &ConfigError{Table: "species", Index: i, Name: s.Name, Err: ErrInvalidConcentration}
		}
		if s.Fix.Forced() {
			if net.forced >= 0 {
				return nil, &ConfigError{Table: "species", Index: i, Name: s.Name, Err: ErrMultipleForced}
			}
			if s.Schedule == nil {
				return nil, &ConfigError{Table: "species", Index: i, Name: s.Name, Err: ErrForcing}
			}
			if err := s.Schedule.Validate(); err != nil {
				return nil, &ConfigError{Table: "species", Index: i, Name: s.Name, Err: fmt.Errorf("%w: %v", ErrForcing, err)}
			}
			net.forced = i
		}
		s.Name = key
		net.Species[i] = s
		net.index[key] = i
	}

	for r, spec := range b.reactions {
		rx, err := net.resolve(spec)
		if err != nil {
			return nil, &ConfigError{Table: "reaction", Index: r, Name: spec.Label, Err: err}
		}
		if b.limits.MaxParticipants > 0 &&
			(len(rx.Inputs) > b.limits.MaxParticipants || len(rx.Outputs) > b.limits.MaxParticipants) {
			return nil, &ConfigError{Table: "reaction", Index: r, Name: spec.Label,
				Err: fmt.Errorf("%w: %d inputs, %d outputs (max %d)", ErrCapacity, len(rx.Inputs), len(rx.Outputs), b.limits.MaxParticipants)}
		}
		net.Reactions = append(net.Reactions, rx)
	}

	return net, nil
}

func (n *Network) resolve(spec ReactionSpec) (Reaction, error) {
	rx := Reaction{
		Label:    spec.Label,
		Kf:       spec.Kf,
		Kb:       spec.Kb,
		Kf2:      spec.Kf2,
		Kb2:      spec.Kb2,
		Kinetics: spec.Kinetics,
		Inputs:   make([]int, 0, len(spec.Inputs)),
		Outputs:  make([]int, 0, len(spec.Outputs)),
	}

	for _, k := range []float64{rx.Kf, rx.Kb, rx.Kf2, rx.Kb2} {
		if !(k >= 0) || math.IsInf(k, 0) {
			return rx, fmt.Errorf("%w: %g", ErrInvalidRate, k)
		}
	}
	if len(spec.Inputs) == 0 && len(spec.Outputs) == 0 {
		return rx, ErrNoParticipants
	}

	for _, name := range spec.Inputs {
		i, err := n.Index(name)
		if err != nil {
			return rx, err
		}
		rx.Inputs = append(rx.Inputs, i)
	}
	for _, name := range spec.Outputs {
		i, err := n.Index(name)
		if err != nil {
			return rx, err
		}
		rx.Outputs = append(rx.Outputs, i)
	}

	if rx.Kinetics == MichaelisMenten {
		if len(rx.Inputs) == 0 || len(rx.Outputs) == 0 || rx.Inputs[0] != rx.Outputs[0] {
			return rx, ErrEnzyme
		}
	}
	return rx, nil
}

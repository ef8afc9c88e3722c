package chem

import (
	"errors"
	"fmt"
)

// Configuration errors detected while building a network.
var (
	// ErrUnknownSpecies indicates a participant name that matches no species.
	ErrUnknownSpecies = errors.New("chem: unknown species")

	// ErrDuplicateSpecies indicates two species whose normalized names collide.
	ErrDuplicateSpecies = errors.New("chem: duplicate species name")

	// ErrEmptyName indicates a species name that is blank after trimming.
	ErrEmptyName = errors.New("chem: empty species name")

	// ErrInvalidRate indicates a negative or non-finite rate constant.
	ErrInvalidRate = errors.New("chem: invalid rate constant")

	// ErrInvalidConcentration indicates a negative or non-finite concentration.
	ErrInvalidConcentration = errors.New("chem: invalid initial concentration")

	// ErrEnzyme indicates a Michaelis-Menten reaction without a shared enzyme.
	ErrEnzyme = errors.New("chem: michaelis-menten reaction needs the enzyme as first input and first output")

	// ErrNoParticipants indicates a reaction with no inputs and no outputs.
	ErrNoParticipants = errors.New("chem: reaction has no participants")

	// ErrCapacity indicates the network exceeds a configured size limit.
	ErrCapacity = errors.New("chem: network exceeds capacity limit")

	// ErrForcing indicates a forced species without a usable pulse schedule.
	ErrForcing = errors.New("chem: invalid forcing schedule")

	// ErrUnknownReaction indicates a reaction index outside the network.
	ErrUnknownReaction = errors.New("chem: unknown reaction")

	// ErrMultipleForced indicates more than one externally forced species.
	ErrMultipleForced = errors.New("chem: at most one species may be externally forced")
)

// ConfigError wraps a configuration error with the offending table entry.
type ConfigError struct {
	Table string
	Index int
	Name  string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s %d (%s): %v", e.Table, e.Index+1, e.Name, e.Err)
	}
	return fmt.Sprintf("%s %d: %v", e.Table, e.Index+1, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

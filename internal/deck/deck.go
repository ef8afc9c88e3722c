// Package deck reads and writes the legacy plain-text input deck.
//
// A deck file holds one or more data sets. Each set starts at a line
// containing "data set" and is laid out as:
//
//	label
//	nspec nreac
//	label
//	t0 tf steps skip option
//	label
//	name                       (per species)
//	conc jfix [npulse]
//	label                      (forced species only)
//	tag value ...              (2*npulse+2 pairs: start, base, duration/target)
//	label                      (per reaction)
//	kf kb nin nout jkin
//	kf2 kb2                    (jkin = 11 only)
//	input names, one per line
//	output names, one per line
//
// Numbers are read as whitespace separated tokens and may wrap across lines.
package deck

import (
	"errors"
	"fmt"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

// OptionTerms selects the derivative-term export instead of a simulation.
const OptionTerms = 6

// MaxSteps is the largest per-window step count a deck may request.
const MaxSteps = 50000

var DefaultLimits = chem.Limits{
	MaxSpecies:      100,
	MaxReactions:    100,
	MaxParticipants: 10,
}

var (
	ErrNoDataSet = errors.New("deck: no data set found")
	ErrSyntax    = errors.New("deck: syntax error")
	ErrRange     = errors.New("deck: value out of range")
)

// ParseError reports the 1-based line where reading failed.
type ParseError struct {
	Set  int
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("deck: data set %d line %d: %v", e.Set, e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Deck is one data set.
type Deck struct {
	Index int
	// Echo holds the data set line and the label lines, in file order.
	Echo    []string
	Network *chem.Network

	Start  float64
	End    float64
	Steps  int
	Skip   int
	Option int
}

// TermsOnly reports whether the set asks for the term export.
func (d *Deck) TermsOnly() bool { return d.Option == OptionTerms }

func (d *Deck) Method() (integrators.Method, error) {
	return integrators.MethodFromCode(d.Option)
}

// SimConfig returns simulator settings for the set with default solver
// options.
func (d *Deck) SimConfig() (sim.Config, error) {
	m, err := d.Method()
	if err != nil {
		return sim.Config{}, err
	}
	cfg := sim.DefaultConfig()
	cfg.Method = m
	cfg.Start = d.Start
	cfg.End = d.End
	cfg.Steps = d.Steps
	return cfg, nil
}

// SampleEvery is the report sampling stride, never below one.
func (d *Deck) SampleEvery() int {
	if d.Skip < 1 {
		return 1
	}
	return d.Skip
}

package deck

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
)

type Options struct {
	Limits   chem.Limits
	MaxSteps int
}

func DefaultOptions() Options {
	return Options{Limits: DefaultLimits, MaxSteps: MaxSteps}
}

func ParseFile(path string, opts Options) ([]*Deck, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f, opts)
}

// Parse reads every data set in r.
func Parse(r io.Reader, opts Options) ([]*Deck, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, strings.TrimRight(sc.Text(), "\r"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	var starts []int
	for i, l := range lines {
		if strings.Contains(l, "data set") {
			starts = append(starts, i)
		}
	}
	if len(starts) == 0 {
		return nil, ErrNoDataSet
	}

	decks := make([]*Deck, 0, len(starts))
	for k, from := range starts {
		to := len(lines)
		if k+1 < len(starts) {
			to = starts[k+1]
		}
		c := &cursor{lines: lines[:to], pos: from, set: k + 1}
		d, err := c.deck(opts)
		if err != nil {
			return decks, err
		}
		d.Index = k + 1
		decks = append(decks, d)
	}
	return decks, nil
}

// cursor mimics stream extraction: numbers are taken token by token across
// lines, and line reads consume what is left of the current line.
type cursor struct {
	lines   []string
	pos     int
	pending []string
	line    int
	set     int
}

func (c *cursor) fail(format string, args ...any) error {
	return &ParseError{Set: c.set, Line: c.line, Err: fmt.Errorf("%w: "+format, append([]any{ErrSyntax}, args...)...)}
}

func (c *cursor) nextLine() (string, error) {
	c.pending = nil
	if c.pos >= len(c.lines) {
		return "", c.fail("unexpected end of data set")
	}
	l := c.lines[c.pos]
	c.pos++
	c.line = c.pos
	return l, nil
}

// endLine drops the rest of the current line.
func (c *cursor) endLine() { c.pending = nil }

func (c *cursor) token() (string, error) {
	for len(c.pending) == 0 {
		l, err := c.nextLine()
		if err != nil {
			return "", err
		}
		c.pending = strings.Fields(l)
	}
	t := c.pending[0]
	c.pending = c.pending[1:]
	return t, nil
}

func (c *cursor) number() (float64, error) {
	t, err := c.token()
	if err != nil {
		return 0, err
	}
	// Fortran-style exponents appear in older decks
	v, err := strconv.ParseFloat(strings.NewReplacer("D", "E", "d", "e").Replace(t), 64)
	if err != nil {
		return 0, c.fail("expected a number, got %q", t)
	}
	return v, nil
}

func (c *cursor) integer() (int, error) {
	t, err := c.token()
	if err != nil {
		return 0, err
	}
	v, err := strconv.Atoi(t)
	if err != nil {
		return 0, c.fail("expected an integer, got %q", t)
	}
	return v, nil
}

func (c *cursor) ints(dst ...*int) error {
	for _, p := range dst {
		v, err := c.integer()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func (c *cursor) floats(dst ...*float64) error {
	for _, p := range dst {
		v, err := c.number()
		if err != nil {
			return err
		}
		*p = v
	}
	return nil
}

func (c *cursor) rangeErr(format string, args ...any) error {
	return &ParseError{Set: c.set, Line: c.line, Err: fmt.Errorf("%w: "+format, append([]any{ErrRange}, args...)...)}
}

func (c *cursor) deck(opts Options) (*Deck, error) {
	d := &Deck{}
	echo := func() error {
		l, err := c.nextLine()
		d.Echo = append(d.Echo, l)
		return err
	}

	if err := echo(); err != nil { // data set line
		return nil, err
	}
	if err := echo(); err != nil {
		return nil, err
	}
	var nspec, nreac int
	if err := c.ints(&nspec, &nreac); err != nil {
		return nil, err
	}
	c.endLine()
	if nspec < 1 || nreac < 0 {
		return nil, c.rangeErr("%d species, %d reactions", nspec, nreac)
	}

	if err := echo(); err != nil {
		return nil, err
	}
	if err := c.floats(&d.Start, &d.End); err != nil {
		return nil, err
	}
	if err := c.ints(&d.Steps, &d.Skip, &d.Option); err != nil {
		return nil, err
	}
	c.endLine()
	if d.Steps < 1 || (opts.MaxSteps > 0 && d.Steps > opts.MaxSteps) {
		return nil, c.rangeErr("%d time steps (max %d)", d.Steps, opts.MaxSteps)
	}

	if err := echo(); err != nil {
		return nil, err
	}
	b := chem.NewBuilder().WithLimits(opts.Limits)
	for i := 0; i < nspec; i++ {
		if err := c.species(b); err != nil {
			return nil, err
		}
	}
	for r := 0; r < nreac; r++ {
		if err := echo(); err != nil {
			return nil, err
		}
		if err := c.reaction(b, d.Echo[len(d.Echo)-1]); err != nil {
			return nil, err
		}
	}

	net, err := b.Build()
	if err != nil {
		return nil, &ParseError{Set: c.set, Line: c.line, Err: err}
	}
	d.Network = net
	return d, nil
}

func (c *cursor) species(b *chem.Builder) error {
	name, err := c.nextLine()
	if err != nil {
		return err
	}
	var conc float64
	var code int
	if err := c.floats(&conc); err != nil {
		return err
	}
	if err := c.ints(&code); err != nil {
		return err
	}
	fix, err := chem.FixModeFromCode(code)
	if err != nil {
		return c.rangeErr("species %q: %v", name, err)
	}
	if !fix.Forced() {
		c.endLine()
		b.AddSpecies(name, conc, fix)
		return nil
	}

	var npulse int
	if err := c.ints(&npulse); err != nil {
		return err
	}
	c.endLine()
	if npulse < 1 {
		return c.rangeErr("species %q: %d pulses", name, npulse)
	}
	if _, err := c.nextLine(); err != nil { // pulse table label
		return err
	}
	values := make([]float64, 2*npulse+2)
	for j := range values {
		if _, err := c.token(); err != nil { // tag
			return err
		}
		if values[j], err = c.number(); err != nil {
			return err
		}
	}
	c.endLine()

	sched := &forcing.Schedule{Shape: fix.Shape(), Start: values[0], Base: values[1]}
	for k := 0; k < npulse; k++ {
		sched.Pulses = append(sched.Pulses, forcing.Pulse{Duration: values[2+2*k], Target: values[3+2*k]})
	}
	b.AddForcedSpecies(name, conc, sched)
	return nil
}

func (c *cursor) reaction(b *chem.Builder, label string) error {
	spec := chem.ReactionSpec{Label: strings.TrimSpace(label)}
	var nin, nout, jkin int
	if err := c.floats(&spec.Kf, &spec.Kb); err != nil {
		return err
	}
	if err := c.ints(&nin, &nout, &jkin); err != nil {
		return err
	}
	c.endLine()

	kin, err := chem.KineticsFromCode(jkin)
	if err != nil {
		return c.rangeErr("reaction %q: %v", spec.Label, err)
	}
	spec.Kinetics = kin
	if kin == chem.MichaelisMenten {
		if err := c.floats(&spec.Kf2, &spec.Kb2); err != nil {
			return err
		}
		c.endLine()
	}
	if nin < 0 || nout < 0 {
		return c.rangeErr("reaction %q: %d inputs, %d outputs", spec.Label, nin, nout)
	}

	for q := 0; q < nin; q++ {
		name, err := c.nextLine()
		if err != nil {
			return err
		}
		spec.Inputs = append(spec.Inputs, name)
	}
	for p := 0; p < nout; p++ {
		name, err := c.nextLine()
		if err != nil {
			return err
		}
		spec.Outputs = append(spec.Outputs, name)
	}
	b.AddReaction(spec)
	return nil
}

package deck

import (
	"bufio"
	"fmt"
	"io"
	"strconv"

	"github.com/san-kum/kinsim/internal/chem"
)

// FromNetwork wraps a network and run settings into a data set with
// generated label lines.
func FromNetwork(net *chem.Network, start, end float64, steps, skip, option int) *Deck {
	d := &Deck{
		Index:   1,
		Network: net,
		Start:   start,
		End:     end,
		Steps:   steps,
		Skip:    skip,
		Option:  option,
	}
	d.Echo = []string{
		"data set 1",
		"number of species, number of reactions",
		"initial time, final time, time steps, output skip, integration option",
		"species name, initial concentration, fix code",
	}
	for r, rx := range net.Reactions {
		label := rx.Label
		if label == "" {
			label = fmt.Sprintf("reaction %d", r+1)
		}
		d.Echo = append(d.Echo, label)
	}
	return d
}

func num(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

// Write renders d in the layout Parse reads.
func Write(w io.Writer, d *Deck) error {
	bw := bufio.NewWriter(w)
	net := d.Network
	label := func(i int, fallback string) string {
		if i < len(d.Echo) {
			return d.Echo[i]
		}
		return fallback
	}

	fmt.Fprintln(bw, label(0, fmt.Sprintf("data set %d", d.Index)))
	fmt.Fprintln(bw, label(1, "nspec nreac"))
	fmt.Fprintf(bw, "%d %d\n", net.NumSpecies(), net.NumReactions())
	fmt.Fprintln(bw, label(2, "t0 tf steps skip option"))
	fmt.Fprintf(bw, "%s %s %d %d %d\n", num(d.Start), num(d.End), d.Steps, d.Skip, d.Option)
	fmt.Fprintln(bw, label(3, "species"))

	names := net.Names()
	for _, s := range net.Species {
		fmt.Fprintln(bw, s.Name)
		if !s.Fix.Forced() {
			fmt.Fprintf(bw, "%s %d\n", num(s.Initial), s.Fix.Code())
			continue
		}
		sc := s.Schedule
		fmt.Fprintf(bw, "%s %d %d\n", num(s.Initial), s.Fix.Code(), len(sc.Pulses))
		fmt.Fprintln(bw, "pulse program")
		fmt.Fprintf(bw, "start %s\nbase %s\n", num(sc.Start), num(sc.Base))
		for k, p := range sc.Pulses {
			fmt.Fprintf(bw, "dur%d %s\nconc%d %s\n", k+1, num(p.Duration), k+1, num(p.Target))
		}
	}

	for r, rx := range net.Reactions {
		fmt.Fprintln(bw, label(4+r, rx.Label))
		fmt.Fprintf(bw, "%s %s %d %d %d\n", num(rx.Kf), num(rx.Kb), len(rx.Inputs), len(rx.Outputs), rx.Kinetics.Code())
		if rx.Kinetics == chem.MichaelisMenten {
			fmt.Fprintf(bw, "%s %s\n", num(rx.Kf2), num(rx.Kb2))
		}
		for _, i := range rx.Inputs {
			fmt.Fprintln(bw, names[i])
		}
		for _, i := range rx.Outputs {
			fmt.Fprintln(bw, names[i])
		}
	}
	return bw.Flush()
}

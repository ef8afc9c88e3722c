// Package report writes the three plain-text result files of a run: the
// summary (kin.o01), the species series (kin.o02) and the reaction extent
// series (kin.o03).
package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/san-kum/kinsim/internal/deck"
	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/trajectory"
)

const (
	SummaryFile   = "kin.o01"
	SpeciesFile   = "kin.o02"
	ReactionsFile = "kin.o03"
)

const (
	intFmt   = "%8d"
	floatFmt = "%16.6E"
)

// Run pairs a data set with its simulation result.
type Run struct {
	Deck   *deck.Deck
	Result *sim.Result
}

func (r Run) store() *trajectory.Store { return r.Result.Store }

// sample calls fn for every reported row: every skip-th row counted across
// all windows, plus the last row of each window.
func sample(s *trajectory.Store, skip int, fn func(tr *trajectory.Trajectory, t int)) {
	m := -1
	for _, tr := range s.Windows() {
		top := tr.Top()
		for t := 0; t <= top; t++ {
			m++
			if m == skip {
				m = 0
			}
			if m == 0 || t == top {
				fn(tr, t)
			}
		}
	}
}

// WriteSummary writes the input echo, the initial and final state and the
// time series of every species and reaction extent.
func WriteSummary(w io.Writer, r Run) error {
	bw := bufio.NewWriter(w)
	d, net, s := r.Deck, r.Result.Network, r.store()
	echo := func(i int) {
		if i < len(d.Echo) {
			fmt.Fprintln(bw, d.Echo[i])
		} else {
			fmt.Fprintln(bw)
		}
	}

	fmt.Fprint(bw, " \n \n")
	echo(0)
	echo(1)
	fmt.Fprintf(bw, intFmt+intFmt+"\n", net.NumSpecies(), net.NumReactions())
	echo(2)
	fmt.Fprintf(bw, floatFmt+floatFmt+intFmt+intFmt+intFmt+"\n", d.Start, d.End, d.Steps, d.Skip, d.Option)
	echo(3)
	for _, sp := range net.Species {
		fmt.Fprintln(bw, sp.Name)
		fmt.Fprintf(bw, floatFmt+intFmt+"\n", sp.Initial, sp.Fix.Code())
	}
	names := net.Names()
	for k, rx := range net.Reactions {
		echo(4 + k)
		fmt.Fprintf(bw, floatFmt+floatFmt+intFmt+intFmt+intFmt+"\n", rx.Kf, rx.Kb, len(rx.Inputs), len(rx.Outputs), rx.Kinetics.Code())
		if rx.Kinetics.Code() == 11 {
			fmt.Fprintf(bw, "%.6E %.6E\n", rx.Kf2, rx.Kb2)
		}
		for _, i := range rx.Inputs {
			fmt.Fprintln(bw, names[i])
		}
		for _, i := range rx.Outputs {
			fmt.Fprintln(bw, names[i])
		}
	}

	last := s.Last()
	t0 := s.Windows()[0].Time(0)
	tf := last.Time(last.Top())

	fmt.Fprint(bw, "\n\n initial and final species concentrations\n\n")
	fmt.Fprint(bw, "   ispec         timei         xspec\n\n")
	initial, final := s.Initial(), s.Final()
	for i, name := range names {
		fmt.Fprintln(bw, name)
		fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", i+1, t0, initial[i])
		fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", i+1, tf, final[i])
	}

	fmt.Fprint(bw, "\n\n final reaction concentrations\n\n")
	fmt.Fprint(bw, "   ireac         timei         xreac\n")
	if ext := last.FinalExtents(); ext != nil {
		for k, e := range ext {
			fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", k+1, tf, e)
		}
	}

	fmt.Fprint(bw, "\n\n time-dep. species concentrations\n")
	for i, name := range names {
		fmt.Fprintf(bw, "\n   ispec\n"+intFmt+"\n", i+1)
		fmt.Fprintf(bw, " namespec:\n%s\n", name)
		fmt.Fprint(bw, "   itime         timei         xspec\n")
		sample(s, d.SampleEvery(), func(tr *trajectory.Trajectory, t int) {
			fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", t, tr.Time(t), tr.Species.At(t, i))
		})
	}

	fmt.Fprint(bw, "\n\n time-dep. reaction concentrations\n")
	if last.Diagnostics() {
		for k := range net.Reactions {
			fmt.Fprintf(bw, "\n   ireac\n"+intFmt+"\n", k+1)
			fmt.Fprint(bw, "   itime         timei         xreac\n")
			sample(s, d.SampleEvery(), func(tr *trajectory.Trajectory, t int) {
				fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", t, tr.Time(t), tr.Extents.At(t, k))
			})
		}
	}
	return bw.Flush()
}

// WriteSpecies writes the '#'-commented species series over all windows.
func WriteSpecies(w io.Writer, r Run) error {
	bw := bufio.NewWriter(w)
	d, net := r.Deck, r.Result.Network
	title := ""
	if len(d.Echo) > 0 {
		title = d.Echo[0]
	}

	fmt.Fprintf(bw, "#\n#\n#%s\n#  time-dep. species concentrations\n#\n", title)
	for i, name := range net.Names() {
		fmt.Fprintf(bw, "#\n#   ispec\n#"+intFmt+"\n", i+1)
		fmt.Fprintf(bw, "# namespec:\n#%s\n", name)
		fmt.Fprint(bw, "#  itime         timei         xspec\n")
		sample(r.store(), d.SampleEvery(), func(tr *trajectory.Trajectory, t int) {
			fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", t, tr.Time(t), tr.Species.At(t, i))
		})
		fmt.Fprint(bw, " \n \n")
	}
	return bw.Flush()
}

// WriteReactions writes the '#'-commented reaction extent series. Without
// diagnostics only the header is written.
func WriteReactions(w io.Writer, r Run) error {
	bw := bufio.NewWriter(w)
	s := r.store()

	fmt.Fprint(bw, "#\n#\n#  time-dep. reaction concentrations\n#\n")
	if s.Last().Diagnostics() {
		for k := range r.Result.Network.Reactions {
			fmt.Fprintf(bw, "#\n#   ireac\n#"+intFmt+"\n", k+1)
			fmt.Fprint(bw, "#  itime         timei         xreac\n")
			sample(s, r.Deck.SampleEvery(), func(tr *trajectory.Trajectory, t int) {
				fmt.Fprintf(bw, intFmt+floatFmt+floatFmt+"\n", t, tr.Time(t), tr.Extents.At(t, k))
			})
			fmt.Fprint(bw, " \n \n")
		}
	}
	return bw.Flush()
}

// WriteFiles writes all three reports for runs into dir, appending data
// sets in order, and returns the paths written.
func WriteFiles(dir string, runs []Run) ([]string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}
	writers := []struct {
		name  string
		write func(io.Writer, Run) error
	}{
		{SummaryFile, WriteSummary},
		{SpeciesFile, WriteSpecies},
		{ReactionsFile, WriteReactions},
	}

	paths := make([]string, 0, len(writers))
	for _, wr := range writers {
		path := filepath.Join(dir, wr.name)
		if err := writeFile(path, runs, wr.write); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, runs []Run, write func(io.Writer, Run) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	for _, r := range runs {
		if r.Result == nil || r.Result.Store.Len() == 0 {
			continue
		}
		if err := write(f, r); err != nil {
			f.Close()
			return fmt.Errorf("report: %s: %w", filepath.Base(path), err)
		}
	}
	return f.Close()
}

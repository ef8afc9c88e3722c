package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/analysis"
	"github.com/san-kum/kinsim/internal/config"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/jacobian"
)

func compareMethods(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args[:1])
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}

	names := args[1:]
	if len(names) == 0 {
		names = []string{"rk4", "euler", "modeuler", "rk45", "rk45a", "stiff"}
	}
	methods := make([]integrators.Method, 0, len(names))
	for _, name := range names {
		m, err := integrators.ParseMethod(name)
		if err != nil {
			return err
		}
		methods = append(methods, m)
	}

	fmt.Printf("comparing methods for %s (t=[%g, %g], %d steps per window)\n\n",
		j.name, j.sim.Start, j.sim.End, j.sim.Steps)
	fmt.Printf("reference: %s\n\n", methods[0])

	out := experiment.Compare(cmd.Context(), j.deck.Network, j.sim, methods, log)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METHOD\tSTEPS\tREJECTED\tEVALS\tMAX DIFF\tWARNINGS\tTIME")
	for _, c := range out {
		if c.Err != nil {
			fmt.Fprintf(w, "%s\terror: %v\n", c.Method, c.Err)
			continue
		}
		fmt.Fprintf(w, "%s\t%d\t%d\t%d\t%.3e\t%d\t%v\n",
			c.Method, c.Stats.Accepted, c.Stats.Rejected, c.Stats.Evaluations,
			c.Diff, c.Warnings, c.Elapsed)
	}
	return w.Flush()
}

func sweepRate(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}
	net := j.deck.Network

	sp := net.NumSpecies() - 1
	if species != "" {
		if sp, err = net.Index(species); err != nil {
			return err
		}
	}

	pts, err := analysis.RateSweep(cmd.Context(), net, j.sim, analysis.SweepOptions{
		Reaction: reaction - 1,
		Species:  sp,
		From:     sweepFrom,
		To:       sweepTo,
		Points:   points,
		Log:      logSweep,
	})
	if err != nil {
		return err
	}

	fmt.Printf("sweep of kf%d, recording %s\n\n", reaction, net.Names()[sp])
	fmt.Print(analysis.SweepToASCII(pts, 60, 16))
	fmt.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "KF\tFINAL\tMIN\tMAX")
	for _, p := range pts {
		fmt.Fprintf(w, "%.4g\t%.6g\t%.6g\t%.6g\n", p.Kf, p.Final, p.Min, p.Max)
	}
	return w.Flush()
}

func sensitivity(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}
	net := j.deck.Network

	s, err := analysis.Sensitivity(cmd.Context(), net, j.sim, reaction-1, delta)
	if err != nil {
		return err
	}

	fmt.Printf("d ln x / d ln kf%d at t=%g\n\n", reaction, j.sim.End)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tSENSITIVITY")
	for i, name := range net.Names() {
		fmt.Fprintf(w, "%s\t%+.4f\n", name, s[i])
	}
	return w.Flush()
}

func printTerms(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	for _, j := range jobs {
		writeTerms(os.Stdout, j)
	}
	return nil
}

// writeTerms prints the rate laws, the rate equations and the sparsity of
// the jacobian of one data set.
func writeTerms(w io.Writer, j job) {
	net := j.deck.Network
	fmt.Fprintf(w, "%s: %d species, %d reactions\n\n", j.name, net.NumSpecies(), net.NumReactions())

	for r := range net.Reactions {
		fmt.Fprintln(w, net.FormatFlux(r))
	}
	fmt.Fprintln(w)
	for _, eq := range net.Equations() {
		fmt.Fprintln(w, net.FormatEquation(eq))
	}

	p := jacobian.Prepare(net)
	n := net.NumSpecies()
	fmt.Fprintf(w, "\njacobian: %d of %d entries non-zero\n", p.NonZero(), n*n)

	width := 0
	for _, name := range net.Names() {
		width = max(width, len(name))
	}
	for eq := 0; eq < n; eq++ {
		var row strings.Builder
		for v := 0; v < n; v++ {
			if p.Cell(eq, v) != nil {
				row.WriteString(" x")
			} else {
				row.WriteString(" .")
			}
		}
		fmt.Fprintf(w, "  %-*s%s\n", width, net.Species[eq].Name, row.String())
	}
	fmt.Fprintln(w)
}

func listPresets() {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMETHOD\tTF\tSTEPS\tDESCRIPTION")
	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		fmt.Fprintf(w, "%s\t%s\t%g\t%d\t%s\n", name, p.Method, p.End, p.Steps, p.Description)
	}
	w.Flush()
}

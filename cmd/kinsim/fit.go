package main

import (
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/optim"
	"github.com/san-kum/kinsim/internal/sim"
)

func fitRates(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}
	net := j.deck.Network

	if len(vary) == 0 {
		return fmt.Errorf("fit: give at least one --vary")
	}
	params := make([]optim.Param, 0, len(vary))
	for _, v := range vary {
		p, err := parseVary(net, v, logSweep)
		if err != nil {
			return err
		}
		params = append(params, p)
	}

	metric := fitMetric
	if metric == "" {
		metric = "target_error"
	}
	mparams := make(map[string]float64, len(targets))
	for name, s := range targets {
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("fit: target %s: %w", name, err)
		}
		mparams[name] = v
	}
	if metric == "target_error" && len(mparams) == 0 {
		return fmt.Errorf("fit: target_error needs --target")
	}

	registry := experiment.NewRegistry()
	if _, err := registry.GetMetric(metric, mparams); err != nil {
		return err
	}
	build := optim.RateBuilder(net, j.sim, params, func() (sim.Metric, error) {
		return registry.GetMetric(metric, mparams)
	})

	g := optim.NewGridSearch(params)
	best, val, err := g.Search(cmd.Context(), build, metric)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"set":       j.name,
		"evaluated": g.Evaluated(),
		"failed":    g.Failed(),
	}).Info("grid search done")

	fmt.Printf("best %s: %.6g\n\n", metric, val)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tREACTION\tKF\tWAS")
	for _, p := range params {
		fmt.Fprintf(w, "%s\t%s\t%.6g\t%.6g\n", p.Name, net.Labels()[p.Reaction], best[p.Name], net.Reactions[p.Reaction].Kf)
	}
	return w.Flush()
}

// parseVary reads "reaction=from:to:points" where reaction is a 1-based
// number or a reaction label.
func parseVary(net *chem.Network, s string, geometric bool) (optim.Param, error) {
	ref, spec, ok := strings.Cut(s, "=")
	if !ok {
		return optim.Param{}, fmt.Errorf("fit: bad --vary %q, want reaction=from:to:points", s)
	}
	r := slices.Index(net.Labels(), ref)
	if r < 0 {
		n, err := strconv.Atoi(ref)
		if err != nil || n < 1 || n > net.NumReactions() {
			return optim.Param{}, fmt.Errorf("%w: %s", chem.ErrUnknownReaction, ref)
		}
		r = n - 1
	}

	parts := strings.Split(spec, ":")
	if len(parts) != 3 {
		return optim.Param{}, fmt.Errorf("fit: bad range %q, want from:to:points", spec)
	}
	from, err1 := strconv.ParseFloat(parts[0], 64)
	to, err2 := strconv.ParseFloat(parts[1], 64)
	n, err3 := strconv.Atoi(parts[2])
	for _, err := range []error{err1, err2, err3} {
		if err != nil {
			return optim.Param{}, fmt.Errorf("fit: bad range %q: %w", spec, err)
		}
	}
	values, err := optim.Grid(from, to, n, geometric)
	if err != nil {
		return optim.Param{}, err
	}
	return optim.Param{Name: fmt.Sprintf("kf%d", r+1), Reaction: r, Values: values}, nil
}

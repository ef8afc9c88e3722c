package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/automation"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/storage"
)

func runScenario(cmd *cobra.Command, args []string) error {
	sc, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}
	fmt.Printf("scenario: %s\n", sc.Name)
	if sc.Description != "" {
		fmt.Println(sc.Description)
	}
	fmt.Println()

	results, runErr := automation.RunScenario(cmd.Context(), sc, experiment.NewRegistry(), log)

	var st *storage.Store
	if !noSave {
		st = storage.New(dataDir)
		if err := st.Init(); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tMETHOD\tWINDOWS\tWARNINGS\tFINAL\tRUN ID")
	for _, r := range results {
		id := "-"
		if st != nil {
			meta, err := st.Save(r.Name, r.Result)
			if err != nil {
				return err
			}
			id = meta.ID
		}
		fmt.Fprintf(w, "%s\t%s\t%d\t%d\t%s\t%s\n",
			r.Name, r.Result.Config.Method, len(r.Result.Windows), len(r.Result.Warnings),
			formatState(r.Network.Names(), r.Result.Store.Final()), id)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func monteCarlo(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}

	results, err := automation.RunMonteCarlo(cmd.Context(), &automation.MonteCarloConfig{
		Network:      j.deck.Network,
		Sim:          j.sim,
		Perturbation: perturb,
		NumTrials:    trials,
		Seed:         seed,
	}, log)
	if err != nil {
		return err
	}

	mean, std, failed := automation.MonteCarloStats(results)
	log.WithFields(logrus.Fields{"set": j.name, "trials": len(results), "failed": failed}).Info("monte carlo done")
	if mean == nil {
		return fmt.Errorf("all %d trials failed", failed)
	}

	fmt.Printf("%s: %d trials, initial concentrations within ±%g%%\n\n", j.name, len(results), perturb*100)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SPECIES\tMEAN\tSTD\tREL")
	for i, name := range j.deck.Network.Names() {
		rel := 0.0
		if mean[i] != 0 {
			rel = std[i] / mean[i]
		}
		fmt.Fprintf(w, "%s\t%.6g\t%.3g\t%.3g\n", name, mean[i], std[i], rel)
	}
	return w.Flush()
}

func formatState(names []string, x []float64) string {
	s := ""
	for i, v := range x {
		if i > 0 {
			s += " "
		}
		s += fmt.Sprintf("%s=%.4g", names[i], v)
	}
	return s
}

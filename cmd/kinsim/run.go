package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/analysis"
	"github.com/san-kum/kinsim/internal/blob"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/metrics"
	"github.com/san-kum/kinsim/internal/report"
	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/storage"
	"github.com/san-kum/kinsim/internal/tui"
	"github.com/san-kum/kinsim/internal/viz"
)

func runSimulation(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	jobs, cfg, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}

	var (
		st  *storage.Store
		cat *storage.Catalog
	)
	if !noSave {
		st = storage.New(cfg.Output.DataDir)
		if err := st.Init(); err != nil {
			return err
		}
		cat, err = storage.OpenCatalog(filepath.Join(cfg.Output.DataDir, catalogFile))
		if err != nil {
			return err
		}
		defer cat.Close()
	}

	rec := metrics.NewRecorder()
	registry := experiment.NewRegistry()

	var (
		runs   []report.Run
		runIDs []string
		errs   []error
	)
	for _, j := range jobs {
		if j.termsOnly() {
			writeTerms(os.Stdout, j)
			continue
		}

		res, effort, err := simulate(ctx, registry, rec, j)
		rec.ObserveRun(res, err)
		if err != nil {
			log.WithError(err).WithField("set", j.name).Error("simulation failed")
			errs = append(errs, fmt.Errorf("%s: %w", j.name, err))
		}
		show, keep := disposition(res, err)
		if !show {
			continue
		}
		printRun(os.Stdout, j, res, effort, !keep)
		if !keep {
			continue
		}
		runs = append(runs, report.Run{Deck: j.deck, Result: res})

		if jsonOut != "" {
			out := jsonOut
			if len(jobs) > 1 {
				out = suffixed(jsonOut, j.name)
			}
			if err := storage.ExportJSON(out, j.name, res); err != nil {
				return err
			}
		}
		if st != nil {
			meta, err := st.Save(j.name, res)
			if err != nil {
				return err
			}
			if err := cat.Insert(ctx, meta, st.Dir(meta.ID)); err != nil {
				return err
			}
			runIDs = append(runIDs, meta.ID)
			fmt.Printf("run id: %s\n\n", meta.ID)
		}
	}

	if len(runs) > 0 {
		paths, err := report.WriteFiles(cfg.Output.Dir, runs)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{"dir": cfg.Output.Dir, "files": len(paths)}).Info("reports written")

		if cfg.Output.Artifacts != "" {
			if err := upload(ctx, cfg.Output.Artifacts, runIDs, paths); err != nil {
				return err
			}
		}
	}

	if cfg.Output.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.Output.MetricsFile); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}

const catalogFile = "catalog.db"

// simulate runs one data set with the default metrics and the recorder
// attached, in the live viewer when requested.
func simulate(ctx context.Context, registry *experiment.Registry, rec *metrics.Recorder, j job) (*sim.Result, *metrics.Effort, error) {
	exp := experiment.New(experiment.Config{Name: j.name, Network: j.deck.Network, Sim: j.sim},
		log.WithField("set", j.name))
	effort := metrics.NewEffort()
	if err := exp.Setup(registry.DefaultMetrics(), rec.Observer(j.sim.Method), effort); err != nil {
		return nil, nil, err
	}

	if !live {
		res, err := exp.Run(ctx)
		return res, effort, err
	}

	windows := len(sim.Schedule(j.sim.Start, j.sim.End, j.deck.Network.Schedule()))
	res, err := tui.RunLive(ctx, j.name, windows, func(ctx context.Context, obs sim.Observer) (*sim.Result, error) {
		exp.Simulator().AddObserver(obs)
		return exp.Run(ctx)
	})
	return res, effort, err
}

// disposition decides what a finished data set contributes. A failed run's
// completed windows are printed as partial and kept out of reports and
// storage.
func disposition(res *sim.Result, err error) (show, keep bool) {
	if res == nil || res.Store.Len() == 0 {
		return false, false
	}
	return true, err == nil
}

func printRun(w io.Writer, j job, res *sim.Result, effort *metrics.Effort, partial bool) {
	net := res.Network
	header := viz.Title.Render(j.name) + "  " + viz.Subtle.Render(j.sim.Method.String())
	if partial {
		header += "  " + viz.StatusWarn.Render("partial")
	}
	fmt.Fprintln(w, header)
	fmt.Fprintf(w, "completed in %v\n", res.Elapsed)

	tot, windows := effort.Totals()
	fmt.Fprintf(w, "windows: %d  steps: %d  rejected: %d  evaluations: %d\n",
		windows, tot.Accepted, tot.Rejected, tot.Evaluations)
	if tot.NewtonIterations > 0 || tot.Clamped > 0 {
		fmt.Fprintf(w, "newton iterations: %d  clamped: %d\n", tot.NewtonIterations, tot.Clamped)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "\nSPECIES\tINITIAL\tFINAL")
	initial, final := res.Store.Initial(), res.Store.Final()
	for i, name := range net.Names() {
		fmt.Fprintf(tw, "%s\t%.6g\t%.6g\n", name, initial[i], final[i])
	}
	tw.Flush()

	rep := analysis.SteadyState(net, res.Store, steadyTol)
	if rep.Steady {
		fmt.Fprintf(w, "\n%s (max rate %.3g)\n", viz.StatusOK.Render("steady"), rep.MaxRate)
	} else {
		fmt.Fprintf(w, "\n%s (max rate %.3g)\n", viz.StatusWarn.Render("not steady"), rep.MaxRate)
	}

	fmt.Fprintln(w, "\nmetrics:")
	for _, name := range slices.Sorted(maps.Keys(res.Metrics)) {
		fmt.Fprintf(w, "  %s: %.6g\n", name, res.Metrics[name])
	}
	for _, warn := range res.Warnings {
		fmt.Fprintln(w, viz.StatusWarn.Render("warning: "+warn.String()))
	}

	if showPlot {
		series := make([][]float64, net.NumSpecies())
		for i := range series {
			_, series[i] = res.Store.Series(i)
		}
		fmt.Fprintln(w)
		fmt.Fprintln(w, viz.PlotSeries(net.Names(), series, viz.PlotOptions{Height: 12, Caption: j.name}))
	}
	if len(phaseAxes) == 2 {
		x, errX := net.Index(phaseAxes[0])
		y, errY := net.Index(phaseAxes[1])
		if errX != nil || errY != nil {
			log.WithField("phase", phaseAxes).Warn("unknown species for phase portrait")
		} else {
			fmt.Fprintf(w, "\n%s vs %s\n", phaseAxes[1], phaseAxes[0])
			fmt.Fprint(w, analysis.NewPhasePortrait(res.Store, x, y).ToASCII(70, 20))
		}
	}
	fmt.Fprintln(w)
}

// upload copies the report files under one key prefix per invocation.
func upload(ctx context.Context, url string, runIDs, paths []string) error {
	store, prefix, err := blob.Open(ctx, url)
	if err != nil {
		return err
	}
	if len(runIDs) > 0 {
		prefix = path.Join(prefix, runIDs[0])
	}
	infos, err := blob.Upload(ctx, store, prefix, paths)
	if err != nil {
		return err
	}
	for _, info := range infos {
		log.WithFields(logrus.Fields{
			"driver": store.Driver(),
			"key":    info.Key,
			"size":   info.Size,
		}).Info("artifact uploaded")
	}
	return nil
}

func suffixed(p, name string) string {
	ext := filepath.Ext(p)
	return fmt.Sprintf("%s-%s%s", p[:len(p)-len(ext)], name, ext)
}

func viewSimulation(cmd *cobra.Command, args []string) error {
	jobs, _, err := loadJobs(cmd, args)
	if err != nil {
		return err
	}
	j, err := firstJob(jobs)
	if err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	exp := experiment.New(experiment.Config{Name: j.name, Network: j.deck.Network, Sim: j.sim},
		log.WithField("set", j.name))
	if err := exp.Setup(registry.DefaultMetrics()); err != nil {
		return err
	}
	res, err := exp.Run(cmd.Context())
	if res == nil || res.Store.Len() == 0 {
		return err
	}
	if err != nil {
		log.WithError(err).Warn("showing partial result")
	}
	return tui.Run(j.name, res)
}

package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/config"
	"github.com/san-kum/kinsim/internal/viz"
)

var (
	dataDir  string
	logLevel string
	theme    string

	// run settings
	configFile    string
	preset        string
	method        string
	t0            float64
	tf            float64
	steps         int
	skip          int
	noDiagnostics bool
	maxRows       int
	outDir        string
	artifacts     string
	metricsFile   string
	noSave        bool
	live          bool
	showPlot      bool
	phaseAxes     []string
	jsonOut       string
	steadyTol     float64

	// stored run views
	speciesFilter []string
	extents       bool
	xSpecies      string
	ySpecies      string
	exportFormat  string
	networkFilter string
	limit         int
	imageOut      string
	svgOut        string

	// studies
	reaction  int
	species   string
	sweepFrom float64
	sweepTo   float64
	points    int
	logSweep  bool
	delta     float64
	vary      []string
	targets   map[string]string
	fitMetric string
	trials    int
	perturb   float64
	seed      int64
)

var log = logrus.New()

func main() {
	rootCmd := &cobra.Command{
		Use:           "kinsim",
		Short:         "chemical reaction network simulator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			lvl, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			log.SetLevel(lvl)
			log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
			log.SetOutput(os.Stderr)
			viz.SetTheme(theme)
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", config.DefaultData, "data directory for saved runs")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&theme, "theme", viz.ThemeCyberpunk.Name, "color theme")

	runCmd := &cobra.Command{
		Use:   "run [deck|network|preset]",
		Short: "run a simulation and write its reports",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	addRunFlags(runCmd)
	runCmd.Flags().StringVar(&outDir, "out", config.DefaultOutDir, "report directory")
	runCmd.Flags().StringVar(&artifacts, "artifacts", "", "upload reports to file:///dir or s3://bucket/prefix")
	runCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write prometheus metrics to this textfile")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the run to the data directory")
	runCmd.Flags().BoolVar(&live, "live", false, "show progress and the result in the viewer")
	runCmd.Flags().BoolVar(&showPlot, "plot", false, "plot species after the run")
	runCmd.Flags().StringSliceVar(&phaseAxes, "phase", nil, "draw a phase portrait of two species, e.g. --phase A,B")
	runCmd.Flags().StringVar(&jsonOut, "json", "", "also export the full result as JSON to this path")
	runCmd.Flags().Float64Var(&steadyTol, "steady-tol", 1e-6, "rate below which a species counts as steady")

	viewCmd := &cobra.Command{
		Use:   "view [deck|network|preset]",
		Short: "run a simulation and browse it interactively",
		Args:  cobra.MaximumNArgs(1),
		RunE:  viewSimulation,
	}
	addRunFlags(viewCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list saved runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot the species of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	plotCmd.Flags().StringSliceVar(&speciesFilter, "species", nil, "species to plot (default all)")
	plotCmd.Flags().BoolVar(&extents, "extents", false, "plot reaction extents instead")
	plotCmd.Flags().StringVar(&imageOut, "image", "", "also save the plot as .svg, .png, .pdf or .eps")

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "braille phase portrait of two species of a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	phaseCmd.Flags().StringVar(&xSpecies, "x", "", "species on the x axis (default the first)")
	phaseCmd.Flags().StringVar(&ySpecies, "y", "", "species on the y axis (default the second)")
	phaseCmd.Flags().StringVar(&svgOut, "svg", "", "also save the portrait as svg")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "print a saved run as json metadata or csv series",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&exportFormat, "format", "json", "json or csv")
	exportCmd.Flags().BoolVar(&extents, "extents", false, "export reaction extents (csv)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "power spectrum of a species in a saved run",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().StringVar(&species, "species", "", "species to analyze (default the first)")

	catalogCmd := &cobra.Command{
		Use:   "catalog [run_id]",
		Short: "query the run catalog",
		Args:  cobra.MaximumNArgs(1),
		RunE:  queryCatalog,
	}
	catalogCmd.Flags().StringVar(&networkFilter, "network", "", "only runs of this network")
	catalogCmd.Flags().IntVar(&limit, "limit", 20, "maximum entries (0 for all)")

	compareCmd := &cobra.Command{
		Use:   "compare [deck|network|preset] [method1] [method2] ...",
		Short: "run several methods on the same network",
		Args:  cobra.MinimumNArgs(1),
		RunE:  compareMethods,
	}
	addRunFlags(compareCmd)

	sweepCmd := &cobra.Command{
		Use:   "sweep [deck|network|preset]",
		Short: "final concentration of a species against a rate constant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sweepRate,
	}
	addRunFlags(sweepCmd)
	sweepCmd.Flags().IntVar(&reaction, "reaction", 1, "reaction number (1-based)")
	sweepCmd.Flags().StringVar(&species, "species", "", "species to record (default the last)")
	sweepCmd.Flags().Float64Var(&sweepFrom, "from", 0.1, "first kf")
	sweepCmd.Flags().Float64Var(&sweepTo, "to", 10, "last kf")
	sweepCmd.Flags().IntVar(&points, "points", 20, "number of kf values")
	sweepCmd.Flags().BoolVar(&logSweep, "log", false, "space kf values geometrically")

	sensCmd := &cobra.Command{
		Use:   "sensitivity [deck|network|preset]",
		Short: "normalized sensitivity of final concentrations to a rate constant",
		Args:  cobra.MaximumNArgs(1),
		RunE:  sensitivity,
	}
	addRunFlags(sensCmd)
	sensCmd.Flags().IntVar(&reaction, "reaction", 1, "reaction number (1-based)")
	sensCmd.Flags().Float64Var(&delta, "delta", 0.01, "relative perturbation of kf")

	fitCmd := &cobra.Command{
		Use:   "fit [deck|network|preset]",
		Short: "grid search forward rate constants that minimize a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  fitRates,
	}
	addRunFlags(fitCmd)
	fitCmd.Flags().StringArrayVar(&vary, "vary", nil, "reaction=from:to:points, e.g. --vary 1=0.1:10:20 (repeatable)")
	fitCmd.Flags().StringToStringVar(&targets, "target", nil, "target final concentrations, e.g. --target B=0.8")
	fitCmd.Flags().StringVar(&fitMetric, "metric", "", "metric to minimize (default target_error)")
	fitCmd.Flags().BoolVar(&logSweep, "log", false, "space kf values geometrically")

	scenarioCmd := &cobra.Command{
		Use:   "scenario [file.yaml]",
		Short: "run a scripted sequence of simulations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScenario,
	}
	scenarioCmd.Flags().BoolVar(&noSave, "no-save", false, "do not save the runs to the data directory")

	mcCmd := &cobra.Command{
		Use:   "montecarlo [deck|network|preset]",
		Short: "spread of final concentrations under perturbed initial concentrations",
		Args:  cobra.MaximumNArgs(1),
		RunE:  monteCarlo,
	}
	addRunFlags(mcCmd)
	mcCmd.Flags().IntVar(&trials, "trials", 50, "number of trials")
	mcCmd.Flags().Float64Var(&perturb, "perturb", 0.1, "relative perturbation of free species")
	mcCmd.Flags().Int64Var(&seed, "seed", 0, "random seed (0 uses the clock)")

	termsCmd := &cobra.Command{
		Use:   "terms [deck|network|preset]",
		Short: "print the rate equations and the jacobian sparsity",
		Args:  cobra.MaximumNArgs(1),
		RunE:  printTerms,
	}
	addRunFlags(termsCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list built-in networks",
		Run: func(cmd *cobra.Command, args []string) {
			listPresets()
		},
	}

	rootCmd.AddCommand(runCmd, viewCmd, listCmd, plotCmd, phaseCmd, exportCmd, analyzeCmd,
		catalogCmd, compareCmd, sweepCmd, sensCmd, fitCmd,
		scenarioCmd, mcCmd, termsCmd, presetsCmd)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

func addRunFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "run config file (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use a built-in network")
	cmd.Flags().StringVar(&method, "method", config.DefaultMethod, "integration method or legacy code")
	cmd.Flags().Float64Var(&t0, "t0", config.DefaultStart, "initial time")
	cmd.Flags().Float64Var(&tf, "tf", config.DefaultEnd, "final time")
	cmd.Flags().IntVar(&steps, "steps", config.DefaultSteps, "steps per window")
	cmd.Flags().IntVar(&skip, "skip", config.DefaultSkip, "report every skip-th step")
	cmd.Flags().BoolVar(&noDiagnostics, "no-diagnostics", false, "do not track reaction extents")
	cmd.Flags().IntVar(&maxRows, "max-rows", 0, "row cap for adaptive windows (0 unlimited)")
}

package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/san-kum/kinsim/internal/config"
	"github.com/san-kum/kinsim/internal/deck"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

var errNoInput = errors.New("no input: give a deck, a network file, a preset name or --config")

// job is one data set ready to simulate.
type job struct {
	name string
	deck *deck.Deck
	sim  sim.Config
}

func (j job) termsOnly() bool { return j.deck.TermsOnly() }

// loadJobs resolves the command input into data sets. Settings are layered:
// defaults, then the preset or the run config file, then changed flags. A
// legacy deck carries its own times, steps and option, which flags still
// override.
func loadJobs(cmd *cobra.Command, args []string) ([]job, *config.Config, error) {
	cfg := config.DefaultConfig()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	source := cfg.Network
	if len(args) > 0 {
		source = args[0]
	}
	if preset != "" {
		source = preset
	}
	if source == "" {
		return nil, nil, errNoInput
	}

	if p := config.GetPreset(source); p != nil && (preset != "" || !exists(source)) {
		if configFile == "" {
			p.Apply(cfg)
		}
		if err := applyFlags(cmd, cfg); err != nil {
			return nil, nil, err
		}
		j, err := networkJob(source, &p.Network, cfg)
		if err != nil {
			return nil, nil, err
		}
		return []job{j}, cfg, nil
	}

	if err := applyFlags(cmd, cfg); err != nil {
		return nil, nil, err
	}

	switch strings.ToLower(filepath.Ext(source)) {
	case ".yaml", ".yml", ".toml":
		nf, err := config.LoadNetwork(source)
		if err != nil {
			return nil, nil, err
		}
		j, err := networkJob(nf.Name, nf, cfg)
		if err != nil {
			return nil, nil, err
		}
		return []job{j}, cfg, nil
	}

	decks, err := deck.ParseFile(source, deck.DefaultOptions())
	if err != nil {
		return nil, nil, err
	}
	base := strings.TrimSuffix(filepath.Base(source), filepath.Ext(source))
	jobs := make([]job, 0, len(decks))
	for _, d := range decks {
		j, err := deckJob(cmd, base, d, cfg)
		if err != nil {
			return nil, nil, err
		}
		jobs = append(jobs, j)
	}
	return jobs, cfg, nil
}

func networkJob(name string, nf *config.NetworkFile, cfg *config.Config) (job, error) {
	net, err := nf.Build()
	if err != nil {
		return job{}, err
	}
	sc, err := cfg.SimConfig()
	if err != nil {
		return job{}, err
	}
	d := deck.FromNetwork(net, sc.Start, sc.End, sc.Steps, cfg.Skip, int(sc.Method))
	return job{name: name, deck: d, sim: sc}, nil
}

func deckJob(cmd *cobra.Command, base string, d *deck.Deck, cfg *config.Config) (job, error) {
	flags := cmd.Flags()
	if flags.Changed("method") {
		m, err := integrators.ParseMethod(method)
		if err != nil {
			return job{}, err
		}
		d.Option = int(m)
	}
	if flags.Changed("t0") {
		d.Start = t0
	}
	if flags.Changed("tf") {
		d.End = tf
	}
	if flags.Changed("steps") {
		d.Steps = steps
	}
	if flags.Changed("skip") {
		d.Skip = skip
	}

	name := fmt.Sprintf("%s-%d", base, d.Index)
	if d.TermsOnly() {
		return job{name: name, deck: d}, nil
	}
	sc, err := d.SimConfig()
	if err != nil {
		return job{}, err
	}
	sc.Diagnostics = cfg.Diagnostics
	sc.MaxRows = cfg.MaxRows
	sc.Integrator = integrators.Options{Adaptive: cfg.Adaptive, Newton: cfg.Newton}
	return job{name: name, deck: d, sim: sc}, nil
}

// applyFlags copies explicitly set flags over cfg.
func applyFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Changed("method") {
		cfg.Method = method
	}
	if flags.Changed("t0") {
		cfg.Start = t0
	}
	if flags.Changed("tf") {
		cfg.End = tf
	}
	if flags.Changed("steps") {
		cfg.Steps = steps
	}
	if flags.Changed("skip") {
		cfg.Skip = skip
	}
	if flags.Changed("no-diagnostics") {
		cfg.Diagnostics = !noDiagnostics
	}
	if flags.Changed("max-rows") {
		cfg.MaxRows = maxRows
	}
	if flags.Changed("out") {
		cfg.Output.Dir = outDir
	}
	if flags.Changed("artifacts") {
		cfg.Output.Artifacts = artifacts
	}
	if flags.Changed("metrics-file") {
		cfg.Output.MetricsFile = metricsFile
	}
	if flags.Changed("data") {
		cfg.Output.DataDir = dataDir
	}
	return cfg.Validate()
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// firstJob returns the first data set that runs a simulation.
func firstJob(jobs []job) (job, error) {
	for _, j := range jobs {
		if !j.termsOnly() {
			return j, nil
		}
	}
	return job{}, fmt.Errorf("input has no data set to simulate")
}

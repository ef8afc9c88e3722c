// Package automation runs scripted sequences of simulations and Monte Carlo
// studies over initial concentrations.
package automation

import (
	"context"
	"fmt"
	"maps"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/config"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/sim"
)

// Scenario defines a scripted simulation sequence
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is a single run in a scenario. Network is a registered name
// or a network file. Rates keys are reaction labels or r1, r2... and set the
// forward rate constant; Initial keys are species names.
type ScenarioStep struct {
	Network string             `yaml:"network"`
	Method  string             `yaml:"method"`
	Start   float64            `yaml:"t0"`
	End     float64            `yaml:"tf"`
	Steps   int                `yaml:"steps"`
	Rates   map[string]float64 `yaml:"rates"`
	Initial map[string]float64 `yaml:"initial"`
	SaveAs  string             `yaml:"save_as"`
}

// StepResult is the outcome of one scenario step.
type StepResult struct {
	Name    string
	Network *chem.Network
	Result  *sim.Result
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("scenario %s: %w", path, err)
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %s has no steps", path)
	}
	if scenario.Name == "" {
		scenario.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return &scenario, nil
}

// RunScenario executes all steps in order and stops at the first failure.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry, log logrus.FieldLogger) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s-%d", scenario.Name, i+1)
		}
		slog := log.WithFields(logrus.Fields{"scenario": scenario.Name, "step": i + 1, "network": step.Network})
		slog.Info("running step")

		net, err := stepNetwork(registry, step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		cfg, err := stepConfig(step)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(experiment.Config{Name: name, Network: net, Sim: cfg}, slog)
		if err := exp.Setup(registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Network: net, Result: result})
	}

	return results, nil
}

func stepNetwork(registry *experiment.Registry, step ScenarioStep) (*chem.Network, error) {
	net, err := registry.GetNetwork(step.Network)
	if err != nil {
		nf, ferr := config.LoadNetwork(step.Network)
		if ferr != nil {
			return nil, err
		}
		if net, err = nf.Build(); err != nil {
			return nil, err
		}
	}

	labels := net.Labels()
	for _, key := range slices.Sorted(maps.Keys(step.Rates)) {
		r := slices.Index(labels, key)
		if r < 0 {
			return nil, fmt.Errorf("%w: %s", chem.ErrUnknownReaction, key)
		}
		if net, err = net.WithRates(r, step.Rates[key], net.Reactions[r].Kb); err != nil {
			return nil, err
		}
	}
	for _, key := range slices.Sorted(maps.Keys(step.Initial)) {
		i, err := net.Index(key)
		if err != nil {
			return nil, err
		}
		if net, err = net.WithInitial(i, step.Initial[key]); err != nil {
			return nil, err
		}
	}
	return net, nil
}

func stepConfig(step ScenarioStep) (sim.Config, error) {
	c := config.DefaultConfig()
	if step.Method != "" {
		c.Method = step.Method
	}
	if step.End != 0 || step.Start != 0 {
		c.Start, c.End = step.Start, step.End
	}
	if step.Steps != 0 {
		c.Steps = step.Steps
	}
	return c.SimConfig()
}

// MonteCarloConfig defines a Monte Carlo study. Each trial scales the
// initial concentration of every free species by a uniform factor in
// [1-Perturbation, 1+Perturbation].
type MonteCarloConfig struct {
	Network      *chem.Network
	Sim          sim.Config
	Perturbation float64
	NumTrials    int
	Seed         int64
}

// MonteCarloResult is one trial. Final is nil when the run failed.
type MonteCarloResult struct {
	TrialID int
	Initial chem.State
	Final   chem.State
	Err     error
}

// RunMonteCarlo executes the trials in sequence. A failed trial is recorded
// and does not stop the study; a cancelled context does.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, log logrus.FieldLogger) ([]MonteCarloResult, error) {
	if cfg.Network == nil {
		return nil, fmt.Errorf("monte carlo: no network")
	}
	if !(cfg.Perturbation >= 0) || cfg.Perturbation > 1 {
		return nil, fmt.Errorf("monte carlo: perturbation %g outside [0, 1]", cfg.Perturbation)
	}
	results := make([]MonteCarloResult, 0, cfg.NumTrials)

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	base := cfg.Network.InitialState()
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		net := cfg.Network
		for i, c := range base {
			if !net.Free(i) {
				continue
			}
			f := 1 + (rng.Float64()*2-1)*cfg.Perturbation
			var err error
			if net, err = net.WithInitial(i, c*f); err != nil {
				return results, err
			}
		}

		r := MonteCarloResult{TrialID: trial, Initial: net.InitialState()}
		res, err := sim.New(log).Run(ctx, net, cfg.Sim)
		if err != nil {
			if ctx.Err() != nil {
				return results, ctx.Err()
			}
			r.Err = err
		} else {
			r.Final = res.Store.Final()
		}
		results = append(results, r)

		if (trial+1)%10 == 0 {
			log.WithFields(logrus.Fields{"done": trial + 1, "trials": cfg.NumTrials}).Debug("monte carlo progress")
		}
	}

	return results, nil
}

// MonteCarloStats returns the mean and standard deviation of each species'
// final concentration over the successful trials.
func MonteCarloStats(results []MonteCarloResult) (mean, std []float64, failed int) {
	var finals []chem.State
	for _, r := range results {
		if r.Err != nil || r.Final == nil {
			failed++
			continue
		}
		finals = append(finals, r.Final)
	}
	if len(finals) == 0 {
		return nil, nil, failed
	}

	n := len(finals[0])
	mean, std = make([]float64, n), make([]float64, n)
	col := make([]float64, len(finals))
	for i := 0; i < n; i++ {
		for t, f := range finals {
			col[t] = f[i]
		}
		mean[i], std[i] = stat.MeanStdDev(col, nil)
		// a single trial has no spread
		if math.IsNaN(std[i]) {
			std[i] = 0
		}
	}
	return mean, std, failed
}

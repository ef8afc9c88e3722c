// Package optim searches forward rate constants for the values that minimize
// a run metric.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"maps"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/experiment"
	"github.com/san-kum/kinsim/internal/sim"
)

var ErrNoResult = errors.New("optim: no grid point produced a finite metric")

// Param is one swept forward rate constant. Reaction is 0-based.
type Param struct {
	Name     string
	Reaction int
	Values   []float64
}

// Grid returns points values from from to to, inclusive, spaced linearly or
// geometrically.
func Grid(from, to float64, points int, log bool) ([]float64, error) {
	if points < 2 {
		return nil, fmt.Errorf("optim: need at least 2 points, got %d", points)
	}
	if log && !(from > 0 && to > 0) {
		return nil, fmt.Errorf("optim: log grid needs positive bounds, got %g..%g", from, to)
	}
	out := make([]float64, points)
	for i := range out {
		f := float64(i) / float64(points-1)
		if log {
			out[i] = from * math.Pow(to/from, f)
		} else {
			out[i] = from + f*(to-from)
		}
	}
	return out, nil
}

type GridSearch struct {
	params    []Param
	evaluated int
	failed    int
}

func NewGridSearch(params []Param) *GridSearch {
	return &GridSearch{params: params}
}

// Evaluated and Failed count the runs of the last Search.
func (g *GridSearch) Evaluated() int { return g.evaluated }
func (g *GridSearch) Failed() int    { return g.failed }

// Search runs one experiment per grid point and returns the point with the
// smallest value of metricName. Failed runs and NaN values are skipped.
func (g *GridSearch) Search(
	ctx context.Context,
	buildExperiment func(params map[string]float64) (*experiment.Experiment, error),
	metricName string,
) (map[string]float64, float64, error) {
	g.evaluated, g.failed = 0, 0

	best := math.Inf(1)
	var bestParams map[string]float64

	err := g.searchRecursive(ctx, 0, make(map[string]float64), buildExperiment, metricName, &best, &bestParams)
	if err != nil {
		return bestParams, best, err
	}
	if bestParams == nil {
		return nil, math.NaN(), ErrNoResult
	}
	return bestParams, best, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	buildExperiment func(map[string]float64) (*experiment.Experiment, error),
	metricName string,
	best *float64,
	bestParams *map[string]float64,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.params) {
		g.evaluated++
		exp, err := buildExperiment(current)
		if err != nil {
			return err
		}

		result, err := exp.Run(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			g.failed++
			return nil
		}

		val, ok := result.Metrics[metricName]
		if !ok {
			return fmt.Errorf("optim: run has no metric %q", metricName)
		}
		if val < *best {
			*best = val
			*bestParams = maps.Clone(current)
		}
		return nil
	}

	p := g.params[depth]
	for _, val := range p.Values {
		next := maps.Clone(current)
		next[p.Name] = val
		if err := g.searchRecursive(ctx, depth+1, next, buildExperiment, metricName, best, bestParams); err != nil {
			return err
		}
	}
	return nil
}

// RateBuilder returns a buildExperiment func for Search that sets each
// param's forward rate constant on net, keeping the backward one, and
// attaches the metric built by newMetric.
func RateBuilder(net *chem.Network, cfg sim.Config, params []Param, newMetric func() (sim.Metric, error)) func(map[string]float64) (*experiment.Experiment, error) {
	return func(values map[string]float64) (*experiment.Experiment, error) {
		n := net
		for _, p := range params {
			v, ok := values[p.Name]
			if !ok {
				return nil, fmt.Errorf("optim: no value for %s", p.Name)
			}
			if p.Reaction < 0 || p.Reaction >= n.NumReactions() {
				return nil, fmt.Errorf("%w: %d", chem.ErrUnknownReaction, p.Reaction+1)
			}
			var err error
			if n, err = n.WithRates(p.Reaction, v, n.Reactions[p.Reaction].Kb); err != nil {
				return nil, err
			}
		}

		m, err := newMetric()
		if err != nil {
			return nil, err
		}
		exp := experiment.New(experiment.Config{Name: "fit", Network: n, Sim: cfg}, nil)
		if err := exp.Setup([]sim.Metric{m}); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// Package experiment wires a network, a method and its observers into a
// runnable unit, and compares methods on the same network.
package experiment

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

type Config struct {
	Name    string
	Network *chem.Network
	Sim     sim.Config
}

type Experiment struct {
	cfg       Config
	log       logrus.FieldLogger
	simulator *sim.Simulator
}

func New(cfg Config, log logrus.FieldLogger) *Experiment {
	return &Experiment{cfg: cfg, log: log}
}

func (e *Experiment) Setup(metrics []sim.Metric, observers ...sim.Observer) error {
	if e.cfg.Network == nil {
		return fmt.Errorf("experiment %q has no network", e.cfg.Name)
	}
	e.simulator = sim.New(e.log)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	for _, o := range observers {
		e.simulator.AddObserver(o)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(ctx, e.cfg.Network, e.cfg.Sim)
}

func (e *Experiment) Config() Config { return e.cfg }

// Simulator returns the underlying simulator for adding observers.
func (e *Experiment) Simulator() *sim.Simulator {
	return e.simulator
}

// Comparison is one method's outcome in Compare. Diff is the largest
// absolute difference of its final state from the reference method's.
type Comparison struct {
	Method   integrators.Method
	Final    []float64
	Stats    integrators.Stats
	Warnings int
	Elapsed  time.Duration
	Diff     float64
	Err      error
}

// Compare runs net once per method concurrently. The first method that
// succeeds is the reference for Diff. Failed runs are reported in their
// entry rather than aborting the rest.
func Compare(ctx context.Context, net *chem.Network, base sim.Config, methods []integrators.Method, log logrus.FieldLogger) []Comparison {
	cfgs := make([]sim.Config, len(methods))
	for i, m := range methods {
		cfgs[i] = base
		cfgs[i].Method = m
	}

	ens := sim.NewEnsemble(func() *sim.Simulator { return sim.New(log) })
	results, errs := ens.RunEach(ctx, net, cfgs)

	out := make([]Comparison, len(methods))
	var ref []float64
	for i, res := range results {
		c := Comparison{Method: methods[i], Diff: math.NaN(), Err: errs[i]}
		if res != nil {
			c.Stats = res.Totals()
			c.Warnings = len(res.Warnings)
			c.Elapsed = res.Elapsed
		}
		if c.Err != nil {
			out[i] = c
			continue
		}
		c.Final = append([]float64(nil), res.Store.Final()...)
		if ref == nil {
			ref = c.Final
		}
		c.Diff = floats.Distance(c.Final, ref, math.Inf(1))
		out[i] = c
	}
	return out
}

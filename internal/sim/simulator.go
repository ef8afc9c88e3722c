package sim

import (
	"context"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// Simulator runs a network through its integration windows. A Simulator is
// not safe for concurrent use; give each goroutine its own.
type Simulator struct {
	log       logrus.FieldLogger
	pool      *StatePool
	metrics   []Metric
	observers []Observer
}

func New(log logrus.FieldLogger) *Simulator {
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Simulator{log: log, pool: NewStatePool()}
}

// WithPool shares a state pool, typically across an ensemble.
func (s *Simulator) WithPool(p *StatePool) *Simulator {
	s.pool = p
	return s
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

// Run integrates net over [cfg.Start, cfg.End]. Each window is seeded with
// the final state and extents of the one before. On failure the returned
// Result holds every window completed so far.
func (s *Simulator) Run(ctx context.Context, net *chem.Network, cfg Config) (*Result, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	integ, err := integrators.New(cfg.Method, cfg.Integrator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	began := time.Now()
	windows := Schedule(cfg.Start, cfg.End, net.Schedule())
	result := &Result{
		Network: net,
		Config:  cfg,
		Windows: windows,
		Store:   trajectory.NewStore(),
		Stats:   make([]integrators.Stats, 0, len(windows)),
		Metrics: make(map[string]float64),
	}
	defer func() { result.Elapsed = time.Since(began) }()

	for _, m := range s.metrics {
		m.Reset()
	}

	log := s.log.WithFields(logrus.Fields{
		"method":  cfg.Method.String(),
		"species": net.NumSpecies(),
		"windows": len(windows),
	})
	log.Debug("run started")

	c := integrators.NewContext(net, cfg.Start)
	x := s.pool.GetAndCopy(net.InitialState())
	extents := s.pool.Get(net.NumReactions())
	defer s.pool.Put(x)
	defer s.pool.Put(extents)

	opts := trajectory.Options{Diagnostics: cfg.Diagnostics, MaxRows: cfg.MaxRows}
	for _, w := range windows {
		tr := trajectory.New(w.Index, w.Start, w.End, cfg.Steps, net.NumSpecies(), net.NumReactions(), opts)
		tr.Seed(x, extents)
		c.Window = w.Index

		wlog := log.WithFields(logrus.Fields{"window": w.Index, "start": w.Start, "end": w.End})
		wlog.Debug("window started")

		st, err := integ.Integrate(ctx, c, tr)
		if err != nil {
			return result, failure(w, err)
		}
		if cfg.ValidateState && !chem.State(tr.Final()).IsValid() {
			return result, &SimulationError{Window: w.Index, Step: tr.Top(), Time: tr.Time(tr.Top()), Err: ErrInvalidState}
		}

		result.Store.Append(tr)
		result.Stats = append(result.Stats, st)
		if st.Truncated {
			warn := Warning{
				Window:         w.Index,
				Achieved:       st.Reached,
				Requested:      w.End,
				AchievedSteps:  st.Accepted,
				RequestedSteps: cfg.Steps,
			}
			result.Warnings = append(result.Warnings, warn)
			wlog.WithFields(logrus.Fields{
				"reached":  st.Reached,
				"accepted": st.Accepted,
				"rejected": st.Rejected,
			}).Warn("adaptive window truncated")
		}

		for _, m := range s.metrics {
			m.Observe(net, tr)
		}
		for _, o := range s.observers {
			o.OnWindow(tr, st)
		}

		copy(x, tr.Final())
		if fe := tr.FinalExtents(); fe != nil {
			copy(extents, fe)
		}
		wlog.WithFields(logrus.Fields{"steps": st.Accepted, "evaluations": st.Evaluations}).Debug("window finished")
	}

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	log.WithField("warnings", len(result.Warnings)).Debug("run finished")
	return result, nil
}

func validateConfig(cfg Config) error {
	if cfg.Steps < 1 {
		return fmt.Errorf("%w: steps must be positive, got %d", ErrInvalidConfig, cfg.Steps)
	}
	if math.IsNaN(cfg.Start) || math.IsNaN(cfg.End) || math.IsInf(cfg.Start, 0) || math.IsInf(cfg.End, 0) {
		return fmt.Errorf("%w: non-finite time interval", ErrInvalidConfig)
	}
	if !(cfg.End > cfg.Start) {
		return fmt.Errorf("%w: final time %g must exceed initial time %g", ErrInvalidConfig, cfg.End, cfg.Start)
	}
	if !cfg.Method.Valid() {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, cfg.Method)
	}
	return nil
}

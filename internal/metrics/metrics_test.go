package metrics

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/trajectory"
)

func isomer(t *testing.T) *chem.Network {
	t.Helper()
	net, err := chem.NewBuilder().
		AddSpecies("A", 1, chem.Free).
		AddSpecies("B", 0, chem.Free).
		AddSpecies("C", 5, chem.Held).
		AddReaction(chem.ReactionSpec{Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func window(rows ...[]float64) *trajectory.Trajectory {
	tr := trajectory.New(0, 0, 1, len(rows)-1, len(rows[0]), 1, trajectory.Options{})
	for t, r := range rows {
		copy(tr.Species.Row(t), r)
	}
	return tr
}

func TestMassDrift(t *testing.T) {
	net := isomer(t)
	m := NewMassDrift()

	m.Observe(net, window([]float64{1, 0, 5}, []float64{0.6, 0.4, 5}, []float64{0.5, 0.52, 5}))
	if math.Abs(m.Value()-0.02) > 1e-12 {
		t.Errorf("expected drift 0.02, got %g", m.Value())
	}

	// held species do not count toward the total
	m.Reset()
	m.Observe(net, window([]float64{1, 0, 5}, []float64{1, 0, 50}))
	if m.Value() != 0 {
		t.Errorf("expected zero drift after reset, got %g", m.Value())
	}
}

func TestMassDriftOverRun(t *testing.T) {
	net := isomer(t)
	s := sim.New(nil)
	drift := NewMassDrift()
	s.AddMetric(drift)

	cfg := sim.DefaultConfig()
	cfg.End = 2
	cfg.Steps = 200
	res, err := s.Run(context.Background(), net, cfg)
	if err != nil {
		t.Fatal(err)
	}
	if res.Metrics["mass_drift"] > 1e-12 {
		t.Errorf("rk4 should conserve A+B, drift %g", res.Metrics["mass_drift"])
	}
}

func TestMinConcentration(t *testing.T) {
	net := isomer(t)
	m := NewMinConcentration()
	if m.Value() != 0 {
		t.Errorf("expected 0 before any sample, got %g", m.Value())
	}

	m.Observe(net, window([]float64{1, 0.2, 5}, []float64{0.3, 0.9, 5}))
	m.Observe(net, window([]float64{0.3, 0.9, 5}, []float64{0.25, 0.95, 5}))
	if m.Value() != 0.2 {
		t.Errorf("expected min 0.2, got %g", m.Value())
	}

	m.Reset()
	m.Observe(net, window([]float64{2, 3, 4}))
	if m.Value() != 2 {
		t.Errorf("expected min 2 after reset, got %g", m.Value())
	}
}

func TestExcursion(t *testing.T) {
	net := isomer(t)
	e := NewExcursion(4)
	e.Observe(net, window([]float64{1, 0, 5}, []float64{1, 0, 3}, []float64{1, 0, 3}, []float64{4.5, 0, 0}))
	if math.Abs(e.Value()-0.5) > 1e-12 {
		t.Errorf("expected 0.5, got %g", e.Value())
	}
	e.Reset()
	if e.Value() != 0 {
		t.Errorf("expected 0 after reset, got %g", e.Value())
	}
}

func TestEffort(t *testing.T) {
	e := NewEffort()
	e.OnWindow(nil, integrators.Stats{Accepted: 10, Evaluations: 40, Clamped: 1})
	e.OnWindow(nil, integrators.Stats{Accepted: 5, Rejected: 2, Evaluations: 42, Truncated: true})

	st, windows := e.Totals()
	if windows != 2 || st.Accepted != 15 || st.Rejected != 2 || st.Evaluations != 82 || !st.Truncated {
		t.Errorf("unexpected totals %+v over %d windows", st, windows)
	}
	if v := e.Values()["clamped"]; v != 1 {
		t.Errorf("expected 1 clamp, got %g", v)
	}

	e.Reset()
	if _, w := e.Totals(); w != 0 {
		t.Errorf("expected no windows after reset, got %d", w)
	}
}

func TestRecorder(t *testing.T) {
	net := isomer(t)
	rec := NewRecorder()

	cfg := sim.DefaultConfig()
	cfg.Method = integrators.MethodEuler
	cfg.End = 1
	cfg.Steps = 50

	s := sim.New(nil)
	s.AddObserver(rec.Observer(cfg.Method))
	res, err := s.Run(context.Background(), net, cfg)
	rec.ObserveRun(res, err)
	if err != nil {
		t.Fatal(err)
	}

	if v := testutil.ToFloat64(rec.steps.WithLabelValues("euler", "accepted")); v != 50 {
		t.Errorf("expected 50 accepted steps, got %g", v)
	}
	if v := testutil.ToFloat64(rec.windows.WithLabelValues("euler")); v != 1 {
		t.Errorf("expected 1 window, got %g", v)
	}
	if v := testutil.ToFloat64(rec.runs.WithLabelValues("euler", "ok")); v != 1 {
		t.Errorf("expected 1 ok run, got %g", v)
	}

	path := filepath.Join(t.TempDir(), "kinsim.prom")
	if err := rec.WriteTextfile(path); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `kinsim_steps_total{method="euler",outcome="accepted"} 50`) {
		t.Errorf("textfile missing step counter:\n%s", data)
	}
}

func TestTargetError(t *testing.T) {
	net := isomer(t)
	m := NewTargetError(map[string]float64{"A": 0.5, "B": 0.5})
	if got := m.Value(); !math.IsNaN(got) {
		t.Errorf("before observing = %v, want NaN", got)
	}

	m.Observe(net, window([]float64{1, 0, 5}, []float64{0.8, 0.2, 5}))
	m.Observe(net, window([]float64{0.8, 0.2, 5}, []float64{0.6, 0.4, 5}))
	if got := m.Value(); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("target error = %v, want 0.1", got)
	}

	m.Reset()
	if got := m.Value(); !math.IsNaN(got) {
		t.Errorf("after reset = %v, want NaN", got)
	}

	bad := NewTargetError(map[string]float64{"Z": 1})
	bad.Observe(net, window([]float64{1, 0, 5}))
	if got := bad.Value(); !math.IsNaN(got) {
		t.Errorf("unknown species = %v, want NaN", got)
	}
}

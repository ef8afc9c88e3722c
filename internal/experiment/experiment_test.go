package experiment

import (
	"context"
	"math"
	"slices"
	"testing"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

func TestRegistryLists(t *testing.T) {
	r := NewRegistry()

	if !slices.Contains(r.ListNetworks(), "isomerization") {
		t.Errorf("expected isomerization preset, got %v", r.ListNetworks())
	}
	want := []string{"excursion", "mass_drift", "min_concentration", "target_error"}
	if got := r.ListMetrics(); !slices.Equal(got, want) {
		t.Errorf("ListMetrics() = %v, want %v", got, want)
	}
}

func TestRegistryLookups(t *testing.T) {
	r := NewRegistry()

	net, err := r.GetNetwork("isomerization")
	if err != nil {
		t.Fatal(err)
	}
	if net.NumSpecies() != 2 || net.NumReactions() != 1 {
		t.Errorf("unexpected network shape: %d species, %d reactions", net.NumSpecies(), net.NumReactions())
	}
	if _, err := r.GetNetwork("nope"); err == nil {
		t.Error("expected error for unknown network")
	}

	m, err := r.GetMethod("stiff")
	if err != nil || m != integrators.MethodStiff {
		t.Errorf("GetMethod(stiff) = %v, %v", m, err)
	}
	if _, err := r.GetMethod("leapfrog"); err == nil {
		t.Error("expected error for unknown method")
	}

	ex, err := r.GetMetric("excursion", map[string]float64{"threshold": 2})
	if err != nil {
		t.Fatal(err)
	}
	if ex.Name() != "excursion" {
		t.Errorf("got metric %q", ex.Name())
	}
	if _, err := r.GetMetric("entropy", nil); err == nil {
		t.Error("expected error for unknown metric")
	}
}

func TestRegisterNetwork(t *testing.T) {
	r := NewRegistry()
	r.RegisterNetwork("decay", func() (*chem.Network, error) {
		return chem.NewBuilder().
			AddSpecies("A", 1, chem.Free).
			AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"A"}}).
			Build()
	})

	net, err := r.GetNetwork("decay")
	if err != nil {
		t.Fatal(err)
	}
	if net.NumSpecies() != 1 {
		t.Errorf("expected 1 species, got %d", net.NumSpecies())
	}
}

func TestExperimentRun(t *testing.T) {
	r := NewRegistry()
	net, err := r.GetNetwork("isomerization")
	if err != nil {
		t.Fatal(err)
	}

	cfg := sim.DefaultConfig()
	cfg.End = 5
	cfg.Steps = 500
	exp := New(Config{Name: "iso", Network: net, Sim: cfg}, nil)

	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
	if err := exp.Setup(r.DefaultMetrics()); err != nil {
		t.Fatal(err)
	}
	if exp.Simulator() == nil {
		t.Fatal("expected simulator after Setup")
	}

	res, err := exp.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if drift := res.Metrics["mass_drift"]; drift > 1e-9 {
		t.Errorf("A <-> B conserves A+B, got drift %g", drift)
	}
	if min := res.Metrics["min_concentration"]; min < 0 {
		t.Errorf("expected non-negative concentrations, got %g", min)
	}
	if exp.Config().Name != "iso" {
		t.Errorf("unexpected config %+v", exp.Config())
	}
}

func TestSetupWithoutNetwork(t *testing.T) {
	if err := New(Config{Name: "empty"}, nil).Setup(nil); err == nil {
		t.Error("expected error for experiment without network")
	}
}

func TestCompare(t *testing.T) {
	net, err := NewRegistry().GetNetwork("isomerization")
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.DefaultConfig()
	cfg.End = 2
	cfg.Steps = 200

	methods := []integrators.Method{integrators.MethodRK4, integrators.MethodEuler, integrators.MethodStiff}
	out := Compare(context.Background(), net, cfg, methods, nil)
	if len(out) != len(methods) {
		t.Fatalf("expected %d comparisons, got %d", len(methods), len(out))
	}

	if out[0].Err != nil || out[0].Diff != 0 {
		t.Errorf("reference run: diff %g, err %v", out[0].Diff, out[0].Err)
	}
	for _, c := range out[1:] {
		if c.Err != nil {
			t.Errorf("%v failed: %v", c.Method, c.Err)
			continue
		}
		if !(c.Diff > 0 && c.Diff < 1e-2) {
			t.Errorf("%v: expected small non-zero diff, got %g", c.Method, c.Diff)
		}
		if c.Stats.Accepted == 0 {
			t.Errorf("%v: expected recorded steps", c.Method)
		}
	}
}

func TestCompareReportsFailure(t *testing.T) {
	net, err := NewRegistry().GetNetwork("isomerization")
	if err != nil {
		t.Fatal(err)
	}
	cfg := sim.DefaultConfig()
	cfg.End = 1
	cfg.Steps = 10

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := Compare(ctx, net, cfg, []integrators.Method{integrators.MethodRK4}, nil)
	if out[0].Err == nil {
		t.Error("expected cancelled run to report its error")
	}
	if !math.IsNaN(out[0].Diff) {
		t.Errorf("failed run should have NaN diff, got %g", out[0].Diff)
	}
}

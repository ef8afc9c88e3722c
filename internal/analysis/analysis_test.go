package analysis

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/san-kum/kinsim/internal/sim"
)

func isomer(t *testing.T, kf, kb float64) *chem.Network {
	t.Helper()
	net, err := chem.NewBuilder().
		AddSpecies("A", 1, chem.Free).
		AddSpecies("B", 0, chem.Free).
		AddReaction(chem.ReactionSpec{Kf: kf, Kb: kb, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	return net
}

func config(end float64, steps int) sim.Config {
	cfg := sim.DefaultConfig()
	cfg.End = end
	cfg.Steps = steps
	return cfg
}

func run(t *testing.T, net *chem.Network, cfg sim.Config) *sim.Result {
	t.Helper()
	res, err := sim.New(nil).Run(context.Background(), net, cfg)
	if err != nil {
		t.Fatal(err)
	}
	return res
}

func TestSpectrumSine(t *testing.T) {
	n := 400
	times := make([]float64, n)
	values := make([]float64, n)
	for i := range times {
		times[i] = 20 * float64(i) / float64(n-1)
		values[i] = 3 + math.Sin(2*math.Pi*0.5*times[i])
	}

	sp, err := NewSpectrum(times, values)
	if err != nil {
		t.Fatal(err)
	}
	f, p := sp.Dominant()
	if math.Abs(f-0.5) > 0.05 {
		t.Errorf("expected dominant frequency 0.5, got %g", f)
	}
	if p <= sp.Power[0] {
		t.Errorf("mean should be removed: dc power %g, peak %g", sp.Power[0], p)
	}
}

func TestSpectrumTooShort(t *testing.T) {
	if _, err := NewSpectrum([]float64{0, 1, 1}, []float64{1, 2, 2}); err != ErrTooShort {
		t.Errorf("expected ErrTooShort, got %v", err)
	}
}

func TestInterpolateDropsRepeatedTimes(t *testing.T) {
	ts, vs := dedupe([]float64{0, 1, 1, 2}, []float64{0, 10, 10, 30})
	if len(ts) != 3 {
		t.Fatalf("expected 3 samples, got %d", len(ts))
	}
	tests := []struct {
		t, want float64
	}{
		{-1, 0},
		{0.5, 5},
		{1, 10},
		{1.5, 20},
		{3, 30},
	}
	for _, tt := range tests {
		if got := interpolate(ts, vs, tt.t); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("interpolate(%g) = %g, want %g", tt.t, got, tt.want)
		}
	}
}

func TestForcedResponseFrequency(t *testing.T) {
	sched := &forcing.Schedule{
		Shape:  forcing.Rectangle,
		Pulses: []forcing.Pulse{{Duration: 1, Target: 1}, {Duration: 1, Target: 0}},
	}
	net, err := chem.NewBuilder().
		AddForcedSpecies("S", 0, sched).
		AddSpecies("P", 0, chem.Free).
		AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"S"}, Outputs: []string{"S", "P"}}).
		AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"P"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	res := run(t, net, config(40, 50))
	times, values := res.Store.Series(1)
	sp, err := NewSpectrum(times, values)
	if err != nil {
		t.Fatal(err)
	}
	if f, _ := sp.Dominant(); math.Abs(f-0.5) > 0.03 {
		t.Errorf("expected response at the pulse cycle frequency 0.5, got %g", f)
	}
}

func TestSteadyState(t *testing.T) {
	net := isomer(t, 2, 1)
	res := run(t, net, config(20, 2000))

	rep := SteadyState(net, res.Store, 1e-6)
	if !rep.Steady {
		t.Errorf("expected steady state, max rate %g", rep.MaxRate)
	}
	if math.Abs(res.Store.Final()[0]-1.0/3) > 1e-6 {
		t.Errorf("expected A = 1/3, got %g", res.Store.Final()[0])
	}
	if !(rep.Settled > 0 && rep.Settled < 20) {
		t.Errorf("expected settling inside the run, got %g", rep.Settled)
	}

	early := SteadyState(net, run(t, net, config(0.1, 10)).Store, 1e-6)
	if early.Steady {
		t.Error("run stopped at t=0.1 should not be steady")
	}
	if math.Abs(early.Rates[0]+early.Rates[1]) > 1e-12 {
		t.Errorf("rates should cancel for A <-> B, got %v", early.Rates)
	}
}

func TestSteadyStateIgnoresHeld(t *testing.T) {
	net, err := chem.NewBuilder().
		AddSpecies("A", 1, chem.Held).
		AddSpecies("B", 0, chem.Held).
		AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	rep := SteadyState(net, run(t, net, config(1, 10)).Store, 1e-9)
	if !rep.Steady || rep.MaxRate != 0 {
		t.Errorf("held species never change: %+v", rep)
	}
	if !math.IsNaN(rep.Settled) {
		t.Errorf("expected NaN settling time, got %g", rep.Settled)
	}
}

func TestRateSweep(t *testing.T) {
	net := isomer(t, 2, 1)
	pts, err := RateSweep(context.Background(), net, config(20, 1000), SweepOptions{
		Reaction: 0,
		Species:  1,
		From:     1,
		To:       4,
		Points:   4,
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(pts) != 4 {
		t.Fatalf("expected 4 points, got %d", len(pts))
	}
	for _, p := range pts {
		want := p.Kf / (p.Kf + 1)
		if math.Abs(p.Final-want) > 1e-6 {
			t.Errorf("kf=%g: expected B=%g, got %g", p.Kf, want, p.Final)
		}
		if p.Min > p.Final || p.Max < p.Final {
			t.Errorf("kf=%g: final %g outside recorded range [%g, %g]", p.Kf, p.Final, p.Min, p.Max)
		}
	}
	if net.Reactions[0].Kf != 2 {
		t.Error("sweep modified the input network")
	}

	plot := SweepToASCII(pts, 20, 8)
	if strings.Count(plot, "\n") != 8 || !strings.Contains(plot, "•") {
		t.Errorf("unexpected sweep plot:\n%s", plot)
	}
}

func TestRateSweepLog(t *testing.T) {
	net := isomer(t, 2, 1)
	pts, err := RateSweep(context.Background(), net, config(1, 10), SweepOptions{From: 0.1, To: 10, Points: 3, Log: true})
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(pts[1].Kf-1) > 1e-12 {
		t.Errorf("expected geometric midpoint 1, got %g", pts[1].Kf)
	}

	if _, err := RateSweep(context.Background(), net, config(1, 10), SweepOptions{From: 0, To: 1, Log: true}); err == nil {
		t.Error("expected error for a log sweep from zero")
	}
	if _, err := RateSweep(context.Background(), net, config(1, 10), SweepOptions{Reaction: 3}); err == nil {
		t.Error("expected error for an unknown reaction")
	}
}

func TestSensitivity(t *testing.T) {
	net := isomer(t, 2, 1)
	s, err := Sensitivity(context.Background(), net, config(20, 2000), 0, 0.01)
	if err != nil {
		t.Fatal(err)
	}
	// at equilibrium A = kb/(kf+kb) and B = kf/(kf+kb)
	if math.Abs(s[0]+2.0/3) > 1e-3 {
		t.Errorf("expected S_A = -2/3, got %g", s[0])
	}
	if math.Abs(s[1]-1.0/3) > 1e-3 {
		t.Errorf("expected S_B = 1/3, got %g", s[1])
	}

	if _, err := Sensitivity(context.Background(), net, config(1, 10), 0, 1.5); err == nil {
		t.Error("expected error for perturbation outside (0, 1)")
	}
}

func TestPhasePortrait(t *testing.T) {
	net := isomer(t, 2, 1)
	res := run(t, net, config(2, 100))

	p := NewPhasePortrait(res.Store, 0, 1)
	if p == nil {
		t.Fatal("expected a portrait")
	}
	if len(p.Points) != 101 {
		t.Errorf("expected 101 points, got %d", len(p.Points))
	}
	for _, pt := range p.Points {
		if math.Abs(pt.X+pt.Y-1) > 1e-12 {
			t.Fatalf("point %v off the A+B=1 line", pt)
		}
	}

	art := p.ToASCII(30, 10)
	if strings.Count(art, "\n") != 10 || !strings.Contains(art, "•") {
		t.Errorf("unexpected portrait:\n%s", art)
	}

	if NewPhasePortrait(res.Store, 0, 5) != nil {
		t.Error("expected nil for an unknown species")
	}
}

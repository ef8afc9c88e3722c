package chem

import (
	"errors"
	"testing"

	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isomerization(t *testing.T) *Network {
	t.Helper()
	net, err := NewBuilder().
		AddSpecies("A", 1, Free).
		AddSpecies("B", 0, Free).
		AddReaction(ReactionSpec{Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	require.NoError(t, err)
	return net
}

func TestBuildResolvesNames(t *testing.T) {
	net, err := NewBuilder().
		AddSpecies(" A TP ", 1, Free).
		AddSpecies("ADP", 0, Held).
		AddReaction(ReactionSpec{Kf: 1, Inputs: []string{"ATP", "ATP"}, Outputs: []string{"A D P"}}).
		Build()
	require.NoError(t, err)

	assert.Equal(t, []string{"ATP", "ADP"}, net.Names())
	assert.Equal(t, []int{0, 0}, net.Reactions[0].Inputs)
	assert.Equal(t, []int{1}, net.Reactions[0].Outputs)
	assert.Equal(t, -1, net.Forced())

	i, err := net.Index("  AD P")
	require.NoError(t, err)
	assert.Equal(t, 1, i)
}

func TestBuildErrors(t *testing.T) {
	sched := &forcing.Schedule{Pulses: []forcing.Pulse{{Duration: 1, Target: 1}}}

	tests := []struct {
		name  string
		build func() *Builder
		err   error
	}{
		{"unknown species", func() *Builder {
			return NewBuilder().AddSpecies("A", 1, Free).
				AddReaction(ReactionSpec{Kf: 1, Inputs: []string{"A"}, Outputs: []string{"Z"}})
		}, ErrUnknownSpecies},
		{"duplicate species", func() *Builder {
			return NewBuilder().AddSpecies("A B", 1, Free).AddSpecies("AB", 1, Free)
		}, ErrDuplicateSpecies},
		{"empty name", func() *Builder {
			return NewBuilder().AddSpecies("   ", 1, Free)
		}, ErrEmptyName},
		{"negative rate", func() *Builder {
			return NewBuilder().AddSpecies("A", 1, Free).
				AddReaction(ReactionSpec{Kf: -1, Inputs: []string{"A"}})
		}, ErrInvalidRate},
		{"negative concentration", func() *Builder {
			return NewBuilder().AddSpecies("A", -1, Free)
		}, ErrInvalidConcentration},
		{"enzyme mismatch", func() *Builder {
			return NewBuilder().AddSpecies("E", 1, Free).AddSpecies("S", 1, Free).
				AddReaction(ReactionSpec{Kf: 1, Kinetics: MichaelisMenten, Inputs: []string{"E", "S"}, Outputs: []string{"S"}})
		}, ErrEnzyme},
		{"two forced", func() *Builder {
			return NewBuilder().AddForcedSpecies("A", 1, sched).AddForcedSpecies("B", 1, sched)
		}, ErrMultipleForced},
		{"forced without schedule", func() *Builder {
			return NewBuilder().AddSpecies("A", 1, Trapezoid)
		}, ErrForcing},
		{"capacity", func() *Builder {
			return NewBuilder().WithLimits(Limits{MaxSpecies: 1}).AddSpecies("A", 1, Free).AddSpecies("B", 1, Free)
		}, ErrCapacity},
		{"no participants", func() *Builder {
			return NewBuilder().AddSpecies("A", 1, Free).AddReaction(ReactionSpec{Kf: 1})
		}, ErrNoParticipants},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build().Build()
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.err), "expected %v, got %v", tt.err, err)
		})
	}
}

func TestConfigErrorMessage(t *testing.T) {
	_, err := NewBuilder().AddSpecies("A", 1, Free).
		AddReaction(ReactionSpec{Label: "bad", Kf: 1, Inputs: []string{"Q"}}).
		Build()

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "reaction", cfgErr.Table)
	assert.Equal(t, 0, cfgErr.Index)
	assert.Contains(t, err.Error(), "reaction 1 (bad)")
}

func TestForcedSpecies(t *testing.T) {
	sched := &forcing.Schedule{Shape: forcing.Rectangle, Pulses: []forcing.Pulse{{Duration: 1, Target: 1}}}
	net, err := NewBuilder().AddSpecies("A", 1, Free).AddForcedSpecies("S", 0, sched).Build()
	require.NoError(t, err)

	assert.Equal(t, 1, net.Forced())
	assert.Equal(t, Rectangle, net.Species[1].Fix)
	assert.Same(t, sched, net.Schedule())
	assert.False(t, net.Free(1))
}

func TestCodes(t *testing.T) {
	for _, code := range []int{0, 1, 10, 20} {
		m, err := FixModeFromCode(code)
		require.NoError(t, err)
		assert.Equal(t, code, m.Code())
	}
	_, err := FixModeFromCode(3)
	assert.Error(t, err)

	k, err := KineticsFromCode(11)
	require.NoError(t, err)
	assert.Equal(t, MichaelisMenten, k)
	_, err = KineticsFromCode(2)
	assert.Error(t, err)
}

func TestWithRates(t *testing.T) {
	net, err := NewBuilder().
		AddSpecies("A", 1, Free).
		AddSpecies("B", 0, Free).
		AddReaction(ReactionSpec{Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	swept, err := net.WithRates(0, 5, 0.5)
	if err != nil {
		t.Fatal(err)
	}
	if swept.Reactions[0].Kf != 5 || swept.Reactions[0].Kb != 0.5 {
		t.Errorf("rates not replaced: %+v", swept.Reactions[0])
	}
	if net.Reactions[0].Kf != 2 {
		t.Errorf("original network modified: kf = %g", net.Reactions[0].Kf)
	}
	if i, err := swept.Index("B"); err != nil || i != 1 {
		t.Errorf("index lost in copy: %d, %v", i, err)
	}

	if _, err := net.WithRates(1, 1, 1); !errors.Is(err, ErrUnknownReaction) {
		t.Errorf("expected ErrUnknownReaction, got %v", err)
	}
	if _, err := net.WithRates(0, -1, 1); !errors.Is(err, ErrInvalidRate) {
		t.Errorf("expected ErrInvalidRate, got %v", err)
	}
}

func TestWithInitial(t *testing.T) {
	net, err := NewBuilder().
		AddSpecies("A", 1, Free).
		AddSpecies("B", 0, Free).
		Build()
	if err != nil {
		t.Fatal(err)
	}

	moved, err := net.WithInitial(1, 0.25)
	if err != nil {
		t.Fatal(err)
	}
	if got := moved.InitialState(); got[0] != 1 || got[1] != 0.25 {
		t.Errorf("initial state = %v", got)
	}
	if net.Species[1].Initial != 0 {
		t.Errorf("original network modified")
	}
	if _, err := net.WithInitial(2, 1); !errors.Is(err, ErrUnknownSpecies) {
		t.Errorf("expected ErrUnknownSpecies, got %v", err)
	}
	if _, err := net.WithInitial(0, -1); !errors.Is(err, ErrInvalidConcentration) {
		t.Errorf("expected ErrInvalidConcentration, got %v", err)
	}
}

func TestLabels(t *testing.T) {
	net, err := NewBuilder().
		AddSpecies("A", 1, Free).
		AddSpecies("B", 0, Free).
		AddReaction(ReactionSpec{Label: "fwd", Kf: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		AddReaction(ReactionSpec{Kf: 1, Inputs: []string{"B"}}).
		Build()
	if err != nil {
		t.Fatal(err)
	}
	labels := net.Labels()
	if len(labels) != 2 || labels[0] != "fwd" || labels[1] != "r2" {
		t.Errorf("Labels() = %v", labels)
	}
}

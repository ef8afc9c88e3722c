package deck

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/san-kum/kinsim/internal/integrators"
)

func TestParseFile(t *testing.T) {
	decks, err := ParseFile("testdata/kin.i01", DefaultOptions())
	require.NoError(t, err)
	require.Len(t, decks, 2)

	d := decks[0]
	assert.Equal(t, 1, d.Index)
	assert.Equal(t, 0.0, d.Start)
	assert.Equal(t, 5.0, d.End)
	assert.Equal(t, 500, d.Steps)
	assert.Equal(t, 50, d.Skip)
	m, err := d.Method()
	require.NoError(t, err)
	assert.Equal(t, integrators.MethodRK4, m)
	assert.Equal(t, []string{"A", "B"}, d.Network.Names())
	require.Len(t, d.Network.Reactions, 1)
	assert.Equal(t, 2.0, d.Network.Reactions[0].Kf)
	assert.Equal(t, "reaction 1: A <-> B", d.Network.Reactions[0].Label)
	assert.Len(t, d.Echo, 5)
	assert.Contains(t, d.Echo[0], "data set 1")
}

func TestParseForcedEnzymeSet(t *testing.T) {
	decks, err := ParseFile("testdata/kin.i01", DefaultOptions())
	require.NoError(t, err)
	d := decks[1]

	assert.Equal(t, 10.0, d.End, "numbers may wrap across lines")
	assert.Equal(t, 200, d.Steps)
	assert.Equal(t, 4, d.Option)

	net := d.Network
	assert.Equal(t, []string{"Enz", "S", "P", "W"}, net.Names(), "names lose all whitespace")
	assert.Equal(t, 1, net.Forced())
	assert.Equal(t, chem.Held, net.Species[3].Fix)

	sched := net.Schedule()
	require.NotNil(t, sched)
	assert.Equal(t, forcing.Rectangle, sched.Shape)
	assert.Equal(t, 0.0, sched.Start)
	assert.Equal(t, []forcing.Pulse{{Duration: 1, Target: 2}, {Duration: 3, Target: 0}}, sched.Pulses)

	mm := net.Reactions[0]
	assert.Equal(t, chem.MichaelisMenten, mm.Kinetics)
	assert.Equal(t, 5.0, mm.Kf2)
	assert.Equal(t, 0, mm.Enzyme())

	assert.Equal(t, 0.5, net.Reactions[1].Kf, "Fortran exponent")
	assert.Equal(t, []int{2, 3}, net.Reactions[1].Inputs)

	cfg, err := d.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, integrators.MethodRK45Adaptive, cfg.Method)
	assert.Equal(t, 200, cfg.Steps)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrNoDataSet},
		{"no marker", "2 1\n0 1 10 1 3\n", ErrNoDataSet},
		{"truncated", "data set 1\nlabel\n2 1\n", ErrSyntax},
		{"bad number", "data set 1\nlabel\n2 x\n", ErrSyntax},
		{"too many steps", "data set 1\nl\n1 0\nl\n0 1 60000 1 3\nl\nA\n1 0\n", ErrRange},
		{"bad fix code", "data set 1\nl\n1 0\nl\n0 1 10 1 3\nl\nA\n1 7\n", ErrRange},
		{"bad kinetics", "data set 1\nl\n1 1\nl\n0 1 10 1 3\nl\nA\n1 0\nr\n1 0 1 0 3\nA\n", ErrRange},
		{"unknown species", "data set 1\nl\n1 1\nl\n0 1 10 1 3\nl\nA\n1 0\nr\n1 0 1 1 1\nA\nZ\n", chem.ErrUnknownSpecies},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.input), DefaultOptions())
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParseErrorLocation(t *testing.T) {
	_, err := Parse(strings.NewReader("data set 1\nlabel\n2 x\n"), DefaultOptions())
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 1, pe.Set)
	assert.Equal(t, 3, pe.Line)
}

func TestLimits(t *testing.T) {
	opts := DefaultOptions()
	opts.Limits.MaxSpecies = 1
	_, err := ParseFile("testdata/kin.i01", opts)
	assert.ErrorIs(t, err, chem.ErrCapacity)
}

func TestTermsOption(t *testing.T) {
	input := "data set 1\nl\n1 0\nl\n0 1 10 1 6\nl\nA\n1 0\n"
	decks, err := Parse(strings.NewReader(input), DefaultOptions())
	require.NoError(t, err)
	assert.True(t, decks[0].TermsOnly())
	_, err = decks[0].Method()
	assert.ErrorIs(t, err, integrators.ErrUnknownMethod)
}

func TestWriteRoundTrip(t *testing.T) {
	decks, err := ParseFile("testdata/kin.i01", DefaultOptions())
	require.NoError(t, err)

	for _, d := range decks {
		var buf bytes.Buffer
		require.NoError(t, Write(&buf, d))

		back, err := Parse(&buf, DefaultOptions())
		require.NoError(t, err)
		require.Len(t, back, 1)
		got := back[0]

		assert.Equal(t, d.Network.Species, got.Network.Species)
		assert.Equal(t, d.Network.Reactions, got.Network.Reactions)
		assert.Equal(t, d.Echo, got.Echo)
		assert.Equal(t, []any{d.Start, d.End, d.Steps, d.Skip, d.Option},
			[]any{got.Start, got.End, got.Steps, got.Skip, got.Option})
	}
}

func TestFromNetwork(t *testing.T) {
	net, err := chem.NewBuilder().
		AddSpecies("A", 1, chem.Free).
		AddReaction(chem.ReactionSpec{Kf: 1, Inputs: []string{"A"}}).
		Build()
	require.NoError(t, err)

	d := FromNetwork(net, 0, 2, 100, 10, 3)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, d))
	assert.Contains(t, buf.String(), "reaction 1\n")

	back, err := Parse(&buf, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 1.0, back[0].Network.Reactions[0].Kf)
	assert.Equal(t, 10, back[0].SampleEvery())
}

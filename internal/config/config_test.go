package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
	"github.com/san-kum/kinsim/internal/integrators"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "rk4", cfg.Method)
	assert.Equal(t, DefaultSteps, cfg.Steps)
	assert.True(t, cfg.Diagnostics)
	assert.Equal(t, 1e-6, cfg.Adaptive.EpsMax)
	assert.Equal(t, 100, cfg.Newton.MaxIterations)
	require.NoError(t, cfg.Validate())
}

func TestLoadYAML(t *testing.T) {
	path := writeFile(t, "run.yaml", `
network: enzyme
method: rk45a
tf: 2.5
steps: 250
adaptive:
  eps_max: 1.0e-8
output:
  dir: out
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "enzyme", cfg.Network)
	assert.Equal(t, "rk45a", cfg.Method)
	assert.Equal(t, 2.5, cfg.End)
	assert.Equal(t, 250, cfg.Steps)
	assert.Equal(t, 1e-8, cfg.Adaptive.EpsMax)
	assert.Equal(t, 0.25, cfg.Adaptive.MaxStep, "unset fields keep defaults")
	assert.Equal(t, "out", cfg.Output.Dir)
	assert.Equal(t, DefaultData, cfg.Output.DataDir)
}

func TestLoadTOML(t *testing.T) {
	path := writeFile(t, "run.toml", `
method = "stiff"
t0 = 1.0
tf = 3.0
steps = 20

[newton]
tol = 1e-6
max_iter = 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	sc, err := cfg.SimConfig()
	require.NoError(t, err)
	assert.Equal(t, integrators.MethodStiff, sc.Method)
	assert.Equal(t, 1.0, sc.Start)
	assert.Equal(t, 3.0, sc.End)
	assert.Equal(t, 1e-6, sc.Integrator.Newton.Tolerance)
	assert.Equal(t, 50, sc.Integrator.Newton.MaxIterations)
}

func TestLoadUnknownFormat(t *testing.T) {
	path := writeFile(t, "run.ini", "method=rk4")
	_, err := Load(path)
	assert.ErrorIs(t, err, ErrFormat)
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"run.yaml", "run.toml"} {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Method = "euler"
			cfg.Steps = 42
			path := filepath.Join(t.TempDir(), name)

			require.NoError(t, Save(path, cfg))
			back, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, cfg, back)
		})
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"bad method", func(c *Config) { c.Method = "verlet" }},
		{"no steps", func(c *Config) { c.Steps = 0 }},
		{"empty interval", func(c *Config) { c.End = c.Start }},
		{"negative skip", func(c *Config) { c.Skip = -1 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
			_, err := cfg.SimConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadNetworkYAML(t *testing.T) {
	path := writeFile(t, "pulse.yaml", `
species:
  - name: S
    conc: 0.5
    fix: rectangle
    forcing:
      start: 1
      pulses:
        - {duration: 1, target: 2}
        - {duration: 3, target: 0}
  - name: " P "
    conc: 0
reactions:
  - label: make
    kf: 1
    inputs: [S]
    outputs: [S, P]
`)
	nf, err := LoadNetwork(path)
	require.NoError(t, err)
	assert.Equal(t, "pulse", nf.Name)

	net, err := nf.Build()
	require.NoError(t, err)
	assert.Equal(t, 0, net.Forced())
	assert.Equal(t, chem.Rectangle, net.Species[0].Fix)
	assert.Equal(t, 0.5, net.Schedule().Base, "base defaults to the initial concentration")
	assert.Equal(t, 4.0, net.Schedule().CycleLength())

	idx, err := net.Index("P")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
}

func TestLoadNetworkTOML(t *testing.T) {
	path := writeFile(t, "mm.toml", `
name = "mm"

[[species]]
name = "E"
conc = 0.1

[[species]]
name = "S"
conc = 1.0

[[species]]
name = "P"
conc = 0.0

[[reactions]]
kinetics = "michaelis-menten"
kf = 10.0
kb = 1.0
kf2 = 5.0
inputs = ["E", "S"]
outputs = ["E", "P"]
`)
	nf, err := LoadNetwork(path)
	require.NoError(t, err)
	net, err := nf.Build()
	require.NoError(t, err)

	require.Len(t, net.Reactions, 1)
	assert.Equal(t, chem.MichaelisMenten, net.Reactions[0].Kinetics)
	assert.Equal(t, 0, net.Reactions[0].Enzyme())
}

func TestNetworkBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		nf   NetworkFile
		want error
	}{
		{
			name: "unknown participant",
			nf: NetworkFile{
				Species:   []SpeciesEntry{{Name: "A", Conc: 1}},
				Reactions: []ReactionEntry{{Kf: 1, Inputs: []string{"A"}, Outputs: []string{"Z"}}},
			},
			want: chem.ErrUnknownSpecies,
		},
		{
			name: "forced without pulses",
			nf: NetworkFile{
				Species: []SpeciesEntry{{Name: "A", Conc: 1, Fix: "trapezoid"}},
			},
			want: chem.ErrForcing,
		},
		{
			name: "negative rate",
			nf: NetworkFile{
				Species:   []SpeciesEntry{{Name: "A", Conc: 1}},
				Reactions: []ReactionEntry{{Kf: -1, Inputs: []string{"A"}}},
			},
			want: chem.ErrInvalidRate,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.nf.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestFromNetworkRoundTrip(t *testing.T) {
	sched := &forcing.Schedule{Shape: forcing.Trapezoid, Start: 2, Base: 1, Pulses: []forcing.Pulse{{Duration: 1, Target: 3}}}
	net, err := chem.NewBuilder().
		AddForcedSpecies("F", 1, sched).
		AddSpecies("X", 0, chem.Held).
		AddReaction(chem.ReactionSpec{Label: "r", Kf: 1, Kb: 2, Inputs: []string{"F"}, Outputs: []string{"X", "X"}}).
		Build()
	require.NoError(t, err)

	back, err := FromNetwork("rt", net).Build()
	require.NoError(t, err)
	assert.Equal(t, net.Species, back.Species)
	assert.Equal(t, net.Reactions, back.Reactions)
}

func TestPresets(t *testing.T) {
	names := ListPresets()
	require.NotEmpty(t, names)
	assert.IsIncreasing(t, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			p := GetPreset(name)
			require.NotNil(t, p)
			_, err := p.Network.Build()
			require.NoError(t, err)

			cfg := DefaultConfig()
			p.Apply(cfg)
			require.NoError(t, cfg.Validate())
		})
	}

	assert.Nil(t, GetPreset("nonexistent"))
}

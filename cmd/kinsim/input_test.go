package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/kinsim/internal/integrators"
)

// newRunCmd returns a command with the run flags parsed from args. Flag
// variables are package globals, so every call resets them to defaults.
func newRunCmd(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	configFile, preset = "", ""
	cmd := &cobra.Command{Use: "test"}
	addRunFlags(cmd)
	cmd.Flags().StringVar(&outDir, "out", "out", "")
	require.NoError(t, cmd.ParseFlags(args))
	return cmd
}

func TestLoadJobsPreset(t *testing.T) {
	cmd := newRunCmd(t, "--steps", "50", "--out", "reports")
	jobs, cfg, err := loadJobs(cmd, []string{"isomerization"})
	require.NoError(t, err)
	require.Len(t, jobs, 1)

	j := jobs[0]
	assert.Equal(t, "isomerization", j.name)
	assert.Equal(t, 50, j.sim.Steps)
	assert.Equal(t, 50, j.deck.Steps)
	// preset settings apply where no flag was given
	assert.Equal(t, 5.0, j.sim.End)
	assert.Equal(t, integrators.MethodRK4, j.sim.Method)
	assert.Equal(t, "reports", cfg.Output.Dir)
	assert.Equal(t, 2, j.deck.Network.NumSpecies())
}

func TestLoadJobsPresetFlag(t *testing.T) {
	cmd := newRunCmd(t, "--preset", "isomerization", "--method", "stiff")
	jobs, _, err := loadJobs(cmd, nil)
	require.NoError(t, err)
	assert.Equal(t, integrators.MethodStiff, jobs[0].sim.Method)
	assert.Equal(t, int(integrators.MethodStiff), jobs[0].deck.Option)
}

func TestLoadJobsNetworkFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "decay.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
species:
  - name: A
    conc: 1
reactions:
  - kf: 0.5
    inputs: [A]
`), 0644))

	cmd := newRunCmd(t, "--tf", "2", "--no-diagnostics")
	jobs, _, err := loadJobs(cmd, []string{path})
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "decay", jobs[0].name)
	assert.Equal(t, 2.0, jobs[0].sim.End)
	assert.False(t, jobs[0].sim.Diagnostics)
}

func TestLoadJobsDeck(t *testing.T) {
	cmd := newRunCmd(t, "--method", "rk45a")
	jobs, _, err := loadJobs(cmd, []string{filepath.Join("..", "..", "internal", "deck", "testdata", "kin.i01")})
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(jobs), 2)

	assert.Equal(t, "kin-1", jobs[0].name)
	assert.Equal(t, integrators.MethodRK45Adaptive, jobs[0].sim.Method)
	// times still come from the deck
	assert.Equal(t, 5.0, jobs[0].sim.End)
	assert.Equal(t, 500, jobs[0].sim.Steps)
}

func TestLoadJobsConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
network = "dimerization"
method = "euler"
tf = 3.0
steps = 30
`), 0644))

	cmd := newRunCmd(t, "--config", path)
	jobs, _, err := loadJobs(cmd, nil)
	require.NoError(t, err)
	require.Len(t, jobs, 1)
	assert.Equal(t, "dimerization", jobs[0].name)
	assert.Equal(t, integrators.MethodEuler, jobs[0].sim.Method)
	assert.Equal(t, 3.0, jobs[0].sim.End)
	assert.Equal(t, 30, jobs[0].sim.Steps)
}

func TestLoadJobsErrors(t *testing.T) {
	_, _, err := loadJobs(newRunCmd(t), nil)
	assert.ErrorIs(t, err, errNoInput)

	_, _, err = loadJobs(newRunCmd(t, "--steps", "0"), []string{"isomerization"})
	assert.Error(t, err)

	_, _, err = loadJobs(newRunCmd(t), []string{filepath.Join(t.TempDir(), "missing.dat")})
	assert.Error(t, err)
}

func TestSuffixed(t *testing.T) {
	assert.Equal(t, "out/run-kin-2.json", suffixed("out/run.json", "kin-2"))
	assert.Equal(t, "run-a", suffixed("run", "a"))
}

func TestParseVary(t *testing.T) {
	jobs, _, err := loadJobs(newRunCmd(t), []string{"isomerization"})
	require.NoError(t, err)
	net := jobs[0].deck.Network

	p, err := parseVary(net, "1=0.5:2:4", false)
	require.NoError(t, err)
	assert.Equal(t, "kf1", p.Name)
	assert.Equal(t, 0, p.Reaction)
	assert.InDeltaSlice(t, []float64{0.5, 1, 1.5, 2}, p.Values, 1e-12)

	for _, bad := range []string{"1", "9=1:2:3", "1=1:2", "1=a:2:3", "1=1:2:1"} {
		_, err := parseVary(net, bad, false)
		assert.Error(t, err, bad)
	}
}

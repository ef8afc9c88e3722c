package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

func isomerRun(t *testing.T, diagnostics bool) *sim.Result {
	t.Helper()
	net, err := chem.NewBuilder().
		AddSpecies("A", 1, chem.Free).
		AddSpecies("B", 0, chem.Free).
		AddReaction(chem.ReactionSpec{Label: "A <-> B", Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}}).
		Build()
	require.NoError(t, err)

	cfg := sim.DefaultConfig()
	cfg.Method = integrators.MethodRK4
	cfg.End = 1
	cfg.Steps = 20
	cfg.Diagnostics = diagnostics
	res, err := sim.New(nil).Run(context.Background(), net, cfg)
	require.NoError(t, err)
	res.Metrics["mass_drift"] = 1e-12
	return res
}

func TestStoreSaveLoad(t *testing.T) {
	st := New(t.TempDir())
	require.NoError(t, st.Init())

	res := isomerRun(t, true)
	meta, err := st.Save("isomer", res)
	require.NoError(t, err)
	require.NotEmpty(t, meta.ID)

	loaded, err := st.Load(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, "isomer", loaded.Network)
	assert.Equal(t, "rk4", loaded.Method)
	assert.Equal(t, []string{"A", "B"}, loaded.Species)
	assert.Equal(t, 1, loaded.Windows)
	assert.InDelta(t, 1e-12, loaded.Metrics["mass_drift"], 1e-18)

	species, err := st.LoadSpecies(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, species.Names)
	require.Len(t, species.Times, 21)
	assert.InDelta(t, 1.0, species.Times[20], 1e-12)
	final := res.Store.Final()
	assert.Equal(t, final[0], species.Values[20][0])
	assert.Equal(t, final[1], species.Values[20][1])

	ext, err := st.LoadReactions(meta.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ext.Names)
	assert.InDelta(t, final[1], ext.Column(0)[20], 1e-12)
}

func TestStoreWithoutDiagnostics(t *testing.T) {
	st := New(t.TempDir())
	meta, err := st.Save("isomer", isomerRun(t, false))
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(st.Dir(meta.ID), ReactionsFile))
	assert.True(t, os.IsNotExist(err))
}

func TestStoreList(t *testing.T) {
	st := New(t.TempDir())

	runs, err := st.List()
	require.NoError(t, err)
	assert.Empty(t, runs)

	first, err := st.Save("one", isomerRun(t, false))
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)
	second, err := st.Save("two", isomerRun(t, false))
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(st.baseDir, "stray"), 0755))

	runs, err = st.List()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, second.ID, runs[0].ID)
	assert.Equal(t, first.ID, runs[1].ID)
}

func TestStoreLoadMissing(t *testing.T) {
	_, err := New(t.TempDir()).Load("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWriteJSON(t *testing.T) {
	res := isomerRun(t, true)
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, "isomer", res))

	var data ExportData
	require.NoError(t, json.Unmarshal(buf.Bytes(), &data))
	assert.Equal(t, "isomer", data.Network)
	assert.Equal(t, []string{"A <-> B"}, data.Reactions)
	require.Len(t, data.Windows, 1)
	w := data.Windows[0]
	assert.Equal(t, -1, w.Pulse)
	assert.Len(t, w.Times, 21)
	assert.Len(t, w.Species, 21)
	assert.Len(t, w.Extents, 21)
}

func TestExportJSONFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.json")
	require.NoError(t, ExportJSON(path, "isomer", isomerRun(t, false)))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	var data ExportData
	require.NoError(t, json.Unmarshal(raw, &data))
	assert.Nil(t, data.Windows[0].Extents)
}

func TestCatalog(t *testing.T) {
	ctx := context.Background()
	cat, err := OpenCatalog(filepath.Join(t.TempDir(), "db", "runs.db"))
	require.NoError(t, err)
	defer cat.Close()

	res := isomerRun(t, true)
	a := NewMetadata("isomer", res)
	b := NewMetadata("enzyme", res)
	b.Timestamp = a.Timestamp.Add(time.Second)
	b.Warnings = []string{"window 0 stopped at t=0.5 of 1"}

	require.NoError(t, cat.Insert(ctx, a, "/runs/a"))
	require.NoError(t, cat.Insert(ctx, b, "/runs/b"))
	assert.Error(t, cat.Insert(ctx, a, "/runs/a"))

	all, err := cat.List(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, b.ID, all[0].ID)
	assert.Equal(t, 1, all[0].Warnings)

	only, err := cat.List(ctx, "isomer", 10)
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Equal(t, "/runs/a", only[0].Dir)

	got, err := cat.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "rk4", got.Method)
	assert.True(t, got.CreatedAt.Equal(a.Timestamp.Truncate(time.Nanosecond)))

	m, err := cat.Metrics(ctx, a.ID)
	require.NoError(t, err)
	assert.InDelta(t, 1e-12, m["mass_drift"], 1e-18)

	_, err = cat.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

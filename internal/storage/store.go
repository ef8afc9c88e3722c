// Package storage persists finished runs: a directory per run holding its
// metadata and species and extent series as CSV, a JSON export, and a
// SQLite catalog indexing every saved run.
package storage

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/san-kum/kinsim/internal/sim"
	"github.com/san-kum/kinsim/internal/trajectory"
)

const (
	MetadataFile  = "metadata.json"
	SpeciesFile   = "species.csv"
	ReactionsFile = "reactions.csv"
)

var ErrNotFound = errors.New("storage: run not found")

type Store struct {
	baseDir string
}

func New(baseDir string) *Store {
	return &Store{baseDir: baseDir}
}

func (s *Store) Init() error {
	return os.MkdirAll(s.baseDir, 0755)
}

func (s *Store) Dir(runID string) string { return filepath.Join(s.baseDir, runID) }

type RunMetadata struct {
	ID        string             `json:"id"`
	Network   string             `json:"network"`
	Method    string             `json:"method"`
	Timestamp time.Time          `json:"timestamp"`
	Start     float64            `json:"t0"`
	End       float64            `json:"tf"`
	Steps     int                `json:"steps"`
	Windows   int                `json:"windows"`
	Species   []string           `json:"species"`
	Reactions []string           `json:"reactions"`
	Warnings  []string           `json:"warnings,omitempty"`
	Metrics   map[string]float64 `json:"metrics"`
	Elapsed   time.Duration      `json:"elapsed_ns"`
}

// NewMetadata describes res under a fresh run id.
func NewMetadata(name string, res *sim.Result) RunMetadata {
	meta := RunMetadata{
		ID:        uuid.NewString(),
		Network:   name,
		Method:    res.Config.Method.String(),
		Timestamp: time.Now().UTC(),
		Start:     res.Config.Start,
		End:       res.Config.End,
		Steps:     res.Config.Steps,
		Windows:   res.Store.Len(),
		Species:   res.Network.Names(),
		Metrics:   res.Metrics,
		Elapsed:   res.Elapsed,
	}
	for _, rx := range res.Network.Reactions {
		meta.Reactions = append(meta.Reactions, rx.Label)
	}
	for _, w := range res.Warnings {
		meta.Warnings = append(meta.Warnings, w.String())
	}
	return meta
}

// Save writes the run directory and returns its id.
func (s *Store) Save(name string, res *sim.Result) (RunMetadata, error) {
	meta := NewMetadata(name, res)
	runDir := s.Dir(meta.ID)

	if err := os.MkdirAll(runDir, 0755); err != nil {
		return meta, err
	}

	metaFile, err := os.Create(filepath.Join(runDir, MetadataFile))
	if err != nil {
		return meta, err
	}
	defer metaFile.Close()

	enc := json.NewEncoder(metaFile)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return meta, err
	}

	if err := writeSeries(filepath.Join(runDir, SpeciesFile), res.Store, meta.Species,
		func(tr *trajectory.Trajectory) *trajectory.Grid { return tr.Species }); err != nil {
		return meta, err
	}
	if res.Config.Diagnostics {
		header := make([]string, len(meta.Reactions))
		for k := range header {
			header[k] = fmt.Sprintf("r%d", k+1)
		}
		if err := writeSeries(filepath.Join(runDir, ReactionsFile), res.Store, header,
			func(tr *trajectory.Trajectory) *trajectory.Grid { return tr.Extents }); err != nil {
			return meta, err
		}
	}
	return meta, nil
}

// writeSeries writes one row per stored step. Rows repeating the previous
// window's last row are kept so every window can be read back whole.
func writeSeries(path string, st *trajectory.Store, names []string, grid func(*trajectory.Trajectory) *trajectory.Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(append([]string{"window", "time"}, names...)); err != nil {
		return err
	}
	for _, tr := range st.Windows() {
		g := grid(tr)
		if g == nil {
			continue
		}
		for t := 0; t <= tr.Top(); t++ {
			row := make([]string, 0, len(names)+2)
			row = append(row, strconv.Itoa(tr.Window), strconv.FormatFloat(tr.Time(t), 'g', -1, 64))
			for _, v := range g.Row(t) {
				row = append(row, strconv.FormatFloat(v, 'g', -1, 64))
			}
			if err := w.Write(row); err != nil {
				return err
			}
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

// List returns every readable run, newest first.
func (s *Store) List() ([]RunMetadata, error) {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []RunMetadata{}, nil
		}
		return nil, err
	}

	runs := make([]RunMetadata, 0)
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		meta, err := s.Load(entry.Name())
		if err != nil {
			continue
		}
		runs = append(runs, *meta)
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].Timestamp.After(runs[j].Timestamp) })
	return runs, nil
}

func (s *Store) Load(runID string) (*RunMetadata, error) {
	data, err := os.ReadFile(filepath.Join(s.Dir(runID), MetadataFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, runID)
		}
		return nil, err
	}

	var meta RunMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("storage: %s: %w", runID, err)
	}
	return &meta, nil
}

// Series is a saved table read back from CSV.
type Series struct {
	Names   []string
	Windows []int
	Times   []float64
	Values  [][]float64
}

// Column returns column i of every row.
func (s *Series) Column(i int) []float64 {
	out := make([]float64, len(s.Values))
	for t, row := range s.Values {
		out[t] = row[i]
	}
	return out
}

func (s *Store) LoadSpecies(runID string) (*Series, error) {
	return loadSeries(filepath.Join(s.Dir(runID), SpeciesFile))
}

func (s *Store) LoadReactions(runID string) (*Series, error) {
	return loadSeries(filepath.Join(s.Dir(runID), ReactionsFile))
}

func loadSeries(path string) (*Series, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	r := csv.NewReader(file)
	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("storage: %s: missing header", filepath.Base(path))
	}

	out := &Series{Names: records[0][2:]}
	for line, record := range records[1:] {
		w, err := strconv.Atoi(record[0])
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), line+2, err)
		}
		t, err := strconv.ParseFloat(record[1], 64)
		if err != nil {
			return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), line+2, err)
		}
		row := make([]float64, len(record)-2)
		for j := range row {
			if row[j], err = strconv.ParseFloat(record[j+2], 64); err != nil {
				return nil, fmt.Errorf("storage: %s line %d: %w", filepath.Base(path), line+2, err)
			}
		}
		out.Windows = append(out.Windows, w)
		out.Times = append(out.Times, t)
		out.Values = append(out.Values, row)
	}
	return out, nil
}

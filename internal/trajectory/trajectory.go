// Package trajectory stores dense per-window concentration and reaction
// extent histories.
package trajectory

import (
	"errors"
	"fmt"
)

var ErrCapacity = errors.New("trajectory: row capacity exceeded")

// Grid is a row-major table of float64 indexed by (step, column). Rows beyond
// the initial allocation are appended on demand up to an optional cap.
type Grid struct {
	cols    int
	rows    int
	maxRows int
	data    []float64
}

// NewGrid allocates rows×cols. maxRows limits Grow; zero means unlimited.
func NewGrid(rows, cols, maxRows int) *Grid {
	return &Grid{
		cols:    cols,
		rows:    rows,
		maxRows: maxRows,
		data:    make([]float64, rows*cols),
	}
}

func (g *Grid) Rows() int { return g.rows }
func (g *Grid) Cols() int { return g.cols }
func (g *Grid) At(t, i int) float64 { return g.data[t*g.cols+i] }
func (g *Grid) Set(t, i int, v float64) { g.data[t*g.cols+i] = v }
func (g *Grid) Row(t int) []float64 { return g.data[t*g.cols : (t+1)*g.cols] }

// Grow makes row t addressable.
func (g *Grid) Grow(t int) error {
	if t < g.rows {
		return nil
	}
	if g.maxRows > 0 && t >= g.maxRows {
		return fmt.Errorf("%w: row %d (max %d)", ErrCapacity, t, g.maxRows)
	}
	need := (t + 1) * g.cols
	if need > cap(g.data) {
		grown := make([]float64, need, 2*need)
		copy(grown, g.data)
		g.data = grown
	} else {
		g.data = g.data[:need]
	}
	g.rows = t + 1
	return nil
}

// Truncate drops every row after t.
func (g *Grid) Truncate(t int) {
	if t+1 < g.rows {
		g.rows = t + 1
		g.data = g.data[:g.rows*g.cols]
	}
}

// Column copies column i for rows 0..Rows()-1.
func (g *Grid) Column(i int) []float64 {
	out := make([]float64, g.rows)
	for t := range out {
		out[t] = g.At(t, i)
	}
	return out
}

// Trajectory is the history of one integration window. Row 0 holds the
// seeded initial state; Top is the last computed row.
type Trajectory struct {
	Window int
	Start  float64
	End    float64
	Steps  int
	Dt     float64

	Species *Grid
	Extents *Grid
	Times   []float64

	// Adaptive is set when Times holds actual accepted step times.
	Adaptive bool
	top      int
}

type Options struct {
	Diagnostics bool
	MaxRows     int
}

// New allocates a window trajectory of steps+1 rows. Extents are only
// tracked with Diagnostics.
func New(window int, start, end float64, steps, nspec, nreac int, opts Options) *Trajectory {
	tr := &Trajectory{
		Window:  window,
		Start:   start,
		End:     end,
		Steps:   steps,
		Species: NewGrid(steps+1, nspec, opts.MaxRows),
		Times:   make([]float64, steps+1),
		top:     steps,
	}
	if steps > 0 {
		tr.Dt = (end - start) / float64(steps)
	}
	if opts.Diagnostics {
		tr.Extents = NewGrid(steps+1, nreac, opts.MaxRows)
	}
	for t := range tr.Times {
		tr.Times[t] = start + float64(t)*tr.Dt
	}
	return tr
}

func (tr *Trajectory) Diagnostics() bool { return tr.Extents != nil }

// Top is the index of the last computed row.
func (tr *Trajectory) Top() int { return tr.top }

// Seed writes the initial species state and extents of row 0.
func (tr *Trajectory) Seed(x, extents []float64) {
	copy(tr.Species.Row(0), x)
	if tr.Extents != nil && extents != nil {
		copy(tr.Extents.Row(0), extents)
	}
	tr.Times[0] = tr.Start
}

// Grow makes row t addressable in every grid and the time series.
func (tr *Trajectory) Grow(t int) error {
	if err := tr.Species.Grow(t); err != nil {
		return err
	}
	if tr.Extents != nil {
		if err := tr.Extents.Grow(t); err != nil {
			return err
		}
	}
	for len(tr.Times) <= t {
		tr.Times = append(tr.Times, 0)
	}
	return nil
}

// Finish marks row top as the last computed row and drops the rest.
func (tr *Trajectory) Finish(top int) {
	tr.top = top
	tr.Species.Truncate(top)
	if tr.Extents != nil {
		tr.Extents.Truncate(top)
	}
	if top+1 < len(tr.Times) {
		tr.Times = tr.Times[:top+1]
	}
}

func (tr *Trajectory) Time(t int) float64 { return tr.Times[t] }

func (tr *Trajectory) Initial() []float64 { return tr.Species.Row(0) }

func (tr *Trajectory) Final() []float64 { return tr.Species.Row(tr.top) }

// FinalExtents returns the last extent row, or nil without diagnostics.
func (tr *Trajectory) FinalExtents() []float64 {
	if tr.Extents == nil {
		return nil
	}
	return tr.Extents.Row(tr.top)
}

// Store owns the window trajectories of one run in order.
type Store struct {
	windows []*Trajectory
}

func NewStore() *Store { return &Store{} }

func (s *Store) Append(tr *Trajectory) { s.windows = append(s.windows, tr) }

func (s *Store) Windows() []*Trajectory { return s.windows }

func (s *Store) Len() int { return len(s.windows) }

func (s *Store) Last() *Trajectory {
	if len(s.windows) == 0 {
		return nil
	}
	return s.windows[len(s.windows)-1]
}

// Series concatenates species i over every window. The first row of each
// window after the first repeats the previous window's last row and is
// skipped.
func (s *Store) Series(i int) (times, values []float64) {
	return s.series(func(tr *Trajectory) *Grid { return tr.Species }, i)
}

// ExtentSeries concatenates reaction r's extent over every window. It returns
// nil slices when diagnostics were disabled.
func (s *Store) ExtentSeries(r int) (times, values []float64) {
	return s.series(func(tr *Trajectory) *Grid { return tr.Extents }, r)
}

func (s *Store) series(grid func(*Trajectory) *Grid, col int) (times, values []float64) {
	for w, tr := range s.windows {
		g := grid(tr)
		if g == nil {
			return nil, nil
		}
		from := 0
		if w > 0 {
			from = 1
		}
		for t := from; t <= tr.top; t++ {
			times = append(times, tr.Times[t])
			values = append(values, g.At(t, col))
		}
	}
	return times, values
}

// Initial returns the first window's seeded state.
func (s *Store) Initial() []float64 {
	if len(s.windows) == 0 {
		return nil
	}
	return s.windows[0].Initial()
}

// Final returns the last window's final state.
func (s *Store) Final() []float64 {
	if tr := s.Last(); tr != nil {
		return tr.Final()
	}
	return nil
}

// Package metrics holds per-run observers: scalar metrics reported on the
// run result and a Prometheus recorder of solver work.
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// MassDrift is the largest relative change of the total free-species
// concentration from its value at the start of the run. It is only
// meaningful for networks whose reactions conserve that total.
type MassDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
	scratch  []float64
}

func NewMassDrift() *MassDrift {
	return &MassDrift{name: "mass_drift"}
}

func (m *MassDrift) Name() string { return m.name }

func (m *MassDrift) Observe(net *chem.Network, tr *trajectory.Trajectory) {
	if cap(m.scratch) < net.NumSpecies() {
		m.scratch = make([]float64, net.NumSpecies())
	}
	free := m.scratch[:net.NumSpecies()]
	for t := 0; t <= tr.Top(); t++ {
		row := tr.Species.Row(t)
		for i := range free {
			free[i] = 0
			if net.Free(i) {
				free[i] = row[i]
			}
		}
		total := floats.Sum(free)
		if m.samples == 0 {
			m.initial = total
		}
		m.samples++

		scale := math.Max(math.Abs(m.initial), 1e-300)
		m.maxDrift = math.Max(m.maxDrift, math.Abs(total-m.initial)/scale)
	}
}

func (m *MassDrift) Value() float64 { return m.maxDrift }

func (m *MassDrift) Reset() {
	m.initial = 0
	m.maxDrift = 0
	m.samples = 0
}

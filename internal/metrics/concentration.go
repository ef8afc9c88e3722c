package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// MinConcentration is the smallest concentration of any species at any
// stored step.
type MinConcentration struct {
	name string
	min  float64
}

func NewMinConcentration() *MinConcentration {
	return &MinConcentration{name: "min_concentration", min: math.Inf(1)}
}

func (m *MinConcentration) Name() string { return m.name }

func (m *MinConcentration) Observe(net *chem.Network, tr *trajectory.Trajectory) {
	for t := 0; t <= tr.Top(); t++ {
		m.min = math.Min(m.min, floats.Min(tr.Species.Row(t)))
	}
}

func (m *MinConcentration) Value() float64 {
	if math.IsInf(m.min, 1) {
		return 0
	}
	return m.min
}

func (m *MinConcentration) Reset() { m.min = math.Inf(1) }

// Excursion is the fraction of stored steps at which some species exceeds
// threshold.
type Excursion struct {
	name       string
	threshold  float64
	violations int
	samples    int
}

func NewExcursion(threshold float64) *Excursion {
	return &Excursion{
		name:      "excursion",
		threshold: threshold,
	}
}

func (e *Excursion) Name() string { return e.name }

func (e *Excursion) Observe(net *chem.Network, tr *trajectory.Trajectory) {
	for t := 0; t <= tr.Top(); t++ {
		e.samples++
		if floats.Max(tr.Species.Row(t)) > e.threshold {
			e.violations++
		}
	}
}

func (e *Excursion) Value() float64 {
	if e.samples == 0 {
		return 0
	}
	return float64(e.violations) / float64(e.samples)
}

func (e *Excursion) Reset() {
	e.violations = 0
	e.samples = 0
}

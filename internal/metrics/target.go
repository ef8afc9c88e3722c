package metrics

import (
	"maps"
	"math"
	"slices"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// TargetError is the root mean square deviation of the final concentrations
// of named species from target values. Names missing from the network make
// the value NaN.
type TargetError struct {
	name    string
	targets map[string]float64
	final   map[string]float64
	unknown bool
}

func NewTargetError(targets map[string]float64) *TargetError {
	return &TargetError{
		name:    "target_error",
		targets: targets,
		final:   make(map[string]float64, len(targets)),
	}
}

func (m *TargetError) Name() string { return m.name }

func (m *TargetError) Observe(net *chem.Network, tr *trajectory.Trajectory) {
	if tr.Top() < 0 {
		return
	}
	row := tr.Species.Row(tr.Top())
	for name := range m.targets {
		i, err := net.Index(name)
		if err != nil {
			m.unknown = true
			continue
		}
		m.final[name] = row[i]
	}
}

func (m *TargetError) Value() float64 {
	if m.unknown || len(m.targets) == 0 || len(m.final) < len(m.targets) {
		return math.NaN()
	}
	var sum float64
	for _, name := range slices.Sorted(maps.Keys(m.targets)) {
		d := m.final[name] - m.targets[name]
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(m.targets)))
}

func (m *TargetError) Reset() {
	clear(m.final)
	m.unknown = false
}

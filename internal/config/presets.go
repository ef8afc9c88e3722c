package config

import (
	"sort"

	"github.com/san-kum/kinsim/internal/forcing"
)

// Preset bundles a built-in network with run settings that suit it.
type Preset struct {
	Description string
	Network     NetworkFile
	Method      string
	End         float64
	Steps       int
}

func ptr(v float64) *float64 { return &v }

var Presets = map[string]*Preset{
	"isomerization": {
		Description: "reversible A <-> B relaxing to kb/(kf+kb)",
		Method:      "rk4", End: 5, Steps: 500,
		Network: NetworkFile{
			Name: "isomerization",
			Species: []SpeciesEntry{
				{Name: "A", Conc: 1},
				{Name: "B", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{Label: "A<->B", Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}},
			},
		},
	},
	"dimerization": {
		Description: "second-order association 2M <-> D",
		Method:      "rk45", End: 10, Steps: 1000,
		Network: NetworkFile{
			Name: "dimerization",
			Species: []SpeciesEntry{
				{Name: "M", Conc: 2},
				{Name: "D", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{Label: "2M<->D", Kf: 1, Kb: 0.1, Inputs: []string{"M", "M"}, Outputs: []string{"D"}},
			},
		},
	},
	"enzyme": {
		Description: "Michaelis-Menten conversion E + S -> E + P",
		Method:      "rk4", End: 20, Steps: 2000,
		Network: NetworkFile{
			Name: "enzyme",
			Species: []SpeciesEntry{
				{Name: "E", Conc: 0.1},
				{Name: "S", Conc: 1},
				{Name: "P", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{
					Label: "E+S->E+P", Kinetics: "michaelis-menten",
					Kf: 10, Kb: 1, Kf2: 5, Kb2: 0,
					Inputs: []string{"E", "S"}, Outputs: []string{"E", "P"},
				},
			},
		},
	},
	"pulsed": {
		Description: "trapezoid-forced substrate driving a decaying product",
		Method:      "rk4", End: 12, Steps: 100,
		Network: NetworkFile{
			Name: "pulsed",
			Species: []SpeciesEntry{
				{
					Name: "S", Conc: 0, Fix: "trapezoid",
					Forcing: &ForcingEntry{
						Start: 1,
						Base:  ptr(0),
						Pulses: []forcing.Pulse{
							{Duration: 0.5, Target: 1},
							{Duration: 1, Target: 1},
							{Duration: 0.5, Target: 0},
							{Duration: 2, Target: 0},
						},
					},
				},
				{Name: "P", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{Label: "S->S+P", Kf: 1, Inputs: []string{"S"}, Outputs: []string{"S", "P"}},
				{Label: "P->", Kf: 0.5, Inputs: []string{"P"}},
			},
		},
	},
	"stiff": {
		Description: "Robertson's chemical kinetics problem",
		Method:      "stiff", End: 40, Steps: 4000,
		Network: NetworkFile{
			Name: "robertson",
			Species: []SpeciesEntry{
				{Name: "A", Conc: 1},
				{Name: "B", Conc: 0},
				{Name: "C", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{Label: "A->B", Kf: 0.04, Inputs: []string{"A"}, Outputs: []string{"B"}},
				{Label: "2B->B+C", Kf: 3e7, Inputs: []string{"B", "B"}, Outputs: []string{"B", "C"}},
				{Label: "B+C->A+C", Kf: 1e4, Inputs: []string{"B", "C"}, Outputs: []string{"A", "C"}},
			},
		},
	},
	"chemostat": {
		Description: "held feed F converted through an intermediate",
		Method:      "rk45a", End: 10, Steps: 2000,
		Network: NetworkFile{
			Name: "chemostat",
			Species: []SpeciesEntry{
				{Name: "F", Conc: 1, Fix: "held"},
				{Name: "X", Conc: 0},
				{Name: "Y", Conc: 0},
			},
			Reactions: []ReactionEntry{
				{Label: "F->F+X", Kf: 1, Inputs: []string{"F"}, Outputs: []string{"F", "X"}},
				{Label: "X<->Y", Kf: 2, Kb: 0.5, Inputs: []string{"X"}, Outputs: []string{"Y"}},
				{Label: "Y->", Kf: 1, Inputs: []string{"Y"}},
			},
		},
	},
}

func GetPreset(name string) *Preset {
	p, ok := Presets[name]
	if !ok {
		return nil
	}
	return p
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Apply copies the preset's run settings onto cfg.
func (p *Preset) Apply(cfg *Config) {
	cfg.Method = p.Method
	cfg.End = p.End
	cfg.Steps = p.Steps
}

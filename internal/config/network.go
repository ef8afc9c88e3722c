package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/forcing"
)

// NetworkFile is the YAML/TOML form of a reaction network.
type NetworkFile struct {
	Name      string          `yaml:"name,omitempty" toml:"name,omitempty"`
	Species   []SpeciesEntry  `yaml:"species" toml:"species"`
	Reactions []ReactionEntry `yaml:"reactions" toml:"reactions"`
}

type SpeciesEntry struct {
	Name    string        `yaml:"name" toml:"name"`
	Conc    float64       `yaml:"conc" toml:"conc"`
	Fix     string        `yaml:"fix,omitempty" toml:"fix,omitempty"`
	Forcing *ForcingEntry `yaml:"forcing,omitempty" toml:"forcing,omitempty"`
}

// ForcingEntry describes the pulse program of a forced species. A missing
// base defaults to the species' initial concentration.
type ForcingEntry struct {
	Start  float64         `yaml:"start" toml:"start"`
	Base   *float64        `yaml:"base,omitempty" toml:"base,omitempty"`
	Pulses []forcing.Pulse `yaml:"pulses" toml:"pulses"`
}

type ReactionEntry struct {
	Label    string   `yaml:"label,omitempty" toml:"label,omitempty"`
	Kinetics string   `yaml:"kinetics,omitempty" toml:"kinetics,omitempty"`
	Kf       float64  `yaml:"kf" toml:"kf"`
	Kb       float64  `yaml:"kb,omitempty" toml:"kb,omitempty"`
	Kf2      float64  `yaml:"kf2,omitempty" toml:"kf2,omitempty"`
	Kb2      float64  `yaml:"kb2,omitempty" toml:"kb2,omitempty"`
	Inputs   []string `yaml:"inputs" toml:"inputs"`
	Outputs  []string `yaml:"outputs" toml:"outputs"`
}

// LoadNetwork reads a network file, choosing the format by extension.
func LoadNetwork(path string) (*NetworkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	nf := &NetworkFile{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, nf)
	case ".toml":
		_, err = toml.Decode(string(data), nf)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	if nf.Name == "" {
		nf.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return nf, nil
}

// Build resolves the file into a validated network.
func (nf *NetworkFile) Build() (*chem.Network, error) {
	b := chem.NewBuilder()
	for i, s := range nf.Species {
		fix := chem.Free
		if s.Fix != "" {
			var err error
			if fix, err = chem.ParseFixMode(s.Fix); err != nil {
				return nil, &chem.ConfigError{Table: "species", Index: i, Name: s.Name, Err: err}
			}
		}
		if !fix.Forced() {
			b.AddSpecies(s.Name, s.Conc, fix)
			continue
		}
		if s.Forcing == nil {
			return nil, &chem.ConfigError{Table: "species", Index: i, Name: s.Name, Err: chem.ErrForcing}
		}
		sched := &forcing.Schedule{
			Shape:  fix.Shape(),
			Start:  s.Forcing.Start,
			Base:   s.Conc,
			Pulses: append([]forcing.Pulse(nil), s.Forcing.Pulses...),
		}
		if s.Forcing.Base != nil {
			sched.Base = *s.Forcing.Base
		}
		b.AddForcedSpecies(s.Name, s.Conc, sched)
	}
	for i, r := range nf.Reactions {
		kin := chem.MassAction
		if r.Kinetics != "" {
			var err error
			if kin, err = chem.ParseKinetics(r.Kinetics); err != nil {
				return nil, &chem.ConfigError{Table: "reaction", Index: i, Name: r.Label, Err: err}
			}
		}
		b.AddReaction(chem.ReactionSpec{
			Label:    r.Label,
			Kf:       r.Kf,
			Kb:       r.Kb,
			Kf2:      r.Kf2,
			Kb2:      r.Kb2,
			Kinetics: kin,
			Inputs:   r.Inputs,
			Outputs:  r.Outputs,
		})
	}
	return b.Build()
}

// FromNetwork renders a network back into file form.
func FromNetwork(name string, net *chem.Network) *NetworkFile {
	nf := &NetworkFile{Name: name}
	names := net.Names()
	for _, s := range net.Species {
		e := SpeciesEntry{Name: s.Name, Conc: s.Initial}
		if s.Fix != chem.Free {
			e.Fix = s.Fix.String()
		}
		if s.Schedule != nil {
			base := s.Schedule.Base
			e.Forcing = &ForcingEntry{
				Start:  s.Schedule.Start,
				Base:   &base,
				Pulses: append([]forcing.Pulse(nil), s.Schedule.Pulses...),
			}
		}
		nf.Species = append(nf.Species, e)
	}
	for _, r := range net.Reactions {
		e := ReactionEntry{Label: r.Label, Kf: r.Kf, Kb: r.Kb, Kf2: r.Kf2, Kb2: r.Kb2}
		if r.Kinetics != chem.MassAction {
			e.Kinetics = r.Kinetics.String()
		}
		for _, i := range r.Inputs {
			e.Inputs = append(e.Inputs, names[i])
		}
		for _, i := range r.Outputs {
			e.Outputs = append(e.Outputs, names[i])
		}
		nf.Reactions = append(nf.Reactions, e)
	}
	return nf
}

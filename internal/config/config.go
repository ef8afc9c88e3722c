// Package config loads run settings and network descriptions.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/sim"
)

const (
	DefaultMethod = "rk4"
	DefaultStart  = 0.0
	DefaultEnd    = 10.0
	DefaultSteps  = 1000
	DefaultSkip   = 10
	DefaultOutDir = "kinsim-out"
	DefaultData   = "data"
)

var ErrFormat = errors.New("config: unsupported file format")

type Config struct {
	// Network is a network file path or a preset name.
	Network     string                      `yaml:"network" toml:"network"`
	Method      string                      `yaml:"method" toml:"method"`
	Start       float64                     `yaml:"t0" toml:"t0"`
	End         float64                     `yaml:"tf" toml:"tf"`
	Steps       int                         `yaml:"steps" toml:"steps"`
	Skip        int                         `yaml:"skip" toml:"skip"`
	Diagnostics bool                        `yaml:"diagnostics" toml:"diagnostics"`
	MaxRows     int                         `yaml:"max_rows" toml:"max_rows"`
	Adaptive    integrators.AdaptiveOptions `yaml:"adaptive" toml:"adaptive"`
	Newton      integrators.NewtonOptions   `yaml:"newton" toml:"newton"`
	Output      OutputConfig                `yaml:"output" toml:"output"`
}

type OutputConfig struct {
	Dir         string `yaml:"dir" toml:"dir"`
	DataDir     string `yaml:"data_dir" toml:"data_dir"`
	Artifacts   string `yaml:"artifacts" toml:"artifacts"`
	MetricsFile string `yaml:"metrics_file" toml:"metrics_file"`
}

func DefaultConfig() *Config {
	opts := integrators.DefaultOptions()
	return &Config{
		Method:      DefaultMethod,
		Start:       DefaultStart,
		End:         DefaultEnd,
		Steps:       DefaultSteps,
		Skip:        DefaultSkip,
		Diagnostics: true,
		Adaptive:    opts.Adaptive,
		Newton:      opts.Newton,
		Output: OutputConfig{
			Dir:     DefaultOutDir,
			DataDir: DefaultData,
		},
	}
}

// Load reads a YAML or TOML run file over the defaults. The format follows
// the file extension.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml", "":
		err = yaml.Unmarshal(data, cfg)
	case ".toml":
		_, err = toml.Decode(string(data), cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrFormat, ext)
	}
	if err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		var sb strings.Builder
		err = toml.NewEncoder(&sb).Encode(cfg)
		data = []byte(sb.String())
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	if _, err := integrators.ParseMethod(c.Method); err != nil {
		return err
	}
	if c.Steps < 1 {
		return fmt.Errorf("config: steps must be positive, got %d", c.Steps)
	}
	if !(c.End > c.Start) {
		return fmt.Errorf("config: tf (%g) must exceed t0 (%g)", c.End, c.Start)
	}
	if c.Skip < 0 {
		return fmt.Errorf("config: skip must not be negative, got %d", c.Skip)
	}
	return nil
}

// SimConfig converts the run file into simulator settings.
func (c *Config) SimConfig() (sim.Config, error) {
	if err := c.Validate(); err != nil {
		return sim.Config{}, err
	}
	m, _ := integrators.ParseMethod(c.Method)
	return sim.Config{
		Method:        m,
		Start:         c.Start,
		End:           c.End,
		Steps:         c.Steps,
		Diagnostics:   c.Diagnostics,
		MaxRows:       c.MaxRows,
		ValidateState: true,
		Integrator: integrators.Options{
			Adaptive: c.Adaptive,
			Newton:   c.Newton,
		},
	}, nil
}

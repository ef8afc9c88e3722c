package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/config"
	"github.com/san-kum/kinsim/internal/integrators"
	"github.com/san-kum/kinsim/internal/metrics"
	"github.com/san-kum/kinsim/internal/sim"
)

// Registry resolves networks, methods and metrics by name.
type Registry struct {
	networks map[string]func() (*chem.Network, error)
	metrics  map[string]func(params map[string]float64) sim.Metric
}

func NewRegistry() *Registry {
	r := &Registry{
		networks: make(map[string]func() (*chem.Network, error)),
		metrics:  make(map[string]func(map[string]float64) sim.Metric),
	}

	for _, name := range config.ListPresets() {
		p := config.GetPreset(name)
		r.networks[name] = p.Network.Build
	}

	r.metrics["mass_drift"] = func(map[string]float64) sim.Metric { return metrics.NewMassDrift() }
	r.metrics["min_concentration"] = func(map[string]float64) sim.Metric { return metrics.NewMinConcentration() }
	r.metrics["excursion"] = func(params map[string]float64) sim.Metric {
		threshold, ok := params["threshold"]
		if !ok {
			threshold = 1e3
		}
		return metrics.NewExcursion(threshold)
	}
	// params are target final concentrations keyed by species name
	r.metrics["target_error"] = func(params map[string]float64) sim.Metric { return metrics.NewTargetError(params) }

	return r
}

// RegisterNetwork adds or replaces a named network source.
func (r *Registry) RegisterNetwork(name string, build func() (*chem.Network, error)) {
	r.networks[name] = build
}

func (r *Registry) GetNetwork(name string) (*chem.Network, error) {
	fn, ok := r.networks[name]
	if !ok {
		return nil, fmt.Errorf("unknown network: %s", name)
	}
	return fn()
}

func (r *Registry) GetMethod(name string) (integrators.Method, error) {
	return integrators.ParseMethod(name)
}

func (r *Registry) GetMetric(name string, params map[string]float64) (sim.Metric, error) {
	fn, ok := r.metrics[name]
	if !ok {
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
	return fn(params), nil
}

func (r *Registry) ListNetworks() []string { return sortedKeys(r.networks) }

func (r *Registry) ListMetrics() []string { return sortedKeys(r.metrics) }

// DefaultMetrics are attached to every CLI run.
func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewMassDrift(),
		metrics.NewMinConcentration(),
	}
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

package sim

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/san-kum/kinsim/internal/chem"
)

// Ensemble runs independent configurations of the same network
// concurrently. Each run gets its own Simulator from the factory.
type Ensemble struct {
	newSim func() *Simulator
	pool   *StatePool
}

func NewEnsemble(newSim func() *Simulator) *Ensemble {
	return &Ensemble{newSim: newSim, pool: NewStatePool()}
}

// Run returns one result per config in order. A failed run leaves its slot
// holding whatever partial result it produced, and its error is joined into
// the returned error.
func (e *Ensemble) Run(ctx context.Context, net *chem.Network, cfgs []Config) ([]*Result, error) {
	results, errs := e.RunEach(ctx, net, cfgs)
	for i, err := range errs {
		if err != nil {
			errs[i] = fmt.Errorf("%v: %w", cfgs[i].Method, err)
		}
	}
	return results, errors.Join(errs...)
}

// RunEach is Run with every run's error kept in its own slot.
func (e *Ensemble) RunEach(ctx context.Context, net *chem.Network, cfgs []Config) ([]*Result, []error) {
	results := make([]*Result, len(cfgs))
	errs := make([]error, len(cfgs))

	var wg sync.WaitGroup
	for i := range cfgs {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			sim := e.newSim().WithPool(e.pool)
			results[idx], errs[idx] = sim.Run(ctx, net, cfgs[idx])
		}(i)
	}

	wg.Wait()
	return results, errs
}

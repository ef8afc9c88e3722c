package analysis

import (
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/kinsim/internal/chem"
	"github.com/san-kum/kinsim/internal/trajectory"
)

// SteadyReport describes how close a run ended to a steady state.
type SteadyReport struct {
	// Rates are the net production rates at the final state, zero for
	// species that are not free.
	Rates   []float64
	MaxRate float64
	Steady  bool
	// Settled is the earliest time after which every free species stays
	// within the tolerance of its final value. NaN without free species.
	Settled float64
}

// SteadyState evaluates the rate equations at the final state. The run is
// steady when no free species changes faster than tol·max(1, |x|).
func SteadyState(net *chem.Network, st *trajectory.Store, tol float64) SteadyReport {
	final := st.Final()
	rep := SteadyReport{Rates: make([]float64, net.NumSpecies()), Settled: math.NaN()}
	if final == nil {
		return rep
	}

	chem.NewEvaluator(net).Derive(final, rep.Rates)
	rep.Steady = true
	for i, r := range rep.Rates {
		if !net.Free(i) {
			rep.Rates[i] = 0
			continue
		}
		if math.Abs(r) > tol*math.Max(1, math.Abs(final[i])) {
			rep.Steady = false
		}
	}
	rep.MaxRate = floats.Norm(rep.Rates, math.Inf(1))

	settled := math.Inf(-1)
	for i := range final {
		if !net.Free(i) {
			continue
		}
		times, values := st.Series(i)
		band := tol * math.Max(1, math.Abs(final[i]))
		t := times[0]
		for k := len(values) - 1; k >= 0; k-- {
			if math.Abs(values[k]-final[i]) > band {
				if k+1 < len(times) {
					t = times[k+1]
				}
				break
			}
		}
		settled = math.Max(settled, t)
	}
	if !math.IsInf(settled, -1) {
		rep.Settled = settled
	}
	return rep
}

// Package analysis post-processes finished runs:
//
//   - [SteadyState]: residual rates at the final state and the settling time
//   - [NewSpectrum]: power spectrum of a species series, for forced responses
//   - [RateSweep]: final and extreme concentrations across a rate constant range
//   - [Sensitivity]: normalized sensitivity of the final state to a rate constant
//   - [NewPhasePortrait]: one species against another
//
// # Forced response
//
// A pulsed network should respond at the pulse cycle frequency:
//
//	times, values := res.Store.Series(i)
//	sp, err := analysis.NewSpectrum(times, values)
//	f, _ := sp.Dominant() // ≈ 1 / cycle length
package analysis

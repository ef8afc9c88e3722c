// Package chem models chemical reaction networks and evaluates their rate laws.
//
// The package defines the data model shared by every other part of kinsim:
//
//   - [Species]: a named concentration with a fix mode (free, held or forced)
//   - [Reaction]: forward/backward rate constants over indexed participants
//   - [Network]: the resolved species and reaction tables plus the name index
//   - [Builder]: name-based construction with validation
//   - [Evaluator]: forward/backward fluxes and net production rates
//
// Participants are stored as 0-based species indices. Stoichiometric
// multiplicity is encoded by repeating an index. For Michaelis-Menten
// reactions the first input and the first output name the enzyme.
//
// # Example
//
//	b := chem.NewBuilder()
//	b.AddSpecies("A", 1.0, chem.Free)
//	b.AddSpecies("B", 0.0, chem.Free)
//	b.AddReaction(chem.ReactionSpec{Kf: 2, Kb: 1, Inputs: []string{"A"}, Outputs: []string{"B"}})
//	net, _ := b.Build()
//	ev := chem.NewEvaluator(net)
//	rates := make([]float64, net.NumSpecies())
//	ev.Derive(net.InitialState(), rates)
//
// # Thread Safety
//
// A [Network] is immutable after [Builder.Build] and may be shared. An
// [Evaluator] owns scratch buffers and must not be used concurrently.
package chem

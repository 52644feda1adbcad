// Package engine exposes the session API used by the CLI and the scenario
// harness.
//
// A Session ties together one dataset, one predicate registry and the
// evaluation components built on them:
//
//   - registration, renaming and removal of predicates and formulas
//   - point evaluation of a formula for bound or unbound X and Y
//   - quantified queries (quant.Resolver)
//   - truth matrices and matrix algebra (matrix.Generator, matrix.Apply)
//   - saving a matrix operation back into the registry as a formula
//
// When a Journal is configured every successful mutation is appended to it.
// A journal failure rolls the registry change back, so the journal and the
// registry never disagree.
package engine

// Package registry implements the predicate registry: a single named
// namespace shared by simple predicates and compound formulas.
//
// Compounds reference their arguments by name, so the registry is the arena
// and names are the indices. Renaming an entry rewrites every compound that
// referenced the old name. Arguments must exist when a compound is saved,
// and rename is a pure relabelling, so the reference graph stays acyclic;
// bulk loads (libraries, journals) are still checked with a strongly
// connected component pass before anything is registered.
//
// The registry is safe for concurrent use. Long scans should evaluate
// against a Snapshot so that register and rename calls made while the scan
// runs cannot change its answer.
package registry

// Package harness runs YAML scenarios against a fresh quantq session.
//
// A scenario names a dataset (inline rows or a CSV file), optionally a CUE
// predicate library, and a list of steps. Each step performs one session
// operation and may carry an expect clause:
//
//	name: ordering
//	description: strict ordering has no maximum
//	dataset:
//	  id_column: id
//	  rows:
//	    - {id: r1, v: 5}
//	    - {id: r2, v: 10}
//	steps:
//	  - define: {name: p, attribute: v, op: "<"}
//	  - query: {formula: p, qx: forall, qy: exists}
//	    expect: {outcome: fails, counterexamples: [{x: r2}]}
//
// Every scenario runs in an in-memory workspace: registrations go through
// the store's journal and query reports are saved, so a run also checks
// that the journal replays into the registry the session built.
//
// Results carry a step trace. RunWithGolden renders the trace as text and
// compares it to testdata/golden/{name}.golden.
package harness

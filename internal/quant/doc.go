// Package quant resolves quantified statements over the relation's domain.
//
// Every supported combination of quantifiers for X and Y has a fixed scan
// order: outer loop over X, inner loop over Y, both in domain order. The
// first satisfying element wins wherever a witness is chosen, so results are
// reproducible. Short-circuiting scans always run sequentially; only the
// full scans (∀X ∀Y and the unquantified enumeration) fan out across
// workers, and their results are reassembled in domain order.
//
// Every scan checks its context between outer iterations.
package quant

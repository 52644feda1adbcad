// Package ir provides the foundational types for quantq.
//
// This package contains type definitions only: attribute values and their
// types, row identifiers, predicate definitions, operators, quantifiers and
// the error kinds shared by every other package. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Definitions are a sealed sum type (SimplePredicate | CompoundPredicate)
//     consumed through type switches, never through embedding.
//   - Compound predicates reference their arguments by name only. The
//     registry is the arena, names are the indices.
//   - Constants are converted to the attribute's value type when a predicate
//     is built, never while it is evaluated.
package ir

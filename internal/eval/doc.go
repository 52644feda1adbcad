// Package eval implements the predicate evaluator.
//
// Evaluate computes the truth value of a registry entry for zero, one or two
// bound row identifiers, recursing through compound definitions by name.
// Data problems never surface as errors: an unbound variable the predicate
// needs, a missing attribute value or a type mismatch all make the
// predicate false. The only error is a name that does not resolve.
package eval

// Package compiler turns predicate libraries written in CUE into registry
// definitions.
//
// A library declares simple predicates and formulas by name:
//
//	predicates: {
//		cheaper: {attribute: "price", operator: "<"}
//		pricey:  {attribute: "price", operator: ">", constant: 100}
//		later:   {attribute: "date", operator: ">", left: "Y"}
//	}
//	formulas: {
//		NOT_CHEAPER: {operator: "NOT", args: ["cheaper"]}
//		BOTH:        {operator: "AND", args: ["cheaper", "pricey"]}
//	}
//
// A predicate without a constant compares against the other bound variable.
// Constants keep their CUE type here; they are converted to the attribute's
// type when the definitions are registered against a dataset.
//
// The library is unified with an embedded schema, so unknown fields and
// malformed entries are reported with their source position. Definitions
// are returned in dependency order; a reference cycle among formulas fails
// with REFERENCE_CYCLE.
package compiler

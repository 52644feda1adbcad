// Package relation provides the Relation Accessor consumed by the evaluator
// and the ingestion helpers that build one.
//
// The accessor is the leaf of the system: an ordered, duplicate-free domain
// of row identifiers and, for an identifier and an attribute name, the
// attribute's typed value. Attribute types are consulted only while
// predicates are built.
//
// Ingestion (CSV files, in-memory records, type inference and the ID column
// heuristic) lives here too so that the core packages never see raw text.
package relation

package quant

import (
	"fmt"
	"strings"

	"github.com/roach88/quantq/internal/ir"
)

// Outcome is the verdict of a quantified query.
type Outcome string

const (
	OutcomeHolds      Outcome = "holds"
	OutcomeFails      Outcome = "fails"
	OutcomeEnumerated Outcome = "enumerated" // no quantifiers: satisfying pairs listed
)

// Row is one witness or counterexample. An empty field is an unbound
// variable.
type Row struct {
	X ir.RowID `json:"x,omitempty"`
	Y ir.RowID `json:"y,omitempty"`
}

func (r Row) String() string {
	switch {
	case r.X != "" && r.Y != "":
		return fmt.Sprintf("(X=%s, Y=%s)", r.X, r.Y)
	case r.X != "":
		return fmt.Sprintf("X=%s", r.X)
	case r.Y != "":
		return fmt.Sprintf("Y=%s", r.Y)
	}
	return "()"
}

// Report is the structured result of a quantified query.
type Report struct {
	Formula    string        `json:"formula"`
	QX         ir.Quantifier `json:"qx"`
	QY         ir.Quantifier `json:"qy"`
	Outcome    Outcome       `json:"outcome"`
	Message    string        `json:"message"`
	DomainSize int           `json:"domain_size"`

	// Failures counts counterexamples: X without a witness, failing X or Y,
	// or failing pairs, depending on the quantifiers.
	Failures int `json:"failures"`

	// Witnesses are the satisfying elements found by the scan: the first
	// satisfying Y per X for ∀X ∃Y, the witness for ∃ forms, every
	// satisfying pair for the unquantified enumeration.
	Witnesses []Row `json:"witnesses"`

	// Counterexamples are the elements demonstrating failure.
	Counterexamples []Row `json:"counterexamples"`

	// CounterexampleLabel says what a counterexample row means for this
	// combination, e.g. "X without a satisfying Y".
	CounterexampleLabel string `json:"counterexample_label,omitempty"`

	// Diagnostics holds the failing Y set of the first X examined by
	// ∃X ∀Y, recorded even when a later X turns out to be a witness.
	Diagnostics []Row `json:"diagnostics,omitempty"`
}

// Holds reports whether the statement was verified.
func (r *Report) Holds() bool {
	return r.Outcome == OutcomeHolds
}

// Statement renders the quantified statement, e.g. "∀X ∃Y p".
func Statement(formula string, qx, qy ir.Quantifier) string {
	var parts []string
	if s := qx.Symbol(); s != "" {
		parts = append(parts, s+"X")
	}
	if s := qy.Symbol(); s != "" {
		parts = append(parts, s+"Y")
	}
	parts = append(parts, formula)
	return strings.Join(parts, " ")
}

// plural returns "1 pair" / "2 pairs".
func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}

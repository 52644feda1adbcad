package eval

import (
	"fmt"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/relation"
)

// Evaluator evaluates registry entries against a relation.
// It holds no mutable state and is safe for concurrent use as long as the
// accessor and registry reader are.
type Evaluator struct {
	rel relation.Accessor
	reg registry.Reader
}

// New creates an Evaluator. Pass a registry.Snapshot as reg when the
// evaluator backs a long scan.
func New(rel relation.Accessor, reg registry.Reader) *Evaluator {
	return &Evaluator{rel: rel, reg: reg}
}

// Evaluate returns the truth value of name for the given arguments.
// Either argument may be ir.Unbound.
func (e *Evaluator) Evaluate(name string, x, y ir.Arg) (bool, error) {
	def, err := e.reg.Lookup(name)
	if err != nil {
		return false, err
	}
	return e.EvaluateDefinition(def, x, y)
}

// EvaluateDefinition evaluates an already-resolved definition. Compound
// arguments are still looked up by name.
func (e *Evaluator) EvaluateDefinition(def ir.Definition, x, y ir.Arg) (bool, error) {
	switch d := def.(type) {
	case ir.SimplePredicate:
		return e.evalSimple(d, x, y), nil
	case ir.CompoundPredicate:
		return e.evalCompound(d, x, y)
	}
	return false, fmt.Errorf("unknown definition type %T", def)
}

func (e *Evaluator) evalSimple(d ir.SimplePredicate, x, y ir.Arg) bool {
	left, right := x, y
	if d.Left == ir.VarY {
		left, right = y, x
	}

	lv, ok := e.valueOf(left, d.Attribute)
	if !ok {
		return false
	}

	var rv ir.Value
	if d.Binary() {
		rv, ok = e.valueOf(right, d.Attribute)
		if !ok {
			return false
		}
	} else {
		rv = d.Right.Const
	}

	return Compare(d.Op, lv, rv)
}

// valueOf reads attribute for a bound argument. Unbound or missing is !ok.
func (e *Evaluator) valueOf(a ir.Arg, attribute string) (ir.Value, bool) {
	id, bound := a.ID()
	if !bound {
		return nil, false
	}
	return e.rel.Value(id, attribute)
}

func (e *Evaluator) evalCompound(d ir.CompoundPredicate, x, y ir.Arg) (bool, error) {
	lo, hi := d.Op.Arity()
	if len(d.Args) < lo || len(d.Args) > hi {
		return false, ir.NewInvalidDefinitionError(d.Name, fmt.Sprintf("%s has %d arguments", d.Op, len(d.Args)))
	}

	a, err := e.Evaluate(d.Args[0], x, y)
	if err != nil {
		return false, err
	}

	switch d.Op {
	case ir.LogicNot:
		return !a, nil
	case ir.LogicAnd:
		if !a {
			return false, nil
		}
		return e.Evaluate(d.Args[1], x, y)
	case ir.LogicOr:
		if a {
			return true, nil
		}
		return e.Evaluate(d.Args[1], x, y)
	}

	// IMPLIES with one argument means a⇒a.
	b := a
	if len(d.Args) == 2 {
		if b, err = e.Evaluate(d.Args[1], x, y); err != nil {
			return false, err
		}
	}

	switch d.Op {
	case ir.LogicImplies:
		return Implies(a, b), nil
	case ir.LogicXor:
		return Xor(a, b), nil
	case ir.LogicBiconditional:
		return Biconditional(a, b), nil
	}
	return false, ir.NewInvalidDefinitionError(d.Name, "unknown logic operator "+string(d.Op))
}

// Implies is ¬a ∨ b.
func Implies(a, b bool) bool { return !a || b }

// Xor is (a ∨ b) ∧ ¬(a ∧ b).
func Xor(a, b bool) bool { return (a || b) && !(a && b) }

// Biconditional is a = b.
func Biconditional(a, b bool) bool { return a == b }

// Combine applies a logic operator to already-evaluated operands. For NOT
// and unary IMPLIES only a is used.
func Combine(op ir.LogicOp, a, b bool) bool {
	switch op {
	case ir.LogicNot:
		return !a
	case ir.LogicAnd:
		return a && b
	case ir.LogicOr:
		return a || b
	case ir.LogicImplies:
		return Implies(a, b)
	case ir.LogicXor:
		return Xor(a, b)
	case ir.LogicBiconditional:
		return Biconditional(a, b)
	}
	return false
}

// Resolve returns the canonical name for name, or UNKNOWN_PREDICATE.
func (e *Evaluator) Resolve(name string) (string, error) {
	canonical, ok := e.reg.Resolve(name)
	if !ok {
		return "", ir.NewUnknownPredicateError(name)
	}
	return canonical, nil
}

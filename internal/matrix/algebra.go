package matrix

import (
	"fmt"
	"strings"

	"github.com/roach88/quantq/internal/eval"
	"github.com/roach88/quantq/internal/ir"
)

// Not returns the element-wise negation of m.
func Not(m *TruthMatrix) *TruthMatrix {
	out := newMatrix(label(ir.LogicNot, m), m.Domain, m.OriginalSize)
	for i, row := range m.Cells {
		for j, c := range row {
			out.Cells[i][j] = !c
		}
	}
	return out
}

// And is element-wise a ∧ b.
func And(a, b *TruthMatrix) (*TruthMatrix, error) { return Apply(ir.LogicAnd, a, b) }

// Or is element-wise a ∨ b.
func Or(a, b *TruthMatrix) (*TruthMatrix, error) { return Apply(ir.LogicOr, a, b) }

// Xor is element-wise exclusive or.
func Xor(a, b *TruthMatrix) (*TruthMatrix, error) { return Apply(ir.LogicXor, a, b) }

// Implies is element-wise ¬a ∨ b.
func Implies(a, b *TruthMatrix) (*TruthMatrix, error) { return Apply(ir.LogicImplies, a, b) }

// Biconditional is element-wise (a ⇒ b) ∧ (b ⇒ a).
func Biconditional(a, b *TruthMatrix) (*TruthMatrix, error) {
	return Apply(ir.LogicBiconditional, a, b)
}

// Apply combines matrices with op. NOT uses only a; unary IMPLIES (b nil)
// is a ⇒ a. Binary operators fail with SHAPE_MISMATCH unless both
// matrices are N×N for the same N.
func Apply(op ir.LogicOp, a, b *TruthMatrix) (*TruthMatrix, error) {
	if a == nil {
		return nil, fmt.Errorf("%s: missing operand", op)
	}
	switch op {
	case ir.LogicNot:
		return Not(a), nil
	case ir.LogicImplies:
		if b == nil {
			b = a
		}
	case ir.LogicAnd, ir.LogicOr, ir.LogicXor, ir.LogicBiconditional:
		if b == nil {
			return nil, fmt.Errorf("%s: requires two matrices", op)
		}
	default:
		return nil, fmt.Errorf("unknown matrix operator %q", op)
	}

	if a.Size() != b.Size() {
		return nil, ir.NewShapeMismatchError(a.Size(), b.Size())
	}

	out := newMatrix(label(op, a, b), a.Domain, max(a.OriginalSize, b.OriginalSize))
	for i, row := range a.Cells {
		for j, c := range row {
			out.Cells[i][j] = cell(op, c, b.Cells[i][j])
		}
	}
	return out, nil
}

func cell(op ir.LogicOp, a, b bool) bool {
	if op == ir.LogicBiconditional {
		return eval.Implies(a, b) && eval.Implies(b, a)
	}
	return eval.Combine(op, a, b)
}

func label(op ir.LogicOp, ms ...*TruthMatrix) string {
	names := make([]string, len(ms))
	for i, m := range ms {
		names[i] = m.Label
	}
	return fmt.Sprintf("%s(%s)", op, strings.Join(names, ", "))
}

package eval

import (
	"cmp"
	"math"
	"strings"

	"golang.org/x/text/cases"

	"github.com/roach88/quantq/internal/ir"
)

// Compare applies a relational operator to two values. It never fails:
// nil operands, NaN, and operand types that cannot be compared all yield
// false, for every operator including "!=".
//
// Integers and floats compare numerically with each other. Booleans order
// false < true. Text orders byte-wise. Text operators compare the
// case-folded textual forms of any two values.
func Compare(op ir.RelOp, a, b ir.Value) bool {
	if a == nil || b == nil || isNaN(a) || isNaN(b) {
		return false
	}

	if op.IsTextual() {
		folder := cases.Fold()
		left := folder.String(a.Text())
		right := folder.String(b.Text())
		switch op {
		case ir.OpContains:
			return strings.Contains(left, right)
		case ir.OpStartsWith:
			return strings.HasPrefix(left, right)
		case ir.OpEndsWith:
			return strings.HasSuffix(left, right)
		}
		return false
	}

	c, ok := order(a, b)
	if !ok {
		return false
	}
	switch op {
	case ir.OpEqual:
		return c == 0
	case ir.OpNotEqual:
		return c != 0
	case ir.OpGreater:
		return c > 0
	case ir.OpLess:
		return c < 0
	case ir.OpGreaterEq:
		return c >= 0
	case ir.OpLessEq:
		return c <= 0
	}
	return false
}

// order compares a and b, reporting ok=false when the types are not
// mutually orderable.
func order(a, b ir.Value) (int, bool) {
	switch av := a.(type) {
	case ir.Int:
		switch bv := b.(type) {
		case ir.Int:
			return cmp.Compare(av, bv), true
		case ir.Float:
			return cmp.Compare(float64(av), float64(bv)), true
		}
	case ir.Float:
		switch bv := b.(type) {
		case ir.Float:
			return cmp.Compare(av, bv), true
		case ir.Int:
			return cmp.Compare(float64(av), float64(bv)), true
		}
	case ir.Bool:
		if bv, ok := b.(ir.Bool); ok {
			return cmp.Compare(boolRank(bool(av)), boolRank(bool(bv))), true
		}
	case ir.Text:
		if bv, ok := b.(ir.Text); ok {
			return strings.Compare(string(av), string(bv)), true
		}
	case ir.Timestamp:
		if bv, ok := b.(ir.Timestamp); ok {
			return av.Compare(bv.Time), true
		}
	}
	return 0, false
}

func boolRank(b bool) int {
	if b {
		return 1
	}
	return 0
}

func isNaN(v ir.Value) bool {
	f, ok := v.(ir.Float)
	return ok && math.IsNaN(float64(f))
}

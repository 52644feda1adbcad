package registry

import (
	"fmt"

	"github.com/roach88/quantq/internal/ir"
)

// Caption renders a one-line, human-readable description of def.
//
//	p(X,Y): X.price < Y.price
//	big(X): X.price > 100
//	Q: NOT(p)
//	R: (p AND q)
//	S: IMPLIES(p)
func Caption(def ir.Definition) string {
	switch d := def.(type) {
	case ir.SimplePredicate:
		left := fmt.Sprintf("%s.%s", d.Left, d.Attribute)
		if d.Binary() {
			return fmt.Sprintf("%s(X,Y): %s %s %s.%s", d.Name, left, d.Op, d.Left.Other(), d.Attribute)
		}
		return fmt.Sprintf("%s(%s): %s %s %s", d.Name, d.Left, left, d.Op, constantText(d.Right.Const))
	case ir.CompoundPredicate:
		switch len(d.Args) {
		case 1:
			return fmt.Sprintf("%s: %s(%s)", d.Name, d.Op, d.Args[0])
		case 2:
			return fmt.Sprintf("%s: (%s %s %s)", d.Name, d.Args[0], d.Op, d.Args[1])
		}
		return fmt.Sprintf("%s: %s%v", d.Name, d.Op, d.Args)
	}
	return fmt.Sprintf("%v", def)
}

func constantText(v ir.Value) string {
	if v == nil {
		return "<nil>"
	}
	if v.Type() == ir.TypeText || v.Type() == ir.TypeTimestamp {
		return fmt.Sprintf("%q", v.Text())
	}
	return v.Text()
}

// Describe returns the caption of the entry name resolves to.
func (r *Registry) Describe(name string) (string, error) {
	def, err := r.Lookup(name)
	if err != nil {
		return "", err
	}
	return Caption(def), nil
}

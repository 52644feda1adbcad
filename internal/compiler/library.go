package compiler

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	cerrors "github.com/cockroachdb/errors"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
)

//go:embed schema.cue
var schemaSource string

// LoadLibrary reads a library from a .cue file, or from every file of the
// CUE package in a directory, and compiles it.
func LoadLibrary(path string) ([]ir.Definition, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, cerrors.Wrapf(err, "open library %s", path)
	}

	ctx := cuecontext.New()
	var v cue.Value
	if info.IsDir() {
		instances := load.Instances([]string{"."}, &load.Config{Dir: path})
		if len(instances) == 0 {
			return nil, cerrors.Newf("no CUE instances in %s", path)
		}
		if err := instances[0].Err; err != nil {
			return nil, cerrors.Wrapf(err, "load library %s", path)
		}
		v = ctx.BuildInstance(instances[0])
	} else {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, cerrors.Wrapf(err, "read library %s", path)
		}
		v = ctx.CompileBytes(data, cue.Filename(path))
	}
	return CompileLibrary(v)
}

// CompileSource compiles library source text. filename is used in error
// positions only.
func CompileSource(filename string, src []byte) ([]ir.Definition, error) {
	return CompileLibrary(cuecontext.New().CompileBytes(src, cue.Filename(filename)))
}

// CompileLibrary validates v against the library schema and returns its
// definitions in dependency order: predicates first in declaration order,
// then formulas after the entries they reference.
func CompileLibrary(v cue.Value) ([]ir.Definition, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	schema := v.Context().CompileString(schemaSource, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		return nil, cerrors.Wrap(err, "compile library schema")
	}
	v = schema.Unify(v)
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var defs []ir.Definition

	if preds := v.LookupPath(cue.ParsePath("predicates")); preds.Exists() {
		iter, err := preds.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			p, err := CompilePredicate(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			defs = append(defs, p)
		}
	}

	if forms := v.LookupPath(cue.ParsePath("formulas")); forms.Exists() {
		iter, err := forms.Fields()
		if err != nil {
			return nil, formatCUEError(err)
		}
		for iter.Next() {
			f, err := CompileFormula(iter.Label(), iter.Value())
			if err != nil {
				return nil, err
			}
			defs = append(defs, f)
		}
	}

	if err := checkUnique(defs); err != nil {
		return nil, err
	}
	return registry.Order(defs)
}

// CompilePredicate compiles one entry of "predicates".
func CompilePredicate(name string, v cue.Value) (ir.SimplePredicate, error) {
	field := "predicates." + name

	attribute, err := v.LookupPath(cue.ParsePath("attribute")).String()
	if err != nil {
		return ir.SimplePredicate{}, formatCUEError(err)
	}

	opText, err := v.LookupPath(cue.ParsePath("operator")).String()
	if err != nil {
		return ir.SimplePredicate{}, formatCUEError(err)
	}
	op, err := ir.ParseRelOp(opText)
	if err != nil {
		return ir.SimplePredicate{}, &CompileError{Field: field + ".operator", Message: err.Error(), Pos: v.Pos()}
	}

	left := ir.VarX
	if lv := v.LookupPath(cue.ParsePath("left")); lv.Exists() {
		s, err := lv.String()
		if err != nil {
			return ir.SimplePredicate{}, formatCUEError(err)
		}
		if left, err = ir.ParseVar(s); err != nil {
			return ir.SimplePredicate{}, &CompileError{Field: field + ".left", Message: err.Error(), Pos: lv.Pos()}
		}
	}

	pred := ir.SimplePredicate{
		Name:      name,
		Attribute: attribute,
		Op:        op,
		Left:      left,
		Right:     ir.OtherVariable(),
	}
	if cv := v.LookupPath(cue.ParsePath("constant")); cv.Exists() {
		c, err := constantOf(cv)
		if err != nil {
			return ir.SimplePredicate{}, &CompileError{Field: field + ".constant", Message: err.Error(), Pos: cv.Pos()}
		}
		pred.Right = ir.Constant(c)
	}
	return pred, nil
}

// CompileFormula compiles one entry of "formulas".
func CompileFormula(name string, v cue.Value) (ir.CompoundPredicate, error) {
	opText, err := v.LookupPath(cue.ParsePath("operator")).String()
	if err != nil {
		return ir.CompoundPredicate{}, formatCUEError(err)
	}
	op, err := ir.ParseLogicOp(opText)
	if err != nil {
		return ir.CompoundPredicate{}, &CompileError{Field: "formulas." + name + ".operator", Message: err.Error(), Pos: v.Pos()}
	}

	var args []string
	if err := v.LookupPath(cue.ParsePath("args")).Decode(&args); err != nil {
		return ir.CompoundPredicate{}, formatCUEError(err)
	}

	lo, hi := op.Arity()
	if len(args) < lo || len(args) > hi {
		return ir.CompoundPredicate{}, &CompileError{
			Field:   "formulas." + name + ".args",
			Message: fmt.Sprintf("%s takes %d to %d arguments, got %d", op, lo, hi, len(args)),
			Pos:     v.Pos(),
		}
	}
	return ir.CompoundPredicate{Name: name, Op: op, Args: args}, nil
}

// constantOf keeps the CUE kind of a constant.
func constantOf(v cue.Value) (ir.Value, error) {
	switch v.IncompleteKind() {
	case cue.BoolKind:
		b, err := v.Bool()
		return ir.Bool(b), err
	case cue.IntKind:
		n, err := v.Int64()
		return ir.Int(n), err
	case cue.FloatKind, cue.NumberKind:
		f, err := v.Float64()
		return ir.Float(f), err
	case cue.StringKind:
		s, err := v.String()
		return ir.Text(s), err
	}
	return nil, fmt.Errorf("unsupported constant kind %v", v.IncompleteKind())
}

// checkUnique rejects a name declared both as a predicate and a formula.
func checkUnique(defs []ir.Definition) error {
	seen := make(map[string]bool, len(defs))
	for _, d := range defs {
		if seen[d.DefName()] {
			return ir.NewDuplicateNameError(d.DefName())
		}
		seen[d.DefName()] = true
	}
	return nil
}

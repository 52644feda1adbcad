package ir

import (
	"fmt"
	"strings"
)

// RowID identifies one row of the relation. It is the textual form of the
// row's value in the designated ID column.
type RowID string

// Arg is a bound variable's value: a row identifier, or unbound.
type Arg struct {
	id    RowID
	bound bool
}

// Unbound is the absent argument.
var Unbound = Arg{}

// Bind returns an argument bound to id.
func Bind(id RowID) Arg {
	return Arg{id: id, bound: true}
}

// ID returns the bound row and whether the argument is bound at all.
func (a Arg) ID() (RowID, bool) {
	return a.id, a.bound
}

func (a Arg) String() string {
	if !a.bound {
		return "_"
	}
	return string(a.id)
}

// Var names one of the two bound variables.
type Var string

const (
	VarX Var = "X"
	VarY Var = "Y"
)

// Other returns the opposite bound variable.
func (v Var) Other() Var {
	if v == VarY {
		return VarX
	}
	return VarY
}

// ParseVar accepts "X" or "Y" in either case.
func ParseVar(s string) (Var, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "X", "":
		return VarX, nil
	case "Y":
		return VarY, nil
	}
	return VarX, fmt.Errorf("unknown variable %q: must be X or Y", s)
}

// RelOp is a relational comparison operator used by simple predicates.
type RelOp string

const (
	OpEqual      RelOp = "="
	OpNotEqual   RelOp = "!="
	OpGreater    RelOp = ">"
	OpLess       RelOp = "<"
	OpGreaterEq  RelOp = ">="
	OpLessEq     RelOp = "<="
	OpContains   RelOp = "contains"
	OpStartsWith RelOp = "starts_with"
	OpEndsWith   RelOp = "ends_with"
)

// RelOps lists the relational operators in display order.
var RelOps = []RelOp{OpEqual, OpGreater, OpLess, OpGreaterEq, OpLessEq, OpNotEqual, OpContains, OpStartsWith, OpEndsWith}

var relOpAliases = map[string]RelOp{
	"=": OpEqual, "==": OpEqual, "eq": OpEqual, "equal": OpEqual,
	"!=": OpNotEqual, "<>": OpNotEqual, "ne": OpNotEqual, "not_equal": OpNotEqual,
	">": OpGreater, "gt": OpGreater, "greater": OpGreater,
	"<": OpLess, "lt": OpLess, "less": OpLess,
	">=": OpGreaterEq, "ge": OpGreaterEq, "gte": OpGreaterEq,
	"<=": OpLessEq, "le": OpLessEq, "lte": OpLessEq,
	"contains": OpContains,
	"starts_with": OpStartsWith, "startswith": OpStartsWith, "starts-with": OpStartsWith,
	"ends_with": OpEndsWith, "endswith": OpEndsWith, "ends-with": OpEndsWith,
}

// ParseRelOp resolves an operator symbol or alias.
func ParseRelOp(s string) (RelOp, error) {
	if op, ok := relOpAliases[strings.ToLower(strings.TrimSpace(s))]; ok {
		return op, nil
	}
	return "", fmt.Errorf("unknown relational operator %q", s)
}

// IsTextual reports whether op compares textual forms.
func (op RelOp) IsTextual() bool {
	return op == OpContains || op == OpStartsWith || op == OpEndsWith
}

// LogicOp is a boolean combinator used by compound predicates.
type LogicOp string

const (
	LogicNot           LogicOp = "NOT"
	LogicAnd           LogicOp = "AND"
	LogicOr            LogicOp = "OR"
	LogicImplies       LogicOp = "IMPLIES"
	LogicXor           LogicOp = "XOR"
	LogicBiconditional LogicOp = "BICONDITIONAL"
)

// LogicOps lists the boolean combinators in display order.
var LogicOps = []LogicOp{LogicNot, LogicAnd, LogicOr, LogicImplies, LogicXor, LogicBiconditional}

// ParseLogicOp resolves a combinator name, case-insensitively.
func ParseLogicOp(s string) (LogicOp, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOT", "¬":
		return LogicNot, nil
	case "AND", "∧":
		return LogicAnd, nil
	case "OR", "∨":
		return LogicOr, nil
	case "IMPLIES", "→", "=>":
		return LogicImplies, nil
	case "XOR", "⊕":
		return LogicXor, nil
	case "BICONDITIONAL", "IFF", "↔", "<=>":
		return LogicBiconditional, nil
	}
	return "", fmt.Errorf("unknown logic operator %q", s)
}

// Arity returns the minimum and maximum argument count for op.
// IMPLIES accepts one argument (a⇒a) or two.
func (op LogicOp) Arity() (min, max int) {
	switch op {
	case LogicNot:
		return 1, 1
	case LogicImplies:
		return 1, 2
	default:
		return 2, 2
	}
}

// OperandKind selects how a simple predicate's right operand is obtained.
type OperandKind int

const (
	// OperandVar reads the attribute from the other bound variable.
	OperandVar OperandKind = iota
	// OperandConst uses a pre-converted constant.
	OperandConst
)

// Operand is a simple predicate's right-hand side.
type Operand struct {
	Kind  OperandKind
	Const Value // set when Kind == OperandConst
}

// OtherVariable is the operand that reads the other bound variable.
func OtherVariable() Operand {
	return Operand{Kind: OperandVar}
}

// Constant is the operand holding a converted constant.
func Constant(v Value) Operand {
	return Operand{Kind: OperandConst, Const: v}
}

// DefinitionKind tags the two definition variants.
type DefinitionKind string

const (
	KindSimple   DefinitionKind = "simple"
	KindCompound DefinitionKind = "compound"
)

// Definition is a registry entry: a SimplePredicate or a CompoundPredicate.
//
// This is a sealed interface; consumers dispatch with a type switch.
type Definition interface {
	DefName() string
	Kind() DefinitionKind
	definition() // sealed
}

// SimplePredicate is a relational comparison over one attribute.
//
// The left operand is read from the Left variable. The right operand is
// either the same attribute of the other variable, or a constant converted
// to the attribute's type when the predicate was built.
type SimplePredicate struct {
	Name      string
	Attribute string
	Op        RelOp
	Left      Var
	Right     Operand
}

// CompoundPredicate is a boolean combination of other registry entries,
// referenced by name.
type CompoundPredicate struct {
	Name string
	Op   LogicOp
	Args []string
}

func (SimplePredicate) definition()   {}
func (CompoundPredicate) definition() {}

func (s SimplePredicate) DefName() string   { return s.Name }
func (c CompoundPredicate) DefName() string { return c.Name }

func (SimplePredicate) Kind() DefinitionKind   { return KindSimple }
func (CompoundPredicate) Kind() DefinitionKind { return KindCompound }

// Binary reports whether the predicate compares two bound variables.
func (s SimplePredicate) Binary() bool {
	return s.Right.Kind == OperandVar
}

// WithName returns a copy of def carrying a new name.
func WithName(def Definition, name string) Definition {
	switch d := def.(type) {
	case SimplePredicate:
		d.Name = name
		return d
	case CompoundPredicate:
		d.Name = name
		d.Args = append([]string(nil), d.Args...)
		return d
	}
	return def
}

// Quantifier binds one variable of a quantified statement.
type Quantifier string

const (
	QuantForAll Quantifier = "forall"
	QuantExists Quantifier = "exists"
	QuantNone   Quantifier = "none"
)

// ParseQuantifier accepts "forall"/"∀", "exists"/"∃" and "none"/"" .
func ParseQuantifier(s string) (Quantifier, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "forall", "all", "∀":
		return QuantForAll, nil
	case "exists", "some", "∃":
		return QuantExists, nil
	case "none", "", "-", "(none)":
		return QuantNone, nil
	}
	return QuantNone, fmt.Errorf("unknown quantifier %q", s)
}

// Symbol returns the logic symbol, or "" for QuantNone.
func (q Quantifier) Symbol() string {
	switch q {
	case QuantForAll:
		return "∀"
	case QuantExists:
		return "∃"
	}
	return ""
}

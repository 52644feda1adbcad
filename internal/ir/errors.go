package ir

import (
	"errors"
	"fmt"
)

// Error is a domain error raised by the registry, evaluator, resolver or
// matrix layer.
//
// Construction-time errors (duplicate names, incompatible constants,
// unknown arguments) leave the registry unchanged. Evaluation-time data
// problems are never reported as errors; they evaluate to false.
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Name is the predicate or formula involved, if any.
	Name string

	// Message is a human-readable description.
	Message string

	// Details contains additional context.
	Details map[string]string
}

// ErrorCode categorizes domain errors.
type ErrorCode string

const (
	// ErrCodeDuplicateName indicates a register or rename collision.
	ErrCodeDuplicateName ErrorCode = "DUPLICATE_NAME"

	// ErrCodeUnknownPredicate indicates a name that cannot be resolved.
	ErrCodeUnknownPredicate ErrorCode = "UNKNOWN_PREDICATE"

	// ErrCodeShapeMismatch indicates matrix algebra over unequal dimensions.
	ErrCodeShapeMismatch ErrorCode = "SHAPE_MISMATCH"

	// ErrCodeUnsupportedQuantifiers indicates a quantifier combination
	// outside the supported set.
	ErrCodeUnsupportedQuantifiers ErrorCode = "UNSUPPORTED_QUANTIFIERS"

	// ErrCodeIncompatibleConstant indicates a constant that cannot be
	// converted to the attribute's value type.
	ErrCodeIncompatibleConstant ErrorCode = "INCOMPATIBLE_CONSTANT"

	// ErrCodeTruncatedDomain signals that matrix generation capped the
	// domain. It is a warning, not a failure.
	ErrCodeTruncatedDomain ErrorCode = "TRUNCATED_DOMAIN"

	// ErrCodeInvalidDefinition indicates a malformed definition: bad
	// arity, unknown operator or attribute, empty name.
	ErrCodeInvalidDefinition ErrorCode = "INVALID_DEFINITION"

	// ErrCodeInUse indicates removal of an entry other compounds reference.
	ErrCodeInUse ErrorCode = "PREDICATE_IN_USE"

	// ErrCodeReferenceCycle indicates definitions that reference themselves
	// through a chain of compounds.
	ErrCodeReferenceCycle ErrorCode = "REFERENCE_CYCLE"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Name != "" {
		return fmt.Sprintf("%s: %s (name=%s)", e.Code, e.Message, e.Name)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HasCode reports whether err is, or wraps, an *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// CodeOf returns the code of the first *Error in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsDuplicateName returns true if err is a duplicate-name error.
func IsDuplicateName(err error) bool { return HasCode(err, ErrCodeDuplicateName) }

// IsUnknownPredicate returns true if err is an unknown-predicate error.
func IsUnknownPredicate(err error) bool { return HasCode(err, ErrCodeUnknownPredicate) }

// IsShapeMismatch returns true if err is a shape-mismatch error.
func IsShapeMismatch(err error) bool { return HasCode(err, ErrCodeShapeMismatch) }

// IsUnsupportedQuantifiers returns true if err rejects a quantifier combination.
func IsUnsupportedQuantifiers(err error) bool { return HasCode(err, ErrCodeUnsupportedQuantifiers) }

// IsIncompatibleConstant returns true if err is an incompatible-constant error.
func IsIncompatibleConstant(err error) bool { return HasCode(err, ErrCodeIncompatibleConstant) }

// IsTruncatedDomain returns true if err is the truncation signal.
func IsTruncatedDomain(err error) bool { return HasCode(err, ErrCodeTruncatedDomain) }

// NewDuplicateNameError creates an Error for a name collision.
func NewDuplicateNameError(name string) *Error {
	return &Error{
		Code:    ErrCodeDuplicateName,
		Name:    name,
		Message: "a predicate or formula with this name already exists",
	}
}

// NewUnknownPredicateError creates an Error for an unresolvable name.
func NewUnknownPredicateError(name string) *Error {
	return &Error{
		Code:    ErrCodeUnknownPredicate,
		Name:    name,
		Message: "no predicate or formula with this name",
	}
}

// NewShapeMismatchError creates an Error for matrices of different sizes.
func NewShapeMismatchError(left, right int) *Error {
	return &Error{
		Code:    ErrCodeShapeMismatch,
		Message: fmt.Sprintf("matrices must have the same dimension (%dx%d vs %dx%d)", left, left, right, right),
		Details: map[string]string{
			"left":  fmt.Sprintf("%d", left),
			"right": fmt.Sprintf("%d", right),
		},
	}
}

// NewUnsupportedQuantifiersError creates an Error for a rejected combination.
func NewUnsupportedQuantifiersError(qx, qy Quantifier) *Error {
	return &Error{
		Code:    ErrCodeUnsupportedQuantifiers,
		Message: fmt.Sprintf("quantifier combination %s X, %s Y is not supported", qx, qy),
		Details: map[string]string{
			"qx": string(qx),
			"qy": string(qy),
		},
	}
}

// NewIncompatibleConstantError creates an Error for a constant that does not
// convert to the attribute's type.
func NewIncompatibleConstantError(raw string, want ValueType, reason string) *Error {
	return &Error{
		Code:    ErrCodeIncompatibleConstant,
		Message: fmt.Sprintf("constant %q is not a valid %s: %s", raw, want, reason),
		Details: map[string]string{
			"constant": raw,
			"type":     want.String(),
		},
	}
}

// NewTruncatedDomainError creates the non-fatal truncation signal.
func NewTruncatedDomainError(name string, size, limit int) *Error {
	return &Error{
		Code:    ErrCodeTruncatedDomain,
		Name:    name,
		Message: fmt.Sprintf("domain of %d rows truncated to the first %d", size, limit),
		Details: map[string]string{
			"size":  fmt.Sprintf("%d", size),
			"limit": fmt.Sprintf("%d", limit),
		},
	}
}

// NewInvalidDefinitionError creates an Error for a malformed definition.
func NewInvalidDefinitionError(name, message string) *Error {
	return &Error{
		Code:    ErrCodeInvalidDefinition,
		Name:    name,
		Message: message,
	}
}

// NewInUseError creates an Error for removal of a referenced entry.
func NewInUseError(name string, dependents []string) *Error {
	return &Error{
		Code:    ErrCodeInUse,
		Name:    name,
		Message: fmt.Sprintf("referenced by %v", dependents),
	}
}

// NewReferenceCycleError creates an Error for a cycle among compounds.
func NewReferenceCycleError(path []string) *Error {
	return &Error{
		Code:    ErrCodeReferenceCycle,
		Message: fmt.Sprintf("reference cycle: %v", path),
	}
}

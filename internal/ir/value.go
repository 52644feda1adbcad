package ir

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ValueType is the declared type of a relation attribute.
type ValueType int

const (
	TypeText ValueType = iota
	TypeBool
	TypeInt
	TypeFloat
	TypeTimestamp
)

var valueTypeNames = map[ValueType]string{
	TypeText:      "text",
	TypeBool:      "boolean",
	TypeInt:       "integer",
	TypeFloat:     "float",
	TypeTimestamp: "timestamp",
}

func (t ValueType) String() string {
	if s, ok := valueTypeNames[t]; ok {
		return s
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// ParseValueType accepts the canonical names plus a few common aliases
// ("bool", "int", "string", "date", ...).
func ParseValueType(s string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "text", "string", "str":
		return TypeText, nil
	case "boolean", "bool":
		return TypeBool, nil
	case "integer", "int", "int64":
		return TypeInt, nil
	case "float", "float64", "double", "number":
		return TypeFloat, nil
	case "timestamp", "datetime", "date", "time":
		return TypeTimestamp, nil
	}
	return TypeText, fmt.Errorf("unknown value type %q", s)
}

// Value is a sealed interface over typed attribute values.
// Only Bool, Int, Float, Timestamp and Text implement it.
//
// A missing value is represented by absence (the accessor's ok=false),
// never by a Value.
type Value interface {
	Type() ValueType
	// Text is the value's textual form, used by the text operators.
	Text() string
	value() // sealed
}

// Bool is a boolean attribute value.
type Bool bool

// Int is an integer attribute value.
type Int int64

// Float is a floating-point attribute value.
type Float float64

// Text is a text attribute value.
type Text string

// Timestamp is a point-in-time attribute value.
type Timestamp struct {
	time.Time
}

func (Bool) value()      {}
func (Int) value()       {}
func (Float) value()     {}
func (Text) value()      {}
func (Timestamp) value() {}

func (Bool) Type() ValueType      { return TypeBool }
func (Int) Type() ValueType       { return TypeInt }
func (Float) Type() ValueType     { return TypeFloat }
func (Text) Type() ValueType      { return TypeText }
func (Timestamp) Type() ValueType { return TypeTimestamp }

func (b Bool) Text() string { return strconv.FormatBool(bool(b)) }

func (i Int) Text() string { return strconv.FormatInt(int64(i), 10) }

func (f Float) Text() string { return strconv.FormatFloat(float64(f), 'g', -1, 64) }

func (t Text) Text() string { return string(t) }

// Text renders date-only timestamps without a clock component.
func (t Timestamp) Text() string {
	h, m, s := t.Clock()
	if h == 0 && m == 0 && s == 0 && t.Nanosecond() == 0 {
		return t.Format(time.DateOnly)
	}
	return t.Format(time.DateTime)
}

// NewTimestamp wraps a time.Time.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

package ir

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

var (
	trueWords  = map[string]bool{"true": true, "1": true, "t": true, "sí": true, "si": true, "y": true, "yes": true}
	falseWords = map[string]bool{"false": true, "0": true, "f": true, "no": true, "n": true}
)

// TimestampLayouts are tried in order when parsing timestamps. Slash dates
// are read day-first.
var TimestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	time.DateTime,
	"2006-01-02T15:04:05",
	time.DateOnly,
	"02/01/2006 15:04:05",
	"02/01/2006 15:04",
	"02/01/2006",
	"02-01-2006",
}

// ParseConstant converts raw user input to a Value of type want.
// An empty constant is always rejected. Integers accept a float literal and
// truncate it ("3.0" → 3).
func ParseConstant(want ValueType, raw string) (Value, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, NewIncompatibleConstantError(raw, want, "empty constant")
	}

	switch want {
	case TypeBool:
		low := strings.ToLower(s)
		if trueWords[low] {
			return Bool(true), nil
		}
		if falseWords[low] {
			return Bool(false), nil
		}
		return nil, NewIncompatibleConstantError(raw, want, "must be true or false")

	case TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err == nil {
			return Int(n), nil
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, NewIncompatibleConstantError(raw, want, "out of range")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(f) {
			return nil, NewIncompatibleConstantError(raw, want, "not a number")
		}
		// float64(math.MaxInt64) is 2^63, which int64 cannot hold.
		if f >= 0x1p63 || f < -0x1p63 {
			return nil, NewIncompatibleConstantError(raw, want, "out of range")
		}
		return Int(int64(f)), nil

	case TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || !isFinite(f) {
			return nil, NewIncompatibleConstantError(raw, want, "not a finite number")
		}
		return Float(f), nil

	case TypeTimestamp:
		if t, ok := ParseTimestamp(s); ok {
			return NewTimestamp(t), nil
		}
		return nil, NewIncompatibleConstantError(raw, want, "not a recognised date or timestamp")

	case TypeText:
		return Text(s), nil
	}

	return nil, NewIncompatibleConstantError(raw, want, "unsupported attribute type")
}

// ParseTimestamp tries each of TimestampLayouts in order.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range TimestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// ConvertConstant coerces an already-typed value (from a CUE or YAML file)
// to want. Values of the right type pass through; everything else goes
// through its textual form.
func ConvertConstant(want ValueType, v Value) (Value, error) {
	if f, ok := v.(Float); ok && !isFinite(float64(f)) {
		return nil, NewIncompatibleConstantError(v.Text(), want, "not a finite number")
	}
	if v.Type() == want {
		return v, nil
	}
	if want == TypeFloat {
		if i, ok := v.(Int); ok {
			return Float(float64(i)), nil
		}
	}
	return ParseConstant(want, v.Text())
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

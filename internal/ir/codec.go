package ir

import (
	"encoding/json"
	"fmt"
	"time"
)

// MarshalDefinition encodes def as canonical JSON.
//
// Simple predicates:
//
//	{"attribute":"v","kind":"simple","left":"X","name":"p","op":"<","right":{"kind":"var"}}
//
// Constants carry their type and their text so they round-trip exactly:
//
//	"right":{"kind":"const","type":"integer","value":"5"}
//
// Compound predicates:
//
//	{"args":["p","q"],"kind":"compound","name":"Q","op":"AND"}
func MarshalDefinition(def Definition) ([]byte, error) {
	switch d := def.(type) {
	case SimplePredicate:
		right := map[string]any{"kind": "var"}
		if d.Right.Kind == OperandConst {
			if d.Right.Const == nil {
				return nil, fmt.Errorf("predicate %q: constant operand without value", d.Name)
			}
			right = map[string]any{
				"kind":  "const",
				"type":  d.Right.Const.Type().String(),
				"value": encodeValueText(d.Right.Const),
			}
		}
		return MarshalCanonical(map[string]any{
			"kind":      string(KindSimple),
			"name":      d.Name,
			"attribute": d.Attribute,
			"op":        string(d.Op),
			"left":      string(d.Left),
			"right":     right,
		})
	case CompoundPredicate:
		return MarshalCanonical(map[string]any{
			"kind": string(KindCompound),
			"name": d.Name,
			"op":   string(d.Op),
			"args": append([]string{}, d.Args...),
		})
	}
	return nil, fmt.Errorf("unknown definition type: %T", def)
}

type wireOperand struct {
	Kind  string `json:"kind"`
	Type  string `json:"type,omitempty"`
	Value string `json:"value,omitempty"`
}

type wireDefinition struct {
	Kind      string       `json:"kind"`
	Name      string       `json:"name"`
	Attribute string       `json:"attribute,omitempty"`
	Op        string       `json:"op"`
	Left      string       `json:"left,omitempty"`
	Right     *wireOperand `json:"right,omitempty"`
	Args      []string     `json:"args,omitempty"`
}

// UnmarshalDefinition decodes the output of MarshalDefinition.
func UnmarshalDefinition(data []byte) (Definition, error) {
	var w wireDefinition
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("decode definition: %w", err)
	}

	switch DefinitionKind(w.Kind) {
	case KindSimple:
		op, err := ParseRelOp(w.Op)
		if err != nil {
			return nil, fmt.Errorf("decode definition %q: %w", w.Name, err)
		}
		left, err := ParseVar(w.Left)
		if err != nil {
			return nil, fmt.Errorf("decode definition %q: %w", w.Name, err)
		}
		sp := SimplePredicate{Name: w.Name, Attribute: w.Attribute, Op: op, Left: left, Right: OtherVariable()}
		if w.Right != nil && w.Right.Kind == "const" {
			vt, err := ParseValueType(w.Right.Type)
			if err != nil {
				return nil, fmt.Errorf("decode definition %q: %w", w.Name, err)
			}
			v, err := ParseConstant(vt, w.Right.Value)
			if err != nil {
				return nil, fmt.Errorf("decode definition %q: %w", w.Name, err)
			}
			sp.Right = Constant(v)
		}
		return sp, nil

	case KindCompound:
		op, err := ParseLogicOp(w.Op)
		if err != nil {
			return nil, fmt.Errorf("decode definition %q: %w", w.Name, err)
		}
		return CompoundPredicate{Name: w.Name, Op: op, Args: w.Args}, nil
	}

	return nil, fmt.Errorf("decode definition %q: unknown kind %q", w.Name, w.Kind)
}

// encodeValueText is Text() except for timestamps, which keep their full
// precision and zone.
func encodeValueText(v Value) string {
	if ts, ok := v.(Timestamp); ok {
		return ts.Format(time.RFC3339Nano)
	}
	return v.Text()
}

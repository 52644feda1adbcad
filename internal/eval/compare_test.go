package eval

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/quantq/internal/ir"
)

func TestCompare(t *testing.T) {
	day := func(d int) ir.Value {
		return ir.NewTimestamp(time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC))
	}

	tests := []struct {
		name string
		op   ir.RelOp
		a, b ir.Value
		want bool
	}{
		{"int less", ir.OpLess, ir.Int(1), ir.Int(2), true},
		{"int equal", ir.OpEqual, ir.Int(2), ir.Int(2), true},
		{"int not equal", ir.OpNotEqual, ir.Int(2), ir.Int(2), false},
		{"int ge", ir.OpGreaterEq, ir.Int(2), ir.Int(2), true},
		{"int le", ir.OpLessEq, ir.Int(3), ir.Int(2), false},
		{"int vs float", ir.OpEqual, ir.Int(2), ir.Float(2), true},
		{"float vs int", ir.OpGreater, ir.Float(2.5), ir.Int(2), true},
		{"bool order", ir.OpLess, ir.Bool(false), ir.Bool(true), true},
		{"text order", ir.OpGreater, ir.Text("b"), ir.Text("a"), true},
		{"text equality is case-sensitive", ir.OpEqual, ir.Text("A"), ir.Text("a"), false},
		{"timestamps", ir.OpLess, day(1), day(2), true},
		{"contains", ir.OpContains, ir.Text("ACME Corp"), ir.Text("acme"), true},
		{"contains missing", ir.OpContains, ir.Text("ACME Corp"), ir.Text("inc"), false},
		{"starts with", ir.OpStartsWith, ir.Text("Madrid"), ir.Text("MAD"), true},
		{"ends with", ir.OpEndsWith, ir.Text("Madrid"), ir.Text("RID"), true},
		{"contains on numbers", ir.OpContains, ir.Int(12345), ir.Int(234), true},
		{"type mismatch", ir.OpEqual, ir.Text("1"), ir.Int(1), false},
		{"type mismatch not equal", ir.OpNotEqual, ir.Text("1"), ir.Int(1), false},
		{"nil left", ir.OpEqual, nil, ir.Int(1), false},
		{"nil right not equal", ir.OpNotEqual, ir.Int(1), nil, false},
		{"NaN", ir.OpNotEqual, ir.Float(math.NaN()), ir.Float(1), false},
		{"unknown operator", ir.RelOp("~"), ir.Int(1), ir.Int(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.op, tt.a, tt.b))
		})
	}
}

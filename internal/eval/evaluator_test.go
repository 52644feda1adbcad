package eval

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/relation"
	"github.com/roach88/quantq/internal/testutil"
)

// dataset: r1{v=5,name=Apple} r2{v=10,name=Banana} r3{name=Cherry}, v
// missing on r3.
func dataset(t *testing.T) *relation.Table {
	t.Helper()
	return testutil.Table(t, "id",
		[]relation.Column{
			{Name: "id", Type: ir.TypeText},
			{Name: "v", Type: ir.TypeInt},
			{Name: "name", Type: ir.TypeText},
		},
		map[string]ir.Value{"id": ir.Text("r1"), "v": ir.Int(5), "name": ir.Text("Apple")},
		map[string]ir.Value{"id": ir.Text("r2"), "v": ir.Int(10), "name": ir.Text("Banana")},
		map[string]ir.Value{"id": ir.Text("r3"), "name": ir.Text("Cherry")},
	)
}

func TestEvaluate_Simple(t *testing.T) {
	reg := testutil.Registry(t, testutil.Binary("lt", "v", ir.OpLess))
	ev := New(dataset(t), reg)

	got, err := ev.Evaluate("lt", ir.Bind("r1"), ir.Bind("r2"))
	require.NoError(t, err)
	assert.True(t, got)

	got, err = ev.Evaluate("lt", ir.Bind("r2"), ir.Bind("r1"))
	require.NoError(t, err)
	assert.False(t, got)
}

func TestEvaluate_LeftY(t *testing.T) {
	p := testutil.Binary("ylt", "v", ir.OpLess)
	p.Left = ir.VarY
	reg := testutil.Registry(t, p)
	ev := New(dataset(t), reg)

	// Y.v < X.v
	got, err := ev.Evaluate("ylt", ir.Bind("r2"), ir.Bind("r1"))
	require.NoError(t, err)
	assert.True(t, got)
}

func TestEvaluate_Constant(t *testing.T) {
	reg := testutil.Registry(t,
		testutil.Unary("big", "v", ir.OpGreater, ir.Int(7)),
		testutil.Unary("hasAn", "name", ir.OpContains, ir.Text("AN")),
	)
	ev := New(dataset(t), reg)

	got, _ := ev.Evaluate("big", ir.Bind("r2"), ir.Unbound)
	assert.True(t, got)
	got, _ = ev.Evaluate("big", ir.Bind("r1"), ir.Bind("r2"))
	assert.False(t, got, "Y is ignored by a unary predicate")
	got, _ = ev.Evaluate("hasAn", ir.Bind("r2"), ir.Unbound)
	assert.True(t, got)
}

// TestEvaluate_UndefinedIsFalse covers unbound arguments, missing cells and
// unknown rows: none of them is an error.
func TestEvaluate_UndefinedIsFalse(t *testing.T) {
	reg := testutil.Registry(t,
		testutil.Binary("lt", "v", ir.OpLess),
		testutil.Binary("ne", "v", ir.OpNotEqual),
	)
	ev := New(dataset(t), reg)

	cases := []struct {
		name string
		x, y ir.Arg
	}{
		{"both unbound", ir.Unbound, ir.Unbound},
		{"y unbound", ir.Bind("r1"), ir.Unbound},
		{"x unbound", ir.Unbound, ir.Bind("r1")},
		{"missing cell", ir.Bind("r3"), ir.Bind("r1")},
		{"unknown row", ir.Bind("zz"), ir.Bind("r1")},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			for _, name := range []string{"lt", "ne"} {
				got, err := ev.Evaluate(name, tc.x, tc.y)
				require.NoError(t, err)
				assert.False(t, got, name)
			}
		})
	}
}

func TestEvaluate_Compound(t *testing.T) {
	reg := testutil.Registry(t,
		testutil.Binary("lt", "v", ir.OpLess),
		testutil.Binary("gt", "v", ir.OpGreater),
		testutil.Compound("NLT", ir.LogicNot, "lt"),
		testutil.Compound("NNLT", ir.LogicNot, "NLT"),
		testutil.Compound("NEQ", ir.LogicOr, "lt", "gt"),
		testutil.Compound("NONE", ir.LogicAnd, "lt", "gt"),
		testutil.Compound("ONE", ir.LogicXor, "lt", "gt"),
		testutil.Compound("TAUT", ir.LogicImplies, "lt"),
	)
	ev := New(dataset(t), reg)

	pairs := [][2]ir.RowID{{"r1", "r2"}, {"r2", "r1"}, {"r1", "r1"}}
	for _, p := range pairs {
		x, y := ir.Bind(p[0]), ir.Bind(p[1])
		lt, _ := ev.Evaluate("lt", x, y)
		gt, _ := ev.Evaluate("gt", x, y)

		eval := func(name string) bool {
			v, err := ev.Evaluate(name, x, y)
			require.NoError(t, err)
			return v
		}
		assert.Equal(t, !lt, eval("NLT"))
		assert.Equal(t, lt, eval("NNLT"), "double negation")
		assert.Equal(t, lt || gt, eval("NEQ"))
		assert.Equal(t, lt && gt, eval("NONE"))
		assert.Equal(t, lt != gt, eval("ONE"))
		assert.True(t, eval("TAUT"))
	}
}

func TestEvaluate_UnknownPredicate(t *testing.T) {
	ev := New(dataset(t), testutil.Registry(t))

	_, err := ev.Evaluate("nope", ir.Unbound, ir.Unbound)
	assert.True(t, ir.IsUnknownPredicate(err))

	_, err = ev.Resolve("nope")
	assert.True(t, ir.IsUnknownPredicate(err))
}

func TestEvaluateDefinition_BadArity(t *testing.T) {
	ev := New(dataset(t), testutil.Registry(t, testutil.Binary("lt", "v", ir.OpLess)))

	_, err := ev.EvaluateDefinition(testutil.Compound("X", ir.LogicAnd, "lt"), ir.Unbound, ir.Unbound)
	assert.Equal(t, ir.ErrCodeInvalidDefinition, ir.CodeOf(err))
}

func TestTruthTables(t *testing.T) {
	for _, a := range []bool{false, true} {
		for _, b := range []bool{false, true} {
			assert.Equal(t, !a || b, Implies(a, b), "IMPLIES(%v,%v)", a, b)
			assert.Equal(t, a == b, Biconditional(a, b), "BICONDITIONAL(%v,%v)", a, b)
			assert.Equal(t, a != b, Xor(a, b), "XOR(%v,%v)", a, b)

			assert.Equal(t, !a, Combine(ir.LogicNot, a, b))
			assert.Equal(t, a && b, Combine(ir.LogicAnd, a, b))
			assert.Equal(t, a || b, Combine(ir.LogicOr, a, b))
			assert.Equal(t, Implies(a, b), Combine(ir.LogicImplies, a, b))
			assert.Equal(t, Xor(a, b), Combine(ir.LogicXor, a, b))
			assert.Equal(t, Biconditional(a, b), Combine(ir.LogicBiconditional, a, b))
		}
	}
	assert.False(t, Combine(ir.LogicOp("NAND"), true, true))
}

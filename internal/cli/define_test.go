package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
)

func TestDefineSimple(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "define", "simple", "cheaper", "--attr", "price", "--op", "<", "--var")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered cheaper(X,Y): X.price < Y.price")

	resp, err := env.runJSON(t, "define", "simple", "pricey", "--attr", "price", "--op", ">", "--const", "10")
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)

	var view DefinitionView
	resp.decode(t, &view)
	assert.Equal(t, DefinitionView{Name: "pricey", Kind: ir.KindSimple, Caption: "pricey(X): X.price > 10"}, view)
}

func TestDefineSimpleLeftY(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "define", "simple", "food", "--attr", "category", "--op", "=", "--left", "Y", "--const", "food")
	require.NoError(t, err)
	assert.Contains(t, out, `food(Y): Y.category = "food"`)
}

func TestDefineErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		code string
	}{
		{"unknown operator", []string{"define", "simple", "p", "--attr", "price", "--op", "~"}, ErrCodeCommand},
		{"unknown variable", []string{"define", "simple", "p", "--attr", "price", "--op", "<", "--left", "Z"}, ErrCodeCommand},
		{"unknown attribute", []string{"define", "simple", "p", "--attr", "weight", "--op", "<"}, string(ir.ErrCodeInvalidDefinition)},
		{"incompatible constant", []string{"define", "simple", "p", "--attr", "price", "--op", ">", "--const", "cheap"}, string(ir.ErrCodeIncompatibleConstant)},
		{"unknown argument", []string{"define", "compound", "q", "--op", "NOT", "missing"}, string(ir.ErrCodeUnknownPredicate)},
		{"unknown logic operator", []string{"define", "compound", "q", "--op", "NAND", "a", "b"}, ErrCodeCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			resp, err := env.runJSON(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
			assert.Equal(t, "error", resp.Status)
			require.NotNil(t, resp.Error)
			assert.Equal(t, tt.code, resp.Error.Code)
		})
	}
}

func TestDefineDuplicateAcrossInvocations(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "cheaper", "--attr", "price", "--op", "<")
	require.NoError(t, err)

	resp, err := env.runJSON(t, "define", "simple", "cheaper", "--attr", "price", "--op", ">")
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(ir.ErrCodeDuplicateName), resp.Error.Code)
}

func TestDefineSimpleNeedsData(t *testing.T) {
	env := newTestEnv(t)

	out, err := execute(t, "--db", env.db, "define", "simple", "p", "--attr", "price", "--op", "<")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "[E_DATASET]")
	assert.Contains(t, out, "Hint: pass --data <file.csv>")
}

func TestDefineVarAndConstExclusive(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "p", "--attr", "price", "--op", "<", "--var", "--const", "3")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestCompoundRenameRemove(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "cheaper", "--attr", "price", "--op", "<")
	require.NoError(t, err)

	// Registry commands work without a dataset.
	out, err := execute(t, "--db", env.db, "define", "compound", "not_cheaper", "--op", "NOT", "Cheaper")
	require.NoError(t, err)
	assert.Contains(t, out, "Registered not_cheaper: NOT(cheaper)")

	resp, err := env.runJSON(t, "remove", "cheaper")
	require.Error(t, err)
	require.NotNil(t, resp.Error)
	assert.Equal(t, string(ir.ErrCodeInUse), resp.Error.Code)

	out, err = env.run(t, "rename", "cheaper", "lt")
	require.NoError(t, err)
	assert.Contains(t, out, "Renamed cheaper to lt")

	resp, err = env.runJSON(t, "list")
	require.NoError(t, err)
	var views []DefinitionView
	resp.decode(t, &views)
	assert.Equal(t, []DefinitionView{
		{Name: "lt", Kind: ir.KindSimple, Caption: "lt(X,Y): X.price < Y.price", Dependents: []string{"not_cheaper"}},
		{Name: "not_cheaper", Kind: ir.KindCompound, Caption: "not_cheaper: NOT(lt)"},
	}, views)

	out, err = env.run(t, "remove", "not_cheaper")
	require.NoError(t, err)
	assert.Contains(t, out, "Removed not_cheaper")

	out, err = env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "lt(X,Y): X.price < Y.price")
	assert.NotContains(t, out, "not_cheaper")
}

func TestRenameErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "a", "--attr", "price", "--op", "<")
	require.NoError(t, err)
	_, err = env.run(t, "define", "simple", "b", "--attr", "price", "--op", ">")
	require.NoError(t, err)

	resp, err := env.runJSON(t, "rename", "a", "b")
	require.Error(t, err)
	assert.Equal(t, string(ir.ErrCodeDuplicateName), resp.Error.Code)

	resp, err = env.runJSON(t, "rename", "missing", "c")
	require.Error(t, err)
	assert.Equal(t, string(ir.ErrCodeUnknownPredicate), resp.Error.Code)
}

func TestListEmpty(t *testing.T) {
	env := newTestEnv(t)

	out, err := env.run(t, "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No predicates registered.")

	resp, err := env.runJSON(t, "list")
	require.NoError(t, err)
	var views []DefinitionView
	resp.decode(t, &views)
	assert.Empty(t, views)
}

func TestEval(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "cheaper", "--attr", "price", "--op", "<")
	require.NoError(t, err)

	out, err := env.run(t, "eval", "cheaper", "--x", "a", "--y", "b")
	require.NoError(t, err)
	assert.Contains(t, out, "cheaper(X=a, Y=b) = true")

	resp, err := env.runJSON(t, "eval", "CHEAPER", "--x", "b", "--y", "a")
	require.NoError(t, err)
	var result EvalResult
	resp.decode(t, &result)
	assert.Equal(t, EvalResult{Formula: "CHEAPER", X: "b", Y: "a", Value: false}, result)

	// An unbound Y makes the comparison false.
	out, err = env.run(t, "eval", "cheaper", "--x", "a")
	require.NoError(t, err)
	assert.Contains(t, out, "cheaper(X=a, Y=_) = false")
}

func TestEvalErrors(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.run(t, "define", "simple", "cheaper", "--attr", "price", "--op", "<")
	require.NoError(t, err)

	resp, err := env.runJSON(t, "eval", "cheaper", "--x", "zz")
	require.Error(t, err)
	assert.Equal(t, ErrCodeUnknownRow, resp.Error.Code)
	assert.Contains(t, resp.Error.Details, "hint")

	resp, err = env.runJSON(t, "eval", "missing", "--x", "a")
	require.Error(t, err)
	assert.Equal(t, string(ir.ErrCodeUnknownPredicate), resp.Error.Code)
}

package harness

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestScenario(t *testing.T, name string) *Scenario {
	t.Helper()
	s, err := LoadScenario(filepath.Join("testdata", "scenarios", name+".yaml"))
	require.NoError(t, err)
	return s
}

func parse(t *testing.T, src string) *Scenario {
	t.Helper()
	s, err := ParseScenario([]byte(src), "")
	require.NoError(t, err)
	return s
}

const threeRows = `
dataset:
  id_column: id
  rows:
    - {id: r1, v: 5}
    - {id: r2, v: 10}
    - {id: r3, v: 15}
`

func TestRun_Golden(t *testing.T) {
	for _, name := range []string{"ordering", "shop"} {
		t.Run(name, func(t *testing.T) {
			result, err := RunWithGolden(t, loadTestScenario(t, name))
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestRun_ExpectationMismatch(t *testing.T) {
	s := parse(t, `
name: mismatch
description: wrong expectations are reported, not fatal
`+threeRows+`
steps:
  - define: {name: p, attribute: v, op: "<"}
  - query: {formula: p, qx: forall, qy: exists}
    expect: {outcome: holds, counterexamples: []}
  - eval: {formula: p, x: r2, y: r1}
    expect: {value: true}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 3)
	assert.Contains(t, result.Errors[0], "outcome: expected holds, got fails")
	assert.Contains(t, result.Errors[1], "counterexamples")
	assert.Contains(t, result.Errors[2], "value: expected true, got false")
}

func TestRun_UnexpectedError(t *testing.T) {
	s := parse(t, `
name: unexpected
description: an undeclared failure fails the scenario
`+threeRows+`
steps:
  - query: {formula: missing, qx: forall, qy: forall}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Trace, 1)
	assert.Equal(t, "error UNKNOWN_PREDICATE", result.Trace[0].Summary)
	assert.Contains(t, result.Errors[0], "unexpected error")
}

func TestRun_ExpectedErrorMissing(t *testing.T) {
	s := parse(t, `
name: no-error
description: an expected error that does not happen fails the scenario
`+threeRows+`
steps:
  - define: {name: p, attribute: v, op: "<"}
    expect_error: DUPLICATE_NAME
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error DUPLICATE_NAME")
}

func TestRun_WrongErrorCode(t *testing.T) {
	s := parse(t, `
name: wrong-code
description: the error code must match
`+threeRows+`
steps:
  - define: {name: p, attribute: missing, op: "<"}
    expect_error: DUPLICATE_NAME
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	assert.Contains(t, result.Errors[0], "expected error DUPLICATE_NAME")
	assert.Equal(t, "error INVALID_DEFINITION", result.Trace[0].Summary)
}

func TestRun_Truncation(t *testing.T) {
	s := parse(t, `
name: truncation
description: matrices are capped
`+threeRows+`
steps:
  - define: {name: p, attribute: v, op: "<"}
  - matrix: {formula: p}
    expect: {rows: ["01", "00"], truncated: true}
`)

	result, err := Run(s, WithMaxMatrixSize(2))
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
	assert.Equal(t, "2x2, 1 true, truncated from 3", result.Trace[1].Summary)
}

func TestRun_ConstantsAndUnaryForms(t *testing.T) {
	s := parse(t, `
name: constants
description: constants convert to the attribute type
`+threeRows+`
steps:
  - define: {name: big, attribute: v, op: ">=", const: "10.0"}
    expect: {caption: "big(X): X.v >= 10"}
  - define: {name: small, attribute: v, op: "<", left: "Y", const: 10}
    expect: {caption: "small(Y): Y.v < 10"}
  - define: {name: bad, attribute: v, op: ">", const: "lots"}
    expect_error: INCOMPATIBLE_CONSTANT
  - query: {formula: big, qx: forall, qy: none}
    expect: {outcome: fails, counterexamples: [{x: r1}]}
  - query: {formula: small, qx: none, qy: exists}
    expect: {outcome: holds, witnesses: [{y: r1}]}
  - query: {formula: small, qx: none, qy: forall}
    expect: {outcome: fails, failures: 2}
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_JournalReplayAssertion(t *testing.T) {
	s := parse(t, `
name: replay
description: renames and removals replay
`+threeRows+`
steps:
  - define: {name: p, attribute: v, op: "<"}
  - compound: {name: Q, op: NOT, args: [p]}
  - compound: {name: R, op: IMPLIES, args: [q]}
    expect: {caption: "R: IMPLIES(Q)"}
  - rename: {from: P, to: lt}
  - remove: {name: r}
assertions:
  - type: registered
    names: [lt, Q]
  - type: caption
    name: q
    caption: "Q: NOT(lt)"
  - type: journal_replay
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.True(t, result.Pass, "errors: %v", result.Errors)
}

func TestRun_FailingAssertion(t *testing.T) {
	s := parse(t, `
name: failing-assertion
description: assertion failures carry the trace
`+threeRows+`
steps:
  - define: {name: p, attribute: v, op: "<"}
assertions:
  - type: registered
    names: [p, q]
`)

	result, err := Run(s)
	require.NoError(t, err)
	assert.False(t, result.Pass)
	require.Len(t, result.Errors, 1)
	assert.True(t, strings.HasPrefix(result.Errors[0], "Assertion failed: registered"))
	assert.Contains(t, result.Errors[0], "[1] define p: p(X,Y): X.v < Y.v")
}

func TestRun_BadDataset(t *testing.T) {
	s := parse(t, `
name: bad-dataset
description: duplicate ids are a setup failure
dataset:
  id_column: id
  rows:
    - {id: r1, v: 5}
    - {id: r1, v: 6}
steps:
  - eval: {formula: p}
`)

	_, err := Run(s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to load dataset")
}

func TestRenderTrace_Failure(t *testing.T) {
	result := NewResult()
	result.AddTrace(TraceEvent{Step: 1, Op: "eval", Target: "p(r1, r2)", Summary: "false"})
	result.AddError("step 1 (eval p(r1, r2)): value: expected true, got false")

	want := "scenario: s\n" +
		"[1] eval p(r1, r2): false\n" +
		"result: fail\n" +
		"  - step 1 (eval p(r1, r2)): value: expected true, got false\n"
	assert.Equal(t, want, string(RenderTrace("s", result)))
}

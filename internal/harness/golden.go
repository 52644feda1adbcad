package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// RenderTrace renders a result as the text stored in golden files:
//
//	scenario: ordering
//	[1] define p: p(X,Y): X.v < Y.v
//	[2] query ∀X ∃Y p: fails (report-0001)
//	    ∀X ∃Y p does not hold: 1 X without a satisfying Y
//	result: pass
//
// Step 0 is the CUE library, when the scenario has one.
func RenderTrace(scenarioName string, result *Result) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "scenario: %s\n", scenarioName)
	for _, event := range result.Trace {
		fmt.Fprintf(&b, "[%d] %s %s: %s\n", event.Step, event.Op, event.Target, event.Summary)
		for _, line := range event.Detail {
			fmt.Fprintf(&b, "    %s\n", line)
		}
	}
	if result.Pass {
		b.WriteString("result: pass\n")
	} else {
		b.WriteString("result: fail\n")
		for _, e := range result.Errors {
			fmt.Fprintf(&b, "  - %s\n", strings.TrimRight(e, "\n"))
		}
	}
	return []byte(b.String())
}

// RunWithGolden executes a scenario and compares the trace against a golden
// file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario, opts ...Option) (*Result, error) {
	t.Helper()

	result, err := Run(scenario, opts...)
	if err != nil {
		return nil, err
	}
	AssertGolden(t, scenario.Name, result)
	return result, nil
}

// AssertGolden compares an already computed result against its golden file.
func AssertGolden(t *testing.T, scenarioName string, result *Result) {
	t.Helper()

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, RenderTrace(scenarioName, result))
}

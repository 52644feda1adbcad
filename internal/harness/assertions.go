package harness

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/roach88/quantq/internal/engine"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/store"
)

// AssertionError is returned when an assertion fails.
// It includes the step trace to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Full trace for debugging context
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	fmt.Fprintf(&buf, "\nFull trace:\n")
	for _, event := range e.Trace {
		fmt.Fprintf(&buf, "  [%d] %s %s: %s\n", event.Step, event.Op, event.Target, event.Summary)
	}

	return buf.String()
}

// AssertionContext provides the session and workspace for assertions.
type AssertionContext struct {
	Session *engine.Session
	Store   *store.Store
	Ctx     context.Context
}

// assertRegistered checks the registry holds exactly the expected names in
// registration order.
func assertRegistered(trace []TraceEvent, reg *registry.Registry, a Assertion) error {
	got := reg.Names()
	if slices.Equal(got, a.Names) {
		return nil
	}
	return &AssertionError{
		Type:     AssertRegistered,
		Expected: fmt.Sprintf("%v", a.Names),
		Actual:   fmt.Sprintf("%v", got),
		Trace:    trace,
	}
}

// assertCaption checks the caption of one entry.
func assertCaption(trace []TraceEvent, sess *engine.Session, a Assertion) error {
	got, err := sess.Describe(a.Name)
	if err != nil {
		got = "error " + string(ir.CodeOf(err))
	}
	if got == a.Caption {
		return nil
	}
	return &AssertionError{
		Type:     AssertCaption,
		Expected: a.Caption,
		Actual:   got,
		Trace:    trace,
	}
}

// assertJournalReplay rebuilds a registry from the workspace journal and
// compares it with the session's.
func assertJournalReplay(ctx context.Context, trace []TraceEvent, actx *AssertionContext) error {
	rebuilt := registry.New()
	if _, err := actx.Store.Replay(ctx, rebuilt); err != nil {
		return &AssertionError{
			Type:     AssertJournalReplay,
			Expected: "journal replays cleanly",
			Actual:   err.Error(),
			Trace:    trace,
		}
	}

	want := captions(actx.Session.Registry().Definitions())
	got := captions(rebuilt.Definitions())
	if slices.Equal(want, got) {
		return nil
	}
	return &AssertionError{
		Type:     AssertJournalReplay,
		Expected: strings.Join(want, "; "),
		Actual:   strings.Join(got, "; "),
		Trace:    trace,
	}
}

func captions(defs []ir.Definition) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = registry.Caption(d)
	}
	return out
}

// EvaluateAssertions evaluates all assertions against the result.
// Returns a slice of error messages for failed assertions.
func EvaluateAssertions(result *Result, assertions []Assertion, actx *AssertionContext) []string {
	var errs []string

	for i, assertion := range assertions {
		var err error

		switch {
		case actx == nil || actx.Session == nil:
			err = fmt.Errorf("assertion[%d]: %s requires a session", i, assertion.Type)
		case assertion.Type == AssertRegistered:
			err = assertRegistered(result.Trace, actx.Session.Registry(), assertion)
		case assertion.Type == AssertCaption:
			err = assertCaption(result.Trace, actx.Session, assertion)
		case assertion.Type == AssertJournalReplay:
			if actx.Store == nil {
				err = fmt.Errorf("assertion[%d]: journal_replay requires a workspace", i)
			} else {
				err = assertJournalReplay(actx.Ctx, result.Trace, actx)
			}
		default:
			err = fmt.Errorf("assertion[%d]: unknown assertion type %q", i, assertion.Type)
		}

		if err != nil {
			errs = append(errs, err.Error())
		}
	}

	return errs
}

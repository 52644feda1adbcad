package harness

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/compiler"
	"github.com/roach88/quantq/internal/engine"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/matrix"
	"github.com/roach88/quantq/internal/quant"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/relation"
	"github.com/roach88/quantq/internal/store"
	"github.com/roach88/quantq/internal/testutil"
)

// Harness executes one scenario against a session journaled to an
// in-memory workspace.
type Harness struct {
	session *engine.Session
	store   *store.Store
	logger  *zap.Logger
}

// Option configures a scenario run.
type Option func(*runConfig)

type runConfig struct {
	logger  *zap.Logger
	maxSize int
}

// WithLogger sets the logger handed to the session and the workspace.
func WithLogger(l *zap.Logger) Option {
	return func(c *runConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMaxMatrixSize caps truth matrix generation.
func WithMaxMatrixSize(n int) Option {
	return func(c *runConfig) { c.maxSize = n }
}

// Run executes a scenario and returns the result.
//
// Each scenario runs in a fresh in-memory workspace for isolation. Report
// IDs are sequential (report-0001, ...) so traces are reproducible.
//
// Execution flow:
// 1. Load the dataset
// 2. Register the CUE library, if any
// 3. Execute steps, validating expect clauses
// 4. Evaluate assertions
//
// Errors returned by Run are setup failures; step and assertion failures are
// recorded in the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := runConfig{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	data, err := loadDataset(scenario.Dataset)
	if err != nil {
		return nil, fmt.Errorf("failed to load dataset: %w", err)
	}

	st, err := store.Open(":memory:",
		store.WithIDGenerator(testutil.NewSequenceIDs("report")),
		store.WithLogger(cfg.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory workspace: %w", err)
	}
	defer st.Close()

	sessOpts := []engine.Option{engine.WithJournal(st), engine.WithLogger(cfg.logger)}
	if cfg.maxSize > 0 {
		sessOpts = append(sessOpts, engine.WithMaxMatrixSize(cfg.maxSize))
	}
	h := &Harness{
		session: engine.New(data, sessOpts...),
		store:   st,
		logger:  cfg.logger,
	}

	ctx := context.Background()
	result := NewResult()

	if scenario.Library != "" {
		if err := h.loadLibrary(ctx, scenario.Library, result); err != nil {
			return nil, fmt.Errorf("failed to load library: %w", err)
		}
	}

	for i, step := range scenario.Steps {
		h.executeStep(ctx, i+1, step, result)
	}

	actx := &AssertionContext{
		Session: h.session,
		Store:   st,
		Ctx:     ctx,
	}
	for _, msg := range EvaluateAssertions(result, scenario.Assertions, actx) {
		result.AddError(msg)
	}

	h.logger.Debug("scenario finished",
		zap.String("scenario", scenario.Name),
		zap.Bool("pass", result.Pass),
		zap.Int("errors", len(result.Errors)))
	return result, nil
}

func loadDataset(spec DatasetSpec) (*relation.Table, error) {
	opts := relation.LoadOptions{IDColumn: spec.IDColumn, DateColumns: spec.DateColumns}
	if spec.CSV != "" {
		return relation.LoadCSVFile(spec.CSV, opts)
	}
	return relation.FromRecords(spec.IDColumn, nil, spec.Rows, opts)
}

// loadLibrary registers a compiled CUE library as step 0 of the trace.
func (h *Harness) loadLibrary(ctx context.Context, path string, result *Result) error {
	defs, err := compiler.LoadLibrary(path)
	if err != nil {
		return err
	}
	if err := h.session.RegisterAll(ctx, defs); err != nil {
		return err
	}

	event := TraceEvent{
		Op:      "library",
		Target:  filepath.Base(path),
		Summary: fmt.Sprintf("%d definitions", len(defs)),
	}
	for _, def := range defs {
		event.Detail = append(event.Detail, registry.Caption(def))
	}
	result.AddTrace(event)
	return nil
}

// executeStep runs one step, records its trace event and validates it.
func (h *Harness) executeStep(ctx context.Context, n int, step Step, result *Result) {
	var (
		event TraceEvent
		check func(*Expect) []string
		err   error
	)
	switch {
	case step.Define != nil:
		event, check, err = h.define(ctx, step.Define)
	case step.Compound != nil:
		event, check, err = h.compound(ctx, step.Compound)
	case step.Rename != nil:
		event, err = h.rename(ctx, step.Rename)
	case step.Remove != nil:
		event, err = h.remove(ctx, step.Remove)
	case step.Eval != nil:
		event, check, err = h.eval(step.Eval)
	case step.Query != nil:
		event, check, err = h.query(ctx, step.Query)
	case step.Matrix != nil:
		event, check, err = h.matrix(ctx, step.Matrix)
	}
	event.Step = n

	prefix := fmt.Sprintf("step %d (%s %s)", n, event.Op, event.Target)
	switch {
	case err != nil:
		code := ir.CodeOf(err)
		if code != "" {
			event.Summary = "error " + string(code)
		} else {
			event.Summary = "error: " + err.Error()
		}
		event.Detail = nil
		if step.ExpectError == "" {
			result.AddError(fmt.Sprintf("%s: unexpected error: %v", prefix, err))
		} else if string(code) != step.ExpectError {
			result.AddError(fmt.Sprintf("%s: expected error %s, got %v", prefix, step.ExpectError, err))
		}
	case step.ExpectError != "":
		result.AddError(fmt.Sprintf("%s: expected error %s, got %s", prefix, step.ExpectError, event.Summary))
	case step.Expect != nil:
		if check == nil {
			result.AddError(fmt.Sprintf("%s: expect is not supported for this operation", prefix))
			break
		}
		for _, msg := range check(step.Expect) {
			result.AddError(prefix + ": " + msg)
		}
	}
	result.AddTrace(event)
}

func (h *Harness) define(ctx context.Context, d *DefineStep) (TraceEvent, func(*Expect) []string, error) {
	event := TraceEvent{Op: "define", Target: d.Name}

	op, err := ir.ParseRelOp(d.Op)
	if err != nil {
		return event, nil, err
	}
	left := ir.VarX
	if d.Left != "" {
		if left, err = ir.ParseVar(d.Left); err != nil {
			return event, nil, err
		}
	}
	right := engine.OtherVariable()
	if d.Const != nil {
		right = engine.ConstantOperand(fmt.Sprint(d.Const))
	}

	def, err := h.session.RegisterSimple(ctx, d.Name, d.Attribute, op, left, right)
	if err != nil {
		return event, nil, err
	}
	event.Summary = registry.Caption(def)
	return event, checkCaption(event.Summary), nil
}

func (h *Harness) compound(ctx context.Context, c *CompoundStep) (TraceEvent, func(*Expect) []string, error) {
	event := TraceEvent{Op: "compound", Target: c.Name}

	op, err := ir.ParseLogicOp(c.Op)
	if err != nil {
		return event, nil, err
	}
	def, err := h.session.RegisterCompound(ctx, c.Name, op, c.Args...)
	if err != nil {
		return event, nil, err
	}
	event.Summary = registry.Caption(def)
	return event, checkCaption(event.Summary), nil
}

func checkCaption(got string) func(*Expect) []string {
	return func(e *Expect) []string {
		if e.Caption != "" && e.Caption != got {
			return []string{fmt.Sprintf("caption: expected %q, got %q", e.Caption, got)}
		}
		return nil
	}
}

func (h *Harness) rename(ctx context.Context, r *RenameStep) (TraceEvent, error) {
	event := TraceEvent{Op: "rename", Target: r.From + " -> " + r.To, Summary: "renamed"}
	return event, h.session.Rename(ctx, r.From, r.To)
}

func (h *Harness) remove(ctx context.Context, r *RemoveStep) (TraceEvent, error) {
	event := TraceEvent{Op: "remove", Target: r.Name, Summary: "removed"}
	return event, h.session.Remove(ctx, r.Name)
}

func (h *Harness) eval(e *EvalStep) (TraceEvent, func(*Expect) []string, error) {
	x, y := argOf(e.X), argOf(e.Y)
	event := TraceEvent{Op: "eval", Target: fmt.Sprintf("%s(%s, %s)", e.Formula, x, y)}

	v, err := h.session.Evaluate(e.Formula, x, y)
	if err != nil {
		return event, nil, err
	}
	event.Summary = fmt.Sprint(v)
	return event, func(want *Expect) []string {
		if want.Value != nil && *want.Value != v {
			return []string{fmt.Sprintf("value: expected %v, got %v", *want.Value, v)}
		}
		return nil
	}, nil
}

func argOf(id string) ir.Arg {
	if id == "" {
		return ir.Arg{}
	}
	return ir.Bind(ir.RowID(id))
}

func (h *Harness) query(ctx context.Context, q *QueryStep) (TraceEvent, func(*Expect) []string, error) {
	qx, _ := ir.ParseQuantifier(q.QX)
	qy, _ := ir.ParseQuantifier(q.QY)
	event := TraceEvent{Op: "query", Target: quant.Statement(q.Formula, qx, qy)}

	rep, err := h.session.ResolveQuantified(ctx, q.Formula, qx, qy)
	if err != nil {
		return event, nil, err
	}
	id, err := h.store.SaveReport(ctx, rep)
	if err != nil {
		return event, nil, err
	}

	event.Target = quant.Statement(rep.Formula, rep.QX, rep.QY)
	event.Summary = fmt.Sprintf("%s (%s)", rep.Outcome, id)
	event.Detail = reportLines(rep)
	return event, func(want *Expect) []string { return checkReport(want, rep) }, nil
}

// reportLines renders a report's message and rows for the trace.
func reportLines(rep *quant.Report) []string {
	lines := []string{rep.Message}
	if len(rep.Witnesses) > 0 {
		lines = append(lines, "witnesses: "+joinRows(rep.Witnesses))
	}
	if len(rep.Counterexamples) > 0 {
		lines = append(lines, rep.CounterexampleLabel+": "+joinRows(rep.Counterexamples))
	}
	if rep.Holds() && len(rep.Diagnostics) > 0 {
		lines = append(lines, "first X examined failed for: "+joinRows(rep.Diagnostics))
	}
	return lines
}

func joinRows(rows []quant.Row) string {
	parts := make([]string, len(rows))
	for i, r := range rows {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

func checkReport(want *Expect, rep *quant.Report) []string {
	var errs []string
	if want.Outcome != "" && want.Outcome != string(rep.Outcome) {
		errs = append(errs, fmt.Sprintf("outcome: expected %s, got %s (%s)", want.Outcome, rep.Outcome, rep.Message))
	}
	if want.Failures != nil && *want.Failures != rep.Failures {
		errs = append(errs, fmt.Sprintf("failures: expected %d, got %d", *want.Failures, rep.Failures))
	}
	if want.Message != "" && want.Message != rep.Message {
		errs = append(errs, fmt.Sprintf("message: expected %q, got %q", want.Message, rep.Message))
	}
	if want.Witnesses != nil && !rowsEqual(want.Witnesses, rep.Witnesses) {
		errs = append(errs, fmt.Sprintf("witnesses: expected %v, got %s", want.Witnesses, joinRows(rep.Witnesses)))
	}
	if want.Counterexamples != nil && !rowsEqual(want.Counterexamples, rep.Counterexamples) {
		errs = append(errs, fmt.Sprintf("counterexamples: expected %v, got %s", want.Counterexamples, joinRows(rep.Counterexamples)))
	}
	return errs
}

func rowsEqual(want []RowSpec, got []quant.Row) bool {
	return slices.EqualFunc(want, got, func(w RowSpec, g quant.Row) bool {
		return w.X == string(g.X) && w.Y == string(g.Y)
	})
}

func (h *Harness) matrix(ctx context.Context, m *MatrixStep) (TraceEvent, func(*Expect) []string, error) {
	event := TraceEvent{Op: "matrix", Target: m.Formula}

	var (
		tm  *matrix.TruthMatrix
		err error
	)
	if m.Op == "" {
		tm, err = h.session.GenerateMatrix(ctx, m.Formula)
	} else {
		op, perr := ir.ParseLogicOp(m.Op)
		if perr != nil {
			return event, nil, perr
		}
		event.Target = fmt.Sprintf("%s(%s)", op, strings.Join(m.Args, ", "))
		tm, err = h.session.ApplyMatrixOperator(ctx, op, m.Args...)
		if err == nil && m.SaveAs != "" {
			_, err = h.session.SaveAs(ctx, m.SaveAs, op, m.Args...)
		}
	}
	if err != nil {
		return event, nil, err
	}

	event.Target = tm.Label
	event.Summary = fmt.Sprintf("%dx%d, %d true", tm.Size(), tm.Size(), tm.Count())
	if tm.Truncated() {
		event.Summary += fmt.Sprintf(", truncated from %d", tm.OriginalSize)
	}
	event.Detail = strings.Split(strings.TrimSuffix(tm.String(), "\n"), "\n")
	if m.SaveAs != "" {
		event.Detail = append(event.Detail, "saved as "+m.SaveAs)
	}

	return event, func(want *Expect) []string {
		var errs []string
		if want.Rows != nil {
			if got := matrixRows(tm); !slices.Equal(want.Rows, got) {
				errs = append(errs, fmt.Sprintf("rows: expected %v, got %v", want.Rows, got))
			}
		}
		if want.Truncated != nil && *want.Truncated != tm.Truncated() {
			errs = append(errs, fmt.Sprintf("truncated: expected %v, got %v", *want.Truncated, tm.Truncated()))
		}
		return errs
	}, nil
}

// matrixRows renders each matrix row as a string of 0 and 1.
func matrixRows(m *matrix.TruthMatrix) []string {
	rows := make([]string, m.Size())
	for i, row := range m.Cells {
		var b strings.Builder
		for _, c := range row {
			if c {
				b.WriteByte('1')
			} else {
				b.WriteByte('0')
			}
		}
		rows[i] = b.String()
	}
	return rows
}

package quant

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/scan"
)

// Evaluator is the subset of eval.Evaluator the resolver needs.
type Evaluator interface {
	Resolve(name string) (string, error)
	Evaluate(name string, x, y ir.Arg) (bool, error)
}

// Resolver evaluates quantified statements over a fixed domain.
type Resolver struct {
	eval     Evaluator
	domain   []ir.RowID
	workers  int
	parallel bool
	logger   *zap.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithWorkers caps the goroutines used by full scans. n <= 0 means
// GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(r *Resolver) { r.workers = n }
}

// WithParallel enables or disables parallel full scans.
func WithParallel(enabled bool) Option {
	return func(r *Resolver) { r.parallel = enabled }
}

// WithLogger sets the resolver's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a Resolver over domain, iterated in the given order.
func NewResolver(ev Evaluator, domain []ir.RowID, opts ...Option) *Resolver {
	r := &Resolver{
		eval:     ev,
		domain:   append([]ir.RowID(nil), domain...),
		parallel: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.workers <= 0 {
		r.workers = runtime.GOMAXPROCS(0)
	}
	return r
}

type scanFunc func(ctx context.Context, r *Resolver, rep *Report) error

// scans is the closed set of supported quantifier combinations.
var scans = map[[2]ir.Quantifier]scanFunc{
	{ir.QuantForAll, ir.QuantExists}: scanForAllExists,
	{ir.QuantForAll, ir.QuantNone}:   scanForAllX,
	{ir.QuantExists, ir.QuantForAll}: scanExistsForAll,
	{ir.QuantExists, ir.QuantExists}: scanExistsExists,
	{ir.QuantExists, ir.QuantNone}:   scanExistsX,
	{ir.QuantNone, ir.QuantForAll}:   scanForAllY,
	{ir.QuantNone, ir.QuantExists}:   scanExistsY,
	{ir.QuantForAll, ir.QuantForAll}: scanForAllForAll,
	{ir.QuantNone, ir.QuantNone}:     scanEnumerate,
}

// Supported reports whether (qx, qy) is a supported combination.
func Supported(qx, qy ir.Quantifier) bool {
	_, ok := scans[[2]ir.Quantifier{qx, qy}]
	return ok
}

// Resolve evaluates formula under quantifiers qx (for X) and qy (for Y).
// Unsupported combinations and unknown names are rejected before any scan.
func (r *Resolver) Resolve(ctx context.Context, formula string, qx, qy ir.Quantifier) (*Report, error) {
	run, ok := scans[[2]ir.Quantifier{qx, qy}]
	if !ok {
		return nil, ir.NewUnsupportedQuantifiersError(qx, qy)
	}
	name, err := r.eval.Resolve(formula)
	if err != nil {
		return nil, err
	}

	rep := &Report{
		Formula:         name,
		QX:              qx,
		QY:              qy,
		DomainSize:      len(r.domain),
		Witnesses:       []Row{},
		Counterexamples: []Row{},
	}
	if err := run(ctx, r, rep); err != nil {
		return nil, err
	}
	rep.Failures = len(rep.Counterexamples)

	r.logger.Debug("resolved quantified statement",
		zap.String("statement", Statement(name, qx, qy)),
		zap.String("outcome", string(rep.Outcome)),
		zap.Int("witnesses", len(rep.Witnesses)),
		zap.Int("counterexamples", len(rep.Counterexamples)))
	return rep, nil
}

func (r *Resolver) holds(name string, x, y ir.Arg) (bool, error) {
	return r.eval.Evaluate(name, x, y)
}

func verdict(ok bool) Outcome {
	if ok {
		return OutcomeHolds
	}
	return OutcomeFails
}

// ∀X ∃Y: the first satisfying Y per X is its witness; an X with none is a
// counterexample.
func scanForAllExists(ctx context.Context, r *Resolver, rep *Report) error {
	for _, x := range r.domain {
		if err := ctx.Err(); err != nil {
			return err
		}
		found := false
		for _, y := range r.domain {
			ok, err := r.holds(rep.Formula, ir.Bind(x), ir.Bind(y))
			if err != nil {
				return err
			}
			if ok {
				rep.Witnesses = append(rep.Witnesses, Row{X: x, Y: y})
				found = true
				break
			}
		}
		if !found {
			rep.Counterexamples = append(rep.Counterexamples, Row{X: x})
		}
	}

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.CounterexampleLabel = "X without a satisfying Y"
	rep.Outcome = verdict(len(rep.Counterexamples) == 0)
	if rep.Holds() {
		rep.Message = stmt + " holds"
	} else {
		rep.Message = fmt.Sprintf("%s does not hold: %s without a satisfying Y", stmt, plural(len(rep.Counterexamples), "X"))
	}
	return nil
}

// ∀X (Y unbound).
func scanForAllX(ctx context.Context, r *Resolver, rep *Report) error {
	return scanUnaryForAll(ctx, r, rep, true)
}

// ∀Y (X unbound).
func scanForAllY(ctx context.Context, r *Resolver, rep *Report) error {
	return scanUnaryForAll(ctx, r, rep, false)
}

func scanUnaryForAll(ctx context.Context, r *Resolver, rep *Report, overX bool) error {
	for _, id := range r.domain {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y, row := unaryArgs(id, overX)
		ok, err := r.holds(rep.Formula, x, y)
		if err != nil {
			return err
		}
		if !ok {
			rep.Counterexamples = append(rep.Counterexamples, row)
		}
	}

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.CounterexampleLabel = "counterexample"
	rep.Outcome = verdict(len(rep.Counterexamples) == 0)
	if rep.Holds() {
		rep.Message = stmt + " holds"
	} else {
		rep.Message = fmt.Sprintf("%s does not hold: %s", stmt, plural(len(rep.Counterexamples), "counterexample"))
	}
	return nil
}

// ∃X (Y unbound).
func scanExistsX(ctx context.Context, r *Resolver, rep *Report) error {
	return scanUnaryExists(ctx, r, rep, true)
}

// ∃Y (X unbound).
func scanExistsY(ctx context.Context, r *Resolver, rep *Report) error {
	return scanUnaryExists(ctx, r, rep, false)
}

func scanUnaryExists(ctx context.Context, r *Resolver, rep *Report, overX bool) error {
	variable := "Y"
	if overX {
		variable = "X"
	}
	for _, id := range r.domain {
		if err := ctx.Err(); err != nil {
			return err
		}
		x, y, row := unaryArgs(id, overX)
		ok, err := r.holds(rep.Formula, x, y)
		if err != nil {
			return err
		}
		if ok {
			rep.Witnesses = append(rep.Witnesses, row)
			break
		}
	}

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.Outcome = verdict(len(rep.Witnesses) > 0)
	if rep.Holds() {
		rep.Message = fmt.Sprintf("%s holds: witness %s", stmt, rep.Witnesses[0])
	} else {
		rep.Message = fmt.Sprintf("%s does not hold: no %s satisfies it", stmt, variable)
	}
	return nil
}

func unaryArgs(id ir.RowID, overX bool) (ir.Arg, ir.Arg, Row) {
	if overX {
		return ir.Bind(id), ir.Unbound, Row{X: id}
	}
	return ir.Unbound, ir.Bind(id), Row{Y: id}
}

// ∃X ∀Y: the first X for which every Y holds is the witness. The first X
// examined is scanned completely so its failing Y set can be reported;
// later candidates stop at their first failing Y.
func scanExistsForAll(ctx context.Context, r *Resolver, rep *Report) error {
	var firstFailures []Row
	for i, x := range r.domain {
		if err := ctx.Err(); err != nil {
			return err
		}
		all := true
		for _, y := range r.domain {
			ok, err := r.holds(rep.Formula, ir.Bind(x), ir.Bind(y))
			if err != nil {
				return err
			}
			if ok {
				continue
			}
			all = false
			if i > 0 {
				break
			}
			firstFailures = append(firstFailures, Row{Y: y})
		}
		if all {
			rep.Witnesses = append(rep.Witnesses, Row{X: x})
			break
		}
	}

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.Diagnostics = firstFailures
	rep.CounterexampleLabel = "Y failing for the first X examined"
	rep.Outcome = verdict(len(rep.Witnesses) > 0)
	if rep.Holds() {
		rep.Message = fmt.Sprintf("%s holds: witness %s", stmt, rep.Witnesses[0])
	} else {
		rep.Counterexamples = append(rep.Counterexamples, firstFailures...)
		rep.Message = fmt.Sprintf("%s does not hold: no X satisfies it for every Y", stmt)
	}
	return nil
}

// ∃X ∃Y: row-major scan, first satisfying pair wins.
func scanExistsExists(ctx context.Context, r *Resolver, rep *Report) error {
outer:
	for _, x := range r.domain {
		if err := ctx.Err(); err != nil {
			return err
		}
		for _, y := range r.domain {
			ok, err := r.holds(rep.Formula, ir.Bind(x), ir.Bind(y))
			if err != nil {
				return err
			}
			if ok {
				rep.Witnesses = append(rep.Witnesses, Row{X: x, Y: y})
				break outer
			}
		}
	}

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.Outcome = verdict(len(rep.Witnesses) > 0)
	if rep.Holds() {
		rep.Message = fmt.Sprintf("%s holds: witness %s", stmt, rep.Witnesses[0])
	} else {
		rep.Message = fmt.Sprintf("%s does not hold: no pair satisfies it", stmt)
	}
	return nil
}

// ∀X ∀Y: full scan recording every failing pair.
func scanForAllForAll(ctx context.Context, r *Resolver, rep *Report) error {
	failing, err := r.pairs(ctx, rep.Formula, false)
	if err != nil {
		return err
	}
	rep.Counterexamples = failing

	stmt := Statement(rep.Formula, rep.QX, rep.QY)
	rep.CounterexampleLabel = "failing pair"
	rep.Outcome = verdict(len(failing) == 0)
	if rep.Holds() {
		rep.Message = stmt + " holds"
	} else {
		rep.Message = fmt.Sprintf("%s does not hold: %s", stmt, plural(len(failing), "failing pair"))
	}
	return nil
}

// No quantifiers: enumerate every satisfying pair.
func scanEnumerate(ctx context.Context, r *Resolver, rep *Report) error {
	satisfying, err := r.pairs(ctx, rep.Formula, true)
	if err != nil {
		return err
	}
	rep.Witnesses = satisfying
	rep.Outcome = OutcomeEnumerated
	if len(satisfying) == 0 {
		rep.Message = fmt.Sprintf("%s without quantifiers: no pair satisfies it", rep.Formula)
	} else {
		rep.Message = fmt.Sprintf("%s without quantifiers: %s satisfy it", rep.Formula, plural(len(satisfying), "pair"))
	}
	return nil
}

// pairs returns, in row-major domain order, every pair whose truth value
// equals want. Rows are evaluated concurrently when parallel scans are
// enabled.
func (r *Resolver) pairs(ctx context.Context, name string, want bool) ([]Row, error) {
	rows := make([][]Row, len(r.domain))
	scanRow := func(i int) error {
		x := r.domain[i]
		for _, y := range r.domain {
			ok, err := r.holds(name, ir.Bind(x), ir.Bind(y))
			if err != nil {
				return err
			}
			if ok == want {
				rows[i] = append(rows[i], Row{X: x, Y: y})
			}
		}
		return nil
	}

	if err := scan.Rows(ctx, len(r.domain), r.parallel, r.workers, scanRow); err != nil {
		return nil, err
	}

	out := []Row{}
	for _, row := range rows {
		out = append(out, row...)
	}
	return out, nil
}

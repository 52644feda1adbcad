package engine

import (
	"context"
	"fmt"
	"runtime"
	"slices"

	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/eval"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/matrix"
	"github.com/roach88/quantq/internal/quant"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/relation"
)

// Dataset is the relation a session evaluates against.
type Dataset interface {
	relation.Accessor
}

// Journal records registry mutations so a workspace can be rebuilt by
// replaying them. store.Store implements it.
type Journal interface {
	AppendRegister(ctx context.Context, def ir.Definition) error
	AppendRename(ctx context.Context, oldName, newName string) error
	AppendRemove(ctx context.Context, name string) error
}

// Session is the API presentation layers use: it owns the registry and
// runs evaluations, quantified queries and matrix operations against one
// dataset.
//
// Registry mutations are serialized by the registry. Scans evaluate against
// a snapshot taken when they start, so a concurrent rename or registration
// never changes an in-flight result.
type Session struct {
	data     Dataset
	reg      *registry.Registry
	journal  Journal
	logger   *zap.Logger
	maxSize  int
	workers  int
	parallel bool
}

// Option configures a Session.
type Option func(*Session)

// WithLogger sets the logger shared by the session's components.
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithJournal records every successful mutation in j.
func WithJournal(j Journal) Option {
	return func(s *Session) { s.journal = j }
}

// WithRegistry uses an existing registry, e.g. one rebuilt from a journal.
func WithRegistry(r *registry.Registry) Option {
	return func(s *Session) { s.reg = r }
}

// WithMaxMatrixSize caps truth matrix domains. n <= 0 means
// matrix.DefaultMaxSize.
func WithMaxMatrixSize(n int) Option {
	return func(s *Session) { s.maxSize = n }
}

// WithWorkers caps goroutines used by full scans. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *Session) { s.workers = n }
}

// WithParallel enables or disables parallel full scans.
func WithParallel(enabled bool) Option {
	return func(s *Session) { s.parallel = enabled }
}

// New creates a session over data.
func New(data Dataset, opts ...Option) *Session {
	s := &Session{
		data:     data,
		logger:   zap.NewNop(),
		maxSize:  matrix.DefaultMaxSize,
		workers:  runtime.GOMAXPROCS(0),
		parallel: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.reg == nil {
		s.reg = registry.New(registry.WithLogger(s.logger))
	}
	if s.maxSize <= 0 {
		s.maxSize = matrix.DefaultMaxSize
	}
	return s
}

// Registry returns the session's registry.
func (s *Session) Registry() *registry.Registry {
	return s.reg
}

// Dataset returns the session's relation.
func (s *Session) Dataset() Dataset {
	return s.data
}

// RightOperand is the unconverted right-hand side of a simple predicate:
// either the other bound variable or a raw constant.
type RightOperand struct {
	Constant   string
	IsConstant bool
}

// OtherVariable is the right operand naming the other bound variable.
func OtherVariable() RightOperand {
	return RightOperand{}
}

// ConstantOperand is a raw constant, converted to the attribute's type on
// registration.
func ConstantOperand(raw string) RightOperand {
	return RightOperand{Constant: raw, IsConstant: true}
}

// RegisterSimple validates and registers name(X,Y): left.attribute op right.
// The attribute must exist in the dataset and a constant must convert to
// its type; otherwise nothing is registered.
func (s *Session) RegisterSimple(ctx context.Context, name, attribute string, op ir.RelOp, left ir.Var, right RightOperand) (ir.SimplePredicate, error) {
	typ, ok := s.data.AttributeType(attribute)
	if !ok {
		return ir.SimplePredicate{}, ir.NewInvalidDefinitionError(name, fmt.Sprintf("unknown attribute %q", attribute))
	}

	def := ir.SimplePredicate{
		Name:      name,
		Attribute: attribute,
		Op:        op,
		Left:      left,
		Right:     ir.OtherVariable(),
	}
	if right.IsConstant {
		v, err := ir.ParseConstant(typ, right.Constant)
		if err != nil {
			return ir.SimplePredicate{}, err
		}
		def.Right = ir.Constant(v)
	}

	if err := s.register(ctx, def); err != nil {
		return ir.SimplePredicate{}, err
	}
	return def, nil
}

// RegisterCompound validates and registers name := op(args...). Argument
// names resolve case-insensitively and are stored under their canonical
// names.
func (s *Session) RegisterCompound(ctx context.Context, name string, op ir.LogicOp, args ...string) (ir.CompoundPredicate, error) {
	if err := s.register(ctx, ir.CompoundPredicate{Name: name, Op: op, Args: args}); err != nil {
		return ir.CompoundPredicate{}, err
	}
	def, _ := s.reg.Get(name)
	return def.(ir.CompoundPredicate), nil
}

// Register adds an already-built definition. Simple predicates are checked
// against the dataset schema and their constants converted to the
// attribute's type.
func (s *Session) Register(ctx context.Context, def ir.Definition) error {
	if d, ok := def.(ir.SimplePredicate); ok {
		typ, ok := s.data.AttributeType(d.Attribute)
		if !ok {
			return ir.NewInvalidDefinitionError(d.Name, fmt.Sprintf("unknown attribute %q", d.Attribute))
		}
		if !d.Binary() {
			v, err := ir.ConvertConstant(typ, d.Right.Const)
			if err != nil {
				return err
			}
			d.Right = ir.Constant(v)
		}
		def = d
	}
	return s.register(ctx, def)
}

// RegisterAll registers defs in dependency order, all or nothing.
func (s *Session) RegisterAll(ctx context.Context, defs []ir.Definition) error {
	ordered, err := registry.Order(defs)
	if err != nil {
		return err
	}
	var added []string
	for _, def := range ordered {
		if err := s.Register(ctx, def); err != nil {
			for i := len(added) - 1; i >= 0; i-- {
				s.undoRegister(ctx, added[i])
			}
			return err
		}
		added = append(added, def.DefName())
	}
	return nil
}

func (s *Session) register(ctx context.Context, def ir.Definition) error {
	if err := s.reg.Register(def); err != nil {
		return err
	}
	if s.journal == nil {
		return nil
	}
	stored, _ := s.reg.Get(def.DefName())
	if err := s.journal.AppendRegister(ctx, stored); err != nil {
		_ = s.reg.Remove(def.DefName())
		return fmt.Errorf("journal registration of %s: %w", def.DefName(), err)
	}
	return nil
}

// undoRegister reverts a registration made by RegisterAll.
func (s *Session) undoRegister(ctx context.Context, name string) {
	if err := s.reg.Remove(name); err != nil {
		return
	}
	if s.journal != nil {
		if err := s.journal.AppendRemove(ctx, name); err != nil {
			s.logger.Warn("journal rollback failed", zap.String("name", name), zap.Error(err))
		}
	}
}

// Rename relabels oldName (resolved case-insensitively) as newName and
// rewrites every compound that referenced it.
func (s *Session) Rename(ctx context.Context, oldName, newName string) error {
	canonical, ok := s.reg.Resolve(oldName)
	if !ok {
		return ir.NewUnknownPredicateError(oldName)
	}
	if err := s.reg.Rename(canonical, newName); err != nil {
		return err
	}
	if s.journal == nil || canonical == newName {
		return nil
	}
	if err := s.journal.AppendRename(ctx, canonical, newName); err != nil {
		_ = s.reg.Rename(newName, canonical)
		return fmt.Errorf("journal rename of %s: %w", canonical, err)
	}
	return nil
}

// Remove deletes an entry no compound references.
func (s *Session) Remove(ctx context.Context, name string) error {
	canonical, ok := s.reg.Resolve(name)
	if !ok {
		return ir.NewUnknownPredicateError(name)
	}
	def, _ := s.reg.Get(canonical)
	index := slices.Index(s.reg.Names(), canonical)
	if err := s.reg.Remove(canonical); err != nil {
		return err
	}
	if s.journal == nil {
		return nil
	}
	if err := s.journal.AppendRemove(ctx, canonical); err != nil {
		_ = s.reg.Restore(def, index)
		return fmt.Errorf("journal removal of %s: %w", canonical, err)
	}
	return nil
}

// Describe returns the human-readable caption of name.
func (s *Session) Describe(name string) (string, error) {
	return s.reg.Describe(name)
}

// Evaluate returns the truth value of name for x and y. Either argument
// may be ir.Unbound.
func (s *Session) Evaluate(name string, x, y ir.Arg) (bool, error) {
	ev := s.evaluator()
	canonical, err := ev.Resolve(name)
	if err != nil {
		return false, err
	}
	return ev.Evaluate(canonical, x, y)
}

// ResolveQuantified evaluates name under quantifiers qx and qy.
func (s *Session) ResolveQuantified(ctx context.Context, name string, qx, qy ir.Quantifier) (*quant.Report, error) {
	r := quant.NewResolver(s.evaluator(), s.data.Domain(),
		quant.WithWorkers(s.workers),
		quant.WithParallel(s.parallel),
		quant.WithLogger(s.logger))
	return r.Resolve(ctx, name, qx, qy)
}

// GenerateMatrix builds the truth matrix of name. A truncated matrix is
// returned with a nil error; use matrix.Warning to surface truncation.
func (s *Session) GenerateMatrix(ctx context.Context, name string) (*matrix.TruthMatrix, error) {
	return s.generator(s.evaluator()).Generate(ctx, name)
}

// ApplyMatrixOperator generates the matrices of the named formulas and
// combines them with op. NOT and unary IMPLIES take one name.
func (s *Session) ApplyMatrixOperator(ctx context.Context, op ir.LogicOp, names ...string) (*matrix.TruthMatrix, error) {
	if !slices.Contains(ir.LogicOps, op) {
		return nil, ir.NewInvalidDefinitionError("", "unknown logic operator "+string(op))
	}
	lo, hi := op.Arity()
	if len(names) < lo || len(names) > hi {
		return nil, ir.NewInvalidDefinitionError("", fmt.Sprintf("%s takes %d to %d formulas, got %d", op, lo, hi, len(names)))
	}

	// Both operands come from the same snapshot.
	gen := s.generator(s.evaluator())
	a, err := gen.Generate(ctx, names[0])
	if err != nil {
		return nil, err
	}
	var b *matrix.TruthMatrix
	if len(names) == 2 {
		if b, err = gen.Generate(ctx, names[1]); err != nil {
			return nil, err
		}
	}
	return matrix.Apply(op, a, b)
}

// SaveAs registers name := op(args...), turning a matrix operation into a
// reusable formula.
func (s *Session) SaveAs(ctx context.Context, name string, op ir.LogicOp, args ...string) (ir.CompoundPredicate, error) {
	def, err := s.RegisterCompound(ctx, name, op, args...)
	if err != nil {
		return ir.CompoundPredicate{}, err
	}
	s.logger.Info("saved matrix formula", zap.String("name", name), zap.String("caption", registry.Caption(def)))
	return def, nil
}

func (s *Session) evaluator() *eval.Evaluator {
	return eval.New(s.data, s.reg.Snapshot())
}

func (s *Session) generator(ev *eval.Evaluator) *matrix.Generator {
	return matrix.NewGenerator(ev, s.data.Domain(),
		matrix.WithMaxSize(s.maxSize),
		matrix.WithWorkers(s.workers),
		matrix.WithParallel(s.parallel),
		matrix.WithLogger(s.logger))
}

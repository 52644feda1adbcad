package registry

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"

	"github.com/roach88/quantq/internal/ir"
)

// Reader resolves names to definitions. Registry and Snapshot implement it.
type Reader interface {
	// Resolve returns the canonical stored name for name: an exact match
	// first, then a case-insensitive match.
	Resolve(name string) (string, bool)

	// Lookup resolves name and returns its definition, or an
	// UNKNOWN_PREDICATE error.
	Lookup(name string) (ir.Definition, error)
}

// Registry is the mutable predicate store.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]ir.Definition
	order   []string // registration order
	logger  *zap.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger sets the registry's logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Registry) {
		if l != nil {
			r.logger = l
		}
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]ir.Definition),
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register validates def and stores it under its name.
//
// Fails with DUPLICATE_NAME if the name is taken (case-sensitive), with
// INVALID_DEFINITION on a structural problem and with UNKNOWN_PREDICATE if a
// compound names an argument that does not exist. Compound arguments are
// stored under their canonical names. On failure the registry is unchanged.
func (r *Registry) Register(def ir.Definition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.prepare(def)
	if err != nil {
		return err
	}
	r.insert(stored)
	r.logger.Debug("registered definition",
		zap.String("name", stored.DefName()),
		zap.String("kind", string(stored.Kind())))
	return nil
}

// RegisterAll registers defs atomically: either all are stored or none.
// Definitions may appear in any order; they are registered dependencies
// first. A reference cycle among them fails with REFERENCE_CYCLE.
func (r *Registry) RegisterAll(defs []ir.Definition) error {
	ordered, err := Order(defs)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	added := make([]string, 0, len(ordered))
	for _, def := range ordered {
		stored, err := r.prepare(def)
		if err != nil {
			for _, name := range added {
				r.delete(name)
			}
			return err
		}
		r.insert(stored)
		added = append(added, stored.DefName())
	}
	r.logger.Debug("registered definitions", zap.Int("count", len(added)))
	return nil
}

// prepare validates def against the current contents. Caller holds mu.
func (r *Registry) prepare(def ir.Definition) (ir.Definition, error) {
	if def == nil {
		return nil, ir.NewInvalidDefinitionError("", "definition is nil")
	}
	name := def.DefName()
	if strings.TrimSpace(name) == "" {
		return nil, ir.NewInvalidDefinitionError(name, "name must not be empty")
	}
	if _, exists := r.entries[name]; exists {
		return nil, ir.NewDuplicateNameError(name)
	}

	switch d := def.(type) {
	case ir.SimplePredicate:
		if err := validateSimple(d); err != nil {
			return nil, err
		}
		return d, nil

	case ir.CompoundPredicate:
		if err := validateArity(d); err != nil {
			return nil, err
		}
		args := make([]string, len(d.Args))
		for i, arg := range d.Args {
			canonical, ok := r.resolve(arg)
			if !ok {
				e := ir.NewUnknownPredicateError(arg)
				e.Message = "argument of " + name + " does not exist"
				return nil, e
			}
			args[i] = canonical
		}
		d.Args = args
		return d, nil
	}
	return nil, ir.NewInvalidDefinitionError(name, "unknown definition type")
}

func validateSimple(d ir.SimplePredicate) error {
	if d.Attribute == "" {
		return ir.NewInvalidDefinitionError(d.Name, "attribute must not be empty")
	}
	if !slices.Contains(ir.RelOps, d.Op) {
		return ir.NewInvalidDefinitionError(d.Name, "unknown relational operator "+string(d.Op))
	}
	if d.Left != ir.VarX && d.Left != ir.VarY {
		return ir.NewInvalidDefinitionError(d.Name, "left variable must be X or Y")
	}
	if d.Right.Kind == ir.OperandConst && d.Right.Const == nil {
		return ir.NewInvalidDefinitionError(d.Name, "constant operand has no value")
	}
	return nil
}

func validateArity(d ir.CompoundPredicate) error {
	if !slices.Contains(ir.LogicOps, d.Op) {
		return ir.NewInvalidDefinitionError(d.Name, "unknown logic operator "+string(d.Op))
	}
	lo, hi := d.Op.Arity()
	if n := len(d.Args); n < lo || n > hi {
		if lo == hi {
			return ir.NewInvalidDefinitionError(d.Name, fmt.Sprintf("%s takes exactly %d argument(s), got %d", d.Op, lo, n))
		}
		return ir.NewInvalidDefinitionError(d.Name, fmt.Sprintf("%s takes %d or %d arguments, got %d", d.Op, lo, hi, n))
	}
	return nil
}

func (r *Registry) insert(def ir.Definition) {
	r.entries[def.DefName()] = def
	r.order = append(r.order, def.DefName())
}

func (r *Registry) delete(name string) {
	delete(r.entries, name)
	if i := slices.Index(r.order, name); i >= 0 {
		r.order = slices.Delete(r.order, i, i+1)
	}
}

// Resolve implements Reader.
func (r *Registry) Resolve(name string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.resolve(name)
}

// resolve is the two-phase lookup. Caller holds mu.
func (r *Registry) resolve(name string) (string, bool) {
	return resolveIn(r.entries, r.order, name)
}

func resolveIn(entries map[string]ir.Definition, order []string, name string) (string, bool) {
	if _, ok := entries[name]; ok {
		return name, true
	}
	folder := cases.Fold()
	want := folder.String(name)
	for _, candidate := range order {
		if folder.String(candidate) == want {
			return candidate, true
		}
	}
	return "", false
}

// Lookup implements Reader.
func (r *Registry) Lookup(name string) (ir.Definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.resolve(name)
	if !ok {
		return nil, ir.NewUnknownPredicateError(name)
	}
	return r.entries[canonical], nil
}

// Get is an exact-match lookup with no case folding.
func (r *Registry) Get(name string) (ir.Definition, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	def, ok := r.entries[name]
	return def, ok
}

// Rename relabels oldName as newName and rewrites every compound argument
// that named it. oldName is resolved with the two-phase lookup; newName is
// taken literally. Renaming to the same name is a no-op.
func (r *Registry) Rename(oldName, newName string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical, ok := r.resolve(oldName)
	if !ok {
		return ir.NewUnknownPredicateError(oldName)
	}
	if strings.TrimSpace(newName) == "" {
		return ir.NewInvalidDefinitionError(canonical, "new name must not be empty")
	}
	if newName == canonical {
		return nil
	}
	if _, taken := r.entries[newName]; taken {
		return ir.NewDuplicateNameError(newName)
	}

	def := r.entries[canonical]
	delete(r.entries, canonical)
	r.entries[newName] = ir.WithName(def, newName)
	r.order[slices.Index(r.order, canonical)] = newName

	rewritten := 0
	for name, entry := range r.entries {
		c, ok := entry.(ir.CompoundPredicate)
		if !ok || !slices.Contains(c.Args, canonical) {
			continue
		}
		args := make([]string, len(c.Args))
		for i, a := range c.Args {
			if a == canonical {
				a = newName
			}
			args[i] = a
		}
		c.Args = args
		r.entries[name] = c
		rewritten++
	}

	r.logger.Debug("renamed definition",
		zap.String("old", canonical),
		zap.String("new", newName),
		zap.Int("compounds_rewritten", rewritten))
	return nil
}

// Remove deletes name. It fails with PREDICATE_IN_USE while any compound
// references it, so removal can never leave a dangling reference.
func (r *Registry) Remove(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	canonical, ok := r.resolve(name)
	if !ok {
		return ir.NewUnknownPredicateError(name)
	}
	if deps := r.dependents(canonical); len(deps) > 0 {
		return ir.NewInUseError(canonical, deps)
	}
	r.delete(canonical)
	r.logger.Debug("removed definition", zap.String("name", canonical))
	return nil
}

// Restore re-registers def at position index of the registration order,
// undoing a Remove. Validation is the same as Register; an index past the
// end appends.
func (r *Registry) Restore(def ir.Definition, index int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, err := r.prepare(def)
	if err != nil {
		return err
	}
	index = min(max(index, 0), len(r.order))
	r.entries[stored.DefName()] = stored
	r.order = slices.Insert(r.order, index, stored.DefName())
	return nil
}

// Dependents returns the compounds that directly reference name, in
// registration order.
func (r *Registry) Dependents(name string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	canonical, ok := r.resolve(name)
	if !ok {
		return nil
	}
	return r.dependents(canonical)
}

func (r *Registry) dependents(canonical string) []string {
	var deps []string
	for _, name := range r.order {
		if c, ok := r.entries[name].(ir.CompoundPredicate); ok && slices.Contains(c.Args, canonical) {
			deps = append(deps, name)
		}
	}
	return deps
}

// Names returns every name in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]string(nil), r.order...)
}

// Definitions returns every definition in registration order.
func (r *Registry) Definitions() []ir.Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	defs := make([]ir.Definition, len(r.order))
	for i, name := range r.order {
		defs[i] = r.entries[name]
	}
	return defs
}

// Len returns the number of entries.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot returns an immutable copy of the current contents.
func (r *Registry) Snapshot() *Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make(map[string]ir.Definition, len(r.entries))
	for k, v := range r.entries {
		entries[k] = v
	}
	return &Snapshot{entries: entries, order: append([]string(nil), r.order...)}
}

// Snapshot is a read-only view of a registry at one point in time.
type Snapshot struct {
	entries map[string]ir.Definition
	order   []string
}

// Resolve implements Reader.
func (s *Snapshot) Resolve(name string) (string, bool) {
	return resolveIn(s.entries, s.order, name)
}

// Lookup implements Reader.
func (s *Snapshot) Lookup(name string) (ir.Definition, error) {
	canonical, ok := s.Resolve(name)
	if !ok {
		return nil, ir.NewUnknownPredicateError(name)
	}
	return s.entries[canonical], nil
}

// Names returns every name in registration order.
func (s *Snapshot) Names() []string {
	return append([]string(nil), s.order...)
}

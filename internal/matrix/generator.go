package matrix

import (
	"context"
	"runtime"

	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/scan"
)

// DefaultMaxSize is the domain cap used when none is configured.
const DefaultMaxSize = 256

// Evaluator is the subset of eval.Evaluator the generator needs.
type Evaluator interface {
	Resolve(name string) (string, error)
	Evaluate(name string, x, y ir.Arg) (bool, error)
}

// Generator builds truth matrices over a fixed domain.
type Generator struct {
	eval     Evaluator
	domain   []ir.RowID
	maxSize  int
	workers  int
	parallel bool
	logger   *zap.Logger
}

// Option configures a Generator.
type Option func(*Generator)

// WithMaxSize caps the domain. n <= 0 means DefaultMaxSize.
func WithMaxSize(n int) Option {
	return func(g *Generator) { g.maxSize = n }
}

// WithWorkers caps the goroutines filling rows. n <= 0 means GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(g *Generator) { g.workers = n }
}

// WithParallel enables or disables concurrent row generation.
func WithParallel(enabled bool) Option {
	return func(g *Generator) { g.parallel = enabled }
}

// WithLogger sets the generator's logger.
func WithLogger(l *zap.Logger) Option {
	return func(g *Generator) {
		if l != nil {
			g.logger = l
		}
	}
}

// NewGenerator creates a Generator over domain.
func NewGenerator(ev Evaluator, domain []ir.RowID, opts ...Option) *Generator {
	g := &Generator{
		eval:     ev,
		domain:   append([]ir.RowID(nil), domain...),
		parallel: true,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(g)
	}
	if g.maxSize <= 0 {
		g.maxSize = DefaultMaxSize
	}
	if g.workers <= 0 {
		g.workers = runtime.GOMAXPROCS(0)
	}
	return g
}

// MaxSize returns the configured domain cap.
func (g *Generator) MaxSize() int {
	return g.maxSize
}

// Generate evaluates formula on every (X, Y) pair of the domain. A domain
// larger than the cap is cut to its prefix; the matrix then reports
// Truncated and Warning returns TRUNCATED_DOMAIN.
func (g *Generator) Generate(ctx context.Context, formula string) (*TruthMatrix, error) {
	name, err := g.eval.Resolve(formula)
	if err != nil {
		return nil, err
	}

	domain := g.domain
	if len(domain) > g.maxSize {
		domain = domain[:g.maxSize]
		g.logger.Warn("truth matrix domain truncated",
			zap.String("formula", name),
			zap.Int("size", len(g.domain)),
			zap.Int("limit", g.maxSize))
	}

	m := newMatrix(name, domain, len(g.domain))
	fill := func(i int) error {
		x := ir.Bind(domain[i])
		for j, id := range domain {
			v, err := g.eval.Evaluate(name, x, ir.Bind(id))
			if err != nil {
				return err
			}
			m.Cells[i][j] = v
		}
		return nil
	}
	if err := scan.Rows(ctx, len(domain), g.parallel, g.workers, fill); err != nil {
		return nil, err
	}

	g.logger.Debug("generated truth matrix",
		zap.String("formula", name),
		zap.Int("size", m.Size()),
		zap.Int("true_cells", m.Count()))
	return m, nil
}

// Warning returns TRUNCATED_DOMAIN for a truncated matrix, nil otherwise.
// It is a signal, not a failure.
func Warning(m *TruthMatrix) error {
	if !m.Truncated() {
		return nil
	}
	return ir.NewTruncatedDomainError(m.Label, m.OriginalSize, m.Size())
}

package cli

import (
	"context"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/config"
	"github.com/roach88/quantq/internal/engine"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/logging"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/relation"
	"github.com/roach88/quantq/internal/store"
)

// workspace is everything a command needs: the effective config, the
// dataset, the journaled store and a session whose registry was rebuilt
// from the journal.
type workspace struct {
	cfg     config.Config
	logger  *zap.Logger
	data    *relation.Table // nil without --data
	store   *store.Store
	session *engine.Session
}

// workspaceOptions tune openWorkspace per command.
type workspaceOptions struct {
	needData bool
	maxSize  int // overrides matrix.max_size when > 0
}

// openWorkspace loads config, builds the logger, loads the dataset, opens
// the workspace and replays its journal into a fresh session.
func openWorkspace(ctx context.Context, opts *RootOptions, wo workspaceOptions) (*workspace, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	if opts.IDColumn != "" {
		cfg.Dataset.IDColumn = opts.IDColumn
	}
	if opts.DB != "" {
		cfg.Workspace.Path = opts.DB
	}
	if wo.maxSize > 0 {
		cfg.Matrix.MaxSize = wo.maxSize
	}

	logger, err := logging.New(cfg.Log.Format, logging.Verbose(cfg.Log.Level, opts.Verbose))
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}

	w := &workspace{cfg: *cfg, logger: logger}

	var data engine.Dataset = emptyDataset{}
	switch {
	case opts.Data != "":
		w.data, err = relation.LoadCSVFile(opts.Data, relation.LoadOptions{
			IDColumn:    cfg.Dataset.IDColumn,
			DateColumns: cfg.Dataset.DateColumns,
		})
		if err != nil {
			return nil, withCode(ErrCodeDataset, err)
		}
		data = w.data
		logger.Debug("dataset loaded",
			zap.String("path", opts.Data),
			zap.String("id_column", w.data.IDColumn()),
			zap.Int("rows", w.data.Len()))
	case wo.needData:
		return nil, withCode(ErrCodeDataset, errors.WithHint(
			errors.New("this command needs a dataset"),
			"pass --data <file.csv>",
		))
	}

	w.store, err = store.Open(cfg.Workspace.Path, store.WithLogger(logger))
	if err != nil {
		return nil, withCode(ErrCodeWorkspace, err)
	}

	reg := registry.New(registry.WithLogger(logger))
	stats, err := w.store.Replay(ctx, reg)
	if err != nil {
		w.store.Close()
		return nil, withCode(ErrCodeWorkspace, err)
	}
	logger.Debug("workspace opened",
		zap.String("path", cfg.Workspace.Path),
		zap.Int("journal_entries", stats.Total()),
		zap.Int("definitions", reg.Len()))

	sessionOpts := []engine.Option{
		engine.WithLogger(logger),
		engine.WithRegistry(reg),
		engine.WithJournal(w.store),
		engine.WithMaxMatrixSize(cfg.Matrix.MaxSize),
		engine.WithParallel(cfg.Scan.Parallel),
	}
	if cfg.Scan.Workers > 0 {
		sessionOpts = append(sessionOpts, engine.WithWorkers(cfg.Scan.Workers))
	}
	w.session = engine.New(data, sessionOpts...)
	return w, nil
}

// Close closes the store and flushes the logger.
func (w *workspace) Close() error {
	_ = w.logger.Sync()
	return w.store.Close()
}

// checkRow fails with E_UNKNOWN_ROW unless id is in the dataset's domain.
func (w *workspace) checkRow(id ir.RowID) error {
	if w.data == nil {
		return withCode(ErrCodeDataset, errors.New("no dataset loaded"))
	}
	if slices.Contains(w.session.Dataset().Domain(), id) {
		return nil
	}
	return withCode(ErrCodeUnknownRow, errors.WithHintf(
		errors.Newf("row %q is not in the dataset", id),
		"row IDs come from the %q column", w.data.IDColumn(),
	))
}

// emptyDataset stands in when a command runs without --data: registry
// commands work, simple predicates cannot be checked against a schema.
type emptyDataset struct{}

func (emptyDataset) Domain() []ir.RowID                         { return nil }
func (emptyDataset) Value(ir.RowID, string) (ir.Value, bool)    { return nil, false }
func (emptyDataset) AttributeType(string) (ir.ValueType, bool) { return 0, false }

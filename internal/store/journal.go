package store

import (
	"context"
	"database/sql"
	"slices"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
)

// Op is the kind of a journal entry.
type Op string

const (
	OpRegister Op = "register"
	OpRename   Op = "rename"
	OpRemove   Op = "remove"
)

// Entry is one recorded registry mutation.
type Entry struct {
	Seq  int64
	Op   Op
	Name string

	// NewName is set for renames.
	NewName string

	// Definition and Hash are set for registrations.
	Definition ir.Definition
	Hash       string

	CreatedAt string
}

// AppendRegister records the registration of def.
func (s *Store) AppendRegister(ctx context.Context, def ir.Definition) error {
	payload, err := ir.MarshalDefinition(def)
	if err != nil {
		return errors.Wrap(err, "append register")
	}
	hash, err := ir.DefinitionHash(def)
	if err != nil {
		return errors.Wrap(err, "append register")
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO journal (op, name, payload, def_hash)
		VALUES (?, ?, ?, ?)
	`, string(OpRegister), def.DefName(), string(payload), hash)
	if err != nil {
		return errors.Wrapf(err, "append register %s", def.DefName())
	}
	return nil
}

// AppendRename records a rename of oldName to newName.
func (s *Store) AppendRename(ctx context.Context, oldName, newName string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (op, name, new_name)
		VALUES (?, ?, ?)
	`, string(OpRename), oldName, newName)
	if err != nil {
		return errors.Wrapf(err, "append rename %s", oldName)
	}
	return nil
}

// AppendRemove records the removal of name.
func (s *Store) AppendRemove(ctx context.Context, name string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (op, name)
		VALUES (?, ?)
	`, string(OpRemove), name)
	if err != nil {
		return errors.Wrapf(err, "append remove %s", name)
	}
	return nil
}

// Entries returns the journal in seq order. Returns an empty slice (not
// nil) for an empty journal.
func (s *Store) Entries(ctx context.Context) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, op, name, new_name, payload, def_hash, created_at
		FROM journal
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, errors.Wrap(err, "query journal")
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "iterate journal")
	}
	return entries, nil
}

func scanEntry(rows *sql.Rows) (Entry, error) {
	var (
		e       Entry
		op      string
		payload string
	)
	if err := rows.Scan(&e.Seq, &op, &e.Name, &e.NewName, &payload, &e.Hash, &e.CreatedAt); err != nil {
		return Entry{}, errors.Wrap(err, "scan journal entry")
	}
	e.Op = Op(op)

	switch e.Op {
	case OpRegister:
		def, err := ir.UnmarshalDefinition([]byte(payload))
		if err != nil {
			return Entry{}, errors.Wrapf(err, "journal entry %d", e.Seq)
		}
		got, err := ir.DefinitionHash(def)
		if err != nil {
			return Entry{}, errors.Wrapf(err, "journal entry %d", e.Seq)
		}
		if got != e.Hash {
			return Entry{}, errors.WithHint(
				errors.Newf("journal entry %d: definition %s does not match its fingerprint", e.Seq, e.Name),
				"the workspace was modified outside quantq; restore it or start a new one",
			)
		}
		e.Definition = def
	case OpRename, OpRemove:
	default:
		return Entry{}, errors.Newf("journal entry %d: unknown op %q", e.Seq, op)
	}
	return e, nil
}

// ReplayStats summarizes a replay.
type ReplayStats struct {
	Registered int
	Renamed    int
	Removed    int
}

// Total is the number of entries applied.
func (r ReplayStats) Total() int {
	return r.Registered + r.Renamed + r.Removed
}

// Replay applies the journal to reg in seq order. reg is normally empty;
// replaying onto a registry that already holds a journaled name fails with
// DUPLICATE_NAME.
//
// The definitions that are registered and never removed are checked for
// reference cycles before anything is applied, so a corrupted journal
// leaves reg untouched.
func (s *Store) Replay(ctx context.Context, reg *registry.Registry) (ReplayStats, error) {
	var stats ReplayStats

	entries, err := s.Entries(ctx)
	if err != nil {
		return stats, errors.Wrap(err, "replay")
	}
	if cycles := registry.FindCycles(finalDefinitions(entries)); len(cycles) > 0 {
		return stats, errors.Wrap(ir.NewReferenceCycleError(cycles[0]), "replay")
	}

	for _, e := range entries {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		switch e.Op {
		case OpRegister:
			if err := reg.Register(e.Definition); err != nil {
				return stats, errors.Wrapf(err, "replay entry %d", e.Seq)
			}
			stats.Registered++
		case OpRename:
			if err := reg.Rename(e.Name, e.NewName); err != nil {
				return stats, errors.Wrapf(err, "replay entry %d", e.Seq)
			}
			stats.Renamed++
		case OpRemove:
			if err := reg.Remove(e.Name); err != nil {
				return stats, errors.Wrapf(err, "replay entry %d", e.Seq)
			}
			stats.Removed++
		}
	}

	s.logger.Info("journal replayed",
		zap.Int("registered", stats.Registered),
		zap.Int("renamed", stats.Renamed),
		zap.Int("removed", stats.Removed),
	)
	return stats, nil
}

// finalDefinitions folds renames and removals into the registered
// definitions, yielding what the registry holds once the journal is
// applied. Journaled names are canonical, so matching is exact.
func finalDefinitions(entries []Entry) []ir.Definition {
	var (
		order []string
		defs  = map[string]ir.Definition{}
	)
	for _, e := range entries {
		switch e.Op {
		case OpRegister:
			if !slices.Contains(order, e.Name) {
				order = append(order, e.Name)
			}
			defs[e.Name] = e.Definition
		case OpRename:
			def, ok := defs[e.Name]
			if !ok || e.Name == e.NewName {
				continue
			}
			delete(defs, e.Name)
			defs[e.NewName] = ir.WithName(def, e.NewName)
			order[slices.Index(order, e.Name)] = e.NewName
			for name, d := range defs {
				if c, ok := d.(ir.CompoundPredicate); ok && slices.Contains(c.Args, e.Name) {
					args := slices.Clone(c.Args)
					for i, a := range args {
						if a == e.Name {
							args[i] = e.NewName
						}
					}
					c.Args = args
					defs[name] = c
				}
			}
		case OpRemove:
			if _, ok := defs[e.Name]; ok {
				delete(defs, e.Name)
				order = slices.DeleteFunc(order, func(n string) bool { return n == e.Name })
			}
		}
	}

	out := make([]ir.Definition, 0, len(defs))
	for _, n := range order {
		if d, ok := defs[n]; ok {
			out = append(out, d)
		}
	}
	return out
}

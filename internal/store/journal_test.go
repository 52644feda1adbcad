package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/engine"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/testutil"
)

func TestJournal_AppendAndEntries(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	p := testutil.Binary("p", "v", ir.OpLess)
	big := testutil.Unary("big", "v", ir.OpGreater, ir.Int(10))
	require.NoError(t, s.AppendRegister(ctx, p))
	require.NoError(t, s.AppendRegister(ctx, big))
	require.NoError(t, s.AppendRename(ctx, "p", "lt"))
	require.NoError(t, s.AppendRemove(ctx, "big"))

	entries, err := s.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 4)

	assert.Equal(t, OpRegister, entries[0].Op)
	assert.Equal(t, p, entries[0].Definition)
	hash, err := ir.DefinitionHash(p)
	require.NoError(t, err)
	assert.Equal(t, hash, entries[0].Hash)

	// Constants keep their type through the journal.
	assert.Equal(t, big, entries[1].Definition)

	assert.Equal(t, OpRename, entries[2].Op)
	assert.Equal(t, "p", entries[2].Name)
	assert.Equal(t, "lt", entries[2].NewName)
	assert.Nil(t, entries[2].Definition)

	assert.Equal(t, OpRemove, entries[3].Op)
	assert.Equal(t, "big", entries[3].Name)

	for i := 1; i < len(entries); i++ {
		assert.Greater(t, entries[i].Seq, entries[i-1].Seq)
	}
}

func TestJournal_EmptyEntries(t *testing.T) {
	s := openTestStore(t)

	entries, err := s.Entries(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestJournal_TamperedPayload(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	require.NoError(t, s.AppendRegister(ctx, testutil.Binary("p", "v", ir.OpLess)))

	_, err := s.DB().ExecContext(ctx, `UPDATE journal SET payload = replace(payload, '"<"', '">"')`)
	require.NoError(t, err)

	_, err = s.Entries(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not match its fingerprint")
}

func TestReplay_RebuildsSessionRegistry(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	data := testutil.IntTable(t, "v", []string{"r1", "r2", "r3"}, []int64{5, 10, 15})

	sess := engine.New(data, engine.WithJournal(s))
	_, err := sess.RegisterSimple(ctx, "p", "v", ir.OpLess, ir.VarX, engine.OtherVariable())
	require.NoError(t, err)
	_, err = sess.RegisterSimple(ctx, "big", "v", ir.OpGreater, ir.VarX, engine.ConstantOperand("10"))
	require.NoError(t, err)
	_, err = sess.RegisterCompound(ctx, "Q", ir.LogicNot, "p")
	require.NoError(t, err)
	_, err = sess.RegisterCompound(ctx, "tmp", ir.LogicNot, "big")
	require.NoError(t, err)
	require.NoError(t, sess.Rename(ctx, "p", "lt"))
	require.NoError(t, sess.Remove(ctx, "tmp"))

	rebuilt := registry.New()
	stats, err := s.Replay(ctx, rebuilt)
	require.NoError(t, err)

	assert.Equal(t, ReplayStats{Registered: 4, Renamed: 1, Removed: 1}, stats)
	assert.Equal(t, 6, stats.Total())
	assert.Equal(t, sess.Registry().Definitions(), rebuilt.Definitions())

	q, err := rebuilt.Lookup("Q")
	require.NoError(t, err)
	assert.Equal(t, []string{"lt"}, q.(ir.CompoundPredicate).Args)
}

func TestReplay_Duplicate(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	p := testutil.Binary("p", "v", ir.OpLess)
	require.NoError(t, s.AppendRegister(ctx, p))

	_, err := s.Replay(ctx, testutil.Registry(t, p))
	require.Error(t, err)
	assert.True(t, ir.IsDuplicateName(err))
}

func TestReplay_CycleLeavesRegistryUntouched(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	// Journal written by hand: A and B reference each other.
	require.NoError(t, s.AppendRegister(ctx, testutil.Compound("A", ir.LogicNot, "B")))
	require.NoError(t, s.AppendRegister(ctx, testutil.Compound("B", ir.LogicNot, "A")))

	reg := registry.New()
	_, err := s.Replay(ctx, reg)
	require.Error(t, err)
	assert.Equal(t, ir.ErrCodeReferenceCycle, ir.CodeOf(err))
	assert.Zero(t, reg.Len())
}

func TestReplay_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := openTestStore(t)
	require.NoError(t, s.AppendRegister(ctx, testutil.Binary("p", "v", ir.OpLess)))
	cancel()

	_, err := s.Replay(ctx, registry.New())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFinalDefinitions(t *testing.T) {
	p := testutil.Binary("p", "v", ir.OpLess)
	q := testutil.Compound("Q", ir.LogicNot, "p")
	entries := []Entry{
		{Op: OpRegister, Name: "p", Definition: p},
		{Op: OpRegister, Name: "Q", Definition: q},
		{Op: OpRename, Name: "p", NewName: "lt"},
		{Op: OpRemove, Name: "Q"},
		{Op: OpRegister, Name: "Q", Definition: testutil.Compound("Q", ir.LogicAnd, "lt", "lt")},
	}

	got := finalDefinitions(entries)
	require.Len(t, got, 2)
	assert.Equal(t, "lt", got[0].DefName())
	assert.Equal(t, []string{"lt", "lt"}, got[1].(ir.CompoundPredicate).Args)
}

package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/quant"
)

func sampleReport(formula string, outcome quant.Outcome) *quant.Report {
	return &quant.Report{
		Formula:             formula,
		QX:                  ir.QuantForAll,
		QY:                  ir.QuantExists,
		Outcome:             outcome,
		Message:             "∀X ∃Y " + formula + " does not hold: 1 X without a satisfying Y",
		DomainSize:          3,
		Failures:            1,
		Witnesses:           []quant.Row{{X: "r1", Y: "r2"}, {X: "r2", Y: "r3"}},
		Counterexamples:     []quant.Row{{X: "r3"}},
		CounterexampleLabel: "X without a satisfying Y",
	}
}

func TestReports_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	rep := sampleReport("p", quant.OutcomeFails)

	id, err := s.SaveReport(ctx, rep)
	require.NoError(t, err)
	assert.Equal(t, "report-0001", id)

	saved, err := s.GetReport(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, saved.ID)
	assert.NotEmpty(t, saved.CreatedAt)
	assert.Equal(t, rep, saved.Report)
}

func TestReports_GetUnknown(t *testing.T) {
	s := openTestStore(t)

	_, err := s.GetReport(context.Background(), "nope")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrReportNotFound)
}

func TestReports_SaveNil(t *testing.T) {
	s := openTestStore(t)

	_, err := s.SaveReport(context.Background(), nil)
	assert.Error(t, err)
}

func TestReports_List(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	for _, rep := range []*quant.Report{
		sampleReport("p", quant.OutcomeFails),
		sampleReport("Q", quant.OutcomeHolds),
		sampleReport("p", quant.OutcomeHolds),
	} {
		_, err := s.SaveReport(ctx, rep)
		require.NoError(t, err)
	}

	all, err := s.ListReports(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"report-0001", "report-0002", "report-0003"},
		[]string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, ir.QuantForAll, all[0].QX)
	assert.Equal(t, ir.QuantExists, all[0].QY)
	assert.Equal(t, quant.OutcomeFails, all[0].Outcome)
	assert.Equal(t, 1, all[0].Failures)

	onlyP, err := s.ListReports(ctx, "p")
	require.NoError(t, err)
	require.Len(t, onlyP, 2)
	assert.Equal(t, "report-0003", onlyP[1].ID)
}

func TestReports_ListEmpty(t *testing.T) {
	s := openTestStore(t)

	got, err := s.ListReports(context.Background(), "")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestReports_DefaultIDsAreUUIDv7(t *testing.T) {
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	id, err := s.SaveReport(context.Background(), sampleReport("p", quant.OutcomeHolds))
	require.NoError(t, err)
	assert.Len(t, id, 36)
	assert.Equal(t, byte('7'), id[14], "version nibble")
}

package testutil

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
	"github.com/roach88/quantq/internal/relation"
)

// IntTable builds a table with an "id" column and one integer column.
// Row i gets id ids[i] and value values[i].
func IntTable(t testing.TB, column string, ids []string, values []int64) *relation.Table {
	t.Helper()
	require.Len(t, values, len(ids), "one value per id")

	tbl, err := relation.NewTable("id", []relation.Column{
		{Name: "id", Type: ir.TypeText},
		{Name: column, Type: ir.TypeInt},
	})
	require.NoError(t, err)
	for i, id := range ids {
		require.NoError(t, tbl.AddRow(map[string]ir.Value{
			"id":   ir.Text(id),
			column: ir.Int(values[i]),
		}))
	}
	return tbl
}

// Table builds a table from explicit rows. A missing key is a missing cell.
func Table(t testing.TB, idColumn string, columns []relation.Column, rows ...map[string]ir.Value) *relation.Table {
	t.Helper()
	tbl, err := relation.NewTable(idColumn, columns)
	require.NoError(t, err)
	for _, row := range rows {
		require.NoError(t, tbl.AddRow(row))
	}
	return tbl
}

// Registry builds a registry holding defs, registered in order.
func Registry(t testing.TB, defs ...ir.Definition) *registry.Registry {
	t.Helper()
	reg := registry.New()
	for _, def := range defs {
		require.NoError(t, reg.Register(def), "register %s", def.DefName())
	}
	return reg
}

// Binary returns the predicate name(X,Y): X.attribute op Y.attribute.
func Binary(name, attribute string, op ir.RelOp) ir.SimplePredicate {
	return ir.SimplePredicate{
		Name:      name,
		Attribute: attribute,
		Op:        op,
		Left:      ir.VarX,
		Right:     ir.OtherVariable(),
	}
}

// Unary returns the predicate name(X): X.attribute op constant.
func Unary(name, attribute string, op ir.RelOp, constant ir.Value) ir.SimplePredicate {
	return ir.SimplePredicate{
		Name:      name,
		Attribute: attribute,
		Op:        op,
		Left:      ir.VarX,
		Right:     ir.Constant(constant),
	}
}

// Compound returns name := op(args...).
func Compound(name string, op ir.LogicOp, args ...string) ir.CompoundPredicate {
	return ir.CompoundPredicate{Name: name, Op: op, Args: args}
}

package relation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
)

func newProducts(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable("sku", []Column{
		{Name: "sku", Type: ir.TypeText},
		{Name: "price", Type: ir.TypeInt},
		{Name: "name", Type: ir.TypeText},
	})
	require.NoError(t, err)
	require.NoError(t, tbl.AddRow(map[string]ir.Value{"sku": ir.Text("a1"), "price": ir.Int(10), "name": ir.Text("Apple")}))
	require.NoError(t, tbl.AddRow(map[string]ir.Value{"sku": ir.Text("b2"), "name": ir.Text("Banana")}))
	return tbl
}

func TestTable_Accessor(t *testing.T) {
	tbl := newProducts(t)

	assert.Equal(t, []ir.RowID{"a1", "b2"}, tbl.Domain())
	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "sku", tbl.IDColumn())

	v, ok := tbl.Value("a1", "price")
	require.True(t, ok)
	assert.Equal(t, ir.Int(10), v)

	_, ok = tbl.Value("b2", "price")
	assert.False(t, ok, "missing cell")
	_, ok = tbl.Value("zz", "price")
	assert.False(t, ok, "unknown row")
	_, ok = tbl.Value("a1", "weight")
	assert.False(t, ok, "unknown attribute")

	typ, ok := tbl.AttributeType("price")
	require.True(t, ok)
	assert.Equal(t, ir.TypeInt, typ)
	_, ok = tbl.AttributeType("weight")
	assert.False(t, ok)
}

func TestTable_DomainIsCopy(t *testing.T) {
	tbl := newProducts(t)
	d := tbl.Domain()
	d[0] = "mutated"
	assert.Equal(t, ir.RowID("a1"), tbl.Domain()[0])
}

func TestTable_Errors(t *testing.T) {
	_, err := NewTable("id", []Column{{Name: "x"}})
	assert.Error(t, err, "id column must exist")

	_, err = NewTable("x", []Column{{Name: "x"}, {Name: "x"}})
	assert.Error(t, err, "duplicate column")

	tbl := newProducts(t)
	assert.Error(t, tbl.AddRow(map[string]ir.Value{"sku": ir.Text("a1")}), "duplicate id")
	assert.Error(t, tbl.AddRow(map[string]ir.Value{"price": ir.Int(1)}), "missing id")
	assert.Error(t, tbl.AddRow(map[string]ir.Value{"sku": ir.Text("c3"), "price": ir.Text("x")}), "wrong type")
	assert.Error(t, tbl.AddRow(map[string]ir.Value{"sku": ir.Text("c3"), "color": ir.Text("red")}), "unknown column")
	assert.Equal(t, 2, tbl.Len(), "failed rows are not added")
}

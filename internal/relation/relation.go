package relation

import (
	"fmt"

	"github.com/cockroachdb/errors"

	"github.com/roach88/quantq/internal/ir"
)

// Accessor exposes a relation to the predicate layer.
//
// Domain must return identifiers in a stable order without duplicates.
// Value returns ok=false for a missing cell, an unknown row or an unknown
// attribute.
type Accessor interface {
	Domain() []ir.RowID
	Value(id ir.RowID, attribute string) (ir.Value, bool)
	AttributeType(attribute string) (ir.ValueType, bool)
}

// Column describes one attribute of a Table.
type Column struct {
	Name string       `json:"name"`
	Type ir.ValueType `json:"type"`
}

// Table is an in-memory, row-major Accessor.
type Table struct {
	idColumn string
	columns  []Column
	colIndex map[string]int
	ids      []ir.RowID
	rowIndex map[ir.RowID]int
	cells    [][]ir.Value // nil cell = missing value
}

// NewTable creates an empty table. idColumn must name one of columns.
func NewTable(idColumn string, columns []Column) (*Table, error) {
	colIndex := make(map[string]int, len(columns))
	for i, c := range columns {
		if c.Name == "" {
			return nil, errors.Newf("column %d has no name", i)
		}
		if _, dup := colIndex[c.Name]; dup {
			return nil, errors.Newf("duplicate column %q", c.Name)
		}
		colIndex[c.Name] = i
	}
	if _, ok := colIndex[idColumn]; !ok {
		return nil, errors.WithHint(
			errors.Newf("id column %q is not a column of the relation", idColumn),
			"pick one of the dataset's columns with unique values",
		)
	}
	return &Table{
		idColumn: idColumn,
		columns:  append([]Column(nil), columns...),
		colIndex: colIndex,
		rowIndex: make(map[ir.RowID]int),
	}, nil
}

// AddRow appends a row. Values are keyed by column name; absent or nil
// entries are missing values. The ID cell must be present and unique.
func (t *Table) AddRow(values map[string]ir.Value) error {
	idVal, ok := values[t.idColumn]
	if !ok || idVal == nil {
		return errors.Newf("row %d: missing value in id column %q", len(t.ids), t.idColumn)
	}
	id := ir.RowID(idVal.Text())
	if _, dup := t.rowIndex[id]; dup {
		return errors.WithHint(
			errors.Newf("row %d: duplicate id %q in column %q", len(t.ids), id, t.idColumn),
			"the id column must identify rows uniquely",
		)
	}

	row := make([]ir.Value, len(t.columns))
	for name, v := range values {
		i, ok := t.colIndex[name]
		if !ok {
			return errors.Newf("row %q: unknown column %q", id, name)
		}
		if v != nil && v.Type() != t.columns[i].Type {
			return errors.Newf("row %q: column %q holds %s, got %s", id, name, t.columns[i].Type, v.Type())
		}
		row[i] = v
	}

	t.rowIndex[id] = len(t.ids)
	t.ids = append(t.ids, id)
	t.cells = append(t.cells, row)
	return nil
}

// Domain returns a copy of the row identifiers in insertion order.
func (t *Table) Domain() []ir.RowID {
	return append([]ir.RowID(nil), t.ids...)
}

// Value implements Accessor.
func (t *Table) Value(id ir.RowID, attribute string) (ir.Value, bool) {
	r, ok := t.rowIndex[id]
	if !ok {
		return nil, false
	}
	c, ok := t.colIndex[attribute]
	if !ok {
		return nil, false
	}
	v := t.cells[r][c]
	return v, v != nil
}

// AttributeType implements Accessor.
func (t *Table) AttributeType(attribute string) (ir.ValueType, bool) {
	c, ok := t.colIndex[attribute]
	if !ok {
		return ir.TypeText, false
	}
	return t.columns[c].Type, true
}

// IDColumn returns the name of the identifying column.
func (t *Table) IDColumn() string { return t.idColumn }

// Columns returns the table's columns in declaration order.
func (t *Table) Columns() []Column { return append([]Column(nil), t.columns...) }

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.ids) }

func (t *Table) String() string {
	return fmt.Sprintf("Table(%d rows, %d columns, id=%s)", len(t.ids), len(t.columns), t.idColumn)
}

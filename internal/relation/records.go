package relation

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/roach88/quantq/internal/ir"
)

// FromRecords builds a Table from decoded records (YAML, JSON, CUE).
//
// When columns is empty the schema is inferred: column names are the
// union of record keys in sorted order, types come from InferType over the
// records' textual forms. An empty idColumn applies the ID heuristic.
func FromRecords(idColumn string, columns []Column, records []map[string]any, opts LoadOptions) (*Table, error) {
	if len(columns) == 0 {
		header := recordKeys(records)
		raw := make([][]string, len(header))
		for i, name := range header {
			raw[i] = make([]string, len(records))
			for r, rec := range records {
				if v, ok := rec[name]; ok && v != nil {
					raw[i][r] = textOf(v)
				}
			}
		}
		if idColumn != "" {
			opts.IDColumn = idColumn
		}
		return build(header, raw, opts)
	}

	if idColumn == "" {
		idColumn = columns[0].Name
	}
	table, err := NewTable(idColumn, columns)
	if err != nil {
		return nil, err
	}
	for r, rec := range records {
		values := make(map[string]ir.Value, len(rec))
		for name, raw := range rec {
			t, ok := table.AttributeType(name)
			if !ok {
				return nil, errors.Newf("record %d: unknown column %q", r, name)
			}
			v, err := ValueOf(t, raw)
			if err != nil {
				return nil, errors.Wrapf(err, "record %d column %q", r, name)
			}
			if v != nil {
				values[name] = v
			}
		}
		if err := table.AddRow(values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

// ValueOf converts a decoded Go value to an ir.Value of type t.
// nil yields (nil, nil): a missing value.
func ValueOf(t ir.ValueType, raw any) (ir.Value, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case bool:
		return ir.ConvertConstant(t, ir.Bool(v))
	case int:
		return ir.ConvertConstant(t, ir.Int(int64(v)))
	case int64:
		return ir.ConvertConstant(t, ir.Int(v))
	case float64:
		return ir.ConvertConstant(t, ir.Float(v))
	case time.Time:
		return ir.ConvertConstant(t, ir.NewTimestamp(v))
	case string:
		if strings.TrimSpace(v) == "" {
			return nil, nil
		}
		return ir.ParseConstant(t, v)
	}
	return ir.ParseConstant(t, fmt.Sprint(raw))
}

func textOf(v any) string {
	switch x := v.(type) {
	case time.Time:
		return ir.NewTimestamp(x).Text()
	case float64:
		return ir.Float(x).Text()
	}
	return fmt.Sprint(v)
}

func recordKeys(records []map[string]any) []string {
	seen := make(map[string]bool)
	var keys []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				keys = append(keys, k)
			}
		}
	}
	slices.Sort(keys)
	return keys
}

package relation

import (
	"encoding/csv"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/quantq/internal/ir"
)

// LoadOptions controls CSV ingestion.
type LoadOptions struct {
	// IDColumn overrides the ID heuristic when set.
	IDColumn string

	// DateColumns lists extra columns to parse as timestamps, in addition
	// to those whose names mention a date.
	DateColumns []string

	// Comma is the field separator. Zero means ','.
	Comma rune
}

// LoadCSVFile opens path and loads it with LoadCSV.
func LoadCSVFile(path string, opts LoadOptions) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	t, err := LoadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", path)
	}
	return t, nil
}

// LoadCSV reads a header row followed by data rows, infers column types and
// chooses the ID column.
func LoadCSV(r io.Reader, opts LoadOptions) (*Table, error) {
	reader := csv.NewReader(r)
	if opts.Comma != 0 {
		reader.Comma = opts.Comma
	}
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "parse csv")
	}
	if len(records) == 0 {
		return nil, errors.New("csv has no header row")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
	}
	rows := records[1:]

	// Column-major copy for inference.
	columns := make([][]string, len(header))
	for i := range header {
		columns[i] = make([]string, len(rows))
		for r, rec := range rows {
			if i < len(rec) {
				columns[i][r] = rec[i]
			}
		}
	}

	return build(header, columns, opts)
}

// build turns raw column-major text into a typed Table.
func build(header []string, columns [][]string, opts LoadOptions) (*Table, error) {
	idColumn := opts.IDColumn
	if idColumn == "" {
		idColumn = ChooseIDColumn(header, columns)
	}

	schema := make([]Column, len(header))
	for i, name := range header {
		if IsDateColumn(name, opts.DateColumns) {
			schema[i] = Column{Name: name, Type: ir.TypeTimestamp}
			continue
		}
		schema[i] = Column{Name: name, Type: InferType(columns[i])}
	}

	table, err := NewTable(idColumn, schema)
	if err != nil {
		return nil, err
	}

	n := 0
	if len(columns) > 0 {
		n = len(columns[0])
	}
	for r := 0; r < n; r++ {
		values := make(map[string]ir.Value, len(header))
		for i, col := range schema {
			if v, ok := ParseCell(col.Type, columns[i][r]); ok {
				values[col.Name] = v
			}
		}
		if err := table.AddRow(values); err != nil {
			return nil, err
		}
	}
	return table, nil
}

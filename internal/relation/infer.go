package relation

import (
	"strconv"
	"strings"

	"github.com/roach88/quantq/internal/ir"
)

// InferType picks the narrowest value type that every non-empty cell
// parses as: boolean, then integer, then float, else text. Timestamps are
// never inferred from content; columns are parsed as timestamps only when
// the caller asks (see IsDateColumn).
func InferType(cells []string) ir.ValueType {
	candidates := []ir.ValueType{ir.TypeBool, ir.TypeInt, ir.TypeFloat}
	seen := false
	for _, raw := range cells {
		s := strings.TrimSpace(raw)
		if s == "" {
			continue
		}
		seen = true
		kept := candidates[:0]
		for _, t := range candidates {
			if cellMatches(t, s) {
				kept = append(kept, t)
			}
		}
		candidates = kept
		if len(candidates) == 0 {
			return ir.TypeText
		}
	}
	if !seen {
		return ir.TypeText
	}
	return candidates[0]
}

func cellMatches(t ir.ValueType, s string) bool {
	switch t {
	case ir.TypeBool:
		low := strings.ToLower(s)
		return low == "true" || low == "false"
	case ir.TypeInt:
		_, err := strconv.ParseInt(s, 10, 64)
		return err == nil
	case ir.TypeFloat:
		_, err := strconv.ParseFloat(s, 64)
		return err == nil
	}
	return false
}

// ParseCell converts one raw cell. Empty cells, and cells that do not parse
// as the column's type, are missing values.
func ParseCell(t ir.ValueType, raw string) (ir.Value, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil, false
	}
	switch t {
	case ir.TypeBool:
		b, err := strconv.ParseBool(strings.ToLower(s))
		if err != nil {
			return nil, false
		}
		return ir.Bool(b), true
	case ir.TypeInt:
		n, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, false
		}
		return ir.Int(n), true
	case ir.TypeFloat:
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		return ir.Float(f), true
	case ir.TypeTimestamp:
		ts, ok := ir.ParseTimestamp(s)
		if !ok {
			return nil, false
		}
		return ir.NewTimestamp(ts), true
	}
	return ir.Text(s), true
}

// IsDateColumn reports whether a column should be parsed as timestamps:
// its name mentions "date" or "fecha", or it is listed in extra.
func IsDateColumn(name string, extra []string) bool {
	low := strings.ToLower(name)
	if strings.Contains(low, "date") || strings.Contains(low, "fecha") {
		return true
	}
	for _, e := range extra {
		if strings.EqualFold(e, name) {
			return true
		}
	}
	return false
}

// ChooseIDColumn applies the ID heuristic: a column named "Date", then one
// named "Fecha", then the first column whose non-empty values are all
// distinct, else the first column.
func ChooseIDColumn(header []string, columns [][]string) string {
	if len(header) == 0 {
		return ""
	}
	for _, preferred := range []string{"Date", "Fecha"} {
		for _, h := range header {
			if h == preferred {
				return h
			}
		}
	}
	for i, h := range header {
		if i < len(columns) && isUnique(columns[i]) {
			return h
		}
	}
	return header[0]
}

func isUnique(cells []string) bool {
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		s := strings.TrimSpace(c)
		if s == "" || seen[s] {
			return false
		}
		seen[s] = true
	}
	return true
}

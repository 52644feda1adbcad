package matrix

import (
	"strings"

	"github.com/roach88/quantq/internal/ir"
)

// TruthMatrix is a square boolean grid indexed by Domain on both axes.
type TruthMatrix struct {
	// Label names what the matrix shows: a registry name, or an operator
	// expression such as "AND(p, q)".
	Label string `json:"label"`

	Domain []ir.RowID `json:"domain"`
	Cells  [][]bool   `json:"cells"`

	// OriginalSize is the domain size before truncation.
	OriginalSize int `json:"original_size"`
}

// Size returns N.
func (m *TruthMatrix) Size() int {
	return len(m.Domain)
}

// Truncated reports whether the domain was capped during generation.
func (m *TruthMatrix) Truncated() bool {
	return m.OriginalSize > len(m.Domain)
}

// At returns Cells[i][j].
func (m *TruthMatrix) At(i, j int) bool {
	return m.Cells[i][j]
}

// Count returns the number of true cells.
func (m *TruthMatrix) Count() int {
	n := 0
	for _, row := range m.Cells {
		for _, c := range row {
			if c {
				n++
			}
		}
	}
	return n
}

// Equal reports whether two matrices have the same domain and cells.
// Labels are ignored.
func (m *TruthMatrix) Equal(o *TruthMatrix) bool {
	if len(m.Domain) != len(o.Domain) {
		return false
	}
	for i, id := range m.Domain {
		if o.Domain[i] != id {
			return false
		}
	}
	for i, row := range m.Cells {
		for j, c := range row {
			if o.Cells[i][j] != c {
				return false
			}
		}
	}
	return true
}

// String renders the grid with 1/0 cells, one row per line, headed by the
// domain.
func (m *TruthMatrix) String() string {
	var b strings.Builder
	b.WriteString("X\\Y")
	for _, id := range m.Domain {
		b.WriteByte(' ')
		b.WriteString(string(id))
	}
	b.WriteByte('\n')
	for i, row := range m.Cells {
		b.WriteString(string(m.Domain[i]))
		for _, c := range row {
			if c {
				b.WriteString(" 1")
			} else {
				b.WriteString(" 0")
			}
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// newMatrix allocates an all-false matrix over domain.
func newMatrix(label string, domain []ir.RowID, originalSize int) *TruthMatrix {
	cells := make([][]bool, len(domain))
	for i := range cells {
		cells[i] = make([]bool, len(domain))
	}
	return &TruthMatrix{
		Label:        label,
		Domain:       append([]ir.RowID(nil), domain...),
		Cells:        cells,
		OriginalSize: originalSize,
	}
}

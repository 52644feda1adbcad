// Package matrix materializes truth matrices and combines them.
//
// A TruthMatrix for formula φ over domain D is the N×N grid with
//
//	Cells[i][j] = φ(X=D[i], Y=D[j])
//
// Rows are always the X axis and columns the Y axis. Generation, display
// and algebra all use this orientation.
//
// Matrices are immutable once built: every operator returns a new matrix.
package matrix

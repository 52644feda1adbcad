package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/matrix"
)

// MatrixOptions holds flags for the matrix command.
type MatrixOptions struct {
	*RootOptions
	Op      string
	With    string
	SaveAs  string
	MaxSize int
}

// MatrixResult is a truth matrix plus its summary.
type MatrixResult struct {
	*matrix.TruthMatrix
	TrueCells int             `json:"true_cells"`
	Warning   string          `json:"warning,omitempty"`
	Saved     *DefinitionView `json:"saved,omitempty"`
}

// NewMatrixCommand creates the matrix command.
func NewMatrixCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &MatrixOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "matrix <name>",
		Short: "Generate a truth matrix",
		Long: `Generate the truth matrix of a formula: cell (i, j) is the formula with
X bound to the i-th row and Y to the j-th.

With --op the matrix is the operator applied to the matrices of <name>
and, for binary operators, --with. --save-as then registers the
combination as a compound formula.

Domains larger than matrix.max_size are truncated to their first rows
with a TRUNCATED_DOMAIN warning.

Examples:
  quantq --data prices.csv matrix cheaper
  quantq --data prices.csv matrix cheaper --op AND --with pricey
  quantq --data prices.csv matrix cheaper --op NOT --save-as not_cheaper`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatrix(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "logical operator applied to the matrices")
	cmd.Flags().StringVar(&opts.With, "with", "", "second formula for binary operators")
	cmd.Flags().StringVar(&opts.SaveAs, "save-as", "", "register the combination under this name")
	cmd.Flags().IntVar(&opts.MaxSize, "max-size", 0, "domain cap (overrides matrix.max_size)")

	return cmd
}

func runMatrix(opts *MatrixOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if opts.Op == "" && (opts.With != "" || opts.SaveAs != "") {
		return formatter.Fail(withCode(ErrCodeCommand, errors.New("--with and --save-as require --op")))
	}
	var op ir.LogicOp
	if opts.Op != "" {
		var err error
		if op, err = ir.ParseLogicOp(opts.Op); err != nil {
			return formatter.Fail(withCode(ErrCodeCommand, err))
		}
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{needData: true, maxSize: opts.MaxSize})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	names := []string{name}
	if opts.With != "" {
		names = append(names, opts.With)
	}

	var m *matrix.TruthMatrix
	if opts.Op == "" {
		m, err = ws.session.GenerateMatrix(cmd.Context(), name)
	} else {
		m, err = ws.session.ApplyMatrixOperator(cmd.Context(), op, names...)
	}
	if err != nil {
		return formatter.Fail(err)
	}

	result := MatrixResult{TruthMatrix: m, TrueCells: m.Count()}
	if warn := matrix.Warning(m); warn != nil {
		result.Warning = warn.Error()
	}
	if opts.SaveAs != "" {
		def, err := ws.session.SaveAs(cmd.Context(), opts.SaveAs, op, names...)
		if err != nil {
			return formatter.Fail(err)
		}
		view := viewOf(def)
		result.Saved = &view
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputMatrixText(formatter, result)
}

func outputMatrixText(formatter *OutputFormatter, result MatrixResult) error {
	m := result.TruthMatrix
	w := formatter.Writer

	if result.Warning != "" {
		formatter.Warn("%s", result.Warning)
	}

	fmt.Fprintf(w, "%s\n", m.Label)
	if m.Size() > 0 {
		header := make([]string, 0, m.Size()+1)
		header = append(header, "X\\Y")
		for _, id := range m.Domain {
			header = append(header, string(id))
		}
		rows := make([][]string, m.Size())
		for i := range m.Cells {
			row := make([]string, 0, m.Size()+1)
			row = append(row, string(m.Domain[i]))
			for _, c := range m.Cells[i] {
				if c {
					row = append(row, pterm.Green("1"))
				} else {
					row = append(row, pterm.Gray("0"))
				}
			}
			rows[i] = row
		}
		if err := formatter.Table(header, rows); err != nil {
			return err
		}
	}

	summary := fmt.Sprintf("%dx%d, %d true", m.Size(), m.Size(), result.TrueCells)
	if m.Truncated() {
		summary += fmt.Sprintf(", truncated from %d", m.OriginalSize)
	}
	fmt.Fprintln(w, summary)

	if result.Saved != nil {
		fmt.Fprintf(w, "%s Saved as %s\n", pterm.Green("✓"), result.Saved.Caption)
	}
	return nil
}


package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/ir"
)

// EvalOptions holds flags for the eval command.
type EvalOptions struct {
	*RootOptions
	X string
	Y string
}

// EvalResult is the truth value of one formula on one binding.
type EvalResult struct {
	Formula string `json:"formula"`
	X       string `json:"x,omitempty"`
	Y       string `json:"y,omitempty"`
	Value   bool   `json:"value"`
}

// NewEvalCommand creates the eval command.
func NewEvalCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &EvalOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "eval <name>",
		Short: "Evaluate a formula on one binding",
		Long: `Evaluate a predicate or formula with X and Y bound to row IDs. A
variable that is not given stays unbound; comparisons that need it are
false.

Examples:
  quantq --data prices.csv eval cheaper --x a --y b
  quantq --data prices.csv eval pricey --x b`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEval(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.X, "x", "", "row ID bound to X")
	cmd.Flags().StringVar(&opts.Y, "y", "", "row ID bound to Y")

	return cmd
}

func runEval(opts *EvalOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{needData: true})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	x, y := ir.Unbound, ir.Unbound
	if cmd.Flags().Changed("x") {
		if err := ws.checkRow(ir.RowID(opts.X)); err != nil {
			return formatter.Fail(err)
		}
		x = ir.Bind(ir.RowID(opts.X))
	}
	if cmd.Flags().Changed("y") {
		if err := ws.checkRow(ir.RowID(opts.Y)); err != nil {
			return formatter.Fail(err)
		}
		y = ir.Bind(ir.RowID(opts.Y))
	}

	value, err := ws.session.Evaluate(name, x, y)
	if err != nil {
		return formatter.Fail(err)
	}

	result := EvalResult{Formula: name, Value: value}
	if id, ok := x.ID(); ok {
		result.X = string(id)
	}
	if id, ok := y.ID(); ok {
		result.Y = string(id)
	}

	if formatter.JSON() {
		return formatter.Success(result)
	}
	fmt.Fprintf(formatter.Writer, "%s(X=%s, Y=%s) = %t\n", name, x, y, value)
	return nil
}

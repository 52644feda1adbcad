package cli

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/quant"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	QX     string
	QY     string
	Save   bool
	Export string
}

// QueryResult is a resolved statement plus what was done with it.
type QueryResult struct {
	*quant.Report
	Statement string `json:"statement"`
	ReportID  string `json:"report_id,omitempty"`
	Export    string `json:"export,omitempty"`
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query <name>",
		Short: "Resolve a quantified statement",
		Long: `Resolve a formula under a quantifier for each variable and report the
verdict with its witnesses and counterexamples.

Quantifiers: forall, exists, none. With both set to none the satisfying
pairs are enumerated.

Exit codes:
  0 - The statement holds (or pairs were enumerated)
  1 - The statement does not hold
  2 - Command error

Examples:
  quantq --data prices.csv query cheaper --qx forall --qy exists
  quantq --data prices.csv query pricey --qx exists --qy none --save
  quantq --data prices.csv query cheaper --qx none --qy none --export pairs.csv`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.QX, "qx", "none", "quantifier of X (forall|exists|none)")
	cmd.Flags().StringVar(&opts.QY, "qy", "none", "quantifier of Y (forall|exists|none)")
	cmd.Flags().BoolVar(&opts.Save, "save", false, "store the report in the workspace")
	cmd.Flags().StringVar(&opts.Export, "export", "", "write witness and counterexample rows to a CSV file")

	return cmd
}

func runQuery(opts *QueryOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	qx, err := ir.ParseQuantifier(opts.QX)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeCommand, err))
	}
	qy, err := ir.ParseQuantifier(opts.QY)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeCommand, err))
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{needData: true})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	rep, err := ws.session.ResolveQuantified(cmd.Context(), name, qx, qy)
	if err != nil {
		return formatter.Fail(err)
	}

	result := QueryResult{
		Report:    rep,
		Statement: quant.Statement(rep.Formula, qx, qy),
	}
	if opts.Save {
		if result.ReportID, err = ws.store.SaveReport(cmd.Context(), rep); err != nil {
			return formatter.Fail(withCode(ErrCodeWorkspace, err))
		}
	}
	if opts.Export != "" {
		if err := exportReport(opts.Export, rep); err != nil {
			return formatter.Fail(withCode(ErrCodeExport, err))
		}
		result.Export = opts.Export
	}

	return outputQuery(formatter, result)
}

func outputQuery(formatter *OutputFormatter, result QueryResult) error {
	rep := result.Report
	failed := rep.Outcome == quant.OutcomeFails

	if formatter.JSON() {
		resp := CLIResponse{Status: "ok", Data: result}
		if failed {
			resp.Status = "error"
			resp.Error = &CLIError{Code: ErrCodeQueryFailed, Message: rep.Message}
		}
		if err := formatter.encode(resp); err != nil {
			return err
		}
	} else if err := outputQueryText(formatter, result); err != nil {
		return err
	}

	if failed {
		return NewExitError(ExitFailure, rep.Message)
	}
	return nil
}

func outputQueryText(formatter *OutputFormatter, result QueryResult) error {
	rep := result.Report
	w := formatter.Writer

	mark := pterm.Green("✓")
	switch rep.Outcome {
	case quant.OutcomeFails:
		mark = pterm.Red("✗")
	case quant.OutcomeEnumerated:
		mark = pterm.Cyan("•")
	}
	fmt.Fprintf(w, "%s %s: %s\n", mark, result.Statement, rep.Outcome)
	fmt.Fprintf(w, "  %s\n", rep.Message)

	if len(rep.Witnesses) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Witnesses:")
		if err := formatter.Table([]string{"X", "Y"}, rowTable(rep.Witnesses)); err != nil {
			return err
		}
	}
	if len(rep.Counterexamples) > 0 {
		label := rep.CounterexampleLabel
		if label == "" {
			label = "counterexamples"
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Counterexamples (%s):\n", label)
		if err := formatter.Table([]string{"X", "Y"}, rowTable(rep.Counterexamples)); err != nil {
			return err
		}
	}
	if len(rep.Diagnostics) > 0 && formatter.Verbose {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Failing Y for the first X examined:")
		if err := formatter.Table([]string{"X", "Y"}, rowTable(rep.Diagnostics)); err != nil {
			return err
		}
	}

	if result.ReportID != "" {
		fmt.Fprintf(w, "\nSaved report %s\n", result.ReportID)
	}
	if result.Export != "" {
		fmt.Fprintf(w, "Exported %d row(s) to %s\n", len(rep.Witnesses)+len(rep.Counterexamples), result.Export)
	}
	return nil
}

func rowTable(rows []quant.Row) [][]string {
	out := make([][]string, len(rows))
	for i, r := range rows {
		out[i] = []string{cellText(r.X), cellText(r.Y)}
	}
	return out
}

func cellText(id ir.RowID) string {
	if id == "" {
		return "-"
	}
	return string(id)
}

// exportReport writes the report's rows as CSV with columns kind, x, y.
// An unbound variable is an empty cell.
func exportReport(path string, rep *quant.Report) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = errors.Wrapf(cerr, "close %s", path)
		}
	}()

	w := csv.NewWriter(f)
	records := [][]string{{"kind", "x", "y"}}
	for _, r := range rep.Witnesses {
		records = append(records, []string{"witness", string(r.X), string(r.Y)})
	}
	for _, r := range rep.Counterexamples {
		records = append(records, []string{"counterexample", string(r.X), string(r.Y)})
	}
	if err := w.WriteAll(records); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	return nil
}

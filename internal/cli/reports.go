package cli

import (
	"fmt"
	"strconv"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/quant"
	"github.com/roach88/quantq/internal/store"
)

// ReportsOptions holds flags for the reports commands.
type ReportsOptions struct {
	*RootOptions
	Formula string
	Export  string
}

// NewReportsCommand creates the reports command group.
func NewReportsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReportsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List reports saved with query --save",
		Long: `List the quantified query reports stored in the workspace, oldest
first. Use "reports show <id>" to print one in full.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportsList(opts, cmd)
		},
	}
	cmd.Flags().StringVar(&opts.Formula, "formula", "", "only reports of this formula")

	show := &cobra.Command{
		Use:           "show <id>",
		Short:         "Print a saved report",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReportsShow(opts, args[0], cmd)
		},
	}
	show.Flags().StringVar(&opts.Export, "export", "", "write witness and counterexample rows to a CSV file")
	cmd.AddCommand(show)

	return cmd
}

func runReportsList(opts *ReportsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	reports, err := ws.store.ListReports(cmd.Context(), opts.Formula)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeWorkspace, err))
	}

	if formatter.JSON() {
		return formatter.Success(reports)
	}
	if len(reports) == 0 {
		fmt.Fprintln(formatter.Writer, "No saved reports.")
		return nil
	}
	rows := make([][]string, len(reports))
	for i, r := range reports {
		rows[i] = []string{
			r.ID,
			quant.Statement(r.Formula, r.QX, r.QY),
			string(r.Outcome),
			strconv.Itoa(r.Failures),
			r.CreatedAt,
		}
	}
	return formatter.Table([]string{"ID", "Statement", "Outcome", "Failures", "Created"}, rows)
}

func runReportsShow(opts *ReportsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	saved, err := ws.store.GetReport(cmd.Context(), id)
	if errors.Is(err, store.ErrReportNotFound) {
		return formatter.Fail(withCode(ErrCodeNotFound, errors.WithHint(err, `run "quantq reports" to list saved reports`)))
	}
	if err != nil {
		return formatter.Fail(withCode(ErrCodeWorkspace, err))
	}

	rep := saved.Report
	result := QueryResult{
		Report:    rep,
		Statement: quant.Statement(rep.Formula, rep.QX, rep.QY),
		ReportID:  saved.ID,
	}
	if opts.Export != "" {
		if err := exportReport(opts.Export, rep); err != nil {
			return formatter.Fail(withCode(ErrCodeExport, err))
		}
		result.Export = opts.Export
	}

	// A stored verdict is not re-judged: showing a failed report succeeds.
	if formatter.JSON() {
		return formatter.Success(result)
	}
	return outputQueryText(formatter, result)
}

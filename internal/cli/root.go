package cli

import (
	"fmt"
	"slices"

	"github.com/spf13/cobra"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "json" | "text"
	Config   string // config file; empty means ./quantq.toml if present
	Data     string // dataset CSV
	DB       string // workspace SQLite file; overrides workspace.path
	IDColumn string // overrides dataset.id_column
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the quantq CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "quantq",
		Short: "quantq - quantified predicates over tabular data",
		Long: `Define first-order predicates over the rows of a dataset and evaluate
them under quantifiers, as truth matrices, or combined with boolean
matrix algebra.

Definitions are journaled to a SQLite workspace and replayed on every
invocation, so a workspace can be built up one command at a time.

Examples:
  quantq --data prices.csv define simple cheaper --attr price --op '<'
  quantq --data prices.csv query cheaper --qx forall --qy exists
  quantq --data prices.csv matrix cheaper
  quantq test ./scenarios`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Validate format flag
			if !isValidFormat(opts.Format) {
				return fmt.Errorf("invalid format %q: must be one of %v", opts.Format, ValidFormats)
			}
			return nil
		},
	}

	// Global flags
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVar(&opts.Config, "config", "", "config file (default ./quantq.toml)")
	cmd.PersistentFlags().StringVar(&opts.Data, "data", "", "dataset CSV file")
	cmd.PersistentFlags().StringVar(&opts.DB, "db", "", "workspace SQLite file (overrides workspace.path)")
	cmd.PersistentFlags().StringVar(&opts.IDColumn, "id-column", "", "ID column of the dataset (overrides dataset.id_column)")

	// Add subcommands
	cmd.AddCommand(NewDefineCommand(opts))
	cmd.AddCommand(NewRenameCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewCompileCommand(opts))
	cmd.AddCommand(NewEvalCommand(opts))
	cmd.AddCommand(NewQueryCommand(opts))
	cmd.AddCommand(NewReportsCommand(opts))
	cmd.AddCommand(NewMatrixCommand(opts))
	cmd.AddCommand(NewTestCommand(opts))
	cmd.AddCommand(NewConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// newFormatter builds the formatter for a command invocation.
func newFormatter(opts *RootOptions, cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(), // Verbose logs go to stderr to avoid corrupting JSON
		Verbose:   opts.Verbose,
	}
}

package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/compiler"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
)

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Check bool // compile only, register nothing
}

// CompilationResult lists the definitions of a compiled library.
type CompilationResult struct {
	Library     string           `json:"library"`
	Definitions []DefinitionView `json:"definitions"`
	Registered  bool             `json:"registered"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CompileOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compile <library>",
		Short: "Load a CUE predicate library into the workspace",
		Long: `Compile a CUE predicate library (a .cue file, or a directory holding
one CUE package) and register its definitions.

The library is validated against the library schema and checked for
reference cycles. Registration is all or nothing: if any definition
fails, the workspace is left unchanged.

Simple predicates are checked against the dataset, so --data is required
unless --check is given.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "compile and validate only")

	return cmd
}

func runCompile(opts *CompileOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	defs, err := compiler.LoadLibrary(path)
	if err != nil {
		return formatter.Fail(compileError(err))
	}
	formatter.VerboseLog("Compiled %d definition(s) from %s", len(defs), path)

	result := CompilationResult{
		Library:     path,
		Definitions: make([]DefinitionView, len(defs)),
	}
	for i, def := range defs {
		result.Definitions[i] = viewOf(def)
	}

	if !opts.Check {
		ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{needData: hasSimple(defs)})
		if err != nil {
			return formatter.Fail(err)
		}
		defer ws.Close()

		if err := ws.session.RegisterAll(cmd.Context(), defs); err != nil {
			return formatter.Fail(err)
		}
		result.Registered = true
		// Constants are converted on registration; show the stored form.
		for i, def := range defs {
			if stored, ok := ws.session.Registry().Get(def.DefName()); ok {
				result.Definitions[i].Caption = registry.Caption(stored)
			}
		}
	}

	return outputCompileSuccess(formatter, result)
}

// compileError tags library errors, keeping core codes such as
// REFERENCE_CYCLE.
func compileError(err error) error {
	if ir.CodeOf(err) != "" {
		return err
	}
	var ce *compiler.CompileError
	if errors.As(err, &ce) && ce.Pos.IsValid() {
		err = errors.WithHintf(err, "see %s line %d", ce.Pos.Filename(), ce.Pos.Line())
	}
	return withCode(ErrCodeCompile, err)
}

func hasSimple(defs []ir.Definition) bool {
	for _, def := range defs {
		if def.Kind() == ir.KindSimple {
			return true
		}
	}
	return false
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result CompilationResult) error {
	if formatter.JSON() {
		return formatter.Success(result)
	}

	verb := "Registered"
	if !result.Registered {
		verb = "Compiled"
	}
	fmt.Fprintf(formatter.Writer, "%s %s %d definition(s) from %s\n\n",
		pterm.Green("✓"), verb, len(result.Definitions), result.Library)

	for _, d := range result.Definitions {
		fmt.Fprintf(formatter.Writer, "  %s\n", d.Caption)
	}
	return nil
}

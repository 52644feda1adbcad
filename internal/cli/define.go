package cli

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/engine"
	"github.com/roach88/quantq/internal/ir"
	"github.com/roach88/quantq/internal/registry"
)

// DefineOptions holds flags for the define subcommands.
type DefineOptions struct {
	*RootOptions
	Attribute string
	Op        string
	Left      string
	Var       bool
	Const     string
}

// DefinitionView is the JSON shape of one registry entry.
type DefinitionView struct {
	Name       string            `json:"name"`
	Kind       ir.DefinitionKind `json:"kind"`
	Caption    string            `json:"caption"`
	Dependents []string          `json:"dependents,omitempty"`
}

func viewOf(def ir.Definition) DefinitionView {
	return DefinitionView{
		Name:    def.DefName(),
		Kind:    def.Kind(),
		Caption: registry.Caption(def),
	}
}

// NewDefineCommand creates the define command group.
func NewDefineCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "define",
		Short: "Register a predicate or formula",
		Long: `Register a simple predicate over one attribute, or a compound formula
combining registered entries with a logical operator.

Names are unique ignoring case. Registration never overwrites an entry.`,
	}

	cmd.AddCommand(newDefineSimpleCommand(rootOpts))
	cmd.AddCommand(newDefineCompoundCommand(rootOpts))

	return cmd
}

func newDefineSimpleCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DefineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "simple <name>",
		Short: "Register name(X,Y): left.attr OP right",
		Long: `Register a simple predicate. The right operand is either the other
variable (--var) or a constant (--const) converted to the attribute's type.

Operators: =, >, <, >=, <=, !=, contains, startswith, endswith

Examples:
  quantq --data prices.csv define simple cheaper --attr price --op '<' --var
  quantq --data prices.csv define simple pricey --attr price --op '>' --const 100`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefineSimple(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Attribute, "attr", "", "attribute (column) compared")
	cmd.Flags().StringVar(&opts.Op, "op", "", "relational operator")
	cmd.Flags().StringVar(&opts.Left, "left", "X", "variable on the left-hand side (X|Y)")
	cmd.Flags().BoolVar(&opts.Var, "var", false, "compare against the other variable")
	cmd.Flags().StringVar(&opts.Const, "const", "", "compare against a constant")
	cmd.MarkFlagsMutuallyExclusive("var", "const")
	_ = cmd.MarkFlagRequired("attr")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

func runDefineSimple(opts *DefineOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	op, err := ir.ParseRelOp(opts.Op)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeCommand, err))
	}
	left, err := ir.ParseVar(opts.Left)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeCommand, err))
	}
	right := engine.OtherVariable()
	if cmd.Flags().Changed("const") {
		right = engine.ConstantOperand(opts.Const)
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{needData: true})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	def, err := ws.session.RegisterSimple(cmd.Context(), name, opts.Attribute, op, left, right)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputRegistered(formatter, def)
}

func newDefineCompoundCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DefineOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "compound <name> <arg> [arg]",
		Short: "Register name := OP(args)",
		Long: `Register a compound formula over registered entries.

Operators: NOT and IMPLIES take one or two arguments; AND, OR, XOR and
BICONDITIONAL take exactly two.

Examples:
  quantq define compound not_cheaper --op NOT cheaper
  quantq define compound both --op AND cheaper pricey`,
		Args:          cobra.RangeArgs(2, 3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDefineCompound(opts, args[0], args[1:], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Op, "op", "", "logical operator")
	_ = cmd.MarkFlagRequired("op")

	return cmd
}

func runDefineCompound(opts *DefineOptions, name string, args []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	op, err := ir.ParseLogicOp(opts.Op)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeCommand, err))
	}

	ws, err := openWorkspace(cmd.Context(), opts.RootOptions, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	def, err := ws.session.RegisterCompound(cmd.Context(), name, op, args...)
	if err != nil {
		return formatter.Fail(err)
	}
	return outputRegistered(formatter, def)
}

func outputRegistered(formatter *OutputFormatter, def ir.Definition) error {
	if formatter.JSON() {
		return formatter.Success(viewOf(def))
	}
	fmt.Fprintf(formatter.Writer, "%s Registered %s\n", pterm.Green("✓"), registry.Caption(def))
	return nil
}

// NewRenameCommand creates the rename command.
func NewRenameCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a registry entry",
		Long: `Rename a predicate or formula. Compounds referencing it are updated,
so they keep evaluating the same definition.`,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRename(rootOpts, args[0], args[1], cmd)
		},
	}
}

func runRename(opts *RootOptions, oldName, newName string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := openWorkspace(cmd.Context(), opts, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	if err := ws.session.Rename(cmd.Context(), oldName, newName); err != nil {
		return formatter.Fail(err)
	}
	def, ok := ws.session.Registry().Get(newName)
	if !ok {
		return formatter.Fail(errors.AssertionFailedf("renamed entry %q not found", newName))
	}

	if formatter.JSON() {
		return formatter.Success(viewOf(def))
	}
	fmt.Fprintf(formatter.Writer, "%s Renamed %s to %s\n", pterm.Green("✓"), oldName, def.DefName())
	return nil
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a registry entry",
		Long: `Remove a predicate or formula. Entries referenced by a compound cannot
be removed (PREDICATE_IN_USE); remove the dependents first.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(rootOpts, args[0], cmd)
		},
	}
}

func runRemove(opts *RootOptions, name string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := openWorkspace(cmd.Context(), opts, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	def, err := ws.session.Registry().Lookup(name)
	if err != nil {
		return formatter.Fail(err)
	}
	if err := ws.session.Remove(cmd.Context(), name); err != nil {
		return formatter.Fail(err)
	}

	if formatter.JSON() {
		return formatter.Success(viewOf(def))
	}
	fmt.Fprintf(formatter.Writer, "%s Removed %s\n", pterm.Green("✓"), def.DefName())
	return nil
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:           "list",
		Short:         "List registered predicates and formulas",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(rootOpts, cmd)
		},
	}
}

func runList(opts *RootOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd)

	ws, err := openWorkspace(cmd.Context(), opts, workspaceOptions{})
	if err != nil {
		return formatter.Fail(err)
	}
	defer ws.Close()

	reg := ws.session.Registry()
	views := make([]DefinitionView, 0, reg.Len())
	for _, def := range reg.Definitions() {
		v := viewOf(def)
		v.Dependents = reg.Dependents(def.DefName())
		views = append(views, v)
	}

	if formatter.JSON() {
		return formatter.Success(views)
	}
	if len(views) == 0 {
		fmt.Fprintln(formatter.Writer, "No predicates registered.")
		return nil
	}
	rows := make([][]string, len(views))
	for i, v := range views {
		rows[i] = []string{v.Name, string(v.Kind), v.Caption}
	}
	return formatter.Table([]string{"Name", "Kind", "Caption"}, rows)
}

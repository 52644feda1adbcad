package cli

import (
	"bytes"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/config"
)

// ConfigOptions holds flags for the config commands.
type ConfigOptions struct {
	*RootOptions
	Out   string
	Force bool
}

// NewConfigCommand creates the config command group.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage quantq configuration",
		Long: `Settings come from built-in defaults, then a TOML file (--config, or
./quantq.toml when present), then QUANTQ_* environment variables such as
QUANTQ_MATRIX_MAX_SIZE.`,
	}

	initCmd := &cobra.Command{
		Use:           "init",
		Short:         "Write the default configuration as TOML",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigInit(opts, cmd)
		},
	}
	initCmd.Flags().StringVarP(&opts.Out, "out", "o", config.DefaultFile, "file to write")
	initCmd.Flags().BoolVar(&opts.Force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:           "show",
		Short:         "Print the effective configuration",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(opts, cmd)
		},
	}

	cmd.AddCommand(initCmd, showCmd)
	return cmd
}

func runConfigInit(opts *ConfigOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	if err := config.InitFile(opts.Out, opts.Force); err != nil {
		return formatter.Fail(withCode(ErrCodeConfig, err))
	}

	if formatter.JSON() {
		return formatter.Success(map[string]string{"path": opts.Out})
	}
	fmt.Fprintf(formatter.Writer, "%s Wrote default configuration to %s\n", pterm.Green("✓"), opts.Out)
	return nil
}

func runConfigShow(opts *ConfigOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		return formatter.Fail(withCode(ErrCodeConfig, err))
	}

	if formatter.JSON() {
		return formatter.Success(cfg)
	}
	var buf bytes.Buffer
	if err := config.Write(&buf, *cfg); err != nil {
		return formatter.Fail(withCode(ErrCodeConfig, err))
	}
	_, err = formatter.Writer.Write(buf.Bytes())
	return err
}

package cli

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/roach88/quantq/internal/config"
	"github.com/roach88/quantq/internal/harness"
	"github.com/roach88/quantq/internal/logging"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
	Update bool   // regenerate golden files
	Filter string // scenario filter (glob pattern)
}

// ScenarioResult holds the result of a single scenario execution.
type ScenarioResult struct {
	Name   string   `json:"name"`
	File   string   `json:"file"`
	Pass   bool     `json:"pass"`
	Errors []string `json:"errors,omitempty"`
}

// TestResult holds the overall test result.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <path>...",
		Short: "Run predicate scenarios",
		Long: `Run YAML scenario files: each defines a dataset, registers predicates
and checks evaluations, quantified verdicts and truth matrices.

Paths may be scenario files or directories, searched recursively for
.yaml and .yml files. When a golden file exists for a scenario its
rendered trace must match it. Golden files live in a golden/ directory
next to the scenario, or next to a scenarios/ directory.

Every scenario runs in its own in-memory workspace; --data and --db are
ignored.

Exit codes:
  0 - All scenarios passed
  1 - One or more scenarios failed
  2 - Command error (invalid paths, etc.)

Examples:
  quantq test ./scenarios
  quantq test ./scenarios --filter "order*"
  quantq test ./scenarios --update
  quantq test ./scenarios/shop.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTests(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.Update, "update", false, "regenerate golden files")
	cmd.Flags().StringVar(&opts.Filter, "filter", "", "filter scenarios by glob pattern")

	return cmd
}

func runTests(opts *TestOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	var scenarioFiles []string
	for _, p := range paths {
		if _, err := os.Stat(p); os.IsNotExist(err) {
			return formatter.Fail(withCode(ErrCodeNotFound, fmt.Errorf("scenario path not found: %s", p)))
		}
		files, err := findScenarioFiles(p, opts.Filter)
		if err != nil {
			return formatter.Fail(withCode(ErrCodeCommand, fmt.Errorf("failed to find scenarios: %w", err)))
		}
		scenarioFiles = append(scenarioFiles, files...)
	}

	runOpts, err := harnessOptions(opts.RootOptions)
	if err != nil {
		return formatter.Fail(err)
	}

	if len(scenarioFiles) == 0 {
		if formatter.JSON() {
			return outputTestJSON(formatter, TestResult{
				Scenarios: []ScenarioResult{},
				Total:     0,
			})
		}
		fmt.Fprintln(formatter.Writer, "No scenarios found.")
		return nil
	}

	// Run scenarios
	result := TestResult{
		Scenarios: make([]ScenarioResult, 0, len(scenarioFiles)),
		Total:     len(scenarioFiles),
	}

	for _, scenarioFile := range scenarioFiles {
		scenResult := runScenario(scenarioFile, opts, formatter, runOpts)
		result.Scenarios = append(result.Scenarios, scenResult)

		if scenResult.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}

	// Output results
	if formatter.JSON() {
		return outputTestJSON(formatter, result)
	}

	return outputTestText(formatter, result)
}

// harnessOptions carries the matrix cap and logger from config into each
// scenario run.
func harnessOptions(opts *RootOptions) ([]harness.Option, error) {
	cfg, err := config.Load(opts.Config)
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	logger, err := logging.New(cfg.Log.Format, logging.Verbose(cfg.Log.Level, opts.Verbose))
	if err != nil {
		return nil, withCode(ErrCodeConfig, err)
	}
	return []harness.Option{
		harness.WithLogger(logger),
		harness.WithMaxMatrixSize(cfg.Matrix.MaxSize),
	}, nil
}

// findScenarioFiles finds all YAML scenario files under root, which may
// itself be a scenario file.
func findScenarioFiles(root string, filter string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() {
			return nil
		}

		// Only process .yaml and .yml files
		ext := filepath.Ext(path)
		if ext != ".yaml" && ext != ".yml" {
			return nil
		}

		// Apply filter if specified
		if filter != "" {
			base := filepath.Base(path)
			name := strings.TrimSuffix(base, ext)
			matched, err := filepath.Match(filter, name)
			if err != nil {
				return fmt.Errorf("invalid filter pattern: %w", err)
			}
			if !matched {
				return nil
			}
		}

		files = append(files, path)
		return nil
	})

	return files, err
}

// runScenario executes a single scenario and returns the result.
func runScenario(scenarioFile string, opts *TestOptions, formatter *OutputFormatter, runOpts []harness.Option) ScenarioResult {
	w := formatter.Writer
	text := !formatter.JSON()

	failed := func(name string, errs ...string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "%s %s\n", pterm.Red("✗"), name)
			for _, e := range errs {
				fmt.Fprintf(w, "  %s\n", strings.TrimRight(e, "\n"))
			}
		}
		return ScenarioResult{Name: name, File: scenarioFile, Pass: false, Errors: errs}
	}
	passed := func(name, note string) ScenarioResult {
		if text {
			fmt.Fprintf(w, "%s %s%s\n", pterm.Green("✓"), name, note)
		}
		return ScenarioResult{Name: name, File: scenarioFile, Pass: true}
	}

	scenario, err := harness.LoadScenario(scenarioFile)
	if err != nil {
		return failed(filepath.Base(scenarioFile), fmt.Sprintf("load error: %v", err))
	}
	formatter.VerboseLog("Running %s (%d steps)", scenario.Name, len(scenario.Steps))

	result, err := harness.Run(scenario, runOpts...)
	if err != nil {
		return failed(scenario.Name, fmt.Sprintf("execution error: %v", err))
	}

	trace := harness.RenderTrace(scenario.Name, result)
	goldenPath := goldenFilePath(scenarioFile, scenario.Name)

	if opts.Update {
		if err := updateGoldenFile(goldenPath, trace); err != nil {
			return failed(scenario.Name, fmt.Sprintf("golden update error: %v", err))
		}
		return passed(scenario.Name, " (golden updated)")
	}

	var errs []string
	if golden, err := os.ReadFile(goldenPath); err == nil {
		if !bytes.Equal(golden, trace) {
			errs = append(errs, "golden file mismatch (run with --update to regenerate)")
		}
	} else if !os.IsNotExist(err) {
		errs = append(errs, fmt.Sprintf("golden comparison error: %v", err))
	}
	errs = append(errs, result.Errors...)

	if len(errs) > 0 || !result.Pass {
		return failed(scenario.Name, errs...)
	}
	return passed(scenario.Name, "")
}

// goldenFilePath returns the golden file of a scenario: golden/<name>.golden
// beside the scenario file, or beside its directory when that directory is
// named "scenarios" (the testdata/scenarios + testdata/golden layout).
func goldenFilePath(scenarioFile, scenarioName string) string {
	dir := filepath.Dir(scenarioFile)
	if filepath.Base(dir) == "scenarios" {
		dir = filepath.Dir(dir)
	}
	return filepath.Join(dir, "golden", scenarioName+".golden")
}

// updateGoldenFile writes the current trace as the golden file.
func updateGoldenFile(goldenPath string, trace []byte) error {
	// Ensure golden directory exists
	if err := os.MkdirAll(filepath.Dir(goldenPath), 0755); err != nil {
		return fmt.Errorf("failed to create golden directory: %w", err)
	}

	if err := os.WriteFile(goldenPath, trace, 0644); err != nil {
		return fmt.Errorf("failed to write golden file: %w", err)
	}

	return nil
}

// outputTestJSON outputs the test result as JSON.
func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if result.Failed > 0 {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    ErrCodeTestFailed,
			Message: fmt.Sprintf("%d scenario(s) failed", result.Failed),
		}
	}

	if err := formatter.encode(response); err != nil {
		return err
	}

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

// outputTestText outputs the test result as text.
func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Test Summary: %d passed, %d failed, %d total\n", result.Passed, result.Failed, result.Total)

	if result.Failed > 0 {
		// Test failures = exit code 1
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}

	fmt.Fprintf(w, "%s All scenarios passed\n", pterm.Green("✓"))
	return nil
}

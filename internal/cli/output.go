package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/pterm/pterm"

	"github.com/roach88/quantq/internal/ir"
)

// Exit codes for CLI commands.
const (
	ExitSuccess      = 0 // Successful execution
	ExitFailure      = 1 // Verdict failure (statement does not hold, scenarios failed)
	ExitCommandError = 2 // Command error (bad flags, unknown predicate, unreadable dataset, etc.)
)

// Error codes for failures that do not come from the predicate core. Core
// errors keep their own codes (DUPLICATE_NAME, UNKNOWN_PREDICATE, ...).
const (
	ErrCodeCommand     = "E_COMMAND"
	ErrCodeConfig      = "E_CONFIG"
	ErrCodeDataset     = "E_DATASET"
	ErrCodeWorkspace   = "E_WORKSPACE"
	ErrCodeCompile     = "E_COMPILE"
	ErrCodeUnknownRow  = "E_UNKNOWN_ROW"
	ErrCodeExport      = "E_EXPORT"
	ErrCodeNotFound    = "E_NOT_FOUND"
	ErrCodeQueryFailed = "E_QUERY_FAILED"
	ErrCodeTestFailed  = "E_TEST_FAILED"
)

// ExitError represents an error with a specific exit code.
// Use this to return errors with meaningful exit codes from CLI commands.
type ExitError struct {
	Code    int    // Exit code (use ExitFailure or ExitCommandError)
	Message string // Error message
	Err     error  // Underlying error (optional)
}

func (e *ExitError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// NewExitError creates a new ExitError with the given code and message.
func NewExitError(code int, message string) *ExitError {
	return &ExitError{Code: code, Message: message}
}

// WrapExitError wraps an existing error with an exit code.
func WrapExitError(code int, message string, err error) *ExitError {
	return &ExitError{Code: code, Message: message, Err: err}
}

// GetExitCode extracts the exit code from an error.
// Errors that are not an ExitError (usage errors, unknown flags) are
// command errors.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return ExitCommandError
}

// codedError attaches a CLI error code to an error.
type codedError struct {
	code string
	err  error
}

func (e *codedError) Error() string { return e.err.Error() }
func (e *codedError) Unwrap() error { return e.err }

// withCode tags err with code. A nil err stays nil.
func withCode(code string, err error) error {
	if err == nil {
		return nil
	}
	return &codedError{code: code, err: err}
}

// errorCode picks the code reported for err: the core error code if there
// is one, then a CLI code, then ErrCodeCommand.
func errorCode(err error) string {
	if c := ir.CodeOf(err); c != "" {
		return string(c)
	}
	var ce *codedError
	if errors.As(err, &ce) {
		return ce.code
	}
	return ErrCodeCommand
}

// OutputFormatter handles JSON vs text output for CLI commands.
type OutputFormatter struct {
	Format    string
	Writer    io.Writer
	ErrWriter io.Writer // Separate writer for verbose/diagnostic output (defaults to Writer)
	Verbose   bool
}

// CLIResponse is the standard JSON response format for CLI output.
type CLIResponse struct {
	Status string    `json:"status"`          // "ok" or "error"
	Data   any       `json:"data,omitempty"`  // success payload
	Error  *CLIError `json:"error,omitempty"` // error details
}

// CLIError is the error structure for CLI responses.
type CLIError struct {
	Code    string `json:"code"`              // DUPLICATE_NAME, E_DATASET, ...
	Message string `json:"message"`           // human-readable message
	Details any    `json:"details,omitempty"` // additional context
}

// JSON reports whether the formatter emits JSON.
func (f *OutputFormatter) JSON() bool {
	return f.Format == "json"
}

// Success outputs a successful result in the configured format.
func (f *OutputFormatter) Success(data any) error {
	if f.JSON() {
		return f.encode(CLIResponse{Status: "ok", Data: data})
	}

	// Human-readable text output
	fmt.Fprintln(f.Writer, data)
	return nil
}

// Error outputs an error in the configured format.
func (f *OutputFormatter) Error(code, message string, details any) error {
	if f.JSON() {
		return f.encode(CLIResponse{
			Status: "error",
			Error: &CLIError{
				Code:    code,
				Message: message,
				Details: details,
			},
		})
	}

	// Human-readable error
	fmt.Fprintf(f.Writer, "%s [%s]: %s\n", pterm.Red("Error"), code, message)
	if f.Verbose && details != nil {
		fmt.Fprintf(f.Writer, "Details: %v\n", details)
	}
	return nil
}

// Fail reports err and returns it as a command error. Hints attached with
// errors.WithHint are shown in both formats.
func (f *OutputFormatter) Fail(err error) error {
	code := errorCode(err)
	hint := errors.FlattenHints(err)

	if f.JSON() {
		var details any
		if hint != "" {
			details = map[string]string{"hint": hint}
		}
		_ = f.Error(code, err.Error(), details)
	} else {
		_ = f.Error(code, err.Error(), nil)
		if hint != "" {
			fmt.Fprintf(f.Writer, "Hint: %s\n", hint)
		}
	}
	return WrapExitError(ExitCommandError, code, err)
}

// Table renders rows under header with pterm. It is a no-op for an empty
// header.
func (f *OutputFormatter) Table(header []string, rows [][]string) error {
	if len(header) == 0 {
		return nil
	}
	data := pterm.TableData{header}
	data = append(data, rows...)
	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "render table")
	}
	fmt.Fprintln(f.Writer, strings.TrimRight(out, "\n"))
	return nil
}

// VerboseLog outputs a message only if verbose mode is enabled.
// Uses ErrWriter if set, otherwise falls back to Writer.
// When format is JSON, verbose logs go to ErrWriter to avoid corrupting JSON output.
func (f *OutputFormatter) VerboseLog(format string, args ...any) {
	if !f.Verbose {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), format+"\n", args...)
}

// Warn writes a warning to the diagnostic writer in text mode. JSON output
// carries warnings in its payload instead.
func (f *OutputFormatter) Warn(format string, args ...any) {
	if f.JSON() {
		return
	}
	fmt.Fprintf(f.GetErrWriter(), "%s %s\n", pterm.Yellow("Warning:"), fmt.Sprintf(format, args...))
}

// GetErrWriter returns the appropriate writer for diagnostic output.
// Returns ErrWriter if set, otherwise Writer.
func (f *OutputFormatter) GetErrWriter() io.Writer {
	if f.ErrWriter != nil {
		return f.ErrWriter
	}
	return f.Writer
}

func (f *OutputFormatter) encode(resp CLIResponse) error {
	encoder := json.NewEncoder(f.Writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(resp)
}

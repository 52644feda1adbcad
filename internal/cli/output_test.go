package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/quantq/internal/ir"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	data := map[string]string{"result": "success"}
	err := formatter.Success(data)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
	assert.NotNil(t, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "json",
		Writer: buf,
	}

	err := formatter.Error("E_DATASET", "dataset unreadable", nil)
	require.NoError(t, err)

	var resp CLIResponse
	err = json.Unmarshal(buf.Bytes(), &resp)
	require.NoError(t, err)
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E_DATASET", resp.Error.Code)
	assert.Equal(t, "dataset unreadable", resp.Error.Message)
	assert.Nil(t, resp.Error.Details)
}

func TestOutputFormatter_TextSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Success("3 predicates registered")
	require.NoError(t, err)
	assert.Equal(t, "3 predicates registered\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format: "text",
		Writer: buf,
	}

	err := formatter.Error("UNKNOWN_PREDICATE", "no predicate named cheap", map[string]string{"name": "cheap"})
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Error [UNKNOWN_PREDICATE]: no predicate named cheap")
	assert.NotContains(t, buf.String(), "Details")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("UNKNOWN_PREDICATE", "no predicate named cheap", "cheap"))
	assert.Contains(t, buf.String(), "Details: cheap")
}

func TestOutputFormatter_FailWithHint(t *testing.T) {
	cause := errors.WithHint(errors.New("no dataset given"), "pass --data <file.csv>")

	t.Run("json", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "json", Writer: buf}

		err := formatter.Fail(withCode(ErrCodeDataset, cause))
		require.Error(t, err)
		assert.Equal(t, ExitCommandError, GetExitCode(err))

		var resp struct {
			Status string `json:"status"`
			Error  struct {
				Code    string            `json:"code"`
				Message string            `json:"message"`
				Details map[string]string `json:"details"`
			} `json:"error"`
		}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
		assert.Equal(t, "error", resp.Status)
		assert.Equal(t, ErrCodeDataset, resp.Error.Code)
		assert.Equal(t, "no dataset given", resp.Error.Message)
		assert.Equal(t, "pass --data <file.csv>", resp.Error.Details["hint"])
	})

	t.Run("text", func(t *testing.T) {
		buf := &bytes.Buffer{}
		formatter := &OutputFormatter{Format: "text", Writer: buf}

		err := formatter.Fail(withCode(ErrCodeDataset, cause))
		require.Error(t, err)
		assert.Contains(t, buf.String(), "Error [E_DATASET]: no dataset given")
		assert.Contains(t, buf.String(), "Hint: pass --data <file.csv>")
	})
}

func TestOutputFormatter_FailKeepsCoreCode(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Fail(fmt.Errorf("register: %w", ir.NewDuplicateNameError("cheaper")))
	require.Error(t, err)

	var exitErr *ExitError
	require.ErrorAs(t, err, &exitErr)
	assert.Equal(t, string(ir.ErrCodeDuplicateName), exitErr.Message)
	assert.True(t, ir.IsDuplicateName(err))
	assert.NotContains(t, buf.String(), "Hint:")
}

func TestErrorCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"core error", ir.NewUnknownPredicateError("p"), string(ir.ErrCodeUnknownPredicate)},
		{"tagged error", withCode(ErrCodeExport, errors.New("disk full")), ErrCodeExport},
		{"core code beats tag", withCode(ErrCodeCompile, ir.NewReferenceCycleError([]string{"a", "b", "a"})), string(ir.ErrCodeReferenceCycle)},
		{"plain error", errors.New("boom"), ErrCodeCommand},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errorCode(tt.err))
		})
	}

	assert.NoError(t, withCode(ErrCodeExport, nil))
}

func TestOutputFormatter_Table(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	err := formatter.Table([]string{"X", "Y"}, [][]string{{"a", "b"}, {"c", "b"}})
	require.NoError(t, err)
	out := buf.String()
	assert.Contains(t, out, "X")
	assert.Contains(t, out, "a")
	assert.Contains(t, out, "c")

	buf.Reset()
	require.NoError(t, formatter.Table(nil, [][]string{{"a"}}))
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLog(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: true,
	}

	formatter.VerboseLog("Loading %s", "prices.csv")
	assert.Contains(t, buf.String(), "Loading prices.csv")
}

func TestOutputFormatter_VerboseLogDisabled(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:  "text",
		Writer:  buf,
		Verbose: false,
	}

	formatter.VerboseLog("Loading %s", "prices.csv")
	assert.Empty(t, buf.String())
}

func TestOutputFormatter_VerboseLogWithErrWriter(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	formatter := &OutputFormatter{
		Format:    "json",
		Writer:    stdout,
		ErrWriter: stderr,
		Verbose:   true,
	}

	formatter.VerboseLog("Loading %s", "prices.csv")
	assert.Empty(t, stdout.String(), "Verbose output should not go to stdout")
	assert.Contains(t, stderr.String(), "Loading prices.csv")
}

func TestOutputFormatter_Warn(t *testing.T) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: stdout, ErrWriter: stderr}

	formatter.Warn("domain truncated to %d rows", 2)
	assert.Empty(t, stdout.String())
	assert.Contains(t, stderr.String(), "Warning: domain truncated to 2 rows")

	stderr.Reset()
	formatter.Format = "json"
	formatter.Warn("ignored")
	assert.Empty(t, stderr.String())
}

func TestExitError(t *testing.T) {
	err := NewExitError(ExitFailure, "statement does not hold")
	assert.Equal(t, "statement does not hold", err.Error())
	assert.Nil(t, err.Unwrap())

	cause := errors.New("locked")
	wrapped := WrapExitError(ExitCommandError, "open workspace", cause)
	assert.Equal(t, "open workspace: locked", wrapped.Error())
	assert.ErrorIs(t, wrapped, cause)
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, ExitSuccess},
		{"verdict failure", NewExitError(ExitFailure, "fails"), ExitFailure},
		{"command error", NewExitError(ExitCommandError, "bad"), ExitCommandError},
		{"wrapped exit error", fmt.Errorf("outer: %w", NewExitError(ExitFailure, "fails")), ExitFailure},
		{"plain error", errors.New("unknown flag"), ExitCommandError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetExitCode(tt.err))
		})
	}
}

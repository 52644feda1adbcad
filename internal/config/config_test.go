package config

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quantq.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefault(t *testing.T) {
	c := Default()

	assert.Equal(t, 256, c.Matrix.MaxSize)
	assert.Equal(t, 0, c.Scan.Workers)
	assert.True(t, c.Scan.Parallel)
	assert.Equal(t, "console", c.Log.Format)
	assert.Equal(t, "warn", c.Log.Level)
	assert.Empty(t, c.Dataset.IDColumn)
	assert.Empty(t, c.Dataset.DateColumns)
	assert.Equal(t, "quantq.db", c.Workspace.Path)
	assert.NoError(t, c.Validate())
}

func TestLoad_NoFile(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *c)
}

func TestLoad_File(t *testing.T) {
	path := writeFile(t, `
[matrix]
max_size = 32

[scan]
parallel = false

[dataset]
id_column = "sku"
date_columns = ["shipped"]
`)

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 32, c.Matrix.MaxSize)
	assert.False(t, c.Scan.Parallel)
	assert.Equal(t, "sku", c.Dataset.IDColumn)
	assert.Equal(t, []string{"shipped"}, c.Dataset.DateColumns)
	// Untouched keys keep their defaults.
	assert.Equal(t, "console", c.Log.Format)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeFile(t, "[matrix]\nmax_size = 32\n")
	t.Setenv("QUANTQ_MATRIX_MAX_SIZE", "8")
	t.Setenv("QUANTQ_LOG_FORMAT", "json")

	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8, c.Matrix.MaxSize)
	assert.Equal(t, "json", c.Log.Format)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.toml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{"zero max size", "[matrix]\nmax_size = 0\n", "matrix.max_size must be at least 1"},
		{"negative workers", "[scan]\nworkers = -1\n", "scan.workers must not be negative"},
		{"bad format", "[log]\nformat = \"xml\"\n", `log.format "xml" is not supported`},
		{"bad level", "[log]\nlevel = \"loud\"\n", "log.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_Hint(t *testing.T) {
	c := Default()
	c.Log.Format = "xml"

	err := c.Validate()
	require.Error(t, err)
	assert.Contains(t, errors.FlattenHints(err), "use console or json")
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Default()))

	out := buf.String()
	assert.Contains(t, out, "[matrix]")
	assert.Contains(t, out, "max_size = 256")
	assert.Contains(t, out, "parallel = true")
	assert.Contains(t, out, `format = "console"`)
}

func TestInitFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantq.toml")
	require.NoError(t, InitFile(path, false))

	c, err := Load(path)
	require.NoError(t, err)
	want := Default()
	assert.Equal(t, want.Matrix, c.Matrix)
	assert.Equal(t, want.Scan, c.Scan)
	assert.Equal(t, want.Log, c.Log)
	assert.Equal(t, want.Workspace, c.Workspace)
	assert.Empty(t, c.Dataset.DateColumns)
}

func TestInitFile_Exists(t *testing.T) {
	path := writeFile(t, "[matrix]\nmax_size = 3\n")

	err := InitFile(path, false)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	require.NoError(t, InitFile(path, true))
	c, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 256, c.Matrix.MaxSize)
}

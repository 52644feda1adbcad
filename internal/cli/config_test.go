package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantq.toml")

	out, err := execute(t, "config", "init", "--out", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Wrote default configuration to "+path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "max_size = 256")

	out, err = execute(t, "config", "init", "--out", path)
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, out, "[E_CONFIG]")
	assert.Contains(t, out, "Hint: pass --force to overwrite it")

	_, err = execute(t, "config", "init", "--out", path, "--force")
	require.NoError(t, err)
}

func TestConfigShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quantq.toml")
	require.NoError(t, os.WriteFile(path, []byte("[matrix]\nmax_size = 2\n"), 0o644))

	out, err := execute(t, "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "max_size = 2")
	assert.Contains(t, out, `path = "quantq.db"`)

	out, err = execute(t, "--format", "json", "--config", path, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"max_size": 2`)
}

func TestConfigAppliesToMatrix(t *testing.T) {
	env := newTestEnv(t)
	defineCheaper(t, env)
	path := filepath.Join(env.dir, "quantq.toml")
	require.NoError(t, os.WriteFile(path, []byte("[matrix]\nmax_size = 2\n\n[scan]\nparallel = false\n"), 0o644))

	out, err := env.run(t, "--config", path, "matrix", "cheaper")
	require.NoError(t, err)
	assert.Contains(t, out, "2x2, 1 true, truncated from 3")
}

func TestConfigIDColumnOverride(t *testing.T) {
	env := newTestEnv(t)

	// category is not unique, so the dataset cannot use it as ID column.
	resp, err := env.runJSON(t, "--id-column", "category", "define", "simple", "p", "--attr", "price", "--op", "<")
	require.Error(t, err)
	assert.Equal(t, ErrCodeDataset, resp.Error.Code)
}

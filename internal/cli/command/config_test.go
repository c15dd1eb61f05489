package command

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yndnr/staffdesk-go/internal/cli/config"
)

func TestConfigInitShowSet(t *testing.T) {
	isolateConfig(t)
	path := config.DefaultPath()

	code, out, errOut := runCLI(t, "", "config", "path")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, path+" (not created yet)\n", out)

	code, out, errOut = runCLI(t, "", "config", "init", "--api-url", "https://hr.example.com")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Wrote "+path)

	code, _, _ = runCLI(t, "", "config", "init")
	assert.Equal(t, 1, code, "init must not overwrite without --force")

	code, out, errOut = runCLI(t, "", "config", "set", "output.format", "json")
	require.Equal(t, 0, code, errOut)
	assert.Equal(t, "Set output.format\n", out)

	code, out, errOut = runCLI(t, "", "config", "show")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "url: https://hr.example.com")
	assert.Contains(t, out, "format: json")
	assert.Empty(t, errOut)

	code, out, _ = runCLI(t, "", "config", "path")
	require.Equal(t, 0, code)
	assert.Equal(t, path+" (exists)\n", out)
}

func TestConfigInit_WithoutURLWarns(t *testing.T) {
	dir := isolateConfig(t)
	path := filepath.Join(dir, "custom.yaml")

	code, _, errOut := runCLI(t, "", "--config", path, "config", "init")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, errOut, config.EnvAPIURL)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestConfigSet_Errors(t *testing.T) {
	isolateConfig(t)

	code, _, errOut := runCLI(t, "", "config", "set", "api.bogus", "x")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown key "api.bogus"`)

	code, _, errOut = runCLI(t, "", "config", "set", "output.format")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "usage: staffdesk config set KEY VALUE")
}

func TestConfigShow_WarnsOnInvalidConfig(t *testing.T) {
	isolateConfig(t)

	code, out, errOut := runCLI(t, "", "config", "show")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "format: table")
	assert.Contains(t, errOut, "STAFFDESK_API_URL is required")
}

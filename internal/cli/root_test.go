package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/cli/commands"
	clitest "github.com/leapstack-labs/tern/internal/cli/testutil"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCmd()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(t.Context())
	return buf.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "tern v"+Version)

	out, err = execute(t, "--version")
	require.NoError(t, err)
	assert.Equal(t, "tern "+Version+"\n", out)
}

func TestHelpCommand(t *testing.T) {
	out, err := execute(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"check", "run", "tokens", "ast", "calls", "fmt", "repl", "watch", "history", "codes", "init", "doctor", "lsp"} {
		assert.Contains(t, out, name)
	}
}

func TestCompletionCommand(t *testing.T) {
	for _, shell := range []string{"bash", "zsh", "fish", "powershell"} {
		t.Run(shell, func(t *testing.T) {
			out, err := execute(t, "completion", shell)
			require.NoError(t, err)
			assert.NotEmpty(t, out)
		})
	}

	_, err := execute(t, "completion", "tcsh")
	assert.Error(t, err)
}

func TestUnknownCommand(t *testing.T) {
	_, err := execute(t, "unknown-command")
	assert.Error(t, err)
}

func TestCheckWithConfigFlag(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	config := filepath.Join(dir, "tern.yaml")

	out, err := execute(t, "--config", config, "--no-history", "-o", "json", "check")
	require.ErrorIs(t, err, commands.ErrFailed)

	var report struct {
		Total  int `json:"total"`
		Failed int `json:"failed"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Failed)
	assert.NoFileExists(t, filepath.Join(dir, ".tern", "state.db"))
}

func TestPolicyFromEnvironment(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	config := filepath.Join(dir, "tern.yaml")

	t.Setenv("TERN_CHECK__SEVERITY__MISMATCHED-TYPES", "warning")
	_, err := execute(t, "--config", config, "--no-history", "check", filepath.Join(dir, "tests", "bad"))
	assert.NoError(t, err)
}

func TestInvalidConfig(t *testing.T) {
	dir := clitest.SetupTestProject(t)
	config := filepath.Join(dir, "tern.yaml")

	_, err := execute(t, "--config", config, "-o", "xml", "check")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")

	_, err = execute(t, "--config", filepath.Join(dir, "missing.yaml"), "check")
	assert.Error(t, err)
}

package config

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
	"github.com/leapstack-labs/tern/pkg/diag"
)

func newFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	fs.String("tests-dir", "", "")
	fs.String("state", "", "")
	fs.String("output", "", "")
	fs.String("abort-at", "", "")
	fs.Int("jobs", 0, "")
	fs.Int("max-steps", 0, "")
	fs.BoolP("verbose", "v", false, "")
	return fs
}

func TestLoadConfig_Defaults(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, DefaultTabWidth, cfg.TabWidth)
	assert.Equal(t, DefaultOutput, cfg.OutputFormat)
	assert.Equal(t, DefaultLogLevel, cfg.LogLevel)
	assert.Equal(t, DefaultAbortAt, cfg.Check.AbortAt)
	assert.Empty(t, cfg.ConfigFile)

	root, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	got, err := filepath.EvalSymlinks(cfg.ProjectRoot)
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultTestsDir), cfg.TestsDir)
	assert.Equal(t, filepath.Join(cfg.ProjectRoot, DefaultStateFile), cfg.StatePath)
}

func TestLoadConfig_FileUpward(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"tern.yaml": `tab_width: 8
tests_dir: suite
jobs: 3
check:
  abort_at: error
  severity:
    struct-unsupported: warning
`,
		"src/deep/keep.tn": "",
	})
	t.Chdir(filepath.Join(dir, "src", "deep"))

	cfg, err := LoadConfig("", nil)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.TabWidth)
	assert.Equal(t, 3, cfg.Jobs)
	assert.Equal(t, "suite", filepath.Base(cfg.TestsDir))
	assert.Equal(t, "tern.yaml", filepath.Base(cfg.ConfigFile))

	policy, err := cfg.Policy()
	require.NoError(t, err)
	assert.Equal(t, diag.SeverityError, policy.AbortAt)
	assert.Equal(t, diag.SeverityWarning, policy.GetSeverity(diag.CodeStructUnsupported))
	assert.Equal(t, diag.SeverityError, policy.GetSeverity(diag.CodeMismatchedTypes))
}

func TestLoadConfig_Precedence(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"tern.yml": "output: markdown\njobs: 2\nlog_level: info\n",
	})
	t.Chdir(dir)

	t.Setenv("TERN_OUTPUT", "json")
	t.Setenv("TERN_CHECK__ABORT_AT", "warning")
	t.Setenv("TERN_JOBS", "5")

	flags := newFlags()
	require.NoError(t, flags.Parse([]string{"--jobs", "7", "--max-steps", "99", "--tests-dir", "elsewhere"}))

	cfg, err := LoadConfig("", flags)
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.OutputFormat, "env overrides file")
	assert.Equal(t, "warning", cfg.Check.AbortAt, "nested env key")
	assert.Equal(t, 7, cfg.Jobs, "flag overrides env")
	assert.Equal(t, 99, cfg.Run.MaxSteps)
	assert.Equal(t, "info", cfg.LogLevel, "file overrides default")

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "elsewhere"), cfg.TestsDir)
}

func TestLoadConfig_ExplicitFile(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"conf/custom.yaml": "state_path: db/history.db\n",
	})
	t.Chdir(t.TempDir())

	cfg, err := LoadConfig(filepath.Join(dir, "conf", "custom.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "conf", "db", "history.db"), cfg.StatePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		content   string
		errSubstr string
	}{
		{name: "bad output", content: "output: html\n", errSubstr: "unknown output format"},
		{name: "bad tab width", content: "tab_width: 0\n", errSubstr: "tab_width"},
		{name: "negative jobs", content: "jobs: -1\n", errSubstr: "jobs"},
		{name: "bad log level", content: "log_level: loud\n", errSubstr: "unknown log level"},
		{name: "bad abort level", content: "check:\n  abort_at: never\n", errSubstr: "abort_at"},
		{name: "unknown code", content: "check:\n  severity:\n    no-such-code: error\n", errSubstr: "unknown diagnostic code"},
		{name: "bad severity", content: "check:\n  severity:\n    empty-array: loud\n", errSubstr: "unknown severity"},
		{name: "malformed yaml", content: "jobs: [\n", errSubstr: "error reading config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{"tern.yaml": tt.content})
			t.Chdir(dir)
			_, err := LoadConfig("", nil)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errSubstr)
		})
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelWarn},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewLogger_Verbose(t *testing.T) {
	cfg := Default()
	assert.False(t, NewLogger(os.Stderr, cfg).Enabled(context.Background(), slog.LevelInfo))

	cfg.Verbose = true
	assert.True(t, NewLogger(os.Stderr, cfg).Enabled(context.Background(), slog.LevelDebug))
}

func TestContextAccessors(t *testing.T) {
	ctx := context.Background()
	assert.Equal(t, Default(), FromContext(ctx))
	assert.NotNil(t, GetLogger(ctx))

	cfg := Default()
	cfg.Jobs = 9
	ctx = WithConfig(ctx, cfg)
	assert.Same(t, cfg, FromContext(ctx))

	logger := slog.New(slog.DiscardHandler)
	assert.Same(t, logger, GetLogger(WithLogger(ctx, logger)))
}

// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/tern/internal/cli/output"
	"github.com/leapstack-labs/tern/internal/testutil"
)

// Sources used by SetupTestProject.
const (
	PassingSource = `fn sq(x: i32) -> i32 { return x * x; }
assert sq(3) == 9;
assert 7 - 2 - 1 == 4;
`
	FailingSource = `fn half(x: i32) -> i32 { return x / 2; }
assert half(9) == 5;
`
	BrokenSource = `fn bad() { let x: i32 = true; }
`
)

// SetupTestProject creates a temporary project with a tern.yaml and a tests
// directory holding one passing, one failing and one ill-typed file.
func SetupTestProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"tern.yaml":         "tests_dir: tests\nstate_path: .tern/state.db\n",
		"tests/pass.tn":     PassingSource,
		"tests/fail.tn":     FailingSource,
		"tests/bad/type.tn": BrokenSource,
	})
}

// SetupPassingProject creates a project whose tests all pass.
func SetupPassingProject(t *testing.T) string {
	t.Helper()
	return testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"tern.yaml":     "tests_dir: tests\n",
		"tests/pass.tn": PassingSource,
	})
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a text mode renderer that believes it writes to a terminal.
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererMarkdown creates a markdown mode renderer.
func NewTestRendererMarkdown() *TestRenderer {
	return NewTestRenderer(output.ModeMarkdown, false)
}

// NewTestRendererJSON creates a JSON mode renderer.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the captured stdout.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the captured stderr.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// AssertValidMarkdown checks for balanced code fences and non-empty headers.
func AssertValidMarkdown(t *testing.T, md string) {
	t.Helper()

	if n := strings.Count(md, "```"); n%2 != 0 {
		t.Errorf("unbalanced code fences in markdown: found %d occurrences", n)
	}

	for i, line := range strings.Split(md, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "#") && strings.TrimLeft(trimmed, "# ") == "" {
			t.Errorf("empty header at line %d: %q", i+1, line)
		}
	}
}

package driver

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/interp"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
)

func newDriver(t *testing.T, cfg Config) *Driver {
	t.Helper()
	cfg.Logger = testutil.NewTestLogger(t)
	return New(cfg)
}

func TestCompile(t *testing.T) {
	d := newDriver(t, Config{})
	r := d.Compile(context.Background(), "add.tn", "fn add(a: i32, b: i32) -> i32 { return a + b; }")

	require.NoError(t, r.Err)
	assert.True(t, r.OK())
	assert.Len(t, r.Items, 1)
	assert.Len(t, r.Typed, 1)
	assert.Empty(t, r.Diagnostics)
	assert.Len(t, r.Hash, 64)
	assert.Equal(t, "add.tn", r.Source.Name)
}

func TestCompile_Failures(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		policy   *diag.Policy
		wantOK   bool
		wantErr  any
		wantCode diag.Code
	}{
		{
			name:    "lex error",
			src:     "fn main() { let x = 1 @ 2; }",
			wantErr: new(*parser.LexError),
		},
		{
			name:    "parse error",
			src:     "fn main() { let = 1; }",
			wantErr: new(*parser.ParseError),
		},
		{
			name:     "fatal diagnostic aborts",
			src:      "fn main() { missing(); }",
			wantErr:  new(*diag.AbortError),
			wantCode: diag.CodeUnresolvedCallee,
		},
		{
			name:     "error diagnostic does not abort",
			src:      "fn main() { let x: i32 = true; }",
			wantCode: diag.CodeMismatchedTypes,
		},
		{
			name:     "policy downgrades to warning",
			src:      "fn main() { let x: i32 = true; }",
			policy:   diag.NewPolicy().SetSeverity(diag.CodeMismatchedTypes, diag.SeverityWarning),
			wantOK:   true,
			wantCode: diag.CodeMismatchedTypes,
		},
		{
			name:     "policy lowers the abort threshold",
			src:      "fn main() { let x: i32 = true; }",
			policy:   &diag.Policy{AbortAt: diag.SeverityError},
			wantErr:  new(*diag.AbortError),
			wantCode: diag.CodeMismatchedTypes,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newDriver(t, Config{Policy: tt.policy})
			r := d.Compile(context.Background(), "main.tn", tt.src)
			assert.Equal(t, tt.wantOK, r.OK())
			if tt.wantErr != nil {
				require.Error(t, r.Err)
				assert.True(t, errors.As(r.Err, tt.wantErr), "got %v", r.Err)
			} else {
				assert.NoError(t, r.Err)
			}
			if tt.wantCode != "" {
				require.NotEmpty(t, r.Diagnostics)
				assert.Equal(t, tt.wantCode, r.Diagnostics[0].Code)
				assert.Equal(t, "main.tn", r.Diagnostics[0].File)
			}
		})
	}
}

func TestCompile_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := newDriver(t, Config{}).Compile(ctx, "x.tn", "fn main() { }")
	assert.ErrorIs(t, r.Err, context.Canceled)
}

func TestCompileFile_Missing(t *testing.T) {
	r := newDriver(t, Config{}).CompileFile(context.Background(), filepath.Join(t.TempDir(), "nope.tn"))
	require.Error(t, r.Err)
	assert.Contains(t, r.Err.Error(), "failed to read")
}

func TestTokenize_TabWidth(t *testing.T) {
	toks, err := newDriver(t, Config{TabWidth: 8}).Tokenize("t.tn", "\tx")
	require.NoError(t, err)
	require.NotEmpty(t, toks)
	assert.Equal(t, token.IDENT, toks[0].Kind)
	assert.Equal(t, 9, toks[0].Pos.Column)
}

func TestCompileDir(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"a.tn":        "fn a() -> i32 { return 1; }",
		"nested/b.tn": "fn b() -> bool { return 1 < 2; }",
		"c.tn":        "fn c() { let x: bool = 1; }",
		"notes.txt":   "not a source",
	})

	batch, err := newDriver(t, Config{Jobs: 2}).CompileDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, batch.Results, 3)

	var names []string
	for _, r := range batch.Results {
		rel, err := filepath.Rel(dir, r.Name)
		require.NoError(t, err)
		names = append(names, filepath.ToSlash(rel))
	}
	assert.Equal(t, []string{"a.tn", "c.tn", "nested/b.tn"}, names)

	failed := batch.Failed()
	require.Len(t, failed, 1)
	assert.Equal(t, filepath.Join(dir, "c.tn"), failed[0].Name)
	assert.Len(t, batch.Diagnostics(), 1)
	assert.Contains(t, batch.Summary(), "3 files, 2 ok, 1 failed")
}

func TestCompileDir_NoSources(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{"readme.md": "# nothing"})
	_, err := newDriver(t, Config{}).CompileDir(context.Background(), dir)
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestCompileDir_MissingDir(t *testing.T) {
	_, err := newDriver(t, Config{}).CompileDir(context.Background(), filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNoSources)
}

func TestResolveSources(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{
		"one.tn":       "",
		"pkg/two.tn":   "",
		"pkg/skip.txt": "",
	})
	one := filepath.Join(dir, "one.tn")
	two := filepath.Join(dir, "pkg", "two.tn")

	got, err := ResolveSources([]string{one, filepath.Join(dir, "pkg"), dir})
	require.NoError(t, err)
	assert.Equal(t, []string{one, two}, got)

	_, err = ResolveSources([]string{filepath.Join(dir, "pkg", "skip.txt")})
	require.NoError(t, err, "explicit files are kept regardless of extension")

	_, err = ResolveSources([]string{filepath.Join(dir, "absent.tn")})
	require.Error(t, err)

	empty := t.TempDir()
	_, err = ResolveSources([]string{empty})
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestCompileFiles_Cancelled(t *testing.T) {
	dir := testutil.WriteFiles(t, t.TempDir(), map[string]string{"a.tn": "fn a() {}"})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newDriver(t, Config{}).CompileFiles(ctx, []string{filepath.Join(dir, "a.tn")})
	assert.ErrorIs(t, err, context.Canceled)
}

const assertSource = `fn sq(x: i32) -> i32 { return x * x; }
fn div(a: i32, b: i32) -> i32 { return a / b; }
fn show() -> bool { debug(7); return true; }

assert sq(3) == 9;
assert sq(2) == 5;
assert sq(2) < 5;
assert div(1, 0) == 0;
assert show();
`

func TestRunAsserts(t *testing.T) {
	var out bytes.Buffer
	d := newDriver(t, Config{Output: &out})
	r := d.Compile(context.Background(), "sq.tn", assertSource)
	require.True(t, r.OK(), "%v %v", r.Err, r.Diagnostics)

	report, err := d.RunAsserts(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, report.Results, 5)
	assert.Equal(t, 3, report.Passed())
	assert.Equal(t, 2, report.Failed())

	first := report.Results[0]
	assert.True(t, first.Passed)
	assert.Equal(t, "assert sq(3) == 9;", first.Text)
	assert.Equal(t, interp.I32(9), first.Actual)

	second := report.Results[1]
	assert.False(t, second.Passed)
	var ae *AssertionError
	require.True(t, errors.As(second.Err, &ae))
	assert.Equal(t, interp.I32(5), ae.Expected)
	assert.Equal(t, interp.I32(4), ae.Actual)
	assert.Equal(t, 6, ae.Pos.Line)
	assert.ErrorIs(t, second.Err, interp.ErrAssertion)
	assert.Equal(t, "sq.tn:6:1: assertion failed: assert sq(2) == 5; (expected 5, got 4)", second.Err.Error())

	assert.True(t, report.Results[2].Passed)

	third := report.Results[3]
	assert.False(t, third.Passed)
	assert.ErrorIs(t, third.Err, interp.ErrDivideByZero)

	assert.True(t, report.Results[4].Passed)
	assert.Equal(t, "7\n", out.String())
}

func TestRunAsserts_NotCompiled(t *testing.T) {
	d := newDriver(t, Config{})
	r := d.Compile(context.Background(), "bad.tn", "fn f() { let x: i32 = true; }")
	_, err := d.RunAsserts(context.Background(), r)
	assert.ErrorIs(t, err, ErrNotCompiled)
}

func TestRunAsserts_StepLimit(t *testing.T) {
	d := newDriver(t, Config{MaxSteps: 500})
	r := d.Compile(context.Background(), "spin.tn", "fn spin() -> bool { loop { } return true; }\nassert spin();")
	require.True(t, r.OK(), "%v %v", r.Err, r.Diagnostics)

	report, err := d.RunAsserts(context.Background(), r)
	require.NoError(t, err)
	require.Len(t, report.Results, 1)
	assert.ErrorIs(t, report.Results[0].Err, interp.ErrStepLimit)
}

func TestExecute(t *testing.T) {
	d := newDriver(t, Config{})
	r := d.Compile(context.Background(), "add.tn", "fn add(a: i32, b: i32) -> i32 { return a + b; }")
	require.True(t, r.OK())

	v, err := d.Execute(context.Background(), r, "add", []interp.Value{interp.I32(1), interp.I32(2)})
	require.NoError(t, err)
	assert.Equal(t, interp.I32(3), v)

	_, err = d.Execute(context.Background(), r, "missing", nil)
	assert.ErrorIs(t, err, interp.ErrUnknownFunction)
}

func TestEval(t *testing.T) {
	d := newDriver(t, Config{})
	r := d.Compile(context.Background(), "eval.tn", "fn sq(x: i32) -> i32 { return x * x; }\nassert sq(4) > 10;")
	require.True(t, r.OK())

	var cond *typed.Assert
	for _, item := range r.Typed {
		if a, ok := item.(*typed.Assert); ok {
			cond = a
		}
	}
	require.NotNil(t, cond)

	infix, ok := cond.Cond.Node.(*typed.Infix)
	require.True(t, ok)
	v, err := d.Eval(context.Background(), r, infix.Left)
	require.NoError(t, err)
	assert.Equal(t, interp.I32(16), v)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = d.Eval(ctx, r, infix.Left)
	assert.ErrorIs(t, err, context.Canceled)
}

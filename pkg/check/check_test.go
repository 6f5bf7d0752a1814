package check

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

// checkSource parses and checks src, failing the test on parse errors.
func checkSource(t *testing.T, src string, opts ...Option) ([]typed.Item, diag.List, *types.Arena, error) {
	t.Helper()
	arena := types.NewArena()
	items, err := parser.Parse(token.NewSource("test.tn", src), arena)
	require.NoError(t, err)
	opts = append([]Option{WithLogger(testutil.NewTestLogger(t)), WithFile("test.tn")}, opts...)
	out, diags, err := Check(items, arena, opts...)
	return out, diags, arena, err
}

func codes(l diag.List) []diag.Code {
	var out []diag.Code
	for _, d := range l {
		out = append(out, d.Code)
	}
	return out
}

func onlyFunction(t *testing.T, items []typed.Item) *typed.Function {
	t.Helper()
	fns := typed.Functions(items)
	require.Len(t, fns, 1)
	return fns[0]
}

func TestEnvironment(t *testing.T) {
	arena := types.NewArena()
	env := NewEnvironment()
	assert.Equal(t, 1, env.Depth())

	env.Bind("x", arena.I32())
	env.Push()
	env.Bind("x", arena.Bool())
	env.Bind("y", arena.F32())

	ty, ok := env.Lookup("x")
	require.True(t, ok)
	assert.Same(t, arena.Bool(), ty)
	assert.Equal(t, []string{"x", "y"}, env.Names())

	env.Pop()
	ty, ok = env.Lookup("x")
	require.True(t, ok)
	assert.Same(t, arena.I32(), ty)
	_, ok = env.Lookup("y")
	assert.False(t, ok)

	env.Pop()
	assert.Equal(t, 1, env.Depth(), "global frame survives")
}

func TestAddFunction(t *testing.T) {
	items, diags, arena, err := checkSource(t, "fn add(a: i32, b: i32) -> i32 { return a + b; }")
	require.NoError(t, err)
	assert.Empty(t, diags)

	fn := onlyFunction(t, items)
	assert.Equal(t, "fn(i32, i32) -> i32", fn.Ty.String())
	assert.Same(t, arena.Function([]*types.Ty{arena.I32(), arena.I32()}, arena.I32()), fn.Ty)

	require.Len(t, fn.Body, 1)
	ret := fn.Body[0].(*typed.Return)
	assert.Same(t, arena.I32(), ret.Value.Ty)
	infix := ret.Value.Node.(*typed.Infix)
	assert.Equal(t, ast.Add, infix.Op)
	assert.Same(t, arena.I32(), infix.Left.Ty)
}

func TestExpressionTypes(t *testing.T) {
	tests := []struct {
		name string
		expr string
		want string
	}{
		{"int", "1", "i32"},
		{"float", "1.5", "f32"},
		{"bool", "true", "bool"},
		{"string", `"hi"`, "str"},
		{"comparison", "1 < 2", "bool"},
		{"equality", "true == false", "bool"},
		{"arithmetic", "2.0 * 3.0", "f32"},
		{"bool arithmetic", "true + false", "bool"},
		{"tuple ordering", "(1, 2) < (1, 2)", "bool"},
		{"array sum", "[1] + [2]", "[1]i32"},
		{"reference", "&1", "*i32"},
		{"deref", "*&1.0", "f32"},
		{"negate", "-4", "i32"},
		{"array", "[1, 2, 3]", "[3]i32"},
		{"nested array", "[[true], [false]]", "[2][1]bool"},
		{"tuple", "(1, true)", "(i32, bool)"},
		{"unit", "()", "()"},
		{"range", "0..10", "range"},
		{"index", "[1, 2][0]", "i32"},
		{"call", "id(7)", "i32"},
		{"debug", "debug([1])", "()"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn id(x: i32) -> i32 { return x; }\nfn sample() { " + tt.expr + "; }"
			items, diags, _, err := checkSource(t, src)
			require.NoError(t, err)
			require.Empty(t, diags)

			fns := typed.Functions(items)
			require.Len(t, fns, 2)
			require.Len(t, fns[1].Body, 1)
			stmt := fns[1].Body[0].(*typed.ExprStmt)
			assert.Equal(t, tt.want, stmt.X.Ty.String())
		})
	}
}

func TestDiagnostics(t *testing.T) {
	tests := []struct {
		name string
		body string
		want []diag.Code
		kept int
	}{
		{"missing initializer", "let x;", []diag.Code{diag.CodeMissingInitializer}, 0},
		{"let mismatch", "let x: bool = 1;", []diag.Code{diag.CodeMismatchedTypes}, 0},
		{"let declared", "let x: f32 = 1.0;", nil, 1},
		{"unresolved", "y;", []diag.Code{diag.CodeUnresolvedIdentifier}, 1},
		{"infix mismatch", "1 + true;", []diag.Code{diag.CodeMismatchedTypes}, 1},
		{"bool arithmetic", "true + false;", nil, 1},
		{"mismatched let is unbound", "let x: bool = 1; x;", []diag.Code{diag.CodeMismatchedTypes, diag.CodeUnresolvedIdentifier}, 1},
		{"negate bool", "-true;", []diag.Code{diag.CodeInvalidOperand}, 1},
		{"deref int", "*1;", []diag.Code{diag.CodeInvalidOperand}, 1},
		{"empty array", "[];", []diag.Code{diag.CodeEmptyArray}, 1},
		{"array mismatch", "[1, true];", []diag.Code{diag.CodeMismatchedTypes}, 1},
		{"index bool", "[1][true];", []diag.Code{diag.CodeInvalidIndex}, 1},
		{"index scalar", "1[0];", []diag.Code{diag.CodeInvalidIndex}, 1},
		{"range mismatch", "1..true;", []diag.Code{diag.CodeMismatchedTypes}, 1},
		{"non-bool if", "if 1 { }", []diag.Code{diag.CodeNonBoolCondition}, 0},
		{"not iterable", "for i in 5 { }", []diag.Code{diag.CodeNotIterable}, 0},
		{"assign mismatch", "let x = 1; x = true;", []diag.Code{diag.CodeMismatchedTypes}, 1},
		{"arity", "f(1, 2);", []diag.Code{diag.CodeArityMismatch}, 1},
		{"argument mismatch", "f(true);", []diag.Code{diag.CodeMismatchedTypes}, 1},
		{"not callable", "let g = 1; g();", []diag.Code{diag.CodeNotCallable}, 2},
		{"return mismatch", "return 1;", []diag.Code{diag.CodeMismatchedTypes}, 0},
		{"bare return", "return;", nil, 1},
		{"cascade suppressed", "let x = y + 1; x * 2;", []diag.Code{diag.CodeUnresolvedIdentifier}, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := "fn f(x: i32) -> i32 { return x; }\nfn main() { " + tt.body + " }"
			items, diags, _, err := checkSource(t, src)
			require.NoError(t, err)
			assert.Equal(t, tt.want, codes(diags))

			fns := typed.Functions(items)
			require.Len(t, fns, 2)
			assert.Len(t, fns[1].Body, tt.kept)
		})
	}
}

func TestDroppedItemsDoNotFail(t *testing.T) {
	src := `fn main() {
	let x;
	if 1 { debug(1); }
	let y = 2;
}`
	items, diags, _, err := checkSource(t, src)
	require.NoError(t, err)
	assert.False(t, diags.HasAtLeast(diag.SeverityFatal))
	assert.Equal(t, []diag.Code{diag.CodeMissingInitializer, diag.CodeNonBoolCondition}, codes(diags))

	fn := onlyFunction(t, items)
	require.Len(t, fn.Body, 1)
	assert.Equal(t, "y", fn.Body[0].(*typed.Let).Name)
}

func TestFatalAborts(t *testing.T) {
	tests := []struct {
		name string
		src  string
		code diag.Code
	}{
		{"unresolved callee", "fn main() { nope(); }", diag.CodeUnresolvedCallee},
		{"yield", "fn main() { yield 1; }", diag.CodeUnsupportedConstruct},
		{"field access", "fn main() { let p = 1; p.x; }", diag.CodeUnsupportedConstruct},
		{"open range", "fn main() { for i in range 0 { } }", diag.CodeUnsupportedConstruct},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, diags, _, err := checkSource(t, tt.src)
			require.Error(t, err)
			assert.Nil(t, items)

			var abort *diag.AbortError
			require.True(t, errors.As(err, &abort))
			assert.Equal(t, tt.code, abort.Diagnostic.Code)
			assert.Equal(t, diag.SeverityFatal, abort.Diagnostic.Severity)
			assert.Equal(t, "test.tn", abort.Diagnostic.File)
			assert.NotEmpty(t, diags)
		})
	}
}

func TestReturnOutsideFunction(t *testing.T) {
	arena := types.NewArena()
	items := []ast.Item{&ast.Return{At: token.Position{Line: 1, Column: 1}}}

	_, _, err := Check(items, arena)
	var abort *diag.AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, diag.CodeReturnOutsideFunction, abort.Diagnostic.Code)
}

func TestPolicyOverride(t *testing.T) {
	policy := diag.NewPolicy().SetSeverity(diag.CodeUnresolvedCallee, diag.SeverityError)
	items, diags, _, err := checkSource(t, "fn main() { nope(); let x = 1; }", WithPolicy(policy))
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.CodeUnresolvedCallee}, codes(diags))
	assert.Equal(t, diag.SeverityError, diags[0].Severity)
	assert.Len(t, onlyFunction(t, items).Body, 2)

	strict := diag.NewPolicy()
	strict.AbortAt = diag.SeverityError
	_, _, _, err = checkSource(t, "fn main() { 1 + true; }", WithPolicy(strict))
	var abort *diag.AbortError
	require.True(t, errors.As(err, &abort))
	assert.Equal(t, diag.CodeMismatchedTypes, abort.Diagnostic.Code)
}

func TestHoistingAndRecursion(t *testing.T) {
	src := `
fn even(n: i32) -> bool { return odd(n - 1); }
fn odd(n: i32) -> bool { return even(n - 1); }
fn fact(n: i32) -> i32 { return n * fact(n - 1); }
`
	items, diags, _, err := checkSource(t, src)
	require.NoError(t, err)
	assert.Empty(t, diags)
	assert.Len(t, typed.Functions(items), 3)
}

func TestScopesDoNotLeak(t *testing.T) {
	src := `fn main() {
	{ let inner = 1; }
	inner;
	for i in [1, 2] { }
	i;
}`
	_, diags, _, err := checkSource(t, src)
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.CodeUnresolvedIdentifier, diag.CodeUnresolvedIdentifier}, codes(diags))
}

func TestStructSkipped(t *testing.T) {
	items, diags, _, err := checkSource(t, "struct P { x: i32 }\nfn main() {}")
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.CodeStructUnsupported}, codes(diags))
	assert.Equal(t, diag.SeverityInfo, diags[0].Severity)
	assert.Len(t, items, 1)
}

func TestForBindsIndex(t *testing.T) {
	items, diags, arena, err := checkSource(t, "fn main() { for i in 0..3 { debug(i); } }")
	require.NoError(t, err)
	assert.Empty(t, diags)

	loop := onlyFunction(t, items).Body[0].(*typed.ForIn)
	assert.Same(t, arena.I32(), loop.Binding)
	assert.Same(t, arena.Range(), loop.Iter.Ty)
}

func TestAssertions(t *testing.T) {
	src := "fn one() -> i32 { return 1; }\nassert one() == 1;\nassert one();"
	items, diags, _, err := checkSource(t, src)
	require.NoError(t, err)
	assert.Equal(t, []diag.Code{diag.CodeNonBoolCondition}, codes(diags))
	require.Len(t, items, 2)
	_, ok := items[1].(*typed.Assert)
	assert.True(t, ok)
}

func TestElseArms(t *testing.T) {
	src := `fn main() {
	if true { } else { }
	if true { }
}`
	items, _, _, err := checkSource(t, src)
	require.NoError(t, err)
	body := onlyFunction(t, items).Body
	require.Len(t, body, 2)
	assert.NotNil(t, body[0].(*typed.If).Else)
	assert.Nil(t, body[1].(*typed.If).Else)
}

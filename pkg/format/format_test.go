package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/check"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/types"
)

func reformat(t *testing.T, src string) string {
	t.Helper()
	out, err := Reformat(token.NewSource("test.tn", src))
	require.NoError(t, err)
	return out
}

func TestFormat_Expressions(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"1+2*3", "1 + 2 * 3"},
		{"(1 + 2) * 3", "(1 + 2) * 3"},
		{"1 - 2 - 3", "1 - 2 - 3"},
		{"1 - (2 - 3)", "1 - (2 - 3)"},
		{"a + b + c", "a + b + c"},
		{"(a + b) + c", "(a + b) + c"},
		{"a / b / c", "a / b / c"},
		{"a / (b / c)", "a / b / c"},
		{"(a / b) / c", "(a / b) / c"},
		{"a - (b + c)", "a - b + c"},
		{"(a - b) + c", "(a - b) + c"},
		{"-(a.b)", "-(a.b)"},
		{"(a.b)(x)", "(a.b)(x)"},
		{"-(a + b)", "-(a + b)"},
		{"-f(x)", "-f(x)"},
		{"(-f)(x)", "(-f)(x)"},
		{"a.b.c", "a.b.c"},
		{"x == y + 1", "x == y + 1"},
		{"0..10", "0..10"},
		{"[1,2][0]", "[1, 2][0]"},
		{"(1, 2.5, true)", "(1, 2.5, true)"},
		{"f(a, b,)", "f(a, b)"},
		{"&*p", "&*p"},
		{`"hi"`, `"hi"`},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := reformat(t, "fn main() { "+tt.input+"; }")
			assert.Equal(t, "fn main() {\n    "+tt.expected+";\n}\n", got)
		})
	}
}

func TestFormat_Program(t *testing.T) {
	input := `extern fn print(x: i32);
struct Point { x: f32, y: f32 }
fn main() -> i32 { let x: i32 = 1; x += 2; if x > 1 { return x; } else if x < 0 { return 0; } else {} for i in 0..3 { debug(i); } loop { break; } { } return x; }
assert main() == 3;`

	expected := `extern fn print(x: i32);

struct Point {
    x: f32,
    y: f32,
}

fn main() -> i32 {
    let x: i32 = 1;
    x += 2;
    if x > 1 {
        return x;
    } else if x < 0 {
        return 0;
    } else {}
    for i in 0..3 {
        debug(i);
    }
    loop {
        break;
    }
    {}
    return x;
}

assert main() == 3;
`
	got := reformat(t, input)
	assert.Equal(t, expected, got)
	assert.Equal(t, got, reformat(t, got), "formatting is idempotent")
}

func TestFormat_PreservesTree(t *testing.T) {
	inputs := []string{
		"fn f(a: [4]i32, b: []*f32) -> (i32, bool) { return (a[0], b == b); }",
		"fn g() { let x = 1 - (2 + 3) * -4 / 5; yield x; }",
		"fn h() { while_ = 1 <= 2; }",
	}
	for _, input := range inputs {
		first := reformat(t, input)
		assert.Equal(t, first, reformat(t, first))
	}
}

func TestFormat_ParseError(t *testing.T) {
	_, err := Reformat(token.NewSource("bad.tn", "fn ("))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "format bad.tn")
}

func TestFormat_Empty(t *testing.T) {
	assert.Equal(t, "", Source(nil))
}

func TestExpr(t *testing.T) {
	e := &ast.Infix{
		Op:    ast.Mul,
		Left:  &ast.Infix{Op: ast.Add, Left: &ast.Ident{Name: "a"}, Right: &ast.IntLit{Value: 1}},
		Right: &ast.FloatLit{Value: 2},
	}
	assert.Equal(t, "(a + 1) * 2.0", Expr(e))
}

func TestTyped(t *testing.T) {
	arena := types.NewArena()
	items, err := parser.Parse(token.NewSource("add.tn", "fn add(a: i32, b: i32) -> i32 { return a + b; }"), arena)
	require.NoError(t, err)
	checked, diags, err := check.Check(items, arena)
	require.NoError(t, err)
	require.Empty(t, diags)

	expected := "fn add(a: i32, b: i32) -> i32 {\n    return (a::i32 + b::i32)::i32;\n}\n"
	assert.Equal(t, expected, Typed(checked))
}

func TestTyped_Statements(t *testing.T) {
	arena := types.NewArena()
	src := "fn main() { let xs = [1, 2]; for i in 0..2 { debug(xs[i]); } }"
	items, err := parser.Parse(token.NewSource("loop.tn", src), arena)
	require.NoError(t, err)
	checked, _, err := check.Check(items, arena)
	require.NoError(t, err)

	expected := `fn main() {
    let xs: [2]i32 = [1::i32, 2::i32]::[2]i32;
    for i: i32 in (0::i32..2::i32)::range {
        (debug((xs::[2]i32[i::i32])::i32))::();
    }
}
`
	assert.Equal(t, expected, Typed(checked))
}

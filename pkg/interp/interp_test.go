package interp

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/tern/internal/testutil"
	"github.com/leapstack-labs/tern/pkg/check"
	"github.com/leapstack-labs/tern/pkg/parser"
	"github.com/leapstack-labs/tern/pkg/token"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

func compile(t *testing.T, src string) []typed.Item {
	t.Helper()
	arena := types.NewArena()
	items, err := parser.Parse(token.NewSource("test.tn", src), arena)
	require.NoError(t, err)
	checked, diags, err := check.Check(items, arena)
	require.NoError(t, err)
	require.Empty(t, diags)
	return checked
}

func load(t *testing.T, src string, opts ...ProgramOption) *Program {
	t.Helper()
	opts = append([]ProgramOption{WithLogger(testutil.NewTestLogger(t))}, opts...)
	p, err := BuildProgram(compile(t, src), opts...)
	require.NoError(t, err)
	return p
}

func TestExecute_Add(t *testing.T) {
	p := load(t, "fn add(a: i32, b: i32) -> i32 { return a + b; }")
	got, err := p.Execute("add", []Value{I32(1), I32(2)})
	require.NoError(t, err)
	assert.Equal(t, I32(3), got)
}

func TestExecute_Programs(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		args []Value
		want Value
	}{
		{
			name: "recursion",
			src:  "fn fact(n: i32) -> i32 { if n <= 1 { return 1; } return n * fact(n - 1); }",
			fn:   "fact", args: []Value{I32(5)}, want: I32(120),
		},
		{
			name: "else branch",
			src:  "fn sign(n: i32) -> i32 { if n < 0 { return -1; } else if n == 0 { return 0; } else { return 1; } }",
			fn:   "sign", args: []Value{I32(-7)}, want: I32(-1),
		},
		{
			name: "range loop",
			src:  "fn sum(n: i32) -> i32 { let s = 0; for i in 0..n { s += i; } return s; }",
			fn:   "sum", args: []Value{I32(5)}, want: I32(10),
		},
		{
			name: "array loop yields indices",
			src:  "fn idx() -> i32 { let t = 0; for i in [7, 8, 9] { t += i; } return t; }",
			fn:   "idx", want: I32(3),
		},
		{
			name: "loop and break",
			src:  "fn count() -> i32 { let i = 0; loop { if i >= 3 { break; } i = i + 1; } return i; }",
			fn:   "count", want: I32(3),
		},
		{
			name: "array store",
			src:  "fn second() -> i32 { let xs = [10, 20, 30]; xs[1] = 5; xs[2] *= 2; return xs[1] + xs[2]; }",
			fn:   "second", want: I32(65),
		},
		{
			name: "pointer store",
			src:  "fn p() -> i32 { let x = 1; let r = &x; *r = 5; *r += 1; return x; }",
			fn:   "p", want: I32(6),
		},
		{
			name: "float division",
			src:  "fn half(x: f32) -> f32 { return x / 2.0; }",
			fn:   "half", args: []Value{F32(3)}, want: F32(1.5),
		},
		{
			name: "subtraction groups the following sum",
			src:  "fn f() -> i32 { return 10 - 4 - 3 + 1 - 6 / 3; }",
			fn:   "f", want: I32(0),
		},
		{
			name: "division nests right",
			src:  "fn f() -> i32 { return 8 / 4 / 2; }",
			fn:   "f", want: I32(4),
		},
		{
			name: "tuple",
			src:  "fn pair() -> (i32, bool) { return (1, true); }",
			fn:   "pair", want: Tuple{I32(1), Bool(true)},
		},
		{
			name: "shadowing in blocks",
			src:  "fn s() -> i32 { let x = 1; { let x = 2; x = 3; } return x; }",
			fn:   "s", want: I32(1),
		},
		{
			name: "mutual recursion",
			src: `fn even(n: i32) -> bool { if n == 0 { return true; } return odd(n - 1); }
fn odd(n: i32) -> bool { if n == 0 { return false; } return even(n - 1); }`,
			fn: "even", args: []Value{I32(10)}, want: Bool(true),
		},
		{
			name: "unit result",
			src:  "fn nothing() { }",
			fn:   "nothing", want: UnitValue{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := load(t, tt.src).Execute(tt.fn, tt.args)
			require.NoError(t, err)
			assert.True(t, Equal(tt.want, got), "want %s, got %s", tt.want, got)
		})
	}
}

func TestExecute_Debug(t *testing.T) {
	var out bytes.Buffer
	p := load(t, "fn show() { debug(42); debug([1, 2]); }", WithOutput(&out))
	_, err := p.Execute("show", nil)
	require.NoError(t, err)
	assert.Equal(t, "42\n[1, 2]\n", out.String())
}

func TestExecute_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		fn   string
		args []Value
		opts []ProgramOption
		want error
	}{
		{
			name: "divide by zero",
			src:  "fn div(a: i32, b: i32) -> i32 { return a / b; }",
			fn:   "div", args: []Value{I32(1), I32(0)},
			want: ErrDivideByZero,
		},
		{
			name: "step limit",
			src:  "fn spin() { loop { } }",
			fn:   "spin", opts: []ProgramOption{WithLimits(1000, 0)},
			want: ErrStepLimit,
		},
		{
			name: "call depth",
			src:  "fn down(n: i32) -> i32 { return down(n + 1); }",
			fn:   "down", args: []Value{I32(0)}, opts: []ProgramOption{WithLimits(0, 16)},
			want: ErrCallDepth,
		},
		{
			name: "index out of range",
			src:  "fn at(i: i32) -> i32 { let xs = [1, 2]; return xs[i]; }",
			fn:   "at", args: []Value{I32(2)},
			want: ErrIndexRange,
		},
		{
			name: "unknown function",
			src:  "fn f() { }",
			fn:   "g",
			want: ErrUnknownFunction,
		},
		{
			name: "arity",
			src:  "fn f(x: i32) { }",
			fn:   "f",
			want: ErrArity,
		},
		{
			name: "bool arithmetic",
			src:  "fn f() -> bool { return true + false; }",
			fn:   "f",
			want: ErrType,
		},
		{
			name: "failed assertion",
			src:  "fn f() { assert 1 == 2; }",
			fn:   "f",
			want: ErrAssertion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := load(t, tt.src, tt.opts...).Execute(tt.fn, tt.args)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}

func TestRuntimeErrorPosition(t *testing.T) {
	p := load(t, "fn div(a: i32, b: i32) -> i32 { return a / b; }")
	_, err := p.Execute("div", []Value{I32(1), I32(0)})

	var rt *RuntimeError
	require.True(t, errors.As(err, &rt))
	assert.Equal(t, "div", rt.Func)
	assert.Equal(t, 2, rt.PC)
	assert.Equal(t, "div at 0002: division by zero", err.Error())
}

func TestExecute_Host(t *testing.T) {
	p := load(t, "extern fn twice(x: i32) -> i32;\nfn use() -> i32 { return twice(4) + 1; }")
	_, ok := p.Unit("twice")
	assert.False(t, ok, "extern functions are not lowered")

	p.Register("twice", func(args []Value) (Value, error) {
		return args[0].(I32) * 2, nil
	})
	got, err := p.Execute("use", nil)
	require.NoError(t, err)
	assert.Equal(t, I32(9), got)
}

func TestBuild_Extern(t *testing.T) {
	_, err := Build(&typed.Function{Name: "ext", Extern: true})
	assert.ErrorIs(t, err, ErrExtern)
}

func TestBuild_ErrorNode(t *testing.T) {
	arena := types.NewArena()
	fn := &typed.Function{
		Name: "broken",
		Body: []typed.Item{&typed.ExprStmt{X: &typed.Expr{Ty: arena.Error(), Node: &typed.ErrorNode{}}}},
	}
	_, err := Build(fn)
	var be *BuildError
	require.True(t, errors.As(err, &be))
	assert.Equal(t, "broken", be.Func)
}

func TestBuildExpr(t *testing.T) {
	items := compile(t, "fn sq(x: i32) -> i32 { return x * x; }\nassert sq(3) == 9;\nassert sq(2) == 5;")
	p, err := BuildProgram(items)
	require.NoError(t, err)

	var results []Value
	for _, item := range items {
		a, ok := item.(*typed.Assert)
		if !ok {
			continue
		}
		u, err := BuildExpr("assert", a.Cond)
		require.NoError(t, err)
		v, err := p.Run(u)
		require.NoError(t, err)
		results = append(results, v)
	}
	assert.Equal(t, []Value{Bool(true), Bool(false)}, results)
}

func TestNestedFunctions(t *testing.T) {
	p := load(t, "fn outer() -> i32 { fn inner() -> i32 { return 7; } return inner(); }")
	assert.Len(t, p.Units(), 2)
	got, err := p.Execute("outer", nil)
	require.NoError(t, err)
	assert.Equal(t, I32(7), got)
}

func TestDump(t *testing.T) {
	p := load(t, "fn add(a: i32, b: i32) -> i32 { return a + b; }")
	u, ok := p.Unit("add")
	require.True(t, ok)

	var out bytes.Buffer
	require.NoError(t, Dump(&out, u))
	expected := `fn add(a, b)
  locals: a b
  0000  load        0 ; a
  0001  load        1 ; b
  0002  add
  0003  return
  0004  const       0 ; ()
  0005  return
`
	assert.Equal(t, expected, out.String())
}

func TestParseValue(t *testing.T) {
	tests := []struct {
		input string
		want  Value
		err   bool
	}{
		{"42", I32(42), false},
		{"-3", I32(-3), false},
		{"1.5", F32(1.5), false},
		{"true", Bool(true), false},
		{"false", Bool(false), false},
		{"()", UnitValue{}, false},
		{"nope", nil, true},
		{"99999999999", nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseValue(tt.input)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEqual(t *testing.T) {
	assert.True(t, Equal(Array{I32(1), I32(2)}, Array{I32(1), I32(2)}))
	assert.False(t, Equal(Array{I32(1)}, Array{I32(1), I32(2)}))
	assert.False(t, Equal(Array{I32(1)}, Tuple{I32(1)}))
	assert.True(t, Equal(RangeValue{Lo: 0, Hi: 3}, RangeValue{Lo: 0, Hi: 3}))
	assert.False(t, Equal(I32(1), U32(1)))
	assert.Equal(t, "(1, true)", Tuple{I32(1), Bool(true)}.String())
}

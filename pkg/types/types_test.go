package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArenaInternIdentity(t *testing.T) {
	a := NewArena()

	first := a.Array(4, a.I32())
	second := a.Intern(Ty{Kind: Array, Len: 4, Elem: a.I32()})
	assert.Same(t, first, second)

	assert.NotSame(t, first, a.Array(5, a.I32()))
	assert.NotSame(t, first, a.Array(4, a.U32()))
	assert.Same(t, a.Bool(), a.Bool())
	assert.Same(t, a.Other("str"), a.Other("str"))
	assert.NotSame(t, a.Other("str"), a.Other("vec"))
}

func TestArenaInternAdoptsForeignChildren(t *testing.T) {
	a := NewArena()

	foreign := &Ty{Kind: Slice, Elem: &Ty{Kind: I32}}
	got := a.Intern(Ty{Kind: Pointer, Elem: foreign})

	assert.Same(t, a.Pointer(a.Slice(a.I32())), got)
	assert.Same(t, a.I32(), got.Elem.Elem)
}

func TestArenaFind(t *testing.T) {
	a := NewArena()

	_, ok := a.Find(Ty{Kind: Bool})
	assert.False(t, ok)

	b := a.Bool()
	found, ok := a.Find(Ty{Kind: Bool})
	require.True(t, ok)
	assert.Same(t, b, found)

	_, ok = a.Find(Ty{Kind: Slice, Elem: b})
	assert.False(t, ok, "slice was never interned")

	slice := a.Slice(b)
	found, ok = a.Find(Ty{Kind: Slice, Elem: b})
	require.True(t, ok)
	assert.Same(t, slice, found)

	_, ok = a.Find(Ty{Kind: Slice, Elem: &Ty{Kind: Bool}})
	assert.False(t, ok, "children must belong to the arena")
}

func TestArenaFunctionDefaultsToUnit(t *testing.T) {
	a := NewArena()

	fn := a.Function([]*Ty{a.I32()}, nil)
	assert.Same(t, a.Unit(), fn.Ret)
	assert.Same(t, fn, a.Function([]*Ty{a.I32()}, a.Unit()))
	assert.Equal(t, []*Ty{a.I32()}, fn.Params())
}

func TestArenaTupleOfNothingIsUnit(t *testing.T) {
	a := NewArena()
	assert.Same(t, a.Unit(), a.Tuple())
}

func TestArenaLen(t *testing.T) {
	a := NewArena()
	a.I32()
	a.I32()
	a.Array(2, a.I32())
	assert.Equal(t, 2, a.Len())
	assert.Len(t, a.All(), 2)
}

func TestTyString(t *testing.T) {
	a := NewArena()
	tests := []struct {
		ty   *Ty
		want string
	}{
		{a.Bool(), "bool"},
		{a.Unit(), "()"},
		{a.Array(4, a.I32()), "[4]i32"},
		{a.Slice(a.F32()), "[]f32"},
		{a.Pointer(a.U32()), "*u32"},
		{a.Tuple(a.I32(), a.Bool()), "(i32, bool)"},
		{a.Function([]*Ty{a.I32(), a.I32()}, a.I32()), "fn(i32, i32) -> i32"},
		{a.Function(nil, nil), "fn() -> ()"},
		{a.Other("str"), "str"},
		{a.Error(), "{error}"},
		{a.Unknown(), "{unknown}"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.ty.String())
		})
	}
}

func TestCompatible(t *testing.T) {
	a := NewArena()
	fnA := a.Function([]*Ty{a.I32()}, a.Bool())

	tests := []struct {
		name     string
		actual   *Ty
		expected *Ty
		want     bool
	}{
		{"i32 ~ i32", a.I32(), a.I32(), true},
		{"i32 ~ f32", a.I32(), a.F32(), false},
		{"i32 ~ u32", a.I32(), a.U32(), false},
		{"array ~ array", a.Array(3, a.I32()), a.Array(3, a.I32()), true},
		{"array length mismatch", a.Array(3, a.I32()), a.Array(4, a.I32()), false},
		{"array ~ slice", a.Array(3, a.I32()), a.Slice(a.I32()), true},
		{"slice ~ array", a.Slice(a.I32()), a.Array(3, a.I32()), false},
		{"slice ~ slice", a.Slice(a.Bool()), a.Slice(a.Bool()), true},
		{"slice elem mismatch", a.Slice(a.Bool()), a.Slice(a.I32()), false},
		{"tuple ~ tuple", a.Tuple(a.I32(), a.Bool()), a.Tuple(a.I32(), a.Bool()), true},
		{"tuple arity", a.Tuple(a.I32(), a.Bool()), a.Tuple(a.I32()), false},
		{"function ~ function", fnA, a.Function([]*Ty{a.I32()}, a.Bool()), true},
		{"function return", fnA, a.Function([]*Ty{a.I32()}, a.I32()), false},
		{"function arity", fnA, a.Function(nil, a.Bool()), false},
		{"pointer ~ pointer", a.Pointer(a.I32()), a.Pointer(a.I32()), true},
		{"pointer inner", a.Pointer(a.I32()), a.Pointer(a.U32()), false},
		{"other same name", a.Other("str"), a.Other("str"), true},
		{"other different name", a.Other("str"), a.Other("vec"), false},
		{"any expected", a.Array(2, a.Bool()), a.Any(), true},
		{"any actual", a.Any(), a.I32(), true},
		{"range ~ range", a.Range(), a.Range(), true},
		{"error ~ error", a.Error(), a.Error(), false},
		{"unknown ~ unknown", a.Unknown(), a.Unknown(), false},
		{"error ~ i32", a.Error(), a.I32(), false},
		{"pointer ~ i32", a.Pointer(a.I32()), a.I32(), false},
		{"nested any", a.Slice(a.Any()), a.Slice(a.I32()), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Compatible(tt.actual, tt.expected))
		})
	}
}

func TestBuiltin(t *testing.T) {
	a := NewArena()
	for _, name := range []string{"bool", "i32", "u32", "f32"} {
		ty, ok := a.Builtin(name)
		require.True(t, ok, name)
		assert.Equal(t, name, ty.String())
	}
	_, ok := a.Builtin("str")
	assert.False(t, ok)
}

func TestIterable(t *testing.T) {
	a := NewArena()
	assert.True(t, Iterable(a.Array(2, a.I32())))
	assert.True(t, Iterable(a.Slice(a.I32())))
	assert.True(t, Iterable(a.Range()))
	assert.False(t, Iterable(a.I32()))
	assert.False(t, Iterable(a.Tuple(a.I32(), a.I32())))
	assert.False(t, Iterable(a.Any()))
}

package types

import (
	"strconv"
	"strings"
)

// Arena owns every type descriptor of one compilation. It only grows; a
// descriptor, once returned, is never mutated or dropped.
//
// An Arena is not safe for concurrent use. Compilations that run in parallel
// each get their own.
type Arena struct {
	index map[string]*Ty
	all   []*Ty
}

// NewArena returns an empty arena.
func NewArena() *Arena {
	return &Arena{index: make(map[string]*Ty)}
}

// Intern returns the arena's descriptor for shape, allocating it on first
// request. Children of shape that were not produced by this arena are
// interned first, so the result is always fully owned by a.
func (a *Arena) Intern(shape Ty) *Ty {
	shape = a.normalize(shape)
	key := shapeKey(&shape)
	if ty, ok := a.index[key]; ok {
		return ty
	}
	ty := &shape
	ty.id = len(a.all)
	a.all = append(a.all, ty)
	a.index[key] = ty
	return ty
}

// Find returns the descriptor for shape if one has been allocated.
func (a *Arena) Find(shape Ty) (*Ty, bool) {
	for _, child := range children(&shape) {
		if !a.owns(child) {
			return nil, false
		}
	}
	ty, ok := a.index[shapeKey(&shape)]
	return ty, ok
}

// Len returns the number of distinct descriptors allocated so far.
func (a *Arena) Len() int {
	return len(a.all)
}

// All returns the allocated descriptors in allocation order.
func (a *Arena) All() []*Ty {
	return append([]*Ty(nil), a.all...)
}

func (a *Arena) owns(ty *Ty) bool {
	return ty != nil && ty.id >= 0 && ty.id < len(a.all) && a.all[ty.id] == ty
}

func (a *Arena) adopt(ty *Ty) *Ty {
	if a.owns(ty) {
		return ty
	}
	if ty == nil {
		return a.Unit()
	}
	return a.Intern(*ty)
}

// normalize drops fields that do not belong to the kind and makes every child
// an arena member.
func (a *Arena) normalize(shape Ty) Ty {
	out := Ty{Kind: shape.Kind, id: -1}
	switch shape.Kind {
	case Array:
		out.Len = shape.Len
		out.Elem = a.adopt(shape.Elem)
	case Slice, Pointer:
		out.Elem = a.adopt(shape.Elem)
	case Tuple:
		out.Elems = a.adoptAll(shape.Elems)
	case Function:
		out.Elems = a.adoptAll(shape.Elems)
		out.Ret = a.adopt(shape.Ret)
	case Other:
		out.Name = shape.Name
	}
	return out
}

func (a *Arena) adoptAll(tys []*Ty) []*Ty {
	if len(tys) == 0 {
		return nil
	}
	out := make([]*Ty, len(tys))
	for i, ty := range tys {
		out[i] = a.adopt(ty)
	}
	return out
}

func children(t *Ty) []*Ty {
	switch t.Kind {
	case Array, Slice, Pointer:
		return []*Ty{t.Elem}
	case Tuple:
		return t.Elems
	case Function:
		return append(append([]*Ty(nil), t.Elems...), t.Ret)
	}
	return nil
}

// shapeKey encodes a normalized shape. Children are referenced by arena id,
// which is sound because equal shapes share one id.
func shapeKey(t *Ty) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(int(t.Kind)))
	switch t.Kind {
	case Array:
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(t.Len), 10))
		writeID(&b, t.Elem)
	case Slice, Pointer:
		writeID(&b, t.Elem)
	case Tuple:
		for _, e := range t.Elems {
			writeID(&b, e)
		}
	case Function:
		for _, e := range t.Elems {
			writeID(&b, e)
		}
		b.WriteString("->")
		writeID(&b, t.Ret)
	case Other:
		b.WriteByte(':')
		b.WriteString(strconv.Quote(t.Name))
	}
	return b.String()
}

func writeID(b *strings.Builder, t *Ty) {
	b.WriteByte('#')
	if t == nil {
		b.WriteByte('-')
		return
	}
	b.WriteString(strconv.Itoa(t.id))
}

// Bool returns the bool type.
func (a *Arena) Bool() *Ty { return a.Intern(Ty{Kind: Bool}) }

// I32 returns the i32 type.
func (a *Arena) I32() *Ty { return a.Intern(Ty{Kind: I32}) }

// U32 returns the u32 type.
func (a *Arena) U32() *Ty { return a.Intern(Ty{Kind: U32}) }

// F32 returns the f32 type.
func (a *Arena) F32() *Ty { return a.Intern(Ty{Kind: F32}) }

// Unit returns the unit type.
func (a *Arena) Unit() *Ty { return a.Intern(Ty{Kind: Unit}) }

// Range returns the range type.
func (a *Arena) Range() *Ty { return a.Intern(Ty{Kind: Range}) }

// Any returns the type that is compatible with everything.
func (a *Arena) Any() *Ty { return a.Intern(Ty{Kind: Any}) }

// Unknown returns the placeholder for a type that could not be determined.
func (a *Arena) Unknown() *Ty { return a.Intern(Ty{Kind: Unknown}) }

// Error returns the placeholder for an ill-typed expression.
func (a *Arena) Error() *Ty { return a.Intern(Ty{Kind: Error}) }

// Array returns [n]elem.
func (a *Arena) Array(n uint32, elem *Ty) *Ty {
	return a.Intern(Ty{Kind: Array, Len: n, Elem: elem})
}

// Slice returns []elem.
func (a *Arena) Slice(elem *Ty) *Ty {
	return a.Intern(Ty{Kind: Slice, Elem: elem})
}

// Pointer returns *elem.
func (a *Arena) Pointer(elem *Ty) *Ty {
	return a.Intern(Ty{Kind: Pointer, Elem: elem})
}

// Tuple returns the tuple of elems. An empty tuple is Unit.
func (a *Arena) Tuple(elems ...*Ty) *Ty {
	if len(elems) == 0 {
		return a.Unit()
	}
	return a.Intern(Ty{Kind: Tuple, Elems: elems})
}

// Function returns fn(params) -> ret. A nil ret means Unit.
func (a *Arena) Function(params []*Ty, ret *Ty) *Ty {
	return a.Intern(Ty{Kind: Function, Elems: params, Ret: ret})
}

// Other returns the opaque named type.
func (a *Arena) Other(name string) *Ty {
	return a.Intern(Ty{Kind: Other, Name: name})
}

// Builtin resolves a built-in type name.
func (a *Arena) Builtin(name string) (*Ty, bool) {
	switch name {
	case "bool":
		return a.Bool(), true
	case "i32":
		return a.I32(), true
	case "u32":
		return a.U32(), true
	case "f32":
		return a.F32(), true
	}
	return nil, false
}

// Package types holds the type universe of a compilation: type descriptors,
// the interning arena that owns them and the compatibility relation.
package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the variant of a type descriptor.
type Kind uint8

// Type kinds.
const (
	Bool Kind = iota
	I32
	U32
	F32
	Unit
	Array
	Slice
	Tuple
	Pointer
	Function
	Other
	Range
	Any
	Unknown
	Error
)

var kindNames = [...]string{
	Bool:     "bool",
	I32:      "i32",
	U32:      "u32",
	F32:      "f32",
	Unit:     "unit",
	Array:    "array",
	Slice:    "slice",
	Tuple:    "tuple",
	Pointer:  "pointer",
	Function: "function",
	Other:    "other",
	Range:    "range",
	Any:      "any",
	Unknown:  "unknown",
	Error:    "error",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// IsBase reports whether the kind carries no parameters.
func (k Kind) IsBase() bool {
	switch k {
	case Bool, I32, U32, F32, Unit, Range, Any, Unknown, Error:
		return true
	}
	return false
}

// IsNumeric reports whether values of the kind support arithmetic.
func (k Kind) IsNumeric() bool {
	return k == I32 || k == U32 || k == F32
}

// Ty is a type descriptor. Descriptors handed out by an Arena are unique per
// shape, so two *Ty from the same arena are equal iff the pointers are equal.
//
// Which fields are meaningful depends on Kind:
//
//	Array     Len, Elem
//	Slice     Elem
//	Pointer   Elem
//	Tuple     Elems
//	Function  Elems (parameters), Ret
//	Other     Name
type Ty struct {
	Kind  Kind
	Len   uint32
	Elem  *Ty
	Elems []*Ty
	Ret   *Ty
	Name  string

	id int // position in the owning arena, -1 for unowned shapes
}

// String renders the type the way it is written in source.
func (t *Ty) String() string {
	if t == nil {
		return "<nil>"
	}
	var b strings.Builder
	t.write(&b)
	return b.String()
}

func (t *Ty) write(b *strings.Builder) {
	switch t.Kind {
	case Unit:
		b.WriteString("()")
	case Array:
		b.WriteByte('[')
		b.WriteString(strconv.FormatUint(uint64(t.Len), 10))
		b.WriteByte(']')
		t.Elem.write(b)
	case Slice:
		b.WriteString("[]")
		t.Elem.write(b)
	case Pointer:
		b.WriteByte('*')
		t.Elem.write(b)
	case Tuple:
		b.WriteByte('(')
		writeList(b, t.Elems)
		b.WriteByte(')')
	case Function:
		b.WriteString("fn(")
		writeList(b, t.Elems)
		b.WriteString(") -> ")
		t.Ret.write(b)
	case Other:
		b.WriteString(t.Name)
	case Unknown, Error:
		b.WriteByte('{')
		b.WriteString(t.Kind.String())
		b.WriteByte('}')
	default:
		b.WriteString(t.Kind.String())
	}
}

func writeList(b *strings.Builder, tys []*Ty) {
	for i, ty := range tys {
		if i > 0 {
			b.WriteString(", ")
		}
		ty.write(b)
	}
}

// Params returns the parameter types of a function type.
func (t *Ty) Params() []*Ty {
	if t.Kind != Function {
		return nil
	}
	return t.Elems
}

// IsError reports whether t is the Error or Unknown placeholder.
func (t *Ty) IsError() bool {
	return t != nil && (t.Kind == Error || t.Kind == Unknown)
}

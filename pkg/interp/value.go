package interp

import (
	"fmt"
	"strconv"
	"strings"
)

// Value is a runtime value.
type Value interface {
	String() string
	value() // Marker method
}

// I32 is a signed 32-bit integer.
type I32 int32

// U32 is an unsigned 32-bit integer.
type U32 uint32

// F32 is a 32-bit float.
type F32 float32

// Bool is a boolean.
type Bool bool

// Str is an opaque string.
type Str string

// UnitValue is the only value of the unit type.
type UnitValue struct{}

// Array is a fixed-length sequence. Arrays have value semantics: element
// stores copy the backing slice first.
type Array []Value

// Tuple is an ordered heterogeneous group.
type Tuple []Value

// RangeValue is the half-open integer range [Lo, Hi).
type RangeValue struct {
	Lo, Hi int32
}

// Pointer refers to a mutable cell, either a local slot or a boxed value.
type Pointer struct {
	cell *Value
}

func (I32) value()        {}
func (U32) value()        {}
func (F32) value()        {}
func (Bool) value()       {}
func (Str) value()        {}
func (UnitValue) value()  {}
func (Array) value()      {}
func (Tuple) value()      {}
func (RangeValue) value() {}
func (Pointer) value()    {}

func (v I32) String() string  { return strconv.FormatInt(int64(v), 10) }
func (v U32) String() string  { return strconv.FormatUint(uint64(v), 10) }
func (v F32) String() string  { return strconv.FormatFloat(float64(v), 'g', -1, 32) }
func (v Bool) String() string { return strconv.FormatBool(bool(v)) }
func (v Str) String() string  { return strconv.Quote(string(v)) }

func (UnitValue) String() string { return "()" }

func (v Array) String() string { return "[" + join(v) + "]" }
func (v Tuple) String() string { return "(" + join(v) + ")" }

func (v RangeValue) String() string { return fmt.Sprintf("%d..%d", v.Lo, v.Hi) }

func (v Pointer) String() string {
	if v.cell == nil {
		return "&<nil>"
	}
	return "&" + (*v.cell).String()
}

func join(vs []Value) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// Equal reports structural equality. Pointers are equal when they share a
// cell.
func Equal(a, b Value) bool {
	switch x := a.(type) {
	case Array:
		y, ok := b.(Array)
		return ok && equalAll(x, y)
	case Tuple:
		y, ok := b.(Tuple)
		return ok && equalAll(x, y)
	case Pointer:
		y, ok := b.(Pointer)
		return ok && x.cell == y.cell
	}
	return a == b
}

func equalAll(a, b []Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Equal(a[i], b[i]) {
			return false
		}
	}
	return true
}

// ParseValue reads a scalar literal as typed on the command line: integers,
// floats containing a '.', true and false.
func ParseValue(s string) (Value, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "true":
		return Bool(true), nil
	case "false":
		return Bool(false), nil
	case "()":
		return UnitValue{}, nil
	}
	if strings.Contains(s, ".") {
		f, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return nil, fmt.Errorf("invalid float %q: %w", s, err)
		}
		return F32(f), nil
	}
	n, err := strconv.ParseInt(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid integer %q: %w", s, err)
	}
	return I32(n), nil
}

package types

// Compatible reports whether a value of type actual may be used where
// expected is required.
//
// The relation is structural and mostly symmetric. The exception is arrays:
// an array is accepted where a slice is expected, never the reverse. Any
// matches everything on either side; Error and Unknown match nothing else.
func Compatible(actual, expected *Ty) bool {
	if actual == nil || expected == nil {
		return false
	}
	if actual.Kind == Any || expected.Kind == Any {
		return true
	}

	switch actual.Kind {
	case Bool, I32, U32, F32, Unit, Range:
		return actual.Kind == expected.Kind
	case Array:
		switch expected.Kind {
		case Array:
			return actual.Len == expected.Len && Compatible(actual.Elem, expected.Elem)
		case Slice:
			return Compatible(actual.Elem, expected.Elem)
		}
	case Slice:
		return expected.Kind == Slice && Compatible(actual.Elem, expected.Elem)
	case Pointer:
		return expected.Kind == Pointer && Compatible(actual.Elem, expected.Elem)
	case Tuple:
		return expected.Kind == Tuple && allCompatible(actual.Elems, expected.Elems)
	case Function:
		return expected.Kind == Function &&
			Compatible(actual.Ret, expected.Ret) &&
			allCompatible(actual.Elems, expected.Elems)
	case Other:
		return expected.Kind == Other && actual.Name == expected.Name
	}
	return false
}

func allCompatible(actual, expected []*Ty) bool {
	if len(actual) != len(expected) {
		return false
	}
	for i := range actual {
		if !Compatible(actual[i], expected[i]) {
			return false
		}
	}
	return true
}

// Iterable reports whether a for loop may range over values of type t.
func Iterable(t *Ty) bool {
	switch t.Kind {
	case Array, Slice, Range:
		return true
	}
	return false
}

// ElemOf returns the element type of an array or slice.
func ElemOf(t *Ty) (*Ty, bool) {
	switch t.Kind {
	case Array, Slice:
		return t.Elem, true
	}
	return nil, false
}

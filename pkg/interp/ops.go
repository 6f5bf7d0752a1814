package interp

import "fmt"

// Op is an instruction opcode. The machine is stack based: operands are
// popped from and results pushed onto the operand stack.
type Op uint8

// Opcodes.
const (
	OpNop        Op = iota
	OpConst         // push Consts[A]
	OpLoad          // push local A
	OpStore         // pop into local A
	OpAddr          // push a pointer to local A
	OpPop           // discard the top value
	OpAdd           // arithmetic pops rhs then lhs
	OpSub           //
	OpMul           //
	OpDiv           //
	OpNeg           //
	OpLess          // comparisons push a Bool
	OpGreater       //
	OpLessEq        //
	OpGreaterEq     //
	OpEq            //
	OpNotEq         //
	OpRef           // box the top value and push a pointer to it
	OpDeref         // replace a pointer by the value it refers to
	OpStoreDeref    // pop value, pop pointer, store through it
	OpArray         // pop A values into an array
	OpTuple         // pop A values into a tuple
	OpRange         // pop hi and lo into a range
	OpIndex         // pop index and base, push the element
	OpStoreIndex    // pop value and index, store into the array in local A
	OpIter          // pop an iterable into local A as a cursor
	OpNext          // advance the cursor in local A, pushing the step, or jump to B when done
	OpJump          // continue at A
	OpJumpFalse     // pop a Bool, continue at A when false
	OpCall          // call Name with A arguments
	OpDebug         // pop A values and print them, push unit
	OpAssert        // pop a Bool, fail when false
	OpReturn        // pop the result and leave the function
)

var opNames = [...]string{
	OpNop:        "nop",
	OpConst:      "const",
	OpLoad:       "load",
	OpStore:      "store",
	OpAddr:       "addr",
	OpPop:        "pop",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpDiv:        "div",
	OpNeg:        "neg",
	OpLess:       "lt",
	OpGreater:    "gt",
	OpLessEq:     "le",
	OpGreaterEq:  "ge",
	OpEq:         "eq",
	OpNotEq:      "ne",
	OpRef:        "ref",
	OpDeref:      "deref",
	OpStoreDeref: "store.deref",
	OpArray:      "array",
	OpTuple:      "tuple",
	OpRange:      "range",
	OpIndex:      "index",
	OpStoreIndex: "store.index",
	OpIter:       "iter",
	OpNext:       "next",
	OpJump:       "jump",
	OpJumpFalse:  "jump.false",
	OpCall:       "call",
	OpDebug:      "debug",
	OpAssert:     "assert",
	OpReturn:     "return",
}

func (op Op) String() string {
	if int(op) < len(opNames) && opNames[op] != "" {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", op)
}

// Instr is a single instruction. A and B are operands whose meaning depends
// on Op; Name is set for calls.
type Instr struct {
	Op   Op
	A    int
	B    int
	Name string
}

// Unit is the compiled form of one function.
type Unit struct {
	Name   string
	Params []string
	Locals []string // slot names; hidden slots start with '.'
	Consts []Value
	Code   []Instr
}

// NumLocals returns the number of local slots, parameters included.
func (u *Unit) NumLocals() int {
	return len(u.Locals)
}

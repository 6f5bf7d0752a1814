package interp

import (
	"errors"
	"fmt"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/typed"
)

// ErrExtern is returned when building a function that has no body.
var ErrExtern = errors.New("extern function has no body")

// BuildError reports a construct that cannot be lowered.
type BuildError struct {
	Func    string
	Message string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s: %s", e.Func, e.Message)
}

type loopCtx struct {
	breaks []int
}

type builder struct {
	unit   *Unit
	scopes []map[string]int
	loops  []*loopCtx
	err    error
}

// Build lowers a checked function to bytecode. Nested function items are
// not part of the result; BuildProgram collects them separately.
func Build(fn *typed.Function) (*Unit, error) {
	if fn.Extern {
		return nil, fmt.Errorf("build %s: %w", fn.Name, ErrExtern)
	}
	b := newBuilder(fn.Name)
	for _, p := range fn.Params {
		b.unit.Params = append(b.unit.Params, p.Name)
		b.declare(p.Name)
	}
	b.items(fn.Body)
	b.emit(Instr{Op: OpConst, A: b.constant(UnitValue{})})
	b.emit(Instr{Op: OpReturn})
	if b.err != nil {
		return nil, b.err
	}
	return b.unit, nil
}

// BuildExpr lowers a closed expression to a parameterless unit that
// returns its value.
func BuildExpr(name string, e *typed.Expr) (*Unit, error) {
	b := newBuilder(name)
	b.expr(e)
	b.emit(Instr{Op: OpReturn})
	if b.err != nil {
		return nil, b.err
	}
	return b.unit, nil
}

func newBuilder(name string) *builder {
	return &builder{
		unit:   &Unit{Name: name},
		scopes: []map[string]int{{}},
	}
}

func (b *builder) fail(format string, args ...any) {
	if b.err == nil {
		b.err = &BuildError{Func: b.unit.Name, Message: fmt.Sprintf(format, args...)}
	}
}

func (b *builder) emit(in Instr) int {
	b.unit.Code = append(b.unit.Code, in)
	return len(b.unit.Code) - 1
}

func (b *builder) here() int {
	return len(b.unit.Code)
}

// patch points the jump at pc to the current position.
func (b *builder) patch(pc int) {
	b.unit.Code[pc].A = b.here()
}

func (b *builder) constant(v Value) int {
	for i, c := range b.unit.Consts {
		if isScalar(c) && isScalar(v) && c == v {
			return i
		}
	}
	b.unit.Consts = append(b.unit.Consts, v)
	return len(b.unit.Consts) - 1
}

func isScalar(v Value) bool {
	switch v.(type) {
	case I32, U32, F32, Bool, Str, UnitValue:
		return true
	}
	return false
}

// declare allocates a fresh slot for name in the innermost scope.
func (b *builder) declare(name string) int {
	slot := len(b.unit.Locals)
	b.unit.Locals = append(b.unit.Locals, name)
	b.scopes[len(b.scopes)-1][name] = slot
	return slot
}

// hidden allocates a slot that no source name can reach.
func (b *builder) hidden(name string) int {
	slot := len(b.unit.Locals)
	b.unit.Locals = append(b.unit.Locals, "."+name)
	return slot
}

func (b *builder) lookup(name string) (int, bool) {
	for i := len(b.scopes) - 1; i >= 0; i-- {
		if slot, ok := b.scopes[i][name]; ok {
			return slot, true
		}
	}
	return 0, false
}

func (b *builder) scoped(body []typed.Item) {
	b.scopes = append(b.scopes, map[string]int{})
	b.items(body)
	b.scopes = b.scopes[:len(b.scopes)-1]
}

func (b *builder) items(items []typed.Item) {
	for _, item := range items {
		b.item(item)
	}
}

func (b *builder) item(item typed.Item) {
	switch it := item.(type) {
	case *typed.Let:
		b.expr(it.Value)
		b.emit(Instr{Op: OpStore, A: b.declare(it.Name)})

	case *typed.Assignment:
		b.assign(it)

	case *typed.ExprStmt:
		b.expr(it.X)
		b.emit(Instr{Op: OpPop})

	case *typed.Function:
		// Lowered as its own unit.

	case *typed.If:
		b.expr(it.Cond)
		skipThen := b.emit(Instr{Op: OpJumpFalse})
		b.scoped(it.Then)
		if it.Else == nil {
			b.patch(skipThen)
			return
		}
		skipElse := b.emit(Instr{Op: OpJump})
		b.patch(skipThen)
		b.scoped(it.Else)
		b.patch(skipElse)

	case *typed.ForIn:
		b.expr(it.Iter)
		cursor := b.hidden("iter")
		b.emit(Instr{Op: OpIter, A: cursor})
		top := b.here()
		next := b.emit(Instr{Op: OpNext, A: cursor})

		b.scopes = append(b.scopes, map[string]int{})
		b.emit(Instr{Op: OpStore, A: b.declare(it.Name)})
		b.loop(top, it.Body)
		b.scopes = b.scopes[:len(b.scopes)-1]
		b.unit.Code[next].B = b.here()

	case *typed.Loop:
		b.loop(b.here(), it.Body)

	case *typed.Break:
		if len(b.loops) == 0 {
			b.fail("break outside of a loop")
			return
		}
		loop := b.loops[len(b.loops)-1]
		loop.breaks = append(loop.breaks, b.emit(Instr{Op: OpJump}))

	case *typed.Return:
		if it.Value == nil {
			b.emit(Instr{Op: OpConst, A: b.constant(UnitValue{})})
		} else {
			b.expr(it.Value)
		}
		b.emit(Instr{Op: OpReturn})

	case *typed.Block:
		b.scoped(it.Body)

	case *typed.Assert:
		b.expr(it.Cond)
		b.emit(Instr{Op: OpAssert})

	default:
		b.fail("unsupported item %T", item)
	}
}

// loop emits body followed by a jump back to top, then resolves breaks.
func (b *builder) loop(top int, body []typed.Item) {
	ctx := &loopCtx{}
	b.loops = append(b.loops, ctx)
	b.scoped(body)
	b.emit(Instr{Op: OpJump, A: top})
	b.loops = b.loops[:len(b.loops)-1]
	for _, pc := range ctx.breaks {
		b.patch(pc)
	}
}

func (b *builder) assign(it *typed.Assignment) {
	// combine pushes the value to store. For compound forms the caller has
	// already pushed the current value of the target.
	combine := func() {
		b.expr(it.Value)
		if it.Op != nil {
			b.emit(Instr{Op: binaryOps[*it.Op]})
		}
	}

	switch target := it.Target.Node.(type) {
	case *typed.Ident:
		slot, ok := b.lookup(target.Name)
		if !ok {
			b.fail("assignment to unknown variable %s", target.Name)
			return
		}
		if it.Op != nil {
			b.emit(Instr{Op: OpLoad, A: slot})
		}
		combine()
		b.emit(Instr{Op: OpStore, A: slot})

	case *typed.Index:
		base, ok := target.Base.Node.(*typed.Ident)
		if !ok {
			b.fail("only local arrays can be assigned by index")
			return
		}
		slot, ok := b.lookup(base.Name)
		if !ok {
			b.fail("assignment to unknown variable %s", base.Name)
			return
		}
		b.expr(target.Index)
		if it.Op != nil {
			b.emit(Instr{Op: OpLoad, A: slot})
			b.expr(target.Index)
			b.emit(Instr{Op: OpIndex})
		}
		combine()
		b.emit(Instr{Op: OpStoreIndex, A: slot})

	case *typed.Prefix:
		if target.Op != ast.Deref {
			b.fail("cannot assign to %s expression", target.Op)
			return
		}
		b.expr(target.Operand)
		if it.Op != nil {
			b.expr(target.Operand)
			b.emit(Instr{Op: OpDeref})
		}
		combine()
		b.emit(Instr{Op: OpStoreDeref})

	default:
		b.fail("invalid assignment target")
	}
}

var binaryOps = map[ast.Operator]Op{
	ast.Add:       OpAdd,
	ast.Sub:       OpSub,
	ast.Mul:       OpMul,
	ast.Div:       OpDiv,
	ast.Less:      OpLess,
	ast.Greater:   OpGreater,
	ast.LessEq:    OpLessEq,
	ast.GreaterEq: OpGreaterEq,
	ast.Eq:        OpEq,
	ast.NotEq:     OpNotEq,
}

func (b *builder) expr(e *typed.Expr) {
	switch n := e.Node.(type) {
	case *typed.Ident:
		slot, ok := b.lookup(n.Name)
		if !ok {
			b.fail("%s is not a local variable", n.Name)
			return
		}
		b.emit(Instr{Op: OpLoad, A: slot})
	case *typed.Var:
		if n.Slot < 0 || n.Slot >= len(b.unit.Locals) {
			b.fail("slot %d out of range", n.Slot)
			return
		}
		b.emit(Instr{Op: OpLoad, A: n.Slot})

	case *typed.IntLit:
		b.emit(Instr{Op: OpConst, A: b.constant(I32(n.Value))})
	case *typed.FloatLit:
		b.emit(Instr{Op: OpConst, A: b.constant(F32(n.Value))})
	case *typed.BoolLit:
		b.emit(Instr{Op: OpConst, A: b.constant(Bool(n.Value))})
	case *typed.StringLit:
		b.emit(Instr{Op: OpConst, A: b.constant(Str(n.Value))})

	case *typed.Infix:
		b.expr(n.Left)
		b.expr(n.Right)
		b.emit(Instr{Op: binaryOps[n.Op]})

	case *typed.Prefix:
		switch n.Op {
		case ast.Negate:
			b.expr(n.Operand)
			b.emit(Instr{Op: OpNeg})
		case ast.Deref:
			b.expr(n.Operand)
			b.emit(Instr{Op: OpDeref})
		case ast.Ref:
			if id, ok := n.Operand.Node.(*typed.Ident); ok {
				if slot, ok := b.lookup(id.Name); ok {
					b.emit(Instr{Op: OpAddr, A: slot})
					return
				}
			}
			b.expr(n.Operand)
			b.emit(Instr{Op: OpRef})
		}

	case *typed.Index:
		b.expr(n.Base)
		b.expr(n.Index)
		b.emit(Instr{Op: OpIndex})

	case *typed.ArrayLit:
		for _, el := range n.Elems {
			b.expr(el)
		}
		b.emit(Instr{Op: OpArray, A: len(n.Elems)})

	case *typed.TupleLit:
		if len(n.Elems) == 0 {
			b.emit(Instr{Op: OpConst, A: b.constant(UnitValue{})})
			return
		}
		for _, el := range n.Elems {
			b.expr(el)
		}
		b.emit(Instr{Op: OpTuple, A: len(n.Elems)})

	case *typed.Range:
		b.expr(n.Lo)
		b.expr(n.Hi)
		b.emit(Instr{Op: OpRange})

	case *typed.Call:
		for _, arg := range n.Args {
			b.expr(arg)
		}
		if n.Callee == DebugBuiltin {
			b.emit(Instr{Op: OpDebug, A: len(n.Args)})
			return
		}
		b.emit(Instr{Op: OpCall, A: len(n.Args), Name: n.Callee})

	case *typed.ErrorNode:
		b.fail("expression at %s did not type check", e.Pos)

	default:
		b.fail("unsupported expression %T", e.Node)
	}
}

// DebugBuiltin is the name of the built-in printer.
const DebugBuiltin = "debug"

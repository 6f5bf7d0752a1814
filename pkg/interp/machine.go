package interp

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/leapstack-labs/tern/pkg/typed"
)

var (
	ErrUnknownFunction = errors.New("unknown function")
	ErrArity           = errors.New("wrong number of arguments")
	ErrStepLimit       = errors.New("step limit exceeded")
	ErrCallDepth       = errors.New("call depth exceeded")
	ErrDivideByZero    = errors.New("division by zero")
	ErrIndexRange      = errors.New("index out of range")
	ErrAssertion       = errors.New("assertion failed")
	ErrType            = errors.New("operand type mismatch")
)

const (
	DefaultMaxSteps = 1_000_000
	DefaultMaxDepth = 256
)

// RuntimeError is an execution failure inside a unit.
type RuntimeError struct {
	Func string
	PC   int
	Err  error
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("%s at %04d: %v", e.Func, e.PC, e.Err)
}

func (e *RuntimeError) Unwrap() error { return e.Err }

// HostFunc implements an extern function in Go.
type HostFunc func(args []Value) (Value, error)

// Program is a set of units that can call each other. A Program is not safe
// for concurrent Execute calls.
type Program struct {
	units    map[string]*Unit
	hosts    map[string]HostFunc
	out      io.Writer
	logger   *slog.Logger
	maxSteps int
	maxDepth int

	steps int
}

// ProgramOption configures a Program.
type ProgramOption func(*Program)

// WithOutput sets where debug() writes. The default discards output.
func WithOutput(w io.Writer) ProgramOption {
	return func(p *Program) { p.out = w }
}

// WithLogger sets the logger for call tracing.
func WithLogger(l *slog.Logger) ProgramOption {
	return func(p *Program) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithLimits bounds the instructions executed per Execute call and the call
// depth. Zero keeps the default.
func WithLimits(steps, depth int) ProgramOption {
	return func(p *Program) {
		if steps > 0 {
			p.maxSteps = steps
		}
		if depth > 0 {
			p.maxDepth = depth
		}
	}
}

// NewProgram returns an empty program.
func NewProgram(opts ...ProgramOption) *Program {
	p := &Program{
		units:    make(map[string]*Unit),
		hosts:    make(map[string]HostFunc),
		out:      io.Discard,
		logger:   slog.New(slog.DiscardHandler),
		maxSteps: DefaultMaxSteps,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildProgram lowers every function with a body in items, nested ones
// included. Extern declarations are skipped; register them with Register.
func BuildProgram(items []typed.Item, opts ...ProgramOption) (*Program, error) {
	p := NewProgram(opts...)
	var walk func(items []typed.Item) error
	walk = func(items []typed.Item) error {
		for _, fn := range typed.Functions(items) {
			if fn.Extern {
				continue
			}
			unit, err := Build(fn)
			if err != nil {
				return err
			}
			p.Add(unit)
			if err := walk(fn.Body); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(items); err != nil {
		return nil, err
	}
	return p, nil
}

// Add registers a unit under its name, replacing any previous one.
func (p *Program) Add(u *Unit) {
	p.units[u.Name] = u
}

// Register binds name to a Go implementation.
func (p *Program) Register(name string, fn HostFunc) {
	p.hosts[name] = fn
}

// Unit returns the unit registered under name.
func (p *Program) Unit(name string) (*Unit, bool) {
	u, ok := p.units[name]
	return u, ok
}

// Units returns all units sorted by name.
func (p *Program) Units() []*Unit {
	out := make([]*Unit, 0, len(p.units))
	for _, u := range p.units {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Execute calls the function name with args and returns its result.
func (p *Program) Execute(name string, args []Value) (Value, error) {
	p.steps = 0
	return p.call(name, args, 0)
}

// Run executes a parameterless unit that is not registered in the program,
// such as one produced by BuildExpr.
func (p *Program) Run(u *Unit) (Value, error) {
	p.steps = 0
	return p.run(u, nil, 0)
}

func (p *Program) call(name string, args []Value, depth int) (Value, error) {
	if depth >= p.maxDepth {
		return nil, ErrCallDepth
	}
	if host, ok := p.hosts[name]; ok {
		return host(args)
	}
	u, ok := p.units[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if len(args) != len(u.Params) {
		return nil, fmt.Errorf("%s: %w: want %d, got %d", name, ErrArity, len(u.Params), len(args))
	}
	p.logger.Debug("call", slog.String("func", name), slog.Int("depth", depth))
	return p.run(u, args, depth)
}

// frame is the activation of one unit.
type frame struct {
	locals []Value
	stack  []Value
	pc     int
}

func (f *frame) push(v Value) { f.stack = append(f.stack, v) }

func (f *frame) pop() Value {
	if len(f.stack) == 0 {
		panic(errors.New("operand stack underflow"))
	}
	v := f.stack[len(f.stack)-1]
	f.stack = f.stack[:len(f.stack)-1]
	return v
}

func (f *frame) popN(n int) []Value {
	if n > len(f.stack) {
		panic(errors.New("operand stack underflow"))
	}
	out := make([]Value, n)
	copy(out, f.stack[len(f.stack)-n:])
	f.stack = f.stack[:len(f.stack)-n]
	return out
}

func (p *Program) run(u *Unit, args []Value, depth int) (result Value, err error) {
	f := &frame{locals: make([]Value, len(u.Locals))}
	copy(f.locals, args)

	defer func() {
		if r := recover(); r != nil {
			e, ok := r.(error)
			if !ok {
				panic(r)
			}
			result, err = nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: e}
		}
	}()

	for f.pc < len(u.Code) {
		p.steps++
		if p.steps > p.maxSteps {
			return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrStepLimit}
		}

		in := u.Code[f.pc]
		next := f.pc + 1
		switch in.Op {
		case OpNop:
		case OpConst:
			f.push(u.Consts[in.A])
		case OpLoad:
			f.push(f.locals[in.A])
		case OpStore:
			f.locals[in.A] = f.pop()
		case OpAddr:
			f.push(Pointer{cell: &f.locals[in.A]})
		case OpPop:
			f.pop()

		case OpAdd, OpSub, OpMul, OpDiv, OpLess, OpGreater, OpLessEq, OpGreaterEq, OpEq, OpNotEq:
			rhs := f.pop()
			lhs := f.pop()
			v, err := binary(in.Op, lhs, rhs)
			if err != nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: err}
			}
			f.push(v)
		case OpNeg:
			v, err := negate(f.pop())
			if err != nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: err}
			}
			f.push(v)

		case OpRef:
			cell := f.pop()
			f.push(Pointer{cell: &cell})
		case OpDeref:
			ptr, ok := f.pop().(Pointer)
			if !ok || ptr.cell == nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrType}
			}
			f.push(*ptr.cell)
		case OpStoreDeref:
			v := f.pop()
			ptr, ok := f.pop().(Pointer)
			if !ok || ptr.cell == nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrType}
			}
			*ptr.cell = v

		case OpArray:
			f.push(Array(f.popN(in.A)))
		case OpTuple:
			f.push(Tuple(f.popN(in.A)))
		case OpRange:
			hi, okHi := f.pop().(I32)
			lo, okLo := f.pop().(I32)
			if !okHi || !okLo {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrType}
			}
			f.push(RangeValue{Lo: int32(lo), Hi: int32(hi)})

		case OpIndex:
			idx := f.pop()
			v, err := index(f.pop(), idx)
			if err != nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: err}
			}
			f.push(v)
		case OpStoreIndex:
			v := f.pop()
			idx := f.pop()
			arr, err := storeIndex(f.locals[in.A], idx, v)
			if err != nil {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: err}
			}
			f.locals[in.A] = arr

		case OpIter:
			f.locals[in.A] = &cursor{src: f.pop()}
		case OpNext:
			cur, ok := f.locals[in.A].(*cursor)
			if !ok {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrType}
			}
			step, more := cur.next()
			if !more {
				next = in.B
				break
			}
			f.push(step)

		case OpJump:
			next = in.A
		case OpJumpFalse:
			cond, ok := f.pop().(Bool)
			if !ok {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrType}
			}
			if !cond {
				next = in.A
			}

		case OpCall:
			args := f.popN(in.A)
			v, err := p.call(in.Name, args, depth+1)
			if err != nil {
				return nil, err
			}
			f.push(v)
		case OpDebug:
			args := f.popN(in.A)
			parts := make([]string, len(args))
			for i, a := range args {
				parts[i] = a.String()
			}
			fmt.Fprintln(p.out, strings.Join(parts, " "))
			f.push(UnitValue{})
		case OpAssert:
			if cond, ok := f.pop().(Bool); !ok || !bool(cond) {
				return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: ErrAssertion}
			}

		case OpReturn:
			return f.pop(), nil

		default:
			return nil, &RuntimeError{Func: u.Name, PC: f.pc, Err: fmt.Errorf("invalid opcode %s", in.Op)}
		}
		f.pc = next
	}
	return UnitValue{}, nil
}

// cursor walks an iterable. Arrays yield their indices, ranges their
// values.
type cursor struct {
	src Value
	pos int32
}

func (*cursor) value()           {}
func (c *cursor) String() string { return fmt.Sprintf("<cursor %d>", c.pos) }

func (c *cursor) next() (Value, bool) {
	switch s := c.src.(type) {
	case RangeValue:
		v := s.Lo + c.pos
		if v >= s.Hi {
			return nil, false
		}
		c.pos++
		return I32(v), true
	case Array:
		if int(c.pos) >= len(s) {
			return nil, false
		}
		c.pos++
		return I32(c.pos - 1), true
	}
	return nil, false
}

func binary(op Op, lhs, rhs Value) (Value, error) {
	switch op {
	case OpEq:
		return Bool(Equal(lhs, rhs)), nil
	case OpNotEq:
		return Bool(!Equal(lhs, rhs)), nil
	}

	switch l := lhs.(type) {
	case I32:
		r, ok := rhs.(I32)
		if !ok {
			return nil, ErrType
		}
		return integer(op, l, r)
	case U32:
		r, ok := rhs.(U32)
		if !ok {
			return nil, ErrType
		}
		return integer(op, l, r)
	case F32:
		r, ok := rhs.(F32)
		if !ok {
			return nil, ErrType
		}
		switch op {
		case OpAdd:
			return l + r, nil
		case OpSub:
			return l - r, nil
		case OpMul:
			return l * r, nil
		case OpDiv:
			return l / r, nil
		}
		return compare(op, l, r), nil
	}
	return nil, ErrType
}

// integral and numeric list the value types arithmetic is defined on.
type (
	integral interface {
		I32 | U32
		Value
	}
	numeric interface {
		I32 | U32 | F32
		Value
	}
)

func integer[T integral](op Op, l, r T) (Value, error) {
	switch op {
	case OpAdd:
		return l + r, nil
	case OpSub:
		return l - r, nil
	case OpMul:
		return l * r, nil
	case OpDiv:
		if r == 0 {
			return nil, ErrDivideByZero
		}
		return l / r, nil
	}
	return compare(op, l, r), nil
}

func compare[T numeric](op Op, l, r T) Value {
	switch op {
	case OpLess:
		return Bool(l < r)
	case OpGreater:
		return Bool(l > r)
	case OpLessEq:
		return Bool(l <= r)
	default:
		return Bool(l >= r)
	}
}

func negate(v Value) (Value, error) {
	switch x := v.(type) {
	case I32:
		return -x, nil
	case F32:
		return -x, nil
	}
	return nil, ErrType
}

func index(base, idx Value) (Value, error) {
	i, ok := idx.(I32)
	if !ok {
		return nil, ErrType
	}
	arr, ok := base.(Array)
	if !ok {
		return nil, ErrType
	}
	if i < 0 || int(i) >= len(arr) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(arr))
	}
	return arr[i], nil
}

func storeIndex(base, idx, v Value) (Value, error) {
	i, ok := idx.(I32)
	if !ok {
		return nil, ErrType
	}
	arr, ok := base.(Array)
	if !ok {
		return nil, ErrType
	}
	if i < 0 || int(i) >= len(arr) {
		return nil, fmt.Errorf("%w: %d of %d", ErrIndexRange, i, len(arr))
	}
	out := make(Array, len(arr))
	copy(out, arr)
	out[i] = v
	return out, nil
}

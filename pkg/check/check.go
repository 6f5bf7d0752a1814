// Package check assigns types to a parsed program.
//
// The checker walks items in order, resolving every expression against an
// Environment of named bindings. Problems are collected as diagnostics; the
// offending item or expression is dropped (or replaced by an Error-typed
// node) and checking continues. A diagnostic whose severity reaches the
// policy's abort threshold stops checking with a *diag.AbortError.
package check

import (
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/tern/pkg/ast"
	"github.com/leapstack-labs/tern/pkg/diag"
	"github.com/leapstack-labs/tern/pkg/typed"
	"github.com/leapstack-labs/tern/pkg/types"
)

// Checker holds the state of one checking session.
type Checker struct {
	arena  *types.Arena
	policy *diag.Policy
	logger *slog.Logger
	file   string
	diags  diag.List
}

// Option configures a Checker.
type Option func(*Checker)

// WithPolicy sets the severity policy. The default is diag.NewPolicy().
func WithPolicy(p *diag.Policy) Option {
	return func(c *Checker) {
		if p != nil {
			c.policy = p
		}
	}
}

// WithLogger sets the logger used for debug tracing.
func WithLogger(l *slog.Logger) Option {
	return func(c *Checker) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithFile names the file diagnostics are attributed to.
func WithFile(name string) Option {
	return func(c *Checker) { c.file = name }
}

// New creates a checker that interns every type it produces into arena.
func New(arena *types.Arena, opts ...Option) *Checker {
	c := &Checker{
		arena:  arena,
		policy: diag.NewPolicy(),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Diagnostics returns everything reported so far, in report order.
func (c *Checker) Diagnostics() diag.List {
	return c.diags
}

// abortSignal unwinds the walk once a diagnostic crosses the abort
// threshold. It never escapes InferTypes.
type abortSignal struct {
	d diag.Diagnostic
}

// InferTypes checks items against env and returns the surviving items with
// their types. expectedRet is the declared result of the enclosing function,
// or nil at top level.
//
// The returned error is non-nil only when checking was aborted; ordinary
// findings are available from Diagnostics.
func (c *Checker) InferTypes(items []ast.Item, env *Environment, expectedRet *types.Ty) (out []typed.Item, err error) {
	if env == nil {
		env = NewEnvironment()
	}
	defer func() {
		if r := recover(); r != nil {
			sig, ok := r.(abortSignal)
			if !ok {
				panic(r)
			}
			out, err = nil, &diag.AbortError{Diagnostic: sig.d}
		}
	}()
	return c.items(items, env, expectedRet), nil
}

// Check runs a fresh checker over items in a fresh environment and returns
// the typed items together with the diagnostics.
func Check(items []ast.Item, arena *types.Arena, opts ...Option) ([]typed.Item, diag.List, error) {
	c := New(arena, opts...)
	out, err := c.InferTypes(items, NewEnvironment(), nil)
	return out, c.Diagnostics(), err
}

// report records a diagnostic for code at the node's position.
func (c *Checker) report(code diag.Code, node ast.Node, format string, args ...any) {
	d := diag.Diagnostic{
		Code:     code,
		Severity: c.policy.GetSeverity(code),
		Message:  fmt.Sprintf(format, args...),
		Pos:      node.Pos(),
		File:     c.file,
	}
	c.diags = append(c.diags, d)
	c.logger.Debug("diagnostic",
		slog.String("code", string(d.Code)),
		slog.String("severity", d.Severity.String()),
		slog.String("pos", d.Pos.String()),
		slog.String("message", d.Message))

	if c.policy.ShouldAbort(d.Severity) {
		panic(abortSignal{d: d})
	}
}

// resolve interns a type written in the source. A missing type means unit.
func (c *Checker) resolve(t *types.Ty) *types.Ty {
	if t == nil {
		return c.arena.Unit()
	}
	return c.arena.Intern(*t)
}

// signature builds the function type of a declaration.
func (c *Checker) signature(fn *ast.Function) *types.Ty {
	params := make([]*types.Ty, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = c.resolve(p.Type)
	}
	return c.arena.Function(params, c.resolve(fn.Result))
}

// scoped checks body in a fresh frame, running bind first inside it.
func (c *Checker) scoped(env *Environment, body []ast.Item, ret *types.Ty, bind func()) []typed.Item {
	env.Push()
	defer env.Pop()
	if bind != nil {
		bind()
	}
	return c.items(body, env, ret)
}

func (c *Checker) items(items []ast.Item, env *Environment, ret *types.Ty) []typed.Item {
	// Signatures are visible to the whole sequence so functions may call
	// each other regardless of order.
	for _, item := range items {
		if fn, ok := item.(*ast.Function); ok {
			env.Bind(fn.Name, c.signature(fn))
		}
	}

	out := make([]typed.Item, 0, len(items))
	for _, item := range items {
		if checked := c.item(item, env, ret); checked != nil {
			out = append(out, checked)
		}
	}
	return out
}

// item checks a single item. A nil result means the item was dropped.
func (c *Checker) item(item ast.Item, env *Environment, ret *types.Ty) typed.Item {
	switch it := item.(type) {
	case *ast.Let:
		return c.let(it, env)

	case *ast.Assignment:
		target := c.expr(it.Target, env)
		value := c.expr(it.Value, env)
		if !types.Compatible(value.Ty, target.Ty) {
			if !target.IsError() && !value.IsError() {
				c.report(diag.CodeMismatchedTypes, it, "cannot assign %s to %s", value.Ty, target.Ty)
			}
			return nil
		}
		return &typed.Assignment{At: it.Pos(), Target: target, Op: it.Op, Value: value}

	case *ast.ExprStmt:
		return &typed.ExprStmt{At: it.Pos(), X: c.expr(it.X, env)}

	case *ast.Function:
		return c.function(it, env)

	case *ast.Struct:
		c.report(diag.CodeStructUnsupported, it, "struct %s is not supported and was skipped", it.Name)
		return nil

	case *ast.If:
		cond := c.expr(it.Cond, env)
		if !c.isBool(cond, it, "if condition") {
			return nil
		}
		out := &typed.If{At: it.At, Cond: cond}
		out.Then = c.scoped(env, it.Then, ret, nil)
		if it.Else != nil {
			out.Else = c.scoped(env, it.Else, ret, nil)
		}
		return out

	case *ast.ForIn:
		iter := c.expr(it.Iter, env)
		if !types.Iterable(iter.Ty) {
			if !iter.IsError() {
				c.report(diag.CodeNotIterable, it.Iter, "cannot iterate over %s", iter.Ty)
			}
			return nil
		}
		binding := c.arena.I32()
		body := c.scoped(env, it.Body, ret, func() { env.Bind(it.Name, binding) })
		return &typed.ForIn{At: it.At, Name: it.Name, Binding: binding, Iter: iter, Body: body}

	case *ast.Loop:
		return &typed.Loop{At: it.At, Body: c.scoped(env, it.Body, ret, nil)}

	case *ast.Break:
		return &typed.Break{At: it.At}

	case *ast.Block:
		return &typed.Block{At: it.At, Body: c.scoped(env, it.Body, ret, nil)}

	case *ast.Yield:
		c.report(diag.CodeUnsupportedConstruct, it, "yield is not supported")
		return nil

	case *ast.Return:
		return c.ret(it, env, ret)

	case *ast.Assert:
		cond := c.expr(it.Cond, env)
		if !c.isBool(cond, it, "assertion") {
			return nil
		}
		return &typed.Assert{At: it.At, Cond: cond}
	}

	c.report(diag.CodeUnsupportedConstruct, item, "unsupported item %T", item)
	return nil
}

func (c *Checker) let(it *ast.Let, env *Environment) typed.Item {
	if it.Value == nil {
		c.report(diag.CodeMissingInitializer, it, "binding %s has no initializer and was skipped", it.Name)
		return nil
	}

	value := c.expr(it.Value, env)
	ty := value.Ty
	if it.Type != nil {
		declared := c.resolve(it.Type)
		if !types.Compatible(value.Ty, declared) {
			if !value.IsError() {
				c.report(diag.CodeMismatchedTypes, it.Value,
					"cannot bind %s of type %s to %s", it.Name, value.Ty, declared)
			}
			return nil
		}
		ty = declared
	}

	c.logger.Debug("bound", slog.String("name", it.Name), slog.String("type", ty.String()))
	env.Bind(it.Name, ty)
	return &typed.Let{At: it.At, Name: it.Name, Ty: ty, Value: value}
}

func (c *Checker) function(fn *ast.Function, env *Environment) typed.Item {
	sig := c.signature(fn)
	env.Bind(fn.Name, sig)

	params := make([]typed.Param, len(fn.Params))
	for i, p := range fn.Params {
		params[i] = typed.Param{Name: p.Name, Ty: sig.Elems[i]}
	}
	out := &typed.Function{
		At:     fn.At,
		Name:   fn.Name,
		Extern: fn.Extern,
		Params: params,
		Result: sig.Ret,
		Ty:     sig,
	}
	if fn.Extern {
		return out
	}

	c.logger.Debug("checking function", slog.String("name", fn.Name), slog.String("type", sig.String()))
	out.Body = c.scoped(env, fn.Body, sig.Ret, func() {
		for _, p := range params {
			env.Bind(p.Name, p.Ty)
		}
	})
	return out
}

func (c *Checker) ret(it *ast.Return, env *Environment, expected *types.Ty) typed.Item {
	if expected == nil {
		c.report(diag.CodeReturnOutsideFunction, it, "return outside of a function")
		return nil
	}

	if it.Value == nil {
		if expected.Kind != types.Unit && expected.Kind != types.Any {
			c.report(diag.CodeMismatchedTypes, it, "bare return in a function returning %s", expected)
			return nil
		}
		return &typed.Return{At: it.At}
	}

	value := c.expr(it.Value, env)
	if !types.Compatible(value.Ty, expected) {
		if !value.IsError() {
			c.report(diag.CodeMismatchedTypes, it.Value, "cannot return %s from a function returning %s", value.Ty, expected)
		}
		return nil
	}
	return &typed.Return{At: it.At, Value: value}
}

// isBool reports whether cond may be used as a condition, reporting when not.
func (c *Checker) isBool(cond *typed.Expr, node ast.Node, what string) bool {
	if types.Compatible(cond.Ty, c.arena.Bool()) {
		return true
	}
	if !cond.IsError() {
		c.report(diag.CodeNonBoolCondition, node, "%s must be bool, found %s", what, cond.Ty)
	}
	return false
}
